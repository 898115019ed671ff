package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/chouseangly/my-app/internal/cart"
	"github.com/chouseangly/my-app/internal/checkout"
	"github.com/chouseangly/my-app/internal/domain"
	"github.com/chouseangly/my-app/internal/logger"
	"github.com/chouseangly/my-app/internal/profile"
	"github.com/chouseangly/my-app/internal/remote"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

// handleError maps domain and transport errors to HTTP responses. Remote
// rejections surface the message the remote service sent.
func handleError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var validation *domain.ValidationError
	var remoteErr *remote.Error

	switch {
	case errors.As(err, &validation):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   validation.Message,
			Code:    "validation_failed",
			Details: validation.Field,
		})
	case errors.Is(err, domain.ErrInvalidPromotion):
		respondError(w, http.StatusBadRequest, "invalid_promotion", "Invalid promotion code")
	case errors.Is(err, checkout.ErrSubmissionInProgress):
		respondError(w, http.StatusConflict, "submission_in_progress", err.Error())
	case errors.Is(err, checkout.ErrIllegalTransition):
		respondError(w, http.StatusConflict, "illegal_transition", err.Error())
	case errors.Is(err, checkout.ErrNoSession):
		respondError(w, http.StatusNotFound, "no_checkout", err.Error())
	case errors.Is(err, cart.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "item_not_found", err.Error())
	case errors.Is(err, profile.ErrProfileNotFound):
		respondError(w, http.StatusNotFound, "profile_not_found", err.Error())
	case errors.As(err, &remoteErr):
		logger.FromContext(r.Context(), log).Warn("remote request rejected",
			zap.Int("remote_status", remoteErr.Status), zap.String("message", remoteErr.Message))
		respondJSON(w, http.StatusBadGateway, ErrorResponse{
			Error: remoteErr.Message,
			Code:  "remote_rejected",
		})
	case errors.Is(err, remote.ErrUnavailable):
		logger.FromContext(r.Context(), log).Error("remote service unavailable", zap.Error(err))
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", remote.GenericFailureMessage)
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		logger.FromContext(r.Context(), log).Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

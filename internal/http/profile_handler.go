package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/chouseangly/my-app/internal/domain"
	"github.com/chouseangly/my-app/internal/logger"
	"github.com/chouseangly/my-app/internal/profile"
	"go.uber.org/zap"
)

// maxProfileUpload bounds the multipart body, image included.
const maxProfileUpload = 10 << 20

type ProfileService interface {
	Get(ctx context.Context, token, userID string) (*domain.Profile, error)
	Update(ctx context.Context, token string, u profile.Update) (*domain.Profile, error)
	ChangePassword(ctx context.Context, token string, change profile.PasswordChange) error
}

type ProfileHandler struct {
	profiles ProfileService
	timeout  time.Duration
	log      *zap.Logger
}

func NewProfileHandler(p ProfileService, timeout time.Duration, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: p, timeout: timeout, log: log}
}

type ChangePasswordRequestDTO struct {
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	shopper, ok := shopperFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := h.profiles.Get(ctx, shopper.Token, shopper.UserID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// Update accepts the same multipart form the storefront profile page posts:
// firstName, lastName, address, phoneNumber and an optional profileImage.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	shopper, ok := shopperFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxProfileUpload)
	if err := r.ParseMultipartForm(maxProfileUpload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid multipart form")
		return
	}

	u := profile.Update{
		FirstName:   r.FormValue("firstName"),
		LastName:    r.FormValue("lastName"),
		Address:     r.FormValue("address"),
		PhoneNumber: r.FormValue("phoneNumber"),
	}
	file, header, err := r.FormFile("profileImage")
	switch {
	case err == nil:
		defer file.Close()
		u.Image = file
		u.ImageName = header.Filename
	case !errors.Is(err, http.ErrMissingFile):
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid profile image")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	p, err := h.profiles.Update(ctx, shopper.Token, u)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	logger.FromContext(r.Context(), h.log).Info("profile updated", zap.String("user_id", shopper.UserID))
	respondJSON(w, http.StatusOK, p)
}

func (h *ProfileHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	shopper, ok := shopperFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}
	var req ChangePasswordRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	err := h.profiles.ChangePassword(ctx, shopper.Token, profile.PasswordChange{
		UserID:          shopper.UserID,
		OldPassword:     req.OldPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

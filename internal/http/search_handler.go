package http

import (
	"context"
	"net/http"
	"time"

	"github.com/chouseangly/my-app/internal/search"
	"go.uber.org/zap"
)

type SearchService interface {
	Type(ownerID, query string) search.Result
	Results(ownerID string) search.Result
}

type RecentStore interface {
	Add(ctx context.Context, ownerID, term string) ([]string, error)
	List(ctx context.Context, ownerID string) ([]string, error)
	Clear(ctx context.Context, ownerID string) error
}

type SearchHandler struct {
	search  SearchService
	recent  RecentStore
	timeout time.Duration
	log     *zap.Logger
}

func NewSearchHandler(s SearchService, recent RecentStore, timeout time.Duration, log *zap.Logger) *SearchHandler {
	return &SearchHandler{search: s, recent: recent, timeout: timeout, log: log}
}

type QueryRequestDTO struct {
	Query string `json:"query"`
}

type RecentSearchesResponse struct {
	Terms []string `json:"terms"`
}

// Query records a keystroke; the search itself runs once typing pauses.
func (h *SearchHandler) Query(w http.ResponseWriter, r *http.Request) {
	shopper, ok := shopperFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}
	var req QueryRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	respondJSON(w, http.StatusAccepted, toSearchResultResponse(h.search.Type(shopper.UserID, req.Query)))
}

func (h *SearchHandler) Results(w http.ResponseWriter, r *http.Request) {
	shopper, ok := shopperFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}
	respondJSON(w, http.StatusOK, toSearchResultResponse(h.search.Results(shopper.UserID)))
}

func (h *SearchHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	h.recentCall(w, r, func(ctx context.Context, ownerID string) ([]string, error) {
		return h.recent.List(ctx, ownerID)
	})
}

func (h *SearchHandler) AddRecent(w http.ResponseWriter, r *http.Request) {
	var req QueryRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	h.recentCall(w, r, func(ctx context.Context, ownerID string) ([]string, error) {
		return h.recent.Add(ctx, ownerID, req.Query)
	})
}

func (h *SearchHandler) ClearRecent(w http.ResponseWriter, r *http.Request) {
	h.recentCall(w, r, func(ctx context.Context, ownerID string) ([]string, error) {
		return nil, h.recent.Clear(ctx, ownerID)
	})
}

func (h *SearchHandler) recentCall(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, ownerID string) ([]string, error)) {
	shopper, ok := shopperFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	terms, err := fn(ctx, shopper.UserID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	if terms == nil {
		terms = []string{}
	}
	respondJSON(w, http.StatusOK, &RecentSearchesResponse{Terms: terms})
}

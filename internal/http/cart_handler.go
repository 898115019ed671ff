package http

import (
	"context"
	"net/http"
	"time"

	"github.com/chouseangly/my-app/internal/domain"
	"github.com/chouseangly/my-app/internal/pricing"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CartStore interface {
	Cart(ctx context.Context, ownerID string) (*domain.Cart, error)
	Add(ctx context.Context, ownerID, productID string, quantity int) (*domain.Cart, error)
	SetQuantity(ctx context.Context, ownerID, productID string, quantity int) (*domain.Cart, error)
	Remove(ctx context.Context, ownerID, productID string) (*domain.Cart, error)
	Clear(ctx context.Context, ownerID string) error
}

type CatalogIndex interface {
	Index(ctx context.Context) (pricing.Catalog, error)
}

type CartHandler struct {
	store       CartStore
	catalog     CatalogIndex
	deliveryFee decimal.Decimal
	timeout     time.Duration
	log         *zap.Logger
}

func NewCartHandler(store CartStore, catalog CatalogIndex, deliveryFee decimal.Decimal, timeout time.Duration, log *zap.Logger) *CartHandler {
	return &CartHandler{
		store:       store,
		catalog:     catalog,
		deliveryFee: deliveryFee,
		timeout:     timeout,
		log:         log,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	shopper, ok := shopperFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	cart, err := h.store.Cart(ctx, shopper.UserID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(cart))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	shopper, ok := shopperFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	cart, err := h.store.Add(ctx, shopper.UserID, req.ProductID, req.Quantity)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, toCartResponse(cart))
}

// UpdateQuantity sets a line's quantity; zero removes the line.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	shopper, ok := shopperFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	cart, err := h.store.SetQuantity(ctx, shopper.UserID, chi.URLParam(r, "product_id"), req.Quantity)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(cart))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	shopper, ok := shopperFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	cart, err := h.store.Remove(ctx, shopper.UserID, chi.URLParam(r, "product_id"))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(cart))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	shopper, ok := shopperFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	if err := h.store.Clear(ctx, shopper.UserID); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Summary prices the bag without any promotion: the lines whose products
// still exist, and the totals derived from them.
func (h *CartHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	shopper, ok := shopperFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	cart, err := h.store.Cart(ctx, shopper.UserID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	catalog := pricing.Catalog{}
	if !cart.IsEmpty() {
		if catalog, err = h.catalog.Index(ctx); err != nil {
			handleError(w, r, h.log, err)
			return
		}
	}

	respondJSON(w, http.StatusOK, SummaryResponse{
		Lines:  toPricedLines(pricing.Join(cart.Lines, catalog)),
		Totals: toTotalsResponse(pricing.ComputeTotals(cart.Lines, catalog, h.deliveryFee, decimal.Zero)),
	})
}

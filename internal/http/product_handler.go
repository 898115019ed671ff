package http

import (
	"context"
	"net/http"
	"time"

	"github.com/chouseangly/my-app/internal/catalog"
	"github.com/chouseangly/my-app/internal/domain"
	"github.com/chouseangly/my-app/internal/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ProductCatalog interface {
	Search(ctx context.Context, f catalog.Filter) ([]domain.Product, error)
	Delete(ctx context.Context, token, productID string) error
}

type ProductHandler struct {
	catalog ProductCatalog
	timeout time.Duration
	log     *zap.Logger
}

func NewProductHandler(c ProductCatalog, timeout time.Duration, log *zap.Logger) *ProductHandler {
	return &ProductHandler{catalog: c, timeout: timeout, log: log}
}

type ProductsResponse struct {
	Products []ProductResponse `json:"products"`
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.catalog.Search(ctx, catalog.Filter{
		Name:       r.URL.Query().Get("name"),
		CategoryID: r.URL.Query().Get("categoryId"),
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, &ProductsResponse{Products: toProductsResponse(products)})
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	shopper, _ := shopperFromContext(r.Context())
	productID := chi.URLParam(r, "product_id")
	if err := h.catalog.Delete(ctx, shopper.Token, productID); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	logger.FromContext(r.Context(), h.log).Info("product deleted",
		zap.String("product_id", productID), zap.String("admin_id", shopper.UserID))
	w.WriteHeader(http.StatusNoContent)
}

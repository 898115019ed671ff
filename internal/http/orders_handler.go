package http

import (
	"context"
	"net/http"
	"time"

	"github.com/chouseangly/my-app/internal/domain"
	"go.uber.org/zap"
)

type OrderHistory interface {
	History(ctx context.Context, token, userID string) ([]domain.Transaction, error)
}

type OrdersHandler struct {
	orders  OrderHistory
	timeout time.Duration
	log     *zap.Logger
}

func NewOrdersHandler(orders OrderHistory, timeout time.Duration, log *zap.Logger) *OrdersHandler {
	return &OrdersHandler{orders: orders, timeout: timeout, log: log}
}

type OrdersResponse struct {
	Orders []TransactionResponse `json:"orders"`
}

// History lists the shopper's orders, newest first.
func (h *OrdersHandler) History(w http.ResponseWriter, r *http.Request) {
	shopper, ok := shopperFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	txs, err := h.orders.History(ctx, shopper.Token, shopper.UserID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	out := make([]TransactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionResponse(t))
	}
	respondJSON(w, http.StatusOK, &OrdersResponse{Orders: out})
}

package http

import (
	"context"
	"net/http"
	"time"

	"github.com/chouseangly/my-app/internal/checkout"
	"github.com/chouseangly/my-app/internal/domain"
	"go.uber.org/zap"
)

type Orchestrator interface {
	Begin(ctx context.Context, shopper domain.Shopper, idempotencyKey string) (*checkout.Session, error)
	Get(ctx context.Context, ownerID string) (*checkout.Session, error)
	SetAddress(ctx context.Context, ownerID string, a domain.DeliveryAddress) (*checkout.Session, error)
	SelectPayment(ctx context.Context, ownerID, method string) (*checkout.Session, error)
	ApplyPromotion(ctx context.Context, ownerID, code string) (*checkout.Session, error)
	ClearPromotion(ctx context.Context, ownerID string) (*checkout.Session, error)
	RequestCheckout(ctx context.Context, ownerID string) (*checkout.Session, error)
	Confirm(ctx context.Context, ownerID string) (*checkout.Session, error)
	CancelConfirmation(ctx context.Context, ownerID string) (*checkout.Session, error)
}

type CheckoutHandler struct {
	orchestrator Orchestrator
	timeout      time.Duration
	log          *zap.Logger
}

func NewCheckoutHandler(o Orchestrator, timeout time.Duration, log *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{orchestrator: o, timeout: timeout, log: log}
}

type BeginCheckoutRequestDTO struct {
	IdempotencyKey string `json:"idempotency_key"`
}

type AddressRequestDTO struct {
	Address     string `json:"address"`
	PhoneNumber string `json:"phone_number"`
}

type PaymentRequestDTO struct {
	PaymentMethod string `json:"payment_method"`
}

type PromotionRequestDTO struct {
	Code string `json:"code"`
}

// Begin opens the checkout. The idempotency key comes from the
// Idempotency-Key header, or the optional JSON body.
func (h *CheckoutHandler) Begin(w http.ResponseWriter, r *http.Request) {
	shopper, ok := shopperFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	key := r.Header.Get("Idempotency-Key")
	if key == "" && r.ContentLength > 0 {
		var req BeginCheckoutRequestDTO
		if !decodeJSON(w, r, &req) {
			return
		}
		key = req.IdempotencyKey
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()
	s, err := h.orchestrator.Begin(ctx, shopper, key)
	h.respond(w, r, http.StatusCreated, s, err)
}

func (h *CheckoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.call(w, r, func(ctx context.Context, ownerID string) (*checkout.Session, error) {
		return h.orchestrator.Get(ctx, ownerID)
	})
}

func (h *CheckoutHandler) SetAddress(w http.ResponseWriter, r *http.Request) {
	var req AddressRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	h.call(w, r, func(ctx context.Context, ownerID string) (*checkout.Session, error) {
		return h.orchestrator.SetAddress(ctx, ownerID, domain.DeliveryAddress{
			Address:     req.Address,
			PhoneNumber: req.PhoneNumber,
		})
	})
}

func (h *CheckoutHandler) SelectPayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	h.call(w, r, func(ctx context.Context, ownerID string) (*checkout.Session, error) {
		return h.orchestrator.SelectPayment(ctx, ownerID, req.PaymentMethod)
	})
}

func (h *CheckoutHandler) ApplyPromotion(w http.ResponseWriter, r *http.Request) {
	var req PromotionRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	h.call(w, r, func(ctx context.Context, ownerID string) (*checkout.Session, error) {
		return h.orchestrator.ApplyPromotion(ctx, ownerID, req.Code)
	})
}

func (h *CheckoutHandler) ClearPromotion(w http.ResponseWriter, r *http.Request) {
	h.call(w, r, func(ctx context.Context, ownerID string) (*checkout.Session, error) {
		return h.orchestrator.ClearPromotion(ctx, ownerID)
	})
}

func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.call(w, r, func(ctx context.Context, ownerID string) (*checkout.Session, error) {
		return h.orchestrator.RequestCheckout(ctx, ownerID)
	})
}

func (h *CheckoutHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.call(w, r, func(ctx context.Context, ownerID string) (*checkout.Session, error) {
		return h.orchestrator.Confirm(ctx, ownerID)
	})
}

func (h *CheckoutHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.call(w, r, func(ctx context.Context, ownerID string) (*checkout.Session, error) {
		return h.orchestrator.CancelConfirmation(ctx, ownerID)
	})
}

func (h *CheckoutHandler) call(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, ownerID string) (*checkout.Session, error)) {
	shopper, ok := shopperFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	s, err := fn(ctx, shopper.UserID)
	h.respond(w, r, http.StatusOK, s, err)
}

func (h *CheckoutHandler) respond(w http.ResponseWriter, r *http.Request, status int, s *checkout.Session, err error) {
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondJSON(w, status, toCheckoutResponse(s))
}

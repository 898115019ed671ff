package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/chouseangly/my-app/internal/domain"
	"github.com/chouseangly/my-app/internal/pricing"
	"github.com/chouseangly/my-app/internal/remote"
	"go.uber.org/zap"
)

// RequestCheckout validates the checkout and prices the order. Immediate
// payment methods are submitted right away; scan-to-pay methods wait in
// CONFIRMING until Confirm or CancelConfirmation. Validation failures leave
// the session in EDITING and send nothing.
func (o *Orchestrator) RequestCheckout(ctx context.Context, ownerID string) (*Session, error) {
	s, err := o.session(ownerID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if err := s.editable(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if err := validateDelivery(s.address); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	discount := s.promotion.Discount
	s.mu.Unlock()

	lines, totals, err := o.price(ctx, ownerID, discount)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, domain.NewValidationError("cart", ErrEmptyCart.Error())
	}

	s.mu.Lock()
	// the session may have moved on while the cart was being priced
	if err := s.editable(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.pending = &pendingOrder{
		request: buildOrderRequest(s, lines, totals),
		lines:   lines,
		totals:  totals,
	}
	s.lastError = ""

	if !s.payment.IsImmediate() {
		if err := s.transition(domain.CheckoutStatusConfirming); err != nil {
			s.mu.Unlock()
			return nil, err
		}
		o.recordStatus(s)
		v := s.view(lines, totals)
		s.mu.Unlock()
		return v, nil
	}
	return o.submit(ctx, s)
}

// Confirm submits an order waiting in CONFIRMING.
func (o *Orchestrator) Confirm(ctx context.Context, ownerID string) (*Session, error) {
	s, err := o.session(ownerID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.status != domain.CheckoutStatusConfirming {
		defer s.mu.Unlock()
		if s.status == domain.CheckoutStatusSubmitting {
			return nil, ErrSubmissionInProgress
		}
		return nil, fmt.Errorf("%w: nothing to confirm in status %s", ErrIllegalTransition, s.status)
	}
	return o.submit(ctx, s)
}

// CancelConfirmation returns a CONFIRMING checkout to EDITING.
func (o *Orchestrator) CancelConfirmation(ctx context.Context, ownerID string) (*Session, error) {
	s, err := o.session(ownerID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.status != domain.CheckoutStatusConfirming {
		defer s.mu.Unlock()
		if s.status == domain.CheckoutStatusSubmitting {
			return nil, ErrSubmissionInProgress
		}
		return nil, fmt.Errorf("%w: nothing to cancel in status %s", ErrIllegalTransition, s.status)
	}
	_ = s.transition(domain.CheckoutStatusEditing)
	s.pending = nil
	o.recordStatus(s)
	s.mu.Unlock()

	return o.Get(ctx, ownerID)
}

// submit sends s.pending. It is entered with s.mu held and releases it for
// the duration of the network call; the SUBMITTING status keeps every other
// operation out meanwhile.
func (o *Orchestrator) submit(ctx context.Context, s *session) (*Session, error) {
	if err := s.transition(domain.CheckoutStatusSubmitting); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	o.recordStatus(s)
	pending := s.pending
	token := s.shopper.Token
	ownerID := s.shopper.UserID
	log := o.log.With(zap.String("checkout_id", s.id), zap.String("owner_id", ownerID))
	s.mu.Unlock()

	log.Info("submitting order",
		zap.String("payment_method", string(pending.request.PaymentMethod)),
		zap.Int("items", len(pending.request.Items)),
		zap.String("amount_to_pay", pending.totals.AmountToPay.StringFixed(2)))
	placeErr := o.orders.Place(ctx, token, pending.request)

	if placeErr == nil {
		// the order exists remotely, so a failed cart clear is not a checkout failure
		if err := o.cart.Clear(ctx, ownerID); err != nil {
			log.Error("clear cart after order failed", zap.Error(err))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if placeErr != nil {
		log.Warn("order submission failed", zap.Error(placeErr))
		s.lastError = remote.Message(placeErr)
		_ = s.transition(domain.CheckoutStatusFailed)
		o.recordStatus(s)
		_ = s.transition(domain.CheckoutStatusEditing)
		s.pending = nil
		o.recordStatus(s)
		return nil, fmt.Errorf("submit order: %w", placeErr)
	}

	_ = s.transition(domain.CheckoutStatusSucceeded)
	s.lastError = ""
	o.recordComplete(s, pending)
	log.Info("order placed")
	return s.view(pending.lines, pending.totals), nil
}

func validateDelivery(a domain.DeliveryAddress) error {
	if strings.TrimSpace(a.Address) == "" {
		return domain.NewValidationError("address", "delivery address is required")
	}
	if strings.TrimSpace(a.PhoneNumber) == "" {
		return domain.NewValidationError("phone_number", "phone number is required")
	}
	return nil
}

func buildOrderRequest(s *session, lines []pricing.PricedLine, totals domain.OrderTotals) domain.OrderRequest {
	items := make([]domain.OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, domain.OrderItem{ProductID: l.Product.ID, Quantity: l.Line.Quantity})
	}
	return domain.OrderRequest{
		UserID:          s.shopper.UserID,
		ShippingAddress: shippingAddress(s.recipient, s.address),
		PaymentMethod:   s.payment,
		Items:           items,
		DiscountApplied: totals.GiftDiscount.InexactFloat64(),
		PromotionCode:   s.promotion.Code,
		DiscountToken:   s.promotion.Token,
	}
}

package checkout

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chouseangly/my-app/internal/domain"
	"github.com/chouseangly/my-app/internal/pricing"
)

// SuccessRedirect is where the shopper lands after a placed order.
const SuccessRedirect = "/profile"

// Session is a read-only view of a shopper's checkout.
type Session struct {
	ID             string
	IdempotencyKey string
	OwnerID        string
	Status         domain.CheckoutStatus
	Address        domain.DeliveryAddress
	PaymentMethod  domain.PaymentMethod
	Promotion      domain.Promotion
	Lines          []pricing.PricedLine
	Totals         domain.OrderTotals
	LastError      string
	Redirect       string
	UpdatedAt      time.Time
}

// pendingOrder is the priced order awaiting submission.
type pendingOrder struct {
	request domain.OrderRequest
	lines   []pricing.PricedLine
	totals  domain.OrderTotals
}

type session struct {
	mu sync.Mutex

	id             string
	idempotencyKey string
	shopper        domain.Shopper
	recipient      string
	status         domain.CheckoutStatus
	address        domain.DeliveryAddress
	payment        domain.PaymentMethod
	promotion      domain.Promotion
	pending        *pendingOrder
	lastError      string
	updatedAt      time.Time
}

// transition moves the session to next, refusing anything the status
// machine does not allow.
func (s *session) transition(next domain.CheckoutStatus) error {
	if s.status == domain.CheckoutStatusSubmitting && next != domain.CheckoutStatusSucceeded && next != domain.CheckoutStatusFailed {
		return ErrSubmissionInProgress
	}
	if !domain.CanTransitionTo(s.status, next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, s.status, next)
	}
	s.status = next
	s.updatedAt = time.Now().UTC()
	return nil
}

// inFlight reports whether the session holds an order that a new session
// must not replace.
func (s *session) inFlight() error {
	switch s.status {
	case domain.CheckoutStatusSubmitting:
		return ErrSubmissionInProgress
	case domain.CheckoutStatusConfirming:
		return fmt.Errorf("%w: order awaiting payment confirmation", ErrIllegalTransition)
	}
	return nil
}

// editable reports whether address, payment or promotion may change.
func (s *session) editable() error {
	switch s.status {
	case domain.CheckoutStatusEditing:
		return nil
	case domain.CheckoutStatusSubmitting:
		return ErrSubmissionInProgress
	default:
		return fmt.Errorf("%w: cannot edit checkout in status %s", ErrIllegalTransition, s.status)
	}
}

func (s *session) view(lines []pricing.PricedLine, totals domain.OrderTotals) *Session {
	v := &Session{
		ID:             s.id,
		IdempotencyKey: s.idempotencyKey,
		OwnerID:        s.shopper.UserID,
		Status:         s.status,
		Address:        s.address,
		PaymentMethod:  s.payment,
		Promotion:      s.promotion,
		Lines:          lines,
		Totals:         totals,
		LastError:      s.lastError,
		UpdatedAt:      s.updatedAt,
	}
	if s.status == domain.CheckoutStatusSucceeded {
		v.Redirect = SuccessRedirect
	}
	return v
}

// shippingAddress formats the single-line address the transaction service
// stores: "<name>, <address>, <phone>".
func shippingAddress(name string, a domain.DeliveryAddress) string {
	return fmt.Sprintf("%s, %s, %s", strings.TrimSpace(name), strings.TrimSpace(a.Address), strings.TrimSpace(a.PhoneNumber))
}

func recipientName(p *domain.Profile, shopper domain.Shopper) string {
	if p != nil {
		if name := strings.TrimSpace(p.FirstName + " " + p.LastName); name != "" {
			return name
		}
	}
	return shopper.Name
}

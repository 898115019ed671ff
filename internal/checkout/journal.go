package checkout

import (
	"context"
	"encoding/json"
	"time"

	"github.com/chouseangly/my-app/internal/checkout/journal"
	"github.com/chouseangly/my-app/internal/domain"
	"go.uber.org/zap"
)

// Journal persists sessions and their transitions. Implemented by
// *journal.Repository.
type Journal interface {
	CreateSession(ctx context.Context, s *journal.Session) error
	GetSessionByIdempotencyKey(ctx context.Context, key string) (*journal.Session, error)
	UpdateSessionStatus(ctx context.Context, id string, status domain.CheckoutStatus, lastError string) error
	CompleteSession(ctx context.Context, id string, snapshot []byte, totalAmount string, payload []byte) error
}

type nopJournal struct{}

func (nopJournal) CreateSession(context.Context, *journal.Session) error { return nil }
func (nopJournal) GetSessionByIdempotencyKey(context.Context, string) (*journal.Session, error) {
	return nil, journal.ErrIdempotencyKeyNotFound
}
func (nopJournal) UpdateSessionStatus(context.Context, string, domain.CheckoutStatus, string) error {
	return nil
}
func (nopJournal) CompleteSession(context.Context, string, []byte, string, []byte) error { return nil }

type orderSnapshot struct {
	Items         []domain.OrderItem   `json:"items"`
	Totals        domain.OrderTotals   `json:"totals"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
	PromotionCode string               `json:"promotion_code,omitempty"`
}

type orderPlacedEvent struct {
	CheckoutID    string               `json:"checkout_id"`
	UserID        string               `json:"user_id"`
	Items         []domain.OrderItem   `json:"items"`
	TotalAmount   string               `json:"total_amount"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
	PromotionCode string               `json:"promotion_code,omitempty"`
	CompletedAt   time.Time            `json:"completed_at"`
}

// The record* helpers write on a detached, bounded context and only log
// failures. A journal outage never fails a checkout.

func (o *Orchestrator) recordCreate(s *session) {
	ctx, cancel := o.journalContext()
	defer cancel()
	err := o.journal.CreateSession(ctx, &journal.Session{
		ID:             s.id,
		UserID:         s.shopper.UserID,
		IdempotencyKey: s.idempotencyKey,
		PaymentMethod:  s.payment,
	})
	if err != nil {
		o.log.Warn("journal create session failed", zap.String("checkout_id", s.id), zap.Error(err))
	}
}

func (o *Orchestrator) recordStatus(s *session) {
	ctx, cancel := o.journalContext()
	defer cancel()
	if err := o.journal.UpdateSessionStatus(ctx, s.id, s.status, s.lastError); err != nil {
		o.log.Warn("journal update status failed",
			zap.String("checkout_id", s.id), zap.Stringer("status", s.status), zap.Error(err))
	}
}

func (o *Orchestrator) recordComplete(s *session, p *pendingOrder) {
	snapshot, err := json.Marshal(orderSnapshot{
		Items:         p.request.Items,
		Totals:        p.totals,
		PaymentMethod: p.request.PaymentMethod,
		PromotionCode: p.request.PromotionCode,
	})
	if err != nil {
		o.log.Warn("marshal checkout snapshot failed", zap.String("checkout_id", s.id), zap.Error(err))
		return
	}
	total := p.totals.AmountToPay.StringFixed(2)
	payload, err := json.Marshal(orderPlacedEvent{
		CheckoutID:    s.id,
		UserID:        s.shopper.UserID,
		Items:         p.request.Items,
		TotalAmount:   total,
		PaymentMethod: p.request.PaymentMethod,
		PromotionCode: p.request.PromotionCode,
		CompletedAt:   time.Now().UTC(),
	})
	if err != nil {
		o.log.Warn("marshal order placed event failed", zap.String("checkout_id", s.id), zap.Error(err))
		return
	}

	ctx, cancel := o.journalContext()
	defer cancel()
	if err := o.journal.CompleteSession(ctx, s.id, snapshot, total, payload); err != nil {
		o.log.Warn("journal complete session failed", zap.String("checkout_id", s.id), zap.Error(err))
	}
}

func (o *Orchestrator) journalContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// Package checkout sequences a shopper's checkout: address and payment
// selection, promotion, validation, confirmation and order submission.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chouseangly/my-app/internal/checkout/journal"
	"github.com/chouseangly/my-app/internal/domain"
	"github.com/chouseangly/my-app/internal/pricing"
	"github.com/chouseangly/my-app/internal/promotion"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CartStore interface {
	Cart(ctx context.Context, ownerID string) (*domain.Cart, error)
	Clear(ctx context.Context, ownerID string) error
}

type CatalogIndex interface {
	Index(ctx context.Context) (pricing.Catalog, error)
}

type ProfileSource interface {
	Get(ctx context.Context, token, userID string) (*domain.Profile, error)
}

type OrderPlacer interface {
	Place(ctx context.Context, token string, order domain.OrderRequest) error
}

type Deps struct {
	Cart        CartStore
	Catalog     CatalogIndex
	Profiles    ProfileSource
	Orders      OrderPlacer
	Promotions  promotion.Resolver
	Journal     Journal // optional
	DeliveryFee decimal.Decimal
	Logger      *zap.Logger
}

// Orchestrator holds one checkout session per shopper.
type Orchestrator struct {
	cart        CartStore
	catalog     CatalogIndex
	profiles    ProfileSource
	orders      OrderPlacer
	promotions  promotion.Resolver
	journal     Journal
	deliveryFee decimal.Decimal
	log         *zap.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

func NewOrchestrator(d Deps) *Orchestrator {
	o := &Orchestrator{
		cart:        d.Cart,
		catalog:     d.Catalog,
		profiles:    d.Profiles,
		orders:      d.Orders,
		promotions:  d.Promotions,
		journal:     d.Journal,
		deliveryFee: d.DeliveryFee,
		log:         d.Logger,
		sessions:    make(map[string]*session),
	}
	if o.journal == nil {
		o.journal = nopJournal{}
	}
	if o.promotions == nil {
		o.promotions = promotion.Placeholder{}
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	return o
}

// Begin opens a checkout for shopper or returns the one already open. A
// finished checkout is replaced by a new one. When idempotencyKey names a
// checkout the journal already recorded as succeeded, that outcome is
// returned and nothing new is opened.
func (o *Orchestrator) Begin(ctx context.Context, shopper domain.Shopper, idempotencyKey string) (*Session, error) {
	idempotencyKey = strings.TrimSpace(idempotencyKey)

	o.mu.Lock()
	existing := o.sessions[shopper.UserID]
	o.mu.Unlock()

	if existing != nil {
		existing.mu.Lock()
		reuse := existing.status != domain.CheckoutStatusSucceeded &&
			(idempotencyKey == "" || idempotencyKey == existing.idempotencyKey)
		var busy error
		if reuse {
			existing.shopper.Token = shopper.Token
		} else {
			busy = existing.inFlight()
		}
		existing.mu.Unlock()
		if reuse {
			return o.Get(ctx, shopper.UserID)
		}
		if busy != nil {
			return nil, busy
		}
	}

	s := &session{
		id:             uuid.NewString(),
		idempotencyKey: idempotencyKey,
		shopper:        shopper,
		status:         domain.CheckoutStatusEditing,
		payment:        domain.DefaultPaymentMethod,
		updatedAt:      time.Now().UTC(),
	}
	if s.idempotencyKey == "" {
		s.idempotencyKey = uuid.NewString()
	}

	recorded := false
	if idempotencyKey != "" {
		prior, err := o.journal.GetSessionByIdempotencyKey(ctx, idempotencyKey)
		switch {
		case err == nil && prior.UserID != shopper.UserID:
			return nil, domain.NewValidationError("idempotency_key", "idempotency key belongs to another checkout")
		case err == nil:
			o.log.Info("resuming journaled checkout",
				zap.String("idempotency_key", idempotencyKey),
				zap.String("checkout_id", prior.ID),
				zap.Stringer("status", prior.Status))
			s.id = prior.ID
			if prior.PaymentMethod != "" {
				s.payment = prior.PaymentMethod
			}
			if prior.Status == domain.CheckoutStatusSucceeded {
				s.status = domain.CheckoutStatusSucceeded
			}
			recorded = true
		case !errors.Is(err, journal.ErrIdempotencyKeyNotFound):
			o.log.Warn("journal idempotency lookup failed", zap.String("idempotency_key", idempotencyKey), zap.Error(err))
		}
	}

	p, err := o.profiles.Get(ctx, shopper.Token, shopper.UserID)
	if err != nil {
		o.log.Info("no profile for delivery address defaults", zap.String("owner_id", shopper.UserID), zap.Error(err))
		p = nil
	}
	if p != nil {
		s.address = domain.DeliveryAddress{Address: p.Address, PhoneNumber: p.PhoneNumber}
	}
	s.recipient = recipientName(p, shopper)

	if err := o.install(shopper.UserID, s); err != nil {
		return nil, err
	}
	if !recorded {
		o.recordCreate(s)
	}

	if s.status == domain.CheckoutStatusSucceeded {
		return s.view(nil, domain.OrderTotals{}), nil
	}
	return o.Get(ctx, shopper.UserID)
}

// install makes s the owner's session unless the current one has an order
// awaiting confirmation or in flight.
func (o *Orchestrator) install(ownerID string, s *session) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if cur := o.sessions[ownerID]; cur != nil {
		cur.mu.Lock()
		err := cur.inFlight()
		cur.mu.Unlock()
		if err != nil {
			return err
		}
	}
	o.sessions[ownerID] = s
	return nil
}

// Get returns the shopper's checkout with freshly derived totals. While an
// order is pending confirmation or being submitted, the pending figures are
// shown instead.
func (o *Orchestrator) Get(ctx context.Context, ownerID string) (*Session, error) {
	s, err := o.session(ownerID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.pending != nil && s.status != domain.CheckoutStatusEditing {
		v := s.view(s.pending.lines, s.pending.totals)
		s.mu.Unlock()
		return v, nil
	}
	discount := s.promotion.Discount
	s.mu.Unlock()

	lines, totals, err := o.price(ctx, ownerID, discount)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view(lines, totals), nil
}

func (o *Orchestrator) SetAddress(ctx context.Context, ownerID string, a domain.DeliveryAddress) (*Session, error) {
	err := o.edit(ownerID, func(s *session) error {
		s.address = domain.DeliveryAddress{
			Address:     strings.TrimSpace(a.Address),
			PhoneNumber: strings.TrimSpace(a.PhoneNumber),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return o.Get(ctx, ownerID)
}

func (o *Orchestrator) SelectPayment(ctx context.Context, ownerID, method string) (*Session, error) {
	m, ok := domain.ParsePaymentMethod(method)
	if !ok {
		return nil, domain.NewValidationError("payment_method", fmt.Sprintf("unknown payment method %q", method))
	}
	if err := o.edit(ownerID, func(s *session) error {
		s.payment = m
		return nil
	}); err != nil {
		return nil, err
	}
	return o.Get(ctx, ownerID)
}

// ApplyPromotion resolves code against the current subtotal. An invalid code
// clears any earlier promotion and returns domain.ErrInvalidPromotion.
func (o *Orchestrator) ApplyPromotion(ctx context.Context, ownerID, code string) (*Session, error) {
	if strings.TrimSpace(code) == "" {
		return nil, domain.NewValidationError("code", "promotion code is required")
	}
	s, err := o.session(ownerID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	err = s.editable()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	_, totals, err := o.price(ctx, ownerID, decimal.Zero)
	if err != nil {
		return nil, err
	}

	promo, err := o.promotions.Resolve(ctx, code, totals.Subtotal)
	if err != nil && !errors.Is(err, domain.ErrInvalidPromotion) {
		return nil, fmt.Errorf("resolve promotion: %w", err)
	}

	if editErr := o.edit(ownerID, func(s *session) error {
		s.promotion = promo
		return nil
	}); editErr != nil {
		return nil, editErr
	}
	if err != nil {
		o.log.Info("promotion rejected", zap.String("owner_id", ownerID), zap.String("code", code))
		return nil, err
	}
	return o.Get(ctx, ownerID)
}

func (o *Orchestrator) ClearPromotion(ctx context.Context, ownerID string) (*Session, error) {
	if err := o.edit(ownerID, func(s *session) error {
		s.promotion = domain.Promotion{}
		return nil
	}); err != nil {
		return nil, err
	}
	return o.Get(ctx, ownerID)
}

func (o *Orchestrator) session(ownerID string) (*session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.sessions[ownerID]
	if !ok {
		return nil, ErrNoSession
	}
	return s, nil
}

func (o *Orchestrator) edit(ownerID string, apply func(*session) error) error {
	s, err := o.session(ownerID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	if err := apply(s); err != nil {
		return err
	}
	s.updatedAt = time.Now().UTC()
	return nil
}

// price joins the owner's cart with the catalog and derives totals.
func (o *Orchestrator) price(ctx context.Context, ownerID string, discount decimal.Decimal) ([]pricing.PricedLine, domain.OrderTotals, error) {
	cart, err := o.cart.Cart(ctx, ownerID)
	if err != nil {
		return nil, domain.OrderTotals{}, fmt.Errorf("load cart: %w", err)
	}
	if cart.IsEmpty() {
		return nil, pricing.ComputeTotals(nil, nil, o.deliveryFee, discount), nil
	}
	catalog, err := o.catalog.Index(ctx)
	if err != nil {
		return nil, domain.OrderTotals{}, fmt.Errorf("load catalog: %w", err)
	}
	return pricing.Join(cart.Lines, catalog), pricing.ComputeTotals(cart.Lines, catalog, o.deliveryFee, discount), nil
}

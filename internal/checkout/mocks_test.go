package checkout

import (
	"context"
	"sync"

	"github.com/chouseangly/my-app/internal/checkout/journal"
	"github.com/chouseangly/my-app/internal/domain"
	"github.com/chouseangly/my-app/internal/pricing"
	"github.com/chouseangly/my-app/internal/profile"
	"github.com/shopspring/decimal"
)

type mockCart struct {
	m      sync.Mutex
	lines  map[string][]domain.CartLine
	clears int
	err    error
}

func newMockCart() *mockCart {
	return &mockCart{lines: make(map[string][]domain.CartLine)}
}

func (m *mockCart) put(owner string, lines ...domain.CartLine) {
	m.m.Lock()
	defer m.m.Unlock()
	m.lines[owner] = lines
}

func (m *mockCart) Cart(_ context.Context, owner string) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Cart{OwnerID: owner, Lines: append([]domain.CartLine(nil), m.lines[owner]...)}, nil
}

func (m *mockCart) Clear(_ context.Context, owner string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.clears++
	delete(m.lines, owner)
	return nil
}

func (m *mockCart) clearCount() int {
	m.m.Lock()
	defer m.m.Unlock()
	return m.clears
}

type mockCatalog struct {
	catalog pricing.Catalog
	err     error
	calls   int
}

func (m *mockCatalog) Index(context.Context) (pricing.Catalog, error) {
	m.calls++
	return m.catalog, m.err
}

type mockProfiles struct {
	profile *domain.Profile
}

func (m *mockProfiles) Get(context.Context, string, string) (*domain.Profile, error) {
	if m.profile == nil {
		return nil, profile.ErrProfileNotFound
	}
	return m.profile, nil
}

// mockOrders records submissions. When release is set, Place blocks until it
// is closed so tests can observe the SUBMITTING state.
type mockOrders struct {
	m       sync.Mutex
	placed  []domain.OrderRequest
	tokens  []string
	err     error
	entered chan struct{}
	release chan struct{}
}

func (m *mockOrders) Place(_ context.Context, token string, order domain.OrderRequest) error {
	if m.entered != nil {
		m.entered <- struct{}{}
	}
	if m.release != nil {
		<-m.release
	}
	m.m.Lock()
	defer m.m.Unlock()
	m.placed = append(m.placed, order)
	m.tokens = append(m.tokens, token)
	return m.err
}

func (m *mockOrders) count() int {
	m.m.Lock()
	defer m.m.Unlock()
	return len(m.placed)
}

type journalCall struct {
	id        string
	status    domain.CheckoutStatus
	lastError string
}

type mockJournal struct {
	m         sync.Mutex
	created   []*journal.Session
	updates   []journalCall
	completed []string
	payloads  [][]byte
	byKey     map[string]*journal.Session
	err       error
}

func (m *mockJournal) CreateSession(_ context.Context, s *journal.Session) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.created = append(m.created, s)
	return m.err
}

func (m *mockJournal) GetSessionByIdempotencyKey(_ context.Context, key string) (*journal.Session, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if s, ok := m.byKey[key]; ok {
		return s, nil
	}
	if m.err != nil {
		return nil, m.err
	}
	return nil, journal.ErrIdempotencyKeyNotFound
}

func (m *mockJournal) UpdateSessionStatus(_ context.Context, id string, status domain.CheckoutStatus, lastError string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.updates = append(m.updates, journalCall{id, status, lastError})
	return m.err
}

func (m *mockJournal) CompleteSession(_ context.Context, id string, _ []byte, _ string, payload []byte) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.completed = append(m.completed, id)
	m.payloads = append(m.payloads, payload)
	return m.err
}

func (m *mockJournal) statuses() []domain.CheckoutStatus {
	m.m.Lock()
	defer m.m.Unlock()
	out := make([]domain.CheckoutStatus, 0, len(m.updates))
	for _, u := range m.updates {
		out = append(out, u.status)
	}
	return out
}

func product(id, price, original string) domain.Product {
	p := domain.Product{ID: id, Name: "Product " + id, Price: decimal.RequireFromString(price)}
	if original != "" {
		op := decimal.RequireFromString(original)
		p.OriginalPrice = &op
	}
	return p
}

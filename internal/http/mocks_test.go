package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/chouseangly/my-app/internal/catalog"
	"github.com/chouseangly/my-app/internal/checkout"
	"github.com/chouseangly/my-app/internal/domain"
	"github.com/chouseangly/my-app/internal/pricing"
	"github.com/chouseangly/my-app/internal/profile"
	"github.com/chouseangly/my-app/internal/remote"
	"github.com/chouseangly/my-app/internal/search"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func withTestShopper(r *http.Request, userID string) *http.Request {
	return r.WithContext(withShopper(r.Context(), domain.Shopper{UserID: userID, Token: "tok-" + userID}))
}

func bearer(t *testing.T, userID, role string) string {
	t.Helper()
	token, err := NewAuthenticator(testSecret).GenerateToken(userID, "Dara", role, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func product(id, price string, original string) domain.Product {
	p := domain.Product{ID: id, Name: "Product " + id, Price: decimal.RequireFromString(price)}
	if original != "" {
		o := decimal.RequireFromString(original)
		p.OriginalPrice = &o
	}
	return p
}

type mockCatalog struct {
	products []domain.Product
	err      error

	mu      sync.Mutex
	filter  catalog.Filter
	deleted []string
	token   string
}

func (m *mockCatalog) Search(_ context.Context, f catalog.Filter) ([]domain.Product, error) {
	m.mu.Lock()
	m.filter = f
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.products, nil
}

func (m *mockCatalog) Index(context.Context) (pricing.Catalog, error) {
	if m.err != nil {
		return nil, m.err
	}
	idx := pricing.Catalog{}
	for _, p := range m.products {
		idx[p.ID] = p
	}
	return idx, nil
}

func (m *mockCatalog) Delete(_ context.Context, token, productID string) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.deleted = append(m.deleted, productID)
	return nil
}

type mockOrchestrator struct {
	session *checkout.Session
	err     error

	calls   []string
	shopper domain.Shopper
	key     string
	address domain.DeliveryAddress
	method  string
	code    string
}

func (m *mockOrchestrator) result(call string) (*checkout.Session, error) {
	m.calls = append(m.calls, call)
	if m.err != nil {
		return nil, m.err
	}
	return m.session, nil
}

func (m *mockOrchestrator) Begin(_ context.Context, shopper domain.Shopper, key string) (*checkout.Session, error) {
	m.shopper, m.key = shopper, key
	return m.result("begin")
}

func (m *mockOrchestrator) Get(context.Context, string) (*checkout.Session, error) {
	return m.result("get")
}

func (m *mockOrchestrator) SetAddress(_ context.Context, _ string, a domain.DeliveryAddress) (*checkout.Session, error) {
	m.address = a
	return m.result("address")
}

func (m *mockOrchestrator) SelectPayment(_ context.Context, _ string, method string) (*checkout.Session, error) {
	m.method = method
	return m.result("payment")
}

func (m *mockOrchestrator) ApplyPromotion(_ context.Context, _ string, code string) (*checkout.Session, error) {
	m.code = code
	return m.result("promotion")
}

func (m *mockOrchestrator) ClearPromotion(context.Context, string) (*checkout.Session, error) {
	return m.result("clear_promotion")
}

func (m *mockOrchestrator) RequestCheckout(context.Context, string) (*checkout.Session, error) {
	return m.result("submit")
}

func (m *mockOrchestrator) Confirm(context.Context, string) (*checkout.Session, error) {
	return m.result("confirm")
}

func (m *mockOrchestrator) CancelConfirmation(context.Context, string) (*checkout.Session, error) {
	return m.result("cancel")
}

type mockOrders struct {
	txs    []domain.Transaction
	err    error
	token  string
	userID string
}

func (m *mockOrders) History(_ context.Context, token, userID string) ([]domain.Transaction, error) {
	m.token, m.userID = token, userID
	return m.txs, m.err
}

type mockProfiles struct {
	profile *domain.Profile
	err     error

	update    profile.Update
	imageData string
	change    profile.PasswordChange
	sent      bool
}

func (m *mockProfiles) Get(context.Context, string, string) (*domain.Profile, error) {
	return m.profile, m.err
}

func (m *mockProfiles) Update(_ context.Context, _ string, u profile.Update) (*domain.Profile, error) {
	m.update = u
	if u.Image != nil {
		buf := make([]byte, 64)
		n, _ := u.Image.Read(buf)
		m.imageData = string(buf[:n])
	}
	return m.profile, m.err
}

func (m *mockProfiles) ChangePassword(_ context.Context, _ string, c profile.PasswordChange) error {
	if err := c.Validate(); err != nil {
		return err
	}
	m.change = c
	m.sent = true
	return m.err
}

type mockSearch struct {
	result search.Result
	typed  string
}

func (m *mockSearch) Type(_ string, query string) search.Result {
	m.typed = query
	return m.result
}

func (m *mockSearch) Results(string) search.Result { return m.result }

func errUnavailable() error {
	return fmt.Errorf("get products: %w", remote.ErrUnavailable)
}

package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/chouseangly/my-app/internal/checkout/journal"
	"github.com/chouseangly/my-app/internal/domain"
	"github.com/chouseangly/my-app/internal/pricing"
	"github.com/chouseangly/my-app/internal/remote"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	cart     *mockCart
	catalog  *mockCatalog
	profiles *mockProfiles
	orders   *mockOrders
	journal  *mockJournal
	sut      *Orchestrator
}

var shopper = domain.Shopper{UserID: "u1", Name: "jdoe", Token: "tok"}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		cart: newMockCart(),
		catalog: &mockCatalog{catalog: pricing.NewCatalog([]domain.Product{
			product("A", "10.00", "12.00"),
			product("B", "5.00", ""),
		})},
		profiles: &mockProfiles{profile: &domain.Profile{
			UserID: "u1", FirstName: "Jane", LastName: "Doe", Address: "Street 1", PhoneNumber: "012345",
		}},
		orders:  &mockOrders{},
		journal: &mockJournal{byKey: map[string]*journal.Session{}},
	}
	f.cart.put("u1",
		domain.CartLine{CartItemID: "l1", ProductID: "A", Quantity: 2},
		domain.CartLine{CartItemID: "l2", ProductID: "B", Quantity: 1},
	)
	f.sut = NewOrchestrator(Deps{
		Cart:        f.cart,
		Catalog:     f.catalog,
		Profiles:    f.profiles,
		Orders:      f.orders,
		Journal:     f.journal,
		DeliveryFee: pricing.DefaultDeliveryFee,
	})
	return f
}

func requireDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(expected).Equal(actual), "expected %s, got %s", expected, actual)
}

func TestBegin_DefaultsFromProfile(t *testing.T) {
	f := newFixture(t)

	s, err := f.sut.Begin(context.Background(), shopper, "")
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutStatusEditing, s.Status)
	assert.Equal(t, domain.DeliveryAddress{Address: "Street 1", PhoneNumber: "012345"}, s.Address)
	assert.Equal(t, domain.PaymentABAPay, s.PaymentMethod)
	assert.NotEmpty(t, s.IdempotencyKey)
	assert.Len(t, s.Lines, 2)
	requireDecimal(t, "25", s.Totals.Subtotal)
	requireDecimal(t, "4", s.Totals.TotalSave)
	requireDecimal(t, "26", s.Totals.AmountToPay)

	require.Len(t, f.journal.created, 1)
	assert.Equal(t, s.ID, f.journal.created[0].ID)
}

func TestBegin_WithoutProfile(t *testing.T) {
	f := newFixture(t)
	f.profiles.profile = nil

	s, err := f.sut.Begin(context.Background(), shopper, "")
	require.NoError(t, err)
	assert.Empty(t, s.Address.Address)
	assert.Empty(t, s.Address.PhoneNumber)
}

func TestBegin_ReturnsOpenSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.sut.Begin(ctx, shopper, "")
	require.NoError(t, err)
	_, err = f.sut.SetAddress(ctx, "u1", domain.DeliveryAddress{Address: "Other", PhoneNumber: "099"})
	require.NoError(t, err)

	second, err := f.sut.Begin(ctx, shopper, "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Other", second.Address.Address)
}

func TestBegin_JournaledSuccessIsReturnedWithoutNewSession(t *testing.T) {
	f := newFixture(t)
	f.journal.byKey["key-1"] = &journal.Session{
		ID: "prior", UserID: "u1", IdempotencyKey: "key-1", Status: domain.CheckoutStatusSucceeded,
	}

	s, err := f.sut.Begin(context.Background(), shopper, "key-1")
	require.NoError(t, err)
	assert.Equal(t, "prior", s.ID)
	assert.Equal(t, domain.CheckoutStatusSucceeded, s.Status)
	assert.Equal(t, SuccessRedirect, s.Redirect)
	assert.Empty(t, f.journal.created)

	_, err = f.sut.RequestCheckout(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, 0, f.orders.count())
}

func TestBegin_IdempotencyKeyOfAnotherShopper(t *testing.T) {
	f := newFixture(t)
	f.journal.byKey["key-1"] = &journal.Session{ID: "prior", UserID: "someone-else", IdempotencyKey: "key-1"}

	_, err := f.sut.Begin(context.Background(), shopper, "key-1")
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestNoSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.sut.Get(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = f.sut.RequestCheckout(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSelectPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.sut.Begin(ctx, shopper, "")
	require.NoError(t, err)

	s, err := f.sut.SelectPayment(ctx, "u1", "cash on delivery")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentCashOnDelivery, s.PaymentMethod)

	_, err = f.sut.SelectPayment(ctx, "u1", "bitcoin")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "payment_method", verr.Field)
}

func TestApplyPromotion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.sut.Begin(ctx, shopper, "")
	require.NoError(t, err)

	s, err := f.sut.ApplyPromotion(ctx, "u1", " gift20 ")
	require.NoError(t, err)
	assert.Equal(t, "GIFT20", s.Promotion.Code)
	requireDecimal(t, "5", s.Totals.GiftDiscount)
	requireDecimal(t, "21", s.Totals.AmountToPay)

	_, err = f.sut.ApplyPromotion(ctx, "u1", "NOPE")
	assert.ErrorIs(t, err, domain.ErrInvalidPromotion)

	s, err = f.sut.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, s.Promotion.IsZero())
	requireDecimal(t, "0", s.Totals.GiftDiscount)
	requireDecimal(t, "26", s.Totals.AmountToPay)
}

func TestClearPromotion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.sut.Begin(ctx, shopper, "")
	require.NoError(t, err)
	_, err = f.sut.ApplyPromotion(ctx, "u1", "GIFT20")
	require.NoError(t, err)

	s, err := f.sut.ClearPromotion(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, s.Promotion.IsZero())
	requireDecimal(t, "26", s.Totals.AmountToPay)
}

func TestRequestCheckout_ValidationSendsNothing(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(f *fixture)
		field   string
	}{
		{
			name:    "missing address",
			prepare: func(f *fixture) { f.profiles.profile.Address = "" },
			field:   "address",
		},
		{
			name:    "missing phone",
			prepare: func(f *fixture) { f.profiles.profile.PhoneNumber = " " },
			field:   "phone_number",
		},
		{
			name:    "empty cart",
			prepare: func(f *fixture) { f.cart.put("u1") },
			field:   "cart",
		},
		{
			name: "only unknown products",
			prepare: func(f *fixture) {
				f.cart.put("u1", domain.CartLine{CartItemID: "l9", ProductID: "gone", Quantity: 1})
			},
			field: "cart",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.prepare(f)
			ctx := context.Background()
			_, err := f.sut.Begin(ctx, shopper, "")
			require.NoError(t, err)
			_, err = f.sut.SelectPayment(ctx, "u1", string(domain.PaymentCashOnDelivery))
			require.NoError(t, err)

			_, err = f.sut.RequestCheckout(ctx, "u1")
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, 0, f.orders.count())

			s, err := f.sut.Get(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, domain.CheckoutStatusEditing, s.Status)
		})
	}
}

func TestRequestCheckout_ImmediateMethodSubmits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.sut.Begin(ctx, shopper, "")
	require.NoError(t, err)
	_, err = f.sut.SelectPayment(ctx, "u1", string(domain.PaymentCashOnDelivery))
	require.NoError(t, err)
	_, err = f.sut.ApplyPromotion(ctx, "u1", "GIFT20")
	require.NoError(t, err)

	s, err := f.sut.RequestCheckout(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutStatusSucceeded, s.Status)
	assert.Equal(t, SuccessRedirect, s.Redirect)
	requireDecimal(t, "21", s.Totals.AmountToPay)

	require.Equal(t, 1, f.orders.count())
	order := f.orders.placed[0]
	assert.Equal(t, "tok", f.orders.tokens[0])
	assert.Equal(t, domain.OrderRequest{
		UserID:          "u1",
		ShippingAddress: "Jane Doe, Street 1, 012345",
		PaymentMethod:   domain.PaymentCashOnDelivery,
		Items: []domain.OrderItem{
			{ProductID: "A", Quantity: 2},
			{ProductID: "B", Quantity: 1},
		},
		DiscountApplied: 5,
		PromotionCode:   "GIFT20",
	}, order)

	assert.Equal(t, 1, f.cart.clearCount())
	assert.Equal(t, []domain.CheckoutStatus{domain.CheckoutStatusSubmitting}, f.journal.statuses())
	require.Equal(t, []string{s.ID}, f.journal.completed)

	var event map[string]any
	require.NoError(t, json.Unmarshal(f.journal.payloads[0], &event))
	assert.Equal(t, s.ID, event["checkout_id"])
	assert.Equal(t, "21.00", event["total_amount"])
}

func TestRequestCheckout_DropsLinesWithoutProduct(t *testing.T) {
	f := newFixture(t)
	f.cart.put("u1",
		domain.CartLine{CartItemID: "l1", ProductID: "A", Quantity: 1},
		domain.CartLine{CartItemID: "l9", ProductID: "gone", Quantity: 4},
	)
	ctx := context.Background()
	_, err := f.sut.Begin(ctx, shopper, "")
	require.NoError(t, err)
	_, err = f.sut.SelectPayment(ctx, "u1", string(domain.PaymentCard))
	require.NoError(t, err)

	_, err = f.sut.RequestCheckout(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 1, f.orders.count())
	assert.Equal(t, []domain.OrderItem{{ProductID: "A", Quantity: 1}}, f.orders.placed[0].Items)
}

func TestRequestCheckout_ConfirmationFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.sut.Begin(ctx, shopper, "")
	require.NoError(t, err)

	s, err := f.sut.RequestCheckout(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutStatusConfirming, s.Status)
	requireDecimal(t, "26", s.Totals.AmountToPay)
	assert.Equal(t, 0, f.orders.count())

	// edits are refused while the shopper is confirming
	_, err = f.sut.SetAddress(ctx, "u1", domain.DeliveryAddress{Address: "x", PhoneNumber: "y"})
	assert.ErrorIs(t, err, ErrIllegalTransition)

	s, err = f.sut.Confirm(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutStatusSucceeded, s.Status)
	require.Equal(t, 1, f.orders.count())
	assert.Equal(t, domain.PaymentABAPay, f.orders.placed[0].PaymentMethod)
	assert.Equal(t,
		[]domain.CheckoutStatus{domain.CheckoutStatusConfirming, domain.CheckoutStatusSubmitting},
		f.journal.statuses())
}

func TestCancelConfirmation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.sut.Begin(ctx, shopper, "")
	require.NoError(t, err)
	_, err = f.sut.RequestCheckout(ctx, "u1")
	require.NoError(t, err)

	s, err := f.sut.CancelConfirmation(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutStatusEditing, s.Status)
	assert.Equal(t, 0, f.orders.count())

	_, err = f.sut.Confirm(ctx, "u1")
	assert.ErrorIs(t, err, ErrIllegalTransition)
	_, err = f.sut.CancelConfirmation(ctx, "u1")
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestSubmit_FailureReturnsToEditing(t *testing.T) {
	f := newFixture(t)
	f.orders.err = &remote.Error{Status: http.StatusConflict, Message: "Product A is out of stock"}
	ctx := context.Background()
	_, err := f.sut.Begin(ctx, shopper, "")
	require.NoError(t, err)
	_, err = f.sut.SelectPayment(ctx, "u1", string(domain.PaymentCard))
	require.NoError(t, err)

	_, err = f.sut.RequestCheckout(ctx, "u1")
	var remoteErr *remote.Error
	require.ErrorAs(t, err, &remoteErr)

	s, err := f.sut.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutStatusEditing, s.Status)
	assert.Equal(t, "Product A is out of stock", s.LastError)
	assert.Len(t, s.Lines, 2, "cart is preserved")
	assert.Equal(t, 0, f.cart.clearCount())
	assert.Empty(t, f.journal.completed)
	assert.Equal(t, []domain.CheckoutStatus{
		domain.CheckoutStatusSubmitting,
		domain.CheckoutStatusFailed,
		domain.CheckoutStatusEditing,
	}, f.journal.statuses())

	// explicit resubmission is allowed
	f.orders.err = nil
	s, err = f.sut.RequestCheckout(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutStatusSucceeded, s.Status)
	assert.Empty(t, s.LastError)
	assert.Equal(t, 2, f.orders.count())
}

func TestSubmit_TransportFailureUsesGenericMessage(t *testing.T) {
	f := newFixture(t)
	f.orders.err = errors.Join(remote.ErrUnavailable, errors.New("dial tcp: refused"))
	ctx := context.Background()
	_, err := f.sut.Begin(ctx, shopper, "")
	require.NoError(t, err)
	_, err = f.sut.SelectPayment(ctx, "u1", string(domain.PaymentCard))
	require.NoError(t, err)

	_, err = f.sut.RequestCheckout(ctx, "u1")
	assert.ErrorIs(t, err, remote.ErrUnavailable)

	s, err := f.sut.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, remote.GenericFailureMessage, s.LastError)
}

func TestSubmit_DoubleSubmitIsRefused(t *testing.T) {
	f := newFixture(t)
	f.orders.entered = make(chan struct{}, 1)
	f.orders.release = make(chan struct{})
	ctx := context.Background()
	_, err := f.sut.Begin(ctx, shopper, "")
	require.NoError(t, err)
	_, err = f.sut.SelectPayment(ctx, "u1", string(domain.PaymentCashOnDelivery))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := f.sut.RequestCheckout(ctx, "u1")
		done <- err
	}()

	select {
	case <-f.orders.entered:
	case <-time.After(time.Second):
		t.Fatal("order was never submitted")
	}

	_, err = f.sut.RequestCheckout(ctx, "u1")
	assert.ErrorIs(t, err, ErrSubmissionInProgress)
	_, err = f.sut.Confirm(ctx, "u1")
	assert.ErrorIs(t, err, ErrSubmissionInProgress)
	_, err = f.sut.SetAddress(ctx, "u1", domain.DeliveryAddress{Address: "x", PhoneNumber: "y"})
	assert.ErrorIs(t, err, ErrSubmissionInProgress)

	s, err := f.sut.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutStatusSubmitting, s.Status)

	close(f.orders.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, f.orders.count())
}

func TestBegin_NewKeyDuringSubmissionIsRefused(t *testing.T) {
	f := newFixture(t)
	f.orders.entered = make(chan struct{}, 2)
	f.orders.release = make(chan struct{})
	ctx := context.Background()
	_, err := f.sut.Begin(ctx, shopper, "key-1")
	require.NoError(t, err)
	_, err = f.sut.SelectPayment(ctx, "u1", string(domain.PaymentCashOnDelivery))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := f.sut.RequestCheckout(ctx, "u1")
		done <- err
	}()

	select {
	case <-f.orders.entered:
	case <-time.After(time.Second):
		t.Fatal("order was never submitted")
	}

	_, err = f.sut.Begin(ctx, shopper, "key-2")
	assert.ErrorIs(t, err, ErrSubmissionInProgress)
	_, err = f.sut.RequestCheckout(ctx, "u1")
	assert.ErrorIs(t, err, ErrSubmissionInProgress)

	s, err := f.sut.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "key-1", s.IdempotencyKey)
	assert.Equal(t, domain.CheckoutStatusSubmitting, s.Status)

	close(f.orders.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, f.orders.count())
}

func TestBegin_NewKeyDuringConfirmationIsRefused(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.sut.Begin(ctx, shopper, "key-1")
	require.NoError(t, err)
	_, err = f.sut.RequestCheckout(ctx, "u1")
	require.NoError(t, err)

	_, err = f.sut.Begin(ctx, shopper, "key-2")
	assert.ErrorIs(t, err, ErrIllegalTransition)

	s, err := f.sut.Confirm(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "key-1", s.IdempotencyKey)
	assert.Equal(t, domain.CheckoutStatusSucceeded, s.Status)
	assert.Equal(t, 1, f.orders.count())
}

func TestBegin_NewKeyWhileEditingReplacesSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first, err := f.sut.Begin(ctx, shopper, "key-1")
	require.NoError(t, err)

	second, err := f.sut.Begin(ctx, shopper, "key-2")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "key-2", second.IdempotencyKey)
}

func TestSubmit_JournalFailureDoesNotBlock(t *testing.T) {
	f := newFixture(t)
	f.journal.err = errors.New("connection refused")
	ctx := context.Background()
	_, err := f.sut.Begin(ctx, shopper, "")
	require.NoError(t, err)
	_, err = f.sut.SelectPayment(ctx, "u1", string(domain.PaymentCard))
	require.NoError(t, err)

	s, err := f.sut.RequestCheckout(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.CheckoutStatusSucceeded, s.Status)
}

func TestBegin_AfterSuccessOpensNewSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.sut.Begin(ctx, shopper, "")
	require.NoError(t, err)
	_, err = f.sut.SelectPayment(ctx, "u1", string(domain.PaymentCard))
	require.NoError(t, err)
	done, err := f.sut.RequestCheckout(ctx, "u1")
	require.NoError(t, err)

	next, err := f.sut.Begin(ctx, shopper, "")
	require.NoError(t, err)
	assert.NotEqual(t, done.ID, next.ID)
	assert.NotEqual(t, done.IdempotencyKey, next.IdempotencyKey)
	assert.Equal(t, domain.CheckoutStatusEditing, next.Status)
	assert.Equal(t, domain.PaymentABAPay, next.PaymentMethod)
	assert.Empty(t, next.Lines)
}

func TestGet_CatalogFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.sut.Begin(ctx, shopper, "")
	require.NoError(t, err)

	f.catalog.err = remote.ErrUnavailable
	_, err = f.sut.Get(ctx, "u1")
	assert.ErrorIs(t, err, remote.ErrUnavailable)
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	allowed := [][2]CheckoutStatus{
		{CheckoutStatusEditing, CheckoutStatusConfirming},
		{CheckoutStatusEditing, CheckoutStatusSubmitting},
		{CheckoutStatusConfirming, CheckoutStatusSubmitting},
		{CheckoutStatusConfirming, CheckoutStatusEditing},
		{CheckoutStatusSubmitting, CheckoutStatusSucceeded},
		{CheckoutStatusSubmitting, CheckoutStatusFailed},
		{CheckoutStatusFailed, CheckoutStatusEditing},
	}
	for _, p := range allowed {
		assert.True(t, CanTransitionTo(p[0], p[1]), "%s -> %s", p[0], p[1])
	}

	denied := [][2]CheckoutStatus{
		{CheckoutStatusEditing, CheckoutStatusSucceeded},
		{CheckoutStatusSubmitting, CheckoutStatusEditing},
		{CheckoutStatusSubmitting, CheckoutStatusSubmitting},
		{CheckoutStatusSucceeded, CheckoutStatusEditing},
		{CheckoutStatusFailed, CheckoutStatusSubmitting},
	}
	for _, p := range denied {
		assert.False(t, CanTransitionTo(p[0], p[1]), "%s -> %s", p[0], p[1])
	}
	assert.True(t, CheckoutStatusSucceeded.IsTerminal())
	assert.False(t, CheckoutStatusFailed.IsTerminal())
}

func TestParsePaymentMethod(t *testing.T) {
	m, ok := ParsePaymentMethod("Cash On Delivery")
	assert.True(t, ok)
	assert.True(t, m.IsImmediate())

	m, ok = ParsePaymentMethod("ABA PAY")
	assert.True(t, ok)
	assert.False(t, m.IsImmediate())

	_, ok = ParsePaymentMethod("Bitcoin")
	assert.False(t, ok)
}

func TestCartLine(t *testing.T) {
	c := &Cart{OwnerID: "u-1"}
	assert.True(t, c.IsEmpty())

	c.Lines = []CartLine{{CartItemID: "ci-1", ProductID: "p-1", Quantity: 2}}
	assert.False(t, c.IsEmpty())

	l, ok := c.Line("p-1")
	assert.True(t, ok)
	assert.Equal(t, 2, l.Quantity)

	_, ok = c.Line("p-2")
	assert.False(t, ok)
}

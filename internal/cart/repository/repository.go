package repository

import (
	"context"
	"errors"

	"github.com/chouseangly/my-app/internal/domain"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrItemNotFound = errors.New("item not found in cart")
)

// CartRepository persists carts keyed by owner id.
// AddItem sets the quantity of an existing product line and keeps its
// CartItemID; it does not add to it.
type CartRepository interface {
	GetCart(ctx context.Context, ownerID string) (*domain.Cart, error)
	UpsertCart(ctx context.Context, cart *domain.Cart) error
	AddItem(ctx context.Context, ownerID string, line domain.CartLine) error
	UpdateItemQuantity(ctx context.Context, ownerID, productID string, quantity int) error
	RemoveItem(ctx context.Context, ownerID, productID string) error
	DeleteCart(ctx context.Context, ownerID string) error
}

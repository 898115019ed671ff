package repository

import (
	"context"
	"testing"

	"github.com/chouseangly/my-app/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runRepositoryContract exercises the behaviour every CartRepository shares.
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) CartRepository) {
	t.Run("GetCart not found", func(t *testing.T) {
		repo := newRepo(t)
		cart, err := repo.GetCart(context.Background(), "nonexistent")
		assert.ErrorIs(t, err, ErrCartNotFound)
		assert.Nil(t, cart)
	})

	t.Run("AddItem creates cart", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		err := repo.AddItem(ctx, "user123", domain.CartLine{CartItemID: "l1", ProductID: "A", Quantity: 3})
		require.NoError(t, err)

		cart, err := repo.GetCart(ctx, "user123")
		require.NoError(t, err)
		assert.Equal(t, "user123", cart.OwnerID)
		require.Len(t, cart.Lines, 1)
		assert.Equal(t, "A", cart.Lines[0].ProductID)
		assert.Equal(t, 3, cart.Lines[0].Quantity)
		assert.False(t, cart.Lines[0].AddedAt.IsZero())
	})

	t.Run("AddItem existing product sets quantity and keeps id", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		require.NoError(t, repo.AddItem(ctx, "user123", domain.CartLine{CartItemID: "l1", ProductID: "A", Quantity: 2}))
		require.NoError(t, repo.AddItem(ctx, "user123", domain.CartLine{CartItemID: "l2", ProductID: "A", Quantity: 5}))

		cart, err := repo.GetCart(ctx, "user123")
		require.NoError(t, err)
		require.Len(t, cart.Lines, 1)
		assert.Equal(t, 5, cart.Lines[0].Quantity)
		assert.Equal(t, "l1", cart.Lines[0].CartItemID)
	})

	t.Run("UpdateItemQuantity", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		require.NoError(t, repo.AddItem(ctx, "user123", domain.CartLine{CartItemID: "l1", ProductID: "A", Quantity: 2}))
		require.NoError(t, repo.UpdateItemQuantity(ctx, "user123", "A", 10))

		cart, err := repo.GetCart(ctx, "user123")
		require.NoError(t, err)
		assert.Equal(t, 10, cart.Lines[0].Quantity)

		err = repo.UpdateItemQuantity(ctx, "user123", "missing", 1)
		assert.ErrorIs(t, err, ErrItemNotFound)
	})

	t.Run("RemoveItem", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		require.NoError(t, repo.AddItem(ctx, "user123", domain.CartLine{CartItemID: "l1", ProductID: "A", Quantity: 2}))
		require.NoError(t, repo.AddItem(ctx, "user123", domain.CartLine{CartItemID: "l2", ProductID: "B", Quantity: 3}))
		require.NoError(t, repo.RemoveItem(ctx, "user123", "A"))

		cart, err := repo.GetCart(ctx, "user123")
		require.NoError(t, err)
		require.Len(t, cart.Lines, 1)
		assert.Equal(t, "B", cart.Lines[0].ProductID)

		assert.ErrorIs(t, repo.RemoveItem(ctx, "user123", "A"), ErrItemNotFound)
	})

	t.Run("UpsertCart replaces lines", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		require.NoError(t, repo.AddItem(ctx, "user123", domain.CartLine{CartItemID: "l1", ProductID: "A", Quantity: 2}))
		err := repo.UpsertCart(ctx, &domain.Cart{
			OwnerID: "user123",
			Lines:   []domain.CartLine{{CartItemID: "l9", ProductID: "Z", Quantity: 1}},
		})
		require.NoError(t, err)

		cart, err := repo.GetCart(ctx, "user123")
		require.NoError(t, err)
		require.Len(t, cart.Lines, 1)
		assert.Equal(t, "Z", cart.Lines[0].ProductID)
	})

	t.Run("DeleteCart", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		require.NoError(t, repo.AddItem(ctx, "user123", domain.CartLine{CartItemID: "l1", ProductID: "A", Quantity: 2}))
		require.NoError(t, repo.DeleteCart(ctx, "user123"))

		_, err := repo.GetCart(ctx, "user123")
		assert.ErrorIs(t, err, ErrCartNotFound)
		assert.ErrorIs(t, repo.DeleteCart(ctx, "user123"), ErrCartNotFound)
	})
}

package repository

import (
	"context"
	"sync"
	"time"

	"github.com/chouseangly/my-app/internal/domain"
)

// MemoryRepository keeps carts in process memory. Returned carts are copies.
type MemoryRepository struct {
	mu    sync.RWMutex
	carts map[string]*domain.Cart
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{carts: make(map[string]*domain.Cart)}
}

func (m *MemoryRepository) GetCart(_ context.Context, ownerID string) (*domain.Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cart, ok := m.carts[ownerID]
	if !ok {
		return nil, ErrCartNotFound
	}
	return clone(cart), nil
}

func (m *MemoryRepository) UpsertCart(_ context.Context, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now
	m.carts[cart.OwnerID] = clone(cart)
	return nil
}

func (m *MemoryRepository) AddItem(_ context.Context, ownerID string, line domain.CartLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	line.AddedAt = now

	cart, ok := m.carts[ownerID]
	if !ok {
		m.carts[ownerID] = &domain.Cart{
			OwnerID:   ownerID,
			Lines:     []domain.CartLine{line},
			CreatedAt: now,
			UpdatedAt: now,
		}
		return nil
	}

	cart.UpdatedAt = now
	for i := range cart.Lines {
		if cart.Lines[i].ProductID == line.ProductID {
			cart.Lines[i].Quantity = line.Quantity
			return nil
		}
	}
	cart.Lines = append(cart.Lines, line)
	return nil
}

func (m *MemoryRepository) UpdateItemQuantity(_ context.Context, ownerID, productID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cart, ok := m.carts[ownerID]
	if !ok {
		return ErrItemNotFound
	}
	for i := range cart.Lines {
		if cart.Lines[i].ProductID == productID {
			cart.Lines[i].Quantity = quantity
			cart.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return ErrItemNotFound
}

func (m *MemoryRepository) RemoveItem(_ context.Context, ownerID, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cart, ok := m.carts[ownerID]
	if !ok {
		return ErrItemNotFound
	}
	for i := range cart.Lines {
		if cart.Lines[i].ProductID == productID {
			cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
			cart.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return ErrItemNotFound
}

func (m *MemoryRepository) DeleteCart(_ context.Context, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.carts[ownerID]; !ok {
		return ErrCartNotFound
	}
	delete(m.carts, ownerID)
	return nil
}

func clone(c *domain.Cart) *domain.Cart {
	cp := *c
	cp.Lines = append([]domain.CartLine(nil), c.Lines...)
	return &cp
}

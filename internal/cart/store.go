// Package cart owns the shopper's cart: line storage, quantity rules and the
// read-through cache in front of the repository.
package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chouseangly/my-app/internal/cart/cache"
	"github.com/chouseangly/my-app/internal/cart/repository"
	"github.com/chouseangly/my-app/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var ErrItemNotFound = repository.ErrItemNotFound

type Store struct {
	repo  repository.CartRepository
	cache cache.CartCache
	log   *zap.Logger
	sfg   singleflight.Group

	mu     sync.Mutex
	owners map[string]*owner
}

// owner is the per-shopper coordination state. gen counts invalidations;
// a cache fill started under an older generation is discarded.
type owner struct {
	rmw sync.Mutex

	cacheMu sync.Mutex
	gen     uint64
}

func NewStore(repo repository.CartRepository, c cache.CartCache, log *zap.Logger) *Store {
	if c == nil {
		c = cache.Noop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		repo:   repo,
		cache:  c,
		log:    log,
		owners: make(map[string]*owner),
	}
}

// Cart returns the owner's cart, or an empty one when nothing is stored.
// Concurrent misses for the same owner share a single repository read.
func (s *Store) Cart(ctx context.Context, ownerID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(ownerID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, ownerID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn("cart cache get failed", zap.String("owner_id", ownerID), zap.Error(err))
		}

		o := s.owner(ownerID)
		o.cacheMu.Lock()
		gen := o.gen
		o.cacheMu.Unlock()

		cart, err = s.repo.GetCart(ctx, ownerID)
		if errors.Is(err, repository.ErrCartNotFound) {
			now := time.Now().UTC()
			return &domain.Cart{OwnerID: ownerID, CreatedAt: now, UpdatedAt: now}, nil
		}
		if err != nil {
			return nil, err
		}

		go s.fill(o, gen, ownerID, cart)

		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Cart), nil
}

// Add puts quantity units of productID into the cart. An existing line has
// its quantity increased; the line total must stay within 1..99.
func (s *Store) Add(ctx context.Context, ownerID, productID string, quantity int) (*domain.Cart, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, domain.NewValidationError("product_id", "product_id is required")
	}
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}

	unlock := s.lock(ownerID)
	defer unlock()

	current, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	line := domain.CartLine{ProductID: productID, Quantity: quantity}
	if existing, ok := current.Line(productID); ok {
		line.CartItemID = existing.CartItemID
		line.Quantity = existing.Quantity + quantity
		if err := validateQuantity(line.Quantity); err != nil {
			return nil, err
		}
	} else {
		line.CartItemID = uuid.NewString()
	}

	if err := s.repo.AddItem(ctx, ownerID, line); err != nil {
		s.log.Error("cart add item failed", zap.String("owner_id", ownerID), zap.String("product_id", productID), zap.Error(err))
		return nil, err
	}
	return s.afterMutation(ctx, ownerID)
}

// SetQuantity replaces the line quantity. Zero removes the line.
func (s *Store) SetQuantity(ctx context.Context, ownerID, productID string, quantity int) (*domain.Cart, error) {
	if quantity == 0 {
		return s.Remove(ctx, ownerID, productID)
	}
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}

	unlock := s.lock(ownerID)
	defer unlock()

	if err := s.repo.UpdateItemQuantity(ctx, ownerID, productID, quantity); err != nil {
		if !errors.Is(err, repository.ErrItemNotFound) {
			s.log.Error("cart update quantity failed", zap.String("owner_id", ownerID), zap.Error(err))
		}
		return nil, err
	}
	return s.afterMutation(ctx, ownerID)
}

func (s *Store) Remove(ctx context.Context, ownerID, productID string) (*domain.Cart, error) {
	unlock := s.lock(ownerID)
	defer unlock()

	if err := s.repo.RemoveItem(ctx, ownerID, productID); err != nil {
		if !errors.Is(err, repository.ErrItemNotFound) {
			s.log.Error("cart remove item failed", zap.String("owner_id", ownerID), zap.Error(err))
		}
		return nil, err
	}
	return s.afterMutation(ctx, ownerID)
}

// Clear empties the cart. Clearing an empty cart is not an error.
func (s *Store) Clear(ctx context.Context, ownerID string) error {
	unlock := s.lock(ownerID)
	defer unlock()

	err := s.repo.DeleteCart(ctx, ownerID)
	if err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		s.log.Error("cart clear failed", zap.String("owner_id", ownerID), zap.Error(err))
		return err
	}
	s.invalidate(ownerID)
	return nil
}

// ClearAddedBefore removes the lines added at or before cutoff and keeps
// anything added later. It returns the number of lines removed.
func (s *Store) ClearAddedBefore(ctx context.Context, ownerID string, cutoff time.Time) (int, error) {
	unlock := s.lock(ownerID)
	defer unlock()

	current, err := s.load(ctx, ownerID)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, line := range current.Lines {
		if line.AddedAt.After(cutoff) {
			continue
		}
		err := s.repo.RemoveItem(ctx, ownerID, line.ProductID)
		if err != nil && !errors.Is(err, repository.ErrItemNotFound) {
			s.log.Error("cart prune failed", zap.String("owner_id", ownerID), zap.String("product_id", line.ProductID), zap.Error(err))
			if removed > 0 {
				s.invalidate(ownerID)
			}
			return removed, err
		}
		removed++
	}
	if removed > 0 {
		s.invalidate(ownerID)
	}
	return removed, nil
}

func (s *Store) load(ctx context.Context, ownerID string) (*domain.Cart, error) {
	cart, err := s.repo.GetCart(ctx, ownerID)
	if errors.Is(err, repository.ErrCartNotFound) {
		return &domain.Cart{OwnerID: ownerID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return cart, nil
}

func (s *Store) afterMutation(ctx context.Context, ownerID string) (*domain.Cart, error) {
	s.invalidate(ownerID)
	return s.load(ctx, ownerID)
}

// fill caches a cart read under generation gen. If an invalidation ran
// since, the cart may predate it and is not cached.
func (s *Store) fill(o *owner, gen uint64, ownerID string, cart *domain.Cart) {
	o.cacheMu.Lock()
	defer o.cacheMu.Unlock()
	if o.gen != gen {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Set(ctx, ownerID, cart); err != nil {
		s.log.Warn("cart cache set failed", zap.String("owner_id", ownerID), zap.Error(err))
	}
}

func (s *Store) invalidate(ownerID string) {
	o := s.owner(ownerID)
	o.cacheMu.Lock()
	defer o.cacheMu.Unlock()
	o.gen++

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, ownerID); err != nil {
		s.log.Warn("cart cache invalidate failed", zap.String("owner_id", ownerID), zap.Error(err))
	}
}

func (s *Store) owner(ownerID string) *owner {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.owners[ownerID]
	if !ok {
		o = &owner{}
		s.owners[ownerID] = o
	}
	return o
}

// lock serialises read-modify-write sequences per owner.
func (s *Store) lock(ownerID string) func() {
	o := s.owner(ownerID)
	o.rmw.Lock()
	return o.rmw.Unlock
}

func validateQuantity(q int) error {
	if q < domain.MinLineQuantity || q > domain.MaxLineQuantity {
		return domain.NewValidationError("quantity",
			fmt.Sprintf("quantity must be between %d and %d", domain.MinLineQuantity, domain.MaxLineQuantity))
	}
	return nil
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/chouseangly/my-app/internal/domain"
	"github.com/redis/go-redis/v9"
)

// cartSchemaVersion is part of every key. Bump it when the cached cart
// encoding changes so old entries are ignored instead of misread.
const cartSchemaVersion = 1

type RedisOptions struct {
	// Namespace prefixes keys, e.g. "storefront".
	Namespace string
	BaseTTL   time.Duration
	// MaxJitter spreads expiry so carts cached together do not expire together.
	MaxJitter time.Duration
}

func DefaultRedisOptions() RedisOptions {
	return RedisOptions{Namespace: "storefront", BaseTTL: 15 * time.Minute, MaxJitter: 4 * time.Minute}
}

type RedisCache struct {
	client *redis.Client
	opts   RedisOptions
}

func NewRedisCache(client *redis.Client, opts RedisOptions) *RedisCache {
	def := DefaultRedisOptions()
	if opts.Namespace == "" {
		opts.Namespace = def.Namespace
	}
	if opts.BaseTTL <= 0 {
		opts.BaseTTL = def.BaseTTL
	}
	if opts.MaxJitter < 0 {
		opts.MaxJitter = 0
	}
	return &RedisCache{client: client, opts: opts}
}

// Get returns the cached cart. An entry that no longer decodes is dropped
// and reported as a miss so the next read repopulates it.
func (r *RedisCache) Get(ctx context.Context, ownerID string) (*domain.Cart, error) {
	key := r.key(ownerID)
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil || cart.OwnerID != ownerID {
		if delErr := r.client.Del(ctx, key).Err(); delErr != nil {
			return nil, fmt.Errorf("drop undecodable cart %s: %w", key, delErr)
		}
		return nil, ErrCacheMiss
	}
	return &cart, nil
}

func (r *RedisCache) Set(ctx context.Context, ownerID string, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	key := r.key(ownerID)
	if err := r.client.Set(ctx, key, data, r.ttl()).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, ownerID string) error {
	key := r.key(ownerID)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

func (r *RedisCache) ttl() time.Duration {
	if r.opts.MaxJitter == 0 {
		return r.opts.BaseTTL
	}
	return r.opts.BaseTTL + time.Duration(rand.Int63n(int64(r.opts.MaxJitter)+1))
}

func (r *RedisCache) key(ownerID string) string {
	return fmt.Sprintf("%s:cart:v%d:%s", r.opts.Namespace, cartSchemaVersion, ownerID)
}

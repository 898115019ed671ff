package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/chouseangly/my-app/internal/pricing"
	"golang.org/x/sync/singleflight"
)

const DefaultIndexTTL = 30 * time.Second

type Indexer interface {
	Index(ctx context.Context) (pricing.Catalog, error)
}

// IndexCache keeps the last catalog index for ttl so checkout reads do not
// refetch every product. Concurrent refreshes share one request. The
// returned catalog is shared and must not be modified.
type IndexCache struct {
	source Indexer
	ttl    time.Duration
	now    func() time.Time
	sfg    singleflight.Group

	mu      sync.RWMutex
	index   pricing.Catalog
	fetched time.Time
}

func NewIndexCache(source Indexer, ttl time.Duration) *IndexCache {
	if ttl <= 0 {
		ttl = DefaultIndexTTL
	}
	return &IndexCache{source: source, ttl: ttl, now: time.Now}
}

func (c *IndexCache) Index(ctx context.Context) (pricing.Catalog, error) {
	c.mu.RLock()
	index, fetched := c.index, c.fetched
	c.mu.RUnlock()
	if index != nil && c.now().Sub(fetched) < c.ttl {
		return index, nil
	}

	v, err, _ := c.sfg.Do("index", func() (interface{}, error) {
		fresh, err := c.source.Index(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.index, c.fetched = fresh, c.now()
		c.mu.Unlock()
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(pricing.Catalog), nil
}

// Invalidate drops the cached index, e.g. after a product is deleted.
func (c *IndexCache) Invalidate() {
	c.mu.Lock()
	c.index, c.fetched = nil, time.Time{}
	c.mu.Unlock()
}

// CachedClient is a Client whose Index is served from an IndexCache. A
// successful Delete drops the cached index.
type CachedClient struct {
	*Client
	index *IndexCache
}

func NewCachedClient(c *Client, ttl time.Duration) *CachedClient {
	return &CachedClient{Client: c, index: NewIndexCache(c, ttl)}
}

func (c *CachedClient) Index(ctx context.Context) (pricing.Catalog, error) {
	return c.index.Index(ctx)
}

func (c *CachedClient) Delete(ctx context.Context, token, productID string) error {
	if err := c.Client.Delete(ctx, token, productID); err != nil {
		return err
	}
	c.index.Invalidate()
	return nil
}

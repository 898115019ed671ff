package search

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chouseangly/my-app/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	MaxRecentSearches = 5
	recentTTL         = 30 * 24 * time.Hour
)

// RecentSearches keeps each shopper's last submitted terms, most recent
// first and without duplicates.
type RecentSearches struct {
	client *redis.Client
}

func NewRecentSearches(client *redis.Client) *RecentSearches {
	return &RecentSearches{client: client}
}

func (r *RecentSearches) Add(ctx context.Context, ownerID, term string) ([]string, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, domain.NewValidationError("term", "search term is required")
	}

	key := recentKey(ownerID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, key, 0, term)
		pipe.LPush(ctx, key, term)
		pipe.LTrim(ctx, key, 0, MaxRecentSearches-1)
		pipe.Expire(ctx, key, recentTTL)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis add recent search failed: %w", err)
	}
	return r.List(ctx, ownerID)
}

func (r *RecentSearches) List(ctx context.Context, ownerID string) ([]string, error) {
	terms, err := r.client.LRange(ctx, recentKey(ownerID), 0, MaxRecentSearches-1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list recent searches failed: %w", err)
	}
	return terms, nil
}

func (r *RecentSearches) Clear(ctx context.Context, ownerID string) error {
	if err := r.client.Del(ctx, recentKey(ownerID)).Err(); err != nil {
		return fmt.Errorf("redis clear recent searches failed: %w", err)
	}
	return nil
}

func recentKey(ownerID string) string {
	return fmt.Sprintf("recent_searches:%s", ownerID)
}

// MemoryRecentSearches is the in-process variant used when no Redis is
// configured.
type MemoryRecentSearches struct {
	mu    sync.Mutex
	terms map[string][]string
}

func NewMemoryRecentSearches() *MemoryRecentSearches {
	return &MemoryRecentSearches{terms: make(map[string][]string)}
}

func (m *MemoryRecentSearches) Add(_ context.Context, ownerID, term string) ([]string, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, domain.NewValidationError("term", "search term is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	next := []string{term}
	for _, t := range m.terms[ownerID] {
		if t != term && len(next) < MaxRecentSearches {
			next = append(next, t)
		}
	}
	m.terms[ownerID] = next
	return append([]string(nil), next...), nil
}

func (m *MemoryRecentSearches) List(_ context.Context, ownerID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.terms[ownerID]...), nil
}

func (m *MemoryRecentSearches) Clear(_ context.Context, ownerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.terms, ownerID)
	return nil
}

// Package search serves debounced product search and the shopper's recent
// search terms.
package search

import (
	"context"
	"sync"
	"time"

	"github.com/chouseangly/my-app/internal/catalog"
	"github.com/chouseangly/my-app/internal/domain"
	"go.uber.org/zap"
)

type Searcher interface {
	Search(ctx context.Context, f catalog.Filter) ([]domain.Product, error)
}

// Service keeps one debouncer per shopper.
type Service struct {
	delay    time.Duration
	searcher Searcher
	log      *zap.Logger

	mu         sync.Mutex
	debouncers map[string]*Debouncer
}

func NewService(delay time.Duration, searcher Searcher, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		delay:      delay,
		searcher:   searcher,
		log:        log,
		debouncers: make(map[string]*Debouncer),
	}
}

func (s *Service) Type(ownerID, query string) Result {
	return s.debouncer(ownerID).Type(query)
}

func (s *Service) Results(ownerID string) Result {
	return s.debouncer(ownerID).Result()
}

// Close stops every pending query.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.debouncers {
		d.Stop()
	}
}

func (s *Service) debouncer(ownerID string) *Debouncer {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.debouncers[ownerID]
	if !ok {
		d = NewDebouncer(s.delay, func(ctx context.Context, query string) ([]domain.Product, error) {
			products, err := s.searcher.Search(ctx, catalog.Filter{Name: query})
			if err != nil {
				s.log.Warn("product search failed", zap.String("owner_id", ownerID), zap.String("query", query), zap.Error(err))
			}
			return products, err
		})
		s.debouncers[ownerID] = d
	}
	return d
}

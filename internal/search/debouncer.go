package search

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/chouseangly/my-app/internal/domain"
)

// MinQueryLength is the shortest trimmed query that is sent.
const MinQueryLength = 2

type SearchFunc func(ctx context.Context, query string) ([]domain.Product, error)

// Result is the state of the latest query.
type Result struct {
	Query    string
	Pending  bool
	Products []domain.Product
	Err      error
}

// Debouncer runs search once typing has paused for delay. Every keystroke
// restarts the wait, and a response is applied only if no newer keystroke
// arrived in the meantime; in-flight requests are not cancelled, their
// results are discarded.
type Debouncer struct {
	delay   time.Duration
	timeout time.Duration
	search  SearchFunc

	mu         sync.Mutex
	timer      *time.Timer
	generation uint64
	result     Result
}

func NewDebouncer(delay time.Duration, search SearchFunc) *Debouncer {
	return &Debouncer{delay: delay, timeout: 10 * time.Second, search: search}
}

// Type records a new query value.
func (d *Debouncer) Type(query string) Result {
	query = strings.TrimSpace(query)

	d.mu.Lock()
	defer d.mu.Unlock()

	d.generation++
	gen := d.generation
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}

	if utf8.RuneCountInString(query) < MinQueryLength {
		d.result = Result{Query: query}
		return d.result
	}

	d.result = Result{Query: query, Pending: true}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen, query) })
	return d.result
}

func (d *Debouncer) Result() Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.result
}

// Stop abandons any pending query.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.generation++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.result.Pending = false
}

func (d *Debouncer) fire(gen uint64, query string) {
	d.mu.Lock()
	if gen != d.generation {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	products, err := d.search(ctx, query)
	cancel()

	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.generation {
		return // stale
	}
	d.result = Result{Query: query, Products: products, Err: err}
}

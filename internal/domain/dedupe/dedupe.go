// Package dedupe remembers the outcome of idempotent requests.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// defaultMaxSize bounds the number of remembered keys.
const defaultMaxSize = 1024

// Deduper records request keys together with the outcome they produced, so
// a repeated request can be answered without repeating its side effect.
type Deduper[V any] interface {
	// Seen returns the outcome recorded for id, if any.
	Seen(ctx context.Context, id string) (V, bool)

	// Record stores the outcome for id, evicting the oldest key when full.
	Record(ctx context.Context, id string, v V)

	Size() int64
}

// inMemoryDeduper keeps keys in insertion order and evicts the oldest first.
// A maxSize of zero or less disables eviction.
type inMemoryDeduper[V any] struct {
	mu      sync.Mutex
	seen    map[string]V
	order   []string // insertion order, one entry per live key
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper[V any](opts ...Option) Deduper[V] {
	cfg := config{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &inMemoryDeduper[V]{
		seen:    make(map[string]V),
		maxSize: cfg.maxSize,
	}
}

func (d *inMemoryDeduper[V]) Seen(_ context.Context, id string) (V, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.seen[id]
	return v, ok
}

func (d *inMemoryDeduper[V]) Record(_ context.Context, id string, v V) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		d.seen[id] = v
		return
	}
	if d.maxSize > 0 {
		for len(d.seen) >= d.maxSize && len(d.order) > 0 {
			d.evictOldest()
		}
	}
	d.seen[id] = v
	d.order = append(d.order, id)
	d.size.Add(1)
}

// evictOldest drops the oldest key. Must be called with d.mu held.
func (d *inMemoryDeduper[V]) evictOldest() {
	id := d.order[0]
	d.order = d.order[1:]
	delete(d.seen, id)
	d.size.Add(-1)
}

func (d *inMemoryDeduper[V]) Size() int64 {
	return d.size.Load()
}

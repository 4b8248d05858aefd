package repository

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/medalboard/internal/domain/model"
)

// MemoryStore keeps the table in process memory.
type MemoryStore struct {
	mu         sync.RWMutex
	sheet      model.Sheet
	fetchErr   error
	replaceErr error

	fetches  atomic.Int64
	replaces atomic.Int64
}

// NewMemoryStore creates a store holding a copy of sheet.
func NewMemoryStore(sheet model.Sheet, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{sheet: copySheet(sheet)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements Store.
func (s *MemoryStore) Name() string { return KindMemory }

// Fetch implements Store.
func (s *MemoryStore) Fetch(ctx context.Context) (model.Sheet, error) {
	s.fetches.Add(1)
	if err := ctx.Err(); err != nil {
		return model.Sheet{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.fetchErr != nil {
		return model.Sheet{}, s.fetchErr
	}
	return copySheet(s.sheet), nil
}

// Replace implements Store.
func (s *MemoryStore) Replace(ctx context.Context, sheet model.Sheet) error {
	s.replaces.Add(1)
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.sheet = copySheet(sheet)
	return nil
}

// SetReplaceError changes the failure returned by Replace; nil clears it.
func (s *MemoryStore) SetReplaceError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceErr = err
}

// Fetches returns how many times Fetch was called.
func (s *MemoryStore) Fetches() int64 { return s.fetches.Load() }

// Replaces returns how many times Replace was called.
func (s *MemoryStore) Replaces() int64 { return s.replaces.Load() }

func copySheet(in model.Sheet) model.Sheet {
	out := model.Sheet{
		Header: append([]string(nil), in.Header...),
		Rows:   make([][]string, len(in.Rows)),
	}
	for i, row := range in.Rows {
		out.Rows[i] = append([]string(nil), row...)
	}
	return out
}

package repository

import "github.com/okian/medalboard/internal/domain/model"

// MemoryOption applies a configuration option to the MemoryStore.
type MemoryOption func(*MemoryStore)

// WithReplaceError makes every Replace fail with err. Used to exercise
// persist failures without a network.
func WithReplaceError(err error) MemoryOption {
	return func(s *MemoryStore) {
		s.replaceErr = err
	}
}

// WithFetchError makes every Fetch fail with err.
func WithFetchError(err error) MemoryOption {
	return func(s *MemoryStore) {
		s.fetchErr = err
	}
}

// WithSeed replaces the initial sheet.
func WithSeed(sheet model.Sheet) MemoryOption {
	return func(s *MemoryStore) {
		s.sheet = copySheet(sheet)
	}
}

package normalize

import (
	"errors"
	"fmt"
)

// Sentinel kinds for load failures. These allow errors.Is/As from callers.
var (
	ErrLoad          = errors.New("load dataset failed")
	ErrMissingColumn = errors.New("missing required column")
	ErrInvalidYear   = errors.New("year is not an integer")
	ErrInvalidCount  = errors.New("medal count is not a non-negative integer")
)

// LoadError reports why the dataset could not be loaded. Row is the 1-based
// sheet row (header is row 1); zero means the failure is not tied to a row.
type LoadError struct {
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *LoadError) Error() string {
	switch {
	case e.Row > 0:
		return fmt.Sprintf("load: row %d column %s value %q: %v", e.Row, e.Column, e.Value, e.Err)
	case e.Column != "":
		return fmt.Sprintf("load: column %s: %v", e.Column, e.Err)
	default:
		return fmt.Sprintf("load: %v", e.Err)
	}
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is makes every LoadError match ErrLoad.
func (e *LoadError) Is(target error) bool { return target == ErrLoad }

// NewFetchError wraps a gateway failure that happened before any row was read.
func NewFetchError(err error) *LoadError {
	return &LoadError{Err: err}
}

package reconcile

import (
	"errors"
	"fmt"
)

// Sentinel kinds for reconcile errors.
var (
	ErrPersist     = errors.New("persist edits failed")
	ErrInvalidEdit = errors.New("invalid edited row")
	ErrUnknownMode = errors.New("unknown save mode")
	ErrNoPending   = errors.New("no pending edit to retry")
)

// PersistError reports a failed write-back. The edited table is not lost;
// callers keep it so the save can be retried.
type PersistError struct {
	Store string
	Err   error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist to %s: %v", e.Store, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// Is makes every PersistError match ErrPersist.
func (e *PersistError) Is(target error) bool { return target == ErrPersist }

// EditError reports which edited row failed validation.
type EditError struct {
	Index int
	Err   error
}

func (e *EditError) Error() string {
	return fmt.Sprintf("edited row %d: %v", e.Index, e.Err)
}

func (e *EditError) Unwrap() error { return e.Err }

// Is makes every EditError match ErrInvalidEdit.
func (e *EditError) Is(target error) bool { return target == ErrInvalidEdit }

package worker

import "errors"

// Sentinel kinds for writer errors.
var (
	ErrBusy      = errors.New("save queue is full")
	ErrStopped   = errors.New("writer stopped")
	ErrAbandoned = errors.New("save abandoned before it ran")
)

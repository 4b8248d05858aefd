package service

import "errors"

// ErrNotStarted is returned by writes issued before Start succeeded.
var ErrNotStarted = errors.New("session not started")

package config

import (
	"errors"
)

// Sentinel error kinds for this package. Validation failures wrap
// ErrInvalidConfig and, where it applies, a narrower kind.
var (
	ErrInvalidConfig  = errors.New("invalid config")
	ErrLoadConfig     = errors.New("load config failed")
	ErrUnknownStore   = errors.New("unknown store")
	ErrMissingLocator = errors.New("store location missing")
)

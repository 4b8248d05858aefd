package repository

import "errors"

// Sentinel kinds for gateway errors.
var (
	ErrNotFound       = errors.New("table not found")
	ErrUnknownKind    = errors.New("unknown store kind")
	ErrInvalidLocator = errors.New("invalid table locator")
	ErrCredentials    = errors.New("credentials unavailable")
)

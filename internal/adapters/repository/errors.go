package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound          = errors.New("snapshot not found")
	ErrUnsupportedDriver = errors.New("unsupported store driver")
	ErrNilSnapshot       = errors.New("nil snapshot")
)

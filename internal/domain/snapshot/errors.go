package snapshot

import "errors"

// ErrHash is returned when raw inputs cannot be canonically encoded.
var ErrHash = errors.New("content hash failed")

package normalize

import "errors"

// Sentinel kinds for normalization failures. All of them abort the run.
var (
	ErrMalformedTimestamp = errors.New("malformed timestamp")
	ErrDuplicateID        = errors.New("duplicate record id")
	ErrMissingOwner       = errors.New("missing owner reference")
)

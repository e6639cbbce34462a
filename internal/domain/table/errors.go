package table

import "errors"

// ErrUnknownPolicy is returned by ParsePolicy for unrecognised names.
var ErrUnknownPolicy = errors.New("unknown combine policy")

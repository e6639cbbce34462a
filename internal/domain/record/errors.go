package record

import "errors"

// ErrUnknownFamily is returned for a family name outside the known set.
var ErrUnknownFamily = errors.New("unknown record family")

package classifier

import "errors"

// Sentinel kinds for classifier errors.
var (
	ErrStatus      = errors.New("classifier returned non-2xx status")
	ErrEmptyOutput = errors.New("classifier returned no output text")
	ErrRefused     = errors.New("classifier refused the request")
	ErrSchema      = errors.New("classifier schema generation failed")
)

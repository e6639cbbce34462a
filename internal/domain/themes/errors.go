package themes

import "errors"

// ErrEnrichment marks a classifier call that failed or timed out.
var ErrEnrichment = errors.New("theme enrichment failed")

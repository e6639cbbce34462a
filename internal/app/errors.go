package service

import "errors"

// Sentinel kinds for run failures.
var (
	// ErrIngestion marks fetch and normalization failures. The run is aborted.
	ErrIngestion = errors.New("ingestion failed")
	// ErrPersistence marks a failed snapshot insert. No snapshot is retained.
	ErrPersistence = errors.New("persistence failed")
	// ErrInvalidPeriod marks a period whose end precedes its start.
	ErrInvalidPeriod = errors.New("period end before start")
	// ErrNotFound is returned by retrieval when no snapshot matches.
	ErrNotFound = errors.New("snapshot not found")
)

package seeddata

import "time"

// Config sizes a generated data set.
type Config struct {
	Seed               int64         // Source seed; equal seeds give equal batches
	Students           int           // Directory size
	Counsellors        int           // Directory size
	Volunteers         int           // Directory size
	ManualReports      int           // Hand-entered reports
	GeneratedReports   int           // Machine-generated reports
	CheckInsPerStudent int           // Upper bound per student
	Now                time.Time     // End of the generated span
	Span               time.Duration // Records are spread over [Now-Span, Now]
}

// DefaultConfig returns a small data set covering every metric.
func DefaultConfig() Config {
	return Config{
		Seed:               42,
		Students:           40,
		Counsellors:        6,
		Volunteers:         4,
		ManualReports:      60,
		GeneratedReports:   80,
		CheckInsPerStudent: 6,
		Now:                time.Now().UTC(),
		Span:               30 * 24 * time.Hour,
	}
}

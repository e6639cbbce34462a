// Package table holds normalized rows and the combiner that unifies manual and
// generated report tables.
package table

import (
	"sort"
	"time"
)

// ReportType tags the family a report row came from.
type ReportType string

// Report types.
const (
	ReportManual    ReportType = "manual"
	ReportGenerated ReportType = "generated"
)

// Column names an optional projection carried by a table.
type Column string

// Optional report columns.
const (
	ColSentiment      Column = "sentiment"
	ColRiskLevel      Column = "riskLevel"
	ColRedFlags       Column = "redFlags"
	ColPHQ9           Column = "phq9Score"
	ColGAD7           Column = "gad7Score"
	ColInterpretation Column = "interpretation"
	ColStressors      Column = "stressors"
	ColConcerns       Column = "concerns"
	ColResourceTopics Column = "resourceTopics"
	ColTags           Column = "tags"
	ColStatus         Column = "status"
	ColAssignee       Column = "assigneeId"
	ColPriority       Column = "priority"
	ColResolvedAt     Column = "resolvedAt"
	ColAssignedAt     Column = "assignedAt"
	ColContent        Column = "content"
)

// ManualColumns are the optional columns of a normalized manual report table.
func ManualColumns() Columns {
	return NewColumns(ColTags, ColStatus, ColAssignee, ColPriority, ColResolvedAt, ColAssignedAt, ColContent)
}

// GeneratedColumns are the optional columns of a normalized generated report table.
func GeneratedColumns() Columns {
	return NewColumns(ColSentiment, ColRiskLevel, ColRedFlags, ColPHQ9, ColGAD7,
		ColInterpretation, ColStressors, ColConcerns, ColResourceTopics)
}

// Row is one normalized report.
type Row struct {
	ID         string
	CreatedAt  time.Time
	OwnerID    string
	ReportType ReportType

	Sentiment      *string
	RiskLevel      *string
	RedFlags       []string
	PHQ9           *float64
	GAD7           *float64
	Interpretation *string
	Stressors      []string
	Concerns       []string
	ResourceTopics []string

	Tags       []string
	Status     *string
	AssigneeID *string
	Priority   *string
	ResolvedAt *time.Time
	AssignedAt *time.Time
	Content    *string
}

// clear nulls the projection named by c.
func (r *Row) clear(c Column) {
	switch c {
	case ColSentiment:
		r.Sentiment = nil
	case ColRiskLevel:
		r.RiskLevel = nil
	case ColRedFlags:
		r.RedFlags = nil
	case ColPHQ9:
		r.PHQ9 = nil
	case ColGAD7:
		r.GAD7 = nil
	case ColInterpretation:
		r.Interpretation = nil
	case ColStressors:
		r.Stressors = nil
	case ColConcerns:
		r.Concerns = nil
	case ColResourceTopics:
		r.ResourceTopics = nil
	case ColTags:
		r.Tags = nil
	case ColStatus:
		r.Status = nil
	case ColAssignee:
		r.AssigneeID = nil
	case ColPriority:
		r.Priority = nil
	case ColResolvedAt:
		r.ResolvedAt = nil
	case ColAssignedAt:
		r.AssignedAt = nil
	case ColContent:
		r.Content = nil
	}
}

// Columns is a set of optional column names.
type Columns map[Column]struct{}

// NewColumns builds a column set.
func NewColumns(cols ...Column) Columns {
	out := make(Columns, len(cols))
	for _, c := range cols {
		out[c] = struct{}{}
	}
	return out
}

// Has reports whether c is in the set.
func (cs Columns) Has(c Column) bool {
	_, ok := cs[c]
	return ok
}

// Union returns the columns present in either set.
func (cs Columns) Union(other Columns) Columns {
	out := make(Columns, len(cs)+len(other))
	for c := range cs {
		out[c] = struct{}{}
	}
	for c := range other {
		out[c] = struct{}{}
	}
	return out
}

// Intersect returns the columns present in both sets.
func (cs Columns) Intersect(other Columns) Columns {
	out := make(Columns)
	for c := range cs {
		if other.Has(c) {
			out[c] = struct{}{}
		}
	}
	return out
}

// Sorted lists the columns alphabetically.
func (cs Columns) Sorted() []Column {
	out := make([]Column, 0, len(cs))
	for c := range cs {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Table is an ordered collection of rows sharing a column set.
type Table struct {
	Rows    []Row
	Columns Columns
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// Empty reports whether the table has no rows.
func (t Table) Empty() bool { return len(t.Rows) == 0 }

// Has reports whether the table carries column c.
func (t Table) Has(c Column) bool { return t.Columns.Has(c) }

// CheckIn is one normalized check-in.
type CheckIn struct {
	ID          string
	EntityID    string
	CreatedAt   time.Time
	MoodScore   *float64
	StressLevel *float64
	Feedback    *string
}

// Student is one entry of the student directory.
type Student struct {
	ID         string
	LastActive *time.Time
}

// Counsellor is one entry of the counsellor directory.
type Counsellor struct {
	ID   string
	Name string
}

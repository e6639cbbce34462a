// Package normalize converts raw documents into typed rows per record family.
package normalize

import (
	"fmt"
	"time"

	"github.com/okian/mindstats/internal/domain/record"
	"github.com/okian/mindstats/internal/domain/table"
)

// Tables is the normalized view of one batch.
type Tables struct {
	Manual      table.Table
	Generated   table.Table
	CheckIns    []table.CheckIn
	Students    []table.Student
	Counsellors []table.Counsellor
}

// Normalize converts every family of batch. An empty family yields an empty
// table. Malformed timestamps, duplicate ids and report rows without an owner
// fail the whole batch.
func Normalize(batch record.Batch) (Tables, error) {
	var (
		out Tables
		err error
	)
	if out.Manual, err = manualReports(batch.ManualReports); err != nil {
		return Tables{}, err
	}
	if out.Generated, err = generatedReports(batch.GeneratedReports); err != nil {
		return Tables{}, err
	}
	if out.CheckIns, err = checkIns(batch.CheckIns); err != nil {
		return Tables{}, err
	}
	if out.Students, err = students(batch.Students); err != nil {
		return Tables{}, err
	}
	if out.Counsellors, err = counsellors(batch.Counsellors); err != nil {
		return Tables{}, err
	}
	return out, nil
}

// ids assigns row identifiers and enforces uniqueness within a family.
// Records without an id get "#<family>-<index>", moved aside when a stored id
// already uses that text.
type ids struct {
	family   record.Family
	seen     map[string]struct{}
	reserved map[string]struct{}
}

func newIDs(family record.Family, docs []record.Document) *ids {
	x := &ids{
		family:   family,
		seen:     make(map[string]struct{}, len(docs)),
		reserved: make(map[string]struct{}, len(docs)),
	}
	for _, doc := range docs {
		if id, ok := record.Ref(doc["_id"]); ok {
			x.reserved[id] = struct{}{}
		}
	}
	return x
}

func (x *ids) next(doc record.Document, index int) (string, error) {
	id, ok := record.Ref(doc["_id"])
	if !ok {
		id = x.synthesize(index)
	}
	if _, dup := x.seen[id]; dup {
		return "", fmt.Errorf("%w: %s %s", ErrDuplicateID, x.family, id)
	}
	x.seen[id] = struct{}{}
	return id, nil
}

func (x *ids) synthesize(index int) string {
	base := fmt.Sprintf("#%s-%d", x.family, index)
	id := base
	for n := 1; x.taken(id); n++ {
		id = fmt.Sprintf("%s.%d", base, n)
	}
	return id
}

func (x *ids) taken(id string) bool {
	if _, ok := x.reserved[id]; ok {
		return true
	}
	_, ok := x.seen[id]
	return ok
}

func requiredTime(doc record.Document, family record.Family, id, field string) (time.Time, error) {
	ts, ok, err := ParseTimestamp(doc[field])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %s %s: %w", ErrMalformedTimestamp, family, id, field, err)
	}
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s %s %s: missing", ErrMalformedTimestamp, family, id, field)
	}
	return ts, nil
}

func optionalTime(doc record.Document, family record.Family, id, field string) (*time.Time, error) {
	ts, ok, err := ParseTimestamp(doc[field])
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s %s: %w", ErrMalformedTimestamp, family, id, field, err)
	}
	if !ok {
		return nil, nil
	}
	return &ts, nil
}

func owner(doc record.Document, family record.Family, id, field string) (string, error) {
	ref, ok := record.Ref(doc[field])
	if !ok {
		return "", fmt.Errorf("%w: %s %s %s", ErrMissingOwner, family, id, field)
	}
	return ref, nil
}

func manualReports(docs []record.Document) (table.Table, error) {
	const family = record.FamilyManualReport
	t := table.Table{Columns: table.ManualColumns(), Rows: make([]table.Row, 0, len(docs))}
	idx := newIDs(family, docs)

	for i, doc := range docs {
		id, err := idx.next(doc, i)
		if err != nil {
			return table.Table{}, err
		}
		created, err := requiredTime(doc, family, id, "createdAt")
		if err != nil {
			return table.Table{}, err
		}
		ownerID, err := owner(doc, family, id, "owner")
		if err != nil {
			return table.Table{}, err
		}
		resolved, err := optionalTime(doc, family, id, "resolvedAt")
		if err != nil {
			return table.Table{}, err
		}
		assigned, err := optionalTime(doc, family, id, "assignedAt")
		if err != nil {
			return table.Table{}, err
		}

		row := table.Row{
			ID:         id,
			CreatedAt:  created,
			OwnerID:    ownerID,
			ReportType: table.ReportManual,
			Tags:       doc.Strings("tags"),
			Status:     doc.String("status"),
			Priority:   doc.String("priority"),
			ResolvedAt: resolved,
			AssignedAt: assigned,
			Content:    doc.String("content"),
		}
		if assignee, ok := record.Ref(doc["assignedTo"]); ok {
			row.AssigneeID = &assignee
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func generatedReports(docs []record.Document) (table.Table, error) {
	const family = record.FamilyGeneratedReport
	t := table.Table{Columns: table.GeneratedColumns(), Rows: make([]table.Row, 0, len(docs))}
	idx := newIDs(family, docs)

	for i, doc := range docs {
		id, err := idx.next(doc, i)
		if err != nil {
			return table.Table{}, err
		}
		created, err := requiredTime(doc, family, id, "createdAt")
		if err != nil {
			return table.Table{}, err
		}
		ownerID, err := owner(doc, family, id, "student")
		if err != nil {
			return table.Table{}, err
		}

		std := record.DecodeStandardReport(doc[record.KeyStandardReport])
		demo := record.DecodeDemoReport(doc[record.KeyDemoReport])

		concerns := append([]string{}, std.Concerns()...)
		concerns = append(concerns, demo.StudentExpressedConcerns...)

		t.Rows = append(t.Rows, table.Row{
			ID:             id,
			CreatedAt:      created,
			OwnerID:        ownerID,
			ReportType:     table.ReportGenerated,
			Sentiment:      std.Sentiment(),
			RiskLevel:      std.RiskLevel(),
			RedFlags:       std.RedFlags(),
			PHQ9:           std.PHQ9(),
			GAD7:           std.GAD7(),
			Interpretation: std.Interpretation(),
			Stressors:      std.Stressors(),
			Concerns:       concerns,
			ResourceTopics: demo.SuggestedResourceTopics,
		})
	}
	return t, nil
}

func checkIns(docs []record.Document) ([]table.CheckIn, error) {
	const family = record.FamilyCheckIn
	out := make([]table.CheckIn, 0, len(docs))
	idx := newIDs(family, docs)

	for i, doc := range docs {
		id, err := idx.next(doc, i)
		if err != nil {
			return nil, err
		}
		created, err := requiredTime(doc, family, id, "createdAt")
		if err != nil {
			return nil, err
		}
		entity, err := owner(doc, family, id, "student")
		if err != nil {
			return nil, err
		}
		out = append(out, table.CheckIn{
			ID:          id,
			EntityID:    entity,
			CreatedAt:   created,
			MoodScore:   doc.Float("moodScore"),
			StressLevel: doc.Float("stressLevel"),
			Feedback:    doc.String("openEndedFeedback"),
		})
	}
	return out, nil
}

func students(docs []record.Document) ([]table.Student, error) {
	const family = record.FamilyStudent
	out := make([]table.Student, 0, len(docs))
	idx := newIDs(family, docs)

	for i, doc := range docs {
		id, err := idx.next(doc, i)
		if err != nil {
			return nil, err
		}
		last, err := optionalTime(doc, family, id, "lastActive")
		if err != nil {
			return nil, err
		}
		out = append(out, table.Student{ID: id, LastActive: last})
	}
	return out, nil
}

func counsellors(docs []record.Document) ([]table.Counsellor, error) {
	const family = record.FamilyCounsellor
	out := make([]table.Counsellor, 0, len(docs))
	idx := newIDs(family, docs)

	for i, doc := range docs {
		id, err := idx.next(doc, i)
		if err != nil {
			return nil, err
		}
		c := table.Counsellor{ID: id}
		if name := doc.String("name"); name != nil {
			c.Name = *name
		}
		out = append(out, c)
	}
	return out, nil
}

// Package seeddata generates deterministic synthetic raw records for local runs.
package seeddata

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/okian/mindstats/internal/adapters/repository"
	"github.com/okian/mindstats/internal/domain/record"
)

// namespace scopes the name-based ids of generated records.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://mindstats.local/seed")) //nolint:gochecknoglobals // fixed id namespace

type generator struct {
	cfg         Config
	rng         *rand.Rand
	students    []string
	counsellors []string
}

// Generate builds a batch from cfg. Equal configs yield equal batches.
func Generate(cfg Config) record.Batch {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now().UTC()
	}
	if cfg.Span <= 0 {
		cfg.Span = 30 * 24 * time.Hour
	}
	g := &generator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}

	var b record.Batch
	b.Counsellors = g.counsellorDocs()
	b.Students = g.studentDocs()
	b.Volunteers = g.volunteerDocs()
	b.ManualReports = g.manualDocs()
	b.GeneratedReports = g.generatedDocs()
	b.CheckIns = g.checkInDocs()
	return b
}

// Write stores every family of b through w.
func Write(ctx context.Context, w repository.RecordWriter, b record.Batch) error {
	for _, f := range record.Families() {
		docs := b.Get(f)
		if len(docs) == 0 {
			continue
		}
		if err := w.Write(ctx, f, docs...); err != nil {
			return fmt.Errorf("seed %s: %w", f, err)
		}
	}
	return nil
}

func id(f record.Family, i int) string {
	return uuid.NewSHA1(namespace, []byte(fmt.Sprintf("%s-%d", f, i))).String()
}

func (g *generator) pick(from []string) string { return from[g.rng.Intn(len(from))] }

func (g *generator) pickN(from []string, max int) []any {
	n := 1 + g.rng.Intn(max)
	out := make([]any, 0, n)
	for _, i := range g.rng.Perm(len(from))[:min(n, len(from))] {
		out = append(out, from[i])
	}
	return out
}

// at returns a time within the span, as a store would serialize it.
func (g *generator) at() time.Time {
	offset := time.Duration(g.rng.Int63n(int64(g.cfg.Span)))
	return g.cfg.Now.Add(-offset).Truncate(time.Second)
}

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func (g *generator) counsellorDocs() []record.Document {
	out := make([]record.Document, 0, g.cfg.Counsellors)
	for i := 0; i < g.cfg.Counsellors; i++ {
		cid := id(record.FamilyCounsellor, i)
		g.counsellors = append(g.counsellors, cid)
		out = append(out, record.Document{
			"_id":       cid,
			"name":      counsellorNames[i%len(counsellorNames)],
			"createdAt": stamp(g.cfg.Now.Add(-365 * 24 * time.Hour)),
		})
	}
	return out
}

func (g *generator) studentDocs() []record.Document {
	out := make([]record.Document, 0, g.cfg.Students)
	for i := 0; i < g.cfg.Students; i++ {
		sid := id(record.FamilyStudent, i)
		g.students = append(g.students, sid)
		doc := record.Document{"_id": sid, "createdAt": stamp(g.cfg.Now.Add(-180 * 24 * time.Hour))}
		// Roughly one in ten students has never been active.
		if g.rng.Intn(10) > 0 {
			doc["lastActive"] = stamp(g.at())
		}
		out = append(out, doc)
	}
	return out
}

func (g *generator) volunteerDocs() []record.Document {
	out := make([]record.Document, 0, g.cfg.Volunteers)
	for i := 0; i < g.cfg.Volunteers; i++ {
		out = append(out, record.Document{"_id": id(record.FamilyVolunteer, i), "name": fmt.Sprintf("Volunteer %d", i+1)})
	}
	return out
}

func (g *generator) manualDocs() []record.Document {
	if len(g.students) == 0 {
		return nil
	}
	out := make([]record.Document, 0, g.cfg.ManualReports)
	for i := 0; i < g.cfg.ManualReports; i++ {
		created := g.at()
		status := g.pick(statuses)
		doc := record.Document{
			"_id":       id(record.FamilyManualReport, i),
			"owner":     g.pick(g.students),
			"status":    status,
			"priority":  g.pick(priorities),
			"tags":      g.pickN(stressors, 2),
			"content":   g.pick(contents),
			"createdAt": stamp(created),
		}
		if status != "pending" && len(g.counsellors) > 0 {
			doc["assignedTo"] = g.pick(g.counsellors)
			doc["assignedAt"] = stamp(created.Add(time.Duration(1+g.rng.Intn(48)) * time.Hour))
		}
		if status == "resolved" || status == "closed" {
			doc["resolvedAt"] = stamp(created.Add(time.Duration(24+g.rng.Intn(24*10)) * time.Hour))
		}
		out = append(out, doc)
	}
	return out
}

func (g *generator) generatedDocs() []record.Document {
	if len(g.students) == 0 {
		return nil
	}
	out := make([]record.Document, 0, g.cfg.GeneratedReports)
	for i := 0; i < g.cfg.GeneratedReports; i++ {
		student := g.pick(g.students)
		standard := map[string]any{
			"student_id": student,
			"risk_assessment": map[string]any{
				"sentiment":           g.pick(sentiments),
				"emotional_intensity": g.pick(intensities),
				"risk_level":          g.pick(riskLevels),
				"red_flags":           g.pickN(redFlags, 2),
			},
			"screening_scores": map[string]any{
				"phq_9_score":    g.rng.Intn(28),
				"gad_7_score":    g.rng.Intn(22),
				"interpretation": g.pick(interpretations),
			},
			"analytics": map[string]any{
				"key_stressors_identified":    g.pickN(stressors, 3),
				"potential_underlying_issues": g.pickN(issues, 2),
			},
			"summary": map[string]any{
				"student_expressed_concerns": g.pickN(concerns, 2),
			},
		}
		demo := map[string]any{
			"student_summary":            g.pick(contents),
			"key_takeaways":              g.pickN(takeaways, 2),
			"suggested_first_steps":      g.pickN(firstSteps, 2),
			"student_expressed_concerns": g.pickN(concerns, 1),
			"suggested_resource_topics":  g.pickN(topics, 3),
		}
		doc := record.Document{
			"_id":       id(record.FamilyGeneratedReport, i),
			"student":   student,
			"createdAt": stamp(g.at()),
		}
		// Some generated reports only carry one of the two sub-reports.
		switch g.rng.Intn(6) {
		case 0:
			doc[record.KeyStandardReport] = map[string]any{record.KeyStandardContent: encode(standard)}
		case 1:
			doc[record.KeyDemoReport] = map[string]any{record.KeyDemoContent: encode(demo)}
		default:
			doc[record.KeyStandardReport] = map[string]any{record.KeyStandardContent: encode(standard)}
			doc[record.KeyDemoReport] = map[string]any{record.KeyDemoContent: encode(demo)}
		}
		out = append(out, doc)
	}
	return out
}

func (g *generator) checkInDocs() []record.Document {
	var out []record.Document
	n := 0
	for _, student := range g.students {
		// A minority of students trend low so outreach suggestions appear.
		low := g.rng.Intn(5) == 0
		for k := g.rng.Intn(g.cfg.CheckInsPerStudent + 1); k > 0; k-- {
			mood, stress := 2+g.rng.Intn(4), 1+g.rng.Intn(4)
			if low {
				mood, stress = 1+g.rng.Intn(2), 4+g.rng.Intn(2)
			}
			doc := record.Document{
				"_id":         id(record.FamilyCheckIn, n),
				"student":     student,
				"moodScore":   mood,
				"stressLevel": stress,
				"createdAt":   stamp(g.at()),
			}
			if fb := g.pick(feedback); fb != "" {
				doc["openEndedFeedback"] = fb
			}
			out = append(out, doc)
			n++
		}
	}
	return out
}

func encode(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(raw)
}

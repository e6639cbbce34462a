// Package snapshot seals the accumulated metrics of a run into an immutable,
// versioned and content-hashed result.
package snapshot

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/mindstats/internal/domain/record"
)

// Envelope keys written next to the metrics.
const (
	KeyID                = "_id"
	KeySnapshotVersion   = "snapshotVersion"
	KeySnapshotTimestamp = "snapshotTimestamp"
	KeyPeriodStart       = "periodStart"
	KeyPeriodEnd         = "periodEnd"
	KeyFiltersUsed       = "filtersUsed"
	KeyRawDataHash       = "rawDataHash"
)

const (
	dateLayout  = "20060102"
	stampLayout = "20060102150405"
	suffixLen   = 6
)

// Snapshot is one immutable, versioned result of a pipeline run.
type Snapshot struct {
	ID          string
	Version     string
	Timestamp   time.Time
	PeriodStart *time.Time
	PeriodEnd   *time.Time
	Metrics     map[string]any
	FiltersUsed map[string]any
	RawDataHash string
}

// AssembleInput carries everything besides the accumulator that goes into a snapshot.
type AssembleInput struct {
	Version     string
	PeriodStart *time.Time
	PeriodEnd   *time.Time
	Filters     map[string]any
	Manual      []record.Document
	Generated   []record.Document
	Now         time.Time
}

// VersionInfo is the listing entry of a stored snapshot.
type VersionInfo struct {
	ID          string     `json:"_id"`
	Version     string     `json:"snapshotVersion"`
	Timestamp   time.Time  `json:"snapshotTimestamp"`
	PeriodStart *time.Time `json:"periodStart,omitempty"`
	PeriodEnd   *time.Time `json:"periodEnd,omitempty"`
}

// Assemble copies acc and the filters into a new Snapshot and hashes the raw reports.
func Assemble(acc map[string]any, in AssembleInput) (*Snapshot, error) {
	hash, err := ContentHash(in.Manual, in.Generated, in.PeriodStart, in.PeriodEnd)
	if err != nil {
		return nil, err
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	filters := deepCopy(in.Filters)
	if filters == nil {
		filters = map[string]any{}
	}
	metrics := deepCopy(acc)
	if metrics == nil {
		metrics = map[string]any{}
	}
	return &Snapshot{
		Version:     in.Version,
		Timestamp:   now.UTC(),
		PeriodStart: utcPtr(in.PeriodStart),
		PeriodEnd:   utcPtr(in.PeriodEnd),
		Metrics:     metrics,
		FiltersUsed: filters,
		RawDataHash: hash,
	}, nil
}

// Clone returns a deep copy of s.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := *s
	out.PeriodStart = utcPtr(s.PeriodStart)
	out.PeriodEnd = utcPtr(s.PeriodEnd)
	out.Metrics = deepCopy(s.Metrics)
	out.FiltersUsed = deepCopy(s.FiltersUsed)
	return &out
}

// Info returns the listing entry of s.
func (s *Snapshot) Info() VersionInfo {
	return VersionInfo{
		ID:          s.ID,
		Version:     s.Version,
		Timestamp:   s.Timestamp,
		PeriodStart: s.PeriodStart,
		PeriodEnd:   s.PeriodEnd,
	}
}

// Document flattens the metrics and the envelope keys into one map, the shape
// dashboards read. Envelope keys win over metric keys of the same name.
func (s *Snapshot) Document() map[string]any {
	out := make(map[string]any, len(s.Metrics)+7)
	for k, v := range s.Metrics {
		out[k] = v
	}
	out[KeySnapshotVersion] = s.Version
	out[KeySnapshotTimestamp] = s.Timestamp
	out[KeyFiltersUsed] = s.FiltersUsed
	out[KeyRawDataHash] = s.RawDataHash
	if s.PeriodStart != nil {
		out[KeyPeriodStart] = *s.PeriodStart
	}
	if s.PeriodEnd != nil {
		out[KeyPeriodEnd] = *s.PeriodEnd
	}
	if s.ID != "" {
		out[KeyID] = s.ID
	}
	return out
}

// MarshalJSON encodes the flattened document.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Document())
}

// NewVersion builds "{prefix}-{YYYYMMDD}_to_{YYYYMMDD}-{hex6}" when both bounds
// are known and "{prefix}-{YYYYMMDDHHMMSS}-{hex6}" otherwise.
func NewVersion(prefix string, start, end *time.Time, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:suffixLen]
	if start != nil && end != nil {
		return fmt.Sprintf("%s-%s_to_%s-%s", prefix, start.UTC().Format(dateLayout), end.UTC().Format(dateLayout), suffix)
	}
	return fmt.Sprintf("%s-%s-%s", prefix, now.UTC().Format(stampLayout), suffix)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// deepCopy copies maps, slices and pointers recursively. Other values are
// copied by assignment.
func deepCopy(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return copyValue(reflect.ValueOf(m)).Interface().(map[string]any)
}

func copyValue(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		c := copyValue(v.Elem())
		out := reflect.New(v.Type()).Elem()
		out.Set(c)
		return out
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), copyValue(iter.Value()))
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(copyValue(v.Index(i)))
		}
		return out
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Elem().Type())
		out.Elem().Set(copyValue(v.Elem()))
		return out
	default:
		return v
	}
}

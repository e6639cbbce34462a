// Package record defines raw documents as fetched from the data store and the
// typed shapes of the sub-reports nested inside generated reports.
package record

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Document is one raw record exactly as fetched. Callers treat it as read-only.
type Document map[string]any

// Family identifies the collection a raw record belongs to.
type Family string

// Record families.
const (
	FamilyManualReport    Family = "manual_report"
	FamilyGeneratedReport Family = "generated_report"
	FamilyCheckIn         Family = "check_in"
	FamilyStudent         Family = "student"
	FamilyCounsellor      Family = "counsellor"
	FamilyVolunteer       Family = "volunteer"
)

// Families lists every family in fetch order.
func Families() []Family {
	return []Family{
		FamilyManualReport,
		FamilyGeneratedReport,
		FamilyCheckIn,
		FamilyStudent,
		FamilyCounsellor,
		FamilyVolunteer,
	}
}

// Ranged reports whether the family is filtered by creation time on fetch.
// Directories are always fetched in full.
func (f Family) Ranged() bool {
	switch f {
	case FamilyManualReport, FamilyGeneratedReport, FamilyCheckIn:
		return true
	default:
		return false
	}
}

// ParseFamily validates a family name.
func ParseFamily(s string) (Family, error) {
	for _, f := range Families() {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFamily, s)
}

// Batch holds every raw record of one run, grouped by family.
type Batch struct {
	ManualReports    []Document
	GeneratedReports []Document
	CheckIns         []Document
	Students         []Document
	Counsellors      []Document
	Volunteers       []Document
}

// Set stores docs under family.
func (b *Batch) Set(f Family, docs []Document) {
	switch f {
	case FamilyManualReport:
		b.ManualReports = docs
	case FamilyGeneratedReport:
		b.GeneratedReports = docs
	case FamilyCheckIn:
		b.CheckIns = docs
	case FamilyStudent:
		b.Students = docs
	case FamilyCounsellor:
		b.Counsellors = docs
	case FamilyVolunteer:
		b.Volunteers = docs
	}
}

// Get returns the documents stored under family.
func (b *Batch) Get(f Family) []Document {
	switch f {
	case FamilyManualReport:
		return b.ManualReports
	case FamilyGeneratedReport:
		return b.GeneratedReports
	case FamilyCheckIn:
		return b.CheckIns
	case FamilyStudent:
		return b.Students
	case FamilyCounsellor:
		return b.Counsellors
	case FamilyVolunteer:
		return b.Volunteers
	default:
		return nil
	}
}

// Counts reports the number of documents per family.
func (b *Batch) Counts() map[Family]int {
	out := make(map[Family]int, len(Families()))
	for _, f := range Families() {
		out[f] = len(b.Get(f))
	}
	return out
}

// Ref flattens an identifier reference into a string. It accepts plain
// strings, numbers and the wrapped forms {"$oid": ...} and {"_id": ...}.
// The second result is false when v carries no usable identifier.
func Ref(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case fmt.Stringer:
		s := t.String()
		return s, s != ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case map[string]any:
		for _, key := range []string{"$oid", "_id", "id"} {
			if inner, ok := t[key]; ok {
				return Ref(inner)
			}
		}
		return "", false
	case Document:
		return Ref(map[string]any(t))
	default:
		return fmt.Sprint(t), true
	}
}

// String returns the trimmed string at key, or nil when absent or not a string.
func (d Document) String(key string) *string {
	s, ok := d[key].(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Float returns the numeric value at key, or nil when absent or non-numeric.
func (d Document) Float(key string) *float64 {
	return toFloat(d[key])
}

// Strings returns the string items of the list at key. Non-string items and
// blank strings are skipped.
func (d Document) Strings(key string) []string {
	return toStrings(d[key])
}

// Keys returns the document keys in sorted order.
func (d Document) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func toFloat(v any) *float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	return &f
}

func toStrings(v any) []string {
	var out []string
	switch t := v.(type) {
	case []string:
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

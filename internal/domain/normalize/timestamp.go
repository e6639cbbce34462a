package normalize

import (
	"fmt"
	"strings"
	"time"
)

// layouts are tried in order for string timestamps. Layouts without a zone
// are read as UTC.
var layouts = []string{ //nolint:gochecknoglobals // fixed parse table
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp converts a raw timestamp value into UTC time. It accepts
// time.Time, RFC 3339 and naive ISO strings, epoch milliseconds and the
// {"$date": ...} wrapper. The second result is false for nil.
func ParseTimestamp(v any) (time.Time, bool, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false, nil
	case time.Time:
		return t.UTC(), true, nil
	case *time.Time:
		if t == nil {
			return time.Time{}, false, nil
		}
		return t.UTC(), true, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false, nil
		}
		for _, layout := range layouts {
			if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				return ts.UTC(), true, nil
			}
		}
		return time.Time{}, false, fmt.Errorf("unrecognised timestamp %q", s)
	case float64:
		return time.UnixMilli(int64(t)).UTC(), true, nil
	case int64:
		return time.UnixMilli(t).UTC(), true, nil
	case int:
		return time.UnixMilli(int64(t)).UTC(), true, nil
	case map[string]any:
		if inner, ok := t["$date"]; ok {
			return ParseTimestamp(inner)
		}
		return time.Time{}, false, fmt.Errorf("unrecognised timestamp object with %d keys", len(t))
	default:
		return time.Time{}, false, fmt.Errorf("unrecognised timestamp type %T", v)
	}
}

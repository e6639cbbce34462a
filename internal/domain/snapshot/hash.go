package snapshot

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/okian/mindstats/internal/domain/record"
)

// Keys of the hashed document.
const (
	hashKeyManual      = "raw_reports"
	hashKeyGenerated   = "raw_ai_reports"
	hashKeyPeriodStart = "period_start"
	hashKeyPeriodEnd   = "period_end"
)

// ContentHash digests the raw report documents and the interval. Keys are
// sorted at every depth and non-primitive values are coerced to strings, so the
// hex SHA-256 is reproducible for identical inputs.
func ContentHash(manual, generated []record.Document, start, end *time.Time) (string, error) {
	doc := map[string]any{
		hashKeyManual:      canonicalDocs(manual),
		hashKeyGenerated:   canonicalDocs(generated),
		hashKeyPeriodStart: canonicalTime(start),
		hashKeyPeriodEnd:   canonicalTime(end),
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("%w: %v", ErrHash, err)
	}
	sum := sha256.Sum256(bytes.TrimRight(buf.Bytes(), "\n"))
	return hex.EncodeToString(sum[:]), nil
}

func canonicalDocs(docs []record.Document) []any {
	out := make([]any, 0, len(docs))
	for _, d := range docs {
		out = append(out, canonical(map[string]any(d)))
	}
	return out
}

func canonicalTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// canonical rewrites v into maps, slices and primitives only. encoding/json
// sorts map keys, which gives the deterministic ordering.
func canonical(v any) any {
	switch x := v.(type) {
	case nil, string, bool, float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, json.Number:
		return x
	case record.Document:
		return canonical(map[string]any(x))
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = canonical(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = canonical(e)
		}
		return out
	case []string:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = e
		}
		return out
	case []record.Document:
		return canonicalDocs(x)
	case []map[string]any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = canonical(e)
		}
		return out
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case *time.Time:
		return canonicalTime(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}

package table

import "fmt"

// Policy decides which optional columns survive when tables are combined.
type Policy int

// Combine policies.
const (
	// PolicyUnion keeps every column of both tables; rows lacking a column carry null.
	PolicyUnion Policy = iota
	// PolicyIntersection keeps only columns present in both tables.
	PolicyIntersection
)

func (p Policy) String() string {
	switch p {
	case PolicyUnion:
		return "union"
	case PolicyIntersection:
		return "intersection"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy maps a configuration value to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "union":
		return PolicyUnion, nil
	case "intersection":
		return PolicyIntersection, nil
	default:
		return PolicyUnion, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// Combine concatenates manual and generated rows into one table. When one
// side is empty the other is returned unchanged regardless of policy.
func Combine(manual, generated Table, policy Policy) Table {
	if manual.Empty() {
		return clone(generated)
	}
	if generated.Empty() {
		return clone(manual)
	}

	var cols Columns
	switch policy {
	case PolicyIntersection:
		cols = manual.Columns.Intersect(generated.Columns)
	default:
		cols = manual.Columns.Union(generated.Columns)
	}

	rows := make([]Row, 0, manual.Len()+generated.Len())
	rows = append(rows, manual.Rows...)
	rows = append(rows, generated.Rows...)

	if policy == PolicyIntersection {
		dropped := manual.Columns.Union(generated.Columns)
		for c := range cols {
			delete(dropped, c)
		}
		for i := range rows {
			for c := range dropped {
				rows[i].clear(c)
			}
		}
	}

	return Table{Rows: rows, Columns: cols}
}

func clone(t Table) Table {
	rows := make([]Row, len(t.Rows))
	copy(rows, t.Rows)
	cols := make(Columns, len(t.Columns))
	for c := range t.Columns {
		cols[c] = struct{}{}
	}
	return Table{Rows: rows, Columns: cols}
}

package stages

import (
	"sort"
	"time"
)

// Report statuses with special meaning.
const (
	StatusResolved = "resolved"
	StatusClosed   = "closed"
	// StatusUnknown buckets manual reports without a status.
	StatusUnknown = "unknown"
)

// UnknownCounsellor names assignees missing from the counsellor directory.
const UnknownCounsellor = "Unknown Counsellor"

// CounsellorResolved is one entry of topCounsellorsByReportsResolved.
type CounsellorResolved struct {
	CounsellorID  string `json:"counsellorId"`
	Name          string `json:"name"`
	ResolvedCount int    `json:"resolvedCount"`
}

func isResolved(status *string) bool {
	return status != nil && *status == StatusResolved
}

// Resolution computes status counts, mean resolution time, the counsellors
// with most resolved reports and mean time to assignment over manual reports.
func Resolution(in Inputs) Delta {
	byStatus := make(map[string]int)
	var resolvedDays, assignHours []*float64
	perAssignee := make(map[string]int)

	for _, r := range in.Manual.Rows {
		status := StatusUnknown
		if r.Status != nil {
			status = *r.Status
		}
		byStatus[status]++

		if r.AssignedAt != nil {
			h := r.AssignedAt.Sub(r.CreatedAt).Hours()
			assignHours = append(assignHours, &h)
		}

		if !isResolved(r.Status) {
			continue
		}
		if r.ResolvedAt != nil {
			d := resolutionDays(r.CreatedAt, *r.ResolvedAt)
			resolvedDays = append(resolvedDays, &d)
		}
		if r.AssigneeID != nil {
			perAssignee[*r.AssigneeID]++
		}
	}

	avgDays, _ := mean(resolvedDays)
	avgAssign, _ := mean(assignHours)

	return Delta{
		KeyReportsByStatus:                 byStatus,
		KeyAvgReportResolutionTimeDays:     avgDays,
		KeyTopCounsellorsByReportsResolved: topCounsellors(perAssignee, in),
		KeyAvgTimeToAssignReportHours:      avgAssign,
	}
}

func topCounsellors(perAssignee map[string]int, in Inputs) []CounsellorResolved {
	names := make(map[string]string, len(in.Counsellors))
	for _, c := range in.Counsellors {
		names[c.ID] = c.Name
	}

	out := make([]CounsellorResolved, 0, len(perAssignee))
	for id, n := range perAssignee {
		name, ok := names[id]
		if !ok || name == "" {
			name = UnknownCounsellor
		}
		out = append(out, CounsellorResolved{CounsellorID: id, Name: name, ResolvedCount: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ResolvedCount != out[j].ResolvedCount {
			return out[i].ResolvedCount > out[j].ResolvedCount
		}
		return out[i].CounsellorID < out[j].CounsellorID
	})
	if len(out) > TopCounsellors {
		out = out[:TopCounsellors]
	}
	return out
}

// resolutionDays is the fractional day count between two instants.
func resolutionDays(created, resolved time.Time) float64 {
	return resolved.Sub(created).Hours() / 24
}

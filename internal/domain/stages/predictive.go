package stages

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/mindstats/internal/domain/table"
)

// Trailing-window heuristic parameters.
const (
	TrailingCheckIns = 3
	LowMoodMax       = 2.0
	HighStressMin    = 4.0
	LowMoodScore     = 0.6
	HighStressScore  = 0.7
	PriorityBonus    = 0.2
)

// priorityNote is appended to boosted justifications.
const priorityNote = " Open high-priority report on file."

// OutreachSuggestion is one entry of proactiveOutreachSuggestions.
type OutreachSuggestion struct {
	StudentID     string  `json:"studentId"`
	RiskScore     float64 `json:"riskScore"`
	Justification string  `json:"justification"`
}

// PredictiveRisk evaluates the last three check-ins of every student with at
// least three and suggests outreach for low mood or high stress.
func PredictiveRisk(in Inputs) Delta {
	groups := make(map[string][]table.CheckIn)
	for _, c := range in.CheckIns {
		groups[c.EntityID] = append(groups[c.EntityID], c)
	}

	entities := make([]string, 0, len(groups))
	for id := range groups {
		entities = append(entities, id)
	}
	sort.Strings(entities)

	var boosted map[string]bool
	if in.PriorityBoost {
		boosted = openHighPriorityOwners(in.Manual)
	}

	out := make([]OutreachSuggestion, 0)
	for _, id := range entities {
		group := groups[id]
		if len(group) < TrailingCheckIns {
			continue
		}
		sort.SliceStable(group, func(i, j int) bool { return group[i].CreatedAt.Before(group[j].CreatedAt) })
		tail := group[len(group)-TrailingCheckIns:]

		moods := make([]*float64, 0, TrailingCheckIns)
		stress := make([]*float64, 0, TrailingCheckIns)
		for _, c := range tail {
			moods = append(moods, c.MoodScore)
			stress = append(stress, c.StressLevel)
		}

		if avg, n := mean(moods); n > 0 && avg <= LowMoodMax {
			out = append(out, suggestion(id, LowMoodScore, fmt.Sprintf("Low mood (avg %.1f/5).", avg), boosted[id]))
		}
		if avg, n := mean(stress); n > 0 && avg >= HighStressMin {
			out = append(out, suggestion(id, HighStressScore, fmt.Sprintf("High stress (avg %.1f/5).", avg), boosted[id]))
		}
	}
	return Delta{KeyProactiveOutreachSuggestions: out}
}

func suggestion(id string, score float64, justification string, boost bool) OutreachSuggestion {
	if boost {
		score = math.Min(score+PriorityBonus, 1.0)
		justification += priorityNote
	}
	return OutreachSuggestion{StudentID: id, RiskScore: round2(score), Justification: justification}
}

// openHighPriorityOwners returns owners of manual reports that are neither
// resolved nor closed and carry a high or urgent priority.
func openHighPriorityOwners(manual table.Table) map[string]bool {
	out := make(map[string]bool)
	for _, r := range manual.Rows {
		if r.Priority == nil {
			continue
		}
		if p := *r.Priority; p != "high" && p != "urgent" {
			continue
		}
		if r.Status != nil && (*r.Status == StatusResolved || *r.Status == StatusClosed) {
			continue
		}
		out[r.OwnerID] = true
	}
	return out
}

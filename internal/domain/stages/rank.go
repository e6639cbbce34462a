package stages

import (
	"math"
	"sort"
)

// Ranked is one label with its frequency.
type Ranked struct {
	Label string
	Count int
}

// RankTopN counts items and returns at most n labels by descending count.
// Ties keep the order in which labels were first seen.
func RankTopN(items []string, n int) []Ranked {
	if n <= 0 || len(items) == 0 {
		return []Ranked{}
	}
	index := make(map[string]int, len(items))
	ranked := make([]Ranked, 0, len(items))
	for _, it := range items {
		if i, ok := index[it]; ok {
			ranked[i].Count++
			continue
		}
		index[it] = len(ranked)
		ranked = append(ranked, Ranked{Label: it, Count: 1})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Count > ranked[j].Count })
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// countLabels builds a label frequency map skipping nil entries.
func countLabels(values []*string) map[string]int {
	out := make(map[string]int)
	for _, v := range values {
		if v != nil {
			out[*v]++
		}
	}
	return out
}

// mean returns the arithmetic mean of the non-nil values and how many were used.
func mean(values []*float64) (float64, int) {
	var sum float64
	var n int
	for _, v := range values {
		if v == nil || math.IsNaN(*v) {
			continue
		}
		sum += *v
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n), n
}

// round2 rounds to two decimals for stable score output.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

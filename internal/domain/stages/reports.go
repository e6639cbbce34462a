package stages

import (
	"github.com/okian/mindstats/internal/domain/table"
)

// FlagCount is one entry of topRedFlags.
type FlagCount struct {
	Flag  string `json:"flag"`
	Count int    `json:"count"`
}

// StressorCount is one entry of topStressors.
type StressorCount struct {
	Stressor string `json:"stressor"`
	Count    int    `json:"count"`
}

// ConcernCount is one entry of topStudentConcerns.
type ConcernCount struct {
	Concern string `json:"concern"`
	Count   int    `json:"count"`
}

// TopicCount is one entry of topSuggestedResourceTopics.
type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// SentimentRisk counts sentiment and risk-level categories over the unified
// table and ranks red flags.
func SentimentRisk(in Inputs) Delta {
	var sentiments, risks []*string
	var flags []string
	if in.Unified.Has(table.ColSentiment) || in.Unified.Has(table.ColRiskLevel) || in.Unified.Has(table.ColRedFlags) {
		for _, r := range in.Unified.Rows {
			sentiments = append(sentiments, r.Sentiment)
			risks = append(risks, r.RiskLevel)
			flags = append(flags, r.RedFlags...)
		}
	}

	top := make([]FlagCount, 0, TopLabels)
	for _, r := range RankTopN(flags, TopLabels) {
		top = append(top, FlagCount{Flag: r.Label, Count: r.Count})
	}

	return Delta{
		KeySentimentDistribution: countLabels(sentiments),
		KeyRiskLevelDistribution: countLabels(risks),
		KeyTopRedFlags:           top,
	}
}

// ScreeningScores averages and bins PHQ-9 and GAD-7 estimates. A column the
// unified table does not carry averages to 0.0 and bins to all zeros.
func ScreeningScores(in Inputs) Delta {
	phq, gad := PHQ9Bins(), GAD7Bins()
	d := Delta{
		KeyAvgPHQ9:                         0.0,
		KeyAvgGAD7:                         0.0,
		KeyAvgGHQ:                          0.0,
		KeyPHQ9Distribution:                phq.Empty(),
		KeyGAD7Distribution:                gad.Empty(),
		KeyScoreInterpretationDistribution: map[string]int{},
	}
	if in.Unified.Empty() {
		return d
	}

	if in.Unified.Has(table.ColPHQ9) {
		values := make([]*float64, 0, in.Unified.Len())
		for _, r := range in.Unified.Rows {
			values = append(values, r.PHQ9)
		}
		d[KeyAvgPHQ9], _ = mean(values)
		d[KeyPHQ9Distribution] = phq.Count(values)
	}
	if in.Unified.Has(table.ColGAD7) {
		values := make([]*float64, 0, in.Unified.Len())
		for _, r := range in.Unified.Rows {
			values = append(values, r.GAD7)
		}
		d[KeyAvgGAD7], _ = mean(values)
		d[KeyGAD7Distribution] = gad.Count(values)
	}
	if in.Unified.Has(table.ColInterpretation) {
		values := make([]*string, 0, in.Unified.Len())
		for _, r := range in.Unified.Rows {
			values = append(values, r.Interpretation)
		}
		d[KeyScoreInterpretationDistribution] = countLabels(values)
	}
	return d
}

// StressorsConcerns ranks stressors (generated analytics plus manual tags) and
// student concerns over the unified table.
func StressorsConcerns(in Inputs) Delta {
	var stressors, concerns []string
	for _, r := range in.Unified.Rows {
		stressors = append(stressors, r.Stressors...)
		stressors = append(stressors, r.Tags...)
		concerns = append(concerns, r.Concerns...)
	}

	topStressors := make([]StressorCount, 0, TopLabels)
	for _, r := range RankTopN(stressors, TopLabels) {
		topStressors = append(topStressors, StressorCount{Stressor: r.Label, Count: r.Count})
	}
	topConcerns := make([]ConcernCount, 0, TopLabels)
	for _, r := range RankTopN(concerns, TopLabels) {
		topConcerns = append(topConcerns, ConcernCount{Concern: r.Label, Count: r.Count})
	}

	return Delta{
		KeyTopStressors:       topStressors,
		KeyTopStudentConcerns: topConcerns,
	}
}

// ResourceTopics ranks suggested resource topics of generated reports only.
func ResourceTopics(in Inputs) Delta {
	var topics []string
	for _, r := range in.Generated.Rows {
		topics = append(topics, r.ResourceTopics...)
	}

	top := make([]TopicCount, 0, TopLabels)
	for _, r := range RankTopN(topics, TopLabels) {
		top = append(top, TopicCount{Topic: r.Label, Count: r.Count})
	}
	return Delta{KeyTopSuggestedResourceTopics: top}
}

// Totals counts reports per family.
func Totals(in Inputs) Delta {
	return Delta{
		KeyTotalReports:       in.Manual.Len() + in.Generated.Len(),
		KeyTotalManualReports: in.Manual.Len(),
		KeyTotalAIReports:     in.Generated.Len(),
	}
}

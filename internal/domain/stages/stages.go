// Package stages implements the metric aggregators of a snapshot run. Every
// stage is a total function from immutable Inputs to a Delta of metric keys;
// none of them sees or mutates the accumulated result.
package stages

import (
	"time"

	"github.com/okian/mindstats/internal/domain/table"
)

// DefaultWindow is the trailing engagement window used when no bounds are given.
const DefaultWindow = 30 * 24 * time.Hour

// Metric keys written by the stages.
const (
	KeySentimentDistribution           = "sentimentDistribution"
	KeyRiskLevelDistribution           = "riskLevelDistribution"
	KeyTopRedFlags                     = "topRedFlags"
	KeyAvgPHQ9                         = "avgPHQ9"
	KeyAvgGAD7                         = "avgGAD7"
	KeyAvgGHQ                          = "avgGHQ"
	KeyPHQ9Distribution                = "phq9Distribution"
	KeyGAD7Distribution                = "gad7Distribution"
	KeyScoreInterpretationDistribution = "scoreInterpretationDistribution"
	KeyTopStressors                    = "topStressors"
	KeyTopStudentConcerns              = "topStudentConcerns"
	KeyTopSuggestedResourceTopics      = "topSuggestedResourceTopics"
	KeyReportsByStatus                 = "reportsByStatus"
	KeyAvgReportResolutionTimeDays     = "avgReportResolutionTimeDays"
	KeyTopCounsellorsByReportsResolved = "topCounsellorsByReportsResolved"
	KeyAvgTimeToAssignReportHours      = "avgTimeToAssignReportHours"
	KeyTotalStudentsEngaged            = "totalStudentsEngaged"
	KeyActiveStudentsDaily             = "activeStudentsDaily"
	KeyActiveStudentsWeekly            = "activeStudentsWeekly"
	KeyActiveStudentsMonthly           = "activeStudentsMonthly"
	KeyProactiveOutreachSuggestions    = "proactiveOutreachSuggestions"
	KeyTotalReports                    = "totalReports"
	KeyTotalManualReports              = "totalManualReports"
	KeyTotalAIReports                  = "totalAIReports"
	KeyEmergingThemes                  = "emergingThemes"
)

// Ranking caps.
const (
	TopLabels      = 10
	TopCounsellors = 5
)

// Delta maps metric names to values produced by one stage.
type Delta map[string]any

// Inputs is everything a stage may read. Stages treat it as read-only.
type Inputs struct {
	Unified   table.Table
	Manual    table.Table
	Generated table.Table

	CheckIns    []table.CheckIn
	Students    []table.Student
	Counsellors []table.Counsellor

	PeriodStart *time.Time
	PeriodEnd   *time.Time
	Now         time.Time
	// Window replaces DefaultWindow when positive.
	Window time.Duration

	// PriorityBoost raises outreach scores of owners with open high-priority reports.
	PriorityBoost bool
}

// Bounds resolves the inclusive period, defaulting the end to Now and the
// start to end minus the window.
func (in Inputs) Bounds() (time.Time, time.Time) {
	end := in.Now
	if end.IsZero() {
		end = time.Now().UTC()
	}
	if in.PeriodEnd != nil {
		end = *in.PeriodEnd
	}
	window := in.Window
	if window <= 0 {
		window = DefaultWindow
	}
	start := end.Add(-window)
	if in.PeriodStart != nil {
		start = *in.PeriodStart
	}
	return start, end
}

// Func is the signature shared by every stage.
type Func func(Inputs) Delta

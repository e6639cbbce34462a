package record

import (
	"encoding/json"
)

// Keys of the two sub-reports carried by a generated report.
const (
	KeyStandardReport = "standard_report"
	KeyDemoReport     = "demo_report"
)

// Wrapper keys whose string value is the JSON-encoded sub-report.
const (
	KeyStandardContent = "standard_content"
	KeyDemoContent     = "demo_content"
)

// maxUnwrapDepth bounds nested wrapper decoding.
const maxUnwrapDepth = 4

// StandardReport is the clinician-facing sub-report of a generated report.
// Every level is optional.
type StandardReport struct {
	StudentID                *string
	ChatSummary              *string
	RiskAssessment           *RiskAssessment
	ScreeningScores          *ScreeningScores
	CounselorRecommendations *CounselorRecommendations
	Analytics                *ReportAnalytics
	Summary                  *ReportSummary
}

// RiskAssessment is the risk block of a standard report.
type RiskAssessment struct {
	Sentiment          *string
	EmotionalIntensity *string
	RiskLevel          *string
	RedFlags           []string
}

// ScreeningScores holds estimated questionnaire scores.
type ScreeningScores struct {
	PHQ9           *float64
	GAD7           *float64
	Interpretation *string
}

// CounselorRecommendations lists next steps suggested to the counsellor.
type CounselorRecommendations struct {
	SuggestedNextSteps []string
}

// ReportAnalytics is the clinical analytics block of a standard report.
type ReportAnalytics struct {
	KeyStressorsIdentified    []string
	PotentialUnderlyingIssues []string
}

// ReportSummary carries the concerns voiced by the student.
type ReportSummary struct {
	StudentExpressedConcerns []string
}

// DemoReport is the student-facing sub-report of a generated report.
type DemoReport struct {
	StudentSummary           *string
	KeyTakeaways             []string
	SuggestedFirstSteps      []string
	StudentExpressedConcerns []string
	SuggestedResourceTopics  []string
}

// Unwrap resolves a sub-report value into a document. JSON strings and
// {contentKey: "<json>"} wrappers are decoded recursively; no other key is
// treated as a wrapper. A wrapper whose payload does not decode is kept as is.
// Any other undecodable value yields an empty document.
func Unwrap(v any, contentKey string) Document {
	return unwrap(v, contentKey, 0)
}

func unwrap(v any, contentKey string, depth int) Document {
	if depth > maxUnwrapDepth {
		return Document{}
	}
	switch t := v.(type) {
	case Document:
		return unwrapMap(t, contentKey, depth)
	case map[string]any:
		return unwrapMap(t, contentKey, depth)
	case string:
		decoded, ok := decodeJSON(t)
		if !ok {
			return Document{}
		}
		return unwrap(decoded, contentKey, depth+1)
	case []byte:
		return unwrap(string(t), contentKey, depth)
	default:
		return Document{}
	}
}

func unwrapMap(m map[string]any, contentKey string, depth int) Document {
	payload, ok := m[contentKey].(string)
	if !ok || depth >= maxUnwrapDepth {
		return Document(m)
	}
	decoded, ok := decodeJSON(payload)
	if !ok {
		return Document(m)
	}
	switch decoded.(type) {
	case map[string]any, string:
		return unwrap(decoded, contentKey, depth+1)
	default:
		return Document(m)
	}
}

func decodeJSON(s string) (any, bool) {
	var decoded any
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		return nil, false
	}
	return decoded, true
}

// sub returns the nested document at key, or nil when absent.
func (d Document) sub(key string) Document {
	switch t := d[key].(type) {
	case map[string]any:
		return Document(t)
	case Document:
		return t
	default:
		return nil
	}
}

// DecodeStandardReport projects v into a StandardReport.
func DecodeStandardReport(v any) StandardReport {
	doc := Unwrap(v, KeyStandardContent)
	out := StandardReport{
		StudentID:   doc.String("student_id"),
		ChatSummary: doc.String("chat_summary"),
	}
	if ra := doc.sub("risk_assessment"); ra != nil {
		out.RiskAssessment = &RiskAssessment{
			Sentiment:          ra.String("sentiment"),
			EmotionalIntensity: ra.String("emotional_intensity"),
			RiskLevel:          ra.String("risk_level"),
			RedFlags:           ra.Strings("red_flags"),
		}
	}
	if ss := doc.sub("screening_scores"); ss != nil {
		out.ScreeningScores = &ScreeningScores{
			PHQ9:           ss.Float("phq_9_score"),
			GAD7:           ss.Float("gad_7_score"),
			Interpretation: ss.String("interpretation"),
		}
	}
	if cr := doc.sub("counselor_recommendations"); cr != nil {
		out.CounselorRecommendations = &CounselorRecommendations{
			SuggestedNextSteps: cr.Strings("suggested_next_steps"),
		}
	}
	if an := doc.sub("analytics"); an != nil {
		out.Analytics = &ReportAnalytics{
			KeyStressorsIdentified:    an.Strings("key_stressors_identified"),
			PotentialUnderlyingIssues: an.Strings("potential_underlying_issues"),
		}
	}
	if sm := doc.sub("summary"); sm != nil {
		out.Summary = &ReportSummary{
			StudentExpressedConcerns: sm.Strings("student_expressed_concerns"),
		}
	}
	return out
}

// DecodeDemoReport projects v into a DemoReport.
func DecodeDemoReport(v any) DemoReport {
	doc := Unwrap(v, KeyDemoContent)
	return DemoReport{
		StudentSummary:           doc.String("student_summary"),
		KeyTakeaways:             doc.Strings("key_takeaways"),
		SuggestedFirstSteps:      doc.Strings("suggested_first_steps"),
		StudentExpressedConcerns: doc.Strings("student_expressed_concerns"),
		SuggestedResourceTopics:  doc.Strings("suggested_resource_topics"),
	}
}

// Sentiment returns the risk-assessment sentiment, if any.
func (r StandardReport) Sentiment() *string {
	if r.RiskAssessment == nil {
		return nil
	}
	return r.RiskAssessment.Sentiment
}

// RiskLevel returns the assessed risk level, if any.
func (r StandardReport) RiskLevel() *string {
	if r.RiskAssessment == nil {
		return nil
	}
	return r.RiskAssessment.RiskLevel
}

// RedFlags returns the detected red flags.
func (r StandardReport) RedFlags() []string {
	if r.RiskAssessment == nil {
		return nil
	}
	return r.RiskAssessment.RedFlags
}

// PHQ9 returns the PHQ-9 estimate, if any.
func (r StandardReport) PHQ9() *float64 {
	if r.ScreeningScores == nil {
		return nil
	}
	return r.ScreeningScores.PHQ9
}

// GAD7 returns the GAD-7 estimate, if any.
func (r StandardReport) GAD7() *float64 {
	if r.ScreeningScores == nil {
		return nil
	}
	return r.ScreeningScores.GAD7
}

// Interpretation returns the free-text score interpretation, if any.
func (r StandardReport) Interpretation() *string {
	if r.ScreeningScores == nil {
		return nil
	}
	return r.ScreeningScores.Interpretation
}

// Stressors returns the identified key stressors.
func (r StandardReport) Stressors() []string {
	if r.Analytics == nil {
		return nil
	}
	return r.Analytics.KeyStressorsIdentified
}

// Concerns returns the concerns listed in the summary block.
func (r StandardReport) Concerns() []string {
	if r.Summary == nil {
		return nil
	}
	return r.Summary.StudentExpressedConcerns
}

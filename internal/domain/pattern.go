package domain

import "time"

// Scope is the key under which patterns and insights are replaced
// together. An empty Industry is the all-industries scope.
type Scope struct {
	Industry string `json:"industry,omitempty"`
}

// Global reports whether the scope spans every industry.
func (s Scope) Global() bool { return s.Industry == "" }

// Key is a stable string form of the scope, used for locks and ledgers.
func (s Scope) Key() string {
	if s.Global() {
		return "industry:*"
	}
	return "industry:" + s.Industry
}

// PatternRecord is the lift statistic for one (analysis type, field, value)
// within a scope.
type PatternRecord struct {
	ID              int64        `json:"id" db:"id"`
	AnalysisType    AnalysisType `json:"analysis_type" db:"analysis_type"`
	FieldName       string       `json:"field_name" db:"field_name"`
	FieldValue      string       `json:"field_value" db:"field_value"`
	SuccessfulCount int          `json:"successful_count" db:"successful_count"`
	SuccessfulRatio float64      `json:"successful_ratio" db:"successful_ratio"`
	GeneralCount    int          `json:"general_count" db:"general_count"`
	GeneralRatio    float64      `json:"general_ratio" db:"general_ratio"`
	Lift            float64      `json:"lift" db:"lift"`
	IsPattern       bool         `json:"is_pattern" db:"is_pattern"`
	Industry        string       `json:"industry,omitempty" db:"industry"`
	CreatedAt       time.Time    `json:"created_at" db:"created_at"`
}

// InsightType enumerates the kinds of generated insight rows.
type InsightType string

const (
	InsightFormula  InsightType = "formula"
	InsightInsight  InsightType = "insight"
	InsightStrategy InsightType = "strategy"
)

// Valid reports whether t is a known insight type.
func (t InsightType) Valid() bool {
	switch t {
	case InsightFormula, InsightInsight, InsightStrategy:
		return true
	}
	return false
}

// Insight is a generated text artifact derived from the current patterns.
type Insight struct {
	ID                 int64       `json:"id" db:"id"`
	Type               InsightType `json:"type" db:"insight_type"`
	Title              string      `json:"title" db:"title"`
	Description        string      `json:"description" db:"description"`
	SupportingPatterns []string    `json:"supporting_patterns,omitempty" db:"supporting_patterns"`
	Confidence         float64     `json:"confidence" db:"confidence"`
	Industry           string      `json:"industry,omitempty" db:"industry"`
	GeneratedAt        time.Time   `json:"generated_at" db:"generated_at"`
}

// InsightItem is a titled entry in a generated formula.
type InsightItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Formula is the structured output of summary generation.
type Formula struct {
	Formula    string        `json:"formula"`
	Insights   []InsightItem `json:"insights"`
	Strategies []InsightItem `json:"strategies"`
	Confidence float64       `json:"confidence"`
}

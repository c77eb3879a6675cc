package domain

import "time"

// SuccessScore is the derived score for one ad. It is recomputed wholesale
// on every scoring run and keyed by the ad identifier.
type SuccessScore struct {
	AdID             string    `json:"ad_id" db:"ad_id"`
	DurationScore    float64   `json:"duration_score" db:"duration_score"`
	ImpressionsScore float64   `json:"impressions_score" db:"impressions_score"`
	TotalScore       float64   `json:"total_score" db:"total_score"`
	Percentile       int       `json:"percentile" db:"percentile"`
	IsSuccessful     bool      `json:"is_successful" db:"is_successful"`
	CalculatedAt     time.Time `json:"calculated_at" db:"calculated_at"`
}

// ScoringStats summarizes the stored score table.
type ScoringStats struct {
	TotalScored         int     `json:"total_scored"`
	SuccessfulCount     int     `json:"successful_count"`
	SuccessRate         float64 `json:"success_rate"`
	AvgTotalScore       float64 `json:"avg_total_score"`
	AvgDurationScore    float64 `json:"avg_duration_score"`
	AvgImpressionsScore float64 `json:"avg_impressions_score"`
	MaxScore            float64 `json:"max_score"`
	MinScore            float64 `json:"min_score"`
}

package scoring

import (
	"time"

	"github.com/ignite/ad-insights/internal/domain"
)

// Input is the slice of an ad the scoring functions read.
type Input struct {
	AdID             string
	DurationDays     int
	ImpressionsLower *int64
	ImpressionsUpper *int64
}

// InputFromAd projects an ad onto an Input, measuring open-ended ads up to today.
func InputFromAd(ad domain.Ad, today time.Time) Input {
	return Input{
		AdID:             ad.AdID,
		DurationDays:     ad.DurationDays(today),
		ImpressionsLower: ad.ImpressionsLower,
		ImpressionsUpper: ad.ImpressionsUpper,
	}
}

// Result is one ranked, classified ad.
type Result struct {
	AdID             string
	DurationScore    float64
	ImpressionsScore float64
	TotalScore       float64
	Percentile       int
	IsSuccessful     bool
}

// Score converts the result into the stored form.
func (r Result) Score(at time.Time) domain.SuccessScore {
	return domain.SuccessScore{
		AdID:             r.AdID,
		DurationScore:    r.DurationScore,
		ImpressionsScore: r.ImpressionsScore,
		TotalScore:       r.TotalScore,
		Percentile:       r.Percentile,
		IsSuccessful:     r.IsSuccessful,
		CalculatedAt:     at,
	}
}

// Summary holds the aggregate counters of one ranking run.
type Summary struct {
	Calculated        int     `json:"calculated"`
	Successful        int     `json:"successful"`
	MaxImpressionsMid float64 `json:"max_impressions_mid"`
}

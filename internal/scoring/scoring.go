// Package scoring turns an ad's run length and impressions range into a
// success score and classifies the top of the ranked population as
// successful.
//
// Everything here is a pure function of its inputs. Scores are coupled to
// the population only through the maximum impressions midpoint, which the
// caller computes once per run.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// ErrNegativeDuration is returned by RankAndClassify when an input has a
// stop date before its start date.
var ErrNegativeDuration = errors.New("scoring: negative duration")

// SuccessPercentile is the lowest percentile classified as successful.
const SuccessPercentile = 80

// Weights combines the duration and impressions scores into a total.
type Weights struct {
	Duration    float64 `yaml:"duration_weight"`
	Impressions float64 `yaml:"impressions_weight"`
}

// DefaultWeights puts 40% on duration and 60% on impressions.
var DefaultWeights = Weights{Duration: 0.4, Impressions: 0.6}

// Total returns d*w.Duration + i*w.Impressions.
func (w Weights) Total(d, i float64) float64 {
	return d*w.Duration + i*w.Impressions
}

// ScoreDuration maps a run length in days onto 0-100 along a five-segment
// ramp: 20 points per segment, with segment ends at 7, 14, 30 and 60 days
// and saturation at 90. It panics on a negative input.
func ScoreDuration(days int) float64 {
	if days < 0 {
		panic(fmt.Sprintf("scoring: negative duration %d", days))
	}
	d := float64(days)
	switch {
	case days <= 7:
		return d / 7 * 20
	case days <= 14:
		return 20 + (d-7)/7*20
	case days <= 30:
		return 40 + (d-14)/16*20
	case days <= 60:
		return 60 + (d-30)/30*20
	default:
		return 80 + math.Min(20, (d-60)/30*20)
	}
}

// ImpressionsMid returns the midpoint of an impressions range. A missing
// lower bound counts as 0 and a missing upper bound falls back to the
// lower bound. ok is false when both bounds are absent.
func ImpressionsMid(lower, upper *int64) (mid float64, ok bool) {
	lo := valueOr(lower, 0)
	hi := valueOr(upper, 0)
	if lo == 0 && hi == 0 {
		return 0, false
	}
	if hi == 0 {
		hi = lo
	}
	return (float64(lo) + float64(hi)) / 2, true
}

// ScoreImpressions log-normalizes an ad's impressions midpoint against the
// largest midpoint in the population: min(100, ln(mid+1)/ln(maxMid+1)*100).
// An absent or non-positive range scores 0; any positive midpoint scores
// 100 when maxMid <= 1.
func ScoreImpressions(lower, upper *int64, maxMid float64) float64 {
	mid, ok := ImpressionsMid(lower, upper)
	if !ok || mid <= 0 {
		return 0
	}
	if maxMid <= 1 {
		return 100
	}
	return math.Min(100, math.Log(mid+1)/math.Log(maxMid+1)*100)
}

// ScoreTotal combines component scores with DefaultWeights.
func ScoreTotal(durationScore, impressionsScore float64) float64 {
	return DefaultWeights.Total(durationScore, impressionsScore)
}

// MaxImpressionsMid is the largest impressions midpoint over inputs, or 1
// when no input has a positive midpoint.
func MaxImpressionsMid(inputs []Input) float64 {
	best := 0.0
	for _, in := range inputs {
		if mid, ok := ImpressionsMid(in.ImpressionsLower, in.ImpressionsUpper); ok && mid > best {
			best = mid
		}
	}
	if best <= 0 {
		return 1
	}
	return best
}

// Percentile is the rank-based percentile of 0-indexed rank in a
// population of n: floor((n-rank)/n*100).
func Percentile(rank, n int) int {
	if n <= 0 {
		return 0
	}
	return (n - rank) * 100 / n
}

// Round rounds v half away from zero to places decimal places.
func Round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// Engine ranks a population with a fixed weighting and success cutoff.
type Engine struct {
	Weights           Weights
	SuccessPercentile int
}

// NewEngine returns an Engine, substituting defaults for zero values.
func NewEngine(w Weights, successPercentile int) Engine {
	if w.Duration == 0 && w.Impressions == 0 {
		w = DefaultWeights
	}
	if successPercentile <= 0 {
		successPercentile = SuccessPercentile
	}
	return Engine{Weights: w, SuccessPercentile: successPercentile}
}

// RankAndClassify scores every input, ranks by rounded total descending
// (ties by ad ID ascending) and assigns percentiles. Stored scores are
// rounded to two decimals. Inputs are not modified.
func (e Engine) RankAndClassify(inputs []Input) ([]Result, Summary, error) {
	for _, in := range inputs {
		if in.DurationDays < 0 {
			return nil, Summary{}, fmt.Errorf("%w: ad %s has %d days", ErrNegativeDuration, in.AdID, in.DurationDays)
		}
	}

	maxMid := MaxImpressionsMid(inputs)
	results := make([]Result, len(inputs))
	for i, in := range inputs {
		d := ScoreDuration(in.DurationDays)
		imp := ScoreImpressions(in.ImpressionsLower, in.ImpressionsUpper, maxMid)
		results[i] = Result{
			AdID:             in.AdID,
			DurationScore:    Round(d, 2),
			ImpressionsScore: Round(imp, 2),
			TotalScore:       Round(e.Weights.Total(d, imp), 2),
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].TotalScore != results[j].TotalScore {
			return results[i].TotalScore > results[j].TotalScore
		}
		return results[i].AdID < results[j].AdID
	})

	sum := Summary{Calculated: len(results), MaxImpressionsMid: maxMid}
	for i := range results {
		results[i].Percentile = Percentile(i, len(results))
		results[i].IsSuccessful = results[i].Percentile >= e.SuccessPercentile
		if results[i].IsSuccessful {
			sum.Successful++
		}
	}
	return results, sum, nil
}

// RankAndClassify ranks inputs with the default engine.
func RankAndClassify(inputs []Input) ([]Result, Summary, error) {
	return NewEngine(DefaultWeights, SuccessPercentile).RankAndClassify(inputs)
}

func valueOr(p *int64, def int64) int64 {
	if p == nil {
		return def
	}
	return *p
}

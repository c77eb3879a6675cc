// Package pattern finds categorical analysis values that are
// over-represented among successful ads.
//
// For each field it counts value frequencies in the successful and general
// populations and reports lift, the ratio of the two prevalences. Values
// with lift at or above the threshold are flagged as patterns. Fields with
// too few observations in either population are skipped.
package pattern

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ignite/ad-insights/internal/domain"
)

const (
	// MinSupport is the fewest counted observations a population needs
	// for a field to be mined.
	MinSupport = 5
	// LiftThreshold is the lowest lift flagged as a pattern.
	LiftThreshold = 1.5
	// InfiniteLift is stored in place of an unbounded lift, when a value
	// never occurs in the general population.
	InfiniteLift = 99.99
)

// Engine mines field patterns with fixed thresholds.
type Engine struct {
	MinSupport    int
	LiftThreshold float64
	FieldSets     []FieldSet
}

// NewEngine returns an Engine over DefaultFieldSets, substituting the
// package defaults for zero thresholds.
func NewEngine(minSupport int, liftThreshold float64) Engine {
	if minSupport <= 0 {
		minSupport = MinSupport
	}
	if liftThreshold <= 0 {
		liftThreshold = LiftThreshold
	}
	return Engine{MinSupport: minSupport, LiftThreshold: liftThreshold, FieldSets: DefaultFieldSets}
}

// Partition splits ads into successful and general by their attached
// score. Ads without a score are in neither.
func Partition(ads []domain.Ad) (successful, general []domain.Ad) {
	for _, ad := range ads {
		switch {
		case ad.SuccessScore == nil:
		case ad.SuccessScore.IsSuccessful:
			successful = append(successful, ad)
		default:
			general = append(general, ad)
		}
	}
	return successful, general
}

// Run mines every field set of the engine. Records come out grouped by
// field set, then field, then value ascending.
func (e Engine) Run(successful, general []domain.Ad, industry string) []domain.PatternRecord {
	var out []domain.PatternRecord
	for _, fs := range e.FieldSets {
		out = append(out, e.AnalyzeFieldPatterns(successful, general, fs)...)
	}
	for i := range out {
		out[i].Industry = industry
	}
	return out
}

// AnalyzeFieldPatterns emits one record per observed value of every field
// in fs that meets the minimum support in both populations, whether or not
// the value is a pattern.
func (e Engine) AnalyzeFieldPatterns(successful, general []domain.Ad, fs FieldSet) []domain.PatternRecord {
	var out []domain.PatternRecord
	for _, field := range fs.Fields {
		sCounts, sTotal := countValues(successful, fs.Get, field)
		gCounts, gTotal := countValues(general, fs.Get, field)
		if sTotal < e.MinSupport || gTotal < e.MinSupport {
			continue
		}
		for _, value := range unionKeys(sCounts, gCounts) {
			sc, gc := sCounts[value], gCounts[value]
			l := computeLift(sc, sTotal, gc, gTotal)
			out = append(out, domain.PatternRecord{
				AnalysisType:    fs.Type,
				FieldName:       field,
				FieldValue:      value,
				SuccessfulCount: sc,
				SuccessfulRatio: ratio(sc, sTotal),
				GeneralCount:    gc,
				GeneralRatio:    ratio(gc, gTotal),
				Lift:            l.stored(),
				IsPattern:       l.atLeast(e.LiftThreshold),
			})
		}
	}
	return out
}

// AnalyzeFieldPatterns mines fs with the default thresholds.
func AnalyzeFieldPatterns(successful, general []domain.Ad, fs FieldSet) []domain.PatternRecord {
	return NewEngine(MinSupport, LiftThreshold).AnalyzeFieldPatterns(successful, general, fs)
}

// countValues tallies field values over ads that carry the analysis record
// and a value for the field. Other ads count toward nothing.
func countValues(ads []domain.Ad, get Accessor, field string) (map[string]int, int) {
	counts := make(map[string]int)
	total := 0
	for _, ad := range ads {
		src := get(ad)
		if src == nil {
			continue
		}
		v, ok := src.FieldValue(field)
		if !ok {
			continue
		}
		counts[v]++
		total++
	}
	return counts, total
}

func unionKeys(a, b map[string]int) []string {
	keys := make([]string, 0, len(a)+len(b))
	for k := range a {
		keys = append(keys, k)
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// ratio is count/total rounded to four places. total is always positive here.
func ratio(count, total int) float64 {
	f, _ := decimal.NewFromInt(int64(count)).
		Div(decimal.NewFromInt(int64(total))).
		Round(4).Float64()
	return f
}

// lift is (sc/sTotal)/(gc/gTotal) held exactly, so threshold comparisons
// are not disturbed by float representation error.
type lift struct {
	value    decimal.Decimal
	infinite bool
}

func computeLift(sc, sTotal, gc, gTotal int) lift {
	if gc == 0 {
		return lift{infinite: sc > 0}
	}
	num := decimal.NewFromInt(int64(sc) * int64(gTotal))
	den := decimal.NewFromInt(int64(gc) * int64(sTotal))
	return lift{value: num.Div(den)}
}

func (l lift) stored() float64 {
	if l.infinite {
		return InfiniteLift
	}
	f, _ := l.value.Round(2).Float64()
	return f
}

func (l lift) atLeast(threshold float64) bool {
	if l.infinite {
		return true
	}
	return l.value.GreaterThanOrEqual(decimal.NewFromFloat(threshold))
}

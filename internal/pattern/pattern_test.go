package pattern

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/ad-insights/internal/domain"
)

func str(s string) *string { return &s }
func boolp(b bool) *bool   { return &b }

func imageAd(id string, successful bool, tone string) domain.Ad {
	ad := domain.Ad{
		AdID:         id,
		SuccessScore: &domain.SuccessScore{AdID: id, IsSuccessful: successful},
	}
	if tone != "" {
		ad.ImageAnalysis = &domain.ImageAnalysis{AdID: id, ColorTone: str(tone)}
	}
	return ad
}

// population returns one scored ad per tone, in order.
func population(prefix string, successful bool, tones ...string) []domain.Ad {
	out := make([]domain.Ad, len(tones))
	for i, tone := range tones {
		out[i] = imageAd(fmt.Sprintf("%s%d", prefix, i), successful, tone)
	}
	return out
}

func repeat(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}

func colorOnly() FieldSet {
	return FieldSet{Type: domain.AnalysisImage, Fields: []string{"color_tone"}, Get: ImageFields.Get}
}

func find(t *testing.T, recs []domain.PatternRecord, field, value string) domain.PatternRecord {
	t.Helper()
	for _, r := range recs {
		if r.FieldName == field && r.FieldValue == value {
			return r
		}
	}
	t.Fatalf("no record for %s=%s", field, value)
	return domain.PatternRecord{}
}

func TestAnalyzeFieldPatterns_WorkedScenario(t *testing.T) {
	successful := population("s", true, "bright", "bright")
	general := population("g", false, append(repeat("bright", 2), repeat("dark", 6)...)...)

	e := NewEngine(1, LiftThreshold)
	recs := e.AnalyzeFieldPatterns(successful, general, colorOnly())
	require.Len(t, recs, 2)

	bright := find(t, recs, "color_tone", "bright")
	assert.Equal(t, 2, bright.SuccessfulCount)
	assert.Equal(t, 1.0, bright.SuccessfulRatio)
	assert.Equal(t, 2, bright.GeneralCount)
	assert.Equal(t, 0.25, bright.GeneralRatio)
	assert.Equal(t, 4.0, bright.Lift)
	assert.True(t, bright.IsPattern)

	dark := find(t, recs, "color_tone", "dark")
	assert.Equal(t, 0, dark.SuccessfulCount)
	assert.Equal(t, 0.0, dark.Lift)
	assert.False(t, dark.IsPattern)
}

func TestAnalyzeFieldPatterns_MinimumSupport(t *testing.T) {
	// three successful observations against a large general population
	successful := population("s", true, "bright", "bright", "bright")
	general := population("g", false, repeat("dark", 100)...)

	recs := AnalyzeFieldPatterns(successful, general, colorOnly())
	assert.Empty(t, recs)

	// the worked scenario has only two successful observations
	recs = AnalyzeFieldPatterns(
		population("s", true, "bright", "bright"),
		population("g", false, append(repeat("bright", 2), repeat("dark", 6)...)...),
		colorOnly(),
	)
	assert.Empty(t, recs)
}

func TestAnalyzeFieldPatterns_GeneralSupportGuard(t *testing.T) {
	successful := population("s", true, repeat("bright", 10)...)
	general := population("g", false, repeat("dark", 4)...)
	assert.Empty(t, AnalyzeFieldPatterns(successful, general, colorOnly()))
}

func TestAnalyzeFieldPatterns_LiftCases(t *testing.T) {
	// successful: 6 warm, 1 cool, 3 neon; general: 2 warm, 2 cool, 6 pastel
	successful := population("s", true, append(repeat("warm", 6), append(repeat("cool", 1), repeat("neon", 3)...)...)...)
	general := population("g", false, append(repeat("warm", 2), append(repeat("cool", 2), repeat("pastel", 6)...)...)...)

	recs := AnalyzeFieldPatterns(successful, general, colorOnly())
	require.Len(t, recs, 4)

	warm := find(t, recs, "color_tone", "warm")
	assert.Equal(t, 0.6, warm.SuccessfulRatio)
	assert.Equal(t, 0.2, warm.GeneralRatio)
	assert.Equal(t, 3.0, warm.Lift)
	assert.True(t, warm.IsPattern)

	cool := find(t, recs, "color_tone", "cool")
	assert.Equal(t, 0.1, cool.SuccessfulRatio)
	assert.Equal(t, 0.2, cool.GeneralRatio)
	assert.Equal(t, 0.5, cool.Lift)
	assert.False(t, cool.IsPattern)

	neon := find(t, recs, "color_tone", "neon")
	assert.Equal(t, 0, neon.GeneralCount)
	assert.Equal(t, 0.0, neon.GeneralRatio)
	assert.Equal(t, InfiniteLift, neon.Lift)
	assert.True(t, neon.IsPattern)

	pastel := find(t, recs, "color_tone", "pastel")
	assert.Equal(t, 0.0, pastel.Lift)
	assert.False(t, pastel.IsPattern)
}

func TestAnalyzeFieldPatterns_ThresholdIsExact(t *testing.T) {
	// 3/10 vs 2/10 is exactly 1.5, which float division puts just below.
	successful := population("s", true, append(repeat("a", 3), repeat("b", 7)...)...)
	general := population("g", false, append(repeat("a", 2), repeat("b", 8)...)...)

	a := find(t, AnalyzeFieldPatterns(successful, general, colorOnly()), "color_tone", "a")
	assert.Equal(t, 1.5, a.Lift)
	assert.True(t, a.IsPattern)
}

func TestAnalyzeFieldPatterns_RatiosRounded(t *testing.T) {
	successful := population("s", true, append(repeat("x", 2), repeat("y", 4)...)...)
	general := population("g", false, append(repeat("x", 1), repeat("y", 6)...)...)

	x := find(t, AnalyzeFieldPatterns(successful, general, colorOnly()), "color_tone", "x")
	assert.Equal(t, 0.3333, x.SuccessfulRatio)
	assert.Equal(t, 0.1429, x.GeneralRatio)
	// (2/6)/(1/7) = 14/6
	assert.Equal(t, 2.33, x.Lift)
	assert.True(t, x.IsPattern)
}

func TestAnalyzeFieldPatterns_MissingValuesExcluded(t *testing.T) {
	successful := population("s", true, repeat("bright", 5)...)
	// ads without analysis, and with analysis but no color tone
	successful = append(successful, imageAd("s-none", true, ""))
	successful = append(successful, domain.Ad{
		AdID:          "s-blank",
		SuccessScore:  &domain.SuccessScore{IsSuccessful: true},
		ImageAnalysis: &domain.ImageAnalysis{HasPerson: boolp(true)},
	})
	general := population("g", false, append(repeat("bright", 1), repeat("dark", 4)...)...)

	recs := AnalyzeFieldPatterns(successful, general, colorOnly())
	bright := find(t, recs, "color_tone", "bright")
	assert.Equal(t, 1.0, bright.SuccessfulRatio, "missing values stay out of the denominator")
	assert.Equal(t, 5.0, bright.Lift)
	for _, r := range recs {
		assert.NotEmpty(t, r.FieldValue)
	}
}

func TestAnalyzeFieldPatterns_BoolFields(t *testing.T) {
	var successful, general []domain.Ad
	for i := 0; i < 5; i++ {
		successful = append(successful, domain.Ad{
			AdID:          fmt.Sprintf("s%d", i),
			ImageAnalysis: &domain.ImageAnalysis{HasPerson: boolp(true)},
		})
	}
	for i := 0; i < 10; i++ {
		general = append(general, domain.Ad{
			AdID:          fmt.Sprintf("g%d", i),
			ImageAnalysis: &domain.ImageAnalysis{HasPerson: boolp(i < 3)},
		})
	}
	recs := AnalyzeFieldPatterns(successful, general, ImageFields)
	require.Len(t, recs, 2)
	assert.Equal(t, "false", recs[0].FieldValue)
	assert.Equal(t, "true", recs[1].FieldValue)
	assert.Equal(t, "has_person", recs[1].FieldName)
	assert.Equal(t, 3.33, recs[1].Lift)
}

func TestAnalyzeFieldPatterns_Deterministic(t *testing.T) {
	successful := population("s", true, "c", "a", "b", "a", "c")
	general := population("g", false, "b", "b", "a", "d", "c", "d")

	first := AnalyzeFieldPatterns(successful, general, colorOnly())
	second := AnalyzeFieldPatterns(successful, general, colorOnly())
	assert.Equal(t, first, second)

	var values []string
	for _, r := range first {
		values = append(values, r.FieldValue)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, values)
}

func TestPartition(t *testing.T) {
	ads := []domain.Ad{
		imageAd("a", true, "x"),
		imageAd("b", false, "x"),
		{AdID: "unscored"},
		imageAd("c", false, "x"),
	}
	s, g := Partition(ads)
	require.Len(t, s, 1)
	require.Len(t, g, 2)
	assert.Equal(t, "a", s[0].AdID)
	assert.Equal(t, "b", g[0].AdID)
	assert.Equal(t, "c", g[1].AdID)
}

func TestEngine_RunCoversBothTypes(t *testing.T) {
	var successful, general []domain.Ad
	for i := 0; i < 5; i++ {
		successful = append(successful, domain.Ad{
			AdID:          fmt.Sprintf("s%d", i),
			ImageAnalysis: &domain.ImageAnalysis{ColorTone: str("bright")},
			CopyAnalysis:  &domain.CopyAnalysis{Emotion: str("joy")},
		})
		general = append(general, domain.Ad{
			AdID:          fmt.Sprintf("g%d", i),
			ImageAnalysis: &domain.ImageAnalysis{ColorTone: str("dark")},
			CopyAnalysis:  &domain.CopyAnalysis{Emotion: str("calm")},
		})
	}

	recs := NewEngine(0, 0).Run(successful, general, "retail")
	require.Len(t, recs, 4)
	assert.Equal(t, domain.AnalysisImage, recs[0].AnalysisType)
	assert.Equal(t, domain.AnalysisCopy, recs[3].AnalysisType)
	for _, r := range recs {
		assert.Equal(t, "retail", r.Industry)
	}
	assert.Equal(t, InfiniteLift, find(t, recs, "emotion", "joy").Lift)
}

func TestNewEngine_Defaults(t *testing.T) {
	e := NewEngine(0, 0)
	assert.Equal(t, MinSupport, e.MinSupport)
	assert.Equal(t, LiftThreshold, e.LiftThreshold)
	assert.Len(t, e.FieldSets, 2)
}

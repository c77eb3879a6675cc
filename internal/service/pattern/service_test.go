package pattern_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/ignite/ad-insights/internal/domain"
	"github.com/ignite/ad-insights/internal/service/pattern"
)

// memRepo is an in-memory pattern repository for unit testing.
type memRepo struct {
	mu       sync.Mutex
	ads      []domain.Ad
	patterns map[string][]domain.PatternRecord // keyed by scope key
	insights map[string][]domain.Insight
	nextID   int64
}

func newMemRepo(ads ...domain.Ad) *memRepo {
	return &memRepo{
		ads:      ads,
		patterns: make(map[string][]domain.PatternRecord),
		insights: make(map[string][]domain.Insight),
	}
}

func (m *memRepo) ListScoredAds(_ context.Context, scope domain.Scope) ([]domain.Ad, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Ad
	for _, a := range m.ads {
		if a.SuccessScore == nil {
			continue
		}
		if !scope.Global() && a.Industry != scope.Industry {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *memRepo) ReplacePatterns(_ context.Context, scope domain.Scope, recs []domain.PatternRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]domain.PatternRecord, len(recs))
	for i, r := range recs {
		m.nextID++
		r.ID = m.nextID
		cp[i] = r
	}
	m.patterns[scope.Key()] = cp
	return nil
}

func (m *memRepo) ListPatterns(_ context.Context, f pattern.PatternFilter) ([]domain.PatternRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.PatternRecord
	for _, r := range m.patterns[f.Scope.Key()] {
		if f.PatternsOnly && !r.IsPattern {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Lift > out[j].Lift })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memRepo) ReplaceInsights(_ context.Context, scope domain.Scope, items []domain.Insight) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insights[scope.Key()] = append([]domain.Insight(nil), items...)
	return nil
}

func (m *memRepo) ListInsights(_ context.Context, f pattern.InsightFilter) ([]domain.Insight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Insight
	for _, it := range m.insights[f.Scope.Key()] {
		if f.Type != "" && it.Type != f.Type {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

type stubSummarizer struct {
	formula *domain.Formula
	err     error
	calls   int
	last    pattern.SummaryRequest
}

func (s *stubSummarizer) Summarize(_ context.Context, req pattern.SummaryRequest) (*domain.Formula, error) {
	s.calls++
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	f := *s.formula
	return &f, nil
}

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func scoredAd(id, industry string, successful bool, tone, formality string) domain.Ad {
	ad := domain.Ad{
		AdID:         id,
		Industry:     industry,
		SuccessScore: &domain.SuccessScore{AdID: id, IsSuccessful: successful},
	}
	if tone != "" {
		ad.ImageAnalysis = &domain.ImageAnalysis{ColorTone: &tone}
	}
	if formality != "" {
		ad.CopyAnalysis = &domain.CopyAnalysis{Formality: &formality}
	}
	return ad
}

// population builds 5 successful ads that are all "bright" and 10
// general ads of which 2 are "bright", giving bright a lift of 5.
func population(industry string) []domain.Ad {
	var ads []domain.Ad
	for i := 0; i < 5; i++ {
		ads = append(ads, scoredAd(fmt.Sprintf("%s-s%d", industry, i), industry, true, "bright", "casual"))
	}
	for i := 0; i < 10; i++ {
		tone := "dark"
		if i < 2 {
			tone = "bright"
		}
		ads = append(ads, scoredAd(fmt.Sprintf("%s-g%d", industry, i), industry, false, tone, "casual"))
	}
	return ads
}

func findPattern(recs []domain.PatternRecord, field, value string) (domain.PatternRecord, bool) {
	for _, r := range recs {
		if r.FieldName == field && r.FieldValue == value {
			return r, true
		}
	}
	return domain.PatternRecord{}, false
}

func TestRunPatternAnalysis(t *testing.T) {
	repo := newMemRepo(population("retail")...)
	svc := pattern.NewService(repo, pattern.WithClock(func() time.Time { return now }))

	res, err := svc.RunPatternAnalysis(context.Background(), "retail")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.TotalAds != 15 || res.SuccessfulAds != 5 || res.GeneralAds != 10 {
		t.Fatalf("unexpected counts %+v", res)
	}
	// color_tone: bright, dark. formality: casual.
	if res.AllPatternsAnalyzed != 3 {
		t.Fatalf("analyzed = %d, want 3", res.AllPatternsAnalyzed)
	}
	if res.PatternsFound != 1 {
		t.Fatalf("patterns found = %d, want 1", res.PatternsFound)
	}

	stored := repo.patterns["industry:retail"]
	bright, ok := findPattern(stored, "color_tone", "bright")
	if !ok {
		t.Fatal("missing color_tone=bright")
	}
	if bright.Lift != 5 || !bright.IsPattern {
		t.Fatalf("bright = %+v, want lift 5 and pattern", bright)
	}
	if bright.Industry != "retail" || !bright.CreatedAt.Equal(now) {
		t.Fatalf("bright scope/time = %q/%v", bright.Industry, bright.CreatedAt)
	}
	dark, _ := findPattern(stored, "color_tone", "dark")
	if dark.Lift != 0 || dark.IsPattern {
		t.Fatalf("dark = %+v, want lift 0", dark)
	}
	casual, _ := findPattern(stored, "formality", "casual")
	if casual.Lift != 1 || casual.IsPattern {
		t.Fatalf("casual = %+v, want lift 1", casual)
	}
}

func TestRunPatternAnalysis_FullReplace(t *testing.T) {
	repo := newMemRepo(population("retail")...)
	svc := pattern.NewService(repo)

	first, err := svc.RunPatternAnalysis(context.Background(), "retail")
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.RunPatternAnalysis(context.Background(), "retail")
	if err != nil {
		t.Fatal(err)
	}
	if got := len(repo.patterns["industry:retail"]); got != second.AllPatternsAnalyzed {
		t.Fatalf("stored %d records after two runs, want %d", got, second.AllPatternsAnalyzed)
	}
	if first.AllPatternsAnalyzed != second.AllPatternsAnalyzed {
		t.Fatalf("runs differ: %d vs %d", first.AllPatternsAnalyzed, second.AllPatternsAnalyzed)
	}
}

func TestRunPatternAnalysis_ScopesAreIndependent(t *testing.T) {
	ads := append(population("retail"), population("finance")...)
	repo := newMemRepo(ads...)
	svc := pattern.NewService(repo)

	if _, err := svc.RunPatternAnalysis(context.Background(), "finance"); err != nil {
		t.Fatal(err)
	}
	if _, ok := repo.patterns["industry:retail"]; ok {
		t.Fatal("finance run must not write retail patterns")
	}

	global, err := svc.RunPatternAnalysis(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if global.TotalAds != 30 {
		t.Fatalf("global scope saw %d ads, want 30", global.TotalAds)
	}
	for _, r := range repo.patterns["industry:*"] {
		if r.Industry != "" {
			t.Fatalf("global record carries industry %q", r.Industry)
		}
	}
}

func TestRunPatternAnalysis_NotEnoughData(t *testing.T) {
	var ads []domain.Ad
	for i := 0; i < 6; i++ {
		ads = append(ads, scoredAd(fmt.Sprintf("g%d", i), "retail", false, "dark", ""))
	}
	ads = append(ads, domain.Ad{AdID: "unscored", Industry: "retail"})
	repo := newMemRepo(ads...)
	repo.patterns["industry:retail"] = []domain.PatternRecord{{FieldName: "old"}}
	svc := pattern.NewService(repo)

	res, err := svc.RunPatternAnalysis(context.Background(), "retail")
	if err != nil {
		t.Fatalf("not enough data must not error: %v", err)
	}
	if res.Message != pattern.NotEnoughData {
		t.Fatalf("message = %q", res.Message)
	}
	if res.TotalAds != 6 {
		t.Fatalf("unscored ad counted: total = %d", res.TotalAds)
	}
	if len(repo.patterns["industry:retail"]) != 1 {
		t.Fatal("existing patterns must be left intact")
	}
}

func TestGenerateFormula(t *testing.T) {
	repo := newMemRepo(population("retail")...)
	sum := &stubSummarizer{formula: &domain.Formula{
		Formula:    "Bright images win",
		Insights:   []domain.InsightItem{{Title: "Tone", Description: "Use bright tones"}},
		Strategies: []domain.InsightItem{{Title: "Palette", Description: "Lead with yellow"}, {Title: "Contrast", Description: "High"}},
	}}
	svc := pattern.NewService(repo, pattern.WithSummarizer(sum), pattern.WithClock(func() time.Time { return now }))

	if _, err := svc.RunPatternAnalysis(context.Background(), "retail"); err != nil {
		t.Fatal(err)
	}
	f, err := svc.GenerateFormula(context.Background(), "retail")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if f.Confidence != pattern.DefaultConfidence {
		t.Fatalf("confidence = %v, want default", f.Confidence)
	}
	if len(sum.last.Patterns) != 1 || sum.last.Industry != "retail" {
		t.Fatalf("summarizer got %+v", sum.last)
	}

	rows := repo.insights["industry:retail"]
	if len(rows) != 4 {
		t.Fatalf("stored %d insights, want 4", len(rows))
	}
	if rows[0].Type != domain.InsightFormula || rows[0].Title != pattern.FormulaTitle {
		t.Fatalf("first row = %+v", rows[0])
	}
	if len(rows[0].SupportingPatterns) != 1 || rows[0].SupportingPatterns[0] != "color_tone" {
		t.Fatalf("supporting = %v", rows[0].SupportingPatterns)
	}

	got, err := svc.GetFormula(context.Background(), "retail")
	if err != nil {
		t.Fatal(err)
	}
	if got.Formula != "Bright images win" || len(got.Insights) != 1 || len(got.Strategies) != 2 {
		t.Fatalf("reassembled formula = %+v", got)
	}

	strategies, err := svc.ListInsights(context.Background(), "retail", domain.InsightStrategy)
	if err != nil {
		t.Fatal(err)
	}
	if len(strategies) != 2 {
		t.Fatalf("strategies = %d, want 2", len(strategies))
	}
}

func TestGenerateFormula_NoPatterns(t *testing.T) {
	sum := &stubSummarizer{formula: &domain.Formula{}}
	svc := pattern.NewService(newMemRepo(), pattern.WithSummarizer(sum))

	_, err := svc.GenerateFormula(context.Background(), "")
	if !errors.Is(err, pattern.ErrNoPatterns) {
		t.Fatalf("expected ErrNoPatterns, got %v", err)
	}
	if sum.calls != 0 {
		t.Fatal("summarizer must not be called without patterns")
	}
}

func TestGenerateFormula_FailureKeepsInsights(t *testing.T) {
	repo := newMemRepo(population("retail")...)
	old := domain.Insight{Type: domain.InsightFormula, Title: pattern.FormulaTitle, Description: "old formula", Confidence: 0.7}
	repo.insights["industry:retail"] = []domain.Insight{old}
	sum := &stubSummarizer{err: errors.New("unparseable response")}
	svc := pattern.NewService(repo, pattern.WithSummarizer(sum))

	if _, err := svc.RunPatternAnalysis(context.Background(), "retail"); err != nil {
		t.Fatal(err)
	}
	_, err := svc.GenerateFormula(context.Background(), "retail")
	if !errors.Is(err, pattern.ErrSummaryFailed) {
		t.Fatalf("expected ErrSummaryFailed, got %v", err)
	}
	rows := repo.insights["industry:retail"]
	if len(rows) != 1 || rows[0].Description != "old formula" {
		t.Fatalf("insights changed after failed summary: %+v", rows)
	}
}

func TestGenerateFormula_NoSummarizer(t *testing.T) {
	svc := pattern.NewService(newMemRepo())
	if _, err := svc.GenerateFormula(context.Background(), ""); !errors.Is(err, pattern.ErrSummaryFailed) {
		t.Fatalf("expected ErrSummaryFailed, got %v", err)
	}
}

func TestGetFormula_NotFound(t *testing.T) {
	svc := pattern.NewService(newMemRepo())
	if _, err := svc.GetFormula(context.Background(), "retail"); !errors.Is(err, pattern.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListPatterns_PatternsOnly(t *testing.T) {
	repo := newMemRepo(population("retail")...)
	svc := pattern.NewService(repo)
	if _, err := svc.RunPatternAnalysis(context.Background(), "retail"); err != nil {
		t.Fatal(err)
	}

	all, err := svc.ListPatterns(context.Background(), "retail", false)
	if err != nil {
		t.Fatal(err)
	}
	only, err := svc.ListPatterns(context.Background(), "retail", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || len(only) != 1 {
		t.Fatalf("all=%d only=%d, want 3 and 1", len(all), len(only))
	}
	if all[0].Lift < all[1].Lift {
		t.Fatal("patterns not ordered by lift")
	}
}

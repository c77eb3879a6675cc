package pattern

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ignite/ad-insights/internal/domain"
	"github.com/ignite/ad-insights/internal/pkg/distlock"
	"github.com/ignite/ad-insights/internal/pkg/logger"
	engine "github.com/ignite/ad-insights/internal/pattern"
	"github.com/ignite/ad-insights/internal/runlog"
)

const (
	// DefaultConfidence is stored when the summary omits a confidence.
	DefaultConfidence = 0.8
	// DefaultTopPatterns is how many patterns feed a summary.
	DefaultTopPatterns = 10
	// FormulaTitle is the title of the stored formula insight.
	FormulaTitle = "Success formula"
)

// Service implements the pattern and insight ports.
type Service struct {
	repo        Repository
	summarizer  Summarizer
	engine      engine.Engine
	guard       *distlock.Guard
	recorder    runlog.Recorder
	topPatterns int
	now         func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithEngine overrides the mining thresholds.
func WithEngine(e engine.Engine) Option { return func(s *Service) { s.engine = e } }

// WithGuard shares a scope guard across services.
func WithGuard(g *distlock.Guard) Option { return func(s *Service) { s.guard = g } }

func WithRecorder(r runlog.Recorder) Option { return func(s *Service) { s.recorder = r } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithTopPatterns sets how many patterns are summarized.
func WithTopPatterns(n int) Option { return func(s *Service) { s.topPatterns = n } }

func WithSummarizer(sum Summarizer) Option { return func(s *Service) { s.summarizer = sum } }

// NewService creates a pattern service. A nil summarizer disables
// formula generation.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		engine:      engine.NewEngine(engine.MinSupport, engine.LiftThreshold),
		guard:       distlock.NewGuard(nil),
		recorder:    runlog.Nop{},
		topPatterns: DefaultTopPatterns,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	if s.topPatterns <= 0 {
		s.topPatterns = DefaultTopPatterns
	}
	return s
}

// RunResult reports one pattern analysis run.
type RunResult struct {
	TotalAds            int    `json:"total_ads"`
	SuccessfulAds       int    `json:"successful_ads"`
	GeneralAds          int    `json:"general_ads"`
	PatternsFound       int    `json:"patterns_found"`
	AllPatternsAnalyzed int    `json:"all_patterns_analyzed"`
	Message             string `json:"message,omitempty"`
}

// RunPatternAnalysis mines the scored ads of industry ("" for every
// industry) and replaces that scope's patterns. When either population is
// empty the stored patterns are left as they are and Message is set.
func (s *Service) RunPatternAnalysis(ctx context.Context, industry string) (RunResult, error) {
	scope := domain.Scope{Industry: industry}
	v, _, err := s.guard.Do(ctx, "pattern:"+scope.Key(), func(ctx context.Context) (any, error) {
		return s.analyze(ctx, scope)
	})
	if errors.Is(err, distlock.ErrBusy) {
		return RunResult{}, ErrRunInProgress
	}
	if err != nil {
		return RunResult{}, err
	}
	return v.(RunResult), nil
}

func (s *Service) analyze(ctx context.Context, scope domain.Scope) (res RunResult, err error) {
	run := runlog.Begin(domain.RunPattern, scope.Key())
	defer func() {
		runlog.Finish(ctx, s.recorder, run, map[string]any{
			"total_ads":      res.TotalAds,
			"patterns_found": res.PatternsFound,
			"analyzed":       res.AllPatternsAnalyzed,
		}, err)
	}()

	ads, err := s.repo.ListScoredAds(ctx, scope)
	if err != nil {
		return RunResult{}, fmt.Errorf("list scored ads: %w", err)
	}
	successful, general := engine.Partition(ads)
	res = RunResult{
		TotalAds:      len(ads),
		SuccessfulAds: len(successful),
		GeneralAds:    len(general),
	}
	if len(successful) == 0 || len(general) == 0 {
		res.Message = NotEnoughData
		return res, nil
	}

	recs := s.engine.Run(successful, general, scope.Industry)
	now := s.now()
	for i := range recs {
		recs[i].CreatedAt = now
		if recs[i].IsPattern {
			res.PatternsFound++
		}
	}
	res.AllPatternsAnalyzed = len(recs)

	if err := s.repo.ReplacePatterns(ctx, scope, recs); err != nil {
		return RunResult{}, fmt.Errorf("replace patterns: %w", err)
	}
	logger.Info("[Pattern] analysis complete",
		"scope", scope.Key(),
		"successful", res.SuccessfulAds,
		"general", res.GeneralAds,
		"patterns", res.PatternsFound,
		"analyzed", res.AllPatternsAnalyzed)
	return res, nil
}

// ListPatterns returns the stored patterns of industry, strongest first.
func (s *Service) ListPatterns(ctx context.Context, industry string, patternsOnly bool) ([]domain.PatternRecord, error) {
	recs, err := s.repo.ListPatterns(ctx, PatternFilter{
		Scope:        domain.Scope{Industry: industry},
		PatternsOnly: patternsOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("list patterns: %w", err)
	}
	return recs, nil
}

// GenerateFormula summarizes the top patterns of industry and replaces
// the scope's insights with the result. Nothing is written when the
// summary fails.
func (s *Service) GenerateFormula(ctx context.Context, industry string) (*domain.Formula, error) {
	if s.summarizer == nil {
		return nil, fmt.Errorf("%w: no summarizer configured", ErrSummaryFailed)
	}
	scope := domain.Scope{Industry: industry}
	v, _, err := s.guard.Do(ctx, "formula:"+scope.Key(), func(ctx context.Context) (any, error) {
		return s.generate(ctx, scope)
	})
	if errors.Is(err, distlock.ErrBusy) {
		return nil, ErrRunInProgress
	}
	if err != nil {
		return nil, err
	}
	return v.(*domain.Formula), nil
}

func (s *Service) generate(ctx context.Context, scope domain.Scope) (f *domain.Formula, err error) {
	run := runlog.Begin(domain.RunFormula, scope.Key())
	defer func() {
		stats := map[string]any{}
		if f != nil {
			stats["insights"] = len(f.Insights)
			stats["strategies"] = len(f.Strategies)
		}
		runlog.Finish(ctx, s.recorder, run, stats, err)
	}()

	top, err := s.repo.ListPatterns(ctx, PatternFilter{
		Scope:        scope,
		PatternsOnly: true,
		Limit:        s.topPatterns,
	})
	if err != nil {
		return nil, fmt.Errorf("list patterns: %w", err)
	}
	if len(top) == 0 {
		return nil, ErrNoPatterns
	}

	f, err = s.summarizer.Summarize(ctx, SummaryRequest{Industry: scope.Industry, Patterns: top})
	if err != nil {
		logger.Error("[Pattern] summary failed", "scope", scope.Key(), "error", err)
		return nil, fmt.Errorf("%w: %w", ErrSummaryFailed, err)
	}
	if f == nil {
		return nil, fmt.Errorf("%w: empty summary", ErrSummaryFailed)
	}
	if f.Confidence <= 0 {
		f.Confidence = DefaultConfidence
	}

	if err := s.repo.ReplaceInsights(ctx, scope, s.insightRows(scope, top, f)); err != nil {
		return nil, fmt.Errorf("replace insights: %w", err)
	}
	return f, nil
}

func (s *Service) insightRows(scope domain.Scope, top []domain.PatternRecord, f *domain.Formula) []domain.Insight {
	now := s.now()
	supporting := make([]string, len(top))
	for i, p := range top {
		supporting[i] = p.FieldName
	}

	rows := make([]domain.Insight, 0, 1+len(f.Insights)+len(f.Strategies))
	rows = append(rows, domain.Insight{
		Type:               domain.InsightFormula,
		Title:              FormulaTitle,
		Description:        f.Formula,
		SupportingPatterns: supporting,
		Confidence:         f.Confidence,
		Industry:           scope.Industry,
		GeneratedAt:        now,
	})
	add := func(t domain.InsightType, items []domain.InsightItem) {
		for _, it := range items {
			rows = append(rows, domain.Insight{
				Type:        t,
				Title:       it.Title,
				Description: it.Description,
				Confidence:  f.Confidence,
				Industry:    scope.Industry,
				GeneratedAt: now,
			})
		}
	}
	add(domain.InsightInsight, f.Insights)
	add(domain.InsightStrategy, f.Strategies)
	return rows
}

// ListInsights returns the stored insights of industry, optionally of a
// single type, newest first.
func (s *Service) ListInsights(ctx context.Context, industry string, typ domain.InsightType) ([]domain.Insight, error) {
	items, err := s.repo.ListInsights(ctx, InsightFilter{Scope: domain.Scope{Industry: industry}, Type: typ})
	if err != nil {
		return nil, fmt.Errorf("list insights: %w", err)
	}
	return items, nil
}

// GetFormula reassembles the stored formula of industry from its insight
// rows. It returns ErrNotFound when no formula has been generated.
func (s *Service) GetFormula(ctx context.Context, industry string) (*domain.Formula, error) {
	items, err := s.ListInsights(ctx, industry, "")
	if err != nil {
		return nil, err
	}
	var (
		f     domain.Formula
		found bool
	)
	f.Insights = []domain.InsightItem{}
	f.Strategies = []domain.InsightItem{}
	for _, it := range items {
		switch it.Type {
		case domain.InsightFormula:
			f.Formula = it.Description
			f.Confidence = it.Confidence
			found = true
		case domain.InsightInsight:
			f.Insights = append(f.Insights, domain.InsightItem{Title: it.Title, Description: it.Description})
		case domain.InsightStrategy:
			f.Strategies = append(f.Strategies, domain.InsightItem{Title: it.Title, Description: it.Description})
		}
	}
	if !found {
		return nil, ErrNotFound
	}
	return &f, nil
}

package scoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ignite/ad-insights/internal/domain"
	"github.com/ignite/ad-insights/internal/pkg/distlock"
	"github.com/ignite/ad-insights/internal/pkg/logger"
	"github.com/ignite/ad-insights/internal/runlog"
	engine "github.com/ignite/ad-insights/internal/scoring"
)

// lockKey serializes scoring runs. Scoring always covers every ad, so
// there is a single scope.
const lockKey = "scoring:global"

// Service implements the scoring ports. All public methods are safe for
// concurrent use if the underlying repository is concurrency-safe.
type Service struct {
	repo     Repository
	engine   engine.Engine
	guard    *distlock.Guard
	recorder runlog.Recorder
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithEngine overrides the default weights and success cutoff.
func WithEngine(e engine.Engine) Option { return func(s *Service) { s.engine = e } }

// WithGuard shares a scope guard, typically one backed by Redis.
func WithGuard(g *distlock.Guard) Option { return func(s *Service) { s.guard = g } }

// WithRecorder sends finished runs to r.
func WithRecorder(r runlog.Recorder) Option { return func(s *Service) { s.recorder = r } }

// WithClock sets the clock used for open-ended durations and timestamps.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// NewService creates a scoring service backed by the given repository.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		engine:   engine.NewEngine(engine.DefaultWeights, engine.SuccessPercentile),
		guard:    distlock.NewGuard(nil),
		recorder: runlog.Nop{},
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Result reports one scoring run. Message is set instead of an error when
// there was nothing to score.
type Result struct {
	Calculated        int     `json:"calculated"`
	Successful        int     `json:"successful"`
	MaxImpressionsMid float64 `json:"max_impressions_mid"`
	Message           string  `json:"message,omitempty"`
}

// RunScoring recomputes the score of every ad. A call made while another
// run is in flight in this process waits for and returns that run's
// result; one made while another process holds the run returns
// ErrRunInProgress.
func (s *Service) RunScoring(ctx context.Context) (Result, error) {
	v, shared, err := s.guard.Do(ctx, lockKey, func(ctx context.Context) (any, error) {
		return s.run(ctx)
	})
	if errors.Is(err, distlock.ErrBusy) {
		return Result{}, ErrRunInProgress
	}
	if err != nil {
		return Result{}, err
	}
	if shared {
		logger.Debug("[Scoring] joined in-flight run")
	}
	return v.(Result), nil
}

func (s *Service) run(ctx context.Context) (res Result, err error) {
	run := runlog.Begin(domain.RunScoring, lockKey)
	defer func() {
		runlog.Finish(ctx, s.recorder, run, map[string]any{
			"calculated": res.Calculated,
			"successful": res.Successful,
		}, err)
	}()

	ads, err := s.repo.ListAdsForScoring(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list ads for scoring: %w", err)
	}
	if len(ads) == 0 {
		return Result{Message: NotEnoughData}, nil
	}

	now := s.now()
	inputs := make([]engine.Input, len(ads))
	for i, ad := range ads {
		inputs[i] = engine.InputFromAd(ad, now)
	}
	results, sum, err := s.engine.RankAndClassify(inputs)
	if err != nil {
		return Result{}, err
	}

	scores := make([]domain.SuccessScore, len(results))
	for i, r := range results {
		scores[i] = r.Score(now)
	}
	if err := s.repo.UpsertScores(ctx, scores); err != nil {
		return Result{}, fmt.Errorf("upsert scores: %w", err)
	}

	logger.Info("[Scoring] run complete",
		"calculated", sum.Calculated,
		"successful", sum.Successful,
		"max_impressions_mid", sum.MaxImpressionsMid)
	return Result{
		Calculated:        sum.Calculated,
		Successful:        sum.Successful,
		MaxImpressionsMid: sum.MaxImpressionsMid,
	}, nil
}

// Stats summarizes the stored scores, rounded to two decimals.
func (s *Service) Stats(ctx context.Context) (domain.ScoringStats, error) {
	agg, err := s.repo.ScoreAggregates(ctx)
	if err != nil {
		return domain.ScoringStats{}, fmt.Errorf("score aggregates: %w", err)
	}
	st := domain.ScoringStats{
		TotalScored:         agg.Total,
		SuccessfulCount:     agg.Successful,
		AvgTotalScore:       engine.Round(agg.AvgTotalScore, 2),
		AvgDurationScore:    engine.Round(agg.AvgDurationScore, 2),
		AvgImpressionsScore: engine.Round(agg.AvgImpressionsScore, 2),
		MaxScore:            engine.Round(agg.MaxScore, 2),
		MinScore:            engine.Round(agg.MinScore, 2),
	}
	if agg.Total > 0 {
		st.SuccessRate = engine.Round(float64(agg.Successful)/float64(agg.Total)*100, 2)
	}
	return st, nil
}

// PruneOrphanScores removes scores left behind by deleted ads.
func (s *Service) PruneOrphanScores(ctx context.Context) (int64, error) {
	n, err := s.repo.PruneOrphanScores(ctx)
	if err != nil {
		return 0, fmt.Errorf("prune orphan scores: %w", err)
	}
	if n > 0 {
		logger.Info("[Scoring] pruned orphan scores", "count", n)
	}
	return n, nil
}

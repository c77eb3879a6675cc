package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/ignite/ad-insights/internal/pkg/logger"
	"github.com/ignite/ad-insights/internal/service/pattern"
	"github.com/ignite/ad-insights/internal/service/scoring"
)

// RecomputeName is the scheduler entry of the periodic recompute.
const RecomputeName = "recompute"

// Scorer is the part of the scoring service the recompute drives.
type Scorer interface {
	PruneOrphanScores(ctx context.Context) (int64, error)
	RunScoring(ctx context.Context) (scoring.Result, error)
}

// PatternAnalyzer is the part of the pattern service the recompute drives.
type PatternAnalyzer interface {
	RunPatternAnalysis(ctx context.Context, industry string) (pattern.RunResult, error)
}

// Recompute refreshes scores and then the global patterns.
type Recompute struct {
	scorer   Scorer
	patterns PatternAnalyzer
}

func NewRecompute(s Scorer, p PatternAnalyzer) *Recompute {
	return &Recompute{scorer: s, patterns: p}
}

// Run prunes scores of deleted ads, rescores every ad and mines the
// global scope. A run already in progress elsewhere is not an error.
func (r *Recompute) Run(ctx context.Context) error {
	pruned, err := r.scorer.PruneOrphanScores(ctx)
	if err != nil {
		return fmt.Errorf("prune scores: %w", err)
	}
	sres, err := r.scorer.RunScoring(ctx)
	if errors.Is(err, scoring.ErrRunInProgress) {
		logger.Info("[Recompute] scoring already running, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	pres, err := r.patterns.RunPatternAnalysis(ctx, "")
	if errors.Is(err, pattern.ErrRunInProgress) {
		logger.Info("[Recompute] pattern analysis already running, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("pattern analysis: %w", err)
	}
	logger.Info("[Recompute] done",
		"pruned", pruned,
		"scored", sres.Calculated,
		"successful", sres.Successful,
		"patterns", pres.PatternsFound)
	return nil
}

// ScheduleRecompute registers r on sch under RecomputeName. An empty spec
// leaves the recompute unscheduled.
func ScheduleRecompute(sch *Scheduler, spec string, r *Recompute) error {
	if spec == "" {
		return nil
	}
	return sch.Schedule(RecomputeName, spec, func(ctx context.Context) {
		if err := r.Run(ctx); err != nil {
			logger.Error("[Recompute] failed", "error", err)
		}
	})
}

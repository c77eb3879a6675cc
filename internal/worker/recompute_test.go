package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/ad-insights/internal/service/pattern"
	"github.com/ignite/ad-insights/internal/service/scoring"
)

type stubScorer struct {
	calls    []string
	scoreErr error
}

func (s *stubScorer) PruneOrphanScores(context.Context) (int64, error) {
	s.calls = append(s.calls, "prune")
	return 2, nil
}

func (s *stubScorer) RunScoring(context.Context) (scoring.Result, error) {
	s.calls = append(s.calls, "score")
	return scoring.Result{Calculated: 10, Successful: 2}, s.scoreErr
}

type stubPatterns struct {
	industries []string
	err        error
}

func (p *stubPatterns) RunPatternAnalysis(_ context.Context, industry string) (pattern.RunResult, error) {
	p.industries = append(p.industries, industry)
	return pattern.RunResult{PatternsFound: 3}, p.err
}

func TestRecompute_Order(t *testing.T) {
	sc, pt := &stubScorer{}, &stubPatterns{}
	require.NoError(t, NewRecompute(sc, pt).Run(context.Background()))
	assert.Equal(t, []string{"prune", "score"}, sc.calls)
	assert.Equal(t, []string{""}, pt.industries)
}

func TestRecompute_ScoringBusySkips(t *testing.T) {
	sc, pt := &stubScorer{scoreErr: scoring.ErrRunInProgress}, &stubPatterns{}
	require.NoError(t, NewRecompute(sc, pt).Run(context.Background()))
	assert.Empty(t, pt.industries)
}

func TestRecompute_Errors(t *testing.T) {
	sc, pt := &stubScorer{scoreErr: errors.New("db down")}, &stubPatterns{}
	assert.ErrorContains(t, NewRecompute(sc, pt).Run(context.Background()), "db down")

	sc, pt = &stubScorer{}, &stubPatterns{err: pattern.ErrRunInProgress}
	assert.NoError(t, NewRecompute(sc, pt).Run(context.Background()))
}

func TestScheduleRecompute(t *testing.T) {
	s := NewScheduler(nil)
	r := NewRecompute(&stubScorer{}, &stubPatterns{})
	require.NoError(t, ScheduleRecompute(s, "", r))
	assert.Equal(t, 0, s.Len())
	require.NoError(t, ScheduleRecompute(s, "0 3 * * *", r))
	_, ok := s.Next(RecomputeName)
	assert.True(t, ok)
}

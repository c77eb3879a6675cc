// Package runlog records finished batch runs (scoring, pattern mining,
// collection) to whatever sinks are configured: the DynamoDB ledger,
// prometheus collectors, or both.
package runlog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/ad-insights/internal/domain"
	"github.com/ignite/ad-insights/internal/pkg/logger"
)

// Recorder persists or observes a finished run.
// Implementations must be safe for concurrent use.
type Recorder interface {
	RecordRun(ctx context.Context, run domain.RunRecord) error
}

// Multi fans a record out to every recorder. All recorders are called
// even when one fails.
type Multi []Recorder

// RecordRun implements Recorder.
func (m Multi) RecordRun(ctx context.Context, run domain.RunRecord) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.RecordRun(ctx, run); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards every record.
type Nop struct{}

// RecordRun implements Recorder.
func (Nop) RecordRun(context.Context, domain.RunRecord) error { return nil }

// Begin starts a running record for kind within scope.
func Begin(kind domain.RunKind, scope string) domain.RunRecord {
	return domain.RunRecord{
		RunID:     uuid.NewString(),
		Kind:      kind,
		Scope:     scope,
		Status:    domain.JobRunning,
		StartedAt: time.Now().UTC(),
	}
}

// Finish closes run with err and stats and hands it to rec. Recorder
// failures are logged and never returned: a ledger outage must not fail
// the computation it describes.
func Finish(ctx context.Context, rec Recorder, run domain.RunRecord, stats map[string]any, err error) {
	run.FinishedAt = time.Now().UTC()
	run.Stats = stats
	run.Status = domain.JobCompleted
	if err != nil {
		run.Status = domain.JobFailed
		run.Error = err.Error()
	}
	if rec == nil {
		return
	}
	if rerr := rec.RecordRun(context.WithoutCancel(ctx), run); rerr != nil {
		logger.Warn("[runlog] record run failed", "kind", string(run.Kind), "run_id", run.RunID, "error", rerr)
	}
}

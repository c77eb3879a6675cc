package domain

import "time"

// RunKind names a batch computation recorded in the run ledger.
type RunKind string

const (
	RunScoring    RunKind = "scoring"
	RunPattern    RunKind = "pattern"
	RunFormula    RunKind = "formula"
	RunCollect    RunKind = "collect"
	RunAnalysis   RunKind = "analysis"
	RunMonitoring RunKind = "monitoring"
)

// RunRecord is one ledger entry describing a finished run.
type RunRecord struct {
	RunID      string         `json:"run_id" dynamodbav:"run_id"`
	Kind       RunKind        `json:"kind" dynamodbav:"kind"`
	Scope      string         `json:"scope" dynamodbav:"scope"`
	Status     JobStatus      `json:"status" dynamodbav:"status"`
	StartedAt  time.Time      `json:"started_at" dynamodbav:"started_at"`
	FinishedAt time.Time      `json:"finished_at" dynamodbav:"finished_at"`
	Stats      map[string]any `json:"stats,omitempty" dynamodbav:"stats,omitempty"`
	Error      string         `json:"error,omitempty" dynamodbav:"error,omitempty"`
}

// Duration is the wall time of the run.
func (r RunRecord) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

package domain

import "time"

// JobStatus enumerates the lifecycle states of a background job or run.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// IsTerminal returns true if the job is in a final state.
func (s JobStatus) IsTerminal() bool {
	return s == JobCompleted || s == JobFailed
}

// CollectJob tracks one ad library collection request.
type CollectJob struct {
	JobID          string     `json:"job_id" db:"job_id"`
	Status         JobStatus  `json:"status" db:"status"`
	Keywords       []string   `json:"keywords" db:"keywords"`
	Industry       string     `json:"industry" db:"industry"`
	Country        string     `json:"country" db:"country"`
	TargetCount    int        `json:"target_count" db:"target_count"`
	CollectedCount int        `json:"collected_count" db:"collected_count"`
	ErrorMessage   string     `json:"error_message,omitempty" db:"error_message"`
	StartedAt      *time.Time `json:"started_at" db:"started_at"`
	CompletedAt    *time.Time `json:"completed_at" db:"completed_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

// Progress is the collected share of the target, 0-100.
func (j CollectJob) Progress() int {
	if j.TargetCount <= 0 {
		return 0
	}
	p := j.CollectedCount * 100 / j.TargetCount
	if p > 100 {
		p = 100
	}
	return p
}

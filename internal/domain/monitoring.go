package domain

import "time"

// DefaultScheduleCron is the schedule given to keywords created without one.
const DefaultScheduleCron = "0 9 * * *"

// MonitoringKeyword is a search term collected on a cron schedule.
type MonitoringKeyword struct {
	ID           string     `json:"id" db:"id"`
	Keyword      string     `json:"keyword" db:"keyword"`
	Industry     string     `json:"industry" db:"industry"`
	Country      string     `json:"country" db:"country"`
	ScheduleCron string     `json:"schedule_cron" db:"schedule_cron"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	LastRunAt    *time.Time `json:"last_run_at" db:"last_run_at"`
	NextRunAt    *time.Time `json:"next_run_at" db:"-"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// MonitoringRun is one execution of a monitoring keyword.
type MonitoringRun struct {
	ID           string     `json:"id" db:"id"`
	KeywordID    string     `json:"keyword_id" db:"keyword_id"`
	Status       JobStatus  `json:"status" db:"status"`
	NewAdsCount  int        `json:"new_ads_count" db:"new_ads_count"`
	ErrorMessage string     `json:"error_message,omitempty" db:"error_message"`
	StartedAt    *time.Time `json:"started_at" db:"started_at"`
	CompletedAt  *time.Time `json:"completed_at" db:"completed_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// Notification types.
const (
	NotificationNewAds    = "new_ads"
	NotificationRunFailed = "run_failed"
)

// Notification is a user-facing message produced by monitoring runs.
type Notification struct {
	ID        string    `json:"id" db:"id"`
	Type      string    `json:"type" db:"type"`
	Title     string    `json:"title" db:"title"`
	Message   string    `json:"message" db:"message"`
	KeywordID string    `json:"keyword_id,omitempty" db:"keyword_id"`
	RunID     string    `json:"run_id,omitempty" db:"run_id"`
	IsRead    bool      `json:"is_read" db:"is_read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

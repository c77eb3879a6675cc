package monitoring

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/ignite/ad-insights/internal/domain"
	"github.com/ignite/ad-insights/internal/pkg/distlock"
	"github.com/ignite/ad-insights/internal/pkg/logger"
	"github.com/ignite/ad-insights/internal/runlog"
	"github.com/ignite/ad-insights/internal/service/collection"
)

const (
	DefaultCountry   = "KR"
	DefaultRunLimit  = 50
	MaxRunLimit      = 200
	DefaultRunsLimit = 10
	DefaultNotesSize = 20
	maxListLimit     = 100
)

// Service manages monitoring keywords and their runs.
type Service struct {
	repo       Repository
	collector  Collector
	dispatcher Dispatcher
	scheduler  Scheduler
	guard      *distlock.Guard
	recorder   runlog.Recorder
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithScheduler registers active keywords on s.
func WithScheduler(sch Scheduler) Option { return func(s *Service) { s.scheduler = sch } }

func WithGuard(g *distlock.Guard) Option { return func(s *Service) { s.guard = g } }

func WithRecorder(r runlog.Recorder) Option { return func(s *Service) { s.recorder = r } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// NewService creates a monitoring service.
func NewService(repo Repository, c Collector, d Dispatcher, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		collector:  c,
		dispatcher: d,
		guard:      distlock.NewGuard(nil),
		recorder:   runlog.Nop{},
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// parseSchedule validates a five-field cron expression.
func parseSchedule(spec string) (cron.Schedule, error) {
	sch, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("%w: schedule_cron %q: %v", ErrInvalidRequest, spec, err)
	}
	return sch, nil
}

func (s *Service) withNextRun(k *domain.MonitoringKeyword) {
	k.NextRunAt = nil
	if !k.IsActive {
		return
	}
	if sch, err := cron.ParseStandard(k.ScheduleCron); err == nil {
		next := sch.Next(s.now())
		k.NextRunAt = &next
	}
}

// KeywordInput creates a keyword.
type KeywordInput struct {
	Keyword      string `json:"keyword"`
	Industry     string `json:"industry"`
	Country      string `json:"country"`
	ScheduleCron string `json:"schedule_cron"`
}

// KeywordUpdate changes the set fields of a keyword.
type KeywordUpdate struct {
	Keyword      *string `json:"keyword"`
	Industry     *string `json:"industry"`
	Country      *string `json:"country"`
	ScheduleCron *string `json:"schedule_cron"`
	IsActive     *bool   `json:"is_active"`
}

// CreateKeyword adds an active keyword and schedules it.
func (s *Service) CreateKeyword(ctx context.Context, in KeywordInput) (*domain.MonitoringKeyword, error) {
	k := &domain.MonitoringKeyword{
		ID:           uuid.NewString(),
		Keyword:      strings.TrimSpace(in.Keyword),
		Industry:     strings.TrimSpace(in.Industry),
		Country:      in.Country,
		ScheduleCron: in.ScheduleCron,
		IsActive:     true,
		CreatedAt:    s.now(),
		UpdatedAt:    s.now(),
	}
	if k.Country == "" {
		k.Country = DefaultCountry
	}
	if k.ScheduleCron == "" {
		k.ScheduleCron = domain.DefaultScheduleCron
	}
	if err := validateKeyword(k); err != nil {
		return nil, err
	}
	if err := s.repo.CreateKeyword(ctx, k); err != nil {
		return nil, fmt.Errorf("create keyword: %w", err)
	}
	s.syncSchedule(k)
	s.withNextRun(k)
	return k, nil
}

func validateKeyword(k *domain.MonitoringKeyword) error {
	if k.Keyword == "" || len(k.Keyword) > 255 {
		return fmt.Errorf("%w: keyword must be 1-255 characters", ErrInvalidRequest)
	}
	if k.Industry == "" || len(k.Industry) > 50 {
		return fmt.Errorf("%w: industry must be 1-50 characters", ErrInvalidRequest)
	}
	if len(k.Country) > 10 {
		return fmt.Errorf("%w: country too long", ErrInvalidRequest)
	}
	_, err := parseSchedule(k.ScheduleCron)
	return err
}

// GetKeyword returns a keyword by ID.
func (s *Service) GetKeyword(ctx context.Context, id string) (*domain.MonitoringKeyword, error) {
	k, err := s.repo.GetKeyword(ctx, id)
	if err != nil {
		return nil, err
	}
	s.withNextRun(k)
	return k, nil
}

// ListKeywords returns keywords newest first, optionally by active flag.
func (s *Service) ListKeywords(ctx context.Context, active *bool) ([]domain.MonitoringKeyword, error) {
	ks, err := s.repo.ListKeywords(ctx, active)
	if err != nil {
		return nil, fmt.Errorf("list keywords: %w", err)
	}
	for i := range ks {
		s.withNextRun(&ks[i])
	}
	return ks, nil
}

// UpdateKeyword applies u and reschedules the keyword.
func (s *Service) UpdateKeyword(ctx context.Context, id string, u KeywordUpdate) (*domain.MonitoringKeyword, error) {
	k, err := s.repo.GetKeyword(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Keyword != nil {
		k.Keyword = strings.TrimSpace(*u.Keyword)
	}
	if u.Industry != nil {
		k.Industry = strings.TrimSpace(*u.Industry)
	}
	if u.Country != nil {
		k.Country = *u.Country
	}
	if u.ScheduleCron != nil {
		k.ScheduleCron = *u.ScheduleCron
	}
	if u.IsActive != nil {
		k.IsActive = *u.IsActive
	}
	if err := validateKeyword(k); err != nil {
		return nil, err
	}
	k.UpdatedAt = s.now()
	if err := s.repo.UpdateKeyword(ctx, k); err != nil {
		return nil, fmt.Errorf("update keyword: %w", err)
	}
	s.syncSchedule(k)
	s.withNextRun(k)
	return k, nil
}

// DeleteKeyword removes a keyword and its schedule.
func (s *Service) DeleteKeyword(ctx context.Context, id string) error {
	if err := s.repo.DeleteKeyword(ctx, id); err != nil {
		return err
	}
	if s.scheduler != nil {
		s.scheduler.Unschedule(scheduleName(id))
	}
	return nil
}

func scheduleName(keywordID string) string { return "monitoring:" + keywordID }

func (s *Service) syncSchedule(k *domain.MonitoringKeyword) {
	if s.scheduler == nil {
		return
	}
	name := scheduleName(k.ID)
	s.scheduler.Unschedule(name)
	if !k.IsActive {
		return
	}
	id := k.ID
	if err := s.scheduler.Schedule(name, k.ScheduleCron, func(ctx context.Context) {
		if _, err := s.RunKeyword(ctx, id, DefaultRunLimit); err != nil {
			logger.Warn("[Monitoring] scheduled run not started", "keyword_id", id, "error", err)
		}
	}); err != nil {
		logger.Error("[Monitoring] schedule failed", "keyword_id", id, "cron", k.ScheduleCron, "error", err)
	}
}

// SyncSchedules registers every active keyword with the scheduler and
// returns how many were scheduled.
func (s *Service) SyncSchedules(ctx context.Context) (int, error) {
	if s.scheduler == nil {
		return 0, nil
	}
	active := true
	ks, err := s.repo.ListKeywords(ctx, &active)
	if err != nil {
		return 0, fmt.Errorf("list active keywords: %w", err)
	}
	for i := range ks {
		s.syncSchedule(&ks[i])
	}
	logger.Info("[Monitoring] schedules synced", "keywords", len(ks))
	return len(ks), nil
}

// RunKeyword records a pending run for the keyword and queues its
// collection.
func (s *Service) RunKeyword(ctx context.Context, id string, limit int) (*domain.MonitoringRun, error) {
	if limit == 0 {
		limit = DefaultRunLimit
	}
	if limit < 1 || limit > MaxRunLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidRequest, MaxRunLimit)
	}
	k, err := s.repo.GetKeyword(ctx, id)
	if err != nil {
		return nil, err
	}

	started := s.now()
	run := &domain.MonitoringRun{
		ID:        uuid.NewString(),
		KeywordID: k.ID,
		Status:    domain.JobPending,
		StartedAt: &started,
		CreatedAt: started,
	}
	if err := s.repo.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}

	queued := *run
	kw := *k
	if err := s.dispatcher.Dispatch("monitoring:"+run.ID, func(ctx context.Context) error {
		return s.execute(ctx, kw, &queued, limit)
	}); err != nil {
		s.finishRun(ctx, kw, run, 0, fmt.Errorf("dispatch: %w", err))
		return nil, err
	}

	k.LastRunAt = &started
	k.UpdatedAt = started
	if err := s.repo.UpdateKeyword(ctx, k); err != nil {
		logger.Warn("[Monitoring] last_run_at update failed", "keyword_id", k.ID, "error", err)
	}
	return run, nil
}

// execute collects for one run. Runs of the same keyword never overlap.
func (s *Service) execute(ctx context.Context, k domain.MonitoringKeyword, run *domain.MonitoringRun, limit int) error {
	_, _, err := s.guard.Do(ctx, "monitoring:"+k.ID, func(ctx context.Context) (any, error) {
		run.Status = domain.JobRunning
		if err := s.repo.UpdateRun(ctx, run); err != nil {
			return nil, fmt.Errorf("mark run running: %w", err)
		}
		rec := runlog.Begin(domain.RunMonitoring, "keyword:"+k.ID)
		n, err := s.collector.Collect(ctx, collection.CollectRequest{
			Keywords: []string{k.Keyword},
			Industry: k.Industry,
			Country:  k.Country,
			Limit:    limit,
		}, nil)
		runlog.Finish(ctx, s.recorder, rec, map[string]any{"new_ads": n}, err)
		s.finishRun(ctx, k, run, n, err)
		return nil, err
	})
	if errors.Is(err, distlock.ErrBusy) {
		s.finishRun(ctx, k, run, 0, ErrKeywordBusy)
		return ErrKeywordBusy
	}
	return err
}

func (s *Service) finishRun(ctx context.Context, k domain.MonitoringKeyword, run *domain.MonitoringRun, n int, err error) {
	ctx = context.WithoutCancel(ctx)
	done := s.now()
	run.CompletedAt = &done
	run.NewAdsCount = n
	run.Status = domain.JobCompleted
	if err != nil {
		run.Status = domain.JobFailed
		run.ErrorMessage = err.Error()
	}
	if uerr := s.repo.UpdateRun(ctx, run); uerr != nil {
		logger.Error("[Monitoring] run update failed", "run_id", run.ID, "error", uerr)
	}

	var note *domain.Notification
	switch {
	case err != nil:
		note = &domain.Notification{
			Type:    domain.NotificationRunFailed,
			Title:   fmt.Sprintf("Monitoring failed: %s", k.Keyword),
			Message: err.Error(),
		}
	case n > 0:
		note = &domain.Notification{
			Type:    domain.NotificationNewAds,
			Title:   fmt.Sprintf("New ads found: %s", k.Keyword),
			Message: fmt.Sprintf("%d new ads collected for %q (%s)", n, k.Keyword, k.Industry),
		}
	}
	if note == nil {
		return
	}
	note.ID = uuid.NewString()
	note.KeywordID = k.ID
	note.RunID = run.ID
	note.CreatedAt = done
	if nerr := s.repo.CreateNotification(ctx, note); nerr != nil {
		logger.Error("[Monitoring] notification failed", "run_id", run.ID, "error", nerr)
	}
	logger.Info("[Monitoring] run finished", "keyword", k.Keyword, "status", string(run.Status), "new_ads", n)
}

// ListRuns returns the latest runs of a keyword.
func (s *Service) ListRuns(ctx context.Context, keywordID string, limit int) ([]domain.MonitoringRun, error) {
	return s.repo.ListRuns(ctx, keywordID, clampLimit(limit, DefaultRunsLimit))
}

// ListNotifications returns the latest notifications.
func (s *Service) ListNotifications(ctx context.Context, unreadOnly bool, limit int) ([]domain.Notification, error) {
	return s.repo.ListNotifications(ctx, unreadOnly, clampLimit(limit, DefaultNotesSize))
}

// UnreadCount returns how many notifications are unread.
func (s *Service) UnreadCount(ctx context.Context) (int, error) {
	return s.repo.CountUnread(ctx)
}

// MarkRead marks one notification read.
func (s *Service) MarkRead(ctx context.Context, id string) error {
	return s.repo.MarkRead(ctx, id)
}

// MarkAllRead marks every unread notification read and returns how many
// changed.
func (s *Service) MarkAllRead(ctx context.Context) (int, error) {
	return s.repo.MarkAllRead(ctx)
}

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

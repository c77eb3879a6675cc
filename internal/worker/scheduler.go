package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ignite/ad-insights/internal/pkg/logger"
)

// Scheduler runs named functions on standard five-field cron specs. An
// entry that is still running when its next tick fires is skipped.
type Scheduler struct {
	cron    *cron.Cron
	mu      sync.Mutex
	entries map[string]cron.EntryID
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewScheduler creates a scheduler evaluating specs in loc (UTC when nil).
func NewScheduler(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		entries: make(map[string]cron.EntryID),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Schedule registers fn under name, replacing any entry of that name.
func (s *Scheduler) Schedule(name, spec string, fn func(ctx context.Context)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.cron.AddFunc(spec, func() { fn(s.ctx) })
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	if old, ok := s.entries[name]; ok {
		s.cron.Remove(old)
	}
	s.entries[name] = id
	logger.Info("[Scheduler] scheduled", "name", name, "spec", spec)
	return nil
}

// Unschedule removes the entry registered under name, if any.
func (s *Scheduler) Unschedule(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.entries[name]; ok {
		s.cron.Remove(id)
		delete(s.entries, name)
		logger.Info("[Scheduler] unscheduled", "name", name)
	}
}

// Next returns the next activation of name.
func (s *Scheduler) Next(name string) (time.Time, bool) {
	s.mu.Lock()
	id, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	e := s.cron.Entry(id)
	if !e.Valid() {
		return time.Time{}, false
	}
	if e.Next.IsZero() {
		return e.Schedule.Next(time.Now().In(s.cron.Location())), true
	}
	return e.Next, true
}

// Len reports the number of registered entries.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info("[Scheduler] started", "entries", s.Len())
}

// Stop cancels running entries and waits for them to return or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	s.cancel()
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
	logger.Info("[Scheduler] stopped")
}

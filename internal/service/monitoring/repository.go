package monitoring

import (
	"context"

	"github.com/ignite/ad-insights/internal/domain"
	"github.com/ignite/ad-insights/internal/service/collection"
)

// Repository abstracts persistence of keywords, runs and notifications.
// Implementations must be safe for concurrent use and return ErrNotFound
// for unknown IDs.
type Repository interface {
	CreateKeyword(ctx context.Context, k *domain.MonitoringKeyword) error
	GetKeyword(ctx context.Context, id string) (*domain.MonitoringKeyword, error)
	// ListKeywords returns keywords newest first. A nil active matches all.
	ListKeywords(ctx context.Context, active *bool) ([]domain.MonitoringKeyword, error)
	UpdateKeyword(ctx context.Context, k *domain.MonitoringKeyword) error
	DeleteKeyword(ctx context.Context, id string) error

	CreateRun(ctx context.Context, r *domain.MonitoringRun) error
	UpdateRun(ctx context.Context, r *domain.MonitoringRun) error
	// ListRuns returns the latest runs of a keyword, newest first.
	ListRuns(ctx context.Context, keywordID string, limit int) ([]domain.MonitoringRun, error)

	CreateNotification(ctx context.Context, n *domain.Notification) error
	// ListNotifications returns notifications newest first.
	ListNotifications(ctx context.Context, unreadOnly bool, limit int) ([]domain.Notification, error)
	CountUnread(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) (int, error)
}

// Collector stores new ads for a search.
type Collector interface {
	Collect(ctx context.Context, req collection.CollectRequest, progress func(collected int)) (int, error)
}

// Dispatcher runs tasks asynchronously.
type Dispatcher interface {
	Dispatch(name string, task func(ctx context.Context) error) error
}

// Scheduler runs a function on a cron schedule under a stable name.
type Scheduler interface {
	Schedule(name, spec string, fn func(ctx context.Context)) error
	Unschedule(name string)
}

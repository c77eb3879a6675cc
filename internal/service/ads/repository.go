package ads

import (
	"context"

	"github.com/ignite/ad-insights/internal/domain"
)

// Sort orders for ListFilter.Sort. A leading "-" means descending.
const (
	SortDuration    = "duration_days"
	SortCollectedAt = "collected_at"
	DefaultSort     = "-" + SortDuration
	DefaultLimit    = 20
	MaxLimit        = 100
)

// ListFilter narrows and orders ListAds. Duration bounds are applied to
// the page after it is read, so a page can hold fewer than Limit ads.
type ListFilter struct {
	Industry       string
	Region         string
	SuccessfulOnly bool
	MinDuration    *int
	MaxDuration    *int
	Sort           string
	Offset         int
	Limit          int
}

// Repository abstracts ad persistence.
// Implementations must be safe for concurrent use.
type Repository interface {
	// ListAds returns a page of ads with analyses and score attached, and
	// the total number of ads matching the industry, region and success
	// filters.
	ListAds(ctx context.Context, f ListFilter) ([]domain.Ad, int, error)
	GetAd(ctx context.Context, adID string) (*domain.Ad, error)
	// DeleteAd removes an ad and its analyses. Its score row is kept.
	DeleteAd(ctx context.Context, adID string) error
}

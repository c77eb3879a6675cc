package ads

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ignite/ad-insights/internal/domain"
)

// Service exposes collected ads.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates an ads service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// Page is one page of ads.
type Page struct {
	Items []domain.Ad
	Total int
}

// ListAds returns a filtered page of ads.
func (s *Service) ListAds(ctx context.Context, f ListFilter) (Page, error) {
	if f.Sort == "" {
		f.Sort = DefaultSort
	}
	switch strings.TrimPrefix(f.Sort, "-") {
	case SortDuration, SortCollectedAt:
	default:
		return Page{}, fmt.Errorf("%w: unknown sort %q", ErrInvalidRequest, f.Sort)
	}
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if (f.MinDuration != nil && *f.MinDuration < 0) || (f.MaxDuration != nil && *f.MaxDuration < 0) {
		return Page{}, fmt.Errorf("%w: duration bounds must be non-negative", ErrInvalidRequest)
	}

	items, total, err := s.repo.ListAds(ctx, f)
	if err != nil {
		return Page{}, fmt.Errorf("list ads: %w", err)
	}
	if f.MinDuration != nil || f.MaxDuration != nil {
		today := s.now()
		kept := items[:0]
		for _, ad := range items {
			d := ad.DurationDays(today)
			if f.MinDuration != nil && d < *f.MinDuration {
				continue
			}
			if f.MaxDuration != nil && d > *f.MaxDuration {
				continue
			}
			kept = append(kept, ad)
		}
		items = kept
	}
	return Page{Items: items, Total: total}, nil
}

// GetAd returns one ad with its analyses and score.
func (s *Service) GetAd(ctx context.Context, adID string) (*domain.Ad, error) {
	return s.repo.GetAd(ctx, adID)
}

// DeleteAd removes an ad. Its score is left for PruneOrphanScores.
func (s *Service) DeleteAd(ctx context.Context, adID string) error {
	return s.repo.DeleteAd(ctx, adID)
}

// DurationDays is the duration of ad as of now.
func (s *Service) DurationDays(ad domain.Ad) int {
	return ad.DurationDays(s.now())
}

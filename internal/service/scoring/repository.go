package scoring

import (
	"context"

	"github.com/ignite/ad-insights/internal/domain"
)

// Repository defines the data access contract for scoring runs.
// Implementations must be safe for concurrent use.
type Repository interface {
	// ListAdsForScoring returns every ad from one consistent read. Only
	// identity, dates and impressions bounds need to be populated.
	ListAdsForScoring(ctx context.Context) ([]domain.Ad, error)

	// UpsertScores writes one row per ad keyed by ad ID, all in one
	// transaction. Rows for ads not in scores are left untouched.
	UpsertScores(ctx context.Context, scores []domain.SuccessScore) error

	// ScoreAggregates returns unrounded aggregates over the score table.
	ScoreAggregates(ctx context.Context) (Aggregates, error)

	// PruneOrphanScores deletes score rows whose ad no longer exists and
	// returns how many were removed.
	PruneOrphanScores(ctx context.Context) (int64, error)
}

// Aggregates are raw statistics over stored scores. Averages and extremes
// are zero when no rows exist.
type Aggregates struct {
	Total               int
	Successful          int
	AvgTotalScore       float64
	AvgDurationScore    float64
	AvgImpressionsScore float64
	MaxScore            float64
	MinScore            float64
}

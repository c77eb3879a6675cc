package pattern

import (
	"context"

	"github.com/ignite/ad-insights/internal/domain"
)

// PatternFilter narrows ListPatterns.
type PatternFilter struct {
	Scope        domain.Scope
	PatternsOnly bool
	// Limit caps the result. Zero means no limit.
	Limit int
}

// InsightFilter narrows ListInsights. An empty Type matches every type.
type InsightFilter struct {
	Scope domain.Scope
	Type  domain.InsightType
}

// Repository abstracts persistence of patterns and insights.
// Implementations must be safe for concurrent use.
type Repository interface {
	// ListScoredAds returns every ad in scope that has a score, with its
	// score and analyses attached, read as one consistent snapshot.
	ListScoredAds(ctx context.Context, scope domain.Scope) ([]domain.Ad, error)
	// ReplacePatterns deletes the scope's patterns and inserts recs in the
	// same transaction.
	ReplacePatterns(ctx context.Context, scope domain.Scope, recs []domain.PatternRecord) error
	// ListPatterns returns patterns ordered by lift descending, then
	// analysis type, field and value ascending.
	ListPatterns(ctx context.Context, f PatternFilter) ([]domain.PatternRecord, error)
	// ReplaceInsights deletes the scope's insights and inserts items in the
	// same transaction.
	ReplaceInsights(ctx context.Context, scope domain.Scope, items []domain.Insight) error
	// ListInsights returns insights newest first.
	ListInsights(ctx context.Context, f InsightFilter) ([]domain.Insight, error)
}

// SummaryRequest is the input to a formula summary.
type SummaryRequest struct {
	Industry string
	Patterns []domain.PatternRecord
}

// Summarizer turns top patterns into a structured formula. It returns an
// error when the external call fails or its output cannot be parsed.
type Summarizer interface {
	Summarize(ctx context.Context, req SummaryRequest) (*domain.Formula, error)
}

// Package api serves the ad insights HTTP API under /api/v1.
package api

import (
	"context"

	"github.com/ignite/ad-insights/internal/domain"
	"github.com/ignite/ad-insights/internal/service/ads"
	"github.com/ignite/ad-insights/internal/service/analysis"
	"github.com/ignite/ad-insights/internal/service/collection"
	"github.com/ignite/ad-insights/internal/service/monitoring"
	"github.com/ignite/ad-insights/internal/service/pattern"
	"github.com/ignite/ad-insights/internal/service/scoring"
)

// ScoringService is the scoring surface the API exposes.
type ScoringService interface {
	RunScoring(ctx context.Context) (scoring.Result, error)
	Stats(ctx context.Context) (domain.ScoringStats, error)
}

// PatternService is the pattern and insight surface the API exposes.
type PatternService interface {
	RunPatternAnalysis(ctx context.Context, industry string) (pattern.RunResult, error)
	ListPatterns(ctx context.Context, industry string, patternsOnly bool) ([]domain.PatternRecord, error)
	GenerateFormula(ctx context.Context, industry string) (*domain.Formula, error)
	GetFormula(ctx context.Context, industry string) (*domain.Formula, error)
	ListInsights(ctx context.Context, industry string, typ domain.InsightType) ([]domain.Insight, error)
}

type AdsService interface {
	ListAds(ctx context.Context, f ads.ListFilter) (ads.Page, error)
	GetAd(ctx context.Context, adID string) (*domain.Ad, error)
	DeleteAd(ctx context.Context, adID string) error
	DurationDays(ad domain.Ad) int
}

type CollectionService interface {
	CreateJob(ctx context.Context, req collection.CreateJobRequest) (*collection.CreateJobResult, error)
	GetJob(ctx context.Context, jobID string) (*domain.CollectJob, error)
}

type AnalysisService interface {
	AnalyzeImage(ctx context.Context, adID string) (analysis.QueueResult, error)
	AnalyzeCopy(ctx context.Context, adID string) (analysis.QueueResult, error)
	AnalyzeBatch(ctx context.Context, req analysis.BatchRequest) (analysis.BatchResult, error)
}

type MonitoringService interface {
	CreateKeyword(ctx context.Context, in monitoring.KeywordInput) (*domain.MonitoringKeyword, error)
	GetKeyword(ctx context.Context, id string) (*domain.MonitoringKeyword, error)
	ListKeywords(ctx context.Context, active *bool) ([]domain.MonitoringKeyword, error)
	UpdateKeyword(ctx context.Context, id string, u monitoring.KeywordUpdate) (*domain.MonitoringKeyword, error)
	DeleteKeyword(ctx context.Context, id string) error
	RunKeyword(ctx context.Context, id string, limit int) (*domain.MonitoringRun, error)
	ListRuns(ctx context.Context, keywordID string, limit int) ([]domain.MonitoringRun, error)
	ListNotifications(ctx context.Context, unreadOnly bool, limit int) ([]domain.Notification, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) (int, error)
}

// RunHistory reads the batch run ledger.
type RunHistory interface {
	RecentRuns(ctx context.Context, kind domain.RunKind, limit int) ([]domain.RunRecord, error)
}

// Handlers holds the services behind the routes. Nil services leave
// their routes unregistered.
type Handlers struct {
	Scoring    ScoringService
	Patterns   PatternService
	Ads        AdsService
	Collection CollectionService
	Analysis   AnalysisService
	Monitoring MonitoringService
	Runs       RunHistory
}

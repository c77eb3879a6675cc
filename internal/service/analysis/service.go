package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ignite/ad-insights/internal/domain"
	"github.com/ignite/ad-insights/internal/pkg/logger"
	"github.com/ignite/ad-insights/internal/runlog"
)

// Queue statuses reported to callers.
const (
	StatusQueued          = "queued"
	StatusAlreadyAnalyzed = "already_analyzed"
)

// Service queues and runs ad enrichment.
type Service struct {
	repo       Repository
	analyzer   Analyzer
	images     ImageLoader
	dispatcher Dispatcher
	recorder   runlog.Recorder
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithRecorder(r runlog.Recorder) Option { return func(s *Service) { s.recorder = r } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// NewService creates an analysis service.
func NewService(repo Repository, a Analyzer, images ImageLoader, d Dispatcher, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		analyzer:   a,
		images:     images,
		dispatcher: d,
		recorder:   runlog.Nop{},
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// QueueResult acknowledges a single analysis request.
type QueueResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// BatchRequest asks for several ads to be analyzed. Empty Types means
// both image and copy.
type BatchRequest struct {
	AdIDs []string              `json:"ad_ids"`
	Types []domain.AnalysisType `json:"types"`
}

// BatchResult acknowledges a batch.
type BatchResult struct {
	QueuedCount  int    `json:"queued_count"`
	SkippedCount int    `json:"skipped_count"`
	Message      string `json:"message"`
}

// AnalyzeImage queues image analysis for an ad.
func (s *Service) AnalyzeImage(ctx context.Context, adID string) (QueueResult, error) {
	ad, err := s.repo.GetAd(ctx, adID)
	if err != nil {
		return QueueResult{}, err
	}
	if ad.AnalysisImageURL() == "" && ad.ImageS3Path == "" {
		return QueueResult{}, ErrNoImage
	}
	if ad.HasImageAnalysis() {
		return QueueResult{Status: StatusAlreadyAnalyzed, Message: "Image analysis already exists for this ad"}, nil
	}
	if err := s.dispatch("analyze-image:"+adID, func(ctx context.Context) error {
		_, err := s.RunImageAnalysis(ctx, adID)
		return err
	}); err != nil {
		return QueueResult{}, err
	}
	return QueueResult{Status: StatusQueued, Message: "Image analysis queued successfully"}, nil
}

// AnalyzeCopy queues copy analysis for an ad.
func (s *Service) AnalyzeCopy(ctx context.Context, adID string) (QueueResult, error) {
	ad, err := s.repo.GetAd(ctx, adID)
	if err != nil {
		return QueueResult{}, err
	}
	if !ad.HasCopy() {
		return QueueResult{}, ErrNoCopy
	}
	if ad.HasCopyAnalysis() {
		return QueueResult{Status: StatusAlreadyAnalyzed, Message: "Copy analysis already exists for this ad"}, nil
	}
	if err := s.dispatch("analyze-copy:"+adID, func(ctx context.Context) error {
		_, err := s.RunCopyAnalysis(ctx, adID)
		return err
	}); err != nil {
		return QueueResult{}, err
	}
	return QueueResult{Status: StatusQueued, Message: "Copy analysis queued successfully"}, nil
}

// AnalyzeBatch queues every listed ad that still needs at least one of
// the requested analyses. Missing ads and fully analyzed ads are skipped.
func (s *Service) AnalyzeBatch(ctx context.Context, req BatchRequest) (BatchResult, error) {
	types := req.Types
	if len(types) == 0 {
		types = []domain.AnalysisType{domain.AnalysisImage, domain.AnalysisCopy}
	}
	for _, t := range types {
		if !t.Valid() {
			return BatchResult{}, fmt.Errorf("%w: unknown analysis type %q", ErrInvalidRequest, t)
		}
	}
	wantImage, wantCopy := hasType(types, domain.AnalysisImage), hasType(types, domain.AnalysisCopy)

	var queued []string
	skipped := 0
	for _, id := range req.AdIDs {
		ad, err := s.repo.GetAd(ctx, id)
		if errors.Is(err, ErrNotFound) {
			skipped++
			continue
		}
		if err != nil {
			return BatchResult{}, fmt.Errorf("get ad %s: %w", id, err)
		}
		if (wantImage && !ad.HasImageAnalysis()) || (wantCopy && !ad.HasCopyAnalysis()) {
			queued = append(queued, id)
		} else {
			skipped++
		}
	}

	if len(queued) > 0 {
		ids := queued
		if err := s.dispatch(fmt.Sprintf("analyze-batch:%d", len(ids)), func(ctx context.Context) error {
			s.RunBatch(ctx, ids, types)
			return nil
		}); err != nil {
			return BatchResult{}, err
		}
	}
	return BatchResult{
		QueuedCount:  len(queued),
		SkippedCount: skipped,
		Message:      fmt.Sprintf("Queued %d ads for analysis, skipped %d", len(queued), skipped),
	}, nil
}

func hasType(types []domain.AnalysisType, t domain.AnalysisType) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}

func (s *Service) dispatch(name string, task func(ctx context.Context) error) error {
	if err := s.dispatcher.Dispatch(name, task); err != nil {
		return fmt.Errorf("queue %s: %w", name, err)
	}
	return nil
}

// RunImageAnalysis analyzes and stores the image of an ad.
func (s *Service) RunImageAnalysis(ctx context.Context, adID string) (a *domain.ImageAnalysis, err error) {
	run := runlog.Begin(domain.RunAnalysis, "image:"+adID)
	defer func() { runlog.Finish(ctx, s.recorder, run, nil, ignoreSkip(err)) }()

	ad, err := s.repo.GetAd(ctx, adID)
	if err != nil {
		return nil, err
	}
	if ad.HasImageAnalysis() {
		logger.Info("[Analysis] image analysis exists", "ad_id", adID)
		return nil, ErrAlreadyAnalyzed
	}
	if ad.AnalysisImageURL() == "" && ad.ImageS3Path == "" {
		return nil, ErrNoImage
	}

	data, mediaType, err := s.images.LoadImage(ctx, *ad)
	if err != nil {
		return nil, fmt.Errorf("load image: %w", err)
	}
	a, err = s.analyzer.AnalyzeImage(ctx, data, mediaType)
	if err != nil {
		return nil, fmt.Errorf("analyze image: %w", err)
	}
	a.AdID = adID
	a.AnalyzedAt = s.now()
	if err := s.repo.SaveImageAnalysis(ctx, a); err != nil {
		return nil, fmt.Errorf("save image analysis: %w", err)
	}
	logger.Info("[Analysis] image analysis completed", "ad_id", adID)
	return a, nil
}

// RunCopyAnalysis analyzes and stores the copy of an ad.
func (s *Service) RunCopyAnalysis(ctx context.Context, adID string) (a *domain.CopyAnalysis, err error) {
	run := runlog.Begin(domain.RunAnalysis, "copy:"+adID)
	defer func() { runlog.Finish(ctx, s.recorder, run, nil, ignoreSkip(err)) }()

	ad, err := s.repo.GetAd(ctx, adID)
	if err != nil {
		return nil, err
	}
	if ad.HasCopyAnalysis() {
		logger.Info("[Analysis] copy analysis exists", "ad_id", adID)
		return nil, ErrAlreadyAnalyzed
	}
	if !ad.HasCopy() {
		return nil, ErrNoCopy
	}

	a, err = s.analyzer.AnalyzeCopy(ctx, ad.CreativeBody, ad.CreativeLinkTitle)
	if err != nil {
		return nil, fmt.Errorf("analyze copy: %w", err)
	}
	a.AdID = adID
	a.AnalyzedAt = s.now()
	if err := s.repo.SaveCopyAnalysis(ctx, a); err != nil {
		return nil, fmt.Errorf("save copy analysis: %w", err)
	}
	logger.Info("[Analysis] copy analysis completed", "ad_id", adID)
	return a, nil
}

// RunBatch analyzes ads one by one. A failing ad is logged and skipped.
func (s *Service) RunBatch(ctx context.Context, adIDs []string, types []domain.AnalysisType) {
	logger.Info("[Analysis] batch starting", "ads", len(adIDs))
	for _, id := range adIDs {
		if ctx.Err() != nil {
			return
		}
		if hasType(types, domain.AnalysisImage) {
			if _, err := s.RunImageAnalysis(ctx, id); err != nil && !isSkip(err) {
				logger.Error("[Analysis] image analysis failed", "ad_id", id, "error", err)
			}
		}
		if hasType(types, domain.AnalysisCopy) {
			if _, err := s.RunCopyAnalysis(ctx, id); err != nil && !isSkip(err) {
				logger.Error("[Analysis] copy analysis failed", "ad_id", id, "error", err)
			}
		}
	}
}

// isSkip reports errors that mean there was nothing to do.
func isSkip(err error) bool {
	return errors.Is(err, ErrAlreadyAnalyzed) || errors.Is(err, ErrNoImage) || errors.Is(err, ErrNoCopy)
}

func ignoreSkip(err error) error {
	if isSkip(err) {
		return nil
	}
	return err
}

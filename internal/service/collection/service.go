package collection

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/ad-insights/internal/domain"
	"github.com/ignite/ad-insights/internal/pkg/logger"
	"github.com/ignite/ad-insights/internal/runlog"
)

const (
	DefaultCountry = "KR"
	DefaultLimit   = 50
	MaxLimit       = 200

	// secondsPerAd is the rough collection cost used for estimates.
	secondsPerAd = 2
	// progressEvery is how many new ads are collected between job updates.
	progressEvery = 10
)

// Service runs ad collection.
type Service struct {
	repo       Repository
	library    AdLibrary
	store      CreativeStore
	images     ImageProcessor
	dispatcher Dispatcher
	recorder   runlog.Recorder
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithCreativeStore enables copying snapshots to a creative store.
func WithCreativeStore(cs CreativeStore) Option { return func(s *Service) { s.store = cs } }

// WithImageProcessor normalizes snapshots before they are stored.
func WithImageProcessor(p ImageProcessor) Option { return func(s *Service) { s.images = p } }

func WithRecorder(r runlog.Recorder) Option { return func(s *Service) { s.recorder = r } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// NewService creates a collection service. Jobs are run through d.
func NewService(repo Repository, lib AdLibrary, d Dispatcher, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		library:    lib,
		dispatcher: d,
		recorder:   runlog.Nop{},
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// CreateJobRequest asks for a new collect job.
type CreateJobRequest struct {
	Keywords []string `json:"keywords"`
	Industry string   `json:"industry"`
	Country  string   `json:"country"`
	Limit    int      `json:"limit"`
}

// CreateJobResult acknowledges a queued job.
type CreateJobResult struct {
	JobID                string           `json:"job_id"`
	Status               domain.JobStatus `json:"status"`
	EstimatedTimeSeconds int              `json:"estimated_time"`
}

func (r *CreateJobRequest) normalize() error {
	kw := make([]string, 0, len(r.Keywords))
	for _, k := range r.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			kw = append(kw, k)
		}
	}
	r.Keywords = kw
	r.Industry = strings.TrimSpace(r.Industry)
	if len(r.Keywords) == 0 {
		return fmt.Errorf("%w: at least one keyword is required", ErrInvalidRequest)
	}
	if r.Industry == "" {
		return fmt.Errorf("%w: industry is required", ErrInvalidRequest)
	}
	if r.Country == "" {
		r.Country = DefaultCountry
	}
	if r.Limit == 0 {
		r.Limit = DefaultLimit
	}
	if r.Limit < 1 || r.Limit > MaxLimit {
		return fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidRequest, MaxLimit)
	}
	return nil
}

// CreateJob stores a pending job and queues it.
func (s *Service) CreateJob(ctx context.Context, req CreateJobRequest) (*CreateJobResult, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}
	job := &domain.CollectJob{
		JobID:       uuid.NewString(),
		Status:      domain.JobPending,
		Keywords:    req.Keywords,
		Industry:    req.Industry,
		Country:     req.Country,
		TargetCount: req.Limit,
		CreatedAt:   s.now(),
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	jobID := job.JobID
	if err := s.dispatcher.Dispatch("collect:"+jobID, func(ctx context.Context) error {
		return s.RunJob(ctx, jobID)
	}); err != nil {
		s.finishJob(ctx, job, 0, fmt.Errorf("dispatch: %w", err))
		return nil, fmt.Errorf("%w: %v", ErrQueueFull, err)
	}

	logger.Info("[Collection] job queued", "job_id", jobID, "keywords", len(req.Keywords), "limit", req.Limit)
	return &CreateJobResult{
		JobID:                jobID,
		Status:               job.Status,
		EstimatedTimeSeconds: req.Limit * secondsPerAd,
	}, nil
}

// GetJob returns a job by ID.
func (s *Service) GetJob(ctx context.Context, jobID string) (*domain.CollectJob, error) {
	return s.repo.GetJob(ctx, jobID)
}

// RunJob executes a stored job, moving it through running to completed
// or failed.
func (s *Service) RunJob(ctx context.Context, jobID string) error {
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job %s: %w", jobID, err)
	}
	started := s.now()
	job.Status = domain.JobRunning
	job.StartedAt = &started
	if err := s.repo.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("mark job running: %w", err)
	}

	run := runlog.Begin(domain.RunCollect, "job:"+jobID)
	n, err := s.Collect(ctx, CollectRequest{
		Keywords: job.Keywords,
		Industry: job.Industry,
		Country:  job.Country,
		Limit:    job.TargetCount,
	}, func(collected int) {
		job.CollectedCount = collected
		if uerr := s.repo.UpdateJob(ctx, job); uerr != nil {
			logger.Warn("[Collection] progress update failed", "job_id", jobID, "error", uerr)
		}
	})
	runlog.Finish(ctx, s.recorder, run, map[string]any{"collected": n}, err)
	s.finishJob(ctx, job, n, err)
	return err
}

func (s *Service) finishJob(ctx context.Context, job *domain.CollectJob, collected int, err error) {
	done := s.now()
	job.CollectedCount = collected
	job.CompletedAt = &done
	job.Status = domain.JobCompleted
	if err != nil {
		job.Status = domain.JobFailed
		job.ErrorMessage = err.Error()
		logger.Error("[Collection] job failed", "job_id", job.JobID, "error", err)
	} else {
		logger.Info("[Collection] job completed", "job_id", job.JobID, "collected", collected)
	}
	if uerr := s.repo.UpdateJob(context.WithoutCancel(ctx), job); uerr != nil {
		logger.Error("[Collection] final job update failed", "job_id", job.JobID, "error", uerr)
	}
}

// CollectRequest is one collection pass.
type CollectRequest struct {
	Keywords []string
	Industry string
	Country  string
	Limit    int
}

// Collect searches the library and stores every ad not already present.
// progress, when set, is called after every tenth new ad. A failure on a
// single ad is logged and skipped. It returns the number of new ads.
func (s *Service) Collect(ctx context.Context, req CollectRequest, progress func(collected int)) (int, error) {
	found, err := s.library.SearchAds(ctx, SearchRequest{
		Terms:   req.Keywords,
		Country: req.Country,
		Limit:   req.Limit,
	})
	if err != nil {
		return 0, fmt.Errorf("search ads: %w", err)
	}
	logger.Info("[Collection] fetched ads", "count", len(found), "industry", req.Industry)

	collected := 0
	for i := range found {
		if err := ctx.Err(); err != nil {
			return collected, err
		}
		ad := found[i]
		exists, err := s.repo.AdExists(ctx, ad.AdID)
		if err != nil {
			logger.Warn("[Collection] existence check failed", "ad_id", ad.AdID, "error", err)
			continue
		}
		if exists {
			logger.Debug("[Collection] ad already stored", "ad_id", ad.AdID)
			continue
		}

		ad.Industry = req.Industry
		ad.TargetCountry = req.Country
		ad.CollectedAt = s.now()
		s.attachCreative(ctx, &ad)

		if err := s.repo.InsertAd(ctx, &ad); err != nil {
			logger.Warn("[Collection] insert failed", "ad_id", ad.AdID, "error", err)
			continue
		}
		collected++
		if progress != nil && collected%progressEvery == 0 {
			progress(collected)
		}
	}
	return collected, nil
}

// attachCreative copies the snapshot image to the creative store. Any
// failure leaves the ad without a stored image.
func (s *Service) attachCreative(ctx context.Context, ad *domain.Ad) {
	if ad.SnapshotURL == "" || s.store == nil {
		return
	}
	data, err := s.library.FetchSnapshot(ctx, ad.SnapshotURL)
	if err != nil || len(data) == 0 {
		logger.Warn("[Collection] snapshot download failed", "ad_id", ad.AdID, "error", err)
		return
	}
	contentType := "image/png"
	if s.images != nil {
		out, ct, err := s.images.Normalize(data)
		if err != nil {
			logger.Warn("[Collection] snapshot normalize failed", "ad_id", ad.AdID, "error", err)
		} else {
			data, contentType = out, ct
		}
	}
	key, err := s.store.PutCreative(ctx, ad.AdID, data, contentType)
	if err != nil {
		logger.Warn("[Collection] creative upload failed", "ad_id", ad.AdID, "error", err)
		return
	}
	ad.ImageS3Path = key
	ad.ImageURL = ad.SnapshotURL
}

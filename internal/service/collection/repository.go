package collection

import (
	"context"

	"github.com/ignite/ad-insights/internal/domain"
)

// Repository abstracts persistence of collect jobs and collected ads.
// Implementations must be safe for concurrent use.
type Repository interface {
	CreateJob(ctx context.Context, job *domain.CollectJob) error
	GetJob(ctx context.Context, jobID string) (*domain.CollectJob, error)
	// UpdateJob persists status, collected count, error message and
	// timestamps of job.
	UpdateJob(ctx context.Context, job *domain.CollectJob) error
	AdExists(ctx context.Context, adID string) (bool, error)
	InsertAd(ctx context.Context, ad *domain.Ad) error
}

// SearchRequest is one ad library search across several terms.
type SearchRequest struct {
	Terms   []string
	Country string
	Limit   int
}

// AdLibrary is the external ad transparency API.
type AdLibrary interface {
	// SearchAds returns at most req.Limit ads. A failing term is skipped;
	// an error means the search could not run at all.
	SearchAds(ctx context.Context, req SearchRequest) ([]domain.Ad, error)
	FetchSnapshot(ctx context.Context, url string) ([]byte, error)
}

// CreativeStore keeps copies of ad images.
type CreativeStore interface {
	// PutCreative stores data for adID and returns its object key.
	PutCreative(ctx context.Context, adID string, data []byte, contentType string) (string, error)
}

// ImageProcessor prepares a downloaded snapshot for storage.
type ImageProcessor interface {
	Normalize(data []byte) (out []byte, contentType string, err error)
}

// Dispatcher runs tasks asynchronously.
type Dispatcher interface {
	Dispatch(name string, task func(ctx context.Context) error) error
}

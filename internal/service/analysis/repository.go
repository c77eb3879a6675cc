package analysis

import (
	"context"

	"github.com/ignite/ad-insights/internal/domain"
)

// Repository abstracts persistence of ads and their analyses.
// Implementations must be safe for concurrent use.
type Repository interface {
	// GetAd returns the ad with any analyses attached, or ErrNotFound.
	GetAd(ctx context.Context, adID string) (*domain.Ad, error)
	SaveImageAnalysis(ctx context.Context, a *domain.ImageAnalysis) error
	SaveCopyAnalysis(ctx context.Context, a *domain.CopyAnalysis) error
}

// Analyzer is the external AI that describes creatives.
type Analyzer interface {
	AnalyzeImage(ctx context.Context, image []byte, mediaType string) (*domain.ImageAnalysis, error)
	AnalyzeCopy(ctx context.Context, body, title string) (*domain.CopyAnalysis, error)
}

// ImageLoader fetches the creative image of an ad, ready for analysis.
type ImageLoader interface {
	LoadImage(ctx context.Context, ad domain.Ad) (data []byte, mediaType string, err error)
}

// Dispatcher runs tasks asynchronously.
type Dispatcher interface {
	Dispatch(name string, task func(ctx context.Context) error) error
}

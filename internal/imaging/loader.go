package imaging

import (
	"context"
	"fmt"

	"github.com/ignite/ad-insights/internal/domain"
)

// Fetcher downloads an image by URL.
type Fetcher interface {
	FetchSnapshot(ctx context.Context, url string) ([]byte, error)
}

// ObjectReader reads a stored creative by key.
type ObjectReader interface {
	GetCreative(ctx context.Context, key string) ([]byte, error)
}

// Loader loads the image of an ad for analysis, preferring the stored
// copy over the remote URL. It implements analysis.ImageLoader.
type Loader struct {
	store     ObjectReader
	fetcher   Fetcher
	processor *Processor
}

// NewLoader creates a loader. store may be nil when object storage is
// disabled.
func NewLoader(store ObjectReader, fetcher Fetcher, p *Processor) *Loader {
	return &Loader{store: store, fetcher: fetcher, processor: p}
}

func (l *Loader) LoadImage(ctx context.Context, ad domain.Ad) ([]byte, string, error) {
	var (
		data []byte
		err  error
	)
	switch {
	case ad.ImageS3Path != "" && l.store != nil:
		data, err = l.store.GetCreative(ctx, ad.ImageS3Path)
	case ad.AnalysisImageURL() != "":
		data, err = l.fetcher.FetchSnapshot(ctx, ad.AnalysisImageURL())
	default:
		return nil, "", fmt.Errorf("ad %s has no image source", ad.AdID)
	}
	if err != nil {
		return nil, "", fmt.Errorf("fetch image for %s: %w", ad.AdID, err)
	}
	return l.processor.Normalize(data)
}

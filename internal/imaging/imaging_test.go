package imaging

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/ad-insights/internal/config"
	"github.com/ignite/ad-insights/internal/domain"
)

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalize_PassThrough(t *testing.T) {
	p := NewProcessor(config.ImagingConfig{MaxDimension: 100, MaxBytes: 1 << 20})
	src := pngOf(t, 40, 20)
	out, ct, err := p.Normalize(src)
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)
	assert.Equal(t, src, out)
}

func TestNormalize_Downscales(t *testing.T) {
	p := NewProcessor(config.ImagingConfig{MaxDimension: 50})
	out, ct, err := p.Normalize(pngOf(t, 200, 100))
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)

	cfg, err := png.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Width)
	assert.Equal(t, 25, cfg.Height)
}

func TestNormalize_Rejects(t *testing.T) {
	p := NewProcessor(config.ImagingConfig{MaxDimension: 50, MaxBytes: 10})
	_, _, err := p.Normalize(pngOf(t, 10, 10))
	assert.True(t, errors.Is(err, ErrTooLarge))

	p = NewProcessor(config.ImagingConfig{MaxDimension: 50})
	_, _, err = p.Normalize([]byte("<html>not an image</html>"))
	assert.True(t, errors.Is(err, ErrUnsupportedType))
}

func TestFit(t *testing.T) {
	w, h := fit(3000, 1000, 1568)
	assert.Equal(t, 1568, w)
	assert.Equal(t, 522, h)
	w, h = fit(10, 5000, 100)
	assert.Equal(t, 1, w)
	assert.Equal(t, 100, h)
}

type stubSource struct {
	data     []byte
	gotKey   string
	gotURL   string
	storeErr error
}

func (s *stubSource) GetCreative(_ context.Context, key string) ([]byte, error) {
	s.gotKey = key
	return s.data, s.storeErr
}

func (s *stubSource) FetchSnapshot(_ context.Context, url string) ([]byte, error) {
	s.gotURL = url
	return s.data, nil
}

func TestLoader(t *testing.T) {
	src := &stubSource{data: pngOf(t, 8, 8)}
	l := NewLoader(src, src, NewProcessor(config.ImagingConfig{MaxDimension: 100}))

	_, ct, err := l.LoadImage(context.Background(), domain.Ad{AdID: "1", ImageS3Path: "ads/1/x.png", SnapshotURL: "https://snap"})
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)
	assert.Equal(t, "ads/1/x.png", src.gotKey)
	assert.Empty(t, src.gotURL)

	_, _, err = l.LoadImage(context.Background(), domain.Ad{AdID: "2", SnapshotURL: "https://snap"})
	require.NoError(t, err)
	assert.Equal(t, "https://snap", src.gotURL)

	_, _, err = l.LoadImage(context.Background(), domain.Ad{AdID: "3"})
	assert.Error(t, err)
}

func TestLoader_NoStoreFallsBackToURL(t *testing.T) {
	src := &stubSource{data: pngOf(t, 8, 8)}
	l := NewLoader(nil, src, NewProcessor(config.ImagingConfig{}))
	_, _, err := l.LoadImage(context.Background(), domain.Ad{AdID: "1", ImageS3Path: "k", ImageURL: "https://img"})
	require.NoError(t, err)
	assert.Equal(t, "https://img", src.gotURL)
}

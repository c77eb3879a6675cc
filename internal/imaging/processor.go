// Package imaging prepares ad creatives for storage and vision analysis.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"net/http"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // WebP decode support

	"github.com/ignite/ad-insights/internal/config"
)

const jpegQuality = 85

var (
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooLarge        = errors.New("image exceeds size limit")
)

var supportedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Processor downscales images whose longest side exceeds MaxDimension.
// Images already within bounds pass through untouched.
type Processor struct {
	maxDimension int
	maxBytes     int64
}

// NewProcessor creates a processor from configuration.
func NewProcessor(cfg config.ImagingConfig) *Processor {
	return &Processor{maxDimension: cfg.MaxDimension, maxBytes: cfg.MaxBytes}
}

// Normalize validates data and returns it resized if needed, with its
// content type. WebP sources that need resizing come back as JPEG.
func (p *Processor) Normalize(data []byte) ([]byte, string, error) {
	if p.maxBytes > 0 && int64(len(data)) > p.maxBytes {
		return nil, "", fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}
	contentType := http.DetectContentType(data)
	if !supportedTypes[contentType] {
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decoding image header: %w", err)
	}
	if p.maxDimension <= 0 || (cfg.Width <= p.maxDimension && cfg.Height <= p.maxDimension) {
		return data, contentType, nil
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decoding image: %w", err)
	}
	w, h := fit(cfg.Width, cfg.Height, p.maxDimension)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	switch format {
	case "png":
		err = png.Encode(&buf, dst)
		contentType = "image/png"
	case "gif":
		err = gif.Encode(&buf, dst, nil)
		contentType = "image/gif"
	default:
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality})
		contentType = "image/jpeg"
	}
	if err != nil {
		return nil, "", fmt.Errorf("encoding %s: %w", format, err)
	}
	return buf.Bytes(), contentType, nil
}

// fit scales w x h so the longer side equals limit, keeping aspect ratio.
func fit(w, h, limit int) (int, int) {
	if w >= h {
		return limit, max(1, h*limit/w)
	}
	return max(1, w*limit/h), limit
}

// Extension returns the file extension for a supported content type.
func Extension(contentType string) string {
	switch contentType {
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	default:
		return "jpg"
	}
}

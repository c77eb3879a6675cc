package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/ignite/ad-insights/internal/config"
	"github.com/ignite/ad-insights/internal/imaging"
)

// CreativeStore uploads ad images to S3 under {prefix}/{adId}/{uuid}.{ext}.
// It implements collection.CreativeStore and imaging.ObjectReader.
type CreativeStore struct {
	client S3API
	bucket string
	prefix string
}

// NewCreativeStore creates an S3-backed creative store.
func NewCreativeStore(client S3API, cfg config.S3Config) *CreativeStore {
	return &CreativeStore{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}
}

// PutCreative stores data and returns its object key.
func (s *CreativeStore) PutCreative(ctx context.Context, adID string, data []byte, contentType string) (string, error) {
	key := fmt.Sprintf("%s/%s/%s.%s", s.prefix, adID, uuid.NewString(), imaging.Extension(contentType))
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("putting object to S3: %w", err)
	}
	return key, nil
}

// GetCreative reads a stored creative.
func (s *CreativeStore) GetCreative(ctx context.Context, key string) ([]byte, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("getting object from S3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("reading S3 object body: %w", err)
	}
	return data, nil
}

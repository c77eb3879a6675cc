package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/ignite/ad-insights/internal/domain"
	"github.com/ignite/ad-insights/internal/service/collection"
)

// CollectionRepo implements collection.Repository against PostgreSQL.
type CollectionRepo struct{ db *sql.DB }

// NewCollectionRepo creates a Postgres-backed collection repository.
func NewCollectionRepo(db *sql.DB) *CollectionRepo { return &CollectionRepo{db: db} }

func (r *CollectionRepo) CreateJob(ctx context.Context, j *domain.CollectJob) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO collect_jobs
			(job_id, status, keywords, industry, country, target_count, collected_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, j.JobID, string(j.Status), pq.Array(nonNil(j.Keywords)), j.Industry, j.Country,
		j.TargetCount, j.CollectedCount, j.CreatedAt)
	if err != nil {
		return fmt.Errorf("create collect job: %w", err)
	}
	return nil
}

func (r *CollectionRepo) GetJob(ctx context.Context, jobID string) (*domain.CollectJob, error) {
	var (
		j      domain.CollectJob
		status string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT job_id, status, keywords, COALESCE(industry, ''), country, target_count,
		       collected_count, COALESCE(error_message, ''), started_at, completed_at, created_at
		FROM collect_jobs WHERE job_id::text = $1
	`, jobID).Scan(&j.JobID, &status, pq.Array(&j.Keywords), &j.Industry, &j.Country, &j.TargetCount,
		&j.CollectedCount, &j.ErrorMessage, &j.StartedAt, &j.CompletedAt, &j.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, collection.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get collect job: %w", err)
	}
	j.Status = domain.JobStatus(status)
	return &j, nil
}

func (r *CollectionRepo) UpdateJob(ctx context.Context, j *domain.CollectJob) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE collect_jobs
		SET status = $2, collected_count = $3, error_message = $4, started_at = $5, completed_at = $6
		WHERE job_id = $1
	`, j.JobID, string(j.Status), j.CollectedCount, nullIfEmpty(j.ErrorMessage), j.StartedAt, j.CompletedAt)
	if err != nil {
		return fmt.Errorf("update collect job: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return collection.ErrNotFound
	}
	return nil
}

func (r *CollectionRepo) AdExists(ctx context.Context, adID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM ads_raw WHERE ad_id = $1)`, adID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ad exists: %w", err)
	}
	return exists, nil
}

// InsertAd stores a newly collected ad. An ad that is already present is
// left untouched.
func (r *CollectionRepo) InsertAd(ctx context.Context, a *domain.Ad) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO ads_raw
			(ad_id, page_id, page_name, ad_creative_body, ad_creative_link_title,
			 ad_creative_link_description, ad_snapshot_url, start_date, stop_date, platforms,
			 currency, spend_lower, spend_upper, impressions_lower, impressions_upper,
			 target_country, industry, region, image_url, image_s3_path, collected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19, $20, $21)
		ON CONFLICT (ad_id) DO NOTHING
		RETURNING id
	`, a.AdID, nullIfEmpty(a.PageID), nullIfEmpty(a.PageName), nullIfEmpty(a.CreativeBody),
		nullIfEmpty(a.CreativeLinkTitle), nullIfEmpty(a.CreativeLinkDesc), nullIfEmpty(a.SnapshotURL),
		a.StartDate, a.StopDate, pq.Array(nonNil(a.Platforms)),
		nullIfEmpty(a.Currency), a.SpendLower, a.SpendUpper, a.ImpressionsLower, a.ImpressionsUpper,
		nullIfEmpty(a.TargetCountry), a.Industry, nullIfEmpty(a.Region), nullIfEmpty(a.ImageURL),
		nullIfEmpty(a.ImageS3Path), a.CollectedAt,
	).Scan(&a.ID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("insert ad %s: %w", a.AdID, err)
	}
	return nil
}

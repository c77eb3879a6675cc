package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/ad-insights/internal/domain"
	"github.com/ignite/ad-insights/internal/service/scoring"
)

// ScoringRepo implements scoring.Repository against PostgreSQL.
type ScoringRepo struct{ db *sql.DB }

// NewScoringRepo creates a Postgres-backed scoring repository.
func NewScoringRepo(db *sql.DB) *ScoringRepo { return &ScoringRepo{db: db} }

func (r *ScoringRepo) ListAdsForScoring(ctx context.Context) ([]domain.Ad, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ad_id, start_date, stop_date, impressions_lower, impressions_upper
		FROM ads_raw
		ORDER BY ad_id`)
	if err != nil {
		return nil, fmt.Errorf("list ads for scoring: %w", err)
	}
	defer rows.Close()

	var out []domain.Ad
	for rows.Next() {
		var a domain.Ad
		if err := rows.Scan(&a.AdID, &a.StartDate, &a.StopDate, &a.ImpressionsLower, &a.ImpressionsUpper); err != nil {
			return nil, fmt.Errorf("scan ad: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *ScoringRepo) UpsertScores(ctx context.Context, scores []domain.SuccessScore) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ads_success_score
			(ad_id, duration_score, impressions_score, total_score, percentile, is_successful, calculated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (ad_id) DO UPDATE SET
			duration_score = EXCLUDED.duration_score,
			impressions_score = EXCLUDED.impressions_score,
			total_score = EXCLUDED.total_score,
			percentile = EXCLUDED.percentile,
			is_successful = EXCLUDED.is_successful,
			calculated_at = EXCLUDED.calculated_at`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, s := range scores {
		if _, err := stmt.ExecContext(ctx, s.AdID, s.DurationScore, s.ImpressionsScore,
			s.TotalScore, s.Percentile, s.IsSuccessful, s.CalculatedAt); err != nil {
			return fmt.Errorf("upsert score %s: %w", s.AdID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit scores: %w", err)
	}
	return nil
}

func (r *ScoringRepo) ScoreAggregates(ctx context.Context) (scoring.Aggregates, error) {
	var a scoring.Aggregates
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_successful),
		       COALESCE(AVG(total_score), 0),
		       COALESCE(AVG(duration_score), 0),
		       COALESCE(AVG(impressions_score), 0),
		       COALESCE(MAX(total_score), 0),
		       COALESCE(MIN(total_score), 0)
		FROM ads_success_score`,
	).Scan(&a.Total, &a.Successful, &a.AvgTotalScore, &a.AvgDurationScore,
		&a.AvgImpressionsScore, &a.MaxScore, &a.MinScore)
	if err != nil {
		return scoring.Aggregates{}, fmt.Errorf("score aggregates: %w", err)
	}
	return a, nil
}

func (r *ScoringRepo) PruneOrphanScores(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM ads_success_score s
		WHERE NOT EXISTS (SELECT 1 FROM ads_raw a WHERE a.ad_id = s.ad_id)`)
	if err != nil {
		return 0, fmt.Errorf("prune orphan scores: %w", err)
	}
	return res.RowsAffected()
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/ignite/ad-insights/internal/domain"
	"github.com/ignite/ad-insights/internal/service/pattern"
)

// PatternRepo implements pattern.Repository against PostgreSQL.
// Global-scope rows carry a NULL industry.
type PatternRepo struct{ db *sql.DB }

// NewPatternRepo creates a Postgres-backed pattern repository.
func NewPatternRepo(db *sql.DB) *PatternRepo { return &PatternRepo{db: db} }

// ListScoredAds reads scored ads and their enrichment inside one
// repeatable-read transaction.
func (r *PatternRepo) ListScoredAds(ctx context.Context, scope domain.Scope) ([]domain.Ad, error) {
	tx, err := snapshot(ctx, r.db)
	if err != nil {
		return nil, fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback()

	q := `SELECT ` + adColumns + ` FROM ads_raw a JOIN ads_success_score s ON s.ad_id = a.ad_id`
	var args []any
	if !scope.Global() {
		q += ` WHERE a.industry = $1`
		args = append(args, scope.Industry)
	}
	q += ` ORDER BY a.ad_id`

	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list scored ads: %w", err)
	}
	var out []domain.Ad
	for rows.Next() {
		a, err := scanAd(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan ad: %w", err)
		}
		out = append(out, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list scored ads: %w", err)
	}

	if err := attachEnrichment(ctx, tx, out); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit snapshot: %w", err)
	}
	return out, nil
}

func (r *PatternRepo) ReplacePatterns(ctx context.Context, scope domain.Scope, recs []domain.PatternRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	where, args := scopeClause(scope, 1)
	if _, err := tx.ExecContext(ctx, `DELETE FROM pattern_analysis WHERE `+where, args...); err != nil {
		return fmt.Errorf("clear patterns: %w", err)
	}

	for _, p := range recs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO pattern_analysis
				(analysis_type, field_name, field_value, successful_count, successful_ratio,
				 general_count, general_ratio, lift, is_pattern, industry, analyzed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, string(p.AnalysisType), p.FieldName, p.FieldValue, p.SuccessfulCount, p.SuccessfulRatio,
			p.GeneralCount, p.GeneralRatio, p.Lift, p.IsPattern, scopeArg(scope), p.CreatedAt); err != nil {
			return fmt.Errorf("insert pattern %s=%s: %w", p.FieldName, p.FieldValue, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit patterns: %w", err)
	}
	return nil
}

func (r *PatternRepo) ListPatterns(ctx context.Context, f pattern.PatternFilter) ([]domain.PatternRecord, error) {
	where, args := scopeClause(f.Scope, 1)
	q := `
		SELECT id, analysis_type, field_name, field_value, successful_count, successful_ratio,
		       general_count, general_ratio, lift, is_pattern, COALESCE(industry, ''), analyzed_at
		FROM pattern_analysis
		WHERE ` + where
	if f.PatternsOnly {
		q += ` AND is_pattern = true`
	}
	q += ` ORDER BY lift DESC, analysis_type, field_name, field_value`
	if f.Limit > 0 {
		q += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list patterns: %w", err)
	}
	defer rows.Close()

	var out []domain.PatternRecord
	for rows.Next() {
		var (
			p   domain.PatternRecord
			typ string
		)
		if err := rows.Scan(&p.ID, &typ, &p.FieldName, &p.FieldValue, &p.SuccessfulCount, &p.SuccessfulRatio,
			&p.GeneralCount, &p.GeneralRatio, &p.Lift, &p.IsPattern, &p.Industry, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pattern: %w", err)
		}
		p.AnalysisType = domain.AnalysisType(typ)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PatternRepo) ReplaceInsights(ctx context.Context, scope domain.Scope, items []domain.Insight) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	where, args := scopeClause(scope, 1)
	if _, err := tx.ExecContext(ctx, `DELETE FROM pattern_insights WHERE `+where, args...); err != nil {
		return fmt.Errorf("clear insights: %w", err)
	}

	for _, in := range items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO pattern_insights
				(insight_type, title, description, supporting_patterns, confidence, industry, generated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, string(in.Type), in.Title, in.Description, pq.Array(nonNil(in.SupportingPatterns)),
			in.Confidence, scopeArg(scope), in.GeneratedAt); err != nil {
			return fmt.Errorf("insert insight: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insights: %w", err)
	}
	return nil
}

func (r *PatternRepo) ListInsights(ctx context.Context, f pattern.InsightFilter) ([]domain.Insight, error) {
	where, args := scopeClause(f.Scope, 1)
	q := `
		SELECT id, insight_type, title, description, supporting_patterns, confidence,
		       COALESCE(industry, ''), generated_at
		FROM pattern_insights
		WHERE ` + where
	if f.Type != "" {
		q += fmt.Sprintf(" AND insight_type = $%d", len(args)+1)
		args = append(args, string(f.Type))
	}
	q += ` ORDER BY generated_at DESC, id ASC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list insights: %w", err)
	}
	defer rows.Close()

	var out []domain.Insight
	for rows.Next() {
		var (
			in  domain.Insight
			typ string
		)
		if err := rows.Scan(&in.ID, &typ, &in.Title, &in.Description, pq.Array(&in.SupportingPatterns),
			&in.Confidence, &in.Industry, &in.GeneratedAt); err != nil {
			return nil, fmt.Errorf("scan insight: %w", err)
		}
		in.Type = domain.InsightType(typ)
		out = append(out, in)
	}
	return out, rows.Err()
}

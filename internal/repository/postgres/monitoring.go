package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/ad-insights/internal/domain"
	"github.com/ignite/ad-insights/internal/service/monitoring"
)

// MonitoringRepo implements monitoring.Repository against PostgreSQL.
type MonitoringRepo struct{ db *sql.DB }

// NewMonitoringRepo creates a Postgres-backed monitoring repository.
func NewMonitoringRepo(db *sql.DB) *MonitoringRepo { return &MonitoringRepo{db: db} }

const keywordColumns = `id, keyword, industry, country, schedule_cron, is_active,
	last_run_at, created_at, updated_at`

func scanKeyword(row rowScanner) (domain.MonitoringKeyword, error) {
	var k domain.MonitoringKeyword
	err := row.Scan(&k.ID, &k.Keyword, &k.Industry, &k.Country, &k.ScheduleCron, &k.IsActive,
		&k.LastRunAt, &k.CreatedAt, &k.UpdatedAt)
	return k, err
}

func (r *MonitoringRepo) CreateKeyword(ctx context.Context, k *domain.MonitoringKeyword) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO monitoring_keywords
			(id, keyword, industry, country, schedule_cron, is_active, last_run_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, k.ID, k.Keyword, k.Industry, k.Country, k.ScheduleCron, k.IsActive, k.LastRunAt, k.CreatedAt, k.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create keyword: %w", err)
	}
	return nil
}

func (r *MonitoringRepo) GetKeyword(ctx context.Context, id string) (*domain.MonitoringKeyword, error) {
	k, err := scanKeyword(r.db.QueryRowContext(ctx,
		`SELECT `+keywordColumns+` FROM monitoring_keywords WHERE id::text = $1`, id))
	if err == sql.ErrNoRows {
		return nil, monitoring.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get keyword: %w", err)
	}
	return &k, nil
}

func (r *MonitoringRepo) ListKeywords(ctx context.Context, active *bool) ([]domain.MonitoringKeyword, error) {
	q := `SELECT ` + keywordColumns + ` FROM monitoring_keywords`
	var args []any
	if active != nil {
		q += ` WHERE is_active = $1`
		args = append(args, *active)
	}
	q += ` ORDER BY created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list keywords: %w", err)
	}
	defer rows.Close()

	var out []domain.MonitoringKeyword
	for rows.Next() {
		k, err := scanKeyword(rows)
		if err != nil {
			return nil, fmt.Errorf("scan keyword: %w", err)
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func (r *MonitoringRepo) UpdateKeyword(ctx context.Context, k *domain.MonitoringKeyword) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE monitoring_keywords
		SET keyword = $2, industry = $3, country = $4, schedule_cron = $5, is_active = $6,
		    last_run_at = $7, updated_at = $8
		WHERE id::text = $1
	`, k.ID, k.Keyword, k.Industry, k.Country, k.ScheduleCron, k.IsActive, k.LastRunAt, k.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update keyword: %w", err)
	}
	return expectOne(res, monitoring.ErrNotFound)
}

// DeleteKeyword removes a keyword; its runs cascade.
func (r *MonitoringRepo) DeleteKeyword(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM monitoring_keywords WHERE id::text = $1`, id)
	if err != nil {
		return fmt.Errorf("delete keyword: %w", err)
	}
	return expectOne(res, monitoring.ErrNotFound)
}

func (r *MonitoringRepo) CreateRun(ctx context.Context, run *domain.MonitoringRun) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO monitoring_runs
			(id, keyword_id, status, new_ads_count, error_message, started_at, completed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, run.ID, run.KeywordID, string(run.Status), run.NewAdsCount, nullIfEmpty(run.ErrorMessage),
		run.StartedAt, run.CompletedAt, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

func (r *MonitoringRepo) UpdateRun(ctx context.Context, run *domain.MonitoringRun) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE monitoring_runs
		SET status = $2, new_ads_count = $3, error_message = $4, started_at = $5, completed_at = $6
		WHERE id = $1
	`, run.ID, string(run.Status), run.NewAdsCount, nullIfEmpty(run.ErrorMessage), run.StartedAt, run.CompletedAt)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return expectOne(res, monitoring.ErrNotFound)
}

func (r *MonitoringRepo) ListRuns(ctx context.Context, keywordID string, limit int) ([]domain.MonitoringRun, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, keyword_id, status, new_ads_count, COALESCE(error_message, ''),
		       started_at, completed_at, created_at
		FROM monitoring_runs
		WHERE keyword_id::text = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`, keywordID, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []domain.MonitoringRun
	for rows.Next() {
		var (
			run    domain.MonitoringRun
			status string
		)
		if err := rows.Scan(&run.ID, &run.KeywordID, &status, &run.NewAdsCount, &run.ErrorMessage,
			&run.StartedAt, &run.CompletedAt, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Status = domain.JobStatus(status)
		out = append(out, run)
	}
	return out, rows.Err()
}

func (r *MonitoringRepo) CreateNotification(ctx context.Context, n *domain.Notification) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (id, type, title, message, keyword_id, run_id, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, n.ID, n.Type, n.Title, n.Message, nullIfEmpty(n.KeywordID), nullIfEmpty(n.RunID), n.IsRead, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (r *MonitoringRepo) ListNotifications(ctx context.Context, unreadOnly bool, limit int) ([]domain.Notification, error) {
	q := `
		SELECT id, type, title, message, COALESCE(keyword_id::text, ''), COALESCE(run_id::text, ''),
		       is_read, created_at
		FROM notifications`
	if unreadOnly {
		q += ` WHERE is_read = false`
	}
	q += ` ORDER BY created_at DESC, id LIMIT $1`

	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.Type, &n.Title, &n.Message, &n.KeywordID, &n.RunID,
			&n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *MonitoringRepo) CountUnread(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE is_read = false`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}

func (r *MonitoringRepo) MarkRead(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = true WHERE id::text = $1`, id)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return expectOne(res, monitoring.ErrNotFound)
}

func (r *MonitoringRepo) MarkAllRead(ctx context.Context) (int, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = true WHERE is_read = false`)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func expectOne(res sql.Result, notFound error) error {
	n, _ := res.RowsAffected()
	if n == 0 {
		return notFound
	}
	return nil
}

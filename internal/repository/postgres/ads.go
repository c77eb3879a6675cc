package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/ignite/ad-insights/internal/domain"
	"github.com/ignite/ad-insights/internal/service/ads"
)

const adColumns = `
	a.id, a.ad_id, COALESCE(a.page_id, ''), COALESCE(a.page_name, ''),
	COALESCE(a.ad_creative_body, ''), COALESCE(a.ad_creative_link_title, ''),
	COALESCE(a.ad_creative_link_description, ''), COALESCE(a.ad_snapshot_url, ''),
	a.start_date, a.stop_date, a.platforms, COALESCE(a.currency, ''),
	a.spend_lower, a.spend_upper, a.impressions_lower, a.impressions_upper,
	COALESCE(a.target_country, ''), a.industry, COALESCE(a.region, ''),
	COALESCE(a.image_url, ''), COALESCE(a.image_s3_path, ''), a.collected_at`

func scanAd(row rowScanner) (domain.Ad, error) {
	var a domain.Ad
	err := row.Scan(
		&a.ID, &a.AdID, &a.PageID, &a.PageName,
		&a.CreativeBody, &a.CreativeLinkTitle,
		&a.CreativeLinkDesc, &a.SnapshotURL,
		&a.StartDate, &a.StopDate, pq.Array(&a.Platforms), &a.Currency,
		&a.SpendLower, &a.SpendUpper, &a.ImpressionsLower, &a.ImpressionsUpper,
		&a.TargetCountry, &a.Industry, &a.Region,
		&a.ImageURL, &a.ImageS3Path, &a.CollectedAt,
	)
	return a, err
}

// AdsRepo implements ads.Repository against PostgreSQL.
type AdsRepo struct{ db *sql.DB }

// NewAdsRepo creates a Postgres-backed ad repository.
func NewAdsRepo(db *sql.DB) *AdsRepo { return &AdsRepo{db: db} }

func (r *AdsRepo) ListAds(ctx context.Context, f ads.ListFilter) ([]domain.Ad, int, error) {
	from := ` FROM ads_raw a`
	if f.SuccessfulOnly {
		from += ` JOIN ads_success_score s ON s.ad_id = a.ad_id AND s.is_successful = true`
	}
	where := ` WHERE 1=1`
	var args []any
	idx := 1
	if f.Industry != "" {
		where += fmt.Sprintf(" AND a.industry = $%d", idx)
		args = append(args, f.Industry)
		idx++
	}
	if f.Region != "" {
		where += fmt.Sprintf(" AND a.region = $%d", idx)
		args = append(args, f.Region)
		idx++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)`+from+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count ads: %w", err)
	}

	q := `SELECT ` + adColumns + from + where +
		fmt.Sprintf(" ORDER BY %s LIMIT $%d OFFSET $%d", orderBy(f.Sort), idx, idx+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list ads: %w", err)
	}
	defer rows.Close()

	var out []domain.Ad
	for rows.Next() {
		a, err := scanAd(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan ad: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list ads: %w", err)
	}
	if err := attachEnrichment(ctx, r.db, out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// orderBy maps a validated sort key to SQL. Ads without a start date sort
// last in either direction.
func orderBy(sort string) string {
	dir := "ASC"
	if strings.HasPrefix(sort, "-") {
		dir = "DESC"
		sort = sort[1:]
	}
	switch sort {
	case ads.SortCollectedAt:
		return "a.collected_at " + dir + ", a.ad_id ASC"
	default:
		return "(COALESCE(a.stop_date, CURRENT_DATE) - a.start_date) " + dir + " NULLS LAST, a.ad_id ASC"
	}
}

func (r *AdsRepo) GetAd(ctx context.Context, adID string) (*domain.Ad, error) {
	a, err := scanAd(r.db.QueryRowContext(ctx, `SELECT `+adColumns+` FROM ads_raw a WHERE a.ad_id = $1`, adID))
	if err == sql.ErrNoRows {
		return nil, ads.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get ad: %w", err)
	}
	one := []domain.Ad{a}
	if err := attachEnrichment(ctx, r.db, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

// DeleteAd removes the ad; analyses cascade, the score row stays.
func (r *AdsRepo) DeleteAd(ctx context.Context, adID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ads_raw WHERE ad_id = $1`, adID)
	if err != nil {
		return fmt.Errorf("delete ad: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ads.ErrNotFound
	}
	return nil
}

// attachEnrichment loads analyses and scores for ads in three queries and
// attaches them in place.
func attachEnrichment(ctx context.Context, q querier, list []domain.Ad) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]string, len(list))
	pos := make(map[string]int, len(list))
	for i, a := range list {
		ids[i] = a.AdID
		pos[a.AdID] = i
	}

	images, err := loadImageAnalyses(ctx, q, ids)
	if err != nil {
		return err
	}
	copies, err := loadCopyAnalyses(ctx, q, ids)
	if err != nil {
		return err
	}
	scores, err := loadScores(ctx, q, ids)
	if err != nil {
		return err
	}
	for id, i := range pos {
		list[i].ImageAnalysis = images[id]
		list[i].CopyAnalysis = copies[id]
		list[i].SuccessScore = scores[id]
	}
	return nil
}

const imageColumns = `
	ad_id, has_person, person_type, text_ratio, has_chart, logo_position,
	primary_color, secondary_color, tertiary_color, color_tone, saturation,
	layout_type, atmosphere, emphasis_elements, mentioned_regions,
	analysis_raw, analyzed_at`

func loadImageAnalyses(ctx context.Context, q querier, ids []string) (map[string]*domain.ImageAnalysis, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+imageColumns+` FROM ads_analysis_image WHERE ad_id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("load image analyses: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*domain.ImageAnalysis)
	for rows.Next() {
		var (
			a   domain.ImageAnalysis
			raw []byte
		)
		if err := rows.Scan(
			&a.AdID, &a.HasPerson, &a.PersonType, &a.TextRatio, &a.HasChart, &a.LogoPosition,
			&a.PrimaryColor, &a.SecondaryColor, &a.TertiaryColor, &a.ColorTone, &a.Saturation,
			&a.LayoutType, &a.Atmosphere, pq.Array(&a.EmphasisElements), pq.Array(&a.MentionedRegions),
			&raw, &a.AnalyzedAt,
		); err != nil {
			return nil, fmt.Errorf("scan image analysis: %w", err)
		}
		if len(raw) > 0 {
			a.Raw = json.RawMessage(raw)
		}
		out[a.AdID] = &a
	}
	return out, rows.Err()
}

const copyColumns = `
	ad_id, headline, headline_length, body, cta, core_message, numbers,
	regions, discount_info, free_benefit, social_proof, urgency,
	differentiation, formality, emotion, style, target_audience, keywords,
	analysis_raw, analyzed_at`

func loadCopyAnalyses(ctx context.Context, q querier, ids []string) (map[string]*domain.CopyAnalysis, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+copyColumns+` FROM ads_analysis_copy WHERE ad_id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("load copy analyses: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*domain.CopyAnalysis)
	for rows.Next() {
		var (
			c            domain.CopyAnalysis
			numbers, raw []byte
		)
		if err := rows.Scan(
			&c.AdID, &c.Headline, &c.HeadlineLength, &c.Body, &c.CTA, &c.CoreMessage, &numbers,
			pq.Array(&c.Regions), &c.DiscountInfo, &c.FreeBenefit, &c.SocialProof, &c.Urgency,
			&c.Differentiation, &c.Formality, &c.Emotion, &c.Style, &c.TargetAudience, pq.Array(&c.Keywords),
			&raw, &c.AnalyzedAt,
		); err != nil {
			return nil, fmt.Errorf("scan copy analysis: %w", err)
		}
		if len(numbers) > 0 {
			if err := json.Unmarshal(numbers, &c.Numbers); err != nil {
				return nil, fmt.Errorf("decode numbers for %s: %w", c.AdID, err)
			}
		}
		if len(raw) > 0 {
			c.Raw = json.RawMessage(raw)
		}
		out[c.AdID] = &c
	}
	return out, rows.Err()
}

func loadScores(ctx context.Context, q querier, ids []string) (map[string]*domain.SuccessScore, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT ad_id, duration_score, impressions_score, total_score,
		       percentile, is_successful, calculated_at
		FROM ads_success_score WHERE ad_id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("load scores: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*domain.SuccessScore)
	for rows.Next() {
		var s domain.SuccessScore
		if err := rows.Scan(&s.AdID, &s.DurationScore, &s.ImpressionsScore, &s.TotalScore,
			&s.Percentile, &s.IsSuccessful, &s.CalculatedAt); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		out[s.AdID] = &s
	}
	return out, rows.Err()
}

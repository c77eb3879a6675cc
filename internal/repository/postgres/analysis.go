package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/ignite/ad-insights/internal/domain"
	"github.com/ignite/ad-insights/internal/service/ads"
	"github.com/ignite/ad-insights/internal/service/analysis"
)

// AnalysisRepo implements analysis.Repository against PostgreSQL.
type AnalysisRepo struct {
	db  *sql.DB
	ads *AdsRepo
}

// NewAnalysisRepo creates a Postgres-backed analysis repository.
func NewAnalysisRepo(db *sql.DB) *AnalysisRepo {
	return &AnalysisRepo{db: db, ads: NewAdsRepo(db)}
}

func (r *AnalysisRepo) GetAd(ctx context.Context, adID string) (*domain.Ad, error) {
	a, err := r.ads.GetAd(ctx, adID)
	if errors.Is(err, ads.ErrNotFound) {
		return nil, analysis.ErrNotFound
	}
	return a, err
}

func (r *AnalysisRepo) SaveImageAnalysis(ctx context.Context, a *domain.ImageAnalysis) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ads_analysis_image
			(ad_id, has_person, person_type, text_ratio, has_chart, logo_position,
			 primary_color, secondary_color, tertiary_color, color_tone, saturation,
			 layout_type, atmosphere, emphasis_elements, mentioned_regions,
			 analysis_raw, analyzed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (ad_id) DO UPDATE SET
			has_person = EXCLUDED.has_person, person_type = EXCLUDED.person_type,
			text_ratio = EXCLUDED.text_ratio, has_chart = EXCLUDED.has_chart,
			logo_position = EXCLUDED.logo_position, primary_color = EXCLUDED.primary_color,
			secondary_color = EXCLUDED.secondary_color, tertiary_color = EXCLUDED.tertiary_color,
			color_tone = EXCLUDED.color_tone, saturation = EXCLUDED.saturation,
			layout_type = EXCLUDED.layout_type, atmosphere = EXCLUDED.atmosphere,
			emphasis_elements = EXCLUDED.emphasis_elements,
			mentioned_regions = EXCLUDED.mentioned_regions,
			analysis_raw = EXCLUDED.analysis_raw, analyzed_at = EXCLUDED.analyzed_at
	`, a.AdID, a.HasPerson, a.PersonType, a.TextRatio, a.HasChart, a.LogoPosition,
		a.PrimaryColor, a.SecondaryColor, a.TertiaryColor, a.ColorTone, a.Saturation,
		a.LayoutType, a.Atmosphere, pq.Array(nonNil(a.EmphasisElements)), pq.Array(nonNil(a.MentionedRegions)),
		rawArg(a.Raw), a.AnalyzedAt)
	if err != nil {
		return fmt.Errorf("save image analysis: %w", err)
	}
	return nil
}

func (r *AnalysisRepo) SaveCopyAnalysis(ctx context.Context, c *domain.CopyAnalysis) error {
	numbers := c.Numbers
	if numbers == nil {
		numbers = []domain.NumberMention{}
	}
	nb, err := json.Marshal(numbers)
	if err != nil {
		return fmt.Errorf("encode numbers: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO ads_analysis_copy
			(ad_id, headline, headline_length, body, cta, core_message, numbers,
			 regions, discount_info, free_benefit, social_proof, urgency,
			 differentiation, formality, emotion, style, target_audience, keywords,
			 analysis_raw, analyzed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (ad_id) DO UPDATE SET
			headline = EXCLUDED.headline, headline_length = EXCLUDED.headline_length,
			body = EXCLUDED.body, cta = EXCLUDED.cta, core_message = EXCLUDED.core_message,
			numbers = EXCLUDED.numbers, regions = EXCLUDED.regions,
			discount_info = EXCLUDED.discount_info, free_benefit = EXCLUDED.free_benefit,
			social_proof = EXCLUDED.social_proof, urgency = EXCLUDED.urgency,
			differentiation = EXCLUDED.differentiation, formality = EXCLUDED.formality,
			emotion = EXCLUDED.emotion, style = EXCLUDED.style,
			target_audience = EXCLUDED.target_audience, keywords = EXCLUDED.keywords,
			analysis_raw = EXCLUDED.analysis_raw, analyzed_at = EXCLUDED.analyzed_at
	`, c.AdID, c.Headline, c.HeadlineLength, c.Body, c.CTA, c.CoreMessage, nb,
		pq.Array(nonNil(c.Regions)), c.DiscountInfo, c.FreeBenefit, c.SocialProof, c.Urgency,
		c.Differentiation, c.Formality, c.Emotion, c.Style, c.TargetAudience, pq.Array(nonNil(c.Keywords)),
		rawArg(c.Raw), c.AnalyzedAt)
	if err != nil {
		return fmt.Errorf("save copy analysis: %w", err)
	}
	return nil
}

// nonNil keeps NOT NULL array columns from receiving NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func rawArg(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

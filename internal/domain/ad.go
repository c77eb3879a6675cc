package domain

import (
	"time"
)

// Ad is a collected ad library record. It is immutable once collected
// except for enrichment fields (image path and attached analyses).
type Ad struct {
	ID                int64      `json:"id" db:"id"`
	AdID              string     `json:"ad_id" db:"ad_id"`
	PageID            string     `json:"page_id,omitempty" db:"page_id"`
	PageName          string     `json:"page_name,omitempty" db:"page_name"`
	CreativeBody      string     `json:"ad_creative_body,omitempty" db:"ad_creative_body"`
	CreativeLinkTitle string     `json:"ad_creative_link_title,omitempty" db:"ad_creative_link_title"`
	CreativeLinkDesc  string     `json:"ad_creative_link_description,omitempty" db:"ad_creative_link_description"`
	SnapshotURL       string     `json:"ad_snapshot_url,omitempty" db:"ad_snapshot_url"`
	StartDate         *time.Time `json:"start_date" db:"start_date"`
	StopDate          *time.Time `json:"stop_date" db:"stop_date"`
	Platforms         []string   `json:"platforms" db:"platforms"`
	Currency          string     `json:"currency,omitempty" db:"currency"`
	SpendLower        *int64     `json:"spend_lower" db:"spend_lower"`
	SpendUpper        *int64     `json:"spend_upper" db:"spend_upper"`
	ImpressionsLower  *int64     `json:"impressions_lower" db:"impressions_lower"`
	ImpressionsUpper  *int64     `json:"impressions_upper" db:"impressions_upper"`
	TargetCountry     string     `json:"target_country" db:"target_country"`
	Industry          string     `json:"industry" db:"industry"`
	Region            string     `json:"region,omitempty" db:"region"`
	ImageURL          string     `json:"image_url,omitempty" db:"image_url"`
	ImageS3Path       string     `json:"image_s3_path,omitempty" db:"image_s3_path"`
	CollectedAt       time.Time  `json:"collected_at" db:"collected_at"`

	// Populated by queries that join the enrichment and score tables.
	ImageAnalysis *ImageAnalysis `json:"image_analysis,omitempty"`
	CopyAnalysis  *CopyAnalysis  `json:"copy_analysis,omitempty"`
	SuccessScore  *SuccessScore  `json:"success_score,omitempty"`
}

// DurationDays returns the number of whole days the ad ran, measured from
// its start date to its stop date (or today when still running). An ad
// without a start date has duration 0. The result is negative when the
// stop date precedes the start date; scoring rejects such ads.
func (a Ad) DurationDays(today time.Time) int {
	if a.StartDate == nil {
		return 0
	}
	end := today
	if a.StopDate != nil {
		end = *a.StopDate
	}
	return daysBetween(*a.StartDate, end)
}

// HasImageAnalysis reports whether an image analysis is attached.
func (a Ad) HasImageAnalysis() bool { return a.ImageAnalysis != nil }

// HasCopyAnalysis reports whether a copy analysis is attached.
func (a Ad) HasCopyAnalysis() bool { return a.CopyAnalysis != nil }

// AnalysisImageURL is the URL handed to image analysis: the stored image
// URL when present, otherwise the snapshot URL.
func (a Ad) AnalysisImageURL() string {
	if a.ImageURL != "" {
		return a.ImageURL
	}
	return a.SnapshotURL
}

// HasCopy reports whether the ad carries any copy text worth analyzing.
func (a Ad) HasCopy() bool {
	return a.CreativeBody != "" || a.CreativeLinkTitle != ""
}

func daysBetween(from, to time.Time) int {
	f := civilDate(from)
	t := civilDate(to)
	return int(t.Sub(f).Hours() / 24)
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

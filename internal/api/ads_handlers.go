package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/ad-insights/internal/domain"
	"github.com/ignite/ad-insights/internal/pkg/httputil"
	"github.com/ignite/ad-insights/internal/service/ads"
	"github.com/ignite/ad-insights/internal/service/collection"
)

func urlParam(r *http.Request, name string) string { return chi.URLParam(r, name) }

// adListItem is the list view of an ad.
type adListItem struct {
	ID               int64      `json:"id"`
	AdID             string     `json:"ad_id"`
	PageName         string     `json:"page_name,omitempty"`
	CreativeBody     string     `json:"ad_creative_body,omitempty"`
	StartDate        *time.Time `json:"start_date"`
	StopDate         *time.Time `json:"stop_date"`
	DurationDays     int        `json:"duration_days"`
	Platforms        []string   `json:"platforms"`
	Industry         string     `json:"industry"`
	Region           string     `json:"region,omitempty"`
	ImageURL         string     `json:"image_url,omitempty"`
	ImageS3Path      string     `json:"image_s3_path,omitempty"`
	HasImageAnalysis bool       `json:"has_image_analysis"`
	HasCopyAnalysis  bool       `json:"has_copy_analysis"`
	CollectedAt      time.Time  `json:"collected_at"`
	SuccessScore     *float64   `json:"success_score"`
	IsSuccessful     bool       `json:"is_successful"`
}

type adListResponse struct {
	Items []adListItem `json:"items"`
	PageMeta
}

// adDetail is the full view of an ad with its analyses and score.
type adDetail struct {
	domain.Ad
	DurationDays int `json:"duration_days"`
}

// ListAds returns a filtered page of ads. Duration bounds filter the page
// after it is read.
//
//	GET /api/v1/ads?industry=&region=&min_duration=&max_duration=&successful_only=&page=&limit=&sort=
func (h *Handlers) ListAds(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := ParsePagination(r, ads.DefaultLimit, ads.MaxLimit)
	f := ads.ListFilter{
		Industry:       q.Get("industry"),
		Region:         q.Get("region"),
		SuccessfulOnly: httputil.QueryBool(r, "successful_only", false),
		Sort:           q.Get("sort"),
		Offset:         p.Offset,
		Limit:          p.Limit,
	}
	for name, dst := range map[string]**int{"min_duration": &f.MinDuration, "max_duration": &f.MaxDuration} {
		if q.Get(name) == "" {
			continue
		}
		n, ok := httputil.QueryInt(r, name, 0)
		if !ok {
			httputil.BadRequest(w, name+" must be an integer")
			return
		}
		*dst = &n
	}

	page, err := h.Ads.ListAds(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := adListResponse{Items: make([]adListItem, 0, len(page.Items)), PageMeta: newPageMeta(p, page.Total)}
	for _, ad := range page.Items {
		item := adListItem{
			ID:               ad.ID,
			AdID:             ad.AdID,
			PageName:         ad.PageName,
			CreativeBody:     ad.CreativeBody,
			StartDate:        ad.StartDate,
			StopDate:         ad.StopDate,
			DurationDays:     h.Ads.DurationDays(ad),
			Platforms:        ad.Platforms,
			Industry:         ad.Industry,
			Region:           ad.Region,
			ImageURL:         ad.ImageURL,
			ImageS3Path:      ad.ImageS3Path,
			HasImageAnalysis: ad.HasImageAnalysis(),
			HasCopyAnalysis:  ad.HasCopyAnalysis(),
			CollectedAt:      ad.CollectedAt,
		}
		if item.Platforms == nil {
			item.Platforms = []string{}
		}
		if ad.SuccessScore != nil {
			score := ad.SuccessScore.TotalScore
			item.SuccessScore = &score
			item.IsSuccessful = ad.SuccessScore.IsSuccessful
		}
		resp.Items = append(resp.Items, item)
	}
	httputil.OK(w, resp)
}

//	GET /api/v1/ads/{adId}
func (h *Handlers) GetAd(w http.ResponseWriter, r *http.Request) {
	ad, err := h.Ads.GetAd(r.Context(), urlParam(r, "adId"))
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, adDetail{Ad: *ad, DurationDays: h.Ads.DurationDays(*ad)})
}

//	DELETE /api/v1/ads/{adId}
func (h *Handlers) DeleteAd(w http.ResponseWriter, r *http.Request) {
	if err := h.Ads.DeleteAd(r.Context(), urlParam(r, "adId")); err != nil {
		writeError(w, err)
		return
	}
	httputil.NoContent(w)
}

// CreateCollectJob queues an ad library collection.
//
//	POST /api/v1/ads/collect
func (h *Handlers) CreateCollectJob(w http.ResponseWriter, r *http.Request) {
	var req collection.CreateJobRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	res, err := h.Collection.CreateJob(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.Created(w, res)
}

type collectJobStatus struct {
	*domain.CollectJob
	Progress int `json:"progress"`
}

//	GET /api/v1/ads/collect/{jobId}
func (h *Handlers) GetCollectJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.Collection.GetJob(r.Context(), urlParam(r, "jobId"))
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, collectJobStatus{CollectJob: job, Progress: job.Progress()})
}

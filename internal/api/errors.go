package api

import (
	"errors"
	"net/http"

	"github.com/ignite/ad-insights/internal/pkg/httputil"
	"github.com/ignite/ad-insights/internal/service/ads"
	"github.com/ignite/ad-insights/internal/service/analysis"
	"github.com/ignite/ad-insights/internal/service/collection"
	"github.com/ignite/ad-insights/internal/service/monitoring"
	"github.com/ignite/ad-insights/internal/service/pattern"
	"github.com/ignite/ad-insights/internal/service/scoring"
	"github.com/ignite/ad-insights/internal/worker"
)

// writeError maps service errors onto HTTP statuses. Anything unknown is
// logged and hidden behind a 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ads.ErrNotFound):
		httputil.NotFound(w, "Ad not found")
	case errors.Is(err, analysis.ErrNotFound):
		httputil.NotFound(w, "Ad not found")
	case errors.Is(err, collection.ErrNotFound):
		httputil.NotFound(w, "Job not found")
	case errors.Is(err, monitoring.ErrNotFound):
		httputil.NotFound(w, "Not found")
	case errors.Is(err, pattern.ErrNotFound):
		httputil.NotFound(w, "No formula generated yet")

	case errors.Is(err, analysis.ErrNoImage):
		httputil.BadRequest(w, "No image URL for this ad")
	case errors.Is(err, analysis.ErrNoCopy):
		httputil.BadRequest(w, "No copy text for this ad")
	case errors.Is(err, ads.ErrInvalidRequest),
		errors.Is(err, analysis.ErrInvalidRequest),
		errors.Is(err, collection.ErrInvalidRequest),
		errors.Is(err, monitoring.ErrInvalidRequest):
		httputil.BadRequest(w, err.Error())

	case errors.Is(err, scoring.ErrRunInProgress),
		errors.Is(err, pattern.ErrRunInProgress),
		errors.Is(err, monitoring.ErrKeywordBusy):
		httputil.ErrorCode(w, http.StatusConflict, "run_in_progress", err.Error())
	case errors.Is(err, pattern.ErrNoPatterns):
		httputil.ErrorCode(w, http.StatusConflict, "no_patterns", err.Error())

	case errors.Is(err, pattern.ErrSummaryFailed):
		httputil.BadGateway(w, "summary generation failed")
	case errors.Is(err, collection.ErrQueueFull),
		errors.Is(err, worker.ErrQueueFull),
		errors.Is(err, worker.ErrStopped):
		httputil.ErrorCode(w, http.StatusServiceUnavailable, "queue_full", "job queue is full, retry later")

	default:
		httputil.InternalError(w, err)
	}
}

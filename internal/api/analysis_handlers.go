package api

import (
	"net/http"

	"github.com/ignite/ad-insights/internal/pkg/httputil"
	"github.com/ignite/ad-insights/internal/service/analysis"
)

//	POST /api/v1/analysis/image/{adId}
func (h *Handlers) AnalyzeImage(w http.ResponseWriter, r *http.Request) {
	res, err := h.Analysis.AnalyzeImage(r.Context(), urlParam(r, "adId"))
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.Accepted(w, res)
}

//	POST /api/v1/analysis/copy/{adId}
func (h *Handlers) AnalyzeCopy(w http.ResponseWriter, r *http.Request) {
	res, err := h.Analysis.AnalyzeCopy(r.Context(), urlParam(r, "adId"))
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.Accepted(w, res)
}

// AnalyzeBatch queues every listed ad that still needs analysis.
//
//	POST /api/v1/analysis/batch
func (h *Handlers) AnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	var req analysis.BatchRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if len(req.AdIDs) == 0 {
		httputil.BadRequest(w, "ad_ids must not be empty")
		return
	}
	res, err := h.Analysis.AnalyzeBatch(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.Accepted(w, res)
}

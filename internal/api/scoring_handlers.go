package api

import (
	"net/http"

	"github.com/ignite/ad-insights/internal/domain"
	"github.com/ignite/ad-insights/internal/pkg/httputil"
)

// CalculateScores recomputes every ad's success score.
//
//	POST /api/v1/scoring/calculate
func (h *Handlers) CalculateScores(w http.ResponseWriter, r *http.Request) {
	res, err := h.Scoring.RunScoring(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, res)
}

//	GET /api/v1/scoring/stats
func (h *Handlers) ScoringStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Scoring.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, stats)
}

// ListRuns returns recent ledger entries of one run kind.
//
//	GET /api/v1/runs/{kind}?limit=
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	kind := domain.RunKind(urlParam(r, "kind"))
	switch kind {
	case domain.RunScoring, domain.RunPattern, domain.RunFormula,
		domain.RunCollect, domain.RunAnalysis, domain.RunMonitoring:
	default:
		httputil.BadRequest(w, "unknown run kind")
		return
	}
	limit, ok := httputil.QueryInt(r, "limit", 20)
	if !ok || limit < 1 || limit > 100 {
		httputil.BadRequest(w, "limit must be between 1 and 100")
		return
	}
	runs, err := h.Runs.RecentRuns(r.Context(), kind, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if runs == nil {
		runs = []domain.RunRecord{}
	}
	httputil.OK(w, runs)
}

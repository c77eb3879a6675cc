package api

import (
	"net/http"

	"github.com/ignite/ad-insights/internal/domain"
	"github.com/ignite/ad-insights/internal/pkg/httputil"
)

// AnalyzePatterns mines the patterns of one industry, or every industry
// when the parameter is absent.
//
//	POST /api/v1/patterns/analyze?industry=
func (h *Handlers) AnalyzePatterns(w http.ResponseWriter, r *http.Request) {
	res, err := h.Patterns.RunPatternAnalysis(r.Context(), r.URL.Query().Get("industry"))
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, res)
}

// ListPatterns returns stored patterns, by default only those above the
// lift threshold.
//
//	GET /api/v1/patterns?industry=&patterns_only=
func (h *Handlers) ListPatterns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	records, err := h.Patterns.ListPatterns(r.Context(), q.Get("industry"), httputil.QueryBool(r, "patterns_only", true))
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []domain.PatternRecord{}
	}
	httputil.OK(w, records)
}

//	POST /api/v1/patterns/formula?industry=
func (h *Handlers) GenerateFormula(w http.ResponseWriter, r *http.Request) {
	f, err := h.Patterns.GenerateFormula(r.Context(), r.URL.Query().Get("industry"))
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, f)
}

//	GET /api/v1/patterns/formula?industry=
func (h *Handlers) GetFormula(w http.ResponseWriter, r *http.Request) {
	f, err := h.Patterns.GetFormula(r.Context(), r.URL.Query().Get("industry"))
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, f)
}

//	GET /api/v1/patterns/insights?industry=&type=
func (h *Handlers) ListInsights(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	typ := domain.InsightType(q.Get("type"))
	if typ != "" && !typ.Valid() {
		httputil.BadRequest(w, "type must be one of formula, insight, strategy")
		return
	}
	items, err := h.Patterns.ListInsights(r.Context(), q.Get("industry"), typ)
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []domain.Insight{}
	}
	httputil.OK(w, items)
}

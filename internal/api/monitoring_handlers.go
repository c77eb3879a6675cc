package api

import (
	"net/http"
	"strconv"

	"github.com/ignite/ad-insights/internal/domain"
	"github.com/ignite/ad-insights/internal/pkg/httputil"
	"github.com/ignite/ad-insights/internal/service/monitoring"
)

//	POST /api/v1/monitoring/keywords
func (h *Handlers) CreateKeyword(w http.ResponseWriter, r *http.Request) {
	var in monitoring.KeywordInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	k, err := h.Monitoring.CreateKeyword(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.Created(w, k)
}

//	GET /api/v1/monitoring/keywords?is_active=
func (h *Handlers) ListKeywords(w http.ResponseWriter, r *http.Request) {
	var active *bool
	if v := r.URL.Query().Get("is_active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			httputil.BadRequest(w, "is_active must be a boolean")
			return
		}
		active = &b
	}
	ks, err := h.Monitoring.ListKeywords(r.Context(), active)
	if err != nil {
		writeError(w, err)
		return
	}
	if ks == nil {
		ks = []domain.MonitoringKeyword{}
	}
	httputil.OK(w, ks)
}

//	GET /api/v1/monitoring/keywords/{id}
func (h *Handlers) GetKeyword(w http.ResponseWriter, r *http.Request) {
	k, err := h.Monitoring.GetKeyword(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, k)
}

//	PUT /api/v1/monitoring/keywords/{id}
func (h *Handlers) UpdateKeyword(w http.ResponseWriter, r *http.Request) {
	var u monitoring.KeywordUpdate
	if !httputil.Decode(w, r, &u) {
		return
	}
	k, err := h.Monitoring.UpdateKeyword(r.Context(), urlParam(r, "id"), u)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, k)
}

//	DELETE /api/v1/monitoring/keywords/{id}
func (h *Handlers) DeleteKeyword(w http.ResponseWriter, r *http.Request) {
	if err := h.Monitoring.DeleteKeyword(r.Context(), urlParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	httputil.NoContent(w)
}

// RunKeyword queues an immediate run of a keyword.
//
//	POST /api/v1/monitoring/keywords/{id}/run?limit=
func (h *Handlers) RunKeyword(w http.ResponseWriter, r *http.Request) {
	limit, ok := httputil.QueryInt(r, "limit", 0)
	if !ok {
		httputil.BadRequest(w, "limit must be an integer")
		return
	}
	run, err := h.Monitoring.RunKeyword(r.Context(), urlParam(r, "id"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.Accepted(w, run)
}

//	GET /api/v1/monitoring/keywords/{id}/runs?limit=
func (h *Handlers) ListKeywordRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := httputil.QueryInt(r, "limit", 0)
	runs, err := h.Monitoring.ListRuns(r.Context(), urlParam(r, "id"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if runs == nil {
		runs = []domain.MonitoringRun{}
	}
	httputil.OK(w, runs)
}

//	GET /api/v1/monitoring/notifications?unread_only=&limit=
func (h *Handlers) ListNotifications(w http.ResponseWriter, r *http.Request) {
	limit, _ := httputil.QueryInt(r, "limit", 0)
	notes, err := h.Monitoring.ListNotifications(r.Context(), httputil.QueryBool(r, "unread_only", false), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if notes == nil {
		notes = []domain.Notification{}
	}
	httputil.OK(w, notes)
}

//	GET /api/v1/monitoring/notifications/count
func (h *Handlers) UnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.Monitoring.UnreadCount(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, map[string]int{"unread_count": n})
}

//	PUT /api/v1/monitoring/notifications/{id}/read
func (h *Handlers) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := h.Monitoring.MarkRead(r.Context(), urlParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"status": "ok"})
}

//	PUT /api/v1/monitoring/notifications/read-all
func (h *Handlers) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.Monitoring.MarkAllRead(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.OK(w, map[string]int{"marked_count": n})
}

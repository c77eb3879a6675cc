package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ignite/ad-insights/internal/metrics"
)

// RouterOptions carries the non-service pieces of the router.
type RouterOptions struct {
	AllowedOrigins []string
	Health         *HealthChecker
	Metrics        *metrics.Metrics
}

// SetupRoutes builds the top-level mux.
func SetupRoutes(h *Handlers, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if opts.Health != nil {
		r.Get("/health", opts.Health.HandleHealth)
		r.Get("/health/live", opts.Health.HandleLiveness)
		r.Get("/health/ready", opts.Health.HandleReadiness)
	} else {
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	}
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	r.Route("/api/v1", h.mount)
	return r
}

func (h *Handlers) mount(r chi.Router) {
	if h.Scoring != nil {
		r.Route("/scoring", func(r chi.Router) {
			r.Post("/calculate", h.CalculateScores)
			r.Get("/stats", h.ScoringStats)
		})
	}

	if h.Patterns != nil {
		r.Route("/patterns", func(r chi.Router) {
			r.Get("/", h.ListPatterns)
			r.Post("/analyze", h.AnalyzePatterns)
			r.Post("/formula", h.GenerateFormula)
			r.Get("/formula", h.GetFormula)
			r.Get("/insights", h.ListInsights)
		})
	}

	if h.Ads != nil || h.Collection != nil {
		r.Route("/ads", func(r chi.Router) {
			if h.Collection != nil {
				r.Post("/collect", h.CreateCollectJob)
				r.Get("/collect/{jobId}", h.GetCollectJob)
			}
			if h.Ads != nil {
				r.Get("/", h.ListAds)
				r.Get("/{adId}", h.GetAd)
				r.Delete("/{adId}", h.DeleteAd)
			}
		})
	}

	if h.Analysis != nil {
		r.Route("/analysis", func(r chi.Router) {
			r.Post("/image/{adId}", h.AnalyzeImage)
			r.Post("/copy/{adId}", h.AnalyzeCopy)
			r.Post("/batch", h.AnalyzeBatch)
		})
	}

	if h.Monitoring != nil {
		r.Route("/monitoring", func(r chi.Router) {
			r.Route("/keywords", func(r chi.Router) {
				r.Post("/", h.CreateKeyword)
				r.Get("/", h.ListKeywords)
				r.Get("/{id}", h.GetKeyword)
				r.Put("/{id}", h.UpdateKeyword)
				r.Delete("/{id}", h.DeleteKeyword)
				r.Post("/{id}/run", h.RunKeyword)
				r.Get("/{id}/runs", h.ListKeywordRuns)
			})
			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", h.ListNotifications)
				r.Get("/count", h.UnreadCount)
				r.Put("/read-all", h.MarkAllRead)
				r.Put("/{id}/read", h.MarkRead)
			})
		})
	}

	if h.Runs != nil {
		r.Get("/runs/{kind}", h.ListRuns)
	}
}

// Package httpapi exposes the services as a JSON API for the grid UI.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/alexanderramin/effort/internal/metrics"
	"github.com/alexanderramin/effort/internal/service"
)

// Services are the use cases the API calls into.
type Services struct {
	Session   service.SessionService
	Edit      service.EditService
	Reconcile service.ReconcileService
	History   service.HistoryService
	Backup    service.BackupService
	Query     service.QueryService
}

type Options struct {
	AllowedOrigins []string
	Logger         *slog.Logger
	// Metrics, when set, instruments every route and serves /metrics.
	Metrics *metrics.Metrics
}

// NewRouter creates a router with all routes configured.
func NewRouter(svc Services, opts Options) *chi.Mux {
	h := &Handler{svc: svc}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if opts.Logger != nil {
		r.Use(requestLogger(opts.Logger))
	}
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/session", func(r chi.Router) {
			r.Get("/", h.SessionStatus)
			r.Post("/open", h.OpenSession)
			r.Post("/merge", h.MergeSession)
			r.Post("/discard", h.DiscardSession)
		})

		r.Get("/data", h.Grid)
		r.Put("/effort", h.SetEffort)
		r.Post("/fix-totals", h.FixTotals)
		r.Get("/history", h.History)

		r.Route("/allocation-lines", func(r chi.Router) {
			r.Post("/", h.AddAllocationLine)
			r.Delete("/{id}", h.RemoveAllocationLine)
		})
		r.Route("/groups", func(r chi.Router) {
			r.Get("/", h.ListGroups)
			r.Post("/", h.AddGroup)
		})
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.AddEmployee)
			r.Put("/{name}", h.UpdateEmployee)
		})
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.ListProjects)
			r.Post("/", h.AddProject)
			r.Put("/{id}", h.UpdateProject)
		})
		r.Route("/budget-lines", func(r chi.Router) {
			r.Get("/", h.ListBudgetLines)
			r.Post("/", h.AddBudgetLine)
			r.Put("/{code}", h.UpdateBudgetLine)
			r.Post("/{code}/reassign", h.ReassignBudgetLine)
		})
		r.Route("/backups", func(r chi.Router) {
			r.Get("/", h.ListBackups)
			r.Post("/revert", h.RevertBackup)
			r.Post("/prune", h.PruneBackups)
		})
	})

	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}
	return r
}

// requestLogger logs one line per request through slog.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.InfoContext(r.Context(), "http_request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

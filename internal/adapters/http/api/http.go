// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/forceplate/internal/adapters/mq/queue"
	"github.com/okian/forceplate/internal/adapters/repository"
	"github.com/okian/forceplate/internal/adapters/source"
	"github.com/okian/forceplate/internal/domain/rules"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// CreateReport runs a classification over files and archives it under h.
	CreateReport(ctx context.Context, h repository.Header, files source.Files) (repository.Report, error)

	// Read operations expose archived reports.
	GetReport(ctx context.Context, id string) (repository.Report, error)
	ListReports(ctx context.Context, limit int) ([]repository.Summary, error)

	// Table is the rule table used for classification.
	Table() *rules.Table
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	reportsHandler    *ReportsHandler
	categoriesHandler *CategoriesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		reportsHandler:    NewReportsHandler(deps, opts...),
		categoriesHandler: NewCategoriesHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /categories", MetricsMiddleware(s.categoriesHandler.HandleGetCategories, "categories"))
	mux.HandleFunc("POST /reports", MetricsMiddleware(s.reportsHandler.HandleCreateReport, "reports_create"))
	mux.HandleFunc("GET /reports", MetricsMiddleware(s.reportsHandler.HandleListReports, "reports_list"))
	mux.HandleFunc("GET /reports/{id}", MetricsMiddleware(s.reportsHandler.HandleGetReport, "reports_get"))
	mux.HandleFunc("GET /reports/{id}/text", MetricsMiddleware(s.reportsHandler.HandleGetReportText, "reports_text"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound translates archive misses to 404.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

// isBusy reports backpressure from the report queue.
func isBusy(err error) bool {
	return errors.Is(err, queue.ErrFull) || errors.Is(err, queue.ErrStopped)
}

// isBadInput reports errors caused by the uploaded files themselves.
func isBadInput(err error) bool {
	return errors.Is(err, source.ErrUnsupportedFormat) ||
		errors.Is(err, source.ErrEmptyFile) ||
		errors.Is(err, source.ErrRead) ||
		errors.Is(err, ErrBadRequest)
}

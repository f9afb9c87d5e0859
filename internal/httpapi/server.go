package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/statuscheck/internal/domain"
	apimw "github.com/hamed0406/statuscheck/internal/httpapi/middleware"
	"github.com/hamed0406/statuscheck/internal/metrics"
	"github.com/hamed0406/statuscheck/internal/repo"
	"github.com/hamed0406/statuscheck/internal/report"
)

// RunTrigger runs the battery once and stores the result.
type RunTrigger interface {
	RunOnce(ctx context.Context) (domain.Report, error)
}

type Server struct {
	Logger  *zap.Logger
	Reports repo.ReportStore
	Runs    RunTrigger
	Metrics *metrics.Recorder
	Title   string
}

func NewServer(l *zap.Logger, reports repo.ReportStore, runs RunTrigger, m *metrics.Recorder) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Logger: l, Reports: reports, Runs: runs, Metrics: m, Title: report.DefaultTitle}
}

// Limits are per-IP request budgets for read and admin routes.
type Limits struct {
	PublicRPM   int
	PublicBurst int
	AdminRPM    int
	AdminBurst  int
}

func (s *Server) Router(keys apimw.Keys, allowedOrigins []string, lim Limits) http.Handler {
	r := chi.NewRouter()
	if s.Metrics != nil {
		r.Use(s.Metrics.Middleware())
	}
	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "X-API-Key", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(apimw.RateLimit(lim.PublicRPM, lim.PublicBurst))
		r.Use(apimw.RequireAny(keys))
		r.Get("/api/report/latest", s.handleLatest)
		r.Get("/api/report/latest.md", s.handleLatestMarkdown)
		r.Get("/api/categories/{name}", s.handleCategory)
	})

	r.Group(func(r chi.Router) {
		r.Use(apimw.RateLimit(lim.AdminRPM, lim.AdminBurst))
		r.Use(apimw.RequireAdmin(keys))
		r.Post("/api/runs", s.handleRun)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// latest loads the stored report or writes the error response.
func (s *Server) latest(w http.ResponseWriter, r *http.Request) (*domain.Report, bool) {
	rep, err := s.Reports.Latest(r.Context())
	if err != nil {
		s.Logger.Warn("latest_report_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load report")
		return nil, false
	}
	if rep == nil {
		writeError(w, http.StatusNotFound, "no report yet")
		return nil, false
	}
	return rep, true
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.latest(w, r)
	if !ok {
		return
	}
	w.Header().Set("X-Run-ID", rep.RunID)
	writeJSON(w, http.StatusOK, report.NewDocument(*rep))
}

func (s *Server) handleLatestMarkdown(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.latest(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("X-Run-ID", rep.RunID)
	if err := report.RenderMarkdown(w, *rep, s.Title); err != nil {
		s.Logger.Warn("render_markdown_error", zap.Error(err))
	}
}

type categoryView struct {
	Name        string         `json:"name"`
	Total       int            `json:"totalTests"`
	Passed      int            `json:"successfulTests"`
	Warnings    int            `json:"warnings"`
	Failed      int            `json:"failed"`
	SuccessRate float64        `json:"successRate"`
	Tests       []report.Entry `json:"tests"`
}

func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	rep, ok := s.latest(w, r)
	if !ok {
		return
	}
	var (
		c     domain.CategoryResult
		found bool
	)
	for _, cat := range rep.Categories {
		if strings.EqualFold(cat.Name, name) {
			c, found = cat, true
			break
		}
	}
	if !found {
		writeError(w, http.StatusNotFound, "unknown category")
		return
	}
	writeJSON(w, http.StatusOK, categoryView{
		Name:        c.Name,
		Total:       c.Total(),
		Passed:      c.Passed(),
		Warnings:    c.Warnings(),
		Failed:      c.Failed(),
		SuccessRate: c.SuccessRate(),
		Tests:       report.NewCategory(c).Entries,
	})
}

// handleRun runs the battery synchronously. The run outlives a client
// disconnect so the stored report is always complete.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.Runs == nil {
		writeError(w, http.StatusServiceUnavailable, "runs disabled")
		return
	}
	rep, err := s.Runs.RunOnce(context.WithoutCancel(r.Context()))
	if err != nil {
		s.Logger.Warn("manual_run_failed", zap.String("run_id", rep.RunID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "run failed")
		return
	}
	s.Logger.Info("manual_run",
		zap.String("run_id", rep.RunID),
		zap.Float64("success_rate", rep.SuccessRate()),
	)
	w.Header().Set("X-Run-ID", rep.RunID)
	writeJSON(w, http.StatusCreated, report.NewDocument(rep))
}

package server

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"heartbeatmonitor/internal/models"
)

const defaultPushInterval = 30 * time.Second

// Reports exposes the outcome of the most recent detection pass.
type Reports interface {
	Latest() (models.Report, bool)
	Summaries() []models.ServiceSummary
}

// Server wraps HTTP serving of the alert API, websocket feed and metrics.
type Server struct {
	httpServer   *http.Server
	reports      Reports
	gatherer     prometheus.Gatherer
	pushInterval time.Duration
	logger       *zap.Logger
}

// New creates a configured HTTP server. gatherer may be nil to disable /metrics.
func New(addr string, reports Reports, gatherer prometheus.Gatherer, pushInterval time.Duration, logger *zap.Logger) *Server {
	if pushInterval <= 0 {
		pushInterval = defaultPushInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	s := &Server{
		httpServer:   &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second},
		reports:      reports,
		gatherer:     gatherer,
		pushInterval: pushInterval,
		logger:       logger,
	}
	s.registerRoutes(mux)
	return s
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run blocks and serves HTTP traffic.
func (s *Server) Run() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/alerts", s.handleAlerts)
	mux.HandleFunc("/api/alerts/ws", s.handleAlertsWS)
	mux.HandleFunc("/api/services", s.handleServices)
	if s.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_, ready := s.reports.Latest()
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"ready":  ready,
	})
}

func (s *Server) handleAlerts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshot())
}

func (s *Server) handleServices(w http.ResponseWriter, _ *http.Request) {
	summaries := s.reports.Summaries()
	if summaries == nil {
		summaries = []models.ServiceSummary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

// snapshot returns the latest report, or an empty placeholder before the first pass.
func (s *Server) snapshot() any {
	report, ok := s.reports.Latest()
	if !ok {
		return map[string]any{
			"generated_at": nil,
			"alerts":       []models.Alert{},
		}
	}
	return report
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

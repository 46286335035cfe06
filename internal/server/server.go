package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/klarsyn/viewstat/internal/config"
	"github.com/klarsyn/viewstat/internal/metrics"
	"github.com/klarsyn/viewstat/internal/rollup"
	"github.com/klarsyn/viewstat/internal/sign"
	"github.com/klarsyn/viewstat/internal/track"
	"github.com/klarsyn/viewstat/internal/version"
)

// Server serves the page-view analytics API.
type Server struct {
	tracker     *track.Tracker
	reader      *rollup.Reader
	verifier    *sign.Verifier
	mux         *http.ServeMux
	cfg         config.Config
	rateLimiter *RateLimiter
	metrics     *metrics.Metrics
}

// New creates a Server. metrics may be nil (tests).
func New(tracker *track.Tracker, reader *rollup.Reader, verifier *sign.Verifier, cfg config.Config, m *metrics.Metrics) *Server {
	s := &Server{
		tracker:     tracker,
		reader:      reader,
		verifier:    verifier,
		mux:         http.NewServeMux(),
		cfg:         cfg,
		rateLimiter: NewRateLimiter(cfg.RateLimitPerMinute, time.Minute),
		metrics:     m,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/robots.txt", s.handleRobotsTxt)
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/api/pageview", s.handlePageview)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	// Prevent search engine indexing
	w.Header().Set("X-Robots-Tag", "noindex, nofollow")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	if s.rateLimiter.enabled {
		ip := extractIP(r)
		if !s.rateLimiter.Allow(ip) {
			slog.Debug("rate limit exceeded", "ip", ip, "path", r.URL.Path)
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
	}

	if s.cfg.MaxRequestBodyBytes > 0 && r.ContentLength > s.cfg.MaxRequestBodyBytes {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	if s.cfg.MaxRequestBodyBytes > 0 && r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxRequestBodyBytes)
	}

	sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(sw, r)

	if s.metrics != nil {
		s.metrics.RecordHTTPRequest(r.Method, r.URL.Path, strconv.Itoa(sw.status), time.Since(start).Seconds())
	}
}

// statusWriter captures the response status for metrics.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	storeStatus := "not configured"
	if s.tracker.Enabled() {
		storeStatus = "configured"
	}
	writeJSON(w, map[string]any{
		"status":  "ok",
		"store":   storeStatus,
		"version": version.Version,
	})
}

func (s *Server) handleRobotsTxt(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("User-agent: *\nDisallow: /\n"))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write JSON response", "error", err)
	}
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write JSON response", "error", err)
	}
}

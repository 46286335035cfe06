package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/klarsyn/viewstat/internal/exclude"
	"github.com/klarsyn/viewstat/internal/pages"
	"github.com/klarsyn/viewstat/internal/rollup"
	"github.com/klarsyn/viewstat/internal/sign"
)

// writePayload is the inner payload of a signed write envelope.
type writePayload struct {
	PageID string `json:"pageId"`
}

func (s *Server) handlePageview(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleTrack(w, r)
	case http.MethodGet:
		s.handleStats(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleTrack is the ingest endpoint. Tracking must be invisible to the page
// it is embedded in: every failure past the signature check still answers
// with success:true.
func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	if exclude.Excluded(r) {
		if s.metrics != nil {
			s.metrics.ExcludedTotal.Inc()
		}
		writeJSON(w, map[string]any{"success": true, "message": "not counted"})
		return
	}

	var env sign.Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		s.reject(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.verifier.Verify(env, time.Now()); err != nil {
		slog.Debug("rejected write request", "error", err, "ip", extractIP(r))
		s.reject(w, http.StatusForbidden, "invalid signature")
		return
	}

	var payload writePayload
	if len(env.Payload) > 0 {
		// A malformed payload falls through with an empty pageId, which the
		// tracker maps to the default page.
		_ = json.Unmarshal(env.Payload, &payload)
	}

	if !s.tracker.Enabled() {
		writeJSON(w, map[string]any{"success": true, "message": "tracking not configured"})
		return
	}

	summary, err := s.tracker.RecordView(r.Context(), payload.PageID, extractIP(r), time.Now())
	if err != nil {
		slog.Warn("record view failed", "page", summary.Page, "error", err)
		if s.metrics != nil {
			s.metrics.StoreErrorsTotal.Inc()
			s.metrics.TrackSkipsTotal.Inc()
		}
		writeJSON(w, map[string]any{"success": true, "message": "tracking skipped"})
		return
	}

	if s.metrics != nil {
		s.metrics.RecordView(string(summary.Page), summary.NewVisitor)
	}
	writeJSON(w, map[string]any{
		"success":      true,
		"pageId":       summary.Page,
		"views":        summary.TotalViews,
		"isNewVisitor": summary.NewVisitor,
	})
}

// handleStats is the dashboard read endpoint. Responses are always freshly
// computed from the raw counters, so intermediary caches must not hold them.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")

	if !s.reader.Enabled() {
		writeJSON(w, map[string]any{"message": "tracking not configured"})
		return
	}

	q := r.URL.Query()
	now := time.Now()

	if q.Get("all") == "true" {
		stats := make(map[pages.Page]rollup.Snapshot, len(pages.All()))
		for _, p := range pages.All() {
			snap, err := s.reader.Snapshot(r.Context(), p, now)
			if err != nil {
				s.statsUnavailable(w, err)
				return
			}
			stats[p] = snap
		}
		writeJSON(w, map[string]any{"stats": stats})
		return
	}

	page := pages.Normalize(q.Get("pageId"))

	if q.Get("timeseries") == "true" {
		period := rollup.ParsePeriod(q.Get("period"))
		views, err := s.reader.Timeseries(r.Context(), page, period, now)
		if err != nil {
			s.statsUnavailable(w, err)
			return
		}
		visitors, err := s.reader.VisitorsTimeseries(r.Context(), page, period, now)
		if err != nil {
			s.statsUnavailable(w, err)
			return
		}
		writeJSON(w, map[string]any{
			"pageId":             page,
			"timeseries":         views,
			"visitorsTimeseries": visitors,
			"period":             period,
		})
		return
	}

	snap, err := s.reader.Snapshot(r.Context(), page, now)
	if err != nil {
		s.statsUnavailable(w, err)
		return
	}
	writeJSON(w, snap)
}

func (s *Server) reject(w http.ResponseWriter, status int, msg string) {
	if s.metrics != nil {
		s.metrics.RejectedTotal.Inc()
	}
	writeJSONStatus(w, status, map[string]any{"success": false, "error": msg})
}

// statsUnavailable answers a read with a tagged empty result instead of an
// error status; store trouble must not look like an API failure.
func (s *Server) statsUnavailable(w http.ResponseWriter, err error) {
	slog.Warn("stats read failed", "error", err)
	if s.metrics != nil {
		s.metrics.StoreErrorsTotal.Inc()
	}
	writeJSON(w, map[string]any{"message": "stats unavailable"})
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for viewstat.
type Metrics struct {
	// Write path
	ViewsTotal       *prometheus.CounterVec
	NewVisitorsTotal *prometheus.CounterVec
	ExcludedTotal    prometheus.Counter
	RejectedTotal    prometheus.Counter
	TrackSkipsTotal  prometheus.Counter

	// HTTP server
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Store
	StoreErrorsTotal prometheus.Counter
}

// New creates all metrics. Call Register to attach them to the default
// registry.
func New() *Metrics {
	return &Metrics{
		ViewsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "viewstat",
				Subsystem: "track",
				Name:      "views_total",
				Help:      "Total number of page views recorded",
			},
			[]string{"page"},
		),
		NewVisitorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "viewstat",
				Subsystem: "track",
				Name:      "new_visitors_total",
				Help:      "Total number of new daily visitors recorded",
			},
			[]string{"page"},
		),
		ExcludedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "viewstat",
				Subsystem: "track",
				Name:      "excluded_total",
				Help:      "Requests short-circuited by the exclusion filter",
			},
		),
		RejectedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "viewstat",
				Subsystem: "track",
				Name:      "rejected_total",
				Help:      "Write requests rejected for signature or validation failures",
			},
		),
		TrackSkipsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "viewstat",
				Subsystem: "track",
				Name:      "skips_total",
				Help:      "Views that reported success without recording due to store errors",
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "viewstat",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests handled",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "viewstat",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		StoreErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "viewstat",
				Subsystem: "store",
				Name:      "errors_total",
				Help:      "Key-value store operation errors",
			},
		),
	}
}

// Register registers all metrics with the default Prometheus registry.
func (m *Metrics) Register() error {
	collectors := []prometheus.Collector{
		m.ViewsTotal,
		m.NewVisitorsTotal,
		m.ExcludedTotal,
		m.RejectedTotal,
		m.TrackSkipsTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.StoreErrorsTotal,
	}
	for _, c := range collectors {
		if err := prometheus.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// RecordView records a tracked page view.
func (m *Metrics) RecordView(page string, newVisitor bool) {
	m.ViewsTotal.WithLabelValues(page).Inc()
	if newVisitor {
		m.NewVisitorsTotal.WithLabelValues(page).Inc()
	}
}

// RecordHTTPRequest records an HTTP request metric.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration float64) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

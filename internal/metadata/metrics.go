package metadata

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the scraper's collectors on a dedicated registry so tests
// and multiple recorders never collide on the global one. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec
	eventsTotal     *prometheus.CounterVec
	structureHealth *prometheus.GaugeVec
	lastRunEvents   *prometheus.GaugeVec
	lastRunDuration *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "eventscraper_requests_total",
			Help: "Navigations issued, by source and HTTP status.",
		}, []string{"source", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eventscraper_request_duration_seconds",
			Help:    "Navigation latency by source.",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		errorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "eventscraper_errors_total",
			Help: "Classified failures by package and error type.",
		}, []string{"package", "type"}),
		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "eventscraper_events_total",
			Help: "Pipeline outcomes by source and kind.",
		}, []string{"source", "kind"}),
		structureHealth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "eventscraper_structure_health",
			Help: "Latest structure monitor health score (0-100) by source.",
		}, []string{"source"}),
		lastRunEvents: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "eventscraper_last_run_events",
			Help: "Event counts of the last completed run by source and outcome.",
		}, []string{"source", "outcome"}),
		lastRunDuration: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "eventscraper_last_run_duration_seconds",
			Help: "Duration of the last completed run by source.",
		}, []string{"source"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeFetch(source string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(source, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(source).Observe(d.Seconds())
}

func (m *Metrics) incError(pkg, errType string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(pkg, errType).Inc()
}

func (m *Metrics) incEvent(source string, kind EventKind) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(source, string(kind)).Inc()
}

func (m *Metrics) setHealth(source string, health float64) {
	if m == nil {
		return
	}
	m.structureHealth.WithLabelValues(source).Set(health)
}

func (m *Metrics) setRun(s runStats) {
	if m == nil {
		return
	}
	m.lastRunEvents.WithLabelValues(s.source, "attempts").Set(float64(s.totalAttempts))
	m.lastRunEvents.WithLabelValues(s.source, "successful").Set(float64(s.successful))
	m.lastRunEvents.WithLabelValues(s.source, "rejected").Set(float64(s.rejected))
	m.lastRunEvents.WithLabelValues(s.source, "errors").Set(float64(s.errors))
	m.lastRunDuration.WithLabelValues(s.source).Set(float64(s.durationMs) / 1000)
}

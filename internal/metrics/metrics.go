// Package metrics exposes Prometheus counters for monitor runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ESDMMonitor/internal/domain"
)

const namespace = "esdm_monitor"

// Metrics holds the monitor's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Runs            *prometheus.CounterVec
	Candidates      *prometheus.CounterVec
	Notifications   *prometheus.CounterVec
	FetchFailures   prometheus.Counter
	PersistFailures prometheus.Counter
	LastRunSuccess  prometheus.Gauge
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Monitor runs by result (ok, listing_unavailable).",
		}, []string{"result"}),
		Candidates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_total",
			Help:      "Listing candidates by terminal classification.",
		}, []string{"classification"}),
		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Alert deliveries by result (sent, failed).",
		}, []string{"result"}),
		FetchFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_attempt_failures_total",
			Help:      "Failed HTTP fetch attempts, including ones later retried.",
		}),
		PersistFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Seen-set writes that returned an error.",
		}),
		LastRunSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success_timestamp_seconds",
			Help:      "Unix time of the last run that fetched the listing.",
		}),
	}
}

// Classified counts a candidate's terminal state.
func (m *Metrics) Classified(c domain.Classification) {
	if m != nil {
		m.Candidates.WithLabelValues(string(c)).Inc()
	}
}

// Notified counts an alert delivery attempt.
func (m *Metrics) Notified(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.Notifications.WithLabelValues("sent").Inc()
		return
	}
	m.Notifications.WithLabelValues("failed").Inc()
}

// FetchFailed counts one failed fetch attempt.
func (m *Metrics) FetchFailed() {
	if m != nil {
		m.FetchFailures.Inc()
	}
}

// PersistFailed counts one failed seen-set write.
func (m *Metrics) PersistFailed() {
	if m != nil {
		m.PersistFailures.Inc()
	}
}

// RunFinished records the outcome of a run.
func (m *Metrics) RunFinished(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.Runs.WithLabelValues("ok").Inc()
		m.LastRunSuccess.SetToCurrentTime()
		return
	}
	m.Runs.WithLabelValues("listing_unavailable").Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

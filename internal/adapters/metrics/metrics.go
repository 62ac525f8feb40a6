// Package metrics exposes Prometheus counters for member loading and table actions.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Action labels for MutationsTotal.
const (
	ActionUpdate     = "update"
	ActionDelete     = "delete"
	ActionBulkDelete = "bulk_delete"
	ActionRefused    = "refused"
)

// Metrics holds the Prometheus collectors on a private registry.
//
// Metrics:
//   - memberadmin_fetches_total{result} - member list fetches by "ok" or "error"
//   - memberadmin_fetch_duration_seconds - fetch latency
//   - memberadmin_fetched_records - records in the last successful fetch
//   - memberadmin_mutations_total{action} - updates and deletes applied to a store
//   - memberadmin_records_deleted_total - records removed by single or bulk delete
//   - memberadmin_workspaces - live workspaces
//   - memberadmin_rate_limited_clients - client IPs with a rate limit bucket
type Metrics struct {
	registry *prometheus.Registry

	FetchesTotal        *prometheus.CounterVec
	FetchDuration       prometheus.Histogram
	FetchedRecords      prometheus.Gauge
	MutationsTotal      *prometheus.CounterVec
	RecordsDeletedTotal prometheus.Counter
}

// New creates the collectors and registers them with Go runtime collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		FetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "memberadmin_fetches_total",
				Help: "Total number of member list fetches",
			},
			[]string{"result"},
		),
		FetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "memberadmin_fetch_duration_seconds",
			Help:    "Duration of member list fetches in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		FetchedRecords: factory.NewGauge(prometheus.GaugeOpts{
			Name: "memberadmin_fetched_records",
			Help: "Number of records in the last successful fetch",
		}),
		MutationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "memberadmin_mutations_total",
				Help: "Total number of table mutations by action",
			},
			[]string{"action"},
		),
		RecordsDeletedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "memberadmin_records_deleted_total",
			Help: "Total number of records deleted",
		}),
	}
}

// ObserveFetch records one fetch attempt.
// PRE: m may be nil
func (m *Metrics) ObserveFetch(ok bool, records int, d time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.FetchesTotal.WithLabelValues(result).Inc()
	m.FetchDuration.Observe(d.Seconds())
	if ok {
		m.FetchedRecords.Set(float64(records))
	}
}

// RecordMutation counts an applied mutation; deleted is the number of records removed.
// PRE: m may be nil
func (m *Metrics) RecordMutation(action string, deleted int) {
	if m == nil {
		return
	}
	m.MutationsTotal.WithLabelValues(action).Inc()
	if deleted > 0 {
		m.RecordsDeletedTotal.Add(float64(deleted))
	}
}

// WatchWorkspaces exposes the result of count as the workspace gauge.
func (m *Metrics) WatchWorkspaces(count func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "memberadmin_workspaces",
		Help: "Number of live workspaces",
	}, func() float64 { return float64(count()) }))
}

// WatchRateLimitedClients exposes the number of clients holding a rate limit bucket.
func (m *Metrics) WatchRateLimitedClients(count func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "memberadmin_rate_limited_clients",
		Help: "Number of client IPs tracked by the rate limiter",
	}, func() float64 { return float64(count()) }))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Package telemetry exposes prometheus metrics for the reconciliation
// loop.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coop/libcluster-digitalocean/membership"
)

var (
	// Registry holds all collectors in this package.
	Registry = prometheus.NewRegistry()

	cyclesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "docluster",
		Name:      "reconcile_cycles_total",
		Help:      "Total number of completed reconciliation cycles.",
	})

	discoveryErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "docluster",
		Name:      "discovery_errors_total",
		Help:      "Total number of cycles whose discovery fetch failed.",
	})

	connectFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "docluster",
		Name:      "connect_failures_total",
		Help:      "Total number of per-peer connect failures.",
	})

	disconnectFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "docluster",
		Name:      "disconnect_failures_total",
		Help:      "Total number of per-peer disconnect failures.",
	})

	connectedPeers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "docluster",
		Name:      "connected_peers",
		Help:      "Peers currently believed connected.",
	})

	cycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "docluster",
		Name:      "reconcile_cycle_duration_seconds",
		Help:      "Duration of reconciliation cycles.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 13), // 1ms .. ~4s
	})
)

func init() {
	Registry.MustRegister(
		cyclesTotal,
		discoveryErrorsTotal,
		connectFailuresTotal,
		disconnectFailuresTotal,
		connectedPeers,
		cycleDuration,
	)
}

// Handler exposes /metrics for the Registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// CycleMetrics records reconciliation outcomes into the Registry.
type CycleMetrics struct{}

var _ membership.Instrumentation = CycleMetrics{}

// ObserveCycle implements membership.Instrumentation.
func (CycleMetrics) ObserveCycle(added, removed, connectFailures, disconnectFailures, connected int, took time.Duration) {
	cyclesTotal.Inc()
	connectFailuresTotal.Add(float64(connectFailures))
	disconnectFailuresTotal.Add(float64(disconnectFailures))
	connectedPeers.Set(float64(connected))
	cycleDuration.Observe(took.Seconds())
}

// DiscoveryError implements membership.Instrumentation.
func (CycleMetrics) DiscoveryError() {
	discoveryErrorsTotal.Inc()
}

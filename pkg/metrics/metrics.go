// Package metrics exposes Prometheus instrumentation for the HDS agent.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Stream metrics
	SpecifiersReceived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hds_specifiers_received_total",
			Help: "Total number of health-check specifier messages received",
		},
	)

	ReportsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hds_reports_sent_total",
			Help: "Total number of messages sent upstream (handshakes and health reports)",
		},
	)

	StreamErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hds_stream_errors_total",
			Help: "Total number of stream establishment or closure errors",
		},
	)

	MessageErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hds_message_errors_total",
			Help: "Total number of specifier messages rejected as malformed",
		},
	)

	// Registry metrics
	ClustersCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hds_clusters_created_total",
			Help: "Total number of monitored clusters created (including recreations)",
		},
	)

	ClustersRemoved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hds_clusters_removed_total",
			Help: "Total number of monitored clusters removed (including recreations)",
		},
	)

	ClustersMonitored = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hds_clusters_monitored",
			Help: "Current number of monitored clusters in the registry",
		},
	)

	HealthChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hds_health_checks_total",
			Help: "Total number of health-check probes by protocol and outcome",
		},
		[]string{"protocol", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(SpecifiersReceived)
	prometheus.MustRegister(ReportsSent)
	prometheus.MustRegister(StreamErrors)
	prometheus.MustRegister(MessageErrors)
	prometheus.MustRegister(ClustersCreated)
	prometheus.MustRegister(ClustersRemoved)
	prometheus.MustRegister(ClustersMonitored)
	prometheus.MustRegister(HealthChecksTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

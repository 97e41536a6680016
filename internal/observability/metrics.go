// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Feed metrics
	PoolUpdatesProcessed prometheus.Counter
	PoolDecodeErrors     prometheus.Counter
	LogLinesProcessed    prometheus.Counter

	// Trigger metrics
	TriggersFired    *prometheus.CounterVec
	ClaimsRejected   prometheus.Counter
	UnpriceablePools prometheus.Counter

	// Removal metrics
	RemovalSignatures prometheus.Counter
	RemovalsResolved  prometheus.Counter
	LookupTimeouts    prometheus.Counter

	// Bundle metrics
	BundlesSubmitted prometheus.Counter
	BundlesAccepted  prometheus.Counter
	BundlesRejected  *prometheus.CounterVec
	PendingBundles   prometheus.Gauge
	TipsPaidLamports prometheus.Counter

	// Latency metrics
	RPCCallLatency   *prometheus.HistogramVec
	WSMessageLatency prometheus.Histogram
	SubmitLatency    prometheus.Histogram

	// Journal metrics
	JournalWriteErrors *prometheus.CounterVec

	// Health metrics
	LastPoolUpdate prometheus.Gauge
	UptimeSeconds  prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "jito_sniper"
	}

	return &Metrics{
		// Feed metrics
		PoolUpdatesProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "pool_updates_processed_total",
			Help:      "Total number of pool account updates processed",
		}),
		PoolDecodeErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "pool_decode_errors_total",
			Help:      "Total number of pool account payloads that failed to decode",
		}),
		LogLinesProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "log_notifications_processed_total",
			Help:      "Total number of log notifications processed",
		}),

		// Trigger metrics
		TriggersFired: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trigger",
			Name:      "fired_total",
			Help:      "Total number of trade triggers fired by side",
		}, []string{"side"}),
		ClaimsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trigger",
			Name:      "claims_rejected_total",
			Help:      "Total number of triggers suppressed by an in-flight claim",
		}),
		UnpriceablePools: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trigger",
			Name:      "unpriceable_pools_total",
			Help:      "Total number of pool updates skipped for lacking a reference side",
		}),

		// Removal metrics
		RemovalSignatures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "removal",
			Name:      "signatures_matched_total",
			Help:      "Total number of transactions matching the removal signature",
		}),
		RemovalsResolved: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "removal",
			Name:      "mints_resolved_total",
			Help:      "Total number of removal transactions resolved to a mint",
		}),
		LookupTimeouts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "removal",
			Name:      "lookup_timeouts_total",
			Help:      "Total number of mint lookups abandoned at the deadline",
		}),

		// Bundle metrics
		BundlesSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bundle",
			Name:      "submitted_total",
			Help:      "Total number of bundles submitted to the block engine",
		}),
		BundlesAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bundle",
			Name:      "accepted_total",
			Help:      "Total number of bundles landed on chain",
		}),
		BundlesRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bundle",
			Name:      "rejected_total",
			Help:      "Total number of bundles rejected by reason",
		}, []string{"reason"}),
		PendingBundles: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "bundle",
			Name:      "pending",
			Help:      "Number of bundles awaiting a landing result",
		}),
		TipsPaidLamports: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bundle",
			Name:      "tips_paid_lamports_total",
			Help:      "Total lamports attached as block engine tips",
		}),

		// Latency metrics
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		WSMessageLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "ws_message_latency_seconds",
			Help:      "WebSocket message processing latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		SubmitLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "bundle",
			Name:      "submit_latency_seconds",
			Help:      "Latency from trigger evaluation to bundle submission",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),

		// Journal metrics
		JournalWriteErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "write_errors_total",
			Help:      "Total number of journal write errors by backend",
		}, []string{"backend", "operation"}),

		// Health metrics
		LastPoolUpdate: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_pool_update_timestamp",
			Help:      "Unix timestamp of the last processed pool update",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordPoolUpdate increments the pool updates processed counter.
func RecordPoolUpdate() {
	DefaultMetrics.PoolUpdatesProcessed.Inc()
}

// RecordDecodeError increments the pool decode errors counter.
func RecordDecodeError() {
	DefaultMetrics.PoolDecodeErrors.Inc()
}

// RecordTrigger increments the fired counter for a trade side.
func RecordTrigger(side string) {
	DefaultMetrics.TriggersFired.WithLabelValues(side).Inc()
}

// RecordBundleSubmitted increments the submitted counter and raises the
// pending gauge.
func RecordBundleSubmitted(tipLamports uint64) {
	DefaultMetrics.BundlesSubmitted.Inc()
	DefaultMetrics.TipsPaidLamports.Add(float64(tipLamports))
	DefaultMetrics.PendingBundles.Inc()
}

// RecordBundleAccepted increments the accepted counter and lowers the
// pending gauge.
func RecordBundleAccepted() {
	DefaultMetrics.BundlesAccepted.Inc()
	DefaultMetrics.PendingBundles.Dec()
}

// RecordBundleRejected increments the rejected counter and lowers the
// pending gauge.
func RecordBundleRejected(reason string) {
	DefaultMetrics.BundlesRejected.WithLabelValues(reason).Inc()
	DefaultMetrics.PendingBundles.Dec()
}

// RecordRPCLatency records latency for an RPC method call.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordJournalError records a journal write failure.
func RecordJournalError(backend, operation string) {
	DefaultMetrics.JournalWriteErrors.WithLabelValues(backend, operation).Inc()
}

package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mezonai/lightsync/logx"
)

// SyncSpecOutcome labels the result of a sync spec generation
type SyncSpecOutcome string

const OutcomeSuccess SyncSpecOutcome = "success"

type nodePromMetrics struct {
	nodeUpUnixSeconds prometheus.Gauge
	syncSpecRequests  *prometheus.CounterVec
	syncSpecDuration  prometheus.Histogram
	syncSpecSizeBytes prometheus.Histogram
	finalizedNumber   prometheus.Gauge
	rateLimited       prometheus.Counter
	panicCount        prometheus.Counter
}

func newNodePromMetrics() *nodePromMetrics {
	return &nodePromMetrics{
		nodeUpUnixSeconds: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "lightsync_node_up_timestamp_unix_seconds",
				Help: "Unix timestamp of the node",
			},
		),
		syncSpecRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lightsync_sync_spec_requests_total",
				Help: "The total number of sync spec generations by outcome",
			},
			[]string{"outcome"},
		),
		syncSpecDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name: "lightsync_sync_spec_duration_seconds",
				Help: "Time in second spent building, encoding and rendering a sync spec",
			},
		),
		syncSpecSizeBytes: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "lightsync_sync_spec_size_bytes",
				Help:    "Size in bytes of generated sync specs",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
			},
		),
		finalizedNumber: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "lightsync_sync_spec_finalized_number",
				Help: "Finalized block number captured by the last sync spec",
			},
		),
		rateLimited: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "lightsync_rpc_rate_limited_total",
				Help: "The total number of RPC requests rejected by the rate limiter",
			},
		),
		panicCount: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "lightsync_node_panic_count",
				Help: "The total number of recovered panics",
			},
		),
	}
}

var (
	nodeMetrics *nodePromMetrics
	initOnce    sync.Once
)

// InitMetrics initialize metrics for node but not expose to api yet. Safe to call more than once.
func InitMetrics() {
	initOnce.Do(func() {
		nodeMetrics = newNodePromMetrics()
		nodeMetrics.nodeUpUnixSeconds.SetToCurrentTime()
	})
}

func metrics() *nodePromMetrics {
	InitMetrics()
	return nodeMetrics
}

// RegisterMetrics exposes the default registry at /metrics
func RegisterMetrics(router *mux.Router) {
	logx.Info("MONITORING", "Registering prometheus metrics")
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}

func RecordSyncSpec(outcome SyncSpecOutcome, duration time.Duration) {
	m := metrics()
	m.syncSpecRequests.With(prometheus.Labels{
		"outcome": string(outcome),
	}).Inc()
	m.syncSpecDuration.Observe(duration.Seconds())
}

func RecordSyncSpecSizeBytes(sizeBytes int) {
	metrics().syncSpecSizeBytes.Observe(float64(sizeBytes))
}

func SetSyncSpecFinalizedNumber(number uint32) {
	metrics().finalizedNumber.Set(float64(number))
}

func IncreaseRateLimitedCount() {
	metrics().rateLimited.Inc()
}

func IncreasePanicCount() {
	metrics().panicCount.Inc()
}

package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "swarmkeeper"

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	reconcileCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconciler",
			Name:      "cycles_total",
			Help:      "Reconciler cycles by result.",
		},
		[]string{"result"},
	)
	reconcileCorrections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconciler",
			Name:      "corrections_total",
			Help:      "Catalog status corrections by new status.",
		},
		[]string{"status"},
	)
	builds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "builder",
			Name:      "builds_total",
			Help:      "Image builds by result.",
		},
		[]string{"result"},
	)
	buildDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "builder",
			Name:      "build_duration_seconds",
			Help:      "Build and push duration in seconds.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"result"},
	)
	clusterOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cluster",
			Name:      "operations_total",
			Help:      "Cluster mutations by operation and result.",
		},
		[]string{"op", "result"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			reconcileCycles, reconcileCorrections,
			builds, buildDuration,
			clusterOps,
		)
	})
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

// RecordReconcileCycle takes one of "ok", "unreachable" or "error".
func RecordReconcileCycle(result string) {
	RegisterMetrics()
	reconcileCycles.WithLabelValues(result).Inc()
}

func RecordCorrection(status string) {
	RegisterMetrics()
	reconcileCorrections.WithLabelValues(status).Inc()
}

func RecordBuild(success bool, duration time.Duration) {
	RegisterMetrics()
	result := "failed"
	if success {
		result = "succeeded"
	}
	builds.WithLabelValues(result).Inc()
	buildDuration.WithLabelValues(result).Observe(duration.Seconds())
}

func RecordClusterOp(op string, err error) {
	RegisterMetrics()
	result := "ok"
	if err != nil {
		result = "error"
	}
	clusterOps.WithLabelValues(op, result).Inc()
}

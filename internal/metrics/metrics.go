package metrics

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Registry holds every barbican-kms collector. It is separate from the
	// default registry so the textfile export carries only our series.
	Registry = prometheus.NewRegistry()

	secretOperationsTotal *prometheus.CounterVec
	projectLookupsTotal   *prometheus.CounterVec
	requestsTotal         *prometheus.CounterVec
	requestDuration       *prometheus.HistogramVec

	metricsOnce       sync.Once
	metricsRegistered atomic.Bool
)

// InitMetrics registers all collectors on Registry. Safe to call repeatedly.
func InitMetrics() {
	metricsOnce.Do(func() {
		factory := promauto.With(Registry)

		secretOperationsTotal = factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "barbican_kms_secret_operations_total",
				Help: "Total number of key-manager secret operations",
			},
			[]string{"operation", "result"},
		)

		projectLookupsTotal = factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "barbican_kms_project_path_lookups_total",
				Help: "Project path resolutions by cache outcome",
			},
			[]string{"cache"},
		)

		requestsTotal = factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "barbican_kms_http_requests_total",
				Help: "HTTP requests sent to OpenStack endpoints",
			},
			[]string{"method", "code"},
		)

		requestDuration = factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "barbican_kms_http_request_duration_seconds",
				Help:    "Latency of HTTP requests sent to OpenStack endpoints",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method"},
		)

		metricsRegistered.Store(true)
	})
}

// IsMetricsRegistered reports whether InitMetrics has run.
func IsMetricsRegistered() bool {
	return metricsRegistered.Load()
}

// RecordSecretOperation counts a create/retrieve/describe call.
func RecordSecretOperation(operation string, err error) {
	if !metricsRegistered.Load() {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	secretOperationsTotal.WithLabelValues(operation, result).Inc()
}

// RecordProjectLookup counts a project path resolution as a cache hit or miss.
func RecordProjectLookup(hit bool) {
	if !metricsRegistered.Load() {
		return
	}
	cache := "miss"
	if hit {
		cache = "hit"
	}
	projectLookupsTotal.WithLabelValues(cache).Inc()
}

// RecordRequest observes one outbound HTTP request. code is 0 when no
// response was received.
func RecordRequest(method string, code int, elapsed time.Duration) {
	if !metricsRegistered.Load() {
		return
	}
	label := "none"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	requestsTotal.WithLabelValues(method, label).Inc()
	requestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// WriteTextfile writes the current values in the node_exporter textfile
// format to path.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}

// GetSecretOperationsTotal returns the secret operations counter (nil before InitMetrics).
func GetSecretOperationsTotal() *prometheus.CounterVec {
	return secretOperationsTotal
}

// GetProjectLookupsTotal returns the project lookup counter (nil before InitMetrics).
func GetProjectLookupsTotal() *prometheus.CounterVec {
	return projectLookupsTotal
}

// GetRequestsTotal returns the HTTP request counter (nil before InitMetrics).
func GetRequestsTotal() *prometheus.CounterVec {
	return requestsTotal
}

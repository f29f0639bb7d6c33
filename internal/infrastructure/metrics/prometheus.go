package metrics

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

const namespace = "content_cleanup"

type PrometheusMetrics struct {
	registry           *prometheus.Registry
	ContentTransitions *prometheus.CounterVec
	CleanupDuration    *prometheus.HistogramVec
	LastCleanupTime    *prometheus.GaugeVec
	CleanupErrors      *prometheus.CounterVec
	NotificationErrors *prometheus.CounterVec
	HttpRequestTotal   *prometheus.CounterVec
	HttpRequestTimeout *prometheus.CounterVec
	HttpRequestErrors  *prometheus.CounterVec
	hostname           string
	logger             *zap.Logger
}

func (p *PrometheusMetrics) GetRegistry() *prometheus.Registry {
	return p.registry
}

// NewPrometheusMetrics registers all collectors on registry. A nil registry
// gets a fresh one with the Go and process collectors.
func NewPrometheusMetrics(registry *prometheus.Registry, logger *zap.Logger) *PrometheusMetrics {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
		logger.Error("Failed to get hostname", zap.Error(err))
	}

	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			prometheus.NewGoCollector(),
			prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		)
	}
	factory := promauto.With(registry)

	metrics := &PrometheusMetrics{
		registry: registry,
		ContentTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "content_transitions_total",
			Help:      "Content items processed, by transition, kind and outcome",
		}, []string{"hostname", "transition", "kind", "status"}),

		CleanupDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "duration_seconds",
			Help:      "Time spent running content cleanup",
			Buckets:   prometheus.DefBuckets,
		}, []string{"hostname"}),

		LastCleanupTime: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp",
			Help:      "Timestamp of the last cleanup run",
		}, []string{"hostname"}),

		CleanupErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "The total number of aborted cleanup runs",
		}, []string{"hostname", "reason"}),

		NotificationErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_errors_total",
			Help:      "The total number of failed notifications",
		}, []string{"hostname", "channel"}),

		HttpRequestTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"hostname", "code", "method", "path"}),

		HttpRequestTimeout: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_request_timeouts_total",
			Help:      "Total number of HTTP request timeouts",
		}, []string{"hostname", "path", "method"}),

		HttpRequestErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_request_errors_total",
			Help:      "Total number of HTTP request errors",
		}, []string{"hostname", "path", "method", "status", "error_type"}),

		hostname: hostname,
		logger:   logger,
	}

	logger.Info("Prometheus metrics initialized",
		zap.String("hostname", hostname))

	return metrics
}

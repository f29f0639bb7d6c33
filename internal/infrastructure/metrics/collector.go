package metrics

import (
	"time"

	"looker-content-cleanup/internal/domain/metrics"
	"looker-content-cleanup/internal/domain/models"
)

var _ metrics.MetricsCollector = (*PrometheusMetrics)(nil)

func (p *PrometheusMetrics) IncContentTransition(transition models.Transition, kind models.Kind, status models.OutcomeStatus) {
	p.ContentTransitions.WithLabelValues(p.hostname, string(transition), string(kind), string(status)).Inc()
}

func (p *PrometheusMetrics) ObserveCleanupDuration(duration time.Duration) {
	p.CleanupDuration.WithLabelValues(p.hostname).Observe(duration.Seconds())
}

func (p *PrometheusMetrics) SetLastCleanupTime(timestamp time.Time) {
	p.LastCleanupTime.WithLabelValues(p.hostname).Set(float64(timestamp.Unix()))
}

func (p *PrometheusMetrics) IncCleanupErrors(reason string) {
	p.CleanupErrors.WithLabelValues(p.hostname, reason).Inc()
}

func (p *PrometheusMetrics) IncNotificationErrors(channel string) {
	p.NotificationErrors.WithLabelValues(p.hostname, channel).Inc()
}

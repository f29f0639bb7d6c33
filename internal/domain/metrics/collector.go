package metrics

import (
	"time"

	"looker-content-cleanup/internal/domain/models"
)

type MetricsCollector interface {
	IncContentTransition(transition models.Transition, kind models.Kind, status models.OutcomeStatus)
	ObserveCleanupDuration(duration time.Duration)
	SetLastCleanupTime(timestamp time.Time)
	IncCleanupErrors(reason string)
	IncNotificationErrors(channel string)

	IncHttpRequests(path, method string, status int)
	IncHttpTimeout(path, method string)
	IncHttpError(path, method string, status int, errorType string)
}

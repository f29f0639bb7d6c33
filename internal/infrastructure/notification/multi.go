package notification

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"looker-content-cleanup/internal/domain/models"
	"looker-content-cleanup/internal/domain/notification"
)

// MultiNotifier delivers every message to all channels. One failing channel
// does not stop the others.
type MultiNotifier struct {
	notifiers []notification.Notifier
	logger    *zap.Logger
}

var _ notification.Notifier = (*MultiNotifier)(nil)

func NewMultiNotifier(logger *zap.Logger, notifiers ...notification.Notifier) *MultiNotifier {
	return &MultiNotifier{
		notifiers: notifiers,
		logger:    logger,
	}
}

func (m *MultiNotifier) Name() string {
	names := make([]string, 0, len(m.notifiers))
	for _, n := range m.notifiers {
		names = append(names, n.Name())
	}
	return strings.Join(names, "+")
}

func (m *MultiNotifier) SendNotification(ctx context.Context, msg notification.Message) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.SendNotification(ctx, msg); err != nil {
			m.logger.Warn("Notification channel failed",
				zap.String("channel", n.Name()),
				zap.Error(err))
			errs = append(errs, &models.NotificationError{Channel: n.Name(), Err: err})
		}
	}
	return errors.Join(errs...)
}

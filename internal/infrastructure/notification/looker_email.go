package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/looker-open-source/sdk-codegen/go/rtl"
	v4 "github.com/looker-open-source/sdk-codegen/go/sdk/v4"
	"go.uber.org/zap"

	"looker-content-cleanup/internal/domain/notification"
)

// ScheduledPlanRunner is satisfied by *v4.LookerSDK.
type ScheduledPlanRunner interface {
	ScheduledPlanRunOnce(body v4.WriteScheduledPlan, options *rtl.ApiSettings) (v4.ScheduledPlan, error)
}

// LookerEmailNotifier emails through Looker's scheduler: a one-off scheduled
// plan with an email destination, carrying the report results as CSV.
type LookerEmailNotifier struct {
	runner ScheduledPlanRunner
	logger *zap.Logger
}

var _ notification.Notifier = (*LookerEmailNotifier)(nil)

func NewLookerEmailNotifier(runner ScheduledPlanRunner, logger *zap.Logger) *LookerEmailNotifier {
	return &LookerEmailNotifier{
		runner: runner,
		logger: logger,
	}
}

func (n *LookerEmailNotifier) Name() string { return "looker_email" }

func (n *LookerEmailNotifier) SendNotification(ctx context.Context, msg notification.Message) error {
	if msg.Recipient == "" {
		return errors.New("no recipient address")
	}
	if msg.QueryID == "" {
		return errors.New("scheduled plan requires a query id")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	destination := v4.ScheduledPlanDestination{
		Format:          ptr("csv"),
		Type:            ptr("email"),
		Address:         ptr(msg.Recipient),
		Message:         ptr(msg.Body),
		ApplyFormatting: ptr(false),
		ApplyVis:        ptr(false),
	}
	plan := v4.WriteScheduledPlan{
		Name:                     ptr(msg.Subject),
		QueryId:                  ptr(msg.QueryID),
		ScheduledPlanDestination: &[]v4.ScheduledPlanDestination{destination},
	}

	if _, err := n.runner.ScheduledPlanRunOnce(plan, nil); err != nil {
		return fmt.Errorf("failed to run scheduled plan: %w", err)
	}

	n.logger.Info("Successfully sent email notification",
		zap.String("subject", msg.Subject),
		zap.String("query_id", msg.QueryID))

	return nil
}

func ptr[T any](v T) *T { return &v }

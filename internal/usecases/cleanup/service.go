package cleanup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"looker-content-cleanup/internal/domain/metrics"
	"looker-content-cleanup/internal/domain/models"
	"looker-content-cleanup/internal/domain/notification"
	"looker-content-cleanup/internal/domain/repositories"
	"looker-content-cleanup/pkg/helper"
)

var _ CleanupUseCase = (*CleanupService)(nil)

type CleanupService struct {
	repo     repositories.ContentRepository
	notifier notification.Notifier
	metrics  metrics.MetricsCollector
	logger   *zap.Logger
	opts     Options

	now      func() time.Time
	newRunID func() string

	// held for the duration of a run
	running sync.Mutex

	statusMu sync.Mutex
	status   RunStatus
}

func NewCleanupService(repo repositories.ContentRepository, notifier notification.Notifier, metricsCollector metrics.MetricsCollector, opts Options, logger *zap.Logger) *CleanupService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &CleanupService{
		repo:     repo,
		notifier: notifier,
		metrics:  metricsCollector,
		logger:   logger,
		opts:     opts,
		now:      time.Now,
		newRunID: uuid.NewString,
	}
}

// report is one usage report and the rows it returned.
type report struct {
	ref     models.ReportRef
	queryID string
	items   []models.ContentItem
}

func (s *CleanupService) Run(ctx context.Context) (*models.RunResult, error) {
	if !s.running.TryLock() {
		return nil, models.ErrRunInProgress
	}
	defer s.running.Unlock()

	s.setStatus(func(st *RunStatus) { st.Running = true })

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	result := &models.RunResult{
		RunID:     s.newRunID(),
		DryRun:    s.opts.DryRun,
		StartedAt: s.now(),
	}
	log := s.logger.With(
		zap.String("run_id", result.RunID),
		zap.Bool("dry_run", result.DryRun))

	log.Info("Starting content cleanup",
		zap.Int("soft_delete_days", s.opts.SoftDeleteDays),
		zap.Int("hard_delete_days", s.opts.HardDeleteDays))

	err := s.run(ctx, log, result)

	result.FinishedAt = s.now()
	s.metrics.ObserveCleanupDuration(result.Duration())
	s.metrics.SetLastCleanupTime(result.FinishedAt)
	s.setStatus(func(st *RunStatus) {
		finished := result.FinishedAt
		*st = RunStatus{LastRunID: result.RunID, LastFinished: &finished}
		if err != nil {
			st.LastError = err.Error()
		}
	})

	if err != nil {
		s.metrics.IncCleanupErrors(errorReason(err))
		log.Error("Content cleanup aborted", zap.Error(err))
		return result, err
	}

	log.Info("Content cleanup completed",
		zap.Int("soft_deleted", len(result.Succeeded(models.TransitionSoftDelete))),
		zap.Int("soft_delete_failed", len(result.Failed(models.TransitionSoftDelete))),
		zap.Int("hard_deleted", len(result.Succeeded(models.TransitionHardDelete))),
		zap.Int("hard_delete_failed", len(result.Failed(models.TransitionHardDelete))),
		zap.String("duration", result.Duration().Round(time.Millisecond).String()))

	return result, nil
}

func (s *CleanupService) run(ctx context.Context, log *zap.Logger, result *models.RunResult) error {
	unused := &report{ref: models.ReportRef{
		Kind: models.ReportUnusedContent,
		Name: s.opts.UnusedContentReport,
		Days: s.opts.SoftDeleteDays,
	}}
	deleted := &report{ref: models.ReportRef{
		Kind: models.ReportDeletedContent,
		Name: s.opts.DeletedContentReport,
		Days: s.opts.HardDeleteDays,
	}}

	// Both reports are resolved and executed before any mutation, so a fatal
	// error never leaves a half-applied run.
	for _, r := range []*report{unused, deleted} {
		if err := s.fetch(ctx, log, r); err != nil {
			return err
		}
	}

	now := s.now()
	var err error

	result.SoftDeleted, err = s.pass(ctx, log, models.TransitionSoftDelete, unused.items, now)
	if err != nil {
		return err
	}

	result.HardDeleted, err = s.pass(ctx, log, models.TransitionHardDelete, deleted.items, now)
	if err != nil {
		return err
	}

	s.notify(ctx, log, result, models.TransitionSoftDelete, unused.queryID)
	s.notify(ctx, log, result, models.TransitionHardDelete, deleted.queryID)

	return nil
}

func (s *CleanupService) fetch(ctx context.Context, log *zap.Logger, r *report) error {
	queryID, err := s.repo.ResolveReport(ctx, r.ref)
	if err != nil {
		return fmt.Errorf("failed to resolve %s report: %w", r.ref.Kind, err)
	}

	rows, err := s.repo.RunReport(ctx, queryID)
	if err != nil {
		return fmt.Errorf("failed to run %s report: %w", r.ref.Kind, err)
	}

	// the notification attaches the query that actually ran
	r.queryID = rows.QueryID
	r.items = rows.Items

	log.Info("Report executed",
		zap.String("report", string(r.ref.Kind)),
		zap.String("query_id", r.queryID),
		zap.Int("rows", len(r.items)))
	return nil
}

// pass applies t to the eligible rows of a report. Rows that can never be
// eligible are reported as skipped ahead of the applied outcomes.
func (s *CleanupService) pass(ctx context.Context, log *zap.Logger, t models.Transition, rows []models.ContentItem, now time.Time) ([]models.Outcome, error) {
	items, skipped := s.candidates(log, t, rows, now)
	outcomes, err := s.apply(ctx, log, t, items)
	return append(skipped, outcomes...), err
}

// candidates keeps the items whose age exceeds the threshold for t. Saved
// Looks are not parameterised by the thresholds, so ages are checked here too.
// A hard-delete row without any trash date is skipped: only trashed content
// may be purged.
func (s *CleanupService) candidates(log *zap.Logger, t models.Transition, rows []models.ContentItem, now time.Time) ([]models.ContentItem, []models.Outcome) {
	var out []models.ContentItem
	var skipped []models.Outcome
	for _, item := range rows {
		switch t {
		case models.TransitionSoftDelete:
			if item.InactiveDays(now) > s.opts.SoftDeleteDays {
				out = append(out, item)
			}
		case models.TransitionHardDelete:
			days, ok := item.TrashDays(now)
			if !ok {
				outcome := models.Outcome{
					Item:       item,
					Transition: t,
					Status:     models.StatusSkipped,
					Reason:     "no trash date",
					Err:        fmt.Errorf("%w: %s without trash date", models.ErrTransitionNotAllowed, t),
				}
				s.record(log, outcome)
				skipped = append(skipped, outcome)
				continue
			}
			if days > s.opts.HardDeleteDays {
				out = append(out, item)
			}
		}
	}

	if ignored := len(rows) - len(out) - len(skipped); ignored > 0 {
		log.Info("Rows below threshold ignored",
			zap.String("transition", string(t)),
			zap.Int("ignored", ignored))
	}
	return out, skipped
}

// apply runs t over every candidate. Item failures are recorded and the pass
// continues; only a cancelled context stops it.
func (s *CleanupService) apply(ctx context.Context, log *zap.Logger, t models.Transition, items []models.ContentItem) ([]models.Outcome, error) {
	outcomes := make([]models.Outcome, 0, len(items))
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return outcomes, fmt.Errorf("%s pass interrupted after %d of %d items: %w", t, len(outcomes), len(items), err)
		}

		outcome := s.transition(ctx, t, item)
		s.record(log, outcome)
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

func (s *CleanupService) record(log *zap.Logger, outcome models.Outcome) {
	item := outcome.Item
	s.metrics.IncContentTransition(outcome.Transition, item.Kind, outcome.Status)

	fields := []zap.Field{
		zap.String("transition", string(outcome.Transition)),
		zap.String("kind", string(item.Kind)),
		zap.String("id", item.ID),
		zap.String("title", item.Title),
		zap.String("status", string(outcome.Status)),
	}
	switch outcome.Status {
	case models.StatusFailed:
		log.Error("Content transition failed", append(fields, zap.Error(outcome.Err))...)
	case models.StatusSkipped:
		log.Warn("Content transition skipped", append(fields, zap.String("reason", outcome.Reason))...)
	default:
		log.Info("Content transition", fields...)
	}
}

func (s *CleanupService) transition(ctx context.Context, t models.Transition, item models.ContentItem) models.Outcome {
	outcome := models.Outcome{Item: item, Transition: t}

	if state := item.State(); !t.Allowed(state) {
		outcome.Status = models.StatusSkipped
		outcome.Reason = fmt.Sprintf("item is %s", state)
		outcome.Err = fmt.Errorf("%w: %s from %s", models.ErrTransitionNotAllowed, t, state)
		return outcome
	}

	if s.opts.DryRun {
		outcome.Status = models.StatusDryRun
		return outcome
	}

	if err := s.mutate(ctx, t, item.Kind, item.ID); err != nil {
		outcome.Status = models.StatusFailed
		outcome.Err = err
		outcome.Reason = err.Error()
		return outcome
	}

	outcome.Status = models.StatusApplied
	return outcome
}

func (s *CleanupService) mutate(ctx context.Context, t models.Transition, kind models.Kind, id string) error {
	var err error
	switch t {
	case models.TransitionSoftDelete:
		err = s.repo.SoftDelete(ctx, kind, id)
	case models.TransitionHardDelete:
		err = s.repo.HardDelete(ctx, kind, id)
	case models.TransitionRestore:
		err = s.repo.Restore(ctx, kind, id)
	default:
		err = fmt.Errorf("unsupported transition %q", t)
	}
	if err != nil {
		return &models.ItemMutationError{Kind: kind, ID: id, Transition: t, Err: err}
	}
	return nil
}

func (s *CleanupService) notify(ctx context.Context, log *zap.Logger, result *models.RunResult, t models.Transition, queryID string) {
	subject, body := helper.FormatRunMessage(result, t, s.now().In(s.opts.Location))
	msg := notification.Message{
		Subject:   subject,
		Body:      body,
		Recipient: s.opts.Recipient,
		QueryID:   queryID,
	}

	if err := s.notifier.SendNotification(ctx, msg); err != nil {
		var notifyErr *models.NotificationError
		channel := s.notifier.Name()
		if errors.As(err, &notifyErr) {
			channel = notifyErr.Channel
		}
		s.metrics.IncNotificationErrors(channel)
		log.Error("Failed to send notification",
			zap.String("transition", string(t)),
			zap.Error(&models.NotificationError{Channel: channel, Err: err}))
		return
	}

	log.Info("Notification sent",
		zap.String("transition", string(t)),
		zap.String("subject", subject))
}

// Restore is the out-of-band path back to Active. It always mutates, dry-run
// only governs the scheduled passes.
func (s *CleanupService) Restore(ctx context.Context, kind models.Kind, id string) error {
	if err := s.mutate(ctx, models.TransitionRestore, kind, id); err != nil {
		s.metrics.IncContentTransition(models.TransitionRestore, kind, models.StatusFailed)
		s.logger.Error("Failed to restore content",
			zap.String("kind", string(kind)),
			zap.String("id", id),
			zap.Error(err))
		return err
	}

	s.metrics.IncContentTransition(models.TransitionRestore, kind, models.StatusApplied)
	s.logger.Info("Content restored",
		zap.String("kind", string(kind)),
		zap.String("id", id))
	return nil
}

func (s *CleanupService) Status() RunStatus {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	return s.status
}

func (s *CleanupService) setStatus(update func(*RunStatus)) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	update(&s.status)
}

func errorReason(err error) string {
	var cfgErr *models.ConfigurationError
	var queryErr *models.QueryExecutionError
	switch {
	case errors.As(err, &cfgErr):
		return "configuration"
	case errors.As(err, &queryErr):
		return "query"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	}
	return "unknown"
}

package cleanup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"looker-content-cleanup/internal/domain/models"
	"looker-content-cleanup/internal/domain/notification"
)

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return testNow.Add(-time.Duration(n) * 24 * time.Hour)
}

func intPtr(n int) *int { return &n }

// Mock content repository
type mockContentRepository struct {
	mu sync.Mutex

	reports    map[models.ReportKind][]models.ContentItem
	resolveErr map[models.ReportKind]error
	runErr     map[models.ReportKind]error
	mutateErr  map[string]error

	// ranQuery replaces the executed query id, as a rebuilt built-in query does
	ranQuery map[models.ReportKind]string

	// onMutate runs before each mutation call
	onMutate func(id string)
	// block, when set, holds ResolveReport until closed; entered is closed on the first wait
	block     chan struct{}
	entered   chan struct{}
	enterOnce sync.Once
	delay     time.Duration

	calls []string
}

func (m *mockContentRepository) ResolveReport(ctx context.Context, ref models.ReportRef) (string, error) {
	if m.block != nil {
		m.enterOnce.Do(func() { close(m.entered) })
		<-m.block
	}
	time.Sleep(m.delay)
	if err := m.resolveErr[ref.Kind]; err != nil {
		return "", err
	}
	return "query-" + string(ref.Kind), nil
}

func (m *mockContentRepository) RunReport(ctx context.Context, queryID string) (*models.ReportRows, error) {
	kind := models.ReportKind(queryID[len("query-"):])
	if err := m.runErr[kind]; err != nil {
		return nil, err
	}
	if ran, ok := m.ranQuery[kind]; ok {
		queryID = ran
	}
	return &models.ReportRows{QueryID: queryID, Items: m.reports[kind]}, nil
}

func (m *mockContentRepository) mutate(ctx context.Context, op string, kind models.Kind, id string) error {
	if m.onMutate != nil {
		m.onMutate(id)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.calls = append(m.calls, fmt.Sprintf("%s %s %s", op, kind, id))
	m.mu.Unlock()
	return m.mutateErr[id]
}

func (m *mockContentRepository) SoftDelete(ctx context.Context, kind models.Kind, id string) error {
	return m.mutate(ctx, "soft", kind, id)
}

func (m *mockContentRepository) HardDelete(ctx context.Context, kind models.Kind, id string) error {
	return m.mutate(ctx, "hard", kind, id)
}

func (m *mockContentRepository) Restore(ctx context.Context, kind models.Kind, id string) error {
	return m.mutate(ctx, "restore", kind, id)
}

// Mock notifier
type mockNotifier struct {
	messages []notification.Message
	err      error
}

func (m *mockNotifier) Name() string { return "mock" }

func (m *mockNotifier) SendNotification(ctx context.Context, msg notification.Message) error {
	m.messages = append(m.messages, msg)
	return m.err
}

// Mock metrics collector
type mockMetricsCollector struct {
	transitions        map[string]int
	cleanupErrors      map[string]int
	notificationErrors int
	lastCleanupTime    time.Time
	durationObserved   bool
}

func (m *mockMetricsCollector) IncContentTransition(t models.Transition, kind models.Kind, status models.OutcomeStatus) {
	if m.transitions == nil {
		m.transitions = make(map[string]int)
	}
	m.transitions[fmt.Sprintf("%s/%s", t, status)]++
}

func (m *mockMetricsCollector) ObserveCleanupDuration(duration time.Duration) {
	m.durationObserved = true
}

func (m *mockMetricsCollector) SetLastCleanupTime(timestamp time.Time) {
	m.lastCleanupTime = timestamp
}

func (m *mockMetricsCollector) IncCleanupErrors(reason string) {
	if m.cleanupErrors == nil {
		m.cleanupErrors = make(map[string]int)
	}
	m.cleanupErrors[reason]++
}

func (m *mockMetricsCollector) IncNotificationErrors(channel string) {
	m.notificationErrors++
}

func (m *mockMetricsCollector) IncHttpRequests(path, method string, status int) {}
func (m *mockMetricsCollector) IncHttpTimeout(path, method string) {}
func (m *mockMetricsCollector) IncHttpError(path, method string, status int, errorType string) {}

type fixture struct {
	repo     *mockContentRepository
	notifier *mockNotifier
	metrics  *mockMetricsCollector
	service  *CleanupService
}

func newFixture(opts Options, repo *mockContentRepository) *fixture {
	if repo.reports == nil {
		repo.reports = map[models.ReportKind][]models.ContentItem{}
	}
	f := &fixture{
		repo:     repo,
		notifier: &mockNotifier{},
		metrics:  &mockMetricsCollector{},
	}
	f.service = NewCleanupService(f.repo, f.notifier, f.metrics, opts, zap.NewNop())
	f.service.now = func() time.Time { return testNow }
	f.service.newRunID = func() string { return "run-1" }
	return f
}

func defaultOptions(dryRun bool) Options {
	return Options{
		SoftDeleteDays: 90,
		HardDeleteDays: 90,
		DryRun:         dryRun,
		Recipient:      "admin@example.com",
	}
}

func ids(items []models.ContentItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func TestDryRunSoftDeleteScenario(t *testing.T) {
	repo := &mockContentRepository{reports: map[models.ReportKind][]models.ContentItem{
		models.ReportUnusedContent: {
			{ID: "d-old", Kind: models.KindDashboard, Title: "Old sales", LastAccessedAt: daysAgo(91)},
			{ID: "d-new", Kind: models.KindDashboard, Title: "New sales", LastAccessedAt: daysAgo(45)},
		},
	}}
	f := newFixture(defaultOptions(true), repo)

	result, err := f.service.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"d-old"}, ids(result.Succeeded(models.TransitionSoftDelete)))
	assert.Equal(t, models.StatusDryRun, result.SoftDeleted[0].Status)
	assert.Empty(t, repo.calls, "dry run must not mutate content")

	require.Len(t, f.notifier.messages, 2, "both notifications are sent even when a set is empty")
	soft := f.notifier.messages[0]
	assert.Contains(t, soft.Body, "d-old")
	assert.NotContains(t, soft.Body, "d-new")
	assert.Equal(t, "query-unused_content", soft.QueryID)
	assert.Equal(t, "admin@example.com", soft.Recipient)
	assert.Contains(t, soft.Subject, "[DRY RUN]")

	hard := f.notifier.messages[1]
	assert.Contains(t, hard.Body, "No content met the threshold.")
	assert.Equal(t, "query-deleted_content", hard.QueryID)

	assert.Equal(t, 1, f.metrics.transitions["soft_delete/dry_run"])
	assert.True(t, f.metrics.durationObserved)
	assert.Equal(t, testNow, f.metrics.lastCleanupTime)
}

func TestLiveHardDeleteScenario(t *testing.T) {
	deletedAt := daysAgo(95)
	repo := &mockContentRepository{reports: map[models.ReportKind][]models.ContentItem{
		models.ReportDeletedContent: {
			{ID: "l-1", Kind: models.KindLook, Title: "Churn", LastAccessedAt: daysAgo(300), DeletedAt: &deletedAt, DaysInTrash: intPtr(95)},
		},
	}}
	f := newFixture(defaultOptions(false), repo)

	result, err := f.service.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"hard look l-1"}, repo.calls)
	require.Len(t, result.HardDeleted, 1)
	assert.Equal(t, models.StatusApplied, result.HardDeleted[0].Status)

	require.Len(t, f.notifier.messages, 2)
	hard := f.notifier.messages[1]
	assert.Contains(t, hard.Body, "Permanently deleted (1):")
	assert.Contains(t, hard.Body, "l-1")
	assert.NotContains(t, hard.Subject, "[DRY RUN]")
}

func TestSoftDeleteThreshold(t *testing.T) {
	tests := []struct {
		name          string
		lastAccessed  time.Time
		wantCandidate bool
	}{
		{"well past threshold", daysAgo(400), true},
		{"one day past threshold", daysAgo(91), true},
		{"exactly at threshold", daysAgo(90), false},
		{"recent", daysAgo(1), false},
		{"never accessed", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockContentRepository{reports: map[models.ReportKind][]models.ContentItem{
				models.ReportUnusedContent: {{ID: "x", Kind: models.KindLook, LastAccessedAt: tt.lastAccessed}},
			}}
			f := newFixture(defaultOptions(false), repo)

			result, err := f.service.Run(context.Background())
			require.NoError(t, err)

			if tt.wantCandidate {
				assert.Equal(t, []string{"x"}, ids(result.Succeeded(models.TransitionSoftDelete)))
				assert.Equal(t, []string{"soft look x"}, repo.calls)
			} else {
				assert.Empty(t, result.SoftDeleted)
				assert.Empty(t, repo.calls)
			}
		})
	}
}

func TestHardDeleteThreshold(t *testing.T) {
	recent := daysAgo(10)
	old := daysAgo(200)
	repo := &mockContentRepository{reports: map[models.ReportKind][]models.ContentItem{
		models.ReportDeletedContent: {
			{ID: "by-days", Kind: models.KindDashboard, DaysInTrash: intPtr(91)},
			{ID: "by-date", Kind: models.KindDashboard, DeletedAt: &old},
			{ID: "too-recent", Kind: models.KindDashboard, DeletedAt: &recent},
			{ID: "at-threshold", Kind: models.KindLook, DaysInTrash: intPtr(90)},
			// not in the trash: must never be hard deleted
			{ID: "active", Kind: models.KindLook, LastAccessedAt: daysAgo(500)},
		},
	}}
	f := newFixture(defaultOptions(false), repo)

	result, err := f.service.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"by-days", "by-date"}, ids(result.Succeeded(models.TransitionHardDelete)))
	assert.Equal(t, []string{"hard dashboard by-days", "hard dashboard by-date"}, repo.calls)
}

func TestHardDeleteReportsRowsWithoutTrashDate(t *testing.T) {
	repo := &mockContentRepository{reports: map[models.ReportKind][]models.ContentItem{
		models.ReportDeletedContent: {
			{ID: "no-trash", Kind: models.KindLook, Title: "Orphan", LastAccessedAt: daysAgo(400)},
		},
	}}
	opts := defaultOptions(false)
	opts.DeletedContentReport = "Trash older than 90 days"
	f := newFixture(opts, repo)

	result, err := f.service.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, repo.calls, "content outside the trash is never purged")
	require.Len(t, result.HardDeleted, 1)
	skipped := result.HardDeleted[0]
	assert.Equal(t, models.StatusSkipped, skipped.Status)
	assert.Equal(t, "no trash date", skipped.Reason)
	assert.ErrorIs(t, skipped.Err, models.ErrTransitionNotAllowed)
	assert.Equal(t, 1, f.metrics.transitions["hard_delete/skipped"])

	require.Len(t, f.notifier.messages, 2)
	hard := f.notifier.messages[1]
	assert.Contains(t, hard.Body, "Skipped (1):")
	assert.Contains(t, hard.Body, `- Look no-trash: "Orphan"`)
	assert.Contains(t, hard.Body, "reason: no trash date")
}

func TestNotificationUsesExecutedQuery(t *testing.T) {
	repo := &mockContentRepository{ranQuery: map[models.ReportKind]string{
		models.ReportUnusedContent: "rebuilt-unused",
	}}
	f := newFixture(defaultOptions(true), repo)

	_, err := f.service.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, f.notifier.messages, 2)
	assert.Equal(t, "rebuilt-unused", f.notifier.messages[0].QueryID)
	assert.Equal(t, "query-deleted_content", f.notifier.messages[1].QueryID)
}

func TestPartialFailure(t *testing.T) {
	repo := &mockContentRepository{
		reports: map[models.ReportKind][]models.ContentItem{
			models.ReportUnusedContent: {
				{ID: "1", Kind: models.KindDashboard, LastAccessedAt: daysAgo(100)},
				{ID: "2", Kind: models.KindDashboard, LastAccessedAt: daysAgo(100)},
				{ID: "3", Kind: models.KindLook, LastAccessedAt: daysAgo(100)},
			},
		},
		mutateErr: map[string]error{"2": errors.New("404 not found")},
	}
	f := newFixture(defaultOptions(false), repo)

	result, err := f.service.Run(context.Background())
	require.NoError(t, err, "an item failure must not abort the run")

	assert.Equal(t, []string{"soft dashboard 1", "soft dashboard 2", "soft look 3"}, repo.calls)
	assert.Equal(t, []string{"1", "3"}, ids(result.Succeeded(models.TransitionSoftDelete)))
	assert.Equal(t, []string{"2"}, ids(result.Failed(models.TransitionSoftDelete)))

	var mutationErr *models.ItemMutationError
	require.ErrorAs(t, result.SoftDeleted[1].Err, &mutationErr)
	assert.Equal(t, "2", mutationErr.ID)
	assert.Equal(t, models.TransitionSoftDelete, mutationErr.Transition)

	assert.Contains(t, f.notifier.messages[0].Body, "Failed (1):")
	assert.Equal(t, 2, f.metrics.transitions["soft_delete/applied"])
	assert.Equal(t, 1, f.metrics.transitions["soft_delete/failed"])
	assert.Empty(t, f.metrics.cleanupErrors)
}

func TestSoftDeleteIsIdempotent(t *testing.T) {
	deletedAt := daysAgo(3)
	repo := &mockContentRepository{reports: map[models.ReportKind][]models.ContentItem{
		models.ReportUnusedContent: {
			{ID: "archived", Kind: models.KindDashboard, LastAccessedAt: daysAgo(200), DeletedAt: &deletedAt},
		},
	}}
	f := newFixture(defaultOptions(false), repo)

	for i := 0; i < 2; i++ {
		result, err := f.service.Run(context.Background())
		require.NoError(t, err)
		require.Len(t, result.SoftDeleted, 1)
		assert.Equal(t, models.StatusSkipped, result.SoftDeleted[0].Status)
		assert.ErrorIs(t, result.SoftDeleted[0].Err, models.ErrTransitionNotAllowed)
	}
	assert.Empty(t, repo.calls)
}

func TestFatalErrorsAbortBeforeMutation(t *testing.T) {
	items := map[models.ReportKind][]models.ContentItem{
		models.ReportUnusedContent: {{ID: "1", Kind: models.KindDashboard, LastAccessedAt: daysAgo(100)}},
	}

	tests := []struct {
		name       string
		repo       *mockContentRepository
		wantReason string
	}{
		{
			name: "unknown report",
			repo: &mockContentRepository{reports: items, resolveErr: map[models.ReportKind]error{
				models.ReportUnusedContent: &models.ConfigurationError{Setting: "unused_content", Err: models.ErrReportNotFound},
			}},
			wantReason: "configuration",
		},
		{
			name: "trash report fails after unused report succeeded",
			repo: &mockContentRepository{reports: items, runErr: map[models.ReportKind]error{
				models.ReportDeletedContent: &models.QueryExecutionError{QueryID: "q", Err: errors.New("401")},
			}},
			wantReason: "query",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(defaultOptions(false), tt.repo)

			_, err := f.service.Run(context.Background())
			require.Error(t, err)
			assert.True(t, models.IsFatal(err))
			assert.Empty(t, tt.repo.calls)
			assert.Empty(t, f.notifier.messages)
			assert.Equal(t, 1, f.metrics.cleanupErrors[tt.wantReason])
			assert.Equal(t, err.Error(), f.service.Status().LastError)
		})
	}
}

func TestNotificationFailureIsNotFatal(t *testing.T) {
	repo := &mockContentRepository{reports: map[models.ReportKind][]models.ContentItem{
		models.ReportUnusedContent: {{ID: "1", Kind: models.KindDashboard, LastAccessedAt: daysAgo(100)}},
	}}
	f := newFixture(defaultOptions(false), repo)
	f.notifier.err = errors.New("mail server down")

	result, err := f.service.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"soft dashboard 1"}, repo.calls)
	assert.Len(t, result.Succeeded(models.TransitionSoftDelete), 1)
	assert.Len(t, f.notifier.messages, 2)
	assert.Equal(t, 2, f.metrics.notificationErrors)
}

func TestRunInProgress(t *testing.T) {
	repo := &mockContentRepository{block: make(chan struct{}), entered: make(chan struct{})}
	f := newFixture(defaultOptions(true), repo)

	done := make(chan error, 1)
	go func() {
		_, err := f.service.Run(context.Background())
		done <- err
	}()

	select {
	case <-repo.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first run never started")
	}

	_, err := f.service.Run(context.Background())
	assert.ErrorIs(t, err, models.ErrRunInProgress)
	assert.True(t, f.service.Status().Running)

	close(repo.block)
	require.NoError(t, <-done)

	status := f.service.Status()
	assert.False(t, status.Running)
	assert.NotEmpty(t, status.LastRunID)
	require.NotNil(t, status.LastFinished)
	assert.Empty(t, status.LastError)
}

func TestCancellationStopsPass(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := &mockContentRepository{
		reports: map[models.ReportKind][]models.ContentItem{
			models.ReportUnusedContent: {
				{ID: "1", Kind: models.KindDashboard, LastAccessedAt: daysAgo(100)},
				{ID: "2", Kind: models.KindDashboard, LastAccessedAt: daysAgo(100)},
				{ID: "3", Kind: models.KindDashboard, LastAccessedAt: daysAgo(100)},
			},
		},
	}
	repo.onMutate = func(id string) {
		if id == "2" {
			cancel()
		}
	}
	f := newFixture(defaultOptions(false), repo)

	result, err := f.service.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"soft dashboard 1"}, repo.calls, "applied transitions stay applied")
	require.Len(t, result.SoftDeleted, 2)
	assert.Equal(t, models.StatusFailed, result.SoftDeleted[1].Status)
	assert.Equal(t, 1, f.metrics.cleanupErrors["cancelled"])
}

func TestRestore(t *testing.T) {
	repo := &mockContentRepository{mutateErr: map[string]error{"bad": errors.New("403")}}
	f := newFixture(defaultOptions(true), repo)

	require.NoError(t, f.service.Restore(context.Background(), models.KindLook, "7"))
	assert.Equal(t, []string{"restore look 7"}, repo.calls, "restore ignores dry run")

	err := f.service.Restore(context.Background(), models.KindDashboard, "bad")
	var mutationErr *models.ItemMutationError
	require.ErrorAs(t, err, &mutationErr)
	assert.Equal(t, models.TransitionRestore, mutationErr.Transition)
	assert.Equal(t, 1, f.metrics.transitions["restore/applied"])
	assert.Equal(t, 1, f.metrics.transitions["restore/failed"])
}

func TestRunTimeout(t *testing.T) {
	opts := defaultOptions(false)
	opts.Timeout = 10 * time.Millisecond
	repo := &mockContentRepository{
		reports: map[models.ReportKind][]models.ContentItem{
			models.ReportUnusedContent: {{ID: "1", Kind: models.KindDashboard, LastAccessedAt: daysAgo(100)}},
		},
		delay: 30 * time.Millisecond,
	}
	f := newFixture(opts, repo)

	_, err := f.service.Run(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, repo.calls)
	assert.Equal(t, 1, f.metrics.cleanupErrors["timeout"])
}

package looker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	v4 "github.com/looker-open-source/sdk-codegen/go/sdk/v4"
	"go.uber.org/zap"

	"looker-content-cleanup/internal/domain/models"
	"looker-content-cleanup/internal/domain/repositories"
)

var _ repositories.ContentRepository = (*LookerRepository)(nil)

type LookerRepository struct {
	client Client
	logger *zap.Logger

	mu sync.Mutex
	// built-in queries created with folder columns, by query id
	withFolders map[string]models.ReportRef
	// set once the instance rejects the folder columns
	noFolders bool
}

func NewLookerRepository(client Client, logger *zap.Logger) *LookerRepository {
	return &LookerRepository{
		client:      client,
		logger:      logger,
		withFolders: map[string]models.ReportRef{},
	}
}

// call runs one SDK request. The SDK has no context support, so cancellation
// is only observed between requests.
func (r *LookerRepository) call(ctx context.Context, op string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *LookerRepository) ResolveReport(ctx context.Context, ref models.ReportRef) (string, error) {
	if ref.Name != "" {
		return r.resolveSavedLook(ctx, ref)
	}

	r.mu.Lock()
	folders := !r.noFolders
	r.mu.Unlock()

	id, err := r.createBuiltin(ctx, ref, folders)
	if err != nil {
		return "", err
	}
	if folders {
		r.mu.Lock()
		r.withFolders[id] = ref
		r.mu.Unlock()
	}
	return id, nil
}

func (r *LookerRepository) createBuiltin(ctx context.Context, ref models.ReportRef, withFolders bool) (string, error) {
	body, err := builtinQuery(ref, withFolders)
	if err != nil {
		return "", &models.ConfigurationError{Setting: string(ref.Kind), Err: err}
	}

	var query v4.Query
	err = r.call(ctx, "create_query", func() error {
		var err error
		query, err = r.client.CreateQuery(body, "id", nil)
		return err
	})
	if err != nil {
		return "", &models.QueryExecutionError{Err: err}
	}

	id := deref(query.Id)
	if id == "" {
		return "", &models.QueryExecutionError{Err: fmt.Errorf("create_query returned no id for %s", ref.Kind)}
	}

	r.logger.Debug("Created System Activity query",
		zap.String("report", string(ref.Kind)),
		zap.Int("days", ref.Days),
		zap.Bool("folders", withFolders),
		zap.String("query_id", id))
	return id, nil
}

func (r *LookerRepository) resolveSavedLook(ctx context.Context, ref models.ReportRef) (string, error) {
	var looks []v4.Look
	err := r.call(ctx, "search_looks", func() error {
		var err error
		looks, err = r.client.SearchLooks(v4.RequestSearchLooks{
			Title:   ptr(ref.Name),
			Deleted: ptr(false),
			Fields:  ptr("id,title,query_id"),
		}, nil)
		return err
	})
	if err != nil {
		return "", &models.QueryExecutionError{Err: err}
	}

	var matches []v4.Look
	for _, look := range looks {
		if strings.EqualFold(strings.TrimSpace(deref(look.Title)), ref.Name) {
			matches = append(matches, look)
		}
	}

	switch {
	case len(matches) == 0:
		return "", &models.ConfigurationError{
			Setting: string(ref.Kind),
			Err:     fmt.Errorf("%w: no saved Look titled %q", models.ErrReportNotFound, ref.Name),
		}
	case len(matches) > 1:
		return "", &models.ConfigurationError{
			Setting: string(ref.Kind),
			Err:     fmt.Errorf("%d saved Looks titled %q", len(matches), ref.Name),
		}
	}

	id := deref(matches[0].QueryId)
	if id == "" {
		return "", &models.ConfigurationError{
			Setting: string(ref.Kind),
			Err:     fmt.Errorf("saved Look %q has no query", ref.Name),
		}
	}

	r.logger.Debug("Resolved saved Look report",
		zap.String("report", string(ref.Kind)),
		zap.String("look_id", deref(matches[0].Id)),
		zap.String("query_id", id))
	return id, nil
}

// RunReport executes queryID. When a built-in query fails because the instance
// does not expose the folder columns, it is rebuilt without them and re-run;
// the returned rows then name the replacement query.
func (r *LookerRepository) RunReport(ctx context.Context, queryID string) (*models.ReportRows, error) {
	items, err := r.runQuery(ctx, queryID)

	var lookerErr *lookerError
	if errors.As(err, &lookerErr) && lookerErr.mentionsFolder() {
		if ref, ok := r.dropFolders(queryID); ok {
			r.logger.Warn("Folder fields unavailable, re-running report without them",
				zap.String("report", string(ref.Kind)),
				zap.String("query_id", queryID),
				zap.String("looker_error", lookerErr.message))

			if queryID, err = r.createBuiltin(ctx, ref, false); err != nil {
				return nil, err
			}
			items, err = r.runQuery(ctx, queryID)
		}
	}
	if err != nil {
		return nil, err
	}
	return &models.ReportRows{QueryID: queryID, Items: items}, nil
}

// dropFolders forgets queryID as a folder-carrying built-in query and stops
// requesting folder columns for later reports.
func (r *LookerRepository) dropFolders(queryID string) (models.ReportRef, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref, ok := r.withFolders[queryID]
	if ok {
		delete(r.withFolders, queryID)
		r.noFolders = true
	}
	return ref, ok
}

func (r *LookerRepository) runQuery(ctx context.Context, queryID string) ([]models.ContentItem, error) {
	var raw string
	err := r.call(ctx, "run_query", func() error {
		var err error
		raw, err = r.client.RunQuery(v4.RequestRunQuery{
			QueryId:      queryID,
			ResultFormat: "json",
			Cache:        ptr(true),
		}, nil)
		return err
	})
	if err != nil {
		return nil, &models.QueryExecutionError{QueryID: queryID, Err: err}
	}

	items, dropped, err := decodeRows(raw)
	if err != nil {
		return nil, &models.QueryExecutionError{QueryID: queryID, Err: err}
	}

	r.logger.Debug("Ran report",
		zap.String("query_id", queryID),
		zap.Int("rows", len(items)),
		zap.Int("dropped", dropped))
	return items, nil
}

func (r *LookerRepository) SoftDelete(ctx context.Context, kind models.Kind, id string) error {
	return r.setDeleted(ctx, kind, id, true)
}

func (r *LookerRepository) Restore(ctx context.Context, kind models.Kind, id string) error {
	return r.setDeleted(ctx, kind, id, false)
}

func (r *LookerRepository) setDeleted(ctx context.Context, kind models.Kind, id string, deleted bool) error {
	switch kind {
	case models.KindDashboard:
		return r.call(ctx, "update_dashboard", func() error {
			_, err := r.client.UpdateDashboard(id, v4.WriteDashboard{Deleted: ptr(deleted)}, nil)
			return err
		})
	case models.KindLook:
		return r.call(ctx, "update_look", func() error {
			_, err := r.client.UpdateLook(id, v4.WriteLookWithQuery{Deleted: ptr(deleted)}, "", nil)
			return err
		})
	}
	return fmt.Errorf("%w: %q", models.ErrUnknownKind, kind)
}

func (r *LookerRepository) HardDelete(ctx context.Context, kind models.Kind, id string) error {
	switch kind {
	case models.KindDashboard:
		return r.call(ctx, "delete_dashboard", func() error {
			_, err := r.client.DeleteDashboard(id, nil)
			return err
		})
	case models.KindLook:
		return r.call(ctx, "delete_look", func() error {
			_, err := r.client.DeleteLook(id, nil)
			return err
		})
	}
	return fmt.Errorf("%w: %q", models.ErrUnknownKind, kind)
}

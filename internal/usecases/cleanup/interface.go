package cleanup

import (
	"context"
	"time"

	"looker-content-cleanup/internal/domain/models"
)

// Options are resolved once at startup.
type Options struct {
	// Days of inactivity before content is archived.
	SoftDeleteDays int
	// Days in the trash before archived content is permanently deleted.
	HardDeleteDays int
	// DryRun computes and reports candidates without mutating content.
	DryRun bool
	// Saved Look titles overriding the built-in System Activity queries.
	UnusedContentReport  string
	DeletedContentReport string
	Recipient            string
	// Timeout bounds a whole run. Zero means no bound beyond the caller's context.
	Timeout  time.Duration
	Location *time.Location
}

// RunStatus is what the service remembers between runs.
type RunStatus struct {
	Running      bool       `json:"running"`
	LastRunID    string     `json:"last_run_id,omitempty"`
	LastFinished *time.Time `json:"last_finished,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
}

type CleanupUseCase interface {
	// Run executes one full soft-delete and hard-delete pass and sends both notifications.
	// Item failures are reported in the result; only fatal errors are returned.
	Run(ctx context.Context) (*models.RunResult, error)

	// Restore takes a soft-deleted item out of the trash.
	Restore(ctx context.Context, kind models.Kind, id string) error

	Status() RunStatus
}

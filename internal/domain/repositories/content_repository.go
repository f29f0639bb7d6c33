package repositories

import (
	"context"

	"looker-content-cleanup/internal/domain/models"
)

type ContentRepository interface {
	// ResolveReport returns the executable query id for a usage report
	ResolveReport(ctx context.Context, ref models.ReportRef) (string, error)

	// RunReport executes a query and decodes its rows
	RunReport(ctx context.Context, queryID string) (*models.ReportRows, error)

	// SoftDelete moves an item to the trash (deleted=true)
	SoftDelete(ctx context.Context, kind models.Kind, id string) error

	// HardDelete permanently removes an item
	HardDelete(ctx context.Context, kind models.Kind, id string) error

	// Restore takes an item out of the trash (deleted=false)
	Restore(ctx context.Context, kind models.Kind, id string) error
}

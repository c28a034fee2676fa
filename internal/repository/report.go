package repository

import (
	"context"
	"errors"

	"laporan/internal/model"
)

// ErrNotFound is returned by every ReportRepository implementation when the id does not exist.
var ErrNotFound = errors.New("report not found")

// ReportRepository defines data access for fault reports.
// No business logic here, strictly persistence operations.
// Implementations live in subpackages (memory, postgres, mongo) and are interchangeable.
type ReportRepository interface {
	// Create inserts a new report. The caller assigns ID and UploadedAt.
	Create(ctx context.Context, r *model.Report) (*model.Report, error)

	// List returns every report ordered by upload time, then ID.
	// The order is stable for the duration of one call.
	List(ctx context.Context) ([]model.Report, error)

	// FindByID returns a report by its ID, or ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.Report, error)

	// Update applies the set fields of u and returns the stored report, or ErrNotFound.
	// An empty update returns the current report unchanged.
	Update(ctx context.Context, id string, u model.ReportUpdate) (*model.Report, error)

	// Delete removes a report by ID, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
}

// Package repositories defines interfaces for domain persistence.
package repositories

import (
	"context"

	"github.com/reglet-dev/scannode/internal/domain/execution"
	"github.com/reglet-dev/scannode/internal/domain/values"
)

// CycleResultRepository defines the interface for recording finished cycles.
type CycleResultRepository interface {
	// Save records a cycle result.
	Save(ctx context.Context, result *execution.CycleResult) error

	// FindByID retrieves a cycle result by its unique ID.
	FindByID(ctx context.Context, id values.CycleID) (*execution.CycleResult, error)

	// Recent retrieves the most recent cycles, newest first. A non-positive
	// limit returns everything kept.
	Recent(ctx context.Context, limit int) ([]*execution.CycleResult, error)
}

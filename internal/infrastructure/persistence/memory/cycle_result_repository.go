// Package memory provides in-memory implementations of domain repositories.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/reglet-dev/scannode/internal/domain/execution"
	"github.com/reglet-dev/scannode/internal/domain/repositories"
	"github.com/reglet-dev/scannode/internal/domain/values"
)

// Ensure interface compliance
var _ repositories.CycleResultRepository = (*CycleResultRepository)(nil)

// CycleResultRepository is an in-memory implementation of CycleResultRepository.
// It backs the history printed at the end of a simulation run.
type CycleResultRepository struct {
	results map[values.CycleID]*execution.CycleResult
	mu      sync.RWMutex
}

// NewCycleResultRepository creates a new in-memory repository.
func NewCycleResultRepository() *CycleResultRepository {
	return &CycleResultRepository{
		results: make(map[values.CycleID]*execution.CycleResult),
	}
}

// Save records a cycle result.
// Callers should not modify the result after saving.
func (r *CycleResultRepository) Save(_ context.Context, result *execution.CycleResult) error {
	if result == nil {
		return fmt.Errorf("cannot save nil cycle result")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.results[result.ID] = result
	return nil
}

// FindByID retrieves a cycle result by its unique ID.
func (r *CycleResultRepository) FindByID(_ context.Context, id values.CycleID) (*execution.CycleResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result, ok := r.results[id]
	if !ok {
		return nil, fmt.Errorf("cycle result not found: %s", id)
	}
	return result, nil
}

// Recent retrieves the most recent cycles, newest first.
func (r *CycleResultRepository) Recent(_ context.Context, limit int) ([]*execution.CycleResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := make([]*execution.CycleResult, 0, len(r.results))
	for _, res := range r.results {
		matches = append(matches, res)
	}

	// Sort by start time descending (newest first)
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].StartTime.After(matches[j].StartTime)
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	return matches, nil
}

// Len returns the number of cycles recorded.
func (r *CycleResultRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.results)
}

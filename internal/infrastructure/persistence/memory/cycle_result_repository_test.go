package memory

import (
	"context"
	"testing"
	"time"

	"github.com/reglet-dev/scannode/internal/domain/execution"
	"github.com/reglet-dev/scannode/internal/domain/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCycleResultRepository_SaveAndFind(t *testing.T) {
	repo := NewCycleResultRepository()
	ctx := context.Background()

	id := values.NewCycleID()
	result := execution.NewCycleResultWithID(id, "1.0.0")

	require.NoError(t, repo.Save(ctx, result))

	found, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, found.ID.Equals(id))

	_, err = repo.FindByID(ctx, values.NewCycleID())
	assert.Error(t, err)

	assert.Error(t, repo.Save(ctx, nil))
}

func TestCycleResultRepository_Recent(t *testing.T) {
	repo := NewCycleResultRepository()
	ctx := context.Background()

	now := time.Now()
	r1 := execution.NewCycleResult("1.0.0")
	r1.StartTime = now.Add(-3 * time.Minute)
	r2 := execution.NewCycleResult("1.0.0")
	r2.StartTime = now.Add(-2 * time.Minute)
	r3 := execution.NewCycleResult("1.0.0")
	r3.StartTime = now.Add(-1 * time.Minute)

	require.NoError(t, repo.Save(ctx, r1))
	require.NoError(t, repo.Save(ctx, r2))
	require.NoError(t, repo.Save(ctx, r3))
	assert.Equal(t, 3, repo.Len())

	results, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].ID.Equals(r3.ID))
	assert.True(t, results[1].ID.Equals(r2.ID))

	all, err := repo.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

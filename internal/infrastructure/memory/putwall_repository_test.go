package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/putwall-service/internal/domain"
)

func newWall(t *testing.T, id, location string, slots ...domain.SlotID) *domain.Wall {
	t.Helper()
	wall, err := domain.NewWall(domain.WallID(id), location, slots)
	require.NoError(t, err)
	return wall
}

func TestSaveAndReload(t *testing.T) {
	ctx := context.Background()
	repo := NewPutWallRepository()
	wall := newWall(t, "PW-1", "ZONE-A", "A1", "A2")

	require.NoError(t, repo.Save(ctx, wall))
	assert.Equal(t, int64(1), wall.Version())

	loaded, err := repo.FindByID(ctx, "PW-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, int64(1), loaded.Version())
	assert.Equal(t, 2, loaded.Capacity())

	missing, err := repo.FindByID(ctx, "PW-404")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSaveRejectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewPutWallRepository()
	require.NoError(t, repo.Save(ctx, newWall(t, "PW-1", "ZONE-A", "A1", "A2")))

	first, err := repo.FindByID(ctx, "PW-1")
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, "PW-1")
	require.NoError(t, err)

	required, err := domain.NewRequiredItems(map[string]int{"SKU-1": 1})
	require.NoError(t, err)
	_, err = first.AssignOrderToSlot("ORD-1", required)
	require.NoError(t, err)
	_, err = second.AssignOrderToSlot("ORD-2", required)
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, first))
	assert.ErrorIs(t, repo.Save(ctx, second), domain.ErrConcurrentModification)

	assert.ErrorIs(t, repo.Save(ctx, newWall(t, "PW-1", "ZONE-A", "A1")), domain.ErrConcurrentModification)
}

func TestQueries(t *testing.T) {
	ctx := context.Background()
	repo := NewPutWallRepository()
	require.NoError(t, repo.Save(ctx, newWall(t, "PW-1", "ZONE-A", "A1")))
	require.NoError(t, repo.Save(ctx, newWall(t, "PW-2", "ZONE-A", "B1", "B2")))
	require.NoError(t, repo.Save(ctx, newWall(t, "PW-3", "ZONE-B", "C1", "C2", "C3")))

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	zoneA, err := repo.FindByLocation(ctx, "ZONE-A")
	require.NoError(t, err)
	assert.Len(t, zoneA, 2)

	roomy, err := repo.FindWithAvailableCapacity(ctx, 2)
	require.NoError(t, err)
	require.Len(t, roomy, 2)
	ids := []domain.WallID{roomy[0].ID(), roomy[1].ID()}
	assert.ElementsMatch(t, []domain.WallID{"PW-2", "PW-3"}, ids)
}

package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/putwall-service/internal/domain"
)

func TestSnapshotRoundTrip(t *testing.T) {
	wall := newTestWall(t, "A1", "A2", "A3")
	inProgress, err := wall.AssignOrderToSlot("O1", requiredItems(t, map[string]int{"SKU-1": 3, "SKU-2": 1}))
	require.NoError(t, err)
	require.NoError(t, wall.PlaceItemInSlot(inProgress, "SKU-1", domain.MustQuantity(2)))
	ready, err := wall.AssignOrderToSlot("O2", requiredItems(t, map[string]int{"SKU-3": 1}))
	require.NoError(t, err)
	require.NoError(t, wall.ConfirmPut("put-9", ready, "SKU-3", domain.MustQuantity(1)))
	wall.MarkSaved()

	snap := wall.Snapshot()
	restored, err := domain.RehydrateWall(snap)
	require.NoError(t, err)

	assert.Equal(t, snap, restored.Snapshot())
	assert.Equal(t, int64(1), restored.Version())
	assert.False(t, restored.IsNew())
	assert.Empty(t, restored.DomainEvents())
	assert.Equal(t, []domain.SlotID{ready}, restored.ReadyForPackSlots())
	assert.Equal(t, 1, restored.AvailableCapacity())
	assert.True(t, slotOf(t, restored, ready).HasAppliedPut("put-9"))

	// the restored aggregate keeps enforcing its rules
	require.NoError(t, restored.PlaceItemInSlot(inProgress, "SKU-1", domain.MustQuantity(1)))
	require.NoError(t, restored.PlaceItemInSlot(inProgress, "SKU-2", domain.MustQuantity(1)))
	assert.Equal(t, domain.SlotStatusReadyForPack, slotOf(t, restored, inProgress).Status())
}

func TestRehydrateWallRejectsImpossibleState(t *testing.T) {
	base := func() domain.WallSnapshot {
		return domain.WallSnapshot{
			ID:       "PW-1",
			Location: "Zone 1",
			Version:  2,
			Slots: []domain.SlotSnapshot{{
				ID:       "A1",
				Status:   domain.SlotStatusInProgress,
				OrderID:  "O1",
				Required: map[string]int{"SKU-1": 2},
				Placed:   map[string]int{"SKU-1": 1},
			}},
		}
	}

	tests := []struct {
		name   string
		mutate func(*domain.WallSnapshot)
	}{
		{name: "unknown status", mutate: func(s *domain.WallSnapshot) { s.Slots[0].Status = "LOST" }},
		{name: "missing order", mutate: func(s *domain.WallSnapshot) { s.Slots[0].OrderID = "" }},
		{name: "no required items", mutate: func(s *domain.WallSnapshot) { s.Slots[0].Required = nil }},
		{name: "over placed", mutate: func(s *domain.WallSnapshot) { s.Slots[0].Placed["SKU-1"] = 3 }},
		{name: "unrequested placed sku", mutate: func(s *domain.WallSnapshot) { s.Slots[0].Placed["SKU-9"] = 1 }},
		{name: "in progress but complete", mutate: func(s *domain.WallSnapshot) { s.Slots[0].Placed["SKU-1"] = 2 }},
		{name: "ready but incomplete", mutate: func(s *domain.WallSnapshot) { s.Slots[0].Status = domain.SlotStatusReadyForPack }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := base()
			tt.mutate(&snap)

			wall, err := domain.RehydrateWall(snap)
			assert.ErrorIs(t, err, domain.ErrInvalidState)
			assert.Nil(t, wall)
		})
	}

	wall, err := domain.RehydrateWall(base())
	require.NoError(t, err)
	assert.Equal(t, 1, slotOf(t, wall, "A1").PlacedQuantity("SKU-1"))
}

func TestRehydrateWallTreatsFreeSlotsAsFresh(t *testing.T) {
	snap := domain.WallSnapshot{
		ID:       "PW-1",
		Location: "Zone 1",
		Slots: []domain.SlotSnapshot{{
			ID:       "A1",
			Status:   domain.SlotStatusFree,
			OrderID:  "stale",
			Required: map[string]int{"SKU-1": 1},
		}},
	}

	wall, err := domain.RehydrateWall(snap)
	require.NoError(t, err)

	slot := slotOf(t, wall, "A1")
	assert.True(t, slot.IsFree())
	assert.Empty(t, slot.OrderID())
	assert.Empty(t, slot.RequiredItems())
}

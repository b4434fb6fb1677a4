package domain_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/putwall-service/internal/domain"
)

func TestDetermineSortationTargetNoActiveSlot(t *testing.T) {
	wall := newTestWall(t)
	_, err := wall.AssignOrderToSlot("O1", requiredItems(t, map[string]int{"SKU-1": 2}))
	require.NoError(t, err)

	result := domain.NewSortationService().DetermineSortationTarget(wall, "SKU-2")

	assert.False(t, result.Found)
	assert.Empty(t, result.SlotID)
	assert.Contains(t, result.Reason, "SKU-2")
}

func TestDetermineSortationTargetReturnsRemaining(t *testing.T) {
	wall := newTestWall(t)
	slotID, err := wall.AssignOrderToSlot("O1", requiredItems(t, map[string]int{"SKU-1": 5}))
	require.NoError(t, err)
	require.NoError(t, wall.PlaceItemInSlot(slotID, "SKU-1", domain.MustQuantity(2)))

	result := domain.NewSortationService().DetermineSortationTarget(wall, "SKU-1")

	assert.True(t, result.Found)
	assert.Equal(t, slotID, result.SlotID)
	assert.Equal(t, domain.OrderID("O1"), result.OrderID)
	assert.Equal(t, 3, result.QuantityNeeded)
	assert.Empty(t, result.Reason)
}

func TestDetermineSortationTargetSkipsSatisfiedSlots(t *testing.T) {
	wall := newTestWall(t, "A1", "A2", "A3")
	first, err := wall.AssignOrderToSlot("O1", requiredItems(t, map[string]int{"SKU-1": 1, "SKU-2": 1}))
	require.NoError(t, err)
	second, err := wall.AssignOrderToSlot("O2", requiredItems(t, map[string]int{"SKU-1": 2}))
	require.NoError(t, err)
	_, err = wall.AssignOrderToSlot("O3", requiredItems(t, map[string]int{"SKU-1": 4}))
	require.NoError(t, err)

	// O1 keeps waiting on SKU-2; its SKU-1 need is satisfied
	require.NoError(t, wall.PlaceItemInSlot(first, "SKU-1", domain.MustQuantity(1)))

	result := domain.NewSortationService().DetermineSortationTarget(wall, "SKU-1")

	assert.True(t, result.Found)
	assert.Equal(t, second, result.SlotID)
	assert.Equal(t, domain.OrderID("O2"), result.OrderID)
	assert.Equal(t, 2, result.QuantityNeeded)
}

func TestDetermineSortationTargetIgnoresConsolidatedSlots(t *testing.T) {
	wall := newTestWall(t)
	slotID, err := wall.AssignOrderToSlot("O1", requiredItems(t, map[string]int{"SKU-1": 1}))
	require.NoError(t, err)
	require.NoError(t, wall.PlaceItemInSlot(slotID, "SKU-1", domain.MustQuantity(1)))

	result := domain.NewSortationService().DetermineSortationTarget(wall, "SKU-1")

	assert.False(t, result.Found)
}

func TestDetermineSortationTargetDoesNotMutate(t *testing.T) {
	wall := newTestWall(t)
	_, err := wall.AssignOrderToSlot("O1", requiredItems(t, map[string]int{"SKU-1": 1}))
	require.NoError(t, err)
	wall.ClearDomainEvents()
	before := wall.Snapshot()

	domain.NewSortationService().DetermineSortationTarget(wall, "SKU-1")

	assert.Equal(t, before, wall.Snapshot())
	assert.Empty(t, wall.DomainEvents())
}

func TestValidateItemPlacement(t *testing.T) {
	wall := newTestWall(t, "A1", "A2", "A3")
	active, err := wall.AssignOrderToSlot("O1", requiredItems(t, map[string]int{"SKU-1": 3}))
	require.NoError(t, err)
	require.NoError(t, wall.PlaceItemInSlot(active, "SKU-1", domain.MustQuantity(1)))
	done, err := wall.AssignOrderToSlot("O2", requiredItems(t, map[string]int{"SKU-1": 1}))
	require.NoError(t, err)
	require.NoError(t, wall.PlaceItemInSlot(done, "SKU-1", domain.MustQuantity(1)))

	tests := []struct {
		name     string
		slotID   domain.SlotID
		sku      domain.SKU
		quantity int
		wantErr  error
		contains string
	}{
		{name: "valid", slotID: active, sku: "SKU-1", quantity: 2},
		{name: "missing slot", slotID: "Z9", sku: "SKU-1", quantity: 1, wantErr: domain.ErrSlotNotFound, contains: "Z9"},
		{name: "free slot", slotID: "A3", sku: "SKU-1", quantity: 1, wantErr: domain.ErrInvalidState},
		{name: "ready for pack slot", slotID: done, sku: "SKU-1", quantity: 1, wantErr: domain.ErrInvalidState},
		{name: "unrequested sku", slotID: active, sku: "SKU-2", quantity: 1, wantErr: domain.ErrInvalidArgument, contains: "SKU-2"},
		{name: "zero quantity", slotID: active, sku: "SKU-1", quantity: 0, wantErr: domain.ErrInvalidArgument},
		{name: "negative quantity", slotID: active, sku: "SKU-1", quantity: -2, wantErr: domain.ErrInvalidArgument},
		{name: "exceeds required", slotID: active, sku: "SKU-1", quantity: 4, wantErr: domain.ErrInvalidArgument, contains: "Would exceed by: 2"},
		{name: "quantity that would overflow", slotID: active, sku: "SKU-1", quantity: math.MaxInt, wantErr: domain.ErrInvalidArgument},
	}

	svc := domain.NewSortationService()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ValidateItemPlacement(wall, tt.slotID, tt.sku, tt.quantity)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}

func TestValidateItemPlacementChecksStateBeforeSKU(t *testing.T) {
	wall := newTestWall(t)

	err := domain.NewSortationService().ValidateItemPlacement(wall, "A1", "SKU-X", 0)

	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

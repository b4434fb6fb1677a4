package domain_test

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/putwall-service/internal/domain"
)

func TestQuantity(t *testing.T) {
	q, err := domain.NewQuantity(3)
	require.NoError(t, err)
	assert.Equal(t, 3, q.Int())

	for _, n := range []int{0, -1} {
		_, err := domain.NewQuantity(n)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	}

	sum, err := q.Add(domain.MustQuantity(2))
	require.NoError(t, err)
	assert.Equal(t, domain.Quantity(5), sum)

	sum, err = domain.Quantity(0).Add(q)
	require.NoError(t, err)
	assert.Equal(t, q, sum)

	_, err = q.Add(0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = q.Add(domain.Quantity(math.MaxInt))
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	diff, err := q.Subtract(domain.MustQuantity(1))
	require.NoError(t, err)
	assert.Equal(t, domain.Quantity(2), diff)

	_, err = q.Subtract(domain.MustQuantity(3))
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	product, err := q.Multiply(4)
	require.NoError(t, err)
	assert.Equal(t, domain.Quantity(12), product)

	_, err = q.Multiply(0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = q.Multiply(math.MaxInt / 2)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	assert.Panics(t, func() { domain.MustQuantity(0) })
}

func TestIdentifiersTrimAndRejectBlank(t *testing.T) {
	sku, err := domain.NewSKU("  SKU-1 ")
	require.NoError(t, err)
	assert.Equal(t, domain.SKU("SKU-1"), sku)

	_, err = domain.NewSKU("   ")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = domain.NewOrderID("")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = domain.NewWallID("\t")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = domain.NewSlotID(" ")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	id := domain.GenerateWallID()
	assert.True(t, strings.HasPrefix(id.String(), "PW-"))
	assert.NotEqual(t, id, domain.GenerateWallID())
}

func TestNewRequiredItems(t *testing.T) {
	items, err := domain.NewRequiredItems(map[string]int{"SKU-1": 2, "SKU-2": 1})
	require.NoError(t, err)
	assert.Equal(t, 3, items.Total())
	assert.Equal(t, map[string]int{"SKU-1": 2, "SKU-2": 1}, items.ToMap())

	merged, err := domain.NewRequiredItems(map[string]int{"SKU-1": 2, " SKU-1 ": 3})
	require.NoError(t, err)
	assert.Equal(t, domain.Quantity(5), merged["SKU-1"])

	_, err = domain.NewRequiredItems(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = domain.NewRequiredItems(map[string]int{"SKU-1": 0})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "SKU-1")

	_, err = domain.NewRequiredItems(map[string]int{"": 1})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = domain.NewRequiredItems(map[string]int{"SKU-1": math.MaxInt, " SKU-1": 1})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	clone := items.Clone()
	clone["SKU-1"] = 9
	assert.Equal(t, domain.Quantity(2), items["SKU-1"])
}

func TestCommands(t *testing.T) {
	assign, err := domain.NewAssignOrderToSlotCommand("PW-1", "O1", map[string]int{"SKU-1": 2})
	require.NoError(t, err)
	assert.Equal(t, domain.WallID("PW-1"), assign.WallID)
	assert.Equal(t, domain.OrderID("O1"), assign.OrderID)
	assert.Equal(t, domain.Quantity(2), assign.RequiredItems["SKU-1"])

	_, err = domain.NewAssignOrderToSlotCommand("PW-1", "O1", map[string]int{})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	put, err := domain.NewConfirmPutInSlotCommand("PW-1", "A1", "SKU-1", 1)
	require.NoError(t, err)
	assert.Equal(t, domain.SlotID("A1"), put.SlotID)
	assert.Equal(t, domain.Quantity(1), put.Quantity)

	_, err = domain.NewConfirmPutInSlotCommand("PW-1", "A1", "SKU-1", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = domain.NewConfirmPutInSlotCommand("PW-1", "", "SKU-1", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	scan, err := domain.NewScanItemForSortationCommand("PW-1", "SKU-1", 1)
	require.NoError(t, err)
	assert.Equal(t, domain.SKU("SKU-1"), scan.SKU)

	_, err = domain.NewScanItemForSortationCommand("PW-1", "SKU-1", -1)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

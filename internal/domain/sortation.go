package domain

import "fmt"

// SortationResult tells the operator where a scanned item goes
type SortationResult struct {
	Found          bool
	SlotID         SlotID
	OrderID        OrderID
	QuantityNeeded int
	Reason         string
}

// SortationService decides target slots for scanned items and pre-validates puts.
// It holds no state and never mutates the wall.
type SortationService struct{}

// NewSortationService creates a SortationService
func NewSortationService() *SortationService {
	return &SortationService{}
}

// DetermineSortationTarget returns the first in-progress slot, in wall order,
// that still needs the scanned SKU. An unmatched SKU is a normal outcome and
// is reported through Found=false with a reason.
func (s *SortationService) DetermineSortationTarget(wall *Wall, sku SKU) SortationResult {
	for i := range wall.slots {
		slot := &wall.slots[i]
		if !slot.IsInProgress() || !slot.Requires(sku) {
			continue
		}
		if remaining := slot.RemainingQuantity(sku); remaining > 0 {
			return SortationResult{
				Found:          true,
				SlotID:         slot.id,
				OrderID:        slot.orderID,
				QuantityNeeded: remaining,
			}
		}
	}
	return SortationResult{
		Found:  false,
		Reason: fmt.Sprintf("No active slot requires SKU: %s", sku),
	}
}

// ValidateItemPlacement checks a proposed put before it reaches the aggregate,
// so callers get a precise message. Wall.PlaceItemInSlot re-checks everything.
func (s *SortationService) ValidateItemPlacement(wall *Wall, slotID SlotID, sku SKU, quantity int) error {
	slot, ok := wall.Slot(slotID)
	if !ok {
		return slotNotFound(slotID)
	}
	if !slot.IsInProgress() {
		return invalidState("slot %s is not in progress (status %s)", slotID, slot.Status())
	}
	if !slot.Requires(sku) {
		return invalidArgument("sku %s is not required for order %s in slot %s", sku, slot.OrderID(), slotID)
	}
	if quantity <= 0 {
		return invalidArgument("quantity must be positive, got %d", quantity)
	}

	required := slot.RequiredQuantity(sku)
	placed := slot.PlacedQuantity(sku)
	if remaining := required - placed; quantity > remaining {
		return invalidArgument("cannot place %d items. Required: %d, Already placed: %d, Would exceed by: %d",
			quantity, required, placed, quantity-remaining)
	}
	return nil
}

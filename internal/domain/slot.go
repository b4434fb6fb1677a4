package domain

import "fmt"

// SlotStatus represents the lifecycle state of a put wall slot
type SlotStatus string

const (
	SlotStatusFree         SlotStatus = "FREE"
	SlotStatusInProgress   SlotStatus = "IN_PROGRESS"
	SlotStatusComplete     SlotStatus = "COMPLETE"
	SlotStatusReadyForPack SlotStatus = "READY_FOR_PACK"
)

// IsValid reports whether s is a known slot status
func (s SlotStatus) IsValid() bool {
	switch s {
	case SlotStatusFree, SlotStatusInProgress, SlotStatusComplete, SlotStatusReadyForPack:
		return true
	}
	return false
}

// Slot is one cubby of a put wall. It is owned by its Wall and only mutated through it.
type Slot struct {
	id       SlotID
	status   SlotStatus
	orderID  OrderID
	required RequiredItems
	placed   map[SKU]Quantity
	// puts lists the put ids applied for the current order
	puts []string
}

// NewSlot creates a free slot
func NewSlot(id SlotID) Slot {
	return Slot{
		id:       id,
		status:   SlotStatusFree,
		required: RequiredItems{},
		placed:   map[SKU]Quantity{},
	}
}

// AssignToOrder binds a free slot to an order and its required items
func (s *Slot) AssignToOrder(orderID OrderID, required RequiredItems) error {
	if s.status != SlotStatusFree {
		return invalidState("slot %s is not free for assignment (status %s)", s.id, s.status)
	}
	if orderID == "" {
		return invalidArgument("order id is required")
	}
	if len(required) == 0 {
		return invalidArgument("required items cannot be empty")
	}
	for sku, qty := range required {
		if qty <= 0 {
			return invalidArgument("quantity for sku %s must be positive, got %d", sku, qty)
		}
	}

	s.orderID = orderID
	s.required = required.Clone()
	s.placed = map[SKU]Quantity{}
	s.puts = nil
	s.status = SlotStatusInProgress
	return nil
}

// PlaceItem records quantity units of sku put into the slot.
// The slot moves to COMPLETE once every required SKU is fully placed.
func (s *Slot) PlaceItem(sku SKU, quantity Quantity) error {
	if s.status != SlotStatusInProgress {
		return invalidState("slot %s is not in progress (status %s)", s.id, s.status)
	}
	if quantity <= 0 {
		return invalidArgument("quantity must be positive, got %d", quantity)
	}
	required, ok := s.required[sku]
	if !ok {
		return invalidArgument("sku %s is not required for order %s", sku, s.orderID)
	}

	placed := s.placed[sku]
	if quantity > required-placed {
		return invalidArgument("cannot place more items than required for sku %s: required %d, already placed %d, attempting to place %d",
			sku, required, placed, quantity)
	}

	s.placed[sku] = placed + quantity
	if s.IsOrderComplete() {
		s.status = SlotStatusComplete
	}
	return nil
}

// MarkReadyForPack moves a fully consolidated slot to READY_FOR_PACK
func (s *Slot) MarkReadyForPack() error {
	if s.status != SlotStatusComplete {
		return invalidState("slot %s must be complete before it can be marked ready for pack (status %s)", s.id, s.status)
	}
	s.status = SlotStatusReadyForPack
	return nil
}

// Release clears the assignment and returns the slot to FREE
func (s *Slot) Release() {
	s.orderID = ""
	s.required = RequiredItems{}
	s.placed = map[SKU]Quantity{}
	s.puts = nil
	s.status = SlotStatusFree
}

// ID returns the slot identity
func (s Slot) ID() SlotID { return s.id }

// Status returns the current state
func (s Slot) Status() SlotStatus { return s.status }

// OrderID returns the assigned order, empty when the slot is free
func (s Slot) OrderID() OrderID { return s.orderID }

// IsFree reports whether the slot can take a new order
func (s Slot) IsFree() bool { return s.status == SlotStatusFree }

// IsInProgress reports whether the slot is receiving items
func (s Slot) IsInProgress() bool { return s.status == SlotStatusInProgress }

// IsReadyForPack reports whether the slot waits for pack-out
func (s Slot) IsReadyForPack() bool { return s.status == SlotStatusReadyForPack }

// IsOrderComplete recomputes completion from the required and placed quantities
func (s Slot) IsOrderComplete() bool {
	if len(s.required) == 0 {
		return false
	}
	for sku, required := range s.required {
		if s.placed[sku] < required {
			return false
		}
	}
	return true
}

// RequiredItems returns a copy of the required quantities
func (s Slot) RequiredItems() RequiredItems {
	return s.required.Clone()
}

// PlacedItems returns a copy of the placed quantities
func (s Slot) PlacedItems() map[SKU]Quantity {
	out := make(map[SKU]Quantity, len(s.placed))
	for k, v := range s.placed {
		out[k] = v
	}
	return out
}

// RequiredQuantity returns the required count for sku, or zero
func (s Slot) RequiredQuantity(sku SKU) int {
	return s.required[sku].Int()
}

// PlacedQuantity returns the placed count for sku, or zero
func (s Slot) PlacedQuantity(sku SKU) int {
	return s.placed[sku].Int()
}

// RemainingQuantity returns how many units of sku are still missing
func (s Slot) RemainingQuantity(sku SKU) int {
	return s.RequiredQuantity(sku) - s.PlacedQuantity(sku)
}

// Requires reports whether sku belongs to the slot's current order
func (s Slot) Requires(sku SKU) bool {
	_, ok := s.required[sku]
	return ok
}

// HasAppliedPut reports whether putID was already placed for the current order
func (s Slot) HasAppliedPut(putID string) bool {
	for _, id := range s.puts {
		if id == putID {
			return true
		}
	}
	return false
}

// AppliedPutIDs returns the put ids applied for the current order, oldest first
func (s Slot) AppliedPutIDs() []string {
	return append([]string(nil), s.puts...)
}

// clone returns a deep copy so callers never share maps with the aggregate
func (s Slot) clone() Slot {
	c := s
	c.required = s.required.Clone()
	c.placed = s.PlacedItems()
	c.puts = s.AppliedPutIDs()
	return c
}

func (s Slot) String() string {
	return fmt.Sprintf("Slot{id=%s status=%s order=%s}", s.id, s.status, s.orderID)
}

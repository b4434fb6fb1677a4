package domain

import (
	"fmt"
	"strings"
	"time"
)

// Wall is the put wall aggregate root. It owns a fixed, ordered set of slots
// and is the only emitter of put wall domain events.
//
// A Wall is not safe for concurrent use; callers load, mutate and save one
// instance per request.
type Wall struct {
	id        WallID
	location  string
	slots     []Slot
	index     map[SlotID]int
	version   int64
	createdAt time.Time
	updatedAt time.Time

	events []DomainEvent
}

// NewWall creates a wall with one free slot per id. Slot order is the order of slotIDs.
func NewWall(id WallID, location string, slotIDs []SlotID) (*Wall, error) {
	if id == "" {
		return nil, invalidArgument("put wall id is required")
	}
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, invalidArgument("location cannot be blank")
	}
	if len(slotIDs) == 0 {
		return nil, invalidArgument("put wall must have at least one slot")
	}

	w := &Wall{
		id:       id,
		location: location,
		slots:    make([]Slot, 0, len(slotIDs)),
		index:    make(map[SlotID]int, len(slotIDs)),
	}
	for _, slotID := range slotIDs {
		if slotID == "" {
			return nil, invalidArgument("slot id cannot be blank")
		}
		if _, dup := w.index[slotID]; dup {
			return nil, invalidArgument("duplicate slot id %s", slotID)
		}
		w.index[slotID] = len(w.slots)
		w.slots = append(w.slots, NewSlot(slotID))
	}

	now := time.Now().UTC()
	w.createdAt = now
	w.updatedAt = now
	return w, nil
}

// AssignOrderToSlot binds the order to the first free slot
func (w *Wall) AssignOrderToSlot(orderID OrderID, required RequiredItems) (SlotID, error) {
	i := w.firstFreeSlot()
	if i < 0 {
		return "", fmt.Errorf("%w: no free slot on put wall %s", ErrCapacityExceeded, w.id)
	}

	slot := &w.slots[i]
	if err := slot.AssignToOrder(orderID, required); err != nil {
		return "", err
	}

	w.touch()
	w.addEvent(&OrderAssignedToSlotEvent{
		eventMeta:     newEventMeta(),
		WallID:        w.id.String(),
		SlotID:        slot.id.String(),
		OrderID:       orderID.String(),
		RequiredItems: required.ToMap(),
	})
	return slot.id, nil
}

// PlaceItemInSlot records a put. When the put completes the order, the slot is
// marked ready for pack and the consolidation event follows the placement event.
func (w *Wall) PlaceItemInSlot(slotID SlotID, sku SKU, quantity Quantity) error {
	slot, err := w.slot(slotID)
	if err != nil {
		return err
	}
	if err := slot.PlaceItem(sku, quantity); err != nil {
		return err
	}

	w.touch()
	w.addEvent(&ItemPlacedInSlotEvent{
		eventMeta: newEventMeta(),
		WallID:    w.id.String(),
		SlotID:    slotID.String(),
		OrderID:   slot.orderID.String(),
		SKU:       sku.String(),
		Quantity:  quantity.Int(),
	})

	if slot.IsOrderComplete() {
		// PlaceItem already moved the slot to COMPLETE, so this cannot fail
		// and runs only on the put that completed the order.
		if err := slot.MarkReadyForPack(); err != nil {
			return err
		}
		w.addEvent(&OrderConsolidatedInSlotEvent{
			eventMeta: newEventMeta(),
			WallID:    w.id.String(),
			SlotID:    slotID.String(),
			OrderID:   slot.orderID.String(),
		})
	}
	return nil
}

// ConfirmPut is PlaceItemInSlot keyed by a caller supplied put id. Replaying a
// put id the slot already applied for its order returns ErrDuplicatePut and
// changes nothing. An empty put id places without deduplication.
func (w *Wall) ConfirmPut(putID string, slotID SlotID, sku SKU, quantity Quantity) error {
	if putID == "" {
		return w.PlaceItemInSlot(slotID, sku, quantity)
	}
	slot, err := w.slot(slotID)
	if err != nil {
		return err
	}
	if slot.HasAppliedPut(putID) {
		return fmt.Errorf("%w: put %s in slot %s", ErrDuplicatePut, putID, slotID)
	}
	if err := w.PlaceItemInSlot(slotID, sku, quantity); err != nil {
		return err
	}
	slot.puts = append(slot.puts, putID)
	return nil
}

// ReleaseSlot returns a packed-out slot to the free pool and reports the order it held
func (w *Wall) ReleaseSlot(slotID SlotID) (OrderID, error) {
	slot, err := w.slot(slotID)
	if err != nil {
		return "", err
	}
	if !slot.IsReadyForPack() {
		return "", invalidState("slot %s must be ready for pack before release (status %s)", slotID, slot.status)
	}

	released := slot.orderID
	slot.Release()

	w.touch()
	w.addEvent(&SlotReleasedEvent{
		eventMeta:       newEventMeta(),
		WallID:          w.id.String(),
		SlotID:          slotID.String(),
		ReleasedOrderID: released.String(),
	})
	return released, nil
}

// FindSlotForOrder returns the slot currently holding orderID
func (w *Wall) FindSlotForOrder(orderID OrderID) (SlotID, bool) {
	for i := range w.slots {
		if w.slots[i].orderID == orderID && !w.slots[i].IsFree() {
			return w.slots[i].id, true
		}
	}
	return "", false
}

// ReadyForPackSlots lists slots waiting for pack-out, in wall order
func (w *Wall) ReadyForPackSlots() []SlotID {
	return w.slotsWhere(Slot.IsReadyForPack)
}

// FreeSlots lists unassigned slots, in wall order
func (w *Wall) FreeSlots() []SlotID {
	return w.slotsWhere(Slot.IsFree)
}

// AvailableCapacity is the number of free slots
func (w *Wall) AvailableCapacity() int {
	n := 0
	for i := range w.slots {
		if w.slots[i].IsFree() {
			n++
		}
	}
	return n
}

// Capacity is the fixed number of slots
func (w *Wall) Capacity() int {
	return len(w.slots)
}

// IsFull reports whether no slot is free
func (w *Wall) IsFull() bool {
	return w.AvailableCapacity() == 0
}

// Slot returns a copy of the slot with the given id
func (w *Wall) Slot(id SlotID) (Slot, bool) {
	i, ok := w.index[id]
	if !ok {
		return Slot{}, false
	}
	return w.slots[i].clone(), true
}

// Slots returns copies of all slots in wall order
func (w *Wall) Slots() []Slot {
	out := make([]Slot, len(w.slots))
	for i := range w.slots {
		out[i] = w.slots[i].clone()
	}
	return out
}

func (w *Wall) ID() WallID           { return w.id }
func (w *Wall) Location() string     { return w.location }
func (w *Wall) Version() int64       { return w.version }
func (w *Wall) CreatedAt() time.Time { return w.createdAt }
func (w *Wall) UpdatedAt() time.Time { return w.updatedAt }

// IsNew reports whether the wall has never been saved
func (w *Wall) IsNew() bool { return w.version == 0 }

// MarkSaved advances the version after the repository committed this state
func (w *Wall) MarkSaved() { w.version++ }

// DomainEvents returns the events queued since the last drain
func (w *Wall) DomainEvents() []DomainEvent {
	return w.events
}

// ClearDomainEvents drops the queue. Call it only after the events were persisted or published.
func (w *Wall) ClearDomainEvents() {
	w.events = nil
}

func (w *Wall) addEvent(e DomainEvent) {
	w.events = append(w.events, e)
}

func (w *Wall) touch() {
	w.updatedAt = time.Now().UTC()
}

func (w *Wall) slot(id SlotID) (*Slot, error) {
	i, ok := w.index[id]
	if !ok {
		return nil, slotNotFound(id)
	}
	return &w.slots[i], nil
}

func (w *Wall) firstFreeSlot() int {
	for i := range w.slots {
		if w.slots[i].IsFree() {
			return i
		}
	}
	return -1
}

func (w *Wall) slotsWhere(pred func(Slot) bool) []SlotID {
	var out []SlotID
	for i := range w.slots {
		if pred(w.slots[i]) {
			out = append(out, w.slots[i].id)
		}
	}
	return out
}

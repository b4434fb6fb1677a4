package domain

import "time"

// WallSnapshot is the full persisted state of a Wall
type WallSnapshot struct {
	ID        string
	Location  string
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
	Slots     []SlotSnapshot
}

// SlotSnapshot is the persisted state of one slot
type SlotSnapshot struct {
	ID       string
	Status   SlotStatus
	OrderID  string
	Required map[string]int
	Placed   map[string]int
	PutIDs   []string
}

// Snapshot captures the wall state for persistence. Pending events are not included.
func (w *Wall) Snapshot() WallSnapshot {
	snap := WallSnapshot{
		ID:        w.id.String(),
		Location:  w.location,
		Version:   w.version,
		CreatedAt: w.createdAt,
		UpdatedAt: w.updatedAt,
		Slots:     make([]SlotSnapshot, len(w.slots)),
	}
	for i, s := range w.slots {
		placed := make(map[string]int, len(s.placed))
		for sku, q := range s.placed {
			placed[sku.String()] = q.Int()
		}
		snap.Slots[i] = SlotSnapshot{
			ID:       s.id.String(),
			Status:   s.status,
			OrderID:  s.orderID.String(),
			Required: s.required.ToMap(),
			Placed:   placed,
			PutIDs:   s.AppliedPutIDs(),
		}
	}
	return snap
}

// RehydrateWall rebuilds a Wall from a snapshot, rejecting states the
// aggregate could never have reached on its own.
func RehydrateWall(snap WallSnapshot) (*Wall, error) {
	ids := make([]SlotID, len(snap.Slots))
	for i, s := range snap.Slots {
		ids[i] = SlotID(s.ID)
	}
	w, err := NewWall(WallID(snap.ID), snap.Location, ids)
	if err != nil {
		return nil, err
	}

	for i, s := range snap.Slots {
		slot, err := restoreSlot(s)
		if err != nil {
			return nil, err
		}
		w.slots[i] = slot
	}

	w.version = snap.Version
	w.createdAt = snap.CreatedAt
	w.updatedAt = snap.UpdatedAt
	return w, nil
}

func restoreSlot(s SlotSnapshot) (Slot, error) {
	slot := NewSlot(SlotID(s.ID))
	if !s.Status.IsValid() {
		return Slot{}, invalidState("slot %s has unknown status %q", s.ID, s.Status)
	}
	if s.Status == SlotStatusFree {
		return slot, nil
	}

	orderID, err := NewOrderID(s.OrderID)
	if err != nil {
		return Slot{}, invalidState("slot %s is %s without an order", s.ID, s.Status)
	}
	required, err := NewRequiredItems(s.Required)
	if err != nil {
		return Slot{}, invalidState("slot %s has invalid required items: %v", s.ID, err)
	}

	placed := make(map[SKU]Quantity, len(s.Placed))
	for code, n := range s.Placed {
		if n == 0 {
			continue
		}
		sku := SKU(code)
		req, ok := required[sku]
		if !ok || n < 0 || Quantity(n) > req {
			return Slot{}, invalidState("slot %s has invalid placed quantity %d for sku %s", s.ID, n, code)
		}
		placed[sku] = Quantity(n)
	}

	slot.status = s.Status
	slot.orderID = orderID
	slot.required = required
	slot.placed = placed
	slot.puts = append([]string(nil), s.PutIDs...)

	complete := slot.IsOrderComplete()
	switch {
	case s.Status == SlotStatusInProgress && complete:
		return Slot{}, invalidState("slot %s is in progress but fully placed", s.ID)
	case (s.Status == SlotStatusComplete || s.Status == SlotStatusReadyForPack) && !complete:
		return Slot{}, invalidState("slot %s is %s but not fully placed", s.ID, s.Status)
	}
	return slot, nil
}

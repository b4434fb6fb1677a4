package domain

// AssignOrderToSlotCommand asks a wall to reserve a slot for an order
type AssignOrderToSlotCommand struct {
	WallID        WallID
	OrderID       OrderID
	RequiredItems RequiredItems
}

// NewAssignOrderToSlotCommand validates raw input into a command
func NewAssignOrderToSlotCommand(wallID, orderID string, items map[string]int) (AssignOrderToSlotCommand, error) {
	wid, err := NewWallID(wallID)
	if err != nil {
		return AssignOrderToSlotCommand{}, err
	}
	oid, err := NewOrderID(orderID)
	if err != nil {
		return AssignOrderToSlotCommand{}, err
	}
	required, err := NewRequiredItems(items)
	if err != nil {
		return AssignOrderToSlotCommand{}, err
	}
	return AssignOrderToSlotCommand{WallID: wid, OrderID: oid, RequiredItems: required}, nil
}

// ConfirmPutInSlotCommand records that an operator put items into a slot.
// PutID is optional; when set, replays of the same put are applied once.
type ConfirmPutInSlotCommand struct {
	WallID   WallID
	SlotID   SlotID
	SKU      SKU
	Quantity Quantity
	PutID    string
}

// NewConfirmPutInSlotCommand validates raw input into a command
func NewConfirmPutInSlotCommand(wallID, slotID, sku string, quantity int) (ConfirmPutInSlotCommand, error) {
	wid, err := NewWallID(wallID)
	if err != nil {
		return ConfirmPutInSlotCommand{}, err
	}
	sid, err := NewSlotID(slotID)
	if err != nil {
		return ConfirmPutInSlotCommand{}, err
	}
	code, err := NewSKU(sku)
	if err != nil {
		return ConfirmPutInSlotCommand{}, err
	}
	qty, err := NewQuantity(quantity)
	if err != nil {
		return ConfirmPutInSlotCommand{}, err
	}
	return ConfirmPutInSlotCommand{WallID: wid, SlotID: sid, SKU: code, Quantity: qty}, nil
}

// ScanItemForSortationCommand asks where a scanned item should go
type ScanItemForSortationCommand struct {
	WallID   WallID
	SKU      SKU
	Quantity Quantity
}

// NewScanItemForSortationCommand validates raw input into a command
func NewScanItemForSortationCommand(wallID, sku string, quantity int) (ScanItemForSortationCommand, error) {
	wid, err := NewWallID(wallID)
	if err != nil {
		return ScanItemForSortationCommand{}, err
	}
	code, err := NewSKU(sku)
	if err != nil {
		return ScanItemForSortationCommand{}, err
	}
	qty, err := NewQuantity(quantity)
	if err != nil {
		return ScanItemForSortationCommand{}, err
	}
	return ScanItemForSortationCommand{WallID: wid, SKU: code, Quantity: qty}, nil
}

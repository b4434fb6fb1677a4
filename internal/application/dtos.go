package application

import "time"

// PutWallDTO represents a put wall in responses
type PutWallDTO struct {
	PutWallID         string    `json:"putWallId"`
	Location          string    `json:"location"`
	Capacity          int       `json:"capacity"`
	AvailableCapacity int       `json:"availableCapacity"`
	IsFull            bool      `json:"isFull"`
	Slots             []SlotDTO `json:"slots"`
	ReadyForPackSlots []string  `json:"readyForPackSlots"`
	Version           int64     `json:"version"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// SlotDTO represents one slot of a put wall
type SlotDTO struct {
	SlotID        string         `json:"slotId"`
	Status        string         `json:"status"`
	OrderID       string         `json:"orderId,omitempty"`
	RequiredItems map[string]int `json:"requiredItems,omitempty"`
	PlacedItems   map[string]int `json:"placedItems,omitempty"`
	OrderComplete bool           `json:"orderComplete"`
}

// AssignmentResultDTO reports the slot an order was given
type AssignmentResultDTO struct {
	PutWallID string `json:"putWallId"`
	SlotID    string `json:"slotId"`
	OrderID   string `json:"orderId"`
}

// SortationResultDTO tells the operator where a scanned item goes
type SortationResultDTO struct {
	Found          bool   `json:"found"`
	SlotID         string `json:"slotId,omitempty"`
	OrderID        string `json:"orderId,omitempty"`
	QuantityNeeded int    `json:"quantityNeeded,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

// ReleaseResultDTO reports which order left the wall
type ReleaseResultDTO struct {
	PutWallID       string `json:"putWallId"`
	SlotID          string `json:"slotId"`
	ReleasedOrderID string `json:"releasedOrderId"`
}

// SlotLookupDTO reports the slot holding an order
type SlotLookupDTO struct {
	PutWallID string `json:"putWallId"`
	OrderID   string `json:"orderId"`
	SlotID    string `json:"slotId"`
}

package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event type strings published on the put wall topic
const (
	EventTypeOrderAssignedToSlot     = "wms.putwall.order-assigned"
	EventTypeItemPlacedInSlot        = "wms.putwall.item-placed"
	EventTypeOrderConsolidatedInSlot = "wms.putwall.order-consolidated"
	EventTypeSlotReleased            = "wms.putwall.slot-released"
)

// DomainEvent is a fact emitted by the Wall aggregate
type DomainEvent interface {
	EventID() string
	EventType() string
	AggregateID() string
	OccurredAt() time.Time
}

type eventMeta struct {
	ID        string    `json:"eventId"`
	Timestamp time.Time `json:"occurredAt"`
}

func newEventMeta() eventMeta {
	return eventMeta{ID: uuid.New().String(), Timestamp: time.Now().UTC()}
}

// EventID returns the unique event identity
func (m eventMeta) EventID() string { return m.ID }

// OccurredAt returns when the event happened
func (m eventMeta) OccurredAt() time.Time { return m.Timestamp }

// OrderAssignedToSlotEvent is emitted when an order takes a free slot
type OrderAssignedToSlotEvent struct {
	eventMeta
	WallID        string         `json:"putWallId"`
	SlotID        string         `json:"slotId"`
	OrderID       string         `json:"orderId"`
	RequiredItems map[string]int `json:"requiredItems"`
}

func (e *OrderAssignedToSlotEvent) EventType() string   { return EventTypeOrderAssignedToSlot }
func (e *OrderAssignedToSlotEvent) AggregateID() string { return e.WallID }

// ItemPlacedInSlotEvent is emitted for every accepted put
type ItemPlacedInSlotEvent struct {
	eventMeta
	WallID   string `json:"putWallId"`
	SlotID   string `json:"slotId"`
	OrderID  string `json:"orderId"`
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

func (e *ItemPlacedInSlotEvent) EventType() string   { return EventTypeItemPlacedInSlot }
func (e *ItemPlacedInSlotEvent) AggregateID() string { return e.WallID }

// OrderConsolidatedInSlotEvent is emitted once, when the slot's order becomes complete
type OrderConsolidatedInSlotEvent struct {
	eventMeta
	WallID  string `json:"putWallId"`
	SlotID  string `json:"slotId"`
	OrderID string `json:"orderId"`
}

func (e *OrderConsolidatedInSlotEvent) EventType() string   { return EventTypeOrderConsolidatedInSlot }
func (e *OrderConsolidatedInSlotEvent) AggregateID() string { return e.WallID }

// SlotReleasedEvent is emitted when a packed-out slot returns to the free pool
type SlotReleasedEvent struct {
	eventMeta
	WallID          string `json:"putWallId"`
	SlotID          string `json:"slotId"`
	ReleasedOrderID string `json:"releasedOrderId"`
}

func (e *SlotReleasedEvent) EventType() string   { return EventTypeSlotReleased }
func (e *SlotReleasedEvent) AggregateID() string { return e.WallID }

// DecodeEvent rebuilds a typed event from its JSON payload
func DecodeEvent(eventType string, payload []byte) (DomainEvent, error) {
	var event DomainEvent
	switch eventType {
	case EventTypeOrderAssignedToSlot:
		event = &OrderAssignedToSlotEvent{}
	case EventTypeItemPlacedInSlot:
		event = &ItemPlacedInSlotEvent{}
	case EventTypeOrderConsolidatedInSlot:
		event = &OrderConsolidatedInSlotEvent{}
	case EventTypeSlotReleased:
		event = &SlotReleasedEvent{}
	default:
		return nil, fmt.Errorf("%w: unknown event type %q", ErrInvalidArgument, eventType)
	}

	if err := json.Unmarshal(payload, event); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrInvalidArgument, eventType, err)
	}
	if event.AggregateID() == "" {
		return nil, fmt.Errorf("%w: %s has no putWallId", ErrInvalidArgument, eventType)
	}
	return event, nil
}

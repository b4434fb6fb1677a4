package application

import (
	"context"

	"github.com/wms-platform/putwall-service/internal/domain"
	"github.com/wms-platform/putwall-service/internal/performance"
	"github.com/wms-platform/putwall-service/pkg/logging"
	"github.com/wms-platform/putwall-service/pkg/metrics"
)

// PutWallEventHandler feeds saved domain events into the KPI tracker,
// the business counters and the event log
type PutWallEventHandler struct {
	tracker *performance.Tracker
	metrics *metrics.Metrics
	logger  *logging.Logger
}

// NewPutWallEventHandler creates a new PutWallEventHandler. m may be nil.
func NewPutWallEventHandler(tracker *performance.Tracker, m *metrics.Metrics, logger *logging.Logger) *PutWallEventHandler {
	return &PutWallEventHandler{
		tracker: tracker,
		metrics: m,
		logger:  logger.WithComponent("putwall-events"),
	}
}

// Handle processes events in the order the wall raised them
func (h *PutWallEventHandler) Handle(ctx context.Context, events []domain.DomainEvent) {
	for _, event := range events {
		h.handle(ctx, event)
	}
}

func (h *PutWallEventHandler) handle(ctx context.Context, event domain.DomainEvent) {
	switch e := event.(type) {
	case *domain.OrderAssignedToSlotEvent:
		h.tracker.RecordOrderAssignment(e.WallID, e.OrderID)
		if h.metrics != nil {
			h.metrics.RecordOrderAssigned(e.WallID)
		}
		h.logger.Event(ctx, e.EventType(), map[string]any{
			"putWallId": e.WallID, "slotId": e.SlotID, "orderId": e.OrderID,
		})

	case *domain.ItemPlacedInSlotEvent:
		h.tracker.RecordItemPlacement(e.WallID)
		if h.metrics != nil {
			h.metrics.RecordItemsPlaced(e.WallID, e.Quantity)
		}
		h.logger.Event(ctx, e.EventType(), map[string]any{
			"putWallId": e.WallID, "slotId": e.SlotID, "orderId": e.OrderID,
			"sku": e.SKU, "quantity": e.Quantity,
		})

	case *domain.OrderConsolidatedInSlotEvent:
		h.tracker.RecordOrderCompletion(e.WallID, e.OrderID)
		h.tracker.RefreshThroughput(e.WallID)
		if h.metrics != nil {
			h.metrics.RecordOrderConsolidated(e.WallID)
		}
		h.logger.Event(ctx, e.EventType(), map[string]any{
			"putWallId": e.WallID, "slotId": e.SlotID, "orderId": e.OrderID,
		})

	case *domain.SlotReleasedEvent:
		if h.metrics != nil {
			h.metrics.RecordSlotReleased(e.WallID)
		}
		h.logger.Event(ctx, e.EventType(), map[string]any{
			"putWallId": e.WallID, "slotId": e.SlotID, "releasedOrderId": e.ReleasedOrderID,
		})

	default:
		h.logger.WithContext(ctx).Warn("Unhandled put wall event", "eventType", event.EventType())
	}
}

// ObserveWall refreshes occupancy from the saved wall
func (h *PutWallEventHandler) ObserveWall(_ context.Context, wall *domain.Wall) {
	wallID := wall.ID().String()
	occupied := wall.Capacity() - wall.AvailableCapacity()

	h.tracker.UpdateUtilization(wallID, occupied, wall.Capacity())
	if h.metrics != nil {
		h.metrics.SetSlotOccupancy(wallID, occupied, wall.Capacity())
	}
}

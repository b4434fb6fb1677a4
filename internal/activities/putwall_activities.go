package activities

import (
	"context"
	stderrors "errors"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/wms-platform/putwall-service/internal/application"
	"github.com/wms-platform/putwall-service/internal/domain"
	"github.com/wms-platform/putwall-service/pkg/metrics"
)

// Activity names registered on the worker
const (
	AssignOrderToSlotActivity = "AssignOrderToSlot"
	ConfirmPutInSlotActivity  = "ConfirmPutInSlot"
	ReleaseSlotActivity       = "ReleaseSlot"
)

// AssignOrderInput is the input of AssignOrderToSlot
type AssignOrderInput struct {
	WallID        string         `json:"putWallId"`
	OrderID       string         `json:"orderId"`
	RequiredItems map[string]int `json:"requiredItems"`
}

// AssignOrderResult is the slot the order was given
type AssignOrderResult struct {
	SlotID string `json:"slotId"`
}

// ConfirmPutInput is the input of ConfirmPutInSlot. PutID identifies the put
// across activity retries so it is applied once.
type ConfirmPutInput struct {
	WallID   string `json:"putWallId"`
	SlotID   string `json:"slotId"`
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
	PutID    string `json:"putId,omitempty"`
}

// ConfirmPutResult reports whether the put completed the order
type ConfirmPutResult struct {
	Consolidated bool `json:"consolidated"`
}

// ReleaseSlotInput is the input of ReleaseSlot. When OrderID is set and the
// order no longer holds a slot, the release is treated as already done.
type ReleaseSlotInput struct {
	WallID  string `json:"putWallId"`
	SlotID  string `json:"slotId"`
	OrderID string `json:"orderId,omitempty"`
}

// ReleaseSlotResult reports the order that left the wall
type ReleaseSlotResult struct {
	ReleasedOrderID string `json:"releasedOrderId"`
}

// PutWallActivities exposes the put wall use cases to Temporal workflows
type PutWallActivities struct {
	service *application.PutWallApplicationService
	metrics *metrics.Metrics
}

// NewPutWallActivities creates a new PutWallActivities instance. m may be nil.
func NewPutWallActivities(service *application.PutWallApplicationService, m *metrics.Metrics) *PutWallActivities {
	return &PutWallActivities{service: service, metrics: m}
}

// AssignOrderToSlot reserves a slot for the order. An order that already holds
// a slot on the wall, for example after a retried attempt, gets that slot back.
func (a *PutWallActivities) AssignOrderToSlot(ctx context.Context, input AssignOrderInput) (*AssignOrderResult, error) {
	logger := activity.GetLogger(ctx)
	start := time.Now()
	logger.Info("Assigning order to slot", "putWallId", input.WallID, "orderId", input.OrderID)

	cmd, err := domain.NewAssignOrderToSlotCommand(input.WallID, input.OrderID, input.RequiredItems)
	if err != nil {
		a.record(AssignOrderToSlotActivity, false, start)
		return nil, toActivityError(err)
	}

	existing, err := a.service.FindSlotForOrder(ctx, input.WallID, input.OrderID)
	switch {
	case err == nil:
		a.record(AssignOrderToSlotActivity, true, start)
		logger.Info("Order already holds a slot", "orderId", input.OrderID, "slotId", existing.SlotID)
		return &AssignOrderResult{SlotID: existing.SlotID}, nil
	case !stderrors.Is(err, domain.ErrSlotNotFound):
		a.record(AssignOrderToSlotActivity, false, start)
		return nil, toActivityError(err)
	}

	result, err := a.service.AssignOrderToSlot(ctx, cmd)
	a.record(AssignOrderToSlotActivity, err == nil, start)
	if err != nil {
		logger.Error("Failed to assign order to slot", "orderId", input.OrderID, "error", err)
		return nil, toActivityError(err)
	}

	logger.Info("Order assigned to slot", "orderId", input.OrderID, "slotId", result.SlotID)
	return &AssignOrderResult{SlotID: result.SlotID}, nil
}

// ConfirmPutInSlot records a put and reports whether the order is now consolidated
func (a *PutWallActivities) ConfirmPutInSlot(ctx context.Context, input ConfirmPutInput) (*ConfirmPutResult, error) {
	logger := activity.GetLogger(ctx)
	start := time.Now()

	cmd, err := domain.NewConfirmPutInSlotCommand(input.WallID, input.SlotID, input.SKU, input.Quantity)
	if err != nil {
		a.record(ConfirmPutInSlotActivity, false, start)
		return nil, toActivityError(err)
	}
	cmd.PutID = input.PutID

	wall, err := a.service.ConfirmPutInSlot(ctx, cmd)
	a.record(ConfirmPutInSlotActivity, err == nil, start)
	if err != nil {
		logger.Warn("Put rejected", "slotId", input.SlotID, "sku", input.SKU, "error", err)
		return nil, toActivityError(err)
	}

	consolidated := false
	for _, slot := range wall.Slots {
		if slot.SlotID == input.SlotID {
			consolidated = slot.Status == string(domain.SlotStatusReadyForPack)
			break
		}
	}

	logger.Info("Put confirmed", "slotId", input.SlotID, "sku", input.SKU, "consolidated", consolidated)
	return &ConfirmPutResult{Consolidated: consolidated}, nil
}

// ReleaseSlot frees the slot after pack-out
func (a *PutWallActivities) ReleaseSlot(ctx context.Context, input ReleaseSlotInput) (*ReleaseSlotResult, error) {
	logger := activity.GetLogger(ctx)
	start := time.Now()

	if input.OrderID != "" {
		_, err := a.service.FindSlotForOrder(ctx, input.WallID, input.OrderID)
		if stderrors.Is(err, domain.ErrSlotNotFound) {
			a.record(ReleaseSlotActivity, true, start)
			logger.Info("Slot already released", "slotId", input.SlotID, "orderId", input.OrderID)
			return &ReleaseSlotResult{ReleasedOrderID: input.OrderID}, nil
		}
		if err != nil {
			a.record(ReleaseSlotActivity, false, start)
			return nil, toActivityError(err)
		}
	}

	result, err := a.service.ReleaseSlot(ctx, input.WallID, input.SlotID)
	a.record(ReleaseSlotActivity, err == nil, start)
	if err != nil {
		logger.Error("Failed to release slot", "slotId", input.SlotID, "error", err)
		return nil, toActivityError(err)
	}

	logger.Info("Slot released", "slotId", input.SlotID, "orderId", result.ReleasedOrderID)
	return &ReleaseSlotResult{ReleasedOrderID: result.ReleasedOrderID}, nil
}

func (a *PutWallActivities) record(name string, success bool, start time.Time) {
	if a.metrics != nil {
		a.metrics.RecordActivityCompleted(name, success, time.Since(start))
	}
}

// Error types carried by non-retryable activity failures
const (
	ErrTypeCapacityExceeded = "CapacityExceeded"
	ErrTypeInvalidArgument  = "InvalidArgument"
	ErrTypeInvalidState     = "InvalidState"
	ErrTypeNotFound         = "NotFound"
)

// toActivityError stops Temporal from retrying errors a retry cannot fix.
// Concurrency conflicts and infrastructure errors stay retryable.
func toActivityError(err error) error {
	var errType string
	switch {
	case stderrors.Is(err, domain.ErrCapacityExceeded):
		errType = ErrTypeCapacityExceeded
	case stderrors.Is(err, domain.ErrInvalidArgument):
		errType = ErrTypeInvalidArgument
	case stderrors.Is(err, domain.ErrInvalidState):
		errType = ErrTypeInvalidState
	case stderrors.Is(err, domain.ErrNotFound):
		errType = ErrTypeNotFound
	default:
		return err
	}
	return temporal.NewNonRetryableApplicationError(err.Error(), errType, err)
}

package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/workflow"

	"github.com/wms-platform/putwall-service/internal/activities"
	wmstemporal "github.com/wms-platform/putwall-service/pkg/temporal"
)

// Signals and queries understood by PutWallOrderWorkflow
const (
	SignalItemPut   = "itemPut"
	SignalPackedOut = "packedOut"
	QueryStatus     = "status"
)

// Timeouts of the waiting steps
const (
	ConsolidationTimeout = time.Hour
	PackOutTimeout       = 30 * time.Minute
)

// Workflow steps reported by the status query
const (
	StepAssigning     = "assigning"
	StepConsolidating = "consolidating"
	StepAwaitPackOut  = "awaiting_pack_out"
	StepReleasing     = "releasing"
	StepCompleted     = "completed"
	StepTimedOut      = "timed_out"
)

// Result statuses
const (
	StatusCompleted            = "completed"
	StatusConsolidationTimeout = "consolidation_timeout"
	StatusPackOutTimeout       = "pack_out_timeout"
)

// PutWallOrderInput represents the input for the put wall order workflow
type PutWallOrderInput struct {
	WallID        string         `json:"putWallId"`
	OrderID       string         `json:"orderId"`
	RequiredItems map[string]int `json:"requiredItems"`
}

// ItemPutSignal is sent when an operator puts items into the order's slot
// PutID is optional; without it each signal gets an id derived from the run.
type ItemPutSignal struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
	PutID    string `json:"putId,omitempty"`
}

// PackedOutSignal is sent when the packer has emptied the slot
type PackedOutSignal struct {
	PackerID string `json:"packerId,omitempty"`
}

// PutWallOrderStatus is returned by the status query
type PutWallOrderStatus struct {
	Step          string `json:"step"`
	SlotID        string `json:"slotId,omitempty"`
	ItemsPlaced   int    `json:"itemsPlaced"`
	RejectedPuts  int    `json:"rejectedPuts"`
	ItemsExpected int    `json:"itemsExpected"`
}

// PutWallOrderResult represents the result of the put wall order workflow
type PutWallOrderResult struct {
	WallID      string `json:"putWallId"`
	SlotID      string `json:"slotId"`
	OrderID     string `json:"orderId"`
	ItemsPlaced int    `json:"itemsPlaced"`
	Status      string `json:"status"`
}

// PutWallOrderWorkflow takes one order through a put wall: it reserves a slot,
// confirms puts as they are signalled until the order is consolidated, waits
// for pack-out and frees the slot. A timed out order keeps its slot.
func PutWallOrderWorkflow(ctx workflow.Context, input PutWallOrderInput) (*PutWallOrderResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting put wall order workflow", "putWallId", input.WallID, "orderId", input.OrderID)

	status := PutWallOrderStatus{Step: StepAssigning}
	for _, q := range input.RequiredItems {
		status.ItemsExpected += q
	}
	if err := workflow.SetQueryHandler(ctx, QueryStatus, func() (PutWallOrderStatus, error) {
		return status, nil
	}); err != nil {
		return nil, fmt.Errorf("failed to register status query: %w", err)
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy:         wmstemporal.DefaultRetryPolicy(),
	})

	result := &PutWallOrderResult{WallID: input.WallID, OrderID: input.OrderID}

	// Step 1: reserve a slot
	var assigned activities.AssignOrderResult
	err := workflow.ExecuteActivity(ctx, activities.AssignOrderToSlotActivity, activities.AssignOrderInput{
		WallID:        input.WallID,
		OrderID:       input.OrderID,
		RequiredItems: input.RequiredItems,
	}).Get(ctx, &assigned)
	if err != nil {
		return nil, fmt.Errorf("failed to assign order %s to a slot: %w", input.OrderID, err)
	}
	result.SlotID = assigned.SlotID
	status.SlotID = assigned.SlotID
	status.Step = StepConsolidating
	logger.Info("Order assigned to slot", "orderId", input.OrderID, "slotId", assigned.SlotID)

	// Step 2: confirm puts until the order is consolidated
	itemCh := workflow.GetSignalChannel(ctx, SignalItemPut)
	timerCtx, cancelTimer := workflow.WithCancel(ctx)
	deadline := workflow.NewTimer(timerCtx, ConsolidationTimeout)

	runID := workflow.GetInfo(ctx).WorkflowExecution.RunID
	puts := 0
	consolidated, timedOut := false, false
	for !consolidated && !timedOut {
		var put ItemPutSignal
		received := false

		selector := workflow.NewSelector(ctx)
		selector.AddReceive(itemCh, func(c workflow.ReceiveChannel, more bool) {
			c.Receive(ctx, &put)
			received = true
		})
		selector.AddFuture(deadline, func(f workflow.Future) {
			timedOut = true
		})
		selector.Select(ctx)

		if !received {
			continue
		}
		puts++
		putID := put.PutID
		if putID == "" {
			putID = fmt.Sprintf("%s-put-%d", runID, puts)
		}

		var placed activities.ConfirmPutResult
		err := workflow.ExecuteActivity(ctx, activities.ConfirmPutInSlotActivity, activities.ConfirmPutInput{
			WallID:   input.WallID,
			SlotID:   assigned.SlotID,
			SKU:      put.SKU,
			Quantity: put.Quantity,
			PutID:    putID,
		}).Get(ctx, &placed)
		if err != nil {
			status.RejectedPuts++
			logger.Warn("Put rejected", "slotId", assigned.SlotID, "sku", put.SKU, "error", err)
			continue
		}

		result.ItemsPlaced += put.Quantity
		status.ItemsPlaced = result.ItemsPlaced
		consolidated = placed.Consolidated
	}
	cancelTimer()

	if !consolidated {
		status.Step = StepTimedOut
		result.Status = StatusConsolidationTimeout
		logger.Warn("Consolidation timed out", "orderId", input.OrderID, "slotId", assigned.SlotID)
		return result, nil
	}
	status.Step = StepAwaitPackOut
	logger.Info("Order consolidated", "orderId", input.OrderID, "slotId", assigned.SlotID)

	// Step 3: wait for pack-out
	packedOut := false
	packCtx, cancelPack := workflow.WithCancel(ctx)
	selector := workflow.NewSelector(ctx)
	selector.AddReceive(workflow.GetSignalChannel(ctx, SignalPackedOut), func(c workflow.ReceiveChannel, more bool) {
		var signal PackedOutSignal
		c.Receive(ctx, &signal)
		packedOut = true
		logger.Info("Slot packed out", "slotId", assigned.SlotID, "packerId", signal.PackerID)
	})
	selector.AddFuture(workflow.NewTimer(packCtx, PackOutTimeout), func(f workflow.Future) {})
	selector.Select(ctx)
	cancelPack()

	if !packedOut {
		status.Step = StepTimedOut
		result.Status = StatusPackOutTimeout
		logger.Warn("Pack-out timed out", "orderId", input.OrderID, "slotId", assigned.SlotID)
		return result, nil
	}

	// Step 4: free the slot
	status.Step = StepReleasing
	err = workflow.ExecuteActivity(ctx, activities.ReleaseSlotActivity, activities.ReleaseSlotInput{
		WallID:  input.WallID,
		SlotID:  assigned.SlotID,
		OrderID: input.OrderID,
	}).Get(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("failed to release slot %s: %w", assigned.SlotID, err)
	}

	status.Step = StepCompleted
	result.Status = StatusCompleted
	logger.Info("Put wall order workflow completed",
		"orderId", input.OrderID,
		"slotId", assigned.SlotID,
		"itemsPlaced", result.ItemsPlaced,
	)
	return result, nil
}

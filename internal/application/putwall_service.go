package application

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/wms-platform/putwall-service/internal/domain"
	"github.com/wms-platform/putwall-service/pkg/errors"
	"github.com/wms-platform/putwall-service/pkg/logging"
	"github.com/wms-platform/putwall-service/pkg/metrics"
	"github.com/wms-platform/putwall-service/pkg/resilience"
	"github.com/wms-platform/putwall-service/pkg/tracing"
)

// WallObserver is told about the state of a wall after every successful save
type WallObserver interface {
	ObserveWall(ctx context.Context, wall *domain.Wall)
}

// PutWallApplicationService handles put wall use cases
type PutWallApplicationService struct {
	repo      domain.WallRepository
	sortation *domain.SortationService
	handler   domain.EventHandler
	metrics   *metrics.Metrics
	logger    *logging.Logger
	retry     *resilience.RetryConfig
	tracer    trace.Tracer
}

// NewPutWallApplicationService creates a new PutWallApplicationService.
// handler and m may be nil.
func NewPutWallApplicationService(
	repo domain.WallRepository,
	handler domain.EventHandler,
	m *metrics.Metrics,
	logger *logging.Logger,
) *PutWallApplicationService {
	retry := resilience.DefaultRetryConfig()
	retry.RetryableErrors = func(err error) bool {
		return stderrors.Is(err, domain.ErrConcurrentModification)
	}

	return &PutWallApplicationService{
		repo:      repo,
		sortation: domain.NewSortationService(),
		handler:   handler,
		metrics:   m,
		logger:    logger.WithComponent("putwall-application"),
		retry:     retry,
		tracer:    otel.Tracer("putwall-application"),
	}
}

// CreatePutWall creates a new put wall with a generated id
func (s *PutWallApplicationService) CreatePutWall(ctx context.Context, cmd CreatePutWallCommand) (*PutWallDTO, error) {
	return tracing.TracedOperation(ctx, s.tracer, "putwall.create", func(ctx context.Context) (*PutWallDTO, error) {
		slotIDs := make([]domain.SlotID, 0, len(cmd.SlotIDs))
		for _, raw := range cmd.SlotIDs {
			id, err := domain.NewSlotID(raw)
			if err != nil {
				return nil, err
			}
			slotIDs = append(slotIDs, id)
		}

		wall, err := domain.NewWall(domain.GenerateWallID(), cmd.Location, slotIDs)
		if err != nil {
			return nil, err
		}

		if err := s.repo.Save(ctx, wall); err != nil {
			s.logger.WithError(err).Error("Failed to create put wall", "putWallId", wall.ID())
			return nil, fmt.Errorf("failed to create put wall: %w", err)
		}
		s.afterSave(ctx, wall)

		s.logger.Audit(ctx, "create", "put_wall", wall.ID().String(), map[string]any{
			"location": wall.Location(),
			"capacity": wall.Capacity(),
		})
		return ToPutWallDTO(wall), nil
	})
}

// AssignOrderToSlot reserves the first free slot of the wall for the order
func (s *PutWallApplicationService) AssignOrderToSlot(ctx context.Context, cmd domain.AssignOrderToSlotCommand) (*AssignmentResultDTO, error) {
	var slotID domain.SlotID
	_, err := s.mutate(ctx, "putwall.assign", cmd.WallID, "", func(wall *domain.Wall) error {
		id, err := wall.AssignOrderToSlot(cmd.OrderID, cmd.RequiredItems)
		if err != nil {
			if stderrors.Is(err, domain.ErrCapacityExceeded) && s.metrics != nil {
				s.metrics.RecordCapacityRejection(cmd.WallID.String())
			}
			return err
		}
		slotID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).Info("Assigned order to slot",
		"putWallId", cmd.WallID, "orderId", cmd.OrderID, "slotId", slotID)
	return &AssignmentResultDTO{
		PutWallID: cmd.WallID.String(),
		SlotID:    slotID.String(),
		OrderID:   cmd.OrderID.String(),
	}, nil
}

// ScanItemForSortation tells the operator which slot a scanned item goes to.
// Nothing is saved.
func (s *PutWallApplicationService) ScanItemForSortation(ctx context.Context, cmd domain.ScanItemForSortationCommand) (*SortationResultDTO, error) {
	return tracing.TracedOperation(ctx, s.tracer, "putwall.scan", func(ctx context.Context) (*SortationResultDTO, error) {
		wall, err := s.load(ctx, cmd.WallID)
		if err != nil {
			return nil, err
		}

		result := s.sortation.DetermineSortationTarget(wall, cmd.SKU)
		if s.metrics != nil {
			s.metrics.RecordSortationScan(cmd.WallID.String(), result.Found)
		}
		s.logger.WithContext(ctx).Debug("Scanned item for sortation",
			"putWallId", cmd.WallID, "sku", cmd.SKU, "found", result.Found, "slotId", result.SlotID)
		return ToSortationResultDTO(result), nil
	}, tracing.PutWallAttributes(cmd.WallID.String(), "")...)
}

// ConfirmPutInSlot records a put after validating it against the slot
func (s *PutWallApplicationService) ConfirmPutInSlot(ctx context.Context, cmd domain.ConfirmPutInSlotCommand) (*PutWallDTO, error) {
	wall, err := s.mutate(ctx, "putwall.place", cmd.WallID, cmd.SlotID, func(wall *domain.Wall) error {
		if cmd.PutID != "" {
			if slot, ok := wall.Slot(cmd.SlotID); ok && slot.HasAppliedPut(cmd.PutID) {
				return fmt.Errorf("%w: put %s in slot %s", domain.ErrDuplicatePut, cmd.PutID, cmd.SlotID)
			}
		}
		if err := s.sortation.ValidateItemPlacement(wall, cmd.SlotID, cmd.SKU, cmd.Quantity.Int()); err != nil {
			return err
		}
		return wall.ConfirmPut(cmd.PutID, cmd.SlotID, cmd.SKU, cmd.Quantity)
	})
	if stderrors.Is(err, domain.ErrDuplicatePut) {
		s.logger.WithContext(ctx).Info("Put already applied",
			"putWallId", cmd.WallID, "slotId", cmd.SlotID, "putId", cmd.PutID)
		return s.GetPutWall(ctx, cmd.WallID.String())
	}
	if err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).Info("Confirmed put in slot",
		"putWallId", cmd.WallID, "slotId", cmd.SlotID, "sku", cmd.SKU, "quantity", cmd.Quantity.Int())
	return ToPutWallDTO(wall), nil
}

// ReleaseSlot frees a slot whose order was packed out
func (s *PutWallApplicationService) ReleaseSlot(ctx context.Context, wallID, slotID string) (*ReleaseResultDTO, error) {
	wid, err := domain.NewWallID(wallID)
	if err != nil {
		return nil, err
	}
	sid, err := domain.NewSlotID(slotID)
	if err != nil {
		return nil, err
	}

	var released domain.OrderID
	_, err = s.mutate(ctx, "putwall.release", wid, sid, func(wall *domain.Wall) error {
		orderID, err := wall.ReleaseSlot(sid)
		if err != nil {
			return err
		}
		released = orderID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Audit(ctx, "release_slot", "put_wall", wid.String(), map[string]any{
		"slotId":          sid.String(),
		"releasedOrderId": released.String(),
	})
	return &ReleaseResultDTO{
		PutWallID:       wid.String(),
		SlotID:          sid.String(),
		ReleasedOrderID: released.String(),
	}, nil
}

// GetPutWall retrieves a put wall by ID
func (s *PutWallApplicationService) GetPutWall(ctx context.Context, wallID string) (*PutWallDTO, error) {
	wid, err := domain.NewWallID(wallID)
	if err != nil {
		return nil, err
	}
	wall, err := s.load(ctx, wid)
	if err != nil {
		return nil, err
	}
	return ToPutWallDTO(wall), nil
}

// GetAllPutWalls lists every put wall
func (s *PutWallApplicationService) GetAllPutWalls(ctx context.Context) ([]*PutWallDTO, error) {
	walls, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list put walls")
		return nil, fmt.Errorf("failed to list put walls: %w", err)
	}
	return ToPutWallDTOs(walls), nil
}

// GetPutWallsByLocation lists the put walls at a location
func (s *PutWallApplicationService) GetPutWallsByLocation(ctx context.Context, location string) ([]*PutWallDTO, error) {
	walls, err := s.repo.FindByLocation(ctx, location)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list put walls", "location", location)
		return nil, fmt.Errorf("failed to list put walls by location: %w", err)
	}
	return ToPutWallDTOs(walls), nil
}

// GetAvailablePutWalls lists walls with at least minCapacity free slots
func (s *PutWallApplicationService) GetAvailablePutWalls(ctx context.Context, minCapacity int) ([]*PutWallDTO, error) {
	if minCapacity < 0 {
		return nil, errors.ErrValidation("minCapacity cannot be negative")
	}
	walls, err := s.repo.FindWithAvailableCapacity(ctx, minCapacity)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list available put walls", "minCapacity", minCapacity)
		return nil, fmt.Errorf("failed to list available put walls: %w", err)
	}
	return ToPutWallDTOs(walls), nil
}

// GetReadyForPackSlots returns the slots of a wall whose orders wait for pack-out
func (s *PutWallApplicationService) GetReadyForPackSlots(ctx context.Context, wallID string) ([]SlotDTO, error) {
	wid, err := domain.NewWallID(wallID)
	if err != nil {
		return nil, err
	}
	wall, err := s.load(ctx, wid)
	if err != nil {
		return nil, err
	}

	ready := wall.ReadyForPackSlots()
	out := make([]SlotDTO, 0, len(ready))
	for _, id := range ready {
		slot, _ := wall.Slot(id)
		out = append(out, ToSlotDTO(slot))
	}
	return out, nil
}

// FindSlotForOrder returns the slot holding an order
func (s *PutWallApplicationService) FindSlotForOrder(ctx context.Context, wallID, orderID string) (*SlotLookupDTO, error) {
	wid, err := domain.NewWallID(wallID)
	if err != nil {
		return nil, err
	}
	oid, err := domain.NewOrderID(orderID)
	if err != nil {
		return nil, err
	}
	wall, err := s.load(ctx, wid)
	if err != nil {
		return nil, err
	}

	slotID, ok := wall.FindSlotForOrder(oid)
	if !ok {
		return nil, errors.ErrNotFoundWithID("slot for order", oid.String()).Wrap(domain.ErrSlotNotFound)
	}
	return &SlotLookupDTO{PutWallID: wid.String(), OrderID: oid.String(), SlotID: slotID.String()}, nil
}

func (s *PutWallApplicationService) load(ctx context.Context, id domain.WallID) (*domain.Wall, error) {
	wall, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load put wall", "putWallId", id)
		return nil, fmt.Errorf("failed to load put wall: %w", err)
	}
	if wall == nil {
		return nil, errors.ErrNotFoundWithID("put wall", id.String()).Wrap(domain.ErrWallNotFound)
	}
	return wall, nil
}

// mutate runs load, fn and save, restarting from a fresh load when another
// writer saved the wall in between. fn may run more than once.
func (s *PutWallApplicationService) mutate(
	ctx context.Context,
	operation string,
	wallID domain.WallID,
	slotID domain.SlotID,
	fn func(wall *domain.Wall) error,
) (*domain.Wall, error) {
	return tracing.TracedOperation(ctx, s.tracer, operation, func(ctx context.Context) (*domain.Wall, error) {
		start := time.Now()
		attempts := 0
		wall, err := resilience.RetryWithResult(ctx, s.retry, func() (*domain.Wall, error) {
			attempts++
			wall, err := s.load(ctx, wallID)
			if err != nil {
				return nil, err
			}
			if err := fn(wall); err != nil {
				return nil, err
			}
			if err := s.repo.Save(ctx, wall); err != nil {
				if stderrors.Is(err, domain.ErrConcurrentModification) {
					if s.metrics != nil {
						s.metrics.RecordConcurrencyConflict(operation)
					}
					s.logger.WithContext(ctx).Warn("Concurrent put wall update, reloading",
						"putWallId", wallID, "operation", operation)
					return nil, err
				}
				s.logger.WithError(err).Error("Failed to save put wall", "putWallId", wallID)
				return nil, fmt.Errorf("failed to save put wall: %w", err)
			}
			return wall, nil
		})
		s.logger.Performance(ctx, operation, time.Since(start), err == nil, map[string]any{
			"putWallId": wallID.String(),
			"attempts":  attempts,
		})
		if err != nil {
			return nil, err
		}

		s.afterSave(ctx, wall)
		return wall, nil
	}, tracing.PutWallAttributes(wallID.String(), slotID.String())...)
}

func (s *PutWallApplicationService) afterSave(ctx context.Context, wall *domain.Wall) {
	events := wall.DomainEvents()
	wall.ClearDomainEvents()

	if s.handler == nil {
		return
	}
	if len(events) > 0 {
		s.handler.Handle(ctx, events)
	}
	if observer, ok := s.handler.(WallObserver); ok {
		observer.ObserveWall(ctx, wall)
	}
}

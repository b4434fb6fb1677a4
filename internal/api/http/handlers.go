package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/putwall-service/internal/application"
	"github.com/wms-platform/putwall-service/internal/domain"
	"github.com/wms-platform/putwall-service/internal/performance"
	"github.com/wms-platform/putwall-service/pkg/errors"
	"github.com/wms-platform/putwall-service/pkg/idempotency"
	"github.com/wms-platform/putwall-service/pkg/middleware"
)

// Handlers holds the HTTP handlers for the put wall service.
// Errors are attached with c.Error and rendered by the error middleware.
type Handlers struct {
	service *application.PutWallApplicationService
	tracker *performance.Tracker
}

// NewHandlers creates a new Handlers instance
func NewHandlers(service *application.PutWallApplicationService, tracker *performance.Tracker) *Handlers {
	return &Handlers{service: service, tracker: tracker}
}

// CreatePutWall handles POST /api/v1/putwalls
func (h *Handlers) CreatePutWall(c *gin.Context) {
	var req CreatePutWallRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		_ = c.Error(appErr)
		return
	}

	wall, err := h.service.CreatePutWall(c.Request.Context(), application.CreatePutWallCommand{
		SlotIDs:  req.SlotIDs,
		Location: req.Location,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, wall)
}

// ListPutWalls handles GET /api/v1/putwalls, optionally filtered by ?location=
func (h *Handlers) ListPutWalls(c *gin.Context) {
	var (
		walls []*application.PutWallDTO
		err   error
	)
	if location := c.Query("location"); location != "" {
		walls, err = h.service.GetPutWallsByLocation(c.Request.Context(), location)
	} else {
		walls, err = h.service.GetAllPutWalls(c.Request.Context())
	}
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, walls)
}

// GetAvailablePutWalls handles GET /api/v1/putwalls/available
func (h *Handlers) GetAvailablePutWalls(c *gin.Context) {
	minCapacity, err := strconv.Atoi(c.DefaultQuery("minCapacity", "1"))
	if err != nil {
		_ = c.Error(errors.ErrBadRequest("minCapacity must be an integer"))
		return
	}

	walls, err := h.service.GetAvailablePutWalls(c.Request.Context(), minCapacity)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, walls)
}

// GetPutWall handles GET /api/v1/putwalls/:wallId
func (h *Handlers) GetPutWall(c *gin.Context) {
	wall, err := h.service.GetPutWall(c.Request.Context(), c.Param("wallId"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, wall)
}

// AssignOrder handles POST /api/v1/putwalls/:wallId/assignments
func (h *Handlers) AssignOrder(c *gin.Context) {
	var req AssignOrderRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		_ = c.Error(appErr)
		return
	}

	cmd, err := domain.NewAssignOrderToSlotCommand(c.Param("wallId"), req.OrderID, req.RequiredItems)
	if err != nil {
		_ = c.Error(err)
		return
	}

	result, err := h.service.AssignOrderToSlot(c.Request.Context(), cmd)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// ScanItem handles POST /api/v1/putwalls/:wallId/scan.
// An item no slot needs is answered with 404 and the reason.
func (h *Handlers) ScanItem(c *gin.Context) {
	var req ScanItemRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		_ = c.Error(appErr)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	cmd, err := domain.NewScanItemForSortationCommand(c.Param("wallId"), req.SKU, req.Quantity)
	if err != nil {
		_ = c.Error(err)
		return
	}

	result, err := h.service.ScanItemForSortation(c.Request.Context(), cmd)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if !result.Found {
		c.JSON(http.StatusNotFound, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ConfirmPut handles POST /api/v1/putwalls/:wallId/slots/:slotId/items
func (h *Handlers) ConfirmPut(c *gin.Context) {
	var req ConfirmPutRequest
	if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
		_ = c.Error(appErr)
		return
	}

	cmd, err := domain.NewConfirmPutInSlotCommand(c.Param("wallId"), c.Param("slotId"), req.SKU, req.Quantity)
	if err != nil {
		_ = c.Error(err)
		return
	}
	cmd.PutID = req.PutID
	if cmd.PutID == "" {
		cmd.PutID = idempotency.NormalizeKey(c.GetHeader(idempotency.HeaderIdempotencyKey))
	}

	wall, err := h.service.ConfirmPutInSlot(c.Request.Context(), cmd)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, wall)
}

// ReleaseSlot handles DELETE /api/v1/putwalls/:wallId/slots/:slotId
func (h *Handlers) ReleaseSlot(c *gin.Context) {
	result, err := h.service.ReleaseSlot(c.Request.Context(), c.Param("wallId"), c.Param("slotId"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetReadySlots handles GET /api/v1/putwalls/:wallId/ready-slots
func (h *Handlers) GetReadySlots(c *gin.Context) {
	slots, err := h.service.GetReadyForPackSlots(c.Request.Context(), c.Param("wallId"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, slots)
}

// FindSlotForOrder handles GET /api/v1/putwalls/:wallId/orders/:orderId/slot
func (h *Handlers) FindSlotForOrder(c *gin.Context) {
	lookup, err := h.service.FindSlotForOrder(c.Request.Context(), c.Param("wallId"), c.Param("orderId"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, lookup)
}

// ListWallMetrics handles GET /api/v1/putwalls/metrics
func (h *Handlers) ListWallMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.tracker.AllMetrics())
}

// GetWallMetrics handles GET /api/v1/putwalls/metrics/:wallId
func (h *Handlers) GetWallMetrics(c *gin.Context) {
	wallID := c.Param("wallId")
	m, ok := h.tracker.Metrics(wallID)
	if !ok {
		_ = c.Error(errors.ErrNotFoundWithID("put wall metrics", wallID))
		return
	}

	c.JSON(http.StatusOK, m)
}

// GetPerformanceReport handles GET /api/v1/putwalls/metrics/:wallId/performance-report
func (h *Handlers) GetPerformanceReport(c *gin.Context) {
	c.JSON(http.StatusOK, h.tracker.PerformanceReport(c.Param("wallId")))
}

// ClearWallMetrics handles DELETE /api/v1/putwalls/metrics/:wallId
func (h *Handlers) ClearWallMetrics(c *gin.Context) {
	h.tracker.Clear(c.Param("wallId"))
	c.Status(http.StatusNoContent)
}

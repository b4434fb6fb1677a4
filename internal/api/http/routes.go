package http

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all HTTP routes for the put wall service
func SetupRoutes(router *gin.Engine, handlers *Handlers) {
	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		walls := v1.Group("/putwalls")
		{
			walls.POST("", handlers.CreatePutWall)
			walls.GET("", handlers.ListPutWalls)
			walls.GET("/available", handlers.GetAvailablePutWalls)

			walls.GET("/metrics", handlers.ListWallMetrics)
			walls.GET("/metrics/:wallId", handlers.GetWallMetrics)
			walls.GET("/metrics/:wallId/performance-report", handlers.GetPerformanceReport)
			walls.DELETE("/metrics/:wallId", handlers.ClearWallMetrics)

			walls.GET("/:wallId", handlers.GetPutWall)
			walls.POST("/:wallId/assignments", handlers.AssignOrder)
			walls.POST("/:wallId/scan", handlers.ScanItem)
			walls.POST("/:wallId/slots/:slotId/items", handlers.ConfirmPut)
			walls.DELETE("/:wallId/slots/:slotId", handlers.ReleaseSlot)
			walls.GET("/:wallId/ready-slots", handlers.GetReadySlots)
			walls.GET("/:wallId/orders/:orderId/slot", handlers.FindSlotForOrder)
		}
	}
}

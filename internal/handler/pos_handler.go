package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/TalaGit/tala_pos/internal/middleware"
	"github.com/TalaGit/tala_pos/internal/service"
	"github.com/TalaGit/tala_pos/internal/utils"
)

// POSHandler exposes the offline queue to authenticated terminals: capture a
// sale, trigger a drain, inspect and export the queue.
type POSHandler struct {
	queueService *service.QueueService
	syncService  *service.SyncService
	registry     *service.ContextRegistry
}

func NewPOSHandler(queueService *service.QueueService, syncService *service.SyncService, registry *service.ContextRegistry) *POSHandler {
	return &POSHandler{
		queueService: queueService,
		syncService:  syncService,
		registry:     registry,
	}
}

// Enqueue captures a proposed sale into the device's offline queue.
func (h *POSHandler) Enqueue(c *gin.Context) {
	device := middleware.GetDevice(c)

	var req service.EnqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	rec, err := h.queueService.Enqueue(c.Request.Context(), device.ID, device.Name, &req)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrEmptyLineItems):
			utils.Error(c, 400, "EMPTY_LINE_ITEMS", "At least one line item is required")
		case errors.Is(err, utils.ErrInvalidQuantity):
			utils.Error(c, 400, "INVALID_QUANTITY", "Line item quantity must be positive")
		case errors.Is(err, utils.ErrMissingPayment):
			utils.Error(c, 400, "MISSING_PAYMENT", "Payment method is required")
		default:
			utils.Error(c, 500, "INTERNAL_ERROR", "Failed to queue transaction")
		}
		return
	}

	utils.Success(c, 201, "Transaction queued", rec)
}

// Sync runs one drain pass for the calling device. The response status field
// tells the terminal whether the pass ran, was skipped for lack of
// connectivity, or was already in progress.
func (h *POSHandler) Sync(c *gin.Context) {
	device := middleware.GetDevice(c)
	dc := h.registry.Get(device.ID, device.Name)

	result := h.syncService.DrainQueue(c.Request.Context(), dc)

	switch result.Status {
	case service.DrainAlreadyRunning:
		utils.Success(c, 200, "Sync already in progress", result)
	case service.DrainNoConnection:
		utils.Success(c, 200, "Central store unreachable, sync skipped", result)
	default:
		utils.Success(c, 200, "Sync completed", result)
	}
}

// Summary returns the device's queue counters and pending value.
func (h *POSHandler) Summary(c *gin.Context) {
	device := middleware.GetDevice(c)

	summary, err := h.queueService.Summary(device.ID)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to build queue summary")
		return
	}

	utils.Success(c, 200, "Queue summary", summary)
}

// Export returns the device's full queue for backup before wipe or
// replacement.
func (h *POSHandler) Export(c *gin.Context) {
	device := middleware.GetDevice(c)

	records, err := h.queueService.Export(device.ID)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to export queue")
		return
	}

	utils.Success(c, 200, "Queue export", gin.H{
		"deviceId": device.ID,
		"count":    len(records),
		"records":  records,
	})
}

// Cleanup deletes committed records older than the retention window for one
// device. Admin only.
func (h *POSHandler) Cleanup(c *gin.Context) {
	var req struct {
		DeviceID      string `json:"device_id" binding:"required"`
		OlderThanDays int    `json:"older_than_days"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	deleted, err := h.queueService.Cleanup(req.DeviceID, req.OlderThanDays)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Cleanup failed")
		return
	}

	utils.Success(c, 200, "Cleanup completed", gin.H{
		"deviceId": req.DeviceID,
		"deleted":  deleted,
	})
}

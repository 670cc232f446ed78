package handler

import (
	"encoding/json"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/TalaGit/tala_pos/internal/models"
	"github.com/TalaGit/tala_pos/internal/service"
	"github.com/TalaGit/tala_pos/internal/utils"
)

// ConflictHandler exposes the operator's conflict queue. Admin only.
type ConflictHandler struct {
	conflictService *service.ConflictService
}

func NewConflictHandler(conflictService *service.ConflictService) *ConflictHandler {
	return &ConflictHandler{conflictService: conflictService}
}

// List returns unresolved conflicts, optionally filtered by device.
func (h *ConflictHandler) List(c *gin.Context) {
	deviceID := c.Query("device_id")

	conflicts, err := h.conflictService.List(deviceID)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to list conflicts")
		return
	}

	utils.Success(c, 200, "Unresolved conflicts", gin.H{
		"count":     len(conflicts),
		"conflicts": conflicts,
	})
}

// Resolve applies one resolution action to a conflicted record.
func (h *ConflictHandler) Resolve(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Action models.ResolutionAction    `json:"action" binding:"required"`
		Patch  map[string]json.RawMessage `json:"patch"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	rec, err := h.conflictService.Resolve(id, req.Action, req.Patch)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrRecordNotFound):
			utils.Error(c, 404, "NOT_FOUND", "Queue record not found")
		case errors.Is(err, utils.ErrNotInConflict):
			utils.Error(c, 409, "NOT_IN_CONFLICT", "Record is not in conflict")
		case errors.Is(err, utils.ErrInvalidAction):
			utils.Error(c, 400, "INVALID_ACTION", "Unknown resolution action")
		case errors.Is(err, utils.ErrMissingPatch):
			utils.Error(c, 400, "MISSING_PATCH", "manual_merge requires a patch")
		case errors.Is(err, utils.ErrMalformedPayload):
			utils.Error(c, 400, "MALFORMED_PATCH", "Patch could not be applied to payload")
		default:
			utils.Error(c, 500, "INTERNAL_ERROR", "Failed to resolve conflict")
		}
		return
	}

	utils.Success(c, 200, "Conflict resolved", rec)
}

// ResolveBulk applies resolutions to many records; each outcome is reported
// independently.
func (h *ConflictHandler) ResolveBulk(c *gin.Context) {
	var req struct {
		Items map[string]service.BulkResolveItem `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if len(req.Items) == 0 {
		utils.Error(c, 400, "INVALID_REQUEST", "At least one item is required")
		return
	}

	result := h.conflictService.ResolveBulk(req.Items)

	utils.Success(c, 200, "Bulk resolution completed", result)
}

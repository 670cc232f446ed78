package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/TalaGit/tala_pos/internal/repository"
	"github.com/TalaGit/tala_pos/internal/service"
	"github.com/TalaGit/tala_pos/internal/utils"
)

// DeviceHandler manages POS terminal registrations. Admin only.
type DeviceHandler struct {
	authService *service.AuthService
	deviceRepo  *repository.DeviceRepository
}

func NewDeviceHandler(authService *service.AuthService, deviceRepo *repository.DeviceRepository) *DeviceHandler {
	return &DeviceHandler{authService: authService, deviceRepo: deviceRepo}
}

// Register creates a terminal and returns its API key. The key is shown only
// once; afterwards only the hash is stored.
func (h *DeviceHandler) Register(c *gin.Context) {
	var req struct {
		ID   string `json:"id"`
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	device, key, err := h.authService.RegisterDevice(req.ID, req.Name)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to register device")
		return
	}

	utils.Success(c, 201, "Device registered", gin.H{
		"device": device,
		"apiKey": key,
	})
}

// List returns all registered terminals.
func (h *DeviceHandler) List(c *gin.Context) {
	devices, err := h.deviceRepo.List()
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to list devices")
		return
	}

	utils.Success(c, 200, "Registered devices", gin.H{
		"count":   len(devices),
		"devices": devices,
	})
}

// RegenerateKey replaces a terminal's API key.
func (h *DeviceHandler) RegenerateKey(c *gin.Context) {
	id := c.Param("id")

	key, err := h.authService.RegenerateKey(id)
	if err != nil {
		if errors.Is(err, utils.ErrDeviceNotFound) {
			utils.Error(c, 404, "NOT_FOUND", "Device not found")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to regenerate key")
		return
	}

	utils.Success(c, 200, "API key regenerated", gin.H{
		"deviceId": id,
		"apiKey":   key,
	})
}

// SetActive enables or disables a terminal. Disabled terminals cannot
// authenticate and are skipped by the background drain.
func (h *DeviceHandler) SetActive(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if err := h.deviceRepo.SetActive(id, *req.Active); err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to update device")
		return
	}

	utils.Success(c, 200, "Device updated", gin.H{
		"deviceId": id,
		"active":   *req.Active,
	})
}

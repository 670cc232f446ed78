package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/TalaGit/tala_pos/internal/models"
	"github.com/TalaGit/tala_pos/internal/service"
	"github.com/TalaGit/tala_pos/internal/utils"
)

// DeviceAuthMiddleware authenticates POS terminals by device ID and API key.
type DeviceAuthMiddleware struct {
	authService *service.AuthService
	rateLimiter *InvalidAuthRateLimiter
}

// NewDeviceAuthMiddleware constructs a new DeviceAuthMiddleware.
func NewDeviceAuthMiddleware(authService *service.AuthService) *DeviceAuthMiddleware {
	return &DeviceAuthMiddleware{
		authService: authService,
		rateLimiter: NewInvalidAuthRateLimiter(),
	}
}

// Handle returns a Gin middleware function that enforces device authentication.
func (m *DeviceAuthMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			m.handleAuthError(c, "INVALID_TOKEN", "Missing or invalid authorization header")
			return
		}
		key := strings.TrimPrefix(authHeader, "Bearer ")

		deviceID := c.GetHeader("X-Device-Id")
		if deviceID == "" {
			m.handleAuthError(c, "INVALID_DEVICE", "Missing X-Device-Id header")
			return
		}

		device, err := m.authService.ValidateDeviceKey(deviceID, key)
		if err != nil {
			if errors.Is(err, utils.ErrDeviceInactive) {
				m.handleAuthError(c, "DEVICE_INACTIVE", "Device is deactivated")
				return
			}
			m.handleAuthError(c, "INVALID_DEVICE", "Invalid device credentials")
			return
		}

		c.Set("device", device)
		c.Set("device_id", device.ID)

		c.Next()
	}
}

func (m *DeviceAuthMiddleware) handleAuthError(c *gin.Context, code, message string) {
	// Rate limit invalid attempts only; valid terminals are never throttled.
	ip := c.ClientIP()
	if !m.rateLimiter.Allow(ip) {
		utils.Error(c, 429, "TOO_MANY_REQUESTS", "Too many invalid authentication attempts")
		c.Abort()
		return
	}

	utils.Error(c, 401, code, message)
	c.Abort()
}

// GetDevice returns the authenticated device from context.
func GetDevice(c *gin.Context) *models.Device {
	device, _ := c.Get("device")
	if device == nil {
		return nil
	}
	return device.(*models.Device)
}

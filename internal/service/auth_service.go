package service

import (
	"database/sql"
	"errors"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/TalaGit/tala_pos/internal/models"
	"github.com/TalaGit/tala_pos/internal/repository"
	"github.com/TalaGit/tala_pos/internal/utils"
)

// AuthService authenticates POS terminals and manages their API keys. Keys
// are generated once at registration, stored only as bcrypt hashes, and shown
// to the operator a single time.
type AuthService struct {
	deviceRepo *repository.DeviceRepository
}

// NewAuthService constructs a new AuthService.
func NewAuthService(deviceRepo *repository.DeviceRepository) *AuthService {
	return &AuthService{deviceRepo: deviceRepo}
}

// ValidateDeviceKey verifies the presented key against the device's stored
// hash and stamps the device's last contact time on success.
func (s *AuthService) ValidateDeviceKey(deviceID, key string) (*models.Device, error) {
	if deviceID == "" || key == "" {
		return nil, utils.ErrInvalidToken
	}

	device, err := s.deviceRepo.GetByID(deviceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrInvalidDevice
		}
		return nil, err
	}
	if !device.IsActive {
		return nil, utils.ErrDeviceInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(device.APIKeyHash), []byte(key)); err != nil {
		return nil, utils.ErrInvalidDevice
	}

	if err := s.deviceRepo.UpdateLastSeen(device.ID); err != nil {
		log.Warn().Err(err).Str("device_id", device.ID).Msg("Failed to update device last seen")
	}

	return device, nil
}

// RegisterDevice creates a terminal and returns it together with the
// plaintext API key. The key is not recoverable afterwards.
func (s *AuthService) RegisterDevice(id, name string) (*models.Device, string, error) {
	key, err := utils.GenerateDeviceKey()
	if err != nil {
		return nil, "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	device := &models.Device{
		ID:         id,
		Name:       name,
		APIKeyHash: string(hash),
		IsActive:   true,
	}
	if err := s.deviceRepo.Create(device); err != nil {
		return nil, "", err
	}

	log.Info().Str("device_id", id).Str("name", name).Msg("Device registered")

	return device, key, nil
}

// RegenerateKey replaces a device's API key, invalidating the old one.
func (s *AuthService) RegenerateKey(deviceID string) (string, error) {
	if _, err := s.deviceRepo.GetByID(deviceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", utils.ErrDeviceNotFound
		}
		return "", err
	}

	key, err := utils.GenerateDeviceKey()
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	if err := s.deviceRepo.UpdateKeyHash(deviceID, string(hash)); err != nil {
		return "", err
	}

	log.Info().Str("device_id", deviceID).Msg("Device API key regenerated")

	return key, nil
}

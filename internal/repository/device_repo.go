package repository

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/TalaGit/tala_pos/internal/models"
)

// DeviceRepository handles data access for registered POS terminals.
type DeviceRepository struct {
	db *sqlx.DB
}

// NewDeviceRepository creates a new DeviceRepository.
func NewDeviceRepository(db *sqlx.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// Create inserts a new device.
func (r *DeviceRepository) Create(d *models.Device) error {
	const q = `
        INSERT INTO devices (id, name, api_key_hash, is_active)
        VALUES ($1, $2, $3, $4)
        RETURNING created_at`
	return r.db.QueryRow(q, d.ID, d.Name, d.APIKeyHash, d.IsActive).Scan(&d.CreatedAt)
}

// GetByID returns a device by its identifier.
func (r *DeviceRepository) GetByID(id string) (*models.Device, error) {
	const q = `SELECT * FROM devices WHERE id = $1 LIMIT 1`
	var d models.Device
	if err := r.db.Get(&d, q, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return &d, nil
}

// List returns all devices, oldest registration first.
func (r *DeviceRepository) List() ([]models.Device, error) {
	const q = `SELECT * FROM devices ORDER BY created_at ASC`
	var list []models.Device
	if err := r.db.Select(&list, q); err != nil {
		return nil, err
	}
	return list, nil
}

// ListActive returns active devices; the drain worker iterates these.
func (r *DeviceRepository) ListActive() ([]models.Device, error) {
	const q = `SELECT * FROM devices WHERE is_active = true ORDER BY created_at ASC`
	var list []models.Device
	if err := r.db.Select(&list, q); err != nil {
		return nil, err
	}
	return list, nil
}

// UpdateLastSeen stamps the device's last contact time.
func (r *DeviceRepository) UpdateLastSeen(id string) error {
	const q = `UPDATE devices SET last_seen_at = NOW() WHERE id = $1`
	_, err := r.db.Exec(q, id)
	return err
}

// UpdateKeyHash replaces the stored API key hash (key regeneration).
func (r *DeviceRepository) UpdateKeyHash(id, hash string) error {
	const q = `UPDATE devices SET api_key_hash = $2 WHERE id = $1`
	_, err := r.db.Exec(q, id, hash)
	return err
}

// SetActive toggles whether a device may authenticate and be drained.
func (r *DeviceRepository) SetActive(id string, active bool) error {
	const q = `UPDATE devices SET is_active = $2 WHERE id = $1`
	_, err := r.db.Exec(q, id, active)
	return err
}

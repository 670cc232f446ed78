package repository

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/TalaGit/tala_pos/internal/models"
)

// JewelryRepository handles data access for catalog items.
type JewelryRepository struct {
	db *sqlx.DB
}

// NewJewelryRepository creates a new JewelryRepository.
func NewJewelryRepository(db *sqlx.DB) *JewelryRepository {
	return &JewelryRepository{db: db}
}

// GetByID returns a catalog item by ID, or sql.ErrNoRows when deleted/unknown.
func (r *JewelryRepository) GetByID(id int) (*models.JewelryItem, error) {
	const q = `SELECT * FROM jewelry_items WHERE id = $1 LIMIT 1`
	var item models.JewelryItem
	if err := r.db.Get(&item, q, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return &item, nil
}

// GetBySKU returns a catalog item by SKU.
func (r *JewelryRepository) GetBySKU(sku string) (*models.JewelryItem, error) {
	const q = `SELECT * FROM jewelry_items WHERE sku = $1 LIMIT 1`
	var item models.JewelryItem
	if err := r.db.Get(&item, q, sku); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return &item, nil
}

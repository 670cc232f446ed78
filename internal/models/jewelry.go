package models

import "time"

// JewelryItem is a catalog item with stock tracking. WeightGrams and Karat
// describe the gold content; UnitPrice is the current sell price in rials.
type JewelryItem struct {
	ID          int       `db:"id" json:"id"`
	SKU         string    `db:"sku" json:"sku"`
	Name        string    `db:"name" json:"name"`
	Category    string    `db:"category" json:"category"`
	Karat       int       `db:"karat" json:"karat"`
	WeightGrams float64   `db:"weight_grams" json:"weightGrams"`
	UnitPrice   int64     `db:"unit_price" json:"unitPrice"`
	StockQty    int       `db:"stock_qty" json:"stockQty"`
	IsActive    bool      `db:"is_active" json:"isActive"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"-"`
}

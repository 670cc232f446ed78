package models

import "time"

// Customer holds retail customer identity, credit balance, and purchase stats.
// Balance is in integral rials; negative means the shop owes the customer.
type Customer struct {
	ID             int        `db:"id" json:"id"`
	Name           string     `db:"name" json:"name"`
	Phone          string     `db:"phone" json:"phone"`
	Balance        int64      `db:"balance" json:"balance"`
	TotalPurchases int64      `db:"total_purchases" json:"totalPurchases"`
	PurchaseCount  int        `db:"purchase_count" json:"purchaseCount"`
	LastPurchaseAt *time.Time `db:"last_purchase_at" json:"lastPurchaseAt,omitempty"`
	IsActive       bool       `db:"is_active" json:"isActive"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time  `db:"updated_at" json:"-"`
}

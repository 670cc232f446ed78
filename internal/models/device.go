package models

import "time"

// Device is a registered point-of-sale terminal, the unit of queue
// partitioning and sync ordering. APIKeyHash is a bcrypt hash; the plaintext
// key is shown exactly once at registration.
type Device struct {
	ID         string     `db:"id" json:"id"`
	Name       string     `db:"name" json:"name"`
	APIKeyHash string     `db:"api_key_hash" json:"-"`
	IsActive   bool       `db:"is_active" json:"isActive"`
	LastSeenAt *time.Time `db:"last_seen_at" json:"lastSeenAt,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
}

package service

import (
	"context"
	"time"

	"github.com/TalaGit/tala_pos/internal/models"
)

// QueueStore is the persistence surface the sync core needs from the queue
// table. Satisfied by repository.QueueRepository; tests substitute an
// in-memory implementation so independent device contexts can be exercised
// without a database.
type QueueStore interface {
	Create(q *models.QueuedTransaction) error
	Update(q *models.QueuedTransaction) error
	GetByID(id string) (*models.QueuedTransaction, error)
	GetEligibleForDevice(deviceID string) ([]models.QueuedTransaction, error)
	ListByDevice(deviceID string) ([]models.QueuedTransaction, error)
	ListConflicts(deviceID string) ([]models.QueuedTransaction, error)
	DeleteCommittedBefore(deviceID string, cutoff time.Time) (int64, error)
}

// SaleCommitter turns a queued sale into a real ledger transaction. The
// returned invoice number is stored back onto the queue record.
type SaleCommitter interface {
	CommitQueued(ctx context.Context, rec *models.QueuedTransaction) (string, error)
}

// ConnectivityChecker reports whether the central store is reachable. A drain
// is a no-op when it returns false.
type ConnectivityChecker interface {
	Online(ctx context.Context) bool
}

// GoldPriceSource returns the current reference gold price in rials per gram,
// or 0 when unavailable. It never returns an error: price lookup failure must
// not block queuing a sale.
type GoldPriceSource interface {
	CurrentPrice(ctx context.Context) int64
}

// CustomerStore resolves customer references during commit.
type CustomerStore interface {
	GetByID(id int) (*models.Customer, error)
}

// JewelryStore resolves catalog item references during commit.
type JewelryStore interface {
	GetByID(id int) (*models.JewelryItem, error)
}

// LedgerStore creates committed sales. Satisfied by
// repository.TransactionRepository.
type LedgerStore interface {
	GenerateInvoiceNumber() (string, error)
	CreateCommitted(trx *models.Transaction, items []models.TransactionItem, complete bool) error
}

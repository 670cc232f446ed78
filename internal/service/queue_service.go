package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/TalaGit/tala_pos/internal/models"
	"github.com/TalaGit/tala_pos/internal/utils"
)

// EnqueueRequest is a proposed sale as submitted by a terminal.
type EnqueueRequest struct {
	CustomerID      *int              `json:"customer_id"`
	LineItems       []models.SaleLine `json:"line_items" binding:"required"`
	PaymentMethod   string            `json:"payment_method" binding:"required"`
	TransactionType string            `json:"transaction_type"`
	AmountPaid      int64             `json:"amount_paid"`
	TaxAmount       int64             `json:"tax_amount"`
	DiscountAmount  int64             `json:"discount_amount"`
	ClientCreatedAt time.Time         `json:"client_created_at"`
}

// QueueSummary is the per-device dashboard snapshot shown to operators.
type QueueSummary struct {
	DeviceID          string `json:"deviceId"`
	TotalTransactions int    `json:"totalTransactions"`
	PendingSync       int    `json:"pendingSync"`
	Synced            int    `json:"synced"`
	Failed            int    `json:"failed"`
	Conflicts         int    `json:"conflicts"`
	TotalPendingValue int64  `json:"totalPendingValue"`
}

// QueueService captures sales into the offline queue and answers queue
// inspection, export and cleanup requests.
type QueueService struct {
	store         QueueStore
	gold          GoldPriceSource
	maxRetries    int
	retentionDays int
}

func NewQueueService(store QueueStore, gold GoldPriceSource, maxRetries, retentionDays int) *QueueService {
	if maxRetries < 1 {
		maxRetries = models.DefaultMaxRetries
	}
	if retentionDays < 1 {
		retentionDays = 30
	}
	return &QueueService{
		store:         store,
		gold:          gold,
		maxRetries:    maxRetries,
		retentionDays: retentionDays,
	}
}

// Enqueue validates the proposed sale, computes its totals and stores it as a
// pending queue record. The sale is accepted even when the gold price source
// is unreachable; the reference price is simply recorded as 0.
func (s *QueueService) Enqueue(ctx context.Context, deviceID, deviceName string, req *EnqueueRequest) (*models.QueuedTransaction, error) {
	if len(req.LineItems) == 0 {
		return nil, utils.ErrEmptyLineItems
	}
	for _, line := range req.LineItems {
		if line.Quantity <= 0 {
			return nil, utils.ErrInvalidQuantity
		}
	}
	if req.PaymentMethod == "" {
		return nil, utils.ErrMissingPayment
	}

	var subtotal int64
	for _, line := range req.LineItems {
		subtotal += int64(line.Quantity) * line.UnitPrice
	}
	total := subtotal + req.TaxAmount - req.DiscountAmount
	if total < 0 {
		total = 0
	}

	clientCreatedAt := req.ClientCreatedAt
	if clientCreatedAt.IsZero() {
		clientCreatedAt = time.Now()
	}

	rec := &models.QueuedTransaction{
		ID:         uuid.New().String(),
		DeviceID:   deviceID,
		DeviceName: deviceName,
		SyncStatus: models.SyncPending,
		MaxRetries: s.maxRetries,
		Payload: models.SalePayload{
			CustomerID:      req.CustomerID,
			LineItems:       req.LineItems,
			PaymentMethod:   req.PaymentMethod,
			TransactionType: req.TransactionType,
			AmountPaid:      req.AmountPaid,
			Subtotal:        subtotal,
			TaxAmount:       req.TaxAmount,
			DiscountAmount:  req.DiscountAmount,
			TotalAmount:     total,
			GoldPriceRef:    s.gold.CurrentPrice(ctx),
			ClientCreatedAt: clientCreatedAt,
		},
	}

	if err := s.store.Create(rec); err != nil {
		log.Error().Err(err).Str("device_id", deviceID).Msg("Failed to enqueue transaction")
		return nil, err
	}

	log.Info().
		Str("record_id", rec.ID).
		Str("device_id", deviceID).
		Int64("total_amount", total).
		Msg("Transaction queued")

	return rec, nil
}

// Get returns a single queue record.
func (s *QueueService) Get(id string) (*models.QueuedTransaction, error) {
	rec, err := s.store.GetByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrRecordNotFound
		}
		return nil, err
	}
	return rec, nil
}

// Summary aggregates the device's queue. Records whose stored payload cannot
// be parsed are counted in the totals but excluded from the value sum, so one
// corrupt record never breaks the dashboard.
func (s *QueueService) Summary(deviceID string) (*QueueSummary, error) {
	records, err := s.store.ListByDevice(deviceID)
	if err != nil {
		return nil, err
	}

	summary := &QueueSummary{DeviceID: deviceID}
	for i := range records {
		rec := &records[i]
		summary.TotalTransactions++
		switch rec.SyncStatus {
		case models.SyncSynced:
			summary.Synced++
		case models.SyncConflict:
			summary.Conflicts++
		case models.SyncFailed:
			summary.Failed++
			if rec.Eligible() {
				summary.PendingSync++
			}
		default:
			summary.PendingSync++
		}
		if rec.Eligible() && !rec.Payload.Malformed {
			summary.TotalPendingValue += rec.Payload.TotalAmount
		}
	}
	return summary, nil
}

// Export returns the device's full queue, oldest first, for backup before a
// terminal is wiped or replaced.
func (s *QueueService) Export(deviceID string) ([]models.QueuedTransaction, error) {
	return s.store.ListByDevice(deviceID)
}

// Cleanup deletes committed records synced before the retention window.
// Uncommitted records are never touched regardless of age: an unsynced sale
// is money and must survive until it commits or an operator resolves it.
func (s *QueueService) Cleanup(deviceID string, olderThanDays int) (int64, error) {
	if olderThanDays < 1 {
		olderThanDays = s.retentionDays
	}
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)

	deleted, err := s.store.DeleteCommittedBefore(deviceID, cutoff)
	if err != nil {
		log.Error().Err(err).Str("device_id", deviceID).Msg("Queue cleanup failed")
		return 0, err
	}
	if deleted > 0 {
		log.Info().
			Str("device_id", deviceID).
			Int64("deleted", deleted).
			Int("older_than_days", olderThanDays).
			Msg("Cleaned up committed queue records")
	}
	return deleted, nil
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/TalaGit/tala_pos/internal/models"
	"github.com/TalaGit/tala_pos/internal/utils"
)

// TransactionService commits queued sales into the shared ledger. It is the
// SaleCommitter used by the sync engine; all inventory and customer effects of
// a commit happen inside a single database transaction in the ledger store.
type TransactionService struct {
	ledger    LedgerStore
	customers CustomerStore
	jewelry   JewelryStore
}

func NewTransactionService(ledger LedgerStore, customers CustomerStore, jewelry JewelryStore) *TransactionService {
	return &TransactionService{
		ledger:    ledger,
		customers: customers,
		jewelry:   jewelry,
	}
}

// CommitQueued turns one queued sale into a ledger transaction and returns the
// assigned invoice number.
//
// References captured while the terminal was offline may have gone stale by
// commit time. A deleted customer does not block the sale: it commits without
// the customer link. A deleted catalog item becomes a custom line that keeps
// the recorded name and SKU, so the sale's value is preserved even though
// stock cannot be decremented for it. Insufficient stock, by contrast, is a
// real commit failure and is returned to the caller.
func (s *TransactionService) CommitQueued(ctx context.Context, rec *models.QueuedTransaction) (string, error) {
	if rec.IsCommitted {
		return "", utils.ErrAlreadyCommitted
	}
	payload := &rec.Payload
	if payload.Malformed {
		return "", utils.ErrMalformedPayload
	}
	if len(payload.LineItems) == 0 {
		return "", utils.ErrEmptyLineItems
	}

	var (
		customerID   *int
		customerName *string
	)
	if payload.CustomerID != nil {
		customer, err := s.customers.GetByID(*payload.CustomerID)
		switch {
		case err == nil:
			customerID = &customer.ID
			customerName = &customer.Name
		case errors.Is(err, sql.ErrNoRows):
			log.Warn().
				Str("record_id", rec.ID).
				Int("customer_id", *payload.CustomerID).
				Msg("Customer deleted since sale was queued, committing without link")
		default:
			return "", fmt.Errorf("resolve customer: %w", err)
		}
	}

	items := make([]models.TransactionItem, 0, len(payload.LineItems))
	for _, line := range payload.LineItems {
		item := models.TransactionItem{
			Name:         line.Name,
			SKU:          line.SKU,
			Quantity:     line.Quantity,
			UnitPrice:    line.UnitPrice,
			GoldWeight:   line.GoldWeight,
			GoldKarat:    line.GoldKarat,
			LineTotal:    int64(line.Quantity) * line.UnitPrice,
			IsCustomLine: line.ItemID == nil,
		}
		if line.ItemID != nil {
			catalog, err := s.jewelry.GetByID(*line.ItemID)
			switch {
			case err == nil:
				item.JewelryID = &catalog.ID
			case errors.Is(err, sql.ErrNoRows):
				item.IsCustomLine = true
				log.Warn().
					Str("record_id", rec.ID).
					Int("item_id", *line.ItemID).
					Str("sku", line.SKU).
					Msg("Catalog item deleted since sale was queued, keeping as custom line")
			default:
				return "", fmt.Errorf("resolve catalog item: %w", err)
			}
		}
		items = append(items, item)
	}

	invoice, err := s.ledger.GenerateInvoiceNumber()
	if err != nil {
		return "", fmt.Errorf("generate invoice number: %w", err)
	}

	trx := &models.Transaction{
		InvoiceNumber:  invoice,
		CustomerID:     customerID,
		CustomerName:   customerName,
		DeviceID:       &rec.DeviceID,
		PaymentMethod:  payload.PaymentMethod,
		Subtotal:       payload.Subtotal,
		TaxAmount:      payload.TaxAmount,
		DiscountAmount: payload.DiscountAmount,
		TotalAmount:    payload.TotalAmount,
		AmountPaid:     payload.AmountPaid,
		GoldPriceRef:   payload.GoldPriceRef,
		IsOffline:      true,
		QueueRecordID:  &rec.ID,
		Status:         models.TrxStatusPending,
	}

	complete := payload.AmountPaid >= payload.TotalAmount
	if err := s.ledger.CreateCommitted(trx, items, complete); err != nil {
		return "", err
	}

	log.Info().
		Str("invoice", invoice).
		Str("record_id", rec.ID).
		Str("device_id", rec.DeviceID).
		Int64("total", trx.TotalAmount).
		Bool("complete", complete).
		Msg("Queued sale committed to ledger")

	return invoice, nil
}

package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/TalaGit/tala_pos/internal/models"
	"github.com/TalaGit/tala_pos/internal/utils"
)

// TransactionRepository handles data access for committed sales.
type TransactionRepository struct {
	db *sqlx.DB
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db *sqlx.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// GenerateInvoiceNumber returns an invoice number like TLA-YYYYMMDD-NNNNNN
// using the Asia/Tehran date, computed in the DB to avoid TZ mismatches.
func (r *TransactionRepository) GenerateInvoiceNumber() (string, error) {
	const seqQ = `
        SELECT COALESCE(MAX(
            CAST(SUBSTRING(invoice_number FROM 14) AS INT)
        ), 0) + 1
        FROM transactions
        WHERE invoice_number LIKE 'TLA-' || TO_CHAR(NOW() AT TIME ZONE 'Asia/Tehran', 'YYYYMMDD') || '-%'`

	var next int
	if err := r.db.Get(&next, seqQ); err != nil {
		return "", err
	}

	const dateQ = `SELECT TO_CHAR(NOW() AT TIME ZONE 'Asia/Tehran', 'YYYYMMDD')`
	var ymd string
	if err := r.db.Get(&ymd, dateQ); err != nil {
		return "", err
	}
	return fmt.Sprintf("TLA-%s-%06d", ymd, next), nil
}

// CreateCommitted inserts a sale with its line items and, when complete is
// set, finalizes it: stock is decremented for catalog lines and customer
// purchase stats are updated. Everything runs in one database transaction so
// two devices racing on the same inventory item are serialized by the store.
func (r *TransactionRepository) CreateCommitted(trx *models.Transaction, items []models.TransactionItem, complete bool) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const insertTrx = `
        INSERT INTO transactions (
            invoice_number, customer_id, customer_name, device_id, payment_method,
            subtotal, tax_amount, discount_amount, total_amount, amount_paid,
            gold_price_ref, is_offline_transaction, queue_record_id, status, created_at
        ) VALUES (
            $1,$2,$3,$4,$5,
            $6,$7,$8,$9,$10,
            $11,$12,$13,$14,NOW()
        ) RETURNING id, created_at`

	if err := tx.QueryRow(insertTrx,
		trx.InvoiceNumber, trx.CustomerID, trx.CustomerName, trx.DeviceID, trx.PaymentMethod,
		trx.Subtotal, trx.TaxAmount, trx.DiscountAmount, trx.TotalAmount, trx.AmountPaid,
		trx.GoldPriceRef, trx.IsOffline, trx.QueueRecordID, trx.Status,
	).Scan(&trx.ID, &trx.CreatedAt); err != nil {
		return err
	}

	const insertItem = `
        INSERT INTO transaction_items (
            transaction_id, jewelry_id, name, sku, quantity, unit_price,
            gold_weight, gold_karat, line_total, is_custom_line
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id`

	for i := range items {
		items[i].TransactionID = trx.ID
		if err := tx.QueryRow(insertItem,
			trx.ID, items[i].JewelryID, items[i].Name, items[i].SKU, items[i].Quantity,
			items[i].UnitPrice, items[i].GoldWeight, items[i].GoldKarat,
			items[i].LineTotal, items[i].IsCustomLine,
		).Scan(&items[i].ID); err != nil {
			return err
		}
	}

	if complete {
		if err := r.completeTx(tx, trx, items); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	trx.Items = items
	return nil
}

// completeTx finalizes a sale inside an open transaction: decrements stock
// with an explicit quantity check and updates customer purchase stats.
func (r *TransactionRepository) completeTx(tx *sqlx.Tx, trx *models.Transaction, items []models.TransactionItem) error {
	const decrement = `
        UPDATE jewelry_items
        SET stock_qty = stock_qty - $1, updated_at = NOW()
        WHERE id = $2 AND stock_qty >= $1`

	for _, item := range items {
		if item.JewelryID == nil {
			continue // custom line, no stock to decrement
		}
		res, err := tx.Exec(decrement, item.Quantity, *item.JewelryID)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return fmt.Errorf("%w: item %s (id %d), need %d",
				utils.ErrInsufficientStock, item.SKU, *item.JewelryID, item.Quantity)
		}
	}

	if trx.CustomerID != nil {
		const updateStats = `
            UPDATE customers
            SET total_purchases = total_purchases + $1,
                purchase_count = purchase_count + 1,
                last_purchase_at = NOW(),
                updated_at = NOW()
            WHERE id = $2`
		if _, err := tx.Exec(updateStats, trx.TotalAmount, *trx.CustomerID); err != nil {
			return err
		}
	}

	now := time.Now()
	trx.Status = models.TrxStatusCompleted
	trx.CompletedAt = &now
	const finalize = `UPDATE transactions SET status = $2, completed_at = NOW() WHERE id = $1`
	_, err := tx.Exec(finalize, trx.ID, trx.Status)
	return err
}

// GetByInvoiceNumber returns a committed sale and its items.
func (r *TransactionRepository) GetByInvoiceNumber(invoice string) (*models.Transaction, error) {
	const q = `SELECT * FROM transactions WHERE invoice_number = $1 LIMIT 1`
	var trx models.Transaction
	if err := r.db.Get(&trx, q, invoice); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}

	const itemsQ = `SELECT * FROM transaction_items WHERE transaction_id = $1 ORDER BY id ASC`
	if err := r.db.Select(&trx.Items, itemsQ, trx.ID); err != nil {
		return nil, err
	}
	return &trx, nil
}

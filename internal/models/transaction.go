package models

import "time"

type TransactionStatus string

const (
	TrxStatusPending   TransactionStatus = "pending"
	TrxStatusCompleted TransactionStatus = "completed"
	TrxStatusVoided    TransactionStatus = "voided"
)

// Transaction is a committed sale on the shared ledger. Sales replayed from a
// device queue carry IsOffline = true and keep a back-reference to the queue
// record that produced them.
type Transaction struct {
	ID             int               `db:"id" json:"-"`
	InvoiceNumber  string            `db:"invoice_number" json:"invoiceNumber"`
	CustomerID     *int              `db:"customer_id" json:"customerId,omitempty"`
	CustomerName   *string           `db:"customer_name" json:"customerName,omitempty"`
	DeviceID       *string           `db:"device_id" json:"deviceId,omitempty"`
	PaymentMethod  string            `db:"payment_method" json:"paymentMethod"`
	Subtotal       int64             `db:"subtotal" json:"subtotal"`
	TaxAmount      int64             `db:"tax_amount" json:"taxAmount"`
	DiscountAmount int64             `db:"discount_amount" json:"discountAmount"`
	TotalAmount    int64             `db:"total_amount" json:"totalAmount"`
	AmountPaid     int64             `db:"amount_paid" json:"amountPaid"`
	GoldPriceRef   int64             `db:"gold_price_ref" json:"goldPriceRef"`
	IsOffline      bool              `db:"is_offline_transaction" json:"isOfflineTransaction"`
	QueueRecordID  *string           `db:"queue_record_id" json:"-"`
	Status         TransactionStatus `db:"status" json:"status"`
	CreatedAt      time.Time         `db:"created_at" json:"createdAt"`
	CompletedAt    *time.Time        `db:"completed_at" json:"completedAt,omitempty"`

	Items []TransactionItem `db:"-" json:"items,omitempty"`
}

// TransactionItem is one sold line. JewelryID is nil and IsCustomLine true for
// items whose catalog entry was deleted between enqueue and sync; the recorded
// name and SKU are kept so the invoice stays readable.
type TransactionItem struct {
	ID            int     `db:"id" json:"-"`
	TransactionID int     `db:"transaction_id" json:"-"`
	JewelryID     *int    `db:"jewelry_id" json:"jewelryId,omitempty"`
	Name          string  `db:"name" json:"name"`
	SKU           string  `db:"sku" json:"sku"`
	Quantity      int     `db:"quantity" json:"quantity"`
	UnitPrice     int64   `db:"unit_price" json:"unitPrice"`
	GoldWeight    float64 `db:"gold_weight" json:"goldWeight,omitempty"`
	GoldKarat     int     `db:"gold_karat" json:"goldKarat,omitempty"`
	LineTotal     int64   `db:"line_total" json:"lineTotal"`
	IsCustomLine  bool    `db:"is_custom_line" json:"isCustomLine"`
}

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type SyncStatus string
type ResolutionAction string

const (
	SyncPending  SyncStatus = "pending"
	SyncSyncing  SyncStatus = "syncing"
	SyncSynced   SyncStatus = "synced"
	SyncFailed   SyncStatus = "failed"
	SyncConflict SyncStatus = "conflict"
)

const (
	ResolveRetry       ResolutionAction = "retry"
	ResolveSkip        ResolutionAction = "skip"
	ResolveManualMerge ResolutionAction = "manual_merge"
)

// DefaultMaxRetries is the number of automatic sync attempts before a queued
// transaction is promoted to conflict and handed to an operator.
const DefaultMaxRetries = 3

// Valid reports whether s is one of the known sync statuses.
func (s SyncStatus) Valid() bool {
	switch s {
	case SyncPending, SyncSyncing, SyncSynced, SyncFailed, SyncConflict:
		return true
	}
	return false
}

// CanTransition reports whether moving from s to next is a legal state change.
// Synced is terminal; conflict only leaves via an explicit resolution.
func (s SyncStatus) CanTransition(next SyncStatus) bool {
	switch s {
	case SyncPending:
		return next == SyncSyncing
	case SyncSyncing:
		return next == SyncSynced || next == SyncFailed || next == SyncConflict
	case SyncFailed:
		return next == SyncSyncing || next == SyncConflict
	case SyncConflict:
		// retry / manual_merge -> pending, skip -> failed
		return next == SyncPending || next == SyncFailed
	case SyncSynced:
		return false
	}
	return false
}

// Valid reports whether a is a known resolution action.
func (a ResolutionAction) Valid() bool {
	return a == ResolveRetry || a == ResolveSkip || a == ResolveManualMerge
}

// SaleLine is one line item of a proposed sale as recorded by the terminal.
// ItemID is nil for custom lines that never referenced a catalog item.
type SaleLine struct {
	ItemID     *int    `json:"item_id,omitempty"`
	Name       string  `json:"name"`
	SKU        string  `json:"sku"`
	Quantity   int     `json:"quantity"`
	UnitPrice  int64   `json:"unit_price"`
	GoldWeight float64 `json:"gold_weight,omitempty"`
	GoldKarat  int     `json:"gold_karat,omitempty"`
}

// SalePayload is the complete proposed sale captured at enqueue time.
// Unknown fields sent by newer terminal software are preserved in Extra and
// written back verbatim, so a round trip through the queue is lossless.
type SalePayload struct {
	CustomerID      *int       `json:"customer_id,omitempty"`
	LineItems       []SaleLine `json:"line_items"`
	PaymentMethod   string     `json:"payment_method"`
	TransactionType string     `json:"transaction_type,omitempty"`
	AmountPaid      int64      `json:"amount_paid"`
	Subtotal        int64      `json:"subtotal"`
	TaxAmount       int64      `json:"tax_amount"`
	DiscountAmount  int64      `json:"discount_amount"`
	TotalAmount     int64      `json:"total_amount"`
	GoldPriceRef    int64      `json:"gold_price_ref"`
	ClientCreatedAt time.Time  `json:"client_created_at"`

	// Extra holds unknown top-level fields from the terminal. Malformed is set
	// when the stored payload could not be parsed at all; such records are
	// skipped by aggregation and fail commit with an explicit error.
	Extra     map[string]json.RawMessage `json:"-"`
	Malformed bool                       `json:"-"`
}

var knownPayloadFields = []string{
	"customer_id", "line_items", "payment_method", "transaction_type", "amount_paid",
	"subtotal", "tax_amount", "discount_amount", "total_amount",
	"gold_price_ref", "client_created_at",
}

func (p *SalePayload) UnmarshalJSON(data []byte) error {
	type alias SalePayload
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, k := range knownPayloadFields {
		delete(raw, k)
	}
	if len(raw) == 0 {
		raw = nil
	}
	a.Extra = raw
	*p = SalePayload(a)
	return nil
}

func (p SalePayload) MarshalJSON() ([]byte, error) {
	type alias SalePayload
	b, err := json.Marshal(alias(p))
	if err != nil {
		return nil, err
	}
	if len(p.Extra) == 0 {
		return b, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(b, &merged); err != nil {
		return nil, err
	}
	for k, v := range p.Extra {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// Merge overlays a patch fragment onto the payload, used by the manual_merge
// resolution. Known fields are re-parsed; unknown patch keys land in Extra.
func (p *SalePayload) Merge(patch map[string]json.RawMessage) error {
	if len(patch) == 0 {
		return fmt.Errorf("empty patch")
	}
	current, err := json.Marshal(p)
	if err != nil {
		return err
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(current, &merged); err != nil {
		return err
	}
	for k, v := range patch {
		merged[k] = v
	}
	out, err := json.Marshal(merged)
	if err != nil {
		return err
	}
	return p.UnmarshalJSON(out)
}

// Value implements driver.Valuer so the payload is stored as JSONB.
func (p SalePayload) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner. A payload that fails to parse does not fail the
// row: the record surfaces with Malformed set so one corrupt entry cannot take
// down a whole device's summary or export.
func (p *SalePayload) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*p = SalePayload{Malformed: true}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported payload source type %T", src)
	}
	if err := p.UnmarshalJSON(data); err != nil {
		*p = SalePayload{Malformed: true}
	}
	return nil
}

// ConflictInfo describes why a queued transaction exhausted its retries.
// Resolution is filled in by the conflict resolver (e.g. "skipped").
type ConflictInfo struct {
	Error         string    `json:"error"`
	RetryCount    int       `json:"retry_count"`
	LastAttemptAt time.Time `json:"last_attempt_at"`
	Resolution    string    `json:"resolution,omitempty"`
}

func (c ConflictInfo) IsZero() bool {
	return c.Error == "" && c.RetryCount == 0 && c.LastAttemptAt.IsZero() && c.Resolution == ""
}

// Value stores zero conflict info as SQL NULL.
func (c ConflictInfo) Value() (driver.Value, error) {
	if c.IsZero() {
		return nil, nil
	}
	return json.Marshal(c)
}

func (c *ConflictInfo) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*c = ConflictInfo{}
		return nil
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	default:
		return fmt.Errorf("unsupported conflict source type %T", src)
	}
}

// QueuedTransaction is a sale captured locally by a point-of-sale terminal and
// not yet committed to the shared ledger. Its storage ID is independent of the
// invoice number assigned when the sale finally commits.
type QueuedTransaction struct {
	ID               string       `db:"id" json:"id"`
	DeviceID         string       `db:"device_id" json:"deviceId"`
	DeviceName       string       `db:"device_name" json:"deviceName"`
	Payload          SalePayload  `db:"payload" json:"payload"`
	SyncStatus       SyncStatus   `db:"sync_status" json:"syncStatus"`
	IsCommitted      bool         `db:"is_committed" json:"isCommitted"`
	RetryCount       int          `db:"retry_count" json:"retryCount"`
	MaxRetries       int          `db:"max_retries" json:"maxRetries"`
	LastError        *string      `db:"last_error" json:"lastError,omitempty"`
	CommittedInvoice *string      `db:"committed_invoice" json:"committedInvoice,omitempty"`
	HasConflict      bool         `db:"has_unresolved_conflict" json:"hasUnresolvedConflict"`
	Conflict         ConflictInfo `db:"conflict_data" json:"conflictData,omitempty"`
	SyncAttemptedAt  *time.Time   `db:"sync_attempted_at" json:"syncAttemptedAt,omitempty"`
	SyncedAt         *time.Time   `db:"synced_at" json:"syncedAt,omitempty"`
	CreatedAt        time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time    `db:"updated_at" json:"-"`
}

// Eligible reports whether a drain pass should pick this record up. A failed
// record with its retry budget exhausted is excluded: it is either about to be
// promoted to conflict or was deliberately skipped by an operator.
func (q *QueuedTransaction) Eligible() bool {
	if q.IsCommitted {
		return false
	}
	if q.SyncStatus != SyncPending && q.SyncStatus != SyncFailed {
		return false
	}
	return q.MaxRetries < 1 || q.RetryCount < q.MaxRetries
}

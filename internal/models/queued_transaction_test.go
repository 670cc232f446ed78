package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSyncStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to SyncStatus
		ok       bool
	}{
		{SyncPending, SyncSyncing, true},
		{SyncPending, SyncSynced, false},
		{SyncSyncing, SyncSynced, true},
		{SyncSyncing, SyncFailed, true},
		{SyncSyncing, SyncConflict, true},
		{SyncFailed, SyncSyncing, true},
		{SyncFailed, SyncConflict, true},
		{SyncFailed, SyncSynced, false},
		{SyncConflict, SyncPending, true},
		{SyncConflict, SyncFailed, true},
		{SyncConflict, SyncSyncing, false},
		{SyncSynced, SyncPending, false},
		{SyncSynced, SyncSyncing, false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.ok, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestSyncStatusValid(t *testing.T) {
	for _, s := range []SyncStatus{SyncPending, SyncSyncing, SyncSynced, SyncFailed, SyncConflict} {
		require.True(t, s.Valid())
	}
	require.False(t, SyncStatus("queued").Valid())
	require.False(t, SyncStatus("").Valid())
}

func TestResolutionActionValid(t *testing.T) {
	require.True(t, ResolveRetry.Valid())
	require.True(t, ResolveSkip.Valid())
	require.True(t, ResolveManualMerge.Valid())
	require.False(t, ResolutionAction("void").Valid())
}

func TestSalePayloadPreservesUnknownFields(t *testing.T) {
	raw := []byte(`{
		"line_items":[{"name":"Gold Ring","sku":"RING-18K","quantity":1,"unit_price":100}],
		"payment_method":"cash",
		"total_amount":100,
		"loyalty_points":12,
		"terminal_fw":"2.4.1"
	}`)

	var p SalePayload
	require.NoError(t, json.Unmarshal(raw, &p))
	require.Equal(t, "cash", p.PaymentMethod)
	require.Len(t, p.Extra, 2)
	require.Contains(t, p.Extra, "loyalty_points")
	require.Contains(t, p.Extra, "terminal_fw")

	out, err := json.Marshal(p)
	require.NoError(t, err)

	var round map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &round))
	require.JSONEq(t, `12`, string(round["loyalty_points"]))
	require.JSONEq(t, `"2.4.1"`, string(round["terminal_fw"]))
}

func TestSalePayloadMerge(t *testing.T) {
	p := SalePayload{
		LineItems:     []SaleLine{{Name: "Gold Ring", SKU: "RING-18K", Quantity: 1, UnitPrice: 500}},
		PaymentMethod: "cash",
		TotalAmount:   500,
	}

	err := p.Merge(map[string]json.RawMessage{
		"total_amount":  json.RawMessage(`450`),
		"operator_note": json.RawMessage(`"price matched"`),
	})
	require.NoError(t, err)
	require.Equal(t, int64(450), p.TotalAmount)
	require.Equal(t, "cash", p.PaymentMethod)
	require.Contains(t, p.Extra, "operator_note")

	require.Error(t, p.Merge(nil))
}

func TestSalePayloadScanToleratesCorruptData(t *testing.T) {
	var p SalePayload
	require.NoError(t, p.Scan([]byte(`{"payment_method":"cash","total_amount":100}`)))
	require.False(t, p.Malformed)
	require.Equal(t, int64(100), p.TotalAmount)

	var bad SalePayload
	require.NoError(t, bad.Scan([]byte(`{"payment_method":`)))
	require.True(t, bad.Malformed)

	var null SalePayload
	require.NoError(t, null.Scan(nil))
	require.True(t, null.Malformed)
}

func TestConflictInfoNullStorage(t *testing.T) {
	var zero ConflictInfo
	v, err := zero.Value()
	require.NoError(t, err)
	require.Nil(t, v)

	full := ConflictInfo{Error: "insufficient stock", RetryCount: 3, LastAttemptAt: time.Now()}
	v, err = full.Value()
	require.NoError(t, err)
	require.NotNil(t, v)

	var scanned ConflictInfo
	require.NoError(t, scanned.Scan(v))
	require.Equal(t, "insufficient stock", scanned.Error)
	require.Equal(t, 3, scanned.RetryCount)

	var cleared ConflictInfo
	require.NoError(t, cleared.Scan(nil))
	require.True(t, cleared.IsZero())
}

func TestEligible(t *testing.T) {
	rec := QueuedTransaction{SyncStatus: SyncPending}
	require.True(t, rec.Eligible())

	rec.SyncStatus = SyncFailed
	require.True(t, rec.Eligible())

	// Exhausted retry budget (an operator skip) stays out of the drain path.
	rec.MaxRetries = 3
	rec.RetryCount = 3
	require.False(t, rec.Eligible())
	rec.RetryCount = 0

	rec.SyncStatus = SyncConflict
	require.False(t, rec.Eligible())

	rec.SyncStatus = SyncPending
	rec.IsCommitted = true
	require.False(t, rec.Eligible())
}

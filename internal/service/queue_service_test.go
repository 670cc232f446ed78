package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/TalaGit/tala_pos/internal/models"
	"github.com/TalaGit/tala_pos/internal/utils"
)

func TestEnqueueComputesTotals(t *testing.T) {
	store := newFakeQueueStore()
	svc := NewQueueService(store, &fakeGold{price: 52_000_000}, 3, 30)

	itemID := 7
	rec, err := svc.Enqueue(context.Background(), "POS-01", "Front Desk", &EnqueueRequest{
		LineItems: []models.SaleLine{
			{ItemID: &itemID, Name: "Gold Ring", SKU: "RING-18K", Quantity: 2, UnitPrice: 30_000_000, GoldWeight: 4.2, GoldKarat: 18},
			{Name: "Engraving", SKU: "", Quantity: 1, UnitPrice: 2_000_000},
		},
		PaymentMethod:  "card",
		AmountPaid:     62_000_000,
		TaxAmount:      1_000_000,
		DiscountAmount: 1_000_000,
	})
	require.NoError(t, err)

	require.NotEmpty(t, rec.ID)
	require.Equal(t, "POS-01", rec.DeviceID)
	require.Equal(t, models.SyncPending, rec.SyncStatus)
	require.False(t, rec.IsCommitted)
	require.Equal(t, 3, rec.MaxRetries)
	require.Equal(t, int64(62_000_000), rec.Payload.Subtotal)
	require.Equal(t, int64(62_000_000), rec.Payload.TotalAmount)
	require.Equal(t, int64(52_000_000), rec.Payload.GoldPriceRef)
	require.False(t, rec.Payload.ClientCreatedAt.IsZero())

	stored, err := store.GetByID(rec.ID)
	require.NoError(t, err)
	require.Equal(t, rec.Payload.TotalAmount, stored.Payload.TotalAmount)
}

func TestEnqueueAcceptsSaleWhenGoldPriceUnavailable(t *testing.T) {
	store := newFakeQueueStore()
	svc := NewQueueService(store, &fakeGold{price: 0}, 3, 30)

	rec, err := svc.Enqueue(context.Background(), "POS-01", "Front Desk", &EnqueueRequest{
		LineItems:     []models.SaleLine{{Name: "Gold Ring", Quantity: 1, UnitPrice: 100}},
		PaymentMethod: "cash",
	})
	require.NoError(t, err)
	require.Zero(t, rec.Payload.GoldPriceRef)
}

func TestEnqueueValidation(t *testing.T) {
	store := newFakeQueueStore()
	svc := NewQueueService(store, &fakeGold{price: 1}, 3, 30)
	ctx := context.Background()

	_, err := svc.Enqueue(ctx, "POS-01", "", &EnqueueRequest{PaymentMethod: "cash"})
	require.ErrorIs(t, err, utils.ErrEmptyLineItems)

	_, err = svc.Enqueue(ctx, "POS-01", "", &EnqueueRequest{
		LineItems:     []models.SaleLine{{Name: "Gold Ring", Quantity: 0, UnitPrice: 100}},
		PaymentMethod: "cash",
	})
	require.ErrorIs(t, err, utils.ErrInvalidQuantity)

	_, err = svc.Enqueue(ctx, "POS-01", "", &EnqueueRequest{
		LineItems: []models.SaleLine{{Name: "Gold Ring", Quantity: 1, UnitPrice: 100}},
	})
	require.ErrorIs(t, err, utils.ErrMissingPayment)
}

func TestSummaryCountsByStatus(t *testing.T) {
	store := newFakeQueueStore()
	svc := NewQueueService(store, &fakeGold{}, 3, 30)

	// Five pending sales worth 100 each.
	for _, id := range []string{"p1", "p2", "p3", "p4", "p5"} {
		require.NoError(t, store.Create(queuedSale(id, "POS-01", 100)))
	}
	// One synced.
	synced := queuedSale("s1", "POS-01", 999)
	require.NoError(t, store.Create(synced))
	synced.SyncStatus = models.SyncSynced
	synced.IsCommitted = true
	now := time.Now()
	synced.SyncedAt = &now
	require.NoError(t, store.Update(synced))
	// One failed (still pending sync).
	failed := queuedSale("f1", "POS-01", 50)
	require.NoError(t, store.Create(failed))
	failed.SyncStatus = models.SyncFailed
	failed.RetryCount = 1
	require.NoError(t, store.Update(failed))
	// One conflicted.
	conflicted := queuedSale("c1", "POS-01", 70)
	require.NoError(t, store.Create(conflicted))
	conflicted.SyncStatus = models.SyncConflict
	conflicted.HasConflict = true
	require.NoError(t, store.Update(conflicted))
	// Another device's queue must not leak in.
	require.NoError(t, store.Create(queuedSale("x1", "POS-02", 1_000_000)))

	summary, err := svc.Summary("POS-01")
	require.NoError(t, err)
	require.Equal(t, 8, summary.TotalTransactions)
	require.Equal(t, 6, summary.PendingSync)
	require.Equal(t, 1, summary.Synced)
	require.Equal(t, 1, summary.Failed)
	require.Equal(t, 1, summary.Conflicts)
	require.Equal(t, int64(550), summary.TotalPendingValue)
}

func TestSummaryToleratesMalformedPayload(t *testing.T) {
	store := newFakeQueueStore()
	svc := NewQueueService(store, &fakeGold{}, 3, 30)

	require.NoError(t, store.Create(queuedSale("ok", "POS-01", 200)))
	bad := queuedSale("bad", "POS-01", 0)
	require.NoError(t, store.Create(bad))
	bad.Payload = models.SalePayload{Malformed: true}
	require.NoError(t, store.Update(bad))

	summary, err := svc.Summary("POS-01")
	require.NoError(t, err)
	require.Equal(t, 2, summary.TotalTransactions)
	require.Equal(t, 2, summary.PendingSync)
	require.Equal(t, int64(200), summary.TotalPendingValue)
}

func TestCleanupDeletesOnlyOldCommittedRecords(t *testing.T) {
	store := newFakeQueueStore()
	svc := NewQueueService(store, &fakeGold{}, 3, 30)

	old := time.Now().AddDate(0, 0, -40)
	recent := time.Now().AddDate(0, 0, -5)

	// Old committed record: deleted.
	a := queuedSale("a", "POS-01", 100)
	require.NoError(t, store.Create(a))
	a.SyncStatus = models.SyncSynced
	a.IsCommitted = true
	a.SyncedAt = &old
	require.NoError(t, store.Update(a))

	// Recent committed record: kept.
	b := queuedSale("b", "POS-01", 100)
	require.NoError(t, store.Create(b))
	b.SyncStatus = models.SyncSynced
	b.IsCommitted = true
	b.SyncedAt = &recent
	require.NoError(t, store.Update(b))

	// Old but uncommitted: kept no matter the age.
	c := queuedSale("c", "POS-01", 100)
	require.NoError(t, store.Create(c))
	c.SyncStatus = models.SyncConflict
	c.HasConflict = true
	c.SyncAttemptedAt = &old
	require.NoError(t, store.Update(c))

	deleted, err := svc.Cleanup("POS-01", 30)
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)

	_, err = store.GetByID("a")
	require.Error(t, err)
	_, err = store.GetByID("b")
	require.NoError(t, err)
	_, err = store.GetByID("c")
	require.NoError(t, err)
}

func TestExportReturnsFullQueueOldestFirst(t *testing.T) {
	store := newFakeQueueStore()
	svc := NewQueueService(store, &fakeGold{}, 3, 30)

	require.NoError(t, store.Create(queuedSale("a", "POS-01", 100)))
	require.NoError(t, store.Create(queuedSale("b", "POS-01", 200)))

	records, err := svc.Export("POS-01")
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "a", records[0].ID)
	require.Equal(t, "b", records[1].ID)
}

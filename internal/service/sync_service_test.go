package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/TalaGit/tala_pos/internal/models"
)

func TestDrainQueueCommitsOldestFirst(t *testing.T) {
	store := newFakeQueueStore()
	committer := newFakeCommitter()
	svc := NewSyncService(store, committer, &fakeProbe{online: true}, 3)

	require.NoError(t, store.Create(queuedSale("a", "POS-01", 100)))
	require.NoError(t, store.Create(queuedSale("b", "POS-01", 200)))
	require.NoError(t, store.Create(queuedSale("c", "POS-01", 300)))

	dc := NewDeviceContext("POS-01", "Front Desk")
	result := svc.DrainQueue(context.Background(), dc)

	require.Equal(t, DrainCompleted, result.Status)
	require.Equal(t, 3, result.Pending)
	require.Equal(t, 3, result.Synced)
	require.Equal(t, []string{"a", "b", "c"}, committer.order())

	for _, id := range []string{"a", "b", "c"} {
		rec, err := store.GetByID(id)
		require.NoError(t, err)
		require.Equal(t, models.SyncSynced, rec.SyncStatus)
		require.True(t, rec.IsCommitted)
		require.NotNil(t, rec.CommittedInvoice)
		require.NotNil(t, rec.SyncedAt)
		require.Equal(t, 1, rec.RetryCount)
	}
}

func TestDrainQueueSkipsWhenOffline(t *testing.T) {
	store := newFakeQueueStore()
	committer := newFakeCommitter()
	svc := NewSyncService(store, committer, &fakeProbe{online: false}, 3)

	require.NoError(t, store.Create(queuedSale("a", "POS-01", 100)))

	dc := NewDeviceContext("POS-01", "Front Desk")
	result := svc.DrainQueue(context.Background(), dc)

	require.Equal(t, DrainNoConnection, result.Status)
	require.Empty(t, committer.order())
	require.False(t, dc.Online())

	rec, err := store.GetByID("a")
	require.NoError(t, err)
	require.Equal(t, models.SyncPending, rec.SyncStatus)
	require.Zero(t, rec.RetryCount)
}

func TestDrainQueueRejectsConcurrentDrain(t *testing.T) {
	store := newFakeQueueStore()
	committer := newFakeCommitter()
	svc := NewSyncService(store, committer, &fakeProbe{online: true}, 3)

	require.NoError(t, store.Create(queuedSale("a", "POS-01", 100)))

	block := make(chan struct{})
	started := make(chan struct{})
	committer.blockCh = block
	committer.startedCh = started

	dc := NewDeviceContext("POS-01", "Front Desk")

	done := make(chan *DrainResult, 1)
	go func() {
		done <- svc.DrainQueue(context.Background(), dc)
	}()

	<-started
	second := svc.DrainQueue(context.Background(), dc)
	require.Equal(t, DrainAlreadyRunning, second.Status)
	require.Zero(t, second.Synced)

	close(block)
	first := <-done
	require.Equal(t, DrainCompleted, first.Status)
	require.Equal(t, 1, first.Synced)
	require.False(t, dc.Draining())
}

func TestDrainQueueSyncedRecordsNotReattempted(t *testing.T) {
	store := newFakeQueueStore()
	committer := newFakeCommitter()
	svc := NewSyncService(store, committer, &fakeProbe{online: true}, 3)

	require.NoError(t, store.Create(queuedSale("a", "POS-01", 100)))

	dc := NewDeviceContext("POS-01", "Front Desk")
	first := svc.DrainQueue(context.Background(), dc)
	require.Equal(t, 1, first.Synced)

	second := svc.DrainQueue(context.Background(), dc)
	require.Equal(t, DrainCompleted, second.Status)
	require.Zero(t, second.Pending)
	require.Zero(t, second.Synced)
	require.Equal(t, []string{"a"}, committer.order())
}

func TestDrainQueueFailureRetriesThenConflicts(t *testing.T) {
	store := newFakeQueueStore()
	committer := newFakeCommitter()
	committer.failIDs["a"] = errors.New("insufficient stock: RING-18K")
	svc := NewSyncService(store, committer, &fakeProbe{online: true}, 2)

	rec := queuedSale("a", "POS-01", 100)
	rec.MaxRetries = 2
	require.NoError(t, store.Create(rec))

	dc := NewDeviceContext("POS-01", "Front Desk")

	first := svc.DrainQueue(context.Background(), dc)
	require.Equal(t, 1, first.Failed)
	require.Zero(t, first.Conflicts)

	got, err := store.GetByID("a")
	require.NoError(t, err)
	require.Equal(t, models.SyncFailed, got.SyncStatus)
	require.Equal(t, 1, got.RetryCount)
	require.NotNil(t, got.LastError)

	second := svc.DrainQueue(context.Background(), dc)
	require.Equal(t, 1, second.Conflicts)
	require.Zero(t, second.Failed)

	got, err = store.GetByID("a")
	require.NoError(t, err)
	require.Equal(t, models.SyncConflict, got.SyncStatus)
	require.True(t, got.HasConflict)
	require.Equal(t, 2, got.RetryCount)
	require.Equal(t, "insufficient stock: RING-18K", got.Conflict.Error)
	require.Equal(t, 2, got.Conflict.RetryCount)
	require.False(t, got.IsCommitted)

	// Conflicted records stay parked on later passes.
	third := svc.DrainQueue(context.Background(), dc)
	require.Zero(t, third.Pending)
	require.Len(t, second.Errors, 1)
	require.True(t, second.Errors[0].Conflicted)
}

func TestDrainQueueOneFailureDoesNotStopOthers(t *testing.T) {
	store := newFakeQueueStore()
	committer := newFakeCommitter()
	committer.failIDs["b"] = errors.New("customer ledger locked")
	svc := NewSyncService(store, committer, &fakeProbe{online: true}, 3)

	require.NoError(t, store.Create(queuedSale("a", "POS-01", 100)))
	require.NoError(t, store.Create(queuedSale("b", "POS-01", 200)))
	require.NoError(t, store.Create(queuedSale("c", "POS-01", 300)))

	dc := NewDeviceContext("POS-01", "Front Desk")
	result := svc.DrainQueue(context.Background(), dc)

	require.Equal(t, 2, result.Synced)
	require.Equal(t, 1, result.Failed)
	require.Equal(t, []string{"a", "c"}, committer.order())

	rec, err := store.GetByID("b")
	require.NoError(t, err)
	require.Equal(t, models.SyncFailed, rec.SyncStatus)
}

func TestDrainQueueDevicesAreIndependent(t *testing.T) {
	store := newFakeQueueStore()
	committer := newFakeCommitter()
	svc := NewSyncService(store, committer, &fakeProbe{online: true}, 3)

	require.NoError(t, store.Create(queuedSale("a1", "POS-01", 100)))
	require.NoError(t, store.Create(queuedSale("b1", "POS-02", 200)))
	require.NoError(t, store.Create(queuedSale("a2", "POS-01", 300)))

	registry := NewContextRegistry()
	resultA := svc.DrainQueue(context.Background(), registry.Get("POS-01", "Front"))
	require.Equal(t, 2, resultA.Synced)
	require.Equal(t, []string{"a1", "a2"}, committer.order())

	resultB := svc.DrainQueue(context.Background(), registry.Get("POS-02", "Back"))
	require.Equal(t, 1, resultB.Synced)
	require.Equal(t, []string{"a1", "a2", "b1"}, committer.order())
}

func TestDrainQueueStoreFailureCommitsNothing(t *testing.T) {
	store := newFakeQueueStore()
	committer := newFakeCommitter()
	svc := NewSyncService(store, committer, &fakeProbe{online: true}, 3)

	require.NoError(t, store.Create(queuedSale("a", "POS-01", 100)))
	store.failUpdate = true

	result := svc.DrainQueue(context.Background(), NewDeviceContext("POS-01", "Front"))
	require.Equal(t, DrainCompleted, result.Status)
	require.Zero(t, result.Synced)
	require.Len(t, result.Errors, 1)
	require.Empty(t, committer.order())

	// The stored record is untouched and drains normally once the store is back.
	store.failUpdate = false
	rec, err := store.GetByID("a")
	require.NoError(t, err)
	require.Equal(t, models.SyncPending, rec.SyncStatus)

	result = svc.DrainQueue(context.Background(), NewDeviceContext("POS-01", "Front"))
	require.Equal(t, 1, result.Synced)
}

func TestContextRegistryReturnsSameContext(t *testing.T) {
	registry := NewContextRegistry()
	a := registry.Get("POS-01", "Front")
	b := registry.Get("POS-01", "Front Renamed")
	require.Same(t, a, b)
	require.Equal(t, "Front Renamed", b.DeviceName)

	other := registry.Get("POS-02", "Back")
	require.NotSame(t, a, other)
}

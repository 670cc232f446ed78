package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/TalaGit/tala_pos/internal/models"
)

// fakeQueueStore is an in-memory QueueStore mirroring the SQL semantics of the
// real repository: eligibility filtering, creation-order drains, and
// committed-only deletion.
type fakeQueueStore struct {
	mu      sync.Mutex
	records map[string]models.QueuedTransaction
	seq     int

	failUpdate bool
}

func newFakeQueueStore() *fakeQueueStore {
	return &fakeQueueStore{records: make(map[string]models.QueuedTransaction)}
}

func (s *fakeQueueStore) Create(q *models.QueuedTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	q.CreatedAt = time.Unix(int64(s.seq), 0)
	q.UpdatedAt = q.CreatedAt
	s.records[q.ID] = *q
	return nil
}

func (s *fakeQueueStore) Update(q *models.QueuedTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpdate {
		return errors.New("store unavailable")
	}
	if _, ok := s.records[q.ID]; !ok {
		return sql.ErrNoRows
	}
	q.UpdatedAt = time.Now()
	s.records[q.ID] = *q
	return nil
}

func (s *fakeQueueStore) GetByID(id string) (*models.QueuedTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &rec, nil
}

func (s *fakeQueueStore) GetEligibleForDevice(deviceID string) ([]models.QueuedTransaction, error) {
	var list []models.QueuedTransaction
	for _, rec := range s.snapshot(deviceID) {
		if rec.Eligible() {
			list = append(list, rec)
		}
	}
	return list, nil
}

func (s *fakeQueueStore) ListByDevice(deviceID string) ([]models.QueuedTransaction, error) {
	return s.snapshot(deviceID), nil
}

func (s *fakeQueueStore) ListConflicts(deviceID string) ([]models.QueuedTransaction, error) {
	var list []models.QueuedTransaction
	for _, rec := range s.snapshot(deviceID) {
		if rec.HasConflict && rec.SyncStatus == models.SyncConflict {
			list = append(list, rec)
		}
	}
	// newest first
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (s *fakeQueueStore) DeleteCommittedBefore(deviceID string, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for id, rec := range s.records {
		if rec.DeviceID != deviceID || !rec.IsCommitted {
			continue
		}
		if rec.SyncedAt != nil && rec.SyncedAt.Before(cutoff) {
			delete(s.records, id)
			deleted++
		}
	}
	return deleted, nil
}

// snapshot returns device records sorted oldest first.
func (s *fakeQueueStore) snapshot(deviceID string) []models.QueuedTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []models.QueuedTransaction
	for _, rec := range s.records {
		if deviceID == "" || rec.DeviceID == deviceID {
			list = append(list, rec)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list
}

// fakeCommitter records commit order and fails the records listed in failIDs.
type fakeCommitter struct {
	mu        sync.Mutex
	committed []string
	failIDs   map[string]error
	invoiceN  int

	// blockCh, when set, makes the first commit signal startedCh and then wait
	// until blockCh is closed. Used to hold a drain in flight.
	blockCh   chan struct{}
	startedCh chan struct{}
}

func newFakeCommitter() *fakeCommitter {
	return &fakeCommitter{failIDs: make(map[string]error)}
}

func (c *fakeCommitter) CommitQueued(_ context.Context, rec *models.QueuedTransaction) (string, error) {
	c.mu.Lock()
	block := c.blockCh
	started := c.startedCh
	c.blockCh = nil
	c.startedCh = nil
	c.mu.Unlock()
	if block != nil {
		if started != nil {
			close(started)
		}
		<-block
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err, ok := c.failIDs[rec.ID]; ok {
		return "", err
	}
	c.committed = append(c.committed, rec.ID)
	c.invoiceN++
	return fmt.Sprintf("TLA-20260831-%06d", c.invoiceN), nil
}

func (c *fakeCommitter) order() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.committed...)
}

// fakeProbe reports a fixed connectivity state.
type fakeProbe struct{ online bool }

func (p *fakeProbe) Online(context.Context) bool { return p.online }

// fakeGold returns a fixed reference price.
type fakeGold struct{ price int64 }

func (g *fakeGold) CurrentPrice(context.Context) int64 { return g.price }

func queuedSale(id, deviceID string, total int64) *models.QueuedTransaction {
	return &models.QueuedTransaction{
		ID:         id,
		DeviceID:   deviceID,
		DeviceName: "Terminal",
		SyncStatus: models.SyncPending,
		MaxRetries: models.DefaultMaxRetries,
		Payload: models.SalePayload{
			LineItems: []models.SaleLine{
				{Name: "Gold Ring", SKU: "RING-18K", Quantity: 1, UnitPrice: total},
			},
			PaymentMethod: "cash",
			AmountPaid:    total,
			Subtotal:      total,
			TotalAmount:   total,
		},
	}
}

package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/TalaGit/tala_pos/internal/models"
)

type DrainStatus string

const (
	DrainCompleted      DrainStatus = "completed"
	DrainAlreadyRunning DrainStatus = "already_running"
	DrainNoConnection   DrainStatus = "no_connection"
)

// RecordError is one per-record failure collected during a drain pass.
type RecordError struct {
	RecordID   string `json:"recordId"`
	Error      string `json:"error"`
	Conflicted bool   `json:"conflicted"`
}

// DrainResult summarizes a single drain pass for one device.
type DrainResult struct {
	DeviceID  string        `json:"deviceId"`
	Status    DrainStatus   `json:"status"`
	Pending   int           `json:"pending"`
	Synced    int           `json:"synced"`
	Failed    int           `json:"failed"`
	Conflicts int           `json:"conflicts"`
	Errors    []RecordError `json:"errors,omitempty"`
}

// SyncService drains queued transactions into the shared ledger. All failure
// handling happens inside DrainQueue: individual record errors are recorded on
// the record and in the result, never returned.
type SyncService struct {
	store      QueueStore
	committer  SaleCommitter
	probe      ConnectivityChecker
	maxRetries int
}

func NewSyncService(store QueueStore, committer SaleCommitter, probe ConnectivityChecker, maxRetries int) *SyncService {
	if maxRetries < 1 {
		maxRetries = models.DefaultMaxRetries
	}
	return &SyncService{
		store:      store,
		committer:  committer,
		probe:      probe,
		maxRetries: maxRetries,
	}
}

// DrainQueue pushes every eligible record for one device to the ledger, oldest
// first. At most one drain runs per device at a time; a second caller gets
// already_running back immediately. Each record is attempted exactly once per
// pass, and a record that exhausts its retry budget is parked as a conflict
// for an operator instead of being retried forever.
func (s *SyncService) DrainQueue(ctx context.Context, dc *DeviceContext) *DrainResult {
	result := &DrainResult{DeviceID: dc.DeviceID, Status: DrainCompleted}

	if !dc.BeginDrain() {
		result.Status = DrainAlreadyRunning
		return result
	}
	defer dc.EndDrain()

	if !s.probe.Online(ctx) {
		dc.SetOnline(false)
		result.Status = DrainNoConnection
		log.Debug().Str("device_id", dc.DeviceID).Msg("Skipping drain, no connection to central store")
		return result
	}
	dc.SetOnline(true)

	records, err := s.store.GetEligibleForDevice(dc.DeviceID)
	if err != nil {
		log.Error().Err(err).Str("device_id", dc.DeviceID).Msg("Failed to load eligible queue records")
		result.Errors = append(result.Errors, RecordError{Error: err.Error()})
		return result
	}
	result.Pending = len(records)
	if len(records) == 0 {
		return result
	}

	log.Info().
		Str("device_id", dc.DeviceID).
		Str("device_name", dc.DeviceName).
		Int("pending", len(records)).
		Msg("Draining offline queue")

	for i := range records {
		s.attempt(ctx, &records[i], result)
	}

	log.Info().
		Str("device_id", dc.DeviceID).
		Int("synced", result.Synced).
		Int("failed", result.Failed).
		Int("conflicts", result.Conflicts).
		Msg("Drain pass finished")

	return result
}

func (s *SyncService) attempt(ctx context.Context, rec *models.QueuedTransaction, result *DrainResult) {
	if rec.MaxRetries < 1 {
		rec.MaxRetries = s.maxRetries
	}

	now := time.Now()
	rec.SyncStatus = models.SyncSyncing
	rec.SyncAttemptedAt = &now
	rec.RetryCount++
	if err := s.store.Update(rec); err != nil {
		log.Error().Err(err).Str("record_id", rec.ID).Msg("Failed to mark record syncing")
		result.Errors = append(result.Errors, RecordError{RecordID: rec.ID, Error: err.Error()})
		return
	}

	invoice, err := s.committer.CommitQueued(ctx, rec)
	if err != nil {
		s.recordFailure(rec, err, result)
		return
	}

	syncedAt := time.Now()
	rec.SyncStatus = models.SyncSynced
	rec.IsCommitted = true
	rec.CommittedInvoice = &invoice
	rec.SyncedAt = &syncedAt
	rec.LastError = nil
	rec.HasConflict = false
	rec.Conflict = models.ConflictInfo{}
	if err := s.store.Update(rec); err != nil {
		// The sale is committed; the queue record just missed its bookkeeping.
		// Leave it for the next pass, where commit will refuse the duplicate.
		log.Error().Err(err).Str("record_id", rec.ID).Msg("Failed to mark record synced")
		result.Errors = append(result.Errors, RecordError{RecordID: rec.ID, Error: err.Error()})
		return
	}
	result.Synced++
}

func (s *SyncService) recordFailure(rec *models.QueuedTransaction, cause error, result *DrainResult) {
	msg := cause.Error()
	rec.LastError = &msg

	if rec.RetryCount >= rec.MaxRetries {
		rec.SyncStatus = models.SyncConflict
		rec.HasConflict = true
		rec.Conflict = models.ConflictInfo{
			Error:         msg,
			RetryCount:    rec.RetryCount,
			LastAttemptAt: time.Now(),
		}
		result.Conflicts++
		log.Warn().
			Str("record_id", rec.ID).
			Str("device_id", rec.DeviceID).
			Int("retry_count", rec.RetryCount).
			Str("error", msg).
			Msg("Queue record exhausted retries, parked as conflict")
	} else {
		rec.SyncStatus = models.SyncFailed
		result.Failed++
		log.Warn().
			Str("record_id", rec.ID).
			Int("retry_count", rec.RetryCount).
			Str("error", msg).
			Msg("Queue record sync failed, will retry")
	}

	result.Errors = append(result.Errors, RecordError{
		RecordID:   rec.ID,
		Error:      msg,
		Conflicted: rec.HasConflict,
	})

	if err := s.store.Update(rec); err != nil {
		log.Error().Err(err).Str("record_id", rec.ID).Msg("Failed to persist record failure state")
	}
}

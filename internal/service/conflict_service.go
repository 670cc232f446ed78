package service

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/TalaGit/tala_pos/internal/models"
	"github.com/TalaGit/tala_pos/internal/utils"
)

// BulkResolveItem is one entry of a bulk resolution request, keyed by record ID.
type BulkResolveItem struct {
	Action models.ResolutionAction    `json:"action" binding:"required"`
	Patch  map[string]json.RawMessage `json:"patch,omitempty"`
}

// BulkResolveResult reports the outcome of each record independently; one bad
// entry never rolls back the rest.
type BulkResolveResult struct {
	Resolved int               `json:"resolved"`
	Failed   int               `json:"failed"`
	Errors   map[string]string `json:"errors,omitempty"`
}

// ConflictService applies operator decisions to queue records that exhausted
// their automatic retries.
type ConflictService struct {
	store QueueStore
}

func NewConflictService(store QueueStore) *ConflictService {
	return &ConflictService{store: store}
}

// List returns unresolved conflicts, newest first. An empty deviceID lists
// conflicts across all terminals.
func (s *ConflictService) List(deviceID string) ([]models.QueuedTransaction, error) {
	return s.store.ListConflicts(deviceID)
}

// Resolve applies one operator decision:
//
//   - retry: clear the conflict, reset the retry budget, back to pending.
//   - skip: abandon the sale. The record goes to failed with its retry budget
//     still exhausted, so it never drains again; the payload is kept intact
//     and cleanup never touches it (it is uncommitted).
//   - manual_merge: overlay the operator's corrected fields onto the payload,
//     then requeue like retry.
func (s *ConflictService) Resolve(id string, action models.ResolutionAction, patch map[string]json.RawMessage) (*models.QueuedTransaction, error) {
	rec, err := s.store.GetByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrRecordNotFound
		}
		return nil, err
	}
	if !rec.HasConflict || rec.SyncStatus != models.SyncConflict {
		return nil, utils.ErrNotInConflict
	}

	switch action {
	case models.ResolveRetry:
		rec.SyncStatus = models.SyncPending
		rec.HasConflict = false
		rec.Conflict = models.ConflictInfo{}
		rec.RetryCount = 0
		rec.LastError = nil

	case models.ResolveSkip:
		// The exhausted retry count keeps the record out of the drain path,
		// so failed here is permanent until an explicit retry.
		rec.SyncStatus = models.SyncFailed
		rec.HasConflict = false
		rec.Conflict.Resolution = "skipped"

	case models.ResolveManualMerge:
		if len(patch) == 0 {
			return nil, utils.ErrMissingPatch
		}
		if err := rec.Payload.Merge(patch); err != nil {
			return nil, fmt.Errorf("%w: %v", utils.ErrMalformedPayload, err)
		}
		rec.SyncStatus = models.SyncPending
		rec.HasConflict = false
		rec.Conflict = models.ConflictInfo{}
		rec.RetryCount = 0
		rec.LastError = nil

	default:
		return nil, utils.ErrInvalidAction
	}

	if err := s.store.Update(rec); err != nil {
		return nil, err
	}

	log.Info().
		Str("record_id", rec.ID).
		Str("device_id", rec.DeviceID).
		Str("action", string(action)).
		Msg("Conflict resolved")

	return rec, nil
}

// ResolveBulk resolves many conflicts in one call, each independently.
func (s *ConflictService) ResolveBulk(items map[string]BulkResolveItem) *BulkResolveResult {
	result := &BulkResolveResult{Errors: make(map[string]string)}
	for id, item := range items {
		if _, err := s.Resolve(id, item.Action, item.Patch); err != nil {
			result.Failed++
			result.Errors[id] = err.Error()
			continue
		}
		result.Resolved++
	}
	if len(result.Errors) == 0 {
		result.Errors = nil
	}
	return result
}

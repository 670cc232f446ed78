package repository

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/TalaGit/tala_pos/internal/models"
)

// QueueRepository handles data access for the offline transaction queue.
type QueueRepository struct {
	db *sqlx.DB
}

// NewQueueRepository creates a new QueueRepository.
func NewQueueRepository(db *sqlx.DB) *QueueRepository {
	return &QueueRepository{db: db}
}

// Create inserts a new queue record.
func (r *QueueRepository) Create(q *models.QueuedTransaction) error {
	const query = `
        INSERT INTO pos_queue (
            id, device_id, device_name, payload, sync_status, is_committed,
            retry_count, max_retries, last_error, committed_invoice,
            has_unresolved_conflict, conflict_data, sync_attempted_at, synced_at
        ) VALUES (
            $1,$2,$3,$4,$5,$6,
            $7,$8,$9,$10,
            $11,$12,$13,$14
        ) RETURNING created_at, updated_at`

	return r.db.QueryRow(query,
		q.ID, q.DeviceID, q.DeviceName, q.Payload, q.SyncStatus, q.IsCommitted,
		q.RetryCount, q.MaxRetries, q.LastError, q.CommittedInvoice,
		q.HasConflict, q.Conflict, q.SyncAttemptedAt, q.SyncedAt,
	).Scan(&q.CreatedAt, &q.UpdatedAt)
}

// Update persists every mutable field of an existing queue record.
func (r *QueueRepository) Update(q *models.QueuedTransaction) error {
	const query = `
        UPDATE pos_queue SET
            payload = $2,
            sync_status = $3,
            is_committed = $4,
            retry_count = $5,
            max_retries = $6,
            last_error = $7,
            committed_invoice = $8,
            has_unresolved_conflict = $9,
            conflict_data = $10,
            sync_attempted_at = $11,
            synced_at = $12,
            updated_at = NOW()
        WHERE id = $1`

	_, err := r.db.Exec(query,
		q.ID, q.Payload, q.SyncStatus, q.IsCommitted,
		q.RetryCount, q.MaxRetries, q.LastError, q.CommittedInvoice,
		q.HasConflict, q.Conflict, q.SyncAttemptedAt, q.SyncedAt,
	)
	return err
}

// GetByID returns a queue record by storage identifier.
func (r *QueueRepository) GetByID(id string) (*models.QueuedTransaction, error) {
	const query = `SELECT * FROM pos_queue WHERE id = $1 LIMIT 1`
	var q models.QueuedTransaction
	if err := r.db.Get(&q, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return &q, nil
}

// GetEligibleForDevice returns uncommitted pending/failed records with retry
// budget remaining for one device, oldest first. Creation order matters: later
// sales may depend on inventory decremented by earlier ones. The retry guard
// keeps operator-skipped records (failed with an exhausted budget)
// permanently out of the drain path.
func (r *QueueRepository) GetEligibleForDevice(deviceID string) ([]models.QueuedTransaction, error) {
	const query = `
        SELECT * FROM pos_queue
        WHERE device_id = $1
          AND is_committed = false
          AND sync_status IN ('pending', 'failed')
          AND retry_count < max_retries
        ORDER BY created_at ASC
        FOR UPDATE SKIP LOCKED`

	var list []models.QueuedTransaction
	if err := r.db.Select(&list, query, deviceID); err != nil {
		return nil, err
	}
	return list, nil
}

// ListByDevice returns every queue record for a device regardless of state,
// oldest first. Used by summary and export.
func (r *QueueRepository) ListByDevice(deviceID string) ([]models.QueuedTransaction, error) {
	const query = `SELECT * FROM pos_queue WHERE device_id = $1 ORDER BY created_at ASC`
	var list []models.QueuedTransaction
	if err := r.db.Select(&list, query, deviceID); err != nil {
		return nil, err
	}
	return list, nil
}

// ListConflicts returns unresolved conflict records, newest first. An empty
// deviceID means all devices.
func (r *QueueRepository) ListConflicts(deviceID string) ([]models.QueuedTransaction, error) {
	query := `
        SELECT * FROM pos_queue
        WHERE has_unresolved_conflict = true AND sync_status = 'conflict'`
	args := []interface{}{}
	if deviceID != "" {
		query += ` AND device_id = $1`
		args = append(args, deviceID)
	}
	query += ` ORDER BY created_at DESC`

	var list []models.QueuedTransaction
	if err := r.db.Select(&list, query, args...); err != nil {
		return nil, err
	}
	return list, nil
}

// DeleteCommittedBefore removes committed records synced before the cutoff.
// Unsynced and conflicted records are never touched regardless of age.
func (r *QueueRepository) DeleteCommittedBefore(deviceID string, cutoff time.Time) (int64, error) {
	const query = `
        DELETE FROM pos_queue
        WHERE device_id = $1
          AND is_committed = true
          AND synced_at IS NOT NULL
          AND synced_at < $2`

	res, err := r.db.Exec(query, deviceID, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/TalaGit/tala_pos/internal/repository"
	"github.com/TalaGit/tala_pos/internal/service"
)

// CleanupWorker periodically removes committed queue records that are past the
// retention window. Uncommitted records are never deleted.
type CleanupWorker struct {
	queueService *service.QueueService
	deviceRepo   *repository.DeviceRepository
	interval     time.Duration
}

// NewCleanupWorker constructs a CleanupWorker.
func NewCleanupWorker(queueService *service.QueueService, deviceRepo *repository.DeviceRepository, interval time.Duration) *CleanupWorker {
	return &CleanupWorker{
		queueService: queueService,
		deviceRepo:   deviceRepo,
		interval:     interval,
	}
}

// Start begins the periodic cleanup loop and listens for context cancellation.
func (w *CleanupWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting cleanup worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Cleanup worker stopped")
			return
		}
	}
}

func (w *CleanupWorker) run(ctx context.Context) {
	devices, err := w.deviceRepo.List()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list devices for cleanup")
		return
	}

	var total int64
	for _, device := range devices {
		if ctx.Err() != nil {
			return
		}
		deleted, err := w.queueService.Cleanup(device.ID, 0)
		if err != nil {
			continue
		}
		total += deleted
	}
	if total > 0 {
		log.Info().Int64("deleted", total).Msg("Retention cleanup pass completed")
	}
}

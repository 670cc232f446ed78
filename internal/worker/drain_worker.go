package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/TalaGit/tala_pos/internal/repository"
	"github.com/TalaGit/tala_pos/internal/service"
)

// DrainWorker periodically drains the offline queue of every active terminal.
// It shares the per-device contexts with the HTTP handlers, so a scheduled
// pass and a terminal-triggered "sync now" never overlap for the same device.
type DrainWorker struct {
	syncService *service.SyncService
	deviceRepo  *repository.DeviceRepository
	registry    *service.ContextRegistry
	interval    time.Duration
}

// NewDrainWorker constructs a DrainWorker.
func NewDrainWorker(syncService *service.SyncService, deviceRepo *repository.DeviceRepository, registry *service.ContextRegistry, interval time.Duration) *DrainWorker {
	return &DrainWorker{
		syncService: syncService,
		deviceRepo:  deviceRepo,
		registry:    registry,
		interval:    interval,
	}
}

// Start begins the periodic drain loop and listens for context cancellation.
func (w *DrainWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting drain worker")

	// Run immediately on start
	w.run(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Drain worker stopped")
			return
		}
	}
}

func (w *DrainWorker) run(ctx context.Context) {
	devices, err := w.deviceRepo.ListActive()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list active devices")
		return
	}

	for _, device := range devices {
		if ctx.Err() != nil {
			return
		}
		dc := w.registry.Get(device.ID, device.Name)
		result := w.syncService.DrainQueue(ctx, dc)
		if result.Status == service.DrainNoConnection {
			// One probe failure means they would all fail this round.
			log.Debug().Msg("Central store unreachable, skipping remaining devices")
			return
		}
	}
}

package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/TalaGit/tala_pos/internal/cache"
	"github.com/TalaGit/tala_pos/internal/config"
	"github.com/TalaGit/tala_pos/internal/database"
	"github.com/TalaGit/tala_pos/internal/handler"
	"github.com/TalaGit/tala_pos/internal/middleware"
	"github.com/TalaGit/tala_pos/internal/repository"
	"github.com/TalaGit/tala_pos/internal/service"
	"github.com/TalaGit/tala_pos/internal/worker"
)

// main is the application entrypoint for the Tala POS sync backend.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting tala pos api")

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	// 3c. Initialize gold price cache
	goldCache := cache.NewGoldPriceCache(redisClient, cfg.GoldPrice.CacheTTL)

	// 4. Initialize repositories
	queueRepo := repository.NewQueueRepository(db)
	trxRepo := repository.NewTransactionRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	jewelryRepo := repository.NewJewelryRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)
	adminRepo := repository.NewAdminUserRepository(db)

	// 5. Initialize services
	probe := service.NewHTTPProbe(cfg.Sync.ProbeURL, cfg.Sync.ProbeTimeout)
	goldSvc := service.NewGoldPriceService(cfg.GoldPrice.Endpoint, goldCache)
	authSvc := service.NewAuthService(deviceRepo)
	adminAuthSvc := service.NewAdminAuthService(adminRepo)
	trxSvc := service.NewTransactionService(trxRepo, customerRepo, jewelryRepo)
	queueSvc := service.NewQueueService(queueRepo, goldSvc, cfg.Sync.MaxRetries, cfg.Sync.RetentionDays)
	syncSvc := service.NewSyncService(queueRepo, trxSvc, probe, cfg.Sync.MaxRetries)
	conflictSvc := service.NewConflictService(queueRepo)

	// Per-device drain guards, shared by handlers and the drain worker.
	registry := service.NewContextRegistry()

	// 6. Initialize handlers
	handlers := &Handlers{
		Health:   handler.NewHealthHandler(db, redisClient, probe),
		POS:      handler.NewPOSHandler(queueSvc, syncSvc, registry),
		Conflict: handler.NewConflictHandler(conflictSvc),
		Device:   handler.NewDeviceHandler(authSvc, deviceRepo),
		Auth:     handler.NewAuthHandler(adminAuthSvc),
	}

	// 7. Initialize middleware
	deviceMw := middleware.NewDeviceAuthMiddleware(authSvc)
	jwtMw := middleware.NewJWTMiddleware()

	// 8. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, deviceMw, jwtMw)

	// 9. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 10. Start workers
	go worker.NewDrainWorker(syncSvc, deviceRepo, registry, cfg.Worker.DrainInterval).Start(ctx)
	go worker.NewCleanupWorker(queueSvc, deviceRepo, cfg.Worker.CleanupInterval).Start(ctx)

	// 11. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 12. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 13. Cancel context to stop workers
	cancel()

	// 14. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health   *handler.HealthHandler
	POS      *handler.POSHandler
	Conflict *handler.ConflictHandler
	Device   *handler.DeviceHandler
	Auth     *handler.AuthHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, deviceMiddleware *middleware.DeviceAuthMiddleware, jwtMiddleware *middleware.JWTMiddleware) {
	router.GET("/v1/health", handlers.Health.GetHealth)

	// Terminal routes (protected with device API key)
	pos := router.Group("/v1/pos")
	pos.Use(deviceMiddleware.Handle())
	{
		pos.POST("/queue", handlers.POS.Enqueue)
		pos.POST("/sync", handlers.POS.Sync)
		pos.GET("/summary", handlers.POS.Summary)
		pos.GET("/export", handlers.POS.Export)
	}

	// Admin routes
	admin := router.Group("/v1/admin")
	admin.POST("/auth/login", handlers.Auth.Login)
	admin.Use(jwtMiddleware.Handle())
	{
		// Device Management
		admin.POST("/devices", handlers.Device.Register)
		admin.GET("/devices", handlers.Device.List)
		admin.POST("/devices/:id/regenerate", handlers.Device.RegenerateKey)
		admin.PUT("/devices/:id/active", handlers.Device.SetActive)

		// Conflict Resolution
		admin.GET("/conflicts", handlers.Conflict.List)
		admin.POST("/conflicts/resolve-bulk", handlers.Conflict.ResolveBulk)
		admin.POST("/conflicts/:id/resolve", handlers.Conflict.Resolve)

		// Queue Maintenance
		admin.POST("/queue/cleanup", handlers.POS.Cleanup)
	}
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	// Run migrations
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

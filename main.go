package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pricewatch/config"
	"pricewatch/logger"
	"pricewatch/services/cache"
	"pricewatch/services/fetcher"
	"pricewatch/services/history"
	"pricewatch/services/notifier"
	"pricewatch/services/worker"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Int("products", len(cfg.Products)).
		Dur("schedule_interval", cfg.ScheduleInterval).
		Str("store_driver", cfg.Store.Driver).
		Str("fetcher_mode", cfg.Fetcher.Mode).
		Msg("Starting price tracker")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	services, err := initializeServices(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	// Create and start worker
	w := worker.NewWorker(
		ctx,
		cfg.Products,
		services.Fetcher,
		services.Store,
		services.Notifier,
		cfg.ScheduleInterval,
	)

	// Start worker in a goroutine
	workerDone := make(chan error, 1)
	go func() {
		log.Info().Msg("Starting price check worker")
		workerDone <- w.Start()
	}()

	// Wait for shutdown signal or worker exit
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
		<-workerDone
	case err := <-workerDone:
		if err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("Worker exited with error")
		} else {
			log.Info().Msg("Worker exited normally")
		}
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down gracefully...")
}

// Services holds all the initialized services
type Services struct {
	Fetcher  fetcher.PageFetcher
	Store    history.Store
	Notifier notifier.Notifier
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Store != nil {
		s.Store.Close()
	}
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{}

	// History store: sqlite by default, redis when configured
	switch cfg.Store.Driver {
	case "redis":
		store, err := history.NewRedisStore(ctx, cfg.Store.RedisAddr, cfg.Store.RedisDB)
		if err != nil {
			return nil, err
		}
		services.Store = store
		logger.Infof("Connected to Redis history store at %s (DB: %d)", cfg.Store.RedisAddr, cfg.Store.RedisDB)
	default:
		store, err := history.NewSQLiteStore(cfg.Store.DatabaseFile)
		if err != nil {
			return nil, err
		}
		services.Store = store
		logger.Infof("Opened sqlite history store at %s", cfg.Store.DatabaseFile)
	}

	// Cooldown cache: memcache when configured, in-process otherwise
	var cacheSvc cache.CacheService
	if cfg.MemcacheAddr != "" {
		cacheSvc = cache.NewMemcacheService(cfg.MemcacheAddr)
		logger.Infof("Using memcache cooldown cache at %s", cfg.MemcacheAddr)
	} else {
		cacheSvc = cache.NewMemoryService()
	}

	// Page fetcher
	timeout := time.Duration(cfg.Fetcher.TimeoutSeconds) * time.Second
	switch cfg.Fetcher.Mode {
	case "rendered":
		services.Fetcher = fetcher.NewRenderedFetcher(cfg.Fetcher.ChromeAddr, timeout)
		logger.Infof("Using rendered fetcher via %s", cfg.Fetcher.ChromeAddr)
	default:
		services.Fetcher = fetcher.NewHTTPFetcher(timeout, cacheSvc, cfg.BlockTime)
	}

	// Notifier
	if cfg.AlertSettings.Enabled {
		services.Notifier = notifier.NewSMTPNotifier(
			cfg.AlertSettings.SMTPHost,
			cfg.AlertSettings.SMTPPort,
			cfg.AlertSettings.SenderEmail,
			cfg.AlertSettings.RecipientEmail,
			cfg.SMTPPassword,
		)
		logger.Infof("Email alerts enabled for %s", cfg.AlertSettings.RecipientEmail)
	} else {
		services.Notifier = notifier.NewNoopNotifier()
	}

	return services, nil
}

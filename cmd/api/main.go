package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coursehunter/internal/catalog"
	"coursehunter/internal/config"
	"coursehunter/internal/database"
	"coursehunter/internal/handler"
	"coursehunter/internal/notify"
	"coursehunter/internal/ratelimit"
	"coursehunter/internal/repository"
	"coursehunter/internal/router"
	"coursehunter/internal/service"
	"coursehunter/internal/session"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is fine, the process environment is used as is.
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting coursehunter API server")
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		logger.Warn().Err(envErr).Msg("failed to read .env file")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.close()

	courses, err := openCatalog(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize catalog: %w", err)
	}
	logger.Info().Int("courses", courses.Len()).Msg("catalog ready")

	limiter := ratelimit.New(ratelimit.Policy{
		MaxPurchases: cfg.RateLimit.MaxPurchases,
		Window:       cfg.RateLimit.Window,
		Cooldown:     cfg.RateLimit.Cooldown,
	})
	sweeper := ratelimit.NewSweeper(store.history, cfg.RateLimit.SweepInterval, logger)
	// Deferred after store.close, so it runs first on every return path.
	stopSweeper := sweeper.Start(ctx)
	defer stopSweeper()

	sender := newSender(cfg.Telegram, logger)
	sessions := session.NewCookieStore(cfg.Session, logger)

	// Initialize services
	catalogService := service.NewCatalogService(courses, logger)
	orderService := service.NewOrderService(
		store.orders,
		store.history,
		catalogService,
		limiter,
		service.OrderNotifications{
			Sender:     sender,
			ChannelID:  cfg.Telegram.ChannelID,
			PriceLabel: cfg.Telegram.PriceLabel,
		},
		logger,
	)
	adminService := service.NewAdminService(store.orders, sender, cfg.Telegram.ChannelID, cfg.Admin.AccessCode, logger)
	requestService := service.NewRequestService(sender, cfg.Telegram.ChannelID, logger)

	mux := router.New(router.Handlers{
		Catalog:      handler.NewCatalogHandler(catalogService, logger),
		Session:      handler.NewSessionHandler(sessions, orderService, logger),
		Order:        handler.NewOrderHandler(orderService, sessions, logger),
		Request:      handler.NewRequestHandler(requestService, sessions, logger),
		Admin:        handler.NewAdminHandler(adminService, sessions, logger),
		Sessions:     sessions,
		Authenticate: adminService.Authenticate,
	}, logger)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// stores bundles the repositories of the configured driver.
type stores struct {
	orders  repository.OrderRepository
	history repository.PurchaseHistoryRepository
	close   func()
}

func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*stores, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverSQLite:
		db, err := database.OpenSQLite(ctx, cfg.SQLite.Path, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := repository.MigrateSQLite(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return &stores{
			orders:  repository.NewSQLiteOrderRepository(db, logger),
			history: repository.NewSQLitePurchaseHistoryRepository(db, logger),
			close:   func() { db.Close() },
		}, nil

	default:
		pool, err := database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := repository.MigratePostgres(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return &stores{
			orders:  repository.NewOrderRepository(pool, logger),
			history: repository.NewPurchaseHistoryRepository(pool, logger),
			close:   pool.Close,
		}, nil
	}
}

// openCatalog loads the catalog from S3 with a local fallback, or the
// embedded catalog when no path is configured.
func openCatalog(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*catalog.Catalog, error) {
	if cfg.Catalog.Path == "" {
		logger.Info().Msg("using embedded course catalog")
		return catalog.Default()
	}

	fileLoader := catalog.NewFileLoader(logger)
	loader := fileLoader

	if cfg.S3.Enabled {
		s3Loader, err := catalog.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
		} else {
			loader = catalog.NewFallbackLoader(s3Loader, fileLoader, cfg.S3.Prefix, true, logger)
		}
	} else {
		logger.Info().Msg("using local file system for catalog files (S3 disabled)")
	}

	return catalog.Open(ctx, loader, cfg.Catalog.Path)
}

func newSender(cfg config.TelegramConfig, logger zerolog.Logger) notify.Sender {
	if cfg.BotToken == "" {
		logger.Warn().Msg("no telegram bot token configured, notifications are only logged")
		return notify.NewLogSender(logger)
	}
	client := &http.Client{Timeout: cfg.Timeout}
	return notify.NewTelegramSender(cfg.BotToken, cfg.APIBaseURL, client, logger)
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openledger-engine/internal/api_gateway"
	"github.com/openledger-engine/internal/api_gateway/service"
	"github.com/openledger-engine/internal/config"
	"github.com/openledger-engine/internal/data/mongo"
	"github.com/openledger-engine/internal/data/postgres"
	"github.com/openledger-engine/internal/domain/account"
	"github.com/openledger-engine/internal/domain/archive"
	"github.com/openledger-engine/internal/ledger"
	"github.com/openledger-engine/internal/logger"
	"github.com/openledger-engine/internal/platform/messaging/producers"
	"github.com/openledger-engine/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("ledger_engine")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Ledger Engine",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	// Initialize PostgreSQL with app context (runs migrations)
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	// MongoDB backs the optional entry archive
	var mongoDB *persistence.MongoDB
	var entryArchive archive.Repository
	if cfg.MongoDB.Enabled {
		mongoDB, err = persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
		if err != nil {
			log.Error("Failed to initialize MongoDB", "error", err)
			os.Exit(1)
		}
		entryArchive = mongo.NewEntryArchive(log, mongoDB.Database())
	}

	// Kafka publishing of posted transactions is optional
	var publisher service.TransactionPublisher
	var kafkaProducer *producers.PostedTransactionProducer
	if cfg.Kafka.Enabled {
		kafkaProducer, err = producers.NewPostedTransactionProducer(appCtx, log, &cfg.Kafka)
		if err != nil {
			log.Error("Failed to initialize Kafka producer", "error", err)
			os.Exit(1)
		}
		publisher = kafkaProducer
	}

	// Initialize repositories
	accountRepo := postgres.NewAccountRepository(log, postgresDB)
	journalRepo := postgres.NewJournalRepository(log, postgresDB)
	assetRepo := postgres.NewAssetRepository(log, postgresDB)
	unitsRepo := postgres.NewUnitsRepository(log, postgresDB)
	recurringRepo := postgres.NewRecurringRepository(log, postgresDB)

	// Build the chart-of-accounts index from the stored accounts
	accounts, err := accountRepo.ListAll(appCtx)
	if err != nil {
		log.Error("Failed to load chart of accounts", "error", err)
		os.Exit(1)
	}
	chart, err := account.NewChart(accounts)
	if err != nil {
		log.Error("Failed to index chart of accounts", "error", err)
		os.Exit(1)
	}
	log.Info("Chart of accounts loaded", "accounts", len(accounts))

	// Initialize the computation engine, replaying the committed log
	engine, err := ledger.New(appCtx, log,
		ledger.Options{
			CacheEnabled:   cfg.Ledger.CacheEnabled,
			WorkerPoolSize: cfg.WorkerPool.Size,
		},
		chart, journalRepo, assetRepo, unitsRepo, recurringRepo,
	)
	if err != nil {
		log.Error("Failed to initialize ledger engine", "error", err)
		os.Exit(1)
	}

	// Initialize services
	ledgerService := service.NewLedgerService(log, engine, entryArchive, publisher)
	reportService := service.NewReportService(log, engine)
	schedulerService := service.NewSchedulerService(log, engine)

	// Initialize REST server
	server := api_gateway.NewServer(log, cfg, ledgerService, reportService, schedulerService)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Start the in-process scheduler tick loop
	if cfg.Scheduler.Enabled {
		go runSchedulerLoop(appCtx, log, schedulerService, cfg.Scheduler.TickInterval)
	}

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	// Release the engine's tick worker pool
	engine.Close()

	if kafkaProducer != nil {
		if err = kafkaProducer.Close(); err != nil {
			log.Error("Error closing Kafka producer", "error", err)
		}
	}

	if mongoDB != nil {
		if err = mongoDB.Close(shutdownCtx); err != nil {
			log.Error("Error closing MongoDB connection", "error", err)
		}
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Ledger Engine shutdown completed with errors")
	} else {
		log.Info("Ledger Engine shutdown completed successfully")
	}
}

// runSchedulerLoop ticks the depreciation and recurrence schedulers on the
// configured interval until the context is cancelled. Both ticks catch up
// missed periods, so a long gap between ticks only delays postings.
func runSchedulerLoop(ctx context.Context, log *slog.Logger, scheduler service.SchedulerService, interval time.Duration) {
	log.Info("Starting scheduler loop", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	tick := func() {
		today := time.Now().UTC()
		if _, err := scheduler.TickDepreciation(ctx, today); err != nil {
			log.Error("Depreciation tick failed", "error", err)
		}
		if _, err := scheduler.TickRecurrence(ctx, today); err != nil {
			log.Error("Recurrence tick failed", "error", err)
		}
	}

	// Run one tick at startup to catch up anything that came due while the
	// engine was down.
	tick()

	for {
		select {
		case <-ctx.Done():
			log.Info("Scheduler loop stopped")
			return
		case <-ticker.C:
			tick()
		}
	}
}

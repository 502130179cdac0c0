package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/brankas/brankas/internal/api"
	"github.com/brankas/brankas/internal/api/handlers"
	"github.com/brankas/brankas/internal/app"
	"github.com/brankas/brankas/internal/config"
	"github.com/brankas/brankas/internal/jobs/inmemory"
	"github.com/brankas/brankas/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Parse command-line flags
	port := flag.String("port", cfg.Port, "HTTP server port (or set PORT env)")
	flag.Parse()

	log := logger.NewWithLevel(logger.ParseLevel(cfg.LogLevel))

	// Amounts go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	ctx := context.Background()

	st, err := app.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer st.Close()

	ledgerService, closeCache, err := app.NewLedger(cfg, st, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create ledger service")
	}
	defer closeCache()

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, cfg.ReceiptWorkers, jobStore, inmemory.WithLogger(log))

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	deps := api.Deps{Ledger: ledgerService, Jobs: jobStore}

	rcpt, err := app.NewReceipts(ctx, cfg, st, ledgerService, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up receipts")
	}
	if rcpt == nil {
		log.Warn().Msg("No receipts bucket configured - receipt uploads will be disabled")
	} else {
		defer rcpt.Close()
		deps.Receipts = handlers.NewReceiptsHandler(rcpt.Processor, st, rcpt.Storage, jobQueue, log)

		// Start job consumer in background
		go func() {
			log.Info().Int("workers", cfg.ReceiptWorkers).Msg("Starting receipt worker")
			if err := jobQueue.Start(workerCtx, app.ScanJobHandler(rcpt.Processor, log)); err != nil {
				log.Error().Err(err).Msg("Job worker stopped with error")
			}
		}()
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      api.NewRouter(deps, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", *port).Str("store", cfg.StoreBackend).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Cancel worker context
	cancelWorker()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	// Close job queue
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}

// Command worker scans the receipt backlog: receipts that were uploaded
// but never scanned, and optionally those whose scan failed. It exits when
// every queued job has finished.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/brankas/brankas/internal/app"
	"github.com/brankas/brankas/internal/config"
	"github.com/brankas/brankas/internal/domain"
	"github.com/brankas/brankas/internal/jobs"
	"github.com/brankas/brankas/internal/jobs/inmemory"
	"github.com/brankas/brankas/internal/logger"
)

func main() {
	retryFailed := flag.Bool("retry-failed", false, "also rescan receipts whose last scan failed")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Invalid configuration")
	}
	log := logger.Component(logger.NewWithLevel(logger.ParseLevel(cfg.LogLevel)), "worker")

	// Create context that cancels on interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

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

	rcpt, err := app.NewReceipts(ctx, cfg, st, ledgerService, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up receipts")
	}
	if rcpt == nil {
		log.Fatal().Msg("RECEIPTS_BUCKET and GCP_PROJECT_ID are required")
	}
	defer rcpt.Close()

	all, err := st.ListReceipts(ctx, "")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list receipts")
	}
	backlog := selectBacklog(all, *retryFailed)
	if len(backlog) == 0 {
		log.Info().Msg("No receipts waiting to be scanned")
		return
	}

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(len(backlog), cfg.ReceiptWorkers, jobStore, inmemory.WithLogger(log))

	log.Info().Int("receipts", len(backlog)).Int("workers", cfg.ReceiptWorkers).Msg("Starting worker service")

	if err := jobQueue.Start(ctx, app.ScanJobHandler(rcpt.Processor, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}
	for _, rc := range backlog {
		job := &jobs.ReceiptScanJob{ReceiptID: rc.ID, TransactionID: rc.TransactionID}
		if err := jobQueue.PublishReceiptScan(ctx, job); err != nil {
			log.Fatal().Err(err).Str("receipt_id", rc.ID).Msg("Failed to enqueue receipt")
		}
	}

	waitForJobs(ctx, jobStore, time.Second, log)

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop the queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	done, failed := countOutcomes(ctx, jobStore)
	log.Info().Int("completed", done).Int("failed", failed).Msg("Worker service exited")
}

// selectBacklog returns the receipts that still need a scan.
func selectBacklog(all []domain.Receipt, retryFailed bool) []domain.Receipt {
	var out []domain.Receipt
	for _, rc := range all {
		switch rc.Status {
		case domain.ReceiptUploaded:
			out = append(out, rc)
		case domain.ReceiptFailed:
			if retryFailed {
				out = append(out, rc)
			}
		}
	}
	return out
}

// waitForJobs polls until no job is pending, running or retrying, or ctx ends.
func waitForJobs(ctx context.Context, store jobs.JobStore, every time.Duration, log zerolog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		if !hasOpenJobs(ctx, store) {
			return
		}
		select {
		case <-ctx.Done():
			log.Warn().Msg("Interrupted before the backlog finished")
			return
		case <-ticker.C:
		}
	}
}

func hasOpenJobs(ctx context.Context, store jobs.JobStore) bool {
	list, err := store.ListJobs(ctx, jobs.JobFilter{})
	if err != nil {
		return false
	}
	for _, j := range list {
		switch j.Status {
		case jobs.JobStatusCompleted, jobs.JobStatusFailed:
		default:
			return true
		}
	}
	return false
}

func countOutcomes(ctx context.Context, store jobs.JobStore) (completed, failed int) {
	list, _ := store.ListJobs(context.WithoutCancel(ctx), jobs.JobFilter{})
	for _, j := range list {
		switch j.Status {
		case jobs.JobStatusCompleted:
			completed++
		case jobs.JobStatusFailed:
			failed++
		}
	}
	return completed, failed
}

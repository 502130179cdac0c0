// Package app wires configuration into the store, the ledger service and
// the receipt pipeline. The binaries under cmd share it.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/brankas/brankas/internal/cache"
	"github.com/brankas/brankas/internal/config"
	"github.com/brankas/brankas/internal/domain"
	infraBQ "github.com/brankas/brankas/internal/infra/bigquery"
	"github.com/brankas/brankas/internal/infra/postgres"
	"github.com/brankas/brankas/internal/jobs"
	"github.com/brankas/brankas/internal/ledger"
	"github.com/brankas/brankas/internal/receipts"
	"github.com/brankas/brankas/internal/service"
	"github.com/brankas/brankas/internal/store"
)

// OpenStore opens the backend selected by cfg. The postgres backend is
// migrated before it is returned.
func OpenStore(ctx context.Context, cfg config.Config, log zerolog.Logger) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendBigQuery:
		repo, err := infraBQ.NewRepository(ctx, cfg.ProjectID, cfg.Dataset)
		if err != nil {
			return nil, fmt.Errorf("OpenStore: %w", err)
		}
		log.Info().Str("project", cfg.ProjectID).Str("dataset", cfg.Dataset).Msg("Using BigQuery store")
		return repo, nil

	case config.BackendPostgres:
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("OpenStore: %w", err)
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("OpenStore: %w", err)
		}
		log.Info().Msg("Using PostgreSQL store")
		return postgres.NewRepository(pool), nil

	default:
		log.Warn().Msg("Using in-memory store, data is lost on exit")
		return store.NewMemory(), nil
	}
}

// NewLedger builds the engine and a cached service over st. The returned
// func releases the cache.
func NewLedger(cfg config.Config, st store.Store, log zerolog.Logger) (*service.Ledger, func(), error) {
	c, err := cache.New()
	if err != nil {
		return nil, nil, fmt.Errorf("NewLedger: %w", err)
	}
	engine := ledger.NewEngine(
		ledger.WithPolicy(ledger.Policy{AllowOverdraft: cfg.AllowOverdraft}),
		ledger.WithLogger(log),
	)
	return service.New(st, engine, service.WithCache(c), service.WithLogger(log)), c.Close, nil
}

// Receipts bundles the GCS storage and the processor built on it.
type Receipts struct {
	Storage   *receipts.Storage
	Processor *receipts.Processor
}

// NewReceipts connects to the receipts bucket and Gemini. It returns nil
// when cfg does not enable receipts.
func NewReceipts(ctx context.Context, cfg config.Config, st store.ReceiptStore, l *service.Ledger, log zerolog.Logger) (*Receipts, error) {
	if !cfg.ReceiptsEnabled() {
		return nil, nil
	}
	files, err := receipts.NewStorage(ctx, cfg.ReceiptsBucket)
	if err != nil {
		return nil, fmt.Errorf("NewReceipts: %w", err)
	}
	scanner, err := receipts.NewGeminiScanner(ctx, cfg.GeminiModel)
	if err != nil {
		files.Close()
		return nil, fmt.Errorf("NewReceipts: %w", err)
	}
	return &Receipts{
		Storage:   files,
		Processor: receipts.NewProcessor(files, scanner, st, l, l.Engine().NewID, log),
	}, nil
}

// Close releases the storage client.
func (r *Receipts) Close() error {
	if r == nil {
		return nil
	}
	return r.Storage.Close()
}

// Scanner is the part of the receipt processor a scan job needs.
type Scanner interface {
	Scan(ctx context.Context, receiptID string) (domain.Receipt, error)
}

// ScanJobHandler runs receipt scan jobs through p.
func ScanJobHandler(p Scanner, log zerolog.Logger) jobs.JobHandler {
	return func(ctx context.Context, job jobs.Job) error {
		scanJob, ok := job.(*jobs.ReceiptScanJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", scanJob.JobID).
			Str("receipt_id", scanJob.ReceiptID).
			Msg("Processing receipt scan job")

		rc, err := p.Scan(ctx, scanJob.ReceiptID)
		if err != nil {
			log.Error().
				Err(err).
				Str("job_id", scanJob.JobID).
				Str("receipt_id", scanJob.ReceiptID).
				Msg("Receipt scan failed")
			return err
		}

		log.Info().
			Str("job_id", scanJob.JobID).
			Str("receipt_id", rc.ID).
			Str("merchant", rc.Merchant).
			Msg("Receipt scan completed")
		return nil
	}
}

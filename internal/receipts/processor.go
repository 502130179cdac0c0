// Package receipts stores receipt files in Cloud Storage and reads their
// purchase details with a Gemini model.
package receipts

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/brankas/brankas/internal/domain"
	"github.com/brankas/brankas/internal/store"
)

// FileStore is the part of Storage the processor needs.
type FileStore interface {
	Upload(ctx context.Context, fileName, contentType string, r io.Reader) (string, error)
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// Attacher links a receipt to a ledger record.
type Attacher interface {
	AttachReceipt(ctx context.Context, transactionID, receiptURL string) error
}

type Processor struct {
	files    FileStore
	scanner  Scanner
	receipts store.ReceiptStore
	attacher Attacher
	newID    func() string
	now      func() time.Time
	log      zerolog.Logger
}

func NewProcessor(files FileStore, scanner Scanner, receipts store.ReceiptStore, attacher Attacher, newID func() string, log zerolog.Logger) *Processor {
	return &Processor{
		files:    files,
		scanner:  scanner,
		receipts: receipts,
		attacher: attacher,
		newID:    newID,
		now:      time.Now,
		log:      log.With().Str("component", "receipts").Logger(),
	}
}

var allowedTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// Register uploads a receipt file and records it as uploaded. The scan runs
// later through Scan.
func (p *Processor) Register(ctx context.Context, transactionID, fileName, mimeType string, r io.Reader) (domain.Receipt, error) {
	mimeType = strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]))
	if !allowedTypes[mimeType] {
		return domain.Receipt{}, fmt.Errorf("%w: unsupported receipt type %q", domain.ErrInvalid, mimeType)
	}

	uri, err := p.files.Upload(ctx, fileName, mimeType, r)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("Register: %w", err)
	}
	rc := domain.Receipt{
		ID:            p.newID(),
		TransactionID: transactionID,
		GCSURI:        uri,
		FileName:      fileName,
		MIMEType:      mimeType,
		Status:        domain.ReceiptUploaded,
		CreatedAt:     p.now().UTC(),
	}
	if err := p.receipts.InsertReceipt(ctx, rc); err != nil {
		return domain.Receipt{}, fmt.Errorf("Register: %w", err)
	}
	p.log.Info().Str("receipt_id", rc.ID).Str("gcs_uri", uri).Msg("Receipt uploaded")
	return rc, nil
}

// Scan reads a stored receipt and saves what the model found. A failed scan
// is recorded on the receipt and returned so the caller can retry.
func (p *Processor) Scan(ctx context.Context, receiptID string) (domain.Receipt, error) {
	rc, err := p.receipts.GetReceipt(ctx, receiptID)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("Scan: %w", err)
	}

	data, err := p.files.Fetch(ctx, rc.GCSURI)
	if err != nil {
		return rc, p.fail(ctx, rc, fmt.Errorf("Scan: %w", err))
	}
	ext, err := p.scanner.Scan(ctx, data, rc.MIMEType)
	if err != nil {
		return rc, p.fail(ctx, rc, fmt.Errorf("Scan: %w", err))
	}

	rc.Status = domain.ReceiptScanned
	rc.Error = ""
	rc.Merchant = ext.Merchant
	rc.Total = ext.Total
	rc.Currency = ext.Currency
	rc.PurchaseDate = ext.Date
	rc.Category = ext.Category
	rc.UpdatedAt = p.now().UTC()
	if err := p.receipts.UpdateReceipt(ctx, rc); err != nil {
		return rc, fmt.Errorf("Scan: saving result: %w", err)
	}

	if rc.TransactionID != "" && p.attacher != nil {
		if err := p.attacher.AttachReceipt(ctx, rc.TransactionID, rc.GCSURI); err != nil {
			return rc, fmt.Errorf("Scan: %w", err)
		}
	}
	p.log.Info().Str("receipt_id", rc.ID).Str("merchant", rc.Merchant).Msg("Receipt scanned")
	return rc, nil
}

func (p *Processor) fail(ctx context.Context, rc domain.Receipt, cause error) error {
	rc.Status = domain.ReceiptFailed
	rc.Error = cause.Error()
	rc.UpdatedAt = p.now().UTC()
	if err := p.receipts.UpdateReceipt(ctx, rc); err != nil {
		p.log.Error().Err(err).Str("receipt_id", rc.ID).Msg("Failed to record scan failure")
	}
	return cause
}

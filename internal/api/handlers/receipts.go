package handlers

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/brankas/brankas/internal/api/middleware"
	"github.com/brankas/brankas/internal/domain"
	"github.com/brankas/brankas/internal/jobs"
	"github.com/brankas/brankas/internal/store"
)

const (
	maxReceiptBytes = 10 << 20
	signedURLTTL    = 15 * time.Minute
)

// ReceiptRegistrar stores an uploaded receipt file.
type ReceiptRegistrar interface {
	Register(ctx context.Context, transactionID, fileName, mimeType string, r io.Reader) (domain.Receipt, error)
}

// URLSigner issues short-lived links to stored receipt files.
type URLSigner interface {
	SignedURL(uri string, ttl time.Duration) (string, error)
}

// ReceiptsHandler handles receipt upload and lookup.
type ReceiptsHandler struct {
	registrar ReceiptRegistrar
	receipts  store.ReceiptStore
	signer    URLSigner
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewReceiptsHandler creates a new receipts handler. signer may be nil.
func NewReceiptsHandler(registrar ReceiptRegistrar, receipts store.ReceiptStore, signer URLSigner, publisher jobs.Publisher, log zerolog.Logger) *ReceiptsHandler {
	return &ReceiptsHandler{
		registrar: registrar,
		receipts:  receipts,
		signer:    signer,
		publisher: publisher,
		log:       log,
	}
}

// UploadReceipt handles POST /api/receipts. The multipart form carries the
// image in "file" and the owning record in "transactionId"; scanning is
// queued as a job.
func (h *ReceiptsHandler) UploadReceipt(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxReceiptBytes)
	if err := r.ParseMultipartForm(maxReceiptBytes); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	transactionID := r.FormValue("transactionId")
	if transactionID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "transactionId is required")
		return
	}

	ctx := r.Context()
	rc, err := h.registrar.Register(ctx, transactionID, filepath.Base(header.Filename), header.Header.Get("Content-Type"), file)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to upload receipt")
		return
	}

	job := &jobs.ReceiptScanJob{ReceiptID: rc.ID, TransactionID: transactionID}
	if err := h.publisher.PublishReceiptScan(ctx, job); err != nil {
		h.log.Error().Err(err).Str("receipt_id", rc.ID).Msg("Failed to enqueue receipt scan")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue receipt scan")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("receipt_id", rc.ID).Msg("Receipt scan enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]any{
		"receipt": rc,
		"job_id":  job.JobID,
		"status":  string(job.Status),
	})
}

// GetReceipt handles GET /api/receipts/{id}
func (h *ReceiptsHandler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	rc, err := h.receipts.GetReceipt(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to get receipt")
		return
	}

	resp := map[string]any{"receipt": rc}
	if h.signer != nil {
		u, err := h.signer.SignedURL(rc.GCSURI, signedURLTTL)
		if err != nil {
			h.log.Warn().Err(err).Str("receipt_id", rc.ID).Msg("Failed to sign receipt URL")
		} else {
			resp["url"] = u
		}
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

// ListReceipts handles GET /api/receipts?transactionId=
func (h *ReceiptsHandler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	list, err := h.receipts.ListReceipts(r.Context(), r.URL.Query().Get("transactionId"))
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to list receipts")
		return
	}
	if list == nil {
		list = []domain.Receipt{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"receipts": list, "count": len(list)})
}

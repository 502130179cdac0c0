// Package handlers exposes the ledger service over HTTP.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/brankas/brankas/internal/api/middleware"
	"github.com/brankas/brankas/internal/domain"
	"github.com/brankas/brankas/internal/jobs"
	"github.com/brankas/brankas/internal/ledger"
	"github.com/brankas/brankas/internal/store"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// decodeJSON reads the request body into v and writes a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// statusFor maps service errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound), errors.Is(err, jobs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	}
	if _, ok := ledger.KindOf(err); ok {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// writeServiceError answers with the status for err. Client errors carry
// the error text; server errors are logged and answered with msg.
func writeServiceError(w http.ResponseWriter, r *http.Request, log zerolog.Logger, err error, msg string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Msg(msg)
		middleware.WriteError(w, status, msg)
		return
	}

	if kind, ok := ledger.KindOf(err); ok {
		var te *ledger.TransferError
		errors.As(err, &te)
		middleware.WriteJSON(w, status, map[string]string{"error": te.Message, "kind": string(kind)})
		return
	}
	middleware.WriteError(w, status, err.Error())
}

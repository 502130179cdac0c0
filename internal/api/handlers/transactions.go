package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/brankas/brankas/internal/api/middleware"
	"github.com/brankas/brankas/internal/domain"
	"github.com/brankas/brankas/internal/ledger"
	"github.com/brankas/brankas/internal/service"
)

// TransactionsHandler handles transaction and transfer endpoints.
type TransactionsHandler struct {
	ledger *service.Ledger
	log    zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(l *service.Ledger, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{ledger: l, log: log}
}

// ListTransactions handles GET /api/transactions
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, total, err := h.ledger.ListTransactions(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to list transactions")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"transactions": page,
		"count":        len(page),
		"total":        total,
	})
}

// GetTransaction handles GET /api/transactions/{id}
func (h *TransactionsHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := h.ledger.Transaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to get transaction")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, t)
}

// CreateTransaction handles POST /api/transactions
func (h *TransactionsHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var in domain.TransactionInput
	if !decodeJSON(w, r, &in) {
		return
	}
	t, err := h.ledger.CreateTransaction(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to create transaction")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, t)
}

// UpdateTransaction handles PUT /api/transactions/{id}
func (h *TransactionsHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var in domain.TransactionInput
	if !decodeJSON(w, r, &in) {
		return
	}
	t, err := h.ledger.UpdateTransaction(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to update transaction")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, t)
}

// DeleteTransaction handles DELETE /api/transactions/{id}. Deleting a
// transfer leg removes both legs.
func (h *TransactionsHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	ids, err := h.ledger.DeleteTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to delete transaction")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"deleted": ids})
}

// ToggleStruck handles POST /api/transactions/{id}/struck
func (h *TransactionsHandler) ToggleStruck(w http.ResponseWriter, r *http.Request) {
	t, err := h.ledger.ToggleStruck(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to update transaction")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, t)
}

// CreateTransfer handles POST /api/transfers. A refused transfer is
// answered with 422 and the result body.
func (h *TransactionsHandler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	var in domain.TransferInput
	if !decodeJSON(w, r, &in) {
		return
	}

	req, err := in.ToRequest()
	if err != nil {
		if domain.IsInvalidAmount(err) {
			middleware.WriteJSON(w, http.StatusUnprocessableEntity, ledger.Failed(&ledger.TransferError{
				Kind:    ledger.InvalidAmount,
				Message: err.Error(),
			}))
			return
		}
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.ledger.Transfer(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to process transfer")
		return
	}
	if !result.Success {
		middleware.WriteJSON(w, http.StatusUnprocessableEntity, result)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, result)
}

// parseFilter reads the history filter from query parameters.
func parseFilter(q url.Values) (ledger.Filter, error) {
	f := ledger.Filter{
		Search:    strings.TrimSpace(q.Get("search")),
		AccountID: q.Get("account"),
		Category:  q.Get("category"),
		Sort:      ledger.SortField(q.Get("sort")),
	}

	if s := q.Get("type"); s != "" {
		t, err := domain.ParseTransactionType(s)
		if err != nil {
			return f, err
		}
		f.Type = t
	}

	for _, p := range []struct {
		name string
		dst  **civil.Date
	}{{"from", &f.From}, {"to", &f.To}} {
		s := q.Get(p.name)
		if s == "" {
			continue
		}
		d, err := civil.ParseDate(s)
		if err != nil {
			return f, fmt.Errorf("invalid %s date %q", p.name, s)
		}
		*p.dst = &d
	}

	switch strings.ToLower(q.Get("order")) {
	case "asc":
	case "desc":
		f.Desc = true
	case "":
		// Newest first unless the client picks an order.
		f.Desc = f.Sort == "" || f.Sort == ledger.SortByDate
	default:
		return f, fmt.Errorf("order must be asc or desc")
	}

	for _, p := range []struct {
		name string
		dst  *int
	}{{"limit", &f.Limit}, {"offset", &f.Offset}} {
		s := q.Get(p.name)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return f, fmt.Errorf("invalid %s %q", p.name, s)
		}
		*p.dst = n
	}

	return f, f.Validate()
}

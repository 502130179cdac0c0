package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/brankas/brankas/internal/api/middleware"
	"github.com/brankas/brankas/internal/domain"
	"github.com/brankas/brankas/internal/service"
)

// AccountsHandler handles account endpoints.
type AccountsHandler struct {
	ledger *service.Ledger
	log    zerolog.Logger
}

// NewAccountsHandler creates a new accounts handler.
func NewAccountsHandler(l *service.Ledger, log zerolog.Logger) *AccountsHandler {
	return &AccountsHandler{ledger: l, log: log}
}

// ListAccounts handles GET /api/accounts
func (h *AccountsHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.ledger.Accounts(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to list accounts")
		return
	}
	if accounts == nil {
		accounts = []domain.Account{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"accounts": accounts,
		"count":    len(accounts),
		"total":    domain.TotalBalance(accounts),
	})
}

// GetAccount handles GET /api/accounts/{id}
func (h *AccountsHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	a, err := h.ledger.Account(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to get account")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, a)
}

// CreateAccount handles POST /api/accounts
func (h *AccountsHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var a domain.Account
	if !decodeJSON(w, r, &a) {
		return
	}
	created, err := h.ledger.CreateAccount(r.Context(), a)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to create account")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, created)
}

// UpdateAccount handles PUT /api/accounts/{id}. The balance is not editable.
func (h *AccountsHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var a domain.Account
	if !decodeJSON(w, r, &a) {
		return
	}
	updated, err := h.ledger.UpdateAccount(r.Context(), chi.URLParam(r, "id"), a)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to update account")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, updated)
}

// DeleteAccount handles DELETE /api/accounts/{id}
func (h *AccountsHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.DeleteAccount(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, h.log, err, "Failed to delete account")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AccountStats handles GET /api/accounts/{id}/stats
func (h *AccountsHandler) AccountStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.ledger.AccountStats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to load account stats")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, stats)
}

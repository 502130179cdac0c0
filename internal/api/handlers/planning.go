package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/brankas/brankas/internal/api/middleware"
	"github.com/brankas/brankas/internal/domain"
	"github.com/brankas/brankas/internal/service"
)

// DebtsHandler handles debt endpoints.
type DebtsHandler struct {
	ledger *service.Ledger
	log    zerolog.Logger
}

// NewDebtsHandler creates a new debts handler.
func NewDebtsHandler(l *service.Ledger, log zerolog.Logger) *DebtsHandler {
	return &DebtsHandler{ledger: l, log: log}
}

// ListDebts handles GET /api/debts. ?active=true hides settled debts.
func (h *DebtsHandler) ListDebts(w http.ResponseWriter, r *http.Request) {
	debts, err := h.ledger.Debts(r.Context(), r.URL.Query().Get("active") == "true")
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to list debts")
		return
	}
	if debts == nil {
		debts = []domain.Debt{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"debts": debts, "count": len(debts)})
}

// GetDebt handles GET /api/debts/{id}
func (h *DebtsHandler) GetDebt(w http.ResponseWriter, r *http.Request) {
	d, err := h.ledger.Debt(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to get debt")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, d)
}

// CreateDebt handles POST /api/debts
func (h *DebtsHandler) CreateDebt(w http.ResponseWriter, r *http.Request) {
	var d domain.Debt
	if !decodeJSON(w, r, &d) {
		return
	}
	created, err := h.ledger.CreateDebt(r.Context(), d)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to create debt")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, created)
}

// UpdateDebt handles PUT /api/debts/{id}
func (h *DebtsHandler) UpdateDebt(w http.ResponseWriter, r *http.Request) {
	var d domain.Debt
	if !decodeJSON(w, r, &d) {
		return
	}
	updated, err := h.ledger.UpdateDebt(r.Context(), chi.URLParam(r, "id"), d)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to update debt")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, updated)
}

// DeleteDebt handles DELETE /api/debts/{id}
func (h *DebtsHandler) DeleteDebt(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.DeleteDebt(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, h.log, err, "Failed to delete debt")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GoalsHandler handles savings goal endpoints.
type GoalsHandler struct {
	ledger *service.Ledger
	log    zerolog.Logger
}

// NewGoalsHandler creates a new goals handler.
func NewGoalsHandler(l *service.Ledger, log zerolog.Logger) *GoalsHandler {
	return &GoalsHandler{ledger: l, log: log}
}

// ListGoals handles GET /api/goals
func (h *GoalsHandler) ListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := h.ledger.Goals(r.Context(), r.URL.Query().Get("active") == "true")
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to list goals")
		return
	}
	if goals == nil {
		goals = []domain.SavingsGoal{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"goals": goals, "count": len(goals)})
}

// GetGoal handles GET /api/goals/{id}
func (h *GoalsHandler) GetGoal(w http.ResponseWriter, r *http.Request) {
	g, err := h.ledger.Goal(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to get goal")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, g)
}

// CreateGoal handles POST /api/goals
func (h *GoalsHandler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var g domain.SavingsGoal
	if !decodeJSON(w, r, &g) {
		return
	}
	created, err := h.ledger.CreateGoal(r.Context(), g)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to create goal")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, created)
}

// UpdateGoal handles PUT /api/goals/{id}
func (h *GoalsHandler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	var g domain.SavingsGoal
	if !decodeJSON(w, r, &g) {
		return
	}
	updated, err := h.ledger.UpdateGoal(r.Context(), chi.URLParam(r, "id"), g)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to update goal")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, updated)
}

// DeleteGoal handles DELETE /api/goals/{id}
func (h *GoalsHandler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.DeleteGoal(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, h.log, err, "Failed to delete goal")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GoalProgress handles GET /api/goals/{id}/progress
func (h *GoalsHandler) GoalProgress(w http.ResponseWriter, r *http.Request) {
	p, err := h.ledger.GoalProgress(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to load goal progress")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, p)
}

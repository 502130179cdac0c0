package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/brankas/brankas/internal/api/middleware"
	"github.com/brankas/brankas/internal/domain"
	"github.com/brankas/brankas/internal/service"
)

// SummaryHandler handles dashboard and report endpoints.
type SummaryHandler struct {
	ledger *service.Ledger
	log    zerolog.Logger
}

// NewSummaryHandler creates a new summary handler.
func NewSummaryHandler(l *service.Ledger, log zerolog.Logger) *SummaryHandler {
	return &SummaryHandler{ledger: l, log: log}
}

// Dashboard handles GET /api/summary/dashboard
func (h *SummaryHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.ledger.Dashboard(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to load dashboard")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, d)
}

// Period handles GET /api/summary/period?period=monthly
func (h *SummaryHandler) Period(w http.ResponseWriter, r *http.Request) {
	s, err := h.ledger.PeriodSummary(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to load period summary")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, s)
}

// Categories handles GET /api/summary/categories?type=expense. The history
// filter parameters narrow the records counted.
func (h *SummaryHandler) Categories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	typ := q.Get("type")
	if typ == "" {
		typ = string(domain.TypeExpense)
	}
	q.Del("type")

	f, err := parseFilter(q)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	totals, err := h.ledger.CategoryBreakdown(r.Context(), typ, f)
	if err != nil {
		writeServiceError(w, r, h.log, err, "Failed to load category breakdown")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"categories": totals, "count": len(totals)})
}

// Package api assembles the HTTP router.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/brankas/brankas/internal/api/handlers"
	"github.com/brankas/brankas/internal/api/middleware"
	"github.com/brankas/brankas/internal/jobs"
	"github.com/brankas/brankas/internal/service"
)

// Deps are the collaborators behind the routes. Receipts may be nil when
// receipt scanning is not configured; Jobs may be nil with it.
type Deps struct {
	Ledger   *service.Ledger
	Receipts *handlers.ReceiptsHandler
	Jobs     jobs.JobStore
}

// NewRouter builds the router with the middleware chain applied.
func NewRouter(deps Deps, log zerolog.Logger) http.Handler {
	accounts := handlers.NewAccountsHandler(deps.Ledger, log)
	transactions := handlers.NewTransactionsHandler(deps.Ledger, log)
	debts := handlers.NewDebtsHandler(deps.Ledger, log)
	goals := handlers.NewGoalsHandler(deps.Ledger, log)
	summary := handlers.NewSummaryHandler(deps.Ledger, log)

	r := chi.NewRouter()
	r.Use(middleware.Recovery(log), middleware.Logger(log), middleware.RequestID(log), middleware.CORS)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/health", handlers.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", accounts.ListAccounts)
			r.Post("/", accounts.CreateAccount)
			r.Get("/{id}", accounts.GetAccount)
			r.Put("/{id}", accounts.UpdateAccount)
			r.Delete("/{id}", accounts.DeleteAccount)
			r.Get("/{id}/stats", accounts.AccountStats)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", transactions.ListTransactions)
			r.Post("/", transactions.CreateTransaction)
			r.Get("/{id}", transactions.GetTransaction)
			r.Put("/{id}", transactions.UpdateTransaction)
			r.Delete("/{id}", transactions.DeleteTransaction)
			r.Post("/{id}/struck", transactions.ToggleStruck)
		})
		r.Post("/transfers", transactions.CreateTransfer)

		r.Route("/debts", func(r chi.Router) {
			r.Get("/", debts.ListDebts)
			r.Post("/", debts.CreateDebt)
			r.Get("/{id}", debts.GetDebt)
			r.Put("/{id}", debts.UpdateDebt)
			r.Delete("/{id}", debts.DeleteDebt)
		})

		r.Route("/goals", func(r chi.Router) {
			r.Get("/", goals.ListGoals)
			r.Post("/", goals.CreateGoal)
			r.Get("/{id}", goals.GetGoal)
			r.Put("/{id}", goals.UpdateGoal)
			r.Delete("/{id}", goals.DeleteGoal)
			r.Get("/{id}/progress", goals.GoalProgress)
		})

		r.Route("/summary", func(r chi.Router) {
			r.Get("/dashboard", summary.Dashboard)
			r.Get("/period", summary.Period)
			r.Get("/categories", summary.Categories)
		})

		if deps.Receipts != nil {
			r.Post("/receipts", deps.Receipts.UploadReceipt)
			r.Get("/receipts", deps.Receipts.ListReceipts)
			r.Get("/receipts/{id}", deps.Receipts.GetReceipt)
		}
		if deps.Jobs != nil {
			jobsHandler := handlers.NewJobsHandler(deps.Jobs, log)
			r.Get("/jobs", jobsHandler.ListJobs)
			r.Get("/jobs/{id}", jobsHandler.GetJob)
		}
	})

	return r
}

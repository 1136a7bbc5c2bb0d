/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/wallets/*           Wallet management and history
  /api/transactions/*      Ledger mutations
  /api/transfers           Wallet-to-wallet moves
  /api/planned-expenses/*  Savings goals
  /api/income-sources/*    Recurring income
  /api/budget-periods/*    Budget periods
  /api/affordability/*     Projection and confidence refresh
  /api/admin/*             Sweep trigger

SECURITY NOTE:
  Identity comes from the X-User-ID header; authentication itself is
  expected at the reverse proxy. No endpoint is otherwise protected.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-ID"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/wallets", func(r chi.Router) {
			r.Get("/", h.ListWallets)
			r.Post("/", h.CreateWallet)
			r.Delete("/{id}", h.DeactivateWallet)
			r.Get("/{id}/transactions", h.ListWalletTransactions)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", h.CreateTransaction)
			r.Put("/{id}", h.UpdateTransaction)
			r.Delete("/{id}", h.DeleteTransaction)
		})

		r.Post("/transfers", h.CreateTransfer)

		r.Route("/planned-expenses", func(r chi.Router) {
			r.Get("/", h.ListPlannedExpenses)
			r.Post("/", h.CreatePlannedExpense)
			r.Put("/{id}", h.UpdatePlannedExpense)
		})

		r.Route("/income-sources", func(r chi.Router) {
			r.Get("/", h.ListIncomeSources)
			r.Post("/", h.CreateIncomeSource)
			r.Put("/{id}", h.UpdateIncomeSource)
		})

		r.Route("/budget-periods", func(r chi.Router) {
			r.Get("/", h.ListBudgetPeriods)
			r.Post("/", h.CreateBudgetPeriod)
		})

		r.Route("/affordability", func(r chi.Router) {
			r.Post("/future", h.EvaluateFuture)
			r.Post("/now", h.EvaluateNow)
			r.Post("/recalculate", h.RecalculateConfidence)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/sweep", h.TriggerSweep)
		})
	})

	return r
}

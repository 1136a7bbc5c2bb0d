/*
handlers.go - HTTP API handlers for the finance engine

PURPOSE:
  Exposes the ledger and affordability engines via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Wallets:
    GET    /api/wallets                     List wallets
    POST   /api/wallets                     Create wallet
    DELETE /api/wallets/{id}                Deactivate wallet (soft delete)
    GET    /api/wallets/{id}/transactions   Transaction history

  Transactions:
    POST   /api/transactions                Record income/expense
    PUT    /api/transactions/{id}           Edit transaction
    DELETE /api/transactions/{id}           Delete transaction (reverses effect)
    POST   /api/transfers                   Move funds between wallets

  Planning:
    GET/POST /api/planned-expenses          Savings goals
    PUT    /api/planned-expenses/{id}       Edit a savings goal
    GET/POST /api/income-sources            Recurring income
    PUT    /api/income-sources/{id}         Edit an income source
    GET/POST /api/budget-periods            Budget periods

  Affordability:
    POST   /api/affordability/future        Evaluate a future purchase
    POST   /api/affordability/now           Evaluate an immediate purchase
    POST   /api/affordability/recalculate   Refresh goal confidence

IDENTITY:
  The authenticated user arrives in the X-User-ID header; identity
  resolution itself is the reverse proxy's concern. Requests without the
  header are rejected with 400.

ERROR HANDLING:
  Domain errors map onto HTTP status codes:
  - 400: InvalidInput, InvalidRange, InvalidLink, malformed JSON
  - 404: NotFound
  - 422: InsufficientFunds
  - 503: Unavailable (storage timeout, generator outage)
  - 500: anything else

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/pesoplan/finance-engine/forecast"
	"github.com/pesoplan/finance-engine/ledger"
)

const dateLayout = "2006-01-02"

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Ledger *ledger.Ledger
	Engine *forecast.Engine
	Recalc *forecast.Recalculator
	Log    *logrus.Logger
}

// NewHandler creates a new handler.
func NewHandler(ldg *ledger.Ledger, engine *forecast.Engine, recalc *forecast.Recalculator, log *logrus.Logger) *Handler {
	return &Handler{Ledger: ldg, Engine: engine, Recalc: recalc, Log: log}
}

func userID(r *http.Request) (ledger.UserID, bool) {
	id := r.Header.Get("X-User-ID")
	return ledger.UserID(id), id != ""
}

// =============================================================================
// WALLET HANDLERS
// =============================================================================

// ListWallets returns the user's wallets.
func (h *Handler) ListWallets(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing X-User-ID header", nil)
		return
	}

	wallets, err := h.Ledger.ListWallets(r.Context(), uid)
	if err != nil {
		h.writeDomainError(w, "Failed to list wallets", err)
		return
	}

	dtos := make([]WalletDTO, len(wallets))
	for i, wal := range wallets {
		dtos[i] = walletDTO(wal)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateWallet creates a wallet with a zero starting balance.
func (h *Handler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing X-User-ID header", nil)
		return
	}

	var req CreateWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	wal, err := h.Ledger.CreateWallet(r.Context(), uid, req.Name, req.Type)
	if err != nil {
		h.writeDomainError(w, "Failed to create wallet", err)
		return
	}
	writeJSON(w, http.StatusCreated, walletDTO(*wal))
}

// DeactivateWallet soft-deletes a wallet; its transactions remain.
func (h *Handler) DeactivateWallet(w http.ResponseWriter, r *http.Request) {
	id := ledger.WalletID(chi.URLParam(r, "id"))

	if err := h.Ledger.DeactivateWallet(r.Context(), id); err != nil {
		h.writeDomainError(w, "Failed to deactivate wallet", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deactivated": string(id)})
}

// ListWalletTransactions returns a wallet's transactions, optionally
// bounded with from/to query params (YYYY-MM-DD).
func (h *Handler) ListWalletTransactions(w http.ResponseWriter, r *http.Request) {
	id := ledger.WalletID(chi.URLParam(r, "id"))

	from := time.Time{}
	to := time.Now().UTC().AddDate(100, 0, 0)
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid from date (use YYYY-MM-DD)", err)
			return
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid to date (use YYYY-MM-DD)", err)
			return
		}
		to = t.AddDate(0, 0, 1) // inclusive end of day
	}

	txs, err := h.Ledger.Store().ListTransactionsByWallet(r.Context(), id, from, to)
	if err != nil {
		h.writeDomainError(w, "Failed to list transactions", err)
		return
	}

	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = transactionDTO(tx)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// TRANSACTION HANDLERS
// =============================================================================

// CreateTransaction records an income or expense movement.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing X-User-ID header", nil)
		return
	}

	var req CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}
	occurredAt, err := parseTimestamp(req.OccurredAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid occurred_at", err)
		return
	}

	tx, err := h.Ledger.RecordTransaction(r.Context(), ledger.TransactionInput{
		UserID:           uid,
		WalletID:         ledger.WalletID(req.WalletID),
		Kind:             ledger.TransactionKind(req.Kind),
		Amount:           amount,
		Category:         req.Category,
		Note:             req.Note,
		OccurredAt:       occurredAt,
		PlannedExpenseID: ledger.PlannedExpenseID(req.PlannedExpenseID),
	})
	if err != nil {
		h.writeDomainError(w, "Failed to record transaction", err)
		return
	}
	writeJSON(w, http.StatusCreated, transactionDTO(*tx))
}

// UpdateTransaction applies a partial edit to an existing transaction.
func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := ledger.TransactionID(chi.URLParam(r, "id"))

	var req UpdateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var upd ledger.TransactionUpdate
	if req.WalletID != nil {
		wid := ledger.WalletID(*req.WalletID)
		upd.WalletID = &wid
	}
	if req.Kind != nil {
		kind := ledger.TransactionKind(*req.Kind)
		upd.Kind = &kind
	}
	if req.Amount != nil {
		amount, err := parseAmount(*req.Amount)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid amount", err)
			return
		}
		upd.Amount = &amount
	}
	upd.Category = req.Category
	upd.Note = req.Note
	if req.OccurredAt != nil {
		t, err := parseTimestamp(*req.OccurredAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid occurred_at", err)
			return
		}
		upd.OccurredAt = &t
	}
	if req.PlannedExpenseID != nil {
		pid := ledger.PlannedExpenseID(*req.PlannedExpenseID)
		upd.PlannedExpenseID = &pid
	}

	tx, err := h.Ledger.EditTransaction(r.Context(), id, upd)
	if err != nil {
		h.writeDomainError(w, "Failed to update transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, transactionDTO(*tx))
}

// DeleteTransaction removes a transaction and reverses its balance effect.
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := ledger.TransactionID(chi.URLParam(r, "id"))

	if err := h.Ledger.DeleteTransaction(r.Context(), id); err != nil {
		h.writeDomainError(w, "Failed to delete transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": string(id)})
}

// CreateTransfer moves funds between two of the user's wallets.
func (h *Handler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing X-User-ID header", nil)
		return
	}

	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}
	fee := ledger.ZeroMoney()
	if req.Fee != "" {
		fee, err = parseAmount(req.Fee)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid fee", err)
			return
		}
	}
	occurredAt, err := parseTimestamp(req.OccurredAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid occurred_at", err)
		return
	}

	result, err := h.Ledger.RecordTransfer(r.Context(), ledger.TransferInput{
		UserID:       uid,
		FromWalletID: ledger.WalletID(req.FromWalletID),
		ToWalletID:   ledger.WalletID(req.ToWalletID),
		Amount:       amount,
		Fee:          fee,
		Note:         req.Note,
		OccurredAt:   occurredAt,
	})
	if err != nil {
		h.writeDomainError(w, "Failed to record transfer", err)
		return
	}

	dto := TransferDTO{
		Outgoing: transactionDTO(result.Outgoing),
		Incoming: transactionDTO(result.Incoming),
	}
	if result.Fee != nil {
		feeDTO := transactionDTO(*result.Fee)
		dto.Fee = &feeDTO
	}
	writeJSON(w, http.StatusCreated, dto)
}

// =============================================================================
// PLANNING HANDLERS
// =============================================================================

// ListPlannedExpenses returns the user's savings goals, optionally
// filtered by ?status=planned,saved.
func (h *Handler) ListPlannedExpenses(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing X-User-ID header", nil)
		return
	}

	var statuses []ledger.ExpenseStatus
	if v := r.URL.Query().Get("status"); v != "" {
		for _, s := range splitCSV(v) {
			statuses = append(statuses, ledger.ExpenseStatus(s))
		}
	}

	plans, err := h.Ledger.Store().ListPlannedExpenses(r.Context(), uid, statuses)
	if err != nil {
		h.writeDomainError(w, "Failed to list planned expenses", err)
		return
	}

	dtos := make([]PlannedExpenseDTO, len(plans))
	for i, p := range plans {
		dtos[i] = plannedExpenseDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreatePlannedExpense creates a savings goal.
func (h *Handler) CreatePlannedExpense(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing X-User-ID header", nil)
		return
	}

	var req CreatePlannedExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}
	targetDate, err := time.Parse(dateLayout, req.TargetDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid target_date (use YYYY-MM-DD)", err)
		return
	}

	plan, err := h.Ledger.CreatePlannedExpense(r.Context(), ledger.PlannedExpenseInput{
		UserID:     uid,
		Title:      req.Title,
		Amount:     amount,
		Category:   req.Category,
		TargetDate: targetDate,
		Priority:   ledger.PriorityTier(req.Priority),
		WalletID:   ledger.WalletID(req.WalletID),
	})
	if err != nil {
		h.writeDomainError(w, "Failed to create planned expense", err)
		return
	}
	writeJSON(w, http.StatusCreated, plannedExpenseDTO(*plan))
}

// UpdatePlannedExpense applies partial user edits to a savings goal.
func (h *Handler) UpdatePlannedExpense(w http.ResponseWriter, r *http.Request) {
	id := ledger.PlannedExpenseID(chi.URLParam(r, "id"))

	var req UpdatePlannedExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var upd ledger.PlannedExpenseUpdate
	upd.Title = req.Title
	upd.Category = req.Category
	if req.Amount != nil {
		amount, err := parseAmount(*req.Amount)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid amount", err)
			return
		}
		upd.Amount = &amount
	}
	if req.TargetDate != nil {
		t, err := time.Parse(dateLayout, *req.TargetDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid target_date (use YYYY-MM-DD)", err)
			return
		}
		upd.TargetDate = &t
	}
	if req.Priority != nil {
		p := ledger.PriorityTier(*req.Priority)
		upd.Priority = &p
	}
	if req.Status != nil {
		s := ledger.ExpenseStatus(*req.Status)
		upd.Status = &s
	}
	if req.WalletID != nil {
		wid := ledger.WalletID(*req.WalletID)
		upd.WalletID = &wid
	}

	plan, err := h.Ledger.UpdatePlannedExpense(r.Context(), id, upd)
	if err != nil {
		h.writeDomainError(w, "Failed to update planned expense", err)
		return
	}
	writeJSON(w, http.StatusOK, plannedExpenseDTO(*plan))
}

// ListIncomeSources returns the user's recurring income definitions.
func (h *Handler) ListIncomeSources(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing X-User-ID header", nil)
		return
	}

	activeOnly := r.URL.Query().Get("active") == "true"
	sources, err := h.Ledger.Store().ListIncomeSources(r.Context(), uid, activeOnly)
	if err != nil {
		h.writeDomainError(w, "Failed to list income sources", err)
		return
	}

	dtos := make([]IncomeSourceDTO, len(sources))
	for i, src := range sources {
		dtos[i] = incomeSourceDTO(src)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateIncomeSource registers a recurring income definition.
func (h *Handler) CreateIncomeSource(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing X-User-ID header", nil)
		return
	}

	var req CreateIncomeSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}
	nextPay, err := time.Parse(dateLayout, req.NextPayDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid next_pay_date (use YYYY-MM-DD)", err)
		return
	}

	src, err := h.Ledger.CreateIncomeSource(r.Context(), ledger.IncomeSourceInput{
		UserID:      uid,
		Name:        req.Name,
		Amount:      amount,
		Frequency:   ledger.PayFrequency(req.Frequency),
		NextPayDate: nextPay,
		WalletID:    ledger.WalletID(req.WalletID),
	})
	if err != nil {
		h.writeDomainError(w, "Failed to create income source", err)
		return
	}
	writeJSON(w, http.StatusCreated, incomeSourceDTO(*src))
}

// UpdateIncomeSource applies partial user edits to an income definition.
func (h *Handler) UpdateIncomeSource(w http.ResponseWriter, r *http.Request) {
	id := ledger.IncomeSourceID(chi.URLParam(r, "id"))

	var req UpdateIncomeSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var upd ledger.IncomeSourceUpdate
	upd.Name = req.Name
	upd.Active = req.Active
	if req.Amount != nil {
		amount, err := parseAmount(*req.Amount)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid amount", err)
			return
		}
		upd.Amount = &amount
	}
	if req.Frequency != nil {
		f := ledger.PayFrequency(*req.Frequency)
		upd.Frequency = &f
	}
	if req.NextPayDate != nil {
		t, err := time.Parse(dateLayout, *req.NextPayDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid next_pay_date (use YYYY-MM-DD)", err)
			return
		}
		upd.NextPayDate = &t
	}
	if req.WalletID != nil {
		wid := ledger.WalletID(*req.WalletID)
		upd.WalletID = &wid
	}

	src, err := h.Ledger.UpdateIncomeSource(r.Context(), id, upd)
	if err != nil {
		h.writeDomainError(w, "Failed to update income source", err)
		return
	}
	writeJSON(w, http.StatusOK, incomeSourceDTO(*src))
}

// ListBudgetPeriods returns the user's budget periods, newest first.
func (h *Handler) ListBudgetPeriods(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing X-User-ID header", nil)
		return
	}

	periods, err := h.Ledger.Store().ListBudgetPeriods(r.Context(), uid)
	if err != nil {
		h.writeDomainError(w, "Failed to list budget periods", err)
		return
	}

	dtos := make([]BudgetPeriodDTO, len(periods))
	for i, b := range periods {
		dtos[i] = budgetPeriodDTO(b)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateBudgetPeriod opens a budget period, deactivating overlapping ones.
func (h *Handler) CreateBudgetPeriod(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing X-User-ID header", nil)
		return
	}

	var req CreateBudgetPeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := time.Parse(dateLayout, req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start (use YYYY-MM-DD)", err)
		return
	}
	end, err := time.Parse(dateLayout, req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end (use YYYY-MM-DD)", err)
		return
	}
	totalIncome := ledger.ZeroMoney()
	if req.TotalIncome != "" {
		totalIncome, err = parseAmount(req.TotalIncome)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid total_income", err)
			return
		}
	}

	period, err := h.Ledger.CreateBudgetPeriod(r.Context(), ledger.BudgetPeriodInput{
		UserID:      uid,
		Start:       start,
		End:         end,
		TotalIncome: totalIncome,
	})
	if err != nil {
		h.writeDomainError(w, "Failed to create budget period", err)
		return
	}
	writeJSON(w, http.StatusCreated, budgetPeriodDTO(*period))
}

// =============================================================================
// AFFORDABILITY HANDLERS
// =============================================================================

// EvaluateFuture answers "can I afford this amount by this date?".
func (h *Handler) EvaluateFuture(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing X-User-ID header", nil)
		return
	}

	var req EvaluateFutureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}
	targetDate, err := time.Parse(dateLayout, req.TargetDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid target_date (use YYYY-MM-DD)", err)
		return
	}

	verdict, err := h.Engine.EvaluateFuture(r.Context(), forecast.EvaluateInput{
		UserID:     uid,
		Amount:     amount,
		TargetDate: targetDate,
		WalletID:   ledger.WalletID(req.WalletID),
		Category:   req.Category,
	})
	if err != nil {
		h.writeDomainError(w, "Failed to evaluate affordability", err)
		return
	}
	writeJSON(w, http.StatusOK, verdictDTO(verdict))
}

// EvaluateNow answers "can I afford this within the next N days?".
func (h *Handler) EvaluateNow(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing X-User-ID header", nil)
		return
	}

	var req EvaluateNowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}

	verdict, err := h.Engine.EvaluateNow(r.Context(), uid, amount,
		ledger.WalletID(req.WalletID), req.ConsiderDays)
	if err != nil {
		h.writeDomainError(w, "Failed to evaluate affordability", err)
		return
	}
	writeJSON(w, http.StatusOK, verdictDTO(verdict))
}

// RecalculateConfidence re-scores every active goal for the caller.
func (h *Handler) RecalculateConfidence(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Missing X-User-ID header", nil)
		return
	}

	updated, err := h.Recalc.RecalculateUser(r.Context(), uid)
	if err != nil {
		h.writeDomainError(w, "Failed to recalculate confidence", err)
		return
	}

	ids := make([]string, len(updated))
	for i, id := range updated {
		ids[i] = string(id)
	}
	writeJSON(w, http.StatusOK, RecalcDTO{UpdatedPlanIDs: ids})
}

// TriggerSweep runs a full recalculation pass across all users.
func (h *Handler) TriggerSweep(w http.ResponseWriter, r *http.Request) {
	report, err := h.Recalc.Sweep(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to run sweep", err)
		return
	}

	dto := SweepDTO{
		UsersProcessed: report.UsersProcessed,
		UsersFailed:    report.UsersFailed,
		PlansUpdated:   report.PlansUpdated,
	}
	if len(report.Failures) > 0 {
		dto.Failures = make(map[string]string, len(report.Failures))
		for uid, ferr := range report.Failures {
			dto.Failures[string(uid)] = ferr.Error()
		}
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// DTO CONVERSION
// =============================================================================

func walletDTO(w ledger.Wallet) WalletDTO {
	return WalletDTO{
		ID:        string(w.ID),
		Name:      w.Name,
		Type:      w.Type,
		Balance:   w.Balance.Value.StringFixed(2),
		Active:    w.Active,
		CreatedAt: w.CreatedAt.Format(time.RFC3339),
	}
}

func transactionDTO(tx ledger.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:                  string(tx.ID),
		WalletID:            string(tx.WalletID),
		Kind:                string(tx.Kind),
		Amount:              tx.Amount.Value.StringFixed(2),
		Category:            tx.Category,
		Note:                tx.Note,
		OccurredAt:          tx.OccurredAt.Format(time.RFC3339),
		CounterpartWalletID: string(tx.CounterpartWalletID),
		TransferRole:        string(tx.TransferRole),
		TransferGroupID:     string(tx.TransferGroupID),
		PlannedExpenseID:    string(tx.PlannedExpenseID),
		CreatedAt:           tx.CreatedAt.Format(time.RFC3339),
	}
}

func plannedExpenseDTO(p ledger.PlannedExpense) PlannedExpenseDTO {
	dto := PlannedExpenseDTO{
		ID:         string(p.ID),
		Title:      p.Title,
		Amount:     p.Amount.Value.StringFixed(2),
		Spent:      p.Spent.Value.StringFixed(2),
		Remaining:  p.Remaining().Value.StringFixed(2),
		Category:   p.Category,
		TargetDate: p.TargetDate.Format(dateLayout),
		Priority:   string(p.Priority),
		Confidence: string(p.Confidence),
		Status:     string(p.Status),
		WalletID:   string(p.WalletID),
	}
	if !p.ConfidenceCheckedAt.IsZero() {
		dto.ConfidenceCheckedAt = p.ConfidenceCheckedAt.Format(time.RFC3339)
	}
	return dto
}

func incomeSourceDTO(src ledger.IncomeSource) IncomeSourceDTO {
	return IncomeSourceDTO{
		ID:          string(src.ID),
		Name:        src.Name,
		Amount:      src.Amount.Value.StringFixed(2),
		Frequency:   string(src.Frequency),
		NextPayDate: src.NextPayDate.Format(dateLayout),
		Active:      src.Active,
		WalletID:    string(src.WalletID),
	}
}

func budgetPeriodDTO(b ledger.BudgetPeriod) BudgetPeriodDTO {
	return BudgetPeriodDTO{
		ID:          string(b.ID),
		Start:       b.Start.Format(dateLayout),
		End:         b.End.Format(dateLayout),
		TotalIncome: b.TotalIncome.Value.StringFixed(2),
		Active:      b.Active,
	}
}

func verdictDTO(v *forecast.Verdict) VerdictDTO {
	b := v.Breakdown
	return VerdictDTO{
		CanAfford:       v.CanAfford,
		Confidence:      string(v.Confidence),
		RiskFactors:     v.RiskFactors,
		Recommendations: v.Recommendations,
		Shortfall:       v.Shortfall.Value.StringFixed(2),
		Breakdown: BreakdownDTO{
			CurrentBalance:    b.CurrentBalance.Value.StringFixed(2),
			ProjectedIncome:   b.ProjectedIncome.Value.StringFixed(2),
			GrossBalance:      b.GrossBalance.Value.StringFixed(2),
			RoutineExpenses:   b.RoutineExpenses.Value.StringFixed(2),
			UpcomingCommitted: b.UpcomingCommitted.Value.StringFixed(2),
			LaterCommitted:    b.LaterCommitted.Value.StringFixed(2),
			LaterWeighted:     b.LaterWeighted.Value.StringFixed(2),
			ProjectedExpenses: b.ProjectedExpenses.Value.StringFixed(2),
			NetBalance:        b.NetBalance.Value.StringFixed(2),
			DaysUntilTarget:   b.DaysUntilTarget,
		},
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func parseAmount(s string) (ledger.Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ledger.ZeroMoney(), err
	}
	return ledger.Money{Value: d}, nil
}

// parseTimestamp accepts RFC3339 or plain dates; empty defaults to now.
func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(dateLayout, s)
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case ledger.IsNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, ledger.ErrInsufficientFunds):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrInvalidInput),
		errors.Is(err, ledger.ErrInvalidRange),
		errors.Is(err, ledger.ErrInvalidLink):
		status = http.StatusBadRequest
	case errors.Is(err, ledger.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError && h.Log != nil {
		h.Log.WithError(err).Error(message)
	}
	writeError(w, status, message, err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

AMOUNTS:
  Monetary amounts travel as decimal strings ("1250.00"), never as JSON
  numbers; float64 round trips would corrupt them.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

// ErrorResponse is the JSON shape of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// WALLETS
// =============================================================================

// WalletDTO represents a wallet in API responses.
type WalletDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Balance   string `json:"balance"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateWalletRequest is the request to create a wallet.
type CreateWalletRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// TransactionDTO represents a ledger transaction in API responses.
type TransactionDTO struct {
	ID                  string `json:"id"`
	WalletID            string `json:"wallet_id"`
	Kind                string `json:"kind"`
	Amount              string `json:"amount"`
	Category            string `json:"category,omitempty"`
	Note                string `json:"note,omitempty"`
	OccurredAt          string `json:"occurred_at"`
	CounterpartWalletID string `json:"counterpart_wallet_id,omitempty"`
	TransferRole        string `json:"transfer_role,omitempty"`
	TransferGroupID     string `json:"transfer_group_id,omitempty"`
	PlannedExpenseID    string `json:"planned_expense_id,omitempty"`
	CreatedAt           string `json:"created_at,omitempty"`
}

// CreateTransactionRequest is the request to record an income or expense.
type CreateTransactionRequest struct {
	WalletID         string `json:"wallet_id"`
	Kind             string `json:"kind"`
	Amount           string `json:"amount"`
	Category         string `json:"category,omitempty"`
	Note             string `json:"note,omitempty"`
	OccurredAt       string `json:"occurred_at,omitempty"` // RFC3339, defaults to now
	PlannedExpenseID string `json:"planned_expense_id,omitempty"`
}

// UpdateTransactionRequest carries the fields of a partial edit. Absent
// fields keep their current values.
type UpdateTransactionRequest struct {
	WalletID         *string `json:"wallet_id,omitempty"`
	Kind             *string `json:"kind,omitempty"`
	Amount           *string `json:"amount,omitempty"`
	Category         *string `json:"category,omitempty"`
	Note             *string `json:"note,omitempty"`
	OccurredAt       *string `json:"occurred_at,omitempty"`
	PlannedExpenseID *string `json:"planned_expense_id,omitempty"`
}

// TransferRequest is the request to move funds between two wallets.
type TransferRequest struct {
	FromWalletID string `json:"from_wallet_id"`
	ToWalletID   string `json:"to_wallet_id"`
	Amount       string `json:"amount"`
	Fee          string `json:"fee,omitempty"`
	Note         string `json:"note,omitempty"`
	OccurredAt   string `json:"occurred_at,omitempty"`
}

// TransferDTO is the full set of rows one transfer produced.
type TransferDTO struct {
	Outgoing TransactionDTO  `json:"outgoing"`
	Incoming TransactionDTO  `json:"incoming"`
	Fee      *TransactionDTO `json:"fee,omitempty"`
}

// =============================================================================
// PLANNED EXPENSES
// =============================================================================

// PlannedExpenseDTO represents a savings goal in API responses.
type PlannedExpenseDTO struct {
	ID                  string `json:"id"`
	Title               string `json:"title"`
	Amount              string `json:"amount"`
	Spent               string `json:"spent"`
	Remaining           string `json:"remaining"`
	Category            string `json:"category,omitempty"`
	TargetDate          string `json:"target_date"`
	Priority            string `json:"priority"`
	Confidence          string `json:"confidence"`
	Status              string `json:"status"`
	WalletID            string `json:"wallet_id,omitempty"`
	ConfidenceCheckedAt string `json:"confidence_checked_at,omitempty"`
}

// CreatePlannedExpenseRequest is the request to create a savings goal.
type CreatePlannedExpenseRequest struct {
	Title      string `json:"title"`
	Amount     string `json:"amount"`
	Category   string `json:"category,omitempty"`
	TargetDate string `json:"target_date"` // YYYY-MM-DD
	Priority   string `json:"priority,omitempty"`
	WalletID   string `json:"wallet_id,omitempty"`
}

// UpdatePlannedExpenseRequest carries partial goal edits; absent fields are
// left unchanged. Spent and confidence are not client-editable.
type UpdatePlannedExpenseRequest struct {
	Title      *string `json:"title,omitempty"`
	Amount     *string `json:"amount,omitempty"`
	Category   *string `json:"category,omitempty"`
	TargetDate *string `json:"target_date,omitempty"` // YYYY-MM-DD
	Priority   *string `json:"priority,omitempty"`
	Status     *string `json:"status,omitempty"`
	WalletID   *string `json:"wallet_id,omitempty"`
}

// =============================================================================
// INCOME SOURCES
// =============================================================================

// IncomeSourceDTO represents a recurring income definition.
type IncomeSourceDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Amount      string `json:"amount"`
	Frequency   string `json:"frequency"`
	NextPayDate string `json:"next_pay_date"`
	Active      bool   `json:"active"`
	WalletID    string `json:"wallet_id,omitempty"`
}

// CreateIncomeSourceRequest is the request to register recurring income.
type CreateIncomeSourceRequest struct {
	Name        string `json:"name"`
	Amount      string `json:"amount"`
	Frequency   string `json:"frequency"`
	NextPayDate string `json:"next_pay_date"` // YYYY-MM-DD
	WalletID    string `json:"wallet_id,omitempty"`
}

// UpdateIncomeSourceRequest carries partial income-source edits; absent
// fields are left unchanged.
type UpdateIncomeSourceRequest struct {
	Name        *string `json:"name,omitempty"`
	Amount      *string `json:"amount,omitempty"`
	Frequency   *string `json:"frequency,omitempty"`
	NextPayDate *string `json:"next_pay_date,omitempty"` // YYYY-MM-DD
	Active      *bool   `json:"active,omitempty"`
	WalletID    *string `json:"wallet_id,omitempty"`
}

// =============================================================================
// BUDGET PERIODS
// =============================================================================

// BudgetPeriodDTO represents a budget period in API responses.
type BudgetPeriodDTO struct {
	ID          string `json:"id"`
	Start       string `json:"start"`
	End         string `json:"end"`
	TotalIncome string `json:"total_income"`
	Active      bool   `json:"active"`
}

// CreateBudgetPeriodRequest is the request to open a budget period.
type CreateBudgetPeriodRequest struct {
	Start       string `json:"start"` // YYYY-MM-DD
	End         string `json:"end"`   // YYYY-MM-DD
	TotalIncome string `json:"total_income"`
}

// =============================================================================
// AFFORDABILITY
// =============================================================================

// EvaluateFutureRequest asks "can I afford this by a future date?".
type EvaluateFutureRequest struct {
	Amount     string `json:"amount"`
	TargetDate string `json:"target_date"` // YYYY-MM-DD
	WalletID   string `json:"wallet_id,omitempty"`
	Category   string `json:"category,omitempty"`
}

// EvaluateNowRequest asks "can I afford this within the next N days?".
type EvaluateNowRequest struct {
	Amount       string `json:"amount"`
	WalletID     string `json:"wallet_id,omitempty"`
	ConsiderDays int    `json:"consider_days"`
}

// BreakdownDTO mirrors every intermediate value of the evaluation.
type BreakdownDTO struct {
	CurrentBalance    string `json:"current_balance"`
	ProjectedIncome   string `json:"projected_income"`
	GrossBalance      string `json:"gross_balance"`
	RoutineExpenses   string `json:"routine_expenses"`
	UpcomingCommitted string `json:"upcoming_committed"`
	LaterCommitted    string `json:"later_committed"`
	LaterWeighted     string `json:"later_weighted"`
	ProjectedExpenses string `json:"projected_expenses"`
	NetBalance        string `json:"net_balance"`
	DaysUntilTarget   int    `json:"days_until_target"`
}

// VerdictDTO is the affordability answer returned to clients.
type VerdictDTO struct {
	CanAfford       bool         `json:"can_afford"`
	Confidence      string       `json:"confidence"`
	RiskFactors     []string     `json:"risk_factors"`
	Recommendations []string     `json:"recommendations"`
	Shortfall       string       `json:"shortfall"`
	Breakdown       BreakdownDTO `json:"breakdown"`
}

// =============================================================================
// RECALCULATION
// =============================================================================

// RecalcDTO lists the goals whose confidence was refreshed.
type RecalcDTO struct {
	UpdatedPlanIDs []string `json:"updated_plan_ids"`
}

// SweepDTO summarizes one full recalculation pass.
type SweepDTO struct {
	UsersProcessed int               `json:"users_processed"`
	UsersFailed    int               `json:"users_failed"`
	PlansUpdated   int               `json:"plans_updated"`
	Failures       map[string]string `json:"failures,omitempty"`
}

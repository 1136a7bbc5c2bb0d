/*
Package ledger provides the core money-tracking engine.

PURPOSE:
  This package contains the types and algorithms for tracking money across
  multiple named wallets: recording income, expenses and transfers, keeping
  wallet balances exact under edits and deletions, and maintaining the
  spent-progress of savings goals (planned expenses) linked to expense
  transactions.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A fixed-precision decimal amount (never binary floating point)
  - Wallet: A named balance belonging to a user
  - Transaction: A money movement against a wallet
  - PlannedExpense: A savings goal with target amount/date and spent progress
  - IncomeSource: A recurring income definition (read-only projection input)
  - BudgetPeriod: A dated income envelope, at most one active per range

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal so the balance invariant stays exact
  2. Type Safety: Strong typing for IDs prevents mixing wallet/user ids
  3. Atomicity: Every multi-record mutation runs inside one store transaction
  4. Reversibility: Edits and deletions apply exact inverse balance effects

SEE ALSO:
  - store.go: Persistence interfaces
  - ledger.go: The mutation engine
  - errors.go: Error taxonomy
*/
package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Fixed-precision decimal amount
// =============================================================================

// Money is a monetary amount in the user's currency. All arithmetic goes
// through decimal.Decimal; division results are rounded to 2 places.
type Money struct {
	Value decimal.Decimal
}

func NewMoney(value float64) Money      { return Money{Value: decimal.NewFromFloat(value)} }
func NewMoneyFromInt(value int64) Money { return Money{Value: decimal.NewFromInt(value)} }

func ZeroMoney() Money { return Money{Value: decimal.Zero} }

// MustParseMoney parses a decimal string, returning zero on malformed input.
func MustParseMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ZeroMoney()
	}
	return Money{Value: d}
}

func (m Money) Add(o Money) Money { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) Sub(o Money) Money { return Money{Value: m.Value.Sub(o.Value)} }

func (m Money) Mul(s decimal.Decimal) Money { return Money{Value: m.Value.Mul(s)} }
func (m Money) Div(s decimal.Decimal) Money { return Money{Value: m.Value.Div(s).Round(2)} }

func (m Money) Neg() Money       { return Money{Value: m.Value.Neg()} }
func (m Money) IsNegative() bool { return m.Value.IsNegative() }
func (m Money) IsZero() bool     { return m.Value.IsZero() }
func (m Money) IsPositive() bool { return m.Value.IsPositive() }

func (m Money) GreaterThan(o Money) bool        { return m.Value.GreaterThan(o.Value) }
func (m Money) GreaterThanOrEqual(o Money) bool { return m.Value.GreaterThanOrEqual(o.Value) }
func (m Money) LessThan(o Money) bool           { return m.Value.LessThan(o.Value) }
func (m Money) Equal(o Money) bool              { return m.Value.Equal(o.Value) }

func (m Money) Max(o Money) Money {
	if m.GreaterThan(o) {
		return m
	}
	return o
}

// String renders the amount for advisory text, e.g. "₱1234.56".
func (m Money) String() string { return "₱" + m.Value.StringFixed(2) }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type UserID string
type WalletID string
type TransactionID string
type PlannedExpenseID string
type IncomeSourceID string
type BudgetPeriodID string
type TransferGroupID string

func NewTransactionID() TransactionID       { return TransactionID(uuid.NewString()) }
func NewWalletID() WalletID                 { return WalletID(uuid.NewString()) }
func NewPlannedExpenseID() PlannedExpenseID { return PlannedExpenseID(uuid.NewString()) }
func NewIncomeSourceID() IncomeSourceID     { return IncomeSourceID(uuid.NewString()) }
func NewBudgetPeriodID() BudgetPeriodID     { return BudgetPeriodID(uuid.NewString()) }
func NewTransferGroupID() TransferGroupID   { return TransferGroupID(uuid.NewString()) }

// =============================================================================
// ENUMERATIONS
// =============================================================================

type TransactionKind string

const (
	KindIncome   TransactionKind = "income"
	KindExpense  TransactionKind = "expense"
	KindTransfer TransactionKind = "transfer"
)

// TransferRole marks which leg of a transfer a TRANSFER transaction is.
type TransferRole string

const (
	TransferOutgoing TransferRole = "outgoing"
	TransferIncoming TransferRole = "incoming"
)

type PriorityTier string

const (
	PriorityLow    PriorityTier = "low"
	PriorityMedium PriorityTier = "medium"
	PriorityHigh   PriorityTier = "high"
	PriorityUrgent PriorityTier = "urgent"
)

type ConfidenceTier string

const (
	ConfidenceHigh   ConfidenceTier = "high"
	ConfidenceMedium ConfidenceTier = "medium"
	ConfidenceLow    ConfidenceTier = "low"
)

type ExpenseStatus string

const (
	StatusPlanned   ExpenseStatus = "planned"
	StatusSaved     ExpenseStatus = "saved"
	StatusCompleted ExpenseStatus = "completed"
	StatusCancelled ExpenseStatus = "cancelled"
	StatusPostponed ExpenseStatus = "postponed"
)

type PayFrequency string

const (
	FrequencyWeekly    PayFrequency = "weekly"
	FrequencyBiweekly  PayFrequency = "biweekly"
	FrequencyMonthly   PayFrequency = "monthly"
	FrequencyBimonthly PayFrequency = "bimonthly"
	FrequencyQuarterly PayFrequency = "quarterly"
	FrequencyAnnually  PayFrequency = "annually"
	FrequencyIrregular PayFrequency = "irregular"
)

// ValidFrequency reports whether f is a known frequency tag.
func ValidFrequency(f PayFrequency) bool {
	switch f {
	case FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly, FrequencyBimonthly,
		FrequencyQuarterly, FrequencyAnnually, FrequencyIrregular:
		return true
	}
	return false
}

// =============================================================================
// WALLET
// =============================================================================

// Wallet is a named money balance. Invariant: Balance always equals the
// signed sum of the effects of all still-existing transactions referencing
// it. Balance is mutated exclusively through Ledger operations; wallets are
// soft-deleted (deactivated), never removed while transactions reference them.
type Wallet struct {
	ID        WalletID
	UserID    UserID
	Name      string
	Type      string // open tag: "cash", "bank", "ewallet", ...
	Balance   Money
	Active    bool
	CreatedAt time.Time
}

// =============================================================================
// TRANSACTION
// =============================================================================

// Transaction is a money movement against a wallet. Amount is always a
// non-negative magnitude; the sign of its effect on the owning wallet's
// balance is derived from Kind (and TransferRole for transfer legs).
type Transaction struct {
	ID       TransactionID
	UserID   UserID
	WalletID WalletID
	Kind     TransactionKind
	Amount   Money
	Category string
	Note     string

	// OccurredAt is the user-facing timestamp of the movement.
	OccurredAt time.Time

	// Transfer fields. CounterpartWalletID points at the other leg's wallet,
	// TransferGroupID is shared by all rows of one transfer (both legs plus
	// the fee row, if any). TransferFee is recorded on the outgoing leg only;
	// the fee itself is materialized as a separate EXPENSE row.
	CounterpartWalletID WalletID
	TransferRole        TransferRole
	TransferGroupID     TransferGroupID
	TransferFee         Money

	// PlannedExpenseID links an EXPENSE transaction to the savings goal it
	// contributes toward.
	PlannedExpenseID PlannedExpenseID

	CreatedAt time.Time
}

// BalanceEffect returns the signed delta this transaction applies to its
// owning wallet: INCOME adds, EXPENSE subtracts, transfer legs add or
// subtract depending on direction.
func (t Transaction) BalanceEffect() Money {
	switch t.Kind {
	case KindIncome:
		return t.Amount
	case KindExpense:
		return t.Amount.Neg()
	case KindTransfer:
		if t.TransferRole == TransferIncoming {
			return t.Amount
		}
		return t.Amount.Neg()
	}
	return ZeroMoney()
}

// =============================================================================
// PLANNED EXPENSE - Savings goal with ledger-tracked progress
// =============================================================================

// PlannedExpense is a savings goal. Spent is only ever mutated by the Ledger
// when a linked EXPENSE transaction is created, edited or deleted, and stays
// within [0, Amount]. Status auto-advances to completed when Spent reaches
// Amount and resets to planned when a reversal drops it back below.
type PlannedExpense struct {
	ID         PlannedExpenseID
	UserID     UserID
	Title      string
	Amount     Money
	Spent      Money
	Category   string
	TargetDate time.Time
	Priority   PriorityTier
	Confidence ConfidenceTier
	Status     ExpenseStatus

	// WalletID is the preferred wallet for this goal, optional.
	WalletID WalletID

	// ConfidenceCheckedAt is when the confidence tier was last recomputed.
	ConfidenceCheckedAt time.Time

	CreatedAt time.Time
}

// Remaining returns Amount - Spent.
func (p PlannedExpense) Remaining() Money { return p.Amount.Sub(p.Spent) }

// ActiveForProjection reports whether this goal participates in commitment
// aggregation and confidence recalculation.
func (p PlannedExpense) ActiveForProjection() bool {
	return p.Status == StatusPlanned || p.Status == StatusSaved
}

// =============================================================================
// INCOME SOURCE - Read-only input to projection
// =============================================================================

// IncomeSource is a recurring income definition. The projection engine only
// reads it; mutation happens through direct user edits.
type IncomeSource struct {
	ID          IncomeSourceID
	UserID      UserID
	Name        string
	Amount      Money // per occurrence
	Frequency   PayFrequency
	NextPayDate time.Time
	Active      bool
	WalletID    WalletID // preferred deposit wallet, optional
	CreatedAt   time.Time
}

// =============================================================================
// BUDGET PERIOD
// =============================================================================

// BudgetPeriod is a dated income envelope. At most one period may be active
// per overlapping date range; creating a new overlapping period deactivates
// prior overlapping ones.
type BudgetPeriod struct {
	ID          BudgetPeriodID
	UserID      UserID
	Start       time.Time
	End         time.Time
	TotalIncome Money
	Active      bool
	CreatedAt   time.Time
}

// Overlaps reports whether two periods share any dates.
func (b BudgetPeriod) Overlaps(start, end time.Time) bool {
	return !b.End.Before(start) && !b.Start.After(end)
}

// =============================================================================
// DATE HELPERS
// =============================================================================

// DateOnly truncates t to midnight UTC. Ledger dates compare at day
// granularity.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the current date at day granularity.
func Today() time.Time { return DateOnly(time.Now().UTC()) }

// DaysBetween returns the number of whole days from a to b, negative when b
// is before a.
func DaysBetween(a, b time.Time) int {
	return int(DateOnly(b).Sub(DateOnly(a)).Hours() / 24)
}

/*
store.go - Persistence interfaces for the ledger engine

PURPOSE:
  Defines the boundary between the domain logic and the database. The Store
  does plain record CRUD; TxStore adds the atomic transaction wrapper the
  Ledger requires for every multi-record mutation.

ATOMICITY CONTRACT:
  Every Ledger operation that touches more than one record (wallet balance +
  transaction row, wallet + linked planned expense, the multi-row transfer)
  runs inside a single WithTx call. Partial application must be impossible
  to observe: if fn returns an error, nothing it wrote survives.

MISSING RECORDS:
  Get* methods return (nil, nil) for a missing record; the Ledger wraps that
  into NotFoundError with domain context.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite with real SQL transactions
  - ledger/store/memory.go: In-memory for tests

SEE ALSO:
  - ledger.go: The only writer of wallet balances and goal progress
*/
package ledger

import (
	"context"
	"time"
)

// Store handles persistence of ledger records. Reads are consistent within a
// WithTx callback; balance writes happen only through the Ledger.
type Store interface {
	// Wallets
	GetWallet(ctx context.Context, id WalletID) (*Wallet, error)
	SaveWallet(ctx context.Context, w Wallet) error
	ListWallets(ctx context.Context, userID UserID) ([]Wallet, error)

	// Transactions
	GetTransaction(ctx context.Context, id TransactionID) (*Transaction, error)
	InsertTransaction(ctx context.Context, tx Transaction) error
	UpdateTransaction(ctx context.Context, tx Transaction) error
	DeleteTransaction(ctx context.Context, id TransactionID) error
	ListTransactionsByWallet(ctx context.Context, walletID WalletID, from, to time.Time) ([]Transaction, error)

	// ListTransactionsByGroup returns every row of one transfer group:
	// both legs plus the fee row when one was charged.
	ListTransactionsByGroup(ctx context.Context, group TransferGroupID) ([]Transaction, error)

	// SumExpenses returns the total EXPENSE amount for the user in [from, to].
	// Transfer fee rows count; transfer legs do not.
	SumExpenses(ctx context.Context, userID UserID, from, to time.Time) (Money, error)

	// Planned expenses
	GetPlannedExpense(ctx context.Context, id PlannedExpenseID) (*PlannedExpense, error)
	SavePlannedExpense(ctx context.Context, p PlannedExpense) error
	ListPlannedExpenses(ctx context.Context, userID UserID, statuses []ExpenseStatus) ([]PlannedExpense, error)

	// Income sources
	GetIncomeSource(ctx context.Context, id IncomeSourceID) (*IncomeSource, error)
	SaveIncomeSource(ctx context.Context, s IncomeSource) error
	ListIncomeSources(ctx context.Context, userID UserID, activeOnly bool) ([]IncomeSource, error)

	// Budget periods
	SaveBudgetPeriod(ctx context.Context, b BudgetPeriod) error
	ListBudgetPeriods(ctx context.Context, userID UserID) ([]BudgetPeriod, error)

	// ListUsersWithActivePlans returns every user owning at least one
	// planned expense in planned/saved status. Drives the recalculation sweep.
	ListUsersWithActivePlans(ctx context.Context) ([]UserID, error)
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within one atomic transaction. Reads inside fn see
	// fn's own writes; if fn returns an error everything rolls back.
	WithTx(ctx context.Context, fn func(Store) error) error
}

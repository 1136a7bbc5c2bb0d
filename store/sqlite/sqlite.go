/*
Package sqlite provides the SQLite-backed implementation of the ledger
storage interfaces.

PURPOSE:
  Implements ledger.Store and ledger.TxStore on SQLite. In production the
  same patterns apply to PostgreSQL - only minor SQL dialect differences.

ATOMICITY:
  WithTx maps directly onto a SQL transaction. Every query helper takes a
  queryer, satisfied by both *sql.DB and *sql.Tx, so reads inside WithTx
  see the transaction's own writes and never re-enter the store mutex.

MONEY AND DATES:
  Decimal amounts are stored as TEXT and re-parsed on read; SUM() over
  floats would silently lose precision. Timestamps are RFC3339 TEXT.

KEY TABLES:
  wallets:          Balance holders, soft-deleted via active flag
  transactions:     All balance movements, including transfer legs and fees
  planned_expenses: Savings goals with spent progress and confidence
  income_sources:   Recurring income definitions for projection
  budget_periods:   Named date ranges, one active per overlap window

INDEXES:
  - idx_transactions_user_kind_date: expense run-rate query (hot path)
  - idx_transactions_wallet_date:    per-wallet listing
  - idx_planned_user_status:         active-plan listing and the sweep

WAL MODE:
  SQLite is opened with WAL for better concurrency: readers don't block
  and there is a single writer at a time.

USAGE:
  st, err := sqlite.New("./data/finance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()
  ldg := ledger.New(st)

SEE ALSO:
  - ledger/store.go: Interface definitions
  - ledger/store/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pesoplan/finance-engine/ledger"
)

// Store implements ledger.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// queryer is satisfied by *sql.DB and *sql.Tx so the same helpers serve
// both direct calls and WithTx callbacks.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New opens a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS wallets (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		balance TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_wallets_user
		ON wallets(user_id);

	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		wallet_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		amount TEXT NOT NULL,
		category TEXT,
		note TEXT,
		occurred_at TEXT NOT NULL,
		counterpart_wallet_id TEXT,
		transfer_role TEXT,
		transfer_group_id TEXT,
		transfer_fee TEXT,
		planned_expense_id TEXT,
		created_at TEXT NOT NULL
	);

	-- Expense run-rate query (hot path for affordability evaluation)
	CREATE INDEX IF NOT EXISTS idx_transactions_user_kind_date
		ON transactions(user_id, kind, occurred_at);
	CREATE INDEX IF NOT EXISTS idx_transactions_wallet_date
		ON transactions(wallet_id, occurred_at);
	CREATE INDEX IF NOT EXISTS idx_transactions_transfer_group
		ON transactions(transfer_group_id) WHERE transfer_group_id != '';

	CREATE TABLE IF NOT EXISTS planned_expenses (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		amount TEXT NOT NULL,
		spent TEXT NOT NULL,
		category TEXT,
		target_date TEXT NOT NULL,
		priority TEXT NOT NULL,
		confidence TEXT NOT NULL,
		status TEXT NOT NULL,
		wallet_id TEXT,
		confidence_checked_at TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_planned_user_status
		ON planned_expenses(user_id, status);
	CREATE INDEX IF NOT EXISTS idx_planned_target_date
		ON planned_expenses(target_date);

	CREATE TABLE IF NOT EXISTS income_sources (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		amount TEXT NOT NULL,
		frequency TEXT NOT NULL,
		next_pay_date TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		wallet_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_income_sources_user
		ON income_sources(user_id, active);

	CREATE TABLE IF NOT EXISTS budget_periods (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		total_income TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_budget_periods_user
		ON budget_periods(user_id, active);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// WALLETS
// =============================================================================

func (s *Store) GetWallet(ctx context.Context, id ledger.WalletID) (*ledger.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getWallet(ctx, s.db, id)
}

func (s *Store) getWallet(ctx context.Context, q queryer, id ledger.WalletID) (*ledger.Wallet, error) {
	var w ledger.Wallet
	var balance, createdAt string

	err := q.QueryRowContext(ctx,
		"SELECT id, user_id, name, type, balance, active, created_at FROM wallets WHERE id = ?",
		string(id),
	).Scan(&w.ID, &w.UserID, &w.Name, &w.Type, &balance, &w.Active, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	w.Balance = ledger.MustParseMoney(balance)
	w.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &w, nil
}

func (s *Store) SaveWallet(ctx context.Context, w ledger.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveWallet(ctx, s.db, w)
}

func (s *Store) saveWallet(ctx context.Context, q queryer, w ledger.Wallet) error {
	query := `
		INSERT INTO wallets (id, user_id, name, type, balance, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			balance = excluded.balance,
			active = excluded.active
	`

	_, err := q.ExecContext(ctx, query,
		string(w.ID), string(w.UserID), w.Name, w.Type,
		w.Balance.Value.String(), w.Active,
		w.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) ListWallets(ctx context.Context, userID ledger.UserID) ([]ledger.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listWallets(ctx, s.db, userID)
}

func (s *Store) listWallets(ctx context.Context, q queryer, userID ledger.UserID) ([]ledger.Wallet, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id, user_id, name, type, balance, active, created_at FROM wallets WHERE user_id = ? ORDER BY name",
		string(userID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var wallets []ledger.Wallet
	for rows.Next() {
		var w ledger.Wallet
		var balance, createdAt string
		if err := rows.Scan(&w.ID, &w.UserID, &w.Name, &w.Type, &balance, &w.Active, &createdAt); err != nil {
			return nil, err
		}
		w.Balance = ledger.MustParseMoney(balance)
		w.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

const txColumns = `id, user_id, wallet_id, kind, amount, category, note, occurred_at,
	counterpart_wallet_id, transfer_role, transfer_group_id, transfer_fee,
	planned_expense_id, created_at`

func (s *Store) GetTransaction(ctx context.Context, id ledger.TransactionID) (*ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getTransaction(ctx, s.db, id)
}

func (s *Store) getTransaction(ctx context.Context, q queryer, id ledger.TransactionID) (*ledger.Transaction, error) {
	txs, err := s.queryTransactions(ctx, q,
		"SELECT "+txColumns+" FROM transactions WHERE id = ?", string(id))
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, nil
	}
	return &txs[0], nil
}

func (s *Store) InsertTransaction(ctx context.Context, tx ledger.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertTransaction(ctx, s.db, tx)
}

func (s *Store) insertTransaction(ctx context.Context, q queryer, tx ledger.Transaction) error {
	query := `
		INSERT INTO transactions
		(id, user_id, wallet_id, kind, amount, category, note, occurred_at,
		 counterpart_wallet_id, transfer_role, transfer_group_id, transfer_fee,
		 planned_expense_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := q.ExecContext(ctx, query,
		string(tx.ID), string(tx.UserID), string(tx.WalletID), string(tx.Kind),
		tx.Amount.Value.String(), tx.Category, tx.Note,
		tx.OccurredAt.UTC().Format(time.RFC3339),
		string(tx.CounterpartWalletID), string(tx.TransferRole),
		string(tx.TransferGroupID), tx.TransferFee.Value.String(),
		string(tx.PlannedExpenseID),
		tx.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func (s *Store) UpdateTransaction(ctx context.Context, tx ledger.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateTransaction(ctx, s.db, tx)
}

func (s *Store) updateTransaction(ctx context.Context, q queryer, tx ledger.Transaction) error {
	query := `
		UPDATE transactions SET
			wallet_id = ?, kind = ?, amount = ?, category = ?, note = ?,
			occurred_at = ?, planned_expense_id = ?
		WHERE id = ?
	`

	res, err := q.ExecContext(ctx, query,
		string(tx.WalletID), string(tx.Kind), tx.Amount.Value.String(),
		tx.Category, tx.Note, tx.OccurredAt.UTC().Format(time.RFC3339),
		string(tx.PlannedExpenseID), string(tx.ID),
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ledger.ErrNotFound
	}
	return err
}

func (s *Store) DeleteTransaction(ctx context.Context, id ledger.TransactionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteTransaction(ctx, s.db, id)
}

func (s *Store) deleteTransaction(ctx context.Context, q queryer, id ledger.TransactionID) error {
	_, err := q.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", string(id))
	return err
}

func (s *Store) ListTransactionsByWallet(ctx context.Context, walletID ledger.WalletID, from, to time.Time) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listTransactionsByWallet(ctx, s.db, walletID, from, to)
}

func (s *Store) listTransactionsByWallet(ctx context.Context, q queryer, walletID ledger.WalletID, from, to time.Time) ([]ledger.Transaction, error) {
	query := "SELECT " + txColumns + ` FROM transactions
		WHERE wallet_id = ? AND occurred_at >= ? AND occurred_at <= ?
		ORDER BY occurred_at ASC, created_at ASC`

	return s.queryTransactions(ctx, q, query, string(walletID),
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
}

func (s *Store) ListTransactionsByGroup(ctx context.Context, group ledger.TransferGroupID) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listTransactionsByGroup(ctx, s.db, group)
}

func (s *Store) listTransactionsByGroup(ctx context.Context, q queryer, group ledger.TransferGroupID) ([]ledger.Transaction, error) {
	query := "SELECT " + txColumns + ` FROM transactions
		WHERE transfer_group_id = ?
		ORDER BY created_at ASC`

	return s.queryTransactions(ctx, q, query, string(group))
}

func (s *Store) SumExpenses(ctx context.Context, userID ledger.UserID, from, to time.Time) (ledger.Money, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sumExpenses(ctx, s.db, userID, from, to)
}

// sumExpenses totals in Go rather than SQL SUM: amounts live in TEXT
// columns and casting them to REAL would lose precision.
func (s *Store) sumExpenses(ctx context.Context, q queryer, userID ledger.UserID, from, to time.Time) (ledger.Money, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT amount FROM transactions
		 WHERE user_id = ? AND kind = ? AND occurred_at >= ? AND occurred_at <= ?`,
		string(userID), string(ledger.KindExpense),
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return ledger.ZeroMoney(), err
	}
	defer rows.Close()

	total := ledger.ZeroMoney()
	for rows.Next() {
		var amount string
		if err := rows.Scan(&amount); err != nil {
			return ledger.ZeroMoney(), err
		}
		total = total.Add(ledger.MustParseMoney(amount))
	}
	return total, rows.Err()
}

func (s *Store) queryTransactions(ctx context.Context, q queryer, query string, args ...any) ([]ledger.Transaction, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []ledger.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

func scanTransaction(rows *sql.Rows) (ledger.Transaction, error) {
	var (
		tx          ledger.Transaction
		amount      string
		occurredAt  string
		category    sql.NullString
		note        sql.NullString
		counterpart sql.NullString
		role        sql.NullString
		groupID     sql.NullString
		fee         sql.NullString
		plannedID   sql.NullString
		createdAt   string
	)

	err := rows.Scan(
		&tx.ID, &tx.UserID, &tx.WalletID, &tx.Kind, &amount,
		&category, &note, &occurredAt,
		&counterpart, &role, &groupID, &fee, &plannedID, &createdAt,
	)
	if err != nil {
		return tx, fmt.Errorf("failed to scan transaction: %w", err)
	}

	tx.Amount = ledger.MustParseMoney(amount)
	tx.Category = category.String
	tx.Note = note.String
	tx.OccurredAt, _ = time.Parse(time.RFC3339, occurredAt)
	tx.CounterpartWalletID = ledger.WalletID(counterpart.String)
	tx.TransferRole = ledger.TransferRole(role.String)
	tx.TransferGroupID = ledger.TransferGroupID(groupID.String)
	tx.TransferFee = ledger.MustParseMoney(fee.String)
	tx.PlannedExpenseID = ledger.PlannedExpenseID(plannedID.String)
	tx.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	return tx, nil
}

// =============================================================================
// PLANNED EXPENSES
// =============================================================================

const planColumns = `id, user_id, title, amount, spent, category, target_date,
	priority, confidence, status, wallet_id, confidence_checked_at, created_at`

func (s *Store) GetPlannedExpense(ctx context.Context, id ledger.PlannedExpenseID) (*ledger.PlannedExpense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getPlannedExpense(ctx, s.db, id)
}

func (s *Store) getPlannedExpense(ctx context.Context, q queryer, id ledger.PlannedExpenseID) (*ledger.PlannedExpense, error) {
	plans, err := s.queryPlans(ctx, q,
		"SELECT "+planColumns+" FROM planned_expenses WHERE id = ?", string(id))
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, nil
	}
	return &plans[0], nil
}

func (s *Store) SavePlannedExpense(ctx context.Context, p ledger.PlannedExpense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.savePlannedExpense(ctx, s.db, p)
}

func (s *Store) savePlannedExpense(ctx context.Context, q queryer, p ledger.PlannedExpense) error {
	query := `
		INSERT INTO planned_expenses
		(id, user_id, title, amount, spent, category, target_date, priority,
		 confidence, status, wallet_id, confidence_checked_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			amount = excluded.amount,
			spent = excluded.spent,
			category = excluded.category,
			target_date = excluded.target_date,
			priority = excluded.priority,
			confidence = excluded.confidence,
			status = excluded.status,
			wallet_id = excluded.wallet_id,
			confidence_checked_at = excluded.confidence_checked_at
	`

	var checkedAt string
	if !p.ConfidenceCheckedAt.IsZero() {
		checkedAt = p.ConfidenceCheckedAt.UTC().Format(time.RFC3339)
	}

	_, err := q.ExecContext(ctx, query,
		string(p.ID), string(p.UserID), p.Title,
		p.Amount.Value.String(), p.Spent.Value.String(), p.Category,
		p.TargetDate.UTC().Format(time.RFC3339),
		string(p.Priority), string(p.Confidence), string(p.Status),
		string(p.WalletID), checkedAt,
		p.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) ListPlannedExpenses(ctx context.Context, userID ledger.UserID, statuses []ledger.ExpenseStatus) ([]ledger.PlannedExpense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listPlannedExpenses(ctx, s.db, userID, statuses)
}

func (s *Store) listPlannedExpenses(ctx context.Context, q queryer, userID ledger.UserID, statuses []ledger.ExpenseStatus) ([]ledger.PlannedExpense, error) {
	query := "SELECT " + planColumns + " FROM planned_expenses WHERE user_id = ?"
	args := []any{string(userID)}

	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, st := range statuses {
			placeholders[i] = "?"
			args = append(args, string(st))
		}
		query += " AND status IN (" + strings.Join(placeholders, ", ") + ")"
	}
	query += " ORDER BY target_date ASC"

	return s.queryPlans(ctx, q, query, args...)
}

func (s *Store) queryPlans(ctx context.Context, q queryer, query string, args ...any) ([]ledger.PlannedExpense, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []ledger.PlannedExpense
	for rows.Next() {
		var (
			p          ledger.PlannedExpense
			amount     string
			spent      string
			category   sql.NullString
			targetDate string
			walletID   sql.NullString
			checkedAt  sql.NullString
			createdAt  string
		)
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.Title, &amount, &spent, &category, &targetDate,
			&p.Priority, &p.Confidence, &p.Status, &walletID, &checkedAt, &createdAt,
		); err != nil {
			return nil, err
		}

		p.Amount = ledger.MustParseMoney(amount)
		p.Spent = ledger.MustParseMoney(spent)
		p.Category = category.String
		p.TargetDate, _ = time.Parse(time.RFC3339, targetDate)
		p.WalletID = ledger.WalletID(walletID.String)
		if checkedAt.Valid && checkedAt.String != "" {
			p.ConfidenceCheckedAt, _ = time.Parse(time.RFC3339, checkedAt.String)
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// =============================================================================
// INCOME SOURCES
// =============================================================================

func (s *Store) GetIncomeSource(ctx context.Context, id ledger.IncomeSourceID) (*ledger.IncomeSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getIncomeSource(ctx, s.db, id)
}

func (s *Store) getIncomeSource(ctx context.Context, q queryer, id ledger.IncomeSourceID) (*ledger.IncomeSource, error) {
	sources, err := s.queryIncomeSources(ctx, q,
		`SELECT id, user_id, name, amount, frequency, next_pay_date, active, wallet_id, created_at
		 FROM income_sources WHERE id = ?`, string(id))
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, nil
	}
	return &sources[0], nil
}

func (s *Store) SaveIncomeSource(ctx context.Context, src ledger.IncomeSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveIncomeSource(ctx, s.db, src)
}

func (s *Store) saveIncomeSource(ctx context.Context, q queryer, src ledger.IncomeSource) error {
	query := `
		INSERT INTO income_sources (id, user_id, name, amount, frequency, next_pay_date, active, wallet_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			amount = excluded.amount,
			frequency = excluded.frequency,
			next_pay_date = excluded.next_pay_date,
			active = excluded.active,
			wallet_id = excluded.wallet_id
	`

	_, err := q.ExecContext(ctx, query,
		string(src.ID), string(src.UserID), src.Name,
		src.Amount.Value.String(), string(src.Frequency),
		src.NextPayDate.UTC().Format(time.RFC3339),
		src.Active, string(src.WalletID),
		src.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) ListIncomeSources(ctx context.Context, userID ledger.UserID, activeOnly bool) ([]ledger.IncomeSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listIncomeSources(ctx, s.db, userID, activeOnly)
}

func (s *Store) listIncomeSources(ctx context.Context, q queryer, userID ledger.UserID, activeOnly bool) ([]ledger.IncomeSource, error) {
	query := `SELECT id, user_id, name, amount, frequency, next_pay_date, active, wallet_id, created_at
		FROM income_sources WHERE user_id = ?`
	args := []any{string(userID)}
	if activeOnly {
		query += " AND active = TRUE"
	}
	query += " ORDER BY name"

	return s.queryIncomeSources(ctx, q, query, args...)
}

func (s *Store) queryIncomeSources(ctx context.Context, q queryer, query string, args ...any) ([]ledger.IncomeSource, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []ledger.IncomeSource
	for rows.Next() {
		var (
			src         ledger.IncomeSource
			amount      string
			nextPayDate string
			walletID    sql.NullString
			createdAt   string
		)
		if err := rows.Scan(
			&src.ID, &src.UserID, &src.Name, &amount, &src.Frequency,
			&nextPayDate, &src.Active, &walletID, &createdAt,
		); err != nil {
			return nil, err
		}

		src.Amount = ledger.MustParseMoney(amount)
		src.NextPayDate, _ = time.Parse(time.RFC3339, nextPayDate)
		src.WalletID = ledger.WalletID(walletID.String)
		src.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// =============================================================================
// BUDGET PERIODS
// =============================================================================

func (s *Store) SaveBudgetPeriod(ctx context.Context, b ledger.BudgetPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveBudgetPeriod(ctx, s.db, b)
}

func (s *Store) saveBudgetPeriod(ctx context.Context, q queryer, b ledger.BudgetPeriod) error {
	query := `
		INSERT INTO budget_periods (id, user_id, start_date, end_date, total_income, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			total_income = excluded.total_income,
			active = excluded.active
	`

	_, err := q.ExecContext(ctx, query,
		string(b.ID), string(b.UserID),
		b.Start.UTC().Format(time.RFC3339), b.End.UTC().Format(time.RFC3339),
		b.TotalIncome.Value.String(), b.Active,
		b.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) ListBudgetPeriods(ctx context.Context, userID ledger.UserID) ([]ledger.BudgetPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listBudgetPeriods(ctx, s.db, userID)
}

func (s *Store) listBudgetPeriods(ctx context.Context, q queryer, userID ledger.UserID) ([]ledger.BudgetPeriod, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, user_id, start_date, end_date, total_income, active, created_at
		 FROM budget_periods WHERE user_id = ? ORDER BY start_date DESC`,
		string(userID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []ledger.BudgetPeriod
	for rows.Next() {
		var (
			b           ledger.BudgetPeriod
			start       string
			end         string
			totalIncome string
			createdAt   string
		)
		if err := rows.Scan(&b.ID, &b.UserID, &start, &end, &totalIncome, &b.Active, &createdAt); err != nil {
			return nil, err
		}
		b.Start, _ = time.Parse(time.RFC3339, start)
		b.End, _ = time.Parse(time.RFC3339, end)
		b.TotalIncome = ledger.MustParseMoney(totalIncome)
		b.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		periods = append(periods, b)
	}
	return periods, rows.Err()
}

// =============================================================================
// SWEEP SUPPORT
// =============================================================================

func (s *Store) ListUsersWithActivePlans(ctx context.Context) ([]ledger.UserID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listUsersWithActivePlans(ctx, s.db)
}

func (s *Store) listUsersWithActivePlans(ctx context.Context, q queryer) ([]ledger.UserID, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT DISTINCT user_id FROM planned_expenses
		 WHERE status IN (?, ?) ORDER BY user_id`,
		string(ledger.StatusPlanned), string(ledger.StatusSaved),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []ledger.UserID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		users = append(users, ledger.UserID(id))
	}
	return users, rows.Err()
}

// =============================================================================
// TRANSACTIONAL STORE (ledger.TxStore interface)
// =============================================================================

// WithTx executes fn within a database transaction. The callback's store
// routes every query through the *sql.Tx, so reads see the transaction's
// own writes and no method re-acquires the mutex.
func (s *Store) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{q: sqlTx, parent: s}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

type txStore struct {
	q      *sql.Tx
	parent *Store
}

func (ts *txStore) GetWallet(ctx context.Context, id ledger.WalletID) (*ledger.Wallet, error) {
	return ts.parent.getWallet(ctx, ts.q, id)
}

func (ts *txStore) SaveWallet(ctx context.Context, w ledger.Wallet) error {
	return ts.parent.saveWallet(ctx, ts.q, w)
}

func (ts *txStore) ListWallets(ctx context.Context, userID ledger.UserID) ([]ledger.Wallet, error) {
	return ts.parent.listWallets(ctx, ts.q, userID)
}

func (ts *txStore) GetTransaction(ctx context.Context, id ledger.TransactionID) (*ledger.Transaction, error) {
	return ts.parent.getTransaction(ctx, ts.q, id)
}

func (ts *txStore) InsertTransaction(ctx context.Context, tx ledger.Transaction) error {
	return ts.parent.insertTransaction(ctx, ts.q, tx)
}

func (ts *txStore) UpdateTransaction(ctx context.Context, tx ledger.Transaction) error {
	return ts.parent.updateTransaction(ctx, ts.q, tx)
}

func (ts *txStore) DeleteTransaction(ctx context.Context, id ledger.TransactionID) error {
	return ts.parent.deleteTransaction(ctx, ts.q, id)
}

func (ts *txStore) ListTransactionsByWallet(ctx context.Context, walletID ledger.WalletID, from, to time.Time) ([]ledger.Transaction, error) {
	return ts.parent.listTransactionsByWallet(ctx, ts.q, walletID, from, to)
}

func (ts *txStore) ListTransactionsByGroup(ctx context.Context, group ledger.TransferGroupID) ([]ledger.Transaction, error) {
	return ts.parent.listTransactionsByGroup(ctx, ts.q, group)
}

func (ts *txStore) SumExpenses(ctx context.Context, userID ledger.UserID, from, to time.Time) (ledger.Money, error) {
	return ts.parent.sumExpenses(ctx, ts.q, userID, from, to)
}

func (ts *txStore) GetPlannedExpense(ctx context.Context, id ledger.PlannedExpenseID) (*ledger.PlannedExpense, error) {
	return ts.parent.getPlannedExpense(ctx, ts.q, id)
}

func (ts *txStore) SavePlannedExpense(ctx context.Context, p ledger.PlannedExpense) error {
	return ts.parent.savePlannedExpense(ctx, ts.q, p)
}

func (ts *txStore) ListPlannedExpenses(ctx context.Context, userID ledger.UserID, statuses []ledger.ExpenseStatus) ([]ledger.PlannedExpense, error) {
	return ts.parent.listPlannedExpenses(ctx, ts.q, userID, statuses)
}

func (ts *txStore) GetIncomeSource(ctx context.Context, id ledger.IncomeSourceID) (*ledger.IncomeSource, error) {
	return ts.parent.getIncomeSource(ctx, ts.q, id)
}

func (ts *txStore) SaveIncomeSource(ctx context.Context, src ledger.IncomeSource) error {
	return ts.parent.saveIncomeSource(ctx, ts.q, src)
}

func (ts *txStore) ListIncomeSources(ctx context.Context, userID ledger.UserID, activeOnly bool) ([]ledger.IncomeSource, error) {
	return ts.parent.listIncomeSources(ctx, ts.q, userID, activeOnly)
}

func (ts *txStore) SaveBudgetPeriod(ctx context.Context, b ledger.BudgetPeriod) error {
	return ts.parent.saveBudgetPeriod(ctx, ts.q, b)
}

func (ts *txStore) ListBudgetPeriods(ctx context.Context, userID ledger.UserID) ([]ledger.BudgetPeriod, error) {
	return ts.parent.listBudgetPeriods(ctx, ts.q, userID)
}

func (ts *txStore) ListUsersWithActivePlans(ctx context.Context) ([]ledger.UserID, error) {
	return ts.parent.listUsersWithActivePlans(ctx, ts.q)
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"transactions", "planned_expenses", "income_sources", "budget_periods", "wallets"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

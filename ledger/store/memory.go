// Package store provides an in-memory ledger.TxStore for tests and dev.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pesoplan/finance-engine/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory holds every record in maps guarded by one mutex. WithTx gets its
// all-or-nothing semantics from copy-on-write: the callback runs against a
// clone, which replaces the live state only on success.
type Memory struct {
	mu            sync.RWMutex
	wallets       map[ledger.WalletID]ledger.Wallet
	transactions  map[ledger.TransactionID]ledger.Transaction
	plans         map[ledger.PlannedExpenseID]ledger.PlannedExpense
	incomeSources map[ledger.IncomeSourceID]ledger.IncomeSource
	budgetPeriods map[ledger.BudgetPeriodID]ledger.BudgetPeriod
}

func NewMemory() *Memory {
	return &Memory{
		wallets:       make(map[ledger.WalletID]ledger.Wallet),
		transactions:  make(map[ledger.TransactionID]ledger.Transaction),
		plans:         make(map[ledger.PlannedExpenseID]ledger.PlannedExpense),
		incomeSources: make(map[ledger.IncomeSourceID]ledger.IncomeSource),
		budgetPeriods: make(map[ledger.BudgetPeriodID]ledger.BudgetPeriod),
	}
}

// clone copies all maps. Records are value types, so a shallow map copy is a
// full snapshot.
func (m *Memory) clone() *Memory {
	c := NewMemory()
	for k, v := range m.wallets {
		c.wallets[k] = v
	}
	for k, v := range m.transactions {
		c.transactions[k] = v
	}
	for k, v := range m.plans {
		c.plans[k] = v
	}
	for k, v := range m.incomeSources {
		c.incomeSources[k] = v
	}
	for k, v := range m.budgetPeriods {
		c.budgetPeriods[k] = v
	}
	return c
}

// WithTx implements ledger.TxStore.
func (m *Memory) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	scratch := m.cloneLocked()
	if err := fn(&txView{Memory: scratch}); err != nil {
		return err
	}

	m.wallets = scratch.wallets
	m.transactions = scratch.transactions
	m.plans = scratch.plans
	m.incomeSources = scratch.incomeSources
	m.budgetPeriods = scratch.budgetPeriods
	return nil
}

func (m *Memory) cloneLocked() *Memory { return m.clone() }

// txView is the store handed to WithTx callbacks. It skips locking: the
// parent holds the write lock for the whole transaction.
type txView struct {
	*Memory
}

func (v *txView) GetWallet(_ context.Context, id ledger.WalletID) (*ledger.Wallet, error) {
	return v.Memory.getWallet(id), nil
}

func (v *txView) SaveWallet(_ context.Context, w ledger.Wallet) error {
	v.Memory.wallets[w.ID] = w
	return nil
}

func (v *txView) GetTransaction(_ context.Context, id ledger.TransactionID) (*ledger.Transaction, error) {
	return v.Memory.getTransaction(id), nil
}

func (v *txView) InsertTransaction(_ context.Context, tx ledger.Transaction) error {
	v.Memory.transactions[tx.ID] = tx
	return nil
}

func (v *txView) UpdateTransaction(_ context.Context, tx ledger.Transaction) error {
	v.Memory.transactions[tx.ID] = tx
	return nil
}

func (v *txView) DeleteTransaction(_ context.Context, id ledger.TransactionID) error {
	delete(v.Memory.transactions, id)
	return nil
}

func (v *txView) GetPlannedExpense(_ context.Context, id ledger.PlannedExpenseID) (*ledger.PlannedExpense, error) {
	return v.Memory.getPlannedExpense(id), nil
}

func (v *txView) SavePlannedExpense(_ context.Context, p ledger.PlannedExpense) error {
	v.Memory.plans[p.ID] = p
	return nil
}

func (v *txView) GetIncomeSource(_ context.Context, id ledger.IncomeSourceID) (*ledger.IncomeSource, error) {
	return v.Memory.getIncomeSource(id), nil
}

func (v *txView) SaveIncomeSource(_ context.Context, s ledger.IncomeSource) error {
	v.Memory.incomeSources[s.ID] = s
	return nil
}

func (v *txView) SaveBudgetPeriod(_ context.Context, b ledger.BudgetPeriod) error {
	v.Memory.budgetPeriods[b.ID] = b
	return nil
}

func (v *txView) ListWallets(_ context.Context, userID ledger.UserID) ([]ledger.Wallet, error) {
	return v.Memory.listWallets(userID), nil
}

func (v *txView) ListTransactionsByWallet(_ context.Context, walletID ledger.WalletID, from, to time.Time) ([]ledger.Transaction, error) {
	return v.Memory.listTransactionsByWallet(walletID, from, to), nil
}

func (v *txView) ListTransactionsByGroup(_ context.Context, group ledger.TransferGroupID) ([]ledger.Transaction, error) {
	return v.Memory.listTransactionsByGroup(group), nil
}

func (v *txView) SumExpenses(_ context.Context, userID ledger.UserID, from, to time.Time) (ledger.Money, error) {
	return v.Memory.sumExpenses(userID, from, to), nil
}

func (v *txView) ListPlannedExpenses(_ context.Context, userID ledger.UserID, statuses []ledger.ExpenseStatus) ([]ledger.PlannedExpense, error) {
	return v.Memory.listPlannedExpenses(userID, statuses), nil
}

func (v *txView) ListIncomeSources(_ context.Context, userID ledger.UserID, activeOnly bool) ([]ledger.IncomeSource, error) {
	return v.Memory.listIncomeSources(userID, activeOnly), nil
}

func (v *txView) ListBudgetPeriods(_ context.Context, userID ledger.UserID) ([]ledger.BudgetPeriod, error) {
	return v.Memory.listBudgetPeriods(userID), nil
}

func (v *txView) ListUsersWithActivePlans(_ context.Context) ([]ledger.UserID, error) {
	return v.Memory.listUsersWithActivePlans(), nil
}

// =============================================================================
// PUBLIC (LOCKED) STORE METHODS
// =============================================================================

func (m *Memory) GetWallet(_ context.Context, id ledger.WalletID) (*ledger.Wallet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getWallet(id), nil
}

func (m *Memory) SaveWallet(_ context.Context, w ledger.Wallet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wallets[w.ID] = w
	return nil
}

func (m *Memory) ListWallets(_ context.Context, userID ledger.UserID) ([]ledger.Wallet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listWallets(userID), nil
}

func (m *Memory) GetTransaction(_ context.Context, id ledger.TransactionID) (*ledger.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getTransaction(id), nil
}

func (m *Memory) InsertTransaction(_ context.Context, tx ledger.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[tx.ID] = tx
	return nil
}

func (m *Memory) UpdateTransaction(_ context.Context, tx ledger.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[tx.ID] = tx
	return nil
}

func (m *Memory) DeleteTransaction(_ context.Context, id ledger.TransactionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.transactions, id)
	return nil
}

func (m *Memory) ListTransactionsByWallet(_ context.Context, walletID ledger.WalletID, from, to time.Time) ([]ledger.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listTransactionsByWallet(walletID, from, to), nil
}

func (m *Memory) ListTransactionsByGroup(_ context.Context, group ledger.TransferGroupID) ([]ledger.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listTransactionsByGroup(group), nil
}

func (m *Memory) SumExpenses(_ context.Context, userID ledger.UserID, from, to time.Time) (ledger.Money, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sumExpenses(userID, from, to), nil
}

func (m *Memory) GetPlannedExpense(_ context.Context, id ledger.PlannedExpenseID) (*ledger.PlannedExpense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getPlannedExpense(id), nil
}

func (m *Memory) SavePlannedExpense(_ context.Context, p ledger.PlannedExpense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans[p.ID] = p
	return nil
}

func (m *Memory) ListPlannedExpenses(_ context.Context, userID ledger.UserID, statuses []ledger.ExpenseStatus) ([]ledger.PlannedExpense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listPlannedExpenses(userID, statuses), nil
}

func (m *Memory) GetIncomeSource(_ context.Context, id ledger.IncomeSourceID) (*ledger.IncomeSource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getIncomeSource(id), nil
}

func (m *Memory) SaveIncomeSource(_ context.Context, s ledger.IncomeSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.incomeSources[s.ID] = s
	return nil
}

func (m *Memory) ListIncomeSources(_ context.Context, userID ledger.UserID, activeOnly bool) ([]ledger.IncomeSource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listIncomeSources(userID, activeOnly), nil
}

func (m *Memory) SaveBudgetPeriod(_ context.Context, b ledger.BudgetPeriod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.budgetPeriods[b.ID] = b
	return nil
}

func (m *Memory) ListBudgetPeriods(_ context.Context, userID ledger.UserID) ([]ledger.BudgetPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listBudgetPeriods(userID), nil
}

func (m *Memory) ListUsersWithActivePlans(_ context.Context) ([]ledger.UserID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listUsersWithActivePlans(), nil
}

// =============================================================================
// UNLOCKED HELPERS
// =============================================================================

func (m *Memory) getWallet(id ledger.WalletID) *ledger.Wallet {
	if w, ok := m.wallets[id]; ok {
		return &w
	}
	return nil
}

func (m *Memory) getTransaction(id ledger.TransactionID) *ledger.Transaction {
	if tx, ok := m.transactions[id]; ok {
		return &tx
	}
	return nil
}

func (m *Memory) getPlannedExpense(id ledger.PlannedExpenseID) *ledger.PlannedExpense {
	if p, ok := m.plans[id]; ok {
		return &p
	}
	return nil
}

func (m *Memory) getIncomeSource(id ledger.IncomeSourceID) *ledger.IncomeSource {
	if s, ok := m.incomeSources[id]; ok {
		return &s
	}
	return nil
}

func (m *Memory) listWallets(userID ledger.UserID) []ledger.Wallet {
	var out []ledger.Wallet
	for _, w := range m.wallets {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *Memory) listTransactionsByWallet(walletID ledger.WalletID, from, to time.Time) []ledger.Transaction {
	var out []ledger.Transaction
	for _, tx := range m.transactions {
		if tx.WalletID != walletID {
			continue
		}
		if !from.IsZero() && tx.OccurredAt.Before(from) {
			continue
		}
		if !to.IsZero() && tx.OccurredAt.After(to) {
			continue
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out
}

func (m *Memory) listTransactionsByGroup(group ledger.TransferGroupID) []ledger.Transaction {
	var out []ledger.Transaction
	for _, tx := range m.transactions {
		if tx.TransferGroupID == group {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *Memory) sumExpenses(userID ledger.UserID, from, to time.Time) ledger.Money {
	total := ledger.ZeroMoney()
	for _, tx := range m.transactions {
		if tx.UserID != userID || tx.Kind != ledger.KindExpense {
			continue
		}
		if tx.OccurredAt.Before(from) || tx.OccurredAt.After(to) {
			continue
		}
		total = total.Add(tx.Amount)
	}
	return total
}

func (m *Memory) listPlannedExpenses(userID ledger.UserID, statuses []ledger.ExpenseStatus) []ledger.PlannedExpense {
	var out []ledger.PlannedExpense
	for _, p := range m.plans {
		if p.UserID != userID {
			continue
		}
		if len(statuses) > 0 && !containsStatus(statuses, p.Status) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TargetDate.Before(out[j].TargetDate) })
	return out
}

func (m *Memory) listIncomeSources(userID ledger.UserID, activeOnly bool) []ledger.IncomeSource {
	var out []ledger.IncomeSource
	for _, s := range m.incomeSources {
		if s.UserID != userID {
			continue
		}
		if activeOnly && !s.Active {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *Memory) listBudgetPeriods(userID ledger.UserID) []ledger.BudgetPeriod {
	var out []ledger.BudgetPeriod
	for _, b := range m.budgetPeriods {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

func (m *Memory) listUsersWithActivePlans() []ledger.UserID {
	seen := make(map[ledger.UserID]bool)
	for _, p := range m.plans {
		if p.ActiveForProjection() {
			seen[p.UserID] = true
		}
	}
	out := make([]ledger.UserID, 0, len(seen))
	for u := range seen {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func containsStatus(statuses []ledger.ExpenseStatus, s ledger.ExpenseStatus) bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

/*
ledger.go - Atomic balance mutation engine

PURPOSE:
  The Ledger is the only writer of wallet balances and planned-expense
  progress. Every operation here commits as one unit or not at all, and
  preserves the invariant:

    wallet.Balance == Σ signed effects of all still-existing transactions
                      referencing it

EDITS AND DELETIONS:
  A transaction's amount and kind are conceptually immutable; editing is
  reversal plus reapply inside one store transaction. EditTransaction first
  applies the exact inverse of the prior balance effect (and unwinds any
  planned-expense progress), then applies the new effect to the possibly
  different wallet. DeleteTransaction is the reversal half alone.

TRANSFERS:
  One transfer produces exactly two linked TRANSFER rows (outgoing and
  incoming) sharing a transfer-group id, plus a third EXPENSE row for the
  fee when one is charged. The source wallet must cover amount+fee up front.

TRIGGERS:
  After a successful commit the Ledger notifies its listeners (confidence
  recalculation, insight-cache invalidation). Notification is fire-and-forget:
  a listener failure never rolls back the mutation that fired it.

SEE ALSO:
  - store.go: The atomicity contract the engine relies on
  - forecast: Consumes ledger state read-only
*/
package ledger

import (
	"context"
	"errors"
	"time"
)

// MutationListener is notified after every committed ledger mutation for a
// user. Implementations must not block; failures are the listener's problem.
type MutationListener interface {
	LedgerMutated(userID UserID)
}

// DefaultOpTimeout bounds each store access; on expiry the operation
// surfaces ErrUnavailable rather than hanging.
const DefaultOpTimeout = 5 * time.Second

// Ledger owns all balance mutation. Construct with New.
type Ledger struct {
	store     TxStore
	listeners []MutationListener
	opTimeout time.Duration
	now       func() time.Time
}

func New(store TxStore) *Ledger {
	return &Ledger{
		store:     store,
		opTimeout: DefaultOpTimeout,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// AddListener registers a post-mutation listener.
func (l *Ledger) AddListener(ln MutationListener) { l.listeners = append(l.listeners, ln) }

// Store exposes the backing store for read-only consumers.
func (l *Ledger) Store() Store { return l.store }

func (l *Ledger) notify(userID UserID) {
	for _, ln := range l.listeners {
		ln.LedgerMutated(userID)
	}
}

// withTx runs fn atomically under the operation timeout, translating a
// deadline expiry into ErrUnavailable.
func (l *Ledger) withTx(ctx context.Context, fn func(Store) error) error {
	ctx, cancel := context.WithTimeout(ctx, l.opTimeout)
	defer cancel()

	err := l.store.WithTx(ctx, fn)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrUnavailable
	}
	return err
}

// =============================================================================
// WALLET OPERATIONS
// =============================================================================

func (l *Ledger) CreateWallet(ctx context.Context, userID UserID, name, walletType string) (*Wallet, error) {
	if name == "" {
		return nil, ErrInvalidInput
	}
	w := Wallet{
		ID:        NewWalletID(),
		UserID:    userID,
		Name:      name,
		Type:      walletType,
		Balance:   ZeroMoney(),
		Active:    true,
		CreatedAt: l.now(),
	}
	if err := l.withTx(ctx, func(s Store) error { return s.SaveWallet(ctx, w) }); err != nil {
		return nil, err
	}
	l.notify(userID)
	return &w, nil
}

// DeactivateWallet soft-deletes a wallet. Its transactions remain; further
// mutations against it fail NotFound. The wallet's balance drops out of
// every projection, so listeners are notified like any other mutation.
func (l *Ledger) DeactivateWallet(ctx context.Context, id WalletID) error {
	var userID UserID

	err := l.withTx(ctx, func(s Store) error {
		w, err := s.GetWallet(ctx, id)
		if err != nil {
			return err
		}
		if w == nil {
			return &NotFoundError{Kind: "wallet", ID: string(id)}
		}
		userID = w.UserID
		w.Active = false
		return s.SaveWallet(ctx, *w)
	})
	if err != nil {
		return err
	}

	l.notify(userID)
	return nil
}

func (l *Ledger) ListWallets(ctx context.Context, userID UserID) ([]Wallet, error) {
	return l.store.ListWallets(ctx, userID)
}

// =============================================================================
// TRANSACTION RECORDING
// =============================================================================

// TransactionInput describes an income or expense to record. Transfers go
// through RecordTransfer.
type TransactionInput struct {
	UserID           UserID
	WalletID         WalletID
	Kind             TransactionKind
	Amount           Money
	Category         string
	Note             string
	OccurredAt       time.Time
	PlannedExpenseID PlannedExpenseID // optional, EXPENSE only
}

// RecordTransaction creates the transaction, applies its balance effect, and
// advances any linked planned expense - atomically.
func (l *Ledger) RecordTransaction(ctx context.Context, in TransactionInput) (*Transaction, error) {
	if !in.Amount.IsPositive() {
		return nil, ErrInvalidInput
	}
	if in.Kind != KindIncome && in.Kind != KindExpense {
		return nil, ErrInvalidInput
	}
	if in.PlannedExpenseID != "" && in.Kind != KindExpense {
		return nil, &LinkError{PlannedExpenseID: in.PlannedExpenseID,
			Reason: "only expense transactions may contribute to a planned expense"}
	}

	occurredAt := in.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = l.now()
	}

	tx := Transaction{
		ID:               NewTransactionID(),
		UserID:           in.UserID,
		WalletID:         in.WalletID,
		Kind:             in.Kind,
		Amount:           in.Amount,
		Category:         in.Category,
		Note:             in.Note,
		OccurredAt:       occurredAt,
		PlannedExpenseID: in.PlannedExpenseID,
		CreatedAt:        l.now(),
	}

	err := l.withTx(ctx, func(s Store) error {
		wallet, err := l.activeWallet(ctx, s, in.WalletID)
		if err != nil {
			return err
		}

		if in.PlannedExpenseID != "" {
			if err := l.applySpent(ctx, s, in.PlannedExpenseID, in.Amount); err != nil {
				return err
			}
		}

		if err := s.InsertTransaction(ctx, tx); err != nil {
			return err
		}

		wallet.Balance = wallet.Balance.Add(tx.BalanceEffect())
		return s.SaveWallet(ctx, *wallet)
	})
	if err != nil {
		return nil, err
	}

	l.notify(in.UserID)
	return &tx, nil
}

// =============================================================================
// TRANSFERS
// =============================================================================

// TransferInput describes a wallet-to-wallet transfer with an optional fee
// charged against the source wallet.
type TransferInput struct {
	UserID       UserID
	FromWalletID WalletID
	ToWalletID   WalletID
	Amount       Money
	Fee          Money
	Note         string
	OccurredAt   time.Time
}

// TransferResult holds the rows one transfer produced.
type TransferResult struct {
	Outgoing Transaction
	Incoming Transaction
	Fee      *Transaction // nil when no fee was charged
}

// RecordTransfer moves Amount from the source wallet to the destination,
// charging Fee against the source. All rows and both balance mutations
// commit as one unit or none.
func (l *Ledger) RecordTransfer(ctx context.Context, in TransferInput) (*TransferResult, error) {
	if !in.Amount.IsPositive() || in.Fee.IsNegative() {
		return nil, ErrInvalidInput
	}
	if in.FromWalletID == in.ToWalletID {
		return nil, ErrInvalidInput
	}

	occurredAt := in.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = l.now()
	}
	group := NewTransferGroupID()
	now := l.now()

	outgoing := Transaction{
		ID:                  NewTransactionID(),
		UserID:              in.UserID,
		WalletID:            in.FromWalletID,
		Kind:                KindTransfer,
		Amount:              in.Amount,
		Category:            "transfer",
		Note:                in.Note,
		OccurredAt:          occurredAt,
		CounterpartWalletID: in.ToWalletID,
		TransferRole:        TransferOutgoing,
		TransferGroupID:     group,
		TransferFee:         in.Fee,
		CreatedAt:           now,
	}
	incoming := Transaction{
		ID:                  NewTransactionID(),
		UserID:              in.UserID,
		WalletID:            in.ToWalletID,
		Kind:                KindTransfer,
		Amount:              in.Amount,
		Category:            "transfer",
		Note:                in.Note,
		OccurredAt:          occurredAt,
		CounterpartWalletID: in.FromWalletID,
		TransferRole:        TransferIncoming,
		TransferGroupID:     group,
		CreatedAt:           now,
	}

	result := &TransferResult{Outgoing: outgoing, Incoming: incoming}

	err := l.withTx(ctx, func(s Store) error {
		source, err := l.activeWallet(ctx, s, in.FromWalletID)
		if err != nil {
			return err
		}
		dest, err := l.activeWallet(ctx, s, in.ToWalletID)
		if err != nil {
			return err
		}

		required := in.Amount.Add(in.Fee)
		if source.Balance.LessThan(required) {
			return &InsufficientFundsError{
				WalletID:  source.ID,
				Available: source.Balance,
				Requested: required,
			}
		}

		if err := s.InsertTransaction(ctx, outgoing); err != nil {
			return err
		}
		if err := s.InsertTransaction(ctx, incoming); err != nil {
			return err
		}

		source.Balance = source.Balance.Sub(in.Amount)
		dest.Balance = dest.Balance.Add(in.Amount)

		if in.Fee.IsPositive() {
			feeTx := Transaction{
				ID:              NewTransactionID(),
				UserID:          in.UserID,
				WalletID:        in.FromWalletID,
				Kind:            KindExpense,
				Amount:          in.Fee,
				Category:        "transfer fee",
				OccurredAt:      occurredAt,
				TransferGroupID: group,
				CreatedAt:       now,
			}
			if err := s.InsertTransaction(ctx, feeTx); err != nil {
				return err
			}
			source.Balance = source.Balance.Sub(in.Fee)
			result.Fee = &feeTx
		}

		if err := s.SaveWallet(ctx, *source); err != nil {
			return err
		}
		return s.SaveWallet(ctx, *dest)
	})
	if err != nil {
		return nil, err
	}

	l.notify(in.UserID)
	return result, nil
}

// =============================================================================
// EDIT AND DELETE - Reversal plus reapply
// =============================================================================

// TransactionUpdate carries partial edits; nil fields stay unchanged.
type TransactionUpdate struct {
	WalletID         *WalletID
	Kind             *TransactionKind
	Amount           *Money
	Category         *string
	Note             *string
	OccurredAt       *time.Time
	PlannedExpenseID *PlannedExpenseID
}

// EditTransaction reverses the prior balance effect on the prior wallet,
// then applies the new effect to the (possibly different) wallet, all within
// one atomic unit. Planned-expense progress is unwound and reapplied the
// same way. Transfer rows are rejected outright: transfers are only created
// through RecordTransfer and only removed as a whole group.
func (l *Ledger) EditTransaction(ctx context.Context, id TransactionID, upd TransactionUpdate) (*Transaction, error) {
	var edited Transaction

	err := l.withTx(ctx, func(s Store) error {
		old, err := s.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		if old == nil {
			return &NotFoundError{Kind: "transaction", ID: string(id)}
		}
		// Transfer legs and fee rows move as one group; editing a single
		// row would desynchronize its counterparts.
		if old.TransferGroupID != "" {
			return ErrInvalidInput
		}

		next := applyUpdate(*old, upd)
		if !next.Amount.IsPositive() {
			return ErrInvalidInput
		}
		if next.Kind == KindTransfer && old.Kind != KindTransfer {
			return ErrInvalidInput
		}
		// When the edited kind is no longer EXPENSE the link is dropped:
		// progress is reversed and the reference cleared.
		if next.Kind != KindExpense {
			next.PlannedExpenseID = ""
		}
		if next.PlannedExpenseID != "" && next.Kind != KindExpense {
			return &LinkError{PlannedExpenseID: next.PlannedExpenseID,
				Reason: "only expense transactions may contribute to a planned expense"}
		}

		// Reverse the old effect.
		oldWallet, err := l.activeWallet(ctx, s, old.WalletID)
		if err != nil {
			return err
		}
		oldWallet.Balance = oldWallet.Balance.Sub(old.BalanceEffect())
		if err := s.SaveWallet(ctx, *oldWallet); err != nil {
			return err
		}
		if old.PlannedExpenseID != "" && old.Kind == KindExpense {
			if err := l.reverseSpent(ctx, s, old.PlannedExpenseID, old.Amount); err != nil {
				return err
			}
		}

		// Apply the new effect. Re-read the wallet so a same-wallet edit sees
		// the reversal above.
		newWallet, err := l.activeWallet(ctx, s, next.WalletID)
		if err != nil {
			return err
		}
		if next.PlannedExpenseID != "" {
			if err := l.applySpent(ctx, s, next.PlannedExpenseID, next.Amount); err != nil {
				return err
			}
		}
		newWallet.Balance = newWallet.Balance.Add(next.BalanceEffect())
		if err := s.SaveWallet(ctx, *newWallet); err != nil {
			return err
		}

		if err := s.UpdateTransaction(ctx, next); err != nil {
			return err
		}
		edited = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.notify(edited.UserID)
	return &edited, nil
}

// DeleteTransaction applies the inverse balance effect, unwinds any linked
// planned-expense progress, and removes the row - atomically. Deleting any
// row of a transfer group removes the whole group: both legs and the fee
// row, with each wallet restored to its pre-transfer balance.
func (l *Ledger) DeleteTransaction(ctx context.Context, id TransactionID) error {
	var userID UserID

	err := l.withTx(ctx, func(s Store) error {
		tx, err := s.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		if tx == nil {
			return &NotFoundError{Kind: "transaction", ID: string(id)}
		}
		userID = tx.UserID

		rows := []Transaction{*tx}
		if tx.TransferGroupID != "" {
			rows, err = s.ListTransactionsByGroup(ctx, tx.TransferGroupID)
			if err != nil {
				return err
			}
		}

		for _, row := range rows {
			wallet, err := l.activeWallet(ctx, s, row.WalletID)
			if err != nil {
				return err
			}
			wallet.Balance = wallet.Balance.Sub(row.BalanceEffect())
			if err := s.SaveWallet(ctx, *wallet); err != nil {
				return err
			}

			if row.PlannedExpenseID != "" && row.Kind == KindExpense {
				if err := l.reverseSpent(ctx, s, row.PlannedExpenseID, row.Amount); err != nil {
					return err
				}
			}

			if err := s.DeleteTransaction(ctx, row.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	l.notify(userID)
	return nil
}

// =============================================================================
// PLANNED EXPENSES AND INCOME SOURCES - User-edited records
// =============================================================================

type PlannedExpenseInput struct {
	UserID     UserID
	Title      string
	Amount     Money
	Category   string
	TargetDate time.Time
	Priority   PriorityTier
	WalletID   WalletID
}

func (l *Ledger) CreatePlannedExpense(ctx context.Context, in PlannedExpenseInput) (*PlannedExpense, error) {
	if in.Title == "" || !in.Amount.IsPositive() || in.TargetDate.IsZero() {
		return nil, ErrInvalidInput
	}
	priority := in.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	p := PlannedExpense{
		ID:         NewPlannedExpenseID(),
		UserID:     in.UserID,
		Title:      in.Title,
		Amount:     in.Amount,
		Spent:      ZeroMoney(),
		Category:   in.Category,
		TargetDate: DateOnly(in.TargetDate),
		Priority:   priority,
		Confidence: ConfidenceMedium,
		Status:     StatusPlanned,
		WalletID:   in.WalletID,
		CreatedAt:  l.now(),
	}
	if err := l.withTx(ctx, func(s Store) error { return s.SavePlannedExpense(ctx, p) }); err != nil {
		return nil, err
	}
	l.notify(in.UserID)
	return &p, nil
}

// PlannedExpenseUpdate carries partial user edits; nil fields stay unchanged.
// Spent and confidence are engine-owned and cannot be edited here.
type PlannedExpenseUpdate struct {
	Title      *string
	Amount     *Money
	Category   *string
	TargetDate *time.Time
	Priority   *PriorityTier
	Status     *ExpenseStatus
	WalletID   *WalletID
}

// UpdatePlannedExpense applies user edits to a savings goal. The target
// amount may not drop below what has already been spent against it.
func (l *Ledger) UpdatePlannedExpense(ctx context.Context, id PlannedExpenseID, upd PlannedExpenseUpdate) (*PlannedExpense, error) {
	var edited PlannedExpense

	err := l.withTx(ctx, func(s Store) error {
		p, err := s.GetPlannedExpense(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return &NotFoundError{Kind: "planned expense", ID: string(id)}
		}

		if upd.Title != nil {
			p.Title = *upd.Title
		}
		if upd.Amount != nil {
			p.Amount = *upd.Amount
		}
		if upd.Category != nil {
			p.Category = *upd.Category
		}
		if upd.TargetDate != nil {
			p.TargetDate = DateOnly(*upd.TargetDate)
		}
		if upd.Priority != nil {
			p.Priority = *upd.Priority
		}
		if upd.Status != nil {
			p.Status = *upd.Status
		}
		if upd.WalletID != nil {
			p.WalletID = *upd.WalletID
		}

		if p.Title == "" || !p.Amount.IsPositive() || p.TargetDate.IsZero() {
			return ErrInvalidInput
		}
		if p.Amount.LessThan(p.Spent) {
			return ErrInvalidInput
		}
		// A raised target reopens a finished goal; a lowered one finishes it.
		if p.Status == StatusCompleted && p.Spent.LessThan(p.Amount) {
			p.Status = StatusPlanned
		} else if p.Status == StatusPlanned && p.Spent.GreaterThanOrEqual(p.Amount) {
			p.Status = StatusCompleted
		}

		edited = *p
		return s.SavePlannedExpense(ctx, *p)
	})
	if err != nil {
		return nil, err
	}

	l.notify(edited.UserID)
	return &edited, nil
}

type IncomeSourceInput struct {
	UserID      UserID
	Name        string
	Amount      Money
	Frequency   PayFrequency
	NextPayDate time.Time
	WalletID    WalletID
}

func (l *Ledger) CreateIncomeSource(ctx context.Context, in IncomeSourceInput) (*IncomeSource, error) {
	if in.Name == "" || !in.Amount.IsPositive() || !ValidFrequency(in.Frequency) || in.NextPayDate.IsZero() {
		return nil, ErrInvalidInput
	}
	src := IncomeSource{
		ID:          NewIncomeSourceID(),
		UserID:      in.UserID,
		Name:        in.Name,
		Amount:      in.Amount,
		Frequency:   in.Frequency,
		NextPayDate: DateOnly(in.NextPayDate),
		Active:      true,
		WalletID:    in.WalletID,
		CreatedAt:   l.now(),
	}
	if err := l.withTx(ctx, func(s Store) error { return s.SaveIncomeSource(ctx, src) }); err != nil {
		return nil, err
	}
	l.notify(in.UserID)
	return &src, nil
}

// IncomeSourceUpdate carries partial user edits; nil fields stay unchanged.
type IncomeSourceUpdate struct {
	Name        *string
	Amount      *Money
	Frequency   *PayFrequency
	NextPayDate *time.Time
	Active      *bool
	WalletID    *WalletID
}

// UpdateIncomeSource applies user edits to a recurring income source.
func (l *Ledger) UpdateIncomeSource(ctx context.Context, id IncomeSourceID, upd IncomeSourceUpdate) (*IncomeSource, error) {
	var edited IncomeSource

	err := l.withTx(ctx, func(s Store) error {
		src, err := s.GetIncomeSource(ctx, id)
		if err != nil {
			return err
		}
		if src == nil {
			return &NotFoundError{Kind: "income source", ID: string(id)}
		}

		if upd.Name != nil {
			src.Name = *upd.Name
		}
		if upd.Amount != nil {
			src.Amount = *upd.Amount
		}
		if upd.Frequency != nil {
			src.Frequency = *upd.Frequency
		}
		if upd.NextPayDate != nil {
			src.NextPayDate = DateOnly(*upd.NextPayDate)
		}
		if upd.Active != nil {
			src.Active = *upd.Active
		}
		if upd.WalletID != nil {
			src.WalletID = *upd.WalletID
		}

		if src.Name == "" || !src.Amount.IsPositive() || !ValidFrequency(src.Frequency) || src.NextPayDate.IsZero() {
			return ErrInvalidInput
		}

		edited = *src
		return s.SaveIncomeSource(ctx, *src)
	})
	if err != nil {
		return nil, err
	}

	l.notify(edited.UserID)
	return &edited, nil
}

// =============================================================================
// BUDGET PERIODS
// =============================================================================

type BudgetPeriodInput struct {
	UserID      UserID
	Start       time.Time
	End         time.Time
	TotalIncome Money
}

// CreateBudgetPeriod saves a new active period, deactivating prior active
// periods that overlap it, atomically.
func (l *Ledger) CreateBudgetPeriod(ctx context.Context, in BudgetPeriodInput) (*BudgetPeriod, error) {
	if in.Start.IsZero() || in.End.IsZero() || in.End.Before(in.Start) {
		return nil, ErrInvalidInput
	}
	b := BudgetPeriod{
		ID:          NewBudgetPeriodID(),
		UserID:      in.UserID,
		Start:       DateOnly(in.Start),
		End:         DateOnly(in.End),
		TotalIncome: in.TotalIncome,
		Active:      true,
		CreatedAt:   l.now(),
	}
	err := l.withTx(ctx, func(s Store) error {
		existing, err := s.ListBudgetPeriods(ctx, in.UserID)
		if err != nil {
			return err
		}
		for _, prior := range existing {
			if prior.Active && prior.Overlaps(b.Start, b.End) {
				prior.Active = false
				if err := s.SaveBudgetPeriod(ctx, prior); err != nil {
					return err
				}
			}
		}
		return s.SaveBudgetPeriod(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	l.notify(in.UserID)
	return &b, nil
}

// =============================================================================
// INTERNAL HELPERS
// =============================================================================

// activeWallet loads a wallet and rejects missing or deactivated ones.
func (l *Ledger) activeWallet(ctx context.Context, s Store, id WalletID) (*Wallet, error) {
	w, err := s.GetWallet(ctx, id)
	if err != nil {
		return nil, err
	}
	if w == nil || !w.Active {
		return nil, &NotFoundError{Kind: "wallet", ID: string(id)}
	}
	return w, nil
}

// applySpent adds amount to the goal's spent progress, rejecting amounts
// beyond the remaining budget and advancing status to completed when spent
// reaches the target.
func (l *Ledger) applySpent(ctx context.Context, s Store, id PlannedExpenseID, amount Money) error {
	p, err := s.GetPlannedExpense(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return &NotFoundError{Kind: "planned expense", ID: string(id)}
	}
	if amount.GreaterThan(p.Remaining()) {
		return &LinkError{PlannedExpenseID: id, Remaining: p.Remaining(), Requested: amount}
	}
	p.Spent = p.Spent.Add(amount)
	if p.Spent.GreaterThanOrEqual(p.Amount) {
		p.Status = StatusCompleted
	}
	return s.SavePlannedExpense(ctx, *p)
}

// reverseSpent subtracts amount from the goal's spent progress, floored at
// zero, resetting a completed goal back to planned when it drops below the
// target.
func (l *Ledger) reverseSpent(ctx context.Context, s Store, id PlannedExpenseID, amount Money) error {
	p, err := s.GetPlannedExpense(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		// The goal was removed after linking; nothing to unwind.
		return nil
	}
	p.Spent = p.Spent.Sub(amount).Max(ZeroMoney())
	if p.Spent.LessThan(p.Amount) && p.Status == StatusCompleted {
		p.Status = StatusPlanned
	}
	return s.SavePlannedExpense(ctx, *p)
}

func applyUpdate(tx Transaction, upd TransactionUpdate) Transaction {
	if upd.WalletID != nil {
		tx.WalletID = *upd.WalletID
	}
	if upd.Kind != nil {
		tx.Kind = *upd.Kind
	}
	if upd.Amount != nil {
		tx.Amount = *upd.Amount
	}
	if upd.Category != nil {
		tx.Category = *upd.Category
	}
	if upd.Note != nil {
		tx.Note = *upd.Note
	}
	if upd.OccurredAt != nil {
		tx.OccurredAt = *upd.OccurredAt
	}
	if upd.PlannedExpenseID != nil {
		tx.PlannedExpenseID = *upd.PlannedExpenseID
	}
	return tx
}

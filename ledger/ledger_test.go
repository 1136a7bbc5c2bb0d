package ledger_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesoplan/finance-engine/ledger"
	"github.com/pesoplan/finance-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestLedger(t *testing.T) (*ledger.Ledger, *sqlite.Store) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return ledger.New(store), store
}

func fundedWallet(t *testing.T, l *ledger.Ledger, userID ledger.UserID, name string, balance ledger.Money) *ledger.Wallet {
	t.Helper()
	w, err := l.CreateWallet(context.Background(), userID, name, "cash")
	require.NoError(t, err)
	if balance.IsPositive() {
		_, err = l.RecordTransaction(context.Background(), ledger.TransactionInput{
			UserID:     userID,
			WalletID:   w.ID,
			Kind:       ledger.KindIncome,
			Amount:     balance,
			Category:   "seed",
			OccurredAt: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}
	out, err := l.Store().GetWallet(context.Background(), w.ID)
	require.NoError(t, err)
	return out
}

func walletBalance(t *testing.T, l *ledger.Ledger, id ledger.WalletID) ledger.Money {
	t.Helper()
	w, err := l.Store().GetWallet(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, w)
	return w.Balance
}

// =============================================================================
// TRANSACTION RECORDING
// =============================================================================

func TestRecordTransaction_IncomeAndExpense_MoveBalance(t *testing.T) {
	// GIVEN: A wallet holding 1000
	// WHEN: Recording a 250 income and a 400 expense
	// THEN: Balance lands at 850

	l, _ := newTestLedger(t)
	ctx := context.Background()
	user := ledger.UserID("u-1")

	w := fundedWallet(t, l, user, "Cash", ledger.NewMoneyFromInt(1000))

	_, err := l.RecordTransaction(ctx, ledger.TransactionInput{
		UserID: user, WalletID: w.ID, Kind: ledger.KindIncome,
		Amount: ledger.NewMoneyFromInt(250), Category: "salary",
		OccurredAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	_, err = l.RecordTransaction(ctx, ledger.TransactionInput{
		UserID: user, WalletID: w.ID, Kind: ledger.KindExpense,
		Amount: ledger.NewMoneyFromInt(400), Category: "food",
		OccurredAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	assert.True(t, walletBalance(t, l, w.ID).Equal(ledger.NewMoneyFromInt(850)),
		"balance should be 1000 + 250 - 400")
}

func TestRecordTransaction_RejectsBadInput(t *testing.T) {
	// GIVEN: A valid wallet
	// WHEN: Recording a zero amount, an unknown kind, or targeting a missing wallet
	// THEN: Each attempt fails with the matching sentinel

	l, _ := newTestLedger(t)
	ctx := context.Background()
	user := ledger.UserID("u-1")
	w := fundedWallet(t, l, user, "Cash", ledger.NewMoneyFromInt(100))

	_, err := l.RecordTransaction(ctx, ledger.TransactionInput{
		UserID: user, WalletID: w.ID, Kind: ledger.KindExpense,
		Amount: ledger.ZeroMoney(), OccurredAt: time.Now().UTC(),
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidInput, "zero amount")

	_, err = l.RecordTransaction(ctx, ledger.TransactionInput{
		UserID: user, WalletID: w.ID, Kind: ledger.KindTransfer,
		Amount: ledger.NewMoneyFromInt(10), OccurredAt: time.Now().UTC(),
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidInput, "transfer kind outside RecordTransfer")

	_, err = l.RecordTransaction(ctx, ledger.TransactionInput{
		UserID: user, WalletID: ledger.NewWalletID(), Kind: ledger.KindExpense,
		Amount: ledger.NewMoneyFromInt(10), OccurredAt: time.Now().UTC(),
	})
	assert.True(t, ledger.IsNotFound(err), "missing wallet should be NotFound, got %v", err)
}

func TestRecordTransaction_InactiveWallet_NotFound(t *testing.T) {
	// GIVEN: A wallet that was deactivated
	// WHEN: Recording an expense against it
	// THEN: NotFound, and the balance never moves

	l, _ := newTestLedger(t)
	ctx := context.Background()
	user := ledger.UserID("u-1")

	w := fundedWallet(t, l, user, "Cash", ledger.NewMoneyFromInt(500))
	require.NoError(t, l.DeactivateWallet(ctx, w.ID))

	_, err := l.RecordTransaction(ctx, ledger.TransactionInput{
		UserID: user, WalletID: w.ID, Kind: ledger.KindExpense,
		Amount: ledger.NewMoneyFromInt(50), OccurredAt: time.Now().UTC(),
	})
	assert.True(t, ledger.IsNotFound(err))
	assert.True(t, walletBalance(t, l, w.ID).Equal(ledger.NewMoneyFromInt(500)))
}

// =============================================================================
// ROUND TRIPS AND EDITS
// =============================================================================

func TestDeleteTransaction_RestoresBalanceAndSpent(t *testing.T) {
	// GIVEN: An expense linked to a planned expense
	// WHEN: The expense is deleted
	// THEN: Wallet balance and plan spent return to their exact prior values

	l, _ := newTestLedger(t)
	ctx := context.Background()
	user := ledger.UserID("u-1")

	w := fundedWallet(t, l, user, "Cash", ledger.NewMoneyFromInt(5000))
	plan, err := l.CreatePlannedExpense(ctx, ledger.PlannedExpenseInput{
		UserID: user, Title: "Laptop", Amount: ledger.NewMoneyFromInt(2000),
		Category: "gadget",
		TargetDate: time.Date(2026, time.December, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	tx, err := l.RecordTransaction(ctx, ledger.TransactionInput{
		UserID: user, WalletID: w.ID, Kind: ledger.KindExpense,
		Amount: ledger.NewMoneyFromInt(700), Category: "gadget",
		OccurredAt: time.Now().UTC(), PlannedExpenseID: plan.ID,
	})
	require.NoError(t, err)

	mid, err := l.Store().GetPlannedExpense(ctx, plan.ID)
	require.NoError(t, err)
	require.True(t, mid.Spent.Equal(ledger.NewMoneyFromInt(700)))

	require.NoError(t, l.DeleteTransaction(ctx, tx.ID))

	assert.True(t, walletBalance(t, l, w.ID).Equal(ledger.NewMoneyFromInt(5000)),
		"delete must undo the balance effect")
	after, err := l.Store().GetPlannedExpense(ctx, plan.ID)
	require.NoError(t, err)
	assert.True(t, after.Spent.IsZero(), "delete must unwind plan progress")

	gone, err := l.Store().GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestEditTransaction_SameValues_IsIdempotent(t *testing.T) {
	// GIVEN: A recorded expense
	// WHEN: Editing it to identical values
	// THEN: Balance is unchanged

	l, _ := newTestLedger(t)
	ctx := context.Background()
	user := ledger.UserID("u-1")

	w := fundedWallet(t, l, user, "Cash", ledger.NewMoneyFromInt(1000))
	tx, err := l.RecordTransaction(ctx, ledger.TransactionInput{
		UserID: user, WalletID: w.ID, Kind: ledger.KindExpense,
		Amount: ledger.NewMoneyFromInt(300), Category: "food",
		OccurredAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	same := tx.Amount
	_, err = l.EditTransaction(ctx, tx.ID, ledger.TransactionUpdate{Amount: &same})
	require.NoError(t, err)

	assert.True(t, walletBalance(t, l, w.ID).Equal(ledger.NewMoneyFromInt(700)))
}

func TestEditTransaction_AmountAndWalletMove(t *testing.T) {
	// GIVEN: An expense of 300 against wallet A
	// WHEN: Editing it to 500 against wallet B
	// THEN: A is fully refunded and B carries the new effect

	l, _ := newTestLedger(t)
	ctx := context.Background()
	user := ledger.UserID("u-1")

	a := fundedWallet(t, l, user, "A", ledger.NewMoneyFromInt(1000))
	b := fundedWallet(t, l, user, "B", ledger.NewMoneyFromInt(1000))

	tx, err := l.RecordTransaction(ctx, ledger.TransactionInput{
		UserID: user, WalletID: a.ID, Kind: ledger.KindExpense,
		Amount: ledger.NewMoneyFromInt(300), OccurredAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	newAmount := ledger.NewMoneyFromInt(500)
	_, err = l.EditTransaction(ctx, tx.ID, ledger.TransactionUpdate{
		WalletID: &b.ID,
		Amount:   &newAmount,
	})
	require.NoError(t, err)

	assert.True(t, walletBalance(t, l, a.ID).Equal(ledger.NewMoneyFromInt(1000)))
	assert.True(t, walletBalance(t, l, b.ID).Equal(ledger.NewMoneyFromInt(500)))
}

func TestEditTransaction_KindChangeDropsLink(t *testing.T) {
	// GIVEN: An expense linked to a plan
	// WHEN: Editing its kind to income
	// THEN: The link is cleared and the plan's spent is unwound

	l, _ := newTestLedger(t)
	ctx := context.Background()
	user := ledger.UserID("u-1")

	w := fundedWallet(t, l, user, "Cash", ledger.NewMoneyFromInt(2000))
	plan, err := l.CreatePlannedExpense(ctx, ledger.PlannedExpenseInput{
		UserID: user, Title: "Trip", Amount: ledger.NewMoneyFromInt(1000),
		TargetDate: time.Date(2026, time.December, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	tx, err := l.RecordTransaction(ctx, ledger.TransactionInput{
		UserID: user, WalletID: w.ID, Kind: ledger.KindExpense,
		Amount: ledger.NewMoneyFromInt(400), OccurredAt: time.Now().UTC(),
		PlannedExpenseID: plan.ID,
	})
	require.NoError(t, err)

	income := ledger.KindIncome
	edited, err := l.EditTransaction(ctx, tx.ID, ledger.TransactionUpdate{Kind: &income})
	require.NoError(t, err)

	assert.Empty(t, edited.PlannedExpenseID)
	after, err := l.Store().GetPlannedExpense(ctx, plan.ID)
	require.NoError(t, err)
	assert.True(t, after.Spent.IsZero())

	// 2000 - 400, then reversal +400 and income +400.
	assert.True(t, walletBalance(t, l, w.ID).Equal(ledger.NewMoneyFromInt(2400)))
}

func TestEditTransaction_ToTransfer_Rejected(t *testing.T) {
	// GIVEN: A plain expense
	// WHEN: Editing its kind to transfer
	// THEN: InvalidInput; transfers only exist via RecordTransfer

	l, _ := newTestLedger(t)
	ctx := context.Background()
	user := ledger.UserID("u-1")

	w := fundedWallet(t, l, user, "Cash", ledger.NewMoneyFromInt(1000))
	tx, err := l.RecordTransaction(ctx, ledger.TransactionInput{
		UserID: user, WalletID: w.ID, Kind: ledger.KindExpense,
		Amount: ledger.NewMoneyFromInt(100), OccurredAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	transfer := ledger.KindTransfer
	_, err = l.EditTransaction(ctx, tx.ID, ledger.TransactionUpdate{Kind: &transfer})
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)
}

// =============================================================================
// TRANSFERS
// =============================================================================

func TestRecordTransfer_WithFee(t *testing.T) {
	// GIVEN: Wallet A holds 2000, wallet B holds 500
	// WHEN: Transferring 1000 from A to B with a 15 fee
	// THEN: A lands at 985, B at 1500, and three rows share one group id

	l, _ := newTestLedger(t)
	ctx := context.Background()
	user := ledger.UserID("u-1")

	a := fundedWallet(t, l, user, "A", ledger.NewMoneyFromInt(2000))
	b := fundedWallet(t, l, user, "B", ledger.NewMoneyFromInt(500))

	res, err := l.RecordTransfer(ctx, ledger.TransferInput{
		UserID: user, FromWalletID: a.ID, ToWalletID: b.ID,
		Amount: ledger.NewMoneyFromInt(1000), Fee: ledger.NewMoneyFromInt(15),
		OccurredAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	assert.True(t, walletBalance(t, l, a.ID).Equal(ledger.NewMoneyFromInt(985)))
	assert.True(t, walletBalance(t, l, b.ID).Equal(ledger.NewMoneyFromInt(1500)))

	require.NotNil(t, res.Fee)
	assert.Equal(t, res.Outgoing.TransferGroupID, res.Incoming.TransferGroupID)
	assert.Equal(t, res.Outgoing.TransferGroupID, res.Fee.TransferGroupID)
	assert.Equal(t, ledger.TransferOutgoing, res.Outgoing.TransferRole)
	assert.Equal(t, ledger.TransferIncoming, res.Incoming.TransferRole)
	assert.Equal(t, ledger.KindExpense, res.Fee.Kind)
	assert.Equal(t, b.ID, res.Outgoing.CounterpartWalletID)
	assert.Equal(t, a.ID, res.Incoming.CounterpartWalletID)
}

func TestRecordTransfer_Insufficient_NothingCommits(t *testing.T) {
	// GIVEN: Wallet A holds 1000
	// WHEN: Transferring 995 with a 10 fee (needs 1005)
	// THEN: InsufficientFunds, both balances untouched, no rows written

	l, _ := newTestLedger(t)
	ctx := context.Background()
	user := ledger.UserID("u-1")

	a := fundedWallet(t, l, user, "A", ledger.NewMoneyFromInt(1000))
	b := fundedWallet(t, l, user, "B", ledger.ZeroMoney())

	_, err := l.RecordTransfer(ctx, ledger.TransferInput{
		UserID: user, FromWalletID: a.ID, ToWalletID: b.ID,
		Amount: ledger.NewMoneyFromInt(995), Fee: ledger.NewMoneyFromInt(10),
		OccurredAt: time.Now().UTC(),
	})
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	var insuff *ledger.InsufficientFundsError
	require.ErrorAs(t, err, &insuff)
	assert.True(t, insuff.Available.Equal(ledger.NewMoneyFromInt(1000)))
	assert.True(t, insuff.Requested.Equal(ledger.NewMoneyFromInt(1005)))

	assert.True(t, walletBalance(t, l, a.ID).Equal(ledger.NewMoneyFromInt(1000)))
	assert.True(t, walletBalance(t, l, b.ID).IsZero())

	wide := time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)
	rows, err := l.Store().ListTransactionsByWallet(ctx, b.ID, time.Time{}, wide)
	require.NoError(t, err)
	assert.Empty(t, rows, "failed transfer must leave no rows behind")
}

func TestRecordTransfer_SameWallet_Rejected(t *testing.T) {
	// GIVEN: One wallet
	// WHEN: Transferring to itself
	// THEN: InvalidInput

	l, _ := newTestLedger(t)
	user := ledger.UserID("u-1")
	a := fundedWallet(t, l, user, "A", ledger.NewMoneyFromInt(100))

	_, err := l.RecordTransfer(context.Background(), ledger.TransferInput{
		UserID: user, FromWalletID: a.ID, ToWalletID: a.ID,
		Amount: ledger.NewMoneyFromInt(10), OccurredAt: time.Now().UTC(),
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)
}

func TestEditTransaction_TransferRow_Rejected(t *testing.T) {
	// GIVEN: A recorded transfer with a fee
	// WHEN: Editing either leg or the fee row individually
	// THEN: InvalidInput; a lone edit would desynchronize the group

	l, _ := newTestLedger(t)
	ctx := context.Background()
	user := ledger.UserID("u-1")

	a := fundedWallet(t, l, user, "A", ledger.NewMoneyFromInt(2000))
	b := fundedWallet(t, l, user, "B", ledger.NewMoneyFromInt(500))

	res, err := l.RecordTransfer(ctx, ledger.TransferInput{
		UserID: user, FromWalletID: a.ID, ToWalletID: b.ID,
		Amount: ledger.NewMoneyFromInt(1000), Fee: ledger.NewMoneyFromInt(15),
		OccurredAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	require.NotNil(t, res.Fee)

	amount := ledger.NewMoneyFromInt(50)
	for _, id := range []ledger.TransactionID{res.Outgoing.ID, res.Incoming.ID, res.Fee.ID} {
		_, err = l.EditTransaction(ctx, id, ledger.TransactionUpdate{Amount: &amount})
		assert.ErrorIs(t, err, ledger.ErrInvalidInput)
	}

	assert.True(t, walletBalance(t, l, a.ID).Equal(ledger.NewMoneyFromInt(985)))
	assert.True(t, walletBalance(t, l, b.ID).Equal(ledger.NewMoneyFromInt(1500)))
}

func TestDeleteTransaction_TransferLeg_CascadesToGroup(t *testing.T) {
	// GIVEN: A recorded transfer with a fee
	// WHEN: Deleting just the incoming leg
	// THEN: Both legs and the fee row disappear and both balances are restored

	l, _ := newTestLedger(t)
	ctx := context.Background()
	user := ledger.UserID("u-1")

	a := fundedWallet(t, l, user, "A", ledger.NewMoneyFromInt(2000))
	b := fundedWallet(t, l, user, "B", ledger.NewMoneyFromInt(500))

	res, err := l.RecordTransfer(ctx, ledger.TransferInput{
		UserID: user, FromWalletID: a.ID, ToWalletID: b.ID,
		Amount: ledger.NewMoneyFromInt(1000), Fee: ledger.NewMoneyFromInt(15),
		OccurredAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	require.NotNil(t, res.Fee)

	require.NoError(t, l.DeleteTransaction(ctx, res.Incoming.ID))

	assert.True(t, walletBalance(t, l, a.ID).Equal(ledger.NewMoneyFromInt(2000)),
		"source wallet should regain the amount and the fee")
	assert.True(t, walletBalance(t, l, b.ID).Equal(ledger.NewMoneyFromInt(500)))

	rows, err := l.Store().ListTransactionsByGroup(ctx, res.Outgoing.TransferGroupID)
	require.NoError(t, err)
	assert.Empty(t, rows, "cascade should remove every row of the group")
}

// =============================================================================
// PLANNED EXPENSE LINKAGE
// =============================================================================

func TestLinkedExpense_OverRemaining_Rejected(t *testing.T) {
	// GIVEN: A 1000 plan with 800 already spent (remaining 200)
	// WHEN: Linking a 300 expense, then a 200 expense
	// THEN: The 300 is rejected with a LinkError; the 200 completes the plan

	l, _ := newTestLedger(t)
	ctx := context.Background()
	user := ledger.UserID("u-1")

	w := fundedWallet(t, l, user, "Cash", ledger.NewMoneyFromInt(5000))
	plan, err := l.CreatePlannedExpense(ctx, ledger.PlannedExpenseInput{
		UserID: user, Title: "Phone", Amount: ledger.NewMoneyFromInt(1000),
		TargetDate: time.Date(2026, time.November, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	_, err = l.RecordTransaction(ctx, ledger.TransactionInput{
		UserID: user, WalletID: w.ID, Kind: ledger.KindExpense,
		Amount: ledger.NewMoneyFromInt(800), OccurredAt: time.Now().UTC(),
		PlannedExpenseID: plan.ID,
	})
	require.NoError(t, err)

	_, err = l.RecordTransaction(ctx, ledger.TransactionInput{
		UserID: user, WalletID: w.ID, Kind: ledger.KindExpense,
		Amount: ledger.NewMoneyFromInt(300), OccurredAt: time.Now().UTC(),
		PlannedExpenseID: plan.ID,
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidLink)

	var linkErr *ledger.LinkError
	require.ErrorAs(t, err, &linkErr)
	assert.True(t, linkErr.Remaining.Equal(ledger.NewMoneyFromInt(200)))
	assert.True(t, linkErr.Requested.Equal(ledger.NewMoneyFromInt(300)))

	// Rejection must not have moved balance or spent.
	assert.True(t, walletBalance(t, l, w.ID).Equal(ledger.NewMoneyFromInt(4200)))
	mid, err := l.Store().GetPlannedExpense(ctx, plan.ID)
	require.NoError(t, err)
	assert.True(t, mid.Spent.Equal(ledger.NewMoneyFromInt(800)))

	_, err = l.RecordTransaction(ctx, ledger.TransactionInput{
		UserID: user, WalletID: w.ID, Kind: ledger.KindExpense,
		Amount: ledger.NewMoneyFromInt(200), OccurredAt: time.Now().UTC(),
		PlannedExpenseID: plan.ID,
	})
	require.NoError(t, err)

	done, err := l.Store().GetPlannedExpense(ctx, plan.ID)
	require.NoError(t, err)
	assert.True(t, done.Spent.Equal(ledger.NewMoneyFromInt(1000)))
	assert.Equal(t, ledger.StatusCompleted, done.Status)
}

func TestLinkedIncome_Rejected(t *testing.T) {
	// GIVEN: A plan
	// WHEN: Linking an income transaction to it
	// THEN: LinkError; only expenses advance a plan

	l, _ := newTestLedger(t)
	ctx := context.Background()
	user := ledger.UserID("u-1")

	w := fundedWallet(t, l, user, "Cash", ledger.NewMoneyFromInt(100))
	plan, err := l.CreatePlannedExpense(ctx, ledger.PlannedExpenseInput{
		UserID: user, Title: "Phone", Amount: ledger.NewMoneyFromInt(1000),
		TargetDate: time.Date(2026, time.November, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	_, err = l.RecordTransaction(ctx, ledger.TransactionInput{
		UserID: user, WalletID: w.ID, Kind: ledger.KindIncome,
		Amount: ledger.NewMoneyFromInt(50), OccurredAt: time.Now().UTC(),
		PlannedExpenseID: plan.ID,
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidLink)
}

func TestDeleteLinkedExpense_ReopensCompletedPlan(t *testing.T) {
	// GIVEN: A plan completed by a single linked expense
	// WHEN: That expense is deleted
	// THEN: Spent drops below the target and the status returns to planned

	l, _ := newTestLedger(t)
	ctx := context.Background()
	user := ledger.UserID("u-1")

	w := fundedWallet(t, l, user, "Cash", ledger.NewMoneyFromInt(2000))
	plan, err := l.CreatePlannedExpense(ctx, ledger.PlannedExpenseInput{
		UserID: user, Title: "Course", Amount: ledger.NewMoneyFromInt(900),
		TargetDate: time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	tx, err := l.RecordTransaction(ctx, ledger.TransactionInput{
		UserID: user, WalletID: w.ID, Kind: ledger.KindExpense,
		Amount: ledger.NewMoneyFromInt(900), OccurredAt: time.Now().UTC(),
		PlannedExpenseID: plan.ID,
	})
	require.NoError(t, err)

	done, err := l.Store().GetPlannedExpense(ctx, plan.ID)
	require.NoError(t, err)
	require.Equal(t, ledger.StatusCompleted, done.Status)

	require.NoError(t, l.DeleteTransaction(ctx, tx.ID))

	after, err := l.Store().GetPlannedExpense(ctx, plan.ID)
	require.NoError(t, err)
	assert.True(t, after.Spent.IsZero())
	assert.Equal(t, ledger.StatusPlanned, after.Status)
}

func TestUpdatePlannedExpense_AmountBounds(t *testing.T) {
	// GIVEN: A goal with 800 already spent
	// WHEN: Lowering the target below spent, then raising it
	// THEN: The lowering is rejected; raising a completed goal reopens it

	l, _ := newTestLedger(t)
	ctx := context.Background()
	user := ledger.UserID("u-1")

	w := fundedWallet(t, l, user, "Cash", ledger.NewMoneyFromInt(5000))
	plan, err := l.CreatePlannedExpense(ctx, ledger.PlannedExpenseInput{
		UserID: user, Title: "Phone", Amount: ledger.NewMoneyFromInt(800),
		TargetDate: time.Date(2026, time.November, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	_, err = l.RecordTransaction(ctx, ledger.TransactionInput{
		UserID: user, WalletID: w.ID, Kind: ledger.KindExpense,
		Amount: ledger.NewMoneyFromInt(800), OccurredAt: time.Now().UTC(),
		PlannedExpenseID: plan.ID,
	})
	require.NoError(t, err)

	done, err := l.Store().GetPlannedExpense(ctx, plan.ID)
	require.NoError(t, err)
	require.Equal(t, ledger.StatusCompleted, done.Status)

	lower := ledger.NewMoneyFromInt(500)
	_, err = l.UpdatePlannedExpense(ctx, plan.ID, ledger.PlannedExpenseUpdate{Amount: &lower})
	assert.ErrorIs(t, err, ledger.ErrInvalidInput, "target below spent")

	higher := ledger.NewMoneyFromInt(1200)
	edited, err := l.UpdatePlannedExpense(ctx, plan.ID, ledger.PlannedExpenseUpdate{Amount: &higher})
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusPlanned, edited.Status, "raised target reopens the goal")
	assert.True(t, edited.Remaining().Equal(ledger.NewMoneyFromInt(400)))
}

func TestUpdateIncomeSource_PartialEdit(t *testing.T) {
	// GIVEN: An active monthly source
	// WHEN: Editing only amount and active flag
	// THEN: Untouched fields survive; an unknown frequency is rejected

	l, _ := newTestLedger(t)
	ctx := context.Background()
	user := ledger.UserID("u-1")

	src, err := l.CreateIncomeSource(ctx, ledger.IncomeSourceInput{
		UserID: user, Name: "Salary", Amount: ledger.NewMoneyFromInt(20000),
		Frequency:   ledger.FrequencyMonthly,
		NextPayDate: time.Date(2026, time.April, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	amount := ledger.NewMoneyFromInt(22000)
	inactive := false
	edited, err := l.UpdateIncomeSource(ctx, src.ID, ledger.IncomeSourceUpdate{
		Amount: &amount, Active: &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "Salary", edited.Name)
	assert.Equal(t, ledger.FrequencyMonthly, edited.Frequency)
	assert.True(t, edited.Amount.Equal(amount))
	assert.False(t, edited.Active)

	bad := ledger.PayFrequency("fortnightly")
	_, err = l.UpdateIncomeSource(ctx, src.ID, ledger.IncomeSourceUpdate{Frequency: &bad})
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)
}

// =============================================================================
// BALANCE INVARIANT
// =============================================================================

func TestBalanceInvariant_RandomOperations(t *testing.T) {
	// GIVEN: A wallet subjected to a random mix of records, edits, and deletes
	// THEN: After every operation, balance equals the sum of the signed
	//       effects of the surviving rows

	l, _ := newTestLedger(t)
	ctx := context.Background()
	user := ledger.UserID("u-1")
	w := fundedWallet(t, l, user, "Cash", ledger.ZeroMoney())

	rng := rand.New(rand.NewSource(42))
	var live []ledger.TransactionID

	checkInvariant := func() {
		t.Helper()
		wide := time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)
		rows, err := l.Store().ListTransactionsByWallet(ctx, w.ID, time.Time{}, wide)
		require.NoError(t, err)
		sum := ledger.ZeroMoney()
		for _, tx := range rows {
			sum = sum.Add(tx.BalanceEffect())
		}
		bal := walletBalance(t, l, w.ID)
		require.True(t, bal.Equal(sum),
			"balance %s != effect sum %s over %d rows", bal, sum, len(rows))
	}

	for i := 0; i < 200; i++ {
		switch op := rng.Intn(4); {
		case op <= 1: // record
			kind := ledger.KindIncome
			if rng.Intn(2) == 0 {
				kind = ledger.KindExpense
			}
			tx, err := l.RecordTransaction(ctx, ledger.TransactionInput{
				UserID: user, WalletID: w.ID, Kind: kind,
				Amount:     ledger.NewMoneyFromInt(int64(1 + rng.Intn(500))),
				OccurredAt: time.Date(2026, time.March, 1+rng.Intn(28), 0, 0, 0, 0, time.UTC),
			})
			require.NoError(t, err)
			live = append(live, tx.ID)
		case op == 2 && len(live) > 0: // edit amount
			id := live[rng.Intn(len(live))]
			amt := ledger.NewMoneyFromInt(int64(1 + rng.Intn(500)))
			_, err := l.EditTransaction(ctx, id, ledger.TransactionUpdate{Amount: &amt})
			require.NoError(t, err)
		case op == 3 && len(live) > 0: // delete
			i := rng.Intn(len(live))
			require.NoError(t, l.DeleteTransaction(ctx, live[i]))
			live = append(live[:i], live[i+1:]...)
		}
		checkInvariant()
	}
}

// =============================================================================
// BUDGET PERIODS
// =============================================================================

func TestCreateBudgetPeriod_DeactivatesOverlap(t *testing.T) {
	// GIVEN: An active March period
	// WHEN: Creating an overlapping mid-March period
	// THEN: The old period is deactivated; a disjoint May period stays active

	l, _ := newTestLedger(t)
	ctx := context.Background()
	user := ledger.UserID("u-1")

	march, err := l.CreateBudgetPeriod(ctx, ledger.BudgetPeriodInput{
		UserID: user,
		Start:  time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	may, err := l.CreateBudgetPeriod(ctx, ledger.BudgetPeriodInput{
		UserID: user,
		Start:  time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2026, time.May, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	_, err = l.CreateBudgetPeriod(ctx, ledger.BudgetPeriodInput{
		UserID: user,
		Start:  time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2026, time.April, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	periods, err := l.Store().ListBudgetPeriods(ctx, user)
	require.NoError(t, err)

	active := map[ledger.BudgetPeriodID]bool{}
	for _, p := range periods {
		active[p.ID] = p.Active
	}
	assert.False(t, active[march.ID], "overlapped period should be deactivated")
	assert.True(t, active[may.ID], "disjoint period should stay active")
}

// =============================================================================
// MUTATION LISTENERS
// =============================================================================

type recordingListener struct {
	users []ledger.UserID
}

func (r *recordingListener) LedgerMutated(userID ledger.UserID) {
	r.users = append(r.users, userID)
}

func TestListeners_FireOnSuccessOnly(t *testing.T) {
	// GIVEN: A registered mutation listener
	// WHEN: One record succeeds and one fails validation
	// THEN: Exactly one notification is delivered

	l, _ := newTestLedger(t)
	ctx := context.Background()
	user := ledger.UserID("u-1")

	w := fundedWallet(t, l, user, "Cash", ledger.ZeroMoney())

	ln := &recordingListener{}
	l.AddListener(ln)

	_, err := l.RecordTransaction(ctx, ledger.TransactionInput{
		UserID: user, WalletID: w.ID, Kind: ledger.KindIncome,
		Amount: ledger.NewMoneyFromInt(10), OccurredAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	_, err = l.RecordTransaction(ctx, ledger.TransactionInput{
		UserID: user, WalletID: w.ID, Kind: ledger.KindExpense,
		Amount: ledger.ZeroMoney(), OccurredAt: time.Now().UTC(),
	})
	require.Error(t, err)

	assert.Equal(t, []ledger.UserID{user}, ln.users)
}

func TestListeners_FireOnWalletAndPeriodLifecycle(t *testing.T) {
	// GIVEN: A registered mutation listener
	// WHEN: Creating a wallet, deactivating it, and creating a budget period
	// THEN: Each lifecycle change delivers its own notification; they all
	//       feed confidence inputs, not just transaction writes

	l, _ := newTestLedger(t)
	ctx := context.Background()
	user := ledger.UserID("u-1")

	ln := &recordingListener{}
	l.AddListener(ln)

	w, err := l.CreateWallet(ctx, user, "Savings", "bank")
	require.NoError(t, err)
	require.Len(t, ln.users, 1, "wallet creation must notify")

	require.NoError(t, l.DeactivateWallet(ctx, w.ID))
	require.Len(t, ln.users, 2, "wallet deactivation must notify")

	_, err = l.CreateBudgetPeriod(ctx, ledger.BudgetPeriodInput{
		UserID: user,
		Start:  time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2026, time.June, 30, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, ln.users, 3, "budget period creation must notify")

	assert.Equal(t, []ledger.UserID{user, user, user}, ln.users)

	err = l.DeactivateWallet(ctx, ledger.NewWalletID())
	require.Error(t, err)
	assert.Len(t, ln.users, 3, "failed mutation must stay silent")
}

package forecast_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesoplan/finance-engine/forecast"
	"github.com/pesoplan/finance-engine/ledger"
	"github.com/pesoplan/finance-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// newTestEngine pins "today" so projections are deterministic.
func newTestEngine(t *testing.T, today time.Time) (*forecast.Engine, *ledger.Ledger) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	l := ledger.New(store)
	e := &forecast.Engine{
		Store: store,
		Now:   func() time.Time { return today },
	}
	return e, l
}

// seedPayrollUser builds the reference fixture: one wallet at 10,000 after a
// 6,000 expense inside the trailing window, plus a 20,000 monthly salary
// next paid ten days out.
func seedPayrollUser(t *testing.T, l *ledger.Ledger, user ledger.UserID, today time.Time) ledger.WalletID {
	t.Helper()
	ctx := context.Background()

	w, err := l.CreateWallet(ctx, user, "Checking", "bank")
	require.NoError(t, err)

	_, err = l.RecordTransaction(ctx, ledger.TransactionInput{
		UserID: user, WalletID: w.ID, Kind: ledger.KindIncome,
		Amount: ledger.NewMoneyFromInt(16000), Category: "salary",
		OccurredAt: today.AddDate(0, 0, -20),
	})
	require.NoError(t, err)

	_, err = l.RecordTransaction(ctx, ledger.TransactionInput{
		UserID: user, WalletID: w.ID, Kind: ledger.KindExpense,
		Amount: ledger.NewMoneyFromInt(6000), Category: "living",
		OccurredAt: today.AddDate(0, 0, -14),
	})
	require.NoError(t, err)

	_, err = l.CreateIncomeSource(ctx, ledger.IncomeSourceInput{
		UserID: user, Name: "Salary", Amount: ledger.NewMoneyFromInt(20000),
		Frequency: ledger.FrequencyMonthly, NextPayDate: today.AddDate(0, 0, 10),
	})
	require.NoError(t, err)

	return w.ID
}

// =============================================================================
// PROJECTION PIPELINE
// =============================================================================

func TestEvaluateFuture_FortyDayTarget(t *testing.T) {
	// GIVEN: Balance 10,000, monthly 20,000 paid in 10 days, trailing
	//        expenses 6,000 over 30 days
	// WHEN: Asking for 25,000 due in 40 days
	// THEN: One pay occurrence lands in the window, routine spend scales to
	//       8,000, net is 22,000, and the verdict is a 3,000 shortfall

	today := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	e, l := newTestEngine(t, today)
	user := ledger.UserID("u-1")
	seedPayrollUser(t, l, user, today)

	v, err := e.EvaluateFuture(context.Background(), forecast.EvaluateInput{
		UserID:     user,
		Amount:     ledger.NewMoneyFromInt(25000),
		TargetDate: today.AddDate(0, 0, 40),
	})
	require.NoError(t, err)

	assert.True(t, v.Breakdown.CurrentBalance.Equal(ledger.NewMoneyFromInt(10000)))
	assert.True(t, v.Breakdown.ProjectedIncome.Equal(ledger.NewMoneyFromInt(20000)),
		"exactly one pay date falls inside 40 days")
	assert.True(t, v.Breakdown.RoutineExpenses.Equal(ledger.NewMoneyFromInt(8000)),
		"6000/30 scaled to 40 days")
	assert.True(t, v.Breakdown.NetBalance.Equal(ledger.NewMoneyFromInt(22000)))
	assert.Equal(t, 40, v.Breakdown.DaysUntilTarget)

	assert.False(t, v.CanAfford)
	assert.True(t, v.Shortfall.Equal(ledger.NewMoneyFromInt(3000)))
	assert.Equal(t, ledger.ConfidenceLow, v.Confidence,
		"unaffordable verdicts always land at low confidence")
	assert.Contains(t, v.RiskFactors, "single income source dependency")
	assert.Contains(t, v.RiskFactors, "spending pattern may prevent affordability")
}

func TestEvaluateFuture_SameDayTarget(t *testing.T) {
	// GIVEN: The same fixture
	// WHEN: Asking for 5,000 due today
	// THEN: No routine scaling, no projected income, verdict rides on the
	//       current balance alone

	today := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	e, l := newTestEngine(t, today)
	user := ledger.UserID("u-1")
	seedPayrollUser(t, l, user, today)

	v, err := e.EvaluateFuture(context.Background(), forecast.EvaluateInput{
		UserID:     user,
		Amount:     ledger.NewMoneyFromInt(5000),
		TargetDate: today,
	})
	require.NoError(t, err)

	assert.True(t, v.Breakdown.RoutineExpenses.IsZero())
	assert.True(t, v.Breakdown.ProjectedIncome.IsZero())
	assert.True(t, v.Breakdown.NetBalance.Equal(ledger.NewMoneyFromInt(10000)))
	assert.True(t, v.CanAfford)
	assert.True(t, v.Shortfall.IsZero())

	require.NotEmpty(t, v.Recommendations)
	assert.Contains(t, v.Recommendations[0], "afford this expense today with your current balance")
	assert.Contains(t, v.RiskFactors, "same-day target relies on funds currently in your wallets")
}

func TestEvaluateFuture_CommitmentsReserveLaterPlans(t *testing.T) {
	// GIVEN: A plan due inside the window and one due after it
	// THEN: The inside plan reserves its full remaining amount, the later
	//       plan only 80 percent of it

	today := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	e, l := newTestEngine(t, today)
	ctx := context.Background()
	user := ledger.UserID("u-1")
	seedPayrollUser(t, l, user, today)

	_, err := l.CreatePlannedExpense(ctx, ledger.PlannedExpenseInput{
		UserID: user, Title: "Tuition", Amount: ledger.NewMoneyFromInt(3000),
		TargetDate: today.AddDate(0, 0, 20),
	})
	require.NoError(t, err)
	_, err = l.CreatePlannedExpense(ctx, ledger.PlannedExpenseInput{
		UserID: user, Title: "Trip", Amount: ledger.NewMoneyFromInt(10000),
		TargetDate: today.AddDate(0, 0, 200),
	})
	require.NoError(t, err)

	v, err := e.EvaluateFuture(ctx, forecast.EvaluateInput{
		UserID:     user,
		Amount:     ledger.NewMoneyFromInt(1000),
		TargetDate: today.AddDate(0, 0, 40),
	})
	require.NoError(t, err)

	assert.True(t, v.Breakdown.UpcomingCommitted.Equal(ledger.NewMoneyFromInt(3000)))
	assert.True(t, v.Breakdown.LaterCommitted.Equal(ledger.NewMoneyFromInt(10000)))
	assert.True(t, v.Breakdown.LaterWeighted.Equal(ledger.NewMoneyFromInt(8000)))
	// 10000 + 20000 - 8000 routine - 3000 upcoming - 8000 weighted later.
	assert.True(t, v.Breakdown.NetBalance.Equal(ledger.NewMoneyFromInt(11000)))
	assert.True(t, v.CanAfford)
}

func TestEvaluateFuture_WalletFilter(t *testing.T) {
	// GIVEN: Two wallets
	// WHEN: Filtering on one, then on an unknown id
	// THEN: Only the filtered balance counts; an unmatched filter degrades
	//       to zero balance with a risk flag instead of failing

	today := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	e, l := newTestEngine(t, today)
	ctx := context.Background()
	user := ledger.UserID("u-1")

	a, err := l.CreateWallet(ctx, user, "A", "cash")
	require.NoError(t, err)
	_, err = l.RecordTransaction(ctx, ledger.TransactionInput{
		UserID: user, WalletID: a.ID, Kind: ledger.KindIncome,
		Amount: ledger.NewMoneyFromInt(700), OccurredAt: today,
	})
	require.NoError(t, err)

	b, err := l.CreateWallet(ctx, user, "B", "bank")
	require.NoError(t, err)
	_, err = l.RecordTransaction(ctx, ledger.TransactionInput{
		UserID: user, WalletID: b.ID, Kind: ledger.KindIncome,
		Amount: ledger.NewMoneyFromInt(300), OccurredAt: today,
	})
	require.NoError(t, err)

	v, err := e.EvaluateFuture(ctx, forecast.EvaluateInput{
		UserID: user, Amount: ledger.NewMoneyFromInt(100),
		TargetDate: today, WalletID: a.ID,
	})
	require.NoError(t, err)
	assert.True(t, v.Breakdown.CurrentBalance.Equal(ledger.NewMoneyFromInt(700)))

	v, err = e.EvaluateFuture(ctx, forecast.EvaluateInput{
		UserID: user, Amount: ledger.NewMoneyFromInt(100),
		TargetDate: today, WalletID: ledger.NewWalletID(),
	})
	require.NoError(t, err)
	assert.True(t, v.Breakdown.CurrentBalance.IsZero())
	assert.Contains(t, v.RiskFactors, "wallet filter matched no active wallet")
	assert.False(t, v.CanAfford)
}

// =============================================================================
// CONFIDENCE CLASSIFICATION
// =============================================================================

func TestConfidence_NoIncomeSources_Low(t *testing.T) {
	// GIVEN: A well-funded user with zero income sources
	// THEN: Even an affordable verdict is low confidence

	today := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	e, l := newTestEngine(t, today)
	ctx := context.Background()
	user := ledger.UserID("u-1")

	w, err := l.CreateWallet(ctx, user, "Cash", "cash")
	require.NoError(t, err)
	_, err = l.RecordTransaction(ctx, ledger.TransactionInput{
		UserID: user, WalletID: w.ID, Kind: ledger.KindIncome,
		Amount: ledger.NewMoneyFromInt(100000), OccurredAt: today,
	})
	require.NoError(t, err)

	v, err := e.EvaluateFuture(ctx, forecast.EvaluateInput{
		UserID: user, Amount: ledger.NewMoneyFromInt(500),
		TargetDate: today.AddDate(0, 0, 7),
	})
	require.NoError(t, err)

	assert.True(t, v.CanAfford)
	assert.Equal(t, ledger.ConfidenceLow, v.Confidence)
	assert.Contains(t, v.RiskFactors, "no income sources configured")
}

func TestConfidence_HorizonCeilings(t *testing.T) {
	// GIVEN: Two income sources (no source downgrade) and ample funds
	// THEN: Past 90 days confidence caps at medium, past 180 it drops to
	//       low, and downgrades never reverse

	today := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	e, l := newTestEngine(t, today)
	ctx := context.Background()
	user := ledger.UserID("u-1")

	w, err := l.CreateWallet(ctx, user, "Cash", "cash")
	require.NoError(t, err)
	_, err = l.RecordTransaction(ctx, ledger.TransactionInput{
		UserID: user, WalletID: w.ID, Kind: ledger.KindIncome,
		Amount: ledger.NewMoneyFromInt(500000), OccurredAt: today,
	})
	require.NoError(t, err)

	for _, name := range []string{"Salary", "Side gig"} {
		_, err = l.CreateIncomeSource(ctx, ledger.IncomeSourceInput{
			UserID: user, Name: name, Amount: ledger.NewMoneyFromInt(10000),
			Frequency: ledger.FrequencyMonthly, NextPayDate: today.AddDate(0, 0, 5),
		})
		require.NoError(t, err)
	}

	evaluate := func(days int) *forecast.Verdict {
		v, err := e.EvaluateFuture(ctx, forecast.EvaluateInput{
			UserID: user, Amount: ledger.NewMoneyFromInt(100),
			TargetDate: today.AddDate(0, 0, days),
		})
		require.NoError(t, err)
		require.True(t, v.CanAfford)
		return v
	}

	assert.Equal(t, ledger.ConfidenceHigh, evaluate(30).Confidence)

	v := evaluate(120)
	assert.Equal(t, ledger.ConfidenceMedium, v.Confidence)
	assert.Contains(t, v.RiskFactors, "projection horizon exceeds 90 days")

	v = evaluate(200)
	assert.Equal(t, ledger.ConfidenceLow, v.Confidence)
	assert.Contains(t, v.RiskFactors, "projection horizon exceeds 180 days")
}

func TestConfidence_DowngradesCompound(t *testing.T) {
	// GIVEN: No income sources AND a 200-day horizon
	// THEN: Confidence is low, never lifted back to medium by a later rule

	today := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	e, l := newTestEngine(t, today)
	ctx := context.Background()
	user := ledger.UserID("u-1")

	w, err := l.CreateWallet(ctx, user, "Cash", "cash")
	require.NoError(t, err)
	_, err = l.RecordTransaction(ctx, ledger.TransactionInput{
		UserID: user, WalletID: w.ID, Kind: ledger.KindIncome,
		Amount: ledger.NewMoneyFromInt(500000), OccurredAt: today,
	})
	require.NoError(t, err)

	v, err := e.EvaluateFuture(ctx, forecast.EvaluateInput{
		UserID: user, Amount: ledger.NewMoneyFromInt(100),
		TargetDate: today.AddDate(0, 0, 200),
	})
	require.NoError(t, err)

	assert.Equal(t, ledger.ConfidenceLow, v.Confidence)
	assert.Contains(t, v.RiskFactors, "no income sources configured")
	assert.Contains(t, v.RiskFactors, "projection horizon exceeds 180 days")
}

// =============================================================================
// INPUT GUARDS AND EvaluateNow
// =============================================================================

func TestEvaluateFuture_RejectsBadInput(t *testing.T) {
	today := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	e, _ := newTestEngine(t, today)
	ctx := context.Background()

	_, err := e.EvaluateFuture(ctx, forecast.EvaluateInput{
		UserID: "u-1", Amount: ledger.ZeroMoney(), TargetDate: today,
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)

	_, err = e.EvaluateFuture(ctx, forecast.EvaluateInput{
		UserID: "u-1", Amount: ledger.NewMoneyFromInt(100),
		TargetDate: today.AddDate(0, 0, -1),
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidRange)
}

func TestEvaluateNow_MapsConsiderDays(t *testing.T) {
	// GIVEN: The payroll fixture
	// WHEN: Asking "can I spend 5,000 now" with zero consider-days
	// THEN: Identical to a same-day EvaluateFuture; negative days rejected

	today := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	e, l := newTestEngine(t, today)
	user := ledger.UserID("u-1")
	seedPayrollUser(t, l, user, today)

	v, err := e.EvaluateNow(context.Background(), user, ledger.NewMoneyFromInt(5000), "", 0)
	require.NoError(t, err)
	assert.True(t, v.CanAfford)
	assert.Equal(t, 0, v.Breakdown.DaysUntilTarget)

	_, err = e.EvaluateNow(context.Background(), user, ledger.NewMoneyFromInt(5000), "", -1)
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)
}

// =============================================================================
// ADVISORY COLLABORATOR
// =============================================================================

type stubAdvisor struct {
	gotFallback string
	reply       string
}

func (s *stubAdvisor) Advisory(_ context.Context, _ ledger.UserID, _ *forecast.Verdict, fallback string) string {
	s.gotFallback = fallback
	if s.reply != "" {
		return s.reply
	}
	return fallback
}

func TestEvaluateFuture_AdvisorRephrasesNeverDecides(t *testing.T) {
	// GIVEN: An advisor that rewrites the advisory text
	// THEN: The text is replaced but the verdict numbers are untouched

	today := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	e, l := newTestEngine(t, today)
	user := ledger.UserID("u-1")
	seedPayrollUser(t, l, user, today)

	adv := &stubAdvisor{reply: "Consider a staggered purchase."}
	e.Advisor = adv

	v, err := e.EvaluateFuture(context.Background(), forecast.EvaluateInput{
		UserID: user, Amount: ledger.NewMoneyFromInt(25000),
		TargetDate: today.AddDate(0, 0, 40),
	})
	require.NoError(t, err)

	assert.False(t, v.CanAfford)
	require.NotEmpty(t, v.Recommendations)
	assert.Equal(t, "Consider a staggered purchase.", v.Recommendations[0])
	assert.NotEmpty(t, adv.gotFallback, "advisor must receive the deterministic fallback")
	assert.False(t, strings.Contains(adv.gotFallback, "Consider a staggered purchase."))
}

func TestEvaluateFuture_CategoryAdvisoryAppended(t *testing.T) {
	// GIVEN: A known category
	// THEN: Its canned guidance is appended after the main advisory

	today := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	e, l := newTestEngine(t, today)
	user := ledger.UserID("u-1")
	seedPayrollUser(t, l, user, today)

	v, err := e.EvaluateFuture(context.Background(), forecast.EvaluateInput{
		UserID: user, Amount: ledger.NewMoneyFromInt(1000),
		TargetDate: today.AddDate(0, 0, 10), Category: "Travel",
	})
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(v.Recommendations), 2)
}

/*
engine.go - Affordability evaluation pipeline

PURPOSE:
  Composes current wallet balances, projected recurring income, a run-rate
  extrapolation of recent spending, and horizon-weighted commitments into a
  single verdict:

    gross   = balance + projected income
    routine = trailing 30-day spend / 30 * days until target
    net     = gross - routine - upcoming commitments - 0.8 * later commitments
    afford  = net >= target amount

CONFIDENCE:
  Classification starts at HIGH and is only ever downgraded within one
  evaluation - never upgraded. Downgrades apply independently and compound:
  zero income sources plus a 200-day horizon ends LOW, not MEDIUM.

READ-ONLY:
  Evaluation performs no writes and needs no locks beyond the store's
  consistent reads; failures here never corrupt ledger state.
*/
package forecast

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/pesoplan/finance-engine/ledger"
)

// RoutineWindowDays is the trailing window the spending run-rate is drawn
// from. Tunable; the default matches observed behavior.
var RoutineWindowDays = 30

// TextAdvisor turns a verdict into advisory text, possibly via an external
// generator. Implementations return fallback whenever the collaborator is
// unavailable or its output unusable; they must never fail the evaluation.
type TextAdvisor interface {
	Advisory(ctx context.Context, userID ledger.UserID, v *Verdict, fallback string) string
}

// Engine evaluates affordability questions against ledger state.
type Engine struct {
	Store   ledger.Store
	Advisor TextAdvisor // optional
	Log     *logrus.Logger

	// Now is overridable for tests; defaults to time.Now UTC.
	Now func() time.Time
}

// EvaluateInput is one affordability question.
type EvaluateInput struct {
	UserID     ledger.UserID
	Amount     ledger.Money
	TargetDate time.Time
	WalletID   ledger.WalletID // optional filter; empty = all active wallets
	Category   string          // optional, steers advisory only
}

// Breakdown exposes every intermediate value of the pipeline for
// auditability.
type Breakdown struct {
	CurrentBalance    ledger.Money
	ProjectedIncome   ledger.Money
	GrossBalance      ledger.Money
	RoutineExpenses   ledger.Money
	UpcomingCommitted ledger.Money
	LaterCommitted    ledger.Money
	LaterWeighted     ledger.Money
	ProjectedExpenses ledger.Money
	NetBalance        ledger.Money
	DaysUntilTarget   int
}

// Verdict is the answer to an affordability question.
type Verdict struct {
	CanAfford       bool
	Confidence      ledger.ConfidenceTier
	RiskFactors     []string
	Recommendations []string
	Breakdown       Breakdown

	// Shortfall is target - net when not affordable, zero otherwise.
	Shortfall ledger.Money
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now().UTC()
}

// EvaluateFuture answers "can I afford Amount by TargetDate?".
func (e *Engine) EvaluateFuture(ctx context.Context, in EvaluateInput) (*Verdict, error) {
	if !in.Amount.IsPositive() {
		return nil, ledger.ErrInvalidInput
	}

	today := ledger.DateOnly(e.now())
	target := ledger.DateOnly(in.TargetDate)
	if target.Before(today) {
		return nil, ledger.ErrInvalidRange
	}

	var risks []string

	// 1. Current balance over matching active wallets.
	wallets, err := e.Store.ListWallets(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	currentBalance := ledger.ZeroMoney()
	matched := false
	for _, w := range wallets {
		if !w.Active {
			continue
		}
		if in.WalletID != "" && w.ID != in.WalletID {
			continue
		}
		currentBalance = currentBalance.Add(w.Balance)
		matched = true
	}
	if in.WalletID != "" && !matched {
		// Treated as zero balance, not a hard failure, but flagged.
		risks = append(risks, "wallet filter matched no active wallet")
	}

	// 2. Projected income between now and the target date.
	sources, err := e.Store.ListIncomeSources(ctx, in.UserID, true)
	if err != nil {
		return nil, err
	}
	projectedIncome := ledger.ZeroMoney()
	for _, src := range sources {
		n := CountOccurrences(src, today, target)
		projectedIncome = projectedIncome.Add(src.Amount.Mul(decimal.NewFromInt(int64(n))))
	}

	// 3-4. Gross balance and the spending run-rate.
	grossBalance := currentBalance.Add(projectedIncome)
	daysUntilTarget := ledger.DaysBetween(today, target)
	if daysUntilTarget < 0 {
		daysUntilTarget = 0
	}

	routineExpenses := ledger.ZeroMoney()
	if daysUntilTarget > 0 {
		windowStart := today.AddDate(0, 0, -RoutineWindowDays)
		trailing, err := e.Store.SumExpenses(ctx, in.UserID, windowStart, today)
		if err != nil {
			return nil, err
		}
		routineExpenses = trailing.
			Div(decimal.NewFromInt(int64(RoutineWindowDays))).
			Mul(decimal.NewFromInt(int64(daysUntilTarget)))
	}

	// 5-7. Commitments, projected expenses, net balance.
	plans, err := e.Store.ListPlannedExpenses(ctx, in.UserID,
		[]ledger.ExpenseStatus{ledger.StatusPlanned, ledger.StatusSaved})
	if err != nil {
		return nil, err
	}
	commitments := AggregateCommitments(plans, today, target)

	projectedExpenses := routineExpenses.Add(commitments.UpcomingTotal)
	netBalance := grossBalance.Sub(projectedExpenses).Sub(commitments.LaterWeighted)

	// 8. Verdict.
	canAfford := netBalance.GreaterThanOrEqual(in.Amount)

	// 9. Confidence classification. Initial HIGH, only ever downgraded.
	confidence := ledger.ConfidenceHigh
	var recommendations []string

	switch len(sources) {
	case 0:
		confidence = ledger.ConfidenceLow
		risks = append(risks, "no income sources configured")
	case 1:
		confidence = downgrade(confidence)
		risks = append(risks, "single income source dependency")
	}

	if daysUntilTarget == 0 {
		risks = append(risks, "same-day target relies on funds currently in your wallets")
		if commitments.LaterTotal.GreaterThan(in.Amount.Mul(decimal.NewFromInt(2))) {
			recommendations = append(recommendations,
				"Spending this today may conflict with your future plans; your later commitments exceed twice this amount.")
		}
	}

	if daysUntilTarget > 180 {
		confidence = ledger.ConfidenceLow
		risks = append(risks, "projection horizon exceeds 180 days")
	} else if daysUntilTarget > 90 {
		confidence = atMost(confidence, ledger.ConfidenceMedium)
		risks = append(risks, "projection horizon exceeds 90 days")
	}

	if !canAfford {
		confidence = ledger.ConfidenceLow
		risks = append(risks, "spending pattern may prevent affordability")
	}

	verdict := &Verdict{
		CanAfford:  canAfford,
		Confidence: confidence,
		Breakdown: Breakdown{
			CurrentBalance:    currentBalance,
			ProjectedIncome:   projectedIncome,
			GrossBalance:      grossBalance,
			RoutineExpenses:   routineExpenses,
			UpcomingCommitted: commitments.UpcomingTotal,
			LaterCommitted:    commitments.LaterTotal,
			LaterWeighted:     commitments.LaterWeighted,
			ProjectedExpenses: projectedExpenses,
			NetBalance:        netBalance,
			DaysUntilTarget:   daysUntilTarget,
		},
	}
	if !canAfford {
		verdict.Shortfall = in.Amount.Sub(netBalance)
	} else {
		verdict.Shortfall = ledger.ZeroMoney()
	}

	// 10. Advisory text. The external generator may rephrase, never decide.
	fallback := advisory(canAfford, in.Amount, netBalance, daysUntilTarget)
	text := fallback
	if e.Advisor != nil {
		text = e.Advisor.Advisory(ctx, in.UserID, verdict, fallback)
	}
	verdict.Recommendations = append([]string{text}, recommendations...)
	if extra := categoryAdvisory(in.Category); extra != "" {
		verdict.Recommendations = append(verdict.Recommendations, extra)
	}
	verdict.RiskFactors = risks

	if e.Log != nil {
		e.Log.WithFields(logrus.Fields{
			"user":       in.UserID,
			"amount":     in.Amount.Value,
			"days":       daysUntilTarget,
			"can_afford": canAfford,
			"confidence": confidence,
		}).Debug("affordability evaluated")
	}

	return verdict, nil
}

// EvaluateNow answers "can I afford Amount within the next considerDays
// days?"; zero days is the same-day path.
func (e *Engine) EvaluateNow(ctx context.Context, userID ledger.UserID, amount ledger.Money, walletID ledger.WalletID, considerDays int) (*Verdict, error) {
	if considerDays < 0 {
		return nil, ledger.ErrInvalidInput
	}
	return e.EvaluateFuture(ctx, EvaluateInput{
		UserID:     userID,
		Amount:     amount,
		TargetDate: ledger.DateOnly(e.now()).AddDate(0, 0, considerDays),
		WalletID:   walletID,
	})
}

// =============================================================================
// CONFIDENCE ARITHMETIC - Downgrades only
// =============================================================================

func downgrade(c ledger.ConfidenceTier) ledger.ConfidenceTier {
	switch c {
	case ledger.ConfidenceHigh:
		return ledger.ConfidenceMedium
	default:
		return ledger.ConfidenceLow
	}
}

// atMost lowers c to ceiling when c ranks above it.
func atMost(c, ceiling ledger.ConfidenceTier) ledger.ConfidenceTier {
	if rank(c) > rank(ceiling) {
		return ceiling
	}
	return c
}

func rank(c ledger.ConfidenceTier) int {
	switch c {
	case ledger.ConfidenceHigh:
		return 2
	case ledger.ConfidenceMedium:
		return 1
	default:
		return 0
	}
}

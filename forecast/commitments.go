package forecast

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pesoplan/finance-engine/ledger"
)

// =============================================================================
// COMMITMENT AGGREGATOR - Horizon-weighted planned expenses
// =============================================================================

// LaterReserveWeight discounts commitments due beyond the cutoff: money for
// far-out goals is less certain to be fully held back, but still partially
// reserved. Tunable; the default matches observed behavior, it is not a
// derived business rule.
var LaterReserveWeight = decimal.NewFromFloat(0.8)

// CommitmentBreakdown partitions active planned expenses around a cutoff
// date: upcoming commitments count at full weight, later ones at the
// reserve weight.
type CommitmentBreakdown struct {
	UpcomingTotal ledger.Money
	LaterTotal    ledger.Money
	LaterWeighted ledger.Money
}

// AggregateCommitments sums planned/saved expenses with target dates from
// today onward, split at the cutoff. Expenses already past their target
// date, or in a terminal status, do not participate.
func AggregateCommitments(expenses []ledger.PlannedExpense, today, cutoff time.Time) CommitmentBreakdown {
	today = ledger.DateOnly(today)
	cutoff = ledger.DateOnly(cutoff)

	upcoming := ledger.ZeroMoney()
	later := ledger.ZeroMoney()
	for _, p := range expenses {
		if !p.ActiveForProjection() || p.TargetDate.Before(today) {
			continue
		}
		if p.TargetDate.After(cutoff) {
			later = later.Add(p.Amount)
		} else {
			upcoming = upcoming.Add(p.Amount)
		}
	}

	return CommitmentBreakdown{
		UpcomingTotal: upcoming,
		LaterTotal:    later,
		LaterWeighted: later.Mul(LaterReserveWeight),
	}
}

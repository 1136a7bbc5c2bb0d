package forecast

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pesoplan/finance-engine/ledger"
)

// =============================================================================
// DETERMINISTIC ADVISORY TEXT
// =============================================================================
// Advisory text never alters the afford/deny verdict. It is the local
// fallback for the external text-generation collaborator and the baseline
// recommendation in every verdict.

// categoryAdvice holds extra guidance per lower-cased category. A lookup
// table keeps the open category domain extensible without branching logic.
var categoryAdvice = map[string]string{
	"emergency": "Consider building a separate emergency fund so one-off events stop competing with your goals.",
	"travel":    "Watch for fare and lodging price swings; booking early usually beats saving harder later.",
	"gadget":    "Prices on electronics drop over time; waiting a sale cycle may shrink the amount you need.",
	"education": "Check for installment plans; spreading tuition can ease the one-time hit on your wallets.",
}

// buffer thresholds, in percent of the target amount.
var (
	comfortableBufferPct = decimal.NewFromInt(100)
	thinBufferPct        = decimal.NewFromInt(20)
)

// advisory phrases the affordability outcome: a savings target when short, a
// buffer read when affordable.
func advisory(canAfford bool, target, netBalance ledger.Money, daysUntilTarget int) string {
	if canAfford {
		return bufferAdvisory(target, netBalance, daysUntilTarget)
	}
	return shortfallAdvisory(target, netBalance, daysUntilTarget)
}

func shortfallAdvisory(target, netBalance ledger.Money, daysUntilTarget int) string {
	shortfall := target.Sub(netBalance)

	if daysUntilTarget == 0 {
		return fmt.Sprintf("You are %s short of affording this today. Consider a smaller amount or moving the date out.", shortfall)
	}
	if daysUntilTarget <= 30 {
		daily := shortfall.Div(decimal.NewFromInt(int64(daysUntilTarget)))
		return fmt.Sprintf("You are %s short. Setting aside %s per day until the target date would close the gap.", shortfall, daily)
	}
	months := decimal.NewFromInt(int64(daysUntilTarget)).Div(decimal.NewFromInt(30))
	monthly := ledger.Money{Value: shortfall.Value.Div(months).Round(2)}
	return fmt.Sprintf("You are %s short. Saving about %s per month until the target date would close the gap.", shortfall, monthly)
}

func bufferAdvisory(target, netBalance ledger.Money, daysUntilTarget int) string {
	surplus := netBalance.Sub(target)
	bufferPct := surplus.Value.Div(target.Value).Mul(decimal.NewFromInt(100)).Round(0)

	var read string
	switch {
	case bufferPct.GreaterThanOrEqual(comfortableBufferPct):
		read = fmt.Sprintf("You have plenty of buffer: %s beyond the target.", surplus)
	case bufferPct.LessThan(thinBufferPct):
		read = fmt.Sprintf("It fits, but only just (%s%% buffer). Save a bit more before committing.", bufferPct)
	default:
		read = fmt.Sprintf("You can cover it with a %s%% buffer left over.", bufferPct)
	}

	if daysUntilTarget == 0 {
		return "You can afford this expense today with your current balance. " + read
	}
	return read
}

// categoryAdvisory returns extra guidance for a category, or "".
func categoryAdvisory(category string) string {
	return categoryAdvice[strings.ToLower(strings.TrimSpace(category))]
}

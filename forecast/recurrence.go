/*
Package forecast answers "will I afford this by that date?".

PURPOSE:
  This package projects recurring income forward, weights future commitments
  by horizon, and composes both with current ledger balances into a
  confidence-scored afford/deny verdict. It reads ledger state only; it never
  writes balances. The one writer here is the confidence recalculator
  (recalc.go), which stores refreshed confidence tiers on planned expenses.

KEY CONCEPTS:
  - Schedule (this file): lazy, finite, restartable sequence of pay dates
  - CommitmentBreakdown: upcoming vs reserve-weighted later commitments
  - Engine: the step-by-step projection pipeline producing a Verdict
  - Recalculator: triggered/swept confidence refresh for savings goals

SEE ALSO:
  - ledger: Record types and the store the engine reads
  - insight: Optional advisory-text collaborator with deterministic fallback
*/
package forecast

import (
	"time"

	"github.com/pesoplan/finance-engine/ledger"
)

// =============================================================================
// SCHEDULE - Lazy sequence of income occurrence dates
// =============================================================================

// Schedule iterates the future occurrence dates of an income source within
// (from, to]: strictly after from, on or before to. Stepping uses calendar
// arithmetic - a month step lands on the next calendar month, not +30 days.
// Frequencies without a defined step (irregular, bimonthly) yield at most
// the existing next pay date and then terminate.
type Schedule struct {
	source ledger.IncomeSource
	from   time.Time
	to     time.Time

	cur  time.Time
	done bool
}

// Occurrences creates a schedule over (from, to].
func Occurrences(source ledger.IncomeSource, from, to time.Time) *Schedule {
	s := &Schedule{source: source, from: ledger.DateOnly(from), to: ledger.DateOnly(to)}
	s.Reset()
	return s
}

// Reset restarts the iteration from the source's next pay date.
func (s *Schedule) Reset() {
	s.cur = ledger.DateOnly(s.source.NextPayDate)
	s.done = s.cur.After(s.to)
}

// Next returns the next occurrence date, or false when the sequence is
// exhausted.
func (s *Schedule) Next() (time.Time, bool) {
	for !s.done {
		occurrence := s.cur
		s.advance()
		if occurrence.After(s.from) {
			return occurrence, true
		}
	}
	return time.Time{}, false
}

func (s *Schedule) advance() {
	switch s.source.Frequency {
	case ledger.FrequencyWeekly:
		s.cur = s.cur.AddDate(0, 0, 7)
	case ledger.FrequencyBiweekly:
		s.cur = s.cur.AddDate(0, 0, 14)
	case ledger.FrequencyMonthly:
		s.cur = s.cur.AddDate(0, 1, 0)
	case ledger.FrequencyQuarterly:
		s.cur = s.cur.AddDate(0, 3, 0)
	case ledger.FrequencyAnnually:
		s.cur = s.cur.AddDate(1, 0, 0)
	default:
		// No defined step: the single known occurrence has been produced.
		s.done = true
		return
	}
	if s.cur.After(s.to) {
		s.done = true
	}
}

// Collect drains the schedule into a slice and leaves it exhausted.
func (s *Schedule) Collect() []time.Time {
	var out []time.Time
	for {
		d, ok := s.Next()
		if !ok {
			return out
		}
		out = append(out, d)
	}
}

// CountOccurrences is a convenience over Occurrences().Collect().
func CountOccurrences(source ledger.IncomeSource, from, to time.Time) int {
	return len(Occurrences(source, from, to).Collect())
}

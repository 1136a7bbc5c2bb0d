/*
recalc.go - Confidence recalculation for planned expenses

PURPOSE:
  Re-scores every active planned expense by re-running the affordability
  pipeline with the expense's own amount and target date, then writing the
  resulting tier back with a recompute timestamp.

TRIGGERS:
  Two paths feed the recalculator:
    - ledger mutations, fire-and-forget through a bounded queue; a failed
      or dropped refresh never affects the mutation that caused it
    - a scheduled sweep across all users with active plans, where per-user
      failures are isolated and counted rather than aborting the pass
*/
package forecast

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pesoplan/finance-engine/ledger"
)

// DefaultRecalcQueueSize bounds the mutation-trigger backlog. When the
// queue is full further triggers are dropped; the next sweep covers them.
const DefaultRecalcQueueSize = 64

// Recalculator keeps planned-expense confidence tiers current.
type Recalculator struct {
	engine *Engine
	store  ledger.Store
	log    *logrus.Logger
	now    func() time.Time

	queue chan ledger.UserID
	stop  chan struct{}
	wg    sync.WaitGroup

	startOnce sync.Once
	stopOnce  sync.Once
}

// SweepReport counts per-user outcomes of one full recalculation pass.
type SweepReport struct {
	UsersProcessed int
	UsersFailed    int
	PlansUpdated   int
	Failures       map[ledger.UserID]error
}

func NewRecalculator(engine *Engine, store ledger.Store, log *logrus.Logger) *Recalculator {
	return &Recalculator{
		engine: engine,
		store:  store,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
		queue:  make(chan ledger.UserID, DefaultRecalcQueueSize),
		stop:   make(chan struct{}),
	}
}

// LedgerMutated implements ledger.MutationListener. Non-blocking: when the
// queue is full the trigger is dropped and left to the next sweep.
func (r *Recalculator) LedgerMutated(userID ledger.UserID) {
	select {
	case r.queue <- userID:
	default:
		if r.log != nil {
			r.log.WithField("user", userID).Warn("recalc queue full, trigger dropped")
		}
	}
}

// Start launches the background worker draining mutation triggers.
func (r *Recalculator) Start() {
	r.startOnce.Do(func() {
		r.wg.Add(1)
		go r.run()
	})
}

// Stop shuts the worker down and waits for in-flight work to finish.
func (r *Recalculator) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
	r.wg.Wait()
}

func (r *Recalculator) run() {
	defer r.wg.Done()
	for {
		select {
		case <-r.stop:
			return
		case userID := <-r.queue:
			ctx, cancel := context.WithTimeout(context.Background(), ledger.DefaultOpTimeout)
			if _, err := r.RecalculateUser(ctx, userID); err != nil && r.log != nil {
				r.log.WithField("user", userID).WithError(err).Warn("triggered recalculation failed")
			}
			cancel()
		}
	}
}

// RecalculateUser re-scores every PLANNED or SAVED expense for one user and
// returns the ids whose confidence was rewritten.
func (r *Recalculator) RecalculateUser(ctx context.Context, userID ledger.UserID) ([]ledger.PlannedExpenseID, error) {
	plans, err := r.store.ListPlannedExpenses(ctx, userID,
		[]ledger.ExpenseStatus{ledger.StatusPlanned, ledger.StatusSaved})
	if err != nil {
		return nil, err
	}

	var updated []ledger.PlannedExpenseID
	for _, plan := range plans {
		target := ledger.DateOnly(plan.TargetDate)
		if target.Before(ledger.DateOnly(r.now())) {
			// Past-due plans keep their last computed tier.
			continue
		}
		verdict, err := r.engine.EvaluateFuture(ctx, EvaluateInput{
			UserID:     userID,
			Amount:     plan.Amount,
			TargetDate: plan.TargetDate,
			Category:   plan.Category,
		})
		if err != nil {
			return updated, err
		}

		plan.Confidence = verdict.Confidence
		plan.ConfidenceCheckedAt = r.now()
		if err := r.store.SavePlannedExpense(ctx, plan); err != nil {
			return updated, err
		}
		updated = append(updated, plan.ID)
	}

	if r.log != nil {
		r.log.WithFields(logrus.Fields{
			"user":  userID,
			"plans": len(updated),
		}).Debug("confidence recalculated")
	}
	return updated, nil
}

// Sweep recalculates every user holding active plans. One user's failure is
// recorded and the pass continues.
func (r *Recalculator) Sweep(ctx context.Context) (*SweepReport, error) {
	users, err := r.store.ListUsersWithActivePlans(ctx)
	if err != nil {
		return nil, err
	}

	report := &SweepReport{Failures: make(map[ledger.UserID]error)}
	for _, userID := range users {
		updated, err := r.RecalculateUser(ctx, userID)
		report.PlansUpdated += len(updated)
		if err != nil {
			report.UsersFailed++
			report.Failures[userID] = err
			if r.log != nil {
				r.log.WithField("user", userID).WithError(err).Warn("sweep user failed")
			}
			continue
		}
		report.UsersProcessed++
	}

	if r.log != nil {
		r.log.WithFields(logrus.Fields{
			"processed": report.UsersProcessed,
			"failed":    report.UsersFailed,
			"plans":     report.PlansUpdated,
		}).Info("confidence sweep finished")
	}
	return report, nil
}

/*
scheduler.go - Scheduled confidence sweep

PURPOSE:
  Periodically runs the confidence recalculation sweep across every user
  with active plans. This covers users whose mutation-triggered refresh was
  dropped and keeps tiers from drifting stale as target dates approach.

DESIGN:
  - Runs a background goroutine with a configurable interval
  - One sweep fires immediately on Start so freshly booted servers don't
    wait a full interval
  - Per-user failures are already isolated inside the sweep itself

USAGE:
  scheduler := NewSweepScheduler(recalc, log)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - forecast/recalc.go: Sweep implementation
  - handlers.go: TriggerSweep endpoint (manual pass)
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pesoplan/finance-engine/forecast"
	"github.com/pesoplan/finance-engine/insight"
)

// SweepScheduler runs the confidence sweep on a timer.
type SweepScheduler struct {
	Recalc        *forecast.Recalculator
	Log           *logrus.Logger
	Cache         *insight.Cache
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewSweepScheduler creates a scheduler with a one-hour default interval.
func NewSweepScheduler(recalc *forecast.Recalculator, log *logrus.Logger) *SweepScheduler {
	return &SweepScheduler{
		Recalc:        recalc,
		Log:           log,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (ss *SweepScheduler) Start() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if !ss.Enabled {
		ss.Log.Info("sweep scheduler disabled, not starting")
		return
	}

	ss.ticker = time.NewTicker(ss.CheckInterval)
	ss.wg.Add(1)

	go ss.run()

	ss.Log.WithField("interval", ss.CheckInterval).Info("sweep scheduler started")
}

// Stop stops the scheduler.
func (ss *SweepScheduler) Stop() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if ss.ticker != nil {
		ss.ticker.Stop()
		close(ss.stop)
		ss.wg.Wait()
		ss.Log.Info("sweep scheduler stopped")
	}
}

func (ss *SweepScheduler) run() {
	defer ss.wg.Done()

	// Run immediately on start
	ss.sweep()

	for {
		select {
		case <-ss.ticker.C:
			ss.sweep()
		case <-ss.stop:
			return
		}
	}
}

func (ss *SweepScheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := ss.Recalc.Sweep(ctx); err != nil {
		ss.Log.WithError(err).Warn("scheduled sweep failed")
	}

	// Mutation listeners only invalidate users who touch their ledger;
	// the sweep is where advisories for dormant users get evicted.
	if ss.Cache != nil {
		if purged := ss.Cache.PurgeExpired(); purged > 0 {
			ss.Log.WithField("purged", purged).Debug("evicted expired advisories")
		}
	}
}

package worker

import (
	"context"
	"time"

	"github.com/jwalitptl/medtrack-api/pkg/logger"
	"github.com/jwalitptl/medtrack-api/pkg/metrics"
)

// RolloverStore is the slice of the medication store the worker drives.
type RolloverStore interface {
	Rollover(ctx context.Context, asOf time.Time) error
}

// Clock supplies the current time; injected so firing logic is testable
// without waiting for a real midnight.
type Clock interface {
	Now() time.Time
}

// RolloverWorker fires the store's rollover sweep once per local calendar
// day, at midnight. Computing the next fire time is separated from applying
// the sweep; the sweep itself lives in the store and is idempotent, so a
// failed or duplicated fire is retried on the next tick without corrupting
// history.
type RolloverWorker struct {
	store   RolloverStore
	clock   Clock
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewRolloverWorker(store RolloverStore, clock Clock, l *logger.Logger, m *metrics.Metrics) *RolloverWorker {
	if l == nil {
		l = logger.NewLogger(nil)
	}
	return &RolloverWorker{
		store:   store,
		clock:   clock,
		logger:  l,
		metrics: m,
	}
}

// NextMidnight returns the first midnight strictly after now, in now's
// location.
func NextMidnight(now time.Time) time.Time {
	year, month, day := now.Date()
	return time.Date(year, month, day+1, 0, 0, 0, 0, now.Location())
}

// Start blocks until ctx is canceled, firing the sweep at each local
// midnight. Cancel before tearing down the store.
func (w *RolloverWorker) Start(ctx context.Context) {
	for {
		now := w.clock.Now()
		timer := time.NewTimer(NextMidnight(now).Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			w.logger.ZL.Info().Msg("rollover worker shutting down")
			return
		case <-timer.C:
			w.runOnce(ctx)
		}
	}
}

func (w *RolloverWorker) runOnce(ctx context.Context) {
	start := time.Now()
	asOf := w.clock.Now()

	if err := w.store.Rollover(ctx, asOf); err != nil {
		if w.metrics != nil {
			w.metrics.RolloverFailures.Inc()
		}
		w.logger.ZL.Error().Err(err).Time("as_of", asOf).Msg("rollover sweep failed, retrying next tick")
		return
	}

	if w.metrics != nil {
		w.metrics.RolloverRuns.Inc()
		w.metrics.RolloverDuration.Observe(time.Since(start).Seconds())
	}
	w.logger.ZL.Info().Time("as_of", asOf).Msg("rollover sweep complete")
}

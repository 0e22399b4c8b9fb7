// Package worker implements the dispatch loop described in spec §5: pull
// one invocation event at a time off the bus, route it to the stage that
// owns its key suffix, and keep going. Routing is stateless and
// fire-and-forget — a failed stage handler is logged and the loop moves
// on to the next event rather than retrying the whole dispatch.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/daytrace/pipeline/internal/bus"
	"github.com/daytrace/pipeline/internal/objectstore"
	"github.com/daytrace/pipeline/internal/observability"
)

// StageHandler processes one invocation event for a single pipeline stage.
type StageHandler interface {
	Handle(ctx context.Context, ev bus.Event) error
}

// Dispatcher routes an event to the handler owning its key suffix, per the
// dependency table in spec §5.
type Dispatcher struct {
	Merge   StageHandler
	Segment StageHandler
	Enrich  StageHandler
	Trips   StageHandler
	Logger  *slog.Logger
}

func (d *Dispatcher) Dispatch(ctx context.Context, ev bus.Event) error {
	switch {
	case objectstore.IsRawKey(ev.Key):
		return d.Merge.Handle(ctx, ev)
	case objectstore.IsPointsKey(ev.Key):
		return d.Segment.Handle(ctx, ev)
	case objectstore.IsStaysKey(ev.Key), objectstore.IsVisitsKey(ev.Key):
		return d.Enrich.Handle(ctx, ev)
	case objectstore.IsStaysEnrichedKey(ev.Key):
		return d.Trips.Handle(ctx, ev)
	case objectstore.IsVisitsEnrichedKey(ev.Key):
		// visits_enriched.json does not feed any further stage.
		d.Logger.Debug("worker: visits_enriched key has no downstream stage", "key", ev.Key)
		return nil
	default:
		d.Logger.Warn("worker: unrecognized key, skipping", "key", ev.Key)
		return nil
	}
}

// Worker pulls events off the bus and dispatches them to the stage
// handlers until the context is cancelled.
type Worker struct {
	extractor  bus.Extractor
	dispatcher *Dispatcher
	logger     *slog.Logger
	metrics    *observability.Metrics
	ready      atomic.Bool
}

func New(extractor bus.Extractor, dispatcher *Dispatcher, logger *slog.Logger, metrics *observability.Metrics) *Worker {
	return &Worker{extractor: extractor, dispatcher: dispatcher, logger: logger, metrics: metrics}
}

// CheckReadiness returns nil once the worker has processed at least one
// event, or an error describing why the service is not yet ready.
func (w *Worker) CheckReadiness(_ context.Context) error {
	if !w.ready.Load() {
		return errors.New("worker has not processed any events yet")
	}
	return nil
}

// Run executes the dispatch loop until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("worker started")
	w.metrics.WorkerRunning.Set(1)
	defer w.metrics.WorkerRunning.Set(0)

	backoff := 200 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker stopping", "reason", ctx.Err())
			return nil
		default:
		}

		ev, err := w.extractor.Extract(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.logger.Error("extract failed", "error", err)
			if !w.backoffOrStop(ctx, &backoff) {
				return nil
			}
			continue
		}
		w.metrics.EventsConsumed.Inc()
		backoff = 200 * time.Millisecond

		if err := w.dispatcher.Dispatch(ctx, ev.Event); err != nil {
			w.logger.Error("stage handler failed", "key", ev.Event.Key, "error", err)
		}

		if ev.Commit != nil {
			if err := ev.Commit(ctx); err != nil {
				w.logger.Warn("commit failed", "key", ev.Event.Key, "error", err)
			}
		}

		w.ready.Store(true)
	}
}

func (w *Worker) backoffOrStop(ctx context.Context, backoff *time.Duration) bool {
	const maxBackoff = 5 * time.Second
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

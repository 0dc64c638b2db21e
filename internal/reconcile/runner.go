package reconcile

import (
	"context"
	"time"

	"github.com/kagisom/gatehouse/pkg/logger"
	"github.com/kagisom/gatehouse/pkg/metrics"
)

// Push triggers, used as the metric label and in log entries.
const (
	TriggerStartup  = "startup"
	TriggerInterval = "interval"
	TriggerManual   = "manual"
)

// Pusher ships the local register to the central server. *Client satisfies it.
type Pusher interface {
	Push(ctx context.Context) error
}

// Runner drives the periodic reconciliation loop. A failed push is logged and
// recorded, never fatal; the next cycle retries with the full collection.
type Runner struct {
	pusher   Pusher
	interval time.Duration
	tracker  *StatusTracker
	metrics  *metrics.SyncMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// RunnerParams wires the reconciliation loop.
type RunnerParams struct {
	Pusher   Pusher
	Interval time.Duration
	Metrics  *metrics.SyncMetrics
	Logger   *logger.Logger
}

// NewRunner builds the loop. Intervals below one second are clamped to the
// default of five minutes.
func NewRunner(params RunnerParams) *Runner {
	interval := params.Interval
	if interval < time.Second {
		interval = 5 * time.Minute
	}
	return &Runner{
		pusher:   params.Pusher,
		interval: interval,
		tracker:  &StatusTracker{},
		metrics:  params.Metrics,
		logg:     params.Logger,
		now:      time.Now,
	}
}

// Run pushes once immediately, then on every interval tick until the context
// is cancelled.
func (r *Runner) Run(ctx context.Context) {
	_ = r.push(ctx, TriggerStartup)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = r.push(ctx, TriggerInterval)
		}
	}
}

// RunNow performs a single push outside the schedule and returns its outcome.
func (r *Runner) RunNow(ctx context.Context) error {
	return r.push(ctx, TriggerManual)
}

// Status reports the loop's recent history.
func (r *Runner) Status() Status {
	return r.tracker.Snapshot()
}

func (r *Runner) push(ctx context.Context, trigger string) error {
	start := r.now()
	r.tracker.recordAttempt(start)
	if r.logg != nil {
		ctx = r.logg.WithField(ctx, "trigger", trigger)
		r.logg.Info(ctx, "pushing register to central server")
	}

	err := r.pusher.Push(ctx)
	r.metrics.ObserveDuration(trigger, r.now().Sub(start))
	if err != nil {
		r.tracker.recordFailure(err)
		r.metrics.IncFailure(trigger)
		if r.logg != nil {
			r.logg.Warn(ctx, "push failed; will retry on next cycle: "+err.Error())
		}
		return err
	}

	r.tracker.recordSuccess(r.now())
	r.metrics.IncSuccess(trigger)
	if r.logg != nil {
		r.logg.Info(ctx, "push accepted")
	}
	return nil
}

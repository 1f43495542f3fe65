package keyz

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// Trigger describes one completed hotkey match, passed to callbacks.
type Trigger struct {
	// Combo is the registered combination that fired.
	Combo Combo

	// At is the time the completing key-down event was processed.
	At time.Time
}

// Handler is a hotkey callback. The context is the engine's session
// context; it is cancelled when Stop is called, so long-running
// callbacks can bail out cooperatively. Returned errors are logged
// with the triggering combo and never propagate to the listener.
type Handler func(ctx context.Context, t Trigger) error

// Callback pairs a Handler with its dispatch mode. The mode is
// declared explicitly at registration time via Sync or Async; there is
// no per-invocation inspection.
type Callback struct {
	fn    Handler
	async bool
}

// Sync wraps a handler that runs inline on the listener goroutine.
// It blocks subsequent key processing until it returns, which keeps
// back-to-back matches strictly in event order. Keep sync handlers
// fast.
func Sync(fn Handler) Callback { return Callback{fn: fn} }

// Async wraps a handler that runs on the scheduler, never blocking the
// listener. Submission order follows event order; completion order
// does not.
func Async(fn Handler) Callback { return Callback{fn: fn, async: true} }

// IsAsync reports the dispatch mode declared at construction.
func (c Callback) IsAsync() bool { return c.async }

// dispatch routes a matched registration to its execution path. Runs
// on the listener goroutine.
func (e *Engine) dispatch(ctx context.Context, reg registration) {
	t := Trigger{Combo: reg.combo, At: e.clock.Now()}
	atomic.AddInt64(&e.metrics.MatchesFired, 1)

	e.logger.Debug().
		Stringer("combo", reg.combo).
		Bool("async", reg.cb.async).
		Msg("hotkey matched")

	if reg.cb.async {
		e.dispatchAsync(ctx, reg, t)
		return
	}

	if err := e.runSyncSafely(ctx, reg.cb.fn, t); err != nil {
		atomic.AddInt64(&e.metrics.SyncFailed, 1)
		e.logger.Error().
			Err(err).
			Stringer("combo", reg.combo).
			Msg("sync callback failed")
		return
	}
	atomic.AddInt64(&e.metrics.SyncCompleted, 1)
}

// dispatchAsync submits to the scheduler and returns immediately.
// If the scheduler is unavailable or its queue is full, the invocation
// is logged and dropped rather than blocking the listener.
func (e *Engine) dispatchAsync(ctx context.Context, reg registration, t Trigger) {
	e.mu.RLock()
	sched := e.sched
	e.mu.RUnlock()

	err := ErrSchedulerUnavailable
	if sched != nil {
		err = sched.submit(task{ctx: ctx, trigger: t, fn: reg.cb.fn})
	}
	if err != nil {
		if errors.Is(err, ErrSchedulerUnavailable) {
			// Queue-full rejections are counted by the scheduler.
			atomic.AddInt64(&e.metrics.TasksRejected, 1)
		}
		e.logger.Warn().
			Err(err).
			Stringer("combo", reg.combo).
			Msg("async callback dropped")
	}
}

// runSyncSafely executes a sync callback inline with panic recovery so
// a failing callback cannot terminate the listener loop.
func (e *Engine) runSyncSafely(ctx context.Context, fn Handler, t Trigger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().
				Interface("panic", r).
				Stringer("combo", t.Combo).
				Msg("sync callback panicked")
			err = ErrCallbackPanicked
		}
	}()
	return fn(ctx, t)
}

package keyz

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/zoobzio/clockz"
)

// scheduler runs async hotkey callbacks on dedicated worker
// goroutines, independent of the listener.
//
// The scheduler:
//   - Never blocks the submitter; a full queue rejects with ErrQueueFull
//   - Preserves FIFO submission order from the listener
//   - Recovers panics so callback failures cannot kill a worker
//   - Applies an optional global timeout to every callback
//   - Shuts down gracefully, draining queued tasks before halting
type scheduler struct {
	// Time abstraction for deterministic testing
	clock clockz.Clock

	// Channel for receiving callback execution tasks
	tasks chan task

	logger zerolog.Logger

	// WaitGroup to track worker goroutines for graceful shutdown
	wg sync.WaitGroup

	mu sync.RWMutex

	// Global timeout applied to all callback executions.
	// Zero value means no timeout.
	globalTimeout time.Duration

	// Tracks if the scheduler has been closed
	closed bool

	// Metrics pointer for atomic updates
	metrics *Metrics
}

// task is a single async callback invocation.
type task struct {
	ctx     context.Context // Session context, cancelled on Stop
	trigger Trigger         // Combo and timestamp to pass to the callback
	fn      Handler         // The callback function
}

// newScheduler creates and starts a scheduler with the given worker
// count and queue capacity. Workers start immediately and process
// tasks until the queue is closed during shutdown.
func newScheduler(clock clockz.Clock, workers, queueSize int, timeout time.Duration, logger zerolog.Logger, metrics *Metrics) *scheduler {
	s := &scheduler{
		clock:         clock,
		tasks:         make(chan task, queueSize),
		logger:        logger,
		globalTimeout: timeout,
		metrics:       metrics,
	}
	atomic.StoreInt64(&metrics.QueueCapacity, int64(queueSize))

	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	return s
}

// submit queues a callback for execution without ever blocking.
//
// Returns ErrSchedulerUnavailable after close, or ErrQueueFull when
// the queue cannot accept more tasks. Either way the caller drops the
// invocation; the listener is never delayed.
func (s *scheduler) submit(t task) error {
	// Channel send must be protected by the mutex to prevent a race
	// with close(): otherwise the channel could be closed between the
	// closed check and the send, causing a panic.
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrSchedulerUnavailable
	}

	select {
	case s.tasks <- t:
		atomic.AddInt64(&s.metrics.QueueDepth, 1)
		return nil
	default:
		atomic.AddInt64(&s.metrics.TasksRejected, 1)
		return ErrQueueFull
	}
}

// close shuts down the scheduler gracefully.
//
// This method:
//  1. Marks the scheduler closed to prevent new submissions
//  2. Closes the task channel
//  3. Waits for workers to finish processing queued tasks
func (s *scheduler) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	close(s.tasks)
	s.wg.Wait()
}

// worker is the main loop for worker goroutines. Each worker processes
// tasks until the channel is closed during shutdown.
func (s *scheduler) worker() {
	defer s.wg.Done()

	for t := range s.tasks {
		atomic.AddInt64(&s.metrics.QueueDepth, -1)

		if err := s.runSafely(t); err != nil {
			if t.ctx.Err() != nil {
				atomic.AddInt64(&s.metrics.TasksExpired, 1)
			} else {
				atomic.AddInt64(&s.metrics.TasksFailed, 1)
			}
			s.logger.Error().
				Err(err).
				Stringer("combo", t.trigger.Combo).
				Msg("async callback failed")
		} else {
			atomic.AddInt64(&s.metrics.TasksProcessed, 1)
		}
	}
}

// runSafely executes a callback with panic recovery so a panicking
// callback cannot take down its worker.
func (s *scheduler) runSafely(t task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Interface("panic", r).
				Stringer("combo", t.trigger.Combo).
				Msg("async callback panicked")
			err = ErrCallbackPanicked
		}
	}()

	ctx := t.ctx
	if s.globalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = s.clock.WithTimeout(ctx, s.globalTimeout)
		defer cancel()
	}

	return t.fn(ctx, t.trigger)
}

package keyz

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/zoobzio/clockz"
)

// Option configures an Engine during creation.
type Option func(*config)

// config holds internal configuration for engine creation.
type config struct {
	clock     clockz.Clock
	logger    zerolog.Logger
	source    Source
	workers   int
	timeout   time.Duration
	queueSize int
}

// WithWorkers sets the number of scheduler goroutines for async
// callback execution. Default is 10 workers.
func WithWorkers(count int) Option {
	return func(c *config) {
		c.workers = count
	}
}

// WithTimeout sets a global hard timeout for async callback
// executions, applied through the callback's context. Default is no
// timeout (0): shutdown is cooperative-only.
func WithTimeout(timeout time.Duration) Option {
	return func(c *config) {
		c.timeout = timeout
	}
}

// WithQueueSize sets the scheduler queue size.
// Default is 0, which auto-calculates as workers * 2.
func WithQueueSize(size int) Option {
	return func(c *config) {
		c.queueSize = size
	}
}

// WithClock sets the clock implementation for time operations.
// Default is clockz.RealClock for production use.
func WithClock(clock clockz.Clock) Option {
	return func(c *config) {
		c.clock = clock
	}
}

// WithLogger sets the structured logger. Default is a no-op logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithSource sets the key event source. Default is the OS-backed
// source for the build platform (see NewSystemSource). Tests inject a
// FakeSource here.
func WithSource(source Source) Option {
	return func(c *config) {
		c.source = source
	}
}

// Engine lifecycle states. Transitions:
// Stopped -> Starting -> Running -> Stopping -> Stopped.
type engineState int32

const (
	stateStopped engineState = iota
	stateStarting
	stateRunning
	stateStopping
)

// registration pairs a parsed combo with its callback. Stored keyed by
// the combo's canonical signature; re-registering the same combo
// replaces the prior entry (last write wins).
type registration struct {
	id    string
	combo Combo
	cb    Callback
}

// Engine is the global-hotkey engine. It owns the listener goroutine
// consuming the event source, the async scheduler, and the shared
// liveness flag.
//
// Thread Safety:
// All methods are safe for concurrent use. Registration is permitted
// in any state; the registry is read by the listener on every match
// under a read lock, so writes never corrupt the hot path.
//
// Multiple engines may coexist; each owns independent goroutines and
// an independent source subscription. There is no process-wide
// singleton.
type Engine struct {
	clock  clockz.Clock
	logger zerolog.Logger
	source Source

	workers   int
	queueSize int
	timeout   time.Duration

	mu    sync.RWMutex
	regs  map[string]registration
	state engineState

	// Per-session fields, replaced on each Start.
	sched        *scheduler
	sessCancel   context.CancelFunc
	listenerDone chan struct{}
	stopped      chan struct{}

	started bool // any Start has ever succeeded

	// running is the shared liveness flag: true from Start until Stop
	// (or source exhaustion). Readable from any goroutine, including
	// callbacks.
	running atomic.Bool

	metrics Metrics
}

// New creates an engine with the specified options.
//
// Default configuration:
//   - 10 scheduler workers for async callbacks
//   - No callback timeout (cooperative cancellation only)
//   - Auto-calculated queue size (workers * 2)
//   - OS-backed event source for the build platform
//   - No-op logger
func New(opts ...Option) *Engine {
	cfg := config{
		clock:   clockz.RealClock,
		logger:  zerolog.Nop(),
		workers: 10,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.queueSize == 0 {
		cfg.queueSize = cfg.workers * 2
	}
	if cfg.source == nil {
		cfg.source = NewSystemSource()
	}

	return &Engine{
		clock:     cfg.clock,
		logger:    cfg.logger,
		source:    cfg.source,
		workers:   cfg.workers,
		queueSize: cfg.queueSize,
		timeout:   cfg.timeout,
		regs:      make(map[string]registration),
	}
}

// Register parses a combo spec and binds it to a callback. Valid in
// any lifecycle state. Registering a combo that is already registered
// replaces the prior callback; only the new one fires on subsequent
// matches.
//
// If an async callback is registered while the engine is running and
// no scheduler was started (because no async registrations existed at
// Start), a scheduler is started on demand so the new hotkey is
// dispatchable immediately.
//
// Note for registration-claiming sources (macOS, Windows): combos are
// claimed with the OS when the engine starts, so registrations made
// while running take effect on the next Start.
func (e *Engine) Register(spec string, cb Callback) (Binding, error) {
	combo, err := ParseCombo(spec)
	if err != nil {
		return Binding{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	id := generateID(e.clock)
	e.regs[combo.String()] = registration{id: id, combo: combo, cb: cb}
	atomic.StoreInt64(&e.metrics.RegisteredHotkeys, int64(len(e.regs)))

	if cb.async && e.state == stateRunning && e.sched == nil {
		e.sched = newScheduler(e.clock, e.workers, e.queueSize, e.timeout, e.logger, &e.metrics)
		e.logger.Info().Msg("scheduler started on demand")
	}

	e.logger.Debug().
		Stringer("combo", combo).
		Bool("async", cb.async).
		Msg("hotkey registered")

	return Binding{remove: func() error {
		return e.removeRegistration(combo.String(), id)
	}}, nil
}

// removeRegistration deletes a registration if it is still the one the
// binding was created for.
func (e *Engine) removeRegistration(sig, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	reg, ok := e.regs[sig]
	if !ok || reg.id != id {
		return ErrBindingNotFound
	}
	delete(e.regs, sig)
	atomic.StoreInt64(&e.metrics.RegisteredHotkeys, int64(len(e.regs)))
	return nil
}

// Start opens the event source and begins listening. Valid only from
// the Stopped state; returns ErrAlreadyRunning otherwise. A scheduler
// is started alongside the listener iff at least one async
// registration exists.
//
// Failure to acquire the OS event hook is returned as a wrapped error
// and leaves the engine Stopped.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != stateStopped {
		return ErrAlreadyRunning
	}
	e.state = stateStarting

	combos := make([]Combo, 0, len(e.regs))
	hasAsync := false
	for _, reg := range e.regs {
		combos = append(combos, reg.combo)
		if reg.cb.async {
			hasAsync = true
		}
	}

	events, err := e.source.Subscribe(combos)
	if err != nil {
		e.state = stateStopped
		return fmt.Errorf("opening event source: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.sessCancel = cancel
	e.listenerDone = make(chan struct{})
	e.stopped = make(chan struct{})
	if hasAsync {
		e.sched = newScheduler(e.clock, e.workers, e.queueSize, e.timeout, e.logger, &e.metrics)
	}

	e.started = true
	e.running.Store(true)
	e.state = stateRunning

	go e.listen(ctx, events)
	go e.supervise(e.listenerDone, e.stopped)

	e.logger.Info().
		Int("hotkeys", len(combos)).
		Bool("scheduler", hasAsync).
		Msg("engine started")
	return nil
}

// listen is the listener goroutine: a tight loop consuming the event
// source, owning the held-key state, and executing sync callbacks
// inline. Exits when the source's event channel closes.
func (e *Engine) listen(ctx context.Context, events <-chan Event) {
	defer close(e.listenerDone)

	m := newMatcher()
	lookup := func(sig string) (Combo, bool) {
		e.mu.RLock()
		reg, ok := e.regs[sig]
		e.mu.RUnlock()
		return reg.combo, ok
	}

	for ev := range events {
		if !e.running.Load() {
			// Stop was signalled; drain without dispatching.
			continue
		}
		atomic.AddInt64(&e.metrics.EventsObserved, 1)

		sig, matched := m.observe(ev, lookup)
		if !matched {
			continue
		}

		e.mu.RLock()
		reg, ok := e.regs[sig]
		e.mu.RUnlock()
		if !ok {
			// Removed between match and dispatch.
			continue
		}
		e.dispatch(ctx, reg)
	}
}

// supervise is the lifecycle controller's teardown goroutine. It joins
// the listener and the scheduler, then marks the engine Stopped. Doing
// the joins here rather than in Stop means Stop never joins the
// goroutine it is called from, so callbacks can stop the engine
// without deadlocking.
func (e *Engine) supervise(listenerDone, stopped chan struct{}) {
	<-listenerDone

	// Covers source-initiated exit as well as Stop: the flag drops and
	// the source is closed no matter which side terminated first.
	e.running.Store(false)

	e.mu.Lock()
	e.state = stateStopping
	cancel := e.sessCancel
	sched := e.sched
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	e.source.Close()

	if sched != nil {
		// Drain queued tasks and wait for workers to halt.
		sched.close()
	}

	e.mu.Lock()
	e.state = stateStopped
	e.sched = nil
	e.mu.Unlock()

	close(stopped)
	e.logger.Info().Msg("engine stopped")
}

// Stop signals shutdown: the liveness flag drops, the session context
// is cancelled, and the event source is closed so the listener exits
// promptly. Stop returns without waiting for the join — the supervisor
// goroutine joins the listener and drains the scheduler — which makes
// Stop safe to call from inside any callback. Use Wait to block until
// shutdown completes.
//
// Stop is idempotent. It returns ErrNotRunning only if the engine was
// never started.
func (e *Engine) Stop() error {
	e.mu.Lock()

	if e.state != stateRunning {
		started := e.started
		e.mu.Unlock()
		if !started {
			return ErrNotRunning
		}
		return nil
	}

	e.state = stateStopping
	e.running.Store(false)
	cancel := e.sessCancel
	e.mu.Unlock()

	e.logger.Info().Msg("engine stopping")
	if cancel != nil {
		cancel()
	}
	// Closing the source closes the event channel, which ends the
	// listener loop and lets the supervisor run the joins.
	e.source.Close()
	return nil
}

// Running reports the liveness flag: true between Start and Stop (or
// source exhaustion). Callers may poll this for external shutdown.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Wait blocks until the current lifecycle has fully stopped: listener
// joined, scheduler drained and halted. Returns immediately if the
// engine was never started. Must not be called from inside a callback.
func (e *Engine) Wait() {
	e.mu.RLock()
	stopped := e.stopped
	e.mu.RUnlock()
	if stopped == nil {
		return
	}
	<-stopped
}

// Metrics returns a snapshot of engine counters. Counter values are
// read atomically.
func (e *Engine) Metrics() Metrics {
	return Metrics{
		EventsObserved:    atomic.LoadInt64(&e.metrics.EventsObserved),
		MatchesFired:      atomic.LoadInt64(&e.metrics.MatchesFired),
		SyncCompleted:     atomic.LoadInt64(&e.metrics.SyncCompleted),
		SyncFailed:        atomic.LoadInt64(&e.metrics.SyncFailed),
		QueueDepth:        atomic.LoadInt64(&e.metrics.QueueDepth),
		QueueCapacity:     atomic.LoadInt64(&e.metrics.QueueCapacity),
		TasksProcessed:    atomic.LoadInt64(&e.metrics.TasksProcessed),
		TasksRejected:     atomic.LoadInt64(&e.metrics.TasksRejected),
		TasksFailed:       atomic.LoadInt64(&e.metrics.TasksFailed),
		TasksExpired:      atomic.LoadInt64(&e.metrics.TasksExpired),
		RegisteredHotkeys: atomic.LoadInt64(&e.metrics.RegisteredHotkeys),
	}
}

// generateID creates a random unique identifier for registrations.
// Falls back to a timestamp if the random source fails.
func generateID(clock clockz.Clock) string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("%d", clock.Now().UnixNano())
	}
	return hex.EncodeToString(bytes)
}

package keyz

import "errors"

// Registration Errors
//
// These errors are returned when a hotkey specification is rejected
// at registration time. The registration is not stored.

// ErrUnknownKey is returned (wrapped, naming the token) when a combo
// spec contains a token with no canonical key mapping.
var ErrUnknownKey = errors.New("unknown key token")

// ErrEmptyCombo is returned when a combo spec contains no key tokens.
var ErrEmptyCombo = errors.New("empty key combination")

// ErrBindingRemoved is returned when removing a binding that has
// already been removed or was never valid.
var ErrBindingRemoved = errors.New("binding already removed")

// ErrBindingNotFound is returned when a binding's registration no
// longer exists, typically because registering the same combo again
// replaced it.
var ErrBindingNotFound = errors.New("binding not found")

// Lifecycle Errors
//
// These errors are returned based on the engine's lifecycle state.

// ErrAlreadyRunning is returned by Start when the engine is not in the
// Stopped state. Start is only valid on a fully stopped engine.
var ErrAlreadyRunning = errors.New("engine already running")

// ErrNotRunning is returned by Stop when the engine was never started.
// Stop on an engine that is already stopping or stopped returns nil;
// repeated Stop is idempotent within a lifecycle.
var ErrNotRunning = errors.New("engine not running")

// Dispatch Errors
//
// These errors occur on the async dispatch path. They are logged and
// the invocation is dropped; they never terminate the listener.

// ErrSchedulerUnavailable is returned when an async callback is
// matched but the scheduler is not running, e.g. submission raced with
// shutdown. The invocation is dropped rather than blocking the
// listener to start a scheduler lazily.
var ErrSchedulerUnavailable = errors.New("async scheduler unavailable")

// ErrQueueFull is returned when the scheduler cannot accept more
// tasks. The invocation is dropped; subsequent key events keep
// flowing.
var ErrQueueFull = errors.New("scheduler queue is full")

// ErrCallbackPanicked is used internally to track callbacks that
// panicked during execution. It is logged with the combo that
// triggered the callback and counted in metrics.
var ErrCallbackPanicked = errors.New("callback panicked during execution")

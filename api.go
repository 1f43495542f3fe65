// Package keyz provides a cross-application global-hotkey engine:
// it consumes a raw stream of key press/release events, matches the set
// of currently held keys against registered key combinations, and
// dispatches user callbacks when a combination is completed.
//
// Callbacks come in two flavors, declared explicitly at registration
// time:
//   - Sync callbacks run inline on the listener goroutine. They block
//     subsequent key processing for their duration, which keeps
//     back-to-back matches strictly in event order.
//   - Async callbacks are handed to a persistent worker scheduler and
//     never block the listener. Submissions happen in event order;
//     completions may interleave.
//
// Basic Usage:
//
//	engine := keyz.New()
//
//	_, err := engine.Register("ctrl+shift+p", keyz.Sync(func(ctx context.Context, t keyz.Trigger) error {
//		return openPalette()
//	}))
//	if err != nil {
//		return err
//	}
//
//	if err := engine.Start(); err != nil {
//		return err
//	}
//	defer engine.Stop()
//
//	// Poll the liveness flag, or block on Wait().
//	for engine.Running() {
//		time.Sleep(100 * time.Millisecond)
//	}
//
// Advanced Usage:
//
//	// Custom scheduler sizing and a hard cap on async callback runtime.
//	engine := keyz.New(
//		keyz.WithWorkers(4),
//		keyz.WithQueueSize(64),
//		keyz.WithTimeout(5*time.Second),
//		keyz.WithLogger(logger),
//	)
//
// The OS hook is abstracted behind the Source interface so the engine
// never depends on a concrete OS API. On Linux the default source reads
// /dev/input directly; on macOS and Windows it is backed by
// golang.design/x/hotkey. Tests and headless environments inject a
// FakeSource via WithSource.
//
// Stop is safe to call from inside any registered callback: it signals
// shutdown and returns immediately, while a supervisor goroutine joins
// the listener and scheduler before the engine reports Stopped.
package keyz

// KeyID is the canonical identifier of a single keyboard key, as
// produced by the combo parser and emitted by event sources. Values are
// lower-case token names ("ctrl", "f9", "a").
//
// Using package-level constants for hotkey specs is encouraged:
//
//	const (
//		ExitCombo    = "ctrl+c"
//		PaletteCombo = "ctrl+shift+p"
//	)
type KeyID string

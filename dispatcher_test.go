package keyz

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCallbackModeTag(t *testing.T) {
	if Sync(nil).IsAsync() {
		t.Error("Sync callback tagged async")
	}
	if !Async(nil).IsAsync() {
		t.Error("Async callback not tagged async")
	}
}

func TestSyncCallbackBlocksSubsequentEvents(t *testing.T) {
	fake := NewFakeSource()
	engine := New(WithSource(fake))

	release := make(chan struct{})
	var order []string
	done := make(chan struct{}, 2)

	engine.Register("f1", Sync(func(ctx context.Context, tr Trigger) error {
		<-release
		order = append(order, "slow")
		done <- struct{}{}
		return nil
	}))
	engine.Register("f2", Sync(func(ctx context.Context, tr Trigger) error {
		order = append(order, "fast")
		done <- struct{}{}
		return nil
	}))

	if err := engine.Start(); err != nil {
		t.Fatalf("Failed to start engine: %v", err)
	}
	defer func() {
		engine.Stop()
		engine.Wait()
	}()

	tap(t, fake, "f1")
	tap(t, fake, "f2")

	// f2 must not run while f1's callback is blocking the listener.
	select {
	case <-done:
		t.Fatal("A sync callback completed while the listener was blocked")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Callbacks did not complete after unblocking")
		}
	}

	// Sync callbacks run inline, strictly in event order. order is
	// only appended from the listener goroutine.
	if len(order) != 2 || order[0] != "slow" || order[1] != "fast" {
		t.Errorf("Sync execution order = %v, want [slow fast]", order)
	}
}

func TestAsyncCallbackNeverBlocksListener(t *testing.T) {
	fake := NewFakeSource()
	engine := New(WithSource(fake))

	slowStarted := make(chan struct{})
	slowRelease := make(chan struct{})
	slowDone := make(chan struct{})
	fastDone := make(chan struct{})

	engine.Register("f10", Async(func(ctx context.Context, tr Trigger) error {
		close(slowStarted)
		<-slowRelease
		close(slowDone)
		return nil
	}))
	engine.Register("f9", Sync(func(ctx context.Context, tr Trigger) error {
		close(fastDone)
		return nil
	}))

	if err := engine.Start(); err != nil {
		t.Fatalf("Failed to start engine: %v", err)
	}
	defer func() {
		engine.Stop()
		engine.Wait()
	}()

	// Trigger the slow async hotkey, then the fast sync one.
	tap(t, fake, "f10")
	select {
	case <-slowStarted:
	case <-time.After(time.Second):
		t.Fatal("Slow async callback never started")
	}
	tap(t, fake, "f9")

	// The fast sync hotkey fires while the slow async one is still
	// suspended.
	select {
	case <-fastDone:
	case <-time.After(time.Second):
		t.Fatal("Sync hotkey was blocked behind a suspended async callback")
	}
	select {
	case <-slowDone:
		t.Fatal("Slow async callback should still be suspended")
	default:
	}

	close(slowRelease)
	select {
	case <-slowDone:
	case <-time.After(time.Second):
		t.Fatal("Slow async callback never completed")
	}
}

func TestSyncCallbackErrorDoesNotKillListener(t *testing.T) {
	fake := NewFakeSource()
	engine := New(WithSource(fake))

	engine.Register("f3", Sync(func(ctx context.Context, tr Trigger) error {
		return errors.New("callback exploded")
	}))
	survived := make(chan struct{}, 1)
	engine.Register("f4", Sync(func(ctx context.Context, tr Trigger) error {
		survived <- struct{}{}
		return nil
	}))

	if err := engine.Start(); err != nil {
		t.Fatalf("Failed to start engine: %v", err)
	}
	defer func() {
		engine.Stop()
		engine.Wait()
	}()

	tap(t, fake, "f3")
	tap(t, fake, "f4")

	select {
	case <-survived:
	case <-time.After(time.Second):
		t.Fatal("Listener did not survive a failing sync callback")
	}

	if n := engine.Metrics().SyncFailed; n != 1 {
		t.Errorf("SyncFailed = %d, want 1", n)
	}
}

func TestSyncCallbackPanicDoesNotKillListener(t *testing.T) {
	fake := NewFakeSource()
	engine := New(WithSource(fake))

	engine.Register("f3", Sync(func(ctx context.Context, tr Trigger) error {
		panic("test panic")
	}))
	survived := make(chan struct{}, 1)
	engine.Register("f4", Sync(func(ctx context.Context, tr Trigger) error {
		survived <- struct{}{}
		return nil
	}))

	if err := engine.Start(); err != nil {
		t.Fatalf("Failed to start engine: %v", err)
	}
	defer func() {
		engine.Stop()
		engine.Wait()
	}()

	tap(t, fake, "f3")
	tap(t, fake, "f4")

	select {
	case <-survived:
	case <-time.After(time.Second):
		t.Fatal("Listener did not survive a panicking sync callback")
	}
}

func TestAsyncSubmissionOrderFollowsEventOrder(t *testing.T) {
	fake := NewFakeSource()
	// Single worker serializes execution, exposing submission order.
	engine := New(WithSource(fake), WithWorkers(1))

	got := make(chan string, 3)
	for _, spec := range []string{"f1", "f2", "f3"} {
		engine.Register(spec, Async(func(ctx context.Context, tr Trigger) error {
			got <- tr.Combo.String()
			return nil
		}))
	}

	if err := engine.Start(); err != nil {
		t.Fatalf("Failed to start engine: %v", err)
	}
	defer func() {
		engine.Stop()
		engine.Wait()
	}()

	tap(t, fake, "f1")
	tap(t, fake, "f2")
	tap(t, fake, "f3")

	for _, want := range []string{"f1", "f2", "f3"} {
		select {
		case sig := <-got:
			if sig != want {
				t.Errorf("Task ran out of submission order: got %s, want %s", sig, want)
			}
		case <-time.After(time.Second):
			t.Fatal("Async tasks did not complete")
		}
	}
}

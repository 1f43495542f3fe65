package keyz

import "sync"

// Direction is the transition carried by a key event.
type Direction uint8

const (
	// Down indicates a key was pressed (or is auto-repeating).
	Down Direction = iota
	// Up indicates a key was released.
	Up
)

// String returns "down" or "up".
func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

// Event is a single key transition observed by a Source.
type Event struct {
	Key KeyID
	Dir Direction
}

// Source abstracts the OS keyboard hook. Implementations deliver key
// transition events in real-time order on the returned channel and
// must not silently drop events under normal load.
//
// Subscribe receives the combos registered at the time the engine
// starts. Raw-stream sources (evdev) ignore them; registration-based
// sources (golang.design/x/hotkey) use them to claim each combo with
// the OS and synthesize the corresponding key transitions.
//
// Close terminates delivery promptly: the event channel is closed so
// the listener can exit its consumption loop. Close is idempotent.
type Source interface {
	Subscribe(combos []Combo) (<-chan Event, error)
	Close() error
}

// FakeSource is an in-memory Source for tests and headless use. Keys
// are pressed and released programmatically and delivered on the
// subscription channel in call order.
type FakeSource struct {
	mu     sync.Mutex
	events chan Event
	closed bool
}

// NewFakeSource creates a FakeSource with a small delivery buffer.
func NewFakeSource() *FakeSource {
	return &FakeSource{events: make(chan Event, 64)}
}

// Subscribe returns the delivery channel. The combos argument is
// ignored; a fake delivers whatever is simulated. A closed fake is
// reopened, so one fake can back several engine lifecycles.
func (f *FakeSource) Subscribe(combos []Combo) (<-chan Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		f.events = make(chan Event, 64)
		f.closed = false
	}
	return f.events, nil
}

// Close closes the delivery channel. Further Press/Release calls are
// dropped.
func (f *FakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.events)
	}
	return nil
}

// Press simulates a key-down transition.
func (f *FakeSource) Press(k KeyID) { f.emit(Event{Key: k, Dir: Down}) }

// Release simulates a key-up transition.
func (f *FakeSource) Release(k KeyID) { f.emit(Event{Key: k, Dir: Up}) }

// Tap simulates pressing and releasing every key of a combo in order,
// downs first, then ups in reverse.
func (f *FakeSource) Tap(c Combo) {
	keys := c.Keys()
	for _, k := range keys {
		f.Press(k)
	}
	for i := len(keys) - 1; i >= 0; i-- {
		f.Release(keys[i])
	}
}

func (f *FakeSource) emit(ev Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.events <- ev
}

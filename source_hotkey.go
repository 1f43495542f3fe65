//go:build darwin || windows

package keyz

import (
	"fmt"
	"sync"

	"golang.design/x/hotkey"
)

// hotkeySource backs the engine with golang.design/x/hotkey on
// platforms without a raw key-event stream. The OS delivers one
// down/up notification per registered combo, so the source claims each
// combo at Subscribe time and synthesizes the combo's key transitions
// for the matcher.
//
// On macOS the process must run the OS event loop on the main thread
// (golang.design/x/mainthread); that is the caller's responsibility.
type hotkeySource struct {
	mu     sync.Mutex
	events chan Event
	hks    []*hotkey.Hotkey
	stop   chan struct{}
	wg     sync.WaitGroup
	closed bool
}

// NewSystemSource creates the default OS-backed event source for this
// platform. Registered combos must consist of zero or more modifiers
// plus exactly one primary key, which is what the OS hotkey API can
// express.
func NewSystemSource() Source {
	return &hotkeySource{}
}

func (s *hotkeySource) Subscribe(combos []Combo) (<-chan Event, error) {
	s.mu.Lock()
	s.events = make(chan Event, 64)
	s.stop = make(chan struct{})
	s.hks = nil
	s.closed = false
	s.mu.Unlock()

	for _, c := range combos {
		mods, primary, err := splitCombo(c)
		if err != nil {
			s.abort()
			return nil, err
		}

		hk := hotkey.New(mods, primary)
		if err := hk.Register(); err != nil {
			s.abort()
			return nil, fmt.Errorf("registering %s with OS: %w", c, err)
		}
		s.hks = append(s.hks, hk)

		s.wg.Add(1)
		go s.forward(hk, c)
	}

	return s.events, nil
}

// forward translates per-combo OS notifications into the combo's key
// transitions: all keys down on Keydown, all keys up on Keyup.
func (s *hotkeySource) forward(hk *hotkey.Hotkey, c Combo) {
	defer s.wg.Done()
	keys := c.Keys()

	for {
		select {
		case <-s.stop:
			return
		case <-hk.Keydown():
			for _, k := range keys {
				if !s.emit(Event{Key: k, Dir: Down}) {
					return
				}
			}
		case <-hk.Keyup():
			for i := len(keys) - 1; i >= 0; i-- {
				if !s.emit(Event{Key: keys[i], Dir: Up}) {
					return
				}
			}
		}
	}
}

func (s *hotkeySource) emit(ev Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.stop:
		return false
	}
}

func (s *hotkeySource) Close() error {
	s.mu.Lock()
	if s.closed || s.stop == nil {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.stop)
	s.unregisterAll()
	s.wg.Wait()
	close(s.events)
	return nil
}

// abort tears down a partially built subscription after a Subscribe
// failure.
func (s *hotkeySource) abort() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	close(s.stop)
	s.unregisterAll()
	s.wg.Wait()
}

func (s *hotkeySource) unregisterAll() {
	for _, hk := range s.hks {
		hk.Unregister()
	}
	s.hks = nil
}

// splitCombo separates a combo into OS modifiers and its single
// primary key. The modMap and keyMap tables are defined in the
// platform keymap files.
func splitCombo(c Combo) ([]hotkey.Modifier, hotkey.Key, error) {
	var mods []hotkey.Modifier
	var primary hotkey.Key
	found := false

	for _, k := range c.Keys() {
		if k.IsModifier() {
			mods = append(mods, modMap[k])
			continue
		}
		if found {
			return nil, 0, fmt.Errorf("combo %s: OS hook supports modifiers plus one key", c)
		}
		code, ok := keyMap[k]
		if !ok {
			return nil, 0, fmt.Errorf("combo %s: key %q not supported by OS hook", c, k)
		}
		primary = code
		found = true
	}

	if !found {
		return nil, 0, fmt.Errorf("combo %s: OS hook requires one non-modifier key", c)
	}
	return mods, primary, nil
}

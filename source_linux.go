//go:build linux

package keyz

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	evKey = 1

	keyRelease = 0
	keyPress   = 1
	keyRepeat  = 2
)

// input_event is 24 bytes on 64-bit Linux:
// timeval (16 bytes) + type (2) + code (2) + value (4)
const inputEventSize = 24

// evdevCodes maps Linux input event codes to canonical key
// identifiers. Left and right variants of a modifier collapse onto the
// same KeyID, matching the combo parser's view of the keyboard.
var evdevCodes = map[uint16]KeyID{
	29: KeyCtrl, 97: KeyCtrl,
	42: KeyShift, 54: KeyShift,
	56: KeyAlt, 100: KeyAlt,
	125: KeyMeta, 126: KeyMeta,

	1: "esc", 14: "backspace", 15: "tab", 28: "enter", 57: "space",
	102: "home", 103: "up", 104: "pageup", 105: "left", 106: "right",
	107: "end", 108: "down", 109: "pagedown", 110: "insert", 111: "delete",

	2: "1", 3: "2", 4: "3", 5: "4", 6: "5",
	7: "6", 8: "7", 9: "8", 10: "9", 11: "0",

	16: "q", 17: "w", 18: "e", 19: "r", 20: "t",
	21: "y", 22: "u", 23: "i", 24: "o", 25: "p",
	30: "a", 31: "s", 32: "d", 33: "f", 34: "g",
	35: "h", 36: "j", 37: "k", 38: "l",
	44: "z", 45: "x", 46: "c", 47: "v", 48: "b",
	49: "n", 50: "m",

	59: "f1", 60: "f2", 61: "f3", 62: "f4", 63: "f5",
	64: "f6", 65: "f7", 66: "f8", 67: "f9", 68: "f10",
	87: "f11", 88: "f12",
	183: "f13", 184: "f14", 185: "f15", 186: "f16",
	187: "f17", 188: "f18", 189: "f19", 190: "f20",
}

// evdevSource reads /dev/input directly. Requires the user to be in
// the 'input' group.
type evdevSource struct {
	mu     sync.Mutex
	events chan Event
	files  []*os.File
	stop   chan struct{}
	wg     sync.WaitGroup
	closed bool
}

// NewSystemSource creates the default OS-backed event source for this
// platform. On Linux it reads raw key transitions from evdev, so the
// registered combos passed to Subscribe are not needed for matching
// and are ignored.
func NewSystemSource() Source {
	return &evdevSource{}
}

func (s *evdevSource) Subscribe(combos []Combo) (<-chan Event, error) {
	s.mu.Lock()
	s.events = make(chan Event, 64)
	s.stop = make(chan struct{})
	s.files = nil
	s.closed = false
	s.mu.Unlock()

	keyboards, err := findKeyboards()
	if err != nil {
		return nil, fmt.Errorf("finding keyboards: %w", err)
	}
	if len(keyboards) == 0 {
		return nil, fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	for _, path := range keyboards {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		s.files = append(s.files, f)
		s.wg.Add(1)
		go s.readEvents(f)
	}

	if len(s.files) == 0 {
		return nil, fmt.Errorf("could not open any keyboard device (run: sudo usermod -aG input $USER, then re-login)")
	}

	return s.events, nil
}

func (s *evdevSource) readEvents(f *os.File) {
	defer s.wg.Done()
	buf := make([]byte, inputEventSize*16)

	for {
		select {
		case <-s.stop:
			return
		default:
		}

		n, err := f.Read(buf)
		if err != nil {
			return
		}

		for i := 0; i+inputEventSize <= n; i += inputEventSize {
			evType := binary.LittleEndian.Uint16(buf[i+16:])
			evCode := binary.LittleEndian.Uint16(buf[i+18:])
			evValue := int32(binary.LittleEndian.Uint32(buf[i+20:]))

			if evType != evKey {
				continue
			}
			id, ok := evdevCodes[evCode]
			if !ok {
				continue
			}

			var ev Event
			switch evValue {
			case keyPress, keyRepeat:
				// Auto-repeat is delivered as a Down; the matcher
				// edge-guards against re-firing.
				ev = Event{Key: id, Dir: Down}
			case keyRelease:
				ev = Event{Key: id, Dir: Up}
			default:
				continue
			}

			select {
			case s.events <- ev:
			case <-s.stop:
				return
			}
		}
	}
}

func (s *evdevSource) Close() error {
	s.mu.Lock()
	if s.closed || s.stop == nil {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.stop)
	// Closing the files unblocks readers stuck in Read; wait for them
	// before closing the event channel.
	for _, f := range s.files {
		f.Close()
	}
	s.wg.Wait()
	close(s.events)
	return nil
}

func findKeyboards() ([]string, error) {
	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return nil, err
	}

	var keyboards []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		if isKeyboard(e.Name()) {
			keyboards = append(keyboards, filepath.Join("/dev/input", e.Name()))
		}
	}
	return keyboards, nil
}

func isKeyboard(eventName string) bool {
	capsPath := filepath.Join("/sys/class/input", eventName, "device", "capabilities", "key")
	data, err := os.ReadFile(capsPath)
	if err != nil {
		return false
	}
	// Real keyboards have long key capability bitmaps
	caps := strings.TrimSpace(string(data))
	return len(caps) > 10
}

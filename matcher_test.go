package keyz

import "testing"

// registryOf builds a lookup func over the given specs, the way the
// listener resolves the held-set signature against the registry.
func registryOf(t *testing.T, specs ...string) func(sig string) (Combo, bool) {
	t.Helper()
	regs := make(map[string]Combo, len(specs))
	for _, spec := range specs {
		c, err := ParseCombo(spec)
		if err != nil {
			t.Fatalf("Failed to parse %q: %v", spec, err)
		}
		regs[c.String()] = c
	}
	return func(sig string) (Combo, bool) {
		c, ok := regs[sig]
		return c, ok
	}
}

func TestMatcherFiresOnCompletingEdge(t *testing.T) {
	m := newMatcher()
	lookup := registryOf(t, "ctrl+c")

	if _, ok := m.observe(Event{Key: KeyCtrl, Dir: Down}, lookup); ok {
		t.Error("Should not fire on partial combo")
	}
	sig, ok := m.observe(Event{Key: "c", Dir: Down}, lookup)
	if !ok {
		t.Fatal("Should fire on the Down that completes the set")
	}
	if sig != "c+ctrl" {
		t.Errorf("Fired signature = %q, want c+ctrl", sig)
	}
}

func TestMatcherDebouncesKeyRepeat(t *testing.T) {
	m := newMatcher()
	lookup := registryOf(t, "f9")

	if _, ok := m.observe(Event{Key: "f9", Dir: Down}, lookup); !ok {
		t.Fatal("First Down should fire")
	}
	// OS auto-repeat delivers further Downs while held.
	for i := 0; i < 5; i++ {
		if _, ok := m.observe(Event{Key: "f9", Dir: Down}, lookup); ok {
			t.Fatal("Repeated Down while held should not re-fire")
		}
	}

	// Release re-arms; the next completing Down fires again.
	m.observe(Event{Key: "f9", Dir: Up}, lookup)
	if _, ok := m.observe(Event{Key: "f9", Dir: Down}, lookup); !ok {
		t.Error("Should fire again after release and re-completion")
	}
}

func TestMatcherExactSetNotSubset(t *testing.T) {
	m := newMatcher()
	lookup := registryOf(t, "ctrl+c")

	m.observe(Event{Key: KeyCtrl, Dir: Down}, lookup)
	m.observe(Event{Key: KeyShift, Dir: Down}, lookup)
	if _, ok := m.observe(Event{Key: "c", Dir: Down}, lookup); ok {
		t.Error("ctrl+shift+c must not fire a ctrl+c registration")
	}
}

func TestMatcherNoFireOnReturnViaRelease(t *testing.T) {
	m := newMatcher()
	lookup := registryOf(t, "ctrl+c")

	m.observe(Event{Key: KeyCtrl, Dir: Down}, lookup)
	if _, ok := m.observe(Event{Key: "c", Dir: Down}, lookup); !ok {
		t.Fatal("Completing Down should fire")
	}

	// Extra key in, then out: held set returns to {ctrl, c} via an Up,
	// which is not a completing Down edge.
	m.observe(Event{Key: KeyShift, Dir: Down}, lookup)
	if _, ok := m.observe(Event{Key: KeyShift, Dir: Up}, lookup); ok {
		t.Error("Up events never fire")
	}

	// But releasing a combo key re-arms it for the next completion.
	m.observe(Event{Key: "c", Dir: Up}, lookup)
	if _, ok := m.observe(Event{Key: "c", Dir: Down}, lookup); !ok {
		t.Error("Re-completed combo should fire after re-arming")
	}
}

func TestMatcherMultipleCombos(t *testing.T) {
	m := newMatcher()
	lookup := registryOf(t, "f9", "ctrl+f9")

	if sig, ok := m.observe(Event{Key: "f9", Dir: Down}, lookup); !ok || sig != "f9" {
		t.Fatalf("Expected f9 to fire, got %q ok=%v", sig, ok)
	}
	m.observe(Event{Key: "f9", Dir: Up}, lookup)

	m.observe(Event{Key: KeyCtrl, Dir: Down}, lookup)
	if sig, ok := m.observe(Event{Key: "f9", Dir: Down}, lookup); !ok || sig != "ctrl+f9" {
		t.Fatalf("Expected ctrl+f9 to fire, got %q ok=%v", sig, ok)
	}
}

func TestMatcherReset(t *testing.T) {
	m := newMatcher()
	lookup := registryOf(t, "ctrl+c")

	m.observe(Event{Key: KeyCtrl, Dir: Down}, lookup)
	m.observe(Event{Key: "c", Dir: Down}, lookup)
	m.reset()

	// After reset nothing is held, so a single key is a fresh start.
	if _, ok := m.observe(Event{Key: "c", Dir: Down}, lookup); ok {
		t.Error("Reset matcher should not consider stale held keys")
	}
	if _, ok := m.observe(Event{Key: KeyCtrl, Dir: Down}, lookup); !ok {
		t.Error("Reset matcher should fire once the set re-completes")
	}
}

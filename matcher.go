package keyz

import "sort"

// matcher tracks the set of currently held keys and detects the edge
// where the held set exactly equals a registered combo. It is owned
// exclusively by the listener goroutine; nothing here is locked.
type matcher struct {
	held map[KeyID]struct{}

	// fired holds the signature of every combo that has fired and not
	// yet re-armed. A combo re-arms when one of its keys is released.
	fired map[string]Combo

	// scratch is reused to build the held-set signature per Down event.
	scratch []KeyID
}

func newMatcher() *matcher {
	return &matcher{
		held:  make(map[KeyID]struct{}, 8),
		fired: make(map[string]Combo, 2),
	}
}

// observe applies a key transition and returns the signature of a
// newly completed combo, if any. Matching is exact-set: a registration
// for ctrl+c fires only when the held set is precisely {ctrl, c}.
// Firing happens on the Down edge that completes the set; repeated
// Down events for held keys (OS auto-repeat) do not re-fire.
//
// lookup resolves a held-set signature to a registered combo; it
// returns false when nothing is registered under that signature.
func (m *matcher) observe(ev Event, lookup func(sig string) (Combo, bool)) (string, bool) {
	if ev.Dir == Up {
		delete(m.held, ev.Key)
		for sig, combo := range m.fired {
			if combo.Contains(ev.Key) {
				delete(m.fired, sig)
			}
		}
		return "", false
	}

	if _, repeat := m.held[ev.Key]; repeat {
		// Auto-repeat Down: held set unchanged, nothing new to match.
		return "", false
	}
	m.held[ev.Key] = struct{}{}

	sig := m.heldSignature()
	combo, ok := lookup(sig)
	if !ok {
		return "", false
	}
	if _, already := m.fired[sig]; already {
		return "", false
	}
	m.fired[sig] = combo
	return sig, true
}

// heldSignature computes the canonical signature of the held set,
// identical in form to Combo.String so registry lookup is one map
// access.
func (m *matcher) heldSignature() string {
	m.scratch = m.scratch[:0]
	for k := range m.held {
		m.scratch = append(m.scratch, k)
	}
	sort.Slice(m.scratch, func(i, j int) bool { return m.scratch[i] < m.scratch[j] })
	return signature(m.scratch)
}

// reset clears all held and fired state so the matcher can be reused
// without inheriting stale keys.
func (m *matcher) reset() {
	m.held = make(map[KeyID]struct{}, 8)
	m.fired = make(map[string]Combo, 2)
}

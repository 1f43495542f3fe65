package keyz

import (
	"fmt"
	"sort"
	"strings"
)

// Combo is an immutable, canonical set of keys that must be held
// simultaneously to trigger a hotkey. Two specs naming the same keys in
// any order or case produce equal Combos:
//
//	ParseCombo("Ctrl+C") == ParseCombo("c+CTRL")
//
// The zero value is invalid; always construct through ParseCombo.
type Combo struct {
	// keys holds the canonical identifiers sorted lexicographically.
	keys []KeyID

	// sig is the canonical signature, the sorted keys joined by "+".
	// It doubles as the registry map key and the log representation.
	sig string
}

// ParseCombo parses a textual hotkey specification such as "ctrl+c" or
// "F9" into a canonical Combo. Tokens are separated by "+", trimmed and
// matched case-insensitively; duplicates collapse.
//
// Returns an error wrapping ErrEmptyCombo when the spec contains no
// tokens, or ErrUnknownKey naming the offending token when one has no
// canonical mapping.
func ParseCombo(spec string) (Combo, error) {
	seen := make(map[KeyID]struct{}, 4)
	var keys []KeyID

	for _, tok := range strings.Split(spec, "+") {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		id, ok := canonicalKeys[tok]
		if !ok {
			return Combo{}, fmt.Errorf("%w: %q in spec %q", ErrUnknownKey, tok, spec)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		keys = append(keys, id)
	}

	if len(keys) == 0 {
		return Combo{}, fmt.Errorf("%w: %q", ErrEmptyCombo, spec)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return Combo{keys: keys, sig: signature(keys)}, nil
}

// signature joins already-sorted keys into the canonical form used as
// the registry key. The matcher computes the same signature from the
// held-key set, which makes exact-set lookup a single map access.
func signature(sorted []KeyID) string {
	var b strings.Builder
	for i, k := range sorted {
		if i > 0 {
			b.WriteByte('+')
		}
		b.WriteString(string(k))
	}
	return b.String()
}

// Keys returns a copy of the combo's canonical keys in sorted order.
func (c Combo) Keys() []KeyID {
	out := make([]KeyID, len(c.keys))
	copy(out, c.keys)
	return out
}

// Contains reports whether the combo includes key k.
func (c Combo) Contains(k KeyID) bool {
	for _, key := range c.keys {
		if key == k {
			return true
		}
	}
	return false
}

// Len returns the number of keys in the combo.
func (c Combo) Len() int { return len(c.keys) }

// Equal reports whether two combos name the same key set.
func (c Combo) Equal(other Combo) bool { return c.sig == other.sig }

// String returns the canonical signature, e.g. "c+ctrl".
func (c Combo) String() string { return c.sig }

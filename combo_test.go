package keyz

import (
	"errors"
	"testing"
)

func TestParseComboCaseAndOrderInsensitive(t *testing.T) {
	a, err := ParseCombo("Ctrl+C")
	if err != nil {
		t.Fatalf("Failed to parse Ctrl+C: %v", err)
	}
	b, err := ParseCombo("c+CTRL")
	if err != nil {
		t.Fatalf("Failed to parse c+CTRL: %v", err)
	}

	if !a.Equal(b) {
		t.Errorf("Expected %s == %s", a, b)
	}
	if a.String() != b.String() {
		t.Errorf("Signatures differ: %q vs %q", a, b)
	}
}

func TestParseComboAliases(t *testing.T) {
	cases := map[string]string{
		"Control+Shift+P": "ctrl+p+shift",
		"CMD+space":       "meta+space",
		"super+Return":    "enter+meta",
		"Escape":          "esc",
		"option+F2":       "alt+f2",
	}

	for spec, want := range cases {
		c, err := ParseCombo(spec)
		if err != nil {
			t.Fatalf("Failed to parse %q: %v", spec, err)
		}
		if c.String() != want {
			t.Errorf("ParseCombo(%q) = %q, want %q", spec, c, want)
		}
	}
}

func TestParseComboWhitespaceAndDuplicates(t *testing.T) {
	c, err := ParseCombo(" ctrl + ctrl + c ")
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("Expected 2 keys after deduplication, got %d", c.Len())
	}
	if c.String() != "c+ctrl" {
		t.Errorf("Signature = %q, want c+ctrl", c)
	}
}

func TestParseComboUnknownToken(t *testing.T) {
	_, err := ParseCombo("ctrl+bogus")
	if err == nil {
		t.Fatal("Expected error for unknown token")
	}
	if !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Expected ErrUnknownKey, got %v", err)
	}
}

func TestParseComboEmpty(t *testing.T) {
	for _, spec := range []string{"", "+", " + "} {
		_, err := ParseCombo(spec)
		if !errors.Is(err, ErrEmptyCombo) {
			t.Errorf("ParseCombo(%q): expected ErrEmptyCombo, got %v", spec, err)
		}
	}
}

func TestComboAccessors(t *testing.T) {
	c, err := ParseCombo("shift+f9")
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}

	if !c.Contains("f9") || !c.Contains(KeyShift) {
		t.Error("Contains should report the combo's keys")
	}
	if c.Contains("f10") {
		t.Error("Contains should reject keys outside the combo")
	}

	keys := c.Keys()
	keys[0] = "mutated"
	if c.Contains("mutated") {
		t.Error("Keys must return a copy, not the backing slice")
	}
}

func TestKeyIDIsModifier(t *testing.T) {
	for _, k := range []KeyID{KeyCtrl, KeyShift, KeyAlt, KeyMeta} {
		if !k.IsModifier() {
			t.Errorf("%s should be a modifier", k)
		}
	}
	if KeyID("a").IsModifier() || KeyID("f9").IsModifier() {
		t.Error("Non-modifier keys reported as modifiers")
	}
}

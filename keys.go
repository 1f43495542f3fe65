package keyz

import "strconv"

// Modifier keys carry canonical names shared by the parser and every
// event source. "meta" covers cmd on macOS and the win/super key
// elsewhere; platform sources translate to their native codes.
const (
	KeyCtrl  KeyID = "ctrl"
	KeyShift KeyID = "shift"
	KeyAlt   KeyID = "alt"
	KeyMeta  KeyID = "meta"
)

// IsModifier reports whether k is one of the four modifier keys.
func (k KeyID) IsModifier() bool {
	switch k {
	case KeyCtrl, KeyShift, KeyAlt, KeyMeta:
		return true
	}
	return false
}

// canonicalKeys maps every accepted spec token, including aliases, to
// its canonical KeyID. Tokens are matched after trimming and
// lower-casing, so "Ctrl", " CTRL " and "control" all resolve to
// KeyCtrl.
var canonicalKeys = buildKeyTable()

func buildKeyTable() map[string]KeyID {
	table := map[string]KeyID{
		"ctrl":    KeyCtrl,
		"control": KeyCtrl,
		"shift":   KeyShift,
		"alt":     KeyAlt,
		"option":  KeyAlt,
		"meta":    KeyMeta,
		"cmd":     KeyMeta,
		"command": KeyMeta,
		"super":   KeyMeta,
		"win":     KeyMeta,

		"space":     "space",
		"spacebar":  "space",
		"enter":     "enter",
		"return":    "enter",
		"tab":       "tab",
		"esc":       "esc",
		"escape":    "esc",
		"backspace": "backspace",
		"delete":    "delete",
		"del":       "delete",
		"insert":    "insert",
		"ins":       "insert",
		"home":      "home",
		"end":       "end",
		"pageup":    "pageup",
		"pagedown":  "pagedown",
		"up":        "up",
		"down":      "down",
		"left":      "left",
		"right":     "right",
	}

	for r := 'a'; r <= 'z'; r++ {
		table[string(r)] = KeyID(r)
	}
	for r := '0'; r <= '9'; r++ {
		table[string(r)] = KeyID(r)
	}
	for i := 1; i <= 20; i++ {
		name := "f" + strconv.Itoa(i)
		table[name] = KeyID(name)
	}
	return table
}

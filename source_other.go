//go:build !linux && !darwin && !windows

package keyz

import "errors"

type unsupportedSource struct{}

// NewSystemSource returns a source that fails at Subscribe on
// platforms without an OS hook implementation. Tests and embedders can
// still run the engine with a FakeSource.
func NewSystemSource() Source {
	return unsupportedSource{}
}

func (unsupportedSource) Subscribe(combos []Combo) (<-chan Event, error) {
	return nil, errors.New("no global hotkey hook available on this platform")
}

func (unsupportedSource) Close() error { return nil }

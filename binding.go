package keyz

// Binding is a handle to a registered hotkey. It provides a way to
// remove the registration before teardown.
//
// Binding handles are returned by Register and only need to be stored
// if you intend to remove the hotkey later; the common pattern of
// registering for the life of the engine can discard them.
//
// Thread Safety:
// Binding methods are safe for concurrent use, but each handle should
// only be removed once. Further Remove calls on the same handle return
// ErrBindingRemoved.
type Binding struct {
	// remove performs the actual deletion. It is set during
	// registration and cleared after the first Remove.
	remove func() error
}

// Remove deletes this hotkey from the registry. The combo stops
// matching as soon as the removal completes; an in-flight dispatch on
// the listener is unaffected.
//
// Returns:
//   - nil: registration removed
//   - ErrBindingRemoved: this handle was already removed
//   - ErrBindingNotFound: the registration was replaced by a later
//     Register call for the same combo
func (b *Binding) Remove() error {
	if b.remove == nil {
		return ErrBindingRemoved
	}
	err := b.remove()
	b.remove = nil
	return err
}

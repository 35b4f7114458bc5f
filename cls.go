package fiber

import "unsafe"

// SetCLS stores a single coroutine-local-storage pointer on the current
// fiber: a trivial single-slot form rather than a generalized key/value
// store, since callers needing more can layer their own map on top of
// one pointer.
func (rt *Runtime) SetCLS(ptr unsafe.Pointer) {
	if slot := rt.currentSlot(); slot != nil {
		slot.cls = ptr
	}
}

// CLS returns the current fiber's local-storage pointer, or nil if unset.
func (rt *Runtime) CLS() unsafe.Pointer {
	if slot := rt.currentSlot(); slot != nil {
		return slot.cls
	}
	return nil
}

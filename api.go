package fiber

import "unsafe"

// The functions below are thin delegates to Default(), a lazily
// constructed process-wide Runtime, for callers happy with a single
// shared scheduler. Programs that need more than one isolated runtime
// should call New directly and use its methods instead.

// Go spawns a fiber on the default runtime. See Runtime.Go.
func Go(entry func(args ...any), args ...any) (FiberHandle, error) {
	return Default().Go(entry, args...)
}

// Yield suspends the calling fiber at the tail of the ready queue. See
// Runtime.Yield.
func Yield() error { return Default().Yield() }

// Sleep blocks the calling fiber until deadline. See Runtime.Sleep.
func Sleep(deadline int64) error { return Default().Sleep(deadline) }

// Now returns the default runtime's cached monotonic clock. See
// Runtime.Now.
func Now() int64 { return Default().Now() }

// FDWait blocks until fd is ready or deadline passes. See Runtime.FDWait.
func FDWait(fd int, events IOEvents, deadline int64) (IOEvents, error) {
	return Default().FDWait(fd, events, deadline)
}

// FDClean drops any waiters on fd without waking them successfully,
// their calls observing ErrCanceled. See Runtime.FDClean.
func FDClean(fd int) { Default().FDClean(fd) }

// Fork reinitializes the default runtime's poller after fork(2). See
// Runtime.Fork.
func Fork() error { return Default().Fork() }

// NewChannel creates a typed channel on the default runtime. See
// Runtime.NewChannel.
func NewChannel(itemSize, capacity int) (ChannelHandle, error) {
	return Default().NewChannel(itemSize, capacity)
}

// Send blocks until buf can be handed to a receiver or buffer slot on the
// default runtime. See Runtime.Send.
func Send(h ChannelHandle, buf []byte, deadline int64) error {
	return Default().Send(h, buf, deadline)
}

// Recv blocks until a value is available on the default runtime. See
// Runtime.Recv.
func Recv(h ChannelHandle, buf []byte, deadline int64) error {
	return Default().Recv(h, buf, deadline)
}

// Done marks a channel done on the default runtime, delivering value to
// every current and future receiver. See Runtime.Done.
func Done(h ChannelHandle, value []byte) error { return Default().Done(h, value) }

// Dup increments a channel's reference count on the default runtime. See
// Runtime.Dup.
func Dup(h ChannelHandle) error { return Default().Dup(h) }

// CloseChannel decrements a channel's reference count on the default
// runtime, freeing it at zero. See Runtime.CloseChannel.
func CloseChannel(h ChannelHandle) error { return Default().CloseChannel(h) }

// Choose multiplexes over clauses on the default runtime. See
// Runtime.Choose.
func Choose(clauses []Clause, deadline int64) (int, error) {
	return Default().Choose(clauses, deadline)
}

// Cancel requests cancellation of targets on the default runtime. See
// Runtime.Cancel.
func Cancel(targets []FiberHandle, deadline int64) (int, error) {
	return Default().Cancel(targets, deadline)
}

// SetCLS stores the calling fiber's local-storage pointer. See
// Runtime.SetCLS.
func SetCLS(ptr unsafe.Pointer) { Default().SetCLS(ptr) }

// CLS returns the calling fiber's local-storage pointer. See Runtime.CLS.
func CLS() unsafe.Pointer { return Default().CLS() }

// State reports h's current lifecycle state, or FiberFinished if h is
// unknown or stale (its generation no longer matches the live fiber at
// that arena index).
func (rt *Runtime) State(h FiberHandle) FiberState {
	slot := rt.slot(h)
	if slot == nil {
		return FiberFinished
	}
	return slot.state
}

// Package fiber implements a user-space structured concurrency runtime: a
// single-threaded cooperative scheduler that multiplexes many lightweight
// tasks ("fibers") onto one OS thread, together with the synchronization
// and I/O primitives fibers use to cooperate.
//
// # Architecture
//
// A [Runtime] owns all scheduler state: the fiber arena, the ready queue,
// the timer heap, and the I/O poller. Fibers are spawned with [Go], and
// cooperate via [Yield], typed channels ([NewChannel], [Send], [Recv],
// [Done]), [Choose] (select-style multiplexing over channel, timer, and fd
// clauses), [Sleep], and [FDWait]. A fiber's lifetime is torn down by its
// owner calling [Cancel], never by itself.
//
// # Platform support
//
// I/O polling uses platform-native readiness mechanisms:
//   - Linux: epoll
//   - Darwin: kqueue
//
// # Thread safety
//
// The runtime is strictly single-threaded: every fiber, channel, and
// poller operation must be called from the single OS thread that is
// running the scheduler (normally from inside a fiber's entry function, or
// before [Runtime.Run] starts). No core primitive synchronizes against
// concurrent access from another OS thread — see [Runtime.Run]. Logger and
// metrics configuration are the only exceptions, as they may legitimately
// be set up before the scheduler starts from any goroutine.
//
// # Error model
//
// Every blocking primitive returns one of a fixed, errno-shaped error
// taxonomy: [ErrCanceled], [ErrTimedOut], [ErrInvalid], [ErrOom],
// [ErrPipe], [ErrBusy], [ErrBadFd]. Use [errors.Is] to match.
package fiber

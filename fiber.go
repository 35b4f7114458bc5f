package fiber

import "unsafe"

// FiberHandle is an opaque handle identifying a fiber: a small integer
// indexing into an arena table, packed with a generation counter so a
// handle can never silently alias a reused slot after the fiber it named
// has been reaped.
type FiberHandle uint64

// Valid reports whether h is anything other than the zero handle. It does
// not imply the fiber is still alive — use Runtime.State for that.
func (h FiberHandle) Valid() bool { return h != 0 }

func makeFiberHandle(index int, generation uint32) FiberHandle {
	return FiberHandle(uint64(generation)<<32 | uint64(uint32(index)+1))
}

func (h FiberHandle) index() int        { return int(uint32(h)) - 1 }
func (h FiberHandle) generation() uint32 { return uint32(h >> 32) }

// fiberSlot is one arena entry: a fiber's full control block.
type fiberSlot struct {
	generation uint32
	state      FiberState
	canceled   bool
	ctx        *fiberContext
	stack      *stack
	cls        unsafe.Pointer // coroutine-local storage: one pointer slot
	waitSet    []Clause       // clauses this fiber is currently parked on

	// joinWaiters counts down every time this fiber transitions to
	// Finished; used only by Cancel, which is a distinct top-level
	// operation from the user-facing Clause kinds in clause.go.
	joinWaiters []*joinWaiter

	// timer backs the overall park() deadline argument (fires with
	// firing == fireTimeout); userTimers back any explicit ClauseTimer
	// entries in the wait set (fire with their own clause index). Both
	// are non-nil only while the fiber is Blocked in park().
	timer      *timerEntry
	userTimers []*timerEntry

	// cancelWait is non-nil exactly while this fiber is blocked inside
	// Cancel waiting for its targets to join; unrelated to waitSet, since
	// Cancel is a distinct top-level operation from the clause-based wait
	// engine.
	cancelWait *joinWaiter

	firing int // index of the clause that fired, fireTimeout, fireCanceled, or -1

	// alive distinguishes a spawned arena slot from one that has never
	// been used; arena slots are never recycled (only their stacks are,
	// via Runtime.onFiberReturn), so a handle remains resolvable via
	// Runtime.State for the lifetime of the Runtime even after the fiber
	// it names has finished.
	alive bool
}

type joinWaiter struct {
	remaining *int
	wake      func()
}

package fiber

// FiberState represents where a fiber sits in the scheduler's state
// machine.
//
//	Ready → Running       [scheduler pops the ready queue]
//	Running → Ready        [yield / requeued after an I/O wakeup]
//	Running → Blocked      [park: channel op, fd wait, msleep, choose]
//	Blocked → Ready         [a clause fires]
//	Running → Finished     [entry function returns]
//
// Cancel does not move a fiber into FiberCanceling: it sets the fiber's
// separate canceled flag, and the fiber keeps its Ready, Running or
// Blocked state until its entry function returns.
//
// This is never touched by more than one goroutine concurrently, so
// there is no atomic/CAS machinery here: exactly one goroutine —
// whichever is currently "running" as the scheduler thread — ever reads
// or writes it.
type FiberState uint8

const (
	// FiberReady indicates the fiber is queued to run but not currently
	// executing.
	FiberReady FiberState = iota
	// FiberRunning indicates the fiber currently holds the scheduler baton.
	FiberRunning
	// FiberBlocked indicates the fiber is parked on one or more wait
	// clauses.
	FiberBlocked
	// FiberFinished indicates the fiber's entry function has returned. Its
	// handle remains valid for the lifetime of the Runtime; only its stack
	// is released, back to the free-list.
	FiberFinished
	// FiberCanceling is part of the enumeration and its String form, but
	// the runtime never assigns it: a canceled fiber is marked by its
	// canceled flag and keeps its Ready, Running or Blocked state.
	FiberCanceling
)

// String returns a human-readable representation of the state.
func (s FiberState) String() string {
	switch s {
	case FiberReady:
		return "Ready"
	case FiberRunning:
		return "Running"
	case FiberBlocked:
		return "Blocked"
	case FiberFinished:
		return "Finished"
	case FiberCanceling:
		return "Canceling"
	default:
		return "Unknown"
	}
}

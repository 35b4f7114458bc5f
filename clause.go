package fiber

// ClauseKind identifies what kind of event a Clause waits for.
type ClauseKind uint8

const (
	// ClauseChannelSend waits to hand a value to a parked receiver or
	// buffer slot.
	ClauseChannelSend ClauseKind = iota
	// ClauseChannelRecv waits to take a value from a parked sender or the
	// buffer.
	ClauseChannelRecv
	// ClauseFdIn waits for a file descriptor to become readable.
	ClauseFdIn
	// ClauseFdOut waits for a file descriptor to become writable.
	ClauseFdOut
	// ClauseTimer fires once an absolute deadline is reached.
	ClauseTimer
)

// Clause is one way a parked fiber may unblock. A Choose or
// park call is always given a slice of these; exactly one ever "fires".
type Clause struct {
	Kind ClauseKind

	// Channel op payload.
	Channel ChannelHandle
	Buf     []byte // user's value buffer; must stay valid until the call returns (zero-copy rendezvous)

	// Fd payload.
	Fd int

	// Timer payload: an absolute deadline in the runtime's monotonic
	// clock. Unused by channel/fd clauses, which take their own deadline
	// as a separate park() argument.
	Deadline int64

	// fiber and index back-link to the owning fiber and this clause's
	// position in its wait set, filled in by park()/Choose().
	fiber FiberHandle
	index int
}

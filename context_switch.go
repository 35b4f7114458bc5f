package fiber

// fiberContext provides a minimal per-fiber context-switch primitive: two
// operations, save-and-switch-to (parkSelf/switchTo) and initial-launch
// (launch).
//
// Go gives no portable, safe way to longjmp onto another goroutine's
// stack, so a fiber's "context" here is a real goroutine (its stack, in
// the Go runtime's own sense) that only ever executes while holding an
// exclusive baton handed to it by the scheduler over resume, and must
// hand the baton back over done before any other fiber can run. Exactly
// one of {scheduler goroutine, one fiber goroutine} is ever runnable at a
// time, which is the property the single-threaded cooperative model
// needs; raw register save/restore would be one way to get that property
// on bare metal, but it is an implementation detail, not a requirement on
// its own.
type fiberContext struct {
	resume chan struct{} // scheduler -> fiber: "you may run"
	done   chan struct{} // fiber -> scheduler: "I have suspended or returned"
}

func newFiberContext() *fiberContext {
	return &fiberContext{
		resume: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// launch starts the fiber's goroutine. The goroutine immediately blocks
// waiting to be resumed; it does not run entry until switchTo is called
// for the first time. This realizes "initial-launch": the trampoline is
// simply the closure below.
func (c *fiberContext) launch(entry func()) {
	go func() {
		<-c.resume
		entry()
		c.done <- struct{}{}
	}()
}

// switchTo is called from the scheduler goroutine. It hands the baton to
// this fiber and blocks until the fiber suspends (parkSelf) or returns
// (entry falls off the end, see launch).
func (c *fiberContext) switchTo() {
	c.resume <- struct{}{}
	<-c.done
}

// parkSelf is called from within a running fiber's own goroutine. It is
// the "save-and-switch-to" half of the abstraction: it hands the baton
// back to the scheduler and blocks until resumed again. Every blocking
// primitive in this runtime bottoms out in exactly one call to parkSelf.
func (c *fiberContext) parkSelf() {
	c.done <- struct{}{}
	<-c.resume
}

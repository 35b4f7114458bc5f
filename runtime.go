package fiber

import (
	"sync"
	"time"
)

// fireTimeout, fireCanceled, and firePipe are sentinel values stored in
// fiberSlot.firing to distinguish a timed-out, canceled, or pipe-closed
// wakeup from a clause index (which is always >= 0).
const (
	fireTimeout  = -2
	fireCanceled = -3
	firePipe     = -4
)

// Runtime owns every piece of scheduler state: the fiber arena, the ready
// queue, the timer heap, the channel arena, and the I/O poller. A process
// may construct several, or rely on the lazily-constructed default; see
// Default.
type Runtime struct {
	opts *runtimeOptions

	fibers     []fiberSlot
	freeFibers []int
	ready      []FiberHandle
	current    FiberHandle
	stacks     *stackFreeList
	spawnCount uint64

	channels     []channelSlot
	freeChannels []int

	timers timerHeap
	poller *poller

	nowMs int64 // cached monotonic reading, refreshed

	metrics *Metrics

	closed bool
}

// New constructs a standalone Runtime. Most programs should use the
// package-level functions (Go, Yield, ...), which operate on Default();
// New is for tests and for embedding more than one runtime per process
// (each still strictly single-threaded on its own goroutine).
func New(opts ...RuntimeOption) (*Runtime, error) {
	cfg := resolveRuntimeOptions(opts)

	p, err := newPoller(cfg.maxFDs)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{
		opts:   cfg,
		stacks: newStackFreeList(),
		poller: p,
		nowMs:  nowMonotonicMs(),
	}
	if cfg.metricsEnabled {
		rt.metrics = &Metrics{}
	}
	return rt, nil
}

var (
	defaultOnce sync.Once
	defaultRT   *Runtime
	defaultErr  error
)

// Default returns the process-wide Runtime, constructing it on first use
// with default options.
func Default() *Runtime {
	defaultOnce.Do(func() {
		defaultRT, defaultErr = New()
	})
	if defaultErr != nil {
		panic(defaultErr)
	}
	return defaultRT
}

// Now returns a cached monotonic-clock reading in milliseconds. The cache
// is refreshed before every poll and after every context switch, so
// repeated calls within one scheduler tick are O(1).
func (rt *Runtime) Now() int64 { return rt.nowMs }

func (rt *Runtime) refreshNow() { rt.nowMs = nowMonotonicMs() }

// clockEpoch anchors nowMonotonicMs: time.Since reads the monotonic clock
// carried in clockEpoch, so readings never step back with the wall clock.
var clockEpoch = time.Now()

func nowMonotonicMs() int64 {
	return clockEpoch.UnixMilli() + time.Since(clockEpoch).Milliseconds()
}

// slot returns the fiberSlot for h, validating the handle's generation so
// a stale handle (reused index, different generation) never silently
// aliases a different fiber.
func (rt *Runtime) slot(h FiberHandle) *fiberSlot {
	idx := h.index()
	if idx < 0 || idx >= len(rt.fibers) {
		return nil
	}
	s := &rt.fibers[idx]
	if s.generation != h.generation() || !s.alive {
		return nil
	}
	return s
}

func (rt *Runtime) currentSlot() *fiberSlot {
	return rt.slot(rt.current)
}

// Go spawns a new fiber. entry runs on its own goroutine, gated by the
// scheduler baton; it is enqueued at the tail of the ready queue and does
// not run until the scheduler reaches it — spawning never preempts the
// calling fiber.
func (rt *Runtime) Go(entry func(args ...any), args ...any) (FiberHandle, error) {
	if rt.opts.spawnLimiter != nil {
		if _, ok := rt.opts.spawnLimiter.Allow("spawn"); !ok {
			rt.logOomRejected()
			return 0, ErrOom
		}
	}

	st, err := rt.stacks.acquire(rt.opts.stackSize)
	if err != nil {
		return 0, err
	}

	idx, generation := rt.allocSlot()
	slot := &rt.fibers[idx]
	*slot = fiberSlot{
		generation: generation,
		state:      FiberReady,
		ctx:        newFiberContext(),
		stack:      st,
		firing:     -1,
		alive:      true,
	}
	handle := makeFiberHandle(idx, generation)

	slot.ctx.launch(func() {
		defer rt.onFiberReturn(handle)
		entry(args...)
	})

	rt.ready = append(rt.ready, handle)
	rt.spawnCount++
	rt.logSpawn(handle)
	return handle, nil
}

func (rt *Runtime) allocSlot() (index int, generation uint32) {
	if n := len(rt.freeFibers); n > 0 {
		idx := rt.freeFibers[n-1]
		rt.freeFibers = rt.freeFibers[:n-1]
		return idx, rt.fibers[idx].generation + 1
	}
	rt.fibers = append(rt.fibers, fiberSlot{})
	return len(rt.fibers) - 1, 1
}

// onFiberReturn is invoked (on the fiber's own goroutine, just before it
// hands control back via the launch trampoline's final done<-) when entry
// returns normally.
func (rt *Runtime) onFiberReturn(h FiberHandle) {
	slot := rt.slot(h)
	if slot == nil {
		return
	}
	slot.state = FiberFinished
	if slot.stack != nil {
		rt.stacks.release(slot.stack)
		slot.stack = nil
	}
	for _, w := range slot.joinWaiters {
		*w.remaining--
		if *w.remaining == 0 {
			w.wake()
		}
	}
	slot.joinWaiters = nil
}

// Yield requeues the current fiber at the tail of the ready queue and
// switches away. Returns ErrCanceled without yielding further if the
// fiber's canceled flag is already set.
func (rt *Runtime) Yield() error {
	slot := rt.currentSlot()
	if slot == nil {
		return nil
	}
	if slot.canceled {
		return ErrCanceled
	}
	slot.state = FiberReady
	rt.ready = append(rt.ready, rt.current)
	slot.ctx.parkSelf()
	slot.state = FiberRunning
	if slot.canceled {
		return ErrCanceled
	}
	return nil
}

// popReady pops and returns the head of the ready queue.
func (rt *Runtime) popReady() (FiberHandle, bool) {
	if len(rt.ready) == 0 {
		return 0, false
	}
	h := rt.ready[0]
	rt.ready = rt.ready[1:]
	if len(rt.ready) == 0 {
		rt.ready = nil // let the backing array be collected
	}
	return h, true
}

// wake moves a Blocked fiber back onto the tail of the ready queue,
// recording which clause fired (or fireTimeout/fireCanceled).
func (rt *Runtime) wake(h FiberHandle, firing int) {
	slot := rt.slot(h)
	if slot == nil || slot.state != FiberBlocked {
		return
	}
	slot.firing = firing
	slot.state = FiberReady
	rt.ready = append(rt.ready, h)
}

// ErrDeadlock is returned by Run when the ready queue is empty and no
// fiber is waiting on any timer, fd, or channel event that could ever
// fire — i.e. every remaining fiber is blocked forever. This runtime
// chooses to return promptly rather than block the poller on an infinite
// timeout.
var ErrDeadlock = newErr(errDeadlockSentinel{}, 0)

type errDeadlockSentinel struct{}

func (errDeadlockSentinel) Error() string { return "fiber: scheduler deadlock: no runnable or wakeable fiber remains" }

// Run drives the scheduler's run-loop until the ready queue
// and every wait source (timers, fd waiters, channel waiters with no
// other means of ever waking) are simultaneously empty, or ctxDone fires.
// ctxDone may be nil to run until natural quiescence or ErrDeadlock.
func (rt *Runtime) Run(ctxDone <-chan struct{}) error {
	for {
		if ctxDone != nil {
			select {
			case <-ctxDone:
				return nil
			default:
			}
		}

		if h, ok := rt.popReady(); ok {
			rt.runOne(h)
			continue
		}

		if rt.quiescent() {
			return nil
		}

		timeoutMs := rt.pollTimeoutMs()
		if timeoutMs < 0 && !rt.poller.hasWaiters() && rt.timers.Len() == 0 {
			return ErrDeadlock
		}
		if err := rt.poller.pollOnce(timeoutMs, rt); err != nil {
			return err
		}
		rt.refreshNow()
		rt.fireDueTimers()
	}
}

// runOne switches to h and waits for it to suspend or finish.
func (rt *Runtime) runOne(h FiberHandle) {
	slot := rt.slot(h)
	if slot == nil {
		return
	}
	prev := rt.current
	rt.current = h
	slot.state = FiberRunning
	slot.ctx.switchTo()
	rt.current = prev
	rt.refreshNow()
	if slot.state == FiberFinished {
		rt.logFinish(h)
	}
}

// quiescent reports whether nothing can ever make further progress: no
// ready fibers (checked by the caller), no pending timers, and no
// registered fd waiters. Blocked fibers parked purely on channel ops with
// no other waker are, definitionally, part of a real deadlock too, but
// the runtime has no way to detect that short of full cycle analysis; it
// treats "nothing left for the poller to wait on" as the actionable
// signal instead.
func (rt *Runtime) quiescent() bool {
	return rt.timers.Len() == 0 && !rt.poller.hasWaiters() && rt.countBlocked() == 0
}

func (rt *Runtime) countBlocked() int {
	n := 0
	for i := range rt.fibers {
		if rt.fibers[i].alive && rt.fibers[i].state == FiberBlocked {
			n++
		}
	}
	return n
}

func (rt *Runtime) pollTimeoutMs() int {
	d, ok := rt.timers.peekDeadline()
	if !ok {
		return -1
	}
	rt.refreshNow()
	delta := d - rt.nowMs
	if delta <= 0 {
		return 0
	}
	return int(delta)
}

func (rt *Runtime) fireDueTimers() {
	for _, e := range popDue(&rt.timers, rt.nowMs) {
		rt.wake(e.clause.fiber, e.clause.index)
	}
}

// Close tears down the runtime: frees every stack (live or free-listed)
// and closes the poller. Intended for process/test shutdown, not for
// mid-run use.
func (rt *Runtime) Close() error {
	if rt.closed {
		return nil
	}
	rt.closed = true
	for i := range rt.fibers {
		if rt.fibers[i].alive && rt.fibers[i].stack != nil {
			_ = rt.fibers[i].stack.free()
			rt.fibers[i].stack = nil
		}
	}
	rt.stacks.closeAll()
	return rt.poller.close()
}

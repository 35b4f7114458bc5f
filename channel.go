package fiber

// ChannelHandle is an opaque handle identifying a channel, mirroring
// FiberHandle's generation-tagged arena-index scheme.
type ChannelHandle uint64

func (h ChannelHandle) Valid() bool { return h != 0 }

func makeChannelHandle(index int, generation uint32) ChannelHandle {
	return ChannelHandle(uint64(generation)<<32 | uint64(uint32(index)+1))
}

func (h ChannelHandle) index() int         { return int(uint32(h)) - 1 }
func (h ChannelHandle) generation() uint32 { return uint32(h >> 32) }

// waiter is one parked party in a channel's send or receive queue: the
// clause it parked with, so the engine can find its buffer and wake it;
// the clause itself carries the back-link to its fiber and array index.
type waiter struct {
	clause *Clause
}

// channelSlot is one arena entry: item size, capacity, refcount, done flag
// + final value, and a pair of FIFOs that are never simultaneously
// non-empty.
type channelSlot struct {
	generation uint32
	alive      bool

	itemSize int
	capacity int
	refcount int

	done      bool
	doneValue []byte

	buf     [][]byte // ring buffer of up to capacity copied items
	bufHead int
	bufLen  int

	sendQ []waiter
	recvQ []waiter
}

// NewChannel creates a typed channel holding items of itemSize bytes with
// room for capacity buffered items (0 means unbuffered: every send must
// rendezvous directly with a parked receiver).
func (rt *Runtime) NewChannel(itemSize, capacity int) (ChannelHandle, error) {
	if itemSize < 0 || capacity < 0 {
		return 0, ErrInvalid
	}
	idx, generation := rt.allocChannelSlot()
	rt.channels[idx] = channelSlot{
		generation: generation,
		alive:      true,
		itemSize:   itemSize,
		capacity:   capacity,
		refcount:   1,
		buf:        make([][]byte, capacity),
	}
	return makeChannelHandle(idx, generation), nil
}

func (rt *Runtime) allocChannelSlot() (index int, generation uint32) {
	if n := len(rt.freeChannels); n > 0 {
		idx := rt.freeChannels[n-1]
		rt.freeChannels = rt.freeChannels[:n-1]
		return idx, rt.channels[idx].generation + 1
	}
	rt.channels = append(rt.channels, channelSlot{})
	return len(rt.channels) - 1, 1
}

func (rt *Runtime) channel(h ChannelHandle) *channelSlot {
	idx := h.index()
	if idx < 0 || idx >= len(rt.channels) {
		return nil
	}
	s := &rt.channels[idx]
	if !s.alive || s.generation != h.generation() {
		return nil
	}
	return s
}

// Dup increments a channel's refcount. Returns ErrInvalid for an unknown
// handle.
func (rt *Runtime) Dup(h ChannelHandle) error {
	ch := rt.channel(h)
	if ch == nil {
		return ErrInvalid
	}
	ch.refcount++
	return nil
}

// CloseChannel decrements a channel's refcount, freeing its arena slot
// once it reaches zero. Closing a channel with parked waiters still on it
// is a programmer error: with debug assertions enabled it panics,
// otherwise it silently forces every waiter to observe ErrPipe rather than
// leaving them parked forever.
func (rt *Runtime) CloseChannel(h ChannelHandle) error {
	ch := rt.channel(h)
	if ch == nil {
		return ErrInvalid
	}
	ch.refcount--
	if ch.refcount > 0 {
		return nil
	}
	if len(ch.sendQ) > 0 || len(ch.recvQ) > 0 {
		if rt.opts.debugAssertions {
			panic("fiber: CloseChannel called with parked waiters still queued")
		}
		rt.forceDrainWithError(&ch.sendQ, ErrPipe)
		rt.forceDrainWithError(&ch.recvQ, ErrPipe)
	}
	idx := h.index()
	rt.channels[idx] = channelSlot{}
	rt.freeChannels = append(rt.freeChannels, idx)
	return nil
}

func (rt *Runtime) forceDrainWithError(q *[]waiter, errVal *RuntimeError) {
	firing := fireCanceled
	if errVal == ErrPipe {
		firing = firePipe
	}
	for _, w := range *q {
		slot := rt.slot(w.clause.fiber)
		if slot == nil {
			continue
		}
		rt.wake(w.clause.fiber, firing)
	}
	*q = nil
}

// Done marks a channel as finished with a final value: every currently
// and subsequently parked or probing receiver observes it (idempotently),
// while every sender — parked or not — observes ErrPipe.
func (rt *Runtime) Done(h ChannelHandle, value []byte) error {
	ch := rt.channel(h)
	if ch == nil {
		return ErrInvalid
	}
	if ch.done {
		return nil
	}
	ch.done = true
	ch.doneValue = append([]byte(nil), value...)
	for _, w := range ch.sendQ {
		rt.wake(w.clause.fiber, firePipe)
	}
	ch.sendQ = nil
	for _, w := range ch.recvQ {
		copy(w.clause.Buf, ch.doneValue)
		rt.wake(w.clause.fiber, w.clause.index)
	}
	ch.recvQ = nil
	return nil
}

// Send blocks until buf can be handed to a parked receiver or buffered,
// honoring deadline the same way park does.
func (rt *Runtime) Send(h ChannelHandle, buf []byte, deadline int64) error {
	ch := rt.channel(h)
	if ch == nil || len(buf) != ch.itemSize {
		return ErrInvalid
	}
	clauses := []Clause{{Kind: ClauseChannelSend, Channel: h, Buf: buf}}
	idx, err := rt.park(clauses, deadline)
	if err != nil {
		return err
	}
	_ = idx
	return nil
}

// Recv blocks until a value is available from a parked sender, the
// buffer, or a done channel's final value.
func (rt *Runtime) Recv(h ChannelHandle, buf []byte, deadline int64) error {
	ch := rt.channel(h)
	if ch == nil || len(buf) != ch.itemSize {
		return ErrInvalid
	}
	clauses := []Clause{{Kind: ClauseChannelRecv, Channel: h, Buf: buf}}
	idx, err := rt.park(clauses, deadline)
	if err != nil {
		return err
	}
	_ = idx
	return nil
}

// tryImmediateSend attempts to complete a send clause without blocking:
// handing straight to a parked receiver, or into the ring buffer if it
// has room. Per the "never both queues non-empty" invariant, a non-empty
// recvQ is only possible when the buffer is empty, so it is always
// checked first.
func (rt *Runtime) tryImmediateSend(c *Clause) (bool, error) {
	ch := rt.channel(c.Channel)
	if ch == nil {
		return false, ErrInvalid
	}
	if ch.done {
		return false, ErrPipe
	}
	if len(ch.recvQ) > 0 {
		w := ch.recvQ[0]
		ch.recvQ = ch.recvQ[1:]
		copy(w.clause.Buf, c.Buf)
		rt.wake(w.clause.fiber, w.clause.index)
		return true, nil
	}
	if ch.bufLen < ch.capacity {
		rt.pushBuf(ch, c.Buf)
		return true, nil
	}
	return false, nil
}

// tryImmediateRecv is tryImmediateSend's mirror image: drain the buffer
// first (promoting a parked sender into the freed slot), then fall back
// to a direct rendezvous with a parked sender (the unbuffered case), then
// a done channel's sticky final value.
func (rt *Runtime) tryImmediateRecv(c *Clause) (bool, error) {
	ch := rt.channel(c.Channel)
	if ch == nil {
		return false, ErrInvalid
	}
	if ch.bufLen > 0 {
		rt.popBuf(ch, c.Buf)
		if len(ch.sendQ) > 0 {
			w := ch.sendQ[0]
			ch.sendQ = ch.sendQ[1:]
			rt.pushBuf(ch, w.clause.Buf)
			rt.wake(w.clause.fiber, w.clause.index)
		}
		return true, nil
	}
	if len(ch.sendQ) > 0 {
		w := ch.sendQ[0]
		ch.sendQ = ch.sendQ[1:]
		copy(c.Buf, w.clause.Buf)
		rt.wake(w.clause.fiber, w.clause.index)
		return true, nil
	}
	if ch.done {
		copy(c.Buf, ch.doneValue)
		return true, nil
	}
	return false, nil
}

func (rt *Runtime) pushBuf(ch *channelSlot, item []byte) {
	pos := (ch.bufHead + ch.bufLen) % ch.capacity
	ch.buf[pos] = append([]byte(nil), item...)
	ch.bufLen++
}

func (rt *Runtime) popBuf(ch *channelSlot, out []byte) {
	copy(out, ch.buf[ch.bufHead])
	ch.buf[ch.bufHead] = nil
	ch.bufHead = (ch.bufHead + 1) % ch.capacity
	ch.bufLen--
}

func (rt *Runtime) enqueueSend(c *Clause) {
	ch := rt.channel(c.Channel)
	if ch == nil {
		return
	}
	ch.sendQ = append(ch.sendQ, waiter{clause: c})
}

func (rt *Runtime) enqueueRecv(c *Clause) {
	ch := rt.channel(c.Channel)
	if ch == nil {
		return
	}
	ch.recvQ = append(ch.recvQ, waiter{clause: c})
}

func (rt *Runtime) dequeueSend(c *Clause) {
	ch := rt.channel(c.Channel)
	if ch == nil {
		return
	}
	ch.sendQ = removeWaiter(ch.sendQ, c)
}

func (rt *Runtime) dequeueRecv(c *Clause) {
	ch := rt.channel(c.Channel)
	if ch == nil {
		return
	}
	ch.recvQ = removeWaiter(ch.recvQ, c)
}

func removeWaiter(q []waiter, c *Clause) []waiter {
	for i, w := range q {
		if w.clause == c {
			return append(q[:i], q[i+1:]...)
		}
	}
	return q
}

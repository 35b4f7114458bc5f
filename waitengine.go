package fiber

// park is the single contract used by every blocking primitive: the
// caller builds one or more clauses and calls park. park
// attempts each clause for immediate completion in array order; if none
// completes immediately and deadline != 0, it enqueues every clause onto
// its respective queue (channel wait list, fd poller registration, timer
// heap) and suspends the fiber until exactly one clause fires, the
// deadline passes, or the fiber is canceled. On return, every clause this
// fiber registered has already been unlinked from its queue — callers
// never need to clean up.
//
// deadline: -1 blocks indefinitely, 0 probes without blocking (returns
// ErrTimedOut if nothing is immediately ready), >0 is an absolute
// millisecond deadline per Runtime.Now.
func (rt *Runtime) park(clauses []Clause, deadline int64) (int, error) {
	cur := rt.current
	slot := rt.slot(cur)
	if slot == nil {
		return -1, ErrInvalid
	}
	if slot.canceled {
		return -1, ErrCanceled
	}

	for i := range clauses {
		clauses[i].fiber = cur
		clauses[i].index = i
	}

	// Pass 1: channel clauses complete purely in-memory, no syscalls, so
	// they're tried first and in array order.
	for i := range clauses {
		switch clauses[i].Kind {
		case ClauseChannelSend:
			ok, err := rt.tryImmediateSend(&clauses[i])
			if err != nil {
				return -1, err
			}
			if ok {
				return i, nil
			}
		case ClauseChannelRecv:
			ok, err := rt.tryImmediateRecv(&clauses[i])
			if err != nil {
				return -1, err
			}
			if ok {
				return i, nil
			}
		case ClauseTimer:
			if clauses[i].Deadline <= rt.nowMs {
				return i, nil
			}
		}
	}

	// Pass 2: register fd clauses, then probe once. A single non-blocking
	// poll covers every fd clause in this wait set at once.
	var fdRegistered []int
	for i := range clauses {
		if clauses[i].Kind == ClauseFdIn || clauses[i].Kind == ClauseFdOut {
			if err := rt.poller.registerWaiter(&clauses[i]); err != nil {
				rt.unregisterFdClauses(clauses, fdRegistered)
				return -1, err
			}
			fdRegistered = append(fdRegistered, i)
		}
	}
	if len(fdRegistered) > 0 {
		if idx, ok := rt.poller.probeNow(rt, cur); ok {
			rt.unregisterFdClauses(clauses, fdRegistered)
			return idx, nil
		}
	}

	if deadline == 0 {
		rt.unregisterFdClauses(clauses, fdRegistered)
		return -1, ErrTimedOut
	}

	// Pass 3: enqueue channel clauses that didn't fire immediately, and
	// arm a timer if a finite deadline was given.
	var userTimers []*timerEntry
	for i := range clauses {
		switch clauses[i].Kind {
		case ClauseChannelSend:
			rt.enqueueSend(&clauses[i])
		case ClauseChannelRecv:
			rt.enqueueRecv(&clauses[i])
		case ClauseTimer:
			userTimers = append(userTimers, pushTimer(&rt.timers, clauses[i].Deadline, clauses[i]))
		}
	}

	var te *timerEntry
	if deadline > 0 {
		te = pushTimer(&rt.timers, deadline, Clause{Kind: ClauseTimer, fiber: cur, index: fireTimeout})
	}

	slot.waitSet = clauses
	slot.firing = -1
	slot.timer = te
	slot.userTimers = userTimers
	slot.state = FiberBlocked
	slot.ctx.parkSelf()
	slot.state = FiberRunning

	rt.unlinkWaitSet(slot)

	switch slot.firing {
	case fireTimeout:
		return -1, ErrTimedOut
	case fireCanceled:
		return -1, ErrCanceled
	case firePipe:
		return -1, ErrPipe
	default:
		return slot.firing, nil
	}
}

// unregisterFdClauses undoes registerWaiter for every index in registered,
// used when an error aborts park before the fiber ever blocks, or when an
// immediate probe already satisfied the wait.
func (rt *Runtime) unregisterFdClauses(clauses []Clause, registered []int) {
	for _, i := range registered {
		rt.poller.unregisterWaiter(&clauses[i])
	}
}

// unlinkWaitSet removes every clause in slot.waitSet from whichever queue
// it was enqueued on, except the one that already fired (which removed
// itself as part of firing). Called once a blocked fiber wakes, for
// whatever reason.
func (rt *Runtime) unlinkWaitSet(slot *fiberSlot) {
	for i := range slot.waitSet {
		if i == slot.firing {
			continue
		}
		c := &slot.waitSet[i]
		switch c.Kind {
		case ClauseChannelSend:
			rt.dequeueSend(c)
		case ClauseChannelRecv:
			rt.dequeueRecv(c)
		case ClauseFdIn, ClauseFdOut:
			rt.poller.unregisterWaiter(c)
		case ClauseTimer:
			for _, te := range slot.userTimers {
				if te.clause.index == i {
					removeTimer(&rt.timers, te)
				}
			}
		}
	}
	if slot.timer != nil && slot.firing != fireTimeout {
		removeTimer(&rt.timers, slot.timer)
	}
	slot.timer = nil
	slot.userTimers = nil
	slot.waitSet = nil
}

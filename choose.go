package fiber

import "math/rand/v2"

// Choose multiplexes over a set of clauses as a library call rather than
// a language construct. Exactly one clause fires. If more than one
// channel or timer clause is immediately ready at entry, the winner is
// chosen uniformly at random among them; fd clauses are left to park's
// own immediate-probe pass, which has no in-memory way to rank multiple
// ready fds ahead of a single combined poll, so the bias there degrades
// to "whatever the poller reports first" — treated as an accepted
// limitation rather than silently claimed as uniform.
//
// No suitable third-party library covers "pick one of N independent wait
// sources and report which fired" — this is exactly the primitive the
// runtime itself exists to provide, so Choose is implemented directly
// against park and the channel internals rather than against an external
// library.
func (rt *Runtime) Choose(clauses []Clause, deadline int64) (int, error) {
	if len(clauses) == 0 {
		return -1, ErrInvalid
	}
	for i := range clauses {
		clauses[i].fiber = rt.current
		clauses[i].index = i
	}

	if ready := rt.immediatelyReadyChannelOrTimer(clauses); len(ready) > 0 {
		pick := ready[0]
		if len(ready) > 1 {
			pick = ready[rand.N(len(ready))]
		}
		idx, err := rt.fireImmediate(&clauses[pick])
		if err != nil || idx >= 0 {
			return idx, err
		}
		// The clause that looked ready raced with itself between the
		// dry-run check and the fire attempt (e.g. a rival Choose call
		// drained the same buffered slot first) — fall through to park,
		// which re-checks everything from scratch in clause order.
	}

	return rt.park(clauses, deadline)
}

// immediatelyReadyChannelOrTimer returns the indices of every channel or
// timer clause that could complete without blocking. This is a pure,
// side-effect-free dry run: firing one clause can invalidate another
// (two recv clauses racing the same single buffered item), so the
// decision of which one actually wins is deferred to fireImmediate.
func (rt *Runtime) immediatelyReadyChannelOrTimer(clauses []Clause) []int {
	var idx []int
	for i := range clauses {
		switch clauses[i].Kind {
		case ClauseChannelSend:
			if rt.channelSendReady(&clauses[i]) {
				idx = append(idx, i)
			}
		case ClauseChannelRecv:
			if rt.channelRecvReady(&clauses[i]) {
				idx = append(idx, i)
			}
		case ClauseTimer:
			if clauses[i].Deadline <= rt.nowMs {
				idx = append(idx, i)
			}
		}
	}
	return idx
}

func (rt *Runtime) channelSendReady(c *Clause) bool {
	ch := rt.channel(c.Channel)
	if ch == nil {
		return false
	}
	if ch.done {
		return true // fires by returning ErrPipe
	}
	return len(ch.recvQ) > 0 || ch.bufLen < ch.capacity
}

func (rt *Runtime) channelRecvReady(c *Clause) bool {
	ch := rt.channel(c.Channel)
	if ch == nil {
		return false
	}
	return ch.bufLen > 0 || len(ch.sendQ) > 0 || ch.done
}

// fireImmediate actually performs the side effect for the clause picked
// by immediatelyReadyChannelOrTimer. A negative index with a nil error
// signals the race described in Choose: the caller should fall back to
// park.
func (rt *Runtime) fireImmediate(c *Clause) (int, error) {
	switch c.Kind {
	case ClauseChannelSend:
		ok, err := rt.tryImmediateSend(c)
		if err != nil {
			return -1, err
		}
		if ok {
			return c.index, nil
		}
		return -1, nil
	case ClauseChannelRecv:
		ok, err := rt.tryImmediateRecv(c)
		if err != nil {
			return -1, err
		}
		if ok {
			return c.index, nil
		}
		return -1, nil
	case ClauseTimer:
		return c.index, nil
	}
	return -1, ErrInvalid
}

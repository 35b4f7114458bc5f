package fiber

// FDWait blocks the current fiber until fd becomes ready for any of the
// requested events, or deadline passes. Returns the single direction
// (EventIn or EventOut) whose clause fired; when both IN and OUT become
// ready together, only one of them is reported.
func (rt *Runtime) FDWait(fd int, events IOEvents, deadline int64) (IOEvents, error) {
	if fd < 0 {
		return 0, ErrBadFd
	}
	if events == 0 {
		return 0, ErrInvalid
	}

	var clauses []Clause
	if events&EventIn != 0 {
		clauses = append(clauses, Clause{Kind: ClauseFdIn, Fd: fd})
	}
	if events&EventOut != 0 {
		clauses = append(clauses, Clause{Kind: ClauseFdOut, Fd: fd})
	}

	idx, err := rt.park(clauses, deadline)
	if err != nil {
		return 0, err
	}
	return ioEventsOf(clauses[idx].Kind), nil
}

func ioEventsOf(k ClauseKind) IOEvents {
	if k == ClauseFdOut {
		return EventOut
	}
	return EventIn
}

// Sleep blocks the current fiber until deadline (an absolute millisecond
// timestamp from Runtime.Now), implemented as a single ClauseTimer clause
// with no overall park deadline of its own — the clause's own Deadline
// field is the only bound.
func (rt *Runtime) Sleep(deadline int64) error {
	clauses := []Clause{{Kind: ClauseTimer, Deadline: deadline}}
	_, err := rt.park(clauses, -1)
	return err
}

// Fork reinitializes the poller after a fork(2): epoll/kqueue fds are not
// meaningfully inherited across fork, so every armed registration is
// dropped and waiting fibers observe ErrCanceled, exactly as FDClean
// delivers for a single fd.
func (rt *Runtime) Fork() error {
	for fd, entry := range rt.poller.fds {
		if entry == nil {
			continue
		}
		if entry.in != nil {
			rt.wake(entry.in.fiber, fireCanceled)
		}
		if entry.out != nil {
			rt.wake(entry.out.fiber, fireCanceled)
		}
		rt.poller.fds[fd] = nil
	}
	_ = rt.poller.sys.close()
	sys, err := newSysPoller()
	if err != nil {
		return err
	}
	rt.poller.sys = sys
	return nil
}

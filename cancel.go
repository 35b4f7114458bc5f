package fiber

// Cancel requests structured cancellation of a set of target fibers,
// treating deadline as a grace period rather than an instant kill
// switch: every live target keeps running normally until either it
// finishes on its own or the grace period elapses.
//
//  1. Already-Finished targets count immediately; nothing to wait for.
//  2. The calling fiber parks, joined to every live target's countdown,
//     bounded by deadline. deadline == 0 is a zero-length grace period
//     (force immediately); deadline == -1 installs no grace timer at all,
//     so the caller waits as long as it takes for targets to finish
//     naturally, unless it is itself canceled in the meantime.
//  3. If the grace period elapses (or the caller itself is canceled)
//     while targets remain live, every remaining target's canceled flag
//     is set; any that is currently FiberBlocked is force-unlinked from
//     its wait set and woken with ErrCanceled right away, rather than
//     waiting for its next suspension point.
//  4. The caller then waits, with no further deadline, until every
//     target has actually finished — even if it is canceled again during
//     this second wait, since step 4 must complete regardless.
//  5. The count of targets that reached Finished is reported; if the
//     caller itself was canceled along the way, it gets ErrCanceled back
//     once its targets have all been cleanly reaped.
func (rt *Runtime) Cancel(targets []FiberHandle, deadline int64) (int, error) {
	finished := 0
	var live []FiberHandle

	for _, h := range targets {
		slot := rt.slot(h)
		if slot == nil {
			continue
		}
		if slot.state == FiberFinished {
			finished++
			continue
		}
		live = append(live, h)
	}

	if len(live) == 0 {
		return finished, nil
	}

	cur := rt.current
	remaining := len(live)
	waiter := &joinWaiter{remaining: &remaining}
	waiter.wake = func() { rt.wake(cur, 0) }
	for _, h := range live {
		if slot := rt.slot(h); slot != nil {
			slot.joinWaiters = append(slot.joinWaiters, waiter)
		}
	}

	// deadline == 0 (non-blocking, same convention as every other
	// primitive) or an absolute deadline already due is a zero-length
	// grace period: skip straight to forcing cancellation below rather
	// than parking for a tick that would immediately time out anyway.
	// deadline == -1 installs no grace timer at all: the caller waits as
	// long as it takes for every target to finish naturally.
	graceAlreadyDue := deadline == 0 || (deadline > 0 && deadline <= rt.nowMs)
	if !graceAlreadyDue {
		rt.joinBlock(cur, waiter, deadline)
	}

	if remaining > 0 {
		// The grace period elapsed, or the caller was canceled, with
		// targets still running: force them to terminate now.
		for _, h := range live {
			slot := rt.slot(h)
			if slot == nil || slot.state == FiberFinished {
				continue
			}
			slot.canceled = true
			rt.logCanceled(h)
			if slot.state == FiberBlocked {
				rt.unlinkWaitSet(slot)
				rt.wake(h, fireCanceled)
			}
		}
		// No further deadline: guaranteed to complete even if the
		// caller is force-canceled again while waiting here.
		for remaining > 0 {
			rt.joinBlock(cur, waiter, -1)
		}
	}

	for _, h := range live {
		if slot := rt.slot(h); slot != nil {
			detachJoinWaiterFromSlot(slot, waiter)
		}
	}
	finished += len(live) - remaining

	if slot := rt.slot(cur); slot != nil && slot.canceled {
		return finished, ErrCanceled
	}
	return finished, nil
}

// joinBlock parks the calling fiber until waiter's countdown reaches
// zero, the fiber is force-canceled by some other Cancel call, or
// deadline passes (deadline <= 0 installs no timer, so only the other two
// can wake it).
func (rt *Runtime) joinBlock(cur FiberHandle, waiter *joinWaiter, deadline int64) {
	slot := rt.slot(cur)
	if slot == nil {
		return
	}

	var te *timerEntry
	if deadline > 0 {
		te = pushTimer(&rt.timers, deadline, Clause{Kind: ClauseTimer, fiber: cur, index: fireTimeout})
	}
	slot.state = FiberBlocked
	slot.cancelWait = waiter
	slot.timer = te
	slot.ctx.parkSelf()

	slot = rt.slot(cur)
	if slot == nil {
		return
	}
	slot.state = FiberRunning
	slot.cancelWait = nil
	if slot.timer != nil {
		removeTimer(&rt.timers, slot.timer)
		slot.timer = nil
	}
	slot.firing = -1
}

func detachJoinWaiterFromSlot(slot *fiberSlot, w *joinWaiter) {
	for i, ww := range slot.joinWaiters {
		if ww == w {
			slot.joinWaiters = append(slot.joinWaiters[:i], slot.joinWaiters[i+1:]...)
			return
		}
	}
}

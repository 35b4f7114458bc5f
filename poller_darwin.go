//go:build darwin

package fiber

import "golang.org/x/sys/unix"

// kqueuePoller is the Darwin sysPoller backend: Kqueue + Kevent,
// registering one EVFILT_READ/EVFILT_WRITE filter per direction (kqueue
// has no combined read+write filter the way epoll has EPOLLIN|EPOLLOUT,
// so add and modify issue up to two kevent changes).
type kqueuePoller struct {
	kq int
}

func newSysPoller() (sysPoller, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, withOp(ErrOom, "kqueue")
	}
	unix.CloseOnExec(kq)
	return &kqueuePoller{kq: kq}, nil
}

func (p *kqueuePoller) apply(fd int, want IOEvents, flags uint16) error {
	var changes []unix.Kevent_t
	if want&EventIn != 0 {
		changes = append(changes, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: flags})
	}
	if want&EventOut != 0 {
		changes = append(changes, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: flags})
	}
	if len(changes) == 0 {
		return nil
	}
	_, err := unix.Kevent(p.kq, changes, nil, nil)
	if err != nil {
		return withOp(ErrBadFd, "kevent")
	}
	return nil
}

func (p *kqueuePoller) add(fd int, events IOEvents) error {
	return p.apply(fd, events, unix.EV_ADD|unix.EV_ENABLE)
}

// modify re-applies the full desired set. kqueue filters are independent
// per direction, so "modify" in this runtime always means "this fd's
// armed set changed since it was last all-EventIn, all-EventOut, or
// both" — the caller (poller.rearm) only ever calls modify when going
// from one non-zero set to a different non-zero set, so it is always
// safe to add whichever of IN/OUT is newly wanted; kqueue silently
// ignores an EV_ADD for a filter that's already registered.
func (p *kqueuePoller) modify(fd int, events IOEvents) error {
	return p.apply(fd, events, unix.EV_ADD|unix.EV_ENABLE)
}

func (p *kqueuePoller) del(fd int, armed IOEvents) error {
	return p.apply(fd, armed, unix.EV_DELETE)
}

func (p *kqueuePoller) wait(timeoutMs int, out []readyEvent) (int, error) {
	var raw [256]unix.Kevent_t
	var ts *unix.Timespec
	if timeoutMs >= 0 {
		t := unix.NsecToTimespec(int64(timeoutMs) * 1_000_000)
		ts = &t
	}
	n, err := unix.Kevent(p.kq, nil, raw[:], ts)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, withOp(ErrBadFd, "kevent wait")
	}
	if n > len(out) {
		n = len(out)
	}
	for i := 0; i < n; i++ {
		var ev IOEvents
		switch raw[i].Filter {
		case unix.EVFILT_READ:
			ev = EventIn
		case unix.EVFILT_WRITE:
			ev = EventOut
		}
		out[i] = readyEvent{fd: int(raw[i].Ident), events: ev}
	}
	return n, nil
}

func (p *kqueuePoller) close() error {
	return unix.Close(p.kq)
}

//go:build linux

package fiber

import "golang.org/x/sys/unix"

// epollPoller is the Linux sysPoller backend: EpollCreate1 + EpollCtl +
// EpollWait, translating this runtime's IOEvents bitmask to EPOLLIN/
// EPOLLOUT.
type epollPoller struct {
	epfd int
}

func newSysPoller() (sysPoller, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, withOp(ErrOom, "epoll_create1")
	}
	return &epollPoller{epfd: fd}, nil
}

func (p *epollPoller) add(fd int, events IOEvents) error {
	ev := &unix.EpollEvent{Events: toEpollBits(events), Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, ev); err != nil {
		return withOp(ErrBadFd, "epoll_ctl add")
	}
	return nil
}

func (p *epollPoller) modify(fd int, events IOEvents) error {
	ev := &unix.EpollEvent{Events: toEpollBits(events), Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, ev); err != nil {
		return withOp(ErrBadFd, "epoll_ctl mod")
	}
	return nil
}

func (p *epollPoller) del(fd int, _ IOEvents) error {
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return withOp(ErrBadFd, "epoll_ctl del")
	}
	return nil
}

func (p *epollPoller) wait(timeoutMs int, out []readyEvent) (int, error) {
	var raw [256]unix.EpollEvent
	n, err := unix.EpollWait(p.epfd, raw[:], timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, withOp(ErrBadFd, "epoll_wait")
	}
	if n > len(out) {
		n = len(out)
	}
	for i := 0; i < n; i++ {
		out[i] = readyEvent{fd: int(raw[i].Fd), events: fromEpollBits(raw[i].Events)}
	}
	return n, nil
}

func (p *epollPoller) close() error {
	return unix.Close(p.epfd)
}

func toEpollBits(events IOEvents) uint32 {
	var bits uint32
	if events&EventIn != 0 {
		bits |= unix.EPOLLIN
	}
	if events&EventOut != 0 {
		bits |= unix.EPOLLOUT
	}
	return bits
}

func fromEpollBits(bits uint32) IOEvents {
	var events IOEvents
	if bits&(unix.EPOLLIN|unix.EPOLLHUP|unix.EPOLLERR) != 0 {
		events |= EventIn
	}
	if bits&(unix.EPOLLOUT|unix.EPOLLERR) != 0 {
		events |= EventOut
	}
	return events
}

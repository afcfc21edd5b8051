//go:build linux

package engine

import (
	"golang.org/x/sys/unix"
)

// poller multiplexes readiness with epoll. It is level-triggered: an fd
// armed for EventRead keeps firing while unread bytes remain, so the Conn
// state machine re-arms per direction explicitly rather than relying on
// edge semantics.
//
// The poller is owned by the loop goroutine; nothing here is synchronized.
// Cross-goroutine wakeup happens one level up, by writing to the eventfd
// the Loop registers like any other readable fd.
type poller struct {
	epfd     int
	table    fdTable
	eventBuf [256]unix.EpollEvent
	closed   bool
}

func (p *poller) Init() error {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return err
	}
	p.epfd = epfd
	p.table.init()
	return nil
}

func (p *poller) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	return unix.Close(p.epfd)
}

// RegisterFD arms fd for events, routing its readiness to cb.
func (p *poller) RegisterFD(fd int, events IOEvents, cb IOCallback) error {
	if p.closed {
		return ErrPollerClosed
	}
	if fd < 0 {
		return ErrFDOutOfRange
	}
	p.table.grow(fd)
	info := p.table.lookup(fd)
	if info.active {
		return ErrFDAlreadyRegistered
	}

	ev := &unix.EpollEvent{Events: eventsToEpoll(events), Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, ev); err != nil {
		return err
	}
	*info = fdInfo{callback: cb, events: events, active: true}
	return nil
}

// UnregisterFD removes fd from the epoll set. The caller closes the fd
// afterward, never before, so a recycled descriptor can't alias a stale
// registration.
func (p *poller) UnregisterFD(fd int) error {
	info := p.table.lookup(fd)
	if info == nil {
		return ErrFDOutOfRange
	}
	if !info.active {
		return ErrFDNotRegistered
	}
	*info = fdInfo{}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

// ModifyFD re-arms fd for a different direction.
func (p *poller) ModifyFD(fd int, events IOEvents) error {
	info := p.table.lookup(fd)
	if info == nil {
		return ErrFDOutOfRange
	}
	if !info.active {
		return ErrFDNotRegistered
	}
	ev := &unix.EpollEvent{Events: eventsToEpoll(events), Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, ev); err != nil {
		return err
	}
	info.events = events
	return nil
}

// PollIO blocks for up to timeoutMs waiting for readiness, then dispatches
// each ready fd's callback inline. EINTR is treated as an empty poll.
func (p *poller) PollIO(timeoutMs int) (int, error) {
	if p.closed {
		return 0, ErrPollerClosed
	}

	n, err := unix.EpollWait(p.epfd, p.eventBuf[:], timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}

	for i := 0; i < n; i++ {
		fd := int(p.eventBuf[i].Fd)
		// Re-check activity per event: an earlier callback in this same
		// batch may have unregistered this fd (a Conn torn down mid-tick).
		info := p.table.lookup(fd)
		if info == nil || !info.active || info.callback == nil {
			continue
		}
		info.callback(epollToEvents(p.eventBuf[i].Events))
	}
	return n, nil
}

func eventsToEpoll(events IOEvents) uint32 {
	var e uint32
	if events&EventRead != 0 {
		e |= unix.EPOLLIN
	}
	if events&EventWrite != 0 {
		e |= unix.EPOLLOUT
	}
	return e
}

func epollToEvents(e uint32) IOEvents {
	var events IOEvents
	if e&unix.EPOLLIN != 0 {
		events |= EventRead
	}
	if e&unix.EPOLLOUT != 0 {
		events |= EventWrite
	}
	if e&unix.EPOLLERR != 0 {
		events |= EventError
	}
	if e&unix.EPOLLHUP != 0 {
		events |= EventHangup
	}
	return events
}

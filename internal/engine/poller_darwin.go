//go:build darwin

package engine

import (
	"golang.org/x/sys/unix"
)

// poller multiplexes readiness with kqueue. Unlike epoll's single
// per-fd event mask, kqueue tracks read and write interest as separate
// filters, so arming and re-arming is expressed as EV_ADD/EV_DELETE pairs
// per direction.
//
// The poller is owned by the loop goroutine; nothing here is synchronized.
// Cross-goroutine wakeup happens one level up, by writing to the self-pipe
// the Loop registers like any other readable fd.
type poller struct {
	kq       int
	table    fdTable
	eventBuf [256]unix.Kevent_t
	closed   bool
}

func (p *poller) Init() error {
	kq, err := unix.Kqueue()
	if err != nil {
		return err
	}
	unix.CloseOnExec(kq)
	p.kq = kq
	p.table.init()
	return nil
}

func (p *poller) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	return unix.Close(p.kq)
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

	if kevs := filtersFor(fd, events, unix.EV_ADD|unix.EV_ENABLE); len(kevs) > 0 {
		if _, err := unix.Kevent(p.kq, kevs, nil, nil); err != nil {
			return err
		}
	}
	*info = fdInfo{callback: cb, events: events, active: true}
	return nil
}

// UnregisterFD removes every filter registered for fd. Delete errors are
// ignored: a filter can already be gone if the peer hung up.
func (p *poller) UnregisterFD(fd int) error {
	info := p.table.lookup(fd)
	if info == nil {
		return ErrFDOutOfRange
	}
	if !info.active {
		return ErrFDNotRegistered
	}
	if kevs := filtersFor(fd, info.events, unix.EV_DELETE); len(kevs) > 0 {
		_, _ = unix.Kevent(p.kq, kevs, nil, nil)
	}
	*info = fdInfo{}
	return nil
}

// ModifyFD re-arms fd for a different direction, deleting filters that
// dropped out of the mask and adding the ones that entered it.
func (p *poller) ModifyFD(fd int, events IOEvents) error {
	info := p.table.lookup(fd)
	if info == nil {
		return ErrFDOutOfRange
	}
	if !info.active {
		return ErrFDNotRegistered
	}

	if removed := info.events &^ events; removed != 0 {
		if kevs := filtersFor(fd, removed, unix.EV_DELETE); len(kevs) > 0 {
			_, _ = unix.Kevent(p.kq, kevs, nil, nil)
		}
	}
	if added := events &^ info.events; added != 0 {
		if kevs := filtersFor(fd, added, unix.EV_ADD|unix.EV_ENABLE); len(kevs) > 0 {
			if _, err := unix.Kevent(p.kq, kevs, nil, nil); err != nil {
				return err
			}
		}
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

	var ts *unix.Timespec
	if timeoutMs >= 0 {
		ts = &unix.Timespec{
			Sec:  int64(timeoutMs / 1000),
			Nsec: int64((timeoutMs % 1000) * 1000000),
		}
	}

	n, err := unix.Kevent(p.kq, nil, p.eventBuf[:], ts)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}

	for i := 0; i < n; i++ {
		fd := int(p.eventBuf[i].Ident)
		// Re-check activity per event: an earlier callback in this same
		// batch may have unregistered this fd (a Conn torn down mid-tick).
		info := p.table.lookup(fd)
		if info == nil || !info.active || info.callback == nil {
			continue
		}
		info.callback(keventToEvents(&p.eventBuf[i]))
	}
	return n, nil
}

func filtersFor(fd int, events IOEvents, flags uint16) []unix.Kevent_t {
	var kevs []unix.Kevent_t
	if events&EventRead != 0 {
		kevs = append(kevs, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: flags})
	}
	if events&EventWrite != 0 {
		kevs = append(kevs, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: flags})
	}
	return kevs
}

func keventToEvents(kev *unix.Kevent_t) IOEvents {
	var events IOEvents
	switch kev.Filter {
	case unix.EVFILT_READ:
		events |= EventRead
	case unix.EVFILT_WRITE:
		events |= EventWrite
	}
	if kev.Flags&unix.EV_ERROR != 0 {
		events |= EventError
	}
	if kev.Flags&unix.EV_EOF != 0 {
		events |= EventHangup
	}
	return events
}

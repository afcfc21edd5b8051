package engine

import (
	"sync/atomic"
	"time"
)

// Loop is the single-threaded, level-triggered readiness multiplexer every
// Conn in a benchmark run is registered against. There is exactly one
// goroutine driving it (Run's caller); no loop state is touched from
// anywhere else, with the sole exception of Stop (see below).
type Loop struct {
	poller      poller
	registry    *registry
	opts        *loopOptions
	wakeReadFd  int
	wakeWriteFd int
	stopping    atomic.Bool
}

// NewLoop constructs and initializes a Loop, ready for RegisterFD/Dial calls
// once Run is started.
func NewLoop(opts ...LoopOption) (*Loop, error) {
	resolved, err := resolveLoopOptions(opts)
	if err != nil {
		return nil, err
	}

	l := &Loop{registry: newRegistry(), opts: resolved, wakeReadFd: -1, wakeWriteFd: -1}
	if err := l.poller.Init(); err != nil {
		return nil, err
	}
	if err := l.setupWakeup(); err != nil {
		_ = l.poller.Close()
		return nil, err
	}
	return l, nil
}

func (l *Loop) setupWakeup() error {
	rfd, wfd, err := createWakeFd()
	if err != nil {
		return err
	}
	l.wakeReadFd, l.wakeWriteFd = rfd, wfd
	return l.poller.RegisterFD(rfd, EventRead, l.drainWake)
}

func (l *Loop) drainWake(IOEvents) {
	var buf [64]byte
	for {
		n, err := readFD(l.wakeReadFd, buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

// now returns the current time, honoring WithClock overrides so tests can
// drive latency math deterministically.
func (l *Loop) now() time.Time {
	return l.opts.clock()
}

// RegisterFD registers fd for the given events with cb.
func (l *Loop) RegisterFD(fd int, events IOEvents, cb IOCallback) error {
	return l.poller.RegisterFD(fd, events, cb)
}

// ModifyFD re-arms fd for a (possibly different) set of events. Re-arming is
// always explicit and per-direction, never implicit.
func (l *Loop) ModifyFD(fd int, events IOEvents) error {
	return l.poller.ModifyFD(fd, events)
}

// UnregisterFD removes fd from the poller.
func (l *Loop) UnregisterFD(fd int) error {
	return l.poller.UnregisterFD(fd)
}

// Live reports the number of currently registered Conns.
func (l *Loop) Live() int {
	return l.registry.Len()
}

// Each calls fn once per live Conn. fn must not Dial or Close any Conn.
func (l *Loop) Each(fn func(Handle, *Conn)) {
	l.registry.Each(fn)
}

// Lookup resolves h back to its Conn, returning ok=false if h is stale.
func (l *Loop) Lookup(h Handle) (*Conn, bool) {
	return l.registry.Lookup(h)
}

// Run polls for readiness until Stop is called, or returns the poller's
// error. It returns after the first poll that observes Stop, whether or not
// Conns are still registered; it does not close them. internal/pool calls
// Stop from its Closed callback once no live Conn remains, and immediately
// on a fatal error.
func (l *Loop) Run() error {
	timeoutMs := int(l.opts.pollTimeout / time.Millisecond)
	for !l.stopping.Load() {
		if _, err := l.poller.PollIO(timeoutMs); err != nil {
			return err
		}
	}
	return nil
}

// Stop requests that Run return as soon as possible. It is safe to call
// from a signal-handling goroutine: it only ever flips an atomic flag and
// nudges the poller awake via the wake fd, never touching loop-owned state
// directly.
func (l *Loop) Stop() {
	if l.stopping.CompareAndSwap(false, true) {
		// 8 bytes: an eventfd write must carry a full 64-bit counter value;
		// the darwin self-pipe doesn't care.
		_, _ = writeFD(l.wakeWriteFd, []byte{1, 0, 0, 0, 0, 0, 0, 0})
	}
}

// Stopping reports whether Stop has been called; Conn callbacks consult
// this to decide whether a completed request should close instead of
// reissuing, even under keepalive.
func (l *Loop) Stopping() bool {
	return l.stopping.Load()
}

// Close releases the loop's own resources (the poller and the wake fd).
// It does not close any registered Conn; callers tear those down first.
func (l *Loop) Close() error {
	if l.wakeReadFd >= 0 {
		_ = l.poller.UnregisterFD(l.wakeReadFd)
	}
	_ = closeWakeFd(l.wakeReadFd, l.wakeWriteFd)
	return l.poller.Close()
}

package engine

import (
	"errors"
	"net"
	"time"

	"github.com/joeycumines/go-kvbench/internal/resp"
)

// State is a Conn's position in the request/reply state machine described
// below.
type State int

const (
	StateConnecting State = iota
	StateSending
	StateReading
	StateClosed
)

// Session is the scheduler-side hook set a Conn calls back into at each
// transition point of its state machine. internal/pool implements this.
type Session interface {
	// PrepareRequest returns the next outbound command for c, called once
	// immediately after a Conn becomes connected and again after each
	// keepalive reply completes.
	PrepareRequest(c *Conn) []byte

	// RequestComplete is invoked once c's in-flight reply has been fully
	// parsed; latency is already clamped to [0, 5000ms]. The return value
	// decides whether c is reset and reissued (true) or closed (false).
	RequestComplete(c *Conn, latency time.Duration, reply resp.Value) (keepalive bool)

	// Closed is invoked exactly once when c is torn down. err is nil for an
	// ordinary keepalive=false close after a completed request.
	Closed(c *Conn, err error)
}

// Conn drives one client's non-blocking socket through
// CONNECTING -> SENDING -> READING -> (SENDING | closed).
// It is only ever touched from the Loop's single goroutine.
type Conn struct {
	fd      int
	handle  Handle
	loop    *Loop
	session Session

	state State

	out    []byte
	outOff int

	parser    resp.Parser
	startTime time.Time

	closed bool
}

// Dial creates a non-blocking connection to addr and registers it with
// loop. The Conn enters StateConnecting; once connected, session.
// PrepareRequest supplies its first command.
func Dial(loop *Loop, addr *net.TCPAddr, session Session) (*Conn, error) {
	// dialNonblocking's done result is only a hint for platforms (loopback, mostly) where
	// connect() can succeed synchronously; either way the first writable
	// event is what actually drives the CONNECTING -> SENDING transition,
	// via socketError in handleConnected.
	fd, _, err := dialNonblocking(addr)
	if err != nil {
		return nil, &ConnectError{Endpoint: addr.String(), Cause: err}
	}

	c := &Conn{fd: fd, loop: loop, session: session, state: StateConnecting}
	c.handle = loop.registry.Register(c)

	if err := loop.poller.RegisterFD(fd, EventWrite, c.dispatch); err != nil {
		_ = socketClose(fd)
		loop.registry.Release(c.handle)
		return nil, err
	}
	return c, nil
}

// dispatch is the poller callback registered for this Conn's fd. It routes
// readiness events to the state machine; loop.poller is level-triggered, so
// re-arming for the next direction is explicit at every transition.
func (c *Conn) dispatch(events IOEvents) {
	if c.closed {
		return
	}
	if events&EventError != 0 {
		c.fail(errors.New("engine: socket error"))
		return
	}
	switch c.state {
	case StateConnecting:
		c.handleConnected()
	case StateSending:
		if events&EventWrite != 0 {
			c.handleWritable()
		}
	case StateReading:
		if events&(EventRead|EventHangup) != 0 {
			c.handleReadable()
		}
	}
}

func (c *Conn) handleConnected() {
	if err := socketError(c.fd); err != nil {
		c.fail(&ConnectError{Cause: err})
		return
	}

	c.startTime = c.loop.now()
	c.out = c.session.PrepareRequest(c)
	c.outOff = 0
	c.state = StateSending

	if len(c.out) == 0 {
		// IDLE op: nothing to send, go straight to waiting on the next tick.
		c.state = StateReading
		if err := c.loop.poller.ModifyFD(c.fd, EventRead); err != nil {
			c.fail(err)
		}
		return
	}

	c.handleWritable()
}

func (c *Conn) handleWritable() {
	for c.outOff < len(c.out) {
		n, err := socketWrite(c.fd, c.out[c.outOff:])
		if err != nil {
			if isWouldBlock(err) {
				return
			}
			if errors.Is(err, errEPIPE) {
				c.fail(nil)
				return
			}
			c.fail(err)
			return
		}
		if n == 0 {
			return
		}
		c.outOff += n
	}

	c.parser.Reset()
	c.state = StateReading
	if err := c.loop.poller.ModifyFD(c.fd, EventRead); err != nil {
		c.fail(err)
	}
}

func (c *Conn) handleReadable() {
	var buf [4096]byte
	for {
		n, err := socketRead(c.fd, buf[:])
		if n > 0 {
			done, perr := c.parser.Feed(buf[:n])
			if perr != nil {
				c.fail(&ProtocolError{Cause: perr})
				return
			}
			if done {
				c.completeRequest()
				return
			}
		}
		if err != nil {
			if isWouldBlock(err) {
				return
			}
			c.fail(err)
			return
		}
		if n == 0 {
			c.fail(nil) // EOF
			return
		}
	}
}

func (c *Conn) completeRequest() {
	latency := clampLatency(c.loop.now().Sub(c.startTime))
	value := c.parser.Value()

	keepalive := c.session.RequestComplete(c, latency, value)
	if c.closed {
		return
	}
	if !keepalive {
		c.Close(nil)
		return
	}

	c.out = c.session.PrepareRequest(c)
	c.outOff = 0
	c.parser.Reset()
	c.state = StateSending
	c.startTime = c.loop.now()

	if len(c.out) == 0 {
		c.state = StateReading
		if err := c.loop.poller.ModifyFD(c.fd, EventRead); err != nil {
			c.fail(err)
		}
		return
	}

	if err := c.loop.poller.ModifyFD(c.fd, EventWrite); err != nil {
		c.fail(err)
		return
	}
	c.handleWritable()
}

func clampLatency(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	const max = 5000 * time.Millisecond
	if d > max {
		return max
	}
	return d
}

func (c *Conn) fail(err error) {
	c.Close(err)
}

// Close tears down the connection, unregistering it from the poller and
// releasing its registry slot so any in-flight callback that still holds
// this Conn's Handle will observe a stale lookup.
func (c *Conn) Close(err error) {
	if c.closed {
		return
	}
	c.closed = true
	c.state = StateClosed
	_ = c.loop.poller.UnregisterFD(c.fd)
	_ = socketClose(c.fd)
	c.loop.registry.Release(c.handle)
	c.session.Closed(c, err)
}

// Handle returns this Conn's registry handle.
func (c *Conn) Handle() Handle { return c.handle }

// State returns the connection's current state machine position.
func (c *Conn) State() State { return c.state }

// Package pool maintains the target number of live client connections and
// schedules each one's next operation.
package pool

import (
	"errors"
	"net"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-kvbench/internal/distribution"
	"github.com/joeycumines/go-kvbench/internal/engine"
	"github.com/joeycumines/go-kvbench/internal/histogram"
	"github.com/joeycumines/go-kvbench/internal/keystream"
	"github.com/joeycumines/go-kvbench/internal/optab"
	"github.com/joeycumines/go-kvbench/internal/payload"
	"github.com/joeycumines/go-kvbench/internal/resp"
)

// Config is the subset of benchmark configuration the scheduler needs to
// pick operations and keys and to know when the run is complete.
type Config struct {
	Endpoint      *net.TCPAddr
	Size          int // target live-client count, N
	Requests      uint64 // total request budget, R
	Keyspace      uint64 // K
	HashKeyspace  uint64 // H
	MinLen        uint64
	MaxLen        uint64
	Longtail      bool
	LongtailOrder int
	Keepalive     bool
	Check         bool
	Rand          bool
	Percentages   optab.Percentages
	Idle          bool
}

// Logger is the narrow logging surface Pool needs; internal/logging's
// logiface-backed adapter satisfies it, and tests can use a no-op stub.
type Logger interface {
	Warn(msg string, err error)
}

type requestMeta struct {
	op  optab.Op
	key uint64
}

// Pool owns the live-client registry and scheduling logic: it implements
// engine.Session and is registered once per Conn via engine.Dial.
type Pool struct {
	cfg   Config
	loop  *engine.Loop
	hist  *histogram.Histogram
	rng   *keystream.Stream // general-purpose uniform source, distinct from the per-key Keystream instances payload.Generate creates
	table optab.Table
	log   Logger

	meta map[*engine.Conn]requestMeta

	issued   uint64
	done     bool
	fatalErr error

	// stop is the graceful-halt latch. Everything else on Pool is owned by
	// the loop goroutine; stop alone may be set from a signal-handling (or
	// context-watching) goroutine, so it is atomic, mirroring Loop.Stop.
	stop atomic.Bool
}

// New constructs a Pool. rng is the general-purpose PRNG seeded from the
// benchmark's configured seed; it must be distinct from any Keystream used
// for payload content so integrity-mode payloads stay reproducible
// regardless of how many other draws happen.
func New(cfg Config, loop *engine.Loop, hist *histogram.Histogram, rng *keystream.Stream, log Logger) *Pool {
	table := optab.Build(cfg.Percentages)
	if cfg.Idle {
		table = optab.IdleTable()
	}
	return &Pool{
		cfg:   cfg,
		loop:  loop,
		hist:  hist,
		rng:   rng,
		table: table,
		log:   log,
		meta:  make(map[*engine.Conn]requestMeta),
	}
}

// Start dials the initial pool of connections. If no connection at all
// could be established, the first error is returned (a connect failure at
// startup is fatal); partial shortfalls during the run itself are handled
// by CreateMissing, which is tolerant.
func (p *Pool) Start() error {
	before := p.loop.Live()
	err := p.CreateMissing()
	if p.loop.Live() == before && err != nil {
		return err
	}
	return nil
}

// withinBudget reports whether another request may be put in flight given
// that inflight others already are. Every live client carries exactly one
// in-flight request, so dialing or reissuing is only allowed while the
// uncompleted budget exceeds the in-flight count, which keeps completed
// requests within the configured budget even when the pool size does not
// divide it evenly. A zero budget means none was configured and the gate
// is disabled.
func (p *Pool) withinBudget(inflight int) bool {
	if p.cfg.Requests == 0 {
		return true
	}
	if p.issued >= p.cfg.Requests {
		return false
	}
	return uint64(inflight) < p.cfg.Requests-p.issued
}

// CreateMissing tops up the live-client count to cfg.Size: called at
// startup, whenever a client closes without keepalive reuse, and after
// each keepalive completion that freed a slot.
func (p *Pool) CreateMissing() error {
	var firstErr error
	for !p.winding() && p.loop.Live() < p.cfg.Size &&
		(p.cfg.Idle || p.withinBudget(p.loop.Live())) {
		if _, err := engine.Dial(p.loop, p.cfg.Endpoint, p); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			if p.log != nil {
				p.log.Warn("connect failed, pool will retry on next replenishment", err)
			}
			break
		}
	}
	return firstErr
}

// PrepareRequest implements engine.Session.
func (p *Pool) PrepareRequest(c *engine.Conn) []byte {
	bucket := int(p.rng.Uint64() % 100)
	op := p.table.Pick(bucket)

	k := distribution.NextKey(p.rng, p.cfg.Keyspace, p.cfg.Longtail, p.cfg.LongtailOrder)
	h := distribution.NextKey(p.rng, p.cfg.HashKeyspace, p.cfg.Longtail, p.cfg.LongtailOrder)

	p.meta[c] = requestMeta{op: op, key: k}

	var body []byte
	switch op {
	case optab.Set, optab.LPush, optab.HSet:
		body = payload.Generate(k, payload.Options{
			Min:   p.cfg.MinLen,
			Max:   p.cfg.MaxLen,
			Check: p.cfg.Check,
			Rand:  p.cfg.Rand,
		}, p.rng)
	}

	var w resp.Writer
	resp.Command(&w, op, k, h, body)
	return w.Bytes()
}

// RequestComplete implements engine.Session.
func (p *Pool) RequestComplete(c *engine.Conn, latency time.Duration, reply resp.Value) bool {
	meta := p.meta[c]
	delete(p.meta, c)

	if p.cfg.Check && meta.op == optab.Get && reply.Kind == resp.KindBulk && !reply.IsNilBulk {
		if !payload.Verify(meta.key, p.cfg.MinLen, p.cfg.MaxLen, reply.Bulk) {
			p.fatal(&engine.IntegrityError{
				KeyID:      meta.key,
				WantLength: len(payload.Expected(meta.key, p.cfg.MinLen, p.cfg.MaxLen)),
				GotLength:  len(reply.Bulk),
			})
		}
	}

	p.hist.Record(int64(latency / time.Millisecond))
	p.issued++
	if p.issued >= p.cfg.Requests {
		p.done = true
	}

	if p.winding() {
		return false
	}
	// The other live clients' in-flight requests may already cover the rest
	// of the budget; reissuing here would overshoot it.
	others := p.loop.Live() - 1
	if others < 0 {
		others = 0
	}
	if !p.withinBudget(others) {
		return false
	}
	if p.cfg.Keepalive {
		_ = p.CreateMissing()
	}
	return p.cfg.Keepalive
}

// Closed implements engine.Session. A protocol violation is fatal: it
// indicates a version mismatch or buffer corruption, not an ordinary
// connection loss, so it stops the run instead of being folded into pool
// replenishment.
func (p *Pool) Closed(c *engine.Conn, err error) {
	delete(p.meta, c)

	var protoErr *engine.ProtocolError
	if errors.As(err, &protoErr) {
		p.fatal(err)
		return
	}

	if err != nil && p.log != nil {
		p.log.Warn("client connection closed", err)
	}

	if p.winding() {
		// The run is winding down (budget met, fatal error, or an external
		// Stop): the loop halts once every live client has either completed
		// its final reply or been torn down.
		if p.loop.Live() == 0 {
			p.loop.Stop()
		}
		return
	}
	_ = p.CreateMissing()
}

// winding reports whether the run is winding down for any reason: budget
// met, fatal error, graceful Stop requested, or the loop itself stopping.
func (p *Pool) winding() bool {
	return p.done || p.fatalErr != nil || p.stop.Load() || p.loop.Stopping()
}

// Stop requests a graceful halt: no further requests are issued and no
// replenishment dials happen, but clients already in flight are left to
// finish naturally, which is the first-SIGINT latch behavior. The
// event loop itself only stops once every live client has drained (see
// Closed), not the instant Stop is called. Safe to call from any
// goroutine.
func (p *Pool) Stop() {
	p.stop.Store(true)
}

func (p *Pool) fatal(err error) {
	if p.fatalErr == nil {
		p.fatalErr = err
	}
	p.loop.Stop()
}

// Err returns the first fatal error observed (protocol violation or
// integrity mismatch), or nil if the run completed cleanly.
func (p *Pool) Err() error {
	return p.fatalErr
}

// Issued returns the number of requests that have completed so far.
func (p *Pool) Issued() uint64 {
	return p.issued
}

// Done reports whether the configured request budget has been met.
func (p *Pool) Done() bool {
	return p.done
}

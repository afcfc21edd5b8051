// Package bench binds configuration, initializes the engine/pool/histogram
// trio, and runs one benchmark pass.
// cmd/kvbench owns argument parsing, signal plumbing, and the outer -loop
// repetition; this package owns exactly one pass from "dial the pool" to
// "every client has drained".
package bench

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/joeycumines/go-kvbench/internal/engine"
	"github.com/joeycumines/go-kvbench/internal/histogram"
	"github.com/joeycumines/go-kvbench/internal/keystream"
	"github.com/joeycumines/go-kvbench/internal/optab"
	"github.com/joeycumines/go-kvbench/internal/pool"
	"github.com/joeycumines/go-kvbench/internal/report"
)

// Config is the full, resolved benchmark configuration: the CLI layer's
// job is to produce one of these from flags and clamps.
type Config struct {
	Endpoint      *net.TCPAddr
	Clients       int
	Requests      uint64
	MinLen        uint64
	MaxLen        uint64
	Keyspace      uint64
	HashKeyspace  uint64
	Percentages   optab.Percentages
	Longtail      bool
	LongtailOrder int
	Keepalive     bool
	Check         bool
	Rand          bool
	Idle          bool
	Quiet         bool
	Debug         bool
	Seed          uint32

	Logger      pool.Logger
	Clock       func() time.Time
	PollTimeout time.Duration
}

// Result is one pass's outcome: the metadata the report header needs and
// an immutable snapshot of the latency distribution it accumulated.
type Result struct {
	Meta     report.Meta
	Snapshot histogram.Snapshot
}

// Run executes exactly one benchmark pass: it dials the initial client
// pool, drives the event loop until the request budget is met or ctx is
// canceled, and returns the resulting report data. A canceled ctx causes a
// graceful drain identical to the SIGINT latch: in-flight
// requests complete, but no client is reissued or replaced.
func Run(ctx context.Context, cfg Config, out io.Writer) (Result, error) {
	rng := keystream.New(uint64(cfg.Seed))
	if _, err := fmt.Fprintf(out, "PRNG seed is: %d\n", cfg.Seed); err != nil {
		return Result{}, err
	}

	hist := histogram.New()
	if cfg.Debug {
		hist = hist.WithLivePercentiles()
	}

	var loopOpts []engine.LoopOption
	if cfg.PollTimeout > 0 {
		loopOpts = append(loopOpts, engine.WithPollTimeout(cfg.PollTimeout))
	}
	if cfg.Clock != nil {
		loopOpts = append(loopOpts, engine.WithClock(cfg.Clock))
	}

	loop, err := engine.NewLoop(loopOpts...)
	if err != nil {
		return Result{}, fmt.Errorf("bench: construct event loop: %w", err)
	}
	defer loop.Close()

	p := pool.New(pool.Config{
		Endpoint:      cfg.Endpoint,
		Size:          cfg.Clients,
		Requests:      cfg.Requests,
		Keyspace:      cfg.Keyspace,
		HashKeyspace:  cfg.HashKeyspace,
		MinLen:        cfg.MinLen,
		MaxLen:        cfg.MaxLen,
		Longtail:      cfg.Longtail,
		LongtailOrder: cfg.LongtailOrder,
		Keepalive:     cfg.Keepalive,
		Check:         cfg.Check,
		Rand:          cfg.Rand,
		Percentages:   cfg.Percentages,
		Idle:          cfg.Idle,
	}, loop, hist, rng, cfg.Logger)

	if err := p.Start(); err != nil {
		return Result{}, fmt.Errorf("bench: %w", err)
	}

	// A canceled ctx latches a graceful stop on the pool, not an immediate
	// loop.Stop(): in-flight requests finish naturally, and the loop only
	// returns once the pool observes Live()==0 (see pool.Pool.Closed).
	stopWatch := make(chan struct{})
	defer close(stopWatch)
	go func() {
		select {
		case <-ctx.Done():
			if cfg.Idle {
				// Idle clients have nothing in flight to drain.
				loop.Stop()
			} else {
				p.Stop()
			}
		case <-stopWatch:
		}
	}()

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	start := clock()

	if err := loop.Run(); err != nil {
		return Result{}, fmt.Errorf("bench: event loop: %w", err)
	}
	elapsed := clock().Sub(start)

	if err := p.Err(); err != nil {
		return Result{}, err
	}

	if cfg.Debug && !cfg.Quiet {
		if _, err := fmt.Fprintf(out, "latency estimate: p50=%.1fms p90=%.1fms p99=%.1fms\n",
			hist.LiveQuantile(0), hist.LiveQuantile(1), hist.LiveQuantile(2)); err != nil {
			return Result{}, err
		}
	}

	meta := report.Meta{
		Issued:    p.Issued(),
		Elapsed:   elapsed,
		Clients:   cfg.Clients,
		MinLen:    cfg.MinLen,
		MaxLen:    cfg.MaxLen,
		Keepalive: cfg.Keepalive,
		Quiet:     cfg.Quiet,
	}
	return Result{Meta: meta, Snapshot: hist.Snapshot()}, nil
}

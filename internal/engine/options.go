package engine

import "time"

// loopOptions holds configuration applied when constructing a Loop.
type loopOptions struct {
	pollTimeout time.Duration
	clock       func() time.Time
}

// LoopOption configures a Loop instance.
type LoopOption interface {
	applyLoop(*loopOptions) error
}

type loopOptionFunc func(*loopOptions) error

func (f loopOptionFunc) applyLoop(o *loopOptions) error { return f(o) }

// WithPollTimeout sets the maximum time PollIO blocks waiting for readiness
// when there is no other work pending. The default is 100ms: short enough
// that Stop (and the SIGINT latch) is noticed promptly, long enough not to
// busy-loop an idle benchmark.
func WithPollTimeout(d time.Duration) LoopOption {
	return loopOptionFunc(func(o *loopOptions) error {
		o.pollTimeout = d
		return nil
	})
}

// WithClock overrides the source of wall-clock time the Loop uses for
// request start/latency timestamps. Tests substitute a deterministic clock;
// production code leaves this unset and gets time.Now.
func WithClock(clock func() time.Time) LoopOption {
	return loopOptionFunc(func(o *loopOptions) error {
		o.clock = clock
		return nil
	})
}

func resolveLoopOptions(opts []LoopOption) (*loopOptions, error) {
	cfg := &loopOptions{
		pollTimeout: 100 * time.Millisecond,
		clock:       time.Now,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyLoop(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

package main

import (
	"fmt"

	"github.com/joeycumines/go-kvbench/internal/distribution"
	"github.com/joeycumines/go-kvbench/internal/optab"
)

// options holds every field the CLI grammar can set, before
// resolution into a bench.Config (which needs a live net.TCPAddr and a
// concrete logger/clock, neither of which the flag layer owns).
type options struct {
	host string
	port int

	clients  int
	requests uint64

	keepalive bool

	minDataSize uint64
	maxDataSize uint64

	keyspace     uint64
	hashKeyspace uint64

	seed     uint32
	seedSet  bool
	percents optab.Percentages

	rand          bool
	check         bool
	longtail      bool
	longtailOrder int

	quiet bool
	loop  bool
	idle  bool
	debug bool
	help  bool
}

func defaultOptions() options {
	return options{
		host:          "127.0.0.1",
		port:          6379,
		clients:       50,
		requests:      10000,
		keepalive:     true,
		minDataSize:   1,
		maxDataSize:   64,
		keyspace:      100000,
		hashKeyspace:  1000,
		longtailOrder: distribution.MinOrder,
	}
}

// clampLen clamps a payload length option to [1, 2^20].
func clampLen(v uint64) uint64 {
	const maxPayload = 1 << 20
	switch {
	case v < 1:
		return 1
	case v > maxPayload:
		return maxPayload
	default:
		return v
	}
}

// usageError is a configuration-grammar mistake: an unknown token, a
// missing argument, or an out-of-range value. cmd/kvbench prints usage and
// exits 1 for any of these.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

// parseArgs implements the CLI grammar: bare
// "keyword value" pairs and flag-only switches, freely interleaved (not
// GNU dash-prefixed options; this benchmark's own invocation style
// predates that convention, and no CLI-flags library in the example pack
// models bare-keyword-pair parsing, so this is a small hand-rolled
// scanner; see DESIGN.md).
func parseArgs(args []string) (options, error) {
	opt := defaultOptions()

	next := func(i int) (string, error) {
		if i+1 >= len(args) {
			return "", &usageError{fmt.Sprintf("option %q requires a value", args[i])}
		}
		return args[i+1], nil
	}

	i := 0
	for i < len(args) {
		tok := args[i]
		switch tok {
		case "host":
			v, err := next(i)
			if err != nil {
				return opt, err
			}
			opt.host = v
			i += 2
		case "port":
			n, err := parseIntArg(args, i, next)
			if err != nil {
				return opt, err
			}
			opt.port = n
			i += 2
		case "clients":
			n, err := parseIntArg(args, i, next)
			if err != nil {
				return opt, err
			}
			opt.clients = n
			i += 2
		case "requests":
			n, err := parseUintArg(args, i, next)
			if err != nil {
				return opt, err
			}
			opt.requests = n
			i += 2
		case "keepalive":
			n, err := parseIntArg(args, i, next)
			if err != nil {
				return opt, err
			}
			opt.keepalive = n != 0
			i += 2
		case "mindatasize":
			n, err := parseUintArg(args, i, next)
			if err != nil {
				return opt, err
			}
			opt.minDataSize = clampLen(n)
			i += 2
		case "maxdatasize":
			n, err := parseUintArg(args, i, next)
			if err != nil {
				return opt, err
			}
			opt.maxDataSize = clampLen(n)
			i += 2
		case "datasize":
			n, err := parseUintArg(args, i, next)
			if err != nil {
				return opt, err
			}
			opt.minDataSize = clampLen(n)
			opt.maxDataSize = clampLen(n)
			i += 2
		case "keyspace":
			n, err := parseUintArg(args, i, next)
			if err != nil {
				return opt, err
			}
			if n < 1 {
				return opt, &usageError{"keyspace must be >= 1"}
			}
			opt.keyspace = n
			i += 2
		case "hashkeyspace":
			n, err := parseUintArg(args, i, next)
			if err != nil {
				return opt, err
			}
			if n < 1 {
				return opt, &usageError{"hashkeyspace must be >= 1"}
			}
			opt.hashKeyspace = n
			i += 2
		case "seed":
			n, err := parseUintArg(args, i, next)
			if err != nil {
				return opt, err
			}
			opt.seed = uint32(n)
			opt.seedSet = true
			i += 2
		case "set":
			n, err := parsePercentArg(args, i, next)
			if err != nil {
				return opt, err
			}
			opt.percents.Set = n
			i += 2
		case "del":
			n, err := parsePercentArg(args, i, next)
			if err != nil {
				return opt, err
			}
			opt.percents.Del = n
			i += 2
		case "lpush":
			n, err := parsePercentArg(args, i, next)
			if err != nil {
				return opt, err
			}
			opt.percents.LPush = n
			i += 2
		case "lpop":
			n, err := parsePercentArg(args, i, next)
			if err != nil {
				return opt, err
			}
			opt.percents.LPop = n
			i += 2
		case "hset":
			n, err := parsePercentArg(args, i, next)
			if err != nil {
				return opt, err
			}
			opt.percents.HSet = n
			i += 2
		case "hget":
			n, err := parsePercentArg(args, i, next)
			if err != nil {
				return opt, err
			}
			opt.percents.HGet = n
			i += 2
		case "hgetall":
			n, err := parsePercentArg(args, i, next)
			if err != nil {
				return opt, err
			}
			opt.percents.HGetAll = n
			i += 2
		case "swapin":
			n, err := parsePercentArg(args, i, next)
			if err != nil {
				return opt, err
			}
			opt.percents.SwapIn = n
			i += 2
		case "longtailorder":
			n, err := parseIntArg(args, i, next)
			if err != nil {
				return opt, err
			}
			if n < distribution.MinOrder || n > distribution.MaxOrder {
				return opt, &usageError{fmt.Sprintf("longtailorder must be in [%d,%d]", distribution.MinOrder, distribution.MaxOrder)}
			}
			opt.longtailOrder = n
			i += 2
		case "rand":
			opt.rand = true
			i++
		case "check":
			opt.check = true
			i++
		case "longtail":
			opt.longtail = true
			i++
		case "big":
			opt.keyspace = 1000000
			opt.requests = 1000000
			i++
		case "verybig":
			opt.keyspace = 10000000
			opt.requests = 10000000
			i++
		case "quiet":
			opt.quiet = true
			i++
		case "loop":
			opt.loop = true
			i++
		case "idle":
			opt.idle = true
			i++
		case "debug":
			opt.debug = true
			i++
		case "help":
			opt.help = true
			i++
		default:
			return opt, &usageError{fmt.Sprintf("unknown option %q", tok)}
		}
	}

	return opt, nil
}

func parseIntArg(args []string, i int, next func(int) (string, error)) (int, error) {
	v, err := next(i)
	if err != nil {
		return 0, err
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return 0, &usageError{fmt.Sprintf("option %q: %q is not an integer", args[i], v)}
	}
	return n, nil
}

func parseUintArg(args []string, i int, next func(int) (string, error)) (uint64, error) {
	v, err := next(i)
	if err != nil {
		return 0, err
	}
	var n uint64
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return 0, &usageError{fmt.Sprintf("option %q: %q is not a non-negative integer", args[i], v)}
	}
	return n, nil
}

func parsePercentArg(args []string, i int, next func(int) (string, error)) (int, error) {
	n, err := parseIntArg(args, i, next)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > 100 {
		return 0, &usageError{fmt.Sprintf("option %q must be in [0,100]", args[i])}
	}
	return n, nil
}

const usageText = `usage: kvbench [option value ...] [switch ...]

options (take a value):
  host <addr>            server host (default 127.0.0.1)
  port <n>                server port (default 6379)
  clients <n>             number of parallel connections (default 50)
  requests <n>            total request budget (default 10000)
  keepalive <0|1>         reuse connections across requests (default 1)
  mindatasize <n>         minimum payload bytes (default 1)
  maxdatasize <n>         maximum payload bytes (default 64)
  datasize <n>            sets mindatasize and maxdatasize together
  keyspace <n>            primary keyspace size (default 100000)
  hashkeyspace <n>        hash-field keyspace size (default 1000)
  seed <n>                PRNG seed (default derived from clock/pid)
  set/del/lpush/lpop/hset/hget/hgetall/swapin <0-100>
                          operation mix percentages (remainder is GET)
  longtailorder <2-100>   long-tail shaping order (default 2)

switches (no value):
  rand        key-dependent payload content, independent length
  check       content-addressed payload, verified on GET
  longtail    skew key access toward low ids
  big         keyspace=requests=1000000
  verybig     keyspace=requests=10000000
  quiet       only print the final requests-per-second line
  loop        repeat the whole benchmark pass indefinitely
  idle        open connections but issue no requests
  debug       enable live P50/P90/P99 percentile tracking
  help        print this message and exit 0
`

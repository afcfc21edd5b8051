// Package report formats a finished benchmark pass into the stdout report
// a header of run metadata, the cumulative latency
// distribution (one line per populated millisecond bucket), and a trailing
// requests-per-second summary. It is a pure formatter over a
// histogram.Snapshot plus run metadata, so it is unit-testable without a
// socket or an event loop.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/joeycumines/go-kvbench/internal/histogram"
)

// Meta is the run metadata the header line needs, independent of the
// latency distribution itself.
type Meta struct {
	Issued    uint64
	Elapsed   time.Duration
	Clients   int
	MinLen    uint64
	MaxLen    uint64
	Keepalive bool
	Quiet     bool
}

// RequestsPerSecond computes the throughput the header and trailer both
// report, guarding against a zero-duration pass.
func (m Meta) RequestsPerSecond() float64 {
	secs := m.Elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(m.Issued) / secs
}

// Write renders one pass's report to w. In Quiet mode only the trailing
// "requests per second" line is emitted; otherwise the full header and
// cumulative distribution precede it.
func Write(w io.Writer, snap histogram.Snapshot, meta Meta) error {
	rps := meta.RequestsPerSecond()

	if meta.Quiet {
		_, err := fmt.Fprintf(w, "%.2f requests per second\n", rps)
		return err
	}

	if _, err := fmt.Fprintf(w,
		"%d requests completed in %.2f seconds (%.2f requests per second)\n%d parallel clients\npayload bytes (min: %d, max: %d)\nkeep alive: %d\n\n",
		meta.Issued, meta.Elapsed.Seconds(), rps, meta.Clients,
		meta.MinLen, meta.MaxLen, boolToInt(meta.Keepalive),
	); err != nil {
		return err
	}

	var writeErr error
	snap.CumulativeBuckets(func(ms int, cumulative uint64) {
		if writeErr != nil {
			return
		}
		pct := 100 * float64(cumulative) / float64(snap.Sum)
		_, writeErr = fmt.Fprintf(w, "%.2f%% <= %d milliseconds\n", pct, ms)
	})
	if writeErr != nil {
		return writeErr
	}

	_, err := fmt.Fprintf(w, "%.2f requests per second\n", rps)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

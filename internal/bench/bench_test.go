package bench

import (
	"bytes"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/joeycumines/go-kvbench/internal/optab"
)

// fakeServer accepts connections and replies +OK to every inline command it
// receives, regardless of contents: a trivial stand-in server for
// write-heavy workloads.
func fakeServer(t *testing.T) *net.TCPAddr {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				buf := make([]byte, 4096)
				for {
					n, err := c.Read(buf)
					if n > 0 {
						if _, werr := c.Write([]byte("+OK\r\n")); werr != nil {
							return
						}
					}
					if err != nil {
						return
					}
				}
			}(conn)
		}
	}()

	return ln.Addr().(*net.TCPAddr)
}

func TestRunSmokeScenario(t *testing.T) {
	addr := fakeServer(t)

	cfg := Config{
		Endpoint:      addr,
		Clients:       1,
		Requests:      10,
		MinLen:        8,
		MaxLen:        8,
		Keyspace:      100,
		HashKeyspace:  10,
		Percentages:   optab.Percentages{Set: 100},
		Keepalive:     true,
		Seed:          42,
		PollTimeout:   5 * time.Millisecond,
	}

	var out bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := Run(ctx, cfg, &out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !strings.Contains(out.String(), "PRNG seed is: 42") {
		t.Fatalf("output missing seed echo: %q", out.String())
	}
	if result.Meta.Issued != 10 {
		t.Fatalf("Issued = %d, want 10", result.Meta.Issued)
	}
	if result.Snapshot.Sum != 10 {
		t.Fatalf("Snapshot.Sum = %d, want 10", result.Snapshot.Sum)
	}
}

func TestRunReconnectModeCompletesBudget(t *testing.T) {
	addr := fakeServer(t)

	cfg := Config{
		Endpoint:     addr,
		Clients:      5,
		Requests:     50,
		MinLen:       4,
		MaxLen:       4,
		Keyspace:     100,
		HashKeyspace: 10,
		Keepalive:    false,
		Seed:         7,
		PollTimeout:  5 * time.Millisecond,
	}

	var out bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := Run(ctx, cfg, &out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Meta.Issued != 50 {
		t.Fatalf("Issued = %d, want 50", result.Meta.Issued)
	}
}

func TestRunContextCancelDrainsGracefully(t *testing.T) {
	addr := fakeServer(t)

	cfg := Config{
		Endpoint:     addr,
		Clients:      2,
		Requests:     1_000_000,
		MinLen:       4,
		MaxLen:       4,
		Keyspace:     100,
		HashKeyspace: 10,
		Keepalive:    true,
		Seed:         1,
		PollTimeout:  5 * time.Millisecond,
	}

	var out bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	result, err := Run(ctx, cfg, &out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Meta.Issued == 0 {
		t.Fatal("Issued = 0, want at least a few completed requests before cancellation")
	}
	if result.Meta.Issued >= cfg.Requests {
		t.Fatalf("Issued = %d, want fewer than the full budget (run should have been canceled)", result.Meta.Issued)
	}
}

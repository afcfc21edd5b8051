package resp

import (
	"testing"

	"github.com/joeycumines/go-kvbench/internal/optab"
)

func build(op optab.Op, k, h uint64, payload []byte) string {
	var w Writer
	Command(&w, op, k, h, payload)
	return string(w.Bytes())
}

func TestCommandGet(t *testing.T) {
	if got, want := build(optab.Get, 42, 0, nil), "GET string:42\r\n"; got != want {
		t.Fatalf("GET = %q, want %q", got, want)
	}
}

func TestCommandSet(t *testing.T) {
	if got, want := build(optab.Set, 1, 0, []byte("ab")), "SET string:1 2\r\nab\r\n"; got != want {
		t.Fatalf("SET = %q, want %q", got, want)
	}
}

func TestCommandDelTouchesAllThreeNamespaces(t *testing.T) {
	got := build(optab.Del, 9, 0, nil)
	want := "DEL string:9 list:9 hash:9\r\n"
	if got != want {
		t.Fatalf("DEL = %q, want %q", got, want)
	}
}

func TestCommandHSetUsesKeyNamespaceForField(t *testing.T) {
	got := build(optab.HSet, 3, 5, []byte("v"))
	want := "HSET hash:3 key:5 1\r\nv\r\n"
	if got != want {
		t.Fatalf("HSET = %q, want %q", got, want)
	}
}

func TestCommandHGetAll(t *testing.T) {
	if got, want := build(optab.HGetAll, 11, 0, nil), "HGETALL hash:11\r\n"; got != want {
		t.Fatalf("HGETALL = %q, want %q", got, want)
	}
}

func TestCommandSwapIn(t *testing.T) {
	if got, want := build(optab.SwapIn, 4, 0, nil), "DEBUG SWAPIN string:4\r\n"; got != want {
		t.Fatalf("SWAPIN = %q, want %q", got, want)
	}
}

func TestCommandIdleEmitsNothing(t *testing.T) {
	if got := build(optab.Idle, 1, 1, nil); got != "" {
		t.Fatalf("IDLE = %q, want empty", got)
	}
}

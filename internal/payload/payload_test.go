package payload

import (
	"testing"

	"github.com/joeycumines/go-kvbench/internal/keystream"
)

func TestGenerateCheckIsDeterministicPerKey(t *testing.T) {
	opts := Options{Min: 1, Max: 64, Check: true}
	a := Generate(42, opts, keystream.New(0))
	b := Generate(42, opts, keystream.New(999)) // uniform source must be irrelevant in Check mode
	if string(a) != string(b) {
		t.Fatalf("Check-mode payload for the same key differed across calls")
	}
}

func TestGenerateCheckMatchesExpected(t *testing.T) {
	opts := Options{Min: 1, Max: 64, Check: true}
	got := Generate(7, opts, keystream.New(1))
	want := Expected(7, 1, 64)
	if string(got) != string(want) {
		t.Fatalf("Generate(Check) and Expected diverged for the same key")
	}
}

func TestGenerateRandDependsOnKeyNotLength(t *testing.T) {
	opts := Options{Min: 16, Max: 16, Rand: true}
	a := Generate(1, opts, keystream.New(0))
	b := Generate(2, opts, keystream.New(0))
	if string(a) == string(b) {
		t.Fatalf("Rand-mode content should differ between distinct key ids")
	}
	if len(a) != 16 || len(b) != 16 {
		t.Fatalf("fixed min=max=16 should always produce length 16, got %d and %d", len(a), len(b))
	}
}

func TestGenerateFillerIsRepeatedX(t *testing.T) {
	opts := Options{Min: 8, Max: 8}
	buf := Generate(5, opts, keystream.New(0))
	if len(buf) != 8 {
		t.Fatalf("filler length = %d, want 8", len(buf))
	}
	for i, b := range buf {
		if b != 'x' {
			t.Fatalf("filler byte %d = %q, want 'x'", i, b)
		}
	}
}

func TestVerifyAcceptsRegeneratedPayload(t *testing.T) {
	const key = uint64(123)
	written := Expected(key, 1, 64)
	if !Verify(key, 1, 64, written) {
		t.Fatalf("Verify rejected a payload identical to what Expected produces")
	}
}

func TestVerifyRejectsLengthMismatch(t *testing.T) {
	const key = uint64(123)
	written := Expected(key, 1, 64)
	truncated := written[:len(written)-1]
	if Verify(key, 1, 64, truncated) {
		t.Fatalf("Verify accepted a truncated payload")
	}
}

func TestVerifyRejectsContentMismatch(t *testing.T) {
	const key = uint64(123)
	written := Expected(key, 1, 64)
	if len(written) == 0 {
		t.Skip("regenerated payload happened to be zero-length")
	}
	corrupted := append([]byte(nil), written...)
	corrupted[0] ^= 0xFF
	if Verify(key, 1, 64, corrupted) {
		t.Fatalf("Verify accepted a payload with a corrupted byte")
	}
}

// Package keystream implements a seedable, RC4-like deterministic byte
// generator. It is not cryptographic: the only contract is that the same
// seed produces the same byte sequence on every run and every platform,
// which is what the payload generator and integrity check in the bench
// driver depend on.
package keystream

import "fmt"

// Stream is a seedable deterministic byte generator built on an RC4-style
// permutation. The zero value is usable but unseeded; call Seed before
// drawing bytes if reproducibility across runs matters.
//
// Stream is not safe for concurrent use; the bench driver is single-threaded
// by design (see internal/engine), so each in-flight request owns its own
// draw against a shared Stream without locking.
type Stream struct {
	s    [256]byte
	i, j uint8
}

// New returns a Stream seeded with seed.
func New(seed uint64) *Stream {
	s := &Stream{}
	s.Seed(seed)
	return s
}

// Seed resets the permutation to its fixed initial state and mixes seed's
// little-endian bytes into it.
//
// This intentionally XORs only the 8 bytes of seed into S[k%8] for
// k in [0,256) rather than running a full key-scheduling algorithm: two
// seeds that differ only in bits beyond those reachable through this mixing
// are indistinguishable. The contract is run-to-run reproducibility, not
// unpredictability, and the mixing scheme itself is part of that contract.
func (s *Stream) Seed(seed uint64) {
	s.s = identityPermutation
	var b [8]byte
	b[0] = byte(seed)
	b[1] = byte(seed >> 8)
	b[2] = byte(seed >> 16)
	b[3] = byte(seed >> 24)
	b[4] = byte(seed >> 32)
	b[5] = byte(seed >> 40)
	b[6] = byte(seed >> 48)
	b[7] = byte(seed >> 56)
	for k := 0; k < 256; k++ {
		s.s[k] ^= b[k%8]
	}
	s.i, s.j = 0, 0
}

// identityPermutation is the fixed initial state Seed starts from on every
// call: the same literal regardless of seed, by design (see Seed's doc).
var identityPermutation = func() (s [256]byte) {
	for k := range s {
		s[k] = byte(k)
	}
	return
}()

// Fill writes len(out) deterministic bytes into out, advancing the stream.
func (s *Stream) Fill(out []byte) {
	for k := range out {
		s.i++
		s.j += s.s[s.i]
		s.s[s.i], s.s[s.j] = s.s[s.j], s.s[s.i]
		out[k] = s.s[uint8(s.s[s.i]+s.s[s.j])]
	}
}

// Uint64 draws 8 bytes from the stream and composes them into a uint64,
// little-endian. It is the primitive Between and the key-access
// distribution generator build on.
func (s *Stream) Uint64() uint64 {
	var b [8]byte
	s.Fill(b[:])
	var v uint64
	for k := 0; k < 8; k++ {
		v |= uint64(b[k]) << (8 * k)
	}
	return v
}

// Between returns a deterministic integer in [lo, hi], inclusive, drawn from
// 8 bytes of the stream. It panics if hi < lo.
func (s *Stream) Between(lo, hi uint64) uint64 {
	if hi < lo {
		panic(fmt.Sprintf("keystream: between: hi (%d) < lo (%d)", hi, lo))
	}
	return lo + s.Uint64()%(hi-lo+1)
}

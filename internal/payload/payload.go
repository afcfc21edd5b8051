// Package payload generates the byte content for SET/LPUSH/HSET commands,
// and verifies it back on GET when integrity checking is enabled.
package payload

import "github.com/joeycumines/go-kvbench/internal/keystream"

// Uniform is the narrow uniform-draw surface payload needs from the
// general-purpose PRNG (distinct from the keystream used for content
// addressing, per the length-vs-content separation below).
type Uniform interface {
	Between(lo, hi uint64) uint64
}

// Options controls how a payload is generated for a given key identity.
type Options struct {
	Min   uint64 // minimum payload length, inclusive
	Max   uint64 // maximum payload length, inclusive
	Check bool   // content-addressed: both length and bytes are a pure function of the key id
	Rand  bool   // content depends on the key id, but length is drawn independently
}

// Generate returns the payload bytes for key id k, following the three
// branches the benchmark supports:
//
//   - Check: seed = k, length and bytes both come from a Keystream seeded
//     with k. Regenerating with the same k always reproduces the same
//     (length, bytes) pair, which is what the integrity check relies on.
//   - Rand: length is drawn from the general-purpose uniform source, but
//     bytes come from a Keystream seeded with k, so content (not length)
//     depends on the key id.
//   - Filler: length is drawn uniformly, content is 'x' repeated: cheap
//     and highly compressible, for plain throughput runs.
func Generate(k uint64, opts Options, uniform Uniform) []byte {
	switch {
	case opts.Check:
		stream := keystream.New(k)
		length := stream.Between(opts.Min, opts.Max)
		buf := make([]byte, length)
		stream.Fill(buf)
		return buf
	case opts.Rand:
		length := uniform.Between(opts.Min, opts.Max)
		stream := keystream.New(k)
		buf := make([]byte, length)
		stream.Fill(buf)
		return buf
	default:
		length := uniform.Between(opts.Min, opts.Max)
		buf := make([]byte, length)
		for i := range buf {
			buf[i] = 'x'
		}
		return buf
	}
}

// Expected regenerates the length and bytes a Check-mode SET for key id k
// would have written, for comparison against a later GET's reply.
func Expected(k uint64, min, max uint64) []byte {
	stream := keystream.New(k)
	length := stream.Between(min, max)
	buf := make([]byte, length)
	stream.Fill(buf)
	return buf
}

// Verify reports whether got (the bytes returned by a GET) matches the
// payload that would have been written by a Check-mode SET of key id k. A
// mismatch in either length or content is a failure; the exact byte count
// is compared against the regenerated bytes only, not any wire padding.
func Verify(k uint64, min, max uint64, got []byte) bool {
	want := Expected(k, min, max)
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

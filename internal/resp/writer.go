// Package resp formats outbound commands and incrementally parses inbound
// replies for the text-framed request/reply protocol the benchmarked server
// speaks: inline commands, bulk strings, integers, status/error lines, and
// multi-bulk arrays.
package resp

import "strconv"

// Writer accumulates one outbound command as a growing byte buffer. Reset
// lets a Writer be reused without reallocating; internal/pool builds each
// command in a fresh Writer.
type Writer struct {
	buf []byte
}

// Reset empties the buffer, keeping its backing array, readying the Writer
// for the next command.
func (w *Writer) Reset() {
	w.buf = w.buf[:0]
}

// Bytes returns the accumulated command bytes. The slice is only valid
// until the next Reset or append call.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Token appends a bare argument followed by a single space, for inline
// command forms such as "GET string:42 ".
func (w *Writer) Token(s string) *Writer {
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, ' ')
	return w
}

// Uint appends a decimal integer argument followed by a space.
func (w *Writer) Uint(v uint64) *Writer {
	w.buf = strconv.AppendUint(w.buf, v, 10)
	w.buf = append(w.buf, ' ')
	return w
}

// Bulk appends payload as a length-prefixed bulk argument:
// "<len>\r\n<bytes>". The length line lets the server read a payload that
// may itself contain spaces or CRLF.
func (w *Writer) Bulk(payload []byte) *Writer {
	w.buf = strconv.AppendUint(w.buf, uint64(len(payload)), 10)
	w.buf = append(w.buf, '\r', '\n')
	w.buf = append(w.buf, payload...)
	return w
}

// End terminates the command with the trailing \r\n every inline command
// requires, trimming the final token's trailing space first.
func (w *Writer) End() *Writer {
	if n := len(w.buf); n > 0 && w.buf[n-1] == ' ' {
		w.buf = w.buf[:n-1]
	}
	w.buf = append(w.buf, '\r', '\n')
	return w
}

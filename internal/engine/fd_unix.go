//go:build linux || darwin

package engine

import (
	"golang.org/x/sys/unix"
)

// readFD and writeFD are the raw fd I/O primitives the Loop's wake
// mechanism uses; distinct from socketRead/socketWrite only so the wake
// path never accidentally picks up socket-specific semantics.

func readFD(fd int, buf []byte) (int, error) {
	return unix.Read(fd, buf)
}

func writeFD(fd int, buf []byte) (int, error) {
	return unix.Write(fd, buf)
}

//go:build darwin

package engine

import (
	"golang.org/x/sys/unix"
)

// createWakeFd creates the Loop's cross-goroutine wake mechanism. Darwin
// has no eventfd, so a non-blocking self-pipe stands in: Stop writes a
// byte to the write end, the read end is registered with the poller like
// any other readable fd.
func createWakeFd() (readFd, writeFd int, err error) {
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		return -1, -1, err
	}
	for _, fd := range fds {
		unix.CloseOnExec(fd)
		if err := unix.SetNonblock(fd, true); err != nil {
			_ = unix.Close(fds[0])
			_ = unix.Close(fds[1])
			return -1, -1, err
		}
	}
	return fds[0], fds[1], nil
}

func closeWakeFd(readFd, writeFd int) error {
	if readFd >= 0 {
		_ = unix.Close(readFd)
	}
	if writeFd >= 0 && writeFd != readFd {
		_ = unix.Close(writeFd)
	}
	return nil
}

//go:build linux

package engine

import (
	"golang.org/x/sys/unix"
)

// createWakeFd creates the Loop's cross-goroutine wake mechanism. On Linux
// a single non-blocking eventfd serves as both the read and write end.
func createWakeFd() (readFd, writeFd int, err error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return -1, -1, err
	}
	return fd, fd, nil
}

func closeWakeFd(readFd, writeFd int) error {
	if readFd >= 0 {
		return unix.Close(readFd)
	}
	return nil
}

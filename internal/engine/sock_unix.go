//go:build linux || darwin

package engine

import (
	"errors"
	"net"

	"golang.org/x/sys/unix"
)

// dialNonblocking creates a non-blocking TCP socket and issues a connect to
// addr, returning immediately. done reports whether the connect finished
// synchronously (common for loopback); otherwise the caller must register
// the fd for writable readiness and call socketError once it fires. Nagle
// is disabled on every socket: the benchmark measures per-request latency,
// and a delayed small write would pollute it.
func dialNonblocking(addr *net.TCPAddr) (fd int, done bool, err error) {
	domain := unix.AF_INET
	if addr.IP.To4() == nil {
		domain = unix.AF_INET6
	}

	// Plain socket() then explicit SetNonblock: SOCK_NONBLOCK as a
	// socket() flag is Linux-only.
	fd, err = unix.Socket(domain, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return -1, false, err
	}
	unix.CloseOnExec(fd)
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return -1, false, err
	}

	_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)

	sa, err := toSockaddr(addr, domain)
	if err != nil {
		_ = unix.Close(fd)
		return -1, false, err
	}

	err = unix.Connect(fd, sa)
	switch err {
	case nil:
		return fd, true, nil
	case unix.EINPROGRESS:
		return fd, false, nil
	default:
		_ = unix.Close(fd)
		return -1, false, err
	}
}

func toSockaddr(addr *net.TCPAddr, domain int) (unix.Sockaddr, error) {
	if domain == unix.AF_INET6 {
		var sa unix.SockaddrInet6
		copy(sa.Addr[:], addr.IP.To16())
		sa.Port = addr.Port
		return &sa, nil
	}
	var sa unix.SockaddrInet4
	copy(sa.Addr[:], addr.IP.To4())
	sa.Port = addr.Port
	return &sa, nil
}

// socketError reads and clears the pending error on fd, called once a
// CONNECTING socket's writable event fires.
func socketError(fd int) error {
	errno, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return err
	}
	if errno != 0 {
		return unix.Errno(errno)
	}
	return nil
}

func socketRead(fd int, buf []byte) (int, error) {
	return unix.Read(fd, buf)
}

func socketWrite(fd int, buf []byte) (int, error) {
	return unix.Write(fd, buf)
}

func socketClose(fd int) error {
	return unix.Close(fd)
}

var errEPIPE = unix.EPIPE

func isWouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK)
}

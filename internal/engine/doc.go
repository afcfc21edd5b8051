// Package engine implements the benchmark's event loop and per-connection
// state machine: a single-threaded, level-triggered readiness multiplexer
// (epoll on Linux, kqueue on Darwin) driving a pool of
// non-blocking client sockets, each progressing through
// CONNECTING -> SENDING -> READING -> (SENDING | closed).
//
// # Thread safety
//
// A Loop and every Conn registered on it are touched from exactly one
// goroutine: whichever calls Run. The only exception is Stop, which is
// safe to call from a signal-handling goroutine because it does nothing
// but flip an atomic flag and nudge the poller awake.
package engine

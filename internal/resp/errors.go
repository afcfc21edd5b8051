package resp

import "fmt"

// ErrProtocolViolation is returned by Feed when the reply stream cannot be
// classified as one of the five recognized reply kinds, or contains a
// malformed length field. This is fatal: the caller is
// expected to tear down the connection and surface a non-zero exit.
type ErrProtocolViolation struct {
	// Reason describes what made the byte stream unparseable.
	Reason string
}

func (e *ErrProtocolViolation) Error() string {
	return fmt.Sprintf("resp: protocol violation: %s", e.Reason)
}

func protocolError(reason string) error {
	return &ErrProtocolViolation{Reason: reason}
}

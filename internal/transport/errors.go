package transport

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected means send/receive was attempted with no active
	// connection.
	ErrNotConnected = errors.New("transport: not connected")

	// ErrAlreadyConnected means Connect was called on an active
	// connection.
	ErrAlreadyConnected = errors.New("transport: already connected")

	// ErrConnectionTimeout means connection establishment timed out.
	ErrConnectionTimeout = errors.New("transport: connection timeout")

	// ErrReadTimeout means no data arrived within the receive timeout.
	ErrReadTimeout = errors.New("transport: read timeout")

	// ErrConnectionClosed means a zero-length read indicated the peer
	// closed the connection.
	ErrConnectionClosed = errors.New("transport: connection closed by remote")
)

// InvalidAddressError indicates the remote address could not be
// resolved.
type InvalidAddressError struct {
	Addr   string
	Reason string
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("transport: invalid address %s: %s", e.Addr, e.Reason)
}

// Package transport implements the network transports used to reach
// ZKTeco terminals: bare UDP datagrams and TCP, with an optional
// magic-prefixed length-delimited wrapper some TCP firmwares require.
// The framing is applied here so the packet codec only ever sees raw
// protocol bytes.
package transport

import (
	"context"
	"time"
)

// Default timeouts for connection establishment and response reads.
const (
	DefaultConnectTimeout = 5 * time.Second
	DefaultReadTimeout    = 5 * time.Second
)

// Transport is a single logical connection to one terminal. A
// Transport is exclusively owned by one device/orchestrator at a time;
// there are never concurrent senders on one socket.
type Transport interface {
	// Connect establishes the connection. Fails with ErrAlreadyConnected
	// if a connection is active.
	Connect(ctx context.Context) error

	// Disconnect releases the connection. Safe to call when not connected.
	Disconnect() error

	// IsConnected reports whether a connection is active.
	IsConnected() bool

	// Send writes one outgoing frame.
	Send(data []byte) error

	// Receive reads one incoming frame, waiting at most timeout. A
	// timeout fails with ErrReadTimeout and leaves the connection in a
	// well-defined connected-but-idle state; it is the caller's choice
	// to disconnect.
	Receive(timeout time.Duration) ([]byte, error)

	// RemoteAddr returns the remote endpoint as host:port.
	RemoteAddr() string
}

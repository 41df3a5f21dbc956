package device

import (
	"errors"

	"github.com/zkgate-project/zkgate/internal/protocol"
	"github.com/zkgate-project/zkgate/internal/session"
	"github.com/zkgate-project/zkgate/internal/transport"
)

// IsRecoverable reports whether retrying the same operation on the
// same connection may succeed: timeouts, transient I/O failures and
// explicit device error acks. The core never retries on its own; this
// guides caller-level retry policy.
func IsRecoverable(err error) bool {
	if errors.Is(err, transport.ErrReadTimeout) ||
		errors.Is(err, transport.ErrConnectionTimeout) {
		return true
	}
	var devErr *protocol.DeviceError
	if errors.As(err, &devErr) {
		return true
	}
	// Remaining transport-level failures are I/O conditions worth one
	// more attempt.
	if errors.Is(err, transport.ErrConnectionClosed) {
		return true
	}
	return false
}

// RequiresReconnect reports whether the connection is no longer usable
// and the caller must disconnect and connect again.
func RequiresReconnect(err error) bool {
	if errors.Is(err, protocol.ErrSessionNotInitialized) ||
		errors.Is(err, transport.ErrConnectionClosed) ||
		errors.Is(err, transport.ErrNotConnected) {
		return true
	}
	var stateErr *session.InvalidStateError
	return errors.As(err, &stateErr)
}

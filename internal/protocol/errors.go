package protocol

import (
	"errors"
	"fmt"
)

// Sentinel errors for session and authentication conditions surfaced
// by the device layer.
var (
	// ErrSessionNotInitialized means a command was attempted before a
	// handshake completed.
	ErrSessionNotInitialized = errors.New("session not initialized: connect to device first")

	// ErrAuthenticationRequired means the device has a CommKey set and
	// no password was supplied.
	ErrAuthenticationRequired = errors.New("authentication required: device has a CommKey set")

	// ErrAuthenticationFailed means the device rejected the CommKey.
	ErrAuthenticationFailed = errors.New("authentication failed: incorrect CommKey")
)

// PacketTooShortError indicates a truncated frame of fewer than
// HeaderSize bytes.
type PacketTooShortError struct {
	Expected int
	Actual   int
}

func (e *PacketTooShortError) Error() string {
	return fmt.Sprintf("packet too short: expected at least %d bytes, got %d", e.Expected, e.Actual)
}

// ChecksumMismatchError indicates a corrupted frame or misapplied
// framing.
type ChecksumMismatchError struct {
	Expected uint16
	Received uint16
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected 0x%04X, received 0x%04X", e.Expected, e.Received)
}

// UnknownCommandError indicates a code outside the closed registry.
type UnknownCommandError struct {
	Code uint16
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command code: %d", e.Code)
}

// PayloadTooLargeError indicates a payload exceeding MaxPayloadSize.
type PayloadTooLargeError struct {
	Size int
	Max  int
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("payload too large: %d bytes (max %d)", e.Size, e.Max)
}

// DeviceError indicates the device answered with an explicit error ack.
type DeviceError struct {
	Command Command
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device returned error: %s", e.Command)
}

// UnexpectedResponseError indicates a response command that the
// current handshake or exchange state does not admit.
type UnexpectedResponseError struct {
	Command Command
}

func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("unexpected response: %s", e.Command)
}

// InvalidReplyIDError indicates a response whose reply id does not
// match the request that elicited it. Only produced when strict reply
// pairing is enabled; the reference firmware never guarantees pairing.
type InvalidReplyIDError struct {
	Expected uint16
	Actual   uint16
}

func (e *InvalidReplyIDError) Error() string {
	return fmt.Sprintf("invalid reply id: expected %d, got %d", e.Expected, e.Actual)
}

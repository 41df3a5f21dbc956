// Package device drives the connect/authenticate handshake and the
// half-duplex request/response exchange with one ZKTeco terminal. It
// is the surface the gateway's higher-level operations build on: a
// connect/disconnect pair, a connection-status query, and Execute.
package device

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/zkgate-project/zkgate/internal/protocol"
	"github.com/zkgate-project/zkgate/internal/session"
	"github.com/zkgate-project/zkgate/internal/transport"
)

// DefaultPort is the port ZKTeco terminals listen on.
const DefaultPort = 4370

// Config selects the transport and protocol options for one terminal.
type Config struct {
	Host string
	Port int // 0 means DefaultPort

	// Transport is "udp" (default, most devices) or "tcp".
	Transport string

	// TCPWrapper applies the magic-prefixed envelope on TCP. Ignored
	// for UDP.
	TCPWrapper bool

	// CommKey is the device access password (default 0).
	CommKey uint32

	// Timeout bounds connection establishment and each response read.
	// 0 means the transport defaults (5s).
	Timeout time.Duration

	// StrictReplyCheck rejects responses whose reply id differs from
	// the request's. Off by default: the reference firmware does not
	// guarantee pairing, and enabling this against such devices makes
	// every exchange fail.
	StrictReplyCheck bool
}

// Device is one logical connection to a terminal. The transport is
// exclusively owned; the session is shared by reference with any
// concurrent status readers. The protocol is strictly half-duplex:
// one request in flight, then one response, never pipelined.
type Device struct {
	transport   transport.Transport
	session     *session.Session
	timeout     time.Duration
	commKey     uint32
	strictReply bool
	logger      zerolog.Logger
}

// New creates a disconnected device from cfg.
func New(cfg Config) *Device {
	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = transport.DefaultReadTimeout
	}

	var tr transport.Transport
	if cfg.Transport == "tcp" {
		tr = transport.NewTCPTransport(cfg.Host, port).
			WithWrapper(cfg.TCPWrapper).
			WithConnectTimeout(timeout)
	} else {
		tr = transport.NewUDPTransport(cfg.Host, port)
	}

	return &Device{
		transport:   tr,
		session:     session.New(),
		timeout:     timeout,
		commKey:     cfg.CommKey,
		strictReply: cfg.StrictReplyCheck,
		logger: log.With().
			Str("component", "device").
			Str("remote", tr.RemoteAddr()).
			Logger(),
	}
}

// NewWithTransport creates a device over an existing transport. Used
// by tests and by callers that construct transports themselves.
func NewWithTransport(tr transport.Transport, cfg Config) *Device {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = transport.DefaultReadTimeout
	}
	return &Device{
		transport:   tr,
		session:     session.New(),
		timeout:     timeout,
		commKey:     cfg.CommKey,
		strictReply: cfg.StrictReplyCheck,
		logger: log.With().
			Str("component", "device").
			Str("remote", tr.RemoteAddr()).
			Logger(),
	}
}

// Session returns the shared session handle for concurrent status reads.
func (d *Device) Session() *session.Session {
	return d.session
}

// IsConnected reports whether both the transport and the session are up.
func (d *Device) IsConnected() bool {
	return d.session.IsConnected() && d.transport.IsConnected()
}

// RemoteAddr returns the terminal's address as host:port.
func (d *Device) RemoteAddr() string {
	return d.transport.RemoteAddr()
}

// Connect establishes the transport and runs the protocol handshake.
//
// CMD_CONNECT goes out with session id 0 and reply id 0. A success ack
// completes the handshake and its session id is adopted. CMD_ACK_UNAUTH
// carries the session id to authenticate against: the CommKey is
// scrambled with it and sent as the CMD_AUTH payload on that session.
func (d *Device) Connect(ctx context.Context) error {
	d.logger.Info().Msg("connecting")

	if err := d.transport.Connect(ctx); err != nil {
		return err
	}

	connect := protocol.NewPacket(protocol.CmdConnect, 0, 0)
	resp, err := d.roundTrip(connect)
	if err != nil {
		return err
	}

	switch {
	case resp.IsSuccess():
		if err := d.session.Initialize(resp.SessionID); err != nil {
			return err
		}
		d.logger.Info().Uint16("session_id", resp.SessionID).Msg("connected")
		return nil

	case resp.Command == protocol.AckUnauth:
		return d.authenticate(resp.SessionID)

	case resp.IsError():
		return &protocol.DeviceError{Command: resp.Command}

	default:
		return &protocol.UnexpectedResponseError{Command: resp.Command}
	}
}

// authenticate answers the CommKey challenge carried by CMD_ACK_UNAUTH.
func (d *Device) authenticate(sessionID uint16) error {
	d.logger.Info().Uint16("session_id", sessionID).Msg("device requires authentication")

	key := protocol.MakeCommKey(d.commKey, sessionID, protocol.DefaultTicks)
	auth := protocol.NewPacketWithPayload(protocol.CmdAuth, sessionID, 0, key[:])

	resp, err := d.roundTrip(auth)
	if err != nil {
		return err
	}

	switch {
	case resp.IsSuccess():
		if err := d.session.Initialize(resp.SessionID); err != nil {
			return err
		}
		if err := d.session.Authenticate(); err != nil {
			return err
		}
		d.logger.Info().Uint16("session_id", resp.SessionID).Msg("authenticated")
		return nil

	case resp.IsError():
		return protocol.ErrAuthenticationFailed

	default:
		return &protocol.UnexpectedResponseError{Command: resp.Command}
	}
}

// Disconnect notifies the terminal best-effort and always releases the
// transport and resets the session, whatever state they were in.
func (d *Device) Disconnect(ctx context.Context) error {
	if d.session.IsConnected() && d.transport.IsConnected() {
		exit := protocol.NewPacketWithPayload(
			protocol.CmdExit,
			d.session.SessionID(),
			d.session.NextReplyID(),
			nil,
		)
		if err := d.transport.Send(exit.Encode()); err != nil {
			d.logger.Warn().Err(err).Msg("failed to send CMD_EXIT")
		}
	}

	err := d.transport.Disconnect()
	d.session.Close()
	d.logger.Info().Msg("disconnected")
	return err
}

// Execute sends one command on the established session and returns the
// decoded response. This is the request/response primitive every
// higher-level operation uses; the core never retries, retry and
// backoff belong to the caller.
func (d *Device) Execute(ctx context.Context, cmd protocol.Command, payload []byte) (*protocol.Packet, error) {
	if !d.session.IsConnected() {
		return nil, protocol.ErrSessionNotInitialized
	}
	if len(payload) > protocol.MaxPayloadSize {
		return nil, &protocol.PayloadTooLargeError{Size: len(payload), Max: protocol.MaxPayloadSize}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	replyID := d.session.NextReplyID()
	req := protocol.NewPacketWithPayload(cmd, d.session.SessionID(), replyID, payload)

	resp, err := d.roundTrip(req)
	if err != nil {
		return nil, err
	}

	if d.strictReply && resp.ReplyID != replyID {
		return nil, &protocol.InvalidReplyIDError{Expected: replyID, Actual: resp.ReplyID}
	}

	return resp, nil
}

// roundTrip encodes and sends one packet, then reads and decodes
// exactly one response.
func (d *Device) roundTrip(req *protocol.Packet) (*protocol.Packet, error) {
	d.logger.Trace().Stringer("packet", req).Msg("sending")

	if err := d.transport.Send(req.Encode()); err != nil {
		return nil, err
	}

	buf, err := d.transport.Receive(d.timeout)
	if err != nil {
		return nil, err
	}

	resp, err := protocol.Decode(buf)
	if err != nil {
		return nil, fmt.Errorf("decoding response to %s: %w", req.Command, err)
	}

	d.logger.Trace().Stringer("packet", resp).Msg("received")
	return resp, nil
}

package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// udpBufferSize is large enough for any single datagram the terminals
// produce.
const udpBufferSize = 65535

// UDPTransport reaches a terminal over bare UDP datagrams, the most
// common mode on port 4370. Frames go out exactly as the codec
// produced them; there is no envelope.
type UDPTransport struct {
	mu sync.Mutex

	host string
	port int

	conn   *net.UDPConn
	remote string
	logger zerolog.Logger
}

// NewUDPTransport creates a disconnected UDP transport.
func NewUDPTransport(host string, port int) *UDPTransport {
	return &UDPTransport{
		host:   host,
		port:   port,
		logger: log.With().Str("component", "udp_transport").Str("host", host).Logger(),
	}
}

// Connect binds an ephemeral local port and fixes the remote endpoint
// for the lifetime of the logical connection.
func (t *UDPTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		return ErrAlreadyConnected
	}

	addr := net.JoinHostPort(t.host, fmt.Sprintf("%d", t.port))
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return &InvalidAddressError{Addr: addr, Reason: err.Error()}
	}

	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return fmt.Errorf("udp connect to %s: %w", addr, err)
	}

	_ = ctx // no handshake on UDP; the dial is local and immediate

	t.conn = conn
	t.remote = raddr.String()
	t.logger.Debug().Str("remote", t.remote).Msg("UDP connected")
	return nil
}

// Disconnect releases the socket. Safe when not connected.
func (t *UDPTransport) Disconnect() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return nil
	}

	err := t.conn.Close()
	t.conn = nil
	t.logger.Debug().Str("remote", t.remote).Msg("UDP disconnected")
	return err
}

// IsConnected reports whether the socket is open.
func (t *UDPTransport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}

// Send transmits one datagram.
func (t *UDPTransport) Send(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return ErrNotConnected
	}

	if _, err := t.conn.Write(data); err != nil {
		return fmt.Errorf("udp send: %w", err)
	}
	return nil
}

// Receive reads one datagram.
func (t *UDPTransport) Receive(timeout time.Duration) ([]byte, error) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		return nil, ErrNotConnected
	}

	if timeout > 0 {
		conn.SetReadDeadline(time.Now().Add(timeout))
	}

	buf := make([]byte, udpBufferSize)
	n, err := conn.Read(buf)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return nil, ErrReadTimeout
		}
		return nil, fmt.Errorf("udp receive: %w", err)
	}
	if n == 0 {
		return nil, ErrConnectionClosed
	}

	return buf[:n], nil
}

// RemoteAddr returns the remote endpoint as host:port.
func (t *UDPTransport) RemoteAddr() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.remote != "" {
		return t.remote
	}
	return net.JoinHostPort(t.host, fmt.Sprintf("%d", t.port))
}

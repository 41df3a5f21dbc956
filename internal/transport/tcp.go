package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// maxFrameSize bounds a single read: wrapper header plus the largest
// protocol frame.
const maxFrameSize = WrapHeaderSize + 65535

// TCPTransport is a TCP connection to one terminal. Devices that
// require the wrapper envelope get it applied transparently on send
// and stripped on receive.
type TCPTransport struct {
	mu sync.Mutex

	host string
	port int
	wrap bool

	conn           net.Conn
	remote         string
	connectTimeout time.Duration
	logger         zerolog.Logger
}

// NewTCPTransport creates a disconnected TCP transport.
func NewTCPTransport(host string, port int) *TCPTransport {
	return &TCPTransport{
		host:           host,
		port:           port,
		connectTimeout: DefaultConnectTimeout,
		logger:         log.With().Str("component", "tcp_transport").Str("host", host).Logger(),
	}
}

// WithWrapper enables the magic-prefixed length-delimited envelope.
func (t *TCPTransport) WithWrapper(wrap bool) *TCPTransport {
	t.wrap = wrap
	return t
}

// WithConnectTimeout overrides the connection establishment timeout.
func (t *TCPTransport) WithConnectTimeout(timeout time.Duration) *TCPTransport {
	t.connectTimeout = timeout
	return t
}

// Connect dials the terminal and disables send-coalescing so each
// request packet reaches the wire immediately.
func (t *TCPTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		return ErrAlreadyConnected
	}

	addr := net.JoinHostPort(t.host, fmt.Sprintf("%d", t.port))
	dialer := net.Dialer{Timeout: t.connectTimeout}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return ErrConnectionTimeout
		}
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) {
			return &InvalidAddressError{Addr: addr, Reason: dnsErr.Err}
		}
		return fmt.Errorf("tcp connect to %s: %w", addr, err)
	}

	if tc, ok := conn.(*net.TCPConn); ok {
		if err := tc.SetNoDelay(true); err != nil {
			t.logger.Warn().Err(err).Msg("failed to disable Nagle's algorithm")
		}
	}

	t.conn = conn
	t.remote = conn.RemoteAddr().String()
	t.logger.Debug().Str("remote", t.remote).Bool("wrapped", t.wrap).Msg("TCP connected")
	return nil
}

// Disconnect closes the connection. Safe when not connected.
func (t *TCPTransport) Disconnect() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return nil
	}

	err := t.conn.Close()
	t.conn = nil
	t.logger.Debug().Str("remote", t.remote).Msg("TCP disconnected")
	return err
}

// IsConnected reports whether a connection is active.
func (t *TCPTransport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}

// Send writes one protocol frame, wrapping it first when the device
// requires the envelope.
func (t *TCPTransport) Send(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return ErrNotConnected
	}

	if t.wrap {
		data = WrapTCP(data)
	}

	if _, err := t.conn.Write(data); err != nil {
		return fmt.Errorf("tcp send: %w", err)
	}
	return nil
}

// Receive reads one frame, stripping the wrapper envelope when present.
func (t *TCPTransport) Receive(timeout time.Duration) ([]byte, error) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		return nil, ErrNotConnected
	}

	if timeout > 0 {
		conn.SetReadDeadline(time.Now().Add(timeout))
	}

	buf := make([]byte, maxFrameSize)
	n, err := conn.Read(buf)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrConnectionClosed
		}
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return nil, ErrReadTimeout
		}
		return nil, fmt.Errorf("tcp receive: %w", err)
	}
	if n == 0 {
		return nil, ErrConnectionClosed
	}

	return UnwrapTCP(buf[:n]), nil
}

// RemoteAddr returns the remote endpoint as host:port.
func (t *TCPTransport) RemoteAddr() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.remote != "" {
		return t.remote
	}
	return net.JoinHostPort(t.host, fmt.Sprintf("%d", t.port))
}

package device

import (
	"bytes"
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zkgate-project/zkgate/internal/protocol"
	"github.com/zkgate-project/zkgate/internal/session"
)

// fakeTerminal emulates one terminal on loopback UDP. Each incoming
// packet is decoded and passed to the handler; a nil return sends no
// reply.
type fakeTerminal struct {
	conn    *net.UDPConn
	handler func(req *protocol.Packet) *protocol.Packet
}

func startFakeTerminal(t *testing.T, handler func(req *protocol.Packet) *protocol.Packet) *fakeTerminal {
	t.Helper()

	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)

	ft := &fakeTerminal{conn: conn, handler: handler}
	go ft.serve()
	t.Cleanup(func() { conn.Close() })
	return ft
}

func (ft *fakeTerminal) serve() {
	buf := make([]byte, 65535)
	for {
		n, addr, err := ft.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		req, err := protocol.Decode(buf[:n])
		if err != nil {
			continue
		}
		if resp := ft.handler(req); resp != nil {
			ft.conn.WriteToUDP(resp.Encode(), addr)
		}
	}
}

func (ft *fakeTerminal) port() int {
	return ft.conn.LocalAddr().(*net.UDPAddr).Port
}

func testDevice(ft *fakeTerminal, cfg Config) *Device {
	cfg.Host = "127.0.0.1"
	cfg.Port = ft.port()
	cfg.Transport = "udp"
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Second
	}
	return New(cfg)
}

func TestConnectWithoutAuth(t *testing.T) {
	ft := startFakeTerminal(t, func(req *protocol.Packet) *protocol.Packet {
		switch req.Command {
		case protocol.CmdConnect:
			return protocol.NewPacket(protocol.AckOk, 1234, req.ReplyID)
		case protocol.CmdExit:
			return protocol.NewPacket(protocol.AckOk, 1234, req.ReplyID)
		}
		return protocol.NewPacket(protocol.AckError, req.SessionID, req.ReplyID)
	})

	d := testDevice(ft, Config{})
	require.NoError(t, d.Connect(context.Background()))

	assert.True(t, d.IsConnected())
	assert.Equal(t, session.Connected, d.Session().State())
	assert.Equal(t, uint16(1234), d.Session().SessionID())

	require.NoError(t, d.Disconnect(context.Background()))
	assert.False(t, d.IsConnected())
	assert.Equal(t, session.Disconnected, d.Session().State())
}

func TestConnectWithAuth(t *testing.T) {
	const commKey uint32 = 123456
	const sid uint16 = 32031
	expectedKey := protocol.MakeCommKey(commKey, sid, protocol.DefaultTicks)

	ft := startFakeTerminal(t, func(req *protocol.Packet) *protocol.Packet {
		switch req.Command {
		case protocol.CmdConnect:
			return protocol.NewPacket(protocol.AckUnauth, sid, req.ReplyID)
		case protocol.CmdAuth:
			if req.SessionID == sid && bytes.Equal(req.Payload, expectedKey[:]) {
				return protocol.NewPacket(protocol.AckOk, sid, req.ReplyID)
			}
			return protocol.NewPacket(protocol.AckError, sid, req.ReplyID)
		}
		return protocol.NewPacket(protocol.AckError, req.SessionID, req.ReplyID)
	})

	d := testDevice(ft, Config{CommKey: commKey})
	require.NoError(t, d.Connect(context.Background()))

	assert.Equal(t, session.Authenticated, d.Session().State())
	assert.True(t, d.Session().IsAuthenticated())
	assert.Equal(t, sid, d.Session().SessionID())
}

func TestConnectAuthFailure(t *testing.T) {
	ft := startFakeTerminal(t, func(req *protocol.Packet) *protocol.Packet {
		switch req.Command {
		case protocol.CmdConnect:
			return protocol.NewPacket(protocol.AckUnauth, 99, req.ReplyID)
		case protocol.CmdAuth:
			return protocol.NewPacket(protocol.AckError, 99, req.ReplyID)
		}
		return nil
	})

	d := testDevice(ft, Config{CommKey: 1}) // wrong key
	err := d.Connect(context.Background())

	require.ErrorIs(t, err, protocol.ErrAuthenticationFailed)
	assert.Equal(t, session.Disconnected, d.Session().State())
}

func TestConnectDeviceError(t *testing.T) {
	ft := startFakeTerminal(t, func(req *protocol.Packet) *protocol.Packet {
		return protocol.NewPacket(protocol.AckError, 0, req.ReplyID)
	})

	d := testDevice(ft, Config{})
	err := d.Connect(context.Background())

	var devErr *protocol.DeviceError
	require.ErrorAs(t, err, &devErr)
	assert.Equal(t, protocol.AckError, devErr.Command)
}

func TestConnectUnexpectedResponse(t *testing.T) {
	ft := startFakeTerminal(t, func(req *protocol.Packet) *protocol.Packet {
		return protocol.NewPacket(protocol.AckRetry, 0, req.ReplyID)
	})

	d := testDevice(ft, Config{})
	err := d.Connect(context.Background())

	var unexpected *protocol.UnexpectedResponseError
	require.ErrorAs(t, err, &unexpected)
}

func TestExecuteRequiresConnection(t *testing.T) {
	ft := startFakeTerminal(t, func(req *protocol.Packet) *protocol.Packet { return nil })

	d := testDevice(ft, Config{})
	_, err := d.Execute(context.Background(), protocol.CmdGetVersion, nil)
	assert.ErrorIs(t, err, protocol.ErrSessionNotInitialized)
}

func TestExecuteReplyIDSequence(t *testing.T) {
	var mu sync.Mutex
	var replyIDs []uint16

	ft := startFakeTerminal(t, func(req *protocol.Packet) *protocol.Packet {
		if req.Command == protocol.CmdConnect {
			return protocol.NewPacket(protocol.AckOk, 7, req.ReplyID)
		}
		mu.Lock()
		replyIDs = append(replyIDs, req.ReplyID)
		mu.Unlock()
		return protocol.NewPacket(protocol.AckOk, 7, req.ReplyID)
	})

	d := testDevice(ft, Config{})
	require.NoError(t, d.Connect(context.Background()))

	for i := 0; i < 3; i++ {
		_, err := d.Execute(context.Background(), protocol.CmdEnableDevice, nil)
		require.NoError(t, err)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []uint16{65534, 65535, 0}, replyIDs)
}

func TestFirmwareVersion(t *testing.T) {
	ft := startFakeTerminal(t, func(req *protocol.Packet) *protocol.Packet {
		switch req.Command {
		case protocol.CmdConnect:
			return protocol.NewPacket(protocol.AckOk, 3, req.ReplyID)
		case protocol.CmdGetVersion:
			return protocol.NewPacketWithPayload(
				protocol.AckData, 3, req.ReplyID, []byte("Ver 6.60 Apr 2015\x00\x00"))
		}
		return protocol.NewPacket(protocol.AckError, 3, req.ReplyID)
	})

	d := testDevice(ft, Config{})
	require.NoError(t, d.Connect(context.Background()))

	fw, err := d.FirmwareVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ver 6.60 Apr 2015", fw)
}

func TestSimpleOpDeviceError(t *testing.T) {
	ft := startFakeTerminal(t, func(req *protocol.Packet) *protocol.Packet {
		if req.Command == protocol.CmdConnect {
			return protocol.NewPacket(protocol.AckOk, 3, req.ReplyID)
		}
		return protocol.NewPacket(protocol.AckError, 3, req.ReplyID)
	})

	d := testDevice(ft, Config{})
	require.NoError(t, d.Connect(context.Background()))

	err := d.Disable(context.Background())
	var devErr *protocol.DeviceError
	require.ErrorAs(t, err, &devErr)
}

func TestStrictReplyCheck(t *testing.T) {
	ft := startFakeTerminal(t, func(req *protocol.Packet) *protocol.Packet {
		if req.Command == protocol.CmdConnect {
			return protocol.NewPacket(protocol.AckOk, 3, req.ReplyID)
		}
		// Answer with a mismatched reply id.
		return protocol.NewPacket(protocol.AckOk, 3, req.ReplyID+1)
	})

	d := testDevice(ft, Config{StrictReplyCheck: true})
	require.NoError(t, d.Connect(context.Background()))

	_, err := d.Execute(context.Background(), protocol.CmdEnableDevice, nil)
	var replyErr *protocol.InvalidReplyIDError
	require.ErrorAs(t, err, &replyErr)
	assert.Equal(t, uint16(65534), replyErr.Expected)
	assert.Equal(t, uint16(65535), replyErr.Actual)
}

func TestLooseReplyCheckAcceptsMismatch(t *testing.T) {
	ft := startFakeTerminal(t, func(req *protocol.Packet) *protocol.Packet {
		if req.Command == protocol.CmdConnect {
			return protocol.NewPacket(protocol.AckOk, 3, req.ReplyID)
		}
		return protocol.NewPacket(protocol.AckOk, 3, req.ReplyID+1)
	})

	d := testDevice(ft, Config{})
	require.NoError(t, d.Connect(context.Background()))

	_, err := d.Execute(context.Background(), protocol.CmdEnableDevice, nil)
	assert.NoError(t, err)
}

func TestRestartClosesSession(t *testing.T) {
	ft := startFakeTerminal(t, func(req *protocol.Packet) *protocol.Packet {
		if req.Command == protocol.CmdConnect {
			return protocol.NewPacket(protocol.AckOk, 3, req.ReplyID)
		}
		return nil // a rebooting device answers nothing
	})

	d := testDevice(ft, Config{})
	require.NoError(t, d.Connect(context.Background()))

	require.NoError(t, d.Restart(context.Background()))
	assert.Equal(t, session.Disconnected, d.Session().State())
}

func TestPayloadTooLarge(t *testing.T) {
	ft := startFakeTerminal(t, func(req *protocol.Packet) *protocol.Packet {
		if req.Command == protocol.CmdConnect {
			return protocol.NewPacket(protocol.AckOk, 3, req.ReplyID)
		}
		return nil
	})

	d := testDevice(ft, Config{})
	require.NoError(t, d.Connect(context.Background()))

	_, err := d.Execute(context.Background(), protocol.CmdData, make([]byte, protocol.MaxPayloadSize+1))
	var tooLarge *protocol.PayloadTooLargeError
	require.ErrorAs(t, err, &tooLarge)
}

func TestExecuteTimeout(t *testing.T) {
	ft := startFakeTerminal(t, func(req *protocol.Packet) *protocol.Packet {
		if req.Command == protocol.CmdConnect {
			return protocol.NewPacket(protocol.AckOk, 3, req.ReplyID)
		}
		return nil // swallow everything else
	})

	d := testDevice(ft, Config{Timeout: 100 * time.Millisecond})
	require.NoError(t, d.Connect(context.Background()))

	_, err := d.Execute(context.Background(), protocol.CmdEnableDevice, nil)
	require.Error(t, err)
	assert.True(t, IsRecoverable(err))
	assert.False(t, RequiresReconnect(err))
}

package device

import (
	"context"
	"strings"

	"github.com/zkgate-project/zkgate/internal/protocol"
)

// Thin operations over Execute. Each sends one command and interprets
// one response command code.

// Enable returns the terminal to normal operation.
func (d *Device) Enable(ctx context.Context) error {
	return d.simple(ctx, protocol.CmdEnableDevice)
}

// Disable locks the terminal (shows "Working..." on the LCD).
func (d *Device) Disable(ctx context.Context) error {
	return d.simple(ctx, protocol.CmdDisableDevice)
}

// TestVoice plays the terminal's test sound.
func (d *Device) TestVoice(ctx context.Context) error {
	return d.simple(ctx, protocol.CmdTestVoice)
}

// RefreshData asks the terminal to reload its internal data.
func (d *Device) RefreshData(ctx context.Context) error {
	return d.simple(ctx, protocol.CmdRefreshData)
}

// FirmwareVersion reads the firmware version string.
func (d *Device) FirmwareVersion(ctx context.Context) (string, error) {
	resp, err := d.Execute(ctx, protocol.CmdGetVersion, nil)
	if err != nil {
		return "", err
	}
	if !resp.IsSuccess() {
		return "", &protocol.DeviceError{Command: resp.Command}
	}
	return strings.TrimRight(string(resp.Payload), "\x00"), nil
}

// Restart reboots the terminal. The device drops the connection, so
// the session is closed after the command goes out.
func (d *Device) Restart(ctx context.Context) error {
	if !d.session.IsConnected() {
		return protocol.ErrSessionNotInitialized
	}
	req := protocol.NewPacketWithPayload(
		protocol.CmdRestart,
		d.session.SessionID(),
		d.session.NextReplyID(),
		nil,
	)
	if err := d.transport.Send(req.Encode()); err != nil {
		return err
	}
	d.session.Close()
	return nil
}

// PowerOff shuts the terminal down. As with Restart, the session ends
// with the command.
func (d *Device) PowerOff(ctx context.Context) error {
	if !d.session.IsConnected() {
		return protocol.ErrSessionNotInitialized
	}
	req := protocol.NewPacketWithPayload(
		protocol.CmdPowerOff,
		d.session.SessionID(),
		d.session.NextReplyID(),
		nil,
	)
	if err := d.transport.Send(req.Encode()); err != nil {
		return err
	}
	d.session.Close()
	return nil
}

func (d *Device) simple(ctx context.Context, cmd protocol.Command) error {
	resp, err := d.Execute(ctx, cmd, nil)
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return &protocol.DeviceError{Command: resp.Command}
	}
	return nil
}

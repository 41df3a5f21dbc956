package gateway

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zkgate-project/zkgate/internal/config"
	"github.com/zkgate-project/zkgate/internal/events"
	"github.com/zkgate-project/zkgate/internal/store"
)

func testManager(t *testing.T, devices ...config.DeviceConfig) *Manager {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "zkgate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.DefaultConfig()
	cfg.Devices = devices

	return NewManager(cfg, events.NewEventBus(), db)
}

func TestManagerDeviceNames(t *testing.T) {
	m := testManager(t,
		config.DeviceConfig{Name: "lobby", Host: "10.0.0.1"},
		config.DeviceConfig{Name: "back-door", Host: "10.0.0.2", Transport: "tcp"},
	)

	names := m.DeviceNames()
	assert.ElementsMatch(t, []string{"lobby", "back-door"}, names)
}

func TestManagerUnknownDevice(t *testing.T) {
	m := testManager(t)

	_, err := m.DeviceInfo("nope")
	var unknown *UnknownDeviceError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "nope", unknown.Name)

	assert.ErrorAs(t, m.Enable(context.Background(), "nope"), &unknown)
	assert.ErrorAs(t, m.Restart(context.Background(), "nope"), &unknown)
	assert.ErrorAs(t, m.Poll(context.Background(), "nope"), &unknown)
}

func TestManagerDeviceInfoBeforeConnect(t *testing.T) {
	m := testManager(t, config.DeviceConfig{Name: "lobby", Host: "10.0.0.1", Port: 4370})

	info, err := m.DeviceInfo("lobby")
	require.NoError(t, err)

	assert.Equal(t, "lobby", info.Name)
	assert.Equal(t, "udp", info.Transport)
	assert.False(t, info.Connected)
	assert.False(t, info.Authenticated)
	assert.Empty(t, info.Firmware)

	assert.Equal(t, 0, m.ConnectedCount())
	assert.Len(t, m.AllDevices(), 1)
}

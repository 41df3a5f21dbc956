package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Empty(t, cfg.Devices)
	assert.Equal(t, DefaultAPIPort, cfg.Gateway.APIPort)
	assert.Equal(t, DefaultPollInterval, cfg.Gateway.PollIntervalSec)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadCreatesDefaultFile(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	_, err = os.Stat(filepath.Join(dir, DefaultConfigFile))
	assert.NoError(t, err)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	raw := `{
		"devices": [
			{"name": "lobby", "host": "192.168.1.201", "transport": "tcp", "tcp_wrapper": true, "comm_key": 123456}
		],
		"gateway": {"api_port": 8080}
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte(raw), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	require.Len(t, cfg.Devices, 1)
	assert.Equal(t, "lobby", cfg.Devices[0].Name)
	assert.Equal(t, uint32(123456), cfg.Devices[0].CommKey)
	assert.Equal(t, 8080, cfg.Gateway.APIPort)
	// Unspecified fields keep their defaults.
	assert.Equal(t, DefaultPollInterval, cfg.Gateway.PollIntervalSec)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	cfg.Devices = append(cfg.Devices, DeviceConfig{
		Name: "door-1", Host: "10.0.0.50", Transport: "udp",
	})
	require.NoError(t, cfg.Save())

	reloaded, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, reloaded.Devices, 1)
	assert.Equal(t, "door-1", reloaded.Devices[0].Name)
}

func TestValidateAcceptsGoodConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Devices = []DeviceConfig{
		{Name: "a", Host: "10.0.0.1", Transport: "udp"},
		{Name: "b", Host: "10.0.0.2", Transport: "tcp", TCPWrapper: true},
	}

	result := Validate(cfg)
	assert.True(t, result.IsValid(), "errors: %v", result.Errors)
}

func TestValidateRejectsBadDevices(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Devices = []DeviceConfig{
		{Name: "", Host: "10.0.0.1"},
		{Name: "dup", Host: "10.0.0.2"},
		{Name: "dup", Host: "10.0.0.3"},
		{Name: "badtransport", Host: "10.0.0.4", Transport: "serial"},
		{Name: "nohost", Host: ""},
		{Name: "badport", Host: "10.0.0.5", Port: 70000},
	}

	result := Validate(cfg)
	assert.False(t, result.IsValid())
	assert.GreaterOrEqual(t, len(result.Errors), 5)
}

func TestValidateMQTT(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MQTT.Enabled = true
	cfg.MQTT.BrokerURL = ""
	cfg.MQTT.Port = 0

	result := Validate(cfg)
	assert.False(t, result.IsValid())
}

func TestValidateWarnsOnEmptyDeviceList(t *testing.T) {
	result := Validate(DefaultConfig())
	assert.True(t, result.IsValid())
	assert.NotEmpty(t, result.Warnings)
}

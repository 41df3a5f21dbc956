// Package config handles configuration loading, validation, and persistence
// for the zkgate terminal gateway.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

const (
	DefaultConfigDir    = "config"
	DefaultConfigFile   = "config.json"
	DefaultAPIPort      = 5000
	DefaultDevicePort   = 4370
	DefaultPollInterval = 60
)

// Config is the root configuration structure for zkgate.
type Config struct {
	mu   sync.RWMutex
	path string

	Devices []DeviceConfig `json:"devices"`
	Gateway GatewayConfig  `json:"gateway"`
	MQTT    MQTTConfig     `json:"mqtt"`
	Logging LoggingConfig  `json:"logging"`
}

// DeviceConfig describes one ZKTeco terminal to manage.
type DeviceConfig struct {
	Name string `json:"name"`
	Host string `json:"host"`
	Port int    `json:"port"`

	// Transport is "udp" (default) or "tcp".
	Transport string `json:"transport"`

	// TCPWrapper applies the magic-prefixed TCP envelope. Only
	// meaningful when Transport is "tcp".
	TCPWrapper bool `json:"tcp_wrapper"`

	// CommKey is the terminal's communication password (0 = none).
	CommKey uint32 `json:"comm_key"`

	// TimeoutSec bounds connect and per-response read (0 = 5s).
	TimeoutSec int `json:"timeout_sec"`

	// StrictReplyCheck rejects responses whose reply id does not match
	// the request. Most firmware does not pair them, so this defaults
	// to off.
	StrictReplyCheck bool `json:"strict_reply_check"`
}

// GatewayConfig contains gateway application configuration.
type GatewayConfig struct {
	APIPort         int      `json:"api_port"`
	PollIntervalSec int      `json:"poll_interval_sec"`
	RetryBackoffSec int      `json:"retry_backoff_sec"`
	DatabasePath    string   `json:"database_path"`
	AllowedOrigins  []string `json:"allowed_origins"`
}

// MQTTConfig holds MQTT telemetry settings.
type MQTTConfig struct {
	Enabled   bool   `json:"enabled"`
	BrokerURL string `json:"broker_url"`
	Port      int    `json:"port"`
	UseTLS    bool   `json:"use_tls"`
	CertFile  string `json:"cert_file"`
	KeyFile   string `json:"key_file"`
	CAFile    string `json:"ca_file"`
	ClientID  string `json:"client_id"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level     string `json:"level"`
	Directory string `json:"directory"`
	Console   bool   `json:"console"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Devices: []DeviceConfig{},
		Gateway: GatewayConfig{
			APIPort:         DefaultAPIPort,
			PollIntervalSec: DefaultPollInterval,
			RetryBackoffSec: 10,
			DatabasePath:    filepath.Join("data", "zkgate.db"),
			AllowedOrigins:  []string{"*"},
		},
		MQTT: MQTTConfig{
			Enabled: false,
			Port:    1883,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Directory: "logs",
			Console:   true,
		},
	}
}

// Load reads configuration from a JSON file, creating a default file
// when none exists.
func Load(configDir string) (*Config, error) {
	configPath := filepath.Join(configDir, DefaultConfigFile)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info().Str("path", configPath).Msg("config file not found, creating default")
			cfg := DefaultConfig()
			cfg.path = configPath
			if saveErr := cfg.Save(); saveErr != nil {
				return nil, fmt.Errorf("failed to save default config: %w", saveErr)
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig() // Start with defaults, then overlay
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	cfg.path = configPath
	log.Info().Str("path", configPath).Int("devices", len(cfg.Devices)).Msg("configuration loaded")
	return cfg, nil
}

// Save writes the current configuration to disk.
func (c *Config) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	log.Debug().Str("path", c.path).Msg("configuration saved")
	return nil
}

// GetDevices returns a copy of the device list.
func (c *Config) GetDevices() []DeviceConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]DeviceConfig, len(c.Devices))
	copy(out, c.Devices)
	return out
}

// GetGateway returns a copy of the gateway configuration.
func (c *Config) GetGateway() GatewayConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Gateway
}

// GetMQTT returns a copy of the MQTT configuration.
func (c *Config) GetMQTT() MQTTConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.MQTT
}

// GetLogging returns a copy of the logging configuration.
func (c *Config) GetLogging() LoggingConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Logging
}

// Path returns the config file path.
func (c *Config) Path() string {
	return c.path
}

package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation error [%s]: %s", e.Field, e.Message)
}

// ValidationResult holds the results of configuration validation.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// IsValid returns true if there are no validation errors.
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// AddError adds a validation error.
func (r *ValidationResult) AddError(field, message string) {
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: message})
}

// AddWarning adds a validation warning.
func (r *ValidationResult) AddWarning(field, message string) {
	r.Warnings = append(r.Warnings, ValidationError{Field: field, Message: message})
}

// Validate performs comprehensive validation of the configuration.
func Validate(cfg *Config) *ValidationResult {
	result := &ValidationResult{}

	validateDevices(cfg.Devices, result)
	validateGateway(&cfg.Gateway, result)
	validateMQTT(&cfg.MQTT, result)

	return result
}

func validateDevices(devices []DeviceConfig, result *ValidationResult) {
	if len(devices) == 0 {
		result.AddWarning("devices", "no devices configured, gateway will idle")
	}

	seen := make(map[string]bool, len(devices))
	for i, d := range devices {
		field := fmt.Sprintf("devices[%d]", i)

		name := strings.TrimSpace(d.Name)
		if name == "" {
			result.AddError(field+".name", "device name is required")
		} else if seen[name] {
			result.AddError(field+".name", fmt.Sprintf("duplicate device name: %s", name))
		}
		seen[name] = true

		if strings.TrimSpace(d.Host) == "" {
			result.AddError(field+".host", "device host is required")
		}

		if d.Port != 0 {
			validatePort(d.Port, field+".port", result)
		}

		switch d.Transport {
		case "", "udp", "tcp":
		default:
			result.AddError(field+".transport",
				fmt.Sprintf("unknown transport %q (must be udp or tcp)", d.Transport))
		}

		if d.TCPWrapper && d.Transport != "tcp" {
			result.AddWarning(field+".tcp_wrapper", "tcp_wrapper has no effect on UDP transport")
		}

		if d.TimeoutSec < 0 {
			result.AddError(field+".timeout_sec", "timeout must not be negative")
		}
	}
}

func validateGateway(gw *GatewayConfig, result *ValidationResult) {
	validatePort(gw.APIPort, "gateway.api_port", result)

	if gw.PollIntervalSec < 5 {
		result.AddWarning("gateway.poll_interval_sec",
			"poll interval less than 5s may overload the terminals")
	}
	if gw.RetryBackoffSec < 1 {
		result.AddWarning("gateway.retry_backoff_sec",
			"retry backoff less than 1s may flood unreachable devices")
	}
	if strings.TrimSpace(gw.DatabasePath) == "" {
		result.AddError("gateway.database_path", "database path is required")
	}
}

func validateMQTT(mqtt *MQTTConfig, result *ValidationResult) {
	if !mqtt.Enabled {
		return
	}
	if strings.TrimSpace(mqtt.BrokerURL) == "" {
		result.AddError("mqtt.broker_url", "MQTT broker URL is required when enabled")
	}
	if mqtt.Port < 1 || mqtt.Port > 65535 {
		result.AddError("mqtt.port", "invalid MQTT port")
	}
	if mqtt.UseTLS && strings.TrimSpace(mqtt.CAFile) == "" {
		result.AddWarning("mqtt.ca_file", "TLS enabled without a CA file, using system roots")
	}
}

func validatePort(port int, field string, result *ValidationResult) {
	if port < 1 || port > 65535 {
		result.AddError(field, fmt.Sprintf("invalid port number: %d (must be 1-65535)", port))
		return
	}
	if port < 1024 {
		result.AddWarning(field,
			fmt.Sprintf("port %d is a privileged port, may require elevated permissions", port))
	}
}

// Package events defines the event types flowing through the gateway's
// publish-subscribe bus.
package events

// EventType identifies a kind of event emitted through the EventBus.
type EventType string

const (
	// Terminal lifecycle events
	EventDeviceConnected    EventType = "device_connected"
	EventDeviceDisconnected EventType = "device_disconnected"
	EventDeviceError        EventType = "device_error"

	// Polling events
	EventDeviceStatus  EventType = "device_status"
	EventPollCompleted EventType = "poll_completed"

	// Notification events
	EventNotifyMQTT EventType = "notify_mqtt"

	// System events
	EventShutdown EventType = "shutdown"
)

// Event is one message on the bus.
type Event struct {
	Type    EventType
	Source  string
	Payload interface{}
}

// DeviceConnectedPayload accompanies EventDeviceConnected.
type DeviceConnectedPayload struct {
	Name          string `json:"name"`
	Address       string `json:"address"`
	SessionID     uint16 `json:"session_id"`
	Authenticated bool   `json:"authenticated"`
}

// DeviceDisconnectedPayload accompanies EventDeviceDisconnected.
type DeviceDisconnectedPayload struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Reason  string `json:"reason,omitempty"`
}

// DeviceErrorPayload accompanies EventDeviceError.
type DeviceErrorPayload struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	Error       string `json:"error"`
	Recoverable bool   `json:"recoverable"`
}

// DeviceStatusPayload accompanies EventDeviceStatus after each poll.
type DeviceStatusPayload struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	Firmware string `json:"firmware"`
	State    string `json:"state"`
}

// Package gateway supervises the configured terminals: one worker per
// device keeps the connection alive, polls status, and runs control
// commands requested over the API or CLI.
package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zkgate-project/zkgate/internal/config"
	"github.com/zkgate-project/zkgate/internal/device"
	"github.com/zkgate-project/zkgate/internal/events"
	"github.com/zkgate-project/zkgate/internal/store"
)

// Manager owns one worker per configured terminal.
type Manager struct {
	mu      sync.RWMutex
	workers map[string]*worker

	cfg      *config.Config
	eventBus *events.EventBus
	db       *store.Database
}

// NewManager creates a manager with a worker for each configured device.
func NewManager(cfg *config.Config, eventBus *events.EventBus, db *store.Database) *Manager {
	m := &Manager{
		workers:  make(map[string]*worker),
		cfg:      cfg,
		eventBus: eventBus,
		db:       db,
	}

	gw := cfg.GetGateway()
	for _, dc := range cfg.GetDevices() {
		m.workers[dc.Name] = newWorker(dc, gw, eventBus, db)
	}

	return m
}

// Start launches all device workers and blocks until ctx is cancelled.
func (m *Manager) Start(ctx context.Context) {
	m.mu.RLock()
	workers := make([]*worker, 0, len(m.workers))
	for _, w := range m.workers {
		workers = append(workers, w)
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, w := range workers {
		wg.Add(1)
		go func(w *worker) {
			defer wg.Done()
			w.run(ctx)
		}(w)
	}

	log.Info().Int("devices", len(workers)).Msg("gateway started")

	<-ctx.Done()
	wg.Wait()
	log.Info().Msg("gateway stopped")
}

// DeviceNames returns the configured device names.
func (m *Manager) DeviceNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.workers))
	for name := range m.workers {
		names = append(names, name)
	}
	return names
}

// DeviceInfo returns a snapshot of one device's state.
func (m *Manager) DeviceInfo(name string) (DeviceInfo, error) {
	w, err := m.worker(name)
	if err != nil {
		return DeviceInfo{}, err
	}
	return w.info(), nil
}

// AllDevices returns snapshots for every managed device.
func (m *Manager) AllDevices() []DeviceInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]DeviceInfo, 0, len(m.workers))
	for _, w := range m.workers {
		out = append(out, w.info())
	}
	return out
}

// Enable puts the named terminal back into normal operation.
func (m *Manager) Enable(ctx context.Context, name string) error {
	return m.control(ctx, name, "enable", (*device.Device).Enable)
}

// Disable locks the named terminal.
func (m *Manager) Disable(ctx context.Context, name string) error {
	return m.control(ctx, name, "disable", (*device.Device).Disable)
}

// TestVoice plays the named terminal's test sound.
func (m *Manager) TestVoice(ctx context.Context, name string) error {
	return m.control(ctx, name, "test_voice", (*device.Device).TestVoice)
}

// Restart reboots the named terminal. The worker reconnects on its own
// once the device comes back.
func (m *Manager) Restart(ctx context.Context, name string) error {
	w, err := m.worker(name)
	if err != nil {
		return err
	}
	return w.restart(ctx)
}

// Poll forces an immediate status poll of the named terminal.
func (m *Manager) Poll(ctx context.Context, name string) error {
	w, err := m.worker(name)
	if err != nil {
		return err
	}
	return w.pollNow(ctx)
}

// ConnectedCount returns how many devices currently hold a session.
func (m *Manager) ConnectedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, w := range m.workers {
		if w.info().Connected {
			n++
		}
	}
	return n
}

func (m *Manager) control(ctx context.Context, name, op string, fn func(*device.Device, context.Context) error) error {
	w, err := m.worker(name)
	if err != nil {
		return err
	}
	return w.control(ctx, op, fn)
}

func (m *Manager) worker(name string) (*worker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.workers[name]
	if !ok {
		return nil, &UnknownDeviceError{Name: name}
	}
	return w, nil
}

// UnknownDeviceError is returned for operations on an unconfigured name.
type UnknownDeviceError struct {
	Name string
}

func (e *UnknownDeviceError) Error() string {
	return fmt.Sprintf("unknown device: %s", e.Name)
}

// DeviceInfo is a point-in-time snapshot of one managed terminal.
type DeviceInfo struct {
	Name          string     `json:"name"`
	Address       string     `json:"address"`
	Transport     string     `json:"transport"`
	Connected     bool       `json:"connected"`
	Authenticated bool       `json:"authenticated"`
	SessionID     uint16     `json:"session_id"`
	Firmware      string     `json:"firmware,omitempty"`
	LastSeen      *time.Time `json:"last_seen,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
}

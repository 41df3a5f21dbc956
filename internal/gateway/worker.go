package gateway

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/zkgate-project/zkgate/internal/config"
	"github.com/zkgate-project/zkgate/internal/device"
	"github.com/zkgate-project/zkgate/internal/events"
	"github.com/zkgate-project/zkgate/internal/store"
	"github.com/zkgate-project/zkgate/internal/transport"
)

// worker keeps one terminal connected and polled. All device I/O goes
// through opMu: the protocol is half-duplex and the device cannot
// interleave exchanges.
type worker struct {
	cfg config.DeviceConfig
	gw  config.GatewayConfig

	dev      *device.Device
	eventBus *events.EventBus
	db       *store.Database
	logger   zerolog.Logger

	opMu sync.Mutex // serializes exchanges on the device

	mu        sync.RWMutex // guards the snapshot fields below
	firmware  string
	lastSeen  *time.Time
	lastError string
}

func newWorker(dc config.DeviceConfig, gw config.GatewayConfig, eventBus *events.EventBus, db *store.Database) *worker {
	timeout := time.Duration(dc.TimeoutSec) * time.Second
	if dc.TimeoutSec == 0 {
		timeout = transport.DefaultReadTimeout
	}

	dev := device.New(device.Config{
		Host:             dc.Host,
		Port:             dc.Port,
		Transport:        dc.Transport,
		TCPWrapper:       dc.TCPWrapper,
		CommKey:          dc.CommKey,
		Timeout:          timeout,
		StrictReplyCheck: dc.StrictReplyCheck,
	})

	return &worker{
		cfg:      dc,
		gw:       gw,
		dev:      dev,
		eventBus: eventBus,
		db:       db,
		logger: log.With().
			Str("component", "gateway").
			Str("device", dc.Name).
			Logger(),
	}
}

// run is the worker's supervision loop: connect with backoff, then poll
// until the connection drops or ctx ends.
func (w *worker) run(ctx context.Context) {
	backoff := time.Duration(w.gw.RetryBackoffSec) * time.Second
	if backoff <= 0 {
		backoff = 10 * time.Second
	}
	pollInterval := time.Duration(w.gw.PollIntervalSec) * time.Second
	if pollInterval <= 0 {
		pollInterval = time.Duration(config.DefaultPollInterval) * time.Second
	}

	for {
		if err := w.connect(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			w.setError(err)
			w.logger.Warn().Err(err).Dur("retry_in", backoff).Msg("connect failed")

			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
				continue
			}
		}

		w.pollLoop(ctx, pollInterval)

		if ctx.Err() != nil {
			w.shutdown()
			return
		}
		// Connection lost, loop back to reconnect.
	}
}

func (w *worker) connect(ctx context.Context) error {
	w.opMu.Lock()
	defer w.opMu.Unlock()

	if err := w.dev.Connect(ctx); err != nil {
		w.recordEvent("connect_failed", err.Error())
		return err
	}

	now := time.Now()
	w.mu.Lock()
	w.lastSeen = &now
	w.lastError = ""
	w.mu.Unlock()

	sess := w.dev.Session()
	w.eventBus.Emit(ctx, events.Event{
		Type:   events.EventDeviceConnected,
		Source: "gateway",
		Payload: events.DeviceConnectedPayload{
			Name:          w.cfg.Name,
			Address:       w.dev.RemoteAddr(),
			SessionID:     sess.SessionID(),
			Authenticated: sess.IsAuthenticated(),
		},
	})
	w.recordEvent("connected", "")
	w.persistState("connected")
	return nil
}

// pollLoop polls firmware/status on an interval until the connection
// becomes unusable or ctx ends.
func (w *worker) pollLoop(ctx context.Context, interval time.Duration) {
	// Initial poll right after connecting.
	if err := w.poll(ctx); err != nil && device.RequiresReconnect(err) {
		w.dropConnection(ctx, err)
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := w.poll(ctx)
			if err == nil {
				continue
			}
			w.setError(err)
			if device.RequiresReconnect(err) {
				w.dropConnection(ctx, err)
				return
			}
			w.logger.Warn().Err(err).Msg("poll failed")
			w.eventBus.Emit(ctx, events.Event{
				Type:   events.EventDeviceError,
				Source: "gateway",
				Payload: events.DeviceErrorPayload{
					Name:        w.cfg.Name,
					Address:     w.dev.RemoteAddr(),
					Error:       err.Error(),
					Recoverable: device.IsRecoverable(err),
				},
			})
		}
	}
}

// poll reads the firmware version as a liveness probe and publishes the
// resulting status.
func (w *worker) poll(ctx context.Context) error {
	w.opMu.Lock()
	fw, err := w.dev.FirmwareVersion(ctx)
	w.opMu.Unlock()
	if err != nil {
		return err
	}

	now := time.Now()
	w.mu.Lock()
	w.firmware = fw
	w.lastSeen = &now
	w.lastError = ""
	w.mu.Unlock()

	state := w.stateString()
	w.eventBus.Emit(ctx, events.Event{
		Type:   events.EventDeviceStatus,
		Source: "gateway",
		Payload: events.DeviceStatusPayload{
			Name:     w.cfg.Name,
			Address:  w.dev.RemoteAddr(),
			Firmware: fw,
			State:    state,
		},
	})
	w.eventBus.Emit(ctx, events.Event{
		Type:    events.EventPollCompleted,
		Source:  "gateway",
		Payload: events.DeviceStatusPayload{Name: w.cfg.Name, Firmware: fw, State: state},
	})
	w.persistState(state)
	return nil
}

func (w *worker) dropConnection(ctx context.Context, cause error) {
	w.opMu.Lock()
	_ = w.dev.Disconnect(context.Background())
	w.opMu.Unlock()

	w.logger.Warn().Err(cause).Msg("connection lost")
	w.eventBus.Emit(ctx, events.Event{
		Type:   events.EventDeviceDisconnected,
		Source: "gateway",
		Payload: events.DeviceDisconnectedPayload{
			Name:    w.cfg.Name,
			Address: w.dev.RemoteAddr(),
			Reason:  cause.Error(),
		},
	})
	w.recordEvent("disconnected", cause.Error())
	w.persistState("disconnected")
}

// shutdown releases the connection on gateway stop.
func (w *worker) shutdown() {
	w.opMu.Lock()
	defer w.opMu.Unlock()
	if w.dev.IsConnected() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = w.dev.Disconnect(ctx)
	}
	w.persistState("disconnected")
}

// control runs one named operation on the device under the exchange lock.
func (w *worker) control(ctx context.Context, op string, fn func(*device.Device, context.Context) error) error {
	w.opMu.Lock()
	err := fn(w.dev, ctx)
	w.opMu.Unlock()

	if err != nil {
		w.setError(err)
		w.recordEvent(op+"_failed", err.Error())
		w.eventBus.Emit(ctx, events.Event{
			Type:   events.EventDeviceError,
			Source: "gateway",
			Payload: events.DeviceErrorPayload{
				Name:        w.cfg.Name,
				Address:     w.dev.RemoteAddr(),
				Error:       err.Error(),
				Recoverable: device.IsRecoverable(err),
			},
		})
		return err
	}

	w.recordEvent(op, "")
	return nil
}

// restart sends the reboot command. The session ends with it, so the
// supervision loop notices on its next poll and reconnects.
func (w *worker) restart(ctx context.Context) error {
	w.opMu.Lock()
	err := w.dev.Restart(ctx)
	w.opMu.Unlock()

	if err != nil {
		w.setError(err)
		w.recordEvent("restart_failed", err.Error())
		return err
	}
	w.recordEvent("restart", "")
	w.persistState("restarting")
	return nil
}

// pollNow runs one synchronous poll on demand.
func (w *worker) pollNow(ctx context.Context) error {
	return w.poll(ctx)
}

func (w *worker) info() DeviceInfo {
	w.mu.RLock()
	defer w.mu.RUnlock()

	sess := w.dev.Session()
	transportName := w.cfg.Transport
	if transportName == "" {
		transportName = "udp"
	}

	return DeviceInfo{
		Name:          w.cfg.Name,
		Address:       w.dev.RemoteAddr(),
		Transport:     transportName,
		Connected:     w.dev.IsConnected(),
		Authenticated: sess.IsAuthenticated(),
		SessionID:     sess.SessionID(),
		Firmware:      w.firmware,
		LastSeen:      w.lastSeen,
		LastError:     w.lastError,
	}
}

func (w *worker) stateString() string {
	return strings.ToLower(w.dev.Session().State().String())
}

func (w *worker) setError(err error) {
	w.mu.Lock()
	w.lastError = err.Error()
	w.mu.Unlock()
}

func (w *worker) recordEvent(event, detail string) {
	if w.db == nil {
		return
	}
	if err := w.db.RecordEvent(w.cfg.Name, event, detail); err != nil {
		w.logger.Warn().Err(err).Str("event", event).Msg("failed to record event")
	}
}

func (w *worker) persistState(state string) {
	if w.db == nil {
		return
	}
	w.mu.RLock()
	fw := w.firmware
	seen := w.lastSeen
	w.mu.RUnlock()

	transportName := w.cfg.Transport
	if transportName == "" {
		transportName = "udp"
	}

	err := w.db.UpsertDevice(store.DeviceRow{
		Name:      w.cfg.Name,
		Address:   w.dev.RemoteAddr(),
		Transport: transportName,
		Firmware:  fw,
		State:     state,
		LastSeen:  seen,
	})
	if err != nil {
		w.logger.Warn().Err(err).Msg("failed to persist device state")
	}
}

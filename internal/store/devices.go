package store

import (
	"database/sql"
	"time"
)

// DeviceRow is one terminal's persisted inventory record.
type DeviceRow struct {
	Name      string     `json:"name"`
	Address   string     `json:"address"`
	Transport string     `json:"transport"`
	Firmware  string     `json:"firmware"`
	State     string     `json:"state"`
	LastSeen  *time.Time `json:"last_seen,omitempty"`
}

// EventRow is one persisted device event.
type EventRow struct {
	ID        int64     `json:"id"`
	Device    string    `json:"device"`
	Event     string    `json:"event"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// UpsertDevice inserts or refreshes a terminal's inventory record.
func (d *Database) UpsertDevice(row DeviceRow) error {
	_, err := d.Exec(`
		INSERT INTO devices (name, address, transport, firmware, state, last_seen)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			address   = excluded.address,
			transport = excluded.transport,
			firmware  = excluded.firmware,
			state     = excluded.state,
			last_seen = excluded.last_seen`,
		row.Name, row.Address, row.Transport, row.Firmware, row.State, row.LastSeen,
	)
	return err
}

// SetDeviceState updates only a terminal's state and last-seen time.
func (d *Database) SetDeviceState(name, state string, seen time.Time) error {
	_, err := d.Exec(
		`UPDATE devices SET state = ?, last_seen = ? WHERE name = ?`,
		state, seen, name,
	)
	return err
}

// ListDevices returns all terminal records ordered by name.
func (d *Database) ListDevices() ([]DeviceRow, error) {
	rows, err := d.Query(`
		SELECT name, address, transport, firmware, state, last_seen
		FROM devices ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DeviceRow
	for rows.Next() {
		var r DeviceRow
		var seen sql.NullTime
		if err := rows.Scan(&r.Name, &r.Address, &r.Transport, &r.Firmware, &r.State, &seen); err != nil {
			return nil, err
		}
		if seen.Valid {
			t := seen.Time
			r.LastSeen = &t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RecordEvent appends one device event to the history.
func (d *Database) RecordEvent(device, event, detail string) error {
	_, err := d.Exec(
		`INSERT INTO device_events (device, event, detail) VALUES (?, ?, ?)`,
		device, event, detail,
	)
	return err
}

// RecentEvents returns the newest events, most recent first.
func (d *Database) RecentEvents(limit int) ([]EventRow, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := d.Query(`
		SELECT id, device, event, detail, created_at
		FROM device_events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EventRow
	for rows.Next() {
		var r EventRow
		if err := rows.Scan(&r.ID, &r.Device, &r.Event, &r.Detail, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

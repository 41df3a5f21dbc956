package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "zkgate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestUpsertAndListDevices(t *testing.T) {
	db := openTestDB(t)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, db.UpsertDevice(DeviceRow{
		Name: "lobby", Address: "192.168.1.201:4370", Transport: "udp",
		Firmware: "Ver 6.60", State: "connected", LastSeen: &now,
	}))
	require.NoError(t, db.UpsertDevice(DeviceRow{
		Name: "back-door", Address: "192.168.1.202:4370", Transport: "tcp",
		State: "disconnected",
	}))

	rows, err := db.ListDevices()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Ordered by name.
	assert.Equal(t, "back-door", rows[0].Name)
	assert.Nil(t, rows[0].LastSeen)
	assert.Equal(t, "lobby", rows[1].Name)
	assert.Equal(t, "Ver 6.60", rows[1].Firmware)
	require.NotNil(t, rows[1].LastSeen)
}

func TestUpsertDeviceReplacesExisting(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.UpsertDevice(DeviceRow{
		Name: "lobby", Address: "192.168.1.201:4370", Transport: "udp", State: "disconnected",
	}))
	require.NoError(t, db.UpsertDevice(DeviceRow{
		Name: "lobby", Address: "192.168.1.201:4370", Transport: "udp",
		Firmware: "Ver 6.60", State: "connected",
	}))

	rows, err := db.ListDevices()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "connected", rows[0].State)
	assert.Equal(t, "Ver 6.60", rows[0].Firmware)
}

func TestSetDeviceState(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.UpsertDevice(DeviceRow{
		Name: "lobby", Address: "192.168.1.201:4370", Transport: "udp", State: "connected",
	}))

	seen := time.Now().UTC()
	require.NoError(t, db.SetDeviceState("lobby", "disconnected", seen))

	rows, err := db.ListDevices()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "disconnected", rows[0].State)
	require.NotNil(t, rows[0].LastSeen)
}

func TestRecordAndListEvents(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.RecordEvent("lobby", "connected", ""))
	require.NoError(t, db.RecordEvent("lobby", "disconnected", "read timeout"))
	require.NoError(t, db.RecordEvent("back-door", "connected", ""))

	rows, err := db.RecentEvents(10)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// Most recent first.
	assert.Equal(t, "back-door", rows[0].Device)
	assert.Equal(t, "disconnected", rows[1].Event)
	assert.Equal(t, "read timeout", rows[1].Detail)
	assert.Equal(t, "connected", rows[2].Event)
}

func TestRecentEventsLimit(t *testing.T) {
	db := openTestDB(t)

	for i := 0; i < 10; i++ {
		require.NoError(t, db.RecordEvent("lobby", "poll", ""))
	}

	rows, err := db.RecentEvents(4)
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	// A non-positive limit falls back to the default cap.
	rows, err = db.RecentEvents(0)
	require.NoError(t, err)
	assert.Len(t, rows, 10)
}

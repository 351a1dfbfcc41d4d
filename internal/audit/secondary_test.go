package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormStore_MirrorsRecords(t *testing.T) {
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "audit_events.db"))
	require.NoError(t, err)
	require.NoError(t, store.Ping(context.Background()))

	logger, err := NewLogger(t.TempDir(), nil, store)
	require.NoError(t, err)

	rec := logger.LogEvent(context.Background(), Event{
		Type:       EventTradeApproved,
		EntityType: "trade",
		EntityID:   "T-1",
		User:       "trader_a",
		Action:     "approved",
		AfterState: map[string]interface{}{"notional": 250_000.0},
		Metadata:   map[string]interface{}{"desk": "fx"},
	})

	var row EventRow
	require.NoError(t, store.db.First(&row, "id = ?", rec.ID).Error)

	assert.Equal(t, string(EventTradeApproved), row.EventType)
	assert.Equal(t, rec.Checksum, row.Checksum)
	assert.Contains(t, row.AfterState, "notional")
	assert.Contains(t, row.Metadata, "desk")
	assert.WithinDuration(t, rec.EventTimestamp, row.EventTimestamp, time.Second)
}

func TestGormStore_EmptyStatesStoredAsEmpty(t *testing.T) {
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "audit_events.db"))
	require.NoError(t, err)

	rec := &Record{
		ID:             "rec-nil-states",
		EventTimestamp: time.Now().UTC(),
		EventType:      EventSystemStartup,
		EntityType:     "system",
		EntityID:       "core",
		User:           "system",
		Action:         "started",
		Severity:       SeverityInfo,
	}
	rec.Checksum = rec.ComputeChecksum()

	require.NoError(t, store.Insert(context.Background(), rec))

	var row EventRow
	require.NoError(t, store.db.First(&row, "id = ?", rec.ID).Error)
	assert.Empty(t, row.BeforeState)
	assert.Empty(t, row.AfterState)
}

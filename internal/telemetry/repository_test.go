package telemetry_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/obdctl/internal/errors"
	"codeberg.org/mutker/obdctl/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"
)

func testSnapshot() *telemetry.TickSnapshot {
	return &telemetry.TickSnapshot{
		RunID:     "20260823_120000",
		Timestamp: time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC),
		Samples: []telemetry.Sample{
			{Parameter: "RPM", Unit: "rpm", Literal: "1200"},
			{Parameter: "SPEED", Unit: "km/h", Literal: ""},
		},
	}
}

func TestDisabledServiceIsNoop(t *testing.T) {
	collector, err := telemetry.NewService(telemetry.Config{Enabled: false})
	require.NoError(t, err)

	assert.NoError(t, collector.Record(context.Background(), testSnapshot()))
	assert.NoError(t, collector.Close())
}

func TestEnabledServiceRequiresPath(t *testing.T) {
	_, err := telemetry.NewService(telemetry.Config{Enabled: true})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, telemetry.ErrInvalidConfig))
}

func TestStoreAndReadBack(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "telemetry.db")
	collector, err := telemetry.NewService(telemetry.Config{Enabled: true, DBPath: dbPath})
	require.NoError(t, err)

	snapshot := testSnapshot()
	require.NoError(t, collector.Record(context.Background(), snapshot))
	require.NoError(t, collector.Close())

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.Query(`
        SELECT run_id, timestamp, parameter, unit, value
        FROM observations ORDER BY id
    `)
	require.NoError(t, err)
	defer rows.Close()

	type stored struct {
		runID     string
		timestamp int64
		parameter string
		unit      string
		value     sql.NullString
	}

	var got []stored
	for rows.Next() {
		var s stored
		require.NoError(t, rows.Scan(&s.runID, &s.timestamp, &s.parameter, &s.unit, &s.value))
		got = append(got, s)
	}
	require.NoError(t, rows.Err())
	require.Len(t, got, 2)

	assert.Equal(t, snapshot.RunID, got[0].runID)
	assert.Equal(t, snapshot.Timestamp.UnixMilli(), got[0].timestamp)
	assert.Equal(t, "RPM", got[0].parameter)
	assert.Equal(t, "rpm", got[0].unit)
	require.True(t, got[0].value.Valid)
	assert.Equal(t, "1200", got[0].value.String)

	// Failed readings are archived as NULL, never as zero.
	assert.Equal(t, "SPEED", got[1].parameter)
	assert.False(t, got[1].value.Valid)
}

func TestRecordRejectsEmptySnapshot(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "telemetry.db")
	collector, err := telemetry.NewService(telemetry.Config{Enabled: true, DBPath: dbPath})
	require.NoError(t, err)
	defer collector.Close()

	err = collector.Record(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, telemetry.ErrInvalidSnapshot))

	err = collector.Record(context.Background(), &telemetry.TickSnapshot{RunID: "x"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, telemetry.ErrInvalidSnapshot))
}

func TestRecordHonorsCancellation(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "telemetry.db")
	collector, err := telemetry.NewService(telemetry.Config{Enabled: true, DBPath: dbPath})
	require.NoError(t, err)
	defer collector.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = collector.Record(ctx, testSnapshot())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, telemetry.ErrOperationTimeout))
}

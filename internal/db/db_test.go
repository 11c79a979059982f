package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/occupancy.report/internal/monitoring"
	"github.com/banshee-data/occupancy.report/internal/timeutil"
)

func setupTestDB(t *testing.T) (*DB, *timeutil.MockClock) {
	t.Helper()
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = original })

	clock := timeutil.NewMockClock(time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC))
	db, err := Open(MemoryPath, WithClock(clock))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, clock
}

func TestOpen_MigratesToLatest(t *testing.T) {
	db, _ := setupTestDB(t)

	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, LatestVersion, version)
	assert.False(t, dirty)

	var fk int
	require.NoError(t, db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk))
	assert.Equal(t, 1, fk)

	require.NoError(t, db.MigrateUp(), "migrating an up-to-date schema is a no-op")
}

func TestMigrateTo_DownAndUp(t *testing.T) {
	db, _ := setupTestDB(t)

	require.NoError(t, db.MigrateTo(1))
	version, _, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	var n int
	err = db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('runs') WHERE name = 'label'`).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, db.MigrateUp())
	err = db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('runs') WHERE name = 'label'`).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestIsSQLiteBusy(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"database is locked", errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"SQLITE_BUSY", errors.New("SQLITE_BUSY"), true},
		{"other error", errors.New("some other error"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isSQLiteBusy(tt.err))
		})
	}
}

func TestRetryOnBusy(t *testing.T) {
	busy := errors.New("database is locked (5) (SQLITE_BUSY)")

	t.Run("success after retry", func(t *testing.T) {
		calls := 0
		err := retryOnBusy(func() error {
			calls++
			if calls < 3 {
				return busy
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("non-busy error fails immediately", func(t *testing.T) {
		calls := 0
		other := errors.New("constraint failed")
		err := retryOnBusy(func() error {
			calls++
			return other
		})
		assert.Same(t, other, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up", func(t *testing.T) {
		calls := 0
		err := retryOnBusy(func() error {
			calls++
			return busy
		})
		assert.ErrorIs(t, err, busy)
		assert.Equal(t, maxBusyRetries, calls)
	})
}

func TestInTx_RollsBack(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	run := &Run{Kind: KindEvaluation, Source: "x", Version: "dev"}
	boom := errors.New("boom")
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		if err := db.insertRun(ctx, tx, run); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = db.GetRun(ctx, run.RunID)
	assert.ErrorIs(t, err, ErrNotFound)
}

// Package db persists evaluation and trajectory runs in SQLite so the report
// server can list and chart them.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/occupancy.report/internal/timeutil"
)

// ErrNotFound is returned when a run or one of its tables does not exist.
var ErrNotFound = errors.New("not found")

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// DB wraps the SQLite handle.
type DB struct {
	*sql.DB
	clock timeutil.Clock
}

// Option configures Open.
type Option func(*DB)

// WithClock sets the clock used to stamp new runs.
func WithClock(c timeutil.Clock) Option {
	return func(db *DB) { db.clock = c }
}

// Open opens (or creates) the database at path and migrates it to the
// latest schema. Foreign keys are enforced and writers wait up to five
// seconds for a lock.
func Open(path string, opts ...Option) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	if path == MemoryPath {
		// Every connection to :memory: is a separate database.
		sqlDB.SetMaxOpenConns(1)
	}

	db := &DB{DB: sqlDB, clock: timeutil.RealClock{}}
	for _, opt := range opts {
		opt(db)
	}

	if err := db.MigrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

const (
	maxBusyRetries = 5
	baseBusyDelay  = 10 * time.Millisecond
)

// isSQLiteBusy reports whether err is a lock contention error worth retrying.
func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// retryOnBusy runs fn, retrying with exponential backoff while SQLite
// reports lock contention.
func retryOnBusy(fn func() error) error {
	delay := baseBusyDelay
	var err error
	for attempt := 1; attempt <= maxBusyRetries; attempt++ {
		if err = fn(); !isSQLiteBusy(err) {
			return err
		}
		if attempt < maxBusyRetries {
			time.Sleep(delay)
			delay *= 2
		}
	}
	return fmt.Errorf("database busy after %d attempts: %w", maxBusyRetries, err)
}

// inTx runs fn in a transaction, committing on success.
func (db *DB) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	return retryOnBusy(func() error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			tx.Rollback()
			return err
		}
		return tx.Commit()
	})
}

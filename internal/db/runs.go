package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// RunKind distinguishes the two analysis paths.
type RunKind string

const (
	KindEvaluation   RunKind = "evaluation"
	KindTrackSummary RunKind = "track-summary"
)

// Valid reports whether k is a known kind.
func (k RunKind) Valid() bool {
	return k == KindEvaluation || k == KindTrackSummary
}

// Run is the metadata shared by every stored analysis.
type Run struct {
	RunID      string          `json:"run_id"`
	Kind       RunKind         `json:"kind"`
	Label      string          `json:"label,omitempty"`
	Source     string          `json:"source"`
	ConfigJSON json.RawMessage `json:"config,omitempty"`
	Version    string          `json:"version"`
	CreatedAt  int64           `json:"created_at"` // unix nanoseconds
}

// insertRun assigns RunID and CreatedAt when unset and stores the row.
func (db *DB) insertRun(ctx context.Context, tx *sql.Tx, run *Run) error {
	if !run.Kind.Valid() {
		return fmt.Errorf("invalid run kind %q", run.Kind)
	}
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt == 0 {
		run.CreatedAt = db.clock.Now().UnixNano()
	}

	var configStr any
	if len(run.ConfigJSON) > 0 {
		configStr = string(run.ConfigJSON)
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, kind, label, source, config_json, version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, string(run.Kind), run.Label, run.Source, configStr, run.Version, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

const runColumns = `run_id, kind, label, source, config_json, version, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(s rowScanner) (*Run, error) {
	var r Run
	var kind string
	var configStr sql.NullString
	if err := s.Scan(&r.RunID, &kind, &r.Label, &r.Source, &configStr, &r.Version, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.Kind = RunKind(kind)
	if configStr.Valid {
		r.ConfigJSON = json.RawMessage(configStr.String)
	}
	return &r, nil
}

// GetRun returns a run by ID, or ErrNotFound.
func (db *DB) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// ListRuns returns runs newest first. An empty kind lists every kind; a
// non-positive limit returns all rows.
func (db *DB) ListRuns(ctx context.Context, kind RunKind, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY created_at DESC, run_id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run and all of its tables.
func (db *DB) DeleteRun(ctx context.Context, runID string) error {
	return retryOnBusy(func() error {
		res, err := db.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, runID)
		if err != nil {
			return fmt.Errorf("delete run: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("run %s: %w", runID, ErrNotFound)
		}
		return nil
	})
}

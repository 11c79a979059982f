package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/banshee-data/occupancy.report/internal/occupancy"
	"github.com/banshee-data/occupancy.report/internal/tracks"
)

// TrackSummary is everything a trajectory run persists.
type TrackSummary struct {
	Occupancy              occupancy.Result   `json:"occupancy"`
	FirstSeen              []tracks.FirstSeen `json:"first_seen"`
	IdentityCount          int                `json:"identity_count"`
	ParkedObservationCount int                `json:"parked_observation_count"`
}

// RecordTrackSummary stores run and its occupancy tables atomically.
// run.Kind is set to KindTrackSummary.
func (db *DB) RecordTrackSummary(ctx context.Context, run *Run, s TrackSummary) error {
	run.Kind = KindTrackSummary
	res := s.Occupancy
	return db.inTx(ctx, func(tx *sql.Tx) error {
		if err := db.insertRun(ctx, tx, run); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO occupancy_summaries (
				run_id, min_x, max_x, segments, time_bin_sec,
				avg_unique_ids_per_bin, avg_parked_ids_per_bin, bin_count, parked_bin_count,
				identity_count, parked_observation_count
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, res.Bounds.MinX, res.Bounds.MaxX, res.Bounds.Count, res.BinWidth,
			res.Averages.AvgDistinctPerBin, res.Averages.AvgParkedPerBin,
			res.Averages.BinCount, res.Averages.ParkedBinCount,
			s.IdentityCount, s.ParkedObservationCount,
		)
		if err != nil {
			return fmt.Errorf("insert occupancy summary: %w", err)
		}

		for _, c := range res.Cells {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO occupancy_cells (run_id, segment, time_bin, unique_ids, parked_ids)
				VALUES (?, ?, ?, ?, ?)`,
				run.RunID, c.Segment, c.TimeBin, c.DistinctIdentities, c.DistinctParkedIdentities,
			); err != nil {
				return fmt.Errorf("insert occupancy cell %s@%g: %w", c.Label, c.TimeBin, err)
			}
		}
		for _, b := range res.Bins {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO occupancy_bins (run_id, time_bin, unique_ids, parked_ids)
				VALUES (?, ?, ?, ?)`,
				run.RunID, b.TimeBin, b.DistinctIdentities, b.DistinctParkedIdentities,
			); err != nil {
				return fmt.Errorf("insert occupancy bin %g: %w", b.TimeBin, err)
			}
		}
		for _, f := range s.FirstSeen {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO first_seen (run_id, identity, first_frame, first_time_sec)
				VALUES (?, ?, ?, ?)`,
				run.RunID, f.Identity, f.FirstFrame, f.FirstTimeSec,
			); err != nil {
				return fmt.Errorf("insert first seen %d: %w", f.Identity, err)
			}
		}
		return nil
	})
}

// GetTrackSummary loads the stored tables of a trajectory run.
func (db *DB) GetTrackSummary(ctx context.Context, runID string) (*TrackSummary, error) {
	var s TrackSummary
	res := &s.Occupancy
	err := db.QueryRowContext(ctx, `
		SELECT min_x, max_x, segments, time_bin_sec,
		       avg_unique_ids_per_bin, avg_parked_ids_per_bin, bin_count, parked_bin_count,
		       identity_count, parked_observation_count
		FROM occupancy_summaries WHERE run_id = ?`, runID,
	).Scan(
		&res.Bounds.MinX, &res.Bounds.MaxX, &res.Bounds.Count, &res.BinWidth,
		&res.Averages.AvgDistinctPerBin, &res.Averages.AvgParkedPerBin,
		&res.Averages.BinCount, &res.Averages.ParkedBinCount,
		&s.IdentityCount, &s.ParkedObservationCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("occupancy for run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get occupancy summary: %w", err)
	}

	if res.Cells, err = db.occupancyCells(ctx, runID); err != nil {
		return nil, err
	}
	if res.Bins, err = db.occupancyBins(ctx, runID); err != nil {
		return nil, err
	}
	if s.FirstSeen, err = db.firstSeen(ctx, runID); err != nil {
		return nil, err
	}
	return &s, nil
}

func (db *DB) occupancyCells(ctx context.Context, runID string) ([]occupancy.Cell, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT segment, time_bin, unique_ids, parked_ids
		FROM occupancy_cells WHERE run_id = ? ORDER BY segment, time_bin`, runID)
	if err != nil {
		return nil, fmt.Errorf("query occupancy cells: %w", err)
	}
	defer rows.Close()

	cells := []occupancy.Cell{}
	for rows.Next() {
		var c occupancy.Cell
		if err := rows.Scan(&c.Segment, &c.TimeBin, &c.DistinctIdentities, &c.DistinctParkedIdentities); err != nil {
			return nil, fmt.Errorf("scan occupancy cell: %w", err)
		}
		c.Label = occupancy.SegmentLabel(c.Segment)
		cells = append(cells, c)
	}
	return cells, rows.Err()
}

func (db *DB) occupancyBins(ctx context.Context, runID string) ([]occupancy.BinTotal, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT time_bin, unique_ids, parked_ids
		FROM occupancy_bins WHERE run_id = ? ORDER BY time_bin`, runID)
	if err != nil {
		return nil, fmt.Errorf("query occupancy bins: %w", err)
	}
	defer rows.Close()

	bins := []occupancy.BinTotal{}
	for rows.Next() {
		var b occupancy.BinTotal
		if err := rows.Scan(&b.TimeBin, &b.DistinctIdentities, &b.DistinctParkedIdentities); err != nil {
			return nil, fmt.Errorf("scan occupancy bin: %w", err)
		}
		bins = append(bins, b)
	}
	return bins, rows.Err()
}

func (db *DB) firstSeen(ctx context.Context, runID string) ([]tracks.FirstSeen, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT identity, first_frame, first_time_sec
		FROM first_seen WHERE run_id = ? ORDER BY identity`, runID)
	if err != nil {
		return nil, fmt.Errorf("query first seen: %w", err)
	}
	defer rows.Close()

	first := []tracks.FirstSeen{}
	for rows.Next() {
		var f tracks.FirstSeen
		if err := rows.Scan(&f.Identity, &f.FirstFrame, &f.FirstTimeSec); err != nil {
			return nil, fmt.Errorf("scan first seen: %w", err)
		}
		first = append(first, f)
	}
	return first, rows.Err()
}

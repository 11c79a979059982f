package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/banshee-data/occupancy.report/internal/eval"
)

// RecordEvaluation stores run and its evaluation atomically. run.Kind is set
// to KindEvaluation.
func (db *DB) RecordEvaluation(ctx context.Context, run *Run, ev eval.Evaluation) error {
	run.Kind = KindEvaluation
	return db.inTx(ctx, func(tx *sql.Tx) error {
		if err := db.insertRun(ctx, tx, run); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO evaluations (
				run_id, iou_threshold, class_aware,
				true_positives, false_positives, false_negatives,
				precision, recall, mean_iou_on_true_positives,
				predictions_source, ground_truth_source
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, ev.IoUThreshold, ev.ClassAware,
			ev.TruePositives, ev.FalsePositives, ev.FalseNegatives,
			ev.Precision, ev.Recall, ev.MeanIoUOnTruePositives,
			ev.Sources.Predictions, ev.Sources.GroundTruth,
		)
		if err != nil {
			return fmt.Errorf("insert evaluation: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO evaluation_frames (run_id, frame, true_positives, false_positives, false_negatives)
			VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare evaluation frames: %w", err)
		}
		defer stmt.Close()
		for _, f := range ev.Frames {
			if _, err := stmt.ExecContext(ctx, run.RunID, f.Frame, f.TruePositives, f.FalsePositives, f.FalseNegatives); err != nil {
				return fmt.Errorf("insert evaluation frame %d: %w", f.Frame, err)
			}
		}
		return nil
	})
}

// GetEvaluation returns the stored evaluation of a run, frames included.
func (db *DB) GetEvaluation(ctx context.Context, runID string) (*eval.Evaluation, error) {
	var ev eval.Evaluation
	err := db.QueryRowContext(ctx, `
		SELECT iou_threshold, class_aware,
		       true_positives, false_positives, false_negatives,
		       precision, recall, mean_iou_on_true_positives,
		       predictions_source, ground_truth_source
		FROM evaluations WHERE run_id = ?`, runID,
	).Scan(
		&ev.IoUThreshold, &ev.ClassAware,
		&ev.TruePositives, &ev.FalsePositives, &ev.FalseNegatives,
		&ev.Precision, &ev.Recall, &ev.MeanIoUOnTruePositives,
		&ev.Sources.Predictions, &ev.Sources.GroundTruth,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("evaluation for run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get evaluation: %w", err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT frame, true_positives, false_positives, false_negatives
		FROM evaluation_frames WHERE run_id = ? ORDER BY frame`, runID)
	if err != nil {
		return nil, fmt.Errorf("query evaluation frames: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var f eval.FrameSummary
		if err := rows.Scan(&f.Frame, &f.TruePositives, &f.FalsePositives, &f.FalseNegatives); err != nil {
			return nil, fmt.Errorf("scan evaluation frame: %w", err)
		}
		ev.Frames = append(ev.Frames, f)
	}
	return &ev, rows.Err()
}

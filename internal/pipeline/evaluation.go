package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"github.com/banshee-data/occupancy.report/internal/config"
	"github.com/banshee-data/occupancy.report/internal/eval"
	"github.com/banshee-data/occupancy.report/internal/monitoring"
	"github.com/banshee-data/occupancy.report/internal/tableio"
)

// EvaluationRequest names the inputs and output of a detector evaluation.
type EvaluationRequest struct {
	PredictionsPath string
	GroundTruthPath string
	// OutputPath receives the evaluation JSON. Empty skips the file.
	OutputPath string
	Label      string
	Config     *config.AnalysisConfig
	// OmitFrames drops the per-frame breakdown from the output.
	OmitFrames bool
}

// EvaluationResult is the outcome of RunEvaluation.
type EvaluationResult struct {
	Evaluation eval.Evaluation
	// RunID is set when the run was stored.
	RunID string
}

// RunEvaluation scores predictions against ground truth. The run is recorded
// in the store, when one is set, before the evaluation JSON is written, so a
// store failure leaves no output behind.
func (r *Runner) RunEvaluation(ctx context.Context, req EvaluationRequest) (*EvaluationResult, error) {
	done := r.stage("evaluation")
	defer done()

	cfg := configOrDefault(req.Config)
	predData, err := r.readFile(req.PredictionsPath)
	if err != nil {
		return nil, err
	}
	gtData, err := r.readFile(req.GroundTruthPath)
	if err != nil {
		return nil, err
	}
	preds, err := tableio.ReadDetections(bytes.NewReader(predData), req.PredictionsPath)
	if err != nil {
		return nil, err
	}
	gts, err := tableio.ReadGroundTruth(bytes.NewReader(gtData), req.GroundTruthPath)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matchOpts := eval.MatchOptions{
		IoUThreshold: cfg.GetIoUThreshold(),
		ClassAware:   cfg.GetClassAware(),
	}
	results, metrics := eval.Evaluate(preds, gts, eval.Options{
		MatchOptions: matchOpts,
		Workers:      cfg.GetWorkers(),
	})
	ev := eval.NewEvaluation(results, metrics, matchOpts, eval.SourceIdentifiers{
		Predictions: req.PredictionsPath,
		GroundTruth: req.GroundTruthPath,
	})
	if req.OmitFrames {
		ev.Frames = nil
	}
	monitoring.Logf("evaluation: %d predictions, %d ground-truth boxes over %d frames: precision=%.3f recall=%.3f",
		len(preds), len(gts), len(results), metrics.Precision, metrics.Recall)

	data, err := marshalIndent(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to encode evaluation: %w", err)
	}

	res := &EvaluationResult{Evaluation: ev}
	if r.Store != nil {
		run, err := newRun(req.Label, req.PredictionsPath, cfg)
		if err != nil {
			return nil, err
		}
		if err := r.Store.RecordEvaluation(ctx, run, ev); err != nil {
			return nil, fmt.Errorf("failed to store evaluation: %w", err)
		}
		res.RunID = run.RunID
	}
	if req.OutputPath != "" {
		if err := r.writeFile(req.OutputPath, data); err != nil {
			return nil, err
		}
	}
	return res, nil
}

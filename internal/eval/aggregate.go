package eval

import (
	"sort"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// DefaultWorkers bounds concurrent per-frame matching when Options.Workers
// is not set.
const DefaultWorkers = 4

// Options configures a corpus evaluation.
type Options struct {
	MatchOptions
	// Workers is the maximum number of frames matched concurrently.
	Workers int
}

// Evaluate matches every frame present in the ground truth and folds the
// results into corpus metrics. Predictions on frames without ground truth
// are ignored; frames with ground truth but no predictions contribute their
// boxes as false negatives. Results are ordered by ascending frame.
//
// Evaluate holds no state between calls and is safe for concurrent use.
func Evaluate(preds []Detection, gts []GroundTruthBox, opts Options) ([]MatchResult, Metrics) {
	gtByFrame := make(map[int][]GroundTruthBox)
	for _, g := range gts {
		gtByFrame[g.Frame] = append(gtByFrame[g.Frame], g)
	}
	predByFrame := make(map[int][]Detection)
	for _, p := range preds {
		if _, ok := gtByFrame[p.Frame]; !ok {
			continue
		}
		predByFrame[p.Frame] = append(predByFrame[p.Frame], p)
	}

	frames := make([]int, 0, len(gtByFrame))
	for f := range gtByFrame {
		frames = append(frames, f)
	}
	sort.Ints(frames)

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	// Each worker writes only its own slot, so the merge is deterministic.
	results := make([]MatchResult, len(frames))
	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	for i, f := range frames {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer func() {
				<-sem
				wg.Done()
			}()
			results[i] = MatchFrame(predByFrame[f], gtByFrame[f], opts.MatchOptions)
			results[i].Frame = f
		}()
	}
	wg.Wait()

	return results, Aggregate(results)
}

// Aggregate folds per-frame match results into corpus metrics.
func Aggregate(results []MatchResult) Metrics {
	var m Metrics
	var ious []float64
	for _, r := range results {
		m.TruePositives += len(r.Matches)
		m.FalsePositives += len(r.FalsePositives)
		m.FalseNegatives += len(r.FalseNegatives)
		for _, pair := range r.Matches {
			ious = append(ious, pair.IoU)
		}
	}

	m.Precision = ratio(m.TruePositives, m.TruePositives+m.FalsePositives)
	m.Recall = ratio(m.TruePositives, m.TruePositives+m.FalseNegatives)
	if len(ious) > 0 {
		m.MeanIoUOnTruePositives = stat.Mean(ious, nil)
	}
	return m
}

// NewEvaluation assembles the output record for one run.
func NewEvaluation(results []MatchResult, metrics Metrics, opts MatchOptions, sources SourceIdentifiers) Evaluation {
	frames := make([]FrameSummary, 0, len(results))
	for _, r := range results {
		frames = append(frames, FrameSummary{
			Frame:          r.Frame,
			TruePositives:  len(r.Matches),
			FalsePositives: len(r.FalsePositives),
			FalseNegatives: len(r.FalseNegatives),
		})
	}
	return Evaluation{
		IoUThreshold: opts.IoUThreshold,
		ClassAware:   opts.ClassAware,
		Metrics:      metrics,
		Sources:      sources,
		Frames:       frames,
	}
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

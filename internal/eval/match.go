package eval

import (
	"sort"

	"github.com/banshee-data/occupancy.report/internal/geom"
)

// MatchFrame assigns predictions to ground-truth boxes for a single frame.
//
// Predictions are stable-sorted by descending confidence (ties keep input
// order). Each prediction then takes the currently unmatched ground-truth box
// with the highest IoU, provided that IoU is positive and at least
// opts.IoUThreshold; otherwise it is a false positive. Ground truth left
// unmatched afterwards is a false negative. Cost is O(P·G).
//
// The inputs are not modified. The used-marker slice is local to the call.
func MatchFrame(preds []Detection, gts []GroundTruthBox, opts MatchOptions) MatchResult {
	result := MatchResult{}
	switch {
	case len(gts) > 0:
		result.Frame = gts[0].Frame
	case len(preds) > 0:
		result.Frame = preds[0].Frame
	default:
		return result
	}

	ordered := make([]Detection, len(preds))
	copy(ordered, preds)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Confidence > ordered[j].Confidence
	})

	used := make([]bool, len(gts))
	for _, p := range ordered {
		bestJ, bestIoU := -1, 0.0
		for j, g := range gts {
			if used[j] {
				continue
			}
			if opts.ClassAware && g.Class != p.Class {
				continue
			}
			// Strict comparison keeps the first ground-truth box on ties.
			if iou := geom.IoU(p.Box, g.Box); iou > bestIoU {
				bestJ, bestIoU = j, iou
			}
		}
		if bestJ >= 0 && bestIoU >= opts.IoUThreshold {
			used[bestJ] = true
			result.Matches = append(result.Matches, MatchedPair{
				Prediction:  p,
				GroundTruth: gts[bestJ],
				IoU:         bestIoU,
			})
			continue
		}
		result.FalsePositives = append(result.FalsePositives, p)
	}

	for j, g := range gts {
		if !used[j] {
			result.FalseNegatives = append(result.FalseNegatives, g)
		}
	}
	return result
}

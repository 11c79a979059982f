package eval

import "github.com/banshee-data/occupancy.report/internal/geom"

// Detection is a single predicted box. Frames are 1-based.
type Detection struct {
	Frame      int      `json:"frame"`
	Box        geom.Box `json:"box"`
	Class      int      `json:"class"`
	Confidence float64  `json:"confidence"`
}

// GroundTruthBox is an annotated box. Ground truth carries no confidence.
type GroundTruthBox struct {
	Frame int      `json:"frame"`
	Box   geom.Box `json:"box"`
	Class int      `json:"class"`
}

// MatchedPair is a prediction accepted as a true positive.
type MatchedPair struct {
	Prediction  Detection      `json:"prediction"`
	GroundTruth GroundTruthBox `json:"ground_truth"`
	IoU         float64        `json:"iou"`
}

// MatchResult is the outcome of matching a single frame. Every prediction
// appears exactly once in Matches or FalsePositives, and every ground-truth
// box exactly once in Matches or FalseNegatives.
type MatchResult struct {
	Frame          int              `json:"frame"`
	Matches        []MatchedPair    `json:"matches"`
	FalsePositives []Detection      `json:"false_positives"`
	FalseNegatives []GroundTruthBox `json:"false_negatives"`
}

// MatchOptions configures per-frame matching.
type MatchOptions struct {
	// IoUThreshold is the minimum IoU for a match (inclusive).
	IoUThreshold float64
	// ClassAware restricts matches to boxes of the same class.
	ClassAware bool
}

// Metrics are corpus-level detection quality figures.
type Metrics struct {
	TruePositives          int     `json:"true_positives"`
	FalsePositives         int     `json:"false_positives"`
	FalseNegatives         int     `json:"false_negatives"`
	Precision              float64 `json:"precision"`
	Recall                 float64 `json:"recall"`
	MeanIoUOnTruePositives float64 `json:"mean_iou_on_true_positives"`
}

// FrameSummary is the per-frame count breakdown included in an Evaluation.
type FrameSummary struct {
	Frame          int `json:"frame"`
	TruePositives  int `json:"tp"`
	FalsePositives int `json:"fp"`
	FalseNegatives int `json:"fn"`
}

// SourceIdentifiers names the tables an evaluation was computed from.
type SourceIdentifiers struct {
	Predictions string `json:"predictions"`
	GroundTruth string `json:"ground_truth"`
}

// Evaluation is the structured output record of one evaluation run.
type Evaluation struct {
	IoUThreshold float64 `json:"iou_threshold"`
	ClassAware   bool    `json:"class_aware,omitempty"`
	Metrics
	Sources SourceIdentifiers `json:"source_identifiers"`
	Frames  []FrameSummary    `json:"frames,omitempty"`
}

// Package eval scores a predicted detection stream against ground-truth
// annotations.
//
// Matching is greedy per frame: predictions are visited in descending
// confidence order and each takes the unmatched ground-truth box it overlaps
// most. This is the convention used by standard detection benchmarks and it
// must not be swapped for an optimal bipartite assignment; doing so changes
// the metric and breaks comparability between runs.
//
// No I/O happens here. Callers load tables at the boundary and pass slices.
package eval

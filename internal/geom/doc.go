// Package geom owns the box geometry shared by the evaluation and
// trajectory paths: axis-aligned boxes in image coordinates, areas,
// intersection-over-union and centroids.
//
// Degenerate or inverted boxes are legal values. They have zero area and
// produce zero IoU rather than an error.
//
// Dependency rule: geom is a leaf. It must not import any other internal
// package.
package geom

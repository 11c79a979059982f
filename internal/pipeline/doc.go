// Package pipeline wires table readers, the analysis packages, renderers and
// the run store into the batch commands: detector evaluation, trajectory
// summary, trajectory export and the robustness comparison.
//
// Every run reads and computes all of its outputs in memory before the first
// file is written, so a malformed input table leaves the output directory
// untouched.
package pipeline

// Package occupancy aggregates enriched track points into horizontal
// segments crossed with fixed-width time bins.
//
// Counts are of distinct identities, not rows: several observations of the
// same vehicle inside one (segment, bin) cell collapse to one. The question
// answered is "how many vehicles occupied this zone during this interval".
//
// Segment bounds are fixed once per run, either from the full table or from
// configuration, and are returned with every result so that outputs from
// different runs can be compared.
package occupancy

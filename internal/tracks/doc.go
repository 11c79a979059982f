// Package tracks derives per-identity kinematics from a table of
// identity-tagged box observations produced by an external tracker.
//
// Identities are taken as given. Nothing here re-identifies, merges or
// splits tracks; swapping the upstream tracker needs no change as long as it
// can be presented as a Source.
//
// Responsibilities: centroid, per-step displacement and speed, a trailing
// rolling-mean speed with an explicit "insufficient history" state, the
// parked/moving classification and the first-seen table.
package tracks

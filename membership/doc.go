// Package membership maintains an eventually-convergent view of cluster
// peers. An external inventory source reports which peers should exist; a
// periodic reconciliation cycle diffs that report against the peers we
// currently believe connected, drives connects and disconnects for the
// delta, and folds per-peer failures back in so the stored view tracks
// reality rather than intent.
package membership

// Package clock provides the tick source every node is driven by. There is
// no per-node vector clock here: divergence detection is out of scope, so
// nodes share a single monotonically advancing tick counter instead of
// causality metadata.
package clock

// Package repair implements the stabilization protocol: when a node's
// view of the ring changes, it re-homes every key it holds locally to the
// new replica set and sheds it from replicas that no longer belong,
// reconciling by unconditional overwrite rather than by version
// comparison.
package repair

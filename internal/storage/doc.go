// Package storage provides the local key-value storage interface and
// in-memory implementation each node uses for its primary and replica
// data. There is no versioning: conflict detection is out of scope, and
// the stabilization protocol reconciles replicas by unconditional
// overwrite instead.
package storage


// Package ring implements a consistent hashing ring with no virtual nodes:
// one physical peer occupies exactly one ring position. It maps keys to
// physical nodes and supports selection of replica preference lists, as a
// pure function of the current membership and the key.
package ring

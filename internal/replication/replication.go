// Package replication is the single policy-level accessor for "which
// nodes hold this key": both the coordinator and the stabilizer call it,
// which keeps the ring package itself a pure mechanism with no opinion on
// replication factor.
package replication

import (
	"kvstore/internal/ring"
)

// Factor is the fixed replication factor for every key in the store.
const Factor = 3

// GetReplicasForKey returns up to N replicas responsible for a key
// using the ring's preference list; fewer when the ring holds fewer than
// N nodes.
func GetReplicasForKey(r *ring.Ring, key string, replicationFactor int) []ring.Node {
	if replicationFactor <= 0 {
		replicationFactor = Factor
	}
	return r.PreferenceList(key, replicationFactor)
}

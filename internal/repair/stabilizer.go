package repair

import (
	"kvstore/internal/address"
	"kvstore/internal/replication"
	"kvstore/internal/ring"
	"kvstore/internal/storage"
	"kvstore/internal/transport"
	"kvstore/internal/wire"
)

// neighborSpread is how many successors and predecessors each node tracks
// as its own replica-holding and replica-held-by sets.
const neighborSpread = 2

// Stabilizer reconciles local data whenever this node's view of the ring
// changes. It is driven once per tick by the node; Run is a no-op unless
// the ring's hash multiset has actually changed since the last call.
type Stabilizer struct {
	self      address.Address
	store     storage.Store
	ring      *ring.Ring
	transport transport.Transport

	lastHashes []uint64

	hasMyReplicas  []address.Address // successors holding a copy of our data
	haveReplicasOf []address.Address // predecessors whose data we hold a copy of
}

// New wires a Stabilizer around the given ring, local store, and
// transport.
func New(self address.Address, store storage.Store, r *ring.Ring, tr transport.Transport) *Stabilizer {
	return &Stabilizer{
		self:      self,
		store:     store,
		ring:      r,
		transport: tr,
	}
}

// HasMyReplicas returns the successors currently believed to hold a copy
// of this node's data.
func (s *Stabilizer) HasMyReplicas() []address.Address {
	return append([]address.Address(nil), s.hasMyReplicas...)
}

// HaveReplicasOf returns the predecessors whose data this node currently
// holds a copy of.
func (s *Stabilizer) HaveReplicasOf() []address.Address {
	return append([]address.Address(nil), s.haveReplicasOf...)
}

// Run compares the ring's current hash multiset against the last one seen
// and, if it changed, re-homes every locally held key: an untracked
// DELETE to the old haveReplicasOf set, then an untracked
// STABILIZATION-CREATE to the new replica set under find_nodes(key). It
// then recomputes hasMyReplicas/haveReplicasOf from the new ring.
func (s *Stabilizer) Run() {
	current := s.ring.Hashes()
	if hashesEqual(current, s.lastHashes) {
		return
	}
	s.lastHashes = current

	oldHaveReplicasOf := s.haveReplicasOf

	for _, key := range s.store.Keys() {
		value, ok := s.store.Read(key)
		if !ok {
			continue
		}

		for _, addr := range oldHaveReplicasOf {
			frame := wire.EncodeKV(wire.KVFrame{
				TransID: wire.UntrackedTransID,
				From:    s.self,
				Type:    wire.Delete,
				Key:     key,
			})
			s.transport.Send(s.self, addr, frame)
		}

		replicas := replication.GetReplicasForKey(s.ring, key, replication.Factor)
		for i, node := range replicas {
			frame := wire.EncodeKV(wire.KVFrame{
				TransID: wire.UntrackedTransID,
				From:    s.self,
				Type:    wire.StabilizationCreate,
				Key:     key,
				Value:   value,
				Replica: i,
			})
			s.transport.Send(s.self, node.Addr, frame)
		}
	}

	s.hasMyReplicas, s.haveReplicasOf = neighbors(s.ring.GetNodes(), s.self, neighborSpread)
}

// neighbors returns the n successors and n predecessors of self within
// nodes, wrapping around. Both are empty if self is not on the ring or
// the ring has no other nodes.
func neighbors(nodes []ring.Node, self address.Address, n int) (successors, predecessors []address.Address) {
	idx := -1
	for i, node := range nodes {
		if node.Addr == self {
			idx = i
			break
		}
	}
	if idx == -1 || len(nodes) < 2 {
		return nil, nil
	}

	total := len(nodes)
	count := n
	if count > total-1 {
		count = total - 1
	}

	for i := 1; i <= count; i++ {
		successors = append(successors, nodes[(idx+i)%total].Addr)
	}
	for i := 1; i <= count; i++ {
		predecessors = append(predecessors, nodes[(idx-i+total)%total].Addr)
	}
	return successors, predecessors
}

func hashesEqual(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

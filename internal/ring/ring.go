package ring

import (
	"hash/fnv"
	"sort"
	"sync"

	"kvstore/internal/address"
)

// Node is a single position on the ring: a peer address plus the hash that
// places it there. There are no virtual nodes — one physical peer occupies
// exactly one ring position.
type Node struct {
	Addr address.Address
	Hash uint64
}

// Ring is a consistent-hash ring over a fixed modulus. It holds no
// membership logic of its own; the node rebuilds it from its member list
// with SetNodes on every tick.
type Ring struct {
	mu   sync.RWMutex
	size uint64
	nodes []Node // sorted ascending by (Hash, Addr)
}

// NewRing creates an empty ring over the given modulus. size must be
// positive; HashKey and HashAddress reduce mod size.
func NewRing(size uint64) *Ring {
	if size == 0 {
		size = 1024
	}
	return &Ring{size: size}
}

// HashKey hashes an arbitrary key string to a ring position.
func (r *Ring) HashKey(key string) uint64 {
	return hashString(key) % r.size
}

// HashAddress hashes a peer address to its ring position.
func (r *Ring) HashAddress(a address.Address) uint64 {
	return hashString(a.String()) % r.size
}

func hashString(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

func less(a, b Node) bool {
	if a.Hash != b.Hash {
		return a.Hash < b.Hash
	}
	return a.Addr.Less(b.Addr)
}

// SetNodes rebuilds the ring from scratch with the given addresses. This is
// deterministic: the same address set always produces the same sorted
// order, which is what lets every node compute identical replica sets
// without coordination.
func (r *Ring) SetNodes(addrs []address.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()

	nodes := make([]Node, 0, len(addrs))
	for _, a := range addrs {
		nodes = append(nodes, Node{Addr: a, Hash: r.HashAddress(a)})
	}
	sort.Slice(nodes, func(i, j int) bool { return less(nodes[i], nodes[j]) })
	r.nodes = nodes
}

// AddNode inserts a into the ring in sorted position. A no-op if a is
// already present.
func (r *Ring) AddNode(a address.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range r.nodes {
		if n.Addr == a {
			return
		}
	}
	n := Node{Addr: a, Hash: r.HashAddress(a)}
	idx := sort.Search(len(r.nodes), func(i int) bool { return !less(r.nodes[i], n) })
	r.nodes = append(r.nodes, Node{})
	copy(r.nodes[idx+1:], r.nodes[idx:])
	r.nodes[idx] = n
}

// RemoveNode deletes a from the ring, if present.
func (r *Ring) RemoveNode(a address.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, n := range r.nodes {
		if n.Addr == a {
			r.nodes = append(r.nodes[:i], r.nodes[i+1:]...)
			return
		}
	}
}

// ResponsibleNode returns the primary node for key: the first ring position
// whose hash is >= H(key), wrapping to the first node if none qualifies.
func (r *Ring) ResponsibleNode(key string) (Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.nodes) == 0 {
		return Node{}, false
	}
	idx := r.findIndexLocked(key)
	return r.nodes[idx], true
}

func (r *Ring) findIndexLocked(key string) int {
	keyHash := r.HashKey(key)
	idx := sort.Search(len(r.nodes), func(i int) bool { return r.nodes[i].Hash >= keyHash })
	if idx >= len(r.nodes) {
		idx = 0
	}
	return idx
}

// PreferenceList returns up to n consecutive ring positions starting at
// key's responsible node, wrapping around. Position 0 is the primary,
// position 1 the first successor (secondary), and so on.
func (r *Ring) PreferenceList(key string, n int) []Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.nodes) == 0 || n <= 0 {
		return nil
	}
	idx := r.findIndexLocked(key)

	count := n
	if count > len(r.nodes) {
		count = len(r.nodes)
	}
	result := make([]Node, 0, count)
	for i := 0; i < count; i++ {
		result = append(result, r.nodes[(idx+i)%len(r.nodes)])
	}
	return result
}

// GetNodes returns a snapshot of every node currently on the ring, in
// sorted order.
func (r *Ring) GetNodes() []Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	nodes := make([]Node, len(r.nodes))
	copy(nodes, r.nodes)
	return nodes
}

// Hashes returns the sorted multiset of ring hashes. The stabilizer
// compares successive snapshots of this to detect a ring change.
func (r *Ring) Hashes() []uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	hashes := make([]uint64, len(r.nodes))
	for i, n := range r.nodes {
		hashes[i] = n.Hash
	}
	return hashes
}

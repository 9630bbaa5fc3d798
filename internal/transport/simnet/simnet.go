// Package simnet is an in-memory Transport for tests and the in-process
// integration harness. Every Send enqueues into the destination's mailbox;
// every Recv drains and returns that mailbox's contents.
package simnet

import (
	"math/rand"
	"sync"

	"kvstore/internal/address"
)

// Network is a shared, in-memory message bus. The zero value is ready to
// use. A Network is safe for concurrent use, though the core itself never
// calls it concurrently — the safety is for harnesses that tick nodes from
// multiple goroutines.
type Network struct {
	mu        sync.Mutex
	mailboxes map[address.Address][][]byte
	dropRate  float64
	rng       func() float64
}

// New returns an empty Network.
func New() *Network {
	return &Network{mailboxes: make(map[address.Address][][]byte)}
}

// SetDropRate makes Send silently discard a fraction of frames, in [0,1],
// to exercise the quorum and gossip layers' tolerance for lost messages.
// rng defaults to a deterministic source if nil.
func (n *Network) SetDropRate(rate float64, rng func() float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if rng == nil {
		rng = rand.New(rand.NewSource(1)).Float64
	}
	n.dropRate = rate
	n.rng = rng
}

// Send enqueues frame for dst. src is recorded only for symmetry with the
// Transport interface; simnet does not need it for delivery.
func (n *Network) Send(src, dst address.Address, frame []byte) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.dropRate > 0 && n.rng != nil && n.rng() < n.dropRate {
		return
	}
	buf := make([]byte, len(frame))
	copy(buf, frame)
	if n.mailboxes == nil {
		n.mailboxes = make(map[address.Address][][]byte)
	}
	n.mailboxes[dst] = append(n.mailboxes[dst], buf)
}

// Recv drains and returns self's mailbox.
func (n *Network) Recv(self address.Address) [][]byte {
	n.mu.Lock()
	defer n.mu.Unlock()
	msgs := n.mailboxes[self]
	delete(n.mailboxes, self)
	return msgs
}

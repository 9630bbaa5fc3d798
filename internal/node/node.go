// Package node assembles one cluster member out of the membership,
// ring, storage, coordinator, and stabilization packages, and drives
// them through the single per-tick entry point described in SPEC_FULL.md
// §5: dispatch every inbound frame in arrival order (membership frames to
// the gossiper, KV frames to the coordinator or the local store), run the
// membership protocol, rebuild the ring from the member list, sweep the
// coordinator for timed-out transactions, and stabilize if the ring
// changed. KV handling reads neither the member list nor the ring, so
// dispatching KV frames ahead of the membership step gives the same result
// as draining them after it.
package node

import (
	"math/rand"

	"kvstore/internal/address"
	"kvstore/internal/clock"
	"kvstore/internal/config"
	"kvstore/internal/coordinator"
	"kvstore/internal/gossip"
	"kvstore/internal/logging"
	"kvstore/internal/repair"
	"kvstore/internal/ring"
	"kvstore/internal/storage"
	"kvstore/internal/transport"
	"kvstore/internal/wire"
)

// Node is one member of the cluster: a single-threaded, tick-driven unit
// exclusively owning its own membership list, ring view, local store, and
// transaction table.
type Node struct {
	self      address.Address
	clk       clock.Clock
	transport transport.Transport
	logger    logging.Logger
	params    config.Params

	Members    *gossip.MemberList
	Gossiper   *gossip.Gossiper
	Ring       *ring.Ring
	Store      storage.Store
	Coord      *coordinator.Coordinator
	Stabilizer *repair.Stabilizer
}

// New wires a Node around self. rng seeds the gossiper's randomized
// fanout selection; pass a deterministically seeded *rand.Rand for
// reproducible tests.
func New(self address.Address, clk clock.Clock, tr transport.Transport, logger logging.Logger, params config.Params, rng *rand.Rand) *Node {
	members := gossip.NewMemberList(self)
	gossiper := gossip.NewGossiper(members, clk, tr, logger, rng, params.GossipFanout, params.TFAIL, params.TREMOVE)
	r := ring.NewRing(params.RingSize)
	store := storage.NewInMemoryStore()
	coord := coordinator.New(self, tr, logger, clk, r, params.TransactionTimeout)
	stabilizer := repair.New(self, store, r, tr)

	return &Node{
		self:       self,
		clk:        clk,
		transport:  tr,
		logger:     logger,
		params:     params,
		Members:    members,
		Gossiper:   gossiper,
		Ring:       r,
		Store:      store,
		Coord:      coord,
		Stabilizer: stabilizer,
	}
}

// Self returns this node's own address.
func (n *Node) Self() address.Address {
	return n.self
}

// Tick runs one full round: see package doc for the ordering.
func (n *Node) Tick() {
	for _, buf := range n.transport.Recv(n.self) {
		if wire.IsMembership(buf) {
			n.Gossiper.Deliver(buf)
		} else {
			n.deliverKV(buf)
		}
	}

	n.Gossiper.Tick()
	n.Ring.SetNodes(n.Members.Addresses())

	n.Coord.Tick()
	n.Stabilizer.Run()
}

func (n *Node) deliverKV(buf []byte) {
	f, err := wire.DecodeKV(buf)
	if err != nil {
		return
	}

	switch f.Type {
	case wire.Reply:
		n.Coord.HandleReply(f)
	case wire.ReadReply:
		n.Coord.HandleReadReply(f)
	default:
		n.executeServerSide(f)
	}
}

// executeServerSide runs an inbound CRUD or stabilization request against
// the local store and, for tracked requests, replies to the sender. A
// message with an untracked trans_id (the stabilization protocol's
// DELETE/STABILIZATION-CREATE) produces no reply and no server-side log.
func (n *Node) executeServerSide(f wire.KVFrame) {
	tracked := f.TransID != wire.UntrackedTransID

	switch f.Type {
	case wire.Create:
		ok := n.Store.Create(f.Key, f.Value)
		n.replyTracked(f, tracked, ok)
	case wire.Update:
		ok := n.Store.Update(f.Key, f.Value)
		n.replyTracked(f, tracked, ok)
	case wire.Delete, wire.StabilizationDelete:
		ok := n.Store.Delete(f.Key)
		n.replyTracked(f, tracked, ok)
	case wire.Read:
		value, ok := n.Store.Read(f.Key)
		if tracked {
			if ok {
				n.logger.ServerSuccess(n.self, f.TransID, string(f.Type), f.Key)
			} else {
				n.logger.ServerFailure(n.self, f.TransID, string(f.Type), f.Key)
			}
			reply := wire.EncodeKV(wire.KVFrame{TransID: f.TransID, From: n.self, Type: wire.ReadReply, Value: value})
			n.transport.Send(n.self, f.From, reply)
		}
	case wire.StabilizationCreate:
		n.Store.StabilizationCreate(f.Key, f.Value)
	}
}

func (n *Node) replyTracked(f wire.KVFrame, tracked, success bool) {
	if !tracked {
		return
	}
	if success {
		n.logger.ServerSuccess(n.self, f.TransID, string(f.Type), f.Key)
	} else {
		n.logger.ServerFailure(n.self, f.TransID, string(f.Type), f.Key)
	}
	reply := wire.EncodeKV(wire.KVFrame{TransID: f.TransID, From: n.self, Type: wire.Reply, Success: success})
	n.transport.Send(n.self, f.From, reply)
}

// Create starts a client-visible CREATE for (key, value).
func (n *Node) Create(key, value string) int32 {
	return n.Coord.Create(key, value)
}

// Read starts a client-visible READ for key.
func (n *Node) Read(key string) int32 {
	return n.Coord.Read(key)
}

// Update starts a client-visible UPDATE for (key, value).
func (n *Node) Update(key, value string) int32 {
	return n.Coord.Update(key, value)
}

// Delete starts a client-visible DELETE for key.
func (n *Node) Delete(key string) int32 {
	return n.Coord.Delete(key)
}

package gossip

import (
	"math/rand"
	"sort"

	"kvstore/internal/address"
	"kvstore/internal/clock"
	"kvstore/internal/logging"
	"kvstore/internal/transport"
	"kvstore/internal/wire"
)

// Gossiper drives one node's membership protocol: bootstrap against the
// fixed introducer, periodic randomized-fanout gossip, and time-based
// suspicion/eviction. It owns no state of its own beyond its tunables and
// collaborators; MemberList holds the actual member data.
type Gossiper struct {
	list      *MemberList
	clk       clock.Clock
	transport transport.Transport
	logger    logging.Logger
	rng       *rand.Rand

	fanout  int
	tfail   int64
	tremove int64
}

// NewGossiper wires a Gossiper around list. rng must not be nil; pass a
// seeded *rand.Rand for deterministic tests.
func NewGossiper(list *MemberList, clk clock.Clock, tr transport.Transport, logger logging.Logger, rng *rand.Rand, fanout int, tfail, tremove int64) *Gossiper {
	return &Gossiper{
		list:      list,
		clk:       clk,
		transport: tr,
		logger:    logger,
		rng:       rng,
		fanout:    fanout,
		tfail:     tfail,
		tremove:   tremove,
	}
}

// Deliver processes one inbound membership frame already classified by
// wire.IsMembership.
func (g *Gossiper) Deliver(buf []byte) error {
	f, err := wire.Decode(buf)
	if err != nil {
		return err
	}
	currentTick := g.clk.CurrentTick()
	switch f.Type {
	case wire.JoinReq:
		g.onJoinReq(f.Sender, f.Heartbeat, currentTick)
	case wire.JoinRep:
		g.onJoinRep(f.Entries, currentTick)
	case wire.Gossip:
		g.onGossip(f.Entries, currentTick)
	}
	return nil
}

func (g *Gossiper) onJoinReq(sender address.Address, heartbeat, currentTick int64) {
	self := g.list.Self()
	if g.list.Insert(sender, heartbeat, currentTick) {
		g.logger.MemberAdded(self, sender)
	}

	reply := make([]wire.Entry, 0)
	for _, e := range g.list.Entries() {
		if e.Addr == sender {
			continue
		}
		reply = append(reply, wire.Entry{Addr: e.Addr, Heartbeat: e.Heartbeat})
	}
	frame := wire.EncodeMembers(wire.JoinRep, self, reply)
	g.transport.Send(self, sender, frame)
}

func (g *Gossiper) onJoinRep(entries []wire.Entry, currentTick int64) {
	self := g.list.Self()
	for _, e := range entries {
		if e.Addr == self {
			continue
		}
		if !g.list.Contains(e.Addr) {
			g.list.Insert(e.Addr, e.Heartbeat, currentTick)
			g.logger.MemberAdded(self, e.Addr)
		} else {
			g.list.Merge(e.Addr, e.Heartbeat, currentTick, g.tfail)
		}
	}
	g.list.SetInGroup(true)
}

func (g *Gossiper) onGossip(entries []wire.Entry, currentTick int64) {
	self := g.list.Self()
	for _, e := range entries {
		if e.Addr == self {
			continue
		}
		wasKnown := g.list.Contains(e.Addr)
		if g.list.Merge(e.Addr, e.Heartbeat, currentTick, g.tfail) && !wasKnown {
			g.logger.MemberAdded(self, e.Addr)
		}
	}
}

// Tick runs one round of the membership protocol: bootstrap retry if not
// yet in-group, otherwise eviction, randomized-fanout gossip send, and the
// self heartbeat bump.
func (g *Gossiper) Tick() {
	self := g.list.Self()
	currentTick := g.clk.CurrentTick()

	if !g.list.InGroup() {
		if self == address.Introducer {
			g.list.SetInGroup(true)
		} else {
			entry, _ := g.list.Get(self)
			frame := wire.EncodeJoinReq(self, entry.Heartbeat)
			g.transport.Send(self, address.Introducer, frame)
		}
		return
	}

	for _, evicted := range g.list.EvictExpired(currentTick, g.tfail, g.tremove) {
		g.logger.MemberRemoved(self, evicted)
	}

	g.sendGossip(currentTick)
	g.list.BumpSelf(currentTick)
}

func (g *Gossiper) sendGossip(currentTick int64) {
	self := g.list.Self()
	all := g.list.Entries()

	peers := make([]address.Address, 0, len(all))
	for _, e := range all {
		if e.Addr != self {
			peers = append(peers, e.Addr)
		}
	}
	if len(peers) == 0 {
		return
	}
	sort.Slice(peers, func(i, j int) bool { return peers[i].Less(peers[j]) })
	g.rng.Shuffle(len(peers), func(i, j int) { peers[i], peers[j] = peers[j], peers[i] })

	n := g.fanout
	if n > len(peers) {
		n = len(peers)
	}

	payload := make([]wire.Entry, 0, len(all))
	for _, e := range all {
		if currentTick-e.LastHeard <= g.tfail {
			payload = append(payload, wire.Entry{Addr: e.Addr, Heartbeat: e.Heartbeat})
		}
	}

	for i := 0; i < n; i++ {
		frame := wire.EncodeMembers(wire.Gossip, self, payload)
		g.transport.Send(self, peers[i], frame)
	}
}

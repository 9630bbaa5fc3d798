// Package it drives an in-process simulated cluster of node.Node values
// over a shared simnet.Network and a shared manual clock, so the
// end-to-end scenarios in SPEC_FULL.md §8 can be exercised tick by tick
// without spawning real OS processes.
package it

import (
	"math/rand"

	"kvstore/internal/address"
	"kvstore/internal/clock"
	"kvstore/internal/config"
	"kvstore/internal/logging"
	"kvstore/internal/node"
	"kvstore/internal/transport/simnet"
)

// Cluster is a set of simulated nodes sharing one network and one clock.
// Killing a node removes it from the tick rotation without removing its
// mailbox, modeling a permanent crash rather than a graceful shutdown.
type Cluster struct {
	Net    *simnet.Network
	Clk    *clock.Manual
	Params config.Params
	Logger logging.Logger

	order []address.Address
	nodes map[address.Address]*node.Node
	alive map[address.Address]bool
}

// NewCluster creates an empty cluster. Logger defaults to a Noop logger
// if nil.
func NewCluster(params config.Params, logger logging.Logger) *Cluster {
	if logger == nil {
		logger = logging.Noop{}
	}
	return &Cluster{
		Net:    simnet.New(),
		Clk:    clock.NewManual(0),
		Params: params,
		Logger: logger,
		nodes:  make(map[address.Address]*node.Node),
		alive:  make(map[address.Address]bool),
	}
}

// AddNode creates and registers a node at addr, seeded deterministically
// from its position in the cluster so repeated runs are reproducible.
func (c *Cluster) AddNode(addr address.Address) *node.Node {
	seed := int64(len(c.order) + 1)
	n := node.New(addr, c.Clk, c.Net, c.Logger, c.Params, rand.New(rand.NewSource(seed)))
	c.nodes[addr] = n
	c.alive[addr] = true
	c.order = append(c.order, addr)
	return n
}

// Node returns the node registered at addr, if any.
func (c *Cluster) Node(addr address.Address) (*node.Node, bool) {
	n, ok := c.nodes[addr]
	return n, ok
}

// Kill removes addr from the tick rotation, simulating a permanent crash:
// it stops sending or processing anything from this point on.
func (c *Cluster) Kill(addr address.Address) {
	c.alive[addr] = false
}

// Alive returns the addresses currently participating in ticks, in the
// order they were added.
func (c *Cluster) Alive() []address.Address {
	var out []address.Address
	for _, a := range c.order {
		if c.alive[a] {
			out = append(out, a)
		}
	}
	return out
}

// Tick advances the shared clock by one and ticks every live node once,
// in a fixed deterministic order.
func (c *Cluster) Tick() {
	c.Clk.Advance(1)
	for _, a := range c.order {
		if c.alive[a] {
			c.nodes[a].Tick()
		}
	}
}

// Run calls Tick n times.
func (c *Cluster) Run(n int) {
	for i := 0; i < n; i++ {
		c.Tick()
	}
}

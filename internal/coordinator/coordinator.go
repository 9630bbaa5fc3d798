// Package coordinator drives the client-visible side of a quorum
// transaction: allocating a trans_id, fanning a request out to the three
// replicas of a key, and finalizing on the third reply or on timeout.
// Executing a request at a replica (the server side of §4.3) belongs to
// the node package, which owns the local Store; this package only tracks
// outcomes for requests this node originated.
package coordinator

import (
	"sync"

	"kvstore/internal/address"
	"kvstore/internal/clock"
	"kvstore/internal/logging"
	"kvstore/internal/replication"
	"kvstore/internal/ring"
	"kvstore/internal/transport"
	"kvstore/internal/wire"
)

// ReplicationFactor is fixed: every key has exactly three replicas.
const ReplicationFactor = replication.Factor

// Transaction tracks one in-flight or finished client request.
type Transaction struct {
	TransID   int32
	Op        wire.KVType
	Key       string
	Value     string
	CreatedAt int64

	RepliesReceived int
	RepliesSuccess  int
	ReadValue       string

	Finished bool
	Success  bool
}

// Coordinator allocates and tracks transactions originated by this node.
// The transaction table is dense and indexed by trans_id: once a slot is
// allocated it is never removed, only marked finished, so a late or
// duplicate reply referencing a stale id is distinguishable from one that
// never existed.
type Coordinator struct {
	mu sync.Mutex

	self      address.Address
	transport transport.Transport
	logger    logging.Logger
	clk       clock.Clock
	ring      *ring.Ring
	timeout   int64

	transactions []*Transaction
}

// New wires a Coordinator. timeout is the number of ticks a transaction
// may remain unfinished before Tick forces it to a quorum-or-fail verdict.
func New(self address.Address, tr transport.Transport, logger logging.Logger, clk clock.Clock, r *ring.Ring, timeout int64) *Coordinator {
	return &Coordinator{
		self:      self,
		transport: tr,
		logger:    logger,
		clk:       clk,
		ring:      r,
		timeout:   timeout,
	}
}

// Create starts a CREATE transaction for (key, value). Returns the
// allocated trans_id, or -1 if the ring has fewer than three nodes.
func (c *Coordinator) Create(key, value string) int32 {
	return c.start(wire.Create, key, value)
}

// Read starts a READ transaction for key.
func (c *Coordinator) Read(key string) int32 {
	return c.start(wire.Read, key, "")
}

// Update starts an UPDATE transaction for (key, value).
func (c *Coordinator) Update(key, value string) int32 {
	return c.start(wire.Update, key, value)
}

// Delete starts a DELETE transaction for key.
func (c *Coordinator) Delete(key string) int32 {
	return c.start(wire.Delete, key, "")
}

func (c *Coordinator) start(op wire.KVType, key, value string) int32 {
	replicas := replication.GetReplicasForKey(c.ring, key, ReplicationFactor)
	if len(replicas) < ReplicationFactor {
		c.logger.CoordinatorFailure(c.self, -1, string(op), key)
		return -1
	}

	c.mu.Lock()
	transID := int32(len(c.transactions))
	t := &Transaction{
		TransID:   transID,
		Op:        op,
		Key:       key,
		Value:     value,
		CreatedAt: c.clk.CurrentTick(),
	}
	c.transactions = append(c.transactions, t)
	c.mu.Unlock()

	for i, node := range replicas {
		frame := wire.EncodeKV(wire.KVFrame{
			TransID: transID,
			From:    c.self,
			Type:    op,
			Key:     key,
			Value:   value,
			Replica: i,
		})
		c.transport.Send(c.self, node.Addr, frame)
	}
	return transID
}

// HandleReply applies an inbound REPLY to the transaction it names,
// finalizing it once the third reply arrives. Frames with an unknown or
// already-finished trans_id are dropped silently.
func (c *Coordinator) HandleReply(f wire.KVFrame) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.lookupLocked(f.TransID)
	if t == nil {
		return
	}
	t.RepliesReceived++
	if f.Success {
		t.RepliesSuccess++
	}
	if t.RepliesReceived >= ReplicationFactor {
		c.finalizeLocked(t)
	}
}

// HandleReadReply applies an inbound READREPLY. A non-empty value counts
// as a successful reply and becomes the transaction's collected read
// value, overwriting any earlier one: divergence between replicas is not
// detected, the most recently arrived non-empty value wins.
func (c *Coordinator) HandleReadReply(f wire.KVFrame) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.lookupLocked(f.TransID)
	if t == nil {
		return
	}
	t.RepliesReceived++
	if f.Value != "" {
		t.RepliesSuccess++
		t.ReadValue = f.Value
	}
	if t.RepliesReceived >= ReplicationFactor {
		c.finalizeLocked(t)
	}
}

func (c *Coordinator) lookupLocked(transID int32) *Transaction {
	if transID < 0 || int(transID) >= len(c.transactions) {
		return nil
	}
	t := c.transactions[transID]
	if t.Finished {
		return nil
	}
	return t
}

func (c *Coordinator) finalizeLocked(t *Transaction) {
	t.Finished = true
	t.Success = t.RepliesSuccess >= 2
	if t.Success {
		c.logger.CoordinatorSuccess(c.self, t.TransID, string(t.Op), t.Key)
	} else {
		c.logger.CoordinatorFailure(c.self, t.TransID, string(t.Op), t.Key)
	}
}

// Tick forces every transaction older than timeout ticks to a final
// verdict, even if fewer than three replies have arrived.
func (c *Coordinator) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clk.CurrentTick()
	for _, t := range c.transactions {
		if t.Finished {
			continue
		}
		if now-t.CreatedAt > c.timeout {
			c.finalizeLocked(t)
		}
	}
}

// Result returns a snapshot of transID's transaction, if it has been
// allocated.
func (c *Coordinator) Result(transID int32) (Transaction, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if transID < 0 || int(transID) >= len(c.transactions) {
		return Transaction{}, false
	}
	return *c.transactions[transID], true
}

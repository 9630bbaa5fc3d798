package it

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kvstore/internal/address"
	"kvstore/internal/config"
	"kvstore/internal/wire"
)

func TestSmoke_IntroducerBootstrap(t *testing.T) {
	params := config.DefaultParams()
	c := NewCluster(params, nil)

	a := c.AddNode(address.Introducer)
	b := c.AddNode(address.Address{ID: 2, Port: 0})

	c.Run(2)

	assert.True(t, a.Members.Contains(b.Self()), "A should know about B")
	assert.True(t, b.Members.Contains(a.Self()), "B should know about A")
	assert.True(t, b.Members.InGroup(), "B should have completed bootstrap")
}

func TestSmoke_FailureDetection(t *testing.T) {
	params := config.DefaultParams()
	c := NewCluster(params, nil)

	var addrs []address.Address
	addrs = append(addrs, address.Introducer)
	for i := uint32(2); i <= 10; i++ {
		addrs = append(addrs, address.Address{ID: i, Port: 0})
	}
	for _, a := range addrs {
		c.AddNode(a)
	}

	// Let the cluster fully converge, so every survivor's record of the
	// victim's heartbeat is fresh as of the tick it's killed on.
	c.Run(40)
	for _, a := range addrs {
		n, _ := c.Node(a)
		require.True(t, n.Members.InGroup() || a == address.Introducer)
	}

	victim := address.Address{ID: 5, Port: 0}
	c.Kill(victim)

	// None of the survivors should remove victim well before TFAIL ticks.
	c.Run(int(params.TFAIL) - 1)
	for _, a := range c.Alive() {
		n, _ := c.Node(a)
		assert.True(t, n.Members.Contains(victim), "victim removed too early at node %s", a)
	}

	// All survivors must have removed victim once TREMOVE ticks, plus a few
	// ticks of slack for its last heartbeat to finish spreading, have passed.
	c.Run(int(params.TREMOVE) + 5)
	for _, a := range c.Alive() {
		n, _ := c.Node(a)
		assert.False(t, n.Members.Contains(victim), "victim not evicted at node %s", a)
	}
}

func TestSmoke_QuorumCRUD(t *testing.T) {
	params := config.DefaultParams()
	c := NewCluster(params, nil)

	addrs := []address.Address{{ID: 1, Port: 0}, {ID: 2, Port: 0}, {ID: 3, Port: 0}}
	for _, a := range addrs {
		c.AddNode(a)
		n, _ := c.Node(a)
		for _, other := range addrs {
			if other != a {
				n.Members.Insert(other, 0, 0)
			}
		}
	}
	c.Run(1) // rebuild each node's ring from its now-complete member list

	coord, _ := c.Node(addrs[0])
	createID := coord.Create("k1", "v1")
	require.GreaterOrEqual(t, createID, int32(0))
	c.Run(5)

	createRes, ok := coord.Coord.Result(createID)
	require.True(t, ok)
	assert.True(t, createRes.Finished)
	assert.True(t, createRes.Success)

	readID := coord.Read("k1")
	c.Run(5)
	readRes, ok := coord.Coord.Result(readID)
	require.True(t, ok)
	assert.True(t, readRes.Success)
	assert.Equal(t, "v1", readRes.ReadValue)
}

func TestSmoke_PartialFailure_QuorumStillSucceeds(t *testing.T) {
	params := config.DefaultParams()
	c := NewCluster(params, nil)

	addrs := []address.Address{{ID: 1, Port: 0}, {ID: 2, Port: 0}, {ID: 3, Port: 0}}
	for _, a := range addrs {
		c.AddNode(a)
		n, _ := c.Node(a)
		for _, other := range addrs {
			if other != a {
				n.Members.Insert(other, 0, 0)
			}
		}
	}
	c.Run(1)

	coord, _ := c.Node(addrs[0])
	createID := coord.Create("k1", "v1")
	c.Run(5)
	res, _ := coord.Coord.Result(createID)
	require.True(t, res.Success)

	c.Kill(addrs[2])

	updateID := coord.Update("k1", "v2")
	// The dead replica never replies, so this only finalizes via the
	// coordinator's timeout sweep, not the 3rd-reply path.
	c.Run(int(params.TransactionTimeout) + 2)
	updateRes, ok := coord.Coord.Result(updateID)
	require.True(t, ok)
	assert.True(t, updateRes.Finished)
	assert.True(t, updateRes.Success, "2 of 3 replicas alive should still reach quorum")
}

func TestSmoke_Stabilization_NewReplicaGetsData(t *testing.T) {
	params := config.DefaultParams()
	c := NewCluster(params, nil)

	addrs := []address.Address{{ID: 1, Port: 0}, {ID: 2, Port: 0}, {ID: 3, Port: 0}, {ID: 4, Port: 0}}
	for _, a := range addrs {
		c.AddNode(a)
		n, _ := c.Node(a)
		for _, other := range addrs {
			if other != a {
				n.Members.Insert(other, 0, 0)
			}
		}
	}
	c.Run(1)

	node1, _ := c.Node(addrs[0])
	prefs := node1.Ring.PreferenceList("k1", 3)
	require.Len(t, prefs, 3)

	inReplicaSet := make(map[address.Address]bool, 3)
	for _, p := range prefs {
		inReplicaSet[p.Addr] = true
	}
	var fourth address.Address
	for _, a := range addrs {
		if !inReplicaSet[a] {
			fourth = a
		}
	}
	require.NotZero(t, fourth)

	createID := node1.Create("k1", "v1")
	c.Run(5)
	res, _ := node1.Coord.Result(createID)
	require.True(t, res.Success)

	fourthNode, _ := c.Node(fourth)
	_, had := fourthNode.Store.Read("k1")
	require.False(t, had, "the 4th-closest node should not hold the key before any failure")

	r1 := prefs[0].Addr
	c.Kill(r1)

	// Run well past TREMOVE so every survivor evicts r1 from its ring,
	// then a couple more ticks for the stabilizer to re-home the key.
	c.Run(int(params.TREMOVE) + 5)

	value, ok := fourthNode.Store.Read("k1")
	assert.True(t, ok, "expected stabilization to replicate k1 onto the new 3rd replica")
	assert.Equal(t, "v1", value)
}

func TestSmoke_StaleReplyDroppedAfterFinalize(t *testing.T) {
	params := config.DefaultParams()
	c := NewCluster(params, nil)

	addrs := []address.Address{{ID: 1, Port: 0}, {ID: 2, Port: 0}, {ID: 3, Port: 0}}
	for _, a := range addrs {
		c.AddNode(a)
		n, _ := c.Node(a)
		for _, other := range addrs {
			if other != a {
				n.Members.Insert(other, 0, 0)
			}
		}
	}
	c.Run(1)

	coord, _ := c.Node(addrs[0])
	createID := coord.Create("k1", "v1")

	// All 3 replicas are alive, so this finalizes well within a handful
	// of ticks via the reply-accounting path, not the timeout sweep.
	c.Run(5)
	before, _ := coord.Coord.Result(createID)
	require.True(t, before.Finished)
	require.True(t, before.Success)

	// Simulate R3 replying 16 ticks late: the coordinator must not
	// reopen or alter the already-finalized transaction.
	c.Run(16)
	coord.Coord.HandleReply(wire.KVFrame{TransID: createID, Success: false})
	after, _ := coord.Coord.Result(createID)
	assert.Equal(t, before, after)
}

package gossip

import (
	"sync"

	"kvstore/internal/address"
)

// MemberStatus is the time-derived state of a peer entry. Transitions are
// one-directional and driven solely by how long it has been since the
// entry's heartbeat last advanced: Alive -> Suspect -> Removed.
type MemberStatus int

const (
	Alive MemberStatus = iota
	Suspect
	Removed
)

func (s MemberStatus) String() string {
	switch s {
	case Alive:
		return "ALIVE"
	case Suspect:
		return "SUSPECT"
	case Removed:
		return "REMOVED"
	default:
		return "UNKNOWN"
	}
}

// MemberEntry is one peer's row in the member list.
type MemberEntry struct {
	Addr      address.Address
	Heartbeat int64
	LastHeard int64 // local tick at which Heartbeat last advanced
}

// Status derives this entry's MemberStatus from the current tick.
func (e MemberEntry) Status(currentTick, tfail, tremove int64) MemberStatus {
	elapsed := currentTick - e.LastHeard
	switch {
	case elapsed >= tremove:
		return Removed
	case elapsed > tfail:
		return Suspect
	default:
		return Alive
	}
}

// MemberList is the set of peers this node knows about, keyed by address.
// It always contains an entry for self. It holds no wire or scheduling
// logic of its own; Gossiper drives it each tick.
type MemberList struct {
	mu      sync.RWMutex
	self    address.Address
	entries map[address.Address]*MemberEntry
	inGroup bool
}

// NewMemberList creates a list containing only self, with heartbeat 0.
func NewMemberList(self address.Address) *MemberList {
	return &MemberList{
		self: self,
		entries: map[address.Address]*MemberEntry{
			self: {Addr: self, Heartbeat: 0, LastHeard: 0},
		},
		inGroup: self == address.Introducer,
	}
}

// Self returns this node's own address.
func (l *MemberList) Self() address.Address {
	return l.self
}

// InGroup reports whether this node has completed bootstrap (introducer is
// always in-group from the start; others join on JOINREP).
func (l *MemberList) InGroup() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.inGroup
}

// SetInGroup marks bootstrap as complete.
func (l *MemberList) SetInGroup(v bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inGroup = v
}

// Get returns a's entry, if present.
func (l *MemberList) Get(a address.Address) (MemberEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, ok := l.entries[a]
	if !ok {
		return MemberEntry{}, false
	}
	return *e, true
}

// Contains reports whether a has an entry.
func (l *MemberList) Contains(a address.Address) bool {
	_, ok := l.Get(a)
	return ok
}

// Insert adds a fresh entry for a, observed at currentTick with the given
// heartbeat. A no-op if a is already present — use Merge to update.
func (l *MemberList) Insert(a address.Address, heartbeat, currentTick int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.entries[a]; exists {
		return false
	}
	l.entries[a] = &MemberEntry{Addr: a, Heartbeat: heartbeat, LastHeard: currentTick}
	return true
}

// Remove deletes a's entry, if present.
func (l *MemberList) Remove(a address.Address) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.entries[a]; !exists {
		return false
	}
	delete(l.entries, a)
	return true
}

// Merge applies one remote observation under the merge rule of §4.1: an
// unknown address is inserted outright; a known address adopts the remote
// heartbeat only if it is newer and the local entry is not already beyond
// tfail (frozen, pending eviction). Returns true if the entry was inserted
// or updated.
func (l *MemberList) Merge(a address.Address, heartbeat, currentTick, tfail int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	local, exists := l.entries[a]
	if !exists {
		l.entries[a] = &MemberEntry{Addr: a, Heartbeat: heartbeat, LastHeard: currentTick}
		return true
	}

	if heartbeat <= local.Heartbeat {
		return false
	}
	if currentTick-local.LastHeard > tfail {
		// already suspected locally: frozen until eviction, not resurrected
		// by a stale replay.
		return false
	}
	local.Heartbeat = heartbeat
	local.LastHeard = currentTick
	return true
}

// BumpSelf advances self's own heartbeat counter and refreshes its
// LastHeard to currentTick.
func (l *MemberList) BumpSelf(currentTick int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	self := l.entries[l.self]
	self.Heartbeat++
	self.LastHeard = currentTick
	return self.Heartbeat
}

// Entries returns a snapshot of every entry currently held.
func (l *MemberList) Entries() []MemberEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]MemberEntry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, *e)
	}
	return out
}

// Addresses returns every known address, including self.
func (l *MemberList) Addresses() []address.Address {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]address.Address, 0, len(l.entries))
	for a := range l.entries {
		out = append(out, a)
	}
	return out
}

// EvictExpired removes every non-self entry whose status at currentTick is
// Removed, returning the evicted addresses.
func (l *MemberList) EvictExpired(currentTick, tfail, tremove int64) []address.Address {
	l.mu.Lock()
	defer l.mu.Unlock()

	var evicted []address.Address
	for a, e := range l.entries {
		if a == l.self {
			continue
		}
		if e.Status(currentTick, tfail, tremove) == Removed {
			delete(l.entries, a)
			evicted = append(evicted, a)
		}
	}
	return evicted
}

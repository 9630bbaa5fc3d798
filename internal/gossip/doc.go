// Package gossip implements cluster membership and failure detection via
// heartbeat gossip: each node bootstraps against a fixed introducer,
// periodically pushes its member list to a random fanout of peers, and
// evicts any peer whose heartbeat has not advanced recently enough.
//
// There is no probing and no incarnation numbers: a member's state is
// derived purely from elapsed ticks since its heartbeat last advanced
// (Alive -> Suspect -> Removed), and a suspected entry is frozen against
// stale gossip replay until it is evicted outright.
package gossip

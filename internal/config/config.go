// Package config holds the CLI-facing pieces of a node's configuration:
// the default tunables governing membership and quorum timing, and a
// parser for the host:port each known peer's logical address maps to for
// the UDP transport.
package config

import (
	"fmt"
	"strings"

	"kvstore/internal/address"
)

// Peer maps one logical node address to the physical host:port the UDP
// transport should send its frames to.
type Peer struct {
	Addr address.Address
	Host string
}

// ParsePeers parses a comma-separated list of peers in the format
// "id:port=host:udpport,id:port=host:udpport". Logical addresses follow
// address.Parse's "id:port" form.
func ParsePeers(peersStr string) ([]Peer, error) {
	if peersStr == "" {
		return []Peer{}, nil
	}

	parts := strings.Split(peersStr, ",")
	peers := make([]Peer, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid peer format: %s (expected id:port=host:udpport)", part)
		}

		logical := strings.TrimSpace(kv[0])
		host := strings.TrimSpace(kv[1])
		if logical == "" || host == "" {
			return nil, fmt.Errorf("peer address and host cannot be empty: %s", part)
		}

		addr, err := address.Parse(logical)
		if err != nil {
			return nil, fmt.Errorf("invalid peer address %q: %w", logical, err)
		}

		peers = append(peers, Peer{Addr: addr, Host: host})
	}

	return peers, nil
}

// Params bundles the tunables shared by the membership and quorum
// subsystems. Ring membership itself is always discovered dynamically
// through gossip, starting from the introducer; there is no static ring
// configuration.
type Params struct {
	TFAIL              int64
	TREMOVE            int64
	GossipFanout       int
	RingSize           uint64
	TransactionTimeout int64
}

// DefaultParams returns the tunables used unless overridden on the CLI.
func DefaultParams() Params {
	return Params{
		TFAIL:              5,
		TREMOVE:            10,
		GossipFanout:       4,
		RingSize:           1024,
		TransactionTimeout: 15,
	}
}

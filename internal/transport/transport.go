// Package transport defines the network boundary the node depends on. The
// core never opens a socket itself; concrete implementations live in
// transport/simnet (for tests and the in-process integration harness) and
// transport/udpnet (for running the node as an independent OS process).
package transport

import "kvstore/internal/address"

// Transport delivers opaque byte frames between addresses. Send is
// fire-and-forget: delivery, if it happens, occurs on some later call to
// Recv at the destination. Recv drains and returns whatever has arrived for
// self since the last call.
type Transport interface {
	Send(src, dst address.Address, frame []byte)
	Recv(self address.Address) [][]byte
}

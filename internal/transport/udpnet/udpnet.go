// Package udpnet is an optional real-network Transport adapter over
// net.PacketConn, used only to run cmd/kvnode as independent OS processes.
// The tick-driven core never imports this package directly; it depends
// only on transport.Transport.
package udpnet

import (
	"fmt"
	"net"
	"sync"

	"kvstore/internal/address"
)

// maxFrameSize is the largest UDP payload over IPv4, so the receive buffer
// holds any single JOINREP/GOSSIP or KV datagram a peer can send.
const maxFrameSize = 65507

// Transport sends one UDP datagram per frame and buffers arrivals until the
// next Recv, mirroring the shape of transport/simnet.Network.
type Transport struct {
	self address.Address
	conn *net.UDPConn

	mu    sync.Mutex
	peers map[address.Address]*net.UDPAddr
	inbox [][]byte

	closeOnce sync.Once
	done      chan struct{}
}

// New binds a UDP socket at listenAddr (e.g. "0.0.0.0:9000") for self, and
// begins receiving datagrams in the background. peers maps known addresses
// to their "host:port" listen strings; entries may be added later with
// AddPeer.
func New(self address.Address, listenAddr string, peers map[address.Address]string) (*Transport, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", listenAddr)
	if err != nil {
		return nil, fmt.Errorf("udpnet: resolve %q: %w", listenAddr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("udpnet: listen %q: %w", listenAddr, err)
	}

	t := &Transport{
		self:  self,
		conn:  conn,
		peers: make(map[address.Address]*net.UDPAddr, len(peers)),
		done:  make(chan struct{}),
	}
	for addr, hostport := range peers {
		if err := t.AddPeer(addr, hostport); err != nil {
			conn.Close()
			return nil, err
		}
	}

	go t.receiveLoop()
	return t, nil
}

// AddPeer records where to reach addr over UDP.
func (t *Transport) AddPeer(addr address.Address, hostport string) error {
	udpAddr, err := net.ResolveUDPAddr("udp", hostport)
	if err != nil {
		return fmt.Errorf("udpnet: resolve peer %s at %q: %w", addr, hostport, err)
	}
	t.mu.Lock()
	t.peers[addr] = udpAddr
	t.mu.Unlock()
	return nil
}

func (t *Transport) receiveLoop() {
	buf := make([]byte, maxFrameSize)
	for {
		n, _, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-t.done:
				return
			default:
				continue
			}
		}
		frame := make([]byte, n)
		copy(frame, buf[:n])
		t.mu.Lock()
		t.inbox = append(t.inbox, frame)
		t.mu.Unlock()
	}
}

// Send writes one UDP datagram carrying frame to dst. src is unused beyond
// satisfying the Transport interface: the datagram's source address is
// whatever the OS socket reports. A dst with no known peer address is
// silently dropped, matching the rest of the system's tolerance for
// transport loss.
func (t *Transport) Send(src, dst address.Address, frame []byte) {
	t.mu.Lock()
	udpAddr, ok := t.peers[dst]
	t.mu.Unlock()
	if !ok {
		return
	}
	_, _ = t.conn.WriteToUDP(frame, udpAddr)
}

// Recv drains and returns frames received since the last call. self is
// unused: a udpnet Transport always serves exactly the address it was
// constructed for.
func (t *Transport) Recv(self address.Address) [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	msgs := t.inbox
	t.inbox = nil
	return msgs
}

// Close stops the receive loop and releases the socket.
func (t *Transport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.done)
		err = t.conn.Close()
	})
	return err
}

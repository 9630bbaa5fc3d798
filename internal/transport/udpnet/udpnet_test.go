package udpnet

import (
	"testing"
	"time"

	"kvstore/internal/address"
)

func TestUDPNet_SendRecv(t *testing.T) {
	a := address.Address{ID: 1, Port: 0}
	b := address.Address{ID: 2, Port: 0}

	ta, err := New(a, "127.0.0.1:0", nil)
	if err != nil {
		t.Fatalf("New(a) returned error: %v", err)
	}
	defer ta.Close()

	tb, err := New(b, "127.0.0.1:0", nil)
	if err != nil {
		t.Fatalf("New(b) returned error: %v", err)
	}
	defer tb.Close()

	if err := ta.AddPeer(b, tb.conn.LocalAddr().String()); err != nil {
		t.Fatalf("AddPeer returned error: %v", err)
	}

	ta.Send(a, b, []byte("hello"))

	deadline := time.Now().Add(2 * time.Second)
	var got [][]byte
	for time.Now().Before(deadline) {
		got = tb.Recv(b)
		if len(got) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if len(got) != 1 || string(got[0]) != "hello" {
		t.Fatalf("expected to receive %q, got %q", "hello", got)
	}
}

func TestUDPNet_SendToUnknownPeerIsDropped(t *testing.T) {
	a := address.Address{ID: 1, Port: 0}
	ta, err := New(a, "127.0.0.1:0", nil)
	if err != nil {
		t.Fatalf("New(a) returned error: %v", err)
	}
	defer ta.Close()

	// Should not panic or block even though address 99 is unknown.
	ta.Send(a, address.Address{ID: 99, Port: 0}, []byte("nowhere"))
}

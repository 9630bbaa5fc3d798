// Package wire implements the two message framings the node speaks: a
// little-endian binary format for membership gossip and a pipe-delimited
// text format for key-value operations. The two share one transport queue,
// so IsMembership cheaply tells them apart without a full decode.
package wire

import (
	"encoding/binary"
	"fmt"

	"kvstore/internal/address"
)

// MessageType identifies a membership frame's kind. Values are chosen so
// that, encoded as the frame's first byte, they never collide with the
// leading digit or '-' of a KV frame's transaction id (see IsMembership).
type MessageType uint16

const (
	JoinReq MessageType = 0
	JoinRep MessageType = 1
	Gossip  MessageType = 3
)

// typeSize is the encoded width of the leading MessageType field.
const typeSize = 2

// entrySize is the encoded width of one membership record: an address
// followed by an 8-byte little-endian heartbeat.
const entrySize = address.Size + 8

// sentinelHeartbeat marks the "no heartbeat" slot in JOINREP/GOSSIP headers.
var sentinelHeartbeat = int64(-1)

// Entry is one member record embedded in a JOINREP or GOSSIP payload.
type Entry struct {
	Addr      address.Address
	Heartbeat int64
}

// Frame is a decoded membership message.
type Frame struct {
	Type      MessageType
	Sender    address.Address
	Heartbeat int64 // meaningful only for JoinReq
	Entries   []Entry
}

// EncodeJoinReq builds a JOINREQ frame: sender address plus sender heartbeat.
func EncodeJoinReq(sender address.Address, heartbeat int64) []byte {
	buf := make([]byte, typeSize+address.Size+8)
	binary.LittleEndian.PutUint16(buf[0:typeSize], uint16(JoinReq))
	sender.Encode(buf[typeSize : typeSize+address.Size])
	binary.LittleEndian.PutUint64(buf[typeSize+address.Size:], uint64(heartbeat))
	return buf
}

// EncodeMembers builds a JOINREP or GOSSIP frame carrying the given member
// list. typ must be JoinRep or Gossip.
func EncodeMembers(typ MessageType, sender address.Address, entries []Entry) []byte {
	size := typeSize + address.Size + 8 + entrySize*len(entries)
	buf := make([]byte, size)
	binary.LittleEndian.PutUint16(buf[0:typeSize], uint16(typ))
	off := typeSize
	sender.Encode(buf[off : off+address.Size])
	off += address.Size
	binary.LittleEndian.PutUint64(buf[off:off+8], uint64(sentinelHeartbeat))
	off += 8
	for _, e := range entries {
		e.Addr.Encode(buf[off : off+address.Size])
		off += address.Size
		binary.LittleEndian.PutUint64(buf[off:off+8], uint64(e.Heartbeat))
		off += 8
	}
	return buf
}

// Decode parses a membership frame produced by EncodeJoinReq or EncodeMembers.
func Decode(buf []byte) (Frame, error) {
	if len(buf) < typeSize+address.Size+8 {
		return Frame{}, fmt.Errorf("wire: membership frame too short: %d bytes", len(buf))
	}
	typ := MessageType(binary.LittleEndian.Uint16(buf[0:typeSize]))
	off := typeSize
	sender, err := address.Decode(buf[off : off+address.Size])
	if err != nil {
		return Frame{}, err
	}
	off += address.Size
	second := int64(binary.LittleEndian.Uint64(buf[off : off+8]))
	off += 8

	switch typ {
	case JoinReq:
		return Frame{Type: typ, Sender: sender, Heartbeat: second}, nil
	case JoinRep, Gossip:
		rest := buf[off:]
		if len(rest)%entrySize != 0 {
			return Frame{}, fmt.Errorf("wire: trailing bytes in membership frame: %d", len(rest))
		}
		n := len(rest) / entrySize
		entries := make([]Entry, 0, n)
		for i := 0; i < n; i++ {
			rec := rest[i*entrySize : (i+1)*entrySize]
			a, err := address.Decode(rec[:address.Size])
			if err != nil {
				return Frame{}, err
			}
			hb := int64(binary.LittleEndian.Uint64(rec[address.Size:]))
			entries = append(entries, Entry{Addr: a, Heartbeat: hb})
		}
		return Frame{Type: typ, Sender: sender, Entries: entries}, nil
	default:
		return Frame{}, fmt.Errorf("wire: unknown membership message type %d", typ)
	}
}

// IsMembership reports whether buf's leading byte identifies it as a
// membership frame (JOINREQ, JOINREP, or GOSSIP) rather than a KV frame. KV
// frames always begin with an ASCII digit or '-' (the leading transaction
// id), which never collides with these type codes.
func IsMembership(buf []byte) bool {
	if len(buf) == 0 {
		return false
	}
	switch buf[0] {
	case byte(JoinReq), byte(JoinRep), byte(Gossip):
		return true
	default:
		return false
	}
}

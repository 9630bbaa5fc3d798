package wire

import (
	"fmt"
	"strconv"
	"strings"

	"kvstore/internal/address"
)

// KVType names a key-value frame's operation, matching the textual
// constants on the wire.
type KVType string

const (
	Create              KVType = "CREATE"
	Read                KVType = "READ"
	Update              KVType = "UPDATE"
	Delete              KVType = "DELETE"
	Reply               KVType = "REPLY"
	ReadReply           KVType = "READREPLY"
	StabilizationCreate KVType = "STABILIZATION-CREATE"
	StabilizationDelete KVType = "STABILIZATION-DELETE"
)

// UntrackedTransID marks a stabilization message that does not participate
// in quorum accounting at the receiver.
const UntrackedTransID = int32(-1)

// KVFrame is a decoded key-value wire message.
type KVFrame struct {
	TransID int32
	From    address.Address
	Type    KVType
	Key     string
	Value   string
	Replica int  // preference-list position, 0 = primary; only meaningful for CREATE/UPDATE/STABILIZATION-CREATE
	Success bool // only meaningful for REPLY
}

// EncodeKV renders f using the pipe-delimited layout the frame's Type calls
// for.
func EncodeKV(f KVFrame) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "%d|%s|%s", f.TransID, f.From, f.Type)
	switch f.Type {
	case Create, Update, StabilizationCreate:
		fmt.Fprintf(&b, "|%s|%s|%d", f.Key, f.Value, f.Replica)
	case Read, Delete, StabilizationDelete:
		fmt.Fprintf(&b, "|%s", f.Key)
	case Reply:
		if f.Success {
			b.WriteString("|1")
		} else {
			b.WriteString("|0")
		}
	case ReadReply:
		fmt.Fprintf(&b, "|%s", f.Value)
	}
	return []byte(b.String())
}

// DecodeKV parses a frame produced by EncodeKV.
func DecodeKV(buf []byte) (KVFrame, error) {
	fields := strings.Split(string(buf), "|")
	if len(fields) < 3 {
		return KVFrame{}, fmt.Errorf("wire: kv frame has too few fields: %q", buf)
	}

	transID, err := strconv.ParseInt(fields[0], 10, 32)
	if err != nil {
		return KVFrame{}, fmt.Errorf("wire: invalid transaction id in %q: %w", buf, err)
	}
	from, err := address.Parse(fields[1])
	if err != nil {
		return KVFrame{}, fmt.Errorf("wire: invalid sender in %q: %w", buf, err)
	}
	typ := KVType(fields[2])

	f := KVFrame{TransID: int32(transID), From: from, Type: typ}

	switch typ {
	case Create, Update, StabilizationCreate:
		if len(fields) < 6 {
			return KVFrame{}, fmt.Errorf("wire: %s frame missing key/value/replica: %q", typ, buf)
		}
		f.Key = fields[3]
		f.Value = fields[4]
		replica, err := strconv.Atoi(fields[5])
		if err != nil {
			return KVFrame{}, fmt.Errorf("wire: invalid replica index in %q: %w", buf, err)
		}
		f.Replica = replica
	case Read, Delete, StabilizationDelete:
		if len(fields) < 4 {
			return KVFrame{}, fmt.Errorf("wire: %s frame missing key: %q", typ, buf)
		}
		f.Key = fields[3]
	case Reply:
		if len(fields) < 4 {
			return KVFrame{}, fmt.Errorf("wire: REPLY frame missing success flag: %q", buf)
		}
		f.Success = fields[3] == "1"
	case ReadReply:
		if len(fields) < 4 {
			return KVFrame{}, fmt.Errorf("wire: READREPLY frame missing value: %q", buf)
		}
		f.Value = fields[3]
	default:
		return KVFrame{}, fmt.Errorf("wire: unknown kv message type %q", typ)
	}

	return f, nil
}

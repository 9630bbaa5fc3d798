// Package address provides the fixed-width peer identifier shared by the
// membership and key-value wire formats.
package address

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// Size is the number of bytes an Address occupies on the wire: a 4-byte
// little-endian node id followed by a 2-byte little-endian port.
const Size = 6

// Address identifies a peer for the lifetime of its process.
type Address struct {
	ID   uint32
	Port uint16
}

// Introducer is the fixed, well-known address every node contacts to join.
var Introducer = Address{ID: 1, Port: 0}

// String renders the address as "id:port".
func (a Address) String() string {
	return fmt.Sprintf("%d:%d", a.ID, a.Port)
}

// Less orders addresses by (id, port), used to break hash ties on the ring.
func (a Address) Less(other Address) bool {
	if a.ID != other.ID {
		return a.ID < other.ID
	}
	return a.Port < other.Port
}

// Parse reverses String, accepting "id:port".
func Parse(s string) (Address, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return Address{}, fmt.Errorf("address: invalid format %q, expected id:port", s)
	}
	id, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return Address{}, fmt.Errorf("address: invalid id in %q: %w", s, err)
	}
	port, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return Address{}, fmt.Errorf("address: invalid port in %q: %w", s, err)
	}
	return Address{ID: uint32(id), Port: uint16(port)}, nil
}

// Encode writes the 6-byte wire form into dst, which must be at least Size
// bytes long.
func (a Address) Encode(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:4], a.ID)
	binary.LittleEndian.PutUint16(dst[4:6], a.Port)
}

// Bytes returns the 6-byte wire encoding.
func (a Address) Bytes() []byte {
	buf := make([]byte, Size)
	a.Encode(buf)
	return buf
}

// Decode reads an Address from the first Size bytes of src.
func Decode(src []byte) (Address, error) {
	if len(src) < Size {
		return Address{}, fmt.Errorf("address: short buffer, need %d bytes, got %d", Size, len(src))
	}
	return Address{
		ID:   binary.LittleEndian.Uint32(src[0:4]),
		Port: binary.LittleEndian.Uint16(src[4:6]),
	}, nil
}

package host

import "encoding/binary"

// Key identifies a storage slot within one contract namespace. EncodeKey
// returns the stable wire form: a one-byte discriminant followed by an
// optional suffix. The encoding is part of the persisted state layout and
// must not change across upgrades.
type Key interface {
	EncodeKey() []byte
}

// TaggedKey is the standard key shape used by the contracts: a discriminant
// tag plus a raw suffix (an address payload, a big-endian counter, or a role
// discriminant byte).
type TaggedKey struct {
	Tag    byte
	Suffix []byte
}

// EncodeKey implements the Key interface.
func (k TaggedKey) EncodeKey() []byte {
	out := make([]byte, 0, 1+len(k.Suffix))
	out = append(out, k.Tag)
	return append(out, k.Suffix...)
}

// Uint64Suffix renders a counter-keyed suffix in big-endian form so keys
// sort in allocation order.
func Uint64Suffix(v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return buf[:]
}

// JoinSuffix concatenates suffix parts for composite keys such as
// (proposal_id, voter).
func JoinSuffix(parts ...[]byte) []byte {
	size := 0
	for _, p := range parts {
		size += len(p)
	}
	out := make([]byte, 0, size)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

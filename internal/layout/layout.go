// Package layout defines the on-disk binary formats shared by the
// preparation pipeline and the scoring engine: the pair stream, the set-id
// directory, the offset index and the concatenated members file (spec §3,
// §6.1).
package layout

import "encoding/binary"

// WordSize is the size in bytes of every integer stored in the binary
// formats this package describes. All ids and offsets are unsigned 32-bit
// little-endian words.
const WordSize = 4

// Zero is the reserved sentinel value. It must never appear as a real
// member id or set id, and marks the end of a per-set member array and
// absent entries in the offset index.
const Zero uint32 = 0

// MemberID identifies a member of a set. Zero is reserved.
type MemberID = uint32

// SetID identifies a set. Zero is reserved.
type SetID = uint32

// PutWord writes v to buf[0:4] in little-endian order. buf must have length
// at least 4.
func PutWord(buf []byte, v uint32) {
	binary.LittleEndian.PutUint32(buf, v)
}

// Word reads a little-endian uint32 from buf[0:4].
func Word(buf []byte) uint32 {
	return binary.LittleEndian.Uint32(buf)
}

// EncodePair appends the little-endian encoding of (member, set) to dst and
// returns the extended slice. This is the wire format of the pair stream
// (spec §6.1): two consecutive u32 words, member first.
func EncodePair(dst []byte, member, set uint32) []byte {
	var buf [2 * WordSize]byte
	binary.LittleEndian.PutUint32(buf[0:WordSize], member)
	binary.LittleEndian.PutUint32(buf[WordSize:], set)
	return append(dst, buf[:]...)
}

// EncodeU32Slice packs vals into little-endian u32 words, appending to dst.
func EncodeU32Slice(dst []byte, vals []uint32) []byte {
	for _, v := range vals {
		var buf [WordSize]byte
		binary.LittleEndian.PutUint32(buf[:], v)
		dst = append(dst, buf[:]...)
	}
	return dst
}

// DecodeU32Slice unpacks a little-endian-packed u32 array from a byte
// slice whose length must be a multiple of WordSize.
func DecodeU32Slice(b []byte) []uint32 {
	n := len(b) / WordSize
	out := make([]uint32, n)
	for i := 0; i < n; i++ {
		out[i] = binary.LittleEndian.Uint32(b[i*WordSize : (i+1)*WordSize])
	}
	return out
}

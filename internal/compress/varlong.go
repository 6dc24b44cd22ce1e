package compress

import (
	"encoding/binary"
	"fmt"
)

// Delta + variable-length integer coding for sorted, non-negative id lists.
// Each value is stored as the difference to its predecessor, then packed into
// 7-bit groups with a continuation high bit. Near-clustered neighbor ids of
// real graphs make most deltas fit a single byte.

// EncodeVLong appends the varint encoding of a single non-negative value.
func EncodeVLong(out []byte, value int64) []byte {
	if value < 0 {
		panic(fmt.Sprintf("cannot varint encode negative value %d", value))
	}
	for value >= 0x80 {
		out = append(out, byte(value)|0x80)
		value >>= 7
	}
	return append(out, byte(value))
}

// EncodeDeltaVLongs appends the delta varint encoding of a sorted slice,
// starting the delta chain at base.
func EncodeDeltaVLongs(out []byte, values []int64, base int64) []byte {
	previous := base
	for _, value := range values {
		if value < previous {
			panic(fmt.Sprintf("adjacency values must be sorted ascending: %d after %d", value, previous))
		}
		out = EncodeVLong(out, value-previous)
		previous = value
	}
	return out
}

// EncodeAdjacency appends a full per-node block: the 32-bit neighbor count
// followed by the delta varint payload.
func EncodeAdjacency(out []byte, values []int64) []byte {
	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(values)))
	out = append(out, header[:]...)
	return EncodeDeltaVLongs(out, values, 0)
}

// DecodeDeltaVLongs decodes limit values from data starting at offset,
// chaining deltas onto startValue, and stores them into the head of out.
// It returns the offset of the first undecoded byte.
//
// Malformed input is a programming-contract violation and panics; encoded
// pages are produced by this package and never partially overwritten.
func DecodeDeltaVLongs(startValue int64, data []byte, offset int, limit int, out []int64) int {
	value := startValue
	for i := 0; i < limit; i++ {
		var delta int64
		var shift uint
		for {
			if offset >= len(data) {
				panic(fmt.Sprintf("truncated varint at offset %d", offset))
			}
			b := data[offset]
			offset++
			delta |= int64(b&0x7F) << shift
			if b&0x80 == 0 {
				break
			}
			shift += 7
			if shift > 63 {
				panic(fmt.Sprintf("varint overflow at offset %d", offset))
			}
		}
		value += delta
		out[i] = value
	}
	return offset
}

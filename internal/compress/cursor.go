package compress

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// ChunkSize is the number of values decoded into the cursor's block buffer at
// a time. Skip and advance compare a target against a block's last (maximum)
// value to skip whole blocks without decoding element by element.
const ChunkSize = 64

// NotFound is returned by SkipUntil and Advance when the list is exhausted
// before the condition is satisfied.
const NotFound int64 = -1

// AdjacencyCursor decodes one node's compressed neighbor list: a 32-bit
// degree followed by delta varint bytes. It holds a bounded 64-value window
// plus a resume offset, never a copy of the full list. A cursor is reusable
// across nodes via Reset and is not safe for concurrent use; traversal code
// obtains one cursor per worker.
type AdjacencyCursor struct {
	data      []byte
	block     [ChunkSize]int64
	pos       int
	offset    int
	degree    int
	remaining int
}

// Reset positions the cursor at a node's block starting at offset within
// data, decodes the first chunk and returns the node's degree. A malformed
// offset is a programming error and panics.
func (c *AdjacencyCursor) Reset(data []byte, offset int) int {
	if offset < 0 || offset+4 > len(data) {
		panic(fmt.Sprintf("adjacency offset %d out of range for page of %d bytes", offset, len(data)))
	}
	c.data = data
	c.degree = int(binary.LittleEndian.Uint32(data[offset:]))
	c.offset = DecodeDeltaVLongs(0, data, offset+4, min(c.degree, ChunkSize), c.block[:])
	c.pos = 0
	c.remaining = c.degree
	return c.degree
}

// CopyFrom makes this cursor an exact duplicate of other, sharing the
// underlying page.
func (c *AdjacencyCursor) CopyFrom(other *AdjacencyCursor) {
	c.data = other.data
	c.block = other.block
	c.pos = other.pos
	c.offset = other.offset
	c.degree = other.degree
	c.remaining = other.remaining
}

// Degree returns the neighbor count read by the last Reset.
func (c *AdjacencyCursor) Degree() int {
	return c.degree
}

// HasNext reports whether another neighbor can be decoded.
func (c *AdjacencyCursor) HasNext() bool {
	return c.remaining > 0
}

// Next returns the next neighbor in ascending order. Calling Next on an
// exhausted cursor is a programming error.
func (c *AdjacencyCursor) Next() int64 {
	c.remaining--
	pos := c.pos
	c.pos++
	if pos < ChunkSize {
		return c.block[pos]
	}
	return c.readNextBlock()
}

// readNextBlock decodes the following chunk, chaining deltas onto the
// previous block's last value.
func (c *AdjacencyCursor) readNextBlock() int64 {
	c.pos = 1
	c.offset = DecodeDeltaVLongs(c.block[ChunkSize-1], c.data, c.offset, min(c.remaining+1, ChunkSize), c.block[:])
	return c.block[0]
}

// SkipUntil advances the cursor to the first neighbor strictly greater than
// target. It returns that neighbor and the number of elements consumed so
// callers can bound remaining work across repeated calls. When the list is
// exhausted first, it returns NotFound with everything consumed.
func (c *AdjacencyCursor) SkipUntil(target int64) (int64, int) {
	return c.seek(target + 1)
}

// Advance is the inclusive variant of SkipUntil: it stops at the first
// neighbor greater than or equal to target.
func (c *AdjacencyCursor) Advance(target int64) (int64, int) {
	return c.seek(target)
}

// seek finds the first not-yet-returned neighbor >= target. Whole blocks are
// skipped by comparing target against the block's maximum before decoding;
// the final block is binary searched.
func (c *AdjacencyCursor) seek(target int64) (int64, int) {
	pos := c.pos
	available := c.remaining

	for available > ChunkSize-pos && c.block[ChunkSize-1] < target {
		skippedInThisBlock := ChunkSize - pos
		needToDecode := min(ChunkSize, available-skippedInThisBlock)
		c.offset = DecodeDeltaVLongs(c.block[ChunkSize-1], c.data, c.offset, needToDecode, c.block[:])
		available -= skippedInThisBlock
		pos = 0
	}

	// The block may be fully consumed while its maximum already satisfies
	// target; every remaining value is larger still, so decode the next block
	// before searching.
	if pos == ChunkSize && available > 0 {
		c.offset = DecodeDeltaVLongs(c.block[ChunkSize-1], c.data, c.offset, min(ChunkSize, available), c.block[:])
		pos = 0
	}

	limit := min(pos+available, ChunkSize)
	targetPos := sort.Search(limit-pos, func(i int) bool { return c.block[pos+i] >= target }) + pos
	if targetPos == limit {
		// exhausted before reaching target
		consumed := c.remaining
		c.pos = limit
		c.remaining = 0
		return NotFound, consumed
	}

	// consume including targetPos, not up to it
	available -= 1 + targetPos - pos
	consumed := c.remaining - available
	c.pos = 1 + targetPos
	c.remaining = available
	return c.block[targetPos], consumed
}

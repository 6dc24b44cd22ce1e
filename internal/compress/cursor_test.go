package compress

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sortedIds builds a strictly increasing id sequence with clustered gaps,
// the shape delta varint coding is built for.
func sortedIds(n int, seed int64) []int64 {
	rng := rand.New(rand.NewSource(seed))
	ids := make([]int64, n)
	value := int64(0)
	for i := range ids {
		value += int64(rng.Intn(50)) + 1
		ids[i] = value
	}
	return ids
}

func decodeAll(t *testing.T, data []byte, offset int) []int64 {
	t.Helper()
	var cursor AdjacencyCursor
	degree := cursor.Reset(data, offset)
	out := make([]int64, 0, degree)
	for cursor.HasNext() {
		out = append(out, cursor.Next())
	}
	return out
}

func TestRoundTrip_Lengths(t *testing.T) {
	for _, n := range []int{0, 1, 63, 64, 65, 5000} {
		ids := sortedIds(n, int64(n))
		data := EncodeAdjacency(nil, ids)

		decoded := decodeAll(t, data, 0)
		require.Equal(t, len(ids), len(decoded), "length %d", n)
		for i := range ids {
			if decoded[i] != ids[i] {
				t.Fatalf("length %d: element %d: got %d, want %d", n, i, decoded[i], ids[i])
			}
		}
	}
}

func TestRoundTrip_NonZeroOffset(t *testing.T) {
	first := sortedIds(70, 1)
	second := sortedIds(10, 2)

	data := EncodeAdjacency(nil, first)
	secondOffset := len(data)
	data = EncodeAdjacency(data, second)

	assert.Equal(t, first, decodeAll(t, data, 0))
	assert.Equal(t, second, decodeAll(t, data, secondOffset))
}

func TestRoundTrip_SmallGaps(t *testing.T) {
	// ids starting at 0 and containing adjacent values
	ids := []int64{0, 1, 2, 100, 101, 1 << 40}
	data := EncodeAdjacency(nil, ids)
	assert.Equal(t, ids, decodeAll(t, data, 0))
}

// referenceSkip is the linear-scan oracle for SkipUntil (strict) and Advance
// (inclusive).
func referenceSkip(ids []int64, from int, target int64, strict bool) (int64, int) {
	for i := from; i < len(ids); i++ {
		if ids[i] > target || (!strict && ids[i] == target) {
			return ids[i], i - from + 1
		}
	}
	return NotFound, len(ids) - from
}

func TestSkipUntil_MatchesLinearScan(t *testing.T) {
	for _, n := range []int{1, 63, 64, 65, 300, 5000} {
		ids := sortedIds(n, int64(n)*7)
		data := EncodeAdjacency(nil, ids)

		targets := []int64{-1, 0, ids[0] - 1, ids[0], ids[n/2], ids[n-1] - 1, ids[n-1], ids[n-1] + 1000}
		for _, target := range targets {
			var cursor AdjacencyCursor
			cursor.Reset(data, 0)

			wantValue, wantConsumed := referenceSkip(ids, 0, target, true)
			gotValue, gotConsumed := cursor.SkipUntil(target)

			assert.Equal(t, wantValue, gotValue, "n=%d target=%d", n, target)
			assert.Equal(t, wantConsumed, gotConsumed, "n=%d target=%d", n, target)
		}
	}
}

func TestAdvance_MatchesLinearScan(t *testing.T) {
	for _, n := range []int{1, 64, 65, 300, 5000} {
		ids := sortedIds(n, int64(n)*13)
		data := EncodeAdjacency(nil, ids)

		targets := []int64{0, ids[0], ids[0] + 1, ids[n/2], ids[n-1], ids[n-1] + 1}
		for _, target := range targets {
			var cursor AdjacencyCursor
			cursor.Reset(data, 0)

			wantValue, wantConsumed := referenceSkip(ids, 0, target, false)
			gotValue, gotConsumed := cursor.Advance(target)

			assert.Equal(t, wantValue, gotValue, "n=%d target=%d", n, target)
			assert.Equal(t, wantConsumed, gotConsumed, "n=%d target=%d", n, target)
		}
	}
}

func TestSkipUntil_RepeatedCalls(t *testing.T) {
	ids := sortedIds(1000, 99)
	data := EncodeAdjacency(nil, ids)

	var cursor AdjacencyCursor
	cursor.Reset(data, 0)

	// walk the list through repeated skips, mirroring the linear oracle
	consumedTotal := 0
	from := 0
	rng := rand.New(rand.NewSource(3))
	for {
		var target int64
		if from < len(ids) {
			step := rng.Intn(40)
			idx := from + step
			if idx >= len(ids) {
				idx = len(ids) - 1
			}
			target = ids[idx]
		} else {
			break
		}

		wantValue, wantConsumed := referenceSkip(ids, from, target, true)
		gotValue, gotConsumed := cursor.SkipUntil(target)

		require.Equal(t, wantValue, gotValue)
		require.Equal(t, wantConsumed, gotConsumed)

		consumedTotal += gotConsumed
		from += wantConsumed
		if gotValue == NotFound {
			break
		}
	}
	assert.Equal(t, len(ids), consumedTotal, "every element must be consumed exactly once")
	assert.False(t, cursor.HasNext())
}

func TestNext_AfterSkip(t *testing.T) {
	ids := sortedIds(200, 5)
	data := EncodeAdjacency(nil, ids)

	var cursor AdjacencyCursor
	cursor.Reset(data, 0)

	value, consumed := cursor.SkipUntil(ids[70])
	require.Equal(t, ids[71], value)
	require.Equal(t, 72, consumed)

	// sequential decoding continues where the skip stopped
	for i := 72; i < len(ids); i++ {
		require.True(t, cursor.HasNext())
		assert.Equal(t, ids[i], cursor.Next())
	}
	assert.False(t, cursor.HasNext())
}

func TestSkipUntil_AtBlockBoundary(t *testing.T) {
	ids := sortedIds(130, 17)
	data := EncodeAdjacency(nil, ids)

	var cursor AdjacencyCursor
	cursor.Reset(data, 0)

	// consume exactly one full block, then skip with a target the consumed
	// block already satisfies; the answer lives in the next block
	for i := 0; i < ChunkSize; i++ {
		cursor.Next()
	}
	value, consumed := cursor.SkipUntil(ids[10])
	assert.Equal(t, ids[ChunkSize], value)
	assert.Equal(t, 1, consumed)

	// same situation for the inclusive variant
	cursor.Reset(data, 0)
	for i := 0; i < ChunkSize; i++ {
		cursor.Next()
	}
	value, consumed = cursor.Advance(ids[5])
	assert.Equal(t, ids[ChunkSize], value)
	assert.Equal(t, 1, consumed)
}

func TestCursor_CopyFrom(t *testing.T) {
	ids := sortedIds(150, 11)
	data := EncodeAdjacency(nil, ids)

	var cursor AdjacencyCursor
	cursor.Reset(data, 0)
	for i := 0; i < 80; i++ {
		cursor.Next()
	}

	var dup AdjacencyCursor
	dup.CopyFrom(&cursor)

	// both continue independently with identical output
	for i := 80; i < len(ids); i++ {
		assert.Equal(t, ids[i], cursor.Next())
		assert.Equal(t, ids[i], dup.Next())
	}
}

func TestReset_MalformedOffsetPanics(t *testing.T) {
	data := EncodeAdjacency(nil, []int64{1, 2, 3})
	var cursor AdjacencyCursor
	assert.Panics(t, func() { cursor.Reset(data, len(data)) })
	assert.Panics(t, func() { cursor.Reset(data, -1) })
}

func TestEncode_RejectsUnsortedInput(t *testing.T) {
	assert.Panics(t, func() { EncodeDeltaVLongs(nil, []int64{5, 3}, 0) })
	assert.Panics(t, func() { EncodeVLong(nil, -1) })
}

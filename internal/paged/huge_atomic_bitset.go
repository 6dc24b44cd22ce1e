package paged

import (
	"math/bits"

	"github.com/23skdu/trellis/internal/errors"
	"github.com/23skdu/trellis/internal/mem"
)

const numBits = 64

// HugeAtomicBitSet is a bit set over a HugeAtomicLongArray. Each bit is
// mutated by a CAS retry against its owning 64-bit word, so concurrent
// set/clear/flip from multiple workers never lose an update.
//
// Cardinality and the bulk Clear are valid only while no concurrent writer is
// active; that precondition is documented, not enforced.
type HugeAtomicBitSet struct {
	bits    *HugeAtomicLongArray
	numBits int64
}

// NewHugeAtomicBitSet allocates a cleared bit set holding size bits.
func NewHugeAtomicBitSet(size int64, tracker *mem.AllocationTracker) (*HugeAtomicBitSet, error) {
	words, err := NewHugeAtomicLongArray(CeilDiv(size, numBits), tracker)
	if err != nil {
		return nil, err
	}
	return &HugeAtomicBitSet{bits: words, numBits: size}, nil
}

// Get returns the state of the bit at the given index.
func (b *HugeAtomicBitSet) Get(index int64) bool {
	wordIndex := index / numBits
	bitIndex := index % numBits
	bitmask := int64(1) << bitIndex
	return b.bits.Get(wordIndex)&bitmask != 0
}

// Set sets the bit at the given index to true.
func (b *HugeAtomicBitSet) Set(index int64) {
	wordIndex := index / numBits
	bitIndex := index % numBits
	bitmask := int64(1) << bitIndex

	oldWord := b.bits.Get(wordIndex)
	for {
		newWord := oldWord | bitmask
		if newWord == oldWord {
			// nothing to set
			return
		}
		currentWord := b.bits.CompareAndExchange(wordIndex, oldWord, newWord)
		if currentWord == oldWord {
			// CAS successful
			return
		}
		// CAS unsuccessful, try again
		oldWord = currentWord
	}
}

// SetRange sets the bits in [startIndex, endIndex).
func (b *HugeAtomicBitSet) SetRange(startIndex, endIndex int64) {
	for i := startIndex; i < endIndex; i++ {
		b.Set(i)
	}
}

// GetAndSet sets a bit and returns the previous value.
func (b *HugeAtomicBitSet) GetAndSet(index int64) bool {
	wordIndex := index / numBits
	bitIndex := index % numBits
	bitmask := int64(1) << bitIndex

	oldWord := b.bits.Get(wordIndex)
	for {
		newWord := oldWord | bitmask
		if newWord == oldWord {
			// already set
			return true
		}
		currentWord := b.bits.CompareAndExchange(wordIndex, oldWord, newWord)
		if currentWord == oldWord {
			// CAS successful
			return false
		}
		// CAS unsuccessful, try again
		oldWord = currentWord
	}
}

// Flip toggles the bit at the given index.
func (b *HugeAtomicBitSet) Flip(index int64) {
	wordIndex := index / numBits
	bitIndex := index % numBits
	bitmask := int64(1) << bitIndex

	oldWord := b.bits.Get(wordIndex)
	for {
		newWord := oldWord ^ bitmask
		currentWord := b.bits.CompareAndExchange(wordIndex, oldWord, newWord)
		if currentWord == oldWord {
			return
		}
		oldWord = currentWord
	}
}

// ClearBit resets the bit at the given index.
func (b *HugeAtomicBitSet) ClearBit(index int64) {
	wordIndex := index / numBits
	bitIndex := index % numBits
	bitmask := ^(int64(1) << bitIndex)

	oldWord := b.bits.Get(wordIndex)
	for {
		newWord := oldWord & bitmask
		if newWord == oldWord {
			// already cleared
			return
		}
		currentWord := b.bits.CompareAndExchange(wordIndex, oldWord, newWord)
		if currentWord == oldWord {
			return
		}
		oldWord = currentWord
	}
}

// Clear resets all bits. Not safe under concurrent writers.
func (b *HugeAtomicBitSet) Clear() {
	b.bits.SetAll(0)
}

// Cardinality returns the number of set bits. Not safe under concurrent writers.
func (b *HugeAtomicBitSet) Cardinality() int64 {
	var setBitCount int64
	for wordIndex := int64(0); wordIndex < b.bits.Size(); wordIndex++ {
		setBitCount += int64(bits.OnesCount64(uint64(b.bits.Get(wordIndex))))
	}
	return setBitCount
}

// IsEmpty reports whether no bit is set. Not safe under concurrent writers.
func (b *HugeAtomicBitSet) IsEmpty() bool {
	for wordIndex := int64(0); wordIndex < b.bits.Size(); wordIndex++ {
		if b.bits.Get(wordIndex) != 0 {
			return false
		}
	}
	return true
}

// Size returns the number of bits in the bit set.
func (b *HugeAtomicBitSet) Size() int64 {
	return b.numBits
}

// Capacity returns the number of words backing the bit set.
func (b *HugeAtomicBitSet) Capacity() int64 {
	return b.bits.Size()
}

// ToWords converts the bit set into a flat word slice. Bit sets beyond
// MaxArrayLength words are rejected, never truncated.
func (b *HugeAtomicBitSet) ToWords() ([]uint64, error) {
	if b.bits.Size() > MaxArrayLength {
		return nil, errors.Newf(errors.ErrorTypeUnsupported, "to_words",
			"cannot convert bit set with %d words (max %d)", b.bits.Size(), int64(MaxArrayLength))
	}
	out := make([]uint64, b.bits.Size())
	for i := range out {
		out[i] = uint64(b.bits.Get(int64(i)))
	}
	return out, nil
}

// Release frees the backing words and returns the freed byte estimate.
func (b *HugeAtomicBitSet) Release() int64 {
	return b.bits.Release()
}

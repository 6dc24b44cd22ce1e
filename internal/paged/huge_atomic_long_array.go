package paged

import (
	"fmt"
	"sync/atomic"

	"github.com/23skdu/trellis/internal/mem"
)

// HugeAtomicLongArray is a paged int64 array whose elements are mutated with
// atomic word operations. It is the shared-write structure of the engine:
// multiple workers may update arbitrary elements without a barrier in between.
//
// Pages come from the allocation tracker's arrow-backed buffers, which are
// 64-byte aligned, so per-element atomics are safe.
type HugeAtomicLongArray struct {
	size    int64
	pages   [][]int64
	tracker *mem.AllocationTracker
}

// NewHugeAtomicLongArray allocates a zeroed atomic array of the given size.
func NewHugeAtomicLongArray(size int64, tracker *mem.AllocationTracker) (*HugeAtomicLongArray, error) {
	pages, err := allocLongPages(size, tracker)
	if err != nil {
		return nil, err
	}
	return &HugeAtomicLongArray{size: size, pages: pages, tracker: tracker}, nil
}

// Size returns the logical length of the array.
func (a *HugeAtomicLongArray) Size() int64 {
	return a.size
}

// Get atomically reads the element at index.
func (a *HugeAtomicLongArray) Get(index int64) int64 {
	return atomic.LoadInt64(a.addr(index))
}

// Set atomically stores value at index.
func (a *HugeAtomicLongArray) Set(index int64, value int64) {
	atomic.StoreInt64(a.addr(index), value)
}

// GetAndSet atomically stores value and returns the previous element.
func (a *HugeAtomicLongArray) GetAndSet(index int64, value int64) int64 {
	return atomic.SwapInt64(a.addr(index), value)
}

// CompareAndExchange attempts to replace current with update and returns the
// witness value: current on success, the freshly observed element on failure.
// Callers retry their read-modify-write loop with the witness.
func (a *HugeAtomicLongArray) CompareAndExchange(index int64, current, update int64) int64 {
	addr := a.addr(index)
	if atomic.CompareAndSwapInt64(addr, current, update) {
		return current
	}
	return atomic.LoadInt64(addr)
}

// Update atomically transforms the element at index with f, retrying the CAS
// with the freshly observed word until it succeeds.
func (a *HugeAtomicLongArray) Update(index int64, f func(int64) int64) {
	addr := a.addr(index)
	oldWord := atomic.LoadInt64(addr)
	for {
		newWord := f(oldWord)
		if atomic.CompareAndSwapInt64(addr, oldWord, newWord) {
			return
		}
		oldWord = atomic.LoadInt64(addr)
	}
}

// SetAll fills every element with value. Not safe under concurrent writers.
func (a *HugeAtomicLongArray) SetAll(value int64) {
	for _, page := range a.pages {
		for i := range page {
			page[i] = value
		}
	}
}

// Release frees the backing pages and returns the freed byte estimate.
func (a *HugeAtomicLongArray) Release() int64 {
	freed := freeLongPages(a.pages, a.tracker)
	a.pages = nil
	a.size = 0
	return freed
}

func (a *HugeAtomicLongArray) addr(index int64) *int64 {
	if index < 0 || index >= a.size {
		panic(fmt.Sprintf("index %d out of bounds for huge array of size %d", index, a.size))
	}
	return &a.pages[PageIndex(index)][IndexInPage(index)]
}

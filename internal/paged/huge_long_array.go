package paged

import (
	"fmt"

	"github.com/23skdu/trellis/internal/errors"
	"github.com/23skdu/trellis/internal/mem"
)

// HugeLongArray is a paged int64 array addressable beyond a single
// allocation's index limit. Pages are zero-initialized on creation.
//
// Get and Set are not synchronized; within a superstep only the owning worker
// may touch an index. Use HugeAtomicLongArray for cross-worker mutation.
type HugeLongArray struct {
	size    int64
	pages   [][]int64
	tracker *mem.AllocationTracker
}

// NewHugeLongArray allocates a zeroed array of the given size.
func NewHugeLongArray(size int64, tracker *mem.AllocationTracker) (*HugeLongArray, error) {
	pages, err := allocLongPages(size, tracker)
	if err != nil {
		return nil, err
	}
	return &HugeLongArray{size: size, pages: pages, tracker: tracker}, nil
}

func allocLongPages(size int64, tracker *mem.AllocationTracker) ([][]int64, error) {
	if size < 0 {
		return nil, errors.Newf(errors.ErrorTypeCapacity, "new_huge_array", "negative size %d", size)
	}
	if err := tracker.CheckBudget(size * 8); err != nil {
		return nil, err
	}
	numPages := NumPages(size)
	pages := make([][]int64, numPages)
	for i := range pages {
		pageLen := PageSize
		if i == numPages-1 {
			pageLen = ExclusiveIndexOfPage(size)
		}
		page, err := tracker.AllocateInt64s(pageLen)
		if err != nil {
			freeLongPages(pages[:i], tracker)
			return nil, err
		}
		pages[i] = page
	}
	return pages, nil
}

func freeLongPages(pages [][]int64, tracker *mem.AllocationTracker) int64 {
	var freed int64
	for _, page := range pages {
		freed += int64(len(page)) * 8
		tracker.FreeInt64s(page)
	}
	return freed
}

// Size returns the logical length of the array.
func (a *HugeLongArray) Size() int64 {
	return a.size
}

// Get returns the element at index. Out of range indices are a programming
// error and panic.
func (a *HugeLongArray) Get(index int64) int64 {
	a.boundsCheck(index)
	return a.pages[PageIndex(index)][IndexInPage(index)]
}

// Set stores value at index.
func (a *HugeLongArray) Set(index int64, value int64) {
	a.boundsCheck(index)
	a.pages[PageIndex(index)][IndexInPage(index)] = value
}

// Fill sets every element to value. Not safe under concurrent readers.
func (a *HugeLongArray) Fill(value int64) {
	for _, page := range a.pages {
		for i := range page {
			page[i] = value
		}
	}
}

// SetAll computes every element from its index. Not safe under concurrent readers.
func (a *HugeLongArray) SetAll(gen func(index int64) int64) {
	base := int64(0)
	for _, page := range a.pages {
		for i := range page {
			page[i] = gen(base + int64(i))
		}
		base += int64(len(page))
	}
}

// CopyTo copies the first length elements into dest and zero-fills the rest
// of dest.
func (a *HugeLongArray) CopyTo(dest *HugeLongArray, length int64) {
	if length > a.size {
		length = a.size
	}
	if length > dest.size {
		length = dest.size
	}
	remaining := length
	for pageIdx, page := range dest.pages {
		if remaining <= 0 {
			clear(page)
			continue
		}
		src := a.pages[pageIdx]
		n := int64(len(page))
		if remaining >= n {
			copy(page, src[:n])
			remaining -= n
			continue
		}
		copy(page[:remaining], src[:remaining])
		clear(page[remaining:])
		remaining = 0
	}
}

// ToSlice converts the array into one flat slice. Arrays beyond
// MaxArrayLength are rejected, never truncated.
func (a *HugeLongArray) ToSlice() ([]int64, error) {
	if a.size > MaxArrayLength {
		return nil, errors.Newf(errors.ErrorTypeUnsupported, "to_slice",
			"cannot convert huge array with %d entries (max %d)", a.size, int64(MaxArrayLength))
	}
	out := make([]int64, a.size)
	idx := 0
	for _, page := range a.pages {
		idx += copy(out[idx:], page)
	}
	return out, nil
}

// Release frees the backing pages and returns the freed byte estimate.
// The array must not be used afterwards.
func (a *HugeLongArray) Release() int64 {
	freed := freeLongPages(a.pages, a.tracker)
	a.pages = nil
	a.size = 0
	return freed
}

func (a *HugeLongArray) boundsCheck(index int64) {
	if index < 0 || index >= a.size {
		panic(fmt.Sprintf("index %d out of bounds for huge array of size %d", index, a.size))
	}
}

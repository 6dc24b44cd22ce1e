package paged

import (
	"fmt"

	"github.com/23skdu/trellis/internal/errors"
	"github.com/23skdu/trellis/internal/mem"
)

// HugeDoubleArray is the float64 sibling of HugeLongArray.
type HugeDoubleArray struct {
	size    int64
	pages   [][]float64
	tracker *mem.AllocationTracker
}

// NewHugeDoubleArray allocates a zeroed array of the given size.
func NewHugeDoubleArray(size int64, tracker *mem.AllocationTracker) (*HugeDoubleArray, error) {
	if size < 0 {
		return nil, errors.Newf(errors.ErrorTypeCapacity, "new_huge_array", "negative size %d", size)
	}
	if err := tracker.CheckBudget(size * 8); err != nil {
		return nil, err
	}
	numPages := NumPages(size)
	pages := make([][]float64, numPages)
	for i := range pages {
		pageLen := PageSize
		if i == numPages-1 {
			pageLen = ExclusiveIndexOfPage(size)
		}
		page, err := tracker.AllocateFloat64s(pageLen)
		if err != nil {
			for _, p := range pages[:i] {
				tracker.FreeFloat64s(p)
			}
			return nil, err
		}
		pages[i] = page
	}
	return &HugeDoubleArray{size: size, pages: pages, tracker: tracker}, nil
}

// Size returns the logical length of the array.
func (a *HugeDoubleArray) Size() int64 {
	return a.size
}

// Get returns the element at index.
func (a *HugeDoubleArray) Get(index int64) float64 {
	a.boundsCheck(index)
	return a.pages[PageIndex(index)][IndexInPage(index)]
}

// Set stores value at index.
func (a *HugeDoubleArray) Set(index int64, value float64) {
	a.boundsCheck(index)
	a.pages[PageIndex(index)][IndexInPage(index)] = value
}

// Add accumulates delta into the element at index.
func (a *HugeDoubleArray) Add(index int64, delta float64) {
	a.boundsCheck(index)
	a.pages[PageIndex(index)][IndexInPage(index)] += delta
}

// Fill sets every element to value. Not safe under concurrent readers.
func (a *HugeDoubleArray) Fill(value float64) {
	for _, page := range a.pages {
		for i := range page {
			page[i] = value
		}
	}
}

// SetAll computes every element from its index. Not safe under concurrent readers.
func (a *HugeDoubleArray) SetAll(gen func(index int64) float64) {
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
func (a *HugeDoubleArray) CopyTo(dest *HugeDoubleArray, length int64) {
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
func (a *HugeDoubleArray) ToSlice() ([]float64, error) {
	if a.size > MaxArrayLength {
		return nil, errors.Newf(errors.ErrorTypeUnsupported, "to_slice",
			"cannot convert huge array with %d entries (max %d)", a.size, int64(MaxArrayLength))
	}
	out := make([]float64, a.size)
	idx := 0
	for _, page := range a.pages {
		idx += copy(out[idx:], page)
	}
	return out, nil
}

// Release frees the backing pages and returns the freed byte estimate.
func (a *HugeDoubleArray) Release() int64 {
	var freed int64
	for _, page := range a.pages {
		freed += int64(len(page)) * 8
		a.tracker.FreeFloat64s(page)
	}
	a.pages = nil
	a.size = 0
	return freed
}

func (a *HugeDoubleArray) boundsCheck(index int64) {
	if index < 0 || index >= a.size {
		panic(fmt.Sprintf("index %d out of bounds for huge array of size %d", index, a.size))
	}
}

package paged

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/23skdu/trellis/internal/mem"
)

func newTestTracker() *mem.AllocationTracker {
	return mem.NewTracker(nil)
}

func TestHugeLongArray_ZeroInitialized(t *testing.T) {
	tracker := newTestTracker()
	size := int64(PageSize + 137) // spans two pages
	arr, err := NewHugeLongArray(size, tracker)
	require.NoError(t, err)

	for i := int64(0); i < size; i++ {
		if arr.Get(i) != 0 {
			t.Fatalf("element %d not zero after create", i)
		}
	}
	arr.Release()
}

func TestHugeLongArray_GetSetAcrossPages(t *testing.T) {
	tracker := newTestTracker()
	size := int64(3*PageSize + 5)
	arr, err := NewHugeLongArray(size, tracker)
	require.NoError(t, err)

	probes := []int64{0, 1, PageSize - 1, PageSize, 2*PageSize + 17, size - 1}
	for _, i := range probes {
		arr.Set(i, i*31)
	}
	for _, i := range probes {
		assert.Equal(t, i*31, arr.Get(i))
	}

	freed := arr.Release()
	assert.Equal(t, size*8, freed)
	assert.Equal(t, int64(0), tracker.Tracked())
}

func TestHugeLongArray_BoundsPanic(t *testing.T) {
	tracker := newTestTracker()
	arr, err := NewHugeLongArray(10, tracker)
	require.NoError(t, err)
	defer arr.Release()

	assert.Panics(t, func() { arr.Get(10) })
	assert.Panics(t, func() { arr.Set(-1, 0) })
}

func TestHugeLongArray_FillAndSetAll(t *testing.T) {
	tracker := newTestTracker()
	arr, err := NewHugeLongArray(int64(PageSize+3), tracker)
	require.NoError(t, err)
	defer arr.Release()

	arr.Fill(7)
	assert.Equal(t, int64(7), arr.Get(0))
	assert.Equal(t, int64(7), arr.Get(arr.Size()-1))

	arr.SetAll(func(i int64) int64 { return i * 2 })
	assert.Equal(t, int64(0), arr.Get(0))
	assert.Equal(t, (arr.Size()-1)*2, arr.Get(arr.Size()-1))
}

func TestHugeLongArray_CopyTo(t *testing.T) {
	tracker := newTestTracker()
	src, err := NewHugeLongArray(int64(PageSize*2), tracker)
	require.NoError(t, err)
	dest, err := NewHugeLongArray(int64(PageSize*2), tracker)
	require.NoError(t, err)
	defer src.Release()
	defer dest.Release()

	src.SetAll(func(i int64) int64 { return i + 1 })
	dest.Fill(-1)

	length := int64(PageSize + 42)
	src.CopyTo(dest, length)

	for i := int64(0); i < length; i++ {
		if dest.Get(i) != i+1 {
			t.Fatalf("prefix element %d not copied: %d", i, dest.Get(i))
		}
	}
	for i := length; i < dest.Size(); i++ {
		if dest.Get(i) != 0 {
			t.Fatalf("element %d beyond copied prefix not zeroed: %d", i, dest.Get(i))
		}
	}
}

func TestHugeLongArray_ToSlice(t *testing.T) {
	tracker := newTestTracker()
	arr, err := NewHugeLongArray(int64(PageSize+10), tracker)
	require.NoError(t, err)
	defer arr.Release()

	arr.SetAll(func(i int64) int64 { return i })
	flat, err := arr.ToSlice()
	require.NoError(t, err)
	require.Equal(t, int(arr.Size()), len(flat))
	assert.Equal(t, int64(PageSize+9), flat[len(flat)-1])
}

func TestHugeDoubleArray_Basics(t *testing.T) {
	tracker := newTestTracker()
	size := int64(PageSize + 99)
	arr, err := NewHugeDoubleArray(size, tracker)
	require.NoError(t, err)

	for _, i := range []int64{0, PageSize - 1, PageSize, size - 1} {
		assert.Equal(t, 0.0, arr.Get(i))
	}

	arr.Set(PageSize, 2.5)
	arr.Add(PageSize, 0.75)
	assert.Equal(t, 3.25, arr.Get(PageSize))

	freed := arr.Release()
	assert.Equal(t, size*8, freed)
	assert.Equal(t, int64(0), tracker.Tracked())
}

func TestHugeArray_BudgetRejected(t *testing.T) {
	tracker := mem.NewTrackerWithBudget(nil, 1024)
	_, err := NewHugeLongArray(int64(PageSize), tracker)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "memory budget")
	assert.Equal(t, int64(0), tracker.Tracked())
}

func TestHugeAtomicLongArray_Update(t *testing.T) {
	tracker := newTestTracker()
	arr, err := NewHugeAtomicLongArray(int64(PageSize+1), tracker)
	require.NoError(t, err)
	defer arr.Release()

	const workers = 8
	const incrementsPerWorker = 5000
	target := int64(PageSize) // last element, on the trailing page

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < incrementsPerWorker; i++ {
				arr.Update(target, func(v int64) int64 { return v + 1 })
			}
		}()
	}
	wg.Wait()

	if got := arr.Get(target); got != workers*incrementsPerWorker {
		t.Fatalf("lost updates: got %d, want %d", got, workers*incrementsPerWorker)
	}
}

func TestHugeAtomicLongArray_CompareAndExchange(t *testing.T) {
	tracker := newTestTracker()
	arr, err := NewHugeAtomicLongArray(4, tracker)
	require.NoError(t, err)
	defer arr.Release()

	arr.Set(2, 10)

	// Successful exchange returns the expected value
	witness := arr.CompareAndExchange(2, 10, 20)
	assert.Equal(t, int64(10), witness)
	assert.Equal(t, int64(20), arr.Get(2))

	// Failed exchange returns the freshly observed value
	witness = arr.CompareAndExchange(2, 10, 30)
	assert.Equal(t, int64(20), witness)
	assert.Equal(t, int64(20), arr.Get(2))

	prev := arr.GetAndSet(2, 99)
	assert.Equal(t, int64(20), prev)
	assert.Equal(t, int64(99), arr.Get(2))
}

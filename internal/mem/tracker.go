package mem

import (
	"sync/atomic"
	"unsafe"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/23skdu/trellis/internal/errors"
	"github.com/23skdu/trellis/internal/metrics"
)

// AllocationTracker wraps a base memory.Allocator, accounts every live byte and
// enforces an optional hard budget. All huge structures allocate their backing
// pages through one tracker so a run can be rejected before it starts.
type AllocationTracker struct {
	base memory.Allocator
	// Exposed for testing validity, but main purpose is accounting
	BytesAllocated atomic.Int64
	BytesFreed     atomic.Int64
	budget         int64
}

// NewTracker creates a tracker with no budget limit.
// If base is nil, it uses memory.DefaultAllocator.
func NewTracker(base memory.Allocator) *AllocationTracker {
	return NewTrackerWithBudget(base, 0)
}

// NewTrackerWithBudget creates a tracker that rejects allocations once live
// bytes would exceed budget. A budget of 0 means unlimited.
func NewTrackerWithBudget(base memory.Allocator, budget int64) *AllocationTracker {
	if base == nil {
		base = memory.DefaultAllocator
	}
	return &AllocationTracker{base: base, budget: budget}
}

// Tracked returns the number of currently live bytes.
func (t *AllocationTracker) Tracked() int64 {
	return t.BytesAllocated.Load() - t.BytesFreed.Load()
}

// Budget returns the configured budget, 0 meaning unlimited.
func (t *AllocationTracker) Budget() int64 {
	return t.budget
}

// CheckBudget reports whether size additional bytes would fit the budget.
// Used to reject a whole run before any of its structures are allocated.
func (t *AllocationTracker) CheckBudget(size int64) error {
	if t.budget > 0 && t.Tracked()+size > t.budget {
		metrics.AllocatorBudgetRejectionsTotal.Inc()
		return errors.Newf(errors.ErrorTypeCapacity, "check_budget",
			"allocation of %d bytes exceeds memory budget (%d of %d bytes in use)",
			size, t.Tracked(), t.budget)
	}
	return nil
}

// AllocateBytes allocates a zeroed byte buffer through the base allocator.
func (t *AllocationTracker) AllocateBytes(size int) ([]byte, error) {
	if err := t.CheckBudget(int64(size)); err != nil {
		return nil, err
	}
	t.BytesAllocated.Add(int64(size))
	metrics.AllocatorBytesAllocatedTotal.Add(float64(size))
	metrics.AllocatorBytesActive.Add(float64(size))
	buf := t.base.Allocate(size)
	clear(buf)
	return buf, nil
}

// FreeBytes returns a buffer to the base allocator.
func (t *AllocationTracker) FreeBytes(buf []byte) {
	if buf == nil {
		return
	}
	t.BytesFreed.Add(int64(len(buf)))
	metrics.AllocatorBytesFreedTotal.Add(float64(len(buf)))
	metrics.AllocatorBytesActive.Sub(float64(len(buf)))
	t.base.Free(buf)
}

// AllocateInt64s allocates a zeroed int64 page. The backing buffer comes from
// the base allocator, which guarantees 64-byte alignment, so elements are safe
// for atomic access.
func (t *AllocationTracker) AllocateInt64s(n int) ([]int64, error) {
	buf, err := t.AllocateBytes(n * 8)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return unsafe.Slice((*int64)(unsafe.Pointer(&buf[0])), n), nil
}

// FreeInt64s frees a page previously returned by AllocateInt64s.
func (t *AllocationTracker) FreeInt64s(p []int64) {
	if len(p) == 0 {
		return
	}
	t.FreeBytes(unsafe.Slice((*byte)(unsafe.Pointer(&p[0])), len(p)*8))
}

// AllocateFloat64s allocates a zeroed float64 page.
func (t *AllocationTracker) AllocateFloat64s(n int) ([]float64, error) {
	buf, err := t.AllocateBytes(n * 8)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(&buf[0])), n), nil
}

// FreeFloat64s frees a page previously returned by AllocateFloat64s.
func (t *AllocationTracker) FreeFloat64s(p []float64) {
	if len(p) == 0 {
		return
	}
	t.FreeBytes(unsafe.Slice((*byte)(unsafe.Pointer(&p[0])), len(p)*8))
}

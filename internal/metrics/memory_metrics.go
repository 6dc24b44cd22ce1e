package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Memory Tracking Metrics
// =============================================================================

var (
	// AllocatorBytesAllocatedTotal counts total bytes handed out by tracked allocators
	AllocatorBytesAllocatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trellis_allocator_bytes_allocated_total",
			Help: "Total number of bytes allocated through tracked allocators",
		},
	)

	// AllocatorBytesFreedTotal counts total bytes returned to tracked allocators
	AllocatorBytesFreedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trellis_allocator_bytes_freed_total",
			Help: "Total number of bytes freed through tracked allocators",
		},
	)

	// AllocatorBytesActive gauges currently tracked live bytes
	AllocatorBytesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trellis_allocator_bytes_active",
			Help: "Currently live bytes tracked by allocators",
		},
	)

	// AllocatorBudgetRejectionsTotal counts allocations rejected by the memory budget
	AllocatorBudgetRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trellis_allocator_budget_rejections_total",
			Help: "Total number of allocations rejected because they would exceed the memory budget",
		},
	)
)

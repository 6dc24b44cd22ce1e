package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Graph Catalog Metrics
// =============================================================================

var (
	// GraphStoreRelationshipPartitions gauges live relationship-type partitions
	GraphStoreRelationshipPartitions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trellis_graphstore_relationship_partitions",
			Help: "Number of relationship type partitions currently held in graph stores",
		},
	)

	// GraphStoreReleasesTotal counts graph stores fully released
	GraphStoreReleasesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trellis_graphstore_releases_total",
			Help: "Total number of graph stores whose backing pages were released",
		},
	)

	// AdjacencyBytesCompressed gauges bytes held by compressed adjacency pages
	AdjacencyBytesCompressed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trellis_adjacency_bytes_compressed",
			Help: "Bytes currently held by delta varint compressed adjacency pages",
		},
	)
)

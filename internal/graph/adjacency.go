package graph

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/23skdu/trellis/internal/compress"
	"github.com/23skdu/trellis/internal/errors"
	"github.com/23skdu/trellis/internal/mem"
	"github.com/23skdu/trellis/internal/metrics"
	"github.com/23skdu/trellis/internal/paged"
)

// adjacencyPageSize is the byte capacity of one adjacency page. A node's
// whole block lives inside a single page; blocks that do not fit get a
// dedicated page of exactly their size.
const adjacencyPageSize = 1 << 18

// AdjacencyList stores the compressed neighbor blocks of one relationship
// partition: byte pages plus a per-node offset packed as page index in the
// upper half and byte offset in the lower half.
type AdjacencyList struct {
	pages   [][]byte
	offsets *paged.HugeLongArray
	bytes   int64
	tracker *mem.AllocationTracker
}

// InitCursor positions cursor at nodeID's block and returns the degree.
func (l *AdjacencyList) InitCursor(cursor *compress.AdjacencyCursor, nodeID int64) int {
	packed := l.offsets.Get(nodeID)
	return cursor.Reset(l.pages[packed>>32], int(packed&0xFFFFFFFF))
}

// Degree reads nodeID's neighbor count without decoding the block.
func (l *AdjacencyList) Degree(nodeID int64) int {
	packed := l.offsets.Get(nodeID)
	return int(binary.LittleEndian.Uint32(l.pages[packed>>32][packed&0xFFFFFFFF:]))
}

// Release frees pages and offsets, returning the freed byte estimate.
func (l *AdjacencyList) Release() int64 {
	freed := l.offsets.Release()
	for _, page := range l.pages {
		freed += int64(len(page))
		l.tracker.FreeBytes(page)
	}
	metrics.AdjacencyBytesCompressed.Sub(float64(l.bytes))
	l.pages = nil
	return freed
}

// AdjacencyProperties carries one float64 value per stored relationship,
// aligned with the adjacency order: values[offsets[node]+i] belongs to the
// i-th decoded neighbor of node.
type AdjacencyProperties struct {
	offsets *paged.HugeLongArray
	values  *paged.HugeDoubleArray
}

// FirstPropertyIndex returns the index of nodeID's first relationship value.
func (p *AdjacencyProperties) FirstPropertyIndex(nodeID int64) int64 {
	return p.offsets.Get(nodeID)
}

// Value returns the property at a relationship index.
func (p *AdjacencyProperties) Value(propertyIndex int64) float64 {
	return p.values.Get(propertyIndex)
}

// Release frees the backing arrays.
func (p *AdjacencyProperties) Release() int64 {
	return p.offsets.Release() + p.values.Release()
}

// Relationships is one immutable relationship-type partition: topology plus
// optional per-relationship weights.
type Relationships struct {
	count      int64
	topology   *AdjacencyList
	properties *AdjacencyProperties
}

// Count returns the number of stored relationships.
func (r *Relationships) Count() int64 { return r.count }

// Topology returns the compressed adjacency list.
func (r *Relationships) Topology() *AdjacencyList { return r.topology }

// Properties returns the weight column, or nil for unweighted partitions.
func (r *Relationships) Properties() *AdjacencyProperties { return r.properties }

// Release frees topology and weights, returning the freed byte estimate.
func (r *Relationships) Release() int64 {
	freed := r.topology.Release()
	if r.properties != nil {
		freed += r.properties.Release()
	}
	return freed
}

// RelationshipsBuilder accumulates outgoing edges per source node and
// compresses them into a Relationships partition. The scratch state is plain
// Go slices; only the built partition is tracker-accounted.
type RelationshipsBuilder struct {
	nodeCount  int64
	targets    [][]int64
	weights    [][]float64
	hasWeights bool
	tracker    *mem.AllocationTracker
}

// NewRelationshipsBuilder creates a builder for nodeCount dense node ids.
func NewRelationshipsBuilder(nodeCount int64, hasWeights bool, tracker *mem.AllocationTracker) *RelationshipsBuilder {
	b := &RelationshipsBuilder{
		nodeCount:  nodeCount,
		targets:    make([][]int64, nodeCount),
		hasWeights: hasWeights,
		tracker:    tracker,
	}
	if hasWeights {
		b.weights = make([][]float64, nodeCount)
	}
	return b
}

// Add records an unweighted edge.
func (b *RelationshipsBuilder) Add(source, target int64) error {
	return b.AddWeighted(source, target, 0)
}

// AddWeighted records an edge with a weight; the weight is ignored for
// builders created without weights.
func (b *RelationshipsBuilder) AddWeighted(source, target int64, weight float64) error {
	if source < 0 || source >= b.nodeCount || target < 0 || target >= b.nodeCount {
		return errors.Newf(errors.ErrorTypeValidation, "add_relationship",
			"edge (%d)->(%d) outside node id space [0, %d)", source, target, b.nodeCount)
	}
	b.targets[source] = append(b.targets[source], target)
	if b.hasWeights {
		b.weights[source] = append(b.weights[source], weight)
	}
	return nil
}

// Build sorts every neighbor list, compresses the topology and assembles the
// partition. The builder must not be reused afterwards.
func (b *RelationshipsBuilder) Build() (*Relationships, error) {
	offsets, err := paged.NewHugeLongArray(b.nodeCount, b.tracker)
	if err != nil {
		return nil, err
	}

	list := &AdjacencyList{offsets: offsets, tracker: b.tracker}
	var relCount int64
	var currentPage []byte
	currentPageIdx := -1
	var pageFill int
	scratch := make([]byte, 0, 4096)

	var propOffsets *paged.HugeLongArray
	if b.hasWeights {
		propOffsets, err = paged.NewHugeLongArray(b.nodeCount, b.tracker)
		if err != nil {
			offsets.Release()
			return nil, err
		}
	}

	fail := func(err error) (*Relationships, error) {
		list.Release()
		if propOffsets != nil {
			propOffsets.Release()
		}
		return nil, err
	}

	for nodeID := int64(0); nodeID < b.nodeCount; nodeID++ {
		neighbors := b.targets[nodeID]
		if b.hasWeights {
			sortByTarget(neighbors, b.weights[nodeID])
			propOffsets.Set(nodeID, relCount)
		} else {
			sort.Slice(neighbors, func(i, j int) bool { return neighbors[i] < neighbors[j] })
		}
		relCount += int64(len(neighbors))

		scratch = compress.EncodeAdjacency(scratch[:0], neighbors)
		blockLen := len(scratch)

		if blockLen > adjacencyPageSize {
			// oversized block gets its own exactly-sized page
			page, err := b.tracker.AllocateBytes(blockLen)
			if err != nil {
				return fail(err)
			}
			copy(page, scratch)
			list.pages = append(list.pages, page)
			offsets.Set(nodeID, int64(len(list.pages)-1)<<32)
			continue
		}

		if currentPage == nil || pageFill+blockLen > adjacencyPageSize {
			page, err := b.tracker.AllocateBytes(adjacencyPageSize)
			if err != nil {
				return fail(err)
			}
			list.pages = append(list.pages, page)
			currentPage = page
			currentPageIdx = len(list.pages) - 1
			pageFill = 0
		}
		copy(currentPage[pageFill:], scratch)
		offsets.Set(nodeID, int64(currentPageIdx)<<32|int64(pageFill))
		pageFill += blockLen
	}

	for _, page := range list.pages {
		list.bytes += int64(len(page))
	}
	metrics.AdjacencyBytesCompressed.Add(float64(list.bytes))

	rels := &Relationships{count: relCount, topology: list}

	if b.hasWeights {
		values, err := paged.NewHugeDoubleArray(relCount, b.tracker)
		if err != nil {
			return fail(err)
		}
		idx := int64(0)
		for nodeID := int64(0); nodeID < b.nodeCount; nodeID++ {
			for _, w := range b.weights[nodeID] {
				values.Set(idx, w)
				idx++
			}
		}
		rels.properties = &AdjacencyProperties{offsets: propOffsets, values: values}
	}

	b.targets = nil
	b.weights = nil
	return rels, nil
}

// sortByTarget sorts targets ascending, keeping weights aligned.
func sortByTarget(targets []int64, weights []float64) {
	if len(targets) != len(weights) {
		panic(fmt.Sprintf("targets and weights out of sync: %d vs %d", len(targets), len(weights)))
	}
	sort.Sort(&pairSorter{targets: targets, weights: weights})
}

type pairSorter struct {
	targets []int64
	weights []float64
}

func (p *pairSorter) Len() int           { return len(p.targets) }
func (p *pairSorter) Less(i, j int) bool { return p.targets[i] < p.targets[j] }
func (p *pairSorter) Swap(i, j int) {
	p.targets[i], p.targets[j] = p.targets[j], p.targets[i]
	p.weights[i], p.weights[j] = p.weights[j], p.weights[i]
}

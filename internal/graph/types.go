package graph

// NodeLabel tags a set of nodes in the catalog.
type NodeLabel string

// RelationshipType names one adjacency partition of a graph store.
type RelationshipType string

// AllNodes is the label carried by every node when no projection applies.
const AllNodes NodeLabel = "__ALL__"

// PropertyState records whether a property must be reflected back to the
// backing store or only lives for the duration of the in-memory graph.
type PropertyState int

const (
	PropertyStatePersistent PropertyState = iota
	PropertyStateTransient
)

func (s PropertyState) String() string {
	if s == PropertyStateTransient {
		return "TRANSIENT"
	}
	return "PERSISTENT"
}

// RelationshipConsumer receives one relationship per call and returns false
// to stop the iteration early.
type RelationshipConsumer func(sourceID, targetID int64) bool

// RelationshipWithPropertyConsumer additionally receives the relationship
// weight, or the caller's fallback when the partition carries none.
type RelationshipWithPropertyConsumer func(sourceID, targetID int64, weight float64) bool

// NodeMapping maps between the dense internal id space [0, nodeCount) and
// external node ids. Building a mapping from an external store is a loader
// concern; the engine only requires the dense side.
type NodeMapping interface {
	NodeCount() int64
	ToMappedNodeID(originalID int64) int64
	ToOriginalNodeID(mappedID int64) int64
	ContainsOriginalID(originalID int64) bool
}

// DirectIDMap is the identity mapping over [0, nodeCount).
type DirectIDMap struct {
	nodeCount int64
}

// NewDirectIDMap returns the identity mapping for nodeCount dense ids.
func NewDirectIDMap(nodeCount int64) *DirectIDMap {
	return &DirectIDMap{nodeCount: nodeCount}
}

func (m *DirectIDMap) NodeCount() int64 { return m.nodeCount }

func (m *DirectIDMap) ToMappedNodeID(originalID int64) int64 { return originalID }

func (m *DirectIDMap) ToOriginalNodeID(mappedID int64) int64 { return mappedID }

func (m *DirectIDMap) ContainsOriginalID(originalID int64) bool {
	return originalID >= 0 && originalID < m.nodeCount
}

package graph

import (
	"github.com/23skdu/trellis/internal/compress"
)

// Graph is a read-only view over one or more relationship partitions of a
// graph store. Views compose partitions without copying adjacency data.
//
// A Graph instance owns scratch decoding state and must not be shared across
// goroutines; parallel traversal uses ConcurrentCopy to obtain a cheap
// per-worker duplicate.
type Graph interface {
	NodeCount() int64
	RelationshipCount() int64
	Degree(nodeID int64) int
	// ForEachRelationship calls consumer for every outgoing relationship of
	// nodeID in ascending target order per partition.
	ForEachRelationship(nodeID int64, consumer RelationshipConsumer)
	// ForEachRelationshipWeighted passes the relationship weight, or
	// fallbackWeight for partitions without a weight column.
	ForEachRelationshipWeighted(nodeID int64, fallbackWeight float64, consumer RelationshipWithPropertyConsumer)
	HasRelationshipProperty() bool
	// NodeProperties returns the property column registered under key, or nil.
	NodeProperties(key string) NodeProperties
	// ConcurrentCopy duplicates the traversal state for use by another worker.
	ConcurrentCopy() Graph
	// Release drops this view's reference on the owning store.
	Release()
}

type graphView struct {
	store      *GraphStore
	nodeCount  int64
	partitions []*relPartition
	relCount   int64
	weighted   bool
	cursor     compress.AdjacencyCursor
	isCopy     bool
	released   bool
}

func (g *graphView) NodeCount() int64 {
	return g.nodeCount
}

func (g *graphView) RelationshipCount() int64 {
	return g.relCount
}

func (g *graphView) Degree(nodeID int64) int {
	degree := 0
	for _, p := range g.partitions {
		degree += p.rels.Topology().Degree(nodeID)
	}
	return degree
}

func (g *graphView) ForEachRelationship(nodeID int64, consumer RelationshipConsumer) {
	for _, p := range g.partitions {
		p.rels.Topology().InitCursor(&g.cursor, nodeID)
		for g.cursor.HasNext() {
			if !consumer(nodeID, g.cursor.Next()) {
				return
			}
		}
	}
}

func (g *graphView) ForEachRelationshipWeighted(nodeID int64, fallbackWeight float64, consumer RelationshipWithPropertyConsumer) {
	for _, p := range g.partitions {
		p.rels.Topology().InitCursor(&g.cursor, nodeID)
		props := p.rels.Properties()
		if props == nil || !g.weighted {
			for g.cursor.HasNext() {
				if !consumer(nodeID, g.cursor.Next(), fallbackWeight) {
					return
				}
			}
			continue
		}
		propIdx := props.FirstPropertyIndex(nodeID)
		for g.cursor.HasNext() {
			if !consumer(nodeID, g.cursor.Next(), props.Value(propIdx)) {
				return
			}
			propIdx++
		}
	}
}

func (g *graphView) HasRelationshipProperty() bool {
	return g.weighted
}

func (g *graphView) NodeProperties(key string) NodeProperties {
	return g.store.NodeProperty(key)
}

func (g *graphView) ConcurrentCopy() Graph {
	dup := &graphView{
		store:      g.store,
		nodeCount:  g.nodeCount,
		partitions: g.partitions,
		relCount:   g.relCount,
		weighted:   g.weighted,
		isCopy:     true,
	}
	dup.cursor.CopyFrom(&g.cursor)
	return dup
}

func (g *graphView) Release() {
	// copies share the root view's reference
	if g.isCopy || g.released {
		return
	}
	g.released = true
	g.store.releaseView()
}

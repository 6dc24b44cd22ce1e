package pregel

import (
	"github.com/23skdu/trellis/internal/graph"
)

// nodeContext is the state shared by the init and compute contexts of one
// worker: a concurrent graph copy, the value columns and the run config.
// The current node id is updated as the worker walks its batch.
type nodeContext struct {
	config    Config
	graph     graph.Graph
	values    *NodeValues
	nodeID    int64
	superstep int
}

// NodeID returns the node this context currently addresses.
func (c *nodeContext) NodeID() int64 {
	return c.nodeID
}

// Config returns the run configuration.
func (c *nodeContext) Config() Config {
	return c.config
}

// NodeCount returns the graph's node count.
func (c *nodeContext) NodeCount() int64 {
	return c.graph.NodeCount()
}

// Degree returns the out-degree of the current node.
func (c *nodeContext) Degree() int {
	return c.graph.Degree(c.nodeID)
}

// ColumnIndex resolves a schema key to its compiled column index. Resolve
// once at setup; the typed accessors below dispatch purely by offset.
func (c *nodeContext) ColumnIndex(key string) (int, error) {
	return c.values.ColumnIndex(key)
}

// LongNodeValue reads the current node's long field at col.
func (c *nodeContext) LongNodeValue(col int) int64 {
	return c.values.LongValue(col, c.nodeID)
}

// SetLongNodeValue writes the current node's long field at col.
func (c *nodeContext) SetLongNodeValue(col int, value int64) {
	c.values.SetLongValue(col, c.nodeID, value)
}

// DoubleNodeValue reads the current node's double field at col.
func (c *nodeContext) DoubleNodeValue(col int) float64 {
	return c.values.DoubleValue(col, c.nodeID)
}

// SetDoubleNodeValue writes the current node's double field at col.
func (c *nodeContext) SetDoubleNodeValue(col int, value float64) {
	c.values.SetDoubleValue(col, c.nodeID, value)
}

// SetLongArrayNodeValue writes the current node's long array field at col.
func (c *nodeContext) SetLongArrayNodeValue(col int, value []int64) {
	c.values.SetLongArrayValue(col, c.nodeID, value)
}

// SetDoubleArrayNodeValue writes the current node's double array field at col.
func (c *nodeContext) SetDoubleArrayNodeValue(col int, value []float64) {
	c.values.SetDoubleArrayValue(col, c.nodeID, value)
}

// InitContext is passed to Computation.Init during superstep 0.
type InitContext struct {
	nodeContext
}

// NodeProperties returns a graph property column by key, or nil when the
// graph carries none. Init code seeds node values from it.
func (c *InitContext) NodeProperties(key string) graph.NodeProperties {
	return c.graph.NodeProperties(key)
}

// ComputeContext is passed to Computation.Compute for every active node.
type ComputeContext struct {
	nodeContext
	engine *Pregel
}

// Superstep returns the current global superstep, starting at 0.
func (c *ComputeContext) Superstep() int {
	return c.superstep
}

// IsInitialSuperstep reports whether this is superstep 0.
func (c *ComputeContext) IsInitialSuperstep() bool {
	return c.superstep == 0
}

// VoteToHalt asks to stop scheduling this node unless a message reactivates it.
func (c *ComputeContext) VoteToHalt() {
	c.engine.votedToHalt.Set(c.nodeID)
}

// SendTo queues a message for target, delivered in the next superstep (or
// immediately in asynchronous mode).
func (c *ComputeContext) SendTo(target int64, message float64) {
	c.engine.messenger.sendTo(target, message)
	c.engine.sentMessage.Store(true)
}

// SendToNeighbors sends message along every outgoing relationship of the
// current node, applying the computation's weight transform when the graph
// carries a relationship weight.
func (c *ComputeContext) SendToNeighbors(message float64) {
	sent := false
	if c.engine.weighter != nil && c.graph.HasRelationshipProperty() {
		c.graph.ForEachRelationshipWeighted(c.nodeID, 1.0, func(_, target int64, weight float64) bool {
			c.engine.messenger.sendTo(target, c.engine.weighter.ApplyRelationshipWeight(message, weight))
			sent = true
			return true
		})
	} else {
		c.graph.ForEachRelationship(c.nodeID, func(_, target int64) bool {
			c.engine.messenger.sendTo(target, message)
			sent = true
			return true
		})
	}
	if sent {
		c.engine.sentMessage.Store(true)
	}
}

// ForEachNeighbor iterates the current node's outgoing relationships.
func (c *ComputeContext) ForEachNeighbor(fn func(target int64) bool) {
	c.graph.ForEachRelationship(c.nodeID, func(_, target int64) bool {
		return fn(target)
	})
}

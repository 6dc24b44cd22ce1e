package pregel

import (
	"fmt"

	"github.com/23skdu/trellis/internal/errors"
	"github.com/23skdu/trellis/internal/graph"
	"github.com/23skdu/trellis/internal/mem"
	"github.com/23skdu/trellis/internal/paged"
)

// NodeValues stores the schema-typed per-node record column-wise: one huge
// array (or nested slice column) per field, indexed by node id. Within a
// superstep a column element is written only by the worker owning that node.
type NodeValues struct {
	schema    Schema
	index     map[string]int
	nodeCount int64

	longColumns        map[int]*paged.HugeLongArray
	doubleColumns      map[int]*paged.HugeDoubleArray
	longArrayColumns   map[int][][]int64
	doubleArrayColumns map[int][][]float64
}

// NewNodeValues compiles the schema into columns. The primitive columns are
// tracker-accounted huge arrays; allocation fails fast on the memory budget.
func NewNodeValues(schema Schema, nodeCount int64, tracker *mem.AllocationTracker) (*NodeValues, error) {
	if err := schema.validate(); err != nil {
		return nil, err
	}

	v := &NodeValues{
		schema:             schema,
		index:              make(map[string]int, len(schema.Elements)),
		nodeCount:          nodeCount,
		longColumns:        make(map[int]*paged.HugeLongArray),
		doubleColumns:      make(map[int]*paged.HugeDoubleArray),
		longArrayColumns:   make(map[int][][]int64),
		doubleArrayColumns: make(map[int][][]float64),
	}

	for col, element := range schema.Elements {
		v.index[element.Key] = col
		switch element.Type {
		case ValueTypeLong:
			arr, err := paged.NewHugeLongArray(nodeCount, tracker)
			if err != nil {
				v.Release()
				return nil, err
			}
			v.longColumns[col] = arr
		case ValueTypeDouble:
			arr, err := paged.NewHugeDoubleArray(nodeCount, tracker)
			if err != nil {
				v.Release()
				return nil, err
			}
			v.doubleColumns[col] = arr
		case ValueTypeLongArray:
			v.longArrayColumns[col] = make([][]int64, nodeCount)
		case ValueTypeDoubleArray:
			v.doubleArrayColumns[col] = make([][]float64, nodeCount)
		}
	}
	return v, nil
}

// Schema returns the schema the columns were compiled from.
func (v *NodeValues) Schema() Schema {
	return v.schema
}

// ColumnIndex resolves a field key to its compiled column index.
func (v *NodeValues) ColumnIndex(key string) (int, error) {
	col, ok := v.index[key]
	if !ok {
		return 0, errors.Newf(errors.ErrorTypeValidation, "column_index",
			"schema has no field %q", key)
	}
	return col, nil
}

// LongValue reads a long field by column index.
func (v *NodeValues) LongValue(col int, nodeID int64) int64 {
	return v.longColumn(col).Get(nodeID)
}

// SetLongValue writes a long field by column index.
func (v *NodeValues) SetLongValue(col int, nodeID int64, value int64) {
	v.longColumn(col).Set(nodeID, value)
}

// DoubleValue reads a double field by column index.
func (v *NodeValues) DoubleValue(col int, nodeID int64) float64 {
	return v.doubleColumn(col).Get(nodeID)
}

// SetDoubleValue writes a double field by column index.
func (v *NodeValues) SetDoubleValue(col int, nodeID int64, value float64) {
	v.doubleColumn(col).Set(nodeID, value)
}

// LongArrayValue reads a long array field by column index.
func (v *NodeValues) LongArrayValue(col int, nodeID int64) []int64 {
	return v.longArrayColumn(col)[nodeID]
}

// SetLongArrayValue writes a long array field by column index.
func (v *NodeValues) SetLongArrayValue(col int, nodeID int64, value []int64) {
	v.longArrayColumn(col)[nodeID] = value
}

// DoubleArrayValue reads a double array field by column index.
func (v *NodeValues) DoubleArrayValue(col int, nodeID int64) []float64 {
	return v.doubleArrayColumn(col)[nodeID]
}

// SetDoubleArrayValue writes a double array field by column index.
func (v *NodeValues) SetDoubleArrayValue(col int, nodeID int64, value []float64) {
	v.doubleArrayColumn(col)[nodeID] = value
}

func (v *NodeValues) longColumn(col int) *paged.HugeLongArray {
	arr, ok := v.longColumns[col]
	if !ok {
		panic(fmt.Sprintf("column %d is not a long column", col))
	}
	return arr
}

func (v *NodeValues) doubleColumn(col int) *paged.HugeDoubleArray {
	arr, ok := v.doubleColumns[col]
	if !ok {
		panic(fmt.Sprintf("column %d is not a double column", col))
	}
	return arr
}

func (v *NodeValues) longArrayColumn(col int) [][]int64 {
	c, ok := v.longArrayColumns[col]
	if !ok {
		panic(fmt.Sprintf("column %d is not a long array column", col))
	}
	return c
}

func (v *NodeValues) doubleArrayColumn(col int) [][]float64 {
	c, ok := v.doubleArrayColumns[col]
	if !ok {
		panic(fmt.Sprintf("column %d is not a double array column", col))
	}
	return c
}

// NodeProperties wraps a primitive column as a read-only graph property, so
// run results can be registered on a graph store.
func (v *NodeValues) NodeProperties(key string) (graph.NodeProperties, error) {
	col, err := v.ColumnIndex(key)
	if err != nil {
		return nil, err
	}
	switch v.schema.Elements[col].Type {
	case ValueTypeLong:
		return graph.NewLongNodeProperties(v.longColumns[col]), nil
	case ValueTypeDouble:
		return graph.NewDoubleNodeProperties(v.doubleColumns[col]), nil
	default:
		return nil, errors.Newf(errors.ErrorTypeUnsupported, "node_properties",
			"field %q has non-scalar type %s", key, v.schema.Elements[col].Type)
	}
}

// Release frees the primitive columns and returns the freed byte estimate.
// Array columns are garbage collected with the struct.
func (v *NodeValues) Release() int64 {
	var freed int64
	for col, arr := range v.longColumns {
		freed += arr.Release()
		delete(v.longColumns, col)
	}
	for col, arr := range v.doubleColumns {
		freed += arr.Release()
		delete(v.doubleColumns, col)
	}
	v.longArrayColumns = nil
	v.doubleArrayColumns = nil
	return freed
}

package graph

import (
	"github.com/23skdu/trellis/internal/paged"
)

// ValueKind describes the type of a per-node property value.
type ValueKind int

const (
	ValueKindLong ValueKind = iota
	ValueKindDouble
	ValueKindLongArray
	ValueKindDoubleArray
)

func (k ValueKind) String() string {
	switch k {
	case ValueKindLong:
		return "LONG"
	case ValueKindDouble:
		return "DOUBLE"
	case ValueKindLongArray:
		return "LONG_ARRAY"
	case ValueKindDoubleArray:
		return "DOUBLE_ARRAY"
	}
	return "UNKNOWN"
}

// NodeProperties is the read surface of one typed per-node property column.
// Accessors for the wrong kind return the zero value; configuration-time code
// checks Kind once and run-time code reads by compiled accessor.
type NodeProperties interface {
	Kind() ValueKind
	LongValue(nodeID int64) int64
	DoubleValue(nodeID int64) float64
	Release() int64
}

// LongNodeProperties serves a long column backed by a huge array.
type LongNodeProperties struct {
	values *paged.HugeLongArray
}

func NewLongNodeProperties(values *paged.HugeLongArray) *LongNodeProperties {
	return &LongNodeProperties{values: values}
}

func (p *LongNodeProperties) Kind() ValueKind { return ValueKindLong }

func (p *LongNodeProperties) LongValue(nodeID int64) int64 { return p.values.Get(nodeID) }

func (p *LongNodeProperties) DoubleValue(nodeID int64) float64 {
	return float64(p.values.Get(nodeID))
}

func (p *LongNodeProperties) Release() int64 { return p.values.Release() }

// DoubleNodeProperties serves a double column backed by a huge array.
type DoubleNodeProperties struct {
	values *paged.HugeDoubleArray
}

func NewDoubleNodeProperties(values *paged.HugeDoubleArray) *DoubleNodeProperties {
	return &DoubleNodeProperties{values: values}
}

func (p *DoubleNodeProperties) Kind() ValueKind { return ValueKindDouble }

func (p *DoubleNodeProperties) LongValue(nodeID int64) int64 {
	return int64(p.values.Get(nodeID))
}

func (p *DoubleNodeProperties) DoubleValue(nodeID int64) float64 { return p.values.Get(nodeID) }

func (p *DoubleNodeProperties) Release() int64 { return p.values.Release() }

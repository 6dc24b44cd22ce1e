package pregel

import (
	"github.com/23skdu/trellis/internal/errors"
)

// ValueType enumerates the field types a computation schema may declare.
type ValueType int

const (
	ValueTypeLong ValueType = iota
	ValueTypeDouble
	ValueTypeLongArray
	ValueTypeDoubleArray
)

func (t ValueType) String() string {
	switch t {
	case ValueTypeLong:
		return "LONG"
	case ValueTypeDouble:
		return "DOUBLE"
	case ValueTypeLongArray:
		return "LONG_ARRAY"
	case ValueTypeDoubleArray:
		return "DOUBLE_ARRAY"
	}
	return "UNKNOWN"
}

// Element is one named, typed field of the per-node composite value.
type Element struct {
	Key  string
	Type ValueType
}

// Schema is the ordered field list of a computation's node value record.
// Fields are addressed by key at setup time and by compiled column index in
// the hot loop.
type Schema struct {
	Elements []Element
}

// NewSchema builds a schema from the given elements.
func NewSchema(elements ...Element) Schema {
	return Schema{Elements: elements}
}

func (s Schema) validate() error {
	if len(s.Elements) == 0 {
		return errors.New(errors.ErrorTypeValidation, "schema", "schema declares no fields")
	}
	seen := make(map[string]struct{}, len(s.Elements))
	for _, e := range s.Elements {
		if e.Key == "" {
			return errors.New(errors.ErrorTypeValidation, "schema", "schema field with empty key")
		}
		if _, dup := seen[e.Key]; dup {
			return errors.Newf(errors.ErrorTypeValidation, "schema", "duplicate schema field %q", e.Key)
		}
		seen[e.Key] = struct{}{}
	}
	return nil
}

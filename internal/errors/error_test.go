package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStructuredError_Error(t *testing.T) {
	// Test error without cause
	err := New(ErrorTypeValidation, "test_op", "test message")
	expected := "[validation] test_op: test message"
	assert.Equal(t, expected, err.Error())

	// Test error with cause
	cause := errors.New("underlying error")
	err = Wrap(cause, ErrorTypeCapacity, "allocate", "budget exceeded")
	assert.Contains(t, err.Error(), "[capacity] allocate: budget exceeded")
	assert.Contains(t, err.Error(), "underlying error")
	assert.Equal(t, cause, err.Unwrap())
}

func TestStructuredError_WithContext(t *testing.T) {
	err := New(ErrorTypeValidation, "test_op", "test message")
	err = err.WithContext("node_id", 123).WithContext("graph", "test_graph")

	assert.Equal(t, 123, err.Context["node_id"])
	assert.Equal(t, "test_graph", err.Context["graph"])
}

func TestErrorConstructors(t *testing.T) {
	assert.Equal(t, ErrorTypeValidation, NewValidationError("op", "msg").Type)
	assert.Equal(t, ErrorTypeConfiguration, NewConfigurationError("op", "msg").Type)
	assert.Equal(t, ErrorTypeCapacity, NewCapacityError("op", "msg").Type)
	assert.Equal(t, ErrorTypeComputation, NewComputationError("op", "msg").Type)
	assert.Equal(t, ErrorTypeUnsupported, NewUnsupportedError("op", "msg").Type)
}

func TestErrorWrapping(t *testing.T) {
	originalErr := errors.New("original error")

	wrapped := WrapComputationError(originalErr, "compute", "superstep failed")
	assert.Equal(t, ErrorTypeComputation, wrapped.Type)
	assert.Equal(t, "compute", wrapped.Operation)
	assert.Equal(t, "superstep failed", wrapped.Message)
	assert.Equal(t, originalErr, wrapped.Unwrap())
	assert.True(t, errors.Is(wrapped, originalErr))

	// Wrap returns nil for nil error
	assert.Nil(t, Wrap(nil, ErrorTypeCapacity, "op", "msg"))
}

func TestErrorTypeString(t *testing.T) {
	assert.Equal(t, "validation", string(ErrorTypeValidation))
	assert.Equal(t, "configuration", string(ErrorTypeConfiguration))
	assert.Equal(t, "capacity", string(ErrorTypeCapacity))
	assert.Equal(t, "computation", string(ErrorTypeComputation))
	assert.Equal(t, "decode", string(ErrorTypeDecode))
	assert.Equal(t, "unsupported", string(ErrorTypeUnsupported))
}

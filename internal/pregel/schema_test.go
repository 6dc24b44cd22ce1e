package pregel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema_Validate(t *testing.T) {
	valid := NewSchema(
		Element{Key: "rank", Type: ValueTypeDouble},
		Element{Key: "component", Type: ValueTypeLong},
	)
	require.NoError(t, valid.validate())

	assert.Error(t, NewSchema().validate(), "schema must declare at least one field")
	assert.Error(t, NewSchema(Element{Key: "", Type: ValueTypeLong}).validate())
	assert.Error(t, NewSchema(
		Element{Key: "rank", Type: ValueTypeDouble},
		Element{Key: "rank", Type: ValueTypeLong},
	).validate(), "duplicate keys must be rejected")
}

func TestConfig_ValidateNormalizesDefaults(t *testing.T) {
	cfg := Config{MaxIterations: 20}
	require.NoError(t, cfg.Validate())
	assert.Greater(t, cfg.Concurrency, 0)
	assert.Equal(t, cfg.Concurrency, cfg.WriteConcurrency)

	cfg = Config{MaxIterations: 20, Concurrency: 3}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, 3, cfg.WriteConcurrency)
}

func TestConfig_ValidateRejectsBadOptions(t *testing.T) {
	err := (&Config{MaxIterations: 0}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maxIterations")

	err = (&Config{MaxIterations: 10, Concurrency: -1}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "concurrency")

	err = (&Config{MaxIterations: 10, WriteConcurrency: -2}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "writeConcurrency")
}

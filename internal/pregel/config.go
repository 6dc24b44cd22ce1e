package pregel

import (
	"runtime"

	"github.com/23skdu/trellis/internal/errors"
)

// Config carries the options of one Pregel run. Validation happens before
// any state is allocated; a bad option never surfaces mid-run.
type Config struct {
	// MaxIterations bounds the number of supersteps. Required, positive.
	MaxIterations int
	// Concurrency is the worker count. Defaults to GOMAXPROCS.
	Concurrency int
	// WriteConcurrency is the worker count for result write-back.
	// Defaults to Concurrency.
	WriteConcurrency int
	// IsAsynchronous allows same-superstep message delivery.
	IsAsynchronous bool
	// RelationshipWeightProperty selects the relationship weight column.
	RelationshipWeightProperty string
	// WriteProperty prefixes output field names written to the backing store.
	WriteProperty string
	// MutateProperty prefixes output field names added to the in-memory graph.
	MutateProperty string
}

// Validate normalizes defaults and rejects invalid options, naming the
// offending field.
func (c *Config) Validate() error {
	if c.MaxIterations <= 0 {
		return errors.Newf(errors.ErrorTypeConfiguration, "validate_config",
			"maxIterations must be a positive integer, got %d", c.MaxIterations)
	}
	if c.Concurrency < 0 {
		return errors.Newf(errors.ErrorTypeConfiguration, "validate_config",
			"concurrency must be a positive integer, got %d", c.Concurrency)
	}
	if c.Concurrency == 0 {
		c.Concurrency = runtime.GOMAXPROCS(0)
	}
	if c.WriteConcurrency < 0 {
		return errors.Newf(errors.ErrorTypeConfiguration, "validate_config",
			"writeConcurrency must be a positive integer, got %d", c.WriteConcurrency)
	}
	if c.WriteConcurrency == 0 {
		c.WriteConcurrency = c.Concurrency
	}
	return nil
}

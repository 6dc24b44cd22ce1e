package pregel

// Computation is the capability interface a user algorithm implements. The
// engine is generic over it and never branches on concrete algorithm
// identity.
type Computation interface {
	// Schema declares the per-node value record for this run.
	Schema(config Config) Schema
	// Init is invoked once per node before its first Compute, during
	// superstep 0.
	Init(ctx *InitContext) error
	// Compute is invoked for every active node in every superstep. An error
	// aborts the whole run.
	Compute(ctx *ComputeContext, messages *Messages) error
}

// RelationshipWeighter is optionally implemented by computations that
// transform outgoing messages by the relationship weight. It only applies
// when the run's graph carries a weight column.
type RelationshipWeighter interface {
	ApplyRelationshipWeight(message, weight float64) float64
}

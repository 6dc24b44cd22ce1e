package pregel

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/23skdu/trellis/internal/errors"
	"github.com/23skdu/trellis/internal/graph"
	"github.com/23skdu/trellis/internal/mem"
	"github.com/23skdu/trellis/internal/metrics"
	"github.com/23skdu/trellis/internal/paged"
)

// Status is the terminal state of a run.
type Status string

const (
	StatusHalted        Status = "halted"
	StatusMaxIterations Status = "max_iterations"
	StatusAborted       Status = "aborted"
)

// Result is what a finished run hands back. Values stays readable until the
// caller releases it.
type Result struct {
	Values        *NodeValues
	RanIterations int
	DidConverge   bool
	Status        Status
}

// RegisterNodeProperties adds the run's scalar output columns to a graph
// store, prefixing each field key. Array-typed fields are skipped.
func (r Result) RegisterNodeProperties(store *graph.GraphStore, prefix string, state graph.PropertyState) error {
	for _, element := range r.Values.Schema().Elements {
		if element.Type == ValueTypeLongArray || element.Type == ValueTypeDoubleArray {
			continue
		}
		props, err := r.Values.NodeProperties(element.Key)
		if err != nil {
			return err
		}
		if err := store.AddNodeProperty(prefix+element.Key, state, props); err != nil {
			return err
		}
	}
	return nil
}

// Pregel drives a Computation over a graph in bulk-synchronous supersteps:
// disjoint contiguous node batches per worker, a full barrier between
// supersteps, messages delivered across the barrier and vote-to-halt with
// reactivation on message receipt.
type Pregel struct {
	graph       graph.Graph
	config      Config
	computation Computation
	weighter    RelationshipWeighter

	values      *NodeValues
	messenger   messenger
	votedToHalt *paged.HugeAtomicBitSet
	sentMessage atomic.Bool

	tracker *mem.AllocationTracker
	logger  *zap.Logger
}

// New validates the configuration, checks the run's estimated footprint
// against the memory budget and allocates the per-run state. Every failure
// here happens before any computation starts.
func New(g graph.Graph, config Config, computation Computation, tracker *mem.AllocationTracker, logger *zap.Logger) (*Pregel, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	// per-node scaling factors divide by the node count; an empty graph has
	// no defined run
	if g.NodeCount() == 0 {
		return nil, errors.New(errors.ErrorTypeValidation, "new_pregel",
			"graph selects no nodes")
	}
	if config.RelationshipWeightProperty != "" && !g.HasRelationshipProperty() {
		return nil, errors.Newf(errors.ErrorTypeConfiguration, "new_pregel",
			"relationshipWeightProperty %q configured but the graph carries no relationship weight",
			config.RelationshipWeightProperty)
	}

	schema := computation.Schema(config)
	if err := schema.validate(); err != nil {
		return nil, err
	}
	if err := tracker.CheckBudget(estimateRunMemory(schema, g.NodeCount())); err != nil {
		return nil, err
	}

	values, err := NewNodeValues(schema, g.NodeCount(), tracker)
	if err != nil {
		return nil, err
	}
	votedToHalt, err := paged.NewHugeAtomicBitSet(g.NodeCount(), tracker)
	if err != nil {
		values.Release()
		return nil, err
	}

	var msgs messenger
	if config.IsAsynchronous {
		msgs = newAsyncMessenger(g.NodeCount())
	} else {
		msgs = newSyncMessenger(g.NodeCount())
	}

	weighter, _ := computation.(RelationshipWeighter)

	return &Pregel{
		graph:       g,
		config:      config,
		computation: computation,
		weighter:    weighter,
		values:      values,
		messenger:   msgs,
		votedToHalt: votedToHalt,
		tracker:     tracker,
		logger:      logger,
	}, nil
}

// estimateRunMemory approximates the footprint of the per-run state: the
// primitive value columns, the halt bitset and the double-buffered inbox
// headers. Array columns grow with user data and are not bounded up front.
func estimateRunMemory(schema Schema, nodeCount int64) int64 {
	var perNode int64
	for _, element := range schema.Elements {
		switch element.Type {
		case ValueTypeLong, ValueTypeDouble:
			perNode += 8
		case ValueTypeLongArray, ValueTypeDoubleArray:
			perNode += 24
		}
	}
	perNode += 2 * 32 // inbox headers, both buffers
	return nodeCount*perNode + nodeCount/8
}

// Run executes supersteps until every node halted with no pending messages,
// maxIterations is reached, or the run aborts on error or cancellation.
func (p *Pregel) Run(ctx context.Context) (Result, error) {
	nodeCount := p.graph.NodeCount()
	result := Result{Values: p.values, Status: StatusMaxIterations}

	p.logger.Info("pregel run starting",
		zap.Int64("nodes", nodeCount),
		zap.Int("max_iterations", p.config.MaxIterations),
		zap.Int("concurrency", p.config.Concurrency),
		zap.Bool("asynchronous", p.config.IsAsynchronous))

	for superstep := 0; superstep < p.config.MaxIterations; superstep++ {
		start := time.Now()
		p.messenger.initSuperstep(superstep)
		p.sentMessage.Store(false)

		err := p.runSuperstep(ctx, superstep)

		result.RanIterations = superstep + 1
		metrics.PregelSuperstepsTotal.Inc()
		metrics.PregelSuperstepDurationSeconds.Observe(time.Since(start).Seconds())

		if err != nil {
			result.Status = StatusAborted
			metrics.PregelRunsTotal.WithLabelValues(string(StatusAborted)).Inc()
			p.logger.Warn("pregel run aborted",
				zap.Int("superstep", superstep),
				zap.Error(err))
			return result, err
		}

		p.logger.Debug("superstep finished",
			zap.Int("superstep", superstep),
			zap.Duration("took", time.Since(start)))

		if !p.sentMessage.Load() && p.votedToHalt.Cardinality() == nodeCount {
			result.DidConverge = true
			result.Status = StatusHalted
			break
		}
	}

	metrics.PregelRunsTotal.WithLabelValues(string(result.Status)).Inc()
	p.logger.Info("pregel run finished",
		zap.String("status", string(result.Status)),
		zap.Int("ran_iterations", result.RanIterations),
		zap.Bool("converged", result.DidConverge))
	return result, nil
}

type batch struct {
	start, end int64
}

// partitionBatches splits [0, nodeCount) into at most concurrency disjoint
// contiguous ranges.
func partitionBatches(nodeCount int64, concurrency int) []batch {
	if nodeCount == 0 {
		return nil
	}
	batchSize := paged.CeilDiv(nodeCount, int64(concurrency))
	batches := make([]batch, 0, concurrency)
	for start := int64(0); start < nodeCount; start += batchSize {
		end := start + batchSize
		if end > nodeCount {
			end = nodeCount
		}
		batches = append(batches, batch{start: start, end: end})
	}
	return batches
}

func (p *Pregel) runSuperstep(ctx context.Context, superstep int) error {
	var eg errgroup.Group
	for _, b := range partitionBatches(p.graph.NodeCount(), p.config.Concurrency) {
		eg.Go(func() error {
			return p.processBatch(ctx, superstep, b)
		})
	}
	// the barrier: every worker finishes superstep s before s+1 begins
	return eg.Wait()
}

// processBatch runs one worker's contiguous node range for one superstep.
// Within the batch, nodes are processed in ascending id order.
func (p *Pregel) processBatch(ctx context.Context, superstep int, b batch) error {
	g := p.graph.ConcurrentCopy()
	base := nodeContext{config: p.config, graph: g, values: p.values, superstep: superstep}
	initCtx := &InitContext{nodeContext: base}
	computeCtx := &ComputeContext{nodeContext: base, engine: p}
	var messages Messages

	for nodeID := b.start; nodeID < b.end; nodeID++ {
		// cancellation is polled at the start of each node's unit of work
		if err := ctx.Err(); err != nil {
			return err
		}

		if superstep == 0 {
			initCtx.nodeID = nodeID
			if err := p.computation.Init(initCtx); err != nil {
				return errors.WrapComputationError(err, "init", "node init failed").
					WithContext("node_id", nodeID)
			}
		} else if p.votedToHalt.Get(nodeID) {
			if !p.messenger.hasMessages(nodeID) {
				continue
			}
			// a message reactivates a halted node for this superstep
			p.votedToHalt.ClearBit(nodeID)
		}

		p.messenger.messages(nodeID, &messages)
		computeCtx.nodeID = nodeID
		if err := p.computation.Compute(computeCtx, &messages); err != nil {
			return errors.WrapComputationError(err, "compute", "node compute failed").
				WithContext("node_id", nodeID).
				WithContext("superstep", superstep)
		}
	}
	return nil
}

// Release frees the run's transient state (inboxes and halt bitset). The
// value columns survive until the caller releases the Result.
func (p *Pregel) Release() {
	if p.messenger != nil {
		p.messenger.release()
		p.messenger = nil
	}
	if p.votedToHalt != nil {
		p.votedToHalt.Release()
		p.votedToHalt = nil
	}
}

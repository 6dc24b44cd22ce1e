package main

import (
	"math"

	"github.com/23skdu/trellis/internal/pregel"
)

// rank is the only schema field, so its compiled column index is fixed.
const rankColumn = 0

// PageRank propagates rank deltas: each superstep a node folds the incoming
// shares into its rank and forwards only the damped change over its outgoing
// relationships. A node votes to halt once its rank moved less than
// Tolerance; an incoming share wakes it again.
type PageRank struct {
	DampingFactor float64
	Tolerance     float64
	// Weighted sends the full rank and lets the relationship weight scale
	// each share. Weights are expected to sum to 1 per node.
	Weighted bool
}

func (pr *PageRank) Schema(pregel.Config) pregel.Schema {
	return pregel.NewSchema(pregel.Element{Key: "rank", Type: pregel.ValueTypeDouble})
}

func (pr *PageRank) Init(ctx *pregel.InitContext) error {
	ctx.SetDoubleNodeValue(rankColumn, (1-pr.DampingFactor)/float64(ctx.NodeCount()))
	return nil
}

func (pr *PageRank) Compute(ctx *pregel.ComputeContext, messages *pregel.Messages) error {
	var delta float64
	if ctx.IsInitialSuperstep() {
		// the initial rank is itself the first delta to propagate
		delta = ctx.DoubleNodeValue(rankColumn)
	} else {
		var sum float64
		for {
			share, ok := messages.Next()
			if !ok {
				break
			}
			sum += share
		}
		delta = pr.DampingFactor * sum
		if delta > 0 {
			ctx.SetDoubleNodeValue(rankColumn, ctx.DoubleNodeValue(rankColumn)+delta)
		}
		if math.Abs(delta) < pr.Tolerance {
			ctx.VoteToHalt()
			return nil
		}
	}

	if degree := ctx.Degree(); degree > 0 {
		if pr.Weighted {
			ctx.SendToNeighbors(delta)
		} else {
			ctx.SendToNeighbors(delta / float64(degree))
		}
	} else {
		// nothing downstream to influence
		ctx.VoteToHalt()
	}
	return nil
}

// ApplyRelationshipWeight scales an outgoing share by the relationship weight.
// Only consulted when the run's graph carries a weight column.
func (pr *PageRank) ApplyRelationshipWeight(message, weight float64) float64 {
	return message * weight
}

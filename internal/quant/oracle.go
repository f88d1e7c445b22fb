package quant

import (
	"context"
	"fmt"
	"sync"

	"github.com/riftborne/hnswcore/internal/graph/neighbor"
	"github.com/riftborne/hnswcore/internal/obs"
)

// ApproximateOracle implements neighbor.Oracle over a trained Quantizer: it
// holds each node's compressed representation and scores pairs by calling
// the quantizer's Distance directly on the compressed bytes, never
// reconstructing the original vector. This is the approximate counterpart
// to vector.Store.ExactOracle — swap one for the other behind the same
// neighbor.Oracle interface without touching the graph core.
type ApproximateOracle struct {
	mu        sync.RWMutex
	quantizer Quantizer
	codes     map[neighbor.Node][]byte
}

// NewApproximateOracle wraps an already-trained Quantizer. Use Train to
// build and train one from a representative vector sample in one step.
func NewApproximateOracle(q Quantizer) (*ApproximateOracle, error) {
	if q == nil {
		return nil, obs.NewGraphError(obs.ErrCodeInvalidConfig, "quant", "NewApproximateOracle", "quantizer cannot be nil", nil)
	}
	if !q.IsTrained() {
		return nil, obs.NewGraphError(obs.ErrCodeInvalidConfig, "quant", "NewApproximateOracle", "quantizer is untrained", ErrOracleQuantizerUntrained)
	}
	return &ApproximateOracle{quantizer: q, codes: make(map[neighbor.Node][]byte)}, nil
}

// Train creates, configures, and trains a quantizer of the given type from
// sample, then returns the ApproximateOracle wrapping it.
func Train(ctx context.Context, cfg *QuantizationConfig, sample [][]float32) (*ApproximateOracle, error) {
	q, err := Create(cfg)
	if err != nil {
		return nil, obs.NewGraphError(obs.ErrCodeInvalidConfig, "quant", "Train", "creating quantizer", err)
	}
	if err := q.Configure(cfg); err != nil {
		return nil, obs.NewGraphError(obs.ErrCodeInvalidConfig, "quant", "Train", "configuring quantizer", err)
	}
	if err := q.Train(ctx, sample); err != nil {
		return nil, obs.NewGraphError(obs.ErrCodeOracleFailure, "quant", "Train", "training quantizer", err)
	}
	return &ApproximateOracle{quantizer: q, codes: make(map[neighbor.Node][]byte)}, nil
}

// Add compresses and stores v under node, replacing any prior encoding.
func (o *ApproximateOracle) Add(node neighbor.Node, v []float32) error {
	code, err := o.quantizer.Compress(v)
	if err != nil {
		return obs.NewGraphError(obs.ErrCodeOracleFailure, "quant", "Add", fmt.Sprintf("compressing node %d", node), err)
	}
	o.mu.Lock()
	o.codes[node] = code
	o.mu.Unlock()
	return nil
}

// Remove discards node's compressed encoding, if present.
func (o *ApproximateOracle) Remove(node neighbor.Node) {
	o.mu.Lock()
	delete(o.codes, node)
	o.mu.Unlock()
}

// CompressionRatio reports the underlying quantizer's compression ratio.
func (o *ApproximateOracle) CompressionRatio() float32 {
	return o.quantizer.CompressionRatio()
}

// MemoryUsage reports the underlying quantizer's codebook memory usage;
// callers add the per-node code sizes (len(code) bytes each) on top.
func (o *ApproximateOracle) MemoryUsage() int64 {
	return o.quantizer.MemoryUsage()
}

func (o *ApproximateOracle) codeFor(node neighbor.Node) ([]byte, error) {
	o.mu.RLock()
	code, ok := o.codes[node]
	o.mu.RUnlock()
	if !ok {
		return nil, obs.NewGraphError(obs.ErrCodeInvalidConfig, "quant", "codeFor", fmt.Sprintf("node %d", node), ErrOracleNodeNotEncoded)
	}
	return code, nil
}

// For implements neighbor.Oracle. The returned Scorer compares compressed
// codes; it negates the quantizer's Distance (a lower distance means a
// higher neighbor.Score, matching the graph core's "higher score is
// closer" convention).
func (o *ApproximateOracle) For(source neighbor.Node) neighbor.Scorer {
	sourceCode, err := o.codeFor(source)
	if err != nil {
		return func(neighbor.Node) (neighbor.Score, error) { return 0, err }
	}
	return func(target neighbor.Node) (neighbor.Score, error) {
		targetCode, err := o.codeFor(target)
		if err != nil {
			return 0, err
		}
		dist, err := o.quantizer.Distance(sourceCode, targetCode)
		if err != nil {
			return 0, obs.NewGraphError(obs.ErrCodeOracleFailure, "quant", "For", fmt.Sprintf("scoring %d->%d", source, target), err)
		}
		return neighbor.Score(-dist), nil
	}
}

// Package vector supplies the neighbor.Oracle implementations this module
// ships out of the box: an in-memory Store fronting an exact distance
// oracle, and dimension/shape validation grounded on the teacher's
// util.DistanceFunc family. Approximate (quantized) oracles live in
// internal/quant and keep their own compressed encodings, independent of Store.
package vector

import (
	"errors"
	"fmt"
	"sync"

	"github.com/riftborne/hnswcore/internal/graph/neighbor"
	"github.com/riftborne/hnswcore/internal/obs"
	"github.com/riftborne/hnswcore/internal/util"
)

// Errors returned by Store and the exact oracle.
var (
	ErrDimensionMismatch = errors.New("vector: dimension mismatch")
	ErrNodeNotFound      = errors.New("vector: node not found")
	ErrEmptyVector       = errors.New("vector: empty vector")
)

// Metric selects the distance function a Store's ExactOracle uses.
type Metric int

const (
	// L2 scores by negated Euclidean distance (higher score = closer).
	L2 Metric = iota
	// InnerProduct scores by raw dot product.
	InnerProduct
	// Cosine scores by cosine similarity minus one (negated cosine distance).
	Cosine
)

// DistanceFunc computes a similarity score between two vectors of equal
// length, where higher always means closer (neighbor.Score's convention).
type DistanceFunc func(a, b []float32) float32

// scoreFuncFor adapts the teacher's util.GetDistanceFunc, whose distance
// functions use the opposite convention (lower means closer — plain
// Euclidean distance for L2, 1-cosine for Cosine, and dot product already
// pre-negated for InnerProduct's own max-heap convention), into a score
// function by negating the result. Reusing util's functions instead of
// reimplementing the three metrics keeps exactly one copy of the vector
// math in this module.
func scoreFuncFor(m Metric) (DistanceFunc, error) {
	var metric util.DistanceMetric
	switch m {
	case L2:
		metric = util.L2Distance
	case InnerProduct:
		metric = util.InnerProduct
	case Cosine:
		metric = util.CosineDistance
	default:
		return nil, obs.NewGraphError(obs.ErrCodeInvalidConfig, "vector", "scoreFuncFor",
			fmt.Sprintf("unsupported metric %d", m), nil)
	}
	dist, err := util.GetDistanceFunc(metric)
	if err != nil {
		return nil, obs.NewGraphError(obs.ErrCodeInvalidConfig, "vector", "scoreFuncFor", "resolving distance function", err)
	}
	return func(a, b []float32) float32 { return -dist(a, b) }, nil
}

// Store is a thread-safe, in-memory map of node id to vector, keyed by the
// same neighbor.Node ordinal the graph core uses. It is the simplest
// possible backing for an Oracle; internal/vector/durable.go offers a
// badger-backed alternative with the same Store-shaped API.
type Store struct {
	mu      sync.RWMutex
	dim     int
	vectors map[neighbor.Node][]float32
	metric  Metric
	scoreFn DistanceFunc
}

// NewStore creates an empty Store for vectors of the given dimension and
// metric.
func NewStore(dim int, metric Metric) (*Store, error) {
	if dim <= 0 {
		return nil, obs.NewGraphError(obs.ErrCodeInvalidConfig, "vector", "NewStore",
			fmt.Sprintf("dimension must be positive, got %d", dim), nil)
	}
	fn, err := scoreFuncFor(metric)
	if err != nil {
		return nil, err
	}
	return &Store{
		dim:     dim,
		vectors: make(map[neighbor.Node][]float32),
		metric:  metric,
		scoreFn: fn,
	}, nil
}

// Dim returns the vector dimension this store was configured with.
func (s *Store) Dim() int { return s.dim }

// Put stores (or replaces) the vector for node. The slice is copied; callers
// may reuse their buffer afterward.
func (s *Store) Put(node neighbor.Node, v []float32) error {
	if len(v) == 0 {
		return ErrEmptyVector
	}
	if len(v) != s.dim {
		return obs.NewGraphError(obs.ErrCodeInvalidConfig, "vector", "Put",
			fmt.Sprintf("got %d, want %d", len(v), s.dim), ErrDimensionMismatch)
	}
	cp := make([]float32, len(v))
	copy(cp, v)

	s.mu.Lock()
	s.vectors[node] = cp
	s.mu.Unlock()
	return nil
}

// Get returns a copy of the stored vector for node.
func (s *Store) Get(node neighbor.Node) ([]float32, error) {
	s.mu.RLock()
	v, ok := s.vectors[node]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNodeNotFound
	}
	cp := make([]float32, len(v))
	copy(cp, v)
	return cp, nil
}

// Delete removes node's vector, if present.
func (s *Store) Delete(node neighbor.Node) {
	s.mu.Lock()
	delete(s.vectors, node)
	s.mu.Unlock()
}

// Len returns the number of vectors currently stored.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

// ExactOracle returns a neighbor.Oracle that scores pairs by running the
// Store's configured metric directly against the full vectors — the
// brute-force reference oracle (spec.md §2's "similarity oracle" with no
// approximation layer).
func (s *Store) ExactOracle() neighbor.Oracle {
	return neighbor.OracleFunc(func(source neighbor.Node) neighbor.Scorer {
		sv, err := s.Get(source)
		if err != nil {
			return func(neighbor.Node) (neighbor.Score, error) { return 0, err }
		}
		return func(target neighbor.Node) (neighbor.Score, error) {
			tv, err := s.Get(target)
			if err != nil {
				return 0, err
			}
			return neighbor.Score(s.scoreFn(sv, tv)), nil
		}
	})
}

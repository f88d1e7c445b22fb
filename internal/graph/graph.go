// Package graph hosts the outer node-to-neighbor-set map and a minimal
// single-layer build/search orchestrator. These are the "surrounding
// machinery" spec.md treats as external collaborators to the core
// (internal/graph/neighbor): this package is a realistic but intentionally
// thin caller, not a full multi-level HNSW implementation — that hierarchy
// logic is explicitly out of scope (spec.md §1 Non-goals).
package graph

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/riftborne/hnswcore/internal/graph/neighbor"
	"github.com/riftborne/hnswcore/internal/log"
	"github.com/riftborne/hnswcore/internal/obs"
	"github.com/riftborne/hnswcore/internal/util"
)

// Config holds the construction-time parameters for a Graph.
type Config struct {
	MaxDegree      int
	EfConstruction int
	EfSearch       int
	Alpha          float32
	metrics        *obs.Metrics
}

// Option configures a Graph, following the functional-options shape used
// throughout this module's ambient stack.
type Option func(*Config) error

// WithMaxDegree sets the per-node degree cap.
func WithMaxDegree(m int) Option {
	return func(c *Config) error {
		if m <= 0 {
			return obs.NewGraphError(obs.ErrCodeInvalidConfig, "graph", "WithMaxDegree",
				fmt.Sprintf("max degree must be positive, got %d", m), nil)
		}
		c.MaxDegree = m
		return nil
	}
}

// WithEfConstruction sets the candidate-list width used while building.
func WithEfConstruction(ef int) Option {
	return func(c *Config) error {
		if ef <= 0 {
			return obs.NewGraphError(obs.ErrCodeInvalidConfig, "graph", "WithEfConstruction",
				fmt.Sprintf("efConstruction must be positive, got %d", ef), nil)
		}
		c.EfConstruction = ef
		return nil
	}
}

// WithEfSearch sets the candidate-list width used while searching.
func WithEfSearch(ef int) Option {
	return func(c *Config) error {
		if ef <= 0 {
			return obs.NewGraphError(obs.ErrCodeInvalidConfig, "graph", "WithEfSearch",
				fmt.Sprintf("efSearch must be positive, got %d", ef), nil)
		}
		c.EfSearch = ef
		return nil
	}
}

// WithAlpha sets the RNG diversity filter's alpha (spec.md §9); 0 keeps the
// default of 1 (the pure RNG rule).
func WithAlpha(alpha float32) Option {
	return func(c *Config) error {
		c.Alpha = alpha
		return nil
	}
}

func defaultConfig() *Config {
	return &Config{MaxDegree: 32, EfConstruction: 100, EfSearch: 50, Alpha: 1}
}

// Graph is the outer node-ordinal -> ConcurrentNeighborSet map (spec.md §6),
// plus just enough single-layer search/build orchestration to drive it. The
// map itself uses sync.Map so Get/LoadOrStore are lock-free with respect to
// each other; the orchestration state (entry point, size) is small enough
// that a mutex over it is simpler than trying to make entry-point selection
// itself lock-free, and it never blocks a neighbor.Set reader.
type Graph struct {
	config Config
	oracle neighbor.Oracle

	nodes sync.Map // neighbor.Node -> *neighbor.Set

	mu         sync.Mutex
	entryPoint neighbor.Node
	hasEntry   bool
	size       int64

	log     *log.Logger
	metrics *obs.Metrics
}

// WithMetrics attaches a Metrics instance the Graph reports build/search
// counters to. Without it, Graph runs without Prometheus instrumentation —
// useful for tests that would otherwise double-register collectors.
func WithMetrics(m *obs.Metrics) Option {
	return func(c *Config) error {
		c.metrics = m
		return nil
	}
}

// New creates an empty Graph scoring pairs with oracle.
func New(oracle neighbor.Oracle, opts ...Option) (*Graph, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	return &Graph{config: *cfg, oracle: oracle, log: log.Global().WithPrefix("graph"), metrics: cfg.metrics}, nil
}

// Get returns the neighbor set for node, if present.
func (g *Graph) Get(node neighbor.Node) (*neighbor.Set, bool) {
	v, ok := g.nodes.Load(node)
	if !ok {
		return nil, false
	}
	return v.(*neighbor.Set), true
}

// Size returns the number of nodes currently in the graph.
func (g *Graph) Size() int {
	return int(atomic.LoadInt64(&g.size))
}

// Range calls fn for every node currently in the graph. fn's contract
// matches sync.Map.Range: returning false stops iteration early.
func (g *Graph) Range(fn func(node neighbor.Node, set *neighbor.Set) bool) {
	g.nodes.Range(func(k, v any) bool {
		return fn(k.(neighbor.Node), v.(*neighbor.Set))
	})
}

// ensureSet atomically inserts an empty neighbor.Set for node if one is not
// already present, and returns whichever set ends up installed.
func (g *Graph) ensureSet(node neighbor.Node) *neighbor.Set {
	fresh := neighbor.NewSet(node, g.config.MaxDegree, g.oracle)
	fresh.SetFilter(neighbor.DiversityFilter{Alpha: g.config.Alpha})
	actual, loaded := g.nodes.LoadOrStore(node, fresh)
	if !loaded {
		atomic.AddInt64(&g.size, 1)
		g.mu.Lock()
		if !g.hasEntry {
			g.entryPoint = node
			g.hasEntry = true
		}
		g.mu.Unlock()
	}
	return actual.(*neighbor.Set)
}

// Insert adds node to the graph and wires it into the base layer: it greedy-
// searches the existing graph for efConstruction candidates, installs them
// via InsertDiverse, and backlinks itself onto every neighbor it kept —
// mirroring the teacher's connectBidirectional step, specialized to a single
// layer (spec.md's scope).
func (g *Graph) Insert(ctx context.Context, node neighbor.Node) error {
	set := g.ensureSet(node)
	if g.Size() == 1 {
		g.log.Debug("inserted first node %d as entry point", node)
		if g.metrics != nil {
			g.metrics.NodeInserts.Inc()
		}
		return nil
	}

	candidates, err := g.searchBaseLayer(ctx, node, g.config.EfConstruction)
	if err != nil {
		return err
	}
	natural := neighbor.NewArray(len(candidates))
	for _, c := range candidates {
		if c == node {
			continue
		}
		score, serr := g.oracle.For(node)(c)
		if serr != nil {
			return obs.NewGraphError(obs.ErrCodeOracleFailure, "graph", "Insert",
				fmt.Sprintf("scoring node %d against candidate %d", node, c), serr)
		}
		natural.InsertSorted(c, score)
	}

	if err := set.InsertDiverse(natural, neighbor.NewArray(0)); err != nil {
		return err
	}

	it := set.Iterator()
	for {
		n, score, ok := it.Next()
		if !ok {
			break
		}
		neighborSet := g.ensureSet(n)
		if err := set.Backlink(neighborSet, score); err != nil {
			return err
		}
	}
	g.log.Debug("inserted node %d with %d neighbors", node, set.Size())
	if g.metrics != nil {
		g.metrics.NodeInserts.Inc()
	}
	return nil
}

// searchBaseLayer performs a greedy best-first search over the base layer
// starting at the graph's entry point, returning up to ef candidate node ids
// sorted by descending similarity to query. The traversal itself — a working
// set bounded by a max-heap plus a min-heap exploration frontier, with
// early termination once the frontier's best distance exceeds the working
// set's worst — is the teacher's searchLevel algorithm (internal/index/hnsw,
// search.go), generalized from a multi-level index to this module's single
// base layer (spec.md Non-goals exclude the hierarchy, not the search
// strategy within one level). util.Candidate.Distance is "lower is closer";
// neighbor.Score is "higher is closer", so every score crossing the
// boundary is negated.
func (g *Graph) searchBaseLayer(ctx context.Context, query neighbor.Node, ef int) ([]neighbor.Node, error) {
	g.mu.Lock()
	entry := g.entryPoint
	hasEntry := g.hasEntry
	g.mu.Unlock()
	if !hasEntry {
		return nil, nil
	}

	scorer := g.oracle.For(query)
	entryScore, err := scorer(entry)
	if err != nil {
		return nil, obs.NewGraphError(obs.ErrCodeOracleFailure, "graph", "searchBaseLayer",
			fmt.Sprintf("scoring entry point %d", entry), err)
	}

	visited := map[neighbor.Node]bool{entry: true}
	working := util.NewMaxHeap(ef * 2)
	frontier := util.NewMinHeap(ef)

	entryCandidate := &util.Candidate{ID: uint32(entry), Distance: -float32(entryScore)}
	working.PushCandidate(entryCandidate)
	frontier.PushCandidate(entryCandidate)

	for frontier.Len() > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		current := frontier.PopCandidate()
		if working.Len() >= ef && current.Distance > working.Top().Distance {
			break
		}

		set, ok := g.Get(neighbor.Node(current.ID))
		if !ok {
			continue
		}
		sit := set.Iterator()
		for {
			n, _, ok := sit.Next()
			if !ok {
				break
			}
			if visited[n] {
				continue
			}
			visited[n] = true

			s, serr := scorer(n)
			if serr != nil {
				return nil, obs.NewGraphError(obs.ErrCodeOracleFailure, "graph", "searchBaseLayer",
					fmt.Sprintf("scoring candidate %d", n), serr)
			}
			dist := -float32(s)
			if working.Len() < ef || dist < working.Top().Distance {
				c := &util.Candidate{ID: uint32(n), Distance: dist}
				working.PushCandidate(c)
				frontier.PushCandidate(c)
				if working.Len() > ef {
					working.PopCandidate()
				}
			}
		}
	}

	out := make([]neighbor.Node, 0, working.Len())
	for working.Len() > 0 {
		c := working.PopCandidate()
		if neighbor.Node(c.ID) == query {
			continue
		}
		out = append([]neighbor.Node{neighbor.Node(c.ID)}, out...)
	}
	return out, nil
}

// Search returns up to k node ids nearest to query, in descending similarity
// order — the search-side (consumer) path over the core (spec.md §2).
func (g *Graph) Search(ctx context.Context, query neighbor.Node, k int) ([]neighbor.Node, error) {
	start := time.Now()
	if g.metrics != nil {
		g.metrics.SearchQueries.Inc()
		defer func() { g.metrics.SearchLatency.Observe(time.Since(start).Seconds()) }()
	}

	ef := g.config.EfSearch
	if k > ef {
		ef = k
	}
	candidates, err := g.searchBaseLayer(ctx, query, ef)
	if err != nil {
		if g.metrics != nil {
			g.metrics.SearchErrors.Inc()
		}
		return nil, err
	}
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/riftborne/hnswcore/internal/graph"
	"github.com/riftborne/hnswcore/internal/graph/neighbor"
	"github.com/riftborne/hnswcore/internal/memacct"
	"github.com/riftborne/hnswcore/internal/obs"
	"github.com/riftborne/hnswcore/internal/vector"
)

var (
	benchCount      int
	benchDim        int
	benchMaxDegree  int
	benchEfConstr   int
	benchEfSearch   int
	benchQueries    int
	benchSeed       int64
	benchDurableDir string
	benchMetrics    bool
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Build a graph over random vectors and report insert/search throughput",
	Example: fmt.Sprintf(`  %s bench --count 5000 --dim 32
  %s bench --count 20000 --dim 128 --max-degree 48 --queries 500
  %s bench --durable-dir ./bench-data --count 5000 --dim 32`, BinName(), BinName(), BinName()),
	RunE: runBench,
}

func init() {
	rootCmd.AddCommand(benchCmd)
	benchCmd.Flags().IntVar(&benchCount, "count", 2000, "number of random vectors to insert")
	benchCmd.Flags().IntVar(&benchDim, "dim", 16, "vector dimension")
	benchCmd.Flags().IntVar(&benchMaxDegree, "max-degree", 32, "per-node degree cap")
	benchCmd.Flags().IntVar(&benchEfConstr, "ef-construction", 64, "candidate list width while building")
	benchCmd.Flags().IntVar(&benchEfSearch, "ef-search", 32, "candidate list width while searching")
	benchCmd.Flags().IntVar(&benchQueries, "queries", 200, "number of search queries to run after building")
	benchCmd.Flags().Int64Var(&benchSeed, "seed", 1, "random seed for reproducible vectors")
	benchCmd.Flags().StringVar(&benchDurableDir, "durable-dir", "", "persist vectors in a BadgerDB directory instead of in-memory")
	benchCmd.Flags().BoolVar(&benchMetrics, "metrics", false, "record Prometheus counters on the default registry during the run")
}

// vectorStore is the subset of vector.Store/vector.DurableStore bench.go
// needs; it lets runBench swap the in-memory store for the durable one
// behind --durable-dir without duplicating the insert/search loop.
type vectorStore interface {
	Put(node neighbor.Node, v []float32) error
	ExactOracle() neighbor.Oracle
}

func runBench(cmd *cobra.Command, args []string) error {
	rng := rand.New(rand.NewSource(benchSeed))

	var store vectorStore
	if benchDurableDir != "" {
		durable, err := vector.OpenDurableStore(benchDurableDir, benchDim, vector.L2)
		if err != nil {
			return fmt.Errorf("opening durable store: %w", err)
		}
		defer durable.Close()
		store = durable
		fmt.Printf("using durable store at %s\n", benchDurableDir)
	} else {
		mem, err := vector.NewStore(benchDim, vector.L2)
		if err != nil {
			return fmt.Errorf("creating vector store: %w", err)
		}
		store = mem
	}

	graphOpts := []graph.Option{
		graph.WithMaxDegree(benchMaxDegree),
		graph.WithEfConstruction(benchEfConstr),
		graph.WithEfSearch(benchEfSearch),
	}
	var metrics *obs.Metrics
	if benchMetrics {
		metrics = obs.NewMetrics()
		graphOpts = append(graphOpts, graph.WithMetrics(metrics))
	}

	g, err := graph.New(store.ExactOracle(), graphOpts...)
	if err != nil {
		return fmt.Errorf("creating graph: %w", err)
	}

	ctx := context.Background()
	insertStart := time.Now()
	for i := 0; i < benchCount; i++ {
		node := neighbor.Node(i)
		v := randomVector(rng, benchDim)
		if err := store.Put(node, v); err != nil {
			return fmt.Errorf("storing vector %d: %w", i, err)
		}
		if err := g.Insert(ctx, node); err != nil {
			return fmt.Errorf("inserting node %d: %w", i, err)
		}
	}
	insertElapsed := time.Since(insertStart)

	searchStart := time.Now()
	for i := 0; i < benchQueries; i++ {
		query := neighbor.Node(rng.Intn(benchCount))
		if _, err := g.Search(ctx, query, 10); err != nil {
			return fmt.Errorf("searching from node %d: %w", query, err)
		}
	}
	searchElapsed := time.Since(searchStart)

	report := memacct.Measure(g, memacct.Probe())

	fmt.Printf("inserted %d nodes in %s (%.1f/s)\n", benchCount, insertElapsed, float64(benchCount)/insertElapsed.Seconds())
	fmt.Printf("ran %d queries in %s (%.1f/s)\n", benchQueries, searchElapsed, float64(benchQueries)/searchElapsed.Seconds())
	fmt.Printf("footprint: %d bytes total, %.1f bytes/node\n", report.TotalBytes, report.MeanBytesPerNode())
	if metrics != nil {
		fmt.Println("metrics: exported on the default Prometheus registry (hnswcore_node_inserts_total, hnswcore_search_queries_total, hnswcore_search_errors_total, hnswcore_search_latency_seconds)")
	}
	return nil
}

func randomVector(rng *rand.Rand, dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = rng.Float32()
	}
	return v
}

package vector

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"

	"github.com/riftborne/hnswcore/internal/graph/neighbor"
	"github.com/riftborne/hnswcore/internal/obs"
)

// DurableStore persists vectors in an embedded BadgerDB instance, grounded
// on the pack's badger-backed key/value engines. It is explicitly a
// durable VECTOR store, not a durable GRAPH store: the neighbor sets built
// over it still live in memory, and rebuilding the graph after a restart
// means replaying Graph.Insert over every vector DurableStore still holds
// (spec.md's graph-persistence Non-goal).
type DurableStore struct {
	db      *badger.DB
	dim     int
	metric  Metric
	scoreFn DistanceFunc
	breaker *obs.CircuitBreaker
}

// durableKey derives a fixed-width Badger key from a node id: the 4-byte
// big-endian id followed by the 8-byte xxhash of those same bytes. Node ids
// are already unique, so this is not collision-sensitive in the way a
// content hash would be.
func durableKey(node neighbor.Node) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint32(buf[:4], uint32(node))
	h := xxhash.Sum64(buf[:4])
	binary.BigEndian.PutUint64(buf[:], h)
	// Prefix with the raw node id so range scans stay ordered by node; the
	// prefix is unique per node, so the hash suffix never changes the order.
	key := make([]byte, 12)
	binary.BigEndian.PutUint32(key[:4], uint32(node))
	copy(key[4:], buf[:])
	return key
}

// OpenDurableStore opens (or creates) a BadgerDB database at dir to back a
// vector store of the given dimension and metric.
func OpenDurableStore(dir string, dim int, metric Metric) (*DurableStore, error) {
	if dim <= 0 {
		return nil, obs.NewGraphError(obs.ErrCodeInvalidConfig, "vector", "OpenDurableStore",
			fmt.Sprintf("dimension must be positive, got %d", dim), nil)
	}
	fn, err := scoreFuncFor(metric)
	if err != nil {
		return nil, err
	}
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, obs.NewGraphError(obs.ErrCodeStorageFailure, "vector", "OpenDurableStore", "opening badger store", err)
	}
	breaker := obs.NewCircuitBreaker(obs.DefaultCircuitBreakerConfig("vector-durable-store"))
	return &DurableStore{db: db, dim: dim, metric: metric, scoreFn: fn, breaker: breaker}, nil
}

// Close releases the underlying BadgerDB handle.
func (d *DurableStore) Close() error {
	return d.db.Close()
}

// Put durably stores the vector for node.
func (d *DurableStore) Put(node neighbor.Node, v []float32) error {
	if len(v) == 0 {
		return ErrEmptyVector
	}
	if len(v) != d.dim {
		return obs.NewGraphError(obs.ErrCodeInvalidConfig, "vector", "Put",
			fmt.Sprintf("got %d, want %d", len(v), d.dim), ErrDimensionMismatch)
	}
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.BigEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return d.breaker.Execute(context.Background(), func() error {
		return d.db.Update(func(txn *badger.Txn) error {
			return txn.Set(durableKey(node), buf)
		})
	})
}

// Get retrieves the vector for node. A missing node is reported as
// ErrNodeNotFound without tripping the circuit breaker — that's an expected
// outcome, not an infrastructure failure.
func (d *DurableStore) Get(node neighbor.Node) ([]float32, error) {
	var out []float32
	notFound := false
	err := d.breaker.Execute(context.Background(), func() error {
		return d.db.View(func(txn *badger.Txn) error {
			item, err := txn.Get(durableKey(node))
			if err == badger.ErrKeyNotFound {
				notFound = true
				return nil
			}
			if err != nil {
				return err
			}
			return item.Value(func(val []byte) error {
				out = decodeVector(val)
				return nil
			})
		})
	})
	if err != nil {
		return nil, obs.NewGraphError(obs.ErrCodeUnavailable, "vector", "Get", "reading from badger", err)
	}
	if notFound {
		return nil, ErrNodeNotFound
	}
	return out, nil
}

// Delete removes node's vector, if present.
func (d *DurableStore) Delete(node neighbor.Node) error {
	err := d.breaker.Execute(context.Background(), func() error {
		err := d.db.Update(func(txn *badger.Txn) error {
			return txn.Delete(durableKey(node))
		})
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	})
	if err != nil {
		return obs.NewGraphError(obs.ErrCodeUnavailable, "vector", "Delete", "deleting from badger", err)
	}
	return nil
}

func decodeVector(val []byte) []float32 {
	out := make([]float32, len(val)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.BigEndian.Uint32(val[i*4:]))
	}
	return out
}

// ExactOracle returns a neighbor.Oracle scoring pairs by reading both
// vectors back from Badger and applying the configured metric directly —
// the durable-backing counterpart to Store.ExactOracle.
func (d *DurableStore) ExactOracle() neighbor.Oracle {
	return neighbor.OracleFunc(func(source neighbor.Node) neighbor.Scorer {
		sv, err := d.Get(source)
		if err != nil {
			return func(neighbor.Node) (neighbor.Score, error) { return 0, err }
		}
		return func(target neighbor.Node) (neighbor.Score, error) {
			tv, err := d.Get(target)
			if err != nil {
				return 0, err
			}
			return neighbor.Score(d.scoreFn(sv, tv)), nil
		}
	})
}

package neighbor

import "errors"

// Error taxonomy for the core neighbor-array / neighbor-set components.
// These are programmer-visible contract violations: synchronous, never
// retried, never logged by the package itself.
var (
	// ErrBounds is returned by array accessors given an index outside [0, size).
	ErrBounds = errors.New("neighbor: index out of bounds")

	// ErrOrderingViolation is returned by AddInOrder when the incoming score
	// would break the descending-score invariant.
	ErrOrderingViolation = errors.New("neighbor: score breaks descending order")

	// ErrOwnerAsNeighbor is returned when a set mutator is asked to add the
	// owner's own node id as one of its neighbors.
	ErrOwnerAsNeighbor = errors.New("neighbor: node cannot be its own neighbor")

	// ErrScoreNaN is returned when the similarity oracle produced a
	// non-finite score.
	ErrScoreNaN = errors.New("neighbor: oracle returned a non-finite score")

	// ErrCapacityExceeded names an allocation failure on the array growth
	// path. No function in this package returns it: Array grows through
	// append, which does not report allocation failure as an error.
	ErrCapacityExceeded = errors.New("neighbor: capacity exceeded")
)

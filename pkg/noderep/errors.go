package noderep

import "errors"

// Error classification.
//
// ErrNoReplicaSlot and ErrNoThreadSlot are saturation errors: the caller
// exceeded a static limit and must reduce parallelism. Tests and callers
// MUST classify errors using errors.Is.
//
// Everything else that can go wrong in this package indicates the
// concurrency substrate is no longer trustworthy (an index invariant was
// violated, a combiner lock was released by a non-holder) and is reported as a
// panic, not an error — there is no recoverable path once that happens.
var (
	// ErrNoReplicaSlot is returned by (*Log).Register when MaxReplicas
	// replicas are already registered.
	ErrNoReplicaSlot = errors.New("noderep: no replica slot available")

	// ErrNoThreadSlot is returned by (*Replica).Register when
	// MaxThreadsPerReplica threads are already registered.
	ErrNoThreadSlot = errors.New("noderep: no thread slot available")
)

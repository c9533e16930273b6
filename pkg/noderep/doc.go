// Package noderep turns a single-threaded, sequential data structure into a
// linearizable, NUMA-aware concurrent data structure.
//
// It does this without fine-grained locking on the data structure itself.
// Instead every NUMA socket (or, in this Go port, any goroutine-addressable
// region the caller chooses) keeps a private copy of the data structure —
// a [Replica] — and all copies are driven deterministically from a single
// shared operation [Log]. Writes are appended once to the log and replayed
// on every replica in the same order; reads are served locally against a
// replica whose state is known to be recent enough.
//
// # Basic usage
//
// A caller implements [Dispatch] for their sequential data structure,
// creates one [Log], and one [Replica] per NUMA node (or per worker pool):
//
//	log := noderep.NewLog[myWriteOp](noderep.DefaultLogBytes, 1)
//	replica, err := noderep.NewReplica[myReadOp, myWriteOp, myResponse](myData{}, log)
//	token, err := replica.Register()
//	resp := replica.ExecuteMut(myWriteOp{...}, token)
//
// # Concurrency
//
// The whole package is built around busy-waiting: there is no cooperative
// runtime involved and no operation ever blocks on the Go scheduler. A
// [Token] returned by Register is not safe to use from more than one
// goroutine at a time — see [Token] for the runtime convention that
// replaces Rust's compile-time `!Send` guarantee.
//
// # Error handling
//
// Running out of replica or thread slots is reported as an error (see
// [ErrNoReplicaSlot], [ErrNoThreadSlot]); it is a capacity-planning
// problem the caller can recover from. Anything that indicates the
// concurrency substrate itself is no longer trustworthy — index
// invariants crossing, a double release of the combiner lock — panics.
// There is no safe way to continue after that.
package noderep

package noderep

// Dispatch is the capability a sequential data structure must provide to
// be driven by a Replica. D is the concrete data structure type; R is its
// read-only operation type; W is its mutating operation type; Resp is the
// (single, shared) response type for both.
//
// Dispatch must be read-only: it may not mutate D. DispatchMut is the
// only method allowed to mutate D, and the Replica only ever calls it
// while holding the write side of the replica's RWLock.
//
// W values are copied onto the shared log and may be replayed once per
// registered replica; they must be cheap to copy and must not alias
// mutable state outside of what they carry by value.
type Dispatch[R, W, Resp any] interface {
	Dispatch(op R) Resp
	DispatchMut(op W) Resp
}

// LogMapper is implemented by a write or read operation that wants to be
// routed to a specific log of a multi-log Replica. LogHash() is reduced
// modulo the replica's log count. Operations that don't implement
// LogMapper are always routed to log 0, which is sufficient (and is in
// fact the only log) for a single-log Replica.
type LogMapper interface {
	LogHash() int
}

func logHashOf(v any, nlogs int) int {
	if nlogs <= 1 {
		return 0
	}

	m, ok := v.(LogMapper)
	if !ok {
		return 0
	}

	h := m.LogHash() % nlogs
	if h < 0 {
		h += nlogs
	}

	return h
}

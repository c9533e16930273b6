package noderep

import "sync/atomic"

// pendingOp is one slot of a threadContext: the write operation together
// with the per-op metadata a multi-log Replica uses to route it to one of
// its logs (see LogMapper). Single-log callers leave logHash at zero.
type pendingOp[W any] struct {
	op      W
	logHash int
}

// threadContext is a single-producer/single-consumer bounded ring that
// carries pending write operations from one client thread to whichever
// thread currently holds the owning replica's combiner lock, and carries
// matching responses back.
//
// The producer is the owning thread: it only ever reads head (to check
// for room) and writes tail. The consumer is the combiner: it only ever
// reads tail (to find work) and writes head (to signal completion).
// combinerHead is private to the consumer and requires no synchronization
// beyond what the combiner lock already provides.
type threadContext[W, Resp any] struct {
	head atomic.Uint64
	tail atomic.Uint64

	combinerHead uint64

	batch [MaxPendingOps]pendingOp[W]
	resps [MaxPendingOps]Resp

	// pending is set by the producer's make-pending step and cleared by
	// the combiner once its responses have been posted; it tells the
	// combiner which contexts are worth draining without reading every
	// context's head/tail on every combine round.
	pending atomic.Bool
}

// enqueue appends op to the ring. It succeeds iff tail-head < MaxPendingOps,
// returning the logical index the op was reserved at so the caller can
// later recognize its own response. On success it publishes the new tail
// with release ordering.
func (c *threadContext[W, Resp]) enqueue(op W, logHash int) (uint64, bool) {
	h := c.head.Load()
	t := c.tail.Load()

	if t-h >= MaxPendingOps {
		return 0, false
	}

	c.batch[t%MaxPendingOps] = pendingOp[W]{op: op, logHash: logHash}
	c.tail.Store(t + 1)

	return t, true
}

// drainInto copies every not-yet-combined operation into buf (appending),
// advances combinerHead to the observed tail, and returns how many
// operations were copied. It never touches head. Only the combiner calls
// this, and only while holding the combiner lock.
func (c *threadContext[W, Resp]) drainInto(buf *[]pendingOp[W]) int {
	t := c.tail.Load()
	l := c.combinerHead

	n := 0
	for i := l; i < t; i++ {
		*buf = append(*buf, c.batch[i%MaxPendingOps])
		n++
	}

	c.combinerHead = t

	return n
}

// postResponses writes resps into the slots starting at the current head
// and advances head past them, letting the producer observe completion.
// Only the combiner calls this, and only while holding the combiner lock.
func (c *threadContext[W, Resp]) postResponses(resps []Resp) {
	h := c.head.Load()

	for i, r := range resps {
		c.resps[(h+uint64(i))%MaxPendingOps] = r
	}

	c.head.Store(h + uint64(len(resps)))
}

// responseAt is the producer-side non-blocking read of the response slot
// for the operation enqueued at logical index idx. It is only meaningful
// once head has advanced past idx; Replica checks that by comparing the
// index enqueue returned against headIndex before calling it.
func (c *threadContext[W, Resp]) responseAt(idx uint64) Resp {
	return c.resps[idx%MaxPendingOps]
}

func (c *threadContext[W, Resp]) headIndex() uint64 { return c.head.Load() }
func (c *threadContext[W, Resp]) tailIndex() uint64 { return c.tail.Load() }

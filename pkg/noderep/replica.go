package noderep

import (
	"runtime"
	"sync/atomic"
)

// verifyCombinerHolder is the sentinel combiner-lock holder value used by
// Verify. It is distinguishable from any real Token id (which are all
// positive and at most MaxThreadsPerReplica) without needing a second
// flag, mirroring the source's use of an out-of-range sentinel id for the
// same purpose.
const verifyCombinerHolder = -1

// Replica is a flat-combiner driving a private copy of D from one or more
// shared Logs. Most callers construct a Replica over a single Log; a
// Replica built over more than one Log routes each read/write operation
// to one of them via LogMapper, giving every log its own combiner lock,
// contexts, and registration id, fully independent of the others.
type Replica[R, W, Resp any, D Dispatch[R, W, Resp]] struct {
	logs             []*Log[W]
	registrationIDs  []int
	combiners        []atomic.Int64
	contexts         [][]threadContext[W, Resp]

	data *RWLock[D]

	next atomic.Int32
}

// NewReplica constructs a Replica over one or more logs, registering
// itself with each. data is the initial state of the sequential data
// structure; it is subsequently mutated only through DispatchMut calls
// made by this replica's own combiner.
func NewReplica[R, W, Resp any, D Dispatch[R, W, Resp]](data D, logs ...*Log[W]) (*Replica[R, W, Resp, D], error) {
	if len(logs) == 0 {
		panic("noderep: NewReplica requires at least one log")
	}

	rep := &Replica[R, W, Resp, D]{
		logs:      logs,
		data:      NewRWLock(data),
		combiners: make([]atomic.Int64, len(logs)),
		contexts:  make([][]threadContext[W, Resp], len(logs)),
	}

	for i, log := range logs {
		id, err := log.Register()
		if err != nil {
			return nil, err
		}

		rep.registrationIDs = append(rep.registrationIDs, id)
		rep.contexts[i] = make([]threadContext[W, Resp], MaxThreadsPerReplica)
	}

	return rep, nil
}

// Register assigns a new Token in [1, MaxThreadsPerReplica], or reports
// ErrNoThreadSlot once that limit is reached. The returned Token must
// only ever be used from the registering goroutine.
func (rep *Replica[R, W, Resp, D]) Register() (Token, error) {
	for {
		n := rep.next.Load()
		if int(n) >= MaxThreadsPerReplica {
			return Token{}, ErrNoThreadSlot
		}

		if rep.next.CompareAndSwap(n, n+1) {
			return Token{id: int(n) + 1}, nil
		}
	}
}

// ExecuteMut submits a write operation and blocks until its response is
// available, electing itself combiner along the way if no one else is
// combining.
func (rep *Replica[R, W, Resp, D]) ExecuteMut(op W, tok Token) Resp {
	hashIdx := logHashOf(op, len(rep.logs))
	ctx := &rep.contexts[hashIdx][tok.id-1]

	var idx uint64

	for {
		i, ok := ctx.enqueue(op, hashIdx)
		if ok {
			idx = i
			break
		}

		runtime.Gosched()
	}

	ctx.pending.Store(true)
	rep.tryCombine(tok, hashIdx)

	return rep.awaitResponse(ctx, idx, tok, hashIdx)
}

func (rep *Replica[R, W, Resp, D]) awaitResponse(ctx *threadContext[W, Resp], idx uint64, tok Token, hashIdx int) Resp {
	spins := 0

	for {
		if ctx.headIndex() > idx {
			return ctx.responseAt(idx)
		}

		spins++
		if spins%combinerRetryThreshold == 0 {
			rep.tryCombine(tok, hashIdx)
		}

		runtime.Gosched()
	}
}

// Execute dispatches a read-only operation after waiting, if necessary,
// for this replica to catch up to the log's completed tail.
func (rep *Replica[R, W, Resp, D]) Execute(op R, tok Token) Resp {
	hashIdx := logHashOf(op, len(rep.logs))
	log := rep.logs[hashIdx]
	myRid := rep.registrationIDs[hashIdx]

	for {
		ctail := log.GetCtail()
		if log.IsReplicaSyncedForReads(myRid, ctail) {
			break
		}

		rep.tryCombine(tok, hashIdx)
		runtime.Gosched()
	}

	d, unlock := rep.data.Read(tok.id - 1)
	resp := (*d).Dispatch(op)
	unlock()

	return resp
}

// Sync forces this replica to catch up against every one of its logs.
// Useful when another replica's backlog is blocking GC and this replica
// would otherwise never notice.
func (rep *Replica[R, W, Resp, D]) Sync(tok Token) {
	for i := range rep.logs {
		rep.SyncLog(tok, i)
	}
}

// SyncLog forces this replica to catch up against a single one of its
// logs, identified by its index in the slice passed to NewReplica.
func (rep *Replica[R, W, Resp, D]) SyncLog(tok Token, logIdx int) {
	log := rep.logs[logIdx]
	myRid := rep.registrationIDs[logIdx]

	for {
		ctail := log.GetCtail()
		if log.IsReplicaSyncedForReads(myRid, ctail) {
			return
		}

		rep.tryCombine(tok, logIdx)
		runtime.Gosched()
	}
}

// Verify is test-only: it acquires every log's combiner lock (so no
// combine can run concurrently), replays each log fully, and grants fn
// read access to the resulting state. It must not be called concurrently
// with itself.
func (rep *Replica[R, W, Resp, D]) Verify(fn func(d *D)) {
	for i := range rep.logs {
		for !rep.combiners[i].CompareAndSwap(0, verifyCombinerHolder) {
			runtime.Gosched()
		}
	}

	for i, log := range rep.logs {
		myRid := rep.registrationIDs[i]
		log.Exec(myRid, func(op W, appenderRid int) {
			d, unlock := rep.data.Write()
			(*d).DispatchMut(op)
			unlock()
		})
	}

	d, unlock := rep.data.Read(verifyReaderSlot)
	fn(d)
	unlock()

	for i := range rep.logs {
		rep.combiners[i].Store(0)
	}
}

func (rep *Replica[R, W, Resp, D]) tryCombine(tok Token, hashIdx int) {
	if !rep.acquireCombinerLock(tok, hashIdx) {
		return
	}

	rep.combine(hashIdx)
	rep.releaseCombinerLock(tok, hashIdx)
}

func (rep *Replica[R, W, Resp, D]) acquireCombinerLock(tok Token, hashIdx int) bool {
	lock := &rep.combiners[hashIdx]

	// Cheap pre-reads before the CAS attempt, to avoid a CAS storm when
	// another thread is already combining.
	for i := 0; i < 4; i++ {
		if lock.Load() != 0 {
			return false
		}
	}

	return lock.CompareAndSwap(0, int64(tok.id))
}

func (rep *Replica[R, W, Resp, D]) releaseCombinerLock(tok Token, hashIdx int) {
	if !rep.combiners[hashIdx].CompareAndSwap(int64(tok.id), 0) {
		panic("noderep: combiner lock released by a thread that does not hold it")
	}
}

type inflightContext struct {
	tid   int
	count int
}

// combine performs one flat-combining round against the log at hashIdx:
// drain every pending context, append the batch, replay everything up to
// the new tail, and post responses back to the contexts that contributed
// operations, in thread order.
func (rep *Replica[R, W, Resp, D]) combine(hashIdx int) {
	log := rep.logs[hashIdx]
	myRid := rep.registrationIDs[hashIdx]
	n := int(rep.next.Load())

	var buffer []pendingOp[W]

	var inflight []inflightContext

	for tid := 1; tid <= n; tid++ {
		ctx := &rep.contexts[hashIdx][tid-1]
		if !ctx.pending.Load() {
			continue
		}

		before := len(buffer)
		ctx.drainInto(&buffer)

		if count := len(buffer) - before; count > 0 {
			inflight = append(inflight, inflightContext{tid: tid, count: count})
		}
	}

	ops := make([]W, len(buffer))
	for i, p := range buffer {
		ops[i] = p.op
	}

	var responses []Resp

	// Dispatches one replayed entry against the private copy under the
	// write lock, capturing the response only when this replica is the
	// one that originally appended it. Used both while AdvanceHead
	// forces this replica to replay during the append itself (the
	// entries it needs to consume to let head move may be its own) and
	// during the ordinary post-append replay; Exec only ever visits a
	// given logical index once across the two calls, so responses are
	// never collected twice for the same entry.
	collect := func(op W, appenderRid int) {
		d, unlock := rep.data.Write()
		resp := (*d).DispatchMut(op)
		unlock()

		if appenderRid == myRid {
			responses = append(responses, resp)
		}
	}

	selfReplay := func(hasLock bool) {
		log.Exec(myRid, collect)
	}

	log.Append(ops, myRid, selfReplay)
	log.Exec(myRid, collect)

	off := 0

	for _, ent := range inflight {
		ctx := &rep.contexts[hashIdx][ent.tid-1]
		ctx.postResponses(responses[off : off+ent.count])
		ctx.pending.Store(false)
		off += ent.count
	}
}

package noderep

import (
	"runtime"
	"sync/atomic"
	"unsafe"
)

// entryPad rounds a logEntry's fixed metadata toward a 64-byte cache line.
// It cannot make the whole entry exactly 64 bytes when W is itself large
// or variable-sized (Go has no repr(align) for generic types), but for the
// common case of a small W it keeps neighbouring entries' hot metadata
// (alive, replicaID) off of each other's cache lines.
const entryPad = 48

// logEntry is one slot of the shared log. alive is the publish flag: an
// entry is visible to a consumer only once alive equals the consumer's
// expected mask. op and replicaID are plain fields whose visibility is
// governed entirely by alive — alive.Store is the release, alive.Load is
// the matching acquire.
type logEntry[W any] struct {
	alive     atomic.Bool
	replicaID int32
	op        W
	_         [entryPad]byte
}

// Log is a bounded, circular, multi-producer/multi-consumer log of write
// operations shared by every Replica built on top of it. Its capacity is
// a power of two and at least 2*GC_HORIZON.
type Log[W any] struct {
	capacity uint64
	mask     uint64
	entries  []logEntry[W]

	head  atomic.Uint64
	tail  atomic.Uint64
	ctail atomic.Uint64

	next atomic.Int32

	ltails [MaxReplicas]atomic.Uint64
	lmasks [MaxReplicas]atomic.Bool

	// dormantNotified makes GCHook invocation idempotent per stall
	// episode: set when the hook fires for a replica id, cleared once
	// the head advances past that episode.
	dormantNotified AtomicBitmap

	logID int
	opts  logOptions

	// gcHorizonN and warnThreshN mirror the package constants gcHorizon and
	// warnThreshold for production logs; they are broken out into fields
	// (rather than read directly as constants by the methods below) so
	// that white-box tests in this package can build a Log with a tiny
	// capacity and a low warning threshold, instead of waiting through
	// MaxThreadsPerReplica*MaxPendingOps-scale GC windows and a
	// 2^28-iteration warning threshold to exercise wrap-around and
	// GC-starvation paths.
	gcHorizonN  uint64
	warnThreshN uint64
}

// NewLog constructs a Log of at least sizeBytes (rounded up to the next
// power-of-two entry count, and to at least 2*GC_HORIZON entries) tagged
// with logID for diagnostics and for multi-log GC hooks.
func NewLog[W any](sizeBytes int, logID int, opts ...LogOption) *Log[W] {
	var zero logEntry[W]
	entrySize := int(unsafe.Sizeof(zero))
	if entrySize <= 0 {
		entrySize = 1
	}

	count := sizeBytes / entrySize
	if count < 2*gcHorizon {
		count = 2 * gcHorizon
	}

	count = int(nextPow2(uint64(count)))

	l := &Log[W]{
		capacity:    uint64(count),
		mask:        uint64(count) - 1,
		entries:     make([]logEntry[W], count),
		logID:       logID,
		opts:        defaultLogOptions(),
		gcHorizonN:  gcHorizon,
		warnThreshN: warnThreshold,
	}

	for _, opt := range opts {
		opt(&l.opts)
	}

	for i := range l.lmasks {
		l.lmasks[i].Store(true)
	}

	return l
}

func nextPow2(n uint64) uint64 {
	if n == 0 {
		return 1
	}

	p := uint64(1)
	for p < n {
		p <<= 1
	}

	return p
}

func (l *Log[W]) index(i uint64) uint64 { return i & l.mask }

// Register atomically assigns the next replica id in [1, MaxReplicas], or
// reports ErrNoReplicaSlot once MaxReplicas registrations exist.
func (l *Log[W]) Register() (int, error) {
	for {
		n := l.next.Load()
		if int(n) >= MaxReplicas {
			return 0, ErrNoReplicaSlot
		}

		if l.next.CompareAndSwap(n, n+1) {
			return int(n) + 1, nil
		}
	}
}

// GetCtail returns a snapshot of the completed tail: the largest logical
// index after which every registered replica had finished replay at the
// moment the counter was last advanced.
func (l *Log[W]) GetCtail() uint64 { return l.ctail.Load() }

// IsReplicaSyncedForReads reports whether replica r has replayed at least
// up to ctail, meaning a read dispatched against its private copy right
// now is linearized at ctail.
func (l *Log[W]) IsReplicaSyncedForReads(r int, ctail uint64) bool {
	return l.ltails[r-1].Load() >= ctail
}

// Append reserves len(ops) consecutive logical slots for replica r,
// publishes them, and returns the logical index of the first slot.
//
// selfReplay is called, with hasLock set to true, whenever this call has
// to wait for head room: both before reserving, while the log is too full
// to admit the batch, and inside AdvanceHead when the reservation crossed
// the GC horizon. It should replay replica r's own backlog (typically by
// calling Exec for r) so that r's local tail, and with it the head, can
// move; it is the "wait_gc(has_lock)" collaborator from the design.
func (l *Log[W]) Append(ops []W, r int, selfReplay func(hasLock bool)) uint64 {
	if len(ops) == 0 {
		return l.tail.Load()
	}

	for {
		t := l.tail.Load()
		h := l.head.Load()

		if t > h+l.capacity-l.gcHorizonN {
			selfReplay(true)
			continue
		}

		advance := t+uint64(len(ops)) > h+l.capacity-l.gcHorizonN

		if !l.tail.CompareAndSwap(t, t+uint64(len(ops))) {
			continue
		}

		mask := l.lmasks[r-1].Load()

		for i, op := range ops {
			phys := l.index(t + uint64(i))
			e := &l.entries[phys]

			chosen := mask
			if e.alive.Load() == chosen {
				chosen = !chosen
			}

			e.op = op
			e.replicaID = int32(r)
			e.alive.Store(chosen)
		}

		if advance {
			l.AdvanceHead(r, selfReplay)
		}

		return t
	}
}

// Exec replays every entry this replica has not yet seen, up to the
// current tail. ExecTo replays up to an explicit logical index. dispatch
// is invoked once per entry, in log order, with the entry's operation and
// the registration id of the replica that appended it.
func (l *Log[W]) Exec(r int, dispatch func(op W, appenderReplicaID int)) {
	l.ExecTo(r, l.tail.Load(), dispatch)
}

func (l *Log[W]) ExecTo(r int, to uint64, dispatch func(op W, appenderReplicaID int)) {
	idx := r - 1
	lt := l.ltails[idx].Load()
	h := l.head.Load()
	tail := l.tail.Load()

	if h > lt || lt > to || to > tail {
		panic("noderep: log replay invariant violated: head > ltail or ltail > to or to > tail")
	}

	mask := l.lmasks[idx].Load()
	spins := 0

	for i := lt; i < to; i++ {
		phys := l.index(i)
		e := &l.entries[phys]

		for e.alive.Load() != mask {
			spins++

			// Republish our ltail periodically while we wait on an
			// in-flight append so readers and GC waiters can still make
			// progress even though we haven't finished this entry yet.
			if spins%100 == 0 {
				l.ltails[idx].Store(i)
			}

			// Warn at 1, 2, 4, 8, ... times the threshold, not at every
			// multiple of it.
			if q := spins / int(l.warnThreshN); spins%int(l.warnThreshN) == 0 && q&(q-1) == 0 {
				l.opts.logger.Warnf("noderep: log %d replica %d stalled waiting for entry %d to publish", l.logID, r, i)
			}

			runtime.Gosched()
		}

		dispatch(e.op, int(e.replicaID))

		if phys == l.capacity-1 {
			mask = !mask
			l.lmasks[idx].Store(mask)
		}
	}

	for {
		old := l.ctail.Load()
		if old >= to {
			break
		}

		if l.ctail.CompareAndSwap(old, to) {
			break
		}
	}

	l.ltails[idx].Store(to)
}

// AdvanceHead moves head forward to the smallest local tail among
// registered replicas, so the log can admit more appends. r is the
// replica id on whose behalf this call is made; neither the stall warning
// nor the GC hook reports it (both name the log id and the dormant
// replica). selfReplay lets this goroutine make local progress while
// stuck rather than spin completely idle.
func (l *Log[W]) AdvanceHead(r int, selfReplay func(hasLock bool)) {
	stuckSpins := 0

	for {
		n := int(l.next.Load())

		minTail := l.tail.Load()
		dormant := 0

		for rid := 1; rid <= n; rid++ {
			t := l.ltails[rid-1].Load()
			if t < minTail {
				minTail = t
				dormant = rid
			}
		}

		h := l.head.Load()

		if minTail == h {
			stuckSpins++

			if stuckSpins%int(l.warnThreshN) == 0 {
				if !l.dormantNotified.Test(dormant) {
					l.dormantNotified.Set(dormant)
					l.opts.logger.Warnf("noderep: log %d stuck: head=%d, dormant replica=%d has not advanced", l.logID, h, dormant)

					if l.opts.gcHook != nil {
						l.opts.gcHook(l.logID, dormant)
					}
				}
			}

			selfReplay(true)

			continue
		}

		// The head is moving again, which ends the stall episode for every
		// replica whose hook had fired, not only for the current minimum.
		for w := range l.dormantNotified.data {
			l.dormantNotified.data[w].Store(0)
		}

		l.head.Store(minTail)

		if l.tail.Load() < minTail+l.capacity-l.gcHorizonN {
			return
		}
	}
}

// Reset zeroes every index and alive bit and restores the default
// alive-masks. It is test/benchmark-only and requires that the caller
// has already quiesced every replica and appender; there is no internal
// synchronization against concurrent use.
func (l *Log[W]) Reset() {
	l.head.Store(0)
	l.tail.Store(0)
	l.ctail.Store(0)
	l.next.Store(0)

	for i := range l.entries {
		l.entries[i].alive.Store(false)
		var zero W
		l.entries[i].op = zero
		l.entries[i].replicaID = 0
	}

	for i := range l.ltails {
		l.ltails[i].Store(0)
		l.lmasks[i].Store(true)
	}
}

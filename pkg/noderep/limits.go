package noderep

const (
	// MaxReplicas is the largest number of replicas a single Log will
	// register, sized for a large multi-socket machine.
	MaxReplicas = 192

	// MaxThreadsPerReplica is the largest number of threads (goroutines)
	// that can register against a single Replica.
	MaxThreadsPerReplica = 256

	// MaxPendingOps is the capacity of a per-thread context ring. Must
	// stay a small power of two.
	MaxPendingOps = 32

	// DefaultLogBytes is the default size passed to NewLog.
	DefaultLogBytes = 32 * 1024 * 1024

	// gcHorizon is the minimum free space the log keeps at its tail so
	// that in-flight appends never overtake the head.
	gcHorizon = MaxPendingOps * MaxThreadsPerReplica

	// warnThreshold is the spin-count after which a stalled append or
	// replay starts logging warnings, at exponentially-rare intervals
	// thereafter.
	warnThreshold = 1 << 28

	// combinerRetryThreshold is how many spins awaitResponse tolerates
	// before re-entering tryCombine itself.
	combinerRetryThreshold = 1 << 20
)

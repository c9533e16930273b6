package noderep

// Token is an opaque registration handle returned by (*Replica).Register.
// It is valid for the lifetime of the process; there is no deregister.
//
// A Token is not transferable across goroutines. Go has no equivalent of
// Rust's compile-time `impl !Send`, so this is a documented runtime
// convention rather than a compiler-enforced one: a Token must only ever
// be passed to (*Replica).ExecuteMut / Execute / Sync from the single
// goroutine that owns it. No execution path checks this, since doing so
// on every operation would require a goroutine-id lookup the standard
// library deliberately does not expose. The only related check is on the
// combiner lock: releasing it under a Token other than the one that
// acquired it panics.
type Token struct {
	id int
}

// ID returns the underlying registration id, in [1, MaxThreadsPerReplica].
// Exposed for diagnostics and for indexing caller-side per-thread state;
// it carries no meaning beyond "this token's slot".
func (t Token) ID() int { return t.id }

package noderep

import "log"

// Logger receives warnings when an append or replay has been spinning for
// an unusually long time. A logger and an optional GC-starvation hook are
// process-wide configuration for a Log, injected at construction — they
// are not part of the correctness invariants.
type Logger interface {
	Warnf(format string, args ...any)
}

// stdLogger adapts the standard library logger to Logger. The package
// never imports a structured-logging library: there is nothing to
// structure here beyond a threshold-gated warning string, and none of
// this module's ambient dependencies are a better fit than the standard
// library for a single injectable warn-only sink.
type stdLogger struct{}

func (stdLogger) Warnf(format string, args ...any) { log.Printf(format, args...) }

// GCHook is invoked by (*Log).AdvanceHead when the log cannot advance its
// head because some replica has stopped consuming entries. logIdx is the
// registration id of the log (as passed to NewLog); dormant is the
// registration id of the replica whose local tail is smallest. The hook
// should ask the dormant replica to make progress, e.g. by calling
// (*Replica).Sync from another goroutine. The hook runs on the stalled
// appender's goroutine and must not block indefinitely.
type GCHook func(logIdx int, dormant int)

// LogOption configures a Log at construction.
type LogOption func(*logOptions)

type logOptions struct {
	logger Logger
	gcHook GCHook
}

func defaultLogOptions() logOptions {
	return logOptions{logger: stdLogger{}}
}

// WithLogger overrides the default standard-library-backed Logger.
func WithLogger(l Logger) LogOption {
	return func(o *logOptions) { o.logger = l }
}

// WithGCHook installs a callback fired when the log's head has been
// stuck behind a dormant replica for longer than the warning threshold.
func WithGCHook(hook GCHook) LogOption {
	return func(o *logOptions) { o.gcHook = hook }
}

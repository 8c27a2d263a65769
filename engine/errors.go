package engine

import "errors"

// Sentinel errors per the §7 error taxonomy. IsPathFatal separates
// path-level aborts (DebuggerProtocol, DescentFailed, ProbeFailed) from
// locally-recoverable conditions (FrameParse, SourceUnresolved) by
// errors.Is against these. SearchDriver itself abandons a path on any
// error from the session, walker or tracer, and recovers locally from
// FrameParse and SourceUnresolved where recordFindings meets them.
var (
	ErrSpawnFailed           = errors.New("gdbsearch: failed to spawn debugger")
	ErrNoPrompt              = errors.New("gdbsearch: debugger did not return to prompt")
	ErrEntryBreakpointFailed = errors.New("gdbsearch: could not confirm breakpoint at program entry")
	ErrPidUnparseable        = errors.New("gdbsearch: could not parse target pid from debugger reply")
	ErrProbeUnavailable      = errors.New("gdbsearch: metric probe unavailable")
	ErrDescentFailed         = errors.New("gdbsearch: step-into did not change frame identity")
	ErrFrameParse            = errors.New("gdbsearch: backtrace line did not yield a FILE:LINE suffix")
	ErrSourceUnresolved      = errors.New("gdbsearch: source file could not be resolved")
)

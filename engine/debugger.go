package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DebuggerSession is the synchronous request/response contract of §4.3:
// every primitive blocks until its result (or a fatal condition) is known.
// Two implementations exist, selected by the "--protocol" flag: the
// line-oriented, prompt-terminated protocol the spec describes directly
// (debugger_line.go), and a structured GDB/MI adapter (debugger_mi.go) for
// the teacher's own dependency, github.com/cyrus-and/gdb. Isolating both
// behind this one interface is the §9 "adapter module" design note made
// concrete: retargeting to a different debugger, or a different
// machine-interface mode, is a local change to one file.
type DebuggerSession interface {
	// RunToEntry sets a breakpoint at the program entry and runs to it.
	RunToEntry(ctx context.Context) error
	// QueryPid asks the debugger for the target process's pid.
	QueryPid(ctx context.Context) (int, error)
	// Backtrace fetches the current stack, outermost frame last, each
	// entry an opaque "frame-top" string containing a trailing
	// " at FILE:LINE" location when available.
	Backtrace(ctx context.Context) ([]string, error)
	// CurrentFrameAddress fetches a stable token identifying the current
	// frame, empty if unavailable.
	CurrentFrameAddress(ctx context.Context) (string, error)
	// StepOneSourceLine advances one source line, auto-finishing any
	// frames entered by a subcall taken on that line, and returns the
	// source-line text of the line now current (possibly empty).
	StepOneSourceLine(ctx context.Context) (string, error)
	// StepInto advances exactly one step, entering any call made on the
	// current line.
	StepInto(ctx context.Context) error
	// Quit terminates the session. Errors are not reported (§4.3: "quiet").
	Quit()
}

// DebuggerConfig carries the pieces every backend needs to spawn and talk
// to its debugger.
type DebuggerConfig struct {
	// Command is the shell-quoted command that, when executed, yields a
	// debugger attached to the target (the CLI's debuggerCommand
	// positional, §6).
	Command string
	// IdleTimeout bounds how long a read may block waiting for output
	// before the session declares the debugger unresponsive (§5).
	IdleTimeout time.Duration
	// EntrySymbol is where runToEntry breaks; defaults to "main" when
	// empty.
	EntrySymbol string
	Log         *Logger
}

const defaultIdleTimeout = 10 * time.Second

// frameTopKey returns the portion of a frame-top string up to (not
// including) its first colon, used to compare frame identities "by
// prefix-up-to-colon" per §3/§4.5.
func frameTopKey(frameTop string) string {
	if idx := strings.IndexByte(frameTop, ':'); idx >= 0 {
		return frameTop[:idx]
	}
	return frameTop
}

// parseFrameLocation extracts (file, line) from a frame-top string's
// trailing " at FILE:LINE" suffix (§4.5, §6 property 4). The file and line
// are taken from the substring following the *last* occurrence of " at ",
// split on the last ':' so that Windows-drive-letter-free paths containing
// no colon parse correctly and line numbers stay unambiguous.
func parseFrameLocation(frameTop string) (file string, line int, err error) {
	const sep = " at "
	idx := strings.LastIndex(frameTop, sep)
	if idx < 0 {
		return "", 0, fmt.Errorf("%w: no %q in %q", ErrFrameParse, sep, frameTop)
	}
	loc := frameTop[idx+len(sep):]
	colon := strings.LastIndexByte(loc, ':')
	if colon < 0 {
		return "", 0, fmt.Errorf("%w: no FILE:LINE in %q", ErrFrameParse, loc)
	}
	file = loc[:colon]
	lineStr := strings.TrimSpace(loc[colon+1:])
	n, convErr := strconv.Atoi(lineStr)
	if convErr != nil {
		return "", 0, fmt.Errorf("%w: unparsable line number in %q: %v", ErrFrameParse, loc, convErr)
	}
	return file, n, nil
}

package engine

import (
	"context"
	"errors"
	"fmt"
)

// DebuggerFactory starts a fresh DebuggerSession, used by SearchDriver to
// restart the target program from scratch for every CallPath (§3: "A
// DebuggerSession is created and destroyed per CallPath").
type DebuggerFactory func(ctx context.Context) (DebuggerSession, error)

// SearchContext is the injected, process-wide state §9 asks for in place
// of globals: the source cache, finding index, and probe/predicate
// configuration, constructed once by the caller and handed to the
// SearchDriver.
type SearchContext struct {
	NewSession DebuggerFactory
	Probe      Probe
	Predicate  *Predicate
	Resolver   *SourceResolver
	Store      *ReportStore
	Log        *Logger
	// MaxDepth bounds how deep a CallPath may grow before it is dropped
	// from the queue instead of explored. Zero means unbounded, per §4.5
	// ("A depth bound is not mandated but may be imposed").
	MaxDepth int
}

// SearchDriver owns the FIFO work queue of CallPaths still to explore
// (§4.5).
type SearchDriver struct {
	ctx   *SearchContext
	queue []CallPath
}

// NewSearchDriver seeds the queue with initial, typically just [[]] (the
// program entry) per §4.5, or the CLI's initialPaths when supplied.
func NewSearchDriver(ctx *SearchContext, initial []CallPath) *SearchDriver {
	queue := make([]CallPath, len(initial))
	copy(queue, initial)
	return &SearchDriver{ctx: ctx, queue: queue}
}

// Run drains the queue, exploring one CallPath at a time (children only
// after all current-generation paths, per the FIFO ordering guarantee of
// §4.5/§5). It always returns nil: per §7, "the search overall completes
// even if every non-root path aborts."
func (d *SearchDriver) Run(ctx context.Context) error {
	for len(d.queue) > 0 {
		path := d.queue[0]
		d.queue = d.queue[1:]
		d.exploreOne(ctx, path)
	}
	return nil
}

func (d *SearchDriver) enqueue(path CallPath) {
	if d.ctx.MaxDepth > 0 && len(path) > d.ctx.MaxDepth {
		d.ctx.Log.Info("dropping %s: exceeds max depth %d", path, d.ctx.MaxDepth)
		return
	}
	d.queue = append(d.queue, path)
}

// exploreOne implements one iteration of §4.5's numbered algorithm. Any
// fatal condition abandons this path cleanly and leaves the queue and
// store otherwise untouched, per §5's cancellation rule ("no partial
// findings from that path are committed"): findings are recorded only
// after TraceFrame has returned without error, so an abandoned path
// commits none.
func (d *SearchDriver) exploreOne(ctx context.Context, path CallPath) {
	sess, err := d.ctx.NewSession(ctx)
	if err != nil {
		d.ctx.Log.Warn("path %s: %v", path, err)
		return
	}
	defer sess.Quit()

	if err := sess.RunToEntry(ctx); err != nil {
		d.ctx.Log.Warn("path %s: %v", path, err)
		return
	}
	pid, err := sess.QueryPid(ctx)
	if err != nil {
		d.ctx.Log.Warn("path %s: %v", path, err)
		return
	}

	if err := d.walkToFrame(ctx, sess, path); err != nil {
		d.ctx.Log.Warn("path %s: %v", path, err)
		return
	}

	samples, err := TraceFrame(ctx, sess, d.ctx.Probe, pid)
	if err != nil {
		d.ctx.Log.Warn("path %s: %v", path, err)
		return
	}

	d.recordFindings(path, samples)
}

// walkToFrame implements §4.5 point 2: step iⱼ lines then step into, once
// per path element, verifying each step-into actually changed frame
// identity.
func (d *SearchDriver) walkToFrame(ctx context.Context, sess DebuggerSession, path CallPath) error {
	for _, steps := range path {
		for i := 0; i < steps; i++ {
			if _, err := sess.StepOneSourceLine(ctx); err != nil {
				return err
			}
		}

		before, err := sess.Backtrace(ctx)
		if err != nil {
			return err
		}
		beforeTop := topOf(before)

		if err := sess.StepInto(ctx); err != nil {
			return err
		}

		after, err := sess.Backtrace(ctx)
		if err != nil {
			return err
		}
		afterTop := topOf(after)

		if frameTopKey(afterTop) == frameTopKey(beforeTop) {
			return fmt.Errorf("%w: frame top unchanged across step-into (%q)", ErrDescentFailed, afterTop)
		}
	}
	return nil
}

func topOf(bt []string) string {
	if len(bt) == 0 {
		return ""
	}
	return bt[0]
}

// recordFindings implements §4.5 points 3-4: evaluate the delta predicate
// over every adjacent sample pair, recording a Finding for every firing and
// enqueueing the child path only when the hit's source file resolves (S4:
// an unresolvable source still blocks descent but the finding is still
// recorded against the parent page under its bare, unresolved name).
func (d *SearchDriver) recordFindings(path CallPath, samples []FrameSample) {
	for k := 1; k < len(samples); k++ {
		prev, curr := samples[k-1], samples[k]
		if !d.ctx.Predicate.Eval(curr.Metric, prev.Metric) {
			continue
		}

		file, line, err := parseFrameLocation(curr.FrameTop)
		if err != nil {
			d.ctx.Log.Info("path %s step %d: %v", path, k, err)
			continue
		}

		sourceFile := file
		resolved, ok := d.ctx.Resolver.Resolve(file)
		if ok {
			sourceFile = resolved
		} else {
			d.ctx.Log.Info("path %s step %d: %v: %s", path, k, ErrSourceUnresolved, file)
		}

		d.ctx.Store.Add(Finding{
			SourceFile:     sourceFile,
			LineNumber:     line,
			PrevMetric:     prev.Metric,
			NewMetric:      curr.Metric,
			ParentCallPath: path,
			StepIndex:      k,
		})
		if ok {
			d.enqueue(path.Append(k))
		}
	}
}

// IsPathFatal reports whether err should abandon the current CallPath
// rather than be locally recovered from, per the §7 policy table.
func IsPathFatal(err error) bool {
	return errors.Is(err, ErrSpawnFailed) ||
		errors.Is(err, ErrNoPrompt) ||
		errors.Is(err, ErrEntryBreakpointFailed) ||
		errors.Is(err, ErrPidUnparseable) ||
		errors.Is(err, ErrDescentFailed) ||
		errors.Is(err, ErrProbeUnavailable)
}

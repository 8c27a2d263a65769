package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchDriverEndToEndRecordsFindingAndWalksChild(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.c"), []byte("1\n2\n3\n4\n5\n"), 0o644))

	rootSession := &scriptedSession{
		pid: 100,
		backtraces: [][]string{
			{"#0  foo () at a.c:1"},
			{"#0  foo () at a.c:2"},
			{},
		},
		frameAddrs: []string{"0xA", "0xA"},
		stepLines:  []string{"line2", "line3"},
	}
	childSession := &scriptedSession{
		pid: 101,
		backtraces: [][]string{
			{"#0  foo () at a.c:2"},  // walkToFrame: before step-into
			{"#0  bar () at a.c:5"},  // walkToFrame: after step-into
			{"#0  bar () at a.c:5"},  // TraceFrame: bt0
			{},                       // TraceFrame: frame exits immediately
		},
		frameAddrs: []string{"0xB"},
		stepLines:  []string{"stepinto-line", "exit-line"},
	}

	calls := 0
	factory := func(ctx context.Context) (DebuggerSession, error) {
		calls++
		if calls == 1 {
			return rootSession, nil
		}
		return childSession, nil
	}

	var probeSeq int
	probe := func(pid int) (Scalar, error) {
		probeSeq++
		return Scalar(probeSeq * 10), nil
	}

	predicate, err := ParsePredicate("n > p")
	require.NoError(t, err)

	resolver := NewSourceResolver([]string{dir})
	store := NewReportStore()

	sctx := &SearchContext{
		NewSession: factory,
		Probe:      probe,
		Predicate:  predicate,
		Resolver:   resolver,
		Store:      store,
		Log:        Discard(),
	}

	driver := NewSearchDriver(sctx, []CallPath{{}})
	require.NoError(t, driver.Run(context.Background()))

	require.Equal(t, 1, store.Len())
	finding := store.All()[0]
	assert.Equal(t, filepath.Join(dir, "a.c"), finding.SourceFile)
	assert.Equal(t, 2, finding.LineNumber)
	assert.Equal(t, CallPath{}, finding.ParentCallPath)
	assert.Equal(t, 1, finding.StepIndex)
	assert.Equal(t, CallPath{1}, finding.ChildPath())

	assert.Equal(t, 2, calls, "expected one session for the root path and one for its enqueued child")
	assert.True(t, rootSession.quit)
	assert.True(t, childSession.quit)
}

func TestSearchDriverRecordsFindingButSkipsDescentWhenSourceUnresolved(t *testing.T) {
	// S4: a hit occurs in a file the resolver cannot locate. The finding
	// must still be recorded against the parent page; only the child
	// descent (enqueue) is skipped.
	rootSession := &scriptedSession{
		pid: 200,
		backtraces: [][]string{
			{"#0  foo () at missing.c:1"},
			{"#0  foo () at missing.c:2"},
			{},
		},
		frameAddrs: []string{"0xA", "0xA"},
		stepLines:  []string{"line2", "line3"},
	}

	spawnCalls := 0
	factory := func(ctx context.Context) (DebuggerSession, error) {
		spawnCalls++
		return rootSession, nil
	}

	probeCalls := 0
	store := NewReportStore()
	sctx := &SearchContext{
		NewSession: factory,
		Probe:      func(pid int) (Scalar, error) { probeCalls++; return Scalar(probeCalls * 10), nil },
		Predicate:  mustPredicate(t, "n > p"),
		Resolver:   NewSourceResolver(nil), // no search dirs: "missing.c" can never resolve
		Store:      store,
		Log:        Discard(),
	}

	driver := NewSearchDriver(sctx, []CallPath{{}})
	require.NoError(t, driver.Run(context.Background()))

	require.Equal(t, 1, store.Len())
	finding := store.All()[0]
	assert.Equal(t, "missing.c", finding.SourceFile, "unresolved source keeps its bare name")
	assert.Equal(t, 2, finding.LineNumber)
	assert.Equal(t, CallPath{}, finding.ParentCallPath)

	// only the root session was spawned: the unresolved finding's child
	// path [1] must never have been enqueued/explored.
	assert.Equal(t, 1, spawnCalls)
}

func TestSearchDriverAbandonsPathOnSpawnFailure(t *testing.T) {
	factory := func(ctx context.Context) (DebuggerSession, error) {
		return nil, ErrSpawnFailed
	}
	sctx := &SearchContext{
		NewSession: factory,
		Probe:      func(pid int) (Scalar, error) { return 0, nil },
		Predicate:  mustPredicate(t, "n > p"),
		Resolver:   NewSourceResolver(nil),
		Store:      NewReportStore(),
		Log:        Discard(),
	}
	driver := NewSearchDriver(sctx, []CallPath{{}})
	err := driver.Run(context.Background())
	assert.NoError(t, err, "a failed path must not fail the overall search")
	assert.Equal(t, 0, sctx.Store.Len())
}

func TestSearchDriverEnqueueRespectsMaxDepth(t *testing.T) {
	sctx := &SearchContext{Log: Discard(), MaxDepth: 2}
	d := &SearchDriver{ctx: sctx}
	d.enqueue(CallPath{1, 2})
	d.enqueue(CallPath{1, 2, 3})
	assert.Len(t, d.queue, 1)
	assert.Equal(t, CallPath{1, 2}, d.queue[0])
}

func TestWalkToFrameDetectsFailedDescent(t *testing.T) {
	sess := &scriptedSession{
		backtraces: [][]string{
			{"#0  foo () at a.c:2"}, // before step-into
			{"#0  foo () at a.c:3"}, // after: same function/file, step-into failed
		},
		stepLines: []string{"line"},
	}
	d := &SearchDriver{ctx: &SearchContext{Log: Discard()}}
	err := d.walkToFrame(context.Background(), sess, CallPath{1})
	assert.ErrorIs(t, err, ErrDescentFailed)
}

func TestIsPathFatal(t *testing.T) {
	assert.True(t, IsPathFatal(ErrSpawnFailed))
	assert.True(t, IsPathFatal(ErrDescentFailed))
	assert.False(t, IsPathFatal(ErrFrameParse))
	assert.False(t, IsPathFatal(ErrSourceUnresolved))
}

func mustPredicate(t *testing.T, expr string) *Predicate {
	t.Helper()
	p, err := ParsePredicate(expr)
	require.NoError(t, err)
	return p
}

package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceFrameSamplesUntilFrameExit(t *testing.T) {
	sess := &scriptedSession{
		pid: 4242,
		backtraces: [][]string{
			{"#0  foo () at a.c:1"},
			{"#0  foo () at a.c:2"},
			{"#0  foo () at a.c:3"},
			{}, // backtrace is empty: frame has returned
		},
		frameAddrs: []string{"0xAAA", "0xAAA", "0xAAA"},
		stepLines:  []string{"line2", "line3", "line4"},
	}

	var probeCalls []int
	probe := func(pid int) (Scalar, error) {
		probeCalls = append(probeCalls, pid)
		return Scalar(len(probeCalls) * 10), nil
	}

	samples, err := TraceFrame(context.Background(), sess, probe, sess.pid)
	require.NoError(t, err)
	require.Len(t, samples, 3)

	assert.Equal(t, "#0  foo () at a.c:1", samples[0].FrameTop)
	assert.Equal(t, "", samples[0].SourceLine)
	assert.Equal(t, Scalar(10), samples[0].Metric)

	assert.Equal(t, "#0  foo () at a.c:2", samples[1].FrameTop)
	assert.Equal(t, "line2", samples[1].SourceLine)
	assert.Equal(t, Scalar(20), samples[1].Metric)

	assert.Equal(t, "#0  foo () at a.c:3", samples[2].FrameTop)
	assert.Equal(t, "line3", samples[2].SourceLine)
	assert.Equal(t, Scalar(30), samples[2].Metric)

	for _, pid := range probeCalls {
		assert.Equal(t, 4242, pid)
	}
}

func TestTraceFrameStopsOnFrameIdentityChange(t *testing.T) {
	sess := &scriptedSession{
		pid: 1,
		backtraces: [][]string{
			{"#0  foo () at a.c:1"},
			{"#0  foo () at a.c:2"}, // same depth, different frame address: tail-call-like replacement
		},
		frameAddrs: []string{"0xAAA", "0xBBB"},
		stepLines:  []string{"line2"},
	}
	probe := func(pid int) (Scalar, error) { return 0, nil }

	samples, err := TraceFrame(context.Background(), sess, probe, sess.pid)
	require.NoError(t, err)
	assert.Len(t, samples, 1)
}

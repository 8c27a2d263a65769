package engine

import "context"

// FrameSample is the (frameTop, metric, sourceLine) tuple of §3. The first
// sample of a frame carries the empty sourceLine.
type FrameSample struct {
	FrameTop   string
	Metric     Scalar
	SourceLine string
}

// TraceFrame implements §4.4: given a session freshly positioned at the
// first source line of the function under study, sample the metric before
// and after each line, stopping on frame exit (depth decrease) or frame
// identity change (tail-call-like replacement at the same depth).
func TraceFrame(ctx context.Context, sess DebuggerSession, probe Probe, pid int) ([]FrameSample, error) {
	bt0, err := sess.Backtrace(ctx)
	if err != nil {
		return nil, err
	}
	frame0, err := sess.CurrentFrameAddress(ctx)
	if err != nil {
		return nil, err
	}

	initial, err := probe(pid)
	if err != nil {
		return nil, err
	}

	top0 := ""
	if len(bt0) > 0 {
		top0 = bt0[0]
	}
	samples := []FrameSample{{FrameTop: top0, Metric: initial, SourceLine: ""}}

	for {
		line, err := sess.StepOneSourceLine(ctx)
		if err != nil {
			return nil, err
		}

		bt, err := sess.Backtrace(ctx)
		if err != nil {
			return nil, err
		}
		if len(bt) == 0 || len(bt) != len(bt0) {
			break
		}
		frame, err := sess.CurrentFrameAddress(ctx)
		if err != nil {
			return nil, err
		}
		if frame != frame0 {
			break
		}

		metric, err := probe(pid)
		if err != nil {
			return nil, err
		}
		samples = append(samples, FrameSample{FrameTop: bt[0], Metric: metric, SourceLine: line})
	}

	return samples, nil
}

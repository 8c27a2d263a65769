package engine

import (
	"context"
	"fmt"
)

// scriptedSession is a hand-rolled DebuggerSession whose responses are
// supplied in advance, for exercising TraceFrame and SearchDriver without
// an actual debugger subprocess.
type scriptedSession struct {
	pid int

	backtraces   [][]string
	btIdx        int
	frameAddrs   []string
	addrIdx      int
	stepLines    []string
	stepIdx      int
	stepIntoErrs []error
	intoIdx      int

	quit bool
}

func (s *scriptedSession) RunToEntry(ctx context.Context) error { return nil }

func (s *scriptedSession) QueryPid(ctx context.Context) (int, error) { return s.pid, nil }

func (s *scriptedSession) Backtrace(ctx context.Context) ([]string, error) {
	if s.btIdx >= len(s.backtraces) {
		return nil, fmt.Errorf("scriptedSession: ran out of scripted backtraces")
	}
	bt := s.backtraces[s.btIdx]
	s.btIdx++
	return bt, nil
}

func (s *scriptedSession) CurrentFrameAddress(ctx context.Context) (string, error) {
	if s.addrIdx >= len(s.frameAddrs) {
		return "", fmt.Errorf("scriptedSession: ran out of scripted frame addresses")
	}
	addr := s.frameAddrs[s.addrIdx]
	s.addrIdx++
	return addr, nil
}

func (s *scriptedSession) StepOneSourceLine(ctx context.Context) (string, error) {
	if s.stepIdx >= len(s.stepLines) {
		return "", fmt.Errorf("scriptedSession: ran out of scripted step lines")
	}
	line := s.stepLines[s.stepIdx]
	s.stepIdx++
	return line, nil
}

func (s *scriptedSession) StepInto(ctx context.Context) error {
	if s.intoIdx < len(s.stepIntoErrs) {
		err := s.stepIntoErrs[s.intoIdx]
		s.intoIdx++
		return err
	}
	return nil
}

func (s *scriptedSession) Quit() { s.quit = true }

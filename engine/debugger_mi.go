package engine

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cyrus-and/gdb"
)

// miSession is the structured alternative to lineSession (§9's "adapter
// module" design note): it speaks the same DebuggerSession primitive set
// but issues GDB/MI commands through the teacher's own dependency,
// github.com/cyrus-and/gdb, instead of parsing raw CLI text. Exec commands
// in MI mode are asynchronous (the immediate reply is just "^running"), so
// completion is observed the same way the teacher observes its "stopped"
// breakpoint notifications in engine/replay.go: a callback registered with
// gdb.NewCmd pushes *stopped records onto stopCh, and every stepping
// primitive blocks reading that channel (racing an idle timeout, per §5).
type miSession struct {
	gdbSession  *gdb.Gdb
	stopCh      chan map[string]interface{}
	entrySymbol string
	timeout     time.Duration
	log         *Logger
}

// NewMISession launches cfg.Command's first field as the gdb executable
// (remaining fields its own arguments, e.g. the target binary) under
// --interpreter=mi2.
func NewMISession(ctx context.Context, cfg DebuggerConfig) (DebuggerSession, error) {
	fields := strings.Fields(cfg.Command)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty debugger command", ErrSpawnFailed)
	}
	argv := append([]string{fields[0], "-q", "--interpreter=mi2"}, fields[1:]...)

	timeout := cfg.IdleTimeout
	if timeout <= 0 {
		timeout = defaultIdleTimeout
	}
	lg := cfg.Log
	if lg == nil {
		lg = Discard()
	}

	entry := cfg.EntrySymbol
	if entry == "" {
		entry = defaultEntrySymbol
	}
	s := &miSession{
		stopCh:      make(chan map[string]interface{}, 8),
		entrySymbol: entry,
		timeout:     timeout,
		log:         lg,
	}

	gdbSession, err := gdb.NewCmd(argv, func(notification map[string]interface{}) {
		if cls, _ := notification["class"].(string); cls == "stopped" {
			select {
			case s.stopCh <- notification:
			default:
			}
		}
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpawnFailed, err)
	}
	s.gdbSession = gdbSession
	return s, nil
}

func (s *miSession) sendMI(command string, args ...string) (map[string]interface{}, error) {
	s.log.Wire("gdbsearch -> gdb(mi): %s %s", command, strings.Join(args, " "))
	result, err := s.gdbSession.Send(command, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoPrompt, err)
	}
	s.log.Wire("gdb(mi) -> gdbsearch: %v", result)
	if cls, _ := result["class"].(string); cls == "error" {
		msg := "unknown error"
		if payload, ok := result["payload"].(map[string]interface{}); ok {
			if m, ok := payload["msg"].(string); ok {
				msg = m
			}
		}
		return result, fmt.Errorf("%w: %s", ErrNoPrompt, msg)
	}
	return result, nil
}

func (s *miSession) waitForStop() (map[string]interface{}, error) {
	select {
	case n := <-s.stopCh:
		return n, nil
	case <-time.After(s.timeout):
		return nil, fmt.Errorf("%w: idle timeout after %s waiting for a stop", ErrNoPrompt, s.timeout)
	}
}

func (s *miSession) RunToEntry(ctx context.Context) error {
	result, err := s.sendMI("break-insert", "-f", s.entrySymbol)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEntryBreakpointFailed, err)
	}
	payload, _ := result["payload"].(map[string]interface{})
	if payload == nil {
		return fmt.Errorf("%w: no breakpoint payload", ErrEntryBreakpointFailed)
	}
	if _, err := s.sendMI("exec-run"); err != nil {
		return err
	}
	_, err = s.waitForStop()
	return err
}

func (s *miSession) QueryPid(ctx context.Context) (int, error) {
	result, err := s.sendMI("list-thread-groups")
	if err != nil {
		return 0, err
	}
	payload, _ := result["payload"].(map[string]interface{})
	groups, _ := payload["groups"].([]interface{})
	for _, g := range groups {
		gm, ok := g.(map[string]interface{})
		if !ok {
			continue
		}
		pidStr, ok := gm["pid"].(string)
		if !ok {
			continue
		}
		pid, err := strconv.Atoi(pidStr)
		if err == nil {
			return pid, nil
		}
	}
	return 0, fmt.Errorf("%w: no pid in thread groups", ErrPidUnparseable)
}

func (s *miSession) stackFrames() ([]interface{}, error) {
	result, err := s.sendMI("stack-list-frames")
	if err != nil {
		return nil, err
	}
	payload, _ := result["payload"].(map[string]interface{})
	stack, _ := payload["stack"].([]interface{})
	return stack, nil
}

func frameTupleToTop(frame map[string]interface{}) string {
	level, _ := frame["level"].(string)
	fn, _ := frame["func"].(string)
	file, _ := frame["file"].(string)
	line, _ := frame["line"].(string)
	addr, _ := frame["addr"].(string)
	if file != "" && line != "" {
		return fmt.Sprintf("#%s  %s () at %s:%s", level, fn, file, line)
	}
	return fmt.Sprintf("#%s  %s () at %s", level, fn, addr)
}

func (s *miSession) Backtrace(ctx context.Context) ([]string, error) {
	stack, err := s.stackFrames()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(stack))
	for _, entry := range stack {
		tuple, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		out = append(out, frameTupleToTop(tuple))
	}
	return out, nil
}

func (s *miSession) CurrentFrameAddress(ctx context.Context) (string, error) {
	stack, err := s.stackFrames()
	if err != nil {
		return "", err
	}
	if len(stack) == 0 {
		return "", nil
	}
	tuple, ok := stack[0].(map[string]interface{})
	if !ok {
		return "", nil
	}
	addr, _ := tuple["addr"].(string)
	return addr, nil
}

func (s *miSession) StepOneSourceLine(ctx context.Context) (string, error) {
	before, err := s.Backtrace(ctx)
	if err != nil {
		return "", err
	}
	depth0 := len(before)

	if _, err := s.sendMI("exec-step"); err != nil {
		return "", err
	}
	stop, err := s.waitForStop()
	if err != nil {
		return "", err
	}

	for {
		after, err := s.Backtrace(ctx)
		if err != nil {
			return "", err
		}
		if len(after) <= depth0 {
			break
		}
		if _, err := s.sendMI("exec-finish"); err != nil {
			return "", err
		}
		stop, err = s.waitForStop()
		if err != nil {
			return "", err
		}
	}

	return sourceLineFromStop(stop), nil
}

// sourceLineFromStop best-effort reads the literal source text for the
// stop notification's frame, since MI's *stopped record carries only
// file/line metadata, never the text gdb's CLI would have echoed.
func sourceLineFromStop(stop map[string]interface{}) string {
	frame, _ := stop["frame"].(map[string]interface{})
	if frame == nil {
		return ""
	}
	file, _ := frame["fullname"].(string)
	if file == "" {
		file, _ = frame["file"].(string)
	}
	lineStr, _ := frame["line"].(string)
	line, err := strconv.Atoi(lineStr)
	if file == "" || err != nil {
		return ""
	}
	return readSourceLineBestEffort(file, line)
}

func readSourceLineBestEffort(file string, line int) string {
	f, err := os.Open(file)
	if err != nil {
		return ""
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for n := 1; sc.Scan(); n++ {
		if n == line {
			return sc.Text()
		}
	}
	return ""
}

func (s *miSession) StepInto(ctx context.Context) error {
	if _, err := s.sendMI("exec-step"); err != nil {
		return err
	}
	_, err := s.waitForStop()
	return err
}

func (s *miSession) Quit() {
	_, _ = s.gdbSession.Send("gdb-exit")
	_ = s.gdbSession.Exit()
}

package engine

import (
	"io"
	"log"
	"os"

	"github.com/fatih/color"
)

// Logger mirrors the teacher's ad hoc fmt.Println/color.* diagnostics,
// pulled into one place so every component logs the same way. It is not a
// structured logging framework: the spec's ambient stack does not call for
// one, and the teacher repo itself never reaches for anything beyond
// log + color.
type Logger struct {
	verbose bool
	std     *log.Logger
}

// NewLogger builds a Logger writing to stderr. verbose gates Wire, the raw
// debugger-traffic trace analogous to the teacher's VerboseFlag.
func NewLogger(verbose bool) *Logger {
	return &Logger{verbose: verbose, std: log.New(os.Stderr, "", 0)}
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.std.Println(color.YellowString("gdbsearch: "+format, args...))
}

func (l *Logger) Success(format string, args ...interface{}) {
	l.std.Println(color.GreenString("gdbsearch: "+format, args...))
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.std.Println(color.RedString("gdbsearch: "+format, args...))
}

// Wire traces raw debugger request/response text when verbose is set,
// matching the teacher's color.Cyan wire-trace convention.
func (l *Logger) Wire(format string, args ...interface{}) {
	if !l.verbose {
		return
	}
	l.std.Println(color.CyanString(format, args...))
}

func (l *Logger) Fatal(format string, args ...interface{}) {
	l.std.Println(color.RedString("gdbsearch: fatal: "+format, args...))
	os.Exit(2)
}

// Discard returns a Logger that drops everything, for tests.
func Discard() *Logger {
	return &Logger{std: log.New(io.Discard, "", 0)}
}

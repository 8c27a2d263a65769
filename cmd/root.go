// Package cmd wires the gdbsearch CLI surface of §6 onto the engine
// package, in the teacher's own cobra idiom: a package-level RootCmd,
// flags registered against package-level vars in init(), subcommands
// attached onto RootCmd.AddCommand (mirrors edgarsandi-dontbug's
// cmd/record.go).
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/askervin/gdbsearch/engine"
)

var (
	predicateExpr string
	outDir        string
	dumpRaw       bool
	loadRaw       string
	protocol      string
	maxDepth      int
	searchDirs    []string
	idleTimeout   time.Duration
	verbose       bool
	entrySymbol   string
)

// exitCodeError lets RunE carry one of the §6 exit codes back to Execute
// without every caller threading an explicit os.Exit through cobra's
// output-formatting machinery.
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string { return e.err.Error() }
func (e *exitCodeError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...interface{}) error {
	return &exitCodeError{code: 1, err: fmt.Errorf(format, args...)}
}

func fatalErrorf(format string, args ...interface{}) error {
	return &exitCodeError{code: 2, err: fmt.Errorf(format, args...)}
}

// RootCmd implements the illustrative CLI of §6: positional debuggerCommand,
// metricName, initialPaths, plus the -e/-o/-d/-l flags.
var RootCmd = &cobra.Command{
	Use:   "gdbsearch <debuggerCommand> [metricName] [initialPaths]",
	Short: "differential measurement search engine driving an external debugger",
	Long: `gdbsearch drives an external source-level debugger to locate the exact
source lines in a target program (and any libraries it calls) that cause a
measurable change in a chosen runtime property.`,
	Args:          cobra.MaximumNArgs(3),
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runSearch,
}

func init() {
	RootCmd.Flags().StringVarP(&predicateExpr, "expr", "e", engine.DefaultPredicateExpr,
		"delta predicate over free variables n (new) and p (previous)")
	RootCmd.Flags().StringVarP(&outDir, "out", "o", "",
		"output directory for HTML pages (default: a temp directory)")
	RootCmd.Flags().BoolVarP(&dumpRaw, "dump", "d", false,
		"emit raw data instead of HTML")
	RootCmd.Flags().StringVarP(&loadRaw, "load", "l", "",
		"load a previously-saved raw-data file and render HTML without running the debugger")
	RootCmd.Flags().StringVar(&protocol, "protocol", "line",
		`debugger backend: "line" (raw prompt-terminated CLI protocol) or "mi" (GDB/MI)`)
	RootCmd.Flags().IntVar(&maxDepth, "max-depth", 0,
		"maximum CallPath depth to explore (0 = unbounded)")
	RootCmd.Flags().StringArrayVarP(&searchDirs, "search-dir", "I", nil,
		"directory to search for unresolved source files (repeatable)")
	RootCmd.Flags().DurationVar(&idleTimeout, "idle-timeout", 10*time.Second,
		"idle timeout on debugger reads")
	RootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false,
		"trace raw debugger wire traffic")
	RootCmd.Flags().StringVar(&entrySymbol, "entry", "main",
		"program entry symbol to break at")

	RootCmd.AddCommand(probesCmd)
	RootCmd.AddCommand(inspectCmd)
}

// Execute runs the CLI and exits with the §6 exit codes: 0 success, 1
// usage/configuration error, 2 fatal debugger interaction error.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		code := 1
		var ec *exitCodeError
		if as, ok := err.(*exitCodeError); ok {
			ec = as
		}
		if ec != nil {
			code = ec.code
			fmt.Fprintln(os.Stderr, ec.err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(code)
	}
}

func runSearch(cmd *cobra.Command, args []string) error {
	lg := engine.NewLogger(verbose)

	if loadRaw != "" {
		return renderFromRawFile(lg)
	}

	if len(args) < 1 {
		return usageErrorf("gdbsearch: debuggerCommand is required unless -l is given")
	}
	debuggerCommand := args[0]
	metricName := ""
	if len(args) >= 2 {
		metricName = args[1]
	}
	initialPathsArg := ""
	if len(args) >= 3 {
		initialPathsArg = args[2]
	}

	initialPaths, err := engine.ParseInitialPaths(initialPathsArg)
	if err != nil {
		return usageErrorf("gdbsearch: %v", err)
	}

	predicate, err := engine.ParsePredicate(predicateExpr)
	if err != nil {
		return usageErrorf("gdbsearch: %v", err)
	}

	registry := engine.NewProbeRegistry()
	probe, err := registry.Lookup(metricName)
	if err != nil {
		return usageErrorf("gdbsearch: %v", err)
	}

	out, err := resolveOutDir()
	if err != nil {
		return usageErrorf("gdbsearch: %v", err)
	}

	resolver := engine.NewSourceResolver(searchDirs)
	store := engine.NewReportStore()

	factory := func(ctx context.Context) (engine.DebuggerSession, error) {
		cfg := engine.DebuggerConfig{
			Command:     debuggerCommand,
			IdleTimeout: idleTimeout,
			EntrySymbol: entrySymbol,
			Log:         lg,
		}
		if protocol == "mi" {
			return engine.NewMISession(ctx, cfg)
		}
		return engine.NewLineSession(ctx, cfg)
	}

	sctx := &engine.SearchContext{
		NewSession: factory,
		Probe:      probe,
		Predicate:  predicate,
		Resolver:   resolver,
		Store:      store,
		Log:        lg,
		MaxDepth:   maxDepth,
	}
	driver := engine.NewSearchDriver(sctx, initialPaths)
	if err := driver.Run(context.Background()); err != nil {
		return fatalErrorf("gdbsearch: %v", err)
	}

	if dumpRaw {
		rawPath := filepath.Join(out, "gdbsearch.raw")
		if err := engine.SaveRaw(rawPath, store); err != nil {
			return fatalErrorf("gdbsearch: %v", err)
		}
		lg.Success("wrote %d finding(s) to %s", store.Len(), rawPath)
		return nil
	}

	renderer := &engine.HtmlRenderer{OutDir: out, Log: lg}
	if err := renderer.RenderAll(store); err != nil {
		return fatalErrorf("gdbsearch: %v", err)
	}
	lg.Success("rendered %d finding(s) to %s", store.Len(), out)
	return nil
}

func renderFromRawFile(lg *engine.Logger) error {
	store, err := engine.LoadRaw(loadRaw)
	if err != nil {
		return usageErrorf("gdbsearch: %v", err)
	}
	out, err := resolveOutDir()
	if err != nil {
		return usageErrorf("gdbsearch: %v", err)
	}
	renderer := &engine.HtmlRenderer{OutDir: out, Log: lg}
	if err := renderer.RenderAll(store); err != nil {
		return fatalErrorf("gdbsearch: %v", err)
	}
	lg.Success("rendered %d finding(s) from %s to %s", store.Len(), loadRaw, out)
	return nil
}

func resolveOutDir() (string, error) {
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return "", fmt.Errorf("output directory %q: %w", outDir, err)
		}
		return outDir, nil
	}
	dir, err := os.MkdirTemp("", "gdbsearch")
	if err != nil {
		return "", fmt.Errorf("creating temp output directory: %w", err)
	}
	return dir, nil
}

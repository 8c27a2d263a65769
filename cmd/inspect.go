package cmd

import (
	"fmt"
	"io"
	"os"
	"os/user"
	"sort"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/askervin/gdbsearch/engine"
)

const inspectHelpText = `
h          display this help text
q          quit
pages      list every (sourceFile, parentCallPath) page in the raw data
page <p>   show the findings recorded on the page whose parent path is <p>
           (<p> is the "-"-joined path encoding used in page filenames,
           "root" for the program entry page)
files      list every source file with at least one finding
`

// inspectCmd is a supplement to the spec's CLI surface: the raw-data file
// format of §6 is otherwise write-only from the command line (produced by
// -d, consumed only implicitly by -l's render). This gives it a
// readline-backed browser, grounded in the teacher's own
// readline-backed debuggerLoop — here repurposed from driving gdb to
// walking an already-collected FindingIndex.
var inspectCmd = &cobra.Command{
	Use:           "inspect <rawfile>",
	Short:         "interactively browse a saved raw-data file",
	Args:          cobra.ExactArgs(1),
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := engine.LoadRaw(args[0])
		if err != nil {
			return usageErrorf("gdbsearch inspect: %v", err)
		}
		return inspectLoop(store)
	},
}

func inspectLoop(store *engine.ReportStore) error {
	historyFile := ""
	if u, err := user.Current(); err == nil {
		historyFile = u.HomeDir + "/.gdbsearch_inspect_history"
	}

	rdline, err := readline.NewEx(&readline.Config{
		Prompt:      "(gdbsearch) ",
		HistoryFile: historyFile,
	})
	if err != nil {
		return fatalErrorf("gdbsearch inspect: %v", err)
	}
	defer rdline.Close()

	color.Yellow("h <enter> for help. %d finding(s) loaded.", store.Len())
	for {
		line, err := rdline.Readline()
		if err == io.EOF || err == readline.ErrInterrupt {
			color.Yellow("Exiting.")
			return nil
		} else if err != nil {
			return fatalErrorf("gdbsearch inspect: %v", err)
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "q":
			return nil
		case "h":
			fmt.Println(inspectHelpText)
		case "pages":
			printPages(store)
		case "files":
			printFiles(store)
		case "page":
			if len(fields) < 2 {
				color.Red("usage: page <encoded-parent-path>")
				continue
			}
			printPage(store, fields[1])
		default:
			color.Red("unknown command %q, try h", fields[0])
		}
	}
}

func printPages(store *engine.ReportStore) {
	for _, g := range store.Pages() {
		label := g.ParentCallPath.Encode()
		if label == "" {
			label = "root"
		}
		fmt.Printf("%-24s %-40s %d finding(s)\n", label, g.Key.SourceFile, len(g.Findings))
	}
}

func printFiles(store *engine.ReportStore) {
	seen := make(map[string]bool)
	var files []string
	for _, f := range store.All() {
		if !seen[f.SourceFile] {
			seen[f.SourceFile] = true
			files = append(files, f.SourceFile)
		}
	}
	sort.Strings(files)
	for _, f := range files {
		fmt.Println(f)
	}
}

func printPage(store *engine.ReportStore, encoded string) {
	if encoded == "root" {
		encoded = ""
	}
	var matched bool
	for _, g := range store.Pages() {
		if g.ParentCallPath.Encode() != encoded {
			continue
		}
		matched = true
		for _, f := range g.Findings {
			fmt.Fprintf(os.Stdout, "%s:%d  %v -> %v  (child %s)\n",
				f.SourceFile, f.LineNumber, f.PrevMetric, f.NewMetric, f.ChildPath().Encode())
		}
	}
	if !matched {
		color.Red("no page with parent path %q", encoded)
	}
}

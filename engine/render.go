package engine

import (
	"bufio"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// barResolution is the fixed character width score bars are rounded to
// (§4.6, testable property 3).
const barResolution = 40

// HtmlRenderer renders the ReportStore's FindingIndex as one HTML page per
// (sourceFile, parentCallPath) pair (§4.6). Rendering conventions beyond
// the structural requirements below are explicitly out of scope (§1); this
// produces plain, dependency-free HTML with no external assets.
type HtmlRenderer struct {
	OutDir string
	Log    *Logger
}

// RenderAll writes every page the store's Findings imply. Filenames are
// the parent CallPath's encoding (§6); when distinct source files happen
// to share one parent CallPath (a frame spanning more than one file),
// every page of that parent CallPath is disambiguated with a "-<basename>"
// suffix so that no two distinct (sourceFile, parentCallPath) pages collide, while the
// common case (one file per call path) keeps the exact filename §6
// specifies.
func (r *HtmlRenderer) RenderAll(store *ReportStore) error {
	if r.Log == nil {
		r.Log = Discard()
	}
	if err := os.MkdirAll(r.OutDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	groups := store.Pages()
	perParent := make(map[string]int)
	for _, g := range groups {
		perParent[g.ParentCallPath.Encode()]++
	}

	seen := make(map[string]int)
	for _, g := range groups {
		parentKey := g.ParentCallPath.Encode()
		name := g.ParentCallPath.PageFilename()
		if perParent[parentKey] > 1 {
			idx := seen[parentKey]
			seen[parentKey] = idx + 1
			base := strings.TrimSuffix(filepath.Base(g.Key.SourceFile), filepath.Ext(g.Key.SourceFile))
			name = fmt.Sprintf("gdbsearch%s-%s.html", parentKey, sanitizeForFilename(base))
		}
		if err := r.renderPage(g, name, store); err != nil {
			return err
		}
	}

	// A store with zero findings still produces an (empty) root page (S1):
	// a no-op target is not left without output.
	if store.Len() == 0 {
		if err := r.renderPage(PageGroup{ParentCallPath: CallPath{}}, "gdbsearch.html", store); err != nil {
			return err
		}
	}
	return nil
}

func sanitizeForFilename(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// childFilename resolves the filename a finding's child page will be
// rendered to, consulting the same collision-disambiguation rule RenderAll
// uses, so links stay correct regardless of which order pages are rendered
// in. When the child path has several pages, the link goes to the first of
// them in Pages order.
func childFilename(store *ReportStore, child CallPath) string {
	key := child.Encode()
	var matches []PageGroup
	for _, g := range store.Pages() {
		if g.ParentCallPath.Encode() == key {
			matches = append(matches, g)
		}
	}
	if len(matches) > 1 {
		src := matches[0].Key.SourceFile
		base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
		return fmt.Sprintf("gdbsearch%s-%s.html", key, sanitizeForFilename(base))
	}
	return child.PageFilename()
}

func (r *HtmlRenderer) renderPage(g PageGroup, filename string, store *ReportStore) error {
	var sourcePath string
	if len(g.Findings) > 0 {
		sourcePath = g.Key.SourceFile
	}

	lines, err := readAllLines(sourcePath)
	if err != nil {
		r.Log.Info("rendering %s: %v", filename, err)
	}

	total := g.TotalDelta()
	byLine := g.ByLine()

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(pageTitle(g)))
	b.WriteString(inlineStyle)
	b.WriteString("</head><body>\n")
	fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(pageTitle(g)))
	if len(g.ParentCallPath) > 0 {
		parent, _, _ := g.ParentCallPath.Parent()
		fmt.Fprintf(&b, "<p><a href=\"%s\">&larr; parent frame</a></p>\n", html.EscapeString(parent.PageFilename()))
	}

	b.WriteString("<table class=\"src\">\n")

	anchorIDs := make([]int, 0, len(byLine))
	for lineNo := range byLine {
		anchorIDs = append(anchorIDs, lineNo)
	}
	sort.Ints(anchorIDs)
	lineToAnchor := make(map[int]int, len(anchorIDs))
	for i, lineNo := range anchorIDs {
		lineToAnchor[lineNo] = i + 1
	}

	for i, text := range lines {
		lineNo := i + 1
		findings := byLine[lineNo]
		barWidth := 0
		if total > 0 {
			var lineDelta float64
			for _, f := range findings {
				lineDelta += f.Delta()
			}
			barWidth = int(lineDelta/total*barResolution + 0.5)
		}

		fmt.Fprintf(&b, "<tr id=\"%s\"><td class=\"ln\">%d</td><td class=\"bar\">%s</td><td class=\"src\"><pre>%s</pre></td><td class=\"links\">",
			lineAnchorName(lineNo), lineNo, renderBar(barWidth), html.EscapeString(text))

		for j, f := range findings {
			childName := childFilename(store, f.ChildPath())
			fmt.Fprintf(&b, `<a class="finding" href="%s" title="frame %d: %v -&gt; %v (delta %v)">[%d]</a> `,
				html.EscapeString(childName), j+1, f.PrevMetric, f.NewMetric, f.Delta(), j+1)
		}
		b.WriteString("</td>")

		if anchor, ok := lineToAnchor[lineNo]; ok {
			writeNavLinks(&b, anchor, len(anchorIDs))
		}
		b.WriteString("</tr>\n")
	}

	b.WriteString("</table>\n</body></html>\n")

	path := filepath.Join(r.OutDir, filename)
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func pageTitle(g PageGroup) string {
	if len(g.ParentCallPath) == 0 {
		return "gdbsearch: program entry"
	}
	return fmt.Sprintf("gdbsearch: frame at %s", g.ParentCallPath)
}

func lineAnchorName(line int) string { return "L" + strconv.Itoa(line) }

func writeNavLinks(b *strings.Builder, anchor, total int) {
	b.WriteString(`<td class="nav">`)
	if anchor > 1 {
		fmt.Fprintf(b, `<a href="#finding-%d">&uarr;</a> `, anchor-1)
	}
	fmt.Fprintf(b, `<a id="finding-%d"></a>`, anchor)
	if anchor < total {
		fmt.Fprintf(b, ` <a href="#finding-%d">&darr;</a>`, anchor+1)
	}
	b.WriteString(`</td>`)
}

func renderBar(width int) string {
	if width < 0 {
		width = 0
	}
	if width > barResolution {
		width = barResolution
	}
	return strings.Repeat("#", width) + strings.Repeat(".", barResolution-width)
}

func readAllLines(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnresolved, err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}

const inlineStyle = `<style>
body { font-family: monospace; }
table.src { border-collapse: collapse; width: 100%; }
td.ln { color: #888; text-align: right; padding-right: 1em; }
td.bar { font-family: monospace; color: #2a6; white-space: pre; }
td.src pre { margin: 0; display: inline; }
a.finding { text-decoration: none; }
</style>
`

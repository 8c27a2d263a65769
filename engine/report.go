package engine

import "sort"

// Finding is the §3 record produced whenever the delta predicate fires on
// a step within a traced frame. parentCallPath ++ [stepIndex] is the
// CallPath enqueued for the callee reached from this line.
type Finding struct {
	SourceFile     string
	LineNumber     int
	PrevMetric     Scalar
	NewMetric      Scalar
	ParentCallPath CallPath
	StepIndex      int
}

// Delta is the magnitude the renderer's score bars are proportional to.
func (f Finding) Delta() float64 {
	return float64(f.NewMetric) - float64(f.PrevMetric)
}

// ChildPath is the CallPath of the callee this finding's line leads to.
func (f Finding) ChildPath() CallPath {
	return f.ParentCallPath.Append(f.StepIndex)
}

// PageKey identifies one rendered page: a (sourceFile, parentCallPath)
// pair, per §4.6.
type PageKey struct {
	SourceFile string
	ParentPath string // CallPath.Encode() of the parent
}

// ReportStore is the append-only Finding collection of §3/§4.6: it
// accepts Findings as they are produced and serves them back grouped by
// page for rendering. It holds no debugger or file-system state, so it
// carries no locking of its own — per §5, the whole engine is
// single-threaded and cooperatively serial.
type ReportStore struct {
	findings []Finding
}

// NewReportStore returns an empty store.
func NewReportStore() *ReportStore {
	return &ReportStore{}
}

// Add records a new Finding.
func (rs *ReportStore) Add(f Finding) {
	rs.findings = append(rs.findings, f)
}

// Len reports how many Findings have been recorded.
func (rs *ReportStore) Len() int { return len(rs.findings) }

// All returns every recorded Finding, in insertion order.
func (rs *ReportStore) All() []Finding {
	out := make([]Finding, len(rs.findings))
	copy(out, rs.findings)
	return out
}

// Sorted returns every Finding ordered by (depth, parentCallPath,
// sourceFile, lineNumber), the order the renderer walks in (§4.6).
func (rs *ReportStore) Sorted() []Finding {
	out := rs.All()
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if len(a.ParentCallPath) != len(b.ParentCallPath) {
			return len(a.ParentCallPath) < len(b.ParentCallPath)
		}
		if ea, eb := a.ParentCallPath.Encode(), b.ParentCallPath.Encode(); ea != eb {
			return ea < eb
		}
		if a.SourceFile != b.SourceFile {
			return a.SourceFile < b.SourceFile
		}
		return a.LineNumber < b.LineNumber
	})
	return out
}

// Pages groups the store's Findings by (sourceFile, parentCallPath),
// returning each group's key and member Findings, ordered the same way
// Sorted is.
func (rs *ReportStore) Pages() []PageGroup {
	sorted := rs.Sorted()
	var groups []PageGroup
	index := make(map[PageKey]int)
	for _, f := range sorted {
		key := PageKey{SourceFile: f.SourceFile, ParentPath: f.ParentCallPath.Encode()}
		if i, ok := index[key]; ok {
			groups[i].Findings = append(groups[i].Findings, f)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, PageGroup{
			Key:            key,
			ParentCallPath: f.ParentCallPath,
			Findings:       []Finding{f},
		})
	}
	return groups
}

// PageGroup is one page's worth of Findings, keyed and ready to render.
type PageGroup struct {
	Key            PageKey
	ParentCallPath CallPath
	Findings       []Finding
}

// TotalDelta sums Delta() across the group, the denominator score bars are
// proportional against (§4.6).
func (g PageGroup) TotalDelta() float64 {
	var total float64
	for _, f := range g.Findings {
		total += f.Delta()
	}
	return total
}

// ByLine groups a page's Findings by line number, preserving the
// per-finding step ordinal needed for multi-finding tooltips (§4.6).
func (g PageGroup) ByLine() map[int][]Finding {
	out := make(map[int][]Finding)
	for _, f := range g.Findings {
		out[f.LineNumber] = append(out[f.LineNumber], f)
	}
	return out
}

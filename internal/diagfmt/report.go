package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"reqtrace/internal/srctrace"
)

// FileCoverageJSON is one file row of the machine-readable trace report.
type FileCoverageJSON struct {
	File         string  `json:"file"`
	LinesTotal   uint32  `json:"lines_total"`
	LinesCovered uint32  `json:"lines_covered"`
	Coverage     float64 `json:"coverage"`
	Markers      int     `json:"markers"`
}

// ReqSiteJSON is one marker site of a requirement.
type ReqSiteJSON struct {
	File       string `json:"file"`
	Kind       string `json:"kind"`
	Line       uint32 `json:"line"`
	RangeBegin uint32 `json:"range_begin,omitempty"`
	RangeEnd   uint32 `json:"range_end,omitempty"`
}

// ReqCoverageJSON lists every site tracing one requirement.
type ReqCoverageJSON struct {
	UID   string        `json:"uid"`
	Sites []ReqSiteJSON `json:"sites"`
}

// TotalsJSON sums the trace report across files.
type TotalsJSON struct {
	Files        int     `json:"files"`
	LinesTotal   uint64  `json:"lines_total"`
	LinesCovered uint64  `json:"lines_covered"`
	Coverage     float64 `json:"coverage"`
}

// TraceOutput is the root of the machine-readable trace report.
type TraceOutput struct {
	Files        []FileCoverageJSON `json:"files"`
	Requirements []ReqCoverageJSON  `json:"requirements"`
	Totals       TotalsJSON         `json:"totals"`
}

var (
	headerStyle = color.New(color.Bold)
	totalStyle  = color.New(color.Bold)
	fullColor   = color.New(color.FgGreen)
	partColor   = color.New(color.FgYellow)
	zeroColor   = color.New(color.FgRed)
)

// BuildTraceOutput assembles the JSON report without serializing it.
// Infos keep their input order; requirements are sorted by UID.
func BuildTraceOutput(infos []*srctrace.SourceFileTraceabilityInfo, index srctrace.ProjectIndex) TraceOutput {
	output := TraceOutput{
		Files:        make([]FileCoverageJSON, 0, len(infos)),
		Requirements: make([]ReqCoverageJSON, 0, len(index)),
	}

	for _, info := range infos {
		output.Files = append(output.Files, FileCoverageJSON{
			File:         info.FilePath,
			LinesTotal:   info.LinesTotal,
			LinesCovered: info.LinesCovered,
			Coverage:     info.Coverage,
			Markers:      len(info.Markers),
		})
		output.Totals.LinesTotal += uint64(info.LinesTotal)
		output.Totals.LinesCovered += uint64(info.LinesCovered)
	}
	output.Totals.Files = len(infos)
	output.Totals.Coverage = srctrace.CoveragePercent(output.Totals.LinesTotal, output.Totals.LinesCovered)

	for _, uid := range index.Reqs() {
		req := ReqCoverageJSON{UID: uid}
		for _, site := range index[uid] {
			req.Sites = append(req.Sites, ReqSiteJSON{
				File:       site.FilePath,
				Kind:       site.Marker.Kind.String(),
				Line:       site.Marker.Line,
				RangeBegin: site.Marker.RangeBegin,
				RangeEnd:   site.Marker.RangeEnd,
			})
		}
		output.Requirements = append(output.Requirements, req)
	}

	return output
}

// TraceJSON serializes the trace report as an indented JSON document.
func TraceJSON(w io.Writer, infos []*srctrace.SourceFileTraceabilityInfo, index srctrace.ProjectIndex) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(BuildTraceOutput(infos, index))
}

// TracePretty renders the per-file coverage table, optionally followed by
// the per-requirement site list.
func TracePretty(w io.Writer, infos []*srctrace.SourceFileTraceabilityInfo, index srctrace.ProjectIndex, opts ReportOpts) {
	pathWidth := len("TOTAL")
	for _, info := range infos {
		p := truncatePath(info.FilePath, opts.Width)
		if n := runewidth.StringWidth(p); n > pathWidth {
			pathWidth = n
		}
	}

	header := fmt.Sprintf("%-*s  %7s  %8s  %6s", pathWidth, "FILE", "LINES", "COVERED", "%")
	if opts.Color {
		header = headerStyle.Sprint(header)
	}
	fmt.Fprintln(w, header)

	var totalLines, totalCovered uint64
	for _, info := range infos {
		p := runewidth.FillRight(truncatePath(info.FilePath, opts.Width), pathWidth)
		pct := fmt.Sprintf("%5.1f", info.Coverage)
		if opts.Color {
			pct = percentColor(info.Coverage).Sprint(pct)
		}
		fmt.Fprintf(w, "%s  %7d  %8d  %s%%\n", p, info.LinesTotal, info.LinesCovered, pct)
		totalLines += uint64(info.LinesTotal)
		totalCovered += uint64(info.LinesCovered)
	}

	totalPct := srctrace.CoveragePercent(totalLines, totalCovered)
	total := fmt.Sprintf("%-*s  %7d  %8d  %5.1f%%", pathWidth, "TOTAL", totalLines, totalCovered, totalPct)
	if opts.Color {
		total = totalStyle.Sprint(total)
	}
	fmt.Fprintln(w, total)

	if opts.ShowReqs && len(index) > 0 {
		fmt.Fprintln(w)
		title := fmt.Sprintf("requirements (%d):", len(index))
		if opts.Color {
			title = headerStyle.Sprint(title)
		}
		fmt.Fprintln(w, title)
		for _, uid := range index.Reqs() {
			sites := make([]string, 0, len(index[uid]))
			for _, site := range index[uid] {
				sites = append(sites, formatSite(site))
			}
			fmt.Fprintf(w, "  %s: %s\n", uid, strings.Join(sites, ", "))
		}
	}
}

// formatSite renders one marker site as path:line or path:begin-end.
func formatSite(site srctrace.ReqSite) string {
	m := site.Marker
	if m.HasRange() && m.RangeEnd != m.RangeBegin {
		return fmt.Sprintf("%s:%d-%d", site.FilePath, m.RangeBegin, m.RangeEnd)
	}
	return fmt.Sprintf("%s:%d", site.FilePath, m.Line)
}

func percentColor(pct float64) *color.Color {
	switch {
	case pct >= 100:
		return fullColor
	case pct > 0:
		return partColor
	default:
		return zeroColor
	}
}

func truncatePath(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}

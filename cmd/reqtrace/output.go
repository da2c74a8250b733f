package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"reqtrace/internal/diag"
	"reqtrace/internal/diagfmt"
	"reqtrace/internal/driver"
	"reqtrace/internal/source"
)

// fileDiagnostics pairs a project-relative path with its bag for rendering.
type fileDiagnostics struct {
	Path string
	Bag  *diag.Bag
}

func collectCheckEntries(files []driver.CheckFileResult) []fileDiagnostics {
	entries := make([]fileDiagnostics, 0, len(files))
	for i := range files {
		entries = append(entries, fileDiagnostics{Path: files[i].Path, Bag: files[i].Bag})
	}
	return entries
}

func collectTraceEntries(docs []driver.CheckFileResult, files []driver.TraceFileResult) []fileDiagnostics {
	entries := make([]fileDiagnostics, 0, len(docs)+len(files))
	for i := range docs {
		entries = append(entries, fileDiagnostics{Path: docs[i].Path, Bag: docs[i].Bag})
	}
	for i := range files {
		entries = append(entries, fileDiagnostics{Path: files[i].Path, Bag: files[i].Bag})
	}
	return entries
}

// printPrettyDiagnostics renders the non-empty bags, one header block per
// file, separated by blank lines.
func printPrettyDiagnostics(out io.Writer, fs *source.FileSet, entries []fileDiagnostics, opts diagfmt.PrettyOpts) {
	printed := 0
	for _, entry := range entries {
		if entry.Bag.Len() == 0 {
			continue
		}
		if printed > 0 {
			fmt.Fprintln(out)
		}
		entry.Bag.Sort()
		fmt.Fprintf(out, "== %s ==\n", entry.Path)
		diagfmt.Pretty(out, entry.Bag, fs, opts)
		printed++
	}
}

// buildFilesJSON keys every file's diagnostics by its project-relative path.
func buildFilesJSON(fs *source.FileSet, entries []fileDiagnostics, opts diagfmt.JSONOpts) map[string]diagfmt.DiagnosticsOutput {
	output := make(map[string]diagfmt.DiagnosticsOutput, len(entries))
	for _, entry := range entries {
		entry.Bag.Sort()
		output[entry.Path] = diagfmt.BuildDiagnosticsOutput(entry.Bag, fs, opts)
	}
	return output
}

// runDiagnosticJSON is a run-scope diagnostic: no file, no position.
type runDiagnosticJSON struct {
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// runReportJSON carries everything a run reports about itself rather than
// about a file.
type runReportJSON struct {
	Diagnostics []runDiagnosticJSON    `json:"diagnostics,omitempty"`
	Timings     []driver.TimingPayload `json:"timings,omitempty"`
}

// buildRunJSON converts the pipeline bag; timing entries move into their
// decoded payload form. Returns nil when there is nothing to report.
func buildRunJSON(bag *diag.Bag) *runReportJSON {
	if bag == nil || bag.Len() == 0 {
		return nil
	}
	report := &runReportJSON{
		Timings: driver.DecodeTimings(bag),
	}
	for _, d := range bag.Items() {
		if d.Code == diag.ObsTimings {
			continue
		}
		report.Diagnostics = append(report.Diagnostics, runDiagnosticJSON{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Message:  d.Message,
		})
	}
	if len(report.Diagnostics) == 0 && len(report.Timings) == 0 {
		return nil
	}
	return report
}

// printRunDiagnostics prints run-scope warnings as plain lines. Timing
// entries are skipped here; printRunTimings renders those.
func printRunDiagnostics(out io.Writer, bag *diag.Bag, useColor bool) {
	if bag == nil {
		return
	}
	for _, d := range bag.Items() {
		if d.Code == diag.ObsTimings {
			continue
		}
		sev := d.Severity.String()
		if useColor {
			sev = severityTint(d.Severity).Sprint(sev)
		}
		fmt.Fprintf(out, "%s %s: %s\n", sev, d.Code.ID(), d.Message)
	}
}

func severityTint(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return color.New(color.FgRed, color.Bold)
	case diag.SevWarning:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgCyan)
	}
}

// countSeverities tallies errors and warnings across the per-file bags.
func countSeverities(entries []fileDiagnostics) (errs, warns int) {
	for _, entry := range entries {
		for _, d := range entry.Bag.Items() {
			switch d.Severity {
			case diag.SevError:
				errs++
			case diag.SevWarning:
				warns++
			}
		}
	}
	return errs, warns
}

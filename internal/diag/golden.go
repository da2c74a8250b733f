package diag

import (
	"cmp"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"reqtrace/internal/source"
)

// shortLine is one resolved diagnostic ready for the short report.
type shortLine struct {
	path     string
	line     uint32
	col      uint32
	severity string
	code     string
	message  string
}

// FormatGoldenDiagnostics renders diagnostics in the one-line-per-entry
// short form used by `--format short` and by golden assertions in tests:
//
//	path:line:col: severity CODE: message
//
// Lines are sorted by location, so the output is stable across runs and
// worker orderings. The result is empty when nothing resolves.
func FormatGoldenDiagnostics(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	if fs == nil || len(diags) == 0 {
		return ""
	}

	lines := make([]shortLine, 0, len(diags))
	for i := range diags {
		d := &diags[i]
		if loc, ok := resolveShort(fs, d.Primary); ok {
			loc.severity = severityLabel(d.Severity)
			loc.code = d.Code.ID()
			loc.message = flattenMessage(d.Message)
			lines = append(lines, loc)
		}
		if !includeNotes {
			continue
		}
		for _, note := range d.Notes {
			if loc, ok := resolveShort(fs, note.Span); ok {
				loc.severity = "note"
				loc.code = d.Code.ID()
				loc.message = flattenMessage(note.Msg)
				lines = append(lines, loc)
			}
		}
	}

	slices.SortStableFunc(lines, func(x, y shortLine) int {
		if c := cmp.Compare(x.path, y.path); c != 0 {
			return c
		}
		if c := cmp.Compare(x.line, y.line); c != 0 {
			return c
		}
		if c := cmp.Compare(x.col, y.col); c != 0 {
			return c
		}
		if c := cmp.Compare(x.severity, y.severity); c != 0 {
			return c
		}
		if c := cmp.Compare(x.code, y.code); c != 0 {
			return c
		}
		return cmp.Compare(x.message, y.message)
	})

	rendered := make([]string, len(lines))
	for i, l := range lines {
		rendered[i] = fmt.Sprintf("%s:%d:%d: %s %s: %s", l.path, l.line, l.col, l.severity, l.code, l.message)
	}
	return strings.Join(rendered, "\n")
}

// resolveShort maps a span to its project-relative location. Spans whose
// file id is not in the set resolve to nothing instead of panicking; the
// run-scope bag carries such spans.
func resolveShort(fs *source.FileSet, span source.Span) (shortLine, bool) {
	if int(span.File) >= fs.Len() {
		return shortLine{}, false
	}
	file := fs.Get(span.File)
	start, _ := fs.Resolve(span)
	path := filepath.ToSlash(file.FormatPath("relative", fs.BaseDir()))
	return shortLine{
		path: strings.TrimPrefix(path, "./"),
		line: start.Line,
		col:  start.Col,
	}, true
}

func severityLabel(sev Severity) string {
	switch sev {
	case SevError:
		return "error"
	case SevWarning:
		return "warning"
	}
	return "info"
}

// flattenMessage folds a multi-line message onto one line.
func flattenMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}

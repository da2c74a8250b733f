package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"reqtrace/internal/diag"
	"reqtrace/internal/source"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	hintColor    = color.New(color.FgGreen)
	gutterColor  = color.New(color.FgBlue)
)

// Pretty renders diagnostics for humans, one block per diagnostic:
//
//	<path>:<line>:<col>: <SEV> <CODE>: <Message>
//	  <line> | <source text>
//	         | ^~~~~
//	  Hint: ...
//
// It walks bag.Items() as-is; callers sort the bag first.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	for _, d := range bag.Items() {
		writePretty(w, d, fs, opts)
	}
}

// PrettyOne renders a single diagnostic in the same format as Pretty.
func PrettyOne(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	writePretty(w, d, fs, opts)
}

func writePretty(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	start, end := fs.Resolve(d.Primary)
	path := renderPath(fs, d.Primary.File, opts.PathMode)

	sev := d.Severity.String()
	if opts.Color {
		sev = severityColor(d.Severity).Sprint(sev)
	}
	fmt.Fprintf(w, "%s:%d:%d: %s %s: %s\n", path, start.Line, start.Col, sev, d.Code.ID(), d.Message)

	if !d.Primary.Empty() {
		writeSourceContext(w, fs, d.Primary, start, end, opts)
	}

	if opts.ShowHints {
		if d.Hint != "" {
			label := "Hint:"
			if opts.Color {
				label = hintColor.Sprint(label)
			}
			fmt.Fprintf(w, "  %s %s\n", label, d.Hint)
		}
		if d.Example != "" {
			label := "Example:"
			if opts.Color {
				label = hintColor.Sprint(label)
			}
			fmt.Fprintf(w, "  %s\n", label)
			for _, line := range strings.Split(d.Example, "\n") {
				fmt.Fprintf(w, "    %s\n", line)
			}
		}
	}

	if opts.ShowNotes {
		for _, n := range d.Notes {
			if n.Span.Empty() {
				fmt.Fprintf(w, "  note: %s\n", n.Msg)
				continue
			}
			nstart, _ := fs.Resolve(n.Span)
			npath := renderPath(fs, n.Span.File, opts.PathMode)
			fmt.Fprintf(w, "  note: %s:%d:%d: %s\n", npath, nstart.Line, nstart.Col, n.Msg)
		}
	}
}

// writeSourceContext prints the primary line with a caret underline plus
// opts.Context lines of surrounding source. A negative Context suppresses
// the block entirely.
func writeSourceContext(w io.Writer, fs *source.FileSet, span source.Span, start, end source.LineCol, opts PrettyOpts) {
	if opts.Context < 0 {
		return
	}
	f := fs.Get(span.File)
	lineCount := f.LineCount()
	if start.Line == 0 || start.Line > lineCount {
		return
	}

	ctx := uint32(opts.Context)
	first := start.Line
	if first > ctx {
		first -= ctx
	} else {
		first = 1
	}
	last := start.Line + ctx
	if last > lineCount {
		last = lineCount
	}
	gutterWidth := len(fmt.Sprintf("%d", last))

	for ln := first; ln <= last; ln++ {
		text := f.GetLine(ln)
		gutter := fmt.Sprintf(" %*d |", gutterWidth, ln)
		if opts.Color {
			gutter = gutterColor.Sprint(gutter)
		}
		fmt.Fprintf(w, "%s %s\n", gutter, text)
		if ln == start.Line {
			writeCaret(w, text, start, end, gutterWidth, opts)
		}
	}
}

// writeCaret underlines [start.Col, endCol) on the primary line. Spans that
// run past the line end are clamped to it.
func writeCaret(w io.Writer, lineText string, start, end source.LineCol, gutterWidth int, opts PrettyOpts) {
	endCol := end.Col
	if end.Line != start.Line {
		endCol = uint32(len(lineText)) + 1
	}
	width := 1
	if endCol > start.Col {
		width = int(endCol - start.Col)
	}
	if max := len(lineText) - int(start.Col) + 1; width > max && max > 0 {
		width = max
	}

	caret := "^" + strings.Repeat("~", width-1)
	if opts.Color {
		caret = errorColor.Sprint(caret)
	}
	gutter := fmt.Sprintf(" %*s |", gutterWidth, "")
	if opts.Color {
		gutter = gutterColor.Sprint(gutter)
	}
	fmt.Fprintf(w, "%s %s%s\n", gutter, strings.Repeat(" ", int(start.Col)-1), caret)
}

func severityColor(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return errorColor
	case diag.SevWarning:
		return warningColor
	default:
		return infoColor
	}
}

func renderPath(fs *source.FileSet, id source.FileID, mode PathMode) string {
	f := fs.Get(id)
	switch mode {
	case PathModeAbsolute:
		return f.FormatPath("absolute", "")
	case PathModeRelative:
		return f.FormatPath("relative", fs.BaseDir())
	case PathModeBasename:
		return f.FormatPath("basename", "")
	default:
		return f.FormatPath("auto", "")
	}
}

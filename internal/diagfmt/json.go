package diagfmt

import (
	"encoding/json"
	"io"

	"reqtrace/internal/diag"
	"reqtrace/internal/source"
)

// LocationJSON is a file location in machine-readable output. Byte offsets
// are always present; line and column fields appear only when the caller
// asked for resolved positions.
type LocationJSON struct {
	File      string `json:"file"`
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	StartLine uint32 `json:"start_line,omitempty"`
	StartCol  uint32 `json:"start_col,omitempty"`
	EndLine   uint32 `json:"end_line,omitempty"`
	EndCol    uint32 `json:"end_col,omitempty"`
}

// NoteJSON is an attached note in machine-readable output.
type NoteJSON struct {
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
}

// DiagnosticJSON is one diagnostic in machine-readable output. The field
// names form the wire contract consumed by CI scripts; changing a tag is a
// breaking change.
type DiagnosticJSON struct {
	Severity string       `json:"severity"`
	Code     string       `json:"code"`
	Message  string       `json:"message"`
	Hint     string       `json:"hint,omitempty"`
	Example  string       `json:"example,omitempty"`
	Location LocationJSON `json:"location"`
	Notes    []NoteJSON   `json:"notes,omitempty"`
}

// DiagnosticsOutput is the root of the JSON diagnostics document.
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
}

func makeLocation(fs *source.FileSet, span source.Span, opts JSONOpts) LocationJSON {
	loc := LocationJSON{
		File:      renderPath(fs, span.File, opts.PathMode),
		StartByte: span.Start,
		EndByte:   span.End,
	}
	if !opts.IncludePositions {
		return loc
	}
	startPos, endPos := fs.Resolve(span)
	loc.StartLine = startPos.Line
	loc.StartCol = startPos.Col
	loc.EndLine = endPos.Line
	loc.EndCol = endPos.Col
	return loc
}

func makeDiagnostic(d diag.Diagnostic, fs *source.FileSet, opts JSONOpts) DiagnosticJSON {
	out := DiagnosticJSON{
		Severity: d.Severity.String(),
		Code:     d.Code.ID(),
		Message:  d.Message,
		Location: makeLocation(fs, d.Primary, opts),
	}
	if opts.IncludeHints {
		out.Hint = d.Hint
		out.Example = d.Example
	}

	// Timing reports carry their payload in notes, so those stay in even
	// when notes are switched off.
	if len(d.Notes) == 0 || (!opts.IncludeNotes && d.Code != diag.ObsTimings) {
		return out
	}
	out.Notes = make([]NoteJSON, len(d.Notes))
	for i, note := range d.Notes {
		out.Notes[i] = NoteJSON{
			Message:  note.Msg,
			Location: makeLocation(fs, note.Span, opts),
		}
	}
	return out
}

// BuildDiagnosticsOutput assembles the JSON document without serializing it.
// Truncation via opts.Max affects only the output; the bag is untouched.
func BuildDiagnosticsOutput(bag *diag.Bag, fs *source.FileSet, opts JSONOpts) DiagnosticsOutput {
	items := bag.Items()
	if opts.Max > 0 && opts.Max < len(items) {
		items = items[:opts.Max]
	}

	out := DiagnosticsOutput{
		Diagnostics: make([]DiagnosticJSON, 0, len(items)),
		Count:       len(items),
	}
	for _, d := range items {
		out.Diagnostics = append(out.Diagnostics, makeDiagnostic(d, fs, opts))
	}
	return out
}

// JSON serializes the bag as an indented JSON document.
func JSON(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildDiagnosticsOutput(bag, fs, opts))
}

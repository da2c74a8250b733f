// Package srctrace scans source files for requirement markers, matches
// begin/end pairs with a stack automaton, and computes line coverage. The
// scan is language-agnostic raw-text processing: a marker occupies one
// line, and anything that does not match the marker shape is ordinary
// source text.
package srctrace

import (
	"strings"

	"reqtrace/internal/source"
)

// MarkerKind tags the marker variants.
type MarkerKind uint8

const (
	// MarkerBegin opens a range covering the lines down to its matching end.
	MarkerBegin MarkerKind = iota
	// MarkerEnd closes the innermost open range.
	MarkerEnd
	// MarkerLine covers exactly its own line.
	MarkerLine
	// MarkerForward is synthesized from a document's File reference; the
	// scanner never produces it.
	MarkerForward
)

func (k MarkerKind) String() string {
	switch k {
	case MarkerBegin:
		return "begin"
	case MarkerEnd:
		return "end"
	case MarkerLine:
		return "line"
	case MarkerForward:
		return "forward"
	}
	return "unknown"
}

// Marker is one requirement marker. Line and Col locate the opening bracket
// (1-based). RangeBegin/RangeEnd are the inclusive line range the marker
// covers once matching resolves it; zero means unresolved. After a
// successful match both ends of a begin/end pair know the full range.
type Marker struct {
	Kind  MarkerKind
	Reqs  []string
	Nodoc bool
	Span  source.Span
	Line  uint32
	Col   uint32

	RangeBegin uint32
	RangeEnd   uint32
}

// HasRange reports whether matching resolved the covered line range.
func (m *Marker) HasRange() bool {
	return m.RangeBegin != 0 && m.RangeEnd != 0
}

// ReqsDump joins the requirement ids with ", " for diagnostics and reports.
func (m *Marker) ReqsDump() string {
	return strings.Join(m.Reqs, ", ")
}

// NewForwardRangeMarker builds a marker for a requirement that claims a
// file region through a document reference rather than an in-file marker.
// The range is known at construction.
func NewForwardRangeMarker(req string, begin, end uint32) *Marker {
	return &Marker{
		Kind:       MarkerForward,
		Reqs:       []string{req},
		Line:       begin,
		Col:        1,
		RangeBegin: begin,
		RangeEnd:   end,
	}
}

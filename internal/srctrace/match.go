package srctrace

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"reqtrace/internal/diag"
	"reqtrace/internal/source"
)

// parseContext carries the automaton state while markers stream through in
// file order.
type parseContext struct {
	markers []*Marker
	stack   []*Marker
	reqs    map[string][]*Marker
}

// MatchMarkers runs the range-matching automaton over scanned markers. It
// returns the surviving markers in file order and the requirement index.
// Markers inside nodoc ranges are dropped; end markers are kept but never
// indexed. The first violation aborts the file.
func MatchMarkers(fs *source.FileSet, scanned []*Marker) ([]*Marker, map[string][]*Marker, error) {
	ctx := parseContext{reqs: make(map[string][]*Marker)}
	for _, m := range scanned {
		if err := ctx.process(fs, m); err != nil {
			return nil, nil, err
		}
	}
	if len(ctx.stack) > 0 {
		return nil, nil, errUnmatchedRange(fs, ctx.stack)
	}
	return ctx.markers, ctx.reqs, nil
}

func (ctx *parseContext) process(fs *source.FileSet, m *Marker) error {
	// Nodoc markers manage the suppression stack and never reach the
	// output, whether or not an outer nodoc range is open.
	if m.Nodoc {
		if m.Kind == MarkerBegin {
			ctx.stack = append(ctx.stack, m)
			return nil
		}
		top, ok := ctx.pop()
		if !ok {
			return errEndWithoutBegin(fs, m)
		}
		if !top.Nodoc {
			return errBeginEndMismatch(fs, top, m)
		}
		return nil
	}

	if top, open := ctx.top(); open && top.Nodoc {
		// Inside a nodoc range every ordinary marker is invisible.
		return nil
	}

	switch m.Kind {
	case MarkerBegin:
		m.RangeBegin = m.Line
		ctx.markers = append(ctx.markers, m)
		ctx.stack = append(ctx.stack, m)
		ctx.index(m)

	case MarkerEnd:
		top, ok := ctx.pop()
		if !ok {
			return errEndWithoutBegin(fs, m)
		}
		ctx.markers = append(ctx.markers, m)
		if !slices.Equal(top.Reqs, m.Reqs) {
			return errBeginEndMismatch(fs, top, m)
		}
		top.RangeEnd = m.Line
		m.RangeBegin = top.RangeBegin
		m.RangeEnd = m.Line

	case MarkerLine:
		m.RangeBegin = m.Line
		m.RangeEnd = m.Line
		ctx.markers = append(ctx.markers, m)
		ctx.index(m)
	}
	return nil
}

func (ctx *parseContext) top() (*Marker, bool) {
	if len(ctx.stack) == 0 {
		return nil, false
	}
	return ctx.stack[len(ctx.stack)-1], true
}

func (ctx *parseContext) pop() (*Marker, bool) {
	top, ok := ctx.top()
	if !ok {
		return nil, false
	}
	ctx.stack = ctx.stack[:len(ctx.stack)-1]
	return top, true
}

func (ctx *parseContext) index(m *Marker) {
	for _, req := range m.Reqs {
		ctx.reqs[req] = append(ctx.reqs[req], m)
	}
}

const rangeExample = "# [REQ-001]\nContent...\n# [/REQ-001]"

func errEndWithoutBegin(fs *source.FileSet, end *Marker) error {
	return diag.Semantic(fs, diag.NewError(
		diag.RngEndWithoutBegin, end.Span,
		"TRACE RANGE: END marker without preceding BEGIN marker",
	).WithHint(
		"STRICT RANGE shall be opened with START marker and ended with END marker.",
	).WithExample(rangeExample))
}

func errBeginEndMismatch(fs *source.FileSet, begin, end *Marker) error {
	return diag.Semantic(fs, diag.NewError(
		diag.RngBeginEndMismatch, end.Span,
		"TRACE RANGE: BEGIN and END requirements mismatch",
	).WithHint(fmt.Sprintf(
		"STRICT RANGE marker should START and END with the same requirement(s): '%s' != '%s'.",
		begin.ReqsDump(), end.ReqsDump(),
	)).WithExample(rangeExample))
}

// errUnmatchedRange reports the earliest begin marker still open at the end
// of the file; any further open markers are listed in the hint.
func errUnmatchedRange(fs *source.FileSet, stack []*Marker) error {
	d := diag.NewError(
		diag.RngUnmatchedRange, stack[0].Span,
		"Unmatched range marker found in source file.",
	)
	if len(stack) > 1 {
		lines := make([]string, 0, len(stack)-1)
		for _, m := range stack[1:] {
			lines = append(lines, strconv.FormatUint(uint64(m.Line), 10))
		}
		d = d.WithHint(fmt.Sprintf(
			"The range markers are also unmatched on lines: [%s].",
			strings.Join(lines, ", "),
		))
	}
	d = d.WithExample(
		"Each range marker must be matched with a closing marker. Example:\n# [REQ-001]\n...\n# [/REQ-001]",
	)
	return diag.Semantic(fs, d)
}

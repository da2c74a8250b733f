package srctrace

import (
	"fmt"

	"fortio.org/safecast"

	"reqtrace/internal/source"
)

// commentLeaders are the comment openers a marker may hide behind. Order
// matters: two-byte leaders are tried before their one-byte prefixes.
var commentLeaders = []string{"//", "/*", "--", "#", ";", "*"}

// ScanMarkers walks the file line by line and returns every marker in file
// order. A line is a marker only when, apart from leading whitespace, an
// optional comment leader, and an optional trailing "*/", it consists of a
// single bracketed marker body. Everything else is ordinary source text.
func ScanMarkers(f *source.File) []*Marker {
	contentLen, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("content length overflow: %w", err))
	}

	var markers []*Marker
	var lineStart uint32
	lineNum := uint32(1)
	for _, nl := range f.LineIdx {
		if m := scanLine(f, lineStart, nl, lineNum); m != nil {
			markers = append(markers, m)
		}
		lineStart = nl + 1
		lineNum++
	}
	if lineStart < contentLen {
		if m := scanLine(f, lineStart, contentLen, lineNum); m != nil {
			markers = append(markers, m)
		}
	}
	return markers
}

func scanLine(f *source.File, start, end, lineNum uint32) *Marker {
	c := newCursor(f, start, end)
	c.skipSpace()
	for _, leader := range commentLeaders {
		if c.eatSeq(leader) {
			break
		}
	}
	c.skipSpace()

	if c.peek() != '[' {
		return nil
	}
	bracket := c.mark()
	c.bump()

	m := scanBody(&c)
	if m == nil {
		return nil
	}
	span := c.spanFrom(bracket)

	// The bracket must be the last thing on the line, save for a block
	// comment closer.
	c.skipSpace()
	c.eatSeq("*/")
	c.skipSpace()
	if !c.eof() {
		return nil
	}

	m.Span = span
	m.Line = lineNum
	m.Col = bracket - start + 1
	return m
}

// scanBody parses the text between the brackets. The cursor stands just
// past '['; on success it stands just past ']'.
func scanBody(c *cursor) *Marker {
	isEnd := c.eat('/')

	first, ok := scanReqID(c)
	if !ok {
		return nil
	}

	if first == "nodoc" && c.peek() == ']' {
		c.bump()
		kind := MarkerBegin
		if isEnd {
			kind = MarkerEnd
		}
		return &Marker{Kind: kind, Reqs: []string{"nodoc"}, Nodoc: true}
	}

	if !isEnd && first == "line" && c.eat(':') {
		c.skipSpace()
		reqs, ok := scanReqList(c)
		if !ok || !c.eat(']') {
			return nil
		}
		return &Marker{Kind: MarkerLine, Reqs: reqs}
	}

	reqs, ok := scanReqListAfter(c, first)
	if !ok || !c.eat(']') {
		return nil
	}
	kind := MarkerBegin
	if isEnd {
		kind = MarkerEnd
	}
	return &Marker{Kind: kind, Reqs: reqs}
}

func scanReqList(c *cursor) ([]string, bool) {
	first, ok := scanReqID(c)
	if !ok {
		return nil, false
	}
	return scanReqListAfter(c, first)
}

// scanReqListAfter continues a comma-separated requirement list whose first
// id is already consumed. Spaces around commas are tolerated.
func scanReqListAfter(c *cursor, first string) ([]string, bool) {
	reqs := []string{first}
	for {
		c.skipSpace()
		if !c.eat(',') {
			return reqs, true
		}
		c.skipSpace()
		id, ok := scanReqID(c)
		if !ok {
			return nil, false
		}
		reqs = append(reqs, id)
	}
}

// scanReqID consumes one requirement id: a letter followed by letters,
// digits, '_', '.', or '-'.
func scanReqID(c *cursor) (string, bool) {
	start := c.mark()
	if !isIDStart(c.peek()) {
		return "", false
	}
	c.bump()
	for isIDPart(c.peek()) {
		c.bump()
	}
	return c.text(start), true
}

func isIDStart(b byte) bool {
	return b >= 'A' && b <= 'Z' || b >= 'a' && b <= 'z'
}

func isIDPart(b byte) bool {
	return isIDStart(b) || b >= '0' && b <= '9' || b == '_' || b == '.' || b == '-'
}

package srctrace

import "reqtrace/internal/source"

// cursor walks the bytes of a single line window [off, limit).
type cursor struct {
	file  *source.File
	off   uint32
	limit uint32
}

func newCursor(f *source.File, start, end uint32) cursor {
	return cursor{file: f, off: start, limit: end}
}

func (c *cursor) eof() bool {
	return c.off >= c.limit
}

// peek returns the current byte or 0 at the end of the window.
func (c *cursor) peek() byte {
	if c.eof() {
		return 0
	}
	return c.file.Content[c.off]
}

func (c *cursor) bump() byte {
	b := c.peek()
	if !c.eof() {
		c.off++
	}
	return b
}

// eat consumes b if it is the current byte.
func (c *cursor) eat(b byte) bool {
	if c.peek() != b {
		return false
	}
	c.off++
	return true
}

// eatSeq consumes s if the window continues with it.
func (c *cursor) eatSeq(s string) bool {
	end := c.off + uint32(len(s))
	if end > c.limit {
		return false
	}
	if string(c.file.Content[c.off:end]) != s {
		return false
	}
	c.off = end
	return true
}

func (c *cursor) skipSpace() {
	for {
		b := c.peek()
		if b != ' ' && b != '\t' {
			return
		}
		c.off++
	}
}

// mark returns the current offset for later spanFrom/text calls.
func (c *cursor) mark() uint32 {
	return c.off
}

func (c *cursor) spanFrom(start uint32) source.Span {
	return source.Span{File: c.file.ID, Start: start, End: c.off}
}

func (c *cursor) text(start uint32) string {
	return string(c.file.Content[start:c.off])
}

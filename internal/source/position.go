package source

import "fmt"

// Position is a fully resolved source location: file path plus 1-based
// line and column. Unlike Span it carries no FileSet dependency, so it can
// be copied into error values and across goroutines freely.
type Position struct {
	Path string
	Line uint32
	Col  uint32
}

// String renders the conventional path:line:col form.
func (p Position) String() string {
	return fmt.Sprintf("%s:%d:%d", p.Path, p.Line, p.Col)
}

// IsZero reports whether the position carries no location at all.
func (p Position) IsZero() bool {
	return p.Path == "" && p.Line == 0 && p.Col == 0
}

// PositionFor resolves the start of span into a Position using the file's
// path as recorded in the set.
func (fileSet *FileSet) PositionFor(span Span) Position {
	f := fileSet.Get(span.File)
	start, _ := fileSet.Resolve(span)
	return Position{Path: f.Path, Line: start.Line, Col: start.Col}
}

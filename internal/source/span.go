package source

import "fmt"

// Span is a half-open byte range [Start, End) inside a single file. The
// zero span is what run-scope diagnostics carry; rendering layers must
// tolerate it.
type Span struct {
	File  FileID
	Start uint32
	End   uint32
}

// Empty reports whether the span covers no bytes.
func (s Span) Empty() bool { return s.Start == s.End }

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}

package diag

import (
	"reqtrace/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

// Diagnostic is the central record produced by every phase. Hint and
// Example are optional companion texts: Hint points at the likely cause,
// Example shows well-formed input. Both survive into rendered output.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Hint     string
	Example  string
	Primary  source.Span
	Notes    []Note
}

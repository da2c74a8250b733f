package diag

import (
	"errors"
	"fmt"
	"strings"

	"reqtrace/internal/source"
)

// SemanticError is the error value returned when a document or source file
// violates the traceability rules. It wraps the underlying Diagnostic
// together with a fully resolved position, so callers can render it without
// access to the FileSet that produced it.
type SemanticError struct {
	Diag Diagnostic
	Pos  source.Position
}

// NewSemanticError pairs a diagnostic with its resolved position.
func NewSemanticError(d Diagnostic, pos source.Position) *SemanticError {
	return &SemanticError{Diag: d, Pos: pos}
}

// Semantic resolves the diagnostic's primary span through the file set and
// wraps both into a SemanticError.
func Semantic(fs *source.FileSet, d Diagnostic) *SemanticError {
	return NewSemanticError(d, fs.PositionFor(d.Primary))
}

func (e *SemanticError) Error() string {
	if e.Pos.IsZero() {
		return e.Diag.Message
	}
	return fmt.Sprintf("%s: %s", e.Pos, e.Diag.Message)
}

func (e *SemanticError) Code() Code      { return e.Diag.Code }
func (e *SemanticError) Title() string   { return e.Diag.Message }
func (e *SemanticError) Hint() string    { return e.Diag.Hint }
func (e *SemanticError) Example() string { return e.Diag.Example }

// PrintMessage renders the canonical multi-line report:
//
//	error: could not parse file: <path>.
//	Semantic error: <title>
//	Location: <path>:<line>:<col>
//	Hint: <hint>        (only when present)
//	Example:            (only when present)
//	<example>
//
// Non-semantic codes (document syntax, I/O) carry the "Syntax error" label
// instead.
func (e *SemanticError) PrintMessage() string {
	label := "Semantic error"
	if !e.Diag.Code.IsSemantic() {
		label = "Syntax error"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "error: could not parse file: %s.\n", e.Pos.Path)
	fmt.Fprintf(&b, "%s: %s\n", label, e.Diag.Message)
	fmt.Fprintf(&b, "Location: %s:%d:%d", e.Pos.Path, e.Pos.Line, e.Pos.Col)
	if e.Diag.Hint != "" {
		fmt.Fprintf(&b, "\nHint: %s", e.Diag.Hint)
	}
	if e.Diag.Example != "" {
		fmt.Fprintf(&b, "\nExample:\n%s", e.Diag.Example)
	}
	return b.String()
}

// AsSemantic unwraps err into a *SemanticError when one is in the chain.
func AsSemantic(err error) (*SemanticError, bool) {
	var se *SemanticError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

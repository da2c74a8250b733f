package rdoc

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// typeExpr is the participle AST for a grammar TYPE: expression, e.g.
// "String", "SingleChoice(Draft, Active)", "Reference(Parent, File)".
type typeExpr struct {
	Name string   `parser:"@Ident"`
	Args []string `parser:"( \"(\" @Ident ( \",\" @Ident )* \")\" )?"`
}

var typeExprLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Ident", Pattern: `[A-Za-z0-9_][A-Za-z0-9_.-]*`},
	{Name: "Punct", Pattern: `[(),]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var typeExprParser = participle.MustBuild[typeExpr](
	participle.Lexer(typeExprLexer),
	participle.Elide("Whitespace"),
)

// ParseFieldType compiles one TYPE: expression into a FieldType. The error
// is a plain description; the reader attaches location and code.
func ParseFieldType(expr string) (FieldType, error) {
	ast, err := typeExprParser.ParseString("", expr)
	if err != nil {
		return FieldType{}, fmt.Errorf("malformed field type expression %q: %w", expr, err)
	}

	switch ast.Name {
	case "String":
		if len(ast.Args) > 0 {
			return FieldType{}, fmt.Errorf("field type String takes no options")
		}
		return FieldType{Kind: FieldString}, nil

	case "Tag":
		if len(ast.Args) > 0 {
			return FieldType{}, fmt.Errorf("field type Tag takes no options")
		}
		return FieldType{Kind: FieldTag}, nil

	case "SingleChoice":
		if len(ast.Args) == 0 {
			return FieldType{}, fmt.Errorf("field type SingleChoice requires at least one option")
		}
		return FieldType{Kind: FieldSingleChoice, Options: ast.Args}, nil

	case "MultipleChoice":
		if len(ast.Args) == 0 {
			return FieldType{}, fmt.Errorf("field type MultipleChoice requires at least one option")
		}
		return FieldType{Kind: FieldMultipleChoice, Options: ast.Args}, nil

	case "Reference":
		// Bare Reference admits every kind.
		if len(ast.Args) == 0 {
			return FieldType{Kind: FieldReference, RefKinds: allRefKinds}, nil
		}
		kinds := make([]RefKind, 0, len(ast.Args))
		for _, arg := range ast.Args {
			kind, ok := ParseRefKind(arg)
			if !ok {
				return FieldType{}, fmt.Errorf("unknown reference type: %s", arg)
			}
			kinds = append(kinds, kind)
		}
		return FieldType{Kind: FieldReference, RefKinds: kinds}, nil

	default:
		return FieldType{}, fmt.Errorf("unknown field type: %s", ast.Name)
	}
}

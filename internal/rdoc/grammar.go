package rdoc

import (
	"strings"

	"reqtrace/internal/source"
)

// FieldKind tags the grammar field type variants.
type FieldKind uint8

const (
	// FieldString accepts any value.
	FieldString FieldKind = iota
	// FieldSingleChoice accepts exactly one of the declared options.
	FieldSingleChoice
	// FieldMultipleChoice accepts a ", "-separated subset of the options.
	FieldMultipleChoice
	// FieldTag accepts a ", "-separated list of free-form tags.
	FieldTag
	// FieldReference marks the field whose value is the node's REFS block;
	// the payload restricts which reference kinds the block may use.
	FieldReference
)

func (k FieldKind) String() string {
	switch k {
	case FieldString:
		return "String"
	case FieldSingleChoice:
		return "SingleChoice"
	case FieldMultipleChoice:
		return "MultipleChoice"
	case FieldTag:
		return "Tag"
	case FieldReference:
		return "Reference"
	}
	return "Unknown"
}

// FieldType is the tagged type of a grammar field: a kind plus the payload
// the kind needs. Options is set for the choice kinds, RefKinds for
// Reference. Immutable once the grammar is built.
type FieldType struct {
	Kind     FieldKind
	Options  []string
	RefKinds []RefKind
}

// HasOption reports whether value is one of the declared choice options.
func (t FieldType) HasOption(value string) bool {
	for _, opt := range t.Options {
		if opt == value {
			return true
		}
	}
	return false
}

// AllowsRefKind reports whether the Reference field admits the given kind.
func (t FieldType) AllowsRefKind(kind RefKind) bool {
	for _, k := range t.RefKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// String renders the type the way the TYPE: expression spells it.
func (t FieldType) String() string {
	switch t.Kind {
	case FieldSingleChoice, FieldMultipleChoice:
		return t.Kind.String() + "(" + strings.Join(t.Options, ", ") + ")"
	case FieldReference:
		kinds := make([]string, len(t.RefKinds))
		for i, k := range t.RefKinds {
			kinds[i] = k.String()
		}
		return t.Kind.String() + "(" + strings.Join(kinds, ", ") + ")"
	default:
		return t.Kind.String()
	}
}

// GrammarField declares one typed field of an element type. Identity is the
// title within its element; declaration order defines the only valid field
// order on instances.
type GrammarField struct {
	Title    string
	Type     FieldType
	Required bool
	Span     source.Span
}

// GrammarElement declares one element type (e.g. REQUIREMENT) and its
// ordered field list.
type GrammarElement struct {
	Tag    string
	Fields []GrammarField
	Span   source.Span
}

// HasFieldTitle reports whether the element declares a field with the title.
func (e *GrammarElement) HasFieldTitle(title string) bool {
	for i := range e.Fields {
		if e.Fields[i].Title == title {
			return true
		}
	}
	return false
}

// FieldTitles returns the declared field titles in grammar order.
func (e *GrammarElement) FieldTitles() []string {
	titles := make([]string, len(e.Fields))
	for i := range e.Fields {
		titles[i] = e.Fields[i].Title
	}
	return titles
}

// DumpFieldTitles joins the field titles with ", " for diagnostics.
func (e *GrammarElement) DumpFieldTitles() string {
	return strings.Join(e.FieldTitles(), ", ")
}

// DocumentGrammar maps element type tags to their ordered field lists.
type DocumentGrammar struct {
	Elements []*GrammarElement

	byTag map[string]*GrammarElement
}

// NewDocumentGrammar builds the tag lookup over the given elements.
func NewDocumentGrammar(elements []*GrammarElement) *DocumentGrammar {
	g := &DocumentGrammar{
		Elements: elements,
		byTag:    make(map[string]*GrammarElement, len(elements)),
	}
	for _, el := range elements {
		g.byTag[el.Tag] = el
	}
	return g
}

// Element returns the element type declaration for the tag, if registered.
func (g *DocumentGrammar) Element(tag string) (*GrammarElement, bool) {
	el, ok := g.byTag[tag]
	return el, ok
}

// HasElement reports whether the tag names a registered element type.
func (g *DocumentGrammar) HasElement(tag string) bool {
	_, ok := g.byTag[tag]
	return ok
}

// DumpFieldTitles joins the field titles of the tagged element with ", ",
// or returns "" for an unknown tag.
func (g *DocumentGrammar) DumpFieldTitles(tag string) string {
	el, ok := g.byTag[tag]
	if !ok {
		return ""
	}
	return el.DumpFieldTitles()
}

// allRefKinds is the payload of the default REFS field: every kind allowed.
var allRefKinds = []RefKind{RefParent, RefChild, RefFile, RefBib}

// DefaultGrammar returns the grammar applied when a document has no
// [GRAMMAR] section: a single REQUIREMENT element with the conventional
// field order, everything optional.
func DefaultGrammar() *DocumentGrammar {
	str := FieldType{Kind: FieldString}
	fields := []GrammarField{
		{Title: "UID", Type: str},
		{Title: "LEVEL", Type: str},
		{Title: "STATUS", Type: str},
		{Title: "TAGS", Type: FieldType{Kind: FieldTag}},
		{Title: "REFS", Type: FieldType{Kind: FieldReference, RefKinds: allRefKinds}},
		{Title: "TITLE", Type: str},
		{Title: "STATEMENT", Type: str},
		{Title: "RATIONALE", Type: str},
		{Title: "COMMENT", Type: str},
	}
	return NewDocumentGrammar([]*GrammarElement{
		{Tag: "REQUIREMENT", Fields: fields},
	})
}

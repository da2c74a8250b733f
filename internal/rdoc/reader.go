package rdoc

import (
	"fmt"
	"regexp"
	"strings"

	"reqtrace/internal/diag"
	"reqtrace/internal/rdoc/identity"
	"reqtrace/internal/source"
)

// ReadOptions configures one document read.
type ReadOptions struct {
	// MIDs assigns identities to nodes and references. Nil selects a fresh
	// sequential generator, so repeated parses of the same content yield
	// the same identifiers.
	MIDs identity.Generator
}

// ReadDocument parses and validates an in-memory document registered under
// path. The first syntax or semantic error aborts the document.
func ReadDocument(fs *source.FileSet, path string, content []byte, opts ReadOptions) (*Document, error) {
	id := fs.AddVirtual(path, content)
	return ReadDocumentFile(fs, id, opts)
}

// ReadDocumentFromFile loads path from disk and parses it.
func ReadDocumentFromFile(fs *source.FileSet, path string, opts ReadOptions) (*Document, error) {
	id, err := fs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", path, err)
	}
	return ReadDocumentFile(fs, id, opts)
}

// ReadDocumentFile parses a document already registered in the file set.
func ReadDocumentFile(fs *source.FileSet, id source.FileID, opts ReadOptions) (*Document, error) {
	mids := opts.MIDs
	if mids == nil {
		mids = identity.NewSequentialGenerator("")
	}
	r := &reader{fs: fs, file: fs.Get(id), mids: mids}
	r.lines = splitLines(r.file)
	return r.parse()
}

// line is one physical line with its 1-based number and byte offset.
type line struct {
	num   uint32
	start uint32
	text  string // without the trailing newline
}

func splitLines(f *source.File) []line {
	content := f.Content
	lines := make([]line, 0, len(f.LineIdx)+1)
	start := 0
	num := uint32(1)
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			lines = append(lines, line{num: num, start: uint32(start), text: string(content[start:i])})
			start = i + 1
			num++
		}
	}
	if start < len(content) {
		lines = append(lines, line{num: num, start: uint32(start), text: string(content[start:])})
	}
	return lines
}

// reader is the parser state for one document. The dialect is line
// oriented: `[TAG]` section headers at column one, `NAME: value` fields,
// `- KEY: value` list items with two-space continuation indents, and
// `>>>`/`<<<` fenced multiline values.
type reader struct {
	fs    *source.FileSet
	file  *source.File
	lines []line
	pos   int
	mids  identity.Generator
}

var (
	sectionRe   = regexp.MustCompile(`^\[([A-Z][A-Z0-9_]*)\]$`)
	fieldLineRe = regexp.MustCompile(`^([A-Z][A-Z0-9_]*):(.*)$`)
)

func sectionHeader(text string) (string, bool) {
	m := sectionRe.FindStringSubmatch(strings.TrimRight(text, " \t"))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// splitField splits a `NAME: value` line into the name and everything after
// the colon. The caller decides what the tail must look like.
func splitField(text string) (name, rest string, ok bool) {
	m := fieldLineRe.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// parseYesNo maps the accepted REQUIRED spellings to a bool.
func parseYesNo(s string) (value, ok bool) {
	switch s {
	case "Yes", "True":
		return true, true
	case "No", "False":
		return false, true
	}
	return false, false
}

func isBlank(text string) bool { return strings.TrimSpace(text) == "" }

func (r *reader) eof() bool  { return r.pos >= len(r.lines) }
func (r *reader) peek() line { return r.lines[r.pos] }

func (r *reader) next() line {
	ln := r.lines[r.pos]
	r.pos++
	return ln
}

func (r *reader) skipBlank() {
	for !r.eof() && isBlank(r.peek().text) {
		r.pos++
	}
}

// span covers the line's content from its first non-blank byte, so resolved
// columns point at the item rather than its indentation.
func (r *reader) span(ln line) source.Span {
	trimmed := strings.TrimLeft(ln.text, " \t")
	lead := uint32(len(ln.text) - len(trimmed))
	return source.Span{
		File:  r.file.ID,
		Start: ln.start + lead,
		End:   ln.start + uint32(len(ln.text)),
	}
}

func (r *reader) startSpan() source.Span {
	return source.Span{File: r.file.ID}
}

func (r *reader) synErr(code diag.Code, sp source.Span, msg string) error {
	return diag.Semantic(r.fs, diag.NewError(code, sp, msg))
}

// fieldValue checks the tail of a `NAME: value` line: one space after the
// colon, then a non-empty value. Extra leading spaces belong to the value.
func (r *reader) fieldValue(ln line, name, rest string) (string, error) {
	if rest == "" || strings.TrimSpace(rest) == "" {
		return "", r.synErr(diag.SynExpectFieldValue, r.span(ln),
			fmt.Sprintf("field %s has no value", name))
	}
	if rest[0] != ' ' {
		return "", r.synErr(diag.SynExpectFieldValue, r.span(ln),
			fmt.Sprintf("expected a space between %s: and its value", name))
	}
	return rest[1:], nil
}

func (r *reader) parse() (*Document, error) {
	doc := &Document{MapUIDToNodes: make(map[string][]*Node)}

	r.skipBlank()
	if r.eof() {
		return nil, r.synErr(diag.SynMissingDocument, r.startSpan(),
			"document has no [DOCUMENT] section")
	}
	if tag, ok := sectionHeader(r.peek().text); !ok || tag != "DOCUMENT" {
		return nil, r.synErr(diag.SynMissingDocument, r.span(r.peek()),
			"expected [DOCUMENT] as the first section")
	}

	sawDocument := false
	for {
		r.skipBlank()
		if r.eof() {
			break
		}
		header := r.next()
		tag, ok := sectionHeader(header.text)
		if !ok {
			return nil, r.synErr(diag.SynUnexpectedSection, r.span(header),
				fmt.Sprintf("expected a section header, got %q", header.text))
		}

		switch tag {
		case "DOCUMENT":
			if sawDocument {
				return nil, r.synErr(diag.SynDuplicateDocument, r.span(header),
					"duplicate [DOCUMENT] section")
			}
			sawDocument = true
			if err := r.parseDocumentSection(doc, header); err != nil {
				return nil, err
			}
		case "GRAMMAR":
			if doc.Grammar != nil {
				return nil, r.synErr(diag.SynUnexpectedSection, r.span(header),
					"duplicate [GRAMMAR] section")
			}
			if len(doc.Nodes) > 0 {
				return nil, r.synErr(diag.SynUnexpectedSection, r.span(header),
					"[GRAMMAR] must precede element sections")
			}
			grammar, err := r.parseGrammarSection(header)
			if err != nil {
				return nil, err
			}
			doc.Grammar = grammar
		default:
			if err := r.parseNodeSection(doc, header, tag); err != nil {
				return nil, err
			}
		}
	}

	if doc.Grammar == nil {
		doc.Grammar = DefaultGrammar()
	}
	for _, node := range doc.Nodes {
		if err := ValidateNode(r.fs, node, doc.Grammar); err != nil {
			return nil, err
		}
		if err := ValidateSpecialFields(r.fs, doc.Config, node); err != nil {
			return nil, err
		}
		if uid := node.UID(); uid != "" {
			doc.MapUIDToNodes[uid] = append(doc.MapUIDToNodes[uid], node)
		}
	}
	return doc, nil
}

// parseDocumentSection reads TITLE and the optional SPECIAL_FIELDS
// declaration block of the [DOCUMENT] section.
func (r *reader) parseDocumentSection(doc *Document, header line) error {
	for !r.eof() {
		ln := r.peek()
		if isBlank(ln.text) {
			r.next()
			continue
		}
		if _, ok := sectionHeader(ln.text); ok {
			break
		}

		if strings.TrimRight(ln.text, " \t") == "SPECIAL_FIELDS:" {
			r.next()
			decls, err := r.parseSpecialFieldDecls(ln)
			if err != nil {
				return err
			}
			doc.Config.SpecialFields = decls
			continue
		}

		name, rest, ok := splitField(ln.text)
		if !ok || name != "TITLE" {
			return r.synErr(diag.SynExpectFieldLine, r.span(ln),
				fmt.Sprintf("expected TITLE or SPECIAL_FIELDS in the [DOCUMENT] section, got %q", strings.TrimSpace(ln.text)))
		}
		r.next()
		value, err := r.fieldValue(ln, name, rest)
		if err != nil {
			return err
		}
		doc.Title = value
	}

	if doc.Title == "" {
		return r.synErr(diag.SynExpectFieldLine, r.span(header),
			"the [DOCUMENT] section requires a TITLE field")
	}
	return nil
}

// parseSpecialFieldDecls reads the document-wide declaration list:
//
//	- NAME: ECSS_VERIFICATION
//	  TYPE: String
//	  REQUIRED: Yes
func (r *reader) parseSpecialFieldDecls(opening line) ([]SpecialFieldDecl, error) {
	var decls []SpecialFieldDecl
	for !r.eof() {
		ln := r.peek()
		if !strings.HasPrefix(ln.text, "- ") {
			break
		}
		r.next()
		name, rest, ok := splitField(strings.TrimPrefix(ln.text, "- "))
		if !ok || name != "NAME" {
			return nil, r.synErr(diag.SynBadSpecialFieldDecl, r.span(ln),
				"special field declaration must begin with '- NAME: <name>'")
		}
		declName, err := r.fieldValue(ln, name, rest)
		if err != nil {
			return nil, err
		}

		decl := SpecialFieldDecl{Name: declName, Span: r.span(ln)}
		for !r.eof() {
			cont := r.peek()
			if isBlank(cont.text) || !strings.HasPrefix(cont.text, "  ") {
				break
			}
			key, keyRest, ok := splitField(strings.TrimPrefix(cont.text, "  "))
			if !ok {
				return nil, r.synErr(diag.SynBadSpecialFieldDecl, r.span(cont),
					fmt.Sprintf("expected TYPE or REQUIRED, got %q", strings.TrimSpace(cont.text)))
			}
			r.next()
			value, err := r.fieldValue(cont, key, keyRest)
			if err != nil {
				return nil, err
			}
			switch key {
			case "TYPE":
				if value != "String" {
					return nil, r.synErr(diag.SynBadSpecialFieldDecl, r.span(cont),
						fmt.Sprintf("special field type must be String, got %s", value))
				}
				decl.Type = value
			case "REQUIRED":
				required, ok := parseYesNo(value)
				if !ok {
					return nil, r.synErr(diag.SynBadSpecialFieldDecl, r.span(cont),
						fmt.Sprintf("REQUIRED must be Yes, No, True or False, got %s", value))
				}
				decl.Required = required
			default:
				return nil, r.synErr(diag.SynBadSpecialFieldDecl, r.span(cont),
					fmt.Sprintf("unexpected special field declaration key: %s", key))
			}
		}
		if decl.Type == "" {
			return nil, r.synErr(diag.SynBadSpecialFieldDecl, r.span(ln),
				fmt.Sprintf("special field %s is missing TYPE", decl.Name))
		}
		decls = append(decls, decl)
	}
	if len(decls) == 0 {
		return nil, r.synErr(diag.SynBadSpecialFieldDecl, r.span(opening),
			"SPECIAL_FIELDS requires at least one '- NAME: <name>' declaration")
	}
	return decls, nil
}

// parseGrammarSection reads the [GRAMMAR] section:
//
//	ELEMENTS:
//	- TAG: REQUIREMENT
//	  FIELDS:
//	  - TITLE: UID
//	    TYPE: String
//	    REQUIRED: True
func (r *reader) parseGrammarSection(header line) (*DocumentGrammar, error) {
	r.skipBlank()
	if r.eof() || strings.TrimRight(r.peek().text, " \t") != "ELEMENTS:" {
		sp := r.span(header)
		if !r.eof() {
			sp = r.span(r.peek())
		}
		return nil, r.synErr(diag.SynBadGrammarElement, sp, "expected ELEMENTS: after [GRAMMAR]")
	}
	elementsLine := r.next()

	var elements []*GrammarElement
	seen := make(map[string]bool)
	for !r.eof() {
		ln := r.peek()
		if !strings.HasPrefix(ln.text, "- ") {
			break
		}
		r.next()
		name, rest, ok := splitField(strings.TrimPrefix(ln.text, "- "))
		if !ok || name != "TAG" {
			return nil, r.synErr(diag.SynBadGrammarElement, r.span(ln),
				"grammar element must begin with '- TAG: <tag>'")
		}
		tag, err := r.fieldValue(ln, name, rest)
		if err != nil {
			return nil, err
		}
		if seen[tag] {
			return nil, r.synErr(diag.SynBadGrammarElement, r.span(ln),
				fmt.Sprintf("duplicate grammar element tag: %s", tag))
		}
		seen[tag] = true

		if r.eof() || strings.TrimRight(r.peek().text, " \t") != "  FIELDS:" {
			sp := r.span(ln)
			if !r.eof() {
				sp = r.span(r.peek())
			}
			return nil, r.synErr(diag.SynBadGrammarElement, sp,
				fmt.Sprintf("grammar element %s requires a FIELDS: block", tag))
		}
		fieldsLine := r.next()

		fields, err := r.parseGrammarFields(fieldsLine, tag)
		if err != nil {
			return nil, err
		}
		elements = append(elements, &GrammarElement{Tag: tag, Fields: fields, Span: r.span(ln)})
	}
	if len(elements) == 0 {
		return nil, r.synErr(diag.SynBadGrammarElement, r.span(elementsLine),
			"ELEMENTS requires at least one '- TAG: <tag>' element")
	}
	return NewDocumentGrammar(elements), nil
}

func (r *reader) parseGrammarFields(opening line, tag string) ([]GrammarField, error) {
	var fields []GrammarField
	for !r.eof() {
		ln := r.peek()
		if !strings.HasPrefix(ln.text, "  - ") {
			break
		}
		r.next()
		name, rest, ok := splitField(strings.TrimPrefix(ln.text, "  - "))
		if !ok || name != "TITLE" {
			return nil, r.synErr(diag.SynBadGrammarElement, r.span(ln),
				"grammar field must begin with '- TITLE: <name>'")
		}
		title, err := r.fieldValue(ln, name, rest)
		if err != nil {
			return nil, err
		}

		// TYPE defaults to String, REQUIRED to False.
		field := GrammarField{Title: title, Type: FieldType{Kind: FieldString}, Span: r.span(ln)}
		for !r.eof() {
			cont := r.peek()
			if isBlank(cont.text) || !strings.HasPrefix(cont.text, "    ") {
				break
			}
			key, keyRest, ok := splitField(strings.TrimPrefix(cont.text, "    "))
			if !ok {
				return nil, r.synErr(diag.SynBadGrammarElement, r.span(cont),
					fmt.Sprintf("expected TYPE or REQUIRED, got %q", strings.TrimSpace(cont.text)))
			}
			r.next()
			value, err := r.fieldValue(cont, key, keyRest)
			if err != nil {
				return nil, err
			}
			switch key {
			case "TYPE":
				fieldType, typeErr := ParseFieldType(value)
				if typeErr != nil {
					return nil, r.synErr(diag.SynBadFieldType, r.span(cont), typeErr.Error())
				}
				field.Type = fieldType
			case "REQUIRED":
				required, ok := parseYesNo(value)
				if !ok {
					return nil, r.synErr(diag.SynBadGrammarElement, r.span(cont),
						fmt.Sprintf("REQUIRED must be Yes, No, True or False, got %s", value))
				}
				field.Required = required
			default:
				return nil, r.synErr(diag.SynBadGrammarElement, r.span(cont),
					fmt.Sprintf("unexpected grammar field key: %s", key))
			}
		}
		fields = append(fields, field)
	}
	if len(fields) == 0 {
		return nil, r.synErr(diag.SynBadGrammarElement, r.span(opening),
			fmt.Sprintf("grammar element %s requires at least one field", tag))
	}
	return fields, nil
}

// parseNodeSection reads one element section body: fields in declaration
// order, plus the SPECIAL_FIELDS and REFS blocks. The section ends at the
// next [TAG] header or EOF.
func (r *reader) parseNodeSection(doc *Document, header line, tag string) error {
	node := &Node{MID: r.mids.Next(), Type: tag, Span: r.span(header)}
	for !r.eof() {
		ln := r.peek()
		if isBlank(ln.text) {
			r.next()
			continue
		}
		if _, ok := sectionHeader(ln.text); ok {
			break
		}

		switch strings.TrimRight(ln.text, " \t") {
		case "SPECIAL_FIELDS:":
			r.next()
			if err := r.parseNodeSpecialFields(node, ln); err != nil {
				return err
			}
			continue
		case "REFS:":
			r.next()
			refs, err := r.parseReferences(ln)
			if err != nil {
				return err
			}
			node.References = append(node.References, refs...)
			// REFS stays in Fields so the grammar walk sees its position.
			node.Fields = append(node.Fields, NodeField{
				Name:  "REFS",
				Value: referenceDump(refs),
				Span:  r.span(ln),
			})
			continue
		}

		name, rest, ok := splitField(ln.text)
		if !ok {
			return r.synErr(diag.SynExpectFieldLine, r.span(ln),
				fmt.Sprintf("expected a FIELD: value line, got %q", strings.TrimSpace(ln.text)))
		}
		r.next()
		if strings.TrimRight(rest, " \t") == " >>>" {
			field, err := r.parseMultiline(ln, name)
			if err != nil {
				return err
			}
			node.Fields = append(node.Fields, field)
			continue
		}
		value, err := r.fieldValue(ln, name, rest)
		if err != nil {
			return err
		}
		node.Fields = append(node.Fields, NodeField{Name: name, Value: value, Span: r.span(ln)})
	}

	doc.Nodes = append(doc.Nodes, node)
	return nil
}

// parseMultiline consumes the body of a `FIELD: >>>` block up to the
// closing `<<<` line. Content is kept verbatim, including blank lines and
// indentation.
func (r *reader) parseMultiline(opening line, name string) (NodeField, error) {
	var parts []string
	for !r.eof() {
		ln := r.next()
		if strings.TrimRight(ln.text, " \t") == "<<<" {
			return NodeField{
				Name:      name,
				Value:     strings.Join(parts, "\n"),
				Multiline: true,
				Span:      r.span(opening),
			}, nil
		}
		parts = append(parts, ln.text)
	}
	return NodeField{}, r.synErr(diag.SynUnterminatedBlock, r.span(opening),
		fmt.Sprintf("multiline field %s is missing its closing <<<", name))
}

// parseNodeSpecialFields reads the node-level block of two-space indented
// `NAME: value` lines.
func (r *reader) parseNodeSpecialFields(node *Node, opening line) error {
	count := 0
	for !r.eof() {
		ln := r.peek()
		if isBlank(ln.text) || !strings.HasPrefix(ln.text, "  ") {
			break
		}
		name, rest, ok := splitField(strings.TrimPrefix(ln.text, "  "))
		if !ok {
			return r.synErr(diag.SynExpectFieldLine, r.span(ln),
				fmt.Sprintf("expected an indented NAME: value line in SPECIAL_FIELDS, got %q", strings.TrimSpace(ln.text)))
		}
		r.next()
		value, err := r.fieldValue(ln, name, rest)
		if err != nil {
			return err
		}
		node.SpecialFields = append(node.SpecialFields, SpecialFieldValue{
			Name:  name,
			Value: value,
			Span:  r.span(ln),
		})
		count++
	}
	if count == 0 {
		return r.synErr(diag.SynExpectFieldLine, r.span(opening),
			"SPECIAL_FIELDS block requires at least one NAME: value line")
	}
	return nil
}

// parseReferences reads the REFS list:
//
//	- TYPE: Parent
//	  VALUE: REQ-000
//	  ROLE: Refines
//
// ROLE is accepted on Parent references only, FORMAT on File references.
func (r *reader) parseReferences(opening line) ([]Reference, error) {
	var refs []Reference
	for !r.eof() {
		ln := r.peek()
		if !strings.HasPrefix(ln.text, "- ") {
			break
		}
		r.next()
		name, rest, ok := splitField(strings.TrimPrefix(ln.text, "- "))
		if !ok || name != "TYPE" {
			return nil, r.synErr(diag.SynBadListItem, r.span(ln),
				"reference item must begin with '- TYPE: <kind>'")
		}
		typeValue, err := r.fieldValue(ln, name, rest)
		if err != nil {
			return nil, err
		}
		kind, known := ParseRefKind(typeValue)
		if !known {
			return nil, r.synErr(diag.SynUnknownReferenceType, r.span(ln),
				fmt.Sprintf("unknown reference type: %s", typeValue))
		}

		var target, role, format string
		sawValue := false
		for !r.eof() {
			cont := r.peek()
			if isBlank(cont.text) || !strings.HasPrefix(cont.text, "  ") {
				break
			}
			key, keyRest, ok := splitField(strings.TrimPrefix(cont.text, "  "))
			if !ok {
				return nil, r.synErr(diag.SynBadListItem, r.span(cont),
					fmt.Sprintf("expected VALUE, ROLE or FORMAT, got %q", strings.TrimSpace(cont.text)))
			}
			r.next()
			value, err := r.fieldValue(cont, key, keyRest)
			if err != nil {
				return nil, err
			}
			switch key {
			case "VALUE":
				target = value
				sawValue = true
			case "ROLE":
				if kind != RefParent {
					return nil, r.synErr(diag.SynBadListItem, r.span(cont),
						"ROLE applies to Parent references only")
				}
				role = value
			case "FORMAT":
				if kind != RefFile {
					return nil, r.synErr(diag.SynBadListItem, r.span(cont),
						"FORMAT applies to File references only")
				}
				format = value
			default:
				return nil, r.synErr(diag.SynBadListItem, r.span(cont),
					fmt.Sprintf("unexpected reference item key: %s", key))
			}
		}
		if !sawValue {
			return nil, r.synErr(diag.SynBadListItem, r.span(ln),
				"reference item is missing VALUE")
		}
		refs = append(refs, NewReference(r.mids.Next(), kind, target, role, format, r.span(ln)))
	}
	if len(refs) == 0 {
		return nil, r.synErr(diag.SynBadListItem, r.span(opening),
			"REFS block requires at least one '- TYPE: <kind>' item")
	}
	return refs, nil
}

// referenceDump renders the REFS field value seen by the grammar walk.
func referenceDump(refs []Reference) string {
	targets := make([]string, len(refs))
	for i := range refs {
		targets[i] = refs[i].Target
	}
	return strings.Join(targets, ", ")
}

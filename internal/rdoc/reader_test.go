package rdoc

// Reader coverage: the full dialect on the happy path (document header,
// special field declarations, grammar, nodes, multiline values, special
// field values, references), then one test per syntax failure mode.

import (
	"strings"
	"testing"

	"reqtrace/internal/diag"
	"reqtrace/internal/source"
)

func readTestDocument(t *testing.T, content string) (*Document, error) {
	t.Helper()
	fs := source.NewFileSet()
	return ReadDocument(fs, "test.rdoc", []byte(content), ReadOptions{})
}

func mustReadDocument(t *testing.T, content string) *Document {
	t.Helper()
	doc, err := readTestDocument(t, content)
	if err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}
	return doc
}

// wantLocatedError asserts that err is a located error carrying the code,
// and returns it for further checks.
func wantLocatedError(t *testing.T, err error, code diag.Code) *diag.SemanticError {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code.ID())
	}
	se, ok := diag.AsSemantic(err)
	if !ok {
		t.Fatalf("expected a located error, got: %v", err)
	}
	if se.Diag.Code != code {
		t.Fatalf("expected code %s, got %s (%s)", code.ID(), se.Diag.Code.ID(), se.Diag.Message)
	}
	return se
}

func TestReadDocument_Full(t *testing.T) {
	doc := mustReadDocument(t, `[DOCUMENT]
TITLE: Engine control
SPECIAL_FIELDS:
- NAME: ECSS_VERIFICATION
  TYPE: String
  REQUIRED: Yes

[GRAMMAR]
ELEMENTS:
- TAG: REQUIREMENT
  FIELDS:
  - TITLE: UID
    TYPE: String
    REQUIRED: True
  - TITLE: STATUS
    TYPE: SingleChoice(Draft, Active, Deleted)
    REQUIRED: False
  - TITLE: REFS
    TYPE: Reference(Parent, File)
    REQUIRED: False
  - TITLE: STATEMENT
    TYPE: String
    REQUIRED: False

[REQUIREMENT]
UID: REQ-001
STATUS: Draft
SPECIAL_FIELDS:
  ECSS_VERIFICATION: Test
REFS:
- TYPE: Parent
  VALUE: REQ-000
  ROLE: Refines
- TYPE: File
  VALUE: src/engine.go
STATEMENT: >>>
The engine shall control
multiple lines.
<<<
`)

	if doc.Title != "Engine control" {
		t.Errorf("title = %q, want %q", doc.Title, "Engine control")
	}

	if len(doc.Config.SpecialFields) != 1 {
		t.Fatalf("expected 1 special field declaration, got %d", len(doc.Config.SpecialFields))
	}
	decl := doc.Config.SpecialFields[0]
	if decl.Name != "ECSS_VERIFICATION" || decl.Type != "String" || !decl.Required {
		t.Errorf("declaration = %+v, want required String ECSS_VERIFICATION", decl)
	}

	if !doc.Grammar.HasElement("REQUIREMENT") {
		t.Fatal("grammar must register REQUIREMENT")
	}

	if len(doc.Nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(doc.Nodes))
	}
	node := doc.Nodes[0]

	if node.Type != "REQUIREMENT" {
		t.Errorf("node type = %q, want REQUIREMENT", node.Type)
	}
	if node.UID() != "REQ-001" {
		t.Errorf("UID = %q, want REQ-001", node.UID())
	}

	wantFields := []string{"UID", "STATUS", "REFS", "STATEMENT"}
	if got := node.DumpFieldNames(); got != strings.Join(wantFields, ", ") {
		t.Errorf("field order = %q, want %q", got, strings.Join(wantFields, ", "))
	}

	statement := node.Statement()
	if statement != "The engine shall control\nmultiple lines." {
		t.Errorf("statement = %q", statement)
	}

	if len(node.SpecialFields) != 1 || node.SpecialFields[0].Name != "ECSS_VERIFICATION" || node.SpecialFields[0].Value != "Test" {
		t.Errorf("special fields = %+v", node.SpecialFields)
	}

	if len(node.References) != 2 {
		t.Fatalf("expected 2 references, got %d", len(node.References))
	}
	parent := node.References[0]
	if parent.Kind != RefParent || parent.Target != "REQ-000" || parent.Role != "Refines" {
		t.Errorf("parent reference = %+v", parent)
	}
	file := node.References[1]
	if file.Kind != RefFile || file.Target != "src/engine.go" {
		t.Errorf("file reference = %+v", file)
	}
	if got := node.FileReferences(); len(got) != 1 || got[0].Target != "src/engine.go" {
		t.Errorf("FileReferences() = %+v", got)
	}

	if nodes := doc.NodesByUID("REQ-001"); len(nodes) != 1 || nodes[0] != node {
		t.Errorf("NodesByUID(REQ-001) = %+v", nodes)
	}
}

func TestReadDocument_DefaultGrammar(t *testing.T) {
	doc := mustReadDocument(t, `[DOCUMENT]
TITLE: Minimal

[REQUIREMENT]
UID: REQ-001
TITLE: One requirement
STATEMENT: Shall work.
`)

	if !doc.Grammar.HasElement("REQUIREMENT") {
		t.Fatal("default grammar expected when [GRAMMAR] is absent")
	}
	node := doc.Nodes[0]
	if node.Title() != "One requirement" {
		t.Errorf("title = %q", node.Title())
	}
	if node.Statement() != "Shall work." {
		t.Errorf("statement = %q", node.Statement())
	}
}

func TestReadDocument_MultipleNodesShareUID(t *testing.T) {
	doc := mustReadDocument(t, `[DOCUMENT]
TITLE: Doubles

[REQUIREMENT]
UID: REQ-007

[REQUIREMENT]
UID: REQ-007
`)
	if got := len(doc.NodesByUID("REQ-007")); got != 2 {
		t.Errorf("expected 2 nodes under REQ-007, got %d", got)
	}
	if doc.NodesByUID("REQ-404") != nil {
		t.Error("unknown UID must resolve to nil")
	}
}

func TestReadDocument_SequentialMIDs(t *testing.T) {
	doc := mustReadDocument(t, `[DOCUMENT]
TITLE: Identity

[REQUIREMENT]
UID: REQ-001
REFS:
- TYPE: Parent
  VALUE: REQ-000

[REQUIREMENT]
UID: REQ-002
`)

	first, second := doc.Nodes[0], doc.Nodes[1]
	if first.MID.IsZero() || second.MID.IsZero() {
		t.Fatal("every node must carry a MID")
	}
	if first.MID == second.MID {
		t.Error("node MIDs must be distinct")
	}
	if first.MID != "mid-1" {
		t.Errorf("first node MID = %q, want mid-1", first.MID)
	}
	if ref := first.References[0]; ref.MID != "mid-2" {
		t.Errorf("reference MID = %q, want mid-2", ref.MID)
	}

	// Reruns over the same content assign the same identifiers.
	again := mustReadDocument(t, "[DOCUMENT]\nTITLE: Identity\n\n[REQUIREMENT]\nUID: REQ-001\n")
	if again.Nodes[0].MID != "mid-1" {
		t.Errorf("fresh parse MID = %q, want mid-1", again.Nodes[0].MID)
	}
}

func TestReadDocument_MultilinePreservesBody(t *testing.T) {
	doc := mustReadDocument(t, `[DOCUMENT]
TITLE: Verbatim

[REQUIREMENT]
STATEMENT: >>>
  indented line

tail after a blank
<<<
`)
	got := doc.Nodes[0].Statement()
	want := "  indented line\n\ntail after a blank"
	if got != want {
		t.Errorf("multiline value = %q, want %q", got, want)
	}
	if !doc.Nodes[0].Fields[0].Multiline {
		t.Error("field must be marked multiline")
	}
}

func TestReadDocument_NormalizesCRLF(t *testing.T) {
	doc := mustReadDocument(t, "[DOCUMENT]\r\nTITLE: Windows\r\n\r\n[REQUIREMENT]\r\nUID: REQ-001\r\n")
	if doc.Title != "Windows" {
		t.Errorf("title = %q, want Windows", doc.Title)
	}
	if doc.Nodes[0].UID() != "REQ-001" {
		t.Errorf("UID = %q", doc.Nodes[0].UID())
	}
}

func TestReadDocument_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		code     diag.Code
		wantLine uint32
	}{
		{
			name:     "empty document",
			content:  "",
			code:     diag.SynMissingDocument,
			wantLine: 1,
		},
		{
			name:     "blank document",
			content:  "\n\n",
			code:     diag.SynMissingDocument,
			wantLine: 1,
		},
		{
			name:     "first section is not DOCUMENT",
			content:  "[REQUIREMENT]\nUID: REQ-001\n",
			code:     diag.SynMissingDocument,
			wantLine: 1,
		},
		{
			name:     "document without title",
			content:  "[DOCUMENT]\n\n[REQUIREMENT]\nUID: REQ-001\n",
			code:     diag.SynExpectFieldLine,
			wantLine: 1,
		},
		{
			name:     "duplicate DOCUMENT",
			content:  "[DOCUMENT]\nTITLE: A\n\n[DOCUMENT]\nTITLE: B\n",
			code:     diag.SynDuplicateDocument,
			wantLine: 4,
		},
		{
			name:     "grammar after a node",
			content:  "[DOCUMENT]\nTITLE: A\n\n[REQUIREMENT]\nUID: R-1\n\n[GRAMMAR]\nELEMENTS:\n- TAG: X\n  FIELDS:\n  - TITLE: UID\n",
			code:     diag.SynUnexpectedSection,
			wantLine: 7,
		},
		{
			name:     "field without value",
			content:  "[DOCUMENT]\nTITLE: A\n\n[REQUIREMENT]\nUID:\n",
			code:     diag.SynExpectFieldValue,
			wantLine: 5,
		},
		{
			name:     "field without space after colon",
			content:  "[DOCUMENT]\nTITLE: A\n\n[REQUIREMENT]\nUID:REQ-001\n",
			code:     diag.SynExpectFieldValue,
			wantLine: 5,
		},
		{
			name:     "garbage line in node body",
			content:  "[DOCUMENT]\nTITLE: A\n\n[REQUIREMENT]\nnot a field\n",
			code:     diag.SynExpectFieldLine,
			wantLine: 5,
		},
		{
			name:     "unterminated multiline block",
			content:  "[DOCUMENT]\nTITLE: A\n\n[REQUIREMENT]\nSTATEMENT: >>>\nno closing fence\n",
			code:     diag.SynUnterminatedBlock,
			wantLine: 5,
		},
		{
			name:     "empty special fields block in node",
			content:  "[DOCUMENT]\nTITLE: A\n\n[REQUIREMENT]\nSPECIAL_FIELDS:\n",
			code:     diag.SynExpectFieldLine,
			wantLine: 5,
		},
		{
			name:     "bad special field declaration head",
			content:  "[DOCUMENT]\nTITLE: A\nSPECIAL_FIELDS:\n- TYPE: String\n",
			code:     diag.SynBadSpecialFieldDecl,
			wantLine: 4,
		},
		{
			name:     "special field declaration without TYPE",
			content:  "[DOCUMENT]\nTITLE: A\nSPECIAL_FIELDS:\n- NAME: FOO\n",
			code:     diag.SynBadSpecialFieldDecl,
			wantLine: 4,
		},
		{
			name:     "special field with non-String type",
			content:  "[DOCUMENT]\nTITLE: A\nSPECIAL_FIELDS:\n- NAME: FOO\n  TYPE: Int\n",
			code:     diag.SynBadSpecialFieldDecl,
			wantLine: 5,
		},
		{
			name:     "empty SPECIAL_FIELDS declaration list",
			content:  "[DOCUMENT]\nTITLE: A\nSPECIAL_FIELDS:\n\n[REQUIREMENT]\nUID: R-1\n",
			code:     diag.SynBadSpecialFieldDecl,
			wantLine: 3,
		},
		{
			name:     "grammar without ELEMENTS",
			content:  "[DOCUMENT]\nTITLE: A\n\n[GRAMMAR]\n- TAG: X\n",
			code:     diag.SynBadGrammarElement,
			wantLine: 5,
		},
		{
			name:     "grammar element without FIELDS",
			content:  "[DOCUMENT]\nTITLE: A\n\n[GRAMMAR]\nELEMENTS:\n- TAG: X\n\n[REQUIREMENT]\n",
			code:     diag.SynBadGrammarElement,
			wantLine: 7,
		},
		{
			name:     "grammar field with bad TYPE expression",
			content:  "[DOCUMENT]\nTITLE: A\n\n[GRAMMAR]\nELEMENTS:\n- TAG: X\n  FIELDS:\n  - TITLE: UID\n    TYPE: SingleChoice(\n",
			code:     diag.SynBadFieldType,
			wantLine: 9,
		},
		{
			name:     "grammar field with bad REQUIRED",
			content:  "[DOCUMENT]\nTITLE: A\n\n[GRAMMAR]\nELEMENTS:\n- TAG: X\n  FIELDS:\n  - TITLE: UID\n    REQUIRED: Maybe\n",
			code:     diag.SynBadGrammarElement,
			wantLine: 9,
		},
		{
			name:     "duplicate grammar tag",
			content:  "[DOCUMENT]\nTITLE: A\n\n[GRAMMAR]\nELEMENTS:\n- TAG: X\n  FIELDS:\n  - TITLE: UID\n- TAG: X\n  FIELDS:\n  - TITLE: UID\n",
			code:     diag.SynBadGrammarElement,
			wantLine: 9,
		},
		{
			name:     "unknown reference type",
			content:  "[DOCUMENT]\nTITLE: A\n\n[REQUIREMENT]\nREFS:\n- TYPE: Wormhole\n  VALUE: REQ-000\n",
			code:     diag.SynUnknownReferenceType,
			wantLine: 6,
		},
		{
			name:     "reference without VALUE",
			content:  "[DOCUMENT]\nTITLE: A\n\n[REQUIREMENT]\nREFS:\n- TYPE: Parent\n",
			code:     diag.SynBadListItem,
			wantLine: 6,
		},
		{
			name:     "ROLE on a File reference",
			content:  "[DOCUMENT]\nTITLE: A\n\n[REQUIREMENT]\nREFS:\n- TYPE: File\n  VALUE: a.go\n  ROLE: Refines\n",
			code:     diag.SynBadListItem,
			wantLine: 8,
		},
		{
			name:     "FORMAT on a Parent reference",
			content:  "[DOCUMENT]\nTITLE: A\n\n[REQUIREMENT]\nREFS:\n- TYPE: Parent\n  VALUE: REQ-000\n  FORMAT: Sourcecode\n",
			code:     diag.SynBadListItem,
			wantLine: 8,
		},
		{
			name:     "empty REFS block",
			content:  "[DOCUMENT]\nTITLE: A\n\n[REQUIREMENT]\nREFS:\n",
			code:     diag.SynBadListItem,
			wantLine: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readTestDocument(t, tt.content)
			se := wantLocatedError(t, err, tt.code)
			if se.Pos.Line != tt.wantLine {
				t.Errorf("error at line %d, want %d (message: %s)", se.Pos.Line, tt.wantLine, se.Diag.Message)
			}
			if se.Pos.Path != "test.rdoc" {
				t.Errorf("error path = %q, want test.rdoc", se.Pos.Path)
			}
		})
	}
}

func TestReadDocumentFromFile_MissingFile(t *testing.T) {
	fs := source.NewFileSet()
	_, err := ReadDocumentFromFile(fs, "does/not/exist.rdoc", ReadOptions{})
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if _, ok := diag.AsSemantic(err); ok {
		t.Error("I/O failures must not masquerade as located document errors")
	}
}

func TestSectionHeader(t *testing.T) {
	tests := []struct {
		text string
		tag  string
		ok   bool
	}{
		{"[DOCUMENT]", "DOCUMENT", true},
		{"[REQUIREMENT]", "REQUIREMENT", true},
		{"[HIGH_REQUIREMENT]", "HIGH_REQUIREMENT", true},
		{"[GRAMMAR]  ", "GRAMMAR", true},
		{"[lowercase]", "", false},
		{"[REQ 1]", "", false},
		{"  [DOCUMENT]", "", false},
		{"[DOCUMENT] extra", "", false},
		{"DOCUMENT", "", false},
	}
	for _, tt := range tests {
		tag, ok := sectionHeader(tt.text)
		if ok != tt.ok || tag != tt.tag {
			t.Errorf("sectionHeader(%q) = (%q, %v), want (%q, %v)", tt.text, tag, ok, tt.tag, tt.ok)
		}
	}
}

// Package rdoc parses and validates requirement documents: a [DOCUMENT]
// header with optional special-field declarations, an optional [GRAMMAR]
// schema, and a sequence of element sections such as [REQUIREMENT]. The
// reader builds a located object graph and runs the grammar and
// special-fields validators over every node; the first semantic error
// aborts the document.
package rdoc

import (
	"strings"

	"reqtrace/internal/rdoc/identity"
	"reqtrace/internal/source"
)

// Document is the validated result of reading one .rdoc unit.
type Document struct {
	Title   string
	Config  DocumentConfig
	Grammar *DocumentGrammar
	Nodes   []*Node

	// MapUIDToNodes indexes nodes by UID in declaration order. Nodes
	// without a UID are reachable through Nodes only.
	MapUIDToNodes map[string][]*Node
}

// NodesByUID returns the nodes declaring the given UID, nil when unknown.
func (d *Document) NodesByUID(uid string) []*Node {
	return d.MapUIDToNodes[uid]
}

// DocumentConfig carries the document-wide declarations from [DOCUMENT].
type DocumentConfig struct {
	SpecialFields []SpecialFieldDecl
}

// HasSpecialFields reports whether the document declares any special fields.
func (c DocumentConfig) HasSpecialFields() bool {
	return len(c.SpecialFields) > 0
}

// SpecialFieldDecl declares one document-wide extra field usable on nodes.
type SpecialFieldDecl struct {
	Name     string
	Type     string // only "String" is defined today
	Required bool
	Span     source.Span
}

// RequiredSpecialFields returns the names of the declared fields marked
// required, in declaration order.
func (c DocumentConfig) RequiredSpecialFields() []string {
	var out []string
	for _, decl := range c.SpecialFields {
		if decl.Required {
			out = append(out, decl.Name)
		}
	}
	return out
}

// DeclaresSpecialField reports whether name is declared document-wide.
func (c DocumentConfig) DeclaresSpecialField(name string) bool {
	for _, decl := range c.SpecialFields {
		if decl.Name == name {
			return true
		}
	}
	return false
}

// Node is one element section instance (usually a requirement). Fields keeps
// the raw declarations in the exact order they were written; the validator
// checks that order against the grammar. SpecialFields and References are
// parsed out of their dedicated blocks and never appear in Fields, except
// for the REFS field name itself, which stays in Fields so the grammar walk
// sees its position.
type Node struct {
	MID  identity.MID
	Type string
	Span source.Span

	Fields        []NodeField
	SpecialFields []SpecialFieldValue
	References    []Reference
}

// NodeField is one FIELD_NAME: value declaration, single- or multi-line.
type NodeField struct {
	Name      string
	Value     string
	Multiline bool
	Span      source.Span
}

// SpecialFieldValue is one entry of a node-level SPECIAL_FIELDS block.
type SpecialFieldValue struct {
	Name  string
	Value string
	Span  source.Span
}

// FieldValue returns the value of the first field with the given name.
func (n *Node) FieldValue(name string) (string, bool) {
	for i := range n.Fields {
		if n.Fields[i].Name == name {
			return n.Fields[i].Value, true
		}
	}
	return "", false
}

// HasField reports whether the node declares a field with the given name.
func (n *Node) HasField(name string) bool {
	_, ok := n.FieldValue(name)
	return ok
}

// UID returns the node's unique identifier, trimmed, or "" when the node
// does not declare one. A declared-but-blank UID also reads as absent.
func (n *Node) UID() string {
	v, _ := n.FieldValue("UID")
	return strings.TrimSpace(v)
}

// Title returns the TITLE field value or "".
func (n *Node) Title() string {
	v, _ := n.FieldValue("TITLE")
	return v
}

// Statement returns the STATEMENT field value or "".
func (n *Node) Statement() string {
	v, _ := n.FieldValue("STATEMENT")
	return v
}

// Tags splits the TAGS field on the ", " separator. The validator has
// already rejected malformed lists by the time a Document is returned.
func (n *Node) Tags() []string {
	v, ok := n.FieldValue("TAGS")
	if !ok || v == "" {
		return nil
	}
	return strings.Split(v, ", ")
}

// ParentReferences returns the node's Parent references in declaration order.
func (n *Node) ParentReferences() []Reference {
	var out []Reference
	for _, ref := range n.References {
		if ref.Kind == RefParent {
			out = append(out, ref)
		}
	}
	return out
}

// FileReferences returns the node's File references in declaration order.
func (n *Node) FileReferences() []Reference {
	var out []Reference
	for _, ref := range n.References {
		if ref.Kind == RefFile {
			out = append(out, ref)
		}
	}
	return out
}

// DumpFieldNames joins the declared field names with ", " for diagnostics.
func (n *Node) DumpFieldNames() string {
	names := make([]string, len(n.Fields))
	for i := range n.Fields {
		names[i] = n.Fields[i].Name
	}
	return strings.Join(names, ", ")
}

// SpecialFieldNames returns the names of the node's special field values in
// declaration order.
func (n *Node) SpecialFieldNames() []string {
	names := make([]string, len(n.SpecialFields))
	for i := range n.SpecialFields {
		names[i] = n.SpecialFields[i].Name
	}
	return names
}

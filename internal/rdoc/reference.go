package rdoc

import (
	"strings"

	"reqtrace/internal/rdoc/identity"
	"reqtrace/internal/source"
)

// RefKind tags the reference variants a node may carry.
type RefKind uint8

const (
	// RefParent links a node to the requirement it refines or derives from.
	RefParent RefKind = iota
	// RefChild links a node to a requirement derived from it.
	RefChild
	// RefFile links a node to a source file implementing it.
	RefFile
	// RefBib cites a bibliography entry.
	RefBib
)

func (k RefKind) String() string {
	switch k {
	case RefParent:
		return "Parent"
	case RefChild:
		return "Child"
	case RefFile:
		return "File"
	case RefBib:
		return "Bib"
	}
	return "Unknown"
}

// ParseRefKind maps a TYPE value from a REFS item (or a Reference(...)
// grammar argument) to a RefKind. The long spellings are accepted for
// compatibility with documents written against the class-name convention.
func ParseRefKind(s string) (RefKind, bool) {
	switch s {
	case "Parent", "ParentReqReference":
		return RefParent, true
	case "Child", "ChildReqReference":
		return RefChild, true
	case "File", "FileReference":
		return RefFile, true
	case "Bib", "BibReference":
		return RefBib, true
	}
	return 0, false
}

// Reference attaches an outgoing link to its containing node. The payload
// depends on Kind: Target is a requirement UID for Parent/Child, a
// project-relative POSIX path for File, and a citation key for Bib. Role is
// meaningful for Parent only and Format for File only; for both, the empty
// string means absent.
type Reference struct {
	MID    identity.MID
	Kind   RefKind
	Target string
	Role   string
	Format string
	Span   source.Span
}

// NewReference normalizes the payload: targets and roles are trimmed, and
// an all-whitespace role collapses to absent.
func NewReference(mid identity.MID, kind RefKind, target, role, format string, span source.Span) Reference {
	return Reference{
		MID:    mid,
		Kind:   kind,
		Target: strings.TrimSpace(target),
		Role:   strings.TrimSpace(role),
		Format: strings.TrimSpace(format),
		Span:   span,
	}
}

// HasRole reports whether a Parent reference carries a role.
func (r Reference) HasRole() bool { return r.Role != "" }

// PosixTarget returns the File target with forward slashes regardless of
// the platform the document was written on.
func (r Reference) PosixTarget() string {
	return strings.ReplaceAll(r.Target, "\\", "/")
}

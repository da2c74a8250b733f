package rdoc

import (
	"fmt"
	"strings"

	"reqtrace/internal/diag"
	"reqtrace/internal/source"
)

// ValidateSpecialFields checks one node's special field values against the
// document-wide declarations: every value must be declared, and every
// declaration marked required must be satisfied. The generated example
// blocks are part of the diagnostic contract; tooling shows them verbatim.
func ValidateSpecialFields(fs *source.FileSet, config DocumentConfig, node *Node) error {
	if len(node.SpecialFields) == 0 {
		// A node with no special fields is fine unless the document
		// requires some.
		required := config.RequiredSpecialFields()
		if len(required) > 0 {
			return errRequirementMissingRequiredField(fs, node, required[0])
		}
		return nil
	}

	if !config.HasSpecialFields() {
		return errMissingSpecialFields(fs, node)
	}

	for i := range node.SpecialFields {
		value := &node.SpecialFields[i]
		if !config.DeclaresSpecialField(value.Name) {
			return errFieldIsMissingInDocConfig(fs, value)
		}
	}

	var missing []string
	for _, name := range config.RequiredSpecialFields() {
		if !nodeHasSpecialField(node, name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return errRequirementMissingSpecialFields(fs, node, missing)
	}
	return nil
}

func nodeHasSpecialField(node *Node, name string) bool {
	for i := range node.SpecialFields {
		if node.SpecialFields[i].Name == name {
			return true
		}
	}
	return false
}

// errMissingSpecialFields: the node uses special fields but the document
// never declared any.
func errMissingSpecialFields(fs *source.FileSet, node *Node) error {
	var components []string
	for _, sf := range node.SpecialFields {
		components = append(components,
			fmt.Sprintf("- NAME: %s", sf.Name),
			"  TYPE: String",
		)
	}
	components = append(components, "", "[REQUIREMENT]", "SPECIAL_FIELDS:")
	for _, sf := range node.SpecialFields {
		components = append(components, fmt.Sprintf("  %s: %s", sf.Name, sf.Value))
	}

	return diag.Semantic(fs, diag.NewError(
		diag.SpfMissingSpecialFields, node.Span,
		"Requirements special fields are not registered document-wide.",
	).WithHint(fmt.Sprintf(
		"Requirement's special fields must be declared in [DOCUMENT].SPECIAL_FIELDS: [%s]",
		strings.Join(node.SpecialFieldNames(), ", "),
	)).WithExample(
		"[DOCUMENT]\nSPECIAL_FIELDS:\n" + strings.Join(components, "\n"),
	))
}

// errFieldIsMissingInDocConfig: the node uses a special field name the
// document config does not declare.
func errFieldIsMissingInDocConfig(fs *source.FileSet, value *SpecialFieldValue) error {
	components := []string{
		fmt.Sprintf("- NAME: %s", value.Name),
		"  TYPE: String",
		"",
		"[REQUIREMENT]",
		"SPECIAL_FIELDS:",
		fmt.Sprintf("  %s: %s", value.Name, value.Value),
	}

	return diag.Semantic(fs, diag.NewError(
		diag.SpfFieldIsMissingInDocConfig, value.Span,
		fmt.Sprintf("Undeclared special field: %s", value.Name),
	).WithHint(
		"Requirement's special fields must be declared in [DOCUMENT].SPECIAL_FIELDS",
	).WithExample(
		"[DOCUMENT]\nSPECIAL_FIELDS:\n" + strings.Join(components, "\n"),
	))
}

// errRequirementMissingSpecialFields: the node supplies special fields but
// misses one or more of the required ones.
func errRequirementMissingSpecialFields(fs *source.FileSet, node *Node, missing []string) error {
	components := []string{"[DOCUMENT]", "SPECIAL_FIELDS:"}
	for _, name := range missing {
		components = append(components,
			fmt.Sprintf("- NAME: %s", name),
			"  TYPE: String",
		)
	}
	components = append(components, "", "[REQUIREMENT]", "SPECIAL_FIELDS:")
	for _, name := range missing {
		components = append(components, fmt.Sprintf("  %s: Some value", name))
	}

	return diag.Semantic(fs, diag.NewError(
		diag.SpfRequirementMissingSpecialFields, node.Span,
		fmt.Sprintf("Requirement is missing required special fields: %s", strings.Join(missing, ", ")),
	).WithHint(
		"All fields that are declared in [DOCUMENT].SPECIAL_FIELDS section as "+
			"'REQUIRED: Yes' must be present in every requirement.",
	).WithExample(strings.Join(components, "\n")))
}

// errRequirementMissingRequiredField: the node supplies no special fields
// at all while the document requires one.
func errRequirementMissingRequiredField(fs *source.FileSet, node *Node, name string) error {
	components := []string{
		fmt.Sprintf("- NAME: %s", name),
		"  TYPE: String",
		"",
		"[REQUIREMENT]",
		"SPECIAL_FIELDS:",
		fmt.Sprintf("  %s: Some value", name),
	}

	return diag.Semantic(fs, diag.NewError(
		diag.SpfRequirementMissingRequiredField, node.Span,
		fmt.Sprintf("Requirement is missing a required special field: %s.", name),
	).WithHint(
		"All fields that are declared in [DOCUMENT].SPECIAL_FIELDS section as "+
			"'REQUIRED: Yes' must be present in every requirement.",
	).WithExample(
		"[DOCUMENT]\nSPECIAL_FIELDS:\n" + strings.Join(components, "\n"),
	))
}

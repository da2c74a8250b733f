package rdoc

import (
	"fmt"
	"regexp"
	"strings"

	"reqtrace/internal/diag"
	"reqtrace/internal/source"
)

// commaSeparatedRe is the ", "-separated list convention shared by
// MultipleChoice and Tag fields: word-character items, exactly one comma
// and one space between them.
var commaSeparatedRe = regexp.MustCompile(`^[a-zA-Z0-9_]+(, [a-zA-Z0-9_]+)*$`)

// ValidateNode enforces the grammar on one node: the element type must be
// registered, every declared field must be registered, the declared fields
// must follow grammar order as a subsequence, required fields must be
// present, and choice/tag/reference values must satisfy their field types.
// The walk stops at the first violation.
func ValidateNode(fs *source.FileSet, node *Node, grammar *DocumentGrammar) error {
	element, ok := grammar.Element(node.Type)
	if !ok {
		return diag.Semantic(fs, diag.NewError(
			diag.GrmUnknownRequirementType, node.Span,
			fmt.Sprintf("Invalid requirement type: %s", node.Type),
		))
	}

	// Registration check runs before any order reasoning so that a typo
	// is reported as a typo, not as a misordering.
	for i := range node.Fields {
		field := &node.Fields[i]
		if !element.HasFieldTitle(field.Name) {
			return diag.Semantic(fs, diag.NewError(
				diag.GrmUnregisteredField, field.Span,
				fmt.Sprintf("Invalid requirement field: %s", field.Name),
			))
		}
	}

	// Dual-iterator subsequence walk: node fields must appear in grammar
	// order; optional grammar fields may be skipped.
	gi, ni := 0, 0
	for {
		if ni >= len(node.Fields) {
			for ; gi < len(element.Fields); gi++ {
				if element.Fields[gi].Required {
					return errMissingRequiredField(fs, node, &element.Fields[gi])
				}
			}
			return nil
		}
		if gi >= len(element.Fields) {
			return errUnexpectedFieldOutsideGrammar(fs, node, element, &node.Fields[ni])
		}

		grammarField := &element.Fields[gi]
		nodeField := &node.Fields[ni]

		if grammarField.Title == nodeField.Name {
			if err := validateFieldValue(fs, node, element, grammarField, nodeField); err != nil {
				return err
			}
			gi++
			ni++
			continue
		}

		if grammarField.Required {
			// The required field either appears later (misordering) or
			// nowhere at all (missing).
			if node.HasField(grammarField.Title) {
				return errWrongFieldOrder(fs, node, element, nodeField)
			}
			return errMissingRequiredField(fs, node, grammarField)
		}
		gi++
	}
}

// validateFieldValue checks one matched (grammar field, node field) pair.
func validateFieldValue(
	fs *source.FileSet,
	node *Node,
	element *GrammarElement,
	grammarField *GrammarField,
	nodeField *NodeField,
) error {
	switch grammarField.Type.Kind {
	case FieldSingleChoice:
		if !grammarField.Type.HasOption(nodeField.Value) {
			return errInvalidChoiceValue(fs, node, element, nodeField,
				fmt.Sprintf("Requirement field has an invalid SingleChoice value: %s", nodeField.Value),
				diag.GrmInvalidChoiceField)
		}

	case FieldMultipleChoice:
		if !commaSeparatedRe.MatchString(nodeField.Value) {
			return diag.Semantic(fs, diag.NewError(
				diag.GrmNotCommaSeparatedChoices, nodeField.Span,
				fmt.Sprintf("Requirement field of type MultipleChoice is invalid: %s", nodeField.Value),
			).WithHint("MultipleChoice field requires ', '-separated values."))
		}
		for _, part := range strings.Split(nodeField.Value, ", ") {
			if !grammarField.Type.HasOption(part) {
				return errInvalidChoiceValue(fs, node, element, nodeField,
					fmt.Sprintf("Requirement field has an invalid MultipleChoice value: %s", nodeField.Value),
					diag.GrmInvalidMultipleChoiceField)
			}
		}

	case FieldTag:
		if !commaSeparatedRe.MatchString(nodeField.Value) {
			return diag.Semantic(fs, diag.NewError(
				diag.GrmNotCommaSeparatedTagField, nodeField.Span,
				fmt.Sprintf("Requirement field of type Tag is invalid: %s", nodeField.Value),
			).WithHint("Tag field requires ', '-separated values."))
		}

	case FieldReference:
		for _, ref := range node.References {
			if !grammarField.Type.AllowsRefKind(ref.Kind) {
				return diag.Semantic(fs, diag.NewError(
					diag.GrmInvalidChoiceField, ref.Span,
					fmt.Sprintf("Requirement field has an invalid Reference type: %s", ref.Kind),
				).WithHint(fmt.Sprintf(
					"Problematic field: %s. Compare with the document grammar: [%s] for type: %s",
					nodeField.Name, grammarField.Type, node.Type,
				)))
			}
		}

	case FieldString:
		// Nothing to check on free-form values.
	}
	return nil
}

func errMissingRequiredField(fs *source.FileSet, node *Node, grammarField *GrammarField) error {
	return diag.Semantic(fs, diag.NewError(
		diag.GrmMissingRequiredField, node.Span,
		fmt.Sprintf("Requirement is missing a field that is required by grammar: %s", grammarField.Title),
	).WithHint(fmt.Sprintf("Requirement fields: [%s]", node.DumpFieldNames())))
}

func errUnexpectedFieldOutsideGrammar(fs *source.FileSet, node *Node, element *GrammarElement, field *NodeField) error {
	return diag.Semantic(fs, diag.NewError(
		diag.GrmUnexpectedFieldOutsideGrammar, field.Span,
		fmt.Sprintf("Unexpected field outside grammar: %s", field.Name),
	).WithHint(fmt.Sprintf(
		"Requirement fields: [%s], Grammar fields: [%s]",
		node.DumpFieldNames(), element.DumpFieldTitles(),
	)))
}

func errWrongFieldOrder(fs *source.FileSet, node *Node, element *GrammarElement, problematic *NodeField) error {
	return diag.Semantic(fs, diag.NewError(
		diag.GrmWrongFieldOrder, problematic.Span,
		fmt.Sprintf("Wrong field order for requirement: [%s]", node.DumpFieldNames()),
	).WithHint(fmt.Sprintf(
		"Problematic field: %s. Compare with the document grammar: [%s] for type: %s",
		problematic.Name, element.DumpFieldTitles(), node.Type,
	)))
}

func errInvalidChoiceValue(
	fs *source.FileSet,
	node *Node,
	element *GrammarElement,
	field *NodeField,
	title string,
	code diag.Code,
) error {
	return diag.Semantic(fs, diag.NewError(code, field.Span, title).
		WithHint(fmt.Sprintf(
			"Problematic field: %s. Compare with the document grammar: [%s] for type: %s",
			field.Name, element.DumpFieldTitles(), node.Type,
		)))
}

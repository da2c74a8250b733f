package diag

import (
	"fmt"
)

type Code uint16

const (
	// UnknownCode is the zero value; real diagnostics never carry it.
	UnknownCode Code = 0

	// Document syntax (1000-1999). Raised while reading the .rdoc dialect,
	// before any grammar semantics apply.
	SynInfo                 Code = 1000
	SynUnexpectedSection    Code = 1001
	SynExpectFieldLine      Code = 1002
	SynExpectFieldValue     Code = 1003
	SynUnterminatedBlock    Code = 1004
	SynBadListItem          Code = 1005
	SynBadFieldType         Code = 1006
	SynUnknownReferenceType Code = 1007
	SynDuplicateDocument    Code = 1008
	SynMissingDocument      Code = 1009
	SynBadSpecialFieldDecl  Code = 1010
	SynBadGrammarElement    Code = 1011

	// Marker range matching (2000-2999).
	RngInfo            Code = 2000
	RngEndWithoutBegin Code = 2001
	RngBeginEndMismatch Code = 2002
	RngUnmatchedRange  Code = 2003

	// Grammar field validation (3000-3999).
	GrmInfo                          Code = 3000
	GrmUnknownRequirementType        Code = 3001
	GrmUnregisteredField             Code = 3002
	GrmMissingRequiredField          Code = 3003
	GrmUnexpectedFieldOutsideGrammar Code = 3004
	GrmWrongFieldOrder               Code = 3005
	GrmInvalidChoiceField            Code = 3006
	GrmInvalidMultipleChoiceField    Code = 3007
	GrmNotCommaSeparatedChoices      Code = 3008
	GrmNotCommaSeparatedTagField     Code = 3009

	// Special fields (4000-4999).
	SpfInfo                            Code = 4000
	SpfMissingSpecialFields            Code = 4001
	SpfFieldIsMissingInDocConfig       Code = 4002
	SpfRequirementMissingSpecialFields Code = 4003
	SpfRequirementMissingRequiredField Code = 4004

	// I/O (5000-5999).
	IOLoadFileError Code = 5001

	// Observability (6000-6999).
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var codeDescription = map[Code]string{
	UnknownCode:             "Unknown error",
	SynInfo:                 "Document syntax information",
	SynUnexpectedSection:    "Unexpected section",
	SynExpectFieldLine:      "Expected a field line",
	SynExpectFieldValue:     "Expected a field value",
	SynUnterminatedBlock:    "Unterminated multiline value",
	SynBadListItem:          "Malformed list item",
	SynBadFieldType:         "Malformed field type expression",
	SynUnknownReferenceType: "Unknown reference type",
	SynDuplicateDocument:    "Duplicate [DOCUMENT] section",
	SynMissingDocument:      "Missing [DOCUMENT] section",
	SynBadSpecialFieldDecl:  "Malformed special field declaration",
	SynBadGrammarElement:    "Malformed grammar element",

	RngInfo:             "Range matching information",
	RngEndWithoutBegin:  "END marker without preceding BEGIN marker",
	RngBeginEndMismatch: "BEGIN and END requirements mismatch",
	RngUnmatchedRange:   "Unmatched range marker",

	GrmInfo:                          "Grammar validation information",
	GrmUnknownRequirementType:        "Invalid requirement type",
	GrmUnregisteredField:             "Invalid requirement field",
	GrmMissingRequiredField:          "Missing field required by grammar",
	GrmUnexpectedFieldOutsideGrammar: "Unexpected field outside grammar",
	GrmWrongFieldOrder:               "Wrong field order",
	GrmInvalidChoiceField:            "Invalid SingleChoice value",
	GrmInvalidMultipleChoiceField:    "Invalid MultipleChoice value",
	GrmNotCommaSeparatedChoices:      "MultipleChoice value is not comma separated",
	GrmNotCommaSeparatedTagField:     "Tag value is not comma separated",

	SpfInfo:                            "Special fields information",
	SpfMissingSpecialFields:            "Special fields are not registered document-wide",
	SpfFieldIsMissingInDocConfig:       "Undeclared special field",
	SpfRequirementMissingSpecialFields: "Missing required special fields",
	SpfRequirementMissingRequiredField: "Missing required special field",

	IOLoadFileError: "I/O load file error",

	ObsInfo:    "Observability information",
	ObsTimings: "Pipeline timings",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("RNG%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("GRM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("SPF%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// IsSemantic reports whether the code belongs to the closed semantic error
// taxonomy (range matching, grammar fields, special fields). Syntax and I/O
// failures are a distinct, non-semantic class.
func (c Code) IsSemantic() bool {
	return c >= 2000 && c < 5000
}

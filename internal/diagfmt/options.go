package diagfmt

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto chooses relative or absolute path automatically.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses absolute paths.
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color    bool
	Context  int8 // source lines shown around the primary line
	PathMode PathMode
	// ShowNotes includes attached notes under each diagnostic.
	ShowNotes bool
	// ShowHints includes the Hint and Example companion texts.
	ShowHints bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	IncludePositions bool // add line/col to every location
	PathMode         PathMode
	Max              int // output truncation; the Bag itself is untouched
	IncludeNotes     bool
	IncludeHints     bool
}

// ReportOpts configures the coverage report table.
type ReportOpts struct {
	Color bool
	// Width bounds the file-path column; zero means no truncation.
	Width int
	// ShowReqs appends the per-requirement site list after the table.
	ShowReqs bool
}

// SarifRunMeta provides metadata for SARIF output.
type SarifRunMeta struct {
	ToolName    string
	ToolVersion string
}

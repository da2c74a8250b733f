// Package project locates the project root, loads the reqtrace.toml
// manifest, and enumerates the document and source files a run operates on.
package project

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
)

// ManifestName is the file that marks a project root.
const ManifestName = "reqtrace.toml"

// ErrNoProject indicates that no reqtrace.toml was found walking up from
// the start directory. Callers may proceed with Default() in that case.
var ErrNoProject = errors.New("no " + ManifestName + " found")

// Manifest is the parsed reqtrace.toml.
type Manifest struct {
	Project ProjectSection `toml:"project"`
	Docs    DocsSection    `toml:"docs"`
	Trace   TraceSection   `toml:"trace"`
	Cache   CacheSection   `toml:"cache"`
}

// ProjectSection names the project.
type ProjectSection struct {
	Name string `toml:"name"`
}

// DocsSection lists where requirement documents live.
type DocsSection struct {
	Paths []string `toml:"paths"`
}

// TraceSection controls which source files are scanned for markers.
type TraceSection struct {
	Include          []string `toml:"include"`
	Exclude          []string `toml:"exclude"`
	Extensions       []string `toml:"extensions"`
	RespectGitignore bool     `toml:"respect_gitignore"`
}

// CacheSection toggles the trace result cache.
type CacheSection struct {
	Enabled bool `toml:"enabled"`
}

// DefaultExtensions is the out-of-the-box extension filter. Config formats
// whose section headers look exactly like markers (TOML, INI) stay out of
// it; a manifest that sets extensions = [] explicitly lifts the filter.
var DefaultExtensions = []string{
	".c", ".h", ".cc", ".cpp", ".hpp",
	".go", ".py", ".rs", ".js", ".ts", ".java", ".rb", ".sh",
}

// Default returns the manifest used when reqtrace.toml or any of its keys
// is absent: documents under docs/, sources under the whole tree filtered
// by DefaultExtensions, gitignore respected, cache on.
func Default() *Manifest {
	return &Manifest{
		Docs: DocsSection{
			Paths: []string{"docs"},
		},
		Trace: TraceSection{
			Include:          []string{"."},
			Extensions:       DefaultExtensions,
			RespectGitignore: true,
		},
		Cache: CacheSection{
			Enabled: true,
		},
	}
}

// Load parses the manifest at path. Keys absent from the file keep their
// Default() values; keys the schema does not know are an error.
func Load(path string) (*Manifest, error) {
	m := Default()
	meta, err := toml.DecodeFile(path, m)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	return m, nil
}

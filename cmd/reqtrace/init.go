package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"reqtrace/internal/project"
)

var initCmd = &cobra.Command{
	Use:   "init [path|name]",
	Short: "Initialize a new reqtrace project",
	Long: `Initialize a new reqtrace project by creating a project manifest
(reqtrace.toml) and a starter requirement document (docs/demo.rdoc). If
[path|name] is omitted, initializes the current directory. If a
non-existing name is provided, a directory will be created.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	target, err := resolveTargetDir(args)
	if err != nil {
		return err
	}
	name := projectName(target)

	manifestPath := filepath.Join(target, project.ManifestName)
	if _, err := os.Stat(manifestPath); err == nil {
		return fmt.Errorf("project already initialized: %s exists", manifestPath)
	}
	if err := os.WriteFile(manifestPath, []byte(buildStarterManifest(name)), 0o600); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	docPath := filepath.Join(target, "docs", "demo.rdoc")
	createdDoc, err := writeStarterDoc(docPath, name)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Initialized reqtrace project in %s\n", displayDir(target))
	fmt.Fprintf(out, "  - %s\n", project.ManifestName)
	if createdDoc {
		fmt.Fprintf(out, "  - docs/demo.rdoc\n")
	} else {
		fmt.Fprintf(out, "  - docs/demo.rdoc (existing)\n")
	}
	return nil
}

// resolveTargetDir turns the optional init argument into an absolute
// directory path, creating the directory when it does not exist yet.
func resolveTargetDir(args []string) (string, error) {
	arg := "."
	if len(args) > 0 {
		arg = args[0]
	}
	target, err := filepath.Abs(arg)
	if err != nil {
		return "", err
	}

	st, err := os.Stat(target)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := os.MkdirAll(target, 0o755); err != nil {
			return "", fmt.Errorf("failed to create directory %q: %w", target, err)
		}
	case err != nil:
		return "", err
	case !st.IsDir():
		return "", fmt.Errorf("%q is not a directory", target)
	}
	return target, nil
}

// projectName derives the manifest name from the directory basename.
func projectName(dir string) string {
	name := strings.TrimSpace(filepath.Base(dir))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "reqtrace-project"
	}
	return name
}

// writeStarterDoc drops the demo document unless one already exists. The
// bool reports whether a file was written.
func writeStarterDoc(path, name string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create docs directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(starterDocument(name)), 0o600); err != nil {
		return false, fmt.Errorf("failed to write demo document: %w", err)
	}
	return true, nil
}

// displayDir renders dir relative to the working directory when possible.
func displayDir(dir string) string {
	wd, err := os.Getwd()
	if err != nil {
		return dir
	}
	if rel, err := filepath.Rel(wd, dir); err == nil {
		return rel
	}
	return dir
}

// buildStarterManifest returns the manifest written by init. It spells out
// the defaults so a new project has something to edit.
func buildStarterManifest(name string) string {
	return fmt.Sprintf(`# reqtrace project manifest
[project]
name = "%s"

[docs]
paths = ["docs"]

[trace]
include = ["."]
respect_gitignore = true

[cache]
enabled = true
`, name)
}

// starterDocument returns the demo requirement document written by init.
func starterDocument(name string) string {
	return fmt.Sprintf(`[DOCUMENT]
TITLE: %s requirements

[REQUIREMENT]
UID: REQ-001
TITLE: Requirements are traced
STATEMENT: >>>
Every behavior of this project is captured as a requirement in this
document tree and linked to the code that implements it.
<<<
RATIONALE: Marker comments such as [REQ-001] tie code back to this file.
`, name)
}

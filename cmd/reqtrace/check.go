package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"reqtrace/internal/diag"
	"reqtrace/internal/diagfmt"
	"reqtrace/internal/driver"
	"reqtrace/internal/project"
	"reqtrace/internal/version"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [path ...]",
	Short: "Validate requirement documents against the grammar",
	Long: `Parse the project's requirement documents and validate every node against
the document grammar. Paths given as arguments override the manifest's
docs.paths and are resolved against the project root.`,
	Args: cobra.ArbitraryArgs,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|json|short|sarif)")
	checkCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	checkCmd.Flags().Bool("no-hints", false, "omit hint and example blocks")
}

type checkOutputJSON struct {
	Files map[string]diagfmt.DiagnosticsOutput `json:"files"`
	Run   *runReportJSON                       `json:"run,omitempty"`
}

// runCheck executes the "check" command: it resolves the project, parses
// and validates its documents, renders the diagnostics in the requested
// format, and exits non-zero when any document has errors.
func runCheck(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != "pretty" && format != "json" && format != "short" && format != "sarif" {
		return fmt.Errorf("unknown format: %s", format)
	}

	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}

	noHints, err := cmd.Flags().GetBool("no-hints")
	if err != nil {
		return fmt.Errorf("failed to get no-hints flag: %w", err)
	}

	colorValue, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}

	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}

	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}

	jobs, err := cmd.Root().PersistentFlags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}

	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}

	uiValue, err := cmd.Root().PersistentFlags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}

	uiModeValue, err := readUIMode(uiValue)
	if err != nil {
		return err
	}

	cleanup, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	useColor := colorValue == "on" || (colorValue == "auto" && isTerminal(os.Stdout))

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to resolve working directory: %w", err)
	}
	manifest, root, err := project.Discover(wd)
	if err != nil && !errors.Is(err, project.ErrNoProject) {
		return err
	}

	opts := driver.CheckOptions{
		MaxDiagnostics: maxDiagnostics,
		Jobs:           jobs,
		EnableTimings:  showTimings,
	}

	useTUI := format == "pretty" && !quiet && uiModeValue.enabled()

	var result *driver.CheckResult
	if useTUI {
		result, err = runCheckWithUI(cmd.Context(), "reqtrace check", root, manifest, args, opts)
	} else {
		result, err = driver.Check(cmd.Context(), root, manifest, args, opts)
	}
	if err != nil {
		return err
	}

	entries := collectCheckEntries(result.Files)

	switch format {
	case "short":
		all := make([]diag.Diagnostic, 0, len(entries))
		for _, entry := range entries {
			all = append(all, entry.Bag.Items()...)
		}
		if output := diag.FormatGoldenDiagnostics(all, result.FileSet, withNotes); output != "" {
			fmt.Fprintln(os.Stdout, output)
		}
	case "pretty":
		printPrettyDiagnostics(os.Stdout, result.FileSet, entries, diagfmt.PrettyOpts{
			Color:     useColor,
			Context:   2,
			PathMode:  diagfmt.PathModeRelative,
			ShowNotes: withNotes,
			ShowHints: !noHints,
		})
		printRunDiagnostics(os.Stdout, result.Pipeline, useColor)
		if !quiet {
			errs, warns := countSeverities(entries)
			fmt.Fprintf(os.Stdout, "checked %d document(s): %d error(s), %d warning(s)\n", len(result.Files), errs, warns)
		}
		if showTimings {
			printRunTimings(os.Stdout, driver.DecodeTimings(result.Pipeline))
		}
	case "json":
		output := checkOutputJSON{
			Files: buildFilesJSON(result.FileSet, entries, diagfmt.JSONOpts{
				IncludePositions: true,
				PathMode:         diagfmt.PathModeRelative,
				IncludeNotes:     withNotes,
				IncludeHints:     !noHints,
			}),
			Run: buildRunJSON(result.Pipeline),
		}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(output); err != nil {
			return fmt.Errorf("failed to encode diagnostics output: %w", err)
		}
	case "sarif":
		// Merge grows the bag's limit, so nothing is dropped here.
		merged := diag.NewBag(0)
		for _, entry := range entries {
			entry.Bag.Sort()
			merged.Merge(entry.Bag)
		}
		meta := diagfmt.SarifRunMeta{ToolName: "reqtrace", ToolVersion: version.Number}
		if err := diagfmt.Sarif(os.Stdout, merged, result.FileSet, meta); err != nil {
			return fmt.Errorf("failed to encode sarif output: %w", err)
		}
	}

	if result.HasErrors() {
		// Suppress cobra usage output; the diagnostics were already printed.
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("")
	}
	return nil
}

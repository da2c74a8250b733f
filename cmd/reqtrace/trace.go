package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"reqtrace/internal/diagfmt"
	"reqtrace/internal/driver"
	"reqtrace/internal/project"
)

var traceCmd = &cobra.Command{
	Use:   "trace [flags] [path ...]",
	Short: "Trace requirements to source markers and report coverage",
	Long: `Scan the project's source files for requirement markers, match begin/end
ranges, and report per-file line coverage plus the requirement-to-source
index. File references in the documents count as whole-file coverage of
their target. Paths given as arguments override the manifest's
trace.include and are resolved against the project root.`,
	Args: cobra.ArbitraryArgs,
	RunE: runTrace,
}

func init() {
	traceCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	traceCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	traceCmd.Flags().Bool("no-hints", false, "omit hint and example blocks")
	traceCmd.Flags().Bool("reqs", true, "list every requirement's marker sites after the table")
	traceCmd.Flags().Float64("fail-under", 0, "exit non-zero when total coverage is below this percentage")
	traceCmd.Flags().Bool("no-cache", false, "bypass the trace result cache")
	traceCmd.Flags().String("cache-dir", "", "cache directory override")
}

type traceOutputJSON struct {
	Files    map[string]diagfmt.DiagnosticsOutput `json:"files"`
	Coverage diagfmt.TraceOutput                  `json:"coverage"`
	Run      *runReportJSON                       `json:"run,omitempty"`
}

// runTrace executes the "trace" command: it resolves the project, scans its
// sources for markers, renders diagnostics plus the coverage report, and
// exits non-zero on errors or when --fail-under is not met.
func runTrace(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != "pretty" && format != "json" {
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

	showReqs, err := cmd.Flags().GetBool("reqs")
	if err != nil {
		return fmt.Errorf("failed to get reqs flag: %w", err)
	}

	failUnder, err := cmd.Flags().GetFloat64("fail-under")
	if err != nil {
		return fmt.Errorf("failed to get fail-under flag: %w", err)
	}
	if failUnder < 0 || failUnder > 100 {
		return fmt.Errorf("invalid --fail-under value %.1f (expected 0..100)", failUnder)
	}

	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return fmt.Errorf("failed to get no-cache flag: %w", err)
	}

	cacheDir, err := cmd.Flags().GetString("cache-dir")
	if err != nil {
		return fmt.Errorf("failed to get cache-dir flag: %w", err)
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

	opts := driver.TraceOptions{
		MaxDiagnostics: maxDiagnostics,
		Jobs:           jobs,
		EnableTimings:  showTimings,
		NoCache:        noCache,
		CacheDir:       cacheDir,
	}

	useTUI := format == "pretty" && !quiet && uiModeValue.enabled()

	var result *driver.TraceResult
	if useTUI {
		result, err = runTraceWithUI(cmd.Context(), "reqtrace trace", root, manifest, args, opts)
	} else {
		result, err = driver.Trace(cmd.Context(), root, manifest, args, opts)
	}
	if err != nil {
		return err
	}

	entries := collectTraceEntries(result.Docs, result.Files)
	infos := result.Infos()
	coverage := diagfmt.BuildTraceOutput(infos, result.Index)

	switch format {
	case "pretty":
		printPrettyDiagnostics(os.Stdout, result.FileSet, entries, diagfmt.PrettyOpts{
			Color:     useColor,
			Context:   2,
			PathMode:  diagfmt.PathModeRelative,
			ShowNotes: withNotes,
			ShowHints: !noHints,
		})
		printRunDiagnostics(os.Stdout, result.Pipeline, useColor)
		diagfmt.TracePretty(os.Stdout, infos, result.Index, diagfmt.ReportOpts{
			Color:    useColor,
			Width:    reportPathWidth(),
			ShowReqs: showReqs,
		})
		if showTimings {
			printRunTimings(os.Stdout, driver.DecodeTimings(result.Pipeline))
		}
	case "json":
		output := traceOutputJSON{
			Files: buildFilesJSON(result.FileSet, entries, diagfmt.JSONOpts{
				IncludePositions: true,
				PathMode:         diagfmt.PathModeRelative,
				IncludeNotes:     withNotes,
				IncludeHints:     !noHints,
			}),
			Coverage: coverage,
			Run:      buildRunJSON(result.Pipeline),
		}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(output); err != nil {
			return fmt.Errorf("failed to encode trace output: %w", err)
		}
	}

	failed := result.HasErrors()
	if failUnder > 0 && coverage.Totals.Coverage < failUnder {
		fmt.Fprintf(os.Stderr, "coverage %.1f%% is below the required %.1f%%\n", coverage.Totals.Coverage, failUnder)
		failed = true
	}
	if failed {
		// Suppress cobra usage output; the diagnostics were already printed.
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("")
	}
	return nil
}

// reportPathWidth bounds the coverage table's path column to the terminal.
func reportPathWidth() int {
	if !isTerminal(os.Stdout) {
		return 0
	}
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 40 {
		return 0
	}
	// Leave room for the numeric columns.
	return width - 28
}

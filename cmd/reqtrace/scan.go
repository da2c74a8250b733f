package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"reqtrace/internal/diag"
	"reqtrace/internal/diagfmt"
	"reqtrace/internal/source"
	"reqtrace/internal/srctrace"
)

var scanCmd = &cobra.Command{
	Use:   "scan [flags] <file>",
	Short: "Dump the requirement markers of one source file",
	Long: `Scan a single source file and print every requirement marker that
survives range matching, with its resolved line range.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

// runScan executes the "scan" command for one file. Range errors print as
// a diagnostic and exit non-zero.
func runScan(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unknown format: %s", format)
	}

	colorValue, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}

	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}

	useColor := colorValue == "on" || (colorValue == "auto" && isTerminal(os.Stdout))

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to resolve working directory: %w", err)
	}
	fs := source.NewFileSetWithBase(wd)

	info, err := srctrace.ReadFromFile(fs, filePath)
	if err != nil {
		var sem *diag.SemanticError
		if !errors.As(err, &sem) {
			return err
		}
		diagfmt.PrettyOne(os.Stdout, sem.Diag, fs, diagfmt.PrettyOpts{
			Color:     useColor,
			Context:   2,
			PathMode:  diagfmt.PathModeRelative,
			ShowNotes: true,
			ShowHints: true,
		})
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("")
	}

	switch format {
	case "pretty":
		diagfmt.FormatMarkersPretty(os.Stdout, filePath, info.Markers)
		if !quiet {
			fmt.Fprintf(os.Stdout, "coverage: %d/%d line(s) (%.1f%%)\n", info.LinesCovered, info.LinesTotal, info.Coverage)
		}
	case "json":
		if err := diagfmt.FormatMarkersJSON(os.Stdout, filePath, info.Markers); err != nil {
			return fmt.Errorf("failed to encode markers output: %w", err)
		}
	}
	return nil
}

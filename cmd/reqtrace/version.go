package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"reqtrace/internal/version"
)

const versionTagline = "every marker answers to a requirement"

type versionOptions struct {
	format  string
	color   bool
	hash    bool
	message bool
	date    bool
}

type versionPayload struct {
	Tool       string `json:"tool"`
	Version    string `json:"version"`
	Tagline    string `json:"tagline"`
	GitCommit  string `json:"git_commit,omitempty"`
	GitMessage string `json:"git_message,omitempty"`
	BuildDate  string `json:"build_date,omitempty"`
}

var (
	versionFormat      string
	versionShowHash    bool
	versionShowMessage bool
	versionShowDate    bool
	versionShowFull    bool
)

func init() {
	flags := versionCmd.Flags()
	flags.BoolVar(&versionShowHash, "hash", false, "print the git commit hash")
	flags.BoolVar(&versionShowMessage, "message", false, "print the git commit message")
	flags.BoolVar(&versionShowDate, "date", false, "print the build timestamp")
	flags.BoolVar(&versionShowFull, "full", false, "print every recorded bit of build metadata")
	flags.StringVar(&versionFormat, "format", "pretty", "output format (pretty|json)")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show reqtrace build fingerprints",
	RunE: func(cmd *cobra.Command, args []string) error {
		colorValue, err := cmd.Root().PersistentFlags().GetString("color")
		if err != nil {
			return fmt.Errorf("failed to get color flag: %w", err)
		}

		opts := versionOptions{
			format:  strings.ToLower(versionFormat),
			color:   colorValue == "on" || (colorValue == "auto" && isTerminal(os.Stdout)),
			hash:    versionShowHash || versionShowFull,
			message: versionShowMessage || versionShowFull,
			date:    versionShowDate || versionShowFull,
		}
		if opts.format != "pretty" && opts.format != "json" {
			return fmt.Errorf("unsupported format %q (must be pretty or json)", versionFormat)
		}

		if opts.format == "json" {
			return renderVersionJSON(cmd.OutOrStdout(), opts)
		}
		renderVersionPretty(cmd.OutOrStdout(), opts)
		return nil
	},
}

func versionNumber() string {
	if v := strings.TrimSpace(version.Number); v != "" {
		return v
	}
	return "dev"
}

// vcsSetting reads one key from the build info the Go toolchain embeds
// into the binary.
func vcsSetting(key string) string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range bi.Settings {
		if s.Key == key {
			return s.Value
		}
	}
	return ""
}

// buildMetadata resolves the commit, message and date lines. Values stamped
// via -ldflags win; commit and date fall back to what the toolchain
// recorded from the enclosing git checkout.
func buildMetadata() (commit, message, date string) {
	commit = strings.TrimSpace(version.GitCommit)
	if commit == "" {
		commit = vcsSetting("vcs.revision")
	}
	message = strings.TrimSpace(version.GitMessage)
	date = strings.TrimSpace(version.BuildDate)
	if date == "" {
		date = vcsSetting("vcs.time")
	}
	return commit, message, date
}

func renderVersionPretty(out io.Writer, opts versionOptions) {
	banner := versionNumber()
	if opts.color {
		banner = version.Colored()
	}
	fmt.Fprintf(out, "reqtrace %s - %s\n", banner, versionTagline)

	commit, message, date := buildMetadata()
	lines := []struct {
		label string
		value string
		show  bool
	}{
		{"commit", commit, opts.hash},
		{"message", message, opts.message},
		{"built", date, opts.date},
	}
	shown := 0
	for _, line := range lines {
		if !line.show {
			continue
		}
		fmt.Fprintf(out, "%s: %s\n", line.label, valueOrUnknown(line.value))
		shown++
	}
	if shown == 0 {
		fmt.Fprintln(out, "set --hash, --message, --date, or --full for more build trivia")
	}
}

func renderVersionJSON(out io.Writer, opts versionOptions) error {
	commit, message, date := buildMetadata()
	payload := versionPayload{
		Tool:    "reqtrace",
		Version: versionNumber(),
		Tagline: versionTagline,
	}
	if opts.hash {
		payload.GitCommit = valueOrUnknown(commit)
	}
	if opts.message {
		payload.GitMessage = valueOrUnknown(message)
	}
	if opts.date {
		payload.BuildDate = valueOrUnknown(date)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func valueOrUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

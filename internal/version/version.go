package version

import (
	"strings"

	"github.com/fatih/color"
)

// Version information for the reqtrace CLI.
// These variables can be overridden at build time via -ldflags.

var (
	// Number is the plain semantic version. It participates in cache keys,
	// so it must stay free of styling.
	Number = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// GitMessage is an optional git commit message.
	GitMessage = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	majorColor = color.New(color.FgYellow, color.Bold)
	minorColor = color.New(color.FgGreen, color.Bold)
	patchColor = color.New(color.FgBlue, color.Bold)
)

// Colored renders Number for the version banner, tinting the major, minor,
// and patch components. An override that is not a three-part semantic
// version renders unstyled.
func Colored() string {
	core, rest := Number, ""
	if i := strings.IndexAny(Number, "-+"); i >= 0 {
		core, rest = Number[:i], Number[i:]
	}
	parts := strings.SplitN(core, ".", 3)
	if len(parts) != 3 {
		return Number
	}
	return majorColor.Sprint(parts[0]) + "." +
		minorColor.Sprint(parts[1]) + "." +
		patchColor.Sprint(parts[2]) + rest
}

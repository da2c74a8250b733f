package main

import (
	"fmt"
	"io"

	"reqtrace/internal/driver"
)

func printRunTimings(out io.Writer, payloads []driver.TimingPayload) {
	if out == nil {
		return
	}
	for _, payload := range payloads {
		fmt.Fprintf(out, "timings (%s):\n", payload.Kind)
		for _, phase := range payload.Phases {
			fmt.Fprintf(out, "  %-20s %7.2f ms", phase.Name, phase.DurationMS)
			if phase.Note != "" {
				fmt.Fprintf(out, "  // %s", phase.Note)
			}
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "  %-20s %7.2f ms\n", "total", payload.TotalMS)
	}
}

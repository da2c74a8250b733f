package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"reqtrace/internal/prof"
)

// setupProfiling starts the profilers requested through the persistent
// flags and returns the teardown function. The teardown is idempotent.
func setupProfiling(cmd *cobra.Command) (func(), error) {
	flags := cmd.Root().PersistentFlags()

	cpuPath, err := flags.GetString("cpu-profile")
	if err != nil {
		return nil, fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	heapPath, err := flags.GetString("mem-profile")
	if err != nil {
		return nil, fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	tracePath, err := flags.GetString("runtime-trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}

	session := &prof.Session{}
	if cpuPath != "" {
		if err := session.StartCPU(cpuPath); err != nil {
			return nil, err
		}
	}
	if tracePath != "" {
		if err := session.StartTrace(tracePath); err != nil {
			_ = session.Stop()
			return nil, err
		}
	}
	if heapPath != "" {
		session.HeapOnStop(heapPath)
	}

	return func() {
		if err := session.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "profiling teardown: %v\n", err)
		}
	}, nil
}

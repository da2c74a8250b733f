// Package prof wires the runtime profilers behind one session object, so a
// command can start whichever profiles were requested and tear all of them
// down with a single call.
package prof

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
)

// Session owns the profiling outputs of one command invocation. The zero
// value is inert: Stop on an empty session does nothing.
type Session struct {
	cpu      *os.File
	trace    *os.File
	heapPath string
	stopped  bool
}

// StartCPU begins CPU sampling into path.
func (s *Session) StartCPU(path string) error {
	f, err := os.Create(path) // #nosec G304 -- path is an operator-supplied flag
	if err != nil {
		return fmt.Errorf("create cpu profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("start cpu profile: %w", err)
	}
	s.cpu = f
	return nil
}

// StartTrace begins execution tracing into path.
func (s *Session) StartTrace(path string) error {
	f, err := os.Create(path) // #nosec G304 -- path is an operator-supplied flag
	if err != nil {
		return fmt.Errorf("create runtime trace: %w", err)
	}
	if err := trace.Start(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("start runtime trace: %w", err)
	}
	s.trace = f
	return nil
}

// HeapOnStop schedules a heap profile snapshot for Stop time, after the
// measured work has finished.
func (s *Session) HeapOnStop(path string) {
	s.heapPath = path
}

// Stop tears the session down in reverse start order: trace first, then
// CPU, then the deferred heap snapshot. Repeated calls are no-ops; the
// first error is returned but never blocks the remaining teardown.
func (s *Session) Stop() error {
	if s.stopped {
		return nil
	}
	s.stopped = true

	var firstErr error
	if s.trace != nil {
		trace.Stop()
		if err := s.trace.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close runtime trace: %w", err)
		}
		s.trace = nil
	}
	if s.cpu != nil {
		pprof.StopCPUProfile()
		if err := s.cpu.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close cpu profile: %w", err)
		}
		s.cpu = nil
	}
	if s.heapPath != "" {
		if err := writeHeap(s.heapPath); err != nil && firstErr == nil {
			firstErr = err
		}
		s.heapPath = ""
	}
	return firstErr
}

func writeHeap(path string) error {
	f, err := os.Create(path) // #nosec G304 -- path is an operator-supplied flag
	if err != nil {
		return fmt.Errorf("create heap profile: %w", err)
	}
	runtime.GC() // flush unreachable objects before the snapshot
	if err := pprof.WriteHeapProfile(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write heap profile: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close heap profile: %w", err)
	}
	return nil
}

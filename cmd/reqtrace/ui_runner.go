package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"reqtrace/internal/driver"
	"reqtrace/internal/pipeline"
	"reqtrace/internal/project"
	"reqtrace/internal/ui"
)

// runWithUI drives fn under a Bubble Tea progress view. fn runs on its own
// goroutine reporting into a channel sink; the view quits once fn returns
// and the channel drains. A UI failure wins over the run's own error, the
// run result is returned either way.
func runWithUI[T any](title string, fn func(pipeline.ProgressSink) (T, error)) (T, error) {
	type outcome struct {
		value T
		err   error
	}
	events := make(chan pipeline.Event, 256)
	results := make(chan outcome, 1)

	go func() {
		value, err := fn(pipeline.ChannelSink{Ch: events})
		results <- outcome{value: value, err: err}
		close(events)
	}()

	program := tea.NewProgram(ui.NewProgressModel(title, events), tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	res := <-results
	if uiErr != nil {
		return res.value, uiErr
	}
	return res.value, res.err
}

func runCheckWithUI(ctx context.Context, title, root string, m *project.Manifest, paths []string, opts driver.CheckOptions) (*driver.CheckResult, error) {
	return runWithUI(title, func(sink pipeline.ProgressSink) (*driver.CheckResult, error) {
		opts.Sink = sink
		return driver.Check(ctx, root, m, paths, opts)
	})
}

func runTraceWithUI(ctx context.Context, title, root string, m *project.Manifest, paths []string, opts driver.TraceOptions) (*driver.TraceResult, error) {
	return runWithUI(title, func(sink pipeline.ProgressSink) (*driver.TraceResult, error) {
		opts.Sink = sink
		return driver.Trace(ctx, root, m, paths, opts)
	})
}

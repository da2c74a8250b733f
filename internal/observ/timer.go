// Package observ provides the phase timer behind --timings.
package observ

import (
	"fmt"
	"strings"
	"time"
)

// Phase is one timed span of a run.
type Phase struct {
	Name  string
	Start time.Time
	Dur   time.Duration
	Note  string
}

// Timer accumulates named phases for one run. Not safe for concurrent use;
// each driver run owns its timer.
type Timer struct {
	phases []Phase
}

func NewTimer() *Timer { return &Timer{} }

// Begin opens a phase and returns the closer that records its duration and
// note. The closer keeps the first measurement; later calls are no-ops. A
// nil receiver returns a working no-op closer, so callers can time
// unconditionally and let the --timings flag decide whether a timer exists.
func (t *Timer) Begin(name string) func(note string) {
	if t == nil {
		return func(string) {}
	}
	i := len(t.phases)
	t.phases = append(t.phases, Phase{Name: name, Start: time.Now()})
	closed := false
	return func(note string) {
		if closed {
			return
		}
		closed = true
		p := &t.phases[i]
		p.Dur = time.Since(p.Start)
		p.Note = note
	}
}

// PhaseReport is the serializable form of one timed phase.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
}

// Report aggregates the timer's phases.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

// Report flattens the recorded phases into milliseconds. A nil or empty
// timer yields the zero report.
func (t *Timer) Report() Report {
	if t == nil || len(t.phases) == 0 {
		return Report{}
	}
	out := Report{Phases: make([]PhaseReport, len(t.phases))}
	var total time.Duration
	for i, p := range t.phases {
		total += p.Dur
		out.Phases[i] = PhaseReport{
			Name:       p.Name,
			DurationMS: millis(p.Dur),
			Note:       p.Note,
		}
	}
	out.TotalMS = millis(total)
	return out
}

// Summary renders the report as the indented block the CLI prints.
func (t *Timer) Summary() string {
	report := t.Report()
	var b strings.Builder
	b.WriteString("timings:\n")
	for _, p := range report.Phases {
		fmt.Fprintf(&b, "  %-20s %7.2f ms", p.Name, p.DurationMS)
		if p.Note != "" {
			b.WriteString("  // " + p.Note)
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "  %-20s %7.2f ms\n", "total", report.TotalMS)
	return b.String()
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Package pipeline defines the stage/status vocabulary and the progress
// event stream shared by the driver and the UI layers.
package pipeline

import "time"

// Stage describes a high-level pipeline phase.
type Stage string

const (
	// StageParse is the document parsing and validation stage.
	StageParse Stage = "parse"
	// StageScan is the source marker scanning stage.
	StageScan Stage = "scan"
	// StageMatch is the range matching and coverage stage.
	StageMatch Stage = "match"
	// StageReport is the rendering stage.
	StageReport Stage = "report"
)

// OrderedStages lists the stages in execution order. The progress UI uses
// the position of a stage here to derive overall depth.
var OrderedStages = []Stage{StageParse, StageScan, StageMatch, StageReport}

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the task is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the task is currently working.
	StatusWorking Status = "working"
	// StatusDone indicates the task is done.
	StatusDone Status = "done"
	// StatusError indicates the task encountered an error.
	StatusError Status = "error"
)

// Event reports progress for a file (or for the overall pipeline when File
// is empty).
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

package buildpipeline

import "time"

// Stage is one step a unit goes through.
type Stage string

const (
	StageDecode Stage = "decode" // read the .tast document
	StageEmit   Stage = "emit"   // lower the unit to an IR module
	StageWrite  Stage = "write"  // print the module as .ll text
)

// Status of a unit within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
	// StatusSkipped marks a unit cancelled because another unit faulted.
	StatusSkipped Status = "skipped"
)

// Event reports progress of one unit, or of the whole build when File
// is empty.
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink receives events from concurrent unit workers.
type ProgressSink interface {
	OnEvent(Event)
}

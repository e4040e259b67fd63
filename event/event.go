// Package event provides an observable event stream for pipeline runs.
// Consumers receive events on a buffered channel; emission never blocks the
// pipeline, so a slow consumer drops events rather than stalling a run.
package event

import (
	"time"

	campaigner "github.com/spetersoncode/campaigner"
)

// Type identifies the kind of event.
type Type string

// Run lifecycle events
const (
	// RunStart fires when a workflow run begins.
	RunStart Type = "run_start"

	// RunEnd fires when a run reaches a terminal status.
	RunEnd Type = "run_end"

	// RunError fires when a run fails.
	RunError Type = "run_error"
)

// Stage lifecycle events
const (
	// StageStart fires when a stage begins executing.
	StageStart Type = "stage_start"

	// StageEnd fires when a stage completes successfully.
	StageEnd Type = "stage_end"

	// StageRetry fires when a stage failed transiently and will be rerun.
	StageRetry Type = "stage_retry"
)

// Checkpoint and refinement events
const (
	// CheckpointReached fires when a run suspends for human review.
	CheckpointReached Type = "checkpoint_reached"

	// CheckpointResumed fires when a suspended run continues.
	CheckpointResumed Type = "checkpoint_resumed"

	// RefinementTriggered fires when review sends assets back to content
	// generation.
	RefinementTriggered Type = "refinement_triggered"
)

// Event is one observable occurrence during a pipeline run.
type Event struct {
	// Type identifies the kind of event.
	Type Type

	// RunID identifies the workflow run.
	RunID string

	// Stage is the pipeline stage the event concerns, when applicable.
	Stage campaigner.StageName

	// Attempt is the 1-indexed attempt number for StageRetry events.
	Attempt int

	// AssetIDs lists the assets flagged for RefinementTriggered events.
	AssetIDs []string

	// Error carries the failure for RunError and StageRetry events.
	Error error

	// Message contains additional context.
	Message string

	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// Emit sends an event with timestamp to the channel (non-blocking).
func Emit(ch chan<- Event, e Event) {
	if ch == nil {
		return
	}
	e.Timestamp = time.Now()
	select {
	case ch <- e:
	default:
		// Channel full - don't block
	}
}

// NewChannel creates a buffered event channel with standard capacity.
func NewChannel() chan Event {
	return make(chan Event, 100)
}

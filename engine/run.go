package engine

import (
	"time"

	"github.com/google/uuid"

	campaigner "github.com/spetersoncode/campaigner"
)

// Status is the lifecycle state of a workflow run.
type Status string

const (
	// StatusRunning means the run is ready for the next Advance call.
	StatusRunning Status = "running"

	// StatusAwaitingReview means the run is suspended at a checkpoint until
	// Resume is called.
	StatusAwaitingReview Status = "awaiting_review"

	// StatusCompleted means the review stage accepted the campaign.
	StatusCompleted Status = "completed"

	// StatusFailed means a stage failed fatally or exhausted its retries.
	StatusFailed Status = "failed"

	// StatusAborted means the operator cancelled the run.
	StatusAborted Status = "aborted"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusAborted
}

// WorkflowRun is one execution of the campaign pipeline. While the run is
// suspended at a checkpoint, Current still names the completed checkpoint
// stage; Resume advances it.
type WorkflowRun struct {
	ID           string                       `json:"id"`
	State        *campaigner.CampaignState    `json:"state"`
	Current      campaigner.StageName         `json:"current_stage"`
	StageRetries map[campaigner.StageName]int `json:"stage_retries,omitempty"`
	Status       Status                       `json:"status"`
	CreatedAt    time.Time                    `json:"created_at"`
	UpdatedAt    time.Time                    `json:"updated_at"`
}

func newRun(in campaigner.Inputs) *WorkflowRun {
	now := time.Now().UTC()
	return &WorkflowRun{
		ID:           uuid.NewString(),
		State:        campaigner.NewCampaignState(in),
		Current:      campaigner.StageResearch,
		StageRetries: make(map[campaigner.StageName]int),
		Status:       StatusRunning,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// touch bumps the modification timestamp.
func (r *WorkflowRun) touch() {
	r.UpdatedAt = time.Now().UTC()
}

// Package engine drives campaign workflow runs through the stage pipeline.
// It owns stage sequencing, per-stage retry budgets, checkpoint suspension
// for human review, and the refinement loop between review and content
// generation.
package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	campaigner "github.com/spetersoncode/campaigner"
	"github.com/spetersoncode/campaigner/event"
	"github.com/spetersoncode/campaigner/stage"
)

// defaultCheckpoints are the stages after which a run suspends for review.
var defaultCheckpoints = []campaigner.StageName{
	campaigner.StageSegment,
	campaigner.StageStrategy,
	campaigner.StageBrief,
	campaigner.StageJTBD,
}

// Engine executes workflow runs against a stage registry.
type Engine struct {
	registry    *stage.Registry
	cfg         campaigner.Config
	checkpoints map[campaigner.StageName]bool
	log         *zap.Logger
	events      chan<- event.Event
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithEvents sets the channel receiving lifecycle events. Emission is
// non-blocking; a full channel drops events.
func WithEvents(ch chan<- event.Event) Option {
	return func(e *Engine) { e.events = ch }
}

// WithCheckpoints replaces the default checkpoint stages.
func WithCheckpoints(stages ...campaigner.StageName) Option {
	return func(e *Engine) {
		e.checkpoints = make(map[campaigner.StageName]bool, len(stages))
		for _, s := range stages {
			e.checkpoints[s] = true
		}
	}
}

// New creates an engine over the given stage registry and configuration.
func New(registry *stage.Registry, cfg campaigner.Config, opts ...Option) *Engine {
	e := &Engine{
		registry: registry,
		cfg:      cfg,
		log:      zap.NewNop(),
	}
	WithCheckpoints(defaultCheckpoints...)(e)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewRun starts a workflow run from the given inputs.
func (e *Engine) NewRun(in campaigner.Inputs) *WorkflowRun {
	run := newRun(in)
	e.log.Info("run created", zap.String("run_id", run.ID))
	e.emit(event.Event{Type: event.RunStart, RunID: run.ID})
	return run
}

// GetState returns a copy of the run's aggregate. Callers may inspect or
// edit the copy freely without affecting the run.
func (e *Engine) GetState(run *WorkflowRun) *campaigner.CampaignState {
	return run.State.Clone()
}

// Advance executes the run's current stage. A transiently failing stage is
// rerun against the pre-stage state until its retry budget is spent. After a
// successful stage the run either moves to the next stage, suspends at a
// checkpoint, loops review back to content generation, or completes.
func (e *Engine) Advance(ctx context.Context, run *WorkflowRun) error {
	if run.Status != StatusRunning {
		return fmt.Errorf("%w: cannot advance run in status %q",
			campaigner.ErrInvalidStateTransition, run.Status)
	}

	name := run.Current
	st := e.registry.Get(name)
	if st == nil {
		return e.fail(run, fmt.Errorf("%w: no stage registered for %q",
			campaigner.ErrCorruptState, name))
	}

	settings := e.cfg.StageSettingsFor(name)
	out := e.runStage(ctx, run, st, settings)
	if run.Status != StatusRunning {
		// Aborted while the stage was in flight; discard its output.
		return nil
	}
	if out.Err != nil {
		return e.fail(run, out.Err)
	}

	run.State = out.State
	delete(run.StageRetries, name)
	run.touch()
	e.log.Info("stage completed", zap.String("run_id", run.ID), zap.String("stage", string(name)))
	e.emit(event.Event{Type: event.StageEnd, RunID: run.ID, Stage: name})

	e.transition(run, name)
	return nil
}

// runStage executes one stage with its retry budget. Every attempt starts
// from the same pre-stage state; stages clone internally.
func (e *Engine) runStage(ctx context.Context, run *WorkflowRun, st stage.Stage, settings campaigner.StageSettings) stage.Outcome {
	name := st.Name()
	e.emit(event.Event{Type: event.StageStart, RunID: run.ID, Stage: name})

	for {
		out := st.Run(ctx, run.State, settings)
		if out.Err == nil {
			return out
		}
		if !campaigner.IsTransient(out.Err) || ctx.Err() != nil {
			return out
		}

		run.StageRetries[name]++
		attempt := run.StageRetries[name]
		if attempt > settings.MaxRetries {
			return stage.Outcome{Err: fmt.Errorf("stage %s exhausted %d retries: %w",
				name, settings.MaxRetries, out.Err)}
		}

		run.touch()
		e.log.Warn("stage retrying",
			zap.String("run_id", run.ID),
			zap.String("stage", string(name)),
			zap.Int("attempt", attempt),
			zap.Error(out.Err))
		e.emit(event.Event{Type: event.StageRetry, RunID: run.ID, Stage: name, Attempt: attempt, Error: out.Err})
	}
}

// transition decides where the run goes after completing a stage.
func (e *Engine) transition(run *WorkflowRun, completed campaigner.StageName) {
	if completed == campaigner.StageReview {
		if ids := refinementTargets(run.State); len(ids) > 0 {
			run.Current = campaigner.StageContent
			e.log.Info("refinement triggered",
				zap.String("run_id", run.ID), zap.Strings("asset_ids", ids))
			e.emit(event.Event{Type: event.RefinementTriggered, RunID: run.ID, AssetIDs: ids})
			return
		}
		run.Status = StatusCompleted
		e.log.Info("run completed", zap.String("run_id", run.ID))
		e.emit(event.Event{Type: event.RunEnd, RunID: run.ID, Message: string(StatusCompleted)})
		return
	}

	if e.checkpoints[completed] {
		// Current deliberately stays at the completed stage until Resume.
		run.Status = StatusAwaitingReview
		e.log.Info("checkpoint reached",
			zap.String("run_id", run.ID), zap.String("stage", string(completed)))
		e.emit(event.Event{Type: event.CheckpointReached, RunID: run.ID, Stage: completed})
		return
	}

	run.Current = campaigner.StageOrder[campaigner.StageIndex(completed)+1]
}

// Resume continues a run suspended at a checkpoint. A non-nil edited state
// replaces the run's aggregate after validation; passing nil keeps the
// aggregate as the checkpoint left it.
func (e *Engine) Resume(run *WorkflowRun, edited *campaigner.CampaignState) error {
	if run.Status != StatusAwaitingReview {
		return fmt.Errorf("%w: cannot resume run in status %q",
			campaigner.ErrInvalidStateTransition, run.Status)
	}

	if edited != nil {
		if err := validateEdit(run.Current, run.State, edited); err != nil {
			return err
		}
		run.State = edited.Clone()
	}

	run.Current = campaigner.StageOrder[campaigner.StageIndex(run.Current)+1]
	run.Status = StatusRunning
	run.touch()
	e.log.Info("run resumed",
		zap.String("run_id", run.ID), zap.String("next_stage", string(run.Current)))
	e.emit(event.Event{Type: event.CheckpointResumed, RunID: run.ID, Stage: run.Current})
	return nil
}

// Abort cancels a non-terminal run.
func (e *Engine) Abort(run *WorkflowRun) error {
	if run.Status.Terminal() {
		return fmt.Errorf("%w: cannot abort run in status %q",
			campaigner.ErrInvalidStateTransition, run.Status)
	}
	run.Status = StatusAborted
	run.touch()
	e.log.Info("run aborted", zap.String("run_id", run.ID))
	e.emit(event.Event{Type: event.RunEnd, RunID: run.ID, Message: string(StatusAborted)})
	return nil
}

// Run advances until the run suspends at a checkpoint or reaches a terminal
// status. It returns nil for a suspended or completed run.
func (e *Engine) Run(ctx context.Context, run *WorkflowRun) error {
	for run.Status == StatusRunning {
		if err := e.Advance(ctx, run); err != nil {
			return err
		}
	}
	return nil
}

// fail moves the run to StatusFailed and reports the cause.
func (e *Engine) fail(run *WorkflowRun, err error) error {
	run.Status = StatusFailed
	run.touch()
	e.log.Error("run failed",
		zap.String("run_id", run.ID),
		zap.String("stage", string(run.Current)),
		zap.Error(err))
	e.emit(event.Event{Type: event.RunError, RunID: run.ID, Stage: run.Current, Error: err})
	return err
}

func (e *Engine) emit(ev event.Event) {
	if e.events != nil {
		event.Emit(e.events, ev)
	}
}

// refinementTargets lists the assets review flagged for another content
// generation pass.
func refinementTargets(state *campaigner.CampaignState) []string {
	var ids []string
	for _, spec := range state.Manifest {
		if spec.Status == campaigner.AssetNeedsRefinement {
			ids = append(ids, spec.ID)
		}
	}
	return ids
}

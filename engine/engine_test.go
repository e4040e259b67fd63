package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	campaigner "github.com/spetersoncode/campaigner"
	"github.com/spetersoncode/campaigner/event"
	"github.com/spetersoncode/campaigner/stage"
)

// stubStage registers a Func that applies mutate to a clone of the state.
func stubStage(r *stage.Registry, name campaigner.StageName, mutate func(*campaigner.CampaignState)) {
	r.Register(stage.Func{
		StageName: name,
		RunFunc: func(ctx context.Context, state *campaigner.CampaignState, settings campaigner.StageSettings) stage.Outcome {
			next := state.Clone()
			mutate(next)
			return stage.Success(next)
		},
	})
}

// happyRegistry wires all nine stages as stubs that populate their owned
// section. The review stub accepts everything.
func happyRegistry() *stage.Registry {
	r := stage.NewRegistry()
	stubStage(r, campaigner.StageResearch, func(s *campaigner.CampaignState) { s.Research = "report" })
	stubStage(r, campaigner.StageSegment, func(s *campaigner.CampaignState) {
		s.Segments = []campaigner.Segment{{Name: "Fintech"}}
		s.Personas = []campaigner.Persona{{Title: "CTO"}}
	})
	stubStage(r, campaigner.StageCompetitor, func(s *campaigner.CampaignState) { s.Competitors = "landscape" })
	stubStage(r, campaigner.StageStrategy, func(s *campaigner.CampaignState) { s.Strategy = "framework" })
	stubStage(r, campaigner.StageBrief, func(s *campaigner.CampaignState) {
		s.Brief = &campaigner.Brief{CampaignName: "c", PrimarySegment: "Fintech"}
	})
	stubStage(r, campaigner.StageJTBD, func(s *campaigner.CampaignState) {
		s.Manifest = []campaigner.AssetSpec{
			{ID: "a1", Type: "Blog Post", Status: campaigner.AssetPending},
			{ID: "a2", Type: "Whitepaper", Status: campaigner.AssetPending},
		}
	})
	stubStage(r, campaigner.StageContent, func(s *campaigner.CampaignState) {
		if s.Assets == nil {
			s.Assets = make(map[string]*campaigner.GeneratedAsset)
		}
		for i := range s.Manifest {
			spec := &s.Manifest[i]
			if spec.Status == campaigner.AssetPending || spec.Status == campaigner.AssetNeedsRefinement {
				prev := s.Assets[spec.ID]
				asset := &campaigner.GeneratedAsset{Body: "body"}
				if prev != nil {
					asset.Refinements = prev.Refinements + 1
				}
				s.Assets[spec.ID] = asset
				spec.Status = campaigner.AssetGenerated
			}
		}
	})
	stubStage(r, campaigner.StagePromotion, func(s *campaigner.CampaignState) {
		s.PromoAssets = map[string][]campaigner.PromoItem{"a1": {{Channel: "x", Body: "tweet"}}}
	})
	stubStage(r, campaigner.StageReview, func(s *campaigner.CampaignState) {
		for i := range s.Manifest {
			if s.Manifest[i].Status == campaigner.AssetGenerated {
				s.Manifest[i].Status = campaigner.AssetAccepted
				s.AppendReview(campaigner.StageReview, s.Manifest[i].ID, 90, "accept")
			}
		}
	})
	return r
}

func testEngine(r *stage.Registry, opts ...Option) *Engine {
	return New(r, campaigner.DefaultConfig(), opts...)
}

// advanceThroughCheckpoints drives the run to a terminal status, resuming
// every checkpoint without edits.
func advanceThroughCheckpoints(t *testing.T, e *Engine, run *WorkflowRun) {
	t.Helper()
	for !run.Status.Terminal() {
		if run.Status == StatusAwaitingReview {
			require.NoError(t, e.Resume(run, nil))
			continue
		}
		require.NoError(t, e.Advance(context.Background(), run))
	}
}

func TestFullPipelineCompletes(t *testing.T) {
	e := testEngine(happyRegistry())
	run := e.NewRun(campaigner.Inputs{CompanyName: "Acme", WebContent: "w"})

	advanceThroughCheckpoints(t, e, run)

	assert.Equal(t, StatusCompleted, run.Status)
	assert.Equal(t, campaigner.StageReview, run.Current)
	assert.NotEmpty(t, run.State.Research)
	assert.NotNil(t, run.State.Brief)
	assert.Len(t, run.State.Assets, 2)
	for _, spec := range run.State.Manifest {
		assert.Equal(t, campaigner.AssetAccepted, spec.Status)
	}
}

func TestCheckpointSuspendsWithoutAdvancing(t *testing.T) {
	e := testEngine(happyRegistry())
	run := e.NewRun(campaigner.Inputs{WebContent: "w"})

	require.NoError(t, e.Advance(context.Background(), run)) // research
	assert.Equal(t, StatusRunning, run.Status)
	assert.Equal(t, campaigner.StageSegment, run.Current)

	require.NoError(t, e.Advance(context.Background(), run)) // segment checkpoint
	assert.Equal(t, StatusAwaitingReview, run.Status)
	assert.Equal(t, campaigner.StageSegment, run.Current)
	assert.NotEmpty(t, run.State.Segments, "checkpoint holds the completed stage's output")

	// Advancing a suspended run is rejected.
	err := e.Advance(context.Background(), run)
	assert.ErrorIs(t, err, campaigner.ErrInvalidStateTransition)

	require.NoError(t, e.Resume(run, nil))
	assert.Equal(t, StatusRunning, run.Status)
	assert.Equal(t, campaigner.StageCompetitor, run.Current)
}

func TestResumeWithEdit(t *testing.T) {
	e := testEngine(happyRegistry())
	run := e.NewRun(campaigner.Inputs{WebContent: "w"})

	require.NoError(t, e.Advance(context.Background(), run))
	require.NoError(t, e.Advance(context.Background(), run))
	require.Equal(t, StatusAwaitingReview, run.Status)

	t.Run("valid edit of completed section applies", func(t *testing.T) {
		edited := e.GetState(run)
		edited.Segments[0].Name = "Healthcare"

		require.NoError(t, e.Resume(run, edited))
		assert.Equal(t, "Healthcare", run.State.Segments[0].Name)
	})
}

func TestResumeRejectsInvalidEdits(t *testing.T) {
	e := testEngine(happyRegistry())
	run := e.NewRun(campaigner.Inputs{WebContent: "w"})
	require.NoError(t, e.Advance(context.Background(), run))
	require.NoError(t, e.Advance(context.Background(), run))
	require.Equal(t, StatusAwaitingReview, run.Status)

	t.Run("future stage section", func(t *testing.T) {
		edited := e.GetState(run)
		edited.Strategy = "smuggled framework"

		err := e.Resume(run, edited)
		assert.ErrorIs(t, err, campaigner.ErrInvalidEdit)
		assert.Equal(t, StatusAwaitingReview, run.Status)
	})

	t.Run("mutated inputs", func(t *testing.T) {
		edited := e.GetState(run)
		edited.Inputs.CompanyName = "Other Co"

		err := e.Resume(run, edited)
		assert.ErrorIs(t, err, campaigner.ErrInvalidEdit)
	})

	t.Run("resume of running run", func(t *testing.T) {
		require.NoError(t, e.Resume(run, nil))
		err := e.Resume(run, nil)
		assert.ErrorIs(t, err, campaigner.ErrInvalidStateTransition)
	})
}

func TestStageRetryBudget(t *testing.T) {
	t.Run("transient failure succeeds within budget", func(t *testing.T) {
		r := happyRegistry()
		attempts := 0
		r.Register(stage.Func{
			StageName: campaigner.StageResearch,
			RunFunc: func(ctx context.Context, state *campaigner.CampaignState, settings campaigner.StageSettings) stage.Outcome {
				attempts++
				if attempts < 3 {
					return stage.Retryable("flaky upstream", nil)
				}
				next := state.Clone()
				next.Research = "report"
				return stage.Success(next)
			},
		})

		e := testEngine(r)
		run := e.NewRun(campaigner.Inputs{WebContent: "w"})

		require.NoError(t, e.Advance(context.Background(), run))
		assert.Equal(t, 3, attempts)
		assert.Equal(t, StatusRunning, run.Status)
		// The budget resets after success.
		assert.Zero(t, run.StageRetries[campaigner.StageResearch])
	})

	t.Run("exhausted budget fails the run", func(t *testing.T) {
		r := happyRegistry()
		attempts := 0
		r.Register(stage.Func{
			StageName: campaigner.StageResearch,
			RunFunc: func(ctx context.Context, state *campaigner.CampaignState, settings campaigner.StageSettings) stage.Outcome {
				attempts++
				return stage.Retryable("flaky upstream", nil)
			},
		})

		e := testEngine(r)
		run := e.NewRun(campaigner.Inputs{WebContent: "w"})

		err := e.Advance(context.Background(), run)
		require.Error(t, err)
		assert.Equal(t, StatusFailed, run.Status)
		// Default budget is 2 retries on top of the initial attempt.
		assert.Equal(t, 3, attempts)
	})

	t.Run("fatal failure is not retried", func(t *testing.T) {
		r := happyRegistry()
		attempts := 0
		r.Register(stage.Func{
			StageName: campaigner.StageResearch,
			RunFunc: func(ctx context.Context, state *campaigner.CampaignState, settings campaigner.StageSettings) stage.Outcome {
				attempts++
				return stage.Fatal("bad inputs", nil)
			},
		})

		e := testEngine(r)
		run := e.NewRun(campaigner.Inputs{WebContent: "w"})

		err := e.Advance(context.Background(), run)
		require.Error(t, err)
		assert.Equal(t, StatusFailed, run.Status)
		assert.Equal(t, 1, attempts)
	})

	t.Run("failed stage leaves state untouched", func(t *testing.T) {
		r := happyRegistry()
		r.Register(stage.Func{
			StageName: campaigner.StageResearch,
			RunFunc: func(ctx context.Context, state *campaigner.CampaignState, settings campaigner.StageSettings) stage.Outcome {
				return stage.Fatal("bad inputs", nil)
			},
		})

		e := testEngine(r)
		run := e.NewRun(campaigner.Inputs{WebContent: "w"})

		_ = e.Advance(context.Background(), run)
		assert.Empty(t, run.State.Research)
	})
}

func TestReviewRefinementLoop(t *testing.T) {
	r := happyRegistry()
	reviewPasses := 0
	r.Register(stage.Func{
		StageName: campaigner.StageReview,
		RunFunc: func(ctx context.Context, state *campaigner.CampaignState, settings campaigner.StageSettings) stage.Outcome {
			reviewPasses++
			next := state.Clone()
			for i := range next.Manifest {
				spec := &next.Manifest[i]
				if spec.Status != campaigner.AssetGenerated {
					continue
				}
				if reviewPasses == 1 && spec.ID == "a1" {
					spec.Status = campaigner.AssetNeedsRefinement
					next.AppendReview(campaigner.StageReview, spec.ID, 60, "refine")
					continue
				}
				spec.Status = campaigner.AssetAccepted
				next.AppendReview(campaigner.StageReview, spec.ID, 90, "accept")
			}
			return stage.Success(next)
		},
	})

	events := event.NewChannel()
	e := testEngine(r, WithEvents(events))
	run := e.NewRun(campaigner.Inputs{WebContent: "w"})

	advanceThroughCheckpoints(t, e, run)

	assert.Equal(t, StatusCompleted, run.Status)
	assert.Equal(t, 2, reviewPasses)
	assert.Equal(t, 1, run.State.Assets["a1"].Refinements)
	assert.Zero(t, run.State.Assets["a2"].Refinements)

	var refinements []event.Event
	close(events)
	for ev := range events {
		if ev.Type == event.RefinementTriggered {
			refinements = append(refinements, ev)
		}
	}
	require.Len(t, refinements, 1)
	assert.Equal(t, []string{"a1"}, refinements[0].AssetIDs)
}

func TestAbort(t *testing.T) {
	e := testEngine(happyRegistry())
	run := e.NewRun(campaigner.Inputs{WebContent: "w"})

	require.NoError(t, e.Advance(context.Background(), run))
	require.NoError(t, e.Abort(run))
	assert.Equal(t, StatusAborted, run.Status)

	// Aborted runs reject every further transition.
	assert.ErrorIs(t, e.Advance(context.Background(), run), campaigner.ErrInvalidStateTransition)
	assert.ErrorIs(t, e.Resume(run, nil), campaigner.ErrInvalidStateTransition)
	assert.ErrorIs(t, e.Abort(run), campaigner.ErrInvalidStateTransition)
}

func TestAbortDuringStageDiscardsOutput(t *testing.T) {
	r := happyRegistry()
	e := testEngine(r)
	run := e.NewRun(campaigner.Inputs{WebContent: "w"})

	r.Register(stage.Func{
		StageName: campaigner.StageResearch,
		RunFunc: func(ctx context.Context, state *campaigner.CampaignState, settings campaigner.StageSettings) stage.Outcome {
			require.NoError(t, e.Abort(run))
			next := state.Clone()
			next.Research = "late result"
			return stage.Success(next)
		},
	})

	require.NoError(t, e.Advance(context.Background(), run))
	assert.Equal(t, StatusAborted, run.Status)
	assert.Empty(t, run.State.Research, "output produced after the abort is discarded")
	assert.Equal(t, campaigner.StageResearch, run.Current)
}

func TestGetStateReturnsCopy(t *testing.T) {
	e := testEngine(happyRegistry())
	run := e.NewRun(campaigner.Inputs{WebContent: "w"})
	require.NoError(t, e.Advance(context.Background(), run))

	state := e.GetState(run)
	state.Research = "tampered"

	assert.Equal(t, "report", run.State.Research)
}

func TestSnapshotRoundTrip(t *testing.T) {
	e := testEngine(happyRegistry())
	run := e.NewRun(campaigner.Inputs{CompanyName: "Acme", WebContent: "w"})
	require.NoError(t, e.Advance(context.Background(), run))
	require.NoError(t, e.Advance(context.Background(), run))
	require.Equal(t, StatusAwaitingReview, run.Status)

	data, err := Save(run)
	require.NoError(t, err)

	loaded, err := Load(data)
	require.NoError(t, err)
	assert.Equal(t, run.ID, loaded.ID)
	assert.Equal(t, run.Status, loaded.Status)
	assert.Equal(t, run.Current, loaded.Current)
	assert.Equal(t, run.State, loaded.State)

	// A restored suspended run resumes like the original.
	require.NoError(t, e.Resume(loaded, nil))
	advanceThroughCheckpoints(t, e, loaded)
	assert.Equal(t, StatusCompleted, loaded.Status)
}

func TestLoadRejectsCorruptSnapshots(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "{{{"},
		{"wrong version", `{"version": 99, "run": {"id": "x", "status": "running", "current_stage": "research", "state": {"inputs": {}}}}`},
		{"missing run", `{"version": 1}`},
		{"unknown stage", `{"version": 1, "run": {"id": "x", "status": "running", "current_stage": "nope", "state": {"inputs": {}}}}`},
		{"unknown status", `{"version": 1, "run": {"id": "x", "status": "nope", "current_stage": "research", "state": {"inputs": {}}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.data))
			assert.ErrorIs(t, err, campaigner.ErrCorruptState)
		})
	}
}

func TestRunStopsAtCheckpoint(t *testing.T) {
	e := testEngine(happyRegistry())
	run := e.NewRun(campaigner.Inputs{WebContent: "w"})

	require.NoError(t, e.Run(context.Background(), run))
	assert.Equal(t, StatusAwaitingReview, run.Status)
	assert.Equal(t, campaigner.StageSegment, run.Current)
}

// Package stage defines the pipeline's transformation steps. Each stage
// consumes the campaign aggregate, calls out through the gateway, and
// returns a new aggregate or a categorized failure.
package stage

import (
	"context"

	campaigner "github.com/spetersoncode/campaigner"
	"github.com/spetersoncode/campaigner/gateway"
	"github.com/spetersoncode/campaigner/llm"
)

// Outcome is the result of running one stage. Exactly one of State and Err
// is set; a stage never returns partial state alongside an error.
type Outcome struct {
	State *campaigner.CampaignState
	Err   error
}

// Success wraps a completed state.
func Success(state *campaigner.CampaignState) Outcome {
	return Outcome{State: state}
}

// Retryable wraps a transient failure. The engine may rerun the stage
// against the pre-stage state.
func Retryable(msg string, cause error) Outcome {
	if campaigner.IsTransient(cause) {
		return Outcome{Err: cause}
	}
	return Outcome{Err: campaigner.NewTransientError(msg, campaigner.StatusCodeOf(cause), cause)}
}

// Fatal wraps a permanent failure. The engine fails the run without
// retrying.
func Fatal(msg string, cause error) Outcome {
	if campaigner.IsFatal(cause) {
		return Outcome{Err: cause}
	}
	return Outcome{Err: campaigner.NewPermanentError(msg, campaigner.StatusCodeOf(cause), cause)}
}

// Failure converts an already categorized error into an Outcome, keeping
// its category. Uncategorized errors are treated as fatal.
func Failure(err error) Outcome {
	if campaigner.IsTransient(err) {
		return Outcome{Err: err}
	}
	return Fatal("stage failed", err)
}

// Stage is one pipeline step. Run must not mutate the given state; it
// works on a copy and returns the copy on success.
type Stage interface {
	Name() campaigner.StageName
	Run(ctx context.Context, state *campaigner.CampaignState, settings campaigner.StageSettings) Outcome
}

// Func adapts a function to the Stage interface. Used in tests.
type Func struct {
	StageName campaigner.StageName
	RunFunc   func(ctx context.Context, state *campaigner.CampaignState, settings campaigner.StageSettings) Outcome
}

func (f Func) Name() campaigner.StageName { return f.StageName }

func (f Func) Run(ctx context.Context, state *campaigner.CampaignState, settings campaigner.StageSettings) Outcome {
	return f.RunFunc(ctx, state, settings)
}

// Registry maps stage names to implementations.
type Registry struct {
	stages map[campaigner.StageName]Stage
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{stages: make(map[campaigner.StageName]Stage)}
}

// Register adds a stage, replacing any existing stage of the same name.
func (r *Registry) Register(s Stage) {
	r.stages[s.Name()] = s
}

// Get returns the stage registered under name, or nil.
func (r *Registry) Get(name campaigner.StageName) Stage {
	return r.stages[name]
}

// DefaultRegistry wires all nine pipeline stages against the gateway.
func DefaultRegistry(gw *gateway.Gateway, cfg campaigner.Config) *Registry {
	r := NewRegistry()
	r.Register(&ResearchStage{gw: gw})
	r.Register(&SegmentStage{gw: gw})
	r.Register(&CompetitorStage{gw: gw})
	r.Register(&StrategyStage{gw: gw})
	r.Register(&BriefStage{gw: gw})
	r.Register(&JTBDStage{gw: gw})
	r.Register(&ContentStage{gw: gw, maxWorkers: cfg.MaxWorkers})
	r.Register(&PromotionStage{gw: gw, maxWorkers: cfg.MaxWorkers})
	r.Register(&ReviewStage{gw: gw, gate: cfg.Gate})
	return r
}

// llmOpts builds completion options from stage settings, falling back to the
// stage's own default temperature when no override is configured.
func llmOpts(settings campaigner.StageSettings, defaultTemp float64) []llm.Option {
	temp := defaultTemp
	if settings.Temperature > 0 {
		temp = settings.Temperature
	}
	opts := []llm.Option{llm.WithTemperature(temp)}
	if settings.Model != "" {
		opts = append(opts, llm.WithModel(settings.Model))
	}
	return opts
}

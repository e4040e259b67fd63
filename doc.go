// Package campaigner turns raw company inputs (a URL, document excerpts,
// brand parameters) into a multi-asset marketing campaign by driving a fixed
// pipeline of nine transformation stages over a single accumulating state.
//
// The root package holds the shared data model and error taxonomy. The moving
// parts live in subpackages:
//
//   - [github.com/spetersoncode/campaigner/engine]: the workflow state machine
//     (stage sequencing, checkpoints, quality-gate loopback, persistence)
//   - [github.com/spetersoncode/campaigner/stage]: the nine stage units
//   - [github.com/spetersoncode/campaigner/gateway]: rate-limited outbound
//     calls (LLM completion, search, page fetch)
//   - [github.com/spetersoncode/campaigner/runner]: bounded fan-out execution
//   - [github.com/spetersoncode/campaigner/gate]: accept/refine/give-up
//     decisions for generated assets
//   - [github.com/spetersoncode/campaigner/llm]: provider-neutral completion
//     clients for Anthropic, OpenAI, and Google backends
//
// # Basic Usage
//
//	cfg := campaigner.DefaultConfig()
//	gw := gateway.New(llmClient, gateway.WithLimits(cfg.Gateway))
//	eng := engine.New(stage.DefaultRegistry(gw, cfg), cfg)
//	run := eng.NewRun(campaigner.Inputs{CompanyURL: "https://acme.example"})
//
//	for run.Status == engine.StatusRunning {
//	    if err := eng.Advance(ctx, run); err != nil {
//	        break
//	    }
//	}
//
//	if run.Status == engine.StatusAwaitingReview {
//	    data, _ := engine.Save(run)
//	    // hand data to the review surface; later: engine.Load + eng.Resume
//	}
package campaigner

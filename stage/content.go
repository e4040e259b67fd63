package stage

import (
	"context"
	"fmt"

	campaigner "github.com/spetersoncode/campaigner"
	"github.com/spetersoncode/campaigner/gateway"
	"github.com/spetersoncode/campaigner/llm"
	"github.com/spetersoncode/campaigner/runner"
)

// ContentStage generates one asset per manifest entry across a bounded
// worker pool. On a refinement pass it regenerates only the assets flagged
// by review, feeding the reviewer's feedback back into the prompt.
//
// A partial batch failure is tolerated; the stage fails only when not a
// single asset could be produced.
type ContentStage struct {
	gw         *gateway.Gateway
	maxWorkers int
}

func (s *ContentStage) Name() campaigner.StageName { return campaigner.StageContent }

const contentPrompt = `You are an Expert Content Creator.
Create a comprehensive %[1]s for the described campaign.

**STRATEGIC CONTEXT (STRICTLY ADHERE TO THIS):**
%[2]s

**Campaign Brief:**
%[3]s
%[4]s
**Target Persona:** %[5]s
**Job to be Done:** %[6]s
**Key Question to Answer:** %[7]s
%[8]s%[9]s
**Requirements:**
- **Voice & Tone:** MUST match the Positioning and Messaging Pillars defined in the Strategic Context.
- **Theme:** Reinforce the core campaign theme.
- **Structure:** Robust header structure, clear takeaways.
- **Length:** Detailed (approx 800-1000 words).

Output the content in Markdown format.`

func refinementBlock(prev *campaigner.GeneratedAsset) string {
	if prev == nil || prev.Feedback == "" {
		return ""
	}
	return fmt.Sprintf(`
**REFINEMENT REQUEST:**
The previous version of this asset was reviewed and requires the following improvements:
%s

Please ensure this new version addresses all the gaps mentioned above while maintaining the original strategic alignment.
`, prev.Feedback)
}

func (s *ContentStage) Run(ctx context.Context, state *campaigner.CampaignState, settings campaigner.StageSettings) Outcome {
	next := state.Clone()

	if len(next.Manifest) == 0 {
		return Fatal("content: content manifest missing", nil)
	}

	// Initial pass generates pending entries; refinement passes regenerate
	// only the entries review flagged.
	var targets []campaigner.AssetSpec
	for _, spec := range next.Manifest {
		if spec.Status == campaigner.AssetPending || spec.Status == campaigner.AssetNeedsRefinement {
			targets = append(targets, spec)
		}
	}
	if len(targets) == 0 {
		return Success(next)
	}

	tasks := make([]runner.Task[string], 0, len(targets))
	for _, spec := range targets {
		prompt := fmt.Sprintf(contentPrompt,
			spec.Type,
			next.Strategy,
			mustJSON(next.Brief),
			brandBlock(next.Inputs),
			spec.Persona,
			spec.JTBD,
			spec.Question,
			refinementBlock(next.Assets[spec.ID]),
			extraBlock(settings),
		)
		tasks = append(tasks, runner.Task[string]{
			Spec: spec,
			Run: func(taskCtx context.Context) (string, error) {
				resp, err := s.gw.Complete(taskCtx, []llm.Message{llm.User(prompt)}, llmOpts(settings, 0.4)...)
				if err != nil {
					return "", err
				}
				return resp.Content, nil
			},
		})
	}

	results, err := runner.RunAll(ctx, s.maxWorkers, tasks)
	if err != nil {
		return Retryable("content: batch cancelled", err)
	}

	if next.Assets == nil {
		next.Assets = make(map[string]*campaigner.GeneratedAsset, len(next.Manifest))
	}

	// An entry counts as produced when it ends the pass with a body, whether
	// freshly generated or kept from a failed refinement.
	produced := 0
	for _, r := range results {
		spec := r.Spec
		prev := next.Assets[spec.ID]

		if r.Err != nil {
			if spec.Status == campaigner.AssetNeedsRefinement && prev != nil {
				// Refinement failed but a reviewed body exists. Keep it.
				next.SetAssetStatus(spec.ID, campaigner.AssetAcceptedWithWarning)
				produced++
				continue
			}
			next.SetAssetStatus(spec.ID, campaigner.AssetFailed)
			continue
		}

		asset := &campaigner.GeneratedAsset{
			Title: fmt.Sprintf("%s for %s: %s", spec.Type, spec.Persona, spec.Question),
			Body:  r.Value,
		}
		if prev != nil {
			asset.Refinements = prev.Refinements + 1
		}
		next.Assets[spec.ID] = asset
		next.SetAssetStatus(spec.ID, campaigner.AssetGenerated)
		produced++
	}

	if produced == 0 {
		return Fatal("content: every asset generation failed", nil)
	}
	return Success(next)
}

package stage

import (
	"context"
	"fmt"

	campaigner "github.com/spetersoncode/campaigner"
	"github.com/spetersoncode/campaigner/gateway"
	"github.com/spetersoncode/campaigner/llm"
	"github.com/spetersoncode/campaigner/runner"
)

// PromotionStage derives channel copy for every freshly generated asset.
// Promo failures never fail the stage; an asset without promos is still a
// complete asset.
type PromotionStage struct {
	gw         *gateway.Gateway
	maxWorkers int
}

func (s *PromotionStage) Name() campaigner.StageName { return campaigner.StagePromotion }

const promoPrompt = `You are a Social Media & Email Marketing Manager.
Create promotional copy for the following new piece of content.

**Content Preview:**
%s
%s
**Deliverables:**
1. **linkedin:** Hook-driven LinkedIn post, professional but conversational, 3 hashtags.
2. **email:** 2-part nurture email sequence (Subject Line + Body).
3. **ads:** Ad copy for LinkedIn (Hook, Body, CTA), Google Search (Headlines, Descriptions), and Meta (Caption, Hook).
4. **x:** Punchy, short Tweet/X post.
%s
**Output Format:**
Return a JSON list with one object per deliverable:
[
    {"channel": "linkedin", "body": "..."},
    {"channel": "email", "body": "..."},
    {"channel": "ads", "body": "..."},
    {"channel": "x", "body": "..."}
]`

func (s *PromotionStage) Run(ctx context.Context, state *campaigner.CampaignState, settings campaigner.StageSettings) Outcome {
	next := state.Clone()

	if len(next.Assets) == 0 {
		return Fatal("promotion: no generated assets", nil)
	}

	var targets []campaigner.AssetSpec
	for _, spec := range next.Manifest {
		if spec.Status == campaigner.AssetGenerated {
			targets = append(targets, spec)
		}
	}
	if len(targets) == 0 {
		return Success(next)
	}

	tasks := make([]runner.Task[[]campaigner.PromoItem], 0, len(targets))
	for _, spec := range targets {
		asset := next.Assets[spec.ID]
		if asset == nil {
			continue
		}
		prompt := fmt.Sprintf(promoPrompt,
			truncate(asset.Body, 1000),
			brandBlock(next.Inputs),
			extraBlock(settings),
		)
		tasks = append(tasks, runner.Task[[]campaigner.PromoItem]{
			Spec: spec,
			Run: func(taskCtx context.Context) ([]campaigner.PromoItem, error) {
				resp, err := s.gw.Complete(taskCtx, []llm.Message{llm.User(prompt)}, llmOpts(settings, 0.5)...)
				if err != nil {
					return nil, err
				}
				var items []campaigner.PromoItem
				if err := decodeJSON(resp.Content, &items); err != nil {
					return nil, err
				}
				return items, nil
			},
		})
	}

	results, err := runner.RunAll(ctx, s.maxWorkers, tasks)
	if err != nil {
		return Retryable("promotion: batch cancelled", err)
	}

	if next.PromoAssets == nil {
		next.PromoAssets = make(map[string][]campaigner.PromoItem, len(targets))
	}
	for _, r := range results {
		if r.Err != nil || len(r.Value) == 0 {
			continue
		}
		next.PromoAssets[r.Spec.ID] = r.Value
	}
	return Success(next)
}

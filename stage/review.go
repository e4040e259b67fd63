package stage

import (
	"context"
	"fmt"

	campaigner "github.com/spetersoncode/campaigner"
	"github.com/spetersoncode/campaigner/gate"
	"github.com/spetersoncode/campaigner/gateway"
	"github.com/spetersoncode/campaigner/llm"
)

// ReviewStage audits each generated asset against the strategy and brief,
// scores it, and applies the quality gate. Assets scored below threshold are
// flagged for refinement until the attempt budget runs out, after which they
// are kept with a warning.
type ReviewStage struct {
	gw   *gateway.Gateway
	gate campaigner.GateSettings
}

func (s *ReviewStage) Name() campaigner.StageName { return campaigner.StageReview }

const reviewPrompt = `You are a Senior Strategic Reviewer auditing one marketing asset for %[1]s.
Evaluate whether the asset aligns with the campaign strategy and brief.

**Strategy Framework:**
%[2]s

**Campaign Brief:**
%[3]s

**Asset Under Review (%[4]s for persona "%[5]s"):**
Job to be Done: %[6]s
Key Question: %[7]s

%[8]s

**Evaluation Criteria:**
1. **Persona Fit:** Does the asset speak to this specific buying-committee member?
2. **Funnel Fit:** Is the content appropriate for the "%[9]s" buying stage?
3. **JTBD Alignment:** Does the content clearly solve the stated job-to-be-done?
4. **Strategic Consistency:** Does the messaging match the Strategy Framework?
%[10]s
**Output Format (JSON):**
{
    "score": <numeric compliance score 0-100>,
    "markdown_report": "Concise audit including Strengths and Gaps",
    "refinement_instructions": "If the score is below threshold, specific actionable instructions on how to fix the gaps. Otherwise 'Perfect as is'."
}`

func (s *ReviewStage) Run(ctx context.Context, state *campaigner.CampaignState, settings campaigner.StageSettings) Outcome {
	next := state.Clone()

	if len(next.Assets) == 0 {
		return Fatal("review: no generated assets", nil)
	}

	company := next.CompanyName
	if company == "" {
		company = "the Client"
	}

	reviewed := 0
	for _, spec := range next.Manifest {
		if spec.Status != campaigner.AssetGenerated {
			continue
		}
		asset := next.Assets[spec.ID]
		if asset == nil {
			continue
		}

		score, feedback, err := s.reviewOne(ctx, company, next, spec, asset, settings)
		if err != nil {
			// One failed review must not discard the scores already
			// recorded; surface it and let the engine retry the stage.
			return Failure(err)
		}

		asset.Score = score
		verdict := gate.Evaluate(score, asset.Refinements+1, s.gate)
		switch verdict {
		case gate.Accept:
			asset.Feedback = ""
			next.SetAssetStatus(spec.ID, campaigner.AssetAccepted)
		case gate.Refine:
			asset.Feedback = feedback
			next.SetAssetStatus(spec.ID, campaigner.AssetNeedsRefinement)
		case gate.GiveUp:
			asset.Feedback = feedback
			next.SetAssetStatus(spec.ID, campaigner.AssetAcceptedWithWarning)
		}
		next.AppendReview(campaigner.StageReview, spec.ID, score, string(verdict))
		reviewed++
	}

	if reviewed == 0 && len(next.ReviewLog) == 0 {
		return Fatal("review: no assets eligible for review", nil)
	}
	return Success(next)
}

func (s *ReviewStage) reviewOne(ctx context.Context, company string, state *campaigner.CampaignState, spec campaigner.AssetSpec, asset *campaigner.GeneratedAsset, settings campaigner.StageSettings) (int, string, error) {
	prompt := fmt.Sprintf(reviewPrompt,
		company,
		state.Strategy,
		mustJSON(state.Brief),
		spec.Type,
		spec.Persona,
		spec.JTBD,
		spec.Question,
		asset.Body,
		spec.BuyingStage,
		extraBlock(settings),
	)

	resp, err := s.gw.Complete(ctx, []llm.Message{llm.User(prompt)}, llmOpts(settings, 0)...)
	if err != nil {
		return 0, "", err
	}

	var parsed struct {
		Score                  int    `json:"score"`
		MarkdownReport         string `json:"markdown_report"`
		RefinementInstructions string `json:"refinement_instructions"`
	}
	if err := decodeJSON(resp.Content, &parsed); err != nil {
		return 0, "", err
	}
	if parsed.Score < 0 || parsed.Score > 100 {
		return 0, "", campaigner.NewTransientError(
			fmt.Sprintf("review: score %d out of range", parsed.Score), 0, nil)
	}
	return parsed.Score, parsed.RefinementInstructions, nil
}

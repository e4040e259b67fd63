package stage

import (
	"context"
	"fmt"

	campaigner "github.com/spetersoncode/campaigner"
	"github.com/spetersoncode/campaigner/gateway"
	"github.com/spetersoncode/campaigner/llm"
)

// BriefStage builds the structured campaign brief, selecting exactly one
// primary target segment from the candidates.
type BriefStage struct {
	gw *gateway.Gateway
}

func (s *BriefStage) Name() campaigner.StageName { return campaigner.StageBrief }

const briefPrompt = `You are a Campaign Manager for %[1]s.
Create a Campaign Brief based on the strategy.

**Strategy:**
%[2]s

**Available Segments:**
%[3]s

**Personas:**
%[4]s

**Task:**
1. Analyze the research and segments to select **EXACTLY ONE** Primary Target Segment.
2. High-value selection: Choose the segment with the highest growth potential OR the clearest pain point alignment.
3. Build the campaign strategy around this specific segment.
%[5]s
**Output:**
Create a JSON object representing the Brief. You MUST include 'primary_target_segment' and 'segment_rationale'.
{
    "campaign_name": "Strategic Campaign Name",
    "primary_target_segment": "Name of the ONE selected segment",
    "segment_rationale": "Detailed strategic justification for why THIS segment was chosen over others.",
    "primary_target_persona": "The lead persona within this segment",
    "objective": "Clear, measurable business goal (e.g., Increase demo requests by 20%%)",
    "core_theme": "The overarching creative/strategic angle",
    "key_messages": ["Message 1", "Message 2", "Message 3"],
    "funnel_stage_focus": "Awareness|Evaluation|Decision"
}`

func (s *BriefStage) Run(ctx context.Context, state *campaigner.CampaignState, settings campaigner.StageSettings) Outcome {
	next := state.Clone()

	if next.Strategy == "" {
		return Fatal("brief: strategy framework missing", nil)
	}

	company := next.CompanyName
	if company == "" {
		company = "the Client"
	}

	prompt := fmt.Sprintf(briefPrompt,
		company,
		next.Strategy,
		mustJSON(next.Segments),
		mustJSON(next.Personas),
		extraBlock(settings),
	)

	resp, err := s.gw.Complete(ctx, []llm.Message{llm.User(prompt)}, llmOpts(settings, 0.4)...)
	if err != nil {
		return Failure(err)
	}

	var brief campaigner.Brief
	if err := decodeJSON(resp.Content, &brief); err != nil {
		return Failure(err)
	}
	if brief.PrimarySegment == "" || brief.CampaignName == "" {
		return Retryable("brief: reply missing primary segment or campaign name", nil)
	}

	next.Brief = &brief
	return Success(next)
}

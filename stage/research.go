package stage

import (
	"context"
	"fmt"

	campaigner "github.com/spetersoncode/campaigner"
	"github.com/spetersoncode/campaigner/gateway"
	"github.com/spetersoncode/campaigner/llm"
)

// ResearchStage analyzes the raw company inputs into a deep research report
// and extracts the company name when the inputs don't carry one.
type ResearchStage struct {
	gw *gateway.Gateway
}

func (s *ResearchStage) Name() campaigner.StageName { return campaigner.StageResearch }

const researchPrompt = `You are a minimalist but deep-thinking Senior Market Analyst.

Your goal is to perform a DEEP RESEARCH analysis on the company described below and identify the Company Name.

**Input Data:**
- Web Content: %s
- Internal Documents: %s

**Task:**
1. **Extract Company Name:** Identify the official or commonly used name of the company from the provided data.
2. **Deep Research Report:**
   - **Core Identity:** What does this company actually do? What is their "One Thing"?
   - **Value Proposition:** What is the specific value they promise? "So What?" (Why does it matter?)
   - **Market Position:** Where do they sit in the market ecosystem? (Leader, Challenger, Niche player?)
   - **Brand Voice:** Analyze the tone of the inputs (e.g., specific, authoritative, playful, corporate).
%s
**Output Format (JSON):**
{
    "company_name": "The Extracted Name",
    "deep_research": "The full Markdown report content here..."
}`

func (s *ResearchStage) Run(ctx context.Context, state *campaigner.CampaignState, settings campaigner.StageSettings) Outcome {
	next := state.Clone()

	if next.Inputs.WebContent == "" && next.Inputs.DocContent == "" {
		return Fatal("research: no web or document content to analyze", nil)
	}

	prompt := fmt.Sprintf(researchPrompt,
		truncate(next.Inputs.WebContent, maxContextChars),
		truncate(next.Inputs.DocContent, maxContextChars),
		extraBlock(settings),
	)

	resp, err := s.gw.Complete(ctx, []llm.Message{llm.User(prompt)}, llmOpts(settings, 0)...)
	if err != nil {
		return Failure(err)
	}

	var parsed struct {
		CompanyName  string `json:"company_name"`
		DeepResearch string `json:"deep_research"`
	}
	if err := decodeJSON(resp.Content, &parsed); err != nil {
		return Failure(err)
	}
	if parsed.DeepResearch == "" {
		return Retryable("research: empty report in model reply", nil)
	}

	next.Research = parsed.DeepResearch
	if next.CompanyName == "" && parsed.CompanyName != "" {
		next.CompanyName = parsed.CompanyName
	}
	return Success(next)
}

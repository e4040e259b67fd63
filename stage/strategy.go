package stage

import (
	"context"
	"fmt"
	"strings"

	campaigner "github.com/spetersoncode/campaigner"
	"github.com/spetersoncode/campaigner/gateway"
	"github.com/spetersoncode/campaigner/llm"
)

// StrategyStage drafts the positioning and messaging framework from the
// research, segments, and competitive analysis.
type StrategyStage struct {
	gw *gateway.Gateway
}

func (s *StrategyStage) Name() campaigner.StageName { return campaigner.StageStrategy }

const strategyPrompt = `You are a Chief Marketing Officer (CMO) for %[1]s.
Develop a high-level Positioning and Messaging Framework strategy.

**Context:**
- Company: %[1]s
- Research: %[2]s
- Competitors: %[3]s
- Target Segments: %[4]s
%[5]s
**Requirements:**
1. **Core Positioning Statement:** (For [Internal], who [Statement of Need], %[1]s is a [Category] that [Statement of Benefit]...)
2. **Key Messaging Pillars:** 3 core themes %[1]s must hit to win against competitors.
3. **Differentiation:** Explicitly state how %[1]s sounds different from the competitors found in the analysis.
%[6]s
Output as Markdown.`

func (s *StrategyStage) Run(ctx context.Context, state *campaigner.CampaignState, settings campaigner.StageSettings) Outcome {
	next := state.Clone()

	if next.Research == "" || len(next.Segments) == 0 {
		return Fatal("strategy: research or segments missing", nil)
	}

	company := next.CompanyName
	if company == "" {
		company = "the Client"
	}

	prompt := fmt.Sprintf(strategyPrompt,
		company,
		next.Research,
		next.Competitors,
		mustJSON(next.Segments),
		brandBlock(next.Inputs),
		extraBlock(settings),
	)

	resp, err := s.gw.Complete(ctx, []llm.Message{llm.User(prompt)}, llmOpts(settings, 0.3)...)
	if err != nil {
		return Failure(err)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return Retryable("strategy: empty framework in model reply", nil)
	}

	next.Strategy = resp.Content
	return Success(next)
}

package stage

import (
	"context"
	"fmt"
	"strings"

	campaigner "github.com/spetersoncode/campaigner"
	"github.com/spetersoncode/campaigner/gateway"
	"github.com/spetersoncode/campaigner/llm"
)

// CompetitorStage conducts a competitive landscape analysis, enriched with
// live search intelligence when a search collaborator is configured. Search
// failures degrade silently to an LLM-only analysis.
type CompetitorStage struct {
	gw *gateway.Gateway
}

func (s *CompetitorStage) Name() campaigner.StageName { return campaigner.StageCompetitor }

const competitorPrompt = `You are a Competitive Intelligence Analyst.
Based on the deep research provided, conduct a competitive landscape analysis.

**Research Context:**
%s
%s
**Task:**
1. Identify 3-5 likely competitors based on the company's value proposition.
2. Analyze the "Positioning Gap" - where does this company win where others fail?
3. Create a "Battlecard" summary for the top competitor.
%s
Produce a Markdown report.`

func (s *CompetitorStage) Run(ctx context.Context, state *campaigner.CampaignState, settings campaigner.StageSettings) Outcome {
	next := state.Clone()

	if next.Research == "" {
		return Fatal("competitor: research report missing", nil)
	}

	intel := s.fetchIntel(ctx, next.CompanyName)
	prompt := fmt.Sprintf(competitorPrompt, next.Research, intel, extraBlock(settings))

	resp, err := s.gw.Complete(ctx, []llm.Message{llm.User(prompt)}, llmOpts(settings, 0.1)...)
	if err != nil {
		return Failure(err)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return Retryable("competitor: empty analysis in model reply", nil)
	}

	next.Competitors = resp.Content
	return Success(next)
}

// fetchIntel gathers live competitor search results. Intelligence is
// best-effort; any failure returns an empty block.
func (s *CompetitorStage) fetchIntel(ctx context.Context, companyName string) string {
	if !s.gw.SearchEnabled() || companyName == "" {
		return ""
	}

	results, err := s.gw.Search(ctx, companyName+" competitors alternatives", 5)
	if err != nil || len(results) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n**REAL-TIME COMPETITIVE INTELLIGENCE:**\n")
	for _, r := range results {
		fmt.Fprintf(&sb, "- **%s**: %s\n", r.Title, truncate(r.Snippet, 300))
	}
	return sb.String()
}

package stage

import (
	"context"
	"fmt"

	campaigner "github.com/spetersoncode/campaigner"
	"github.com/spetersoncode/campaigner/gateway"
	"github.com/spetersoncode/campaigner/llm"
)

// SegmentStage identifies target market segments and the buying-committee
// personas inside the top segment.
type SegmentStage struct {
	gw *gateway.Gateway
}

func (s *SegmentStage) Name() campaigner.StageName { return campaigner.StageSegment }

const segmentPrompt = `You are an expert Go-To-Market Strategist.
Based on the provided company research, identify the core Market Segments and the Buying Committee Personas.

**Research Context:**
%s

**Task:**
1. **Segments:** Identify 2-3 ideal market segments (Industries/Verticals) this company should target.
2. **Personas:** For the TOP segment, identify the Buying Committee members (e.g., Economic Buyer, Champion, User, Technical Evaluator).
%s
**Output Format:**
Return a JSON object with two keys: "segments" (list) and "personas" (list).

Example JSON Structure:
{
    "segments": [
        {"name": "Enterprise Fintech", "rationale": "..."}
    ],
    "personas": [
        {"role": "CTO", "type": "Economic Buyer", "pain_points": ["High maintenance", "Security risks"]}
    ]
}`

func (s *SegmentStage) Run(ctx context.Context, state *campaigner.CampaignState, settings campaigner.StageSettings) Outcome {
	next := state.Clone()

	if next.Research == "" {
		return Fatal("segment: research report missing", nil)
	}

	prompt := fmt.Sprintf(segmentPrompt, next.Research, extraBlock(settings))

	resp, err := s.gw.Complete(ctx, []llm.Message{llm.User(prompt)}, llmOpts(settings, 0.2)...)
	if err != nil {
		return Failure(err)
	}

	var parsed struct {
		Segments []campaigner.Segment `json:"segments"`
		Personas []struct {
			Role       string   `json:"role"`
			Type       string   `json:"type"`
			PainPoints []string `json:"pain_points"`
		} `json:"personas"`
	}
	if err := decodeJSON(resp.Content, &parsed); err != nil {
		return Failure(err)
	}
	if len(parsed.Segments) == 0 || len(parsed.Personas) == 0 {
		return Retryable("segment: reply missing segments or personas", nil)
	}

	next.Segments = parsed.Segments
	next.Personas = make([]campaigner.Persona, 0, len(parsed.Personas))
	for _, p := range parsed.Personas {
		next.Personas = append(next.Personas, campaigner.Persona{
			Title:      p.Role,
			Role:       p.Type,
			PainPoints: p.PainPoints,
		})
	}
	return Success(next)
}

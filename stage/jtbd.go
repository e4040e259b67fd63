package stage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	campaigner "github.com/spetersoncode/campaigner"
	"github.com/spetersoncode/campaigner/gateway"
	"github.com/spetersoncode/campaigner/llm"
)

// JTBDStage maps Jobs to be Done across the personas and plans the content
// manifest, one asset spec per job.
type JTBDStage struct {
	gw *gateway.Gateway
}

func (s *JTBDStage) Name() campaigner.StageName { return campaigner.StageJTBD }

const jtbdPrompt = `You are a JTBD (Jobs to be Done) Expert.
For the defined campaign and personas, list the specific "jobs" they are trying to hire a solution for.

**Campaign Context:**
%s

**Personas:**
%s

1. Analyze the Personas and Campaign Brief to identify high-value Jobs to be Done.
2. Generate a list of 4-6 distinct JTBDs across the identified personas.
3. **STRATEGIC ASSET MIX:** For EACH job, you MUST explicitly assign a "recommended_asset_type".
   - **Mandatory Diversity:** You MUST include at least 3 different asset types in the final list.
   - **Options:** Blog Post, LinkedIn Post, Email Sequence, Whitepaper, Case Study, Webinar Script, Landing Page.
   - **Selection Logic:**
     - Awareness Stage -> LinkedIn Post, Blog Post.
     - Evaluation Stage -> Whitepaper, Case Study, Webinar Script.
     - Decision Stage -> Landing Page, Email Sequence (Nurture).
%s
**Output Format:**
JSON List of objects. KEY "recommended_asset_type" IS MANDATORY.
[
    {
        "persona_role": "Title",
        "jtbd": "Specific job...",
        "burning_question": "What specifically are they asking?",
        "recommended_asset_type": "Asset Type",
        "buying_stage": "Awareness|Evaluation|Decision"
    }
]`

type jtbdItem struct {
	PersonaRole     string `json:"persona_role"`
	JTBD            string `json:"jtbd"`
	BurningQuestion string `json:"burning_question"`
	AssetType       string `json:"recommended_asset_type"`
	BuyingStage     string `json:"buying_stage"`
}

func (s *JTBDStage) Run(ctx context.Context, state *campaigner.CampaignState, settings campaigner.StageSettings) Outcome {
	next := state.Clone()

	if next.Brief == nil {
		return Fatal("jtbd: campaign brief missing", nil)
	}

	prompt := fmt.Sprintf(jtbdPrompt,
		mustJSON(next.Brief),
		mustJSON(next.Personas),
		extraBlock(settings),
	)

	resp, err := s.gw.Complete(ctx, []llm.Message{llm.User(prompt)}, llmOpts(settings, 0.2)...)
	if err != nil {
		return Failure(err)
	}

	items, err := parseJTBDItems(resp.Content)
	if err != nil {
		return Failure(err)
	}
	if len(items) == 0 {
		return Retryable("jtbd: no jobs in model reply", nil)
	}

	next.Manifest = make([]campaigner.AssetSpec, 0, len(items))
	for _, item := range items {
		assetType := item.AssetType
		if assetType == "" {
			assetType = "Blog Post"
		}
		next.Manifest = append(next.Manifest, campaigner.AssetSpec{
			ID:          uuid.NewString(),
			Type:        assetType,
			Persona:     item.PersonaRole,
			BuyingStage: item.BuyingStage,
			JTBD:        item.JTBD,
			Question:    item.BurningQuestion,
			Status:      campaigner.AssetPending,
		})
	}
	return Success(next)
}

// parseJTBDItems accepts either a bare JSON list or an object wrapping the
// list under a "jobs" key, both shapes observed in model replies.
func parseJTBDItems(raw string) ([]jtbdItem, error) {
	cleaned := stripFences(raw)

	var items []jtbdItem
	if err := json.Unmarshal([]byte(cleaned), &items); err == nil {
		return items, nil
	}

	var wrapped struct {
		Jobs []jtbdItem `json:"jobs"`
	}
	if err := json.Unmarshal([]byte(cleaned), &wrapped); err != nil {
		return nil, campaigner.NewTransientError("malformed json in model reply", 0, err)
	}
	return wrapped.Jobs, nil
}

package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	campaigner "github.com/spetersoncode/campaigner"
)

func sampleState() *campaigner.CampaignState {
	return &campaigner.CampaignState{
		Inputs:      campaigner.Inputs{CompanyName: "Acme"},
		CompanyName: "Acme",
		Research:    "# Research",
		Competitors: "# Landscape",
		Strategy:    "# Framework",
		Segments:    []campaigner.Segment{{Name: "Fintech", Rationale: "budget"}},
		Personas:    []campaigner.Persona{{Title: "CTO", Role: "Economic Buyer", PainPoints: []string{"cost"}}},
		Brief: &campaigner.Brief{
			CampaignName:   "Ship Faster",
			Objective:      "more demos",
			PrimarySegment: "Fintech",
			CoreTheme:      "velocity",
			FunnelStage:    "Evaluation",
			KeyMessages:    []string{"m1"},
		},
		Manifest: []campaigner.AssetSpec{
			{ID: "a1", Type: "Blog Post", Persona: "CTO", BuyingStage: "Awareness", Status: campaigner.AssetAccepted},
			{ID: "a2", Type: "Whitepaper", Persona: "CTO", BuyingStage: "Evaluation", Status: campaigner.AssetAcceptedWithWarning},
			{ID: "a3", Type: "Landing Page", Persona: "CTO", Status: campaigner.AssetFailed},
		},
		Assets: map[string]*campaigner.GeneratedAsset{
			"a1": {Title: "Blog Post for CTO", Body: "blog body", Score: 90},
			"a2": {Title: "Whitepaper for CTO", Body: "paper body", Score: 70, Refinements: 1},
		},
		PromoAssets: map[string][]campaigner.PromoItem{
			"a1": {{Channel: "linkedin", Body: "post"}},
		},
	}
}

func TestRender(t *testing.T) {
	b := Render(sampleState())

	t.Run("overview covers brief and manifest", func(t *testing.T) {
		overview := b.Files["00_campaign_overview.md"]
		assert.Contains(t, overview, "# Ship Faster")
		assert.Contains(t, overview, "**Company:** Acme")
		assert.Contains(t, overview, "Fintech")
		assert.Contains(t, overview, "| Blog Post | CTO | Awareness | accepted | 90 |")
	})

	t.Run("analysis documents exported", func(t *testing.T) {
		assert.Equal(t, "# Research", b.Files["01_research.md"])
		assert.Equal(t, "# Landscape", b.Files["02_competitor_analysis.md"])
		assert.Equal(t, "# Framework", b.Files["03_strategy.md"])
	})

	t.Run("assets exported with promos, failed skipped", func(t *testing.T) {
		blog := b.Files["assets/01_blog_post.md"]
		assert.Contains(t, blog, "blog body")
		assert.Contains(t, blog, "### linkedin")

		paper := b.Files["assets/02_whitepaper.md"]
		assert.Contains(t, paper, "paper body")
		assert.Contains(t, paper, "score 70")

		for name := range b.Files {
			assert.NotContains(t, name, "landing_page")
		}
	})
}

func TestWriteDir(t *testing.T) {
	dir := t.TempDir()
	b := Render(sampleState())

	require.NoError(t, b.WriteDir(dir))

	data, err := os.ReadFile(filepath.Join(dir, "assets", "01_blog_post.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "blog body")
}

package campaigner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageIndex(t *testing.T) {
	assert.Equal(t, 0, StageIndex(StageResearch))
	assert.Equal(t, len(StageOrder)-1, StageIndex(StageReview))
	assert.Equal(t, -1, StageIndex("bogus"))
}

func populatedState() *CampaignState {
	return &CampaignState{
		Inputs: Inputs{
			CompanyName:      "Acme",
			MessagingPillars: []string{"speed"},
		},
		Research: "report",
		Segments: []Segment{{Name: "Fintech"}},
		Personas: []Persona{{Title: "CTO", PainPoints: []string{"cost"}}},
		Brief:    &Brief{CampaignName: "c", KeyMessages: []string{"m1"}},
		Manifest: []AssetSpec{{ID: "a1", Type: "Blog Post", Status: AssetPending}},
		Assets:   map[string]*GeneratedAsset{"a1": {Body: "body"}},
		PromoAssets: map[string][]PromoItem{
			"a1": {{Channel: "x", Body: "tweet"}},
		},
		ReviewLog: []ReviewEntry{{Stage: StageReview, Score: 90}},
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := populatedState()
	clone := orig.Clone()

	clone.Inputs.MessagingPillars[0] = "changed"
	clone.Segments[0].Name = "changed"
	clone.Personas[0].PainPoints[0] = "changed"
	clone.Brief.KeyMessages[0] = "changed"
	clone.Manifest[0].Status = AssetAccepted
	clone.Assets["a1"].Body = "changed"
	clone.PromoAssets["a1"][0].Body = "changed"
	clone.ReviewLog[0].Score = 1

	assert.Equal(t, "speed", orig.Inputs.MessagingPillars[0])
	assert.Equal(t, "Fintech", orig.Segments[0].Name)
	assert.Equal(t, "cost", orig.Personas[0].PainPoints[0])
	assert.Equal(t, "m1", orig.Brief.KeyMessages[0])
	assert.Equal(t, AssetPending, orig.Manifest[0].Status)
	assert.Equal(t, "body", orig.Assets["a1"].Body)
	assert.Equal(t, "tweet", orig.PromoAssets["a1"][0].Body)
	assert.Equal(t, 90, orig.ReviewLog[0].Score)
}

func TestNewCampaignStateResolvesCompanyName(t *testing.T) {
	s := NewCampaignState(Inputs{CompanyName: "Acme"})
	assert.Equal(t, "Acme", s.CompanyName)

	assert.Empty(t, NewCampaignState(Inputs{}).CompanyName)
}

func TestCloneNil(t *testing.T) {
	var s *CampaignState
	assert.Nil(t, s.Clone())
}

func TestSetAssetStatus(t *testing.T) {
	s := populatedState()

	s.SetAssetStatus("a1", AssetGenerated)
	assert.Equal(t, AssetGenerated, s.Manifest[0].Status)

	// Unknown IDs are ignored.
	s.SetAssetStatus("nope", AssetFailed)
	assert.Equal(t, AssetGenerated, s.Manifest[0].Status)
}

func TestAppendReview(t *testing.T) {
	s := &CampaignState{}
	s.AppendReview(StageReview, "a1", 85, "accept")

	require.Len(t, s.ReviewLog, 1)
	assert.Equal(t, "a1", s.ReviewLog[0].AssetID)
	assert.Equal(t, 85, s.ReviewLog[0].Score)
	assert.False(t, s.ReviewLog[0].Timestamp.IsZero())
}

func TestProduced(t *testing.T) {
	empty := NewCampaignState(Inputs{CompanyName: "Acme"})
	for _, stage := range StageOrder {
		assert.False(t, empty.Produced(stage), "fresh state must not claim %s output", stage)
	}

	full := populatedState()
	full.Competitors = "landscape"
	full.Strategy = "framework"
	for _, stage := range StageOrder {
		assert.True(t, full.Produced(stage), "populated state must claim %s output", stage)
	}
}

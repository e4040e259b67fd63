package campaigner

import (
	"time"
)

// StageName identifies one transformation step in the campaign pipeline.
type StageName string

// The nine pipeline stages, in topological order.
const (
	StageResearch   StageName = "research"
	StageSegment    StageName = "segment"
	StageCompetitor StageName = "competitor"
	StageStrategy   StageName = "strategy"
	StageBrief      StageName = "campaign_brief"
	StageJTBD       StageName = "jtbd"
	StageContent    StageName = "content_generation"
	StagePromotion  StageName = "promotion"
	StageReview     StageName = "review"
)

// StageOrder is the static pipeline topology. The Review stage may branch
// back to StageContent; every other edge is strictly forward.
var StageOrder = []StageName{
	StageResearch,
	StageSegment,
	StageCompetitor,
	StageStrategy,
	StageBrief,
	StageJTBD,
	StageContent,
	StagePromotion,
	StageReview,
}

// StageIndex returns the position of a stage in StageOrder, or -1 if the
// name is not a known stage.
func StageIndex(s StageName) int {
	for i, name := range StageOrder {
		if name == s {
			return i
		}
	}
	return -1
}

// Inputs holds the raw campaign inputs. Immutable after ingestion.
type Inputs struct {
	CompanyName      string   `json:"company_name,omitempty"`
	CompanyURL       string   `json:"company_url,omitempty"`
	WebContent       string   `json:"web_content,omitempty"`
	DocContent       string   `json:"doc_content,omitempty"`
	BrandVoice       string   `json:"brand_voice,omitempty"`
	BrandTone        string   `json:"brand_tone,omitempty"`
	MessagingPillars []string `json:"messaging_pillars,omitempty"`
}

// Segment is a target market segment identified by the segmentation stage.
type Segment struct {
	Name      string `json:"name"`
	Rationale string `json:"rationale,omitempty"`
}

// Persona is a buying-committee member targeted by tailored content.
type Persona struct {
	Title       string   `json:"title"`
	Role        string   `json:"role,omitempty"` // committee role, e.g. "Economic Buyer"
	PainPoints  []string `json:"pain_points,omitempty"`
	BuyingStage string   `json:"buying_stage,omitempty"`
}

// Brief is the structured campaign brief produced by the brief stage.
type Brief struct {
	CampaignName     string   `json:"campaign_name"`
	Objective        string   `json:"objective"`
	PrimarySegment   string   `json:"primary_target_segment"`
	SegmentRationale string   `json:"segment_rationale,omitempty"`
	PrimaryPersona   string   `json:"primary_target_persona,omitempty"`
	CoreTheme        string   `json:"core_theme"`
	KeyMessages      []string `json:"key_messages,omitempty"`
	FunnelStage      string   `json:"funnel_stage_focus"`
}

// AssetStatus tracks an asset through generation, review, and refinement.
type AssetStatus string

const (
	// AssetPending means the asset has not been generated yet.
	AssetPending AssetStatus = "pending"

	// AssetGenerated means a body exists and is awaiting review.
	AssetGenerated AssetStatus = "generated"

	// AssetFailed means generation failed and no body exists.
	AssetFailed AssetStatus = "failed"

	// AssetNeedsRefinement means the review scored the asset below the
	// quality threshold with refinement attempts remaining.
	AssetNeedsRefinement AssetStatus = "needs_refinement"

	// AssetAccepted means the asset passed review.
	AssetAccepted AssetStatus = "accepted"

	// AssetAcceptedWithWarning means the asset exhausted its refinement
	// budget below threshold and was kept anyway.
	AssetAcceptedWithWarning AssetStatus = "accepted_with_warning"
)

// AssetSpec is one row of the content manifest. Identity fields (ID, Type,
// Persona, BuyingStage, JTBD, Question) are immutable once created; only
// Status mutates.
type AssetSpec struct {
	ID          string      `json:"id"`
	Type        string      `json:"type"` // e.g. "Blog Post", "Whitepaper"
	Persona     string      `json:"persona"`
	BuyingStage string      `json:"buying_stage"`
	JTBD        string      `json:"jtbd,omitempty"`
	Question    string      `json:"burning_question,omitempty"`
	Status      AssetStatus `json:"status"`
}

// GeneratedAsset is the produced content for one manifest entry. Feedback
// holds the latest reviewer instructions and is consumed by the next
// refinement pass.
type GeneratedAsset struct {
	Title       string `json:"title"`
	Body        string `json:"body"`
	Score       int    `json:"score,omitempty"`
	Refinements int    `json:"refinements,omitempty"`
	Feedback    string `json:"feedback,omitempty"`
}

// PromoItem is one piece of promotional copy derived from a content asset.
type PromoItem struct {
	Channel string `json:"channel"` // e.g. "linkedin", "email", "ads", "x"
	Body    string `json:"body"`
}

// ReviewEntry is an append-only record of one quality-gate decision.
type ReviewEntry struct {
	Stage     StageName `json:"stage"`
	AssetID   string    `json:"asset_id,omitempty"`
	Score     int       `json:"score"`
	Verdict   string    `json:"verdict"`
	Timestamp time.Time `json:"timestamp"`
}

// CampaignState is the single aggregate threaded through every stage. Each
// field group is owned by the stage that produces it and is populated only
// after that stage has completed at least once.
type CampaignState struct {
	Inputs      Inputs                     `json:"inputs"`
	CompanyName string                     `json:"company_name,omitempty"`
	Research    string                     `json:"research,omitempty"`
	Segments    []Segment                  `json:"segments,omitempty"`
	Personas    []Persona                  `json:"personas,omitempty"`
	Competitors string                     `json:"competitors,omitempty"`
	Strategy    string                     `json:"strategy,omitempty"`
	Brief       *Brief                     `json:"campaign_brief,omitempty"`
	Manifest    []AssetSpec                `json:"content_manifest,omitempty"`
	Assets      map[string]*GeneratedAsset `json:"assets,omitempty"`
	PromoAssets map[string][]PromoItem     `json:"promo_assets,omitempty"`
	ReviewLog   []ReviewEntry              `json:"review_log,omitempty"`
}

// NewCampaignState creates a state holding only the given inputs. The
// company name is resolved at ingestion; the research stage fills it in when
// the inputs don't carry one.
func NewCampaignState(in Inputs) *CampaignState {
	return &CampaignState{Inputs: in, CompanyName: in.CompanyName}
}

// Clone returns a deep copy. Stages operate on clones so that a failed stage
// never leaves a partially mutated aggregate behind.
func (s *CampaignState) Clone() *CampaignState {
	if s == nil {
		return nil
	}
	c := *s
	c.Inputs.MessagingPillars = append([]string(nil), s.Inputs.MessagingPillars...)
	c.Segments = append([]Segment(nil), s.Segments...)
	c.Personas = make([]Persona, len(s.Personas))
	for i, p := range s.Personas {
		p.PainPoints = append([]string(nil), p.PainPoints...)
		c.Personas[i] = p
	}
	if s.Brief != nil {
		b := *s.Brief
		b.KeyMessages = append([]string(nil), s.Brief.KeyMessages...)
		c.Brief = &b
	}
	c.Manifest = append([]AssetSpec(nil), s.Manifest...)
	if s.Assets != nil {
		c.Assets = make(map[string]*GeneratedAsset, len(s.Assets))
		for id, a := range s.Assets {
			dup := *a
			c.Assets[id] = &dup
		}
	}
	if s.PromoAssets != nil {
		c.PromoAssets = make(map[string][]PromoItem, len(s.PromoAssets))
		for id, items := range s.PromoAssets {
			c.PromoAssets[id] = append([]PromoItem(nil), items...)
		}
	}
	c.ReviewLog = append([]ReviewEntry(nil), s.ReviewLog...)
	return &c
}

// SpecIndex returns the manifest index of the given asset ID, or -1.
func (s *CampaignState) SpecIndex(id string) int {
	for i := range s.Manifest {
		if s.Manifest[i].ID == id {
			return i
		}
	}
	return -1
}

// SetAssetStatus updates the status of the manifest entry with the given ID.
// It is a no-op for unknown IDs.
func (s *CampaignState) SetAssetStatus(id string, status AssetStatus) {
	if i := s.SpecIndex(id); i >= 0 {
		s.Manifest[i].Status = status
	}
}

// AppendReview records a quality-gate decision.
func (s *CampaignState) AppendReview(stage StageName, assetID string, score int, verdict string) {
	s.ReviewLog = append(s.ReviewLog, ReviewEntry{
		Stage:     stage,
		AssetID:   assetID,
		Score:     score,
		Verdict:   verdict,
		Timestamp: time.Now().UTC(),
	})
}

// Produced reports whether the section owned by the given stage has been
// populated. Used by checkpoint edit validation.
func (s *CampaignState) Produced(stage StageName) bool {
	switch stage {
	case StageResearch:
		return s.Research != ""
	case StageSegment:
		return len(s.Segments) > 0 || len(s.Personas) > 0
	case StageCompetitor:
		return s.Competitors != ""
	case StageStrategy:
		return s.Strategy != ""
	case StageBrief:
		return s.Brief != nil
	case StageJTBD:
		return len(s.Manifest) > 0
	case StageContent:
		return len(s.Assets) > 0
	case StagePromotion:
		return len(s.PromoAssets) > 0
	case StageReview:
		return len(s.ReviewLog) > 0
	}
	return false
}

// Package export renders a completed campaign into a shareable Markdown
// bundle covering the analysis, the brief, and every generated asset with
// its promotional copy.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	campaigner "github.com/spetersoncode/campaigner"
)

// Bundle is a set of named Markdown documents for one campaign.
type Bundle struct {
	// Files maps relative file names to Markdown content.
	Files map[string]string
}

// Render builds the export bundle from a campaign aggregate.
func Render(state *campaigner.CampaignState) *Bundle {
	b := &Bundle{Files: make(map[string]string)}

	b.Files["00_campaign_overview.md"] = renderOverview(state)
	if state.Research != "" {
		b.Files["01_research.md"] = state.Research
	}
	if state.Competitors != "" {
		b.Files["02_competitor_analysis.md"] = state.Competitors
	}
	if state.Strategy != "" {
		b.Files["03_strategy.md"] = state.Strategy
	}

	for i, spec := range state.Manifest {
		asset := state.Assets[spec.ID]
		if asset == nil || asset.Body == "" {
			continue
		}
		name := fmt.Sprintf("assets/%02d_%s.md", i+1, slugify(spec.Type))
		b.Files[name] = renderAsset(spec, asset, state.PromoAssets[spec.ID])
	}

	return b
}

// WriteDir writes every bundle file under dir, creating subdirectories as
// needed.
func (b *Bundle) WriteDir(dir string) error {
	for name, content := range b.Files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

func renderOverview(state *campaigner.CampaignState) string {
	var sb strings.Builder

	title := "Campaign"
	if state.Brief != nil && state.Brief.CampaignName != "" {
		title = state.Brief.CampaignName
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)
	if state.CompanyName != "" {
		fmt.Fprintf(&sb, "**Company:** %s\n\n", state.CompanyName)
	}

	if state.Brief != nil {
		br := state.Brief
		sb.WriteString("## Brief\n\n")
		fmt.Fprintf(&sb, "- **Objective:** %s\n", br.Objective)
		fmt.Fprintf(&sb, "- **Primary Segment:** %s\n", br.PrimarySegment)
		if br.SegmentRationale != "" {
			fmt.Fprintf(&sb, "- **Segment Rationale:** %s\n", br.SegmentRationale)
		}
		if br.PrimaryPersona != "" {
			fmt.Fprintf(&sb, "- **Primary Persona:** %s\n", br.PrimaryPersona)
		}
		fmt.Fprintf(&sb, "- **Core Theme:** %s\n", br.CoreTheme)
		fmt.Fprintf(&sb, "- **Funnel Focus:** %s\n", br.FunnelStage)
		if len(br.KeyMessages) > 0 {
			sb.WriteString("- **Key Messages:**\n")
			for _, m := range br.KeyMessages {
				fmt.Fprintf(&sb, "  - %s\n", m)
			}
		}
		sb.WriteString("\n")
	}

	if len(state.Segments) > 0 {
		sb.WriteString("## Target Segments\n\n")
		for _, seg := range state.Segments {
			fmt.Fprintf(&sb, "- **%s**: %s\n", seg.Name, seg.Rationale)
		}
		sb.WriteString("\n")
	}

	if len(state.Personas) > 0 {
		sb.WriteString("## Buying Committee\n\n")
		for _, p := range state.Personas {
			fmt.Fprintf(&sb, "- **%s** (%s)", p.Title, p.Role)
			if len(p.PainPoints) > 0 {
				fmt.Fprintf(&sb, " — pain points: %s", strings.Join(p.PainPoints, "; "))
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	if len(state.Manifest) > 0 {
		sb.WriteString("## Asset Manifest\n\n")
		sb.WriteString("| Asset | Persona | Stage | Status | Score |\n")
		sb.WriteString("|---|---|---|---|---|\n")
		for _, spec := range state.Manifest {
			score := "-"
			if a := state.Assets[spec.ID]; a != nil && a.Score > 0 {
				score = fmt.Sprintf("%d", a.Score)
			}
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s |\n",
				spec.Type, spec.Persona, spec.BuyingStage, spec.Status, score)
		}
		sb.WriteString("\n")
	}

	if len(state.ReviewLog) > 0 {
		sb.WriteString("## Review History\n\n")
		for _, entry := range state.ReviewLog {
			fmt.Fprintf(&sb, "- %s asset=%s score=%d verdict=%s\n",
				entry.Timestamp.Format("2006-01-02 15:04:05"), entry.AssetID, entry.Score, entry.Verdict)
		}
	}

	return sb.String()
}

func renderAsset(spec campaigner.AssetSpec, asset *campaigner.GeneratedAsset, promos []campaigner.PromoItem) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", asset.Title)
	fmt.Fprintf(&sb, "**Type:** %s | **Persona:** %s | **Buying Stage:** %s | **Status:** %s\n\n",
		spec.Type, spec.Persona, spec.BuyingStage, spec.Status)
	if spec.JTBD != "" {
		fmt.Fprintf(&sb, "**Job to be Done:** %s\n\n", spec.JTBD)
	}
	if spec.Status == campaigner.AssetAcceptedWithWarning {
		fmt.Fprintf(&sb, "> Kept below the quality threshold (score %d) after the refinement budget ran out.\n\n", asset.Score)
	}

	sb.WriteString("---\n\n")
	sb.WriteString(asset.Body)
	sb.WriteString("\n")

	if len(promos) > 0 {
		sb.WriteString("\n## Promotional Copy\n")
		for _, p := range promos {
			fmt.Fprintf(&sb, "\n### %s\n\n%s\n", p.Channel, p.Body)
		}
	}

	return sb.String()
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	slug := slugRe.ReplaceAllString(strings.ToLower(s), "_")
	return strings.Trim(slug, "_")
}

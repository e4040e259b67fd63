package stage

import (
	"encoding/json"
	"fmt"
	"strings"

	campaigner "github.com/spetersoncode/campaigner"
)

// maxContextChars caps raw input blocks pasted into prompts.
const maxContextChars = 50000

// truncate clips s to at most n characters.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// stripFences removes Markdown code fences from an LLM reply. Models often
// wrap JSON in ```json blocks despite instructions not to.
func stripFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}
	var lines []string
	for _, line := range strings.Split(cleaned, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		lines = append(lines, line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// decodeJSON parses a fenced or bare JSON reply into out. A parse failure is
// transient since a rerun may produce well-formed output.
func decodeJSON(raw string, out any) error {
	if err := json.Unmarshal([]byte(stripFences(raw)), out); err != nil {
		return campaigner.NewTransientError("malformed json in model reply", 0, err)
	}
	return nil
}

// brandBlock renders the optional brand guidelines section shared by the
// strategy, content, and promotion prompts.
func brandBlock(in campaigner.Inputs) string {
	if in.BrandVoice == "" && in.BrandTone == "" && len(in.MessagingPillars) == 0 {
		return ""
	}
	voice := in.BrandVoice
	if voice == "" {
		voice = "Not specified"
	}
	tone := in.BrandTone
	if tone == "" {
		tone = "Not specified"
	}
	pillars := "N/A"
	if len(in.MessagingPillars) > 0 {
		pillars = strings.Join(in.MessagingPillars, ", ")
	}
	return fmt.Sprintf(`
**BRAND GUIDELINES (Must be reflected in all messaging):**
- Voice: %s
- Tone: %s
- Key Pillars: %s
`, voice, tone, pillars)
}

// extraBlock renders operator-supplied extra instructions, if any.
func extraBlock(settings campaigner.StageSettings) string {
	if settings.ExtraInstructions == "" {
		return ""
	}
	return "\n**Additional Instructions:**\n" + settings.ExtraInstructions + "\n"
}

// mustJSON renders v as indented JSON for prompt interpolation. Encoding the
// aggregate types never fails.
func mustJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// Package gate implements the quality gate deciding whether a scored asset
// is accepted, sent back for refinement, or kept as-is after the refinement
// budget runs out.
package gate

import (
	campaigner "github.com/spetersoncode/campaigner"
)

// Verdict is the gate's decision for one scored asset.
type Verdict string

const (
	// Accept means the score met the threshold.
	Accept Verdict = "accept"
	// Refine means the score fell short and refinement attempts remain.
	Refine Verdict = "refine"
	// GiveUp means the score fell short and the refinement budget is spent.
	// The asset is kept with a warning rather than discarded.
	GiveUp Verdict = "give_up"
)

// Evaluate applies the gate to one score. attempt is 1-based: the initial
// generation counts as attempt 1, so with MaxAttempts 2 an asset gets at
// most one refinement pass.
func Evaluate(score, attempt int, settings campaigner.GateSettings) Verdict {
	if score >= settings.Threshold {
		return Accept
	}
	if attempt >= settings.MaxAttempts {
		return GiveUp
	}
	return Refine
}

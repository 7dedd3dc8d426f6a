// Package policy maps classification results to sorting actions.
package policy

import "github.com/cashm/note-sorter/internal/domain"

// Confidence thresholds. These are exact, non-configurable constants; the
// behavior at each boundary value is observable and must not change.
const (
	// RejectBelow: confidence strictly under this rejects the placement.
	RejectBelow = 0.60
	// PauseUpTo: confidence in [RejectBelow, PauseUpTo] pauses for operator
	// confirmation; only strictly above it does sorting proceed unattended.
	// The non-round cutoff is deliberate; keep the literal.
	PauseUpTo = 0.7199
)

// Decide derives the Action for one classification result.
// It is a pure function: sentinel labels dominate confidence, then the
// confidence bands apply in order.
func Decide(res domain.ClassificationResult) domain.Action {
	switch res.Label {
	case domain.LabelNoNote:
		return domain.Action{Kind: domain.ActionStop, Reason: domain.StopCycleComplete}
	case domain.LabelInvalidObject:
		return domain.Action{Kind: domain.ActionStop, Reason: domain.StopSafety}
	}

	switch {
	case res.Confidence < RejectBelow:
		return domain.Action{Kind: domain.ActionReject, Label: res.Label}
	case res.Confidence <= PauseUpTo:
		return domain.Action{Kind: domain.ActionPause, Label: res.Label}
	default:
		return domain.Action{Kind: domain.ActionProceed, Label: res.Label}
	}
}

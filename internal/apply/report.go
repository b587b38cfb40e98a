package apply

import (
	"fmt"
	"strings"

	"github.com/1broseidon/displaysnap/internal/reconcile"
)

// Outcome is the result of one plan operation.
type Outcome string

const (
	Succeeded Outcome = "succeeded"
	Failed    Outcome = "failed"
	Skipped   Outcome = "skipped"
)

// StepResult records what happened to a single operation. There is no silent
// failure: every operation of the plan gets exactly one StepResult.
type StepResult struct {
	Op      reconcile.Operation `json:"op"`
	Outcome Outcome             `json:"outcome"`
	Reason  string              `json:"reason,omitempty"`
	Retried bool                `json:"retried,omitempty"`
}

// Report is the per-operation outcome of an apply.
type Report struct {
	Steps    []StepResult `json:"steps"`
	Warnings []string     `json:"warnings,omitempty"`
}

// Succeeded reports whether no operation failed. Skipped operations
// (disconnected hardware) do not count as failures.
func (r *Report) Succeeded() bool {
	for _, s := range r.Steps {
		if s.Outcome == Failed {
			return false
		}
	}
	return true
}

// FailedSteps returns the indices of failed steps.
func (r *Report) FailedSteps() []int {
	var out []int
	for i, s := range r.Steps {
		if s.Outcome == Failed {
			out = append(out, i)
		}
	}
	return out
}

// Summary renders a short human-readable outcome, one bucket per line.
func (r *Report) Summary() string {
	var applied, skipped, failed []string
	for _, s := range r.Steps {
		name := s.Op.Target.String()
		switch s.Outcome {
		case Succeeded:
			applied = append(applied, fmt.Sprintf("%s (%s)", name, s.Op.Kind))
		case Skipped:
			skipped = append(skipped, fmt.Sprintf("%s (%s)", name, s.Reason))
		case Failed:
			failed = append(failed, fmt.Sprintf("%s (%s)", name, s.Reason))
		}
	}

	var parts []string
	if len(applied) > 0 {
		parts = append(parts, "Applied: "+strings.Join(applied, ", "))
	}
	if len(skipped) > 0 {
		parts = append(parts, "Skipped: "+strings.Join(skipped, ", "))
	}
	if len(failed) > 0 {
		parts = append(parts, "Failed: "+strings.Join(failed, ", "))
	}
	if len(parts) == 0 {
		return "No changes"
	}
	return strings.Join(parts, "\n")
}

package reconcile

import (
	"fmt"

	"github.com/1broseidon/displaysnap/internal/display"
	"github.com/1broseidon/displaysnap/internal/profile"
)

// Reconcile diffs live state against a target profile and produces an ordered
// plan transforming live toward target.
//
// Ordering: all disables first (shrinks the desktop before anything moves),
// then enables in profile declared order, then repositions, then primary
// changes. Some drivers reject transient overlapping geometry; this order
// avoids it. Within each group the profile's declared order is preserved, so
// applying the same profile twice yields the same operation order.
//
// Targets with no live counterpart produce a warning, not an error: the
// hardware may be physically absent. Live displays the profile does not
// mention are disabled only when autoDisableExtras is set.
func Reconcile(live []display.State, p *profile.Profile, autoDisableExtras bool) (*Plan, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	targets := p.Displays
	matched := matchTargets(live, targets)

	claimed := make([]bool, len(live))
	for _, li := range matched {
		if li != -1 {
			claimed[li] = true
		}
	}

	plan := &Plan{}
	var disables, enables, repositions, primaries []Operation

	// final tracks the post-plan state per live display, for the safety check
	// and overlap warnings. Keyed by live index.
	final := make([]display.State, len(live))
	copy(final, live)

	for ti := range targets {
		t := targets[ti]
		li := matched[ti]
		if li == -1 {
			plan.Warnings = append(plan.Warnings,
				fmt.Sprintf("display %s not found; skipping", t.Identity))
			continue
		}
		l := live[li]

		switch {
		case !t.Enabled && l.Enabled:
			disables = append(disables, disableOp(l))
			final[li].Enabled = false

		case t.Enabled && !l.Enabled:
			enables = append(enables, Operation{
				Kind: OpEnable, Target: l.Identity,
				Mode: t.Mode, X: t.X, Y: t.Y, Primary: t.Primary,
			})
			final[li] = applyTarget(l, t)

		case t.Enabled && l.Enabled:
			if l.Mode != t.Mode {
				// Mode changes go through a full enable (a mode set).
				enables = append(enables, Operation{
					Kind: OpEnable, Target: l.Identity,
					Mode: t.Mode, X: t.X, Y: t.Y, Primary: t.Primary,
				})
			} else if l.X != t.X || l.Y != t.Y {
				repositions = append(repositions, Operation{
					Kind: OpReposition, Target: l.Identity,
					Mode: t.Mode, X: t.X, Y: t.Y, Primary: t.Primary,
				})
			}
			final[li] = applyTarget(l, t)
		}

		if t.Enabled && t.Primary && !l.Primary {
			primaries = append(primaries, Operation{
				Kind: OpSetPrimary, Target: l.Identity,
				Mode: t.Mode, X: t.X, Y: t.Y, Primary: true,
			})
		}
	}

	if autoDisableExtras {
		for li := range live {
			if claimed[li] || !live[li].Enabled {
				continue
			}
			disables = append(disables, disableOp(live[li]))
			final[li].Enabled = false
		}
	}

	// Refuse a plan whose disable group covers every active display. Disables
	// run before enables, so such a plan passes through a zero-display state
	// the server rejects even when an enable follows. Each disable targets a
	// distinct currently-enabled display, so counting them suffices.
	if n := display.EnabledCount(live); n > 0 && len(disables) == n {
		return nil, &InvalidPlanError{Reason: "plan would disable every enabled display"}
	}

	plan.Ops = append(plan.Ops, disables...)
	plan.Ops = append(plan.Ops, enables...)
	plan.Ops = append(plan.Ops, repositions...)
	plan.Ops = append(plan.Ops, primaries...)

	// Overlapping target geometry is legitimate (mirrored setups) but worth
	// flagging.
	for i := range final {
		for j := i + 1; j < len(final); j++ {
			if final[i].Overlaps(final[j]) {
				plan.Warnings = append(plan.Warnings,
					fmt.Sprintf("displays %s and %s overlap after apply",
						final[i].Identity, final[j].Identity))
			}
		}
	}

	return plan, nil
}

// disableOp builds a disable carrying the display's current geometry. The
// geometry is not applied; it is what re-identifies the display if its
// device path gets reassigned before the operation runs. A zero mode would
// make that fallback claim whichever display is smallest.
func disableOp(l display.State) Operation {
	return Operation{Kind: OpDisable, Target: l.Identity, Mode: l.Mode, X: l.X, Y: l.Y}
}

// applyTarget projects a target's desired geometry onto a live display,
// keeping the live identity.
func applyTarget(l, t display.State) display.State {
	out := l
	out.Enabled = true
	out.Mode = t.Mode
	out.X = t.X
	out.Y = t.Y
	out.Primary = t.Primary
	return out
}

package reconcile

import "github.com/1broseidon/displaysnap/internal/display"

// Matching policy, tolerant of identifier drift. A target display is matched
// to a live display first by exact device path, then by adapter ordinal, then
// by closest resolution/refresh among the remaining candidates. Targets are
// processed in profile declared order; among equally scored candidates the
// lowest adapter ordinal wins. The result is deterministic: same inputs, same
// pairing.

// matchTargets pairs each target with a live index, or -1 when no live
// display can serve it. A live display is claimed by at most one target.
func matchTargets(live, targets []display.State) []int {
	matched := make([]int, len(targets))
	for i := range matched {
		matched[i] = -1
	}
	claimed := make([]bool, len(live))

	// Stage 1: exact device path.
	for ti := range targets {
		for li := range live {
			if claimed[li] {
				continue
			}
			if live[li].Identity.DevicePath != "" &&
				live[li].Identity.DevicePath == targets[ti].Identity.DevicePath {
				matched[ti] = li
				claimed[li] = true
				break
			}
		}
	}

	// Stage 2: adapter ordinal.
	for ti := range targets {
		if matched[ti] != -1 {
			continue
		}
		for li := range live {
			if claimed[li] {
				continue
			}
			if live[li].Identity.Index == targets[ti].Identity.Index {
				matched[ti] = li
				claimed[li] = true
				break
			}
		}
	}

	// Stage 3: closest mode among what is left.
	for ti := range targets {
		if matched[ti] != -1 {
			continue
		}
		li := closestMode(live, claimed, targets[ti].Mode)
		if li != -1 {
			matched[ti] = li
			claimed[li] = true
		}
	}

	return matched
}

// closestMode returns the unclaimed live index whose mode is nearest the
// target mode, or -1 when none remain. Exact resolution beats any non-exact
// match regardless of refresh; ties go to the lowest adapter ordinal.
func closestMode(live []display.State, claimed []bool, target display.Mode) int {
	best := -1
	bestScore := 0
	for li := range live {
		if claimed[li] {
			continue
		}
		score := modeDistance(live[li].Mode, target)
		if best == -1 || score < bestScore {
			best = li
			bestScore = score
		}
	}
	return best
}

// modeDistance scores how far apart two modes are; lower is closer.
func modeDistance(a, b display.Mode) int {
	if a.Width == b.Width && a.Height == b.Height {
		return absInt(a.RefreshHz - b.RefreshHz)
	}
	// Non-exact resolutions rank strictly after any exact one.
	const resolutionPenalty = 1 << 20
	return resolutionPenalty + absInt(a.Width*a.Height-b.Width*b.Height)
}

// ResolveIdentity re-resolves a desired state against a fresh enumeration
// using the same fallback policy as planning. The applier uses this when OS
// identifiers may have been reassigned mid-plan.
func ResolveIdentity(live []display.State, want display.State) (display.Identity, bool) {
	matched := matchTargets(live, []display.State{want})
	if matched[0] == -1 {
		return display.Identity{}, false
	}
	return live[matched[0]].Identity, true
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

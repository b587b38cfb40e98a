package reconcile

import (
	"testing"

	"github.com/1broseidon/displaysnap/internal/display"
)

func TestMatchTargets_ExactDevicePathWins(t *testing.T) {
	live := []display.State{
		mkState("DP-1", 0, true, 1920, 1080, 60, 0, 0, true),
		mkState("DP-2", 1, true, 2560, 1440, 60, 1920, 0, false),
	}
	targets := []display.State{
		// Ordinal points at the wrong slot; device path must win.
		mkState("DP-2", 0, true, 2560, 1440, 60, 1920, 0, false),
	}

	matched := matchTargets(live, targets)
	if matched[0] != 1 {
		t.Fatalf("expected live index 1, got %d", matched[0])
	}
}

func TestMatchTargets_FallsBackToOrdinal(t *testing.T) {
	// Device paths renamed after a driver update; ordinals still line up.
	live := []display.State{
		mkState("DP-3", 0, true, 1920, 1080, 60, 0, 0, true),
		mkState("DP-4", 1, true, 2560, 1440, 60, 1920, 0, false),
	}
	targets := []display.State{
		mkState("DP-1", 1, true, 2560, 1440, 60, 1920, 0, false),
	}

	matched := matchTargets(live, targets)
	if matched[0] != 1 {
		t.Fatalf("expected live index 1, got %d", matched[0])
	}
}

func TestMatchTargets_ClosestModePrefersExactResolution(t *testing.T) {
	live := []display.State{
		mkState("A", 0, true, 1920, 1080, 144, 0, 0, true),
		mkState("B", 1, true, 2560, 1440, 60, 1920, 0, false),
	}
	// Neither path nor ordinal matches; 2560x1440 must be picked over the
	// refresh-closer 1920x1080 display.
	targets := []display.State{
		mkState("X", 9, true, 2560, 1440, 144, 0, 0, true),
	}

	matched := matchTargets(live, targets)
	if matched[0] != 1 {
		t.Fatalf("expected exact-resolution live index 1, got %d", matched[0])
	}
}

func TestMatchTargets_TieGoesToLowestOrdinal(t *testing.T) {
	live := []display.State{
		mkState("A", 0, true, 1920, 1080, 60, 0, 0, true),
		mkState("B", 1, true, 1920, 1080, 60, 1920, 0, false),
	}
	targets := []display.State{
		mkState("X", 9, true, 1920, 1080, 60, 0, 0, true),
	}

	matched := matchTargets(live, targets)
	if matched[0] != 0 {
		t.Fatalf("expected lowest ordinal 0, got %d", matched[0])
	}
}

func TestMatchTargets_LiveDisplayClaimedOnce(t *testing.T) {
	live := []display.State{
		mkState("DP-1", 0, true, 1920, 1080, 60, 0, 0, true),
	}
	targets := []display.State{
		mkState("DP-1", 0, true, 1920, 1080, 60, 0, 0, true),
		mkState("DP-9", 5, true, 1920, 1080, 60, 1920, 0, false),
	}

	matched := matchTargets(live, targets)
	if matched[0] != 0 {
		t.Fatalf("expected first target matched to 0, got %d", matched[0])
	}
	if matched[1] != -1 {
		t.Fatalf("expected second target unmatched, got %d", matched[1])
	}
}

func TestResolveIdentity_TracksReassignedPath(t *testing.T) {
	want := mkState("DP-1", 0, true, 2560, 1440, 60, 0, 0, true)
	live := []display.State{
		// Same ordinal, new path after replug.
		mkState("DP-5", 0, true, 2560, 1440, 60, 0, 0, true),
	}

	id, ok := ResolveIdentity(live, want)
	if !ok {
		t.Fatalf("expected resolution to succeed")
	}
	if id.DevicePath != "DP-5" {
		t.Fatalf("expected DP-5, got %s", id.DevicePath)
	}
}

func TestResolveIdentity_FailsWhenGone(t *testing.T) {
	want := mkState("DP-1", 0, true, 2560, 1440, 60, 0, 0, true)

	if _, ok := ResolveIdentity(nil, want); ok {
		t.Fatalf("expected resolution to fail with no live displays")
	}
}

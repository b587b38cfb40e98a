package profile

import (
	"errors"
	"testing"
	"time"

	"github.com/1broseidon/displaysnap/internal/display"
)

func testState(path string, index int, primary bool) display.State {
	return display.State{
		Identity: display.Identity{DevicePath: path, Index: index},
		Enabled:  true,
		Mode:     display.Mode{Width: 1920, Height: 1080, RefreshHz: 60},
		Primary:  primary,
	}
}

func testProfile(name string, displays ...display.State) *Profile {
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	return &Profile{Name: name, Displays: displays, CreatedAt: now, UpdatedAt: now}
}

func validationKind(t *testing.T, err error) ValidationKind {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	return verr.Kind
}

func TestValidate_AcceptsWellFormedProfile(t *testing.T) {
	p := testProfile("desk",
		testState("DP-1", 0, true),
		testState("HDMI-1", 1, false),
	)
	if err := p.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_RejectsEmptyName(t *testing.T) {
	p := testProfile("", testState("DP-1", 0, true))
	if kind := validationKind(t, p.Validate()); kind != KindEmptyName {
		t.Fatalf("expected %s, got %s", KindEmptyName, kind)
	}
}

func TestValidate_RejectsNoDisplays(t *testing.T) {
	p := testProfile("empty")
	if kind := validationKind(t, p.Validate()); kind != KindNoDisplays {
		t.Fatalf("expected %s, got %s", KindNoDisplays, kind)
	}
}

func TestValidate_RejectsDuplicateIdentity(t *testing.T) {
	p := testProfile("dupe",
		testState("DP-1", 0, true),
		testState("DP-1", 0, false),
	)
	if kind := validationKind(t, p.Validate()); kind != KindDuplicateIdentity {
		t.Fatalf("expected %s, got %s", KindDuplicateIdentity, kind)
	}
}

func TestValidate_RejectsMultiplePrimaries(t *testing.T) {
	p := testProfile("two-kings",
		testState("DP-1", 0, true),
		testState("HDMI-1", 1, true),
	)
	if kind := validationKind(t, p.Validate()); kind != KindMultiplePrimaries {
		t.Fatalf("expected %s, got %s", KindMultiplePrimaries, kind)
	}
}

func TestValidate_ZeroPrimariesAllowed(t *testing.T) {
	p := testProfile("no-primary",
		testState("DP-1", 0, false),
		testState("HDMI-1", 1, false),
	)
	if err := p.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

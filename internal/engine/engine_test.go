package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/1broseidon/displaysnap/internal/display"
	"github.com/1broseidon/displaysnap/internal/profile"
	"github.com/1broseidon/displaysnap/internal/reconcile"
)

// fakeBackend tracks state mutations so applies can be asserted end to end.
type fakeBackend struct {
	states   []display.State
	setCalls []display.Request
	setErr   error
}

func (f *fakeBackend) Enumerate() ([]display.State, error) {
	out := make([]display.State, len(f.states))
	copy(out, f.states)
	return out, nil
}

func (f *fakeBackend) SetState(req display.Request) error {
	f.setCalls = append(f.setCalls, req)
	if f.setErr != nil {
		return f.setErr
	}
	for i := range f.states {
		if f.states[i].Identity == req.Identity {
			f.states[i].Enabled = req.Enabled
			if req.Enabled {
				f.states[i].Mode = req.Mode
				f.states[i].X = req.X
				f.states[i].Y = req.Y
			}
			if req.Primary {
				for j := range f.states {
					f.states[j].Primary = j == i
				}
			}
		}
	}
	return nil
}

func (f *fakeBackend) Detect() error { return nil }

func live(path string, index int, enabled bool, w, h, x, y int, primary bool) display.State {
	return display.State{
		Identity: display.Identity{DevicePath: path, Index: index},
		Enabled:  enabled,
		Mode:     display.Mode{Width: w, Height: h, RefreshHz: 60},
		X:        x,
		Y:        y,
		Primary:  primary,
	}
}

func newTestEngine(t *testing.T, fb *fakeBackend) *Engine {
	t.Helper()
	store, err := profile.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	return New(fb, store, nil, nil)
}

func TestSaveCurrent_SnapshotsLiveState(t *testing.T) {
	fb := &fakeBackend{states: []display.State{
		live("eDP-1", 0, true, 1920, 1080, 0, 0, true),
		live("HDMI-1", 1, true, 1920, 1080, 1920, 0, false),
	}}
	eng := newTestEngine(t, fb)

	p, err := eng.SaveCurrent("desk")
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if len(p.Displays) != 2 {
		t.Fatalf("expected 2 displays, got %d", len(p.Displays))
	}

	loaded, err := eng.Store().Load("desk")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Displays[0].Identity.DevicePath != "eDP-1" {
		t.Fatalf("unexpected first display: %s", loaded.Displays[0].Identity.DevicePath)
	}
}

func TestSaveCurrent_OverwritePreservesCreationTime(t *testing.T) {
	fb := &fakeBackend{states: []display.State{
		live("eDP-1", 0, true, 1920, 1080, 0, 0, true),
	}}
	eng := newTestEngine(t, fb)

	t0 := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	t1 := t0.Add(48 * time.Hour)

	eng.now = func() time.Time { return t0 }
	if _, err := eng.SaveCurrent("desk"); err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	eng.now = func() time.Time { return t1 }
	p, err := eng.SaveCurrent("desk")
	if err != nil {
		t.Fatalf("second save failed: %v", err)
	}
	if !p.CreatedAt.Equal(t0) {
		t.Fatalf("expected created_at preserved at %v, got %v", t0, p.CreatedAt)
	}
	if !p.UpdatedAt.Equal(t1) {
		t.Fatalf("expected updated_at bumped to %v, got %v", t1, p.UpdatedAt)
	}
}

func TestApply_ConvergesLiveStateToProfile(t *testing.T) {
	fb := &fakeBackend{states: []display.State{
		live("eDP-1", 0, true, 1920, 1080, 0, 0, true),
		live("HDMI-1", 1, false, 0, 0, 0, 0, false),
	}}
	eng := newTestEngine(t, fb)

	now := time.Now()
	p := &profile.Profile{
		Name: "dual",
		Displays: []display.State{
			live("eDP-1", 0, true, 1920, 1080, 0, 0, true),
			live("HDMI-1", 1, true, 1920, 1080, 1920, 0, false),
		},
		CreatedAt: now, UpdatedAt: now,
	}
	if err := eng.Store().Save(p); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	report, err := eng.Apply(context.Background(), "dual", ApplyOptions{})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if !report.Succeeded() {
		t.Fatalf("expected success: %s", report.Summary())
	}

	converged, err := eng.Converged("dual", false)
	if err != nil {
		t.Fatalf("converged check failed: %v", err)
	}
	if !converged {
		t.Fatalf("expected live state converged after apply")
	}
}

func TestApply_ConvergedProfileTouchesNothing(t *testing.T) {
	states := []display.State{
		live("eDP-1", 0, true, 1920, 1080, 0, 0, true),
	}
	fb := &fakeBackend{states: states}
	eng := newTestEngine(t, fb)

	if _, err := eng.SaveCurrent("same"); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	report, err := eng.Apply(context.Background(), "same", ApplyOptions{})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if len(report.Steps) != 0 {
		t.Fatalf("expected no steps, got %d", len(report.Steps))
	}
	if len(fb.setCalls) != 0 {
		t.Fatalf("expected no backend mutation, got %d calls", len(fb.setCalls))
	}
}

func TestApply_UnknownProfileFails(t *testing.T) {
	fb := &fakeBackend{states: []display.State{
		live("eDP-1", 0, true, 1920, 1080, 0, 0, true),
	}}
	eng := newTestEngine(t, fb)

	if _, err := eng.Apply(context.Background(), "missing", ApplyOptions{}); err == nil {
		t.Fatalf("expected error for unknown profile")
	}
}

func TestApply_InvalidPlanSurfaces(t *testing.T) {
	fb := &fakeBackend{states: []display.State{
		live("eDP-1", 0, true, 1920, 1080, 0, 0, true),
	}}
	eng := newTestEngine(t, fb)

	now := time.Now()
	p := &profile.Profile{
		Name: "dark",
		Displays: []display.State{
			live("eDP-1", 0, false, 0, 0, 0, 0, false),
		},
		CreatedAt: now, UpdatedAt: now,
	}
	if err := eng.Store().Save(p); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	_, err := eng.Apply(context.Background(), "dark", ApplyOptions{})
	var ipe *reconcile.InvalidPlanError
	if !errors.As(err, &ipe) {
		t.Fatalf("expected InvalidPlanError, got %v", err)
	}
	if len(fb.setCalls) != 0 {
		t.Fatalf("invalid plan must not touch the backend")
	}
}

func TestPlan_DryRunLeavesBackendUntouched(t *testing.T) {
	fb := &fakeBackend{states: []display.State{
		live("eDP-1", 0, true, 1920, 1080, 0, 0, true),
		live("HDMI-1", 1, false, 0, 0, 0, 0, false),
	}}
	eng := newTestEngine(t, fb)

	now := time.Now()
	p := &profile.Profile{
		Name: "dual",
		Displays: []display.State{
			live("eDP-1", 0, true, 1920, 1080, 0, 0, true),
			live("HDMI-1", 1, true, 1920, 1080, 1920, 0, false),
		},
		CreatedAt: now, UpdatedAt: now,
	}
	if err := eng.Store().Save(p); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	plan, err := eng.Plan("dual", false)
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	if plan.Empty() {
		t.Fatalf("expected a non-empty plan")
	}
	if len(fb.setCalls) != 0 {
		t.Fatalf("planning must not mutate the backend")
	}
}

func TestProfileNames_ListsSaved(t *testing.T) {
	fb := &fakeBackend{states: []display.State{
		live("eDP-1", 0, true, 1920, 1080, 0, 0, true),
	}}
	eng := newTestEngine(t, fb)

	for _, name := range []string{"b", "a"} {
		if _, err := eng.SaveCurrent(name); err != nil {
			t.Fatalf("save %s failed: %v", name, err)
		}
	}
	names, err := eng.ProfileNames()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("expected [a b], got %v", names)
	}
}

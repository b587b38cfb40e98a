package apply

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/1broseidon/displaysnap/internal/display"
	"github.com/1broseidon/displaysnap/internal/reconcile"
)

// fakeBackend scripts per-device SetState failures and serves canned
// enumerations in sequence.
type fakeBackend struct {
	states      []display.State
	enumQueue   [][]display.State // served in order; last entry repeats
	enumErr     error
	failSet     map[string]int // device path -> remaining failures
	setCalls    []display.Request
	detectCalls int
	enumCalls   int
}

func (f *fakeBackend) Enumerate() ([]display.State, error) {
	f.enumCalls++
	if f.enumErr != nil {
		return nil, f.enumErr
	}
	if len(f.enumQueue) > 0 {
		states := f.enumQueue[0]
		if len(f.enumQueue) > 1 {
			f.enumQueue = f.enumQueue[1:]
		}
		return states, nil
	}
	return f.states, nil
}

func (f *fakeBackend) SetState(req display.Request) error {
	f.setCalls = append(f.setCalls, req)
	if n, ok := f.failSet[req.Identity.DevicePath]; ok && n > 0 {
		f.failSet[req.Identity.DevicePath] = n - 1
		return errors.New("device busy")
	}
	return nil
}

func (f *fakeBackend) Detect() error {
	f.detectCalls++
	return nil
}

func id(path string, index int) display.Identity {
	return display.Identity{DevicePath: path, Index: index}
}

func enableOp(path string, index int) reconcile.Operation {
	return reconcile.Operation{
		Kind:   reconcile.OpEnable,
		Target: id(path, index),
		Mode:   display.Mode{Width: 1920, Height: 1080, RefreshHz: 60},
	}
}

func TestApply_AllOperationsSucceed(t *testing.T) {
	fb := &fakeBackend{states: []display.State{
		{Identity: id("DP-1", 0), Enabled: true},
		{Identity: id("HDMI-1", 1)},
	}}
	a := New(fb, nil)

	plan := &reconcile.Plan{Ops: []reconcile.Operation{
		{Kind: reconcile.OpDisable, Target: id("DP-1", 0)},
		enableOp("HDMI-1", 1),
	}}

	report, err := a.Apply(context.Background(), plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.Succeeded() {
		t.Fatalf("expected success, got %s", report.Summary())
	}
	if len(report.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(report.Steps))
	}
	// Enable triggers a hardware probe first.
	if fb.detectCalls != 1 {
		t.Fatalf("expected 1 detect call, got %d", fb.detectCalls)
	}
}

func TestApply_FailureDoesNotAbortPlan(t *testing.T) {
	fb := &fakeBackend{
		states: []display.State{
			{Identity: id("DP-1", 0), Enabled: true},
			{Identity: id("DP-2", 1), Enabled: true},
		},
		// Fails twice: initial attempt and the retry.
		failSet: map[string]int{"DP-1": 2},
	}
	a := New(fb, nil)

	plan := &reconcile.Plan{Ops: []reconcile.Operation{
		{Kind: reconcile.OpReposition, Target: id("DP-1", 0), X: 100},
		{Kind: reconcile.OpReposition, Target: id("DP-2", 1), X: 200},
	}}

	report, err := a.Apply(context.Background(), plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Succeeded() {
		t.Fatalf("expected failure in report")
	}
	if report.Steps[0].Outcome != Failed {
		t.Fatalf("expected step 0 failed, got %s", report.Steps[0].Outcome)
	}
	if report.Steps[1].Outcome != Succeeded {
		t.Fatalf("expected step 1 to still run, got %s", report.Steps[1].Outcome)
	}
}

func TestApply_RetriesFailedRepositionOnce(t *testing.T) {
	fb := &fakeBackend{
		states: []display.State{
			{Identity: id("DP-1", 0), Enabled: true},
		},
		// Fails once; the retry succeeds.
		failSet: map[string]int{"DP-1": 1},
	}
	a := New(fb, nil)

	plan := &reconcile.Plan{Ops: []reconcile.Operation{
		{Kind: reconcile.OpReposition, Target: id("DP-1", 0), X: 100},
	}}

	report, err := a.Apply(context.Background(), plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.Succeeded() {
		t.Fatalf("expected retry to recover: %s", report.Summary())
	}
	if !report.Steps[0].Retried {
		t.Fatalf("expected step marked retried")
	}
	if len(fb.setCalls) != 2 {
		t.Fatalf("expected 2 SetState calls, got %d", len(fb.setCalls))
	}
}

func TestApply_NeverRetriesDisable(t *testing.T) {
	fb := &fakeBackend{
		states: []display.State{
			{Identity: id("DP-1", 0), Enabled: true},
			{Identity: id("DP-2", 1), Enabled: true},
		},
		failSet: map[string]int{"DP-1": 9},
	}
	a := New(fb, nil)

	plan := &reconcile.Plan{Ops: []reconcile.Operation{
		{Kind: reconcile.OpDisable, Target: id("DP-1", 0)},
	}}

	report, err := a.Apply(context.Background(), plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Steps[0].Outcome != Failed || report.Steps[0].Retried {
		t.Fatalf("expected unretried failure, got %+v", report.Steps[0])
	}
	if len(fb.setCalls) != 1 {
		t.Fatalf("expected single SetState call, got %d", len(fb.setCalls))
	}
}

func TestApply_ResolvesDriftedIdentityAfterTopologyChange(t *testing.T) {
	// After the disable, the remaining output is renamed DP-5 but keeps
	// ordinal 1; the enable op must follow it.
	fb := &fakeBackend{
		enumQueue: [][]display.State{
			{{Identity: id("DP-5", 1), Mode: display.Mode{Width: 1920, Height: 1080, RefreshHz: 60}}},
		},
	}
	a := New(fb, nil)

	plan := &reconcile.Plan{Ops: []reconcile.Operation{
		{Kind: reconcile.OpDisable, Target: id("DP-1", 0)},
		enableOp("HDMI-1", 1),
	}}

	report, err := a.Apply(context.Background(), plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.Succeeded() {
		t.Fatalf("expected success, got %s", report.Summary())
	}
	last := fb.setCalls[len(fb.setCalls)-1]
	if last.Identity.DevicePath != "DP-5" {
		t.Fatalf("expected enable against DP-5, got %s", last.Identity.DevicePath)
	}
}

func TestApply_DisableFollowsGeometryNotSmallestDisplay(t *testing.T) {
	// After the first disable, the second disable's target is renamed DP-9
	// with a fresh ordinal. Re-resolution must follow its recorded 4K
	// geometry to DP-9 and leave the kept 1080p display alone.
	fb := &fakeBackend{
		enumQueue: [][]display.State{
			{
				{Identity: id("DP-0", 0), Enabled: true,
					Mode: display.Mode{Width: 1920, Height: 1080, RefreshHz: 60}},
				{Identity: id("DP-9", 5), Enabled: true,
					Mode: display.Mode{Width: 3840, Height: 2160, RefreshHz: 60}, X: 1920},
			},
		},
	}
	a := New(fb, nil)

	plan := &reconcile.Plan{Ops: []reconcile.Operation{
		{Kind: reconcile.OpDisable, Target: id("HDMI-1", 1),
			Mode: display.Mode{Width: 2560, Height: 1440, RefreshHz: 60}, X: 5760},
		{Kind: reconcile.OpDisable, Target: id("HDMI-2", 2),
			Mode: display.Mode{Width: 3840, Height: 2160, RefreshHz: 60}, X: 1920},
	}}

	report, err := a.Apply(context.Background(), plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.Succeeded() {
		t.Fatalf("expected success, got %s", report.Summary())
	}
	last := fb.setCalls[len(fb.setCalls)-1]
	if last.Identity.DevicePath != "DP-9" {
		t.Fatalf("second disable hit %s, want DP-9", last.Identity.DevicePath)
	}
	for _, req := range fb.setCalls {
		if req.Identity.DevicePath == "DP-0" {
			t.Fatal("disable re-resolved onto a display the profile keeps")
		}
	}
}

func TestApply_SkipsOperationWhenDisplayGone(t *testing.T) {
	fb := &fakeBackend{
		// Fresh enumeration after the disable finds nothing to serve the
		// enable.
		enumQueue: [][]display.State{{}},
	}
	a := New(fb, nil)

	plan := &reconcile.Plan{Ops: []reconcile.Operation{
		{Kind: reconcile.OpDisable, Target: id("DP-1", 0)},
		enableOp("HDMI-1", 1),
	}}

	report, err := a.Apply(context.Background(), plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Steps[1].Outcome != Skipped {
		t.Fatalf("expected skip, got %+v", report.Steps[1])
	}
	if report.Steps[1].Reason != "not connected" {
		t.Fatalf("unexpected skip reason: %q", report.Steps[1].Reason)
	}
	// Skips never fail the report.
	if !report.Succeeded() {
		t.Fatalf("expected report success with skipped step")
	}
}

func TestApply_MidPlanEnumerationFailureSkipsRemainder(t *testing.T) {
	fb := &fakeBackend{enumErr: errors.New("connection lost")}
	a := New(fb, nil)

	plan := &reconcile.Plan{Ops: []reconcile.Operation{
		{Kind: reconcile.OpDisable, Target: id("DP-1", 0)},
		enableOp("HDMI-1", 1),
		{Kind: reconcile.OpSetPrimary, Target: id("HDMI-1", 1), Primary: true},
	}}

	report, err := a.Apply(context.Background(), plan)
	if err == nil {
		t.Fatalf("expected enumeration error surfaced")
	}
	if len(report.Steps) != 3 {
		t.Fatalf("expected all steps accounted for, got %d", len(report.Steps))
	}
	if report.Steps[1].Outcome != Skipped || report.Steps[2].Outcome != Skipped {
		t.Fatalf("expected remaining steps skipped, got %+v", report.Steps[1:])
	}
}

func TestApply_CanceledContextSkipsEverything(t *testing.T) {
	fb := &fakeBackend{}
	a := New(fb, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	plan := &reconcile.Plan{Ops: []reconcile.Operation{
		{Kind: reconcile.OpReposition, Target: id("DP-1", 0), X: 10},
	}}

	report, err := a.Apply(ctx, plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Steps[0].Outcome != Skipped || report.Steps[0].Reason != "canceled" {
		t.Fatalf("expected canceled skip, got %+v", report.Steps[0])
	}
	if len(fb.setCalls) != 0 {
		t.Fatalf("expected no backend calls, got %d", len(fb.setCalls))
	}
}

func TestReport_SummaryBuckets(t *testing.T) {
	r := &Report{Steps: []StepResult{
		{Op: enableOp("DP-1", 0), Outcome: Succeeded},
		{Op: enableOp("DP-2", 1), Outcome: Skipped, Reason: "not connected"},
		{Op: enableOp("DP-3", 2), Outcome: Failed, Reason: "device busy"},
	}}
	s := r.Summary()
	for _, want := range []string{"Applied:", "Skipped:", "Failed:", "DP-1", "not connected", "device busy"} {
		if !strings.Contains(s, want) {
			t.Fatalf("summary missing %q:\n%s", want, s)
		}
	}

	empty := &Report{}
	if empty.Summary() != "No changes" {
		t.Fatalf("expected 'No changes', got %q", empty.Summary())
	}
}

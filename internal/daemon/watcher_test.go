package daemon

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/1broseidon/displaysnap/internal/display"
	"github.com/1broseidon/displaysnap/internal/engine"
	"github.com/1broseidon/displaysnap/internal/profile"
)

type fakeBackend struct {
	mu       sync.Mutex
	states   []display.State
	setCalls int
}

func (f *fakeBackend) Enumerate() ([]display.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]display.State, len(f.states))
	copy(out, f.states)
	return out, nil
}

func (f *fakeBackend) SetState(req display.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls++
	for i := range f.states {
		if f.states[i].Identity == req.Identity {
			f.states[i].Enabled = req.Enabled
			if req.Enabled {
				f.states[i].Mode = req.Mode
				f.states[i].X = req.X
				f.states[i].Y = req.Y
			}
		}
	}
	return nil
}

func (f *fakeBackend) Detect() error { return nil }

func (f *fakeBackend) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setCalls
}

func newWatcherFixture(t *testing.T, drifted bool) (*fakeBackend, *engine.Engine) {
	t.Helper()

	target := []display.State{
		{
			Identity: display.Identity{DevicePath: "eDP-1", Index: 0},
			Enabled:  true,
			Mode:     display.Mode{Width: 1920, Height: 1080, RefreshHz: 60},
			Primary:  true,
		},
		{
			Identity: display.Identity{DevicePath: "HDMI-1", Index: 1},
			Enabled:  true,
			Mode:     display.Mode{Width: 1920, Height: 1080, RefreshHz: 60},
			X:        1920,
		},
	}

	liveStates := make([]display.State, len(target))
	copy(liveStates, target)
	if drifted {
		liveStates[1].Enabled = false
		liveStates[1].Mode = display.Mode{}
		liveStates[1].X = 0
	}

	fb := &fakeBackend{states: liveStates}
	store, err := profile.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	now := time.Now()
	if err := store.Save(&profile.Profile{
		Name: "docked", Displays: target, CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("save: %v", err)
	}
	return fb, engine.New(fb, store, nil, nil)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestWatcher_ReappliesProfileOnDrift(t *testing.T) {
	fb, eng := newWatcherFixture(t, true)

	w := NewWatcher(WatcherConfig{
		Profile:  "docked",
		Debounce: 10 * time.Millisecond,
	}, eng)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	w.Notify()

	if !waitFor(t, 2*time.Second, func() bool { return fb.calls() > 0 }) {
		t.Fatalf("expected watcher to re-apply the profile")
	}

	converged, err := eng.Converged("docked", false)
	if err != nil {
		t.Fatalf("converged: %v", err)
	}
	if !converged {
		t.Fatalf("expected live state converged after re-apply")
	}
}

func TestWatcher_NoopWhenConverged(t *testing.T) {
	fb, eng := newWatcherFixture(t, false)

	w := NewWatcher(WatcherConfig{
		Profile:  "docked",
		Debounce: 10 * time.Millisecond,
	}, eng)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	w.Notify()
	time.Sleep(100 * time.Millisecond)

	if fb.calls() != 0 {
		t.Fatalf("expected no backend mutation, got %d calls", fb.calls())
	}
}

func TestWatcher_NotifyCoalescesBursts(t *testing.T) {
	fb, eng := newWatcherFixture(t, true)

	w := NewWatcher(WatcherConfig{
		Profile:  "docked",
		Debounce: 50 * time.Millisecond,
	}, eng)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// A replug storm fires many notifications back to back.
	for i := 0; i < 20; i++ {
		w.Notify()
		time.Sleep(time.Millisecond)
	}

	if !waitFor(t, 2*time.Second, func() bool { return fb.calls() > 0 }) {
		t.Fatalf("expected one re-apply after the burst")
	}
	// One enable is all the drift needs; a second pass would be a bug.
	time.Sleep(150 * time.Millisecond)
	if fb.calls() != 1 {
		t.Fatalf("expected exactly 1 SetState call, got %d", fb.calls())
	}
}

func TestWatcher_EmptyProfileOnlyObserves(t *testing.T) {
	fb, eng := newWatcherFixture(t, true)

	w := NewWatcher(WatcherConfig{Debounce: 10 * time.Millisecond}, eng)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	w.Notify()
	time.Sleep(100 * time.Millisecond)

	if fb.calls() != 0 {
		t.Fatalf("expected observation only, got %d calls", fb.calls())
	}
}

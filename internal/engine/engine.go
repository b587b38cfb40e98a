// Package engine ties enumeration, reconciliation and application together
// behind the entry points the CLI, IPC server, TUI and MCP server share.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/displaysnap/internal/apply"
	"github.com/1broseidon/displaysnap/internal/display"
	"github.com/1broseidon/displaysnap/internal/profile"
	"github.com/1broseidon/displaysnap/internal/reconcile"
	"github.com/1broseidon/displaysnap/internal/winpark"
)

// Engine owns the one live OS resource (the display subsystem) and
// serializes Save/Apply against it. Each cycle is otherwise a pure function
// of its inputs; no state crosses operation boundaries.
type Engine struct {
	backend display.Backend
	store   *profile.Store
	parker  *winpark.Parker // nil disables window parking
	applier *apply.Applier
	logger  *slog.Logger
	now     func() time.Time

	mu sync.Mutex
}

// New creates an engine. parker may be nil; a nil logger disables logging.
func New(backend display.Backend, store *profile.Store, parker *winpark.Parker, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		backend: backend,
		store:   store,
		parker:  parker,
		applier: apply.New(backend, logger),
		logger:  logger,
		now:     time.Now,
	}
}

// ApplyOptions tweak one apply invocation.
type ApplyOptions struct {
	// DisableExtras disables live displays the profile does not mention.
	DisableExtras bool
	// ManageWindows parks windows off disabled monitors and restores them
	// onto re-enabled ones.
	ManageWindows bool
}

// Store exposes the profile store for listing/deleting/renaming.
func (e *Engine) Store() *profile.Store {
	return e.store
}

// Displays enumerates the live display state.
func (e *Engine) Displays() ([]display.State, error) {
	return e.backend.Enumerate()
}

// Detect forces a hardware re-probe.
func (e *Engine) Detect() error {
	return e.backend.Detect()
}

// SaveCurrent snapshots the live state under the given profile name,
// overwriting a same-named profile while preserving its creation time.
func (e *Engine) SaveCurrent(name string) (*profile.Profile, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	live, err := e.backend.Enumerate()
	if err != nil {
		return nil, err
	}

	now := e.now()
	p := &profile.Profile{
		Name:      name,
		Displays:  live,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if prev, err := e.store.Load(name); err == nil {
		p.CreatedAt = prev.CreatedAt
	}

	if err := e.store.Save(p); err != nil {
		return nil, err
	}
	e.logger.Info("profile saved", "name", name, "displays", len(live))
	return p, nil
}

// Plan computes the reconciliation plan for a profile without touching the
// OS. Used by --dry-run.
func (e *Engine) Plan(name string, disableExtras bool) (*reconcile.Plan, error) {
	p, err := e.store.Load(name)
	if err != nil {
		return nil, err
	}
	live, err := e.backend.Enumerate()
	if err != nil {
		return nil, err
	}
	return reconcile.Reconcile(live, p, disableExtras)
}

// Apply loads a profile, reconciles it against live state and executes the
// resulting plan. Window parking happens around the hardware change and is
// best-effort; it never fails the apply.
func (e *Engine) Apply(ctx context.Context, name string, opts ApplyOptions) (*apply.Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.store.Load(name)
	if err != nil {
		return nil, err
	}

	live, err := e.backend.Enumerate()
	if err != nil {
		return nil, err
	}

	plan, err := reconcile.Reconcile(live, p, opts.DisableExtras)
	if err != nil {
		return nil, err
	}
	if plan.Empty() {
		e.logger.Info("already converged", "profile", name)
		return &apply.Report{Warnings: plan.Warnings}, nil
	}

	if opts.ManageWindows && e.parker != nil {
		var disabling []display.Identity
		for _, op := range plan.Ops {
			if op.Kind == reconcile.OpDisable {
				disabling = append(disabling, op.Target)
			}
		}
		e.parker.Park(live, disabling)
	}

	report, err := e.applier.Apply(ctx, plan)
	if err != nil {
		return report, err
	}

	if opts.ManageWindows && e.parker != nil && report.Succeeded() {
		if after, err := e.backend.Enumerate(); err == nil {
			e.parker.Restore(live, after)
		}
	}

	e.logger.Info("profile applied", "profile", name,
		"steps", len(report.Steps), "ok", report.Succeeded())
	return report, nil
}

// Converged reports whether the live state already matches the profile.
// Used by the daemon's drift watcher.
func (e *Engine) Converged(name string, disableExtras bool) (bool, error) {
	plan, err := e.Plan(name, disableExtras)
	if err != nil {
		return false, err
	}
	return plan.Empty(), nil
}

// ProfileNames lists saved profiles.
func (e *Engine) ProfileNames() ([]string, error) {
	names, err := e.store.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return names, nil
}

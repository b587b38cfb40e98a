package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/displaysnap/internal/engine"
)

// WatcherConfig holds configuration for the drift watcher.
type WatcherConfig struct {
	// Profile to keep applied. Empty disables auto-apply; the watcher then
	// only logs topology changes.
	Profile string
	// Debounce delays reaction to change bursts: plugging a monitor in
	// fires several RandR notifications back to back.
	Debounce      time.Duration
	DisableExtras bool
	ManageWindows bool
	Logger        *slog.Logger
}

// Watcher reacts to display topology changes and, when configured with a
// profile, re-applies it once the live state drifts.
type Watcher struct {
	cfgMu   sync.RWMutex
	cfg     WatcherConfig
	eng     *engine.Engine
	changes chan struct{}
	logger  *slog.Logger
}

// NewWatcher creates a watcher over the given engine.
func NewWatcher(cfg WatcherConfig, eng *engine.Engine) *Watcher {
	if cfg.Debounce <= 0 {
		cfg.Debounce = 1500 * time.Millisecond
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{
		cfg:     cfg,
		eng:     eng,
		changes: make(chan struct{}, 1),
		logger:  logger,
	}
}

// UpdateConfig swaps the watcher settings (used on config reload). The
// logger and debounce floor from construction are kept.
func (w *Watcher) UpdateConfig(cfg WatcherConfig) {
	if cfg.Debounce <= 0 {
		cfg.Debounce = 1500 * time.Millisecond
	}
	w.cfgMu.Lock()
	cfg.Logger = w.cfg.Logger
	w.cfg = cfg
	w.cfgMu.Unlock()
}

func (w *Watcher) config() WatcherConfig {
	w.cfgMu.RLock()
	defer w.cfgMu.RUnlock()
	return w.cfg
}

// Notify signals a topology change. Non-blocking; bursts coalesce.
func (w *Watcher) Notify() {
	select {
	case w.changes <- struct{}{}:
	default:
	}
}

// Run consumes change notifications until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	cfg := w.config()
	w.logger.Info("watcher started",
		"auto_apply", cfg.Profile, "debounce", cfg.Debounce)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopped")
			return
		case <-w.changes:
		}

		// Debounce: absorb the notification burst, then act once.
		debounce := w.config().Debounce
		timer := time.NewTimer(debounce)
	drain:
		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-w.changes:
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(debounce)
			case <-timer.C:
				break drain
			}
		}

		w.handleChange(ctx)
	}
}

// handleChange performs one drift check. Panics are recovered so a driver
// hiccup cannot crash the daemon.
func (w *Watcher) handleChange(ctx context.Context) {
	defer func() {
		if err := recover(); err != nil {
			w.logger.Error("watcher panic recovered", "error", err)
		}
	}()

	cfg := w.config()
	if cfg.Profile == "" {
		w.logger.Info("display topology changed")
		return
	}

	converged, err := w.eng.Converged(cfg.Profile, cfg.DisableExtras)
	if err != nil {
		w.logger.Error("watcher: drift check failed", "error", err)
		return
	}
	if converged {
		return
	}

	w.logger.Info("topology drifted; re-applying profile", "profile", cfg.Profile)
	report, err := w.eng.Apply(ctx, cfg.Profile, engine.ApplyOptions{
		DisableExtras: cfg.DisableExtras,
		ManageWindows: cfg.ManageWindows,
	})
	if err != nil {
		w.logger.Error("watcher: re-apply failed", "error", err)
		return
	}
	if !report.Succeeded() {
		w.logger.Warn("watcher: re-apply had failures", "summary", report.Summary())
	}
}

// Package winpark moves application windows out of the way when monitors are
// disabled and puts them back when monitors return. All of it is best-effort:
// a profile apply never fails because a window refused to move.
package winpark

import (
	"log/slog"

	"github.com/1broseidon/displaysnap/internal/display"
)

// Window is a top-level window and its root-relative geometry.
type Window struct {
	ID     uint32
	X      int
	Y      int
	Width  int
	Height int
}

// Desktop abstracts the window system operations parking needs.
type Desktop interface {
	Windows() ([]Window, error)
	Move(id uint32, x, y int) error
}

// Parker caches window positions across monitor changes.
type Parker struct {
	desktop   Desktop
	cachePath string
	logger    *slog.Logger
}

// NewParker creates a parker persisting its cache at cachePath.
func NewParker(desktop Desktop, cachePath string, logger *slog.Logger) *Parker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Parker{desktop: desktop, cachePath: cachePath, logger: logger}
}

// Park saves the positions of windows sitting on the displays about to be
// disabled and moves them onto the primary display. Positions are only saved
// when reducing monitors, which preserves the full layout for a later
// restore.
func (p *Parker) Park(live []display.State, disabling []display.Identity) {
	if len(disabling) == 0 {
		return
	}

	doomed := make(map[display.Identity]bool, len(disabling))
	for _, id := range disabling {
		doomed[id] = true
	}

	var goneRects []display.State
	var primary *display.State
	for i := range live {
		if !live[i].Enabled {
			continue
		}
		if doomed[live[i].Identity] {
			goneRects = append(goneRects, live[i])
		} else if primary == nil || live[i].Primary {
			primary = &live[i]
		}
	}
	if len(goneRects) == 0 || primary == nil {
		return
	}

	windows, err := p.desktop.Windows()
	if err != nil {
		p.logger.Warn("window listing failed; skipping parking", "error", err)
		return
	}

	cache := loadCache(p.cachePath)
	for _, w := range windows {
		home := containing(goneRects, w)
		if home == nil {
			continue
		}
		cache.put(cachedWindow{
			ID: w.ID, X: w.X, Y: w.Y,
			MonitorX: home.X, MonitorY: home.Y,
		})

		// Keep the window's offset within its old monitor, clamped to the
		// primary's area.
		nx := primary.X + clampInt(w.X-home.X, 0, maxInt(0, primary.Mode.Width-w.Width))
		ny := primary.Y + clampInt(w.Y-home.Y, 0, maxInt(0, primary.Mode.Height-w.Height))
		if err := p.desktop.Move(w.ID, nx, ny); err != nil {
			p.logger.Warn("failed to park window", "window", w.ID, "error", err)
		}
	}
	if err := cache.save(p.cachePath); err != nil {
		p.logger.Warn("failed to save window cache", "error", err)
	}
}

// Restore moves cached windows back onto monitors that just came back.
// before/after are the enumerations around the apply; only windows whose
// home monitor origin is among the newly enabled areas move.
func (p *Parker) Restore(before, after []display.State) {
	newlyEnabled := make(map[[2]int]bool)
	for _, a := range after {
		if !a.Enabled {
			continue
		}
		was := false
		for _, b := range before {
			if b.Enabled && b.X == a.X && b.Y == a.Y {
				was = true
				break
			}
		}
		if !was {
			newlyEnabled[[2]int{a.X, a.Y}] = true
		}
	}
	if len(newlyEnabled) == 0 {
		return
	}

	cache := loadCache(p.cachePath)
	var kept []cachedWindow
	for _, cw := range cache.Windows {
		if !newlyEnabled[[2]int{cw.MonitorX, cw.MonitorY}] {
			kept = append(kept, cw)
			continue
		}
		if err := p.desktop.Move(cw.ID, cw.X, cw.Y); err != nil {
			p.logger.Warn("failed to restore window", "window", cw.ID, "error", err)
		}
	}
	cache.Windows = kept
	if err := cache.save(p.cachePath); err != nil {
		p.logger.Warn("failed to save window cache", "error", err)
	}
}

// containing returns the display whose area holds the window's center.
func containing(rects []display.State, w Window) *display.State {
	cx := w.X + w.Width/2
	cy := w.Y + w.Height/2
	for i := range rects {
		r := &rects[i]
		if cx >= r.X && cx < r.X+r.Mode.Width && cy >= r.Y && cy < r.Y+r.Mode.Height {
			return r
		}
	}
	return nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

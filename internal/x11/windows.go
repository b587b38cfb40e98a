package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// WindowGeom is a top-level window and its root-relative geometry.
type WindowGeom struct {
	ID     uint32
	X      int
	Y      int
	Width  int
	Height int
}

// ListWindows returns all normal top-level windows with their geometry.
// Docks, desktops and other chrome are excluded.
func (c *Connection) ListWindows() ([]WindowGeom, error) {
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return nil, fmt.Errorf("failed to get client list: %w", err)
	}

	var out []WindowGeom
	for _, win := range clients {
		if !c.isNormalWindow(win) {
			continue
		}
		geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(win)).Reply()
		if err != nil {
			continue
		}
		translate, err := xproto.TranslateCoordinates(c.XUtil.Conn(), win, c.Root, 0, 0).Reply()
		if err != nil {
			continue
		}
		out = append(out, WindowGeom{
			ID:     uint32(win),
			X:      int(translate.DstX),
			Y:      int(translate.DstY),
			Width:  int(geom.Width),
			Height: int(geom.Height),
		})
	}
	return out, nil
}

// MoveWindow moves a window to the given root coordinates, preserving its
// size. Maximized state is cleared first so the move sticks.
func (c *Connection) MoveWindow(windowID uint32, x, y int) error {
	win := xproto.Window(windowID)

	c.unmaximizeWindow(win)

	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(win)).Reply()
	if err != nil {
		return fmt.Errorf("failed to get geometry for window %d: %w", windowID, err)
	}

	// Use EWMH MoveResize for better WM compatibility.
	err = ewmh.MoveresizeWindow(c.XUtil, win, x, y, int(geom.Width), int(geom.Height))
	if err != nil {
		// Fallback to direct window manipulation
		xwindow.New(c.XUtil, win).MoveResize(x, y, int(geom.Width), int(geom.Height))
	}
	return nil
}

// unmaximizeWindow removes maximized state from a window
func (c *Connection) unmaximizeWindow(windowID xproto.Window) {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return
	}
	for _, state := range states {
		if state == "_NET_WM_STATE_MAXIMIZED_HORZ" || state == "_NET_WM_STATE_MAXIMIZED_VERT" {
			ewmh.WmStateReq(c.XUtil, windowID, 0, state)
		}
	}
}

// isNormalWindow checks if a window is a normal application window
func (c *Connection) isNormalWindow(windowID xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		// If we can't determine type, assume it's normal
		return true
	}

	for _, t := range types {
		if t == "_NET_WM_WINDOW_TYPE_NORMAL" {
			return true
		}
		if t == "_NET_WM_WINDOW_TYPE_DESKTOP" ||
			t == "_NET_WM_WINDOW_TYPE_DOCK" ||
			t == "_NET_WM_WINDOW_TYPE_SPLASH" ||
			t == "_NET_WM_WINDOW_TYPE_NOTIFICATION" {
			return false
		}
	}

	return len(types) == 0
}

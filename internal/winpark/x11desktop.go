package winpark

import "github.com/1broseidon/displaysnap/internal/x11"

// X11Desktop adapts an X11 connection to the Desktop interface.
type X11Desktop struct {
	conn *x11.Connection
}

// NewX11Desktop wraps an established X11 connection.
func NewX11Desktop(conn *x11.Connection) *X11Desktop {
	return &X11Desktop{conn: conn}
}

func (d *X11Desktop) Windows() ([]Window, error) {
	geoms, err := d.conn.ListWindows()
	if err != nil {
		return nil, err
	}
	out := make([]Window, len(geoms))
	for i, g := range geoms {
		out[i] = Window{ID: g.ID, X: g.X, Y: g.Y, Width: g.Width, Height: g.Height}
	}
	return out, nil
}

func (d *X11Desktop) Move(id uint32, x, y int) error {
	return d.conn.MoveWindow(id, x, y)
}

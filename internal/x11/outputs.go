package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"

	"github.com/1broseidon/displaysnap/internal/display"
)

// Backend implements display.Backend on top of XRandR.
type Backend struct {
	conn *Connection
}

// NewBackend wraps an established X11 connection.
func NewBackend(conn *Connection) *Backend {
	return &Backend{conn: conn}
}

// Enumerate retrieves all connected outputs using XRandR, including
// connected outputs without an active CRTC (disabled displays).
func (b *Backend) Enumerate() ([]display.State, error) {
	c := b.conn.XUtil.Conn()

	res, err := randr.GetScreenResourcesCurrent(c, b.conn.Root).Reply()
	if err != nil {
		return nil, &display.EnumerationError{Err: fmt.Errorf("get screen resources: %w", err)}
	}

	var primaryOutput randr.Output
	if pri, err := randr.GetOutputPrimary(c, b.conn.Root).Reply(); err == nil {
		primaryOutput = pri.Output
	}

	var states []display.State
	for i, output := range res.Outputs {
		info, err := randr.GetOutputInfo(c, output, res.ConfigTimestamp).Reply()
		if err != nil {
			return nil, &display.EnumerationError{Err: fmt.Errorf("get output info #%d: %w", i, err)}
		}
		if info.Connection != randr.ConnectionConnected {
			continue
		}

		st := display.State{
			Identity: display.Identity{DevicePath: string(info.Name), Index: i},
			Primary:  output == primaryOutput,
		}

		if info.Crtc != 0 {
			crtc, err := randr.GetCrtcInfo(c, info.Crtc, res.ConfigTimestamp).Reply()
			if err != nil {
				return nil, &display.EnumerationError{Err: fmt.Errorf("get crtc info for %s: %w", info.Name, err)}
			}
			if crtc.Mode != 0 && crtc.Width > 0 && crtc.Height > 0 {
				st.Enabled = true
				st.X = int(crtc.X)
				st.Y = int(crtc.Y)
				st.Mode = modeByID(res.Modes, crtc.Mode)
			}
		}

		if !st.Enabled {
			// Record the preferred mode so a disabled display still carries a
			// usable target resolution when saved into a profile.
			st.Mode = preferredMode(res.Modes, info)
		}

		states = append(states, st)
	}

	return states, nil
}

// Detect forces the server to re-probe output hardware. GetScreenResources
// (unlike the Current variant) polls the drivers, which makes displays that
// were detached reappear in the next enumeration.
func (b *Backend) Detect() error {
	_, err := randr.GetScreenResources(b.conn.XUtil.Conn(), b.conn.Root).Reply()
	if err != nil {
		return fmt.Errorf("display re-probe failed: %w", err)
	}
	return nil
}

// modeByID resolves a CRTC's active mode to width/height/refresh.
func modeByID(modes []randr.ModeInfo, id randr.Mode) display.Mode {
	for _, mi := range modes {
		if randr.Mode(mi.Id) == id {
			return display.Mode{
				Width:     int(mi.Width),
				Height:    int(mi.Height),
				RefreshHz: refreshRate(mi),
			}
		}
	}
	return display.Mode{}
}

// preferredMode returns the output's preferred mode. RandR lists preferred
// modes first, so the head of the list is the native mode.
func preferredMode(modes []randr.ModeInfo, info *randr.GetOutputInfoReply) display.Mode {
	if len(info.Modes) == 0 {
		return display.Mode{}
	}
	return modeByID(modes, info.Modes[0])
}

// refreshRate computes the vertical refresh from mode timings, rounded to
// the nearest Hz.
func refreshRate(mi randr.ModeInfo) int {
	total := int64(mi.Htotal) * int64(mi.Vtotal)
	if total == 0 {
		return 0
	}
	return int((int64(mi.DotClock) + total/2) / total)
}

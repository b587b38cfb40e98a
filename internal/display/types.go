package display

import "fmt"

// Identity is a stable-as-possible key for a physical display: the output
// device path (e.g. "DP-1") plus the adapter ordinal as a fallback. Device
// paths can drift across replugs and reboots; the reconciler tolerates that
// with a multi-stage matching policy.
type Identity struct {
	DevicePath string `yaml:"device" json:"device"`
	Index      int    `yaml:"index" json:"index"`
}

func (id Identity) String() string {
	if id.DevicePath != "" {
		return id.DevicePath
	}
	return fmt.Sprintf("output#%d", id.Index)
}

// Mode is a resolution/refresh pair.
type Mode struct {
	Width     int `yaml:"width" json:"width"`
	Height    int `yaml:"height" json:"height"`
	RefreshHz int `yaml:"refresh_hz" json:"refresh_hz"`
}

func (m Mode) String() string {
	return fmt.Sprintf("%dx%d@%dHz", m.Width, m.Height, m.RefreshHz)
}

// State is one display's observed or desired configuration. The same type is
// used for live (enumerated) state and target (profile) state.
type State struct {
	Identity Identity `yaml:"identity" json:"identity"`
	Enabled  bool     `yaml:"enabled" json:"enabled"`
	Mode     Mode     `yaml:"mode" json:"mode"`
	X        int      `yaml:"x" json:"x"`
	Y        int      `yaml:"y" json:"y"`
	Primary  bool     `yaml:"primary" json:"primary"`
}

func (s State) String() string {
	tag := ""
	if s.Primary {
		tag = " [primary]"
	}
	if !s.Enabled {
		tag += " [disabled]"
	}
	return fmt.Sprintf("%s%s: %s pos(%d,%d)", s.Identity, tag, s.Mode, s.X, s.Y)
}

// SameGeometry reports whether two states agree on mode and position.
func (s State) SameGeometry(o State) bool {
	return s.Mode == o.Mode && s.X == o.X && s.Y == o.Y
}

// Overlaps reports whether the enabled areas of two states intersect.
// Disabled states never overlap anything.
func (s State) Overlaps(o State) bool {
	if !s.Enabled || !o.Enabled {
		return false
	}
	return s.X < o.X+o.Mode.Width && o.X < s.X+s.Mode.Width &&
		s.Y < o.Y+o.Mode.Height && o.Y < s.Y+s.Mode.Height
}

// FindByDevicePath returns the index of the state with the given device path,
// or -1 when absent.
func FindByDevicePath(states []State, devicePath string) int {
	for i := range states {
		if states[i].Identity.DevicePath == devicePath {
			return i
		}
	}
	return -1
}

// EnabledCount returns how many states are enabled.
func EnabledCount(states []State) int {
	n := 0
	for i := range states {
		if states[i].Enabled {
			n++
		}
	}
	return n
}

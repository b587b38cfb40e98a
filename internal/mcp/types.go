package mcp

import "github.com/1broseidon/displaysnap/internal/display"

// ListProfilesInput is the input for the list_profiles tool.
type ListProfilesInput struct{}

// ListProfilesOutput is the output for the list_profiles tool.
type ListProfilesOutput struct {
	Profiles []string `json:"profiles"`
}

// GetDisplaysInput is the input for the get_displays tool.
type GetDisplaysInput struct{}

// DisplayInfo describes one enumerated display.
type DisplayInfo struct {
	Device    string `json:"device"`
	Index     int    `json:"index"`
	Enabled   bool   `json:"enabled"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	RefreshHz int    `json:"refresh_hz"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Primary   bool   `json:"primary"`
}

// GetDisplaysOutput is the output for the get_displays tool.
type GetDisplaysOutput struct {
	Displays []DisplayInfo `json:"displays"`
}

// SaveProfileInput is the input for the save_profile tool.
type SaveProfileInput struct {
	Name string `json:"name" jsonschema:"required,Profile name to save the current display arrangement under. Overwrites a same-named profile."`
}

// SaveProfileOutput is the output for the save_profile tool.
type SaveProfileOutput struct {
	Name     string `json:"name"`
	Displays int    `json:"displays"`
}

// ApplyProfileInput is the input for the apply_profile tool.
type ApplyProfileInput struct {
	Name          string `json:"name" jsonschema:"required,Name of the saved profile to apply"`
	DisableExtras *bool  `json:"disable_extras,omitempty" jsonschema:"When true, disable connected displays the profile does not mention (default: configured value)"`
}

// ApplyStep reports the outcome of one plan operation.
type ApplyStep struct {
	Op      string `json:"op"`
	Target  string `json:"target"`
	Outcome string `json:"outcome"`
	Reason  string `json:"reason,omitempty"`
}

// ApplyProfileOutput is the output for the apply_profile tool.
type ApplyProfileOutput struct {
	Success  bool        `json:"success"`
	Summary  string      `json:"summary"`
	Steps    []ApplyStep `json:"steps"`
	Warnings []string    `json:"warnings,omitempty"`
}

// DeleteProfileInput is the input for the delete_profile tool.
type DeleteProfileInput struct {
	Name string `json:"name" jsonschema:"required,Name of the saved profile to delete"`
}

// DeleteProfileOutput is the output for the delete_profile tool.
type DeleteProfileOutput struct {
	Deleted bool `json:"deleted"`
}

func toDisplayInfo(states []display.State) []DisplayInfo {
	out := make([]DisplayInfo, len(states))
	for i, s := range states {
		out[i] = DisplayInfo{
			Device:    s.Identity.DevicePath,
			Index:     s.Identity.Index,
			Enabled:   s.Enabled,
			Width:     s.Mode.Width,
			Height:    s.Mode.Height,
			RefreshHz: s.Mode.RefreshHz,
			X:         s.X,
			Y:         s.Y,
			Primary:   s.Primary,
		}
	}
	return out
}

package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/displaysnap/internal/apply"
	"github.com/1broseidon/displaysnap/internal/display"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload        CommandType = "RELOAD"
	CommandGetStatus     CommandType = "GET_STATUS"
	CommandGetDisplays   CommandType = "GET_DISPLAYS"
	CommandListProfiles  CommandType = "LIST_PROFILES"
	CommandSaveProfile   CommandType = "SAVE_PROFILE"
	CommandApplyProfile  CommandType = "APPLY_PROFILE"
	CommandDeleteProfile CommandType = "DELETE_PROFILE"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	DaemonRunning    bool   `json:"daemon_running"`
	UptimeSeconds    int64  `json:"uptime_seconds"`
	ProfileCount     int    `json:"profile_count"`
	AutoApplyProfile string `json:"auto_apply_profile,omitempty"`
}

// DisplaysData represents the data returned by GET_DISPLAYS
type DisplaysData struct {
	Displays []display.State `json:"displays"`
}

// ProfilesData represents the data returned by LIST_PROFILES
type ProfilesData struct {
	Profiles []string `json:"profiles"`
}

// SaveProfilePayload represents the payload for SAVE_PROFILE
type SaveProfilePayload struct {
	Name string `json:"name"`
}

// ApplyProfilePayload represents the payload for APPLY_PROFILE. Nil options
// fall back to the daemon's configured defaults.
type ApplyProfilePayload struct {
	Name          string `json:"name"`
	DisableExtras *bool  `json:"disable_extras,omitempty"`
	ManageWindows *bool  `json:"manage_windows,omitempty"`
}

// DeleteProfilePayload represents the payload for DELETE_PROFILE
type DeleteProfilePayload struct {
	Name string `json:"name"`
}

// ApplyResultData represents the data returned by APPLY_PROFILE
type ApplyResultData struct {
	Report  *apply.Report `json:"report"`
	Summary string        `json:"summary"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

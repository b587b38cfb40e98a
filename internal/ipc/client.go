package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/displaysnap/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}

	return &Client{
		socketPath: socketPath,
		// Applies block while monitors re-sync; allow for it.
		timeout: 30 * time.Second,
	}
}

// Available reports whether a daemon is reachable.
func (c *Client) Available() bool {
	conn, err := net.DialTimeout("unix", c.socketPath, time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error {
	_, err := c.sendRequest(&Request{Command: CommandReload})
	return err
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetStatus})
	if err != nil {
		return nil, err
	}

	var status StatusData
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status data: %w", err)
	}

	return &status, nil
}

// GetDisplays retrieves the live display state from the daemon
func (c *Client) GetDisplays() (*DisplaysData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetDisplays})
	if err != nil {
		return nil, err
	}

	var data DisplaysData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse displays data: %w", err)
	}

	return &data, nil
}

// ListProfiles retrieves saved profile names
func (c *Client) ListProfiles() ([]string, error) {
	resp, err := c.sendRequest(&Request{Command: CommandListProfiles})
	if err != nil {
		return nil, err
	}

	var data ProfilesData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse profiles data: %w", err)
	}

	return data.Profiles, nil
}

// SaveProfile snapshots the current display state under a name
func (c *Client) SaveProfile(name string) error {
	payload, err := json.Marshal(SaveProfilePayload{Name: name})
	if err != nil {
		return err
	}
	_, err = c.sendRequest(&Request{Command: CommandSaveProfile, Payload: payload})
	return err
}

// ApplyProfile applies a saved profile. Nil option pointers defer to the
// daemon's configured defaults.
func (c *Client) ApplyProfile(name string, disableExtras, manageWindows *bool) (*ApplyResultData, error) {
	payload, err := json.Marshal(ApplyProfilePayload{
		Name:          name,
		DisableExtras: disableExtras,
		ManageWindows: manageWindows,
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.sendRequest(&Request{Command: CommandApplyProfile, Payload: payload})
	if err != nil {
		return nil, err
	}

	var data ApplyResultData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse apply result: %w", err)
	}

	return &data, nil
}

// DeleteProfile removes a saved profile
func (c *Client) DeleteProfile(name string) error {
	payload, err := json.Marshal(DeleteProfilePayload{Name: name})
	if err != nil {
		return err
	}
	_, err = c.sendRequest(&Request{Command: CommandDeleteProfile, Payload: payload})
	return err
}

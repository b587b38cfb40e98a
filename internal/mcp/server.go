package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/displaysnap/internal/config"
	"github.com/1broseidon/displaysnap/internal/engine"
)

const (
	ServerName    = "displaysnap"
	ServerVersion = "0.1.0"
)

// Server is the MCP server exposing display profile management.
type Server struct {
	mcpServer *mcpsdk.Server
	eng       *engine.Engine
	cfg       *config.Config
}

// NewServer creates a new MCP server over the given engine.
func NewServer(eng *engine.Engine, cfg *config.Config) *Server {
	s := &Server{
		eng: eng,
		cfg: cfg,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_profiles",
		Description: "List saved display profiles by name.",
	}, s.handleListProfiles)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_displays",
		Description: "Enumerate the current display state: every connected display with its enabled state, resolution, refresh rate, position and primary flag. Includes connected-but-disabled displays.",
	}, s.handleGetDisplays)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "save_profile",
		Description: "Snapshot the current multi-monitor arrangement as a named profile. Overwrites an existing profile of the same name, preserving its creation time.",
	}, s.handleSaveProfile)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "apply_profile",
		Description: "Apply a saved display profile: enables, disables and repositions monitors to match it. The call blocks while monitors re-sync and reports a per-operation outcome; partial failure does not roll back.",
	}, s.handleApplyProfile)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "delete_profile",
		Description: "Delete a saved display profile by name.",
	}, s.handleDeleteProfile)
}

func (s *Server) handleListProfiles(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListProfilesInput) (*mcpsdk.CallToolResult, ListProfilesOutput, error) {
	names, err := s.eng.ProfileNames()
	if err != nil {
		return nil, ListProfilesOutput{}, err
	}
	return nil, ListProfilesOutput{Profiles: names}, nil
}

func (s *Server) handleGetDisplays(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetDisplaysInput) (*mcpsdk.CallToolResult, GetDisplaysOutput, error) {
	states, err := s.eng.Displays()
	if err != nil {
		return nil, GetDisplaysOutput{}, err
	}
	return nil, GetDisplaysOutput{Displays: toDisplayInfo(states)}, nil
}

func (s *Server) handleSaveProfile(_ context.Context, _ *mcpsdk.CallToolRequest, args SaveProfileInput) (*mcpsdk.CallToolResult, SaveProfileOutput, error) {
	if args.Name == "" {
		return nil, SaveProfileOutput{}, fmt.Errorf("name is required")
	}
	p, err := s.eng.SaveCurrent(args.Name)
	if err != nil {
		return nil, SaveProfileOutput{}, err
	}
	return nil, SaveProfileOutput{Name: p.Name, Displays: len(p.Displays)}, nil
}

func (s *Server) handleApplyProfile(ctx context.Context, _ *mcpsdk.CallToolRequest, args ApplyProfileInput) (*mcpsdk.CallToolResult, ApplyProfileOutput, error) {
	if args.Name == "" {
		return nil, ApplyProfileOutput{}, fmt.Errorf("name is required")
	}

	opts := engine.ApplyOptions{
		DisableExtras: s.cfg.DisableExtras,
		ManageWindows: s.cfg.ManageWindowsEnabled(),
	}
	if args.DisableExtras != nil {
		opts.DisableExtras = *args.DisableExtras
	}

	report, err := s.eng.Apply(ctx, args.Name, opts)
	if err != nil {
		return nil, ApplyProfileOutput{}, err
	}

	out := ApplyProfileOutput{
		Success:  report.Succeeded(),
		Summary:  report.Summary(),
		Warnings: report.Warnings,
	}
	for _, step := range report.Steps {
		out.Steps = append(out.Steps, ApplyStep{
			Op:      string(step.Op.Kind),
			Target:  step.Op.Target.String(),
			Outcome: string(step.Outcome),
			Reason:  step.Reason,
		})
	}
	return nil, out, nil
}

func (s *Server) handleDeleteProfile(_ context.Context, _ *mcpsdk.CallToolRequest, args DeleteProfileInput) (*mcpsdk.CallToolResult, DeleteProfileOutput, error) {
	if args.Name == "" {
		return nil, DeleteProfileOutput{}, fmt.Errorf("name is required")
	}
	if err := s.eng.Store().Delete(args.Name); err != nil {
		return nil, DeleteProfileOutput{}, err
	}
	return nil, DeleteProfileOutput{Deleted: true}, nil
}

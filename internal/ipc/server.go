package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/displaysnap/internal/config"
	"github.com/1broseidon/displaysnap/internal/engine"
	"github.com/1broseidon/displaysnap/internal/runtimepath"
)

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	eng          *engine.Engine
	cfg          *config.Config
	cfgMu        sync.RWMutex
	startTime    time.Time
	reloadChan   chan struct{}
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server
func NewServer(eng *engine.Engine, cfg *config.Config, reloadChan chan struct{}) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		eng:        eng,
		cfg:        cfg,
		startTime:  time.Now(),
		reloadChan: reloadChan,
	}, nil
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	log.Printf("IPC server listening on %s", s.socketPath)

	go s.acceptLoop()

	return nil
}

// Stop shuts the listener down and removes the socket.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()
	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			log.Printf("IPC accept error: %v", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		log.Printf("IPC read error: %v", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandReload:
		return s.handleReload()
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandGetDisplays:
		return s.handleGetDisplays()
	case CommandListProfiles:
		return s.handleListProfiles()
	case CommandSaveProfile:
		return s.handleSaveProfile(req.Payload)
	case CommandApplyProfile:
		return s.handleApplyProfile(req.Payload)
	case CommandDeleteProfile:
		return s.handleDeleteProfile(req.Payload)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

// GetConfig returns the server's current config.
func (s *Server) GetConfig() *config.Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

// UpdateConfig swaps in a new config (used on SIGHUP).
func (s *Server) UpdateConfig(cfg *config.Config) {
	s.cfgMu.Lock()
	s.cfg = cfg
	s.cfgMu.Unlock()
}

// handleReload reloads the configuration
func (s *Server) handleReload() *Response {
	log.Println("IPC: Received RELOAD command")

	newCfg, err := config.Load()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}

	s.cfgMu.Lock()
	s.cfg = newCfg
	s.cfgMu.Unlock()

	// Notify the main daemon via channel (non-blocking)
	select {
	case s.reloadChan <- struct{}{}:
	default:
	}

	log.Println("IPC: Config reloaded successfully")

	resp, _ := NewOKResponse(nil)
	return resp
}

// handleGetStatus returns current daemon status
func (s *Server) handleGetStatus() *Response {
	names, _ := s.eng.ProfileNames()

	s.cfgMu.RLock()
	autoApply := s.cfg.AutoApply.Profile
	s.cfgMu.RUnlock()

	status := StatusData{
		DaemonRunning:    true,
		UptimeSeconds:    int64(time.Since(s.startTime).Seconds()),
		ProfileCount:     len(names),
		AutoApplyProfile: autoApply,
	}

	resp, _ := NewOKResponse(status)
	return resp
}

// handleGetDisplays returns the live display state
func (s *Server) handleGetDisplays() *Response {
	displays, err := s.eng.Displays()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to enumerate displays: %v", err))
	}

	resp, _ := NewOKResponse(DisplaysData{Displays: displays})
	return resp
}

func (s *Server) handleListProfiles() *Response {
	names, err := s.eng.ProfileNames()
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	resp, _ := NewOKResponse(ProfilesData{Profiles: names})
	return resp
}

func (s *Server) handleSaveProfile(payload json.RawMessage) *Response {
	var req SaveProfilePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid save payload: %v", err))
	}
	if req.Name == "" {
		return NewErrorResponse("name is required")
	}

	if _, err := s.eng.SaveCurrent(req.Name); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to save profile: %v", err))
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleApplyProfile(payload json.RawMessage) *Response {
	var req ApplyProfilePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid apply payload: %v", err))
	}
	if req.Name == "" {
		return NewErrorResponse("name is required")
	}

	s.cfgMu.RLock()
	opts := engine.ApplyOptions{
		DisableExtras: s.cfg.DisableExtras,
		ManageWindows: s.cfg.ManageWindowsEnabled(),
	}
	s.cfgMu.RUnlock()
	if req.DisableExtras != nil {
		opts.DisableExtras = *req.DisableExtras
	}
	if req.ManageWindows != nil {
		opts.ManageWindows = *req.ManageWindows
	}

	report, err := s.eng.Apply(context.Background(), req.Name, opts)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to apply profile: %v", err))
	}

	resp, _ := NewOKResponse(ApplyResultData{Report: report, Summary: report.Summary()})
	return resp
}

func (s *Server) handleDeleteProfile(payload json.RawMessage) *Response {
	var req DeleteProfilePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid delete payload: %v", err))
	}
	if req.Name == "" {
		return NewErrorResponse("name is required")
	}

	if err := s.eng.Store().Delete(req.Name); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to delete profile: %v", err))
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) sendError(conn net.Conn, msg string) {
	resp := NewErrorResponse(msg)
	data, err := resp.Marshal()
	if err != nil {
		return
	}
	conn.Write(append(data, '\n'))
}

package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/tmorelle/pourover/internal/brew"
)

const (
	// maxMessageSize is the maximum size of a JSON-RPC message (1MB).
	maxMessageSize = 1024 * 1024
	// readTimeout is the timeout for reading a request from a client.
	readTimeout = 30 * time.Second
	// socketPermissions are the file permissions for the Unix socket.
	socketPermissions = 0600
)

// Server listens on a Unix socket and serves session control requests
// against the coordinator.
type Server struct {
	sockPath    string
	coordinator *brew.Coordinator
	logger      *slog.Logger

	mu        sync.RWMutex
	listener  net.Listener
	running   bool
	startTime time.Time
}

// NewServer creates a server for the given socket path and coordinator.
func NewServer(sockPath string, coordinator *brew.Coordinator, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		sockPath:    sockPath,
		coordinator: coordinator,
		logger:      logger,
	}
}

// Start begins listening and serving requests. It blocks until the
// context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	// Hold the lock through listen-and-set so two concurrent Starts cannot
	// both pass the running check.
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("control server already running")
	}

	// Clean up a stale socket from an earlier crash.
	_ = os.Remove(s.sockPath)

	listener, err := net.Listen("unix", s.sockPath)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("listen on socket: %w", err)
	}
	if err := os.Chmod(s.sockPath, socketPermissions); err != nil {
		_ = listener.Close()
		s.mu.Unlock()
		return fmt.Errorf("set socket permissions: %w", err)
	}

	s.listener = listener
	s.running = true
	s.startTime = time.Now()
	s.mu.Unlock()

	s.logger.Info("control server started", "socket", s.sockPath)

	go s.serve(ctx)

	<-ctx.Done()
	return s.Stop()
}

// Stop closes the listener and removes the socket file.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			s.logger.Error("error closing listener", "error", err)
		}
		s.listener = nil
	}
	_ = os.Remove(s.sockPath)

	s.logger.Info("control server stopped")
	return nil
}

func (s *Server) serve(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				s.mu.RLock()
				running := s.running
				s.mu.RUnlock()
				if !running {
					return
				}
				s.logger.Error("accept error", "error", err)
				continue
			}
		}

		go s.handleConnection(conn)
	}
}

// handleConnection reads one request, dispatches it, and writes the
// response.
func (s *Server) handleConnection(conn net.Conn) {
	defer func() { _ = conn.Close() }()

	if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		s.logger.Error("set read deadline error", "error", err)
		return
	}

	limitedReader := io.LimitReader(conn, maxMessageSize)
	decoder := json.NewDecoder(limitedReader)
	encoder := json.NewEncoder(conn)

	var req Request
	if err := decoder.Decode(&req); err != nil {
		_ = encoder.Encode(Response{Error: fmt.Sprintf("decode error: %v", err)})
		return
	}

	resp := s.handleRequest(&req)
	resp.ID = req.ID
	_ = encoder.Encode(resp)
}

// handleRequest dispatches the request to the appropriate handler.
func (s *Server) handleRequest(req *Request) Response {
	switch req.Method {
	case "status":
		return s.handleStatus()
	case "pause":
		return s.handlePause()
	case "resume":
		return s.handleResume()
	case "reset":
		return s.handleReset(req)
	case "jump":
		return s.handleJump(req)
	default:
		return Response{Error: fmt.Sprintf("unknown method: %s", req.Method)}
	}
}

func (s *Server) handleStatus() Response {
	if s.coordinator == nil {
		return Response{Error: "no session available"}
	}

	s.mu.RLock()
	startTime := s.startTime
	s.mu.RUnlock()

	state := s.coordinator.Snapshot()

	status := StatusIdle
	switch {
	case !s.coordinator.Active():
		status = StatusIdle
	case state.Complete:
		status = StatusComplete
	case state.Running:
		status = StatusRunning
	default:
		status = StatusPaused
	}

	return Response{
		Result: StatusResponse{
			Status:             status,
			MethodID:           s.coordinator.MethodID(),
			MethodName:         s.coordinator.MethodName(),
			BeanID:             s.coordinator.BeanID(),
			CurrentStage:       state.CurrentStage,
			Waiting:            state.Waiting,
			CountdownRemaining: state.CountdownRemaining,
			ElapsedSeconds:     s.coordinator.Elapsed(),
			Progress:           state.Progress,
			Uptime:             time.Since(startTime).Truncate(time.Second).String(),
			StartTime:          startTime.Format(time.RFC3339),
		},
	}
}

func (s *Server) handlePause() Response {
	if s.coordinator == nil {
		return Response{Error: "no session available"}
	}
	s.coordinator.Pause()
	return Response{Result: "paused"}
}

func (s *Server) handleResume() Response {
	if s.coordinator == nil {
		return Response{Error: "no session available"}
	}
	s.coordinator.Resume()
	return Response{Result: "resumed"}
}

func (s *Server) handleReset(req *Request) Response {
	if s.coordinator == nil {
		return Response{Error: "no session available"}
	}

	reason := "remote reset"
	if params, ok := req.Params.(map[string]interface{}); ok {
		if r, ok := params["reason"].(string); ok && r != "" {
			reason = r
		}
	}

	s.coordinator.Reset(reason)
	return Response{Result: "reset"}
}

func (s *Server) handleJump(req *Request) Response {
	if s.coordinator == nil {
		return Response{Error: "no session available"}
	}

	params, ok := req.Params.(map[string]interface{})
	if !ok {
		return Response{Error: "jump requires a stage parameter"}
	}
	stage, ok := params["stage"].(float64)
	if !ok {
		return Response{Error: "jump requires a stage parameter"}
	}

	s.coordinator.JumpToStage(int(stage))
	return Response{Result: fmt.Sprintf("jumped to stage %d", int(stage))}
}

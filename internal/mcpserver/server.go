package mcpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/drillrun/runwiz/internal/logger"
	"github.com/drillrun/runwiz/internal/wizard"
)

var log = logger.Named("mcp")

// DefaultOutcomeTimeout bounds how long run-submit and run-cancel wait for
// the wizard to report the outcome.
const DefaultOutcomeTimeout = 30 * time.Second

// Server exposes a wizard session as MCP tools so an agent can fill in a
// run the same way a user does in the terminal.
type Server struct {
	host      *wizard.Host
	submitter wizard.Submitter
	timeout   time.Duration

	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
	stdServer  *http.Server // Standard HTTP server that uses the listener
	port       int
	mu         sync.Mutex

	// waitMu gives one handler at a time the host's event stream.
	waitMu sync.Mutex
}

// New creates a server over host. Submissions go to sub.
func New(host *wizard.Host, sub wizard.Submitter) *Server {
	s := &Server{
		host:      host,
		submitter: sub,
		timeout:   DefaultOutcomeTimeout,
	}
	s.mcpServer = server.NewMCPServer(
		"runwiz-tools",
		"1.0.0",
		server.WithToolCapabilities(true),
	)
	s.registerTools()
	return s
}

// MCPServer returns the underlying server with every tool registered.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio serves the tools over stdin/stdout until the client hangs up.
func (s *Server) ServeStdio() error {
	log.Debug("Serving MCP tools on stdio")
	return server.ServeStdio(s.mcpServer)
}

// Start starts the MCP HTTP server on addr ("127.0.0.1:0" picks a free
// port) and returns the port.
func (s *Server) Start(addr string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stdServer != nil {
		return 0, fmt.Errorf("server already started")
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return 0, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.port = listener.Addr().(*net.TCPAddr).Port

	mux := http.NewServeMux()
	mcpHandler := server.NewStreamableHTTPServer(
		s.mcpServer,
		server.WithStateLess(true),
	)
	mux.Handle("/mcp", mcpHandler)

	s.stdServer = &http.Server{
		Handler: mux,
	}
	s.httpServer = mcpHandler

	// Capture stdServer for the goroutine to avoid racing Stop()
	stdServer := s.stdServer
	go func() {
		if err := stdServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("MCP server error: %v", err)
		}
	}()

	log.Debug("MCP server ready on port %d", s.port)
	return s.port, nil
}

// Stop stops the MCP HTTP server.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stdServer == nil {
		return nil // Already stopped
	}

	log.Debug("Stopping MCP server")
	if err := s.stdServer.Shutdown(context.Background()); err != nil {
		log.Warn("Error stopping MCP server: %v", err)
		return fmt.Errorf("failed to stop server: %w", err)
	}

	s.httpServer = nil
	s.stdServer = nil
	return nil
}

// URL returns the HTTP URL for the MCP server endpoint.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("http://localhost:%d/mcp", s.port)
}

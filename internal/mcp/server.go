// Package mcp exposes the query resolver to AI agents over the Model
// Context Protocol.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/queryflow/internal/resolver"
	"github.com/ziadkadry99/queryflow/internal/session"
	"github.com/ziadkadry99/queryflow/internal/turnlog"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes query-resolution tools.
type Server struct {
	engine   *resolver.Engine
	sessions *session.Store
	turns    *turnlog.Store
	mcp      *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(engine *resolver.Engine, sessions *session.Store, turns *turnlog.Store) *Server {
	s := &Server{
		engine:   engine,
		sessions: sessions,
		turns:    turns,
	}

	s.mcp = server.NewMCPServer(
		"queryflow",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(resolveQueryTool, s.handleResolveQuery)
	s.mcp.AddTool(getSessionTool, s.handleGetSession)
	s.mcp.AddTool(listScenesTool, s.handleListScenes)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}

package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/server"

	"github.com/apresai/podcastr/internal/store"
)

// Server is the MCP server exposing podcast creation and the catalog as tools.
type Server struct {
	port     int
	mcp      *server.MCPServer
	auth     Authenticator
	handlers *Handlers
	log      *slog.Logger
}

// New creates and configures the MCP server.
func New(port int, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	handlers := NewHandlers(deps, logger)

	mcpServer := server.NewMCPServer(
		"podcastr",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	tools := ToolDefs()
	mcpServer.AddTool(tools[0], handlers.HandleListVoices)
	mcpServer.AddTool(tools[1], handlers.HandleCreatePodcast)
	mcpServer.AddTool(tools[2], handlers.HandleGetPodcast)
	mcpServer.AddTool(tools[3], handlers.HandleListPodcasts)
	mcpServer.AddTool(tools[4], handlers.HandleSuggestPrompts)

	return &Server{
		port:     port,
		mcp:      mcpServer,
		auth:     deps.Auth,
		handlers: handlers,
		log:      logger,
	}
}

// MCP returns the underlying MCP server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// Start runs the streamable HTTP MCP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.log.Info("Starting MCP server", "addr", addr)

	httpServer := server.NewStreamableHTTPServer(s.mcp,
		server.WithStateLess(true),
		server.WithHTTPContextFunc(s.identify),
	)
	return httpServer.Start(addr)
}

// identify attaches the caller identity for requests carrying a valid key.
func (s *Server) identify(ctx context.Context, r *http.Request) context.Context {
	header := r.Header.Get("Authorization")
	if s.auth == nil || !strings.HasPrefix(header, "Bearer ") {
		return ctx
	}
	id, err := s.auth.ValidateAPIKey(ctx, header)
	if err != nil {
		s.log.WarnContext(ctx, "Rejected API key", "error", err)
		return ctx
	}
	return store.WithIdentity(ctx, id)
}

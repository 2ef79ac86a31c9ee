// Package mcp implements the Model Context Protocol server.
//
// The MCP server exposes the question-answering and ingest capabilities
// of the HTTP API as tools, so MCP-compatible agents can query the
// knowledge graphs directly.
package mcp

import (
	"encoding/json"
	"log/slog"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/seocho-ai/seocho/internal/graph"
	"github.com/seocho-ai/seocho/internal/ingest"
	"github.com/seocho-ai/seocho/internal/platform"
)

// Server wraps the MCP server with the service layer.
type Server struct {
	mcpServer  *mcpserver.MCPServer
	dispatcher *platform.Dispatcher
	ingestor   *ingest.Ingestor
	registry   *graph.Registry
	logger     *slog.Logger
}

// New creates and configures the MCP server with all resources and tools.
func New(dispatcher *platform.Dispatcher, ingestor *ingest.Ingestor, registry *graph.Registry, logger *slog.Logger) *Server {
	s := &Server{
		dispatcher: dispatcher,
		ingestor:   ingestor,
		registry:   registry,
		logger:     logger,
	}

	s.mcpServer = mcpserver.NewMCPServer(
		"seocho",
		"0.1.0",
		mcpserver.WithResourceCapabilities(true, true),
		mcpserver.WithToolCapabilities(true),
	)

	s.registerResources()
	s.registerTools()

	return s
}

// MCPServer returns the underlying mcp-go server for transport setup.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// ServeStdio blocks serving the MCP protocol over stdin/stdout.
func (s *Server) ServeStdio() error {
	return mcpserver.ServeStdio(s.mcpServer)
}

func (s *Server) registerResources() {
	// seocho://databases lists the registered user databases.
	s.mcpServer.AddResource(
		mcplib.NewResource(
			"seocho://databases",
			"Registered Databases",
			mcplib.WithResourceDescription("User databases available for querying"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleDatabasesResource,
	)
}

func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}

func jsonResult(v any) *mcplib.CallToolResult {
	data, _ := json.MarshalIndent(v, "", "  ")
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{
			mcplib.TextContent{Type: "text", Text: string(data)},
		},
	}
}

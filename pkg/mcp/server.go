package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/castellan-home/castellan/pkg/device"
	"github.com/castellan-home/castellan/pkg/gateway"
)

// Server wraps the MCP server with Castellan's device gateway functionality
type Server struct {
	mcpServer  *server.MCPServer
	registry   *device.Registry
	dispatcher *gateway.Dispatcher
}

// NewServer creates a new MCP server for device control
func NewServer(registry *device.Registry, dispatcher *gateway.Dispatcher) *Server {
	s := &Server{
		registry:   registry,
		dispatcher: dispatcher,
	}

	// Create MCP server
	s.mcpServer = server.NewMCPServer(
		"castellan",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	// Register all tools
	s.registerTools()

	return s
}

// ServeStdio starts the MCP server using stdio transport
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

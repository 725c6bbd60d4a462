package mcp

import (
	"github.com/lukman83/buysmart/internal/app"
	"github.com/mark3labs/mcp-go/server"
)

const (
	serverName    = "buysmart"
	serverVersion = "1.0.0"
)

func newServer(a *app.App) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
	)
	registerTools(s, a)
	return s
}

// Serve starts the MCP stdio server with all tools registered.
func Serve(a *app.App) error {
	return server.ServeStdio(newServer(a))
}

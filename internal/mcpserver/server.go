// Package mcpserver exposes the engine over the Model Context
// Protocol on stdio, so editor agents can analyze manifests, trace
// symbols, and build dependency chains.
package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/depchase/depchase/pkg/buildinfo"
	"github.com/depchase/depchase/pkg/engine"
	"github.com/depchase/depchase/pkg/source"
)

// ServerName is the MCP server name announced during initialization.
const ServerName = "depchase"

// Server wraps the MCP server with the engine it exposes.
type Server struct {
	mcp    *server.MCPServer
	engine *engine.Engine
	host   source.Host
}

// New creates an MCP server over the given engine. The host is used
// directly by the raw file, search, and repository-info tools.
func New(eng *engine.Engine, host source.Host) *Server {
	s := &Server{
		mcp:    server.NewMCPServer(ServerName, buildinfo.Version),
		engine: eng,
		host:   host,
	}
	s.registerTools()
	return s
}

// Serve runs the server on stdio and blocks until the stream closes.
// Stdout is reserved for the protocol; log to stderr only.
func (s *Server) Serve(_ context.Context) error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(analyzeDependenciesTool(), s.handleAnalyzeDependencies)
	s.mcp.AddTool(traceSymbolTool(), s.handleTraceSymbol)
	s.mcp.AddTool(buildDependencyChainTool(), s.handleBuildDependencyChain)
	s.mcp.AddTool(getFileContentTool(), s.handleGetFileContent)
	s.mcp.AddTool(searchCodeTool(), s.handleSearchCode)
	s.mcp.AddTool(getRepositoryInfoTool(), s.handleGetRepositoryInfo)
}

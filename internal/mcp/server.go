// Package mcp exposes repository flow analyses to AI agents over the
// Model Context Protocol.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/repoflow/repoflow/internal/analyses"
)

// Server wraps an MCP server that exposes flow analysis tools over stdio.
type Server struct {
	svc *analyses.Service
	mcp *server.MCPServer
}

// NewServer creates an MCP server around the analysis service.
func NewServer(svc *analyses.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"repoflow",
		version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(analyzeRepositoryTool, s.handleAnalyzeRepository)
	s.mcp.AddTool(listAnalysesTool, s.handleListAnalyses)
	s.mcp.AddTool(getAnalysisTool, s.handleGetAnalysis)
	s.mcp.AddTool(flowDiagramTool, s.handleFlowDiagram)
}

// Serve starts the MCP server on stdio and blocks until the client
// disconnects. Stdout is used for MCP protocol messages; all logging must
// go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}

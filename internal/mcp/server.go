package mcpserver

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"drawr/internal/service"
)

// Server is the MCP server for drawr.
// It exposes tools, resources, and prompts so AI agents can draw on the canvas.
type Server struct {
	mcp      *server.MCPServer
	drawings *service.DrawingService
	approval *ApprovalQueue
	log      *logrus.Entry
}

// Deps holds the dependencies passed from the app layer to the MCP server.
// A nil Approval runs destructive tools without asking.
type Deps struct {
	Drawings *service.DrawingService
	Approval *ApprovalQueue
	Log      *logrus.Entry
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	log := deps.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	s := &Server{
		drawings: deps.Drawings,
		approval: deps.Approval,
		log:      log,
	}

	s.mcp = server.NewMCPServer(
		"drawr-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerShapeTools()
	s.registerHistoryTools()
	s.registerLayerTools()
	s.registerDrawingTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// MCP returns the underlying server, for transports other than stdio.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.log.Info("starting stdio server")
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// imageResult wraps base64 image data in a tool result.
func imageResult(data, mimeType string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.ImageContent{Type: "image", Data: data, MIMEType: mimeType},
		},
	}
}

func boolPtr(v bool) *bool { return &v }

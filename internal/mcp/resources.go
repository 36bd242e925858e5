package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"drawr/internal/editor"
)

func (s *Server) registerResources() {
	// ── drawr://drawings ───────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		"drawr://drawings",
		"All Drawings",
		mcp.WithMIMEType("application/json"),
	), s.handleDrawingsResource)

	// ── drawr://canvas ─────────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		"drawr://canvas",
		"Live Canvas Layers",
		mcp.WithMIMEType("application/json"),
	), s.handleCanvasResource)

	// ── drawr://drawing/{drawingId} ────────────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"drawr://drawing/{drawingId}",
			"Stored Drawing",
		),
		s.handleDrawingResource,
	)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleDrawingsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	list, err := s.drawings.List(ctx)
	if err != nil {
		return nil, err
	}
	return jsonContents("drawr://drawings", list)
}

func (s *Server) handleCanvasResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	var out struct {
		ActiveLayer string `json:"activeLayer"`
		Layers      any    `json:"layers"`
	}
	s.drawings.Do(func(ed *editor.Editor) error {
		out.ActiveLayer = ed.ActiveLayerID()
		out.Layers = ed.ExportLayers()
		return nil
	})
	return jsonContents("drawr://canvas", out)
}

func (s *Server) handleDrawingResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	id := strings.TrimPrefix(uri, "drawr://drawing/")
	if id == "" || id == uri {
		return nil, fmt.Errorf("invalid drawing URI: %s", uri)
	}
	d, err := s.drawings.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return jsonContents(uri, d)
}

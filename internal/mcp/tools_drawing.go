package mcpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerDrawingTools() {
	s.mcp.AddTool(mcp.NewTool("new_drawing",
		mcp.WithDescription("Start a new, empty drawing and store it"),
		mcp.WithString("name", mcp.Description("Drawing name (optional, default Untitled)")),
	), s.handleNewDrawing)

	s.mcp.AddTool(mcp.NewTool("save_drawing",
		mcp.WithDescription("Save every layer of the canvas to the open drawing (creates one if none is open)"),
		mcp.WithString("name", mcp.Description("Rename the drawing before saving (optional)")),
	), s.handleSaveDrawing)

	s.mcp.AddTool(mcp.NewTool("load_drawing",
		mcp.WithDescription("Replace the canvas with a stored drawing"),
		mcp.WithString("drawingId", mcp.Description("Drawing ID"), mcp.Required()),
	), s.handleLoadDrawing)

	s.mcp.AddTool(mcp.NewTool("list_drawings",
		mcp.WithDescription("List stored drawings, most recently updated first"),
	), s.handleListDrawings)

	s.mcp.AddTool(mcp.NewTool("delete_drawing",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete a stored drawing and its saved history. Requires user approval."),
		mcp.WithString("drawingId", mcp.Description("Drawing ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteDrawing)

	s.mcp.AddTool(mcp.NewTool("render_png",
		mcp.WithDescription("Render the canvas (or a stored drawing) to a PNG image"),
		mcp.WithString("drawingId", mcp.Description("Stored drawing ID (optional, defaults to the live canvas)")),
	), s.handleRenderPNG)
}

// ── Handlers ────────────────────────────────────────────────

func (s *Server) handleNewDrawing(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, err := s.drawings.NewDrawing(ctx, req.GetString("name", ""))
	if err != nil {
		return nil, err
	}
	return jsonResult(d)
}

func (s *Server) handleSaveDrawing(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if name := req.GetString("name", ""); name != "" {
		if s.drawings.Current() == nil {
			if _, err := s.drawings.Save(ctx); err != nil {
				return nil, err
			}
		}
		if err := s.drawings.Rename(ctx, name); err != nil {
			return nil, err
		}
	}
	d, err := s.drawings.Save(ctx)
	if err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Saved %q (%s) with %d shape(s)", d.Name, d.ID, d.ShapeCount())), nil
}

func (s *Server) handleLoadDrawing(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("drawingId", "")
	if id == "" {
		return nil, fmt.Errorf("drawingId is required")
	}
	d, err := s.drawings.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Loaded %q: %d layer(s), %d shape(s)", d.Name, len(d.Layers), d.ShapeCount())), nil
}

func (s *Server) handleListDrawings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.drawings.List(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResult(list)
}

func (s *Server) handleDeleteDrawing(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("drawingId", "")
	if id == "" {
		return nil, fmt.Errorf("drawingId is required")
	}
	d, err := s.drawings.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.approval.Request(ctx, "delete_drawing",
		fmt.Sprintf("Delete drawing %q (%d shape(s)) and its history", d.Name, d.ShapeCount()),
		fmt.Sprintf(`{"drawingId":%q}`, id)); err != nil {
		return nil, err
	}
	if err := s.drawings.Delete(ctx, id); err != nil {
		return nil, err
	}
	return textResult("Deleted drawing " + id), nil
}

func (s *Server) handleRenderPNG(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var buf bytes.Buffer
	var err error
	if id := req.GetString("drawingId", ""); id != "" {
		err = s.drawings.RenderDrawingPNG(ctx, id, &buf)
	} else {
		err = s.drawings.RenderPNG(&buf)
	}
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return imageResult(base64.StdEncoding.EncodeToString(buf.Bytes()), "image/png"), nil
}

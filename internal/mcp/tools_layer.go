package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"drawr/internal/editor"
)

func (s *Server) registerHistoryTools() {
	s.mcp.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Undo the last change on the active layer"),
	), s.handleUndo)

	s.mcp.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Redo the last undone change on the active layer"),
	), s.handleRedo)
}

func (s *Server) registerLayerTools() {
	s.mcp.AddTool(mcp.NewTool("list_layers",
		mcp.WithDescription("List layers in stacking order with visibility, shape count and which one is active"),
	), s.handleListLayers)

	s.mcp.AddTool(mcp.NewTool("add_layer",
		mcp.WithDescription("Add a layer on top of the others"),
		mcp.WithBoolean("activate", mcp.Description("Make the new layer active (default true)")),
	), s.handleAddLayer)

	s.mcp.AddTool(mcp.NewTool("activate_layer",
		mcp.WithDescription("Make a layer the target of drawing, selection and history"),
		mcp.WithString("layerId", mcp.Description("Layer ID"), mcp.Required()),
	), s.handleActivateLayer)

	s.mcp.AddTool(mcp.NewTool("set_layer_visibility",
		mcp.WithDescription("Hide or show a layer"),
		mcp.WithString("layerId", mcp.Description("Layer ID (optional, defaults to the active layer)")),
		mcp.WithBoolean("visible", mcp.Description("true to show, false to hide"), mcp.Required()),
	), s.handleSetLayerVisibility)

	s.mcp.AddTool(mcp.NewTool("remove_layer",
		mcp.WithDescription("🛑 DESTRUCTIVE: Remove a layer and its shapes. Removing the last layer leaves a fresh empty one. Requires user approval."),
		mcp.WithString("layerId", mcp.Description("Layer ID (optional, defaults to the active layer)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleRemoveLayer)
}

// ── History handlers ────────────────────────────────────────

func (s *Server) handleUndo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.historyStep("undo", (*editor.Editor).Undo)
}

func (s *Server) handleRedo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.historyStep("redo", (*editor.Editor).Redo)
}

func (s *Server) historyStep(op string, step func(*editor.Editor) (bool, error)) (*mcp.CallToolResult, error) {
	var ok bool
	var shapes int
	err := s.drawings.Do(func(ed *editor.Editor) error {
		var err error
		ok, err = step(ed)
		shapes = len(ed.Shapes())
		return err
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return textResult("Nothing to " + op), nil
	}
	return textResult(fmt.Sprintf("%s done; active layer has %d shape(s)", op, shapes)), nil
}

// ── Layer handlers ──────────────────────────────────────────

type layerView struct {
	ID      string `json:"id"`
	Visible bool   `json:"visible"`
	Shapes  int    `json:"shapes"`
	Active  bool   `json:"active"`
}

func (s *Server) handleListLayers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var views []layerView
	s.drawings.Do(func(ed *editor.Editor) error {
		active := ed.ActiveLayerID()
		for _, id := range ed.GetLayers() {
			f, err := ed.Layer(id)
			if err != nil {
				continue
			}
			views = append(views, layerView{ID: id, Visible: f.Visible(), Shapes: f.Len(), Active: id == active})
		}
		return nil
	})
	return jsonResult(views)
}

func (s *Server) handleAddLayer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	activate := req.GetBool("activate", true)
	var id string
	s.drawings.Do(func(ed *editor.Editor) error {
		id = ed.AddLayer(activate)
		return nil
	})
	return textResult("Added layer " + id), nil
}

func (s *Server) handleActivateLayer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("layerId", "")
	if id == "" {
		return nil, fmt.Errorf("layerId is required")
	}
	if err := s.drawings.Do(func(ed *editor.Editor) error { return ed.ActivateLayer(id) }); err != nil {
		return nil, err
	}
	return textResult("Active layer: " + id), nil
}

func (s *Server) handleSetLayerVisibility(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("layerId", "")
	visible := req.GetBool("visible", true)
	err := s.drawings.Do(func(ed *editor.Editor) error {
		if visible {
			return ed.ShowLayer(id)
		}
		return ed.HideLayer(id)
	})
	if err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Layer visibility set to %v", visible)), nil
}

func (s *Server) handleRemoveLayer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("layerId", "")
	target := id
	if target == "" {
		s.drawings.Do(func(ed *editor.Editor) error {
			target = ed.ActiveLayerID()
			return nil
		})
	}
	if err := s.approval.Request(ctx, "remove_layer", "Remove layer "+target+" and its shapes"); err != nil {
		return nil, err
	}

	var active string
	err := s.drawings.Do(func(ed *editor.Editor) error {
		if err := ed.RemoveLayer(id); err != nil {
			return err
		}
		active = ed.ActiveLayerID()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return textResult("Layer removed; active layer is " + active), nil
}

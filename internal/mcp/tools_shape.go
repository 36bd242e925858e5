package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"drawr/internal/domain"
	"drawr/internal/editor"
	"drawr/internal/scene"
	"drawr/internal/shape"
)

func (s *Server) registerShapeTools() {
	styleOpts := []mcp.ToolOption{
		mcp.WithString("fill", mcp.Description("Fill color (optional, e.g. #00D2FF or red)")),
		mcp.WithString("stroke", mcp.Description("Stroke color (optional)")),
		mcp.WithNumber("strokeWidth", mcp.Description("Stroke width (optional)")),
	}

	s.mcp.AddTool(mcp.NewTool("draw_rectangle", append([]mcp.ToolOption{
		mcp.WithDescription("Draw a rectangle on the active layer with a press-drag-release gesture"),
		mcp.WithNumber("x", mcp.Description("X of the press point"), mcp.Required()),
		mcp.WithNumber("y", mcp.Description("Y of the press point"), mcp.Required()),
		mcp.WithNumber("width", mcp.Description("Drag distance on X (may be negative)"), mcp.Required()),
		mcp.WithNumber("height", mcp.Description("Drag distance on Y (may be negative)"), mcp.Required()),
	}, styleOpts...)...), s.handleDrawRectangle)

	s.mcp.AddTool(mcp.NewTool("draw_line", append([]mcp.ToolOption{
		mcp.WithDescription("Draw a free polyline through the given points on the active layer"),
		mcp.WithString("points", mcp.Description("Coordinates as \"x1,y1,x2,y2,...\" or a JSON array (at least 2 points)"), mcp.Required()),
	}, styleOpts...)...), s.handleDrawLine)

	s.mcp.AddTool(mcp.NewTool("draw_polygon", append([]mcp.ToolOption{
		mcp.WithDescription("Draw a closed polygon by clicking each vertex, then pressing the commit key"),
		mcp.WithString("points", mcp.Description("Vertices as \"x1,y1,x2,y2,...\" or a JSON array (at least 3 points)"), mcp.Required()),
	}, styleOpts...)...), s.handleDrawPolygon)

	s.mcp.AddTool(mcp.NewTool("add_shapes",
		mcp.WithDescription("Append shapes to the active layer. Pass a JSON array of shape objects [{type, x?, y?, width?, height?, points?, closed?, fill, stroke, strokeWidth}, ...]. type is RECTANGLE, LINE or POLYGON."),
		mcp.WithString("shapes", mcp.Description("JSON array of shape objects"), mcp.Required()),
		mcp.WithBoolean("replace", mcp.Description("Clear the layer first (default false)")),
	), s.handleAddShapes)

	s.mcp.AddTool(mcp.NewTool("list_shapes",
		mcp.WithDescription("List the shapes of the active layer with their IDs, geometry, style and selection state"),
	), s.handleListShapes)

	s.mcp.AddTool(mcp.NewTool("select_shapes",
		mcp.WithDescription("Switch to selection mode and select exactly the given shapes (empty clears the selection)"),
		mcp.WithString("ids", mcp.Description("Comma-separated shape IDs")),
	), s.handleSelectShapes)

	s.mcp.AddTool(mcp.NewTool("delete_shapes",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete shapes from the active layer. Without ids, deletes the current selection. Requires user approval."),
		mcp.WithString("ids", mcp.Description("Comma-separated shape IDs (optional)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteShapes)

	s.mcp.AddTool(mcp.NewTool("update_shapes", append([]mcp.ToolOption{
		mcp.WithDescription("Change the style of shapes on the active layer. Without ids, updates the current selection."),
		mcp.WithString("ids", mcp.Description("Comma-separated shape IDs (optional)")),
	}, styleOpts...)...), s.handleUpdateShapes)

	s.mcp.AddTool(mcp.NewTool("set_style", append([]mcp.ToolOption{
		mcp.WithDescription("Set the style applied to shapes drawn from now on"),
	}, styleOpts...)...), s.handleSetStyle)

	s.mcp.AddTool(mcp.NewTool("set_tool",
		mcp.WithDescription("Arm a drawing tool (RECTANGLE, LINE, POLYGON) or switch to SELECT or DRAG mode"),
		mcp.WithString("tool", mcp.Description("RECTANGLE, LINE, POLYGON, SELECT or DRAG"), mcp.Required()),
	), s.handleSetTool)

	s.mcp.AddTool(mcp.NewTool("clear_layer",
		mcp.WithDescription("🛑 DESTRUCTIVE: Remove every shape from the active layer. Requires user approval."),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleClearLayer)
}

// ── Shape helpers ───────────────────────────────────────────

type shapeView struct {
	ID       string `json:"id"`
	Selected bool   `json:"selected"`
	domain.ShapeData
}

func viewOf(sh *shape.Shape) shapeView {
	return shapeView{ID: sh.ID(), Selected: sh.Selected(), ShapeData: sh.ToData()}
}

func viewsOf(shapes []*shape.Shape) []shapeView {
	out := make([]shapeView, 0, len(shapes))
	for _, sh := range shapes {
		out = append(out, viewOf(sh))
	}
	return out
}

// stylePatch collects the optional style arguments.
func stylePatch(args map[string]any) domain.StylePatch {
	var p domain.StylePatch
	if v, ok := args["fill"].(string); ok {
		p.Fill = &v
	}
	if v, ok := args["stroke"].(string); ok {
		p.Stroke = &v
	}
	if v, ok := args["strokeWidth"].(float64); ok {
		p.StrokeWidth = &v
	}
	return p
}

// gesture arms tool with the requested style, feeds input into the stage and
// returns the shape it produced. The previous mode and style are restored.
func (s *Server) gesture(args map[string]any, tool domain.ShapeType, input func(st *scene.Stage, commitKey string)) (*shapeView, error) {
	var view *shapeView
	err := s.drawings.Do(func(ed *editor.Editor) error {
		prevStyle := ed.Style()
		prevMode := ed.Mode()
		style := stylePatch(args).Apply(prevStyle)
		ed.ChangeFill(style.Fill)
		ed.ChangeStroke(style.Stroke)
		ed.ChangeStrokeWidth(style.StrokeWidth)
		defer func() {
			ed.ChangeFill(prevStyle.Fill)
			ed.ChangeStroke(prevStyle.Stroke)
			ed.ChangeStrokeWidth(prevStyle.StrokeWidth)
			if err := ed.SetMode(prevMode); err != nil {
				s.log.WithError(err).Warn("restore editor mode")
			}
		}()

		if err := ed.ChangeTool(tool); err != nil {
			return err
		}
		before := make(map[string]bool)
		for _, sh := range ed.Shapes() {
			before[sh.ID()] = true
		}
		input(ed.Stage(), ed.CommitKey())

		for _, sh := range ed.Shapes() {
			if !before[sh.ID()] {
				v := viewOf(sh)
				view = &v
			}
		}
		if view == nil {
			return fmt.Errorf("no %s was created", tool)
		}
		return nil
	})
	return view, err
}

// ── Handlers ────────────────────────────────────────────────

func (s *Server) handleDrawRectangle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	x, _ := args["x"].(float64)
	y, _ := args["y"].(float64)
	w, _ := args["width"].(float64)
	h, _ := args["height"].(float64)

	view, err := s.gesture(args, domain.ShapeRectangle, func(st *scene.Stage, _ string) {
		st.PointerDown(x, y, scene.Modifiers{})
		st.PointerMove(x+w, y+h, scene.Modifiers{})
		st.PointerUp(x+w, y+h, scene.Modifiers{})
	})
	if err != nil {
		return nil, err
	}
	return jsonResult(view)
}

func (s *Server) handleDrawLine(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	pts, err := parsePoints(req.GetString("points", ""), 2)
	if err != nil {
		return nil, err
	}

	view, err := s.gesture(args, domain.ShapeLine, func(st *scene.Stage, _ string) {
		st.PointerDown(pts[0], pts[1], scene.Modifiers{})
		for i := 2; i < len(pts); i += 2 {
			st.PointerMove(pts[i], pts[i+1], scene.Modifiers{})
		}
		n := len(pts)
		st.PointerUp(pts[n-2], pts[n-1], scene.Modifiers{})
	})
	if err != nil {
		return nil, err
	}
	return jsonResult(view)
}

func (s *Server) handleDrawPolygon(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	pts, err := parsePoints(req.GetString("points", ""), 3)
	if err != nil {
		return nil, err
	}

	view, err := s.gesture(args, domain.ShapePolygon, func(st *scene.Stage, commitKey string) {
		for i := 0; i < len(pts); i += 2 {
			st.PointerDown(pts[i], pts[i+1], scene.Modifiers{})
			st.PointerUp(pts[i], pts[i+1], scene.Modifiers{})
		}
		st.KeyDown(commitKey, scene.Modifiers{})
	})
	if err != nil {
		return nil, err
	}
	return jsonResult(view)
}

func (s *Server) handleAddShapes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var data []domain.ShapeData
	if err := parseJSON(req.GetString("shapes", ""), &data); err != nil {
		return nil, fmt.Errorf("parse shapes: %w", err)
	}
	replace := req.GetBool("replace", false)

	var added []shapeView
	err := s.drawings.Do(func(ed *editor.Editor) error {
		before := len(ed.Shapes())
		if replace {
			before = 0
			if err := ed.ClearAndImport(data); err != nil {
				return err
			}
		} else if err := ed.Import(data); err != nil {
			return err
		}
		added = viewsOf(ed.Shapes()[before:])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return jsonResult(added)
}

func (s *Server) handleListShapes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var views []shapeView
	s.drawings.Do(func(ed *editor.Editor) error {
		views = viewsOf(ed.Shapes())
		return nil
	})
	return jsonResult(views)
}

func (s *Server) handleSelectShapes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := parseIDs(req.GetString("ids", ""))
	var selected []shapeView
	err := s.drawings.Do(func(ed *editor.Editor) error {
		if err := ed.EnableSelection(); err != nil {
			return err
		}
		shapes, err := ed.Select(ids...)
		if err != nil {
			return err
		}
		selected = viewsOf(shapes)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return jsonResult(selected)
}

func (s *Server) handleDeleteShapes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := parseIDs(req.GetString("ids", ""))

	// Resolve the targets first so the approval prompt can name them.
	var target []string
	err := s.drawings.Do(func(ed *editor.Editor) error {
		if len(ids) == 0 {
			for _, sh := range ed.Selected() {
				target = append(target, sh.ID())
			}
			return nil
		}
		known := make(map[string]bool)
		for _, sh := range ed.Shapes() {
			known[sh.ID()] = true
		}
		for _, id := range ids {
			if !known[id] {
				return fmt.Errorf("unknown shape id %s: %w", id, domain.ErrNotFound)
			}
		}
		target = ids
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(target) == 0 {
		return textResult("Nothing selected to delete"), nil
	}

	meta, _ := json.Marshal(map[string]any{"shapeIds": target})
	if err := s.approval.Request(ctx, "delete_shapes",
		fmt.Sprintf("Delete %d shape(s): %s", len(target), strings.Join(target, ", ")), string(meta)); err != nil {
		return nil, err
	}

	var deleted int
	err = s.drawings.Do(func(ed *editor.Editor) error {
		shapes, err := ed.Select(target...)
		if err != nil {
			return err
		}
		deleted = len(shapes)
		return ed.DeleteSelected()
	})
	if err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Deleted %d shape(s)", deleted)), nil
}

func (s *Server) handleUpdateShapes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	patch := stylePatch(args)
	if patch.IsEmpty() {
		return nil, fmt.Errorf("nothing to update: pass fill, stroke or strokeWidth")
	}
	ids := parseIDs(req.GetString("ids", ""))

	var updated []shapeView
	err := s.drawings.Do(func(ed *editor.Editor) error {
		target := ids
		if len(target) == 0 {
			for _, sh := range ed.Selected() {
				target = append(target, sh.ID())
			}
		}
		if err := ed.UpdateShapeConfig(patch, target...); err != nil {
			return err
		}
		want := make(map[string]bool, len(target))
		for _, id := range target {
			want[id] = true
		}
		for _, sh := range ed.Shapes() {
			if want[sh.ID()] {
				updated = append(updated, viewOf(sh))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return jsonResult(updated)
}

func (s *Server) handleSetStyle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	patch := stylePatch(req.GetArguments())
	var style domain.ShapeConfig
	s.drawings.Do(func(ed *editor.Editor) error {
		style = patch.Apply(ed.Style())
		ed.ChangeFill(style.Fill)
		ed.ChangeStroke(style.Stroke)
		ed.ChangeStrokeWidth(style.StrokeWidth)
		return nil
	})
	return jsonResult(style)
}

func (s *Server) handleSetTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tool := strings.ToUpper(strings.TrimSpace(req.GetString("tool", "")))
	err := s.drawings.Do(func(ed *editor.Editor) error {
		switch tool {
		case "SELECT":
			return ed.EnableSelection()
		case "DRAG":
			return ed.EnableDrag()
		}
		t, err := domain.ParseShapeType(tool)
		if err != nil {
			return err
		}
		return ed.ChangeTool(t)
	})
	if err != nil {
		return nil, err
	}
	return textResult("Active tool: " + tool), nil
}

func (s *Server) handleClearLayer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var layerID string
	var count int
	s.drawings.Do(func(ed *editor.Editor) error {
		layerID = ed.ActiveLayerID()
		count = len(ed.Shapes())
		return nil
	})
	if err := s.approval.Request(ctx, "clear_layer",
		fmt.Sprintf("Remove all %d shape(s) from layer %s", count, layerID)); err != nil {
		return nil, err
	}

	err := s.drawings.Do(func(ed *editor.Editor) error {
		layerID = ed.ActiveLayerID()
		return ed.Clear()
	})
	if err != nil {
		return nil, err
	}
	return textResult("Cleared layer " + layerID), nil
}

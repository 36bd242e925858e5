package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("sketch_diagram",
		mcp.WithPromptDescription("Guide through sketching a box-and-line diagram on the canvas"),
		mcp.WithArgument("subject",
			mcp.ArgumentDescription("What the diagram shows"),
			mcp.RequiredArgument(),
		),
	), s.handleSketchDiagramPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("floor_plan",
		mcp.WithPromptDescription("Lay out rooms as polygons, one layer per floor"),
		mcp.WithArgument("floors",
			mcp.ArgumentDescription("Number of floors"),
			mcp.RequiredArgument(),
		),
	), s.handleFloorPlanPrompt)
}

func (s *Server) handleSketchDiagramPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	subject := req.Params.Arguments["subject"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Sketch a diagram of %s", subject),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Sketch a diagram of "%s" on the canvas. Follow these steps:

1. Use new_drawing to start a drawing named after the subject
2. Draw one rectangle per component with draw_rectangle, leaving at least 40px between boxes
3. Connect related components with draw_line
4. Use update_shapes to color groups of related boxes the same fill
5. Call render_png to check the result, then save_drawing

Keep the layout inside the canvas and align boxes on a grid.`, subject),
				},
			},
		},
	}, nil
}

func (s *Server) handleFloorPlanPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	floors := req.Params.Arguments["floors"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Lay out a %s-floor plan", floors),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Lay out a floor plan with %s floor(s). Follow these steps:

1. For each floor, use add_layer and then draw every room with draw_polygon
2. Hide all floors except the one you are working on with set_layer_visibility
3. Use list_layers to confirm every floor has its rooms
4. Save with save_drawing`, floors),
				},
			},
		},
	}, nil
}

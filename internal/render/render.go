// Package render rasterizes a scene stage with the gg software renderer.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"strings"
	"sync"

	"github.com/gogpu/gg"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/colornames"

	"drawr/internal/logging"
	"drawr/internal/scene"
)

// SelectionColor outlines the transform-handle bounds.
const SelectionColor = "#00a1ff"

var ggLoggerOnce sync.Once

// Renderer paints stages to images. It holds no per-stage state.
type Renderer struct {
	log        *logrus.Entry
	background color.Color
}

// New returns a renderer on a white background. At debug level the rasterizer's
// own diagnostics are routed into log.
func New(log *logrus.Entry) *Renderer {
	if log == nil {
		log = logging.Component(nil, "Renderer")
	}
	if log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		ggLoggerOnce.Do(func() { gg.SetLogger(logging.Slog(log)) })
	}
	return &Renderer{log: log, background: color.White}
}

// Render paints every visible layer bottom to top, then the selection bounds.
func (r *Renderer) Render(stage *scene.Stage) (image.Image, error) {
	dc, err := r.paint(stage)
	if err != nil {
		return nil, err
	}
	defer dc.Close()
	return dc.Image(), nil
}

// EncodePNG renders the stage and writes it as PNG.
func (r *Renderer) EncodePNG(w io.Writer, stage *scene.Stage) error {
	dc, err := r.paint(stage)
	if err != nil {
		return err
	}
	defer dc.Close()
	return dc.EncodePNG(w)
}

func (r *Renderer) paint(stage *scene.Stage) (*gg.Context, error) {
	w, h := int(stage.Width()), int(stage.Height())
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("render: invalid stage size %dx%d", w, h)
	}
	dc := gg.NewContext(w, h)
	dc.ClearWithColor(gg.FromColor(r.background))

	var errs []error
	for _, l := range stage.Layers() {
		if !l.Visible() {
			continue
		}
		for _, s := range l.Children() {
			if !s.Visible() {
				continue
			}
			if err := r.drawShape(dc, s); err != nil {
				errs = append(errs, fmt.Errorf("draw %s: %w", s.ID(), err))
			}
		}
		for _, t := range l.Transformers() {
			if err := r.drawTransformer(dc, t); err != nil {
				errs = append(errs, fmt.Errorf("draw %s: %w", t.Name(), err))
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		dc.Close()
		return nil, err
	}
	r.log.Debugf("rendered %dx%d", w, h)
	return dc, nil
}

func (r *Renderer) drawShape(dc *gg.Context, s scene.Shape) error {
	var closed bool
	trace := func() {}
	switch n := s.(type) {
	case *scene.Rect:
		b := n.Box()
		closed = true
		trace = func() { dc.DrawRectangle(b.X, b.Y, b.Width, b.Height) }
	case *scene.Line:
		pts := n.Points()
		if len(pts) < 4 {
			return nil
		}
		closed = n.Closed()
		trace = func() {
			dc.MoveTo(pts[0], pts[1])
			for i := 2; i+1 < len(pts); i += 2 {
				dc.LineTo(pts[i], pts[i+1])
			}
			if closed {
				dc.ClosePath()
			}
		}
	default:
		return nil
	}

	if fill, ok := ParseColor(s.Fill()); ok && closed {
		dc.SetColor(fill)
		trace()
		if err := dc.Fill(); err != nil {
			return err
		}
	}
	if stroke, ok := ParseColor(s.Stroke()); ok && s.StrokeWidth() > 0 {
		dc.SetColor(stroke)
		dc.SetLineWidth(s.StrokeWidth())
		trace()
		if err := dc.Stroke(); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) drawTransformer(dc *gg.Context, t *scene.Transformer) error {
	b, ok := t.Bounds()
	if !ok {
		return nil
	}
	dc.SetHexColor(SelectionColor)
	dc.SetLineWidth(1)
	dc.SetDash(4, 4)
	defer dc.ClearDash()
	dc.DrawRectangle(b.X, b.Y, b.Width, b.Height)
	return dc.Stroke()
}

// ParseColor understands "#rgb", "#rrggbb", "#rrggbbaa" and CSS color names.
// ok is false for empty, "transparent" and unknown values.
func ParseColor(s string) (color.Color, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch {
	case s == "" || s == "transparent" || s == "none":
		return nil, false
	case strings.HasPrefix(s, "#"):
		switch len(s) {
		case 4, 5, 7, 9:
			return gg.Hex(s).Color(), true
		}
		return nil, false
	}
	c, ok := colornames.Map[s]
	if !ok {
		return nil, false
	}
	return c, true
}

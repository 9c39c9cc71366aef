package pane

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/golang/freetype/truetype"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Canvas wraps a raster graphic context over a pane's pixel buffer. All
// colors are hex strings ("#rrggbb" or "rrggbb") so callers outside this
// package need no go-chart types.
type Canvas struct {
	img  *image.RGBA
	gc   *drawing.RasterGraphicContext
	font *truetype.Font
	w, h float64
}

func newCanvas(img *image.RGBA) (*Canvas, error) {
	gc, err := drawing.NewRasterGraphicContext(img)
	if err != nil {
		return nil, err
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	return &Canvas{
		img:  img,
		gc:   gc,
		font: font,
		w:    float64(b.Dx()),
		h:    float64(b.Dy()),
	}, nil
}

func parseColor(hex string, alpha uint8) drawing.Color {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	c := drawing.ColorFromHex(hex)
	if c.IsZero() {
		c = drawing.ColorBlack
	}
	if alpha < 255 {
		c = c.WithAlpha(alpha)
	}
	return c
}

// Size returns the full pixel dimensions of the canvas.
func (c *Canvas) Size() (float64, float64) { return c.w, c.h }

// Fill paints the whole buffer with a solid color.
func (c *Canvas) Fill(colorHex string) {
	col := parseColor(colorHex, 255)
	draw.Draw(c.img, c.img.Bounds(), &image.Uniform{C: color.RGBA{R: col.R, G: col.G, B: col.B, A: col.A}}, image.Point{}, draw.Src)
}

// Line strokes a straight segment.
func (c *Canvas) Line(x1, y1, x2, y2 float64, colorHex string, width float64) {
	c.gc.SetStrokeColor(parseColor(colorHex, 255))
	c.gc.SetLineWidth(width)
	c.gc.SetLineDash(nil, 0)
	c.gc.MoveTo(x1, y1)
	c.gc.LineTo(x2, y2)
	c.gc.Stroke()
}

// DashedLine strokes a dashed segment.
func (c *Canvas) DashedLine(x1, y1, x2, y2 float64, colorHex string, width float64) {
	c.gc.SetStrokeColor(parseColor(colorHex, 255))
	c.gc.SetLineWidth(width)
	c.gc.SetLineDash([]float64{4, 3}, 0)
	c.gc.MoveTo(x1, y1)
	c.gc.LineTo(x2, y2)
	c.gc.Stroke()
	c.gc.SetLineDash(nil, 0)
}

// Polyline strokes connected segments through the given points.
func (c *Canvas) Polyline(xs, ys []float64, colorHex string, width float64) {
	if len(xs) < 2 || len(xs) != len(ys) {
		return
	}
	c.gc.SetStrokeColor(parseColor(colorHex, 255))
	c.gc.SetLineWidth(width)
	c.gc.SetLineDash(nil, 0)
	c.gc.MoveTo(xs[0], ys[0])
	for i := 1; i < len(xs); i++ {
		c.gc.LineTo(xs[i], ys[i])
	}
	c.gc.Stroke()
}

// FillRect fills an axis-aligned rectangle; alpha below 255 blends.
func (c *Canvas) FillRect(x1, y1, x2, y2 float64, colorHex string, alpha uint8) {
	c.gc.SetFillColor(parseColor(colorHex, alpha))
	c.gc.MoveTo(x1, y1)
	c.gc.LineTo(x2, y1)
	c.gc.LineTo(x2, y2)
	c.gc.LineTo(x1, y2)
	c.gc.Close()
	c.gc.Fill()
}

// StrokeRect outlines an axis-aligned rectangle.
func (c *Canvas) StrokeRect(x1, y1, x2, y2 float64, colorHex string, width float64) {
	c.gc.SetStrokeColor(parseColor(colorHex, 255))
	c.gc.SetLineWidth(width)
	c.gc.SetLineDash(nil, 0)
	c.gc.MoveTo(x1, y1)
	c.gc.LineTo(x2, y1)
	c.gc.LineTo(x2, y2)
	c.gc.LineTo(x1, y2)
	c.gc.Close()
	c.gc.Stroke()
}

// FillQuad fills an arbitrary quadrilateral (used for channel fills and
// shaded bands).
func (c *Canvas) FillQuad(xs, ys [4]float64, colorHex string, alpha uint8) {
	c.gc.SetFillColor(parseColor(colorHex, alpha))
	c.gc.MoveTo(xs[0], ys[0])
	for i := 1; i < 4; i++ {
		c.gc.LineTo(xs[i], ys[i])
	}
	c.gc.Close()
	c.gc.Fill()
}

// Text renders a label with its baseline at (x, y).
func (c *Canvas) Text(s string, x, y, size float64, colorHex string) {
	c.gc.SetFont(c.font)
	c.gc.SetFontSize(size)
	c.gc.SetFillColor(parseColor(colorHex, 255))
	_, _ = c.gc.FillStringAt(s, x, y)
}

// Marker paints a small square centered at (x, y). Degenerate geometry
// (zero-length lines) renders through this so it stays visible.
func (c *Canvas) Marker(x, y float64, colorHex string) {
	c.FillRect(x-1, y-1, x+2, y+2, colorHex, 255)
}

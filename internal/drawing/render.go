package drawing

import (
	"fmt"
	"math"

	"github.com/stockpeek/chartcore/internal/chartspace"
)

// Surface is the pixel output a renderer draws onto. pane.Canvas satisfies
// it; tests use a recording fake.
type Surface interface {
	Size() (float64, float64)
	Line(x1, y1, x2, y2 float64, colorHex string, width float64)
	DashedLine(x1, y1, x2, y2 float64, colorHex string, width float64)
	FillRect(x1, y1, x2, y2 float64, colorHex string, alpha uint8)
	StrokeRect(x1, y1, x2, y2 float64, colorHex string, width float64)
	FillQuad(xs, ys [4]float64, colorHex string, alpha uint8)
	Text(s string, x, y, size float64, colorHex string)
	Marker(x, y float64, colorHex string)
}

const (
	lineWidth     = 1.5
	emphasisWidth = 2.5
	labelSize     = 10
	bandAlpha     = 40
	rectAlpha     = 30
	channelAlpha  = 25
	// Pixel separation below which a two-anchor shape collapses to a marker.
	degenerateEps = 1.0
)

// Render paints the annotations for one pane. Objects whose anchors cannot
// be projected with the current transform are skipped for this frame. The
// selected object additionally gets anchor handles.
func Render(s Surface, t chartspace.Transform, objects []Object, selectedID string) {
	for _, obj := range objects {
		pts, ok := projectPoints(obj, t)
		if !ok {
			continue
		}
		renderObject(s, t, obj, pts)
		if obj.ID != "" && obj.ID == selectedID {
			for _, p := range pts {
				s.Marker(p.X, p.Y, obj.Color)
			}
		}
	}
}

func projectPoints(obj Object, t chartspace.Transform) ([]chartspace.Point, bool) {
	pts := make([]chartspace.Point, len(obj.Points))
	for i, cp := range obj.Points {
		p, ok := t.ChartToPixel(cp)
		if !ok {
			return nil, false
		}
		pts[i] = p
	}
	return pts, true
}

func renderObject(s Surface, t chartspace.Transform, obj Object, pts []chartspace.Point) {
	switch obj.Kind {
	case KindSegment:
		renderSegment(s, obj, pts)
	case KindTrendline:
		renderExtended(s, obj, pts, true)
	case KindRay:
		renderExtended(s, obj, pts, false)
	case KindHorizontal:
		w, _ := s.Size()
		s.Line(0, pts[0].Y, w, pts[0].Y, obj.Color, lineWidth)
		s.Text(fmt.Sprintf("%.2f", obj.Points[0].Price), 4, pts[0].Y-3, labelSize, obj.Color)
	case KindVertical:
		_, h := s.Size()
		s.Line(pts[0].X, 0, pts[0].X, h, obj.Color, lineWidth)
	case KindChannel:
		renderChannel(s, t, obj, pts)
	case KindFibonacci:
		renderLevels(s, obj, pts, fibLevels, -1)
	case KindGolden:
		renderLevels(s, obj, pts, goldenLevels, 0.618)
	case KindRectangle:
		s.FillRect(pts[0].X, pts[0].Y, pts[1].X, pts[1].Y, obj.Color, rectAlpha)
		s.StrokeRect(pts[0].X, pts[0].Y, pts[1].X, pts[1].Y, obj.Color, lineWidth)
	case KindText:
		s.Text(obj.Text, pts[0].X, pts[0].Y, labelSize+2, obj.Color)
	}
}

func degenerate(a, b chartspace.Point) bool {
	return math.Hypot(b.X-a.X, b.Y-a.Y) < degenerateEps
}

func renderSegment(s Surface, obj Object, pts []chartspace.Point) {
	if degenerate(pts[0], pts[1]) {
		s.Marker(pts[0].X, pts[0].Y, obj.Color)
		return
	}
	s.Line(pts[0].X, pts[0].Y, pts[1].X, pts[1].Y, obj.Color, lineWidth)
}

// renderExtended draws a line through both anchors extended to the surface
// edges; both directions for a trendline, forward only for a ray.
func renderExtended(s Surface, obj Object, pts []chartspace.Point, both bool) {
	if degenerate(pts[0], pts[1]) {
		s.Marker(pts[0].X, pts[0].Y, obj.Color)
		return
	}
	w, h := s.Size()
	tMin := 0.0
	if both {
		tMin = math.Inf(-1)
	}
	x0, y0, x1, y1, ok := clipParamLine(pts[0].X, pts[0].Y, pts[1].X-pts[0].X, pts[1].Y-pts[0].Y, w, h, tMin, math.Inf(1))
	if !ok {
		return
	}
	s.Line(x0, y0, x1, y1, obj.Color, lineWidth)
}

// clipParamLine clips the parametric line a + t*d against the rectangle
// [0,w]x[0,h] over the parameter interval [tMin, tMax] (Liang-Barsky).
func clipParamLine(ax, ay, dx, dy, w, h, tMin, tMax float64) (x0, y0, x1, y1 float64, ok bool) {
	clip := func(p, q float64) bool {
		if p == 0 {
			return q >= 0
		}
		t := q / p
		if p < 0 {
			if t > tMax {
				return false
			}
			if t > tMin {
				tMin = t
			}
		} else {
			if t < tMin {
				return false
			}
			if t < tMax {
				tMax = t
			}
		}
		return true
	}
	if !clip(-dx, ax) || !clip(dx, w-ax) || !clip(-dy, ay) || !clip(dy, h-ay) {
		return 0, 0, 0, 0, false
	}
	if math.IsInf(tMin, 0) || math.IsInf(tMax, 0) || tMin > tMax {
		return 0, 0, 0, 0, false
	}
	return ax + tMin*dx, ay + tMin*dy, ax + tMax*dx, ay + tMax*dy, true
}

// renderChannel draws the baseline, the parallel line at the chart-space
// price offset, and a translucent fill between them.
func renderChannel(s Surface, t chartspace.Transform, obj Object, pts []chartspace.Point) {
	if degenerate(pts[0], pts[1]) {
		s.Marker(pts[0].X, pts[0].Y, obj.Color)
		return
	}
	ox0, oy0, ox1, oy1, ok := channelOffsetSegment(obj, t)
	if !ok {
		s.Line(pts[0].X, pts[0].Y, pts[1].X, pts[1].Y, obj.Color, lineWidth)
		return
	}
	s.FillQuad(
		[4]float64{pts[0].X, pts[1].X, ox1, ox0},
		[4]float64{pts[0].Y, pts[1].Y, oy1, oy0},
		obj.Color, channelAlpha,
	)
	s.Line(pts[0].X, pts[0].Y, pts[1].X, pts[1].Y, obj.Color, lineWidth)
	s.Line(ox0, oy0, ox1, oy1, obj.Color, lineWidth)
}

// renderLevels draws retracement levels between the two anchors. Each level
// interpolates the price span and is labelled with its percentage and
// price. A level equal to emphasize is drawn heavier, and for the golden
// set the 0.382-0.618 band is shaded.
func renderLevels(s Surface, obj Object, pts []chartspace.Point, levels []float64, emphasize float64) {
	if degenerate(pts[0], pts[1]) {
		s.Marker(pts[0].X, pts[0].Y, obj.Color)
		return
	}
	x0 := math.Min(pts[0].X, pts[1].X)
	x1 := math.Max(pts[0].X, pts[1].X)

	// Level 0 sits at the first anchor's price, level 1 at the second's.
	p0, p1 := obj.Points[0].Price, obj.Points[1].Price
	y0, y1 := pts[0].Y, pts[1].Y

	yAt := func(level float64) float64 { return y0 + (y1-y0)*level }

	if emphasize > 0 {
		s.FillRect(x0, yAt(0.382), x1, yAt(0.618), obj.Color, bandAlpha)
	}
	for _, level := range levels {
		y := yAt(level)
		width := lineWidth
		if level == emphasize {
			width = emphasisWidth
		}
		s.Line(x0, y, x1, y, obj.Color, width)
		price := p0 + (p1-p0)*level
		s.Text(fmt.Sprintf("%.1f%% %.2f", level*100, price), x1+4, y+3, labelSize, obj.Color)
	}
}

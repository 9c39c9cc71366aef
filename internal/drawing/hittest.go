package drawing

import (
	"math"

	"github.com/stockpeek/chartcore/internal/chartspace"
)

const (
	// hitThreshold is the pixel proximity for line-like selection.
	hitThreshold = 10.0
	// boxMargin expands containment boxes slightly outward.
	boxMargin = 4.0
	// Approximate glyph cell used for text hit boxes.
	textCharWidth = 8.0
	textHeight    = 14.0
)

// pointSegmentDistance returns the perpendicular distance from (px, py) to
// the segment a-b, with the projection parameter clamped to [0, 1]. A
// degenerate segment degrades to point distance.
func pointSegmentDistance(px, py, ax, ay, bx, by float64) float64 {
	dx := bx - ax
	dy := by - ay
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(px-ax, py-ay)
	}
	t := ((px-ax)*dx + (py-ay)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	cx := ax + t*dx
	cy := ay + t*dy
	return math.Hypot(px-cx, py-cy)
}

// hit applies the per-kind proximity rule in pixel space using the pane's
// current transform. Objects whose anchors cannot be projected (transform
// not ready) are never hit.
func hit(obj Object, t chartspace.Transform, x, y float64) bool {
	pts := make([]chartspace.Point, len(obj.Points))
	for i, cp := range obj.Points {
		px, ok := t.ChartToPixel(cp)
		if !ok {
			return false
		}
		pts[i] = px
	}

	switch obj.Kind {
	case KindTrendline, KindSegment, KindRay:
		return pointSegmentDistance(x, y, pts[0].X, pts[0].Y, pts[1].X, pts[1].Y) <= hitThreshold
	case KindHorizontal:
		return math.Abs(y-pts[0].Y) <= hitThreshold
	case KindVertical:
		return math.Abs(x-pts[0].X) <= hitThreshold
	case KindChannel:
		if pointSegmentDistance(x, y, pts[0].X, pts[0].Y, pts[1].X, pts[1].Y) <= hitThreshold {
			return true
		}
		ox0, oy0, ox1, oy1, ok := channelOffsetSegment(obj, t)
		if !ok {
			return false
		}
		return pointSegmentDistance(x, y, ox0, oy0, ox1, oy1) <= hitThreshold
	case KindRectangle, KindFibonacci, KindGolden:
		minX := math.Min(pts[0].X, pts[1].X) - boxMargin
		maxX := math.Max(pts[0].X, pts[1].X) + boxMargin
		minY := math.Min(pts[0].Y, pts[1].Y) - boxMargin
		maxY := math.Max(pts[0].Y, pts[1].Y) + boxMargin
		return x >= minX && x <= maxX && y >= minY && y <= maxY
	case KindText:
		w := float64(len(obj.Text)) * textCharWidth
		return x >= pts[0].X-boxMargin && x <= pts[0].X+w+boxMargin &&
			y >= pts[0].Y-textHeight-boxMargin && y <= pts[0].Y+boxMargin
	}
	return false
}

// channelOffsetPrice returns the constant chart-space price offset between
// the channel's offset anchor and its baseline interpolated at the anchor's
// index. This quantity is zoom-invariant.
func channelOffsetPrice(obj Object) float64 {
	p0, p1, p2 := obj.Points[0], obj.Points[1], obj.Points[2]
	if p1.Index == p0.Index {
		return p2.Price - p0.Price
	}
	slope := (p1.Price - p0.Price) / (p1.Index - p0.Index)
	baseAtAnchor := p0.Price + slope*(p2.Index-p0.Index)
	return p2.Price - baseAtAnchor
}

// channelOffsetSegment projects the channel's parallel line (the baseline
// shifted by the chart-space price offset) into pixels.
func channelOffsetSegment(obj Object, t chartspace.Transform) (x0, y0, x1, y1 float64, ok bool) {
	dp := channelOffsetPrice(obj)
	a, okA := t.ChartToPixel(chartspace.ChartPoint{Index: obj.Points[0].Index, Price: obj.Points[0].Price + dp})
	b, okB := t.ChartToPixel(chartspace.ChartPoint{Index: obj.Points[1].Index, Price: obj.Points[1].Price + dp})
	if !okA || !okB {
		return 0, 0, 0, 0, false
	}
	return a.X, a.Y, b.X, b.Y, true
}

package chartspace

// Transform maps between pixel space and chart space for one pane at one
// instant. It is a pure value: panes rebuild it on every redraw from their
// current size, visible range, and price scale.
type Transform struct {
	PlotWidth  float64
	PlotHeight float64
	Range      LogicalRange
	PriceMin   float64
	PriceMax   float64
}

// Ready reports whether the pane's scales are established. Conversions on a
// transform that is not ready fail; callers retry on the next frame.
func (t Transform) Ready() bool {
	return t.PlotWidth > 0 && t.PlotHeight > 0 && t.Range.Valid() && t.PriceMax > t.PriceMin
}

// BarSpacing returns pixels per logical index unit at the current zoom.
func (t Transform) BarSpacing() float64 {
	if !t.Range.Valid() {
		return 0
	}
	return t.PlotWidth / t.Range.Width()
}

// ChartToPixel converts a chart-space point to pane pixels. The second
// return value is false when the transform is not ready or the point is not
// representable; it never panics.
func (t Transform) ChartToPixel(p ChartPoint) (Point, bool) {
	if !t.Ready() || !isFinite(p.Index) || !isFinite(p.Price) {
		return Point{}, false
	}
	x := (p.Index - t.Range.From) * t.BarSpacing()
	y := (t.PriceMax - p.Price) / (t.PriceMax - t.PriceMin) * t.PlotHeight
	if !isFinite(x) || !isFinite(y) {
		return Point{}, false
	}
	return Point{X: x, Y: y}, true
}

// PixelToChart converts pane pixels back to chart space. Same failure
// contract as ChartToPixel.
func (t Transform) PixelToChart(px Point) (ChartPoint, bool) {
	if !t.Ready() || !isFinite(px.X) || !isFinite(px.Y) {
		return ChartPoint{}, false
	}
	idx := t.Range.From + px.X/t.BarSpacing()
	price := t.PriceMax - px.Y/t.PlotHeight*(t.PriceMax-t.PriceMin)
	if !isFinite(idx) || !isFinite(price) {
		return ChartPoint{}, false
	}
	return ChartPoint{Index: idx, Price: price}, true
}

// Package chartspace defines the chart-space coordinate model shared by all
// panes: real-valued logical indices into the bar series on the x axis and
// price on the y axis. Annotations are stored exclusively in chart space so
// pan/zoom/resize never require recomputing their geometry.
package chartspace

import "math"

// LogicalRange is the visible window expressed in fractional bar indices.
// Both bounds may extend slightly beyond [0, length) to allow margins.
type LogicalRange struct {
	From float64 `json:"from"`
	To   float64 `json:"to"`
}

// Valid reports whether the range is non-empty and finite.
func (r LogicalRange) Valid() bool {
	return isFinite(r.From) && isFinite(r.To) && r.From < r.To
}

// Width returns the window width in bars.
func (r LogicalRange) Width() float64 {
	return r.To - r.From
}

// ChartPoint is a position in chart space. This is the only representation
// ever persisted for an annotation vertex.
type ChartPoint struct {
	Index float64 `json:"index"`
	Price float64 `json:"price"`
}

// Point is a pixel position inside a pane's plot area.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Package drawing owns the persisted annotation objects and the interaction
// state machine that creates, selects, and deletes them. All geometry is
// stored in chart space; pixel positions are re-derived from the pane's
// transform on every redraw.
package drawing

import (
	"time"

	"github.com/stockpeek/chartcore/internal/chartspace"
)

// Kind identifies an annotation type. The number of anchor points is fixed
// per kind.
type Kind string

const (
	KindTrendline  Kind = "trendline"
	KindSegment    Kind = "segment"
	KindRay        Kind = "ray"
	KindHorizontal Kind = "horizontal"
	KindVertical   Kind = "vertical"
	KindChannel    Kind = "channel"
	KindFibonacci  Kind = "fibonacci"
	KindGolden     Kind = "golden"
	KindRectangle  Kind = "rectangle"
	KindText       Kind = "text"
)

var pointCounts = map[Kind]int{
	KindTrendline:  2,
	KindSegment:    2,
	KindRay:        2,
	KindHorizontal: 1,
	KindVertical:   1,
	KindChannel:    3,
	KindFibonacci:  2,
	KindGolden:     2,
	KindRectangle:  2,
	KindText:       1,
}

// Valid reports whether the kind is known.
func (k Kind) Valid() bool {
	_, ok := pointCounts[k]
	return ok
}

// PointCount returns the fixed anchor count for the kind (0 if unknown).
func (k Kind) PointCount() int { return pointCounts[k] }

// Object is one persisted annotation. Points are chart-space only.
type Object struct {
	ID        string                  `json:"id"`
	PaneID    string                  `json:"pane_id"`
	Kind      Kind                    `json:"kind"`
	Points    []chartspace.ChartPoint `json:"points"`
	Color     string                  `json:"color"`
	Text      string                  `json:"text,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
}

// Fibonacci retracement levels, labeled as percentages when rendered.
var fibLevels = []float64{0, 0.236, 0.382, 0.5, 0.618, 0.786, 1}

// Golden-ratio levels; 0.618 is emphasized and the 0.382–0.618 band shaded.
var goldenLevels = []float64{0, 0.382, 0.5, 0.618, 1}

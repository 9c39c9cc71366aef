// Package pane implements one independently rendered chart viewport. A pane
// owns its pixel buffer and its own price scale; the logical-index axis is
// shared with sibling panes through the synchronizer.
package pane

import (
	"image"
	"log/slog"
	"math"

	"github.com/stockpeek/chartcore/internal/chartspace"
	"github.com/stockpeek/chartcore/internal/series"
)

// Kind selects what a pane renders from the series.
type Kind int

const (
	KindPrice Kind = iota
	KindVolume
	KindIndicator
)

// RangeListener receives range-change notifications tagged with the
// originating pane's id. The synchronizer is the only subscriber.
type RangeListener func(originID string, r chartspace.LogicalRange)

// Pane is one rendering viewport bound to a subset of the series' fields.
type Pane struct {
	id          string
	kind        Kind
	series      *series.Series
	indicator   string // indicator pane only: "macd", "rsi" or "kdj"
	width       int
	height      int
	axisReserve int

	rng      chartspace.LogicalRange
	hasRange bool
	listener RangeListener

	img   *image.RGBA
	dirty bool
}

// New creates an unmeasured pane. It stays unready (a no-op target for
// range operations) until SetSize establishes pixel dimensions.
func New(id string, kind Kind, s *series.Series, axisReserve int) *Pane {
	p := &Pane{id: id, kind: kind, series: s, axisReserve: axisReserve}
	if kind == KindIndicator {
		p.indicator = "macd"
	}
	return p
}

// ID returns the pane's registry key.
func (p *Pane) ID() string { return p.id }

// Kind returns what the pane renders.
func (p *Pane) Kind() Kind { return p.kind }

// SetSize establishes (or changes) the pane's pixel dimensions.
func (p *Pane) SetSize(width, height int) {
	if width == p.width && height == p.height {
		return
	}
	p.width = width
	p.height = height
	p.img = nil
	p.dirty = true
}

// Size returns the pane's pixel dimensions.
func (p *Pane) Size() (int, int) { return p.width, p.height }

// AxisReserve returns the price-axis gutter width in pixels.
func (p *Pane) AxisReserve() int { return p.axisReserve }

// Ready reports whether the pane has been measured and holds a valid range.
func (p *Pane) Ready() bool {
	return p.width > p.axisReserve && p.height > 0 && p.hasRange && p.rng.Valid()
}

// Range returns the current visible logical range.
func (p *Pane) Range() (chartspace.LogicalRange, bool) {
	return p.rng, p.hasRange
}

// SetRange applies a new visible range and emits a notification tagged with
// this pane's id. The synchronizer suppresses re-emission during its
// propagation pass, so a set terminates in exactly one hop.
func (p *Pane) SetRange(r chartspace.LogicalRange) {
	if !r.Valid() {
		slog.Warn("pane range rejected", "pane", p.id, "from", r.From, "to", r.To)
		return
	}
	p.rng = r
	p.hasRange = true
	p.dirty = true
	if p.listener != nil {
		p.listener(p.id, r)
	}
}

// Subscribe wires the range listener; Unsubscribe detaches it.
func (p *Pane) Subscribe(l RangeListener) { p.listener = l }

// Unsubscribe detaches the range listener.
func (p *Pane) Unsubscribe() { p.listener = nil }

// SetIndicator switches the indicator pane's displayed set.
func (p *Pane) SetIndicator(name string) {
	if p.kind != KindIndicator || name == p.indicator {
		return
	}
	p.indicator = name
	p.dirty = true
}

// Indicator returns the indicator pane's active set name.
func (p *Pane) Indicator() string { return p.indicator }

// MarkDirty forces the next Redraw to repaint.
func (p *Pane) MarkDirty() { p.dirty = true }

// Transform builds the pane's current pixel<->chart mapping. The zero
// Transform (never Ready) is returned while the pane is unmeasured, the
// range is unset, or no data falls inside the window.
func (p *Pane) Transform() chartspace.Transform {
	if !p.Ready() {
		return chartspace.Transform{}
	}
	lo, hi, ok := p.valueBounds()
	if !ok {
		return chartspace.Transform{}
	}
	return chartspace.Transform{
		PlotWidth:  float64(p.width - p.axisReserve),
		PlotHeight: float64(p.height),
		Range:      p.rng,
		PriceMin:   lo,
		PriceMax:   hi,
	}
}

// visibleBars returns the inclusive integer index window intersecting data.
func (p *Pane) visibleBars() (int, int, bool) {
	i0 := int(math.Floor(p.rng.From))
	i1 := int(math.Ceil(p.rng.To))
	if i0 < 0 {
		i0 = 0
	}
	if last := p.series.LastIndex(); i1 > last {
		i1 = last
	}
	if i0 > i1 {
		return 0, 0, false
	}
	return i0, i1, true
}

func (p *Pane) valueBounds() (float64, float64, bool) {
	i0, i1, ok := p.visibleBars()
	if !ok {
		return 0, 0, false
	}

	lo := math.Inf(1)
	hi := math.Inf(-1)
	consider := func(v float64) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	switch p.kind {
	case KindPrice:
		for i := i0; i <= i1; i++ {
			b, _ := p.series.Bar(i)
			consider(b.Low)
			consider(b.High)
		}
	case KindVolume:
		lo = 0
		for i := i0; i <= i1; i++ {
			b, _ := p.series.Bar(i)
			consider(b.Volume)
		}
	case KindIndicator:
		for _, name := range indicatorColumns(p.indicator) {
			col, ok := p.series.Indicator(name)
			if !ok {
				continue
			}
			from := p.series.ValidFrom(name)
			for i := i0; i <= i1; i++ {
				if i < from {
					continue
				}
				consider(col[i])
			}
		}
		if p.indicator == "macd" {
			consider(0) // keep the zero line on screen
		}
	}

	if math.IsInf(lo, 1) || math.IsInf(hi, -1) {
		return 0, 0, false
	}
	if hi == lo {
		hi = lo + 1
		lo = lo - 1
	}
	pad := (hi - lo) * 0.04
	if p.kind == KindVolume {
		return 0, hi + pad, true
	}
	return lo - pad, hi + pad, true
}

// Redraw repaints the pixel buffer when dirty. The overlay callback, if
// non-nil, runs after the base layers with the same transform (the drawing
// engine paints annotations through it).
func (p *Pane) Redraw(overlay func(c *Canvas, t chartspace.Transform)) {
	if !p.dirty {
		return
	}
	if p.width <= 0 || p.height <= 0 {
		return
	}
	if p.img == nil {
		p.img = image.NewRGBA(image.Rect(0, 0, p.width, p.height))
	}
	c, err := newCanvas(p.img)
	if err != nil {
		slog.Warn("pane canvas unavailable", "pane", p.id, "error", err)
		return
	}
	c.Fill(colorBackground)

	t := p.Transform()
	if t.Ready() {
		p.renderBase(c, t)
		if overlay != nil {
			overlay(c, t)
		}
		p.renderAxis(c, t)
	}
	p.dirty = false
}

// Image returns the pane's raster buffer; nil until first successful Redraw.
func (p *Pane) Image() *image.RGBA { return p.img }

package pane

import (
	"fmt"
	"math"

	"github.com/stockpeek/chartcore/internal/chartspace"
)

// Taiwan market convention: red for up, green for down.
const (
	colorBackground = "#ffffff"
	colorGrid       = "#eef1f5"
	colorAxis       = "#c8ced6"
	colorAxisText   = "#5b6672"
	colorUp         = "#ef232a"
	colorDown       = "#14b143"

	colorMA5  = "#f5a623"
	colorMA10 = "#2f7ed8"
	colorMA20 = "#9b59b6"

	colorMACD   = "#2f7ed8"
	colorSignal = "#f5a623"
	colorKDJK   = "#2f7ed8"
	colorKDJD   = "#f5a623"
	colorKDJJ   = "#c2185b"
)

// indicatorColumns maps an indicator pane set to its series columns.
func indicatorColumns(name string) []string {
	switch name {
	case "macd":
		return []string{"macd", "macd_signal", "macd_hist"}
	case "rsi":
		return []string{"rsi14"}
	case "kdj":
		return []string{"kdj_k", "kdj_d", "kdj_j"}
	default:
		return nil
	}
}

// IndicatorValid reports whether a set name is renderable.
func IndicatorValid(name string) bool {
	return len(indicatorColumns(name)) > 0
}

func (p *Pane) renderBase(c *Canvas, t chartspace.Transform) {
	p.renderGrid(c, t)
	switch p.kind {
	case KindPrice:
		p.renderCandles(c, t)
		p.renderOverlayLine(c, t, "ma5", colorMA5)
		p.renderOverlayLine(c, t, "ma10", colorMA10)
		p.renderOverlayLine(c, t, "ma20", colorMA20)
	case KindVolume:
		p.renderVolume(c, t)
		p.renderOverlayLine(c, t, "vol_ma5", colorMA5)
		p.renderOverlayLine(c, t, "vol_ma10", colorMA10)
	case KindIndicator:
		p.renderIndicator(c, t)
	}
}

func (p *Pane) renderGrid(c *Canvas, t chartspace.Transform) {
	for i := 1; i < 4; i++ {
		y := t.PlotHeight * float64(i) / 4
		c.Line(0, y, t.PlotWidth, y, colorGrid, 1)
	}
}

// barX returns the pixel center of integer bar index i.
func barX(t chartspace.Transform, i int) float64 {
	px, _ := t.ChartToPixel(chartspace.ChartPoint{Index: float64(i), Price: t.PriceMin})
	return px.X + t.BarSpacing()/2
}

func priceY(t chartspace.Transform, v float64) float64 {
	px, _ := t.ChartToPixel(chartspace.ChartPoint{Index: t.Range.From, Price: v})
	return px.Y
}

func (p *Pane) renderCandles(c *Canvas, t chartspace.Transform) {
	i0, i1, ok := p.visibleBars()
	if !ok {
		return
	}
	half := math.Max(t.BarSpacing()*0.35, 0.5)
	for i := i0; i <= i1; i++ {
		b, _ := p.series.Bar(i)
		col := colorUp
		if b.Close < b.Open {
			col = colorDown
		}
		x := barX(t, i)
		c.Line(x, priceY(t, b.High), x, priceY(t, b.Low), col, 1)
		top := priceY(t, math.Max(b.Open, b.Close))
		bot := priceY(t, math.Min(b.Open, b.Close))
		if bot-top < 1 {
			bot = top + 1 // flat bar still paints at least 1px
		}
		c.FillRect(x-half, top, x+half, bot, col, 255)
	}
}

func (p *Pane) renderVolume(c *Canvas, t chartspace.Transform) {
	i0, i1, ok := p.visibleBars()
	if !ok {
		return
	}
	half := math.Max(t.BarSpacing()*0.35, 0.5)
	base := priceY(t, 0)
	for i := i0; i <= i1; i++ {
		b, _ := p.series.Bar(i)
		col := colorUp
		if b.Close < b.Open {
			col = colorDown
		}
		top := priceY(t, b.Volume)
		if base-top < 1 {
			top = base - 1
		}
		x := barX(t, i)
		c.FillRect(x-half, top, x+half, base, col, 255)
	}
}

// renderOverlayLine plots an indicator column as a polyline, skipping the
// warm-up region.
func (p *Pane) renderOverlayLine(c *Canvas, t chartspace.Transform, name, col string) {
	values, ok := p.series.Indicator(name)
	if !ok {
		return
	}
	i0, i1, vis := p.visibleBars()
	if !vis {
		return
	}
	from := p.series.ValidFrom(name)
	if i0 < from {
		i0 = from
	}
	var xs, ys []float64
	for i := i0; i <= i1; i++ {
		xs = append(xs, barX(t, i))
		ys = append(ys, priceY(t, values[i]))
	}
	c.Polyline(xs, ys, col, 1.2)
}

func (p *Pane) renderIndicator(c *Canvas, t chartspace.Transform) {
	switch p.indicator {
	case "macd":
		p.renderMACDHist(c, t)
		c.DashedLine(0, priceY(t, 0), t.PlotWidth, priceY(t, 0), colorAxis, 1)
		p.renderOverlayLine(c, t, "macd", colorMACD)
		p.renderOverlayLine(c, t, "macd_signal", colorSignal)
	case "rsi":
		c.DashedLine(0, priceY(t, 30), t.PlotWidth, priceY(t, 30), colorAxis, 1)
		c.DashedLine(0, priceY(t, 70), t.PlotWidth, priceY(t, 70), colorAxis, 1)
		p.renderOverlayLine(c, t, "rsi14", colorMACD)
	case "kdj":
		p.renderOverlayLine(c, t, "kdj_k", colorKDJK)
		p.renderOverlayLine(c, t, "kdj_d", colorKDJD)
		p.renderOverlayLine(c, t, "kdj_j", colorKDJJ)
	}
}

func (p *Pane) renderMACDHist(c *Canvas, t chartspace.Transform) {
	hist, ok := p.series.Indicator("macd_hist")
	if !ok {
		return
	}
	i0, i1, vis := p.visibleBars()
	if !vis {
		return
	}
	if from := p.series.ValidFrom("macd_hist"); i0 < from {
		i0 = from
	}
	zero := priceY(t, 0)
	half := math.Max(t.BarSpacing()*0.25, 0.5)
	for i := i0; i <= i1; i++ {
		x := barX(t, i)
		y := priceY(t, hist[i])
		if hist[i] >= 0 {
			c.FillRect(x-half, y, x+half, zero, colorUp, 255)
		} else {
			c.FillRect(x-half, zero, x+half, y, colorDown, 255)
		}
	}
}

func (p *Pane) renderAxis(c *Canvas, t chartspace.Transform) {
	c.Line(t.PlotWidth, 0, t.PlotWidth, t.PlotHeight, colorAxis, 1)
	for i := 0; i <= 4; i++ {
		frac := float64(i) / 4
		v := t.PriceMax - (t.PriceMax-t.PriceMin)*frac
		y := t.PlotHeight * frac
		label := formatAxisValue(v)
		c.Text(label, t.PlotWidth+4, math.Min(math.Max(y+4, 10), t.PlotHeight-2), 9, colorAxisText)
	}
}

func formatAxisValue(v float64) string {
	// Default font has no CJK glyphs, so volume suffixes stay latin.
	av := math.Abs(v)
	switch {
	case av >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case av >= 1e4:
		return fmt.Sprintf("%.1fK", v/1e3)
	case av >= 100:
		return fmt.Sprintf("%.1f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

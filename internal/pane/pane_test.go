package pane

import (
	"fmt"
	"testing"

	"github.com/stockpeek/chartcore/internal/chartspace"
	"github.com/stockpeek/chartcore/internal/series"
)

func testSeries(t *testing.T, n int) *series.Series {
	t.Helper()
	bars := make([]series.Bar, 0, n)
	for i := 0; i < n; i++ {
		price := 100 + float64(i%9)
		bars = append(bars, series.Bar{
			Date:   fmt.Sprintf("2024-%02d-%02d", i/28+1, i%28+1),
			Open:   price - 0.5,
			High:   price + 1.5,
			Low:    price - 1.5,
			Close:  price + 0.5,
			Volume: 1000 + float64(i),
		})
	}
	s, err := series.New("2330", bars)
	if err != nil {
		t.Fatalf("series.New() error = %v", err)
	}
	return s
}

func TestUnmeasuredPaneNotReady(t *testing.T) {
	p := New("price", KindPrice, testSeries(t, 60), 50)
	if p.Ready() {
		t.Fatal("unmeasured pane reports ready")
	}
	if tr := p.Transform(); tr.Ready() {
		t.Fatal("unmeasured pane produced a ready transform")
	}

	p.SetSize(1000, 400)
	if p.Ready() {
		t.Fatal("pane without a range reports ready")
	}
	p.SetRange(chartspace.LogicalRange{From: 0, To: 50})
	if !p.Ready() {
		t.Fatal("measured pane with range not ready")
	}
	if tr := p.Transform(); !tr.Ready() {
		t.Fatal("ready pane produced unready transform")
	}
}

func TestSetRangeRejectsInvalid(t *testing.T) {
	p := New("price", KindPrice, testSeries(t, 60), 50)
	p.SetSize(1000, 400)
	p.SetRange(chartspace.LogicalRange{From: 40, To: 10})
	if _, ok := p.Range(); ok {
		t.Fatal("invalid range was stored")
	}
}

func TestSetRangeNotifiesWithOrigin(t *testing.T) {
	p := New("volume", KindVolume, testSeries(t, 60), 50)
	p.SetSize(1000, 120)

	var gotID string
	var gotRange chartspace.LogicalRange
	p.Subscribe(func(id string, r chartspace.LogicalRange) {
		gotID = id
		gotRange = r
	})
	want := chartspace.LogicalRange{From: 5, To: 45}
	p.SetRange(want)
	if gotID != "volume" || gotRange != want {
		t.Fatalf("listener got (%q, %+v), want (volume, %+v)", gotID, gotRange, want)
	}
}

func TestTransformPriceBoundsCoverVisibleBars(t *testing.T) {
	s := testSeries(t, 60)
	p := New("price", KindPrice, s, 50)
	p.SetSize(1000, 400)
	p.SetRange(chartspace.LogicalRange{From: 10, To: 30})

	tr := p.Transform()
	for i := 10; i < 30; i++ {
		b, _ := s.Bar(i)
		if b.Low < tr.PriceMin || b.High > tr.PriceMax {
			t.Fatalf("bar %d (low=%v high=%v) outside scale [%v, %v]", i, b.Low, b.High, tr.PriceMin, tr.PriceMax)
		}
	}
}

func TestTransformUnreadyWhenRangeBeyondData(t *testing.T) {
	p := New("price", KindPrice, testSeries(t, 60), 50)
	p.SetSize(1000, 400)
	p.SetRange(chartspace.LogicalRange{From: 200, To: 250})
	if tr := p.Transform(); tr.Ready() {
		t.Fatal("transform ready with no visible data")
	}
}

func TestRedrawHonorsDirtyFlag(t *testing.T) {
	p := New("price", KindPrice, testSeries(t, 60), 50)
	p.SetSize(400, 200)
	p.SetRange(chartspace.LogicalRange{From: 0, To: 50})

	calls := 0
	overlay := func(c *Canvas, tr chartspace.Transform) { calls++ }

	p.Redraw(overlay)
	if calls != 1 {
		t.Fatalf("overlay calls = %d, want 1", calls)
	}
	if p.Image() == nil {
		t.Fatal("Image() nil after Redraw")
	}

	// Clean pane: Redraw must be a no-op.
	p.Redraw(overlay)
	if calls != 1 {
		t.Fatalf("overlay calls after clean redraw = %d, want 1", calls)
	}

	p.MarkDirty()
	p.Redraw(overlay)
	if calls != 2 {
		t.Fatalf("overlay calls after MarkDirty = %d, want 2", calls)
	}
}

func TestRedrawPaintsCandles(t *testing.T) {
	p := New("price", KindPrice, testSeries(t, 60), 50)
	p.SetSize(400, 200)
	p.SetRange(chartspace.LogicalRange{From: 0, To: 50})
	p.Redraw(nil)

	img := p.Image()
	if img == nil {
		t.Fatal("Image() nil")
	}
	colored := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			if r != g || g != bl {
				colored++
			}
		}
	}
	if colored == 0 {
		t.Fatal("no colored pixels after candle render")
	}
}

func TestIndicatorSwitch(t *testing.T) {
	p := New("indicator", KindIndicator, testSeries(t, 60), 50)
	p.SetSize(400, 150)
	p.SetRange(chartspace.LogicalRange{From: 30, To: 55})
	p.Redraw(nil)

	p.SetIndicator("kdj")
	if p.Indicator() != "kdj" {
		t.Fatalf("Indicator() = %q, want kdj", p.Indicator())
	}
	if !IndicatorValid("rsi") || IndicatorValid("bogus") {
		t.Fatal("IndicatorValid misclassified a set name")
	}

	// Switching marks the pane dirty.
	calls := 0
	p.Redraw(func(c *Canvas, tr chartspace.Transform) { calls++ })
	if calls != 1 {
		t.Fatalf("redraw after indicator switch did not repaint (calls=%d)", calls)
	}
}

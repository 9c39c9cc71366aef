package chartspace

import (
	"math"
	"testing"
)

func readyTransform() Transform {
	return Transform{
		PlotWidth:  950,
		PlotHeight: 400,
		Range:      LogicalRange{From: 10, To: 60},
		PriceMin:   20,
		PriceMax:   120,
	}
}

func TestRoundTripWithinEpsilon(t *testing.T) {
	tr := readyTransform()
	pixels := []Point{
		{X: 0, Y: 0},
		{X: 950, Y: 400},
		{X: 475, Y: 200},
		{X: 13.7, Y: 391.2},
	}
	for _, px := range pixels {
		cp, ok := tr.PixelToChart(px)
		if !ok {
			t.Fatalf("PixelToChart(%+v) not ok", px)
		}
		back, ok := tr.ChartToPixel(cp)
		if !ok {
			t.Fatalf("ChartToPixel(%+v) not ok", cp)
		}
		if math.Abs(back.X-px.X) > 1e-9 || math.Abs(back.Y-px.Y) > 1e-9 {
			t.Fatalf("round trip %+v -> %+v -> %+v", px, cp, back)
		}
	}
}

func TestNotReadyTransformFails(t *testing.T) {
	cases := []Transform{
		{},
		{PlotWidth: 100, PlotHeight: 100, Range: LogicalRange{From: 5, To: 5}, PriceMin: 0, PriceMax: 1},
		{PlotWidth: 100, PlotHeight: 100, Range: LogicalRange{From: 0, To: 50}, PriceMin: 1, PriceMax: 1},
		{PlotWidth: 0, PlotHeight: 100, Range: LogicalRange{From: 0, To: 50}, PriceMin: 0, PriceMax: 1},
	}
	for i, tr := range cases {
		if _, ok := tr.PixelToChart(Point{X: 10, Y: 10}); ok {
			t.Fatalf("case %d: PixelToChart ok on unready transform", i)
		}
		if _, ok := tr.ChartToPixel(ChartPoint{Index: 1, Price: 1}); ok {
			t.Fatalf("case %d: ChartToPixel ok on unready transform", i)
		}
	}
}

func TestNonFiniteInputsRejected(t *testing.T) {
	tr := readyTransform()
	if _, ok := tr.ChartToPixel(ChartPoint{Index: math.NaN(), Price: 50}); ok {
		t.Fatal("ChartToPixel accepted NaN index")
	}
	if _, ok := tr.PixelToChart(Point{X: math.Inf(1), Y: 0}); ok {
		t.Fatal("PixelToChart accepted infinite x")
	}
}

func TestBarSpacing(t *testing.T) {
	tr := readyTransform()
	if got, want := tr.BarSpacing(), 950.0/50.0; math.Abs(got-want) > 1e-12 {
		t.Fatalf("BarSpacing() = %v, want %v", got, want)
	}
}

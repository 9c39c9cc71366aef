package drawing

import (
	"math"
	"testing"

	"github.com/stockpeek/chartcore/internal/chartspace"
)

type surfaceOp struct {
	name  string
	args  []float64
	text  string
	width float64
}

// fakeSurface records drawing calls for assertion.
type fakeSurface struct {
	w, h float64
	ops  []surfaceOp
}

func (f *fakeSurface) Size() (float64, float64) { return f.w, f.h }

func (f *fakeSurface) Line(x1, y1, x2, y2 float64, _ string, w float64) {
	f.ops = append(f.ops, surfaceOp{name: "line", args: []float64{x1, y1, x2, y2}, width: w})
}

func (f *fakeSurface) DashedLine(x1, y1, x2, y2 float64, _ string, w float64) {
	f.ops = append(f.ops, surfaceOp{name: "dashed", args: []float64{x1, y1, x2, y2}, width: w})
}

func (f *fakeSurface) FillRect(x1, y1, x2, y2 float64, _ string, _ uint8) {
	f.ops = append(f.ops, surfaceOp{name: "fillrect", args: []float64{x1, y1, x2, y2}})
}

func (f *fakeSurface) StrokeRect(x1, y1, x2, y2 float64, _ string, w float64) {
	f.ops = append(f.ops, surfaceOp{name: "strokerect", args: []float64{x1, y1, x2, y2}, width: w})
}

func (f *fakeSurface) FillQuad(xs, ys [4]float64, _ string, _ uint8) {
	f.ops = append(f.ops, surfaceOp{name: "fillquad", args: []float64{xs[0], ys[0], xs[1], ys[1], xs[2], ys[2], xs[3], ys[3]}})
}

func (f *fakeSurface) Text(s string, x, y, _ float64, _ string) {
	f.ops = append(f.ops, surfaceOp{name: "text", args: []float64{x, y}, text: s})
}

func (f *fakeSurface) Marker(x, y float64, _ string) {
	f.ops = append(f.ops, surfaceOp{name: "marker", args: []float64{x, y}})
}

func (f *fakeSurface) count(name string) int {
	n := 0
	for _, op := range f.ops {
		if op.name == name {
			n++
		}
	}
	return n
}

func (f *fakeSurface) first(name string) (surfaceOp, bool) {
	for _, op := range f.ops {
		if op.name == name {
			return op, true
		}
	}
	return surfaceOp{}, false
}

func renderOne(obj Object) *fakeSurface {
	s := &fakeSurface{w: 100, h: 100}
	Render(s, testTransform(), []Object{obj}, "")
	return s
}

func TestSegmentRendersBetweenAnchors(t *testing.T) {
	s := renderOne(Object{Kind: KindSegment, Points: []chartspace.ChartPoint{pt(10, 10), pt(40, 40)}})
	op, ok := s.first("line")
	if !ok {
		t.Fatal("segment drew no line")
	}
	want := []float64{10, 90, 40, 60}
	for i, v := range want {
		if math.Abs(op.args[i]-v) > 1e-9 {
			t.Fatalf("segment line = %v, want %v", op.args, want)
		}
	}
}

func TestDegenerateShapesRenderMarker(t *testing.T) {
	kinds := []Kind{KindSegment, KindTrendline, KindRay, KindFibonacci, KindGolden}
	for _, k := range kinds {
		s := renderOne(Object{Kind: k, Points: []chartspace.ChartPoint{pt(25, 25), pt(25, 25)}})
		if s.count("marker") != 1 {
			t.Fatalf("%s: markers = %d, want 1", k, s.count("marker"))
		}
		if s.count("line") != 0 {
			t.Fatalf("%s: degenerate shape drew %d lines", k, s.count("line"))
		}
	}
}

func TestTrendlineExtendsToBothEdges(t *testing.T) {
	// Diagonal through (20,80) and (40,60) in pixels; slope -1 crosses
	// x=0 at y=100 and y=0 at x=100.
	s := renderOne(Object{Kind: KindTrendline, Points: []chartspace.ChartPoint{pt(20, 20), pt(40, 40)}})
	op, ok := s.first("line")
	if !ok {
		t.Fatal("trendline drew no line")
	}
	want := []float64{0, 100, 100, 0}
	for i, v := range want {
		if math.Abs(op.args[i]-v) > 1e-9 {
			t.Fatalf("trendline = %v, want %v", op.args, want)
		}
	}
}

func TestRayExtendsForwardOnly(t *testing.T) {
	s := renderOne(Object{Kind: KindRay, Points: []chartspace.ChartPoint{pt(20, 20), pt(40, 40)}})
	op, ok := s.first("line")
	if !ok {
		t.Fatal("ray drew no line")
	}
	// Starts at the first anchor (20,80), ends at the far edge.
	want := []float64{20, 80, 100, 0}
	for i, v := range want {
		if math.Abs(op.args[i]-v) > 1e-9 {
			t.Fatalf("ray = %v, want %v", op.args, want)
		}
	}
}

func TestHorizontalSpansFullWidth(t *testing.T) {
	s := renderOne(Object{Kind: KindHorizontal, Points: []chartspace.ChartPoint{pt(50, 30)}})
	op, ok := s.first("line")
	if !ok {
		t.Fatal("horizontal drew no line")
	}
	if op.args[0] != 0 || op.args[2] != 100 || op.args[1] != 70 || op.args[3] != 70 {
		t.Fatalf("horizontal = %v, want full width at y=70", op.args)
	}
	if lbl, ok := s.first("text"); !ok || lbl.text != "30.00" {
		t.Fatalf("horizontal label = %q, want \"30.00\"", lbl.text)
	}
}

func TestFibonacciLevelsAndLabels(t *testing.T) {
	s := renderOne(Object{Kind: KindFibonacci, Points: []chartspace.ChartPoint{pt(20, 20), pt(60, 80)}})
	if got := s.count("line"); got != len(fibLevels) {
		t.Fatalf("fib lines = %d, want %d", got, len(fibLevels))
	}
	if got := s.count("text"); got != len(fibLevels) {
		t.Fatalf("fib labels = %d, want %d", got, len(fibLevels))
	}
	// The 61.8% level interpolates price 20 + 0.618*60 = 57.08.
	found := false
	for _, op := range s.ops {
		if op.name == "text" && op.text == "61.8% 57.08" {
			found = true
		}
	}
	if !found {
		t.Fatal("fib 61.8% label missing or misinterpolated")
	}
	if s.count("fillrect") != 0 {
		t.Fatal("fibonacci drew a shaded band")
	}
}

func TestGoldenEmphasisAndBand(t *testing.T) {
	s := renderOne(Object{Kind: KindGolden, Points: []chartspace.ChartPoint{pt(20, 20), pt(60, 80)}})
	if got := s.count("line"); got != len(goldenLevels) {
		t.Fatalf("golden lines = %d, want %d", got, len(goldenLevels))
	}
	if s.count("fillrect") != 1 {
		t.Fatalf("golden band fills = %d, want 1", s.count("fillrect"))
	}
	heavy := 0
	for _, op := range s.ops {
		if op.name == "line" && op.width > lineWidth {
			heavy++
		}
	}
	if heavy != 1 {
		t.Fatalf("emphasized golden lines = %d, want 1", heavy)
	}
}

func TestChannelRendersBothLinesAndFill(t *testing.T) {
	s := renderOne(Object{
		Kind:   KindChannel,
		Points: []chartspace.ChartPoint{pt(10, 10), pt(30, 30), pt(20, 35)},
	})
	if got := s.count("line"); got != 2 {
		t.Fatalf("channel lines = %d, want 2", got)
	}
	if s.count("fillquad") != 1 {
		t.Fatalf("channel fills = %d, want 1", s.count("fillquad"))
	}
}

func TestRectangleFillAndStroke(t *testing.T) {
	s := renderOne(Object{Kind: KindRectangle, Points: []chartspace.ChartPoint{pt(20, 20), pt(60, 60)}})
	if s.count("fillrect") != 1 || s.count("strokerect") != 1 {
		t.Fatalf("rectangle ops = fill %d stroke %d, want 1 each", s.count("fillrect"), s.count("strokerect"))
	}
}

func TestSelectedObjectGetsAnchorHandles(t *testing.T) {
	obj := Object{ID: "sel-1", Kind: KindSegment, Points: []chartspace.ChartPoint{pt(10, 10), pt(40, 40)}}
	s := &fakeSurface{w: 100, h: 100}
	Render(s, testTransform(), []Object{obj}, "sel-1")
	if got := s.count("marker"); got != 2 {
		t.Fatalf("anchor handles = %d, want 2", got)
	}
}

func TestUnprojectableObjectSkipped(t *testing.T) {
	s := &fakeSurface{w: 100, h: 100}
	obj := Object{Kind: KindSegment, Points: []chartspace.ChartPoint{pt(10, 10), pt(40, math.NaN())}}
	Render(s, testTransform(), []Object{obj}, "")
	if len(s.ops) != 0 {
		t.Fatalf("unprojectable object produced %d ops", len(s.ops))
	}
}

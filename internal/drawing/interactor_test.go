package drawing

import (
	"math"
	"testing"

	"github.com/stockpeek/chartcore/internal/chartspace"
)

func newTestInteractor() (*Interactor, *Store) {
	st := NewStore(nil)
	tr := testTransform()
	in := NewInteractor(st, func(paneID string) (chartspace.Transform, bool) {
		return tr, true
	})
	return in, st
}

func pointsClose(a, b []chartspace.ChartPoint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i].Index-b[i].Index) > 1e-9 || math.Abs(a[i].Price-b[i].Price) > 1e-9 {
			return false
		}
	}
	return true
}

func TestModeOffIgnoresPointer(t *testing.T) {
	in, st := newTestInteractor()
	in.Pointer("price", PointerDown, 10, 10)
	in.Pointer("price", PointerUp, 50, 50)
	if st.Len() != 0 {
		t.Fatalf("ModeOff committed %d drawings", st.Len())
	}
}

func TestSetModeRejectsUnknownKind(t *testing.T) {
	in, _ := newTestInteractor()
	if err := in.SetMode(ModeDraw, "squiggle"); err == nil {
		t.Fatal("SetMode accepted an unknown kind")
	}
	if err := in.SetMode(ModeDraw, KindSegment); err != nil {
		t.Fatalf("SetMode(segment) error = %v", err)
	}
}

func TestTwoPointDrawCommitsOnUp(t *testing.T) {
	in, st := newTestInteractor()
	in.SetMode(ModeDraw, KindSegment)

	in.Pointer("price", PointerDown, 10, 90)
	in.Pointer("price", PointerMove, 25, 80)
	obj, committed := in.Pointer("price", PointerUp, 40, 60)
	if !committed {
		t.Fatal("pointer up did not commit")
	}
	want := []chartspace.ChartPoint{pt(10, 10), pt(40, 40)}
	if !pointsClose(obj.Points, want) {
		t.Fatalf("committed points = %+v, want %+v", obj.Points, want)
	}
	if st.Len() != 1 {
		t.Fatalf("store has %d objects, want 1", st.Len())
	}
}

func TestHorizontalCommitsAtUpPosition(t *testing.T) {
	in, _ := newTestInteractor()
	in.SetMode(ModeDraw, KindHorizontal)

	in.Pointer("price", PointerDown, 20, 80)
	obj, committed := in.Pointer("price", PointerUp, 60, 30)
	if !committed {
		t.Fatal("horizontal did not commit on up")
	}
	if len(obj.Points) != 1 || math.Abs(obj.Points[0].Price-70) > 1e-9 {
		t.Fatalf("horizontal points = %+v, want price 70", obj.Points)
	}
}

func TestChannelTwoStepCommit(t *testing.T) {
	in, st := newTestInteractor()
	in.SetMode(ModeDraw, KindChannel)

	// Baseline.
	in.Pointer("price", PointerDown, 10, 90)
	if _, committed := in.Pointer("price", PointerUp, 30, 70); committed {
		t.Fatal("channel committed after baseline only")
	}
	// Offset anchor.
	in.Pointer("price", PointerDown, 20, 60)
	obj, committed := in.Pointer("price", PointerUp, 20, 60)
	if !committed {
		t.Fatal("channel did not commit after anchor step")
	}
	want := []chartspace.ChartPoint{pt(10, 10), pt(30, 30), pt(20, 40)}
	if !pointsClose(obj.Points, want) {
		t.Fatalf("channel points = %+v, want %+v", obj.Points, want)
	}
	if st.Len() != 1 {
		t.Fatalf("store has %d objects, want 1", st.Len())
	}
}

func TestLeaveCommitsMidCaptureWithLastPosition(t *testing.T) {
	in, _ := newTestInteractor()
	in.SetMode(ModeDraw, KindSegment)

	in.Pointer("price", PointerDown, 10, 90)
	in.Pointer("price", PointerMove, 45, 55)
	obj, committed := in.Pointer("price", PointerLeave, 0, 0)
	if !committed {
		t.Fatal("leave did not auto-commit mid-capture draw")
	}
	want := []chartspace.ChartPoint{pt(10, 10), pt(45, 45)}
	if !pointsClose(obj.Points, want) {
		t.Fatalf("leave-committed points = %+v, want %+v", obj.Points, want)
	}
}

func TestLeaveAbandonsChannelBaseline(t *testing.T) {
	in, st := newTestInteractor()
	in.SetMode(ModeDraw, KindChannel)

	in.Pointer("price", PointerDown, 10, 90)
	if _, committed := in.Pointer("price", PointerLeave, 0, 0); committed {
		t.Fatal("leave committed a half-drawn channel baseline")
	}
	if st.Len() != 0 {
		t.Fatalf("store has %d objects after abandon, want 0", st.Len())
	}

	// The abandoned state must not leak into the next gesture.
	in.Pointer("price", PointerDown, 10, 90)
	if _, committed := in.Pointer("price", PointerUp, 30, 70); committed {
		t.Fatal("fresh baseline committed prematurely")
	}
}

func TestChannelBaselineSurvivesLeaveBetweenSteps(t *testing.T) {
	in, _ := newTestInteractor()
	in.SetMode(ModeDraw, KindChannel)

	in.Pointer("price", PointerDown, 10, 90)
	in.Pointer("price", PointerUp, 30, 70) // baseline done
	in.Pointer("price", PointerLeave, 0, 0)

	in.Pointer("price", PointerDown, 20, 60)
	obj, committed := in.Pointer("price", PointerUp, 20, 60)
	if !committed {
		t.Fatal("channel anchor step failed after leave between steps")
	}
	if len(obj.Points) != 3 {
		t.Fatalf("channel has %d points, want 3", len(obj.Points))
	}
}

func TestTextAnchorAndConfirm(t *testing.T) {
	in, st := newTestInteractor()
	in.SetMode(ModeDraw, KindText)

	in.Pointer("price", PointerDown, 50, 50)
	if !in.TextPending() {
		t.Fatal("pointer down did not arm a text anchor")
	}
	obj, err := in.ConfirmText("support zone")
	if err != nil {
		t.Fatalf("ConfirmText() error = %v", err)
	}
	if obj.Text != "support zone" || !pointsClose(obj.Points, []chartspace.ChartPoint{pt(50, 50)}) {
		t.Fatalf("text object = %+v", obj)
	}
	if st.Len() != 1 {
		t.Fatalf("store has %d objects, want 1", st.Len())
	}
	if _, err := in.ConfirmText("again"); err == nil {
		t.Fatal("ConfirmText succeeded with no pending anchor")
	}
}

func TestLeaveDiscardsPendingText(t *testing.T) {
	in, _ := newTestInteractor()
	in.SetMode(ModeDraw, KindText)

	in.Pointer("price", PointerDown, 50, 50)
	in.Pointer("price", PointerLeave, 0, 0)
	if in.TextPending() {
		t.Fatal("leave kept the pending text anchor")
	}
	if _, err := in.ConfirmText("late"); err == nil {
		t.Fatal("ConfirmText succeeded after discard")
	}
}

func TestModeSwitchCancelsInProgress(t *testing.T) {
	in, st := newTestInteractor()
	in.SetMode(ModeDraw, KindSegment)
	in.Pointer("price", PointerDown, 10, 90)

	in.SetMode(ModeSelect, "")
	if _, committed := in.Pointer("price", PointerUp, 40, 60); committed {
		t.Fatal("up after mode switch committed the cancelled draw")
	}
	if st.Len() != 0 {
		t.Fatalf("store has %d objects, want 0", st.Len())
	}
}

func TestSelectModeHitsTopmostAndClears(t *testing.T) {
	in, st := newTestInteractor()
	obj, _ := st.Add(Object{PaneID: "price", Kind: KindHorizontal, Points: []chartspace.ChartPoint{pt(5, 50)}})
	in.SetMode(ModeSelect, "")

	in.Pointer("price", PointerDown, 50, 50)
	sel, ok := st.Selected()
	if !ok || sel.ID != obj.ID {
		t.Fatalf("selected = %v, %v; want %v", sel.ID, ok, obj.ID)
	}

	// Down far from anything clears the selection.
	in.Pointer("price", PointerDown, 50, 5)
	if _, ok := st.Selected(); ok {
		t.Fatal("selection survived a miss click")
	}
}

func TestUnmappableCommitIsDiscarded(t *testing.T) {
	st := NewStore(nil)
	ready := true
	tr := testTransform()
	in := NewInteractor(st, func(paneID string) (chartspace.Transform, bool) {
		if !ready {
			return chartspace.Transform{}, false
		}
		return tr, true
	})
	in.SetMode(ModeDraw, KindSegment)

	in.Pointer("price", PointerDown, 10, 90)
	ready = false
	if _, committed := in.Pointer("price", PointerUp, 40, 60); committed {
		t.Fatal("commit succeeded with an unmappable transform")
	}
	if st.Len() != 0 {
		t.Fatalf("store has %d objects, want 0", st.Len())
	}
}

func TestPendingPreviewTracksPointer(t *testing.T) {
	in, _ := newTestInteractor()
	in.SetMode(ModeDraw, KindSegment)

	in.Pointer("price", PointerDown, 10, 90)
	in.Pointer("price", PointerMove, 30, 70)

	obj, ok := in.Pending("price")
	if !ok {
		t.Fatal("no pending preview during drag")
	}
	want := []chartspace.ChartPoint{pt(10, 10), pt(30, 30)}
	if !pointsClose(obj.Points, want) {
		t.Fatalf("pending points = %+v, want %+v", obj.Points, want)
	}
	if _, ok := in.Pending("volume"); ok {
		t.Fatal("preview leaked to another pane")
	}
}

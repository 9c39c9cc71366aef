package drawing

import (
	"fmt"
	"log/slog"

	"github.com/stockpeek/chartcore/internal/chartspace"
)

// Mode is the interaction mode of the drawing layer.
type Mode string

const (
	// ModeOff ignores pointer events entirely.
	ModeOff Mode = "off"
	// ModeSelect hit-tests pointer-down against existing annotations.
	ModeSelect Mode = "select"
	// ModeDraw captures anchor points for the armed kind.
	ModeDraw Mode = "draw"
)

// PointerEvent is a pointer gesture phase delivered to the interactor.
type PointerEvent string

const (
	PointerDown  PointerEvent = "down"
	PointerMove  PointerEvent = "move"
	PointerUp    PointerEvent = "up"
	PointerLeave PointerEvent = "leave"
)

// TransformFunc resolves the current pixel/chart transform for a pane.
// The second result is false while the pane cannot map coordinates.
type TransformFunc func(paneID string) (chartspace.Transform, bool)

// Interactor is the drawing interaction state machine. Pointer events
// arrive in pixel coordinates; anchors are converted to chart space the
// moment they are captured so in-progress geometry survives range changes.
// Not safe for concurrent use; the engine serializes access.
type Interactor struct {
	store        *Store
	transformFor TransformFunc

	mode  Mode
	kind  Kind
	color string

	// In-progress capture.
	active     bool
	midCapture bool // pointer is down
	paneID     string
	anchors    []chartspace.ChartPoint
	step       int // channel: 0 = baseline, 1 = offset anchor

	lastX, lastY float64
	hasLast      bool

	// Pending text annotation awaiting ConfirmText.
	textPending bool
	textPoint   chartspace.ChartPoint
	textPane    string
}

// NewInteractor creates an interactor in ModeOff.
func NewInteractor(store *Store, transformFor TransformFunc) *Interactor {
	return &Interactor{
		store:        store,
		transformFor: transformFor,
		mode:         ModeOff,
	}
}

// Mode returns the current interaction mode.
func (in *Interactor) Mode() Mode { return in.mode }

// ActiveKind returns the armed drawing kind (ModeDraw only).
func (in *Interactor) ActiveKind() Kind { return in.kind }

// SetColor sets the color applied to subsequently committed annotations.
// Empty resets to the store default.
func (in *Interactor) SetColor(hex string) { in.color = hex }

// SetMode switches the interaction mode, cancelling any in-progress
// capture. ModeDraw requires a valid kind; the others ignore it.
func (in *Interactor) SetMode(mode Mode, kind Kind) error {
	switch mode {
	case ModeOff, ModeSelect:
		kind = ""
	case ModeDraw:
		if !kind.Valid() {
			return fmt.Errorf("unknown drawing kind %q", kind)
		}
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
	in.Cancel()
	in.mode = mode
	in.kind = kind
	return nil
}

// Cancel discards any in-progress capture and pending text.
func (in *Interactor) Cancel() {
	in.active = false
	in.midCapture = false
	in.paneID = ""
	in.anchors = nil
	in.step = 0
	in.hasLast = false
	in.textPending = false
}

// Pending returns the in-progress annotation for preview rendering: the
// captured anchors plus the provisional point under the pointer. The bool
// is false when nothing is being drawn.
func (in *Interactor) Pending(paneID string) (Object, bool) {
	if !in.active || in.paneID != paneID || !in.hasLast {
		return Object{}, false
	}
	tr, ok := in.transformFor(in.paneID)
	if !ok {
		return Object{}, false
	}
	cur, ok := tr.PixelToChart(chartspace.Point{X: in.lastX, Y: in.lastY})
	if !ok {
		return Object{}, false
	}
	pts := append(append([]chartspace.ChartPoint(nil), in.anchors...), cur)
	if want := in.kind.PointCount(); len(pts) > want {
		pts = pts[:want]
	}
	return Object{PaneID: in.paneID, Kind: in.kind, Points: pts, Color: in.color}, true
}

// Pointer feeds one pointer event. When the event completes an annotation
// the committed object is returned with true.
func (in *Interactor) Pointer(paneID string, ev PointerEvent, x, y float64) (Object, bool) {
	switch in.mode {
	case ModeOff:
		return Object{}, false
	case ModeSelect:
		if ev == PointerDown {
			in.selectAt(paneID, x, y)
		}
		return Object{}, false
	}

	// ModeDraw. Events from a different pane than the active capture
	// behave like a leave on the active pane.
	if in.active && paneID != in.paneID {
		return in.leave()
	}

	switch ev {
	case PointerDown:
		return in.down(paneID, x, y)
	case PointerMove:
		if in.active {
			in.lastX, in.lastY = x, y
			in.hasLast = true
		}
	case PointerUp:
		return in.up(x, y)
	case PointerLeave:
		return in.leave()
	}
	return Object{}, false
}

func (in *Interactor) selectAt(paneID string, x, y float64) {
	tr, ok := in.transformFor(paneID)
	if !ok {
		return
	}
	if obj, ok := in.store.HitTest(paneID, tr, x, y); ok {
		_ = in.store.Select(obj.ID)
		return
	}
	_ = in.store.Select("")
}

func (in *Interactor) down(paneID string, x, y float64) (Object, bool) {
	if in.kind == KindText {
		cp, ok := in.toChart(paneID, x, y)
		if !ok {
			return Object{}, false
		}
		in.textPending = true
		in.textPoint = cp
		in.textPane = paneID
		return Object{}, false
	}

	if in.active && in.kind == KindChannel && in.step == 1 {
		// Offset-anchor step: down just starts the capture.
		in.midCapture = true
		in.lastX, in.lastY = x, y
		in.hasLast = true
		return Object{}, false
	}

	cp, ok := in.toChart(paneID, x, y)
	if !ok {
		slog.Warn("drawing anchor outside mappable area", "pane", paneID, "kind", in.kind)
		return Object{}, false
	}
	in.active = true
	in.midCapture = true
	in.paneID = paneID
	in.anchors = []chartspace.ChartPoint{cp}
	in.step = 0
	in.lastX, in.lastY = x, y
	in.hasLast = true
	return Object{}, false
}

func (in *Interactor) up(x, y float64) (Object, bool) {
	if !in.active || !in.midCapture {
		return Object{}, false
	}
	in.midCapture = false
	in.lastX, in.lastY = x, y
	in.hasLast = true

	switch {
	case in.kind == KindHorizontal || in.kind == KindVertical:
		return in.commitAt(x, y, false)
	case in.kind == KindChannel && in.step == 0:
		cp, ok := in.toChart(in.paneID, x, y)
		if !ok {
			in.discard("channel baseline")
			return Object{}, false
		}
		in.anchors = append(in.anchors, cp)
		in.step = 1
		return Object{}, false
	case in.kind == KindChannel:
		return in.commitAt(x, y, true)
	default:
		return in.commitAt(x, y, true)
	}
}

// leave implements pointer-leave: mid-capture draws commit with the last
// known position, except a channel baseline still being dragged, which is
// abandoned whole. Pending text is discarded.
func (in *Interactor) leave() (Object, bool) {
	if in.textPending {
		in.textPending = false
	}
	if !in.active {
		return Object{}, false
	}
	if !in.midCapture {
		// Channel between steps: baseline stays armed.
		return Object{}, false
	}
	if in.kind == KindChannel && in.step == 0 {
		in.discard("channel baseline abandoned on leave")
		return Object{}, false
	}
	if !in.hasLast {
		in.discard("no pointer position")
		return Object{}, false
	}
	if in.kind == KindHorizontal || in.kind == KindVertical {
		return in.commitAt(in.lastX, in.lastY, false)
	}
	return in.commitAt(in.lastX, in.lastY, true)
}

// commitAt finishes the active draw with the given pixel point. appendPt
// distinguishes multi-anchor kinds (the point joins the anchors) from
// single-anchor kinds (the point replaces the down anchor).
func (in *Interactor) commitAt(x, y float64, appendPt bool) (Object, bool) {
	cp, ok := in.toChart(in.paneID, x, y)
	if !ok {
		in.discard("commit point outside mappable area")
		return Object{}, false
	}
	pts := in.anchors
	if appendPt {
		pts = append(pts, cp)
	} else {
		pts = []chartspace.ChartPoint{cp}
	}
	obj := Object{
		PaneID: in.paneID,
		Kind:   in.kind,
		Points: pts,
		Color:  in.color,
	}
	committed, err := in.store.Add(obj)
	in.resetCapture()
	if err != nil {
		slog.Warn("drawing discarded", "kind", obj.Kind, "err", err)
		return Object{}, false
	}
	return committed, true
}

// ConfirmText commits the pending text annotation. It fails when no text
// anchor is pending or the text is empty.
func (in *Interactor) ConfirmText(text string) (Object, error) {
	if !in.textPending {
		return Object{}, fmt.Errorf("no pending text anchor")
	}
	if text == "" {
		return Object{}, fmt.Errorf("text drawing requires text")
	}
	obj := Object{
		PaneID: in.textPane,
		Kind:   KindText,
		Points: []chartspace.ChartPoint{in.textPoint},
		Color:  in.color,
		Text:   text,
	}
	in.textPending = false
	return in.store.Add(obj)
}

// TextPending reports whether a text anchor awaits confirmation.
func (in *Interactor) TextPending() bool { return in.textPending }

func (in *Interactor) toChart(paneID string, x, y float64) (chartspace.ChartPoint, bool) {
	tr, ok := in.transformFor(paneID)
	if !ok {
		return chartspace.ChartPoint{}, false
	}
	return tr.PixelToChart(chartspace.Point{X: x, Y: y})
}

func (in *Interactor) discard(reason string) {
	slog.Warn("drawing discarded", "kind", in.kind, "reason", reason)
	in.resetCapture()
}

func (in *Interactor) resetCapture() {
	in.active = false
	in.midCapture = false
	in.paneID = ""
	in.anchors = nil
	in.step = 0
	in.hasLast = false
}

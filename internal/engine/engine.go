// Package engine is the single entry point for every chart operation. It
// owns the pane synchronizer, the drawing layer, and the capture pipeline,
// and serializes all access behind one mutex the way a single-threaded UI
// loop would.
package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stockpeek/chartcore/internal/capture"
	"github.com/stockpeek/chartcore/internal/chartspace"
	"github.com/stockpeek/chartcore/internal/drawing"
	"github.com/stockpeek/chartcore/internal/pane"
	"github.com/stockpeek/chartcore/internal/panesync"
	"github.com/stockpeek/chartcore/internal/relay"
	"github.com/stockpeek/chartcore/internal/series"
	"github.com/stockpeek/chartcore/internal/snapshot"
)

// PaneSpec declares one pane of the chart stack.
type PaneSpec struct {
	ID     string
	Kind   pane.Kind
	Width  int
	Height int
}

// Options configures a new Engine. Series and Panes are required; the
// stores and broker may be nil for embedded use.
type Options struct {
	Series            *series.Series
	Panes             []PaneSpec
	AxisReserve       int
	Snapshots         *snapshot.Store
	Journal           drawing.Journal
	Broker            *relay.Broker
	InitialDrawings   []drawing.Object
	CaptureBarSpacing float64
	DefaultWindowDays int
}

// Engine is the mutex-guarded facade over the chart core.
type Engine struct {
	mu sync.Mutex

	series *series.Series
	syn    *panesync.Synchronizer
	store  *drawing.Store
	inter  *drawing.Interactor
	snaps  *snapshot.Store
	broker *relay.Broker

	barSpacing float64
	startedAt  time.Time
}

// New wires the engine: panes registered with the synchronizer, restored
// drawings loaded before the journal attaches, and the initial window
// applied when DefaultWindowDays is positive.
func New(opts Options) (*Engine, error) {
	if opts.Series == nil {
		return nil, newError(CodeValidation, "series is required", nil)
	}
	if len(opts.Panes) == 0 {
		return nil, newError(CodeValidation, "at least one pane is required", nil)
	}
	if opts.CaptureBarSpacing <= 0 {
		opts.CaptureBarSpacing = 8
	}

	e := &Engine{
		series:     opts.Series,
		syn:        panesync.New(opts.Series),
		snaps:      opts.Snapshots,
		broker:     opts.Broker,
		barSpacing: opts.CaptureBarSpacing,
		startedAt:  time.Now().UTC(),
	}

	for _, spec := range opts.Panes {
		p := pane.New(spec.ID, spec.Kind, opts.Series, opts.AxisReserve)
		p.SetSize(spec.Width, spec.Height)
		e.syn.Register(p)
	}

	e.store = drawing.NewStore(nil)
	for _, obj := range opts.InitialDrawings {
		if _, err := e.store.Add(obj); err != nil {
			return nil, newError(CodeValidation, "restored drawing rejected", err)
		}
	}
	e.store.SetJournal(opts.Journal)

	e.inter = drawing.NewInteractor(e.store, func(paneID string) (chartspace.Transform, bool) {
		p, ok := e.syn.Pane(paneID)
		if !ok {
			return chartspace.Transform{}, false
		}
		t := p.Transform()
		return t, t.Ready()
	})

	e.syn.OnRange(func(r chartspace.LogicalRange) {
		e.publish("range", map[string]any{"from": r.From, "to": r.To})
	})

	if opts.DefaultWindowDays > 0 {
		e.syn.JumpToRange(opts.DefaultWindowDays)
		e.renderAll()
	}
	return e, nil
}

// publish emits an engine event; a nil broker drops it.
func (e *Engine) publish(topic string, payload any) {
	if e.broker == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	e.broker.Publish(relay.Event{Topic: topic, Payload: string(data)})
}

// renderAll redraws every dirty pane with the annotation overlay. It is
// the render barrier capture yields on.
func (e *Engine) renderAll() {
	objects := e.store.List()
	selected := ""
	if sel, ok := e.store.Selected(); ok {
		selected = sel.ID
	}
	for _, p := range e.syn.Panes() {
		paneID := p.ID()
		p.Redraw(func(c *pane.Canvas, t chartspace.Transform) {
			var scoped []drawing.Object
			for _, obj := range objects {
				if obj.PaneID == paneID {
					scoped = append(scoped, obj)
				}
			}
			drawing.Render(c, t, scoped, selected)
			if pending, ok := e.inter.Pending(paneID); ok {
				drawing.Render(c, t, []drawing.Object{pending}, "")
			}
		})
	}
}

// markDirtyAndRender forces a repaint of the named panes.
func (e *Engine) markDirtyAndRender(paneIDs ...string) {
	for _, id := range paneIDs {
		if p, ok := e.syn.Pane(id); ok {
			p.MarkDirty()
		}
	}
	e.renderAll()
}

// --- Interaction mode -----------------------------------------------------

// SetMode switches the interaction mode; kind is required for "draw".
func (e *Engine) SetMode(mode, kind string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.inter.SetMode(drawing.Mode(mode), drawing.Kind(kind)); err != nil {
		return newError(CodeValidation, "invalid interaction mode", err)
	}
	return nil
}

// Mode returns the interaction mode and the armed kind.
func (e *Engine) Mode() (string, string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return string(e.inter.Mode()), string(e.inter.ActiveKind())
}

// Pointer feeds one pointer event into the drawing state machine. The
// returned object is non-nil when the event committed an annotation.
func (e *Engine) Pointer(paneID, event string, x, y float64) (*drawing.Object, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.syn.Pane(paneID); !ok {
		return nil, newError(CodePaneNotFound, fmt.Sprintf("unknown pane %q", paneID), nil)
	}
	var ev drawing.PointerEvent
	switch event {
	case "down", "move", "up", "leave":
		ev = drawing.PointerEvent(event)
	default:
		return nil, newError(CodeValidation, fmt.Sprintf("unknown pointer event %q", event), nil)
	}

	obj, committed := e.inter.Pointer(paneID, ev, x, y)
	e.markDirtyAndRender(paneID)
	if !committed {
		return nil, nil
	}
	e.publish("drawing", map[string]any{"op": "add", "id": obj.ID, "kind": obj.Kind})
	return &obj, nil
}

// ConfirmText commits a pending text annotation.
func (e *Engine) ConfirmText(text string) (drawing.Object, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	obj, err := e.inter.ConfirmText(strings.TrimSpace(text))
	if err != nil {
		return drawing.Object{}, newError(CodeValidation, "text confirm failed", err)
	}
	e.publish("drawing", map[string]any{"op": "add", "id": obj.ID, "kind": obj.Kind})
	e.markDirtyAndRender(obj.PaneID)
	return obj, nil
}

// --- Navigation -----------------------------------------------------------

// JumpToRange shows the latest days bars.
func (e *Engine) JumpToRange(days int) error {
	if days <= 0 {
		return newError(CodeValidation, "days must be positive", nil)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.syn.JumpToRange(days)
	e.renderAll()
	return nil
}

// ZoomIn narrows the shared window.
func (e *Engine) ZoomIn() { e.nav((*panesync.Synchronizer).ZoomIn) }

// ZoomOut widens the shared window.
func (e *Engine) ZoomOut() { e.nav((*panesync.Synchronizer).ZoomOut) }

// PanLeft shifts toward older bars.
func (e *Engine) PanLeft() { e.nav((*panesync.Synchronizer).PanLeft) }

// PanRight shifts toward newer bars.
func (e *Engine) PanRight() { e.nav((*panesync.Synchronizer).PanRight) }

// JumpToLatest moves to the newest bars.
func (e *Engine) JumpToLatest() { e.nav((*panesync.Synchronizer).JumpToLatest) }

// JumpToEarliest moves to the oldest bars.
func (e *Engine) JumpToEarliest() { e.nav((*panesync.Synchronizer).JumpToEarliest) }

func (e *Engine) nav(op func(*panesync.Synchronizer)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	op(e.syn)
	e.renderAll()
}

// Range returns the shared visible range.
func (e *Engine) Range() (chartspace.LogicalRange, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.syn.CurrentRange()
}

// SetRange applies an explicit range as if paneID initiated it.
func (e *Engine) SetRange(paneID string, from, to float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	r := chartspace.LogicalRange{From: from, To: to}
	if !r.Valid() {
		return newError(CodeValidation, fmt.Sprintf("invalid range [%v, %v)", from, to), nil)
	}
	if paneID != "" {
		if _, ok := e.syn.Pane(paneID); !ok {
			return newError(CodePaneNotFound, fmt.Sprintf("unknown pane %q", paneID), nil)
		}
	}
	e.syn.SetRange(paneID, r)
	e.renderAll()
	return nil
}

// SetIndicator switches an indicator pane's displayed set.
func (e *Engine) SetIndicator(paneID, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.syn.Pane(paneID)
	if !ok {
		return newError(CodePaneNotFound, fmt.Sprintf("unknown pane %q", paneID), nil)
	}
	if p.Kind() != pane.KindIndicator {
		return newError(CodeValidation, fmt.Sprintf("pane %q is not an indicator pane", paneID), nil)
	}
	if !pane.IndicatorValid(name) {
		return newError(CodeValidation, fmt.Sprintf("unknown indicator %q", name), nil)
	}
	p.SetIndicator(name)
	e.renderAll()
	return nil
}

// --- Drawings -------------------------------------------------------------

// AddDrawing persists a complete annotation programmatically (host UIs that
// build objects without the interactive capture).
func (e *Engine) AddDrawing(obj drawing.Object) (drawing.Object, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.syn.Pane(obj.PaneID); !ok {
		return drawing.Object{}, newError(CodePaneNotFound, fmt.Sprintf("unknown pane %q", obj.PaneID), nil)
	}
	added, err := e.store.Add(obj)
	if err != nil {
		return drawing.Object{}, newError(CodeValidation, "drawing rejected", err)
	}
	e.publish("drawing", map[string]any{"op": "add", "id": added.ID, "kind": added.Kind})
	e.markDirtyAndRender(added.PaneID)
	return added, nil
}

// DeleteDrawing removes an annotation by id.
func (e *Engine) DeleteDrawing(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deleteLocked(id)
}

func (e *Engine) deleteLocked(id string) error {
	obj, ok := e.store.Get(id)
	if !ok {
		return newError(CodeDrawingNotFound, id, drawing.ErrNotFound)
	}
	if err := e.store.Delete(id); err != nil {
		return newError(CodeInternal, "delete failed", err)
	}
	e.publish("drawing", map[string]any{"op": "delete", "id": id, "kind": obj.Kind})
	e.markDirtyAndRender(obj.PaneID)
	return nil
}

// DeleteSelected removes the selected annotation, if any.
func (e *Engine) DeleteSelected() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	sel, ok := e.store.Selected()
	if !ok {
		return newError(CodeDrawingNotFound, "no selection", drawing.ErrNotFound)
	}
	return e.deleteLocked(sel.ID)
}

// SelectDrawing marks an annotation selected; empty id clears.
func (e *Engine) SelectDrawing(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.Select(id); err != nil {
		return newError(CodeDrawingNotFound, id, err)
	}
	for _, p := range e.syn.Panes() {
		p.MarkDirty()
	}
	e.renderAll()
	return nil
}

// ListDrawings returns all annotations in insertion order.
func (e *Engine) ListDrawings() []drawing.Object {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.List()
}

// ClearDrawings removes every annotation (session reset).
func (e *Engine) ClearDrawings() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.Clear()
	e.inter.Cancel()
	e.publish("drawing", map[string]any{"op": "clear"})
	for _, p := range e.syn.Panes() {
		p.MarkDirty()
	}
	e.renderAll()
}

// --- Capture --------------------------------------------------------------

// Capture runs the snapshot transaction and persists one image per pane.
// Pane ranges are always restored before it returns.
func (e *Engine) Capture(targetDate, notes string) ([]snapshot.Meta, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sess := capture.New(e.syn, e.series, e.barSpacing, e.renderAll)
	rasters, err := sess.Run(strings.TrimSpace(targetDate))
	if err != nil {
		switch {
		case errors.Is(err, capture.ErrTargetDate):
			return nil, newError(CodeCaptureFailed, "target date not in series", err)
		case errors.Is(err, capture.ErrNotReady):
			return nil, newError(CodeNotReady, "no measured pane to capture", err)
		default:
			return nil, newError(CodeCaptureFailed, "capture failed", err)
		}
	}

	metas := make([]snapshot.Meta, 0, len(rasters))
	for _, r := range rasters {
		meta := snapshot.Meta{
			ID:         uuid.New().String(),
			PaneID:     r.PaneID,
			Symbol:     e.series.Symbol,
			Format:     "png",
			Width:      r.Width,
			Height:     r.Height,
			SizeBytes:  len(r.PNG),
			RangeFrom:  r.Range.From,
			RangeTo:    r.Range.To,
			BarSpacing: e.barSpacing,
			TargetDate: targetDate,
			Notes:      notes,
			CreatedAt:  time.Now().UTC(),
		}
		if e.snaps != nil {
			if err := e.snaps.Save(meta, r.PNG); err != nil {
				return nil, newError(CodeInternal, "snapshot save failed", err)
			}
		}
		metas = append(metas, meta)
	}

	e.publish("capture", map[string]any{"count": len(metas), "target_date": targetDate})
	return metas, nil
}

// Snapshot metadata passthrough with coded errors.

func (e *Engine) ListSnapshots() ([]snapshot.Meta, error) {
	if e.snaps == nil {
		return nil, nil
	}
	metas, err := e.snaps.List()
	if err != nil {
		return nil, newError(CodeInternal, "snapshot list failed", err)
	}
	return metas, nil
}

func (e *Engine) GetSnapshot(id string) (snapshot.Meta, error) {
	if e.snaps == nil {
		return snapshot.Meta{}, newError(CodeSnapshotNotFound, id, nil)
	}
	meta, err := e.snaps.Get(id)
	if err != nil {
		return snapshot.Meta{}, mapSnapshotErr(id, err)
	}
	return meta, nil
}

func (e *Engine) ReadSnapshotImage(id string) ([]byte, string, error) {
	if e.snaps == nil {
		return nil, "", newError(CodeSnapshotNotFound, id, nil)
	}
	data, format, err := e.snaps.ReadImage(id)
	if err != nil {
		return nil, "", mapSnapshotErr(id, err)
	}
	return data, format, nil
}

func (e *Engine) DeleteSnapshot(id string) error {
	if e.snaps == nil {
		return newError(CodeSnapshotNotFound, id, nil)
	}
	if err := e.snaps.Delete(id); err != nil {
		return mapSnapshotErr(id, err)
	}
	return nil
}

func mapSnapshotErr(id string, err error) error {
	if errors.Is(err, snapshot.ErrNotFound) {
		return newError(CodeSnapshotNotFound, id, err)
	}
	return newError(CodeValidation, "snapshot request rejected", err)
}

// --- Status and raster access ---------------------------------------------

// PaneStatus describes one registered pane.
type PaneStatus struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Indicator string `json:"indicator,omitempty"`
}

// Status is the engine's observable state.
type Status struct {
	Symbol      string       `json:"symbol"`
	Bars        int          `json:"bars"`
	Mode        string       `json:"mode"`
	DrawKind    string       `json:"draw_kind,omitempty"`
	HasRange    bool         `json:"has_range"`
	RangeFrom   float64      `json:"range_from"`
	RangeTo     float64      `json:"range_to"`
	Drawings    int          `json:"drawings"`
	Panes       []PaneStatus `json:"panes"`
	Subscribers int          `json:"subscribers"`
	UptimeSec   int64        `json:"uptime_sec"`
}

func paneKindName(k pane.Kind) string {
	switch k {
	case pane.KindPrice:
		return "price"
	case pane.KindVolume:
		return "volume"
	case pane.KindIndicator:
		return "indicator"
	}
	return "unknown"
}

// Status reports the engine's current state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := Status{
		Symbol:    e.series.Symbol,
		Bars:      e.series.Len(),
		Mode:      string(e.inter.Mode()),
		DrawKind:  string(e.inter.ActiveKind()),
		Drawings:  e.store.Len(),
		UptimeSec: int64(time.Since(e.startedAt).Seconds()),
	}
	if r, ok := e.syn.CurrentRange(); ok {
		st.HasRange = true
		st.RangeFrom = r.From
		st.RangeTo = r.To
	}
	for _, p := range e.syn.Panes() {
		w, h := p.Size()
		ps := PaneStatus{ID: p.ID(), Kind: paneKindName(p.Kind()), Width: w, Height: h}
		if p.Kind() == pane.KindIndicator {
			ps.Indicator = p.Indicator()
		}
		st.Panes = append(st.Panes, ps)
	}
	if e.broker != nil {
		st.Subscribers = e.broker.ClientCount()
	}
	return st
}

// ResizePane updates one pane's pixel dimensions.
func (e *Engine) ResizePane(paneID string, width, height int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if width <= 0 || height <= 0 {
		return newError(CodeValidation, "pane dimensions must be positive", nil)
	}
	p, ok := e.syn.Pane(paneID)
	if !ok {
		return newError(CodePaneNotFound, fmt.Sprintf("unknown pane %q", paneID), nil)
	}
	p.SetSize(width, height)
	e.renderAll()
	return nil
}

// PaneImage returns one pane's current raster as PNG.
func (e *Engine) PaneImage(paneID string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.syn.Pane(paneID)
	if !ok {
		return nil, newError(CodePaneNotFound, fmt.Sprintf("unknown pane %q", paneID), nil)
	}
	e.renderAll()
	img := p.Image()
	if img == nil {
		return nil, newError(CodeNotReady, fmt.Sprintf("pane %q has not rendered", paneID), nil)
	}
	return encodePNG(img)
}

// Package panesync keeps the visible logical range identical across all
// registered panes. Panes announce range changes tagged with their own id;
// during a propagation pass the synchronizer suppresses notifications from
// the receiving panes, so propagation terminates in exactly one hop no
// matter how many panes are registered.
package panesync

import (
	"log/slog"
	"math"

	"github.com/stockpeek/chartcore/internal/chartspace"
	"github.com/stockpeek/chartcore/internal/pane"
	"github.com/stockpeek/chartcore/internal/series"
)

const (
	// rightMarginBars keeps a small gap after the newest bar.
	rightMarginBars = 5

	zoomInFactor  = 0.7
	zoomOutFactor = 1.4
	panFraction   = 0.3
)

// Synchronizer owns the pane registry and the shared logical axis. It is
// not safe for concurrent use; the engine serializes access.
type Synchronizer struct {
	series *series.Series
	panes  map[string]*pane.Pane
	order  []string

	// origin is non-empty while a propagation pass is in flight; pane
	// notifications arriving during the pass are echoes and are dropped.
	origin string

	onRange func(r chartspace.LogicalRange)
}

// New creates an empty synchronizer over the shared series.
func New(s *series.Series) *Synchronizer {
	return &Synchronizer{
		series: s,
		panes:  make(map[string]*pane.Pane),
	}
}

// OnRange sets a hook invoked once per completed propagation pass.
func (s *Synchronizer) OnRange(fn func(r chartspace.LogicalRange)) {
	s.onRange = fn
}

// Register adds a pane and subscribes to its range notifications. A pane
// registered while others already share a range adopts it immediately.
func (s *Synchronizer) Register(p *pane.Pane) {
	id := p.ID()
	if _, exists := s.panes[id]; exists {
		return
	}
	s.panes[id] = p
	s.order = append(s.order, id)
	p.Subscribe(s.handleRange)

	if r, ok := s.CurrentRange(); ok {
		prev := s.origin
		s.origin = id
		p.SetRange(r)
		s.origin = prev
	}
}

// Unregister detaches a pane from the shared axis.
func (s *Synchronizer) Unregister(id string) {
	p, ok := s.panes[id]
	if !ok {
		return
	}
	p.Unsubscribe()
	delete(s.panes, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Panes returns the registered panes in registration order.
func (s *Synchronizer) Panes() []*pane.Pane {
	out := make([]*pane.Pane, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.panes[id])
	}
	return out
}

// Pane looks up a registered pane by id.
func (s *Synchronizer) Pane(id string) (*pane.Pane, bool) {
	p, ok := s.panes[id]
	return p, ok
}

// CurrentRange returns the shared range from the first pane that has one.
func (s *Synchronizer) CurrentRange() (chartspace.LogicalRange, bool) {
	for _, id := range s.order {
		if r, ok := s.panes[id].Range(); ok {
			return r, true
		}
	}
	return chartspace.LogicalRange{}, false
}

// SetRange applies a range as if the named pane initiated it and propagates
// to every sibling. An empty originID targets the first registered pane.
func (s *Synchronizer) SetRange(originID string, r chartspace.LogicalRange) {
	if !r.Valid() {
		return
	}
	if originID == "" && len(s.order) > 0 {
		originID = s.order[0]
	}
	p, ok := s.panes[originID]
	if !ok {
		slog.Warn("range for unknown pane ignored", "pane", originID)
		return
	}
	p.SetRange(r) // emits; handleRange fans out to siblings
}

// handleRange is the panes' range listener. The origin guard bounds the
// pass to one hop: echoes from receiving panes arrive while origin is set
// and are dropped.
func (s *Synchronizer) handleRange(originID string, r chartspace.LogicalRange) {
	if s.origin != "" {
		return
	}
	s.origin = originID
	for _, id := range s.order {
		if id == originID {
			continue
		}
		s.panes[id].SetRange(r)
	}
	s.origin = ""

	if s.onRange != nil {
		s.onRange(r)
	}
}

// Restore applies per-pane ranges under the propagation guard without
// fanning each one out. Capture uses it to roll back its range mutation.
func (s *Synchronizer) Restore(saved map[string]chartspace.LogicalRange) {
	s.origin = "restore"
	for id, r := range saved {
		if p, ok := s.panes[id]; ok {
			p.SetRange(r)
		}
	}
	s.origin = ""
}

// measured reports whether any registered pane has pixel dimensions.
// Navigation on a fully unmeasured pane set is a no-op.
func (s *Synchronizer) measured() bool {
	for _, id := range s.order {
		p := s.panes[id]
		if w, h := p.Size(); w > 0 && h > 0 {
			return true
		}
	}
	return false
}

// ready reports whether width-relative navigation has a usable baseline:
// a measured pane and an established shared range.
func (s *Synchronizer) ready() (chartspace.LogicalRange, bool) {
	r, ok := s.CurrentRange()
	if !ok || !s.measured() {
		return r, false
	}
	return r, true
}

// JumpToRange shows the most recent days bars plus the right margin. It
// needs no prior range, so it also serves as the initial view.
func (s *Synchronizer) JumpToRange(days int) {
	if days <= 0 || !s.measured() {
		return
	}
	last := float64(s.series.LastIndex())
	from := math.Max(0, last-float64(days))
	s.SetRange("", chartspace.LogicalRange{From: from, To: last + rightMarginBars})
}

// ZoomIn narrows the window around its midpoint.
func (s *Synchronizer) ZoomIn() { s.zoom(zoomInFactor) }

// ZoomOut widens the window around its midpoint.
func (s *Synchronizer) ZoomOut() { s.zoom(zoomOutFactor) }

func (s *Synchronizer) zoom(factor float64) {
	r, ok := s.ready()
	if !ok {
		return
	}
	mid := (r.From + r.To) / 2
	half := r.Width() * factor / 2
	s.SetRange("", chartspace.LogicalRange{From: mid - half, To: mid + half})
}

// PanLeft shifts the window toward older bars by 30% of its width,
// clamped at the data's left edge.
func (s *Synchronizer) PanLeft() { s.pan(-1) }

// PanRight shifts the window toward newer bars by 30% of its width,
// clamped at the right margin past the newest bar.
func (s *Synchronizer) PanRight() { s.pan(1) }

func (s *Synchronizer) pan(dir float64) {
	r, ok := s.ready()
	if !ok {
		return
	}
	shift := dir * r.Width() * panFraction
	from := r.From + shift
	to := r.To + shift

	if from < 0 {
		to += -from
		from = 0
	}
	if limit := float64(s.series.Len()) + rightMarginBars; to > limit {
		from -= to - limit
		to = limit
	}
	s.SetRange("", chartspace.LogicalRange{From: from, To: to})
}

// JumpToLatest moves the window to the newest bars, preserving width.
func (s *Synchronizer) JumpToLatest() {
	r, ok := s.ready()
	if !ok {
		return
	}
	to := float64(s.series.LastIndex()) + rightMarginBars
	s.SetRange("", chartspace.LogicalRange{From: to - r.Width(), To: to})
}

// JumpToEarliest moves the window to the oldest bars, preserving width.
func (s *Synchronizer) JumpToEarliest() {
	r, ok := s.ready()
	if !ok {
		return
	}
	s.SetRange("", chartspace.LogicalRange{From: 0, To: r.Width()})
}

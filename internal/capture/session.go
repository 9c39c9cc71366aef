// Package capture implements the snapshot transaction: save every pane's
// visible range, refit the view so the rightmost bar lands on the target
// date, render once, read the rasters, and restore the saved ranges no
// matter what happened in between.
package capture

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"math"

	"github.com/stockpeek/chartcore/internal/chartspace"
	"github.com/stockpeek/chartcore/internal/panesync"
	"github.com/stockpeek/chartcore/internal/series"
)

var (
	// ErrNotReady means no pane is measured wide enough to fit bars.
	ErrNotReady = errors.New("capture: no measured pane")
	// ErrTargetDate means the target date does not exist in the series.
	ErrTargetDate = errors.New("capture: target date not in series")
)

// PaneRaster is one pane's capture output.
type PaneRaster struct {
	PaneID string
	Width  int
	Height int
	Range  chartspace.LogicalRange
	PNG    []byte
}

// Session is one capture transaction. It is created per capture call and
// discarded afterwards; the saved range log lives only for its duration.
type Session struct {
	syn        *panesync.Synchronizer
	series     *series.Series
	barSpacing float64
	// renderBarrier redraws every dirty pane and returns only when their
	// buffers reflect the current ranges.
	renderBarrier func()
}

// New prepares a capture session. barSpacing is the locked pixels-per-bar
// used for fitting; auto-fit stays disabled for the whole transaction.
func New(syn *panesync.Synchronizer, s *series.Series, barSpacing float64, renderBarrier func()) *Session {
	return &Session{syn: syn, series: s, barSpacing: barSpacing, renderBarrier: renderBarrier}
}

// resolveEnd maps the target date to a series index. Empty targets the
// newest bar. Resolution happens before any pane is mutated.
func (s *Session) resolveEnd(targetDate string) (int, error) {
	if s.series.Len() == 0 {
		return 0, ErrTargetDate
	}
	if targetDate == "" {
		return s.series.LastIndex(), nil
	}
	idx, ok := s.series.IndexOfDate(targetDate)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrTargetDate, targetDate)
	}
	return idx, nil
}

// fitRange computes the range that puts endIdx at the right edge with the
// locked bar spacing and no right margin.
func (s *Session) fitRange(endIdx int) (chartspace.LogicalRange, error) {
	if s.barSpacing <= 0 {
		return chartspace.LogicalRange{}, ErrNotReady
	}
	for _, p := range s.syn.Panes() {
		w, h := p.Size()
		plot := w - p.AxisReserve()
		if plot <= 0 || h <= 0 {
			continue
		}
		barsNeeded := int(math.Ceil(float64(plot) / s.barSpacing))
		from := math.Max(0, float64(endIdx-barsNeeded+1))
		return chartspace.LogicalRange{From: from, To: float64(endIdx) + 1}, nil
	}
	return chartspace.LogicalRange{}, ErrNotReady
}

// Run executes the transaction and returns one raster per measured pane.
// Every pane's range is restored before Run returns, success or failure.
func (s *Session) Run(targetDate string) ([]PaneRaster, error) {
	endIdx, err := s.resolveEnd(targetDate)
	if err != nil {
		return nil, err
	}
	fitted, err := s.fitRange(endIdx)
	if err != nil {
		return nil, err
	}

	saved := make(map[string]chartspace.LogicalRange)
	for _, p := range s.syn.Panes() {
		if r, ok := p.Range(); ok {
			saved[p.ID()] = r
		}
	}

	defer func() {
		s.syn.Restore(saved)
		if s.renderBarrier != nil {
			s.renderBarrier()
		}
	}()

	s.syn.SetRange("", fitted)
	if s.renderBarrier != nil {
		s.renderBarrier()
	}

	var out []PaneRaster
	for _, p := range s.syn.Panes() {
		img := p.Image()
		if img == nil {
			slog.Warn("pane produced no raster", "pane", p.ID())
			continue
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("capture: encode %s: %w", p.ID(), err)
		}
		w, h := p.Size()
		out = append(out, PaneRaster{
			PaneID: p.ID(),
			Width:  w,
			Height: h,
			Range:  fitted,
			PNG:    buf.Bytes(),
		})
	}
	if len(out) == 0 {
		return nil, ErrNotReady
	}
	return out, nil
}

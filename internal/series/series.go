// Package series holds the ordered, date-indexed OHLCV data consumed by the
// chart panes. A Series is immutable once built; the data-fetching layer
// that produces it is outside this service.
package series

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/markcheno/go-talib"
)

const dateLayout = "2006-01-02"

// Bar is one daily OHLCV record.
type Bar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Series is an ordered sequence of bars plus derived indicator columns.
// Indicator values aligned before their warm-up period are NaN-free zeros
// from talib and are skipped by renderers via the valid-from offsets.
type Series struct {
	Symbol string

	bars       []Bar
	byDate     map[string]int
	indicators map[string][]float64
	lookback   map[string]int
}

// New builds a Series from bars sorted by date and computes the indicator
// columns the dashboard's panes can display.
func New(symbol string, bars []Bar) (*Series, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("series %s: no bars", symbol)
	}
	sorted := make([]Bar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

	byDate := make(map[string]int, len(sorted))
	for i, b := range sorted {
		if _, err := time.Parse(dateLayout, b.Date); err != nil {
			return nil, fmt.Errorf("series %s: bad date %q: %w", symbol, b.Date, err)
		}
		byDate[b.Date] = i
	}

	s := &Series{
		Symbol:     symbol,
		bars:       sorted,
		byDate:     byDate,
		indicators: make(map[string][]float64),
		lookback:   make(map[string]int),
	}
	s.computeIndicators()
	return s, nil
}

// LoadJSON reads a JSON array of bars produced by the data-fetching layer.
func LoadJSON(symbol, path string) (*Series, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("series %s: read %s: %w", symbol, path, err)
	}
	var bars []Bar
	if err := json.Unmarshal(data, &bars); err != nil {
		return nil, fmt.Errorf("series %s: parse %s: %w", symbol, path, err)
	}
	return New(symbol, bars)
}

// Len returns the number of bars.
func (s *Series) Len() int { return len(s.bars) }

// LastIndex returns the index of the newest bar.
func (s *Series) LastIndex() int { return len(s.bars) - 1 }

// Bar returns the bar at index i.
func (s *Series) Bar(i int) (Bar, bool) {
	if i < 0 || i >= len(s.bars) {
		return Bar{}, false
	}
	return s.bars[i], true
}

// IndexOfDate resolves a YYYY-MM-DD date to a bar index.
func (s *Series) IndexOfDate(date string) (int, bool) {
	i, ok := s.byDate[date]
	return i, ok
}

// Indicator returns a computed column by name, aligned with bar indices.
func (s *Series) Indicator(name string) ([]float64, bool) {
	col, ok := s.indicators[name]
	return col, ok
}

// IndicatorNames lists the available computed columns.
func (s *Series) IndicatorNames() []string {
	names := make([]string, 0, len(s.indicators))
	for name := range s.indicators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidFrom returns the first bar index at which an indicator column has a
// meaningful value (talib fills the warm-up region with zeros).
func (s *Series) ValidFrom(name string) int {
	return s.lookback[name]
}

func (s *Series) computeIndicators() {
	n := len(s.bars)
	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	volumes := make([]float64, n)
	for i, b := range s.bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
		volumes[i] = b.Volume
	}

	add := func(name string, col []float64, lookback int) {
		s.indicators[name] = col
		s.lookback[name] = lookback
	}

	if n >= 5 {
		add("ma5", talib.Sma(closes, 5), 4)
		add("vol_ma5", talib.Sma(volumes, 5), 4)
	}
	if n >= 10 {
		add("ma10", talib.Sma(closes, 10), 9)
		add("vol_ma10", talib.Sma(volumes, 10), 9)
	}
	if n >= 20 {
		add("ma20", talib.Sma(closes, 20), 19)
	}
	if n >= 15 {
		add("rsi14", talib.Rsi(closes, 14), 14)
	}
	if n >= 35 {
		macd, signal, hist := talib.Macd(closes, 12, 26, 9)
		add("macd", macd, 33)
		add("macd_signal", signal, 33)
		add("macd_hist", hist, 33)
	}
	if n >= 12 {
		k, d := talib.Stoch(highs, lows, closes, 9, 3, talib.SMA, 3, talib.SMA)
		j := make([]float64, n)
		for i := range j {
			j[i] = 3*k[i] - 2*d[i]
		}
		add("kdj_k", k, 11)
		add("kdj_d", d, 11)
		add("kdj_j", j, 11)
	}
}

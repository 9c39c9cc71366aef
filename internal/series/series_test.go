package series

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testBars(n int) []Bar {
	bars := make([]Bar, 0, n)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		price := 100 + float64(i%7) - float64(i%3)
		bars = append(bars, Bar{
			Date:   start.AddDate(0, 0, i).Format("2006-01-02"),
			Open:   price - 0.5,
			High:   price + 1,
			Low:    price - 1,
			Close:  price,
			Volume: 1000 + float64(i*10),
		})
	}
	return bars
}

func TestNewSortsAndIndexesByDate(t *testing.T) {
	bars := testBars(10)
	// Shuffle order: New must sort.
	bars[0], bars[9] = bars[9], bars[0]

	s, err := New("2330", bars)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if s.Len() != 10 {
		t.Fatalf("Len() = %d, want 10", s.Len())
	}
	first, _ := s.Bar(0)
	if first.Date != "2024-01-01" {
		t.Fatalf("Bar(0).Date = %q, want 2024-01-01", first.Date)
	}
	idx, ok := s.IndexOfDate("2024-01-07")
	if !ok || idx != 6 {
		t.Fatalf("IndexOfDate(2024-01-07) = %d, %v; want 6, true", idx, ok)
	}
	if _, ok := s.IndexOfDate("2030-01-01"); ok {
		t.Fatal("IndexOfDate resolved a date outside the series")
	}
}

func TestNewRejectsEmptyAndBadDates(t *testing.T) {
	if _, err := New("2330", nil); err == nil {
		t.Fatal("New() accepted empty bars")
	}
	if _, err := New("2330", []Bar{{Date: "not-a-date", Close: 1}}); err == nil {
		t.Fatal("New() accepted malformed date")
	}
}

func TestIndicatorsComputedForLongSeries(t *testing.T) {
	s, err := New("2330", testBars(60))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for _, name := range []string{"ma5", "ma10", "ma20", "rsi14", "macd", "macd_signal", "macd_hist", "kdj_k", "kdj_d", "kdj_j", "vol_ma5"} {
		col, ok := s.Indicator(name)
		if !ok {
			t.Fatalf("Indicator(%q) missing", name)
		}
		if len(col) != s.Len() {
			t.Fatalf("Indicator(%q) length = %d, want %d", name, len(col), s.Len())
		}
	}
	if _, ok := s.Indicator("unknown"); ok {
		t.Fatal("Indicator returned a column for an unknown name")
	}
}

func TestShortSeriesSkipsLongIndicators(t *testing.T) {
	s, err := New("2330", testBars(6))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, ok := s.Indicator("ma5"); !ok {
		t.Fatal("ma5 missing on 6-bar series")
	}
	if _, ok := s.Indicator("macd"); ok {
		t.Fatal("macd computed on 6-bar series")
	}
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.json")
	data, err := json.Marshal(testBars(30))
	if err != nil {
		t.Fatalf("json.Marshal() failed: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("os.WriteFile() failed: %v", err)
	}

	s, err := LoadJSON("2330", path)
	if err != nil {
		t.Fatalf("LoadJSON() error = %v", err)
	}
	if s.Len() != 30 {
		t.Fatalf("Len() = %d, want 30", s.Len())
	}

	if _, err := LoadJSON("2330", filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("LoadJSON() succeeded on missing file")
	}
}

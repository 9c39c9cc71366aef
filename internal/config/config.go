package config

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// PaneLayout describes one pane in the layout file.
type PaneLayout struct {
	ID     string `yaml:"id"`
	Kind   string `yaml:"kind"` // "price", "volume" or "indicator"
	Height int    `yaml:"height"`
}

// Layout is the optional YAML layout file: pane stack and shared geometry.
type Layout struct {
	Width       int          `yaml:"width"`
	AxisReserve int          `yaml:"axis_reserve"`
	Panes       []PaneLayout `yaml:"panes"`
}

// Config holds all configuration for chartd.
type Config struct {
	// HTTP settings
	BindAddr         string
	PortCandidates   []string
	PortAutoFallback bool

	// Logging
	LogLevel string
	LogFile  string

	// Data
	DataFile string
	Symbol   string

	// Layout
	LayoutFile      string
	Width           int
	AxisReserve     int
	PriceHeight     int
	VolumeHeight    int
	IndicatorHeight int

	// Capture
	SnapshotDir       string
	CaptureBarSpacing float64

	// Drawing journal
	JournalPath   string
	MaxFileSizeMB int
	BufferSize    int

	// Initial view
	DefaultWindowDays int
}

// Load reads configuration from environment variables and optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	host := getEnvOrDefault("CHARTD_BIND_HOST", "127.0.0.1")
	port := getEnvIntOrDefault("CHARTD_PORT", 8740)
	cfg := &Config{
		BindAddr:          net.JoinHostPort(host, strconv.Itoa(port)),
		PortCandidates:    candidateAddrs(host, port, getEnvIntOrDefault("CHARTD_PORT_FALLBACK_RANGE", 4)),
		PortAutoFallback:  getEnvBoolOrDefault("CHARTD_PORT_AUTO_FALLBACK", true),
		LogLevel:          getEnvOrDefault("CHARTD_LOG_LEVEL", "info"),
		LogFile:           getEnvOrDefault("CHARTD_LOG_FILE", "./logs/chartd.log"),
		DataFile:          getEnvOrDefault("CHARTD_DATA_FILE", "./data/bars.json"),
		Symbol:            getEnvOrDefault("CHARTD_SYMBOL", "2330"),
		LayoutFile:        getEnvOrDefault("CHARTD_LAYOUT_FILE", ""),
		Width:             getEnvIntOrDefault("CHARTD_PANE_WIDTH", 1000),
		AxisReserve:       getEnvIntOrDefault("CHARTD_AXIS_RESERVE", 50),
		PriceHeight:       getEnvIntOrDefault("CHARTD_PRICE_HEIGHT", 400),
		VolumeHeight:      getEnvIntOrDefault("CHARTD_VOLUME_HEIGHT", 120),
		IndicatorHeight:   getEnvIntOrDefault("CHARTD_INDICATOR_HEIGHT", 160),
		SnapshotDir:       getEnvOrDefault("CHARTD_SNAPSHOT_DIR", "./snapshots"),
		CaptureBarSpacing: getEnvFloatOrDefault("CHARTD_CAPTURE_BAR_SPACING", 8),
		JournalPath:       getEnvOrDefault("CHARTD_JOURNAL_PATH", "./data/drawings.jsonl"),
		MaxFileSizeMB:     getEnvIntOrDefault("CHARTD_MAX_FILE_SIZE_MB", 50),
		BufferSize:        getEnvIntOrDefault("CHARTD_BUFFER_SIZE", 1024),
		DefaultWindowDays: getEnvIntOrDefault("CHARTD_DEFAULT_WINDOW_DAYS", 120),
	}
	if cfg.CaptureBarSpacing <= 0 {
		return nil, fmt.Errorf("config: capture bar spacing must be positive, got %v", cfg.CaptureBarSpacing)
	}

	return cfg, nil
}

// LoadLayout reads the optional YAML layout file. An empty path yields the
// default three-pane stack from the env-configured dimensions.
func (c *Config) LoadLayout() (Layout, error) {
	if c.LayoutFile == "" {
		return Layout{
			Width:       c.Width,
			AxisReserve: c.AxisReserve,
			Panes: []PaneLayout{
				{ID: "price", Kind: "price", Height: c.PriceHeight},
				{ID: "volume", Kind: "volume", Height: c.VolumeHeight},
				{ID: "indicator", Kind: "indicator", Height: c.IndicatorHeight},
			},
		}, nil
	}

	data, err := os.ReadFile(c.LayoutFile)
	if err != nil {
		return Layout{}, fmt.Errorf("layout file: %w", err)
	}
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("layout file: %w", err)
	}
	if l.Width <= 0 {
		l.Width = c.Width
	}
	if l.AxisReserve <= 0 {
		l.AxisReserve = c.AxisReserve
	}
	if len(l.Panes) == 0 {
		return Layout{}, fmt.Errorf("layout file: no panes defined")
	}
	seen := make(map[string]bool)
	for i, p := range l.Panes {
		if p.ID == "" {
			return Layout{}, fmt.Errorf("layout file: pane[%d] missing id", i)
		}
		if seen[p.ID] {
			return Layout{}, fmt.Errorf("layout file: duplicate pane id %q", p.ID)
		}
		seen[p.ID] = true
		switch p.Kind {
		case "price", "volume", "indicator":
		default:
			return Layout{}, fmt.Errorf("layout file: pane %q has unknown kind %q", p.ID, p.Kind)
		}
		if p.Height <= 0 {
			return Layout{}, fmt.Errorf("layout file: pane %q height must be positive", p.ID)
		}
	}
	return l, nil
}

func candidateAddrs(host string, port, fallbackRange int) []string {
	addrs := make([]string, 0, fallbackRange+1)
	for p := port; p <= port+fallbackRange; p++ {
		addrs = append(addrs, net.JoinHostPort(host, strconv.Itoa(p)))
	}
	return addrs
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloatOrDefault(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

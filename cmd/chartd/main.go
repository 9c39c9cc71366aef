package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/stockpeek/chartcore/internal/api"
	"github.com/stockpeek/chartcore/internal/config"
	"github.com/stockpeek/chartcore/internal/engine"
	"github.com/stockpeek/chartcore/internal/netutil"
	"github.com/stockpeek/chartcore/internal/pane"
	"github.com/stockpeek/chartcore/internal/relay"
	"github.com/stockpeek/chartcore/internal/series"
	"github.com/stockpeek/chartcore/internal/snapshot"
	"github.com/stockpeek/chartcore/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := setupLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		_, _ = io.WriteString(os.Stderr, "logger setup failed: "+err.Error()+"\n")
		os.Exit(1)
	}

	slog.Info("chartd config loaded",
		"bind_addr", cfg.BindAddr,
		"symbol", cfg.Symbol,
		"data_file", cfg.DataFile,
		"snapshot_dir", cfg.SnapshotDir,
		"journal_path", cfg.JournalPath,
		"log_level", cfg.LogLevel,
		"log_file", cfg.LogFile,
	)

	layout, err := cfg.LoadLayout()
	if err != nil {
		slog.Error("failed to load layout", "file", cfg.LayoutFile, "error", err)
		os.Exit(1)
	}

	s, err := series.LoadJSON(cfg.Symbol, cfg.DataFile)
	if err != nil {
		slog.Error("failed to load bar data", "file", cfg.DataFile, "error", err)
		os.Exit(1)
	}

	snaps, err := snapshot.NewStore(cfg.SnapshotDir)
	if err != nil {
		slog.Error("failed to open snapshot store", "dir", cfg.SnapshotDir, "error", err)
		os.Exit(1)
	}

	saved, err := storage.Replay(cfg.JournalPath)
	if err != nil {
		slog.Error("failed to replay drawing journal", "path", cfg.JournalPath, "error", err)
		os.Exit(1)
	}
	journal, err := storage.NewJournal(cfg.JournalPath, cfg.BufferSize, cfg.MaxFileSizeMB)
	if err != nil {
		slog.Error("failed to open drawing journal", "path", cfg.JournalPath, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := journal.Close(); err != nil {
			slog.Error("journal close failed", "error", err)
		}
	}()

	broker := relay.NewBroker()

	eng, err := engine.New(engine.Options{
		Series:            s,
		Panes:             paneSpecs(layout),
		AxisReserve:       layout.AxisReserve,
		Snapshots:         snaps,
		Journal:           journal,
		Broker:            broker,
		InitialDrawings:   saved,
		CaptureBarSpacing: cfg.CaptureBarSpacing,
		DefaultWindowDays: cfg.DefaultWindowDays,
	})
	if err != nil {
		slog.Error("failed to build engine", "error", err)
		os.Exit(1)
	}

	bindAddr, err := netutil.SelectBindAddr(cfg.BindAddr, cfg.PortCandidates, cfg.PortAutoFallback)
	if err != nil {
		slog.Error("failed to select bind address", "preferred", cfg.BindAddr, "error", err)
		os.Exit(1)
	}

	srv := &http.Server{Addr: bindAddr, Handler: api.NewServer(eng, broker)}

	go func() {
		slog.Info("chartd listening", "addr", bindAddr, "docs", "http://"+bindAddr+"/docs")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("chartd server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("chartd shutdown failed", "error", err)
	}
}

func paneSpecs(layout config.Layout) []engine.PaneSpec {
	specs := make([]engine.PaneSpec, 0, len(layout.Panes))
	for _, p := range layout.Panes {
		kind := pane.KindPrice
		switch p.Kind {
		case "volume":
			kind = pane.KindVolume
		case "indicator":
			kind = pane.KindIndicator
		}
		specs = append(specs, engine.PaneSpec{ID: p.ID, Kind: kind, Width: layout.Width, Height: p.Height})
	}
	return specs
}

func setupLogger(level, filename string) error {
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return err
	}

	logWriter := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    25,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
	}

	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	h := slog.NewTextHandler(io.MultiWriter(os.Stdout, logWriter), &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(h))
	return nil
}

package snapshot

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func testMeta(id string) Meta {
	return Meta{
		ID:         id,
		PaneID:     "price",
		Symbol:     "2330",
		Format:     "png",
		Width:      1000,
		Height:     400,
		SizeBytes:  4,
		RangeFrom:  182,
		RangeTo:    301,
		BarSpacing: 8,
		TargetDate: "2023-11-21",
		CreatedAt:  time.Now().UTC(),
	}
}

func TestSaveGetRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	id := uuid.New().String()
	if err := store.Save(testMeta(id), []byte("fake")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Get(id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.PaneID != "price" || got.RangeFrom != 182 || got.RangeTo != 301 || got.BarSpacing != 8 {
		t.Fatalf("Get() = %+v, metadata mismatch", got)
	}

	data, format, err := store.ReadImage(id)
	if err != nil {
		t.Fatalf("ReadImage() error = %v", err)
	}
	if format != "png" || string(data) != "fake" {
		t.Fatalf("ReadImage() = %q format %q", data, format)
	}
}

func TestInvalidIDRejected(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if err := store.Save(Meta{ID: "../escape", Format: "png"}, nil); err == nil {
		t.Fatal("Save accepted a non-uuid id")
	}
	if _, err := store.Get("not-a-uuid"); err == nil {
		t.Fatal("Get accepted a non-uuid id")
	}
}

func TestListNewestFirst(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	older := testMeta(uuid.New().String())
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := testMeta(uuid.New().String())
	if err := store.Save(older, []byte("a")); err != nil {
		t.Fatalf("Save(older) error = %v", err)
	}
	if err := store.Save(newer, []byte("b")); err != nil {
		t.Fatalf("Save(newer) error = %v", err)
	}

	metas, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(metas) != 2 || metas[0].ID != newer.ID {
		t.Fatalf("List() order wrong: %+v", metas)
	}
}

func TestDeleteRemovesBothFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	id := uuid.New().String()
	if err := store.Save(testMeta(id), []byte("x")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Delete(id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, id+".png")); !os.IsNotExist(err) {
		t.Fatal("image file survived delete")
	}
	if _, err := os.Stat(filepath.Join(dir, id+".json")); !os.IsNotExist(err) {
		t.Fatal("meta file survived delete")
	}
}

func TestDeleteLogsImageCleanupFailureWhenImageMissing(t *testing.T) {
	dir := t.TempDir()
	store := &Store{dir: dir}
	id := "123e4567-e89b-12d3-a456-426614174000"
	jsonPath := filepath.Join(dir, id+".json")

	meta := Meta{
		ID:     id,
		Format: "png",
	}
	metaBytes, err := json.Marshal(meta)
	if err != nil {
		t.Fatalf("json.Marshal() failed: %v", err)
	}
	if err := os.WriteFile(jsonPath, metaBytes, 0o644); err != nil {
		t.Fatalf("os.WriteFile() failed: %v", err)
	}

	var buf bytes.Buffer
	oldLogger := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() {
		slog.SetDefault(oldLogger)
	})

	if err := store.Delete(id); err != nil {
		t.Fatalf("Delete() = %v; want nil", err)
	}

	if !strings.Contains(buf.String(), "snapshot image cleanup failed") {
		t.Fatalf("expected image cleanup debug log, got %q", buf.String())
	}
}

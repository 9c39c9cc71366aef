// Package storage persists the drawing journal: an append-only JSONL log of
// annotation lifecycle events that the host persistence layer replays.
package storage

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/stockpeek/chartcore/internal/drawing"
)

// Entry is one journal line.
type Entry struct {
	Op      string         `json:"op"` // "add" or "delete"
	At      time.Time      `json:"at"`
	Drawing drawing.Object `json:"drawing"`
}

// Journal appends drawing lifecycle entries asynchronously. Writes never
// block the engine; when the buffer is full the entry is dropped with a
// warning. Rotation is delegated to lumberjack.
type Journal struct {
	path    string
	writeCh chan Entry
	done    chan struct{}
	wg      sync.WaitGroup

	mu     sync.Mutex
	logger *lumberjack.Logger
}

// NewJournal opens (creating directories as needed) an async journal at
// path. maxSizeMB bounds the file before rotation.
func NewJournal(path string, bufferSize, maxSizeMB int) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	j := &Journal{
		path:    path,
		writeCh: make(chan Entry, bufferSize),
		done:    make(chan struct{}),
		logger: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSizeMB,
			MaxBackups: 10,
			MaxAge:     30,
			LocalTime:  false,
		},
	}
	j.wg.Add(1)
	go j.writeLoop()
	return j, nil
}

// Record queues one lifecycle entry. It satisfies the drawing store's
// journal contract and never blocks.
func (j *Journal) Record(op string, obj drawing.Object) {
	e := Entry{Op: op, At: time.Now().UTC(), Drawing: obj}
	select {
	case j.writeCh <- e:
	case <-j.done:
	default:
		slog.Warn("drawing journal buffer full, dropping entry",
			"op", op, "drawing", obj.ID)
	}
}

// Close flushes pending entries and closes the underlying file.
func (j *Journal) Close() error {
	close(j.done)

	timeout := time.After(5 * time.Second)
	for {
		select {
		case e := <-j.writeCh:
			j.writeEntry(e)
		case <-timeout:
			slog.Warn("drawing journal close timeout, entries may be lost")
			goto done
		default:
			goto done
		}
	}

done:
	j.wg.Wait()

	j.mu.Lock()
	defer j.mu.Unlock()
	return j.logger.Close()
}

func (j *Journal) writeLoop() {
	defer j.wg.Done()

	for {
		select {
		case e := <-j.writeCh:
			j.writeEntry(e)
		case <-j.done:
			return
		}
	}
}

func (j *Journal) writeEntry(e Entry) {
	data, err := json.Marshal(e)
	if err != nil {
		slog.Error("drawing journal marshal failed", "error", err, "op", e.Op)
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.logger.Write(append(data, '\n')); err != nil {
		slog.Error("drawing journal write failed", "error", err, "file", j.path)
	}
}

// Replay reads a journal file and returns the surviving objects: every
// added drawing whose id was not later deleted, in add order.
func Replay(path string) ([]drawing.Object, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var order []string
	byID := make(map[string]drawing.Object)
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var e Entry
		if err := dec.Decode(&e); err != nil {
			slog.Warn("drawing journal entry skipped", "error", err)
			break
		}
		switch e.Op {
		case "add":
			if _, seen := byID[e.Drawing.ID]; !seen {
				order = append(order, e.Drawing.ID)
			}
			byID[e.Drawing.ID] = e.Drawing
		case "delete":
			delete(byID, e.Drawing.ID)
		}
	}

	out := make([]drawing.Object, 0, len(byID))
	for _, id := range order {
		if obj, ok := byID[id]; ok {
			out = append(out, obj)
		}
	}
	return out, nil
}

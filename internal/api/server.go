// Package api exposes the chart engine over REST. Handlers are thin: they
// validate transport-level input, call the engine, and map coded errors to
// HTTP status codes.
package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stockpeek/chartcore/internal/chartspace"
	"github.com/stockpeek/chartcore/internal/drawing"
	"github.com/stockpeek/chartcore/internal/engine"
	"github.com/stockpeek/chartcore/internal/relay"
	"github.com/stockpeek/chartcore/internal/snapshot"
)

// Service is what the API needs from the engine.
type Service interface {
	SetMode(mode, kind string) error
	Mode() (string, string)
	Pointer(paneID, event string, x, y float64) (*drawing.Object, error)
	ConfirmText(text string) (drawing.Object, error)

	JumpToRange(days int) error
	ZoomIn()
	ZoomOut()
	PanLeft()
	PanRight()
	JumpToLatest()
	JumpToEarliest()
	Range() (chartspace.LogicalRange, bool)
	SetRange(paneID string, from, to float64) error
	SetIndicator(paneID, name string) error
	ResizePane(paneID string, width, height int) error
	PaneImage(paneID string) ([]byte, error)

	AddDrawing(obj drawing.Object) (drawing.Object, error)
	DeleteDrawing(id string) error
	DeleteSelected() error
	SelectDrawing(id string) error
	ListDrawings() []drawing.Object
	ClearDrawings()

	Capture(targetDate, notes string) ([]snapshot.Meta, error)
	ListSnapshots() ([]snapshot.Meta, error)
	GetSnapshot(id string) (snapshot.Meta, error)
	ReadSnapshotImage(id string) ([]byte, string, error)
	DeleteSnapshot(id string) error

	Status() engine.Status
}

// NewServer builds the HTTP handler: huma-described chart operations plus
// plain chi routes for raster bytes and event streams.
func NewServer(svc Service, broker *relay.Broker) http.Handler {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	cfg := huma.DefaultConfig("ChartCore API", "1.0.0")
	cfg.DocsPath = ""
	api := humachi.New(router, cfg)

	router.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if _, err := w.Write([]byte(docsHTML)); err != nil {
			slog.Debug("docs response write failed", "error", err)
		}
	})

	registerViewHandlers(api, svc)
	registerDrawingHandlers(api, svc)
	registerCaptureHandlers(api, svc)
	registerStatusHandlers(api, svc)

	// Raw bytes and long-lived streams bypass the OpenAPI layer.
	router.Get("/api/v1/panes/{pane_id}/image", paneImageHandler(svc))
	router.Get("/api/v1/snapshots/{snapshot_id}/image", snapshotImageHandler(svc))
	if broker != nil {
		router.Get("/api/v1/events", relay.SSEHandler(broker))
		router.Get("/api/v1/events/ws", relay.WSHandler(broker))
	}

	return router
}

func paneImageHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := svc.PaneImage(chi.URLParam(r, "pane_id"))
		if err != nil {
			writeErrStatus(w, err)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		if _, err := w.Write(data); err != nil {
			slog.Debug("pane image write failed", "error", err)
		}
	}
}

func snapshotImageHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, format, err := svc.ReadSnapshotImage(chi.URLParam(r, "snapshot_id"))
		if err != nil {
			writeErrStatus(w, err)
			return
		}
		w.Header().Set("Content-Type", "image/"+format)
		if _, err := w.Write(data); err != nil {
			slog.Debug("snapshot image write failed", "error", err)
		}
	}
}

func writeErrStatus(w http.ResponseWriter, err error) {
	var coded *engine.CodedError
	if errors.As(err, &coded) {
		switch coded.Code {
		case engine.CodeValidation:
			http.Error(w, coded.Message, http.StatusBadRequest)
			return
		case engine.CodePaneNotFound, engine.CodeDrawingNotFound, engine.CodeSnapshotNotFound:
			http.Error(w, coded.Message, http.StatusNotFound)
			return
		case engine.CodeNotReady:
			http.Error(w, coded.Message, http.StatusConflict)
			return
		}
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var coded *engine.CodedError
	if errors.As(err, &coded) {
		switch coded.Code {
		case engine.CodeValidation:
			return huma.Error400BadRequest(coded.Message)
		case engine.CodePaneNotFound, engine.CodeDrawingNotFound, engine.CodeSnapshotNotFound:
			return huma.Error404NotFound(coded.Message)
		case engine.CodeNotReady:
			return huma.Error409Conflict(coded.Message)
		case engine.CodeCaptureFailed:
			return huma.Error422UnprocessableEntity(coded.Message)
		default:
			return huma.Error500InternalServerError(fmt.Sprintf("%s: %s", coded.Code, coded.Message))
		}
	}
	return huma.Error500InternalServerError(err.Error())
}

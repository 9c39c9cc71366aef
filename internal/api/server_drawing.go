package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/stockpeek/chartcore/internal/chartspace"
	"github.com/stockpeek/chartcore/internal/drawing"
)

func registerDrawingHandlers(api huma.API, svc Service) {
	type modeOutput struct {
		Body struct {
			Mode string `json:"mode"`
			Kind string `json:"kind,omitempty"`
		}
	}

	huma.Register(api, huma.Operation{OperationID: "get-mode", Method: http.MethodGet, Path: "/api/v1/mode", Summary: "Get the interaction mode", Tags: []string{"Drawings"}},
		func(ctx context.Context, input *struct{}) (*modeOutput, error) {
			mode, kind := svc.Mode()
			out := &modeOutput{}
			out.Body.Mode = mode
			out.Body.Kind = kind
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "set-mode", Method: http.MethodPut, Path: "/api/v1/mode", Summary: "Switch the interaction mode", Tags: []string{"Drawings"}},
		func(ctx context.Context, input *struct {
			Body struct {
				Mode string `json:"mode" required:"true" enum:"off,select,draw"`
				Kind string `json:"kind,omitempty" doc:"Drawing kind; required when mode is draw"`
			}
		}) (*modeOutput, error) {
			if err := svc.SetMode(input.Body.Mode, input.Body.Kind); err != nil {
				return nil, mapErr(err)
			}
			mode, kind := svc.Mode()
			out := &modeOutput{}
			out.Body.Mode = mode
			out.Body.Kind = kind
			return out, nil
		})

	type pointerOutput struct {
		Body struct {
			Committed *drawing.Object `json:"committed,omitempty"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "pointer-event", Method: http.MethodPost, Path: "/api/v1/panes/{pane_id}/pointer", Summary: "Feed a pointer event to the drawing state machine", Tags: []string{"Drawings"}},
		func(ctx context.Context, input *struct {
			PaneID string `path:"pane_id"`
			Body   struct {
				Event string  `json:"event" required:"true" enum:"down,move,up,leave"`
				X     float64 `json:"x"`
				Y     float64 `json:"y"`
			}
		}) (*pointerOutput, error) {
			obj, err := svc.Pointer(input.PaneID, input.Body.Event, input.Body.X, input.Body.Y)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &pointerOutput{}
			out.Body.Committed = obj
			return out, nil
		})

	type drawingOutput struct {
		Body drawing.Object
	}
	huma.Register(api, huma.Operation{OperationID: "confirm-text", Method: http.MethodPost, Path: "/api/v1/drawings/text", Summary: "Commit the pending text annotation", Tags: []string{"Drawings"}},
		func(ctx context.Context, input *struct {
			Body struct {
				Text string `json:"text" required:"true"`
			}
		}) (*drawingOutput, error) {
			obj, err := svc.ConfirmText(input.Body.Text)
			if err != nil {
				return nil, mapErr(err)
			}
			return &drawingOutput{Body: obj}, nil
		})

	type drawingListOutput struct {
		Body struct {
			Drawings []drawing.Object `json:"drawings"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-drawings", Method: http.MethodGet, Path: "/api/v1/drawings", Summary: "List all annotations", Tags: []string{"Drawings"}},
		func(ctx context.Context, input *struct{}) (*drawingListOutput, error) {
			out := &drawingListOutput{}
			out.Body.Drawings = svc.ListDrawings()
			if out.Body.Drawings == nil {
				out.Body.Drawings = []drawing.Object{}
			}
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "add-drawing", Method: http.MethodPost, Path: "/api/v1/drawings", Summary: "Add a complete annotation", Tags: []string{"Drawings"}},
		func(ctx context.Context, input *struct {
			Body struct {
				PaneID string                  `json:"pane_id" required:"true"`
				Kind   string                  `json:"kind" required:"true"`
				Points []chartspace.ChartPoint `json:"points" required:"true"`
				Color  string                  `json:"color,omitempty"`
				Text   string                  `json:"text,omitempty"`
			}
		}) (*drawingOutput, error) {
			obj, err := svc.AddDrawing(drawing.Object{
				PaneID: input.Body.PaneID,
				Kind:   drawing.Kind(input.Body.Kind),
				Points: input.Body.Points,
				Color:  input.Body.Color,
				Text:   input.Body.Text,
			})
			if err != nil {
				return nil, mapErr(err)
			}
			return &drawingOutput{Body: obj}, nil
		})

	type statusOutput struct {
		Body struct {
			Status string `json:"status"`
		}
	}
	type drawingIDInput struct {
		DrawingID string `path:"drawing_id"`
	}

	huma.Register(api, huma.Operation{OperationID: "delete-drawing", Method: http.MethodDelete, Path: "/api/v1/drawings/{drawing_id}", Summary: "Delete an annotation", Tags: []string{"Drawings"}},
		func(ctx context.Context, input *drawingIDInput) (*statusOutput, error) {
			if err := svc.DeleteDrawing(input.DrawingID); err != nil {
				return nil, mapErr(err)
			}
			out := &statusOutput{}
			out.Body.Status = "deleted"
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "clear-drawings", Method: http.MethodDelete, Path: "/api/v1/drawings", Summary: "Delete every annotation", Tags: []string{"Drawings"}},
		func(ctx context.Context, input *struct{}) (*statusOutput, error) {
			svc.ClearDrawings()
			out := &statusOutput{}
			out.Body.Status = "cleared"
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "select-drawing", Method: http.MethodPut, Path: "/api/v1/drawings/selection", Summary: "Select an annotation (empty id clears)", Tags: []string{"Drawings"}},
		func(ctx context.Context, input *struct {
			Body struct {
				ID string `json:"id"`
			}
		}) (*statusOutput, error) {
			if err := svc.SelectDrawing(input.Body.ID); err != nil {
				return nil, mapErr(err)
			}
			out := &statusOutput{}
			out.Body.Status = "ok"
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "delete-selected-drawing", Method: http.MethodDelete, Path: "/api/v1/drawings/selection", Summary: "Delete the selected annotation", Tags: []string{"Drawings"}},
		func(ctx context.Context, input *struct{}) (*statusOutput, error) {
			if err := svc.DeleteSelected(); err != nil {
				return nil, mapErr(err)
			}
			out := &statusOutput{}
			out.Body.Status = "deleted"
			return out, nil
		})
}

package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

type rangeOutput struct {
	Body struct {
		HasRange bool    `json:"has_range"`
		From     float64 `json:"from"`
		To       float64 `json:"to"`
	}
}

func rangeOut(svc Service) *rangeOutput {
	out := &rangeOutput{}
	if r, ok := svc.Range(); ok {
		out.Body.HasRange = true
		out.Body.From = r.From
		out.Body.To = r.To
	}
	return out
}

func registerViewHandlers(api huma.API, svc Service) {
	huma.Register(api, huma.Operation{OperationID: "get-range", Method: http.MethodGet, Path: "/api/v1/view/range", Summary: "Get the shared visible range", Tags: []string{"View"}},
		func(ctx context.Context, input *struct{}) (*rangeOutput, error) {
			return rangeOut(svc), nil
		})

	huma.Register(api, huma.Operation{OperationID: "set-range", Method: http.MethodPut, Path: "/api/v1/view/range", Summary: "Set the visible range explicitly", Tags: []string{"View"}},
		func(ctx context.Context, input *struct {
			Body struct {
				PaneID string  `json:"pane_id,omitempty" doc:"Pane treated as the change's origin; defaults to the first pane"`
				From   float64 `json:"from" required:"true"`
				To     float64 `json:"to" required:"true"`
			}
		}) (*rangeOutput, error) {
			if err := svc.SetRange(input.Body.PaneID, input.Body.From, input.Body.To); err != nil {
				return nil, mapErr(err)
			}
			return rangeOut(svc), nil
		})

	huma.Register(api, huma.Operation{OperationID: "jump-to-range", Method: http.MethodPost, Path: "/api/v1/view/jump", Summary: "Show the most recent N days", Tags: []string{"View"}},
		func(ctx context.Context, input *struct {
			Body struct {
				Days int `json:"days" required:"true" doc:"Number of most recent bars to show"`
			}
		}) (*rangeOutput, error) {
			if err := svc.JumpToRange(input.Body.Days); err != nil {
				return nil, mapErr(err)
			}
			return rangeOut(svc), nil
		})

	// Parameterless navigation shares one handler shape.
	nav := []struct {
		id, path, summary string
		op                func()
	}{
		{"zoom-in", "/api/v1/view/zoom-in", "Narrow the window around its midpoint", svc.ZoomIn},
		{"zoom-out", "/api/v1/view/zoom-out", "Widen the window around its midpoint", svc.ZoomOut},
		{"pan-left", "/api/v1/view/pan-left", "Shift toward older bars", svc.PanLeft},
		{"pan-right", "/api/v1/view/pan-right", "Shift toward newer bars", svc.PanRight},
		{"jump-latest", "/api/v1/view/latest", "Jump to the newest bars", svc.JumpToLatest},
		{"jump-earliest", "/api/v1/view/earliest", "Jump to the oldest bars", svc.JumpToEarliest},
	}
	for _, n := range nav {
		op := n.op
		huma.Register(api, huma.Operation{OperationID: n.id, Method: http.MethodPost, Path: n.path, Summary: n.summary, Tags: []string{"View"}},
			func(ctx context.Context, input *struct{}) (*rangeOutput, error) {
				op()
				return rangeOut(svc), nil
			})
	}

	type statusOutput struct {
		Body struct {
			Status string `json:"status"`
		}
	}

	huma.Register(api, huma.Operation{OperationID: "set-indicator", Method: http.MethodPut, Path: "/api/v1/panes/{pane_id}/indicator", Summary: "Switch an indicator pane's displayed set", Tags: []string{"View"}},
		func(ctx context.Context, input *struct {
			PaneID string `path:"pane_id"`
			Body   struct {
				Name string `json:"name" required:"true" enum:"macd,rsi,kdj"`
			}
		}) (*statusOutput, error) {
			if err := svc.SetIndicator(input.PaneID, input.Body.Name); err != nil {
				return nil, mapErr(err)
			}
			out := &statusOutput{}
			out.Body.Status = "ok"
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "resize-pane", Method: http.MethodPut, Path: "/api/v1/panes/{pane_id}/size", Summary: "Set a pane's pixel dimensions", Tags: []string{"View"}},
		func(ctx context.Context, input *struct {
			PaneID string `path:"pane_id"`
			Body   struct {
				Width  int `json:"width" required:"true"`
				Height int `json:"height" required:"true"`
			}
		}) (*statusOutput, error) {
			if err := svc.ResizePane(input.PaneID, input.Body.Width, input.Body.Height); err != nil {
				return nil, mapErr(err)
			}
			out := &statusOutput{}
			out.Body.Status = "ok"
			return out, nil
		})
}

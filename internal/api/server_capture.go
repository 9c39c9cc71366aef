package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/stockpeek/chartcore/internal/snapshot"
)

func registerCaptureHandlers(api huma.API, svc Service) {
	type captureOutput struct {
		Body struct {
			Snapshots []snapshot.Meta `json:"snapshots"`
			URLs      []string        `json:"urls"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "capture", Method: http.MethodPost, Path: "/api/v1/capture", Summary: "Capture every pane at a target date", Description: "Refits the view so the rightmost bar is the target date (or the newest bar), renders, stores one PNG per pane, and restores the previous ranges.", Tags: []string{"Capture"}},
		func(ctx context.Context, input *struct {
			Body struct {
				TargetDate string `json:"target_date,omitempty" doc:"YYYY-MM-DD; defaults to the newest bar"`
				Notes      string `json:"notes,omitempty" doc:"Free-form annotation stored with each snapshot"`
			}
		}) (*captureOutput, error) {
			metas, err := svc.Capture(input.Body.TargetDate, input.Body.Notes)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &captureOutput{}
			out.Body.Snapshots = metas
			for _, m := range metas {
				out.Body.URLs = append(out.Body.URLs, "/api/v1/snapshots/"+m.ID+"/image")
			}
			return out, nil
		})

	type listSnapshotsOutput struct {
		Body struct {
			Snapshots []snapshot.Meta `json:"snapshots"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-snapshots", Method: http.MethodGet, Path: "/api/v1/snapshots", Summary: "List snapshots", Tags: []string{"Capture"}},
		func(ctx context.Context, input *struct{}) (*listSnapshotsOutput, error) {
			metas, err := svc.ListSnapshots()
			if err != nil {
				return nil, mapErr(err)
			}
			out := &listSnapshotsOutput{}
			out.Body.Snapshots = metas
			if out.Body.Snapshots == nil {
				out.Body.Snapshots = []snapshot.Meta{}
			}
			return out, nil
		})

	type snapshotIDInput struct {
		SnapshotID string `path:"snapshot_id"`
	}
	type getSnapshotOutput struct {
		Body snapshot.Meta
	}
	huma.Register(api, huma.Operation{OperationID: "get-snapshot-metadata", Method: http.MethodGet, Path: "/api/v1/snapshots/{snapshot_id}/metadata", Summary: "Get snapshot metadata", Tags: []string{"Capture"}},
		func(ctx context.Context, input *snapshotIDInput) (*getSnapshotOutput, error) {
			meta, err := svc.GetSnapshot(input.SnapshotID)
			if err != nil {
				return nil, mapErr(err)
			}
			return &getSnapshotOutput{Body: meta}, nil
		})

	type deleteSnapshotOutput struct {
		Body struct {
			Status string `json:"status"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "delete-snapshot", Method: http.MethodDelete, Path: "/api/v1/snapshots/{snapshot_id}", Summary: "Delete snapshot", Tags: []string{"Capture"}},
		func(ctx context.Context, input *snapshotIDInput) (*deleteSnapshotOutput, error) {
			if err := svc.DeleteSnapshot(input.SnapshotID); err != nil {
				return nil, mapErr(err)
			}
			out := &deleteSnapshotOutput{}
			out.Body.Status = "deleted"
			return out, nil
		})
}

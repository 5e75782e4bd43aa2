package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/rodopt/internal/api/models"
	"github.com/smazurov/rodopt/internal/supervisor"
)

func (s *Server) registerHistoryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-history",
		Method:      http.MethodGet,
		Path:        "/api/history",
		Summary:     "Evaluation History",
		Description: "Get the evaluated points of the current run with feasibility and the best or Pareto-optimal rows",
		Tags:        []string{"history"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.HistoryResponse, error) {
		return &models.HistoryResponse{Body: historyData(s.runs.History())}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-history-row",
		Method:      http.MethodGet,
		Path:        "/api/history/rows/{index}",
		Summary:     "History Row",
		Description: "Get every column of one evaluated point",
		Tags:        []string{"history"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(_ context.Context, input *struct {
		Index int `path:"index" minimum:"0" example:"3" doc:"Zero-based row index"`
	}) (*models.RowDetailResponse, error) {
		view := s.runs.History()
		if input.Index >= view.Snapshot.Len() {
			return nil, huma.Error404NotFound("row not found")
		}
		detail := models.RowDetailData{
			Index:  input.Index,
			Fields: view.Snapshot.Row(input.Index),
		}
		if view.Analysis != nil {
			if input.Index < len(view.Analysis.Feasible) {
				detail.Feasible = view.Analysis.Feasible[input.Index]
			}
			detail.Optimal = view.Analysis.IsOptimal(input.Index)
		}
		return &models.RowDetailResponse{Body: detail}, nil
	})
}

func historyData(view supervisor.HistoryView) models.HistoryData {
	data := models.HistoryData{
		Header:         []string{},
		Rows:           [][]string{},
		VisibleColumns: view.VisibleColumns,
		Feasible:       []bool{},
		Pareto:         []int{},
	}
	if data.VisibleColumns == nil {
		data.VisibleColumns = []int{}
	}
	if snap := view.Snapshot; snap != nil {
		modified := snap.LastSeenMTime
		data.Available = true
		data.LastModified = &modified
		data.Header = snap.Header
		data.Rows = snap.Rows
		data.Skipped = snap.Skipped
	}
	if res := view.Analysis; res != nil {
		data.Feasible = res.Feasible
		data.FeasibleCount = res.FeasibleCount
		data.Best = res.Best
		if res.Pareto != nil {
			data.Pareto = res.Pareto
		}
	}
	return data
}

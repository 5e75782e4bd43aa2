package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/rodopt/internal/api/models"
	"github.com/smazurov/rodopt/internal/runstore"
)

// registerJournalRoutes registers the recorded run endpoints. Nothing is
// registered without a journal.
func (s *Server) registerJournalRoutes() {
	if s.journal == nil {
		return
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "list-runs",
		Method:      http.MethodGet,
		Path:        "/api/runs",
		Summary:     "List Runs",
		Description: "List recorded runs, newest first",
		Tags:        []string{"runs"},
		Security:    withAuth(),
		Errors:      []int{401, 500},
	}, func(_ context.Context, input *struct {
		Limit int `query:"limit" minimum:"0" maximum:"1000" default:"50" doc:"Maximum number of runs"`
	}) (*models.RunListResponse, error) {
		runs, err := s.journal.List(input.Limit)
		if err != nil {
			return nil, s.mapRunError(err)
		}
		if runs == nil {
			runs = []runstore.Run{}
		}
		return &models.RunListResponse{Body: models.RunListData{Runs: runs, Count: len(runs)}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-run",
		Method:      http.MethodGet,
		Path:        "/api/runs/{id}",
		Summary:     "Get Run",
		Description: "Get one recorded run",
		Tags:        []string{"runs"},
		Security:    withAuth(),
		Errors:      []int{401, 404, 500},
	}, func(_ context.Context, input *struct {
		ID string `path:"id" doc:"Session identifier"`
	}) (*models.RunResponse, error) {
		run, err := s.journal.Get(input.ID)
		if err != nil {
			return nil, s.mapRunError(err)
		}
		return &models.RunResponse{Body: *run}, nil
	})
}

package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/rodopt/internal/api/models"
)

// registerRunLogRoutes registers the optimizer log and output endpoints.
func (s *Server) registerRunLogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-run-log-kinds",
		Method:      http.MethodGet,
		Path:        "/api/run/logs",
		Summary:     "Run Log Kinds",
		Description: "List the log kinds that can be read from the run directory",
		Tags:        []string{"logs"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.LogKindsResponse, error) {
		return &models.LogKindsResponse{Body: models.LogKindsData{Kinds: s.runs.LogKinds()}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-run-log",
		Method:      http.MethodGet,
		Path:        "/api/run/logs/{kind}",
		Summary:     "Run Log",
		Description: "Read the newest log file of a kind from the current or last run directory",
		Tags:        []string{"logs"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 404, 500},
	}, func(_ context.Context, input *struct {
		Kind string `path:"kind" example:"status" doc:"Log kind"`
	}) (*models.LogResponse, error) {
		log, err := s.runs.ReadLog(input.Kind)
		if err != nil {
			return nil, s.mapRunError(err)
		}
		return &models.LogResponse{Body: log}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-run-output",
		Method:      http.MethodGet,
		Path:        "/api/run/output",
		Summary:     "Process Output",
		Description: "Get the buffered stdout and stderr lines of the optimizer process",
		Tags:        []string{"logs"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, input *struct {
		Tail int `query:"tail" minimum:"0" example:"100" doc:"Only return the last N lines, 0 for all"`
	}) (*models.OutputResponse, error) {
		lines := s.runs.Output()
		if input.Tail > 0 && len(lines) > input.Tail {
			lines = lines[len(lines)-input.Tail:]
		}
		return &models.OutputResponse{Body: models.OutputData{Lines: lines, Count: len(lines)}}, nil
	})
}

package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/rodopt/internal/api/models"
)

func (s *Server) registerStudyRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-study",
		Method:      http.MethodGet,
		Path:        "/api/study",
		Summary:     "Current Study",
		Description: "Get the name, working directory and problem layout of the current study",
		Tags:        []string{"study"},
		Security:    withAuth(),
		Errors:      []int{401, 404, 422},
	}, func(_ context.Context, _ *struct{}) (*models.StudyResponse, error) {
		info, err := s.runs.Study()
		if err != nil {
			return nil, huma.Error422UnprocessableEntity("study cannot be read", err)
		}
		if info.Path == "" {
			return nil, huma.Error404NotFound("no study selected")
		}
		return &models.StudyResponse{Body: info}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-study",
		Method:      http.MethodPut,
		Path:        "/api/study",
		Summary:     "Select Study",
		Description: "Select the study configuration file used by the next run",
		Tags:        []string{"study"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 422},
	}, func(_ context.Context, input *models.StudyRequest) (*models.StudyResponse, error) {
		if err := s.runs.SetStudy(input.Body.Path); err != nil {
			return nil, s.mapRunError(err)
		}
		info, err := s.runs.Study()
		if err != nil {
			return nil, huma.Error422UnprocessableEntity("study cannot be read", err)
		}
		return &models.StudyResponse{Body: info}, nil
	})
}

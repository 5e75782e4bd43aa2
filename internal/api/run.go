package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/rodopt/internal/api/models"
	"github.com/smazurov/rodopt/internal/process"
	"github.com/smazurov/rodopt/internal/runstore"
	"github.com/smazurov/rodopt/internal/study"
	"github.com/smazurov/rodopt/internal/supervisor"
)

// RunController is the run supervision surface the API drives.
type RunController interface {
	Start(executable, configPath string) error
	Pause() error
	Resume() error
	Stop() error
	Status() supervisor.Status
	History() supervisor.HistoryView
	Output() []process.OutputLine
	LogKinds() []string
	ReadLog(kind string) (supervisor.LogFile, error)
	SetStudy(path string) error
	Study() (study.Info, error)
}

// RunJournal lists recorded runs.
type RunJournal interface {
	List(limit int) ([]runstore.Run, error)
	Get(id string) (*runstore.Run, error)
}

// registerRunRoutes registers start, pause, resume, stop and status.
func (s *Server) registerRunRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-run-status",
		Method:      http.MethodGet,
		Path:        "/api/run",
		Summary:     "Run Status",
		Description: "Get the state, elapsed time and progress of the current run",
		Tags:        []string{"run"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.StatusResponse, error) {
		return &models.StatusResponse{Body: s.runs.Status()}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "start-run",
		Method:      http.MethodPost,
		Path:        "/api/run/start",
		Summary:     "Start Run",
		Description: "Launch the optimizer with the study as its only argument. Resumes instead when the run is paused.",
		Tags:        []string{"run"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 409, 500},
	}, func(_ context.Context, input *models.StartRequest) (*models.StatusResponse, error) {
		if err := s.runs.Start(input.Body.Executable, input.Body.Study); err != nil {
			return nil, s.mapRunError(err)
		}
		return &models.StatusResponse{Body: s.runs.Status()}, nil
	})

	s.registerTransition("pause-run", "/api/run/pause", "Pause Run",
		"Suspend the running optimizer process", func() error { return s.runs.Pause() })
	s.registerTransition("resume-run", "/api/run/resume", "Resume Run",
		"Continue a paused optimizer process", func() error { return s.runs.Resume() })
	s.registerTransition("stop-run", "/api/run/stop", "Stop Run",
		"Terminate the optimizer process. Stopping an idle supervisor is a no-op.",
		func() error { return s.runs.Stop() })
}

func (s *Server) registerTransition(id, path, summary, description string, action func() error) {
	huma.Register(s.api, huma.Operation{
		OperationID: id,
		Method:      http.MethodPost,
		Path:        path,
		Summary:     summary,
		Description: description,
		Tags:        []string{"run"},
		Security:    withAuth(),
		Errors:      []int{401, 409, 500},
	}, func(_ context.Context, _ *struct{}) (*models.StatusResponse, error) {
		if err := action(); err != nil {
			return nil, s.mapRunError(err)
		}
		return &models.StatusResponse{Body: s.runs.Status()}, nil
	})
}

// mapRunError maps supervisor errors to HTTP errors
func (s *Server) mapRunError(err error) error {
	var runErr *supervisor.Error
	if errors.As(err, &runErr) {
		switch runErr.Code {
		case supervisor.CodeInvalidInput:
			return huma.Error400BadRequest(runErr.Error(), err)
		case supervisor.CodeState, supervisor.CodeAlreadyRunning:
			return huma.Error409Conflict(runErr.Error(), err)
		case supervisor.CodeProcessControl:
			return huma.Error500InternalServerError(runErr.Error(), err)
		}
	}
	switch {
	case errors.Is(err, supervisor.ErrNoLog), errors.Is(err, runstore.ErrNotFound):
		return huma.Error404NotFound(err.Error(), err)
	}
	s.logger.Error("Unexpected run error", "error", err)
	return huma.Error500InternalServerError("internal server error", err)
}

package models

import (
	"time"

	"github.com/smazurov/rodopt/internal/history"
	"github.com/smazurov/rodopt/internal/process"
	"github.com/smazurov/rodopt/internal/runstore"
	"github.com/smazurov/rodopt/internal/study"
	"github.com/smazurov/rodopt/internal/supervisor"
)

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"dev" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit SHA"`
	BuildDate string `json:"build_date" example:"2024-12-15 14:30" doc:"Build timestamp"`
	BuildID   string `json:"build_id" example:"a1b2c3d4" doc:"Unique build identifier"`
	GoVersion string `json:"go_version" example:"go1.24.0" doc:"Go compiler version"`
	Compiler  string `json:"compiler" example:"gc" doc:"Compiler used"`
	Platform  string `json:"platform" example:"linux/amd64" doc:"Platform"`
}

type VersionResponse struct {
	Body VersionData
}

// Run control models
type StartRequestData struct {
	Executable string `json:"executable,omitempty" example:"/opt/optimizer/bin/optimizer" doc:"Optimizer executable, defaults to the last one used"`
	Study      string `json:"study,omitempty" example:"/home/user/studies/wing.xml" doc:"Study configuration file, defaults to the current study"`
}

type StartRequest struct {
	Body StartRequestData
}

type StatusResponse struct {
	Body supervisor.Status
}

// History models
type HistoryData struct {
	Available      bool       `json:"available" doc:"Whether a history snapshot exists for the current run"`
	LastModified   *time.Time `json:"last_modified,omitempty" doc:"Modification time of the history file when it was read"`
	Header         []string   `json:"header" doc:"Column names"`
	Rows           [][]string `json:"rows" doc:"Evaluated points in file order"`
	Skipped        int        `json:"skipped" example:"0" doc:"Malformed lines that were ignored"`
	VisibleColumns []int      `json:"visible_columns" doc:"Header indices worth displaying"`
	Feasible       []bool     `json:"feasible" doc:"Feasibility per row"`
	FeasibleCount  int        `json:"feasible_count" example:"12" doc:"Number of feasible rows"`
	Best           *int       `json:"best,omitempty" example:"4" doc:"Best feasible row for single objective studies"`
	Pareto         []int      `json:"pareto" doc:"Non-dominated feasible rows for multi objective studies"`
}

type HistoryResponse struct {
	Body HistoryData
}

type RowDetailData struct {
	Index    int             `json:"index" example:"3" doc:"Zero-based row index"`
	Fields   []history.Field `json:"fields" doc:"Column name and value pairs"`
	Feasible bool            `json:"feasible" doc:"Whether the row is feasible"`
	Optimal  bool            `json:"optimal" doc:"Whether the row is best or on the Pareto front"`
}

type RowDetailResponse struct {
	Body RowDetailData
}

// Study models
type StudyRequestData struct {
	Path string `json:"path" minLength:"1" example:"/home/user/studies/wing.xml" doc:"Study configuration file"`
}

type StudyRequest struct {
	Body StudyRequestData
}

type StudyResponse struct {
	Body study.Info
}

// Log models
type LogKindsData struct {
	Kinds []string `json:"kinds" doc:"Log kinds that can be requested"`
}

type LogKindsResponse struct {
	Body LogKindsData
}

type LogResponse struct {
	Body supervisor.LogFile
}

type OutputData struct {
	Lines []process.OutputLine `json:"lines" doc:"Recent stdout and stderr lines of the optimizer"`
	Count int                  `json:"count" example:"120" doc:"Number of lines"`
}

type OutputResponse struct {
	Body OutputData
}

// Run journal models
type RunListData struct {
	Runs  []runstore.Run `json:"runs" doc:"Recorded runs, newest first"`
	Count int            `json:"count" example:"3" doc:"Number of runs"`
}

type RunListResponse struct {
	Body RunListData
}

type RunResponse struct {
	Body runstore.Run
}

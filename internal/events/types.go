package events

import (
	"github.com/smazurov/rodopt/internal/analysis"
	"github.com/smazurov/rodopt/internal/history"
)

// Event type constants for kelindar/event.
const (
	TypeRunStateChanged uint32 = iota + 1
	TypeRunDirectoryChanged
	TypeHistoryUpdated
	TypeProcessOutput
	TypeRunElapsed
	TypeSessionReset
	TypeStudyChanged
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// RunStateChangedEvent is published on every run state transition.
type RunStateChangedEvent struct {
	SessionID string `json:"session_id" example:"0b9c6f0e-8d51-4c33-9a43-2a8a43c1a6a5" doc:"Run session id"`
	State     string `json:"state" example:"running" doc:"New state: stopped, running, paused"`
	Previous  string `json:"previous" example:"stopped" doc:"State before the transition"`
	Reason    string `json:"reason,omitempty" example:"exited" doc:"Why the run stopped"`
	ExitCode  *int   `json:"exit_code,omitempty" doc:"Process exit code once stopped"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for RunStateChangedEvent.
func (e RunStateChangedEvent) Type() uint32 { return TypeRunStateChanged }

// RunDirectoryChangedEvent is published when the run directory of the
// current session is discovered or cleared.
type RunDirectoryChangedEvent struct {
	SessionID string `json:"session_id" doc:"Run session id"`
	Path      string `json:"path" example:"/work/run-Study1-20250127" doc:"Run directory, empty when cleared"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for RunDirectoryChangedEvent.
func (e RunDirectoryChangedEvent) Type() uint32 { return TypeRunDirectoryChanged }

// HistoryUpdatedEvent carries a new history snapshot and its analysis.
// The snapshot is shared and must not be modified by subscribers.
type HistoryUpdatedEvent struct {
	SessionID      string            `json:"session_id" doc:"Run session id"`
	Snapshot       *history.Snapshot `json:"snapshot" doc:"History rows at the observed modification time"`
	Analysis       analysis.Result   `json:"analysis" doc:"Feasibility and optimality of the rows"`
	VisibleColumns []int             `json:"visible_columns" doc:"Column indices worth displaying"`
	Timestamp      string            `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for HistoryUpdatedEvent.
func (e HistoryUpdatedEvent) Type() uint32 { return TypeHistoryUpdated }

// ProcessOutputEvent is one line the optimizer wrote to stdout or stderr.
type ProcessOutputEvent struct {
	SessionID string `json:"session_id" doc:"Run session id"`
	Source    string `json:"source" example:"stdout" doc:"stdout or stderr"`
	Line      string `json:"line" doc:"Raw output line"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ProcessOutputEvent.
func (e ProcessOutputEvent) Type() uint32 { return TypeProcessOutput }

// RunElapsedEvent is published on every status tick while a run is active.
type RunElapsedEvent struct {
	SessionID string  `json:"session_id" doc:"Run session id"`
	State     string  `json:"state" example:"running" doc:"Current state"`
	Seconds   float64 `json:"seconds" example:"75.5" doc:"Running time excluding pauses"`
	Formatted string  `json:"formatted" example:"1m 15s" doc:"Human readable running time"`
	Timestamp string  `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for RunElapsedEvent.
func (e RunElapsedEvent) Type() uint32 { return TypeRunElapsed }

// SessionResetEvent tells subscribers to drop any snapshot they hold:
// a new session has started.
type SessionResetEvent struct {
	SessionID string `json:"session_id" doc:"New run session id"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SessionResetEvent.
func (e SessionResetEvent) Type() uint32 { return TypeSessionReset }

// StudyChangedEvent is published when the study file is (re)loaded.
type StudyChangedEvent struct {
	Path             string `json:"path" doc:"Study file path"`
	Name             string `json:"name" example:"Study1" doc:"Study name"`
	WorkingDirectory string `json:"working_directory" doc:"Directory run directories are created in"`
	Dimension        int    `json:"dimension" doc:"Number of design variables"`
	Objectives       int    `json:"objectives" doc:"Number of objective functions"`
	Constraints      int    `json:"constraints" doc:"Number of constraint functions"`
	Timestamp        string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for StudyChangedEvent.
func (e StudyChangedEvent) Type() uint32 { return TypeStudyChanged }

// LogEntryEvent represents a log entry for SSE streaming.
type LogEntryEvent struct {
	Seq        uint64         `json:"seq" example:"42" doc:"Monotonic sequence number for deduplication"`
	Timestamp  string         `json:"timestamp" example:"2025-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"api" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }

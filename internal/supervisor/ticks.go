package supervisor

import (
	"context"
	"path/filepath"
	"time"

	"github.com/smazurov/rodopt/internal/analysis"
	"github.com/smazurov/rodopt/internal/events"
	"github.com/smazurov/rodopt/internal/rundir"
)

// Run drives the periodic checks until ctx is cancelled, then stops any
// active run.
func (s *Supervisor) Run(ctx context.Context) error {
	status := time.NewTicker(s.cfg.StatusInterval)
	defer status.Stop()
	hist := time.NewTicker(s.cfg.HistoryInterval)
	defer hist.Stop()
	dirs := time.NewTicker(s.cfg.RunDirInterval)
	defer dirs.Stop()

	// One-shot rescan shortly after each start, so the run directory shows
	// up before the first regular rescan.
	initial := time.NewTimer(s.cfg.InitialRescanDelay)
	initial.Stop()
	defer initial.Stop()

	s.logger.Debug("Supervisor loop started",
		"status_interval", s.cfg.StatusInterval,
		"history_interval", s.cfg.HistoryInterval,
		"run_dir_interval", s.cfg.RunDirInterval)

	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			err := s.stopLocked(ReasonShutdown)
			s.mu.Unlock()
			return err
		case <-s.started:
			initial.Reset(s.cfg.InitialRescanDelay)
		case <-initial.C:
			s.RefreshRunDirectory()
			s.RefreshHistory()
		case <-status.C:
			s.CheckProcess()
		case <-dirs.C:
			s.RefreshRunDirectory()
		case <-hist.C:
			s.RefreshHistory()
		}
	}
}

// CheckProcess notices a process that exited on its own and publishes the
// elapsed running time of an active session.
func (s *Supervisor) CheckProcess() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.session.state.Active() {
		return
	}
	if s.session.handle == nil || s.session.handle.Exited() {
		s.logger.Info("Optimizer process exited", "session_id", s.session.id)
		s.finishLocked(ReasonExited)
		return
	}

	d, _ := s.elapsedLocked()
	s.publish(events.RunElapsedEvent{
		SessionID: s.session.id,
		State:     string(s.session.state),
		Seconds:   d.Seconds(),
		Formatted: FormatElapsed(d),
		Timestamp: s.timestamp(),
	})
}

// RefreshRunDirectory looks for the directory the active run writes into.
func (s *Supervisor) RefreshRunDirectory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshRunDirLocked()
}

func (s *Supervisor) refreshRunDirLocked() {
	if !s.session.state.Active() {
		return
	}
	s.reloadStudyLocked(false)

	path, ok := rundir.Resolve(s.study.WorkingDirectory, s.study.Name, s.session.startTime)
	if !ok {
		return
	}
	if s.runDir != nil && s.runDir.Path == path {
		return
	}

	s.runDir = &RunDirectory{Path: path, DiscoveredAt: s.now()}
	s.snapshot = nil
	s.feasibility = nil
	s.logger.Info("Run directory found", "session_id", s.session.id, "path", path)

	if s.journal != nil {
		if err := s.journal.SetRunDir(s.session.id, path); err != nil {
			s.logger.Warn("Failed to record run directory", "session_id", s.session.id, "error", err)
		}
	}
	s.publish(events.RunDirectoryChangedEvent{
		SessionID: s.session.id,
		Path:      path,
		Timestamp: s.timestamp(),
	})
}

// RefreshHistory re-reads the history file of the active run if it
// changed, and analyzes the rows.
func (s *Supervisor) RefreshHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.session.state.Active() {
		return
	}
	s.refreshHistoryLocked()
}

func (s *Supervisor) refreshHistoryLocked() {
	if s.runDir == nil {
		return
	}

	path := filepath.Join(s.runDir.Path, s.cfg.HistoryFileName)
	snap, err := s.ingestor.Poll(path, s.session.startTime, s.snapshot)
	if err != nil {
		s.logger.Warn("Failed to read history", "path", path, "error", err)
		return
	}
	if snap == nil {
		return
	}

	layout := analysis.Layout{
		Dimension:  s.study.Dimension,
		Objectives: s.study.ObjectiveCount(),
	}
	result, err := analysis.Analyze(snap.Rows, layout)
	if err != nil {
		// Rows are still shown; only the ranking is unavailable.
		s.logger.Debug("History layout does not match study", "error", err, "columns", len(snap.Header))
	}

	s.snapshot = snap
	s.feasibility = &result

	if s.journal != nil {
		if jerr := s.journal.Progress(s.session.id, snap.Len(), result.FeasibleCount); jerr != nil {
			s.logger.Warn("Failed to record run progress", "session_id", s.session.id, "error", jerr)
		}
	}

	s.publish(events.HistoryUpdatedEvent{
		SessionID:      s.session.id,
		Snapshot:       snap,
		Analysis:       result,
		VisibleColumns: VisibleColumns(snap.Header, layout, s.study.Constraints),
		Timestamp:      s.timestamp(),
	})
}

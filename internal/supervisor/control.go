package supervisor

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/smazurov/rodopt/internal/events"
	"github.com/smazurov/rodopt/internal/logging"
	"github.com/smazurov/rodopt/internal/process"
	"github.com/smazurov/rodopt/internal/runstore"
)

// Stop reasons recorded in the journal and state events.
const (
	ReasonStopped  = "stopped"
	ReasonExited   = "exited"
	ReasonShutdown = "shutdown"
)

// Start launches executable with configPath as its only argument. Empty
// arguments fall back to the last used executable and study. Starting a
// paused run resumes it; starting a running one reports ErrAlreadyRunning.
func (s *Supervisor) Start(executable, configPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.session.state {
	case StateRunning:
		return newError(CodeAlreadyRunning, "optimizer is already running", nil)
	case StatePaused:
		return s.resumeLocked()
	}

	if executable == "" {
		executable = s.executable
	}
	if configPath == "" {
		configPath = s.studyPath
	}
	if err := validateExecutable(executable); err != nil {
		return err
	}
	if err := validateConfig(configPath); err != nil {
		return err
	}

	// Nothing below changes until the launch succeeds.
	id := uuid.NewString()
	output := process.NewLineBuffer(s.cfg.OutputLines)
	startTime := s.now()

	handle, err := s.launch(executable, []string{configPath}, process.Options{
		Logger:          logging.GetLogger("process"),
		OutputLogger:    logging.GetLogger("optimizer"),
		Output:          &sessionOutput{sup: s, buf: output, sessionID: id},
		GracefulTimeout: s.cfg.GracefulTimeout,
		KillTimeout:     s.cfg.KillTimeout,
	})
	if err != nil {
		return newError(CodeProcessControl, "failed to start the executable", err)
	}

	s.output.Store(output)
	if configPath != s.studyPath {
		s.setStudyLocked(configPath)
	} else {
		s.reloadStudyLocked(true)
	}

	s.session = session{
		id:         id,
		state:      StateRunning,
		startTime:  startTime,
		handle:     handle,
		executable: executable,
		configPath: configPath,
	}
	s.runDir = nil
	s.lastRunDir = ""
	s.snapshot = nil
	s.feasibility = nil

	s.executable = executable
	if saveErr := s.settings.SaveExecutable(executable); saveErr != nil {
		s.logger.Warn("Failed to remember executable", "error", saveErr)
	}
	if s.journal != nil {
		beginErr := s.journal.Begin(runstore.Run{
			ID:         id,
			Executable: executable,
			StudyPath:  configPath,
			StudyName:  s.study.Name,
			StartedAt:  startTime,
		})
		if beginErr != nil {
			s.logger.Warn("Failed to record run", "session_id", id, "error", beginErr)
		}
	}

	s.logger.Info("Run started", "session_id", id, "pid", handle.PID(), "executable", executable, "study", configPath)

	ts := s.timestamp()
	s.publish(events.SessionResetEvent{SessionID: id, Timestamp: ts})
	s.publish(events.RunStateChangedEvent{
		SessionID: id,
		State:     string(StateRunning),
		Previous:  string(StateStopped),
		Timestamp: ts,
	})

	select {
	case s.started <- struct{}{}:
	default:
	}
	return nil
}

// Pause suspends the running process.
func (s *Supervisor) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.session.state.CanTransition(StatePaused) {
		return newError(CodeState, fmt.Sprintf("cannot pause while %s", s.session.state), nil)
	}
	if err := s.session.handle.Suspend(); err != nil {
		return newError(CodeProcessControl, "failed to pause the process", err)
	}

	s.session.pauseStartedAt = s.now()
	s.transitionLocked(StatePaused, "")
	return nil
}

// Resume continues a paused process.
func (s *Supervisor) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resumeLocked()
}

func (s *Supervisor) resumeLocked() error {
	if s.session.state != StatePaused {
		return newError(CodeState, fmt.Sprintf("cannot resume while %s", s.session.state), nil)
	}
	if err := s.session.handle.Resume(); err != nil {
		return newError(CodeProcessControl, "failed to resume the process", err)
	}

	s.settlePauseLocked()
	s.transitionLocked(StateRunning, "")
	return nil
}

// Stop terminates the process: a terminate signal, a bounded wait, then a
// kill. The session always ends stopped; a failure to kill is still
// reported. Stopping a stopped session does nothing.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked(ReasonStopped)
}

func (s *Supervisor) stopLocked(reason string) error {
	if !s.session.state.Active() {
		return nil
	}

	var stopErr error
	if err := s.session.handle.Terminate(); err != nil {
		stopErr = newError(CodeProcessControl, "failed to stop the process", err)
		s.logger.Error("Process did not stop cleanly", "session_id", s.session.id, "error", err)
	}

	s.finishLocked(reason)
	return stopErr
}

// settlePauseLocked folds an open pause interval into the accumulated pause.
func (s *Supervisor) settlePauseLocked() {
	if s.session.pauseStartedAt.IsZero() {
		return
	}
	s.session.accumulatedPause += s.now().Sub(s.session.pauseStartedAt)
	s.session.pauseStartedAt = time.Time{}
}

func (s *Supervisor) transitionLocked(next State, reason string) {
	prev := s.session.state
	s.session.state = next
	s.logger.Info("Run state changed", "session_id", s.session.id, "from", prev, "to", next)
	s.publish(events.RunStateChangedEvent{
		SessionID: s.session.id,
		State:     string(next),
		Previous:  string(prev),
		Reason:    reason,
		ExitCode:  s.session.exitCode,
		Timestamp: s.timestamp(),
	})
}

// finishLocked moves an active session to stopped after its process is gone.
func (s *Supervisor) finishLocked(reason string) {
	if s.runDir != nil {
		// Pick up rows written between the last poll and the exit.
		s.refreshHistoryLocked()
	}
	s.settlePauseLocked()

	var exitCode *int
	var signal int
	if h := s.session.handle; h != nil && h.Exited() {
		if code := h.ExitCode(); code >= 0 {
			exitCode = &code
		}
		signal = h.Signal()
	}
	s.session.exitCode = exitCode
	s.session.signal = signal
	s.session.stopReason = reason
	s.session.handle = nil

	if s.journal != nil {
		err := s.journal.Finish(s.session.id, s.now(), reason, exitCode, s.session.accumulatedPause)
		if err != nil {
			s.logger.Warn("Failed to record run end", "session_id", s.session.id, "error", err)
		}
	}

	s.transitionLocked(StateStopped, reason)
	s.clearRunDirLocked()
}

func (s *Supervisor) clearRunDirLocked() {
	if s.runDir == nil {
		return
	}
	s.lastRunDir = s.runDir.Path
	s.runDir = nil
	s.publish(events.RunDirectoryChangedEvent{
		SessionID: s.session.id,
		Timestamp: s.timestamp(),
	})
}

func validateExecutable(path string) error {
	if path == "" {
		return newError(CodeInvalidInput, "no executable selected", nil)
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return newError(CodeInvalidInput, "executable not found: "+path, nil)
		}
		return newError(CodeInvalidInput, "cannot access executable "+path, err)
	}
	if info.IsDir() {
		return newError(CodeInvalidInput, "executable is a directory: "+path, nil)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm()&0o111 == 0 {
		return newError(CodeInvalidInput, "file is not executable: "+path, nil)
	}
	return nil
}

func validateConfig(path string) error {
	if path == "" {
		return newError(CodeInvalidInput, "no study configuration selected", nil)
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return newError(CodeInvalidInput, "study configuration not found: "+path, nil)
		}
		return newError(CodeInvalidInput, "cannot access study configuration "+path, err)
	}
	return nil
}

// sessionOutput forwards process output without taking the supervisor
// lock; Stop holds that lock while waiting for the process to exit.
type sessionOutput struct {
	sup       *Supervisor
	buf       *process.LineBuffer
	sessionID string
}

func (o *sessionOutput) HandleLine(source, line string) {
	o.buf.HandleLine(source, line)
	o.sup.publish(events.ProcessOutputEvent{
		SessionID: o.sessionID,
		Source:    source,
		Line:      line,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

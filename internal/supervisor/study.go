package supervisor

import (
	"os"

	"github.com/smazurov/rodopt/internal/events"
	"github.com/smazurov/rodopt/internal/study"
)

// SetStudy selects the study configuration file. It is remembered in the
// settings store. Changing the study name or working directory drops the
// current run directory and history.
func (s *Supervisor) SetStudy(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validateConfig(path); err != nil {
		return err
	}
	s.setStudyLocked(path)
	if s.studyErr != nil {
		return newError(CodeInvalidInput, "cannot read study configuration", s.studyErr)
	}
	return nil
}

// ReloadStudy re-reads the current study file.
func (s *Supervisor) ReloadStudy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadStudyLocked(true)
}

// Study returns the current study, or the error from reading it.
func (s *Supervisor) Study() (study.Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.study, s.studyErr
}

// StudyPath returns the current study file path.
func (s *Supervisor) StudyPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.studyPath
}

func (s *Supervisor) setStudyLocked(path string) {
	if saveErr := s.settings.SaveStudy(path); saveErr != nil {
		s.logger.Warn("Failed to remember study", "error", saveErr)
	}
	s.studyPath = path
	s.reloadStudyLocked(true)
}

// reloadStudyLocked re-reads the study when forced or when the file
// changed since the last read.
func (s *Supervisor) reloadStudyLocked(force bool) {
	if s.studyPath == "" {
		return
	}
	info, err := os.Stat(s.studyPath)
	if err != nil {
		return
	}
	if !force && s.studyErr == nil && info.ModTime().Equal(s.studyMod) {
		return
	}
	s.loadStudyLocked(s.studyPath)
}

func (s *Supervisor) loadStudyLocked(path string) {
	prev := s.study
	s.studyPath = path
	if info, err := os.Stat(path); err == nil {
		s.studyMod = info.ModTime()
	}

	loaded, err := study.Load(path)
	if err != nil {
		s.logger.Warn("Failed to read study", "path", path, "error", err)
		s.study = study.Info{Path: path}
		s.studyErr = err
	} else {
		s.study = loaded
		s.studyErr = nil
		s.logger.Debug("Study loaded", "path", path, "name", loaded.Name,
			"dimension", loaded.Dimension, "objectives", loaded.Objectives)
	}

	if !prev.SameRunTarget(s.study) {
		s.resetResultsLocked()
	}

	s.publish(events.StudyChangedEvent{
		Path:             path,
		Name:             s.study.Name,
		WorkingDirectory: s.study.WorkingDirectory,
		Dimension:        s.study.Dimension,
		Objectives:       s.study.Objectives,
		Constraints:      s.study.Constraints,
		Timestamp:        s.timestamp(),
	})
}

// resetResultsLocked forgets the run directory and history of the session.
func (s *Supervisor) resetResultsLocked() {
	s.snapshot = nil
	s.feasibility = nil
	s.lastRunDir = ""
	if s.runDir != nil {
		s.runDir = nil
		s.publish(events.RunDirectoryChangedEvent{
			SessionID: s.session.id,
			Timestamp: s.timestamp(),
		})
	}
}

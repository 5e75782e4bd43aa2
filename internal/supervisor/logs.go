package supervisor

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/smazurov/rodopt/internal/rundir"
)

// ErrNoLog is returned when no log file of the requested kind exists yet.
var ErrNoLog = errors.New("no log file found")

// LogFile is the raw content of a run log.
type LogFile struct {
	Kind    string    `json:"kind"`
	Path    string    `json:"path"`
	ModTime time.Time `json:"mod_time"`
	Content string    `json:"content"`
}

// LogKinds returns the configured log kinds.
func (s *Supervisor) LogKinds() []string {
	kinds := make([]string, 0, len(s.cfg.LogSuffixes))
	for k := range s.cfg.LogSuffixes {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// ReadLog returns the newest log file of kind in the run directory of the
// current or most recently finished run.
func (s *Supervisor) ReadLog(kind string) (LogFile, error) {
	suffix, ok := s.cfg.LogSuffixes[kind]
	if !ok {
		return LogFile{}, newError(CodeInvalidInput, "unknown log kind: "+kind, nil)
	}

	s.mu.Lock()
	dir := s.lastRunDir
	if s.runDir != nil {
		dir = s.runDir.Path
	}
	s.mu.Unlock()

	if dir == "" {
		return LogFile{}, fmt.Errorf("%w: no run directory", ErrNoLog)
	}
	path, ok := rundir.LatestFile(dir, suffix)
	if !ok {
		return LogFile{}, fmt.Errorf("%w: no *%s in %s", ErrNoLog, suffix, dir)
	}

	info, err := os.Stat(path)
	if err != nil {
		return LogFile{}, fmt.Errorf("stat log: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return LogFile{}, fmt.Errorf("read log: %w", err)
	}
	return LogFile{Kind: kind, Path: path, ModTime: info.ModTime(), Content: string(data)}, nil
}

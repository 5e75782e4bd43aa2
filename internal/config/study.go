package config

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/smazurov/rodopt/internal/study"
)

// StudyReloader is notified when the watched study file changes on disk.
type StudyReloader interface {
	ReloadStudy()
}

// NewStudyWatcher watches a study file and hands each successfully parsed
// revision to the registered handlers.
func NewStudyWatcher(path string, logger *slog.Logger, opts ...WatcherOption[study.Info]) *Watcher[study.Info] {
	return NewConfigWatcher(path, study.Load, logger, opts...)
}

// WatchStudy starts a study watcher that asks target to reload whenever
// the file changes. The returned watcher must be stopped by the caller.
func WatchStudy(path string, target StudyReloader, logger *slog.Logger) (*Watcher[study.Info], error) {
	w := NewStudyWatcher(path, logger, WithDebounce[study.Info](500*time.Millisecond))
	w.OnReload(func(info study.Info) {
		logger.Debug("Study file changed", "path", info.Path, "name", info.Name)
		target.ReloadStudy()
	})
	if err := w.Start(); err != nil {
		return nil, err
	}
	return w, nil
}

// StudyFollower keeps a single watcher on whichever study file is current.
type StudyFollower struct {
	mu      sync.Mutex
	target  StudyReloader
	logger  *slog.Logger
	watcher *Watcher[study.Info]
}

// NewStudyFollower creates a follower that reloads target on changes.
func NewStudyFollower(target StudyReloader, logger *slog.Logger) *StudyFollower {
	return &StudyFollower{target: target, logger: logger}
}

// Follow switches the watch to path. Following the current path again is
// a no-op and an empty path only stops the current watch.
func (f *StudyFollower) Follow(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.watcher != nil {
		if path != "" && f.watcher.Path() == filepath.Clean(path) {
			return nil
		}
		_ = f.watcher.Stop()
		f.watcher = nil
	}
	if path == "" {
		return nil
	}

	w, err := WatchStudy(path, f.target, f.logger)
	if err != nil {
		return err
	}
	f.watcher = w
	return nil
}

// Current returns the watched study path, or "".
func (f *StudyFollower) Current() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.watcher == nil {
		return ""
	}
	return f.watcher.Path()
}

// Stop ends the current watch.
func (f *StudyFollower) Stop() {
	_ = f.Follow("")
}

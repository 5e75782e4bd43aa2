// Package supervisor runs one external optimizer process at a time and
// follows its results.
//
// A Supervisor owns the run session state machine (stopped, running,
// paused) and three periodic tasks: a process liveness check, a run
// directory rescan and a history poll. Every public method and every tick
// takes the same mutex, so the session, the run directory and the history
// snapshot are only ever changed by one caller at a time. Snapshots are
// replaced wholesale and may be shared with readers without copying.
package supervisor

import (
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/smazurov/rodopt/internal/analysis"
	"github.com/smazurov/rodopt/internal/events"
	"github.com/smazurov/rodopt/internal/history"
	"github.com/smazurov/rodopt/internal/logging"
	"github.com/smazurov/rodopt/internal/process"
	"github.com/smazurov/rodopt/internal/runstore"
	"github.com/smazurov/rodopt/internal/settings"
	"github.com/smazurov/rodopt/internal/study"
)

// Handle is the part of a child process the supervisor drives.
type Handle interface {
	PID() int
	Suspend() error
	Resume() error
	Terminate() error
	Exited() bool
	ExitCode() int
	Signal() int
}

// Launcher starts the optimizer process.
type Launcher func(executable string, args []string, opts process.Options) (Handle, error)

// Journal records run sessions. *runstore.Store implements it.
type Journal interface {
	Begin(run runstore.Run) error
	SetRunDir(id, dir string) error
	Progress(id string, rows, feasible int) error
	Finish(id string, stoppedAt time.Time, reason string, exitCode *int, paused time.Duration) error
}

// Config holds supervisor timings and file conventions.
type Config struct {
	StatusInterval     time.Duration
	HistoryInterval    time.Duration
	RunDirInterval     time.Duration
	InitialRescanDelay time.Duration
	GracefulTimeout    time.Duration
	KillTimeout        time.Duration
	HistoryFileName    string
	// LogSuffixes maps a log kind to the file name suffix searched for in
	// the run directory.
	LogSuffixes map[string]string
	OutputLines int
}

// DefaultConfig returns the standard timings.
func DefaultConfig() Config {
	return Config{
		StatusInterval:     2 * time.Second,
		HistoryInterval:    3 * time.Second,
		RunDirInterval:     5 * time.Second,
		InitialRescanDelay: 1500 * time.Millisecond,
		GracefulTimeout:    time.Second,
		KillTimeout:        2 * time.Second,
		HistoryFileName:    history.DefaultFileName,
		LogSuffixes:        map[string]string{"status": "_process_pool.log"},
		OutputLines:        1000,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.StatusInterval <= 0 {
		c.StatusInterval = def.StatusInterval
	}
	if c.HistoryInterval <= 0 {
		c.HistoryInterval = def.HistoryInterval
	}
	if c.RunDirInterval <= 0 {
		c.RunDirInterval = def.RunDirInterval
	}
	if c.InitialRescanDelay <= 0 {
		c.InitialRescanDelay = def.InitialRescanDelay
	}
	if c.GracefulTimeout <= 0 {
		c.GracefulTimeout = def.GracefulTimeout
	}
	if c.KillTimeout <= 0 {
		c.KillTimeout = def.KillTimeout
	}
	if c.HistoryFileName == "" {
		c.HistoryFileName = def.HistoryFileName
	}
	if len(c.LogSuffixes) == 0 {
		c.LogSuffixes = def.LogSuffixes
	}
	if c.OutputLines <= 0 {
		c.OutputLines = def.OutputLines
	}
	return c
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithBus publishes run events on bus.
func WithBus(bus *events.Bus) Option {
	return func(s *Supervisor) { s.bus = bus }
}

// WithSettings remembers the executable and study paths in store.
func WithSettings(store settings.Store) Option {
	return func(s *Supervisor) { s.settings = store }
}

// WithJournal records run sessions in j.
func WithJournal(j Journal) Option {
	return func(s *Supervisor) { s.journal = j }
}

// WithLauncher replaces the process launcher.
func WithLauncher(l Launcher) Option {
	return func(s *Supervisor) { s.launch = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Supervisor) { s.now = now }
}

// WithLogger sets the supervisor logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Supervisor) { s.logger = logger }
}

// session is the mutable state of one run.
type session struct {
	id               string
	state            State
	startTime        time.Time
	pauseStartedAt   time.Time
	accumulatedPause time.Duration
	handle           Handle
	executable       string
	configPath       string
	stopReason       string
	exitCode         *int
	signal           int
}

// RunDirectory is the directory the current run writes into.
type RunDirectory struct {
	Path         string    `json:"path"`
	DiscoveredAt time.Time `json:"discovered_at"`
}

// Supervisor controls one optimizer process at a time.
type Supervisor struct {
	mu       sync.Mutex
	cfg      Config
	logger   *slog.Logger
	bus      *events.Bus
	settings settings.Store
	journal  Journal
	launch   Launcher
	now      func() time.Time
	ingestor *history.Ingestor
	output   atomic.Pointer[process.LineBuffer]
	started  chan struct{}

	executable string
	studyPath  string
	studyMod   time.Time
	study      study.Info
	studyErr   error

	session     session
	runDir      *RunDirectory
	lastRunDir  string
	snapshot    *history.Snapshot
	feasibility *analysis.Result
}

// New creates a stopped Supervisor. The last used executable and study
// are restored from the settings store when they still exist.
func New(cfg Config, opts ...Option) *Supervisor {
	s := &Supervisor{
		cfg:      cfg.withDefaults(),
		launch:   startProcess,
		now:      time.Now,
		ingestor: history.NewIngestor(),
		started:  make(chan struct{}, 1),
		session:  session{state: StateStopped},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.GetLogger("supervisor")
	}
	if s.settings == nil {
		s.settings = settings.NewMemory()
	}
	s.output.Store(process.NewLineBuffer(s.cfg.OutputLines))

	s.restore()
	return s
}

func startProcess(executable string, args []string, opts process.Options) (Handle, error) {
	h, err := process.Start(executable, args, opts)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// restore picks up the remembered paths if the files are still there.
func (s *Supervisor) restore() {
	if exe := s.settings.Executable(); exe != "" {
		if info, err := os.Stat(exe); err == nil && info.Mode().IsRegular() {
			s.executable = exe
		}
	}
	if path := s.settings.Study(); path != "" {
		if _, err := os.Stat(path); err == nil {
			s.loadStudyLocked(path)
		}
	}
}

func (s *Supervisor) publish(ev events.Event) {
	if s.bus != nil {
		s.bus.Publish(ev)
	}
}

func (s *Supervisor) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

// State returns the current session state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.state
}

// Executable returns the last used executable path.
func (s *Supervisor) Executable() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.executable
}

// Snapshot returns the latest history snapshot of the current session, or
// nil. The snapshot must not be modified.
func (s *Supervisor) Snapshot() *history.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Feasibility returns the analysis of the latest snapshot, or nil.
func (s *Supervisor) Feasibility() *analysis.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feasibility
}

// HistoryView bundles a snapshot with its analysis and the columns worth
// displaying, taken under one lock.
type HistoryView struct {
	Snapshot       *history.Snapshot
	Analysis       *analysis.Result
	VisibleColumns []int
}

// History returns the latest snapshot together with its analysis.
func (s *Supervisor) History() HistoryView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := HistoryView{Snapshot: s.snapshot, Analysis: s.feasibility, VisibleColumns: []int{}}
	if s.snapshot != nil {
		layout := analysis.Layout{Dimension: s.study.Dimension, Objectives: s.study.ObjectiveCount()}
		view.VisibleColumns = VisibleColumns(s.snapshot.Header, layout, s.study.Constraints)
	}
	return view
}

// RunDirectory returns the run directory of the active session.
func (s *Supervisor) RunDirectory() (RunDirectory, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runDir == nil {
		return RunDirectory{}, false
	}
	return *s.runDir, true
}

// Elapsed returns the running time of the active session, excluding time
// spent paused. It is not defined while stopped.
func (s *Supervisor) Elapsed() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsedLocked()
}

func (s *Supervisor) elapsedLocked() (time.Duration, bool) {
	if !s.session.state.Active() {
		return 0, false
	}
	now := s.now()
	d := now.Sub(s.session.startTime) - s.session.accumulatedPause
	if s.session.state == StatePaused && !s.session.pauseStartedAt.IsZero() {
		d -= now.Sub(s.session.pauseStartedAt)
	}
	if d < 0 {
		d = 0
	}
	return d, true
}

// Output returns the buffered stdout/stderr lines of the latest process.
func (s *Supervisor) Output() []process.OutputLine {
	return s.output.Load().Lines()
}

// Status is a point-in-time summary of the supervisor.
type Status struct {
	SessionID      string      `json:"session_id,omitempty"`
	State          State       `json:"state"`
	PID            int         `json:"pid,omitempty"`
	StartedAt      *time.Time  `json:"started_at,omitempty"`
	ElapsedSeconds float64     `json:"elapsed_seconds"`
	Elapsed        string      `json:"elapsed"`
	Executable     string      `json:"executable"`
	StudyPath      string      `json:"study_path"`
	Study          *study.Info `json:"study,omitempty"`
	StudyError     string      `json:"study_error,omitempty"`
	RunDirectory   string      `json:"run_directory,omitempty"`
	Rows           int         `json:"rows"`
	FeasibleRows   int         `json:"feasible_rows"`
	StopReason     string      `json:"stop_reason,omitempty"`
	ExitCode       *int        `json:"exit_code,omitempty"`
	Signal         int         `json:"signal,omitempty"`
}

// Status returns the current status.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		SessionID:  s.session.id,
		State:      s.session.state,
		Executable: s.executable,
		StudyPath:  s.studyPath,
		StopReason: s.session.stopReason,
		ExitCode:   s.session.exitCode,
		Signal:     s.session.signal,
		Rows:       s.snapshot.Len(),
	}
	if s.studyPath != "" && s.studyErr == nil {
		info := s.study
		st.Study = &info
	}
	if s.studyErr != nil {
		st.StudyError = s.studyErr.Error()
	}
	if s.session.handle != nil {
		st.PID = s.session.handle.PID()
	}
	if !s.session.startTime.IsZero() {
		started := s.session.startTime
		st.StartedAt = &started
	}
	if d, ok := s.elapsedLocked(); ok {
		st.ElapsedSeconds = d.Seconds()
		st.Elapsed = FormatElapsed(d)
	}
	if s.runDir != nil {
		st.RunDirectory = s.runDir.Path
	}
	if s.feasibility != nil {
		st.FeasibleRows = s.feasibility.FeasibleCount
	}
	return st
}

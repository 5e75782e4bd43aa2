package process

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"
)

// Sentinel errors for process control.
var (
	// ErrSuspendUnsupported is returned by Suspend and Resume on platforms
	// without POSIX job-control signals.
	ErrSuspendUnsupported = errors.New("process suspension not supported on this platform")

	// ErrNotRunning is returned when signalling a process that already exited.
	ErrNotRunning = errors.New("process not running")
)

// OutputHandler receives output lines from the subprocess.
type OutputHandler interface {
	HandleLine(source, line string)
}

// Options configures a child process.
type Options struct {
	// Dir is the working directory of the child (empty = inherit).
	Dir string

	// Logger for lifecycle messages. If nil, uses slog.Default().
	Logger *slog.Logger

	// OutputLogger receives stdout/stderr lines at debug level (nil = Logger).
	OutputLogger *slog.Logger

	// Output receives every stdout/stderr line (optional).
	Output OutputHandler

	// GracefulTimeout bounds the wait after the terminate signal before
	// force killing. Default 1s.
	GracefulTimeout time.Duration

	// KillTimeout bounds the wait after the kill signal. Default 2s.
	KillTimeout time.Duration
}

// Handle is a single supervised OS child process.
type Handle struct {
	cmd             *exec.Cmd
	logger          *slog.Logger
	outputLogger    *slog.Logger
	output          OutputHandler
	gracefulTimeout time.Duration
	killTimeout     time.Duration
	startedAt       time.Time

	done     chan struct{}
	mu       sync.RWMutex
	exitErr  error
	exitCode int
	signal   int
	stdout   *lineWriter
	stderr   *lineWriter
}

// Start spawns executable with args and begins tracking it. The call
// returns as soon as the OS has created the process.
func Start(executable string, args []string, opts Options) (*Handle, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	outputLogger := opts.OutputLogger
	if outputLogger == nil {
		outputLogger = logger
	}

	h := &Handle{
		logger:          logger,
		outputLogger:    outputLogger,
		output:          opts.Output,
		gracefulTimeout: opts.GracefulTimeout,
		killTimeout:     opts.KillTimeout,
		done:            make(chan struct{}),
		exitCode:        -1,
	}
	if h.gracefulTimeout <= 0 {
		h.gracefulTimeout = time.Second
	}
	if h.killTimeout <= 0 {
		h.killTimeout = 2 * time.Second
	}

	h.cmd = exec.Command(executable, args...)
	h.cmd.Dir = opts.Dir
	h.stdout = &lineWriter{source: "stdout", emit: h.handleLine}
	h.stderr = &lineWriter{source: "stderr", emit: h.handleLine}
	h.cmd.Stdout = h.stdout
	h.cmd.Stderr = h.stderr
	// Grandchildren may keep the output pipes open after the child exits.
	h.cmd.WaitDelay = h.killTimeout
	configureCommand(h.cmd)

	if err := h.cmd.Start(); err != nil {
		logger.Error("Failed to start process", "error", err, "executable", executable)
		return nil, fmt.Errorf("start %s: %w", executable, err)
	}
	h.startedAt = time.Now()

	logger.Info("Process started", "pid", h.cmd.Process.Pid, "executable", executable, "args", args)

	go h.wait()
	return h, nil
}

// wait reaps the process and records its exit status.
func (h *Handle) wait() {
	err := h.cmd.Wait()
	h.stdout.flush()
	h.stderr.flush()

	code := exitCodeFromError(err)
	sig := exitSignal(err)

	h.mu.Lock()
	h.exitErr = err
	h.exitCode = code
	h.signal = sig
	h.mu.Unlock()

	if err != nil && code == 1 {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			h.logger.Error("Process exited with error", "error", err)
		}
	}
	h.logger.Info("Process exited", "pid", h.cmd.Process.Pid, "exit_code", code, "signal", sig)
	close(h.done)
}

// PID returns the OS process id.
func (h *Handle) PID() int {
	return h.cmd.Process.Pid
}

// StartedAt returns the time the process was spawned.
func (h *Handle) StartedAt() time.Time {
	return h.startedAt
}

// Done returns a channel that is closed once the process has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Exited reports whether the process has exited.
func (h *Handle) Exited() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// ExitCode returns the exit code, or -1 while running or when the process
// was terminated by a signal.
func (h *Handle) ExitCode() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.exitCode
}

// Signal returns the number of the signal that ended the process, or 0
// when it exited normally or is still running.
func (h *Handle) Signal() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.signal
}

// ExitError returns the error from waiting on the process, if any.
func (h *Handle) ExitError() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.exitErr
}

// Suspend stops the process (and its process group) without terminating it.
func (h *Handle) Suspend() error {
	if h.Exited() {
		return ErrNotRunning
	}
	if err := suspendProcess(h.cmd.Process); err != nil {
		return fmt.Errorf("suspend pid %d: %w", h.PID(), err)
	}
	h.logger.Info("Process suspended", "pid", h.PID())
	return nil
}

// Resume continues a suspended process.
func (h *Handle) Resume() error {
	if h.Exited() {
		return ErrNotRunning
	}
	if err := resumeProcess(h.cmd.Process); err != nil {
		return fmt.Errorf("resume pid %d: %w", h.PID(), err)
	}
	h.logger.Info("Process resumed", "pid", h.PID())
	return nil
}

// Terminate asks the process to exit, waits up to the graceful timeout and
// force kills it if it is still alive. Terminating an exited process is a
// no-op.
func (h *Handle) Terminate() error {
	if h.Exited() {
		return nil
	}

	pid := h.PID()
	h.logger.Info("Terminating process", "pid", pid)
	if err := terminateProcess(h.cmd.Process); err != nil && !errors.Is(err, os.ErrProcessDone) {
		h.logger.Warn("Failed to send terminate signal", "pid", pid, "error", err)
	}

	select {
	case <-h.done:
		return nil
	case <-time.After(h.gracefulTimeout):
	}

	h.logger.Warn("Graceful shutdown timeout, forcing kill", "pid", pid, "timeout", h.gracefulTimeout)
	if err := killProcess(h.cmd.Process); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill pid %d: %w", pid, err)
	}

	select {
	case <-h.done:
		return nil
	case <-time.After(h.killTimeout):
		return fmt.Errorf("pid %d did not exit after kill", pid)
	}
}

func (h *Handle) handleLine(source, line string) {
	if h.output != nil {
		h.output.HandleLine(source, line)
	}
	h.outputLogger.Debug(line, "source", source)
}

// exitCodeFromError extracts exit code from process error.
// Returns 0 for nil error, the exit code for ExitError, or 1 for other errors.
func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

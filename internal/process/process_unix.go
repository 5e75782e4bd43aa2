//go:build unix

package process

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// configureCommand puts the child in its own process group so that job
// control signals reach the evaluations it spawns as well.
func configureCommand(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func signalGroup(p *os.Process, sig syscall.Signal) error {
	err := syscall.Kill(-p.Pid, sig)
	if errors.Is(err, syscall.ESRCH) {
		return os.ErrProcessDone
	}
	return err
}

func suspendProcess(p *os.Process) error {
	return signalGroup(p, syscall.SIGSTOP)
}

func resumeProcess(p *os.Process) error {
	return signalGroup(p, syscall.SIGCONT)
}

// terminateProcess sends SIGTERM followed by SIGCONT; a stopped process
// only acts on SIGTERM once continued.
func terminateProcess(p *os.Process) error {
	err := signalGroup(p, syscall.SIGTERM)
	_ = signalGroup(p, syscall.SIGCONT)
	return err
}

func exitSignal(err error) int {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return 0
	}
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return int(ws.Signal())
	}
	return 0
}

func killProcess(p *os.Process) error {
	return signalGroup(p, syscall.SIGKILL)
}

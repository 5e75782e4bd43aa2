//go:build !unix

package process

import (
	"os"
	"os/exec"
)

func configureCommand(_ *exec.Cmd) {}

func suspendProcess(_ *os.Process) error {
	return ErrSuspendUnsupported
}

func resumeProcess(_ *os.Process) error {
	return ErrSuspendUnsupported
}

// terminateProcess has no graceful variant here; the kill happens at once.
func terminateProcess(p *os.Process) error {
	return p.Kill()
}

func exitSignal(_ error) int { return 0 }

func killProcess(p *os.Process) error {
	return p.Kill()
}

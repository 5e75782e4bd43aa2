// Package process supervises a single OS child process.
//
// A Handle wraps os/exec with the lifecycle the run supervisor needs:
//   - Start with an explicit argument vector (no shell parsing)
//   - Suspend/Resume via SIGSTOP/SIGCONT sent to the child's process group
//     (POSIX only; other platforms return ErrSuspendUnsupported)
//   - Terminate with SIGTERM, a bounded graceful wait, then SIGKILL
//   - Liveness through Exited() and exit notification through Done()
//   - stdout/stderr split into lines and handed to an OutputHandler
//
// Example:
//
//	buf := process.NewLineBuffer(500)
//	h, err := process.Start("/opt/rodeo/bin/rodeo", []string{"study.xml"}, process.Options{
//	    Output:          buf,
//	    GracefulTimeout: time.Second,
//	})
//	if err != nil {
//	    return err
//	}
//	defer h.Terminate()
//	<-h.Done()
package process

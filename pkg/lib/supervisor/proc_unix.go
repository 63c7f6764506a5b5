//go:build !windows

package supervisor

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

func sysProcAttr() *syscall.SysProcAttr {
	// New process group so a forced stop takes the node's children with it
	// and terminal signals reach the supervisor first.
	return &syscall.SysProcAttr{Setpgid: true}
}

func terminateProcess(pid int) error {
	return unix.Kill(pid, unix.SIGTERM)
}

func killProcessGroup(pid int) error {
	// negative PID means process group
	if err := unix.Kill(-pid, unix.SIGKILL); err != nil {
		return unix.Kill(pid, unix.SIGKILL)
	}
	return nil
}

func exitStatus(state *os.ProcessState) (*int, string) {
	if state == nil {
		return nil, ""
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return nil, unix.SignalName(ws.Signal())
	}
	code := state.ExitCode()
	return &code, ""
}

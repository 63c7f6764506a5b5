package supervisor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/superness/superaxecoinwallet/pkg/lib"
	"github.com/superness/superaxecoinwallet/pkg/lib/output_storage"
)

// StartResult describes the node after Start returned.
type StartResult struct {
	// AlreadyRunning is set when Start found a live node and spawned nothing.
	AlreadyRunning bool
	RunID          string
	Pid            int
	Config         lib.RpcConfig
}

// Start launches the node and waits out the settle delay.
// Calling Start while the node is starting or running returns the existing node.
func (s *Supervisor) Start() (*StartResult, error) {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	s.mu.RLock()
	state, h, cfg := s.state, s.handle, s.config
	s.mu.RUnlock()
	if h != nil {
		if state == lib.NodeStateStopping {
			return nil, ErrBusy
		}
		return &StartResult{AlreadyRunning: true, RunID: h.runID, Pid: h.pid, Config: *cfg}, nil
	}

	info, err := os.Stat(s.execPath)
	if err != nil || info.IsDir() {
		msg := fmt.Sprintf("Daemon not found at: %s", s.execPath)
		s.logger.Error(msg)
		return nil, &Error{Kind: ExecutableNotFound, Message: msg, Err: err}
	}

	rpcCfg, err := s.BootstrapConfig()
	if err != nil {
		return nil, err
	}

	h = s.newHandle()
	s.logLine(h.runID, "Starting daemon: "+s.execPath)
	s.logLine(h.runID, "Data directory: "+s.dataDir)

	args := append([]string{"-datadir=" + s.dataDir, "-printtoconsole=0"}, s.opts.NodeArgs...)
	s.logLine(h.runID, "Daemon arguments: "+strings.Join(redactArgs(args), " "))

	stdoutLines := output_storage.NewLineWriter(s.lineForwarder(h.runID, lib.StreamStdout))
	stderrLines := output_storage.NewLineWriter(s.lineForwarder(h.runID, lib.StreamStderr))

	cmd := exec.Command(s.execPath, args...)
	cmd.SysProcAttr = sysProcAttr()
	// cmd.Stdin is left nil, so it will use /dev/null
	cmd.Stdout = io.MultiWriter(h.stdout, stdoutLines)
	cmd.Stderr = io.MultiWriter(h.stderr, stderrLines)
	// grandchildren holding the pipes open must not block the exit handler
	cmd.WaitDelay = time.Second
	h.cmd = cmd

	s.emitMu.Lock()
	s.mu.Lock()
	s.state = lib.NodeStateStarting
	s.mu.Unlock()
	s.emitStatus(h.runID, lib.NodeStateStarting, "")
	s.emitMu.Unlock()

	if err := cmd.Start(); err != nil {
		h.stdout.Stop()
		h.stderr.Stop()
		msg := fmt.Sprintf("Failed to start daemon: %v", err)
		s.logLine(h.runID, msg)

		s.mu.Lock()
		s.last = h
		s.mu.Unlock()
		s.transition(lib.NodeStateError, msg)
		s.transition(lib.NodeStateStopped, "")
		return nil, &Error{Kind: SpawnFailed, Message: msg, Err: err}
	}

	h.pid = cmd.Process.Pid
	h.start = time.Now()

	s.mu.Lock()
	s.handle = h
	s.last = h
	s.config = &rpcCfg
	s.mu.Unlock()

	go s.wait(h, stdoutLines, stderrLines)

	timer := time.NewTimer(s.opts.SettleDelay)
	defer timer.Stop()

	select {
	case <-h.done:
		return nil, s.exitedDuringStartup(h)
	case <-timer.C:
	}

	s.emitMu.Lock()
	s.mu.Lock()
	promoted := s.handle == h && s.state == lib.NodeStateStarting
	if promoted {
		s.state = lib.NodeStateRunning
	}
	s.mu.Unlock()
	if promoted {
		s.emitStatus(h.runID, lib.NodeStateRunning, "")
	}
	s.emitMu.Unlock()

	if !promoted {
		// a Stop arrived during the settle delay; it ends the process
		<-h.done
		return nil, s.exitedDuringStartup(h)
	}

	return &StartResult{RunID: h.runID, Pid: h.pid, Config: rpcCfg}, nil
}

func (s *Supervisor) newHandle() *processHandle {
	return &processHandle{
		runID:  lib.NewID(),
		done:   make(chan struct{}),
		stdout: output_storage.RunNewOutputStorage(),
		stderr: output_storage.RunNewOutputStorage(),
	}
}

func (s *Supervisor) lineForwarder(runID, stream string) func(string) {
	return func(line string) {
		s.logger.Debug("Node output", "stream", stream, "line", line)
		ev := lib.LogEvent(stream, line)
		ev.RunID = runID
		s.notify(ev)
	}
}

func (s *Supervisor) exitedDuringStartup(h *processHandle) error {
	msg := "Daemon exited during startup"
	switch {
	case h.stopRequestedSnapshot(s):
		msg = "Daemon stopped during startup"
	case h.signal != "":
		msg = fmt.Sprintf("%s (signal %s)", msg, h.signal)
	case h.exitCode != nil:
		msg = fmt.Sprintf("%s (code %d)", msg, *h.exitCode)
	}
	return &Error{Kind: ProcessExited, Message: msg, Err: h.err}
}

// wait is the exit handler of a run. It always ends in the stopped state.
func (s *Supervisor) wait(h *processHandle, lines ...*output_storage.LineWriter) {
	err := h.cmd.Wait()
	for _, lw := range lines {
		lw.Flush()
	}
	h.stdout.Stop()
	h.stderr.Stop()

	h.end = time.Now()
	h.exitCode, h.signal = exitStatus(h.cmd.ProcessState)
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) && !errors.Is(err, exec.ErrWaitDelay) {
		h.err = err
	}

	s.logLine(h.runID, fmt.Sprintf("Daemon exited with code %s, signal %s", formatCode(h.exitCode), formatSignal(h.signal)))

	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	errMsg := ""
	s.mu.Lock()
	switch {
	case h.err != nil:
		errMsg = h.err.Error()
	case !h.stopRequested:
		errMsg = "Daemon exited unexpectedly"
	}
	if s.handle == h {
		s.handle = nil
	}
	if errMsg != "" {
		s.state = lib.NodeStateError
	}
	s.mu.Unlock()
	if errMsg != "" {
		s.emitStatus(h.runID, lib.NodeStateError, errMsg)
	}

	s.mu.Lock()
	s.state = lib.NodeStateStopped
	s.mu.Unlock()
	close(h.done)
	s.emitStatus(h.runID, lib.NodeStateStopped, "")
}

func (h *processHandle) stopRequestedSnapshot(s *Supervisor) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return h.stopRequested
}

// redactArgs hides secrets passed on the node command line.
func redactArgs(args []string) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		if key, _, ok := strings.Cut(arg, "="); ok && strings.TrimLeft(key, "-") == KeyRPCPassword {
			arg = key + "=***"
		}
		out[i] = arg
	}
	return out
}

func formatCode(code *int) string {
	if code == nil {
		return "null"
	}
	return fmt.Sprint(*code)
}

func formatSignal(sig string) string {
	if sig == "" {
		return "null"
	}
	return sig
}

package supervisor

import (
	"time"

	"github.com/superness/superaxecoinwallet/pkg/lib"
)

// StopResult reports how Stop ended.
type StopResult struct {
	// WasRunning is false when there was no node to stop.
	WasRunning bool
	// Forced is set when the node ignored the graceful request and was killed.
	Forced  bool
	Message string
	Status  lib.NodeStatus
}

// Stop asks the node to exit and waits for it. After the stop timeout the
// node's whole process group is killed. Concurrent calls share the same wait.
func (s *Supervisor) Stop() *StopResult {
	s.emitMu.Lock()
	s.mu.Lock()
	h := s.handle
	if h == nil {
		s.mu.Unlock()
		s.emitMu.Unlock()
		return &StopResult{Message: "Daemon not running", Status: s.Status()}
	}
	first := !h.stopRequested
	h.stopRequested = true
	if first {
		s.state = lib.NodeStateStopping
	}
	s.mu.Unlock()
	if first {
		s.emitStatus(h.runID, lib.NodeStateStopping, "")
	}
	s.emitMu.Unlock()

	if first {
		s.logLine(h.runID, "Stopping daemon...")
		if err := s.terminate(h.pid); err != nil {
			s.logger.Warn("Failed to signal node", "pid", h.pid, "error", err)
		}
	}

	res := &StopResult{WasRunning: true}
	timer := time.NewTimer(s.opts.StopTimeout)
	defer timer.Stop()

	select {
	case <-h.done:
		res.Message = "Daemon stopped"
	case <-timer.C:
		res.Forced = true
		res.Message = "Daemon force killed"
		h.killOnce.Do(func() {
			s.logLine(h.runID, "Force killing daemon...")
			if err := s.kill(h.pid); err != nil {
				s.logger.Warn("Failed to kill node", "pid", h.pid, "error", err)
			}
		})
		select {
		case <-h.done:
		case <-time.After(killGrace):
			s.logger.Error("Node did not exit after kill", "pid", h.pid)
		}
	}

	res.Status = s.Status()
	return res
}

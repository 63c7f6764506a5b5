package supervisor

import (
	"os"

	"github.com/superness/superaxecoinwallet/pkg/lib"
)

// Status returns a snapshot of the node state and the current or last run.
func (s *Supervisor) Status() lib.NodeStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := lib.NodeStatus{
		State:          s.state,
		DataDir:        s.dataDir,
		ExecutablePath: s.execPath,
	}

	h := s.handle
	if h != nil {
		st.RunID = h.runID
		st.Pid = h.pid
		start := h.start
		st.StartTime = &start
		return st
	}

	// the exit fields of a finished run are settled once its handle is cleared
	if h = s.last; h != nil {
		st.RunID = h.runID
		if !h.start.IsZero() {
			start := h.start
			st.StartTime = &start
		}
		if !h.end.IsZero() {
			end := h.end
			st.EndTime = &end
		}
		if h.exitCode != nil {
			code := *h.exitCode
			st.ExitCode = &code
		}
		st.Signal = h.signal
	}
	return st
}

// State returns the current node state.
func (s *Supervisor) State() lib.NodeState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// RpcConfig returns the connection parameters of the current or last run.
func (s *Supervisor) RpcConfig() (lib.RpcConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.config == nil {
		return lib.RpcConfig{}, false
	}
	return *s.config, true
}

// Output replays and follows the captured output of the current or last run.
// Both channels close once the run has ended and everything was delivered.
func (s *Supervisor) Output() (<-chan []byte, <-chan []byte, error) {
	s.mu.RLock()
	h := s.last
	s.mu.RUnlock()
	if h == nil {
		return nil, nil, os.ErrNotExist
	}

	s.logger.Debug("Subscribing to node output", "run", h.runID)
	return h.stdout.Subscribe(5), h.stderr.Subscribe(5), nil
}
